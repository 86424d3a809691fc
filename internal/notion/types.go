// Package notion holds the Notion wire model and a minimal HTTP client for
// the pages and database query endpoints.
package notion

import (
	"encoding/json"
	"fmt"
)

// PropertyType is the Notion property type key.
type PropertyType string

const (
	TypeTitle       PropertyType = "title"
	TypeRichText    PropertyType = "rich_text"
	TypeSelect      PropertyType = "select"
	TypeMultiSelect PropertyType = "multi_select"
	TypeDate        PropertyType = "date"
	TypeNumber      PropertyType = "number"
	TypeCheckbox    PropertyType = "checkbox"
)

// Valid reports whether t is one of the supported property types.
func (t PropertyType) Valid() bool {
	switch t {
	case TypeTitle, TypeRichText, TypeSelect, TypeMultiSelect, TypeDate, TypeNumber, TypeCheckbox:
		return true
	}
	return false
}

// Text is the content of a text span.
type Text struct {
	Content string `json:"content"`
}

// RichText is one span of a title or rich_text property.
type RichText struct {
	Type      string `json:"type,omitempty"`
	Text      *Text  `json:"text,omitempty"`
	PlainText string `json:"plain_text,omitempty"`
}

// SelectOption is a select or multi_select value.
type SelectOption struct {
	ID    string `json:"id,omitempty"`
	Name  string `json:"name"`
	Color string `json:"color,omitempty"`
}

// DateValue is the payload of a date property.
type DateValue struct {
	Start string  `json:"start"`
	End   *string `json:"end,omitempty"`
}

// Property is a typed property value as sent to or received from Notion.
// Only the member matching Type is meaningful.
type Property struct {
	ID          string         `json:"id,omitempty"`
	Type        PropertyType   `json:"type"`
	Title       []RichText     `json:"title,omitempty"`
	RichText    []RichText     `json:"rich_text,omitempty"`
	Select      *SelectOption  `json:"select,omitempty"`
	MultiSelect []SelectOption `json:"multi_select,omitempty"`
	Date        *DateValue     `json:"date,omitempty"`
	Number      *float64       `json:"number,omitempty"`
	Checkbox    *bool          `json:"checkbox,omitempty"`
}

// MarshalJSON writes the property in the request shape Notion expects:
// a single key named after the type. Empty lists are written as [] so
// that an explicit clear reaches the store.
func (p Property) MarshalJSON() ([]byte, error) {
	var v any
	switch p.Type {
	case TypeTitle:
		v = nonNil(p.Title)
	case TypeRichText:
		v = nonNil(p.RichText)
	case TypeSelect:
		v = p.Select
	case TypeMultiSelect:
		v = nonNil(p.MultiSelect)
	case TypeDate:
		v = p.Date
	case TypeNumber:
		v = p.Number
	case TypeCheckbox:
		if p.Checkbox == nil {
			v = false
		} else {
			v = *p.Checkbox
		}
	default:
		return nil, fmt.Errorf("notion: cannot marshal property of type %q", p.Type)
	}
	return json.Marshal(map[string]any{string(p.Type): v})
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}

// Properties maps Notion column names to property values.
type Properties map[string]Property

// Page is a database row as returned by Notion.
type Page struct {
	Object     string     `json:"object,omitempty"`
	ID         string     `json:"id"`
	URL        string     `json:"url,omitempty"`
	Properties Properties `json:"properties"`
}

// QueryResponse is one page of database query results.
type QueryResponse struct {
	Object     string  `json:"object"`
	Results    []Page  `json:"results"`
	HasMore    bool    `json:"has_more"`
	NextCursor *string `json:"next_cursor"`
}

// APIError is the error object Notion returns for non-2xx responses.
type APIError struct {
	Status  int    `json:"status"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (e *APIError) Error() string {
	if e.Code == "" {
		return fmt.Sprintf("notion API error %d: %s", e.Status, e.Message)
	}
	return fmt.Sprintf("notion API error %d (%s): %s", e.Status, e.Code, e.Message)
}
