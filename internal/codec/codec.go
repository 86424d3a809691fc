// Package codec converts normalized field values to Notion property
// payloads and back.
package codec

import (
	"encoding/json"
	"math"
	"strings"
	"time"

	"github.com/starford/mia/internal/apperr"
	"github.com/starford/mia/internal/notion"
	"github.com/starford/mia/internal/schema"
)

// DateLayout is the only accepted date form. Times and offsets are rejected.
const DateLayout = "2006-01-02"

// Encode converts v to the property payload for type t.
func Encode(t schema.FieldType, v any) (notion.Property, error) {
	p := notion.Property{Type: t}
	switch t {
	case schema.Title, schema.RichText:
		s, ok := v.(string)
		if !ok {
			return p, unsupported(t, v)
		}
		spans := []notion.RichText{{Type: "text", Text: &notion.Text{Content: s}}}
		if t == schema.Title {
			p.Title = spans
		} else {
			p.RichText = spans
		}
	case schema.Select:
		s, ok := v.(string)
		if !ok {
			return p, unsupported(t, v)
		}
		p.Select = &notion.SelectOption{Name: s}
	case schema.MultiSelect:
		names, ok := v.([]string)
		if !ok {
			return p, unsupported(t, v)
		}
		p.MultiSelect = make([]notion.SelectOption, len(names))
		for i, n := range names {
			p.MultiSelect[i] = notion.SelectOption{Name: n}
		}
	case schema.Date:
		s, ok := v.(string)
		if !ok {
			return p, unsupported(t, v)
		}
		if err := ValidateDate(s); err != nil {
			return p, err
		}
		p.Date = &notion.DateValue{Start: s}
	case schema.Number:
		f, ok := toFloat(v)
		if !ok {
			return p, unsupported(t, v)
		}
		p.Number = &f
	case schema.Checkbox:
		b, ok := v.(bool)
		if !ok {
			return p, unsupported(t, v)
		}
		p.Checkbox = &b
	default:
		return p, unsupported(t, v)
	}
	return p, nil
}

// Decode converts a property payload back to its normalized value. It never
// fails: a missing or malformed payload yields nil, or an empty list for
// multi_select.
func Decode(t schema.FieldType, p notion.Property) any {
	switch t {
	case schema.Title:
		return plainText(p.Title)
	case schema.RichText:
		return plainText(p.RichText)
	case schema.Select:
		if p.Select == nil {
			return nil
		}
		return p.Select.Name
	case schema.MultiSelect:
		names := make([]string, 0, len(p.MultiSelect))
		for _, o := range p.MultiSelect {
			names = append(names, o.Name)
		}
		return names
	case schema.Date:
		if p.Date == nil {
			return nil
		}
		return p.Date.Start
	case schema.Number:
		if p.Number == nil {
			return nil
		}
		return *p.Number
	case schema.Checkbox:
		if p.Checkbox == nil {
			return nil
		}
		return *p.Checkbox
	}
	return nil
}

// Empty is the decoded value of a column missing from a record.
func Empty(t schema.FieldType) any {
	if t == schema.MultiSelect {
		return []string{}
	}
	return nil
}

// ValidateDate checks that s is a calendar date without a time component.
func ValidateDate(s string) error {
	if _, err := time.Parse(DateLayout, s); err != nil {
		return &apperr.UnsupportedTypeError{Type: string(schema.Date), Value: s}
	}
	return nil
}

// MaxExactInt is the largest magnitude a float64 holds without losing
// integer precision.
const MaxExactInt = 1 << 53

// Truncate narrows a stored number to an int. Fractions are dropped and
// values beyond ±MaxExactInt are clamped.
func Truncate(v any) any {
	f, ok := v.(float64)
	if !ok {
		return v
	}
	switch {
	case math.IsNaN(f):
		return 0
	case f > MaxExactInt:
		return MaxExactInt
	case f < -MaxExactInt:
		return -MaxExactInt
	}
	return int(math.Trunc(f))
}

func plainText(spans []notion.RichText) any {
	if len(spans) == 0 {
		return nil
	}
	var b strings.Builder
	for _, s := range spans {
		switch {
		case s.PlainText != "":
			b.WriteString(s.PlainText)
		case s.Text != nil:
			b.WriteString(s.Text.Content)
		}
	}
	return b.String()
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	}
	return 0, false
}

func unsupported(t schema.FieldType, v any) error {
	return &apperr.UnsupportedTypeError{Type: string(t), Value: v}
}
