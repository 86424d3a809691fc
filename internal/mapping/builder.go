// Package mapping translates between normalized records and Notion property
// sets using a hub schema.
package mapping

import (
	"errors"
	"math"

	"github.com/starford/mia/internal/apperr"
	"github.com/starford/mia/internal/codec"
	"github.com/starford/mia/internal/notion"
	"github.com/starford/mia/internal/schema"
)

// BuildCreate encodes rec for a new page. Required fields must be present.
func BuildCreate(c *schema.Collection, rec schema.Record) (notion.Properties, error) {
	for _, f := range c.Fields {
		if f.Required && !rec.Has(f.Name) {
			return nil, &apperr.MissingRequiredFieldError{Field: f.Name}
		}
	}
	return build(c, rec)
}

// BuildUpdate encodes the present fields of a partial record.
func BuildUpdate(c *schema.Collection, rec schema.Record) (notion.Properties, error) {
	props, err := build(c, rec)
	if err != nil {
		return nil, err
	}
	if len(props) == 0 {
		return nil, apperr.ErrNoFieldsToUpdate
	}
	return props, nil
}

// UpdatedFields lists the field names written by props, in schema order.
func UpdatedFields(c *schema.Collection, props notion.Properties) []string {
	out := make([]string, 0, len(props))
	for _, f := range c.Fields {
		if _, ok := props[f.Column]; ok {
			out = append(out, f.Name)
		}
	}
	return out
}

func build(c *schema.Collection, rec schema.Record) (notion.Properties, error) {
	props := make(notion.Properties)
	for _, f := range c.Fields {
		if !rec.Has(f.Name) {
			continue
		}
		v := rec[f.Name]
		if f.Integer {
			if err := checkWhole(v); err != nil {
				return nil, withField(err, f.Name)
			}
		}
		p, err := codec.Encode(f.Type, v)
		if err != nil {
			return nil, withField(err, f.Name)
		}
		props[f.Column] = p
	}
	return props, nil
}

func checkWhole(v any) error {
	if f, ok := v.(float64); ok && (f != math.Trunc(f) || math.Abs(f) > codec.MaxExactInt) {
		return &apperr.UnsupportedTypeError{Type: "integer", Value: v}
	}
	return nil
}

func withField(err error, name string) error {
	var ute *apperr.UnsupportedTypeError
	if errors.As(err, &ute) && ute.Field == "" {
		ute.Field = name
	}
	return err
}
