package mapping

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/starford/mia/internal/apperr"
	"github.com/starford/mia/internal/schema"
)

// Category is a multi-select input given either as one string or as a list.
// Exactly one of the variants is set after decoding.
type Category struct {
	Single *string
	Multi  []string
}

// UnmarshalJSON accepts "a" or ["a", "b"].
func (c *Category) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*c = Category{Single: &s}
		return nil
	}
	var list []string
	if err := json.Unmarshal(data, &list); err != nil {
		return err
	}
	if list == nil {
		list = []string{}
	}
	*c = Category{Multi: list}
	return nil
}

// Values normalizes the category to a list.
func (c Category) Values() []string {
	if c.Single != nil {
		return []string{*c.Single}
	}
	if c.Multi == nil {
		return []string{}
	}
	return c.Multi
}

// DecodeInput parses a JSON object keyed by field name into a Record typed
// per the collection schema. JSON null leaves a field absent. Unknown keys
// are rejected.
func DecodeInput(c *schema.Collection, data []byte) (schema.Record, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, apperr.Validation(fmt.Errorf("invalid JSON object: %w", err))
	}
	if raw == nil {
		return nil, apperr.Validation(fmt.Errorf("request body must be a JSON object"))
	}

	var unknown []string
	for k := range raw {
		if _, ok := c.Field(k); !ok {
			unknown = append(unknown, k)
		}
	}
	if len(unknown) > 0 {
		sort.Strings(unknown)
		return nil, apperr.Validation(fmt.Errorf("unknown fields for %s: %v", c.Name, unknown))
	}

	rec := make(schema.Record, len(raw))
	for _, f := range c.Fields {
		msg, ok := raw[f.Name]
		if !ok || bytes.Equal(bytes.TrimSpace(msg), []byte("null")) {
			continue
		}
		v, err := decodeValue(f.Type, msg)
		if err != nil {
			return nil, &apperr.UnsupportedTypeError{Field: f.Name, Type: string(f.Type), Value: string(msg)}
		}
		rec[f.Name] = v
	}
	return rec, nil
}

func decodeValue(t schema.FieldType, msg json.RawMessage) (any, error) {
	switch t {
	case schema.MultiSelect:
		var cat Category
		if err := json.Unmarshal(msg, &cat); err != nil {
			return nil, err
		}
		return cat.Values(), nil
	case schema.Number:
		var f float64
		err := json.Unmarshal(msg, &f)
		return f, err
	case schema.Checkbox:
		var b bool
		err := json.Unmarshal(msg, &b)
		return b, err
	default:
		var s string
		err := json.Unmarshal(msg, &s)
		return s, err
	}
}
