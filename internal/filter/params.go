package filter

import (
	"fmt"
	"net/url"
	"sort"
	"strconv"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/starford/mia/internal/apperr"
	"github.com/starford/mia/internal/codec"
	"github.com/starford/mia/internal/schema"
)

// TermValue is an ad hoc term with its parsed operand.
type TermValue struct {
	Term  schema.Term
	Value any
}

// Params is the parsed query intent of a GET request.
type Params struct {
	Overdue bool        `json:"overdue"`
	Date    string      `json:"date"`
	Scope   string      `json:"scope"`
	From    string      `json:"from"`
	To      string      `json:"to"`
	Terms   []TermValue `json:"-"`
}

// Validate checks date formats and the scope value.
func (p *Params) Validate() error {
	return validation.ValidateStruct(p,
		validation.Field(&p.Date, validation.Date(codec.DateLayout)),
		validation.Field(&p.From, validation.Date(codec.DateLayout)),
		validation.Field(&p.To, validation.Date(codec.DateLayout)),
		validation.Field(&p.Scope, validation.In(schema.ScopePlanned, schema.ScopeDeadline, schema.ScopeBoth)),
	)
}

// ParseParams reads query parameters for collection c. Empty values are
// treated as absent; unknown and repeated parameters are rejected.
func ParseParams(c *schema.Collection, q url.Values) (Params, error) {
	var p Params

	var unknown, repeated []string
	for k, vs := range q {
		if len(vs) > 1 {
			repeated = append(repeated, k)
		}
		if isDateParam(k) && c.HasDateScopes() {
			continue
		}
		if _, ok := c.Term(k); !ok {
			unknown = append(unknown, k)
		}
	}
	if len(unknown) > 0 {
		sort.Strings(unknown)
		return p, apperr.Validation(fmt.Errorf("unknown query parameters for %s: %v", c.Name, unknown))
	}
	if len(repeated) > 0 {
		sort.Strings(repeated)
		return p, apperr.Validation(fmt.Errorf("query parameters given more than once: %v", repeated))
	}

	if c.HasDateScopes() {
		if s := q.Get(schema.ParamOverdue); s != "" {
			b, err := strconv.ParseBool(s)
			if err != nil {
				return p, apperr.Validation(fmt.Errorf("overdue: must be a boolean"))
			}
			p.Overdue = b
		}
		p.Date = q.Get(schema.ParamDate)
		p.Scope = q.Get(schema.ParamScope)
		p.From = q.Get(schema.ParamFrom)
		p.To = q.Get(schema.ParamTo)
	}
	if err := p.Validate(); err != nil {
		return p, apperr.Validation(err)
	}

	for _, t := range c.Filters.Terms {
		s := q.Get(t.Param)
		if s == "" {
			continue
		}
		f, _ := c.Field(t.Field)
		v, err := parseOperand(f, s)
		if err != nil {
			return p, apperr.Validation(fmt.Errorf("%s: %w", t.Param, err))
		}
		p.Terms = append(p.Terms, TermValue{Term: t, Value: v})
	}
	return p, nil
}

func parseOperand(f schema.FieldSpec, s string) (any, error) {
	switch f.Type {
	case schema.Checkbox:
		b, err := strconv.ParseBool(s)
		if err != nil {
			return nil, fmt.Errorf("must be a boolean")
		}
		return b, nil
	case schema.Number:
		n, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return nil, fmt.Errorf("must be a number")
		}
		return n, nil
	case schema.Date:
		if err := codec.ValidateDate(s); err != nil {
			return nil, fmt.Errorf("must be a date in YYYY-MM-DD form")
		}
	}
	return s, nil
}

func isDateParam(k string) bool {
	switch k {
	case schema.ParamOverdue, schema.ParamDate, schema.ParamScope, schema.ParamFrom, schema.ParamTo:
		return true
	}
	return false
}

// Empty reports whether no criteria were supplied.
func (p *Params) Empty() bool {
	return !p.Overdue && p.Date == "" && p.From == "" && p.To == "" && len(p.Terms) == 0
}
