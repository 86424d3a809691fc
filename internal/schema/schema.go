// Package schema defines the static mapping between normalized field names
// and Notion columns for every hub.
package schema

import (
	"fmt"
	"slices"

	"github.com/starford/mia/internal/notion"
)

// FieldType determines how a field is encoded and decoded.
type FieldType = notion.PropertyType

// Field types.
const (
	Title       = notion.TypeTitle
	RichText    = notion.TypeRichText
	Select      = notion.TypeSelect
	MultiSelect = notion.TypeMultiSelect
	Date        = notion.TypeDate
	Number      = notion.TypeNumber
	Checkbox    = notion.TypeCheckbox
)

// FieldSpec maps one normalized field to a Notion column.
type FieldSpec struct {
	Name     string    `json:"name"`
	Column   string    `json:"column"`
	Type     FieldType `json:"type"`
	Required bool      `json:"required,omitempty"`
	// Integer marks numbers that are whole by meaning (minutes, years).
	Integer bool `json:"integer,omitempty"`
}

// Record is a normalized record keyed by field name. A missing key and a
// nil value both mean absent.
type Record map[string]any

// Has reports whether name holds a non-nil value.
func (r Record) Has(name string) bool {
	v, ok := r[name]
	return ok && v != nil
}

// DefaultPolicy decides what an unfiltered query returns.
type DefaultPolicy int

const (
	// DefaultAll returns every record.
	DefaultAll DefaultPolicy = iota
	// DefaultActive excludes records in a terminal state.
	DefaultActive
)

func (p DefaultPolicy) String() string {
	if p == DefaultActive {
		return "active"
	}
	return "all"
}

// Operator is a filter condition understood by Notion.
type Operator string

const (
	OpEquals     Operator = "equals"
	OpNotEquals  Operator = "does_not_equal"
	OpContains   Operator = "contains"
	OpBefore     Operator = "before"
	OpOnOrAfter  Operator = "on_or_after"
	OpOnOrBefore Operator = "on_or_before"
	// OpRange is a date window bounded by on_or_after and/or on_or_before.
	OpRange Operator = "range"
)

// Term declares an ad hoc query parameter compiled to one predicate.
type Term struct {
	Param string   `json:"param"`
	Field string   `json:"field"`
	Op    Operator `json:"op"`
}

// Scope names accepted by the date query parameters.
const (
	ScopePlanned  = "planned"
	ScopeDeadline = "deadline"
	ScopeBoth     = "both"
)

// Query parameters interpreted by the filter compiler itself.
const (
	ParamOverdue = "overdue"
	ParamDate    = "date"
	ParamScope   = "scope"
	ParamFrom    = "from"
	ParamTo      = "to"
)

// ReservedParams cannot be used as ad hoc term names.
var ReservedParams = []string{ParamOverdue, ParamDate, ParamScope, ParamFrom, ParamTo}

// Filters describes how query parameters map onto a collection.
type Filters struct {
	// PlannedField and DeadlineField back the date, from, to and overdue
	// parameters. Either may be empty.
	PlannedField  string
	DeadlineField string
	// StateField is the select field holding the lifecycle state.
	StateField     string
	TerminalStates []string
	Default        DefaultPolicy
	Terms          []Term
}

// Collection is the schema of one hub.
type Collection struct {
	Name    string
	Fields  []FieldSpec
	Filters Filters

	// Primary hubs must be configured at startup.
	Primary bool

	byName map[string]int
}

// New validates fields and filters and returns a Collection.
func New(name string, fields []FieldSpec, filters Filters) (*Collection, error) {
	c := &Collection{
		Name:    name,
		Fields:  slices.Clone(fields),
		Filters: filters,
		byName:  make(map[string]int, len(fields)),
	}
	if err := c.index(); err != nil {
		return nil, err
	}
	return c, nil
}

// MustNew is New for static tables.
func MustNew(name string, fields []FieldSpec, filters Filters) *Collection {
	c, err := New(name, fields, filters)
	if err != nil {
		panic(err)
	}
	return c
}

func (c *Collection) index() error {
	columns := make(map[string]string, len(c.Fields))
	clear(c.byName)
	for i, f := range c.Fields {
		if f.Name == "" || f.Column == "" {
			return fmt.Errorf("schema %s: field %d has an empty name or column", c.Name, i)
		}
		if !f.Type.Valid() {
			return fmt.Errorf("schema %s: field %q has unknown type %q", c.Name, f.Name, f.Type)
		}
		if _, dup := c.byName[f.Name]; dup {
			return fmt.Errorf("schema %s: duplicate field %q", c.Name, f.Name)
		}
		if other, dup := columns[f.Column]; dup {
			return fmt.Errorf("schema %s: column %q mapped by both %q and %q", c.Name, f.Column, other, f.Name)
		}
		c.byName[f.Name] = i
		columns[f.Column] = f.Name
	}
	return c.checkFilters()
}

func (c *Collection) checkFilters() error {
	want := func(name string, types ...FieldType) error {
		if name == "" {
			return nil
		}
		f, ok := c.Field(name)
		if !ok {
			return fmt.Errorf("schema %s: filter references unknown field %q", c.Name, name)
		}
		if len(types) > 0 && !slices.Contains(types, f.Type) {
			return fmt.Errorf("schema %s: filter field %q has type %s", c.Name, name, f.Type)
		}
		return nil
	}
	if err := want(c.Filters.PlannedField, Date); err != nil {
		return err
	}
	if err := want(c.Filters.DeadlineField, Date); err != nil {
		return err
	}
	if err := want(c.Filters.StateField, Select); err != nil {
		return err
	}
	if c.Filters.Default == DefaultActive && c.Filters.StateField == "" {
		return fmt.Errorf("schema %s: active default filter needs a state field", c.Name)
	}
	params := make(map[string]struct{}, len(c.Filters.Terms))
	for _, t := range c.Filters.Terms {
		if _, dup := params[t.Param]; dup {
			return fmt.Errorf("schema %s: duplicate query parameter %q", c.Name, t.Param)
		}
		params[t.Param] = struct{}{}
		if slices.Contains(ReservedParams, t.Param) {
			return fmt.Errorf("schema %s: query parameter %q is reserved", c.Name, t.Param)
		}
		var err error
		switch t.Op {
		case OpContains:
			err = want(t.Field, Title, RichText, MultiSelect)
		case OpBefore, OpOnOrAfter, OpOnOrBefore:
			err = want(t.Field, Date)
		case OpEquals, OpNotEquals:
			err = want(t.Field, Title, RichText, Select, Date, Number, Checkbox)
		default:
			err = fmt.Errorf("schema %s: query parameter %q has unsupported operator %q", c.Name, t.Param, t.Op)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

// HasDateScopes reports whether the collection backs the date, from, to
// and overdue parameters.
func (c *Collection) HasDateScopes() bool {
	return c.Filters.PlannedField != "" || c.Filters.DeadlineField != ""
}

// Field returns the spec for a normalized field name.
func (c *Collection) Field(name string) (FieldSpec, bool) {
	i, ok := c.byName[name]
	if !ok {
		return FieldSpec{}, false
	}
	return c.Fields[i], true
}

// Term returns the ad hoc term bound to a query parameter.
func (c *Collection) Term(param string) (Term, bool) {
	for _, t := range c.Filters.Terms {
		if t.Param == param {
			return t, true
		}
	}
	return Term{}, false
}

// WithColumns returns a copy whose columns are renamed per overrides
// (field name to column name). The copy is revalidated.
func (c *Collection) WithColumns(overrides map[string]string) (*Collection, error) {
	fields := slices.Clone(c.Fields)
	for name, column := range overrides {
		i, ok := c.byName[name]
		if !ok {
			return nil, fmt.Errorf("schema %s: column override for unknown field %q", c.Name, name)
		}
		fields[i].Column = column
	}
	out, err := New(c.Name, fields, c.Filters)
	if err != nil {
		return nil, err
	}
	out.Primary = c.Primary
	return out, nil
}
