// Package filter compiles query parameters into Notion's boolean filter
// tree.
package filter

import (
	"encoding/json"
	"fmt"

	"github.com/starford/mia/internal/schema"
)

// Node is one node of a filter tree. Every node serializes to a Notion
// filter object.
type Node interface {
	json.Marshaler
	node()
}

// Predicate is a condition on a single column.
type Predicate struct {
	Column  string
	Type    schema.FieldType
	Op      schema.Operator
	Operand any
}

// DateRange is the operand of an OpRange predicate. Either bound may be
// empty, not both.
type DateRange struct {
	OnOrAfter  string `json:"on_or_after,omitempty"`
	OnOrBefore string `json:"on_or_before,omitempty"`
}

// And matches when every child matches.
type And struct {
	Children []Node
}

// Or matches when any child matches.
type Or struct {
	Children []Node
}

func (Predicate) node() {}
func (And) node()       {}
func (Or) node()        {}

// MarshalJSON writes {"property": column, "<type>": {"<op>": operand}}.
// A range bounded on both sides becomes an "and" of two conditions, since
// a Notion condition holds a single operator.
func (p Predicate) MarshalJSON() ([]byte, error) {
	if p.Op != schema.OpRange {
		return p.condition(p.Op, p.Operand)
	}

	r, ok := p.Operand.(DateRange)
	if !ok {
		return nil, fmt.Errorf("range on %q: operand is %T, not DateRange", p.Column, p.Operand)
	}
	switch {
	case r.OnOrAfter != "" && r.OnOrBefore != "":
		return And{Children: []Node{
			Predicate{Column: p.Column, Type: p.Type, Op: schema.OpOnOrAfter, Operand: r.OnOrAfter},
			Predicate{Column: p.Column, Type: p.Type, Op: schema.OpOnOrBefore, Operand: r.OnOrBefore},
		}}.MarshalJSON()
	case r.OnOrAfter != "":
		return p.condition(schema.OpOnOrAfter, r.OnOrAfter)
	case r.OnOrBefore != "":
		return p.condition(schema.OpOnOrBefore, r.OnOrBefore)
	}
	return nil, fmt.Errorf("range on %q has no bounds", p.Column)
}

func (p Predicate) condition(op schema.Operator, operand any) ([]byte, error) {
	return json.Marshal(map[string]any{
		"property":     p.Column,
		string(p.Type): map[string]any{string(op): operand},
	})
}

func (a And) MarshalJSON() ([]byte, error) {
	return json.Marshal(map[string][]Node{"and": nonNil(a.Children)})
}

func (o Or) MarshalJSON() ([]byte, error) {
	return json.Marshal(map[string][]Node{"or": nonNil(o.Children)})
}

// All combines nodes with AND: none yields nil, one yields itself.
func All(nodes ...Node) Node {
	switch len(nodes) {
	case 0:
		return nil
	case 1:
		return nodes[0]
	}
	return And{Children: nodes}
}

// Any combines nodes with OR: none yields nil, one yields itself.
func Any(nodes ...Node) Node {
	switch len(nodes) {
	case 0:
		return nil
	case 1:
		return nodes[0]
	}
	return Or{Children: nodes}
}

func nonNil(n []Node) []Node {
	if n == nil {
		return []Node{}
	}
	return n
}
