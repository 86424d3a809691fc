package filter

import (
	"time"

	"github.com/starford/mia/internal/apperr"
	"github.com/starford/mia/internal/codec"
	"github.com/starford/mia/internal/schema"
)

// Compiler turns Params into a filter tree for one collection.
type Compiler struct {
	c      *schema.Collection
	now    func() time.Time
	strict bool
}

// Option configures a Compiler.
type Option func(*Compiler)

// WithClock sets the source of "today" for overdue queries.
func WithClock(now func() time.Time) Option {
	return func(cp *Compiler) { cp.now = now }
}

// WithStrict rejects conflicting date intents instead of resolving them by
// priority.
func WithStrict(strict bool) Option {
	return func(cp *Compiler) { cp.strict = strict }
}

// NewCompiler creates a Compiler for c.
func NewCompiler(c *schema.Collection, opts ...Option) *Compiler {
	cp := &Compiler{c: c, now: time.Now}
	for _, opt := range opts {
		opt(cp)
	}
	return cp
}

// Compile builds the filter for p. A nil Node means no filter.
//
// Date intents are tried in order overdue, exact date, range; the first
// that yields a node wins. Ad hoc terms are AND-ed after it. When nothing
// compiles, the collection's default policy applies.
func (cp *Compiler) Compile(p Params) (Node, error) {
	if cp.strict {
		if err := conflicts(&p); err != nil {
			return nil, err
		}
	}
	if p.Empty() {
		return cp.defaultFilter(), nil
	}

	var parts []Node
	dateNode := cp.overdue(&p)
	if dateNode == nil {
		dateNode = cp.exactDate(&p)
	}
	if dateNode == nil {
		dateNode = cp.dateRange(&p)
	}
	if dateNode != nil {
		parts = append(parts, dateNode)
	}
	for _, tv := range p.Terms {
		parts = append(parts, cp.term(tv))
	}

	if len(parts) == 0 {
		return cp.defaultFilter(), nil
	}
	return All(parts...), nil
}

func conflicts(p *Params) error {
	var intents []string
	if p.Overdue {
		intents = append(intents, schema.ParamOverdue)
	}
	if p.Date != "" {
		intents = append(intents, schema.ParamDate)
	}
	if p.From != "" {
		intents = append(intents, schema.ParamFrom)
	}
	if p.To != "" {
		intents = append(intents, schema.ParamTo)
	}
	// from and to together are one intent.
	n := len(intents)
	if p.From != "" && p.To != "" {
		n--
	}
	if n > 1 {
		return &apperr.InvalidFilterCombinationError{Params: intents}
	}
	return nil
}

func (cp *Compiler) overdue(p *Params) Node {
	if !p.Overdue {
		return nil
	}
	deadline, ok := cp.c.Field(cp.c.Filters.DeadlineField)
	if !ok {
		return nil
	}
	today := cp.now().Format(codec.DateLayout)
	nodes := []Node{Predicate{Column: deadline.Column, Type: schema.Date, Op: schema.OpBefore, Operand: today}}
	nodes = append(nodes, cp.excludeTerminal()...)
	return All(nodes...)
}

func (cp *Compiler) exactDate(p *Params) Node {
	if p.Date == "" {
		return nil
	}
	var nodes []Node
	for _, f := range cp.scopeFields(p.Scope) {
		nodes = append(nodes, Predicate{Column: f.Column, Type: schema.Date, Op: schema.OpEquals, Operand: p.Date})
	}
	return Any(nodes...)
}

func (cp *Compiler) dateRange(p *Params) Node {
	if p.From == "" && p.To == "" {
		return nil
	}
	var nodes []Node
	for _, f := range cp.scopeFields(p.Scope) {
		nodes = append(nodes, Predicate{
			Column:  f.Column,
			Type:    schema.Date,
			Op:      schema.OpRange,
			Operand: DateRange{OnOrAfter: p.From, OnOrBefore: p.To},
		})
	}
	return Any(nodes...)
}

// scopeFields resolves a scope to the date fields it selects. An empty
// scope means both.
func (cp *Compiler) scopeFields(scope string) []schema.FieldSpec {
	var names []string
	switch scope {
	case schema.ScopePlanned:
		names = []string{cp.c.Filters.PlannedField}
	case schema.ScopeDeadline:
		names = []string{cp.c.Filters.DeadlineField}
	case schema.ScopeBoth, "":
		names = []string{cp.c.Filters.PlannedField, cp.c.Filters.DeadlineField}
	}
	var out []schema.FieldSpec
	for _, n := range names {
		if f, ok := cp.c.Field(n); ok {
			out = append(out, f)
		}
	}
	return out
}

func (cp *Compiler) term(tv TermValue) Node {
	f, _ := cp.c.Field(tv.Term.Field)
	return Predicate{Column: f.Column, Type: f.Type, Op: tv.Term.Op, Operand: tv.Value}
}

func (cp *Compiler) excludeTerminal() []Node {
	state, ok := cp.c.Field(cp.c.Filters.StateField)
	if !ok {
		return nil
	}
	nodes := make([]Node, 0, len(cp.c.Filters.TerminalStates))
	for _, s := range cp.c.Filters.TerminalStates {
		nodes = append(nodes, Predicate{Column: state.Column, Type: schema.Select, Op: schema.OpNotEquals, Operand: s})
	}
	return nodes
}

func (cp *Compiler) defaultFilter() Node {
	if cp.c.Filters.Default != schema.DefaultActive {
		return nil
	}
	return All(cp.excludeTerminal()...)
}
