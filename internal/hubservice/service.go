// Package hubservice runs the schema-driven create, update and query
// operations for every hub against the Notion store.
package hubservice

import (
	"context"
	"fmt"
	"time"

	"github.com/starford/mia/internal/apperr"
	"github.com/starford/mia/internal/filter"
	"github.com/starford/mia/internal/mapping"
	"github.com/starford/mia/internal/notion"
	"github.com/starford/mia/internal/schema"
)

// Event kinds published after successful writes.
const (
	EventCreated = "created"
	EventUpdated = "updated"
)

// EventSink receives change notifications.
type EventSink interface {
	PublishRecordEvent(kind, hub, id string)
}

// Binding pairs a hub schema with its Notion database.
type Binding struct {
	Collection *schema.Collection
	DatabaseID string
}

// Hub is a bound collection with its filter compiler.
type Hub struct {
	Collection *schema.Collection
	DatabaseID string
	compiler   *filter.Compiler
}

// Name returns the hub name.
func (h *Hub) Name() string { return h.Collection.Name }

// Configured reports whether the hub has a database to talk to.
func (h *Hub) Configured() bool { return h.DatabaseID != "" }

// UpdateResult is the response to a partial update.
type UpdateResult struct {
	ID            string   `json:"id"`
	UpdatedFields []string `json:"updated_fields"`
}

// Service coordinates mapping, filter compilation and store calls.
type Service struct {
	store  notion.Store
	hubs   map[string]*Hub
	order  []string
	events EventSink
	now    func() time.Time
	strict bool
}

// Option configures a Service.
type Option func(*Service)

// WithEvents publishes change events to sink.
func WithEvents(sink EventSink) Option {
	return func(s *Service) { s.events = sink }
}

// WithClock sets the clock used for overdue queries.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithStrictFilters rejects conflicting date query parameters.
func WithStrictFilters(strict bool) Option {
	return func(s *Service) { s.strict = strict }
}

// NewService creates a service over the given bindings.
func NewService(store notion.Store, bindings []Binding, opts ...Option) (*Service, error) {
	s := &Service{
		store: store,
		hubs:  make(map[string]*Hub, len(bindings)),
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	for _, b := range bindings {
		name := b.Collection.Name
		if _, dup := s.hubs[name]; dup {
			return nil, fmt.Errorf("hubservice: duplicate hub %q", name)
		}
		if b.Collection.Primary && b.DatabaseID == "" {
			return nil, &apperr.ConfigurationError{Hub: name, Key: "database_id"}
		}
		s.hubs[name] = &Hub{
			Collection: b.Collection,
			DatabaseID: b.DatabaseID,
			compiler: filter.NewCompiler(b.Collection,
				filter.WithClock(s.now),
				filter.WithStrict(s.strict),
			),
		}
		s.order = append(s.order, name)
	}
	return s, nil
}

// Hubs returns all hubs in registration order.
func (s *Service) Hubs() []*Hub {
	out := make([]*Hub, len(s.order))
	for i, n := range s.order {
		out[i] = s.hubs[n]
	}
	return out
}

// Hub returns the named hub or apperr.ErrNotFound.
func (s *Service) Hub(name string) (*Hub, error) {
	h, ok := s.hubs[name]
	if !ok {
		return nil, fmt.Errorf("hub %q: %w", name, apperr.ErrNotFound)
	}
	return h, nil
}

func (s *Service) configuredHub(name string) (*Hub, error) {
	h, err := s.Hub(name)
	if err != nil {
		return nil, err
	}
	if !h.Configured() {
		return nil, &apperr.ConfigurationError{Hub: name, Key: "database_id"}
	}
	return h, nil
}

// Create writes one record to the hub's database.
func (s *Service) Create(ctx context.Context, hub string, rec schema.Record) (*mapping.Summary, error) {
	h, err := s.configuredHub(hub)
	if err != nil {
		return nil, err
	}
	return s.create(ctx, h, rec)
}

// BulkCreate writes records one at a time, in order. Every record is
// validated before the first write, so a validation failure writes nothing.
// A store failure stops the batch: records written before it stay written
// and are returned along with the error.
func (s *Service) BulkCreate(ctx context.Context, hub string, recs []schema.Record) ([]mapping.Summary, error) {
	h, err := s.configuredHub(hub)
	if err != nil {
		return nil, err
	}
	if len(recs) == 0 {
		return nil, apperr.Validation(fmt.Errorf("no records to create"))
	}
	batch := make([]notion.Properties, len(recs))
	for i, rec := range recs {
		props, err := mapping.BuildCreate(h.Collection, rec)
		if err != nil {
			return nil, fmt.Errorf("record %d: %w", i, err)
		}
		batch[i] = props
	}

	created := make([]mapping.Summary, 0, len(recs))
	for i, props := range batch {
		sum, err := s.write(ctx, h, props)
		if err != nil {
			return created, fmt.Errorf("record %d: %w", i, err)
		}
		created = append(created, *sum)
	}
	return created, nil
}

func (s *Service) create(ctx context.Context, h *Hub, rec schema.Record) (*mapping.Summary, error) {
	props, err := mapping.BuildCreate(h.Collection, rec)
	if err != nil {
		return nil, err
	}
	return s.write(ctx, h, props)
}

func (s *Service) write(ctx context.Context, h *Hub, props notion.Properties) (*mapping.Summary, error) {
	page, err := s.store.Create(ctx, h.DatabaseID, props)
	if err != nil {
		return nil, &apperr.UpstreamError{Op: "create " + h.Name() + " record", Err: err}
	}
	sum := mapping.Summarize(h.Collection, *page)
	s.publish(EventCreated, h.Name(), sum.ID)
	return &sum, nil
}

// Update writes the present fields of rec to page id.
func (s *Service) Update(ctx context.Context, hub, id string, rec schema.Record) (*UpdateResult, error) {
	h, err := s.configuredHub(hub)
	if err != nil {
		return nil, err
	}
	if id == "" {
		return nil, apperr.Validation(fmt.Errorf("record id is required"))
	}
	props, err := mapping.BuildUpdate(h.Collection, rec)
	if err != nil {
		return nil, err
	}
	if _, err := s.store.Update(ctx, id, props); err != nil {
		return nil, &apperr.UpstreamError{Op: "update " + h.Name() + " record", Err: err}
	}
	s.publish(EventUpdated, h.Name(), id)
	return &UpdateResult{ID: id, UpdatedFields: mapping.UpdatedFields(h.Collection, props)}, nil
}

// Query returns the first page of records matching p.
func (s *Service) Query(ctx context.Context, hub string, p filter.Params) ([]mapping.Summary, error) {
	h, err := s.configuredHub(hub)
	if err != nil {
		return nil, err
	}
	node, err := h.compiler.Compile(p)
	if err != nil {
		return nil, err
	}
	pages, err := s.store.Query(ctx, h.DatabaseID, node)
	if err != nil {
		return nil, &apperr.UpstreamError{Op: "query " + h.Name() + " records", Err: err}
	}
	return mapping.SummarizeAll(h.Collection, pages), nil
}

// HubInfo describes a hub to callers.
type HubInfo struct {
	Name          string             `json:"name"`
	Configured    bool               `json:"configured"`
	DefaultFilter string             `json:"default_filter"`
	Fields        []schema.FieldSpec `json:"fields"`
	QueryParams   []string           `json:"query_params"`
}

// Describe lists every hub with its fields and query parameters.
func (s *Service) Describe() []HubInfo {
	out := make([]HubInfo, 0, len(s.order))
	for _, h := range s.Hubs() {
		c := h.Collection
		var params []string
		if c.HasDateScopes() {
			params = append(params, schema.ReservedParams...)
		}
		for _, t := range c.Filters.Terms {
			params = append(params, t.Param)
		}
		out = append(out, HubInfo{
			Name:          c.Name,
			Configured:    h.Configured(),
			DefaultFilter: c.Filters.Default.String(),
			Fields:        c.Fields,
			QueryParams:   params,
		})
	}
	return out
}

func (s *Service) publish(kind, hub, id string) {
	if s.events != nil {
		s.events.PublishRecordEvent(kind, hub, id)
	}
}
