package hubservice

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/starford/mia/internal/apperr"
	"github.com/starford/mia/internal/filter"
	"github.com/starford/mia/internal/notion"
	"github.com/starford/mia/internal/schema"
	"github.com/starford/mia/internal/testutil"
)

type recordedEvent struct {
	kind, hub, id string
}

type eventRecorder struct {
	mu     sync.Mutex
	events []recordedEvent
}

func (r *eventRecorder) PublishRecordEvent(kind, hub, id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, recordedEvent{kind, hub, id})
}

func newTestService(t *testing.T, opts ...Option) (*Service, *testutil.FakeStore) {
	t.Helper()
	store := testutil.NewFakeStore()
	svc, err := NewService(store, []Binding{
		{Collection: schema.TasksCollection, DatabaseID: "tasks-db"},
		{Collection: schema.NotesCollection, DatabaseID: "notes-db"},
		{Collection: schema.BooksCollection},
	}, opts...)
	require.NoError(t, err)
	return svc, store
}

func TestNewService_Errors(t *testing.T) {
	store := testutil.NewFakeStore()

	_, err := NewService(store, []Binding{{Collection: schema.TasksCollection}})
	assert.ErrorIs(t, err, apperr.ErrConfiguration)

	_, err = NewService(store, []Binding{
		{Collection: schema.NotesCollection, DatabaseID: "a"},
		{Collection: schema.NotesCollection, DatabaseID: "b"},
	})
	assert.ErrorContains(t, err, "duplicate hub")
}

func TestService_Hub(t *testing.T) {
	svc, _ := newTestService(t)

	h, err := svc.Hub(schema.Notes)
	require.NoError(t, err)
	assert.True(t, h.Configured())

	_, err = svc.Hub("recipes")
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	h, err = svc.Hub(schema.Books)
	require.NoError(t, err)
	assert.False(t, h.Configured())

	_, err = svc.Create(context.Background(), schema.Books, schema.Record{"title": "Dune"})
	var cfgErr *apperr.ConfigurationError
	require.ErrorAs(t, err, &cfgErr)
	assert.Equal(t, schema.Books, cfgErr.Hub)
}

func TestService_CreateAndUpdatePublishEvents(t *testing.T) {
	rec := &eventRecorder{}
	svc, store := newTestService(t, WithEvents(rec))
	ctx := context.Background()

	sum, err := svc.Create(ctx, schema.Notes, schema.Record{"title": "Groceries", "pinned": true})
	require.NoError(t, err)
	assert.Equal(t, "page-1", sum.ID)
	assert.Equal(t, true, sum.Fields["pinned"])
	assert.Equal(t, []string{}, sum.Fields["category"])

	res, err := svc.Update(ctx, schema.Notes, sum.ID, schema.Record{"pinned": false, "content": "eggs"})
	require.NoError(t, err)
	assert.Equal(t, []string{"content", "pinned"}, res.UpdatedFields)
	assert.Len(t, store.Updates, 1)

	assert.Equal(t, []recordedEvent{
		{EventCreated, schema.Notes, "page-1"},
		{EventUpdated, schema.Notes, "page-1"},
	}, rec.events)
}

func TestService_UpdateErrors(t *testing.T) {
	rec := &eventRecorder{}
	svc, store := newTestService(t, WithEvents(rec))
	ctx := context.Background()

	_, err := svc.Update(ctx, schema.Notes, "", schema.Record{"pinned": true})
	assert.ErrorIs(t, err, apperr.ErrValidation)

	_, err = svc.Update(ctx, schema.Notes, "page-9", schema.Record{})
	assert.ErrorIs(t, err, apperr.ErrNoFieldsToUpdate)
	assert.Empty(t, store.Updates)

	_, err = svc.Update(ctx, schema.Notes, "page-9", schema.Record{"pinned": true})
	assert.ErrorIs(t, err, apperr.ErrUpstream)
	var apiErr *notion.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, 404, apiErr.Status)

	assert.Empty(t, rec.events)
}

func TestService_BulkCreate(t *testing.T) {
	rec := &eventRecorder{}
	svc, store := newTestService(t, WithEvents(rec))
	ctx := context.Background()

	created, err := svc.BulkCreate(ctx, schema.Notes, []schema.Record{
		{"title": "a"},
		{"title": "b", "category": []string{"work"}},
	})
	require.NoError(t, err)
	require.Len(t, created, 2)
	assert.Equal(t, []string{"work"}, created[1].Fields["category"])
	assert.Len(t, store.Pages("notes-db"), 2)
	assert.Len(t, rec.events, 2)
}

func TestService_BulkCreateValidatesFirst(t *testing.T) {
	svc, store := newTestService(t)

	created, err := svc.BulkCreate(context.Background(), schema.Notes, []schema.Record{
		{"title": "a"},
		{"title": "b", "date": "tomorrow"},
	})
	assert.Nil(t, created)
	assert.ErrorIs(t, err, apperr.ErrValidation)
	assert.ErrorContains(t, err, "record 1")
	assert.Empty(t, store.Pages("notes-db"))

	_, err = svc.BulkCreate(context.Background(), schema.Notes, nil)
	assert.ErrorIs(t, err, apperr.ErrValidation)
}

func TestService_BulkCreatePartialFailure(t *testing.T) {
	svc, store := newTestService(t)
	store.FailCreateAfter = 1

	created, err := svc.BulkCreate(context.Background(), schema.Notes, []schema.Record{
		{"title": "a"}, {"title": "b"}, {"title": "c"},
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, apperr.ErrUpstream)
	assert.ErrorContains(t, err, "record 1")
	require.Len(t, created, 1)
	assert.Equal(t, "page-1", created[0].ID)
}

func TestService_Query(t *testing.T) {
	svc, store := newTestService(t,
		WithClock(func() time.Time { return time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC) }),
		WithStrictFilters(true),
	)
	ctx := context.Background()

	store.Seed("tasks-db", notion.Page{ID: "t1", Properties: notion.Properties{
		"Tarefa": {Type: notion.TypeTitle, Title: []notion.RichText{{PlainText: "Call bank"}}},
	}})

	got, err := svc.Query(ctx, schema.Tasks, filter.Params{Overdue: true})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "Call bank", got[0].Fields["task_title"])
	assert.Contains(t, store.LastFilter, `"before":"2024-06-01"`)

	_, err = svc.Query(ctx, schema.Tasks, filter.Params{Overdue: true, From: "2024-05-01"})
	assert.ErrorIs(t, err, apperr.ErrValidation)

	_, err = svc.Query(ctx, schema.Notes, filter.Params{})
	require.NoError(t, err)
	assert.Empty(t, store.LastFilter)

	store.Err = errors.New("connection reset")
	_, err = svc.Query(ctx, schema.Notes, filter.Params{})
	assert.ErrorIs(t, err, apperr.ErrUpstream)
	assert.ErrorContains(t, err, "query notes records")
}

func TestService_Describe(t *testing.T) {
	svc, _ := newTestService(t)

	info := svc.Describe()
	require.Len(t, info, 3)

	assert.Equal(t, schema.Tasks, info[0].Name)
	assert.Equal(t, "active", info[0].DefaultFilter)
	assert.Equal(t, []string{"overdue", "date", "scope", "from", "to", "status", "priority", "area", "energy_required", "title_contains"}, info[0].QueryParams)

	assert.Equal(t, schema.Books, info[2].Name)
	assert.False(t, info[2].Configured)
	assert.Equal(t, "all", info[2].DefaultFilter)
	assert.NotContains(t, info[2].QueryParams, "overdue")
}
