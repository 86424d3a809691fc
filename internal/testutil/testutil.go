// Package testutil provides an in-memory Notion store for tests.
package testutil

import (
	"context"
	"encoding/json"
	"fmt"
	"maps"
	"sync"

	"github.com/starford/mia/internal/notion"
)

// FakeStore implements notion.Store in memory. Query ignores the filter and
// returns every page of the database; the filter is recorded for
// assertions.
type FakeStore struct {
	mu sync.Mutex

	pages  map[string][]notion.Page // database id -> pages
	byID   map[string]string        // page id -> database id
	nextID int

	// LastFilter is the JSON of the most recent query filter, or "" when
	// the query was unfiltered.
	LastFilter string
	// Updates records the properties of every Update call.
	Updates []notion.Properties

	// FailCreateAfter makes Create fail once this many pages were created.
	// Zero disables it.
	FailCreateAfter int
	// Err, when set, is returned by every call.
	Err error
}

var _ notion.Store = (*FakeStore)(nil)

// NewFakeStore returns an empty store.
func NewFakeStore() *FakeStore {
	return &FakeStore{
		pages: make(map[string][]notion.Page),
		byID:  make(map[string]string),
	}
}

// Seed adds a page to a database directly.
func (f *FakeStore) Seed(databaseID string, page notion.Page) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.pages[databaseID] = append(f.pages[databaseID], page)
	f.byID[page.ID] = databaseID
}

// Pages returns the pages of a database.
func (f *FakeStore) Pages(databaseID string) []notion.Page {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]notion.Page(nil), f.pages[databaseID]...)
}

func (f *FakeStore) Create(_ context.Context, databaseID string, props notion.Properties) (*notion.Page, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.Err != nil {
		return nil, f.Err
	}
	if f.FailCreateAfter > 0 && f.nextID >= f.FailCreateAfter {
		return nil, &notion.APIError{Status: 400, Code: "validation_error", Message: "fake create failure"}
	}
	f.nextID++
	id := fmt.Sprintf("page-%d", f.nextID)
	page := notion.Page{
		Object:     "page",
		ID:         id,
		URL:        "https://www.notion.so/" + id,
		Properties: maps.Clone(props),
	}
	f.pages[databaseID] = append(f.pages[databaseID], page)
	f.byID[id] = databaseID
	return &page, nil
}

func (f *FakeStore) Update(_ context.Context, pageID string, props notion.Properties) (*notion.Page, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.Err != nil {
		return nil, f.Err
	}
	f.Updates = append(f.Updates, maps.Clone(props))
	db, ok := f.byID[pageID]
	if !ok {
		return nil, &notion.APIError{Status: 404, Code: "object_not_found", Message: "Could not find page with ID: " + pageID}
	}
	for i, p := range f.pages[db] {
		if p.ID != pageID {
			continue
		}
		if p.Properties == nil {
			p.Properties = make(notion.Properties)
		}
		maps.Copy(p.Properties, props)
		f.pages[db][i] = p
		return &p, nil
	}
	return nil, &notion.APIError{Status: 404, Code: "object_not_found", Message: "Could not find page with ID: " + pageID}
}

func (f *FakeStore) Query(_ context.Context, databaseID string, filter json.Marshaler) ([]notion.Page, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.Err != nil {
		return nil, f.Err
	}
	f.LastFilter = ""
	if filter != nil {
		b, err := filter.MarshalJSON()
		if err != nil {
			return nil, err
		}
		f.LastFilter = string(b)
	}
	return append([]notion.Page{}, f.pages[databaseID]...), nil
}
