package mcpserver

import (
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/starford/mia/internal/hubservice"
	"github.com/starford/mia/internal/mapping"
	"github.com/starford/mia/internal/schema"
	"github.com/starford/mia/internal/testutil"
)

func testServer(t *testing.T) (*Server, *testutil.FakeStore) {
	t.Helper()

	store := testutil.NewFakeStore()
	var bindings []hubservice.Binding
	for _, c := range schema.All() {
		bindings = append(bindings, hubservice.Binding{Collection: c, DatabaseID: c.Name + "-db"})
	}
	svc, err := hubservice.NewService(store, bindings,
		hubservice.WithClock(func() time.Time { return time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC) }),
		hubservice.WithStrictFilters(true),
	)
	require.NoError(t, err)
	return New(svc, "test"), store
}

func callTool(t *testing.T, srv *Server, name string, args map[string]any) *mcp.CallToolResult {
	t.Helper()
	ctx := context.Background()
	req := mcp.CallToolRequest{}
	req.Method = "tools/call"
	req.Params.Name = name
	req.Params.Arguments = args

	// mcp-go has no in-process call helper, so dispatch to the handlers directly.
	var result *mcp.CallToolResult
	var err error

	switch name {
	case "list_hubs":
		result, err = srv.listHubs(ctx, req)
	case "create_record":
		result, err = srv.createRecord(ctx, req)
	case "create_records":
		result, err = srv.createRecords(ctx, req)
	case "update_record":
		result, err = srv.updateRecord(ctx, req)
	case "query_records":
		result, err = srv.queryRecords(ctx, req)
	case "get_record_contract":
		result, err = srv.getRecordContract(ctx, req)
	default:
		t.Fatalf("unknown tool: %s", name)
	}

	require.NoError(t, err, "tool %s", name)
	return result
}

func resultText(r *mcp.CallToolResult) string {
	if len(r.Content) > 0 {
		if tc, ok := r.Content[0].(mcp.TextContent); ok {
			return tc.Text
		}
	}
	return ""
}

func TestCreateAndQueryRecord(t *testing.T) {
	srv, store := testServer(t)

	r := callTool(t, srv, "create_record", map[string]any{
		"hub": "tasks",
		"fields": map[string]any{
			"task_title": "Pay rent",
			"deadline":   "2024-05-30",
			"duration":   float64(10),
		},
	})
	require.False(t, r.IsError, resultText(r))

	var sum mapping.Summary
	require.NoError(t, json.Unmarshal([]byte(resultText(r)), &sum))
	assert.Equal(t, "Pay rent", sum.Fields["task_title"])
	assert.Len(t, store.Pages("tasks-db"), 1)

	r = callTool(t, srv, "query_records", map[string]any{
		"hub":    "tasks",
		"params": map[string]any{"overdue": "true"},
	})
	require.False(t, r.IsError, resultText(r))
	assert.Contains(t, store.LastFilter, `"before":"2024-06-01"`)
	assert.Contains(t, resultText(r), "Pay rent")
}

func TestCreateRecord_Validation(t *testing.T) {
	srv, store := testServer(t)

	tests := []struct {
		name string
		args map[string]any
		want string
	}{
		{"unknown hub", map[string]any{"hub": "recipes", "fields": map[string]any{"title": "x"}}, "not found"},
		{"missing fields", map[string]any{"hub": "tasks"}, "fields are required"},
		{"missing required", map[string]any{"hub": "tasks", "fields": map[string]any{"status": "todo"}}, "task_title"},
		{"unknown field", map[string]any{"hub": "tasks", "fields": map[string]any{"task_title": "x", "mood": "ok"}}, "mood"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := callTool(t, srv, "create_record", tt.args)
			assert.True(t, r.IsError)
			assert.Contains(t, resultText(r), tt.want)
		})
	}
	assert.Empty(t, store.Pages("tasks-db"))
}

func TestCreateRecords(t *testing.T) {
	srv, store := testServer(t)

	r := callTool(t, srv, "create_records", map[string]any{
		"hub": "quotes",
		"records": []any{
			map[string]any{"quote": "Less is more", "category": "design"},
			map[string]any{"quote": "Stay hungry", "category": []any{"life", "work"}},
		},
	})
	require.False(t, r.IsError, resultText(r))
	assert.Len(t, store.Pages("quotes-db"), 2)

	store.FailCreateAfter = 3
	r = callTool(t, srv, "create_records", map[string]any{
		"hub": "quotes",
		"records": []any{
			map[string]any{"quote": "one"},
			map[string]any{"quote": "two"},
		},
	})
	assert.True(t, r.IsError)
	assert.Contains(t, resultText(r), "record 1")
	assert.Contains(t, resultText(r), "page-3")
}

func TestUpdateRecord(t *testing.T) {
	srv, store := testServer(t)

	r := callTool(t, srv, "create_record", map[string]any{
		"hub":    "investments",
		"fields": map[string]any{"name": "World ETF", "amount": float64(1000)},
	})
	require.False(t, r.IsError, resultText(r))

	r = callTool(t, srv, "update_record", map[string]any{
		"hub":    "investments",
		"id":     "page-1",
		"fields": map[string]any{"amount": float64(1250.5)},
	})
	require.False(t, r.IsError, resultText(r))
	assert.Contains(t, resultText(r), `"amount"`)
	require.Len(t, store.Updates, 1)
	assert.Equal(t, 1250.5, *store.Updates[0]["Montante"].Number)

	r = callTool(t, srv, "update_record", map[string]any{
		"hub":    "investments",
		"id":     "page-1",
		"fields": map[string]any{},
	})
	assert.True(t, r.IsError)
	assert.Contains(t, resultText(r), "no fields to update")
}

func TestQueryRecords_Conflict(t *testing.T) {
	srv, _ := testServer(t)

	r := callTool(t, srv, "query_records", map[string]any{
		"hub":    "tasks",
		"params": map[string]any{"overdue": "true", "date": "2024-06-01"},
	})
	assert.True(t, r.IsError)
	assert.Contains(t, resultText(r), "cannot be combined")
}

func TestQueryRecords_Empty(t *testing.T) {
	srv, _ := testServer(t)

	r := callTool(t, srv, "query_records", map[string]any{"hub": "books"})
	require.False(t, r.IsError)
	assert.Equal(t, "no records found", resultText(r))
}

func TestListHubsAndContract(t *testing.T) {
	srv, _ := testServer(t)

	r := callTool(t, srv, "list_hubs", map[string]any{})
	var hubs []hubservice.HubInfo
	require.NoError(t, json.Unmarshal([]byte(resultText(r)), &hubs))
	require.Len(t, hubs, 6)
	assert.Equal(t, "tasks", hubs[0].Name)

	r = callTool(t, srv, "get_record_contract", map[string]any{})
	assert.True(t, strings.HasPrefix(resultText(r), "# Mia Record Format Contract"))
}
