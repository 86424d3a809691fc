// Package mcpserver provides an MCP (Model Context Protocol) server
// that exposes the hub operations as tools for LLM agents over stdio.
package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/starford/mia/internal/filter"
	"github.com/starford/mia/internal/hubservice"
	"github.com/starford/mia/internal/mapping"
	"github.com/starford/mia/internal/schema"
)

const contractURI = "mia://record-format"

// Server wraps the MCP server with the hub tools.
type Server struct {
	mcp *server.MCPServer
	svc *hubservice.Service
}

// New creates a new MCP server with all hub tools registered.
func New(svc *hubservice.Service, version string) *Server {
	s := &Server{svc: svc}

	s.mcp = server.NewMCPServer(
		"Mia",
		version,
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("list_hubs",
		mcp.WithDescription("List the hubs (tasks, movies, books, quotes, notes, investments) "+
			"with their fields, types and accepted query parameters."),
	), s.listHubs)

	s.mcp.AddTool(mcp.NewTool("create_record",
		mcp.WithDescription("Create one record in a hub. Field values MUST follow the record "+
			"format contract (get_record_contract or the "+contractURI+" resource)."),
		mcp.WithString("hub", mcp.Required(), mcp.Description("Hub name, e.g. tasks")),
		mcp.WithObject("fields", mcp.Required(), mcp.Description("Record fields keyed by field name")),
	), s.createRecord)

	s.mcp.AddTool(mcp.NewTool("create_records",
		mcp.WithDescription("Create several records in a hub, in order. Stops at the first "+
			"store failure; records created before it are reported and stay created."),
		mcp.WithString("hub", mcp.Required(), mcp.Description("Hub name")),
		mcp.WithArray("records", mcp.Required(), mcp.Description("List of field objects")),
	), s.createRecords)

	s.mcp.AddTool(mcp.NewTool("update_record",
		mcp.WithDescription("Update some fields of an existing record. Only the given fields change."),
		mcp.WithString("hub", mcp.Required(), mcp.Description("Hub name")),
		mcp.WithString("id", mcp.Required(), mcp.Description("Record id returned by create or query")),
		mcp.WithObject("fields", mcp.Required(), mcp.Description("Fields to change")),
	), s.updateRecord)

	s.mcp.AddTool(mcp.NewTool("query_records",
		mcp.WithDescription("Query a hub. Params are the same as the HTTP query string, "+
			"e.g. {\"overdue\": \"true\"} or {\"author_contains\": \"Rumi\"}."),
		mcp.WithString("hub", mcp.Required(), mcp.Description("Hub name")),
		mcp.WithObject("params", mcp.Description("Query parameters as string values")),
	), s.queryRecords)

	s.mcp.AddTool(mcp.NewTool("get_record_contract",
		mcp.WithDescription("Returns the record format contract. Call this before creating or updating records."),
	), s.getRecordContract)

	s.mcp.AddResource(
		mcp.NewResource(contractURI, "Record Format Contract",
			mcp.WithResourceDescription("How record fields and query parameters are shaped."),
			mcp.WithMIMEType("text/markdown"),
		),
		s.readContractResource,
	)

	return s
}

// ServeStdio starts the MCP server on stdin/stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcp)
}

// MCPServer returns the underlying server for testing.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcp
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(string(out)), nil
}

// hubArg resolves the "hub" argument.
func (s *Server) hubArg(req mcp.CallToolRequest) (*hubservice.Hub, error) {
	name, err := req.RequireString("hub")
	if err != nil {
		return nil, err
	}
	return s.svc.Hub(name)
}

// recordArg decodes an object argument with the same rules as HTTP bodies.
func recordArg(c *schema.Collection, v any) (schema.Record, error) {
	if v == nil {
		return nil, fmt.Errorf("fields are required")
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return mapping.DecodeInput(c, raw)
}

func (s *Server) listHubs(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return jsonResult(s.svc.Describe())
}

func (s *Server) createRecord(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	hub, err := s.hubArg(req)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	rec, err := recordArg(hub.Collection, req.GetArguments()["fields"])
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	sum, err := s.svc.Create(ctx, hub.Name(), rec)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(sum)
}

func (s *Server) createRecords(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	hub, err := s.hubArg(req)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	items, ok := req.GetArguments()["records"].([]any)
	if !ok {
		return mcp.NewToolResultError("records must be a list of objects"), nil
	}
	recs := make([]schema.Record, len(items))
	for i, item := range items {
		rec, err := recordArg(hub.Collection, item)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("record %d: %v", i, err)), nil
		}
		recs[i] = rec
	}
	created, err := s.svc.BulkCreate(ctx, hub.Name(), recs)
	if err != nil {
		out, _ := json.Marshal(created)
		return mcp.NewToolResultError(fmt.Sprintf("%v; created before failure: %s", err, out)), nil
	}
	return jsonResult(created)
}

func (s *Server) updateRecord(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	hub, err := s.hubArg(req)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	id, err := req.RequireString("id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	rec, err := recordArg(hub.Collection, req.GetArguments()["fields"])
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	res, err := s.svc.Update(ctx, hub.Name(), id, rec)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(res)
}

func (s *Server) queryRecords(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	hub, err := s.hubArg(req)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	q := url.Values{}
	if raw, ok := req.GetArguments()["params"].(map[string]any); ok {
		for k, v := range raw {
			q.Set(k, fmt.Sprint(v))
		}
	}
	params, err := filter.ParseParams(hub.Collection, q)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	results, err := s.svc.Query(ctx, hub.Name(), params)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if len(results) == 0 {
		return mcp.NewToolResultText("no records found"), nil
	}
	return jsonResult(results)
}

func (s *Server) getRecordContract(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(RecordFormatContract), nil
}

func (s *Server) readContractResource(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      contractURI,
			MIMEType: "text/markdown",
			Text:     RecordFormatContract,
		},
	}, nil
}
