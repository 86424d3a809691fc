package api

import (
	"encoding/json"

	"github.com/starford/mia/internal/hubservice"
	"github.com/starford/mia/internal/mapping"
)

// RecordSummary is a normalized record (aliased from the mapping layer).
type RecordSummary = mapping.Summary

// HubInfo describes one hub (aliased from the service layer).
type HubInfo = hubservice.HubInfo

// BulkCreateRequest is the body of POST /{hub}/bulk.
type BulkCreateRequest struct {
	Records []json.RawMessage `json:"records"`
}

// BulkCreateResponse lists the records written. On failure it is embedded
// in the error response so callers can reconcile.
type BulkCreateResponse struct {
	Created []RecordSummary `json:"created"`
}

type bulkErrorResponse struct {
	Error   string          `json:"error"`
	Created []RecordSummary `json:"created"`
}

// QueryResponse wraps query results.
type QueryResponse struct {
	Results []RecordSummary `json:"results"`
	Count   int             `json:"count"`
}

// HubListResponse wraps GET /hubs.
type HubListResponse struct {
	Hubs []HubInfo `json:"hubs"`
}
