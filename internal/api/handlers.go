package api

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/starford/mia/internal/checksum"
	"github.com/starford/mia/internal/filter"
	"github.com/starford/mia/internal/hubservice"
	"github.com/starford/mia/internal/mapping"
	"github.com/starford/mia/internal/schema"
)

const maxBodyBytes = 10 << 20

// Handler holds API route handlers.
type Handler struct {
	svc *hubservice.Service
}

// NewHandler creates a new Handler.
func NewHandler(svc *hubservice.Service) *Handler {
	return &Handler{svc: svc}
}

// fail logs server-side failures and writes the error response.
func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error, write bool) {
	status := statusFor(err, write)
	if status >= http.StatusInternalServerError {
		slog.Error("request failed",
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.String("hub", chi.URLParam(r, "hub")),
			slog.String("error", err.Error()))
	}
	writeJSON(w, status, errorBody(errorMessage(err)))
}

// readBody reads the request body up to the size limit.
func readBody(w http.ResponseWriter, r *http.Request) ([]byte, bool) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	body, err := io.ReadAll(r.Body)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("failed to read body"))
		return nil, false
	}
	return body, true
}

// ListHubs handles GET /notion/hubs. The catalogue only changes on restart,
// so it carries an ETag and honours If-None-Match.
func (h *Handler) ListHubs(w http.ResponseWriter, r *http.Request) {
	body, err := json.Marshal(HubListResponse{Hubs: h.svc.Describe()})
	if err != nil {
		h.fail(w, r, err, opRead)
		return
	}
	etag := checksum.ETag(body)
	w.Header().Set("ETag", etag)
	if r.Header.Get("If-None-Match") == etag {
		w.WriteHeader(http.StatusNotModified)
		return
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(body)
}

// CreateRecord handles POST /notion/{hub}.
func (h *Handler) CreateRecord(w http.ResponseWriter, r *http.Request) {
	hub, err := h.svc.Hub(chi.URLParam(r, "hub"))
	if err != nil {
		h.fail(w, r, err, opWrite)
		return
	}
	body, ok := readBody(w, r)
	if !ok {
		return
	}
	rec, err := mapping.DecodeInput(hub.Collection, body)
	if err != nil {
		h.fail(w, r, err, opWrite)
		return
	}
	sum, err := h.svc.Create(r.Context(), hub.Name(), rec)
	if err != nil {
		h.fail(w, r, err, opWrite)
		return
	}
	writeJSON(w, http.StatusCreated, sum)
}

// BulkCreate handles POST /notion/{hub}/bulk.
func (h *Handler) BulkCreate(w http.ResponseWriter, r *http.Request) {
	hub, err := h.svc.Hub(chi.URLParam(r, "hub"))
	if err != nil {
		h.fail(w, r, err, opWrite)
		return
	}
	body, ok := readBody(w, r)
	if !ok {
		return
	}
	var req BulkCreateRequest
	if err := json.Unmarshal(body, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}
	recs := make([]schema.Record, len(req.Records))
	for i, raw := range req.Records {
		rec, err := mapping.DecodeInput(hub.Collection, raw)
		if err != nil {
			h.fail(w, r, fmt.Errorf("record %d: %w", i, err), opWrite)
			return
		}
		recs[i] = rec
	}

	created, err := h.svc.BulkCreate(r.Context(), hub.Name(), recs)
	if err != nil {
		status := statusFor(err, opWrite)
		if len(created) > 0 {
			slog.Warn("bulk create stopped after partial success",
				slog.String("hub", hub.Name()),
				slog.Int("created", len(created)),
				slog.Int("requested", len(recs)),
				slog.String("error", err.Error()))
		}
		writeJSON(w, status, bulkErrorResponse{Error: errorMessage(err), Created: nonNil(created)})
		return
	}
	writeJSON(w, http.StatusCreated, BulkCreateResponse{Created: created})
}

// QueryRecords handles GET /notion/{hub}.
func (h *Handler) QueryRecords(w http.ResponseWriter, r *http.Request) {
	hub, err := h.svc.Hub(chi.URLParam(r, "hub"))
	if err != nil {
		h.fail(w, r, err, opRead)
		return
	}
	params, err := filter.ParseParams(hub.Collection, r.URL.Query())
	if err != nil {
		h.fail(w, r, err, opRead)
		return
	}
	results, err := h.svc.Query(r.Context(), hub.Name(), params)
	if err != nil {
		h.fail(w, r, err, opRead)
		return
	}
	writeJSON(w, http.StatusOK, QueryResponse{Results: nonNil(results), Count: len(results)})
}

// UpdateRecord handles PATCH /notion/{hub}/{id}.
func (h *Handler) UpdateRecord(w http.ResponseWriter, r *http.Request) {
	hub, err := h.svc.Hub(chi.URLParam(r, "hub"))
	if err != nil {
		h.fail(w, r, err, opWrite)
		return
	}
	body, ok := readBody(w, r)
	if !ok {
		return
	}
	rec, err := mapping.DecodeInput(hub.Collection, body)
	if err != nil {
		h.fail(w, r, err, opWrite)
		return
	}
	res, err := h.svc.Update(r.Context(), hub.Name(), chi.URLParam(r, "id"), rec)
	if err != nil {
		h.fail(w, r, err, opWrite)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
