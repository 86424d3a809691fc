package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/starford/mia/internal/apperr"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("json encode failed", slog.String("error", err.Error()))
	}
}

type errResponse struct {
	Error string `json:"error"`
}

func errorBody(msg string) errResponse {
	return errResponse{Error: msg}
}

// Operation paths; store failures map differently on each.
const (
	opRead  = false
	opWrite = true
)

// statusFor maps the error taxonomy onto HTTP status codes. Store failures
// are the caller's problem on writes (400) and ours on reads (500).
func statusFor(err error, write bool) int {
	switch {
	case errors.Is(err, apperr.ErrUpstream):
		if write {
			return http.StatusBadRequest
		}
		return http.StatusInternalServerError
	case errors.Is(err, apperr.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, apperr.ErrValidation):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// errorMessage returns a client-facing message. Unclassified errors are
// hidden behind a generic message.
func errorMessage(err error) string {
	switch {
	case errors.Is(err, apperr.ErrUpstream),
		errors.Is(err, apperr.ErrNotFound),
		errors.Is(err, apperr.ErrValidation),
		errors.Is(err, apperr.ErrConfiguration):
		return err.Error()
	}
	return "internal error"
}
