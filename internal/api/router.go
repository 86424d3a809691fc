package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/starford/mia/internal/hubservice"
)

// NewRouter creates a chi router with all hub routes mounted.
// authEnabled controls whether Bearer token auth is enforced.
// sseHandler, if non-nil, is mounted at GET /events inside the auth group.
func NewRouter(svc *hubservice.Service, authEnabled bool, token string, sseHandler http.Handler) chi.Router {
	h := NewHandler(svc)

	r := chi.NewRouter()
	r.Use(AuthMiddleware(authEnabled, token))

	r.Get("/hubs", h.ListHubs)

	if sseHandler != nil {
		r.Get("/events", sseHandler.ServeHTTP)
	}

	// Hub records. Static routes above win over {hub}.
	r.Route("/{hub}", func(r chi.Router) {
		r.Get("/", h.QueryRecords)
		r.Post("/", h.CreateRecord)
		r.Post("/bulk", h.BulkCreate)
		r.Patch("/{id}", h.UpdateRecord)
	})

	return r
}
