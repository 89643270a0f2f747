package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/starford/stickit/internal/noteservice"
)

// NewRouter creates a chi router with all API routes mounted.
// authEnabled controls whether Bearer token auth is enforced.
// sseHandler, if non-nil, is mounted at GET /events inside the auth group.
// previewLimit is the node count of ?preview=true HTML renders.
func NewRouter(svc *noteservice.Service, authEnabled bool, token string, sseHandler http.Handler, previewLimit int) chi.Router {
	h := NewHandler(svc, previewLimit)

	r := chi.NewRouter()
	r.Use(AuthMiddleware(authEnabled, token))

	r.Route("/notes", func(r chi.Router) {
		r.Get("/", h.ListNotes)
		r.Post("/", h.CreateNote)

		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", h.GetNote)
			r.Put("/", h.UpdateNote)
			r.Patch("/", h.PatchNote)
			r.Delete("/", h.DeleteNote)

			r.Get("/nodes", h.Nodes)
			r.Get("/html", h.HTML)
			r.Post("/checkboxes/{index}/toggle", h.ToggleCheckbox)
		})
	})

	r.Get("/search", h.Search)

	if sseHandler != nil {
		r.Get("/events", sseHandler.ServeHTTP)
	}

	return r
}
