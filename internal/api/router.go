package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/starford/dou/internal/projectservice"
)

// NewRouter creates a chi router with all API routes mounted.
// authEnabled controls whether Bearer token auth is enforced.
// sseHandler, if non-nil, is mounted at GET /events inside the auth group.
func NewRouter(svc *projectservice.Service, authEnabled bool, token string, sseHandler http.Handler) chi.Router {
	h := NewHandler(svc)

	r := chi.NewRouter()
	r.Use(AuthMiddleware(authEnabled, token))

	r.Get("/projects", h.ListProjects)
	r.Post("/projects", h.CreateProject)
	r.Route("/projects/{project}", func(r chi.Router) {
		r.Get("/", h.GetProject)
		r.Put("/", h.UpdateProject)
		r.Delete("/", h.DeleteProject)

		// Live canvas.
		r.Post("/save", h.SaveProject)
		r.Post("/events", h.Events)
		r.Get("/canvas", h.Canvas)

		// Paths and prompt context.
		r.Get("/paths", h.Paths)
		r.Get("/prompt", h.Prompt)
		r.Get("/export", h.Export)

		r.Post("/nodes", h.ImportNodes)
		r.Post("/import", h.ImportFile)
		r.Patch("/nodes/{id}", h.PatchNode)
		r.Post("/connections", h.Connect)
		r.Delete("/connections", h.Disconnect)
	})

	r.Get("/search", h.Search)

	if sseHandler != nil {
		r.Get("/events", sseHandler.ServeHTTP)
	}

	return r
}
