package project

import (
	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers project routes
func RegisterRoutes(r chi.Router, h *Handler) {
	r.Route("/projects/{project}", func(r chi.Router) {
		r.Post("/ingest", h.Ingest)
		r.Delete("/", h.DeleteProject)
	})
}
