package handlers

import (
	"github.com/go-chi/chi/v5"
)

// RegisterRoutes mounts the public analytics routes.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/analytics", func(r chi.Router) {
		r.Get("/", h.HandleGetOverview)
		r.Get("/historical", h.HandleGetHistorical)
	})
}
