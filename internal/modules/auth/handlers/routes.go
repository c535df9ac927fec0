package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// RegisterRoutes mounts auth routes. requireAuth guards the session-bound
// endpoints; register and login stay public.
func (h *Handler) RegisterRoutes(r chi.Router, requireAuth func(http.Handler) http.Handler) {
	r.Route("/auth", func(r chi.Router) {
		r.Post("/register", h.HandleRegister)
		r.Post("/login", h.HandleLogin)

		r.Group(func(r chi.Router) {
			r.Use(requireAuth)
			r.Post("/logout", h.HandleLogout)
			r.Get("/profile", h.HandleGetProfile)
			r.Put("/profile", h.HandleUpdateProfile)
			r.Get("/settings", h.HandleGetSettings)
		})
	})
}
