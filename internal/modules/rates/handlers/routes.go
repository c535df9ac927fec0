package handlers

import (
	"github.com/go-chi/chi/v5"
)

// RegisterRoutes mounts the public rates routes. The websocket stream is not
// mounted here: the server registers HandleStream outside its request timeout
// so the ticker can outlive it.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/rates", func(r chi.Router) {
		r.Get("/", h.HandleGetRates)
		r.Get("/crypto", h.HandleGetCryptoRates)
	})
}
