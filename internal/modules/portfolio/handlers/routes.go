package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// RegisterRoutes mounts portfolio routes. Everything here requires a valid
// session.
func (h *Handler) RegisterRoutes(r chi.Router, requireAuth func(http.Handler) http.Handler) {
	r.Route("/portfolio", func(r chi.Router) {
		r.Use(requireAuth)

		r.Get("/", h.HandleGetPortfolio)
		r.Get("/export", h.HandleExport)

		r.Post("/holdings", h.HandleCreateHolding)
		r.Put("/holdings/{holdingId}", h.HandleUpdateHolding)
		r.Delete("/holdings/{holdingId}", h.HandleDeleteHolding)

		r.Get("/transactions", h.HandleGetTransactions)
		r.Post("/transactions", h.HandleCreateTransaction)
		r.Delete("/transactions/{transactionId}", h.HandleDeleteTransaction)
	})
}
