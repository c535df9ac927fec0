// Package handlers provides HTTP handlers for market analytics endpoints.
package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/asteway/birrfolio/internal/domain"
	"github.com/asteway/birrfolio/internal/modules/analytics"
	"github.com/rs/zerolog"
)

// Handler handles analytics HTTP requests
type Handler struct {
	service *analytics.Service
	log     zerolog.Logger
}

// NewHandler creates a new analytics handler
func NewHandler(service *analytics.Service, log zerolog.Logger) *Handler {
	return &Handler{
		service: service,
		log:     log.With().Str("handler", "analytics").Logger(),
	}
}

// response is the standard API envelope
type response struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// HandleGetOverview returns the analytics dashboard payload.
// GET /api/analytics
func (h *Handler) HandleGetOverview(w http.ResponseWriter, r *http.Request) {
	overview, err := h.service.GetOverview()
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to build analytics overview")
		h.writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	h.writeJSON(w, http.StatusOK, response{Success: true, Data: overview})
}

// HandleGetHistorical returns a dated rate series with an SMA overlay.
// GET /api/analytics/historical?pair=USD/ETB&period=30d
func (h *Handler) HandleGetHistorical(w http.ResponseWriter, r *http.Request) {
	pair := r.URL.Query().Get("pair")
	period := r.URL.Query().Get("period")

	series, err := h.service.GetHistorical(pair, period)
	if err != nil {
		if domain.IsValidation(err) {
			h.writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		h.log.Error().Err(err).Msg("Failed to build historical series")
		h.writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	h.writeJSON(w, http.StatusOK, response{Success: true, Data: series})
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}

func (h *Handler) writeError(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, response{Success: false, Error: message})
}
