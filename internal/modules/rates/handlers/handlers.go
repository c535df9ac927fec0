// Package handlers provides HTTP handlers for exchange rate endpoints.
package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/asteway/birrfolio/internal/modules/rates"
	"github.com/rs/zerolog"
)

// Handler handles rates HTTP requests
type Handler struct {
	service *rates.Service
	log     zerolog.Logger
}

// NewHandler creates a new rates handler
func NewHandler(service *rates.Service, log zerolog.Logger) *Handler {
	return &Handler{
		service: service,
		log:     log.With().Str("handler", "rates").Logger(),
	}
}

// response is the standard API envelope
type response struct {
	Success     bool        `json:"success"`
	Data        interface{} `json:"data,omitempty"`
	Error       string      `json:"error,omitempty"`
	LastUpdated string      `json:"lastUpdated,omitempty"`
	Sources     []string    `json:"sources,omitempty"`
}

// HandleGetRates returns birr quotes for all supported fiat currencies.
// GET /api/rates
func (h *Handler) HandleGetRates(w http.ResponseWriter, r *http.Request) {
	quotes := h.service.FiatRates()

	h.writeJSON(w, http.StatusOK, response{
		Success:     true,
		Data:        quotes,
		LastUpdated: time.Now().UTC().Format(time.RFC3339),
		Sources:     rates.RateSources,
	})
}

// HandleGetCryptoRates returns crypto quotes in USD and birr.
// GET /api/rates/crypto
func (h *Handler) HandleGetCryptoRates(w http.ResponseWriter, r *http.Request) {
	quotes, err := h.service.CryptoRates()
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to get crypto rates")
		h.writeError(w, http.StatusBadGateway, "Crypto rates unavailable")
		return
	}

	h.writeJSON(w, http.StatusOK, response{
		Success:     true,
		Data:        quotes,
		LastUpdated: time.Now().UTC().Format(time.RFC3339),
	})
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
