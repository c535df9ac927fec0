// Package handlers provides HTTP handlers for portfolio and ledger endpoints.
package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/asteway/birrfolio/internal/domain"
	"github.com/asteway/birrfolio/internal/modules/auth"
	"github.com/asteway/birrfolio/internal/modules/portfolio"
	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
)

// Handler handles portfolio HTTP requests
type Handler struct {
	service *portfolio.Service
	log     zerolog.Logger
}

// NewHandler creates a new portfolio handler
func NewHandler(service *portfolio.Service, log zerolog.Logger) *Handler {
	return &Handler{
		service: service,
		log:     log.With().Str("handler", "portfolio").Logger(),
	}
}

// response is the standard API envelope
type response struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
	Message string      `json:"message,omitempty"`
}

// portfolioView is the combined holdings + summary payload.
type portfolioView struct {
	Holdings []portfolio.Holding `json:"holdings"`
	Summary  *portfolio.Summary  `json:"summary"`
}

// HandleGetPortfolio returns the user's holdings and their aggregate summary.
// GET /api/portfolio
func (h *Handler) HandleGetPortfolio(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok {
		h.writeError(w, http.StatusUnauthorized, "User not authenticated")
		return
	}

	holdings, err := h.service.GetHoldings(user.ID)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, response{
		Success: true,
		Data: portfolioView{
			Holdings: holdings,
			Summary:  portfolio.Summarize(holdings),
		},
	})
}

// HandleCreateHolding opens a position.
// POST /api/portfolio/holdings
func (h *Handler) HandleCreateHolding(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok {
		h.writeError(w, http.StatusUnauthorized, "User not authenticated")
		return
	}

	var data portfolio.CreateHoldingData
	if err := json.NewDecoder(r.Body).Decode(&data); err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	holding, err := h.service.CreateHolding(user.ID, data)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	h.writeJSON(w, http.StatusCreated, response{
		Success: true,
		Data:    holding,
		Message: "Holding created successfully",
	})
}

// HandleUpdateHolding applies the editable fields to a position.
// PUT /api/portfolio/holdings/{holdingId}
func (h *Handler) HandleUpdateHolding(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok {
		h.writeError(w, http.StatusUnauthorized, "User not authenticated")
		return
	}

	holdingID := chi.URLParam(r, "holdingId")

	var data portfolio.UpdateHoldingData
	if err := json.NewDecoder(r.Body).Decode(&data); err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	holding, err := h.service.UpdateHolding(user.ID, holdingID, data)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, response{
		Success: true,
		Data:    holding,
		Message: "Holding updated successfully",
	})
}

// HandleDeleteHolding removes a position.
// DELETE /api/portfolio/holdings/{holdingId}
func (h *Handler) HandleDeleteHolding(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok {
		h.writeError(w, http.StatusUnauthorized, "User not authenticated")
		return
	}

	holdingID := chi.URLParam(r, "holdingId")

	if err := h.service.DeleteHolding(user.ID, holdingID); err != nil {
		h.writeServiceError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, response{
		Success: true,
		Message: "Holding deleted successfully",
	})
}

// HandleGetTransactions returns the user's ledger, newest first.
// GET /api/portfolio/transactions?limit=50
func (h *Handler) HandleGetTransactions(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok {
		h.writeError(w, http.StatusUnauthorized, "User not authenticated")
		return
	}

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			h.writeError(w, http.StatusBadRequest, "Limit must be a positive integer")
			return
		}
		limit = parsed
	}

	transactions, err := h.service.GetTransactions(user.ID, limit)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, response{
		Success: true,
		Data:    transactions,
	})
}

// HandleCreateTransaction records a buy or sell against a holding.
// POST /api/portfolio/transactions
func (h *Handler) HandleCreateTransaction(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok {
		h.writeError(w, http.StatusUnauthorized, "User not authenticated")
		return
	}

	var data portfolio.CreateTransactionData
	if err := json.NewDecoder(r.Body).Decode(&data); err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	txn, err := h.service.RecordTransaction(user.ID, data)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	h.writeJSON(w, http.StatusCreated, response{
		Success: true,
		Data:    txn,
		Message: "Transaction recorded successfully",
	})
}

// HandleDeleteTransaction removes a ledger entry.
// DELETE /api/portfolio/transactions/{transactionId}
func (h *Handler) HandleDeleteTransaction(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok {
		h.writeError(w, http.StatusUnauthorized, "User not authenticated")
		return
	}

	transactionID := chi.URLParam(r, "transactionId")

	if err := h.service.DeleteTransaction(user.ID, transactionID); err != nil {
		h.writeServiceError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, response{
		Success: true,
		Message: "Transaction deleted successfully",
	})
}

// HandleExport returns the full portfolio bundle.
// GET /api/portfolio/export
func (h *Handler) HandleExport(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok {
		h.writeError(w, http.StatusUnauthorized, "User not authenticated")
		return
	}

	export, err := h.service.GetExport(user.ID)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, response{
		Success: true,
		Data:    export,
	})
}

// writeServiceError maps service errors to HTTP status codes
func (h *Handler) writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case domain.IsValidation(err):
		h.writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, domain.ErrDuplicate):
		h.writeError(w, http.StatusBadRequest, "Holding already exists for this symbol and asset type")
	case errors.Is(err, domain.ErrNotOwner):
		h.writeError(w, http.StatusForbidden, "Access denied")
	case errors.Is(err, domain.ErrNotFound):
		h.writeError(w, http.StatusNotFound, "Resource not found")
	default:
		h.log.Error().Err(err).Msg("Unexpected service error")
		h.writeError(w, http.StatusInternalServerError, "Internal server error")
	}
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
