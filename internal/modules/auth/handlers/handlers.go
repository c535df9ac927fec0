// Package handlers provides HTTP handlers for authentication and profiles.
package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/asteway/birrfolio/internal/domain"
	"github.com/asteway/birrfolio/internal/modules/auth"
	"github.com/rs/zerolog"
)

// Handler handles auth HTTP requests
type Handler struct {
	service *auth.Service
	log     zerolog.Logger
}

// NewHandler creates a new auth handler
func NewHandler(service *auth.Service, log zerolog.Logger) *Handler {
	return &Handler{
		service: service,
		log:     log.With().Str("handler", "auth").Logger(),
	}
}

// response is the standard API envelope
type response struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
	Message string      `json:"message,omitempty"`
}

// HandleRegister creates a new account.
// POST /api/auth/register
func (h *Handler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	var data auth.CreateUserData
	if err := json.NewDecoder(r.Body).Decode(&data); err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	result, err := h.service.Register(data)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	h.writeJSON(w, http.StatusCreated, response{
		Success: true,
		Data:    result,
		Message: "User created successfully",
	})
}

// HandleLogin authenticates a user.
// POST /api/auth/login
func (h *Handler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var credentials auth.LoginCredentials
	if err := json.NewDecoder(r.Body).Decode(&credentials); err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	result, err := h.service.Login(credentials)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, response{
		Success: true,
		Data:    result,
		Message: "Login successful",
	})
}

// HandleLogout deletes the current session.
// POST /api/auth/logout
func (h *Handler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok {
		h.writeError(w, http.StatusUnauthorized, "User not authenticated")
		return
	}

	token := auth.TokenFromRequest(r)
	if token != "" {
		if err := h.service.Logout(user.ID, token); err != nil {
			h.log.Error().Err(err).Str("user_id", user.ID).Msg("Logout failed")
			h.writeError(w, http.StatusInternalServerError, "Logout failed")
			return
		}
	}

	h.writeJSON(w, http.StatusOK, response{
		Success: true,
		Message: "Logout successful",
	})
}

// HandleGetProfile returns the authenticated user's profile.
// GET /api/auth/profile
func (h *Handler) HandleGetProfile(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok {
		h.writeError(w, http.StatusUnauthorized, "User not authenticated")
		return
	}

	h.writeJSON(w, http.StatusOK, response{
		Success: true,
		Data:    user,
	})
}

// HandleUpdateProfile updates the allowed profile fields.
// PUT /api/auth/profile
func (h *Handler) HandleUpdateProfile(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok {
		h.writeError(w, http.StatusUnauthorized, "User not authenticated")
		return
	}

	var data auth.UpdateUserData
	if err := json.NewDecoder(r.Body).Decode(&data); err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	updated, err := h.service.UpdateProfile(user.ID, data)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, response{
		Success: true,
		Data:    updated,
		Message: "Profile updated successfully",
	})
}

// HandleGetSettings returns the authenticated user's dashboard settings.
// GET /api/auth/settings
func (h *Handler) HandleGetSettings(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok {
		h.writeError(w, http.StatusUnauthorized, "User not authenticated")
		return
	}

	settings, err := h.service.GetSettings(user.ID)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, response{
		Success: true,
		Data:    settings,
	})
}

// writeServiceError maps service errors to HTTP status codes
func (h *Handler) writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case domain.IsValidation(err):
		h.writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, domain.ErrDuplicate):
		h.writeError(w, http.StatusBadRequest, "User with this email already exists")
	case errors.Is(err, domain.ErrInvalidCredentials):
		h.writeError(w, http.StatusUnauthorized, "Invalid email or password")
	case errors.Is(err, domain.ErrNotFound):
		h.writeError(w, http.StatusNotFound, "User not found")
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
