package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/nicbou/homeserver/internal/services"
	"github.com/rs/zerolog/log"
)

// AuthHandler issues API tokens for the single admin account.
type AuthHandler struct {
	authService *services.AuthService
}

func NewAuthHandler(authService *services.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type LoginResponse struct {
	Token string `json:"token"`
}

// ErrorResponse is the error body shared by every API handler.
type ErrorResponse struct {
	Error string `json:"error"`
}

// Login handles POST /api/auth/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "Invalid request body"})
		return
	}

	token, err := h.authService.Login(req.Username, req.Password)
	if err != nil {
		log.Warn().Str("username", req.Username).Msg("Rejected login")
		writeJSON(w, http.StatusUnauthorized, ErrorResponse{Error: "Invalid username or password"})
		return
	}

	log.Info().Str("username", req.Username).Msg("Admin logged in")
	writeJSON(w, http.StatusOK, LoginResponse{Token: token})
}
