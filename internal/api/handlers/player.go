package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/nicbou/homeserver/internal/library"
)

// PlayerHandler manages playback sessions. A session owns a progress
// tracker that debounces write-back while the player reports positions.
type PlayerHandler struct {
	sessions *library.SessionManager
}

// NewPlayerHandler creates a new PlayerHandler
func NewPlayerHandler(sessions *library.SessionManager) *PlayerHandler {
	return &PlayerHandler{sessions: sessions}
}

// OpenSessionRequest is the body of the session open endpoint
type OpenSessionRequest struct {
	TmdbID    string `json:"tmdbId"`
	EpisodeID string `json:"episodeId"`
}

// OpenSessionResponse is the response of the session open endpoint
type OpenSessionResponse struct {
	SessionID string `json:"sessionId"`
}

// Open handles POST /api/player/sessions
func (h *PlayerHandler) Open(w http.ResponseWriter, r *http.Request) {
	var req OpenSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "Invalid request body"})
		return
	}
	if req.TmdbID == "" || req.EpisodeID == "" {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "tmdbId and episodeId are required"})
		return
	}

	sessionID := h.sessions.Open(req.TmdbID, req.EpisodeID)
	writeJSON(w, http.StatusCreated, OpenSessionResponse{SessionID: sessionID})
}

// UpdateSessionRequest is the body of the session update endpoint. Ready
// reports whether the player has buffered enough to trust the position.
type UpdateSessionRequest struct {
	Position float64 `json:"position"`
	Ready    bool    `json:"ready"`
}

// Update handles PUT /api/player/sessions/{sessionId}
func (h *PlayerHandler) Update(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionId")

	var req UpdateSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "Invalid request body"})
		return
	}

	if err := h.sessions.Update(sessionID, req.Position, req.Ready); err != nil {
		h.writeSessionError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"result": "success"})
}

// Close handles DELETE /api/player/sessions/{sessionId}. Closing a session
// forces a final progress flush regardless of the debounce interval.
func (h *PlayerHandler) Close(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionId")

	if err := h.sessions.Close(sessionID); err != nil {
		h.writeSessionError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"result": "success"})
}

func (h *PlayerHandler) writeSessionError(w http.ResponseWriter, err error) {
	if errors.Is(err, library.ErrSessionNotFound) {
		writeJSON(w, http.StatusNotFound, ErrorResponse{Error: "Session not found"})
		return
	}
	writeJSON(w, http.StatusInternalServerError, ErrorResponse{Error: "Session update failed"})
}
