package handlers

import (
	"net/http"

	"github.com/nicbou/homeserver/internal/library"
	"github.com/rs/zerolog/log"
)

// LibraryHandler exposes collection status and forced refresh
type LibraryHandler struct {
	store *library.Store
}

// NewLibraryHandler creates a new LibraryHandler
func NewLibraryHandler(store *library.Store) *LibraryHandler {
	return &LibraryHandler{store: store}
}

// LibraryStatusResponse is the response of the library status endpoint
type LibraryStatusResponse struct {
	Status     string `json:"status"`
	MovieCount int    `json:"movieCount"`
}

// Status handles GET /api/library/status
func (h *LibraryHandler) Status(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, LibraryStatusResponse{
		Status:     h.store.Status().String(),
		MovieCount: h.store.MovieCount(),
	})
}

// Refresh handles POST /api/library/refresh: re-fetches the catalog from
// the media server even when a cached collection exists
func (h *LibraryHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	log.Info().Msg("Forced collection refresh requested")

	movies, err := h.store.Movies(r.Context(), true)
	if err != nil {
		writeJSON(w, http.StatusServiceUnavailable, ErrorResponse{Error: "Refresh failed"})
		return
	}

	writeJSON(w, http.StatusOK, LibraryStatusResponse{
		Status:     h.store.Status().String(),
		MovieCount: len(movies),
	})
}
