package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/nicbou/homeserver/internal/cache"
	"github.com/nicbou/homeserver/internal/clients"
	"github.com/nicbou/homeserver/internal/library"
	"github.com/nicbou/homeserver/internal/models"
	"github.com/rs/zerolog/log"
)

// MoviesHandler handles movie collection requests
type MoviesHandler struct {
	store *library.Store
	cache *cache.Cache
}

// NewMoviesHandler creates a new MoviesHandler
func NewMoviesHandler(store *library.Store, cacheInstance *cache.Cache) *MoviesHandler {
	return &MoviesHandler{
		store: store,
		cache: cacheInstance,
	}
}

// MovieListResponse is the response of the movie listing endpoint
type MovieListResponse struct {
	Items []*models.Movie `json:"items"`
	Total int             `json:"total"`
}

// List handles GET /api/movies
//
// Query parameters: sort (default|starred|first_added|last_seen|shuffle),
// seed (shuffle seed), q (free-text filter), seen/new/inprogress (watch
// state toggles, default on), starred, orig (only with original files).
func (h *MoviesHandler) List(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	cacheKey := fmt.Sprintf(cache.CacheKeyMovieList, query.Encode())
	if cached, found := h.cache.Get(cacheKey); found {
		writeJSON(w, http.StatusOK, cached)
		return
	}

	movies, err := h.store.Movies(r.Context(), false)
	if err != nil {
		writeJSON(w, http.StatusServiceUnavailable, ErrorResponse{Error: "Collection unavailable"})
		return
	}

	opts := models.FilterOptions{
		Seen:             queryBool(query.Get("seen"), true),
		New:              queryBool(query.Get("new"), true),
		InProgress:       queryBool(query.Get("inprogress"), true),
		OnlyStarred:      queryBool(query.Get("starred"), false),
		OnlyWithOriginal: queryBool(query.Get("orig"), false),
	}
	movies = models.FilterMovies(movies, opts, query.Get("q"))

	strategy := models.ParseSortStrategy(query.Get("sort"))
	models.SortMovies(movies, strategy, models.ShuffleSeed(query.Get("seed")))

	response := MovieListResponse{Items: movies, Total: len(movies)}
	h.cache.Set(cacheKey, response, cache.TTLMovieList)

	writeJSON(w, http.StatusOK, response)
}

// Get handles GET /api/movies/{tmdbId}
func (h *MoviesHandler) Get(w http.ResponseWriter, r *http.Request) {
	tmdbID := chi.URLParam(r, "tmdbId")

	cacheKey := fmt.Sprintf(cache.CacheKeyMovieItem, tmdbID)
	if cached, found := h.cache.Get(cacheKey); found {
		writeJSON(w, http.StatusOK, cached)
		return
	}

	movie, err := h.store.MovieByID(r.Context(), tmdbID)
	if err != nil {
		if errors.Is(err, library.ErrMovieNotFound) {
			writeJSON(w, http.StatusNotFound, ErrorResponse{Error: "Movie not found"})
			return
		}
		writeJSON(w, http.StatusServiceUnavailable, ErrorResponse{Error: "Collection unavailable"})
		return
	}

	h.cache.Set(cacheKey, movie, cache.TTLMovieItem)
	writeJSON(w, http.StatusOK, movie)
}

// SaveTriaged handles POST /api/movies: a triaged movie draft is saved to
// the media server and merged into the collection
func (h *MoviesHandler) SaveTriaged(w http.ResponseWriter, r *http.Request) {
	var draft clients.MovieDraft
	if err := json.NewDecoder(r.Body).Decode(&draft); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "Invalid request body"})
		return
	}
	if draft.TmdbID == "" {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "tmdbId is required"})
		return
	}

	movie, err := h.store.AcceptMovie(r.Context(), draft)
	if err != nil {
		log.Error().Err(err).Str("tmdb_id", draft.TmdbID).Msg("Failed to save triaged movie")
		writeJSON(w, http.StatusBadGateway, ErrorResponse{Error: "Failed to save movie"})
		return
	}

	writeJSON(w, http.StatusCreated, movie)
}

// MarkWatched handles POST /api/movies/{tmdbId}/episodes/{episodeId}/watched
func (h *MoviesHandler) MarkWatched(w http.ResponseWriter, r *http.Request) {
	h.mutate(w, r, func(tmdbID, episodeID string) error {
		return h.store.MarkEpisodeWatched(tmdbID, episodeID)
	})
}

// MarkUnwatched handles POST /api/movies/{tmdbId}/episodes/{episodeId}/unwatched
func (h *MoviesHandler) MarkUnwatched(w http.ResponseWriter, r *http.Request) {
	h.mutate(w, r, func(tmdbID, episodeID string) error {
		return h.store.MarkEpisodeUnwatched(tmdbID, episodeID)
	})
}

// SetProgressRequest is the body of the progress endpoint
type SetProgressRequest struct {
	Progress float64 `json:"progress"`
}

// SetProgress handles POST /api/movies/{tmdbId}/episodes/{episodeId}/progress
func (h *MoviesHandler) SetProgress(w http.ResponseWriter, r *http.Request) {
	var req SetProgressRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "Invalid request body"})
		return
	}
	if req.Progress < 0 {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "Progress must not be negative"})
		return
	}

	h.mutate(w, r, func(tmdbID, episodeID string) error {
		return h.store.SetEpisodeProgress(tmdbID, episodeID, req.Progress)
	})
}

// DeleteEpisode handles DELETE /api/movies/{tmdbId}/episodes/{episodeId}
func (h *MoviesHandler) DeleteEpisode(w http.ResponseWriter, r *http.Request) {
	h.mutate(w, r, func(tmdbID, episodeID string) error {
		return h.store.DeleteEpisode(tmdbID, episodeID)
	})
}

// DeleteOriginalFile handles DELETE /api/movies/{tmdbId}/episodes/{episodeId}/originalFile
func (h *MoviesHandler) DeleteOriginalFile(w http.ResponseWriter, r *http.Request) {
	h.mutate(w, r, func(tmdbID, episodeID string) error {
		return h.store.DeleteOriginalFile(tmdbID, episodeID)
	})
}

// Star handles POST /api/movies/{tmdbId}/star
func (h *MoviesHandler) Star(w http.ResponseWriter, r *http.Request) {
	h.mutateMovie(w, r, h.store.StarMovie)
}

// Unstar handles POST /api/movies/{tmdbId}/unstar
func (h *MoviesHandler) Unstar(w http.ResponseWriter, r *http.Request) {
	h.mutateMovie(w, r, h.store.UnstarMovie)
}

func (h *MoviesHandler) mutate(w http.ResponseWriter, r *http.Request, fn func(tmdbID, episodeID string) error) {
	tmdbID := chi.URLParam(r, "tmdbId")
	episodeID := chi.URLParam(r, "episodeId")

	if err := fn(tmdbID, episodeID); err != nil {
		h.writeMutationError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"result": "success"})
}

func (h *MoviesHandler) mutateMovie(w http.ResponseWriter, r *http.Request, fn func(tmdbID string) error) {
	tmdbID := chi.URLParam(r, "tmdbId")

	if err := fn(tmdbID); err != nil {
		h.writeMutationError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"result": "success"})
}

func (h *MoviesHandler) writeMutationError(w http.ResponseWriter, err error) {
	if errors.Is(err, library.ErrMovieNotFound) || errors.Is(err, library.ErrEpisodeNotFound) {
		writeJSON(w, http.StatusNotFound, ErrorResponse{Error: err.Error()})
		return
	}
	writeJSON(w, http.StatusInternalServerError, ErrorResponse{Error: "Mutation failed"})
}

// queryBool parses a query string toggle, falling back to a default when
// the parameter is absent
func queryBool(value string, fallback bool) bool {
	switch value {
	case "":
		return fallback
	case "1", "true", "yes", "on":
		return true
	default:
		return false
	}
}

// writeJSON writes a JSON response with the given status code
func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(payload)
}
