package library

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/nicbou/homeserver/internal/clients"
	"github.com/nicbou/homeserver/internal/models"
	"github.com/rs/zerolog/log"
)

var (
	// ErrMovieNotFound is returned by mutators when the movie is not in the
	// collection
	ErrMovieNotFound = errors.New("movie not found")
	// ErrEpisodeNotFound is returned by mutators when the episode is not in
	// the movie's episode map
	ErrEpisodeNotFound = errors.New("episode not found")
)

// RequestStatus is the state of the collection-fetch lifecycle
type RequestStatus int

const (
	StatusNone RequestStatus = iota
	StatusPending
	StatusSuccess
	StatusFailure
)

func (s RequestStatus) String() string {
	switch s {
	case StatusPending:
		return "pending"
	case StatusSuccess:
		return "success"
	case StatusFailure:
		return "failure"
	default:
		return "none"
	}
}

// CatalogService is the media server surface the store reads from and
// persists to. clients.MediaClient satisfies it.
type CatalogService interface {
	FetchCatalog(ctx context.Context) ([]clients.CatalogMovie, error)
	MarkWatched(ctx context.Context, episodeID string) error
	MarkUnwatched(ctx context.Context, episodeID string) error
	SetProgress(ctx context.Context, episodeID string, seconds float64) error
	DeleteEpisode(ctx context.Context, episodeID string) error
	DeleteOriginalFile(ctx context.Context, episodeID string) error
	StarEpisode(ctx context.Context, episodeID string) error
	UnstarEpisode(ctx context.Context, episodeID string) error
	SaveMovie(ctx context.Context, draft clients.MovieDraft) (*clients.CatalogMovie, error)
}

// Store owns the canonical in-memory movie collection and mediates all
// reads and writes between callers and the media server.
//
// Reads are memoized: the first read issues exactly one catalog fetch and
// concurrent readers share its result. Mutators apply their effect to the
// in-memory collection synchronously and persist it to the media server in
// the background without awaiting the result; a failed persistence call is
// logged but never rolled back, and two quickly superseding mutations race
// on the network with no guaranteed final server state. The in-memory
// collection is the source of truth for rendering.
type Store struct {
	service CatalogService

	mu      sync.RWMutex
	movies  map[string]*models.Movie
	status  RequestStatus
	pending chan struct{}

	persistence sync.WaitGroup
	onChange    func()
}

// NewStore creates a store backed by the given media service
func NewStore(service CatalogService) *Store {
	return &Store{
		service: service,
		movies:  make(map[string]*models.Movie),
		status:  StatusNone,
	}
}

// OnChange registers a callback invoked after every collection change,
// before the corresponding persistence call is issued. Used to drop
// memoized API responses.
func (s *Store) OnChange(fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onChange = fn
}

// Status returns the current fetch lifecycle state
func (s *Store) Status() RequestStatus {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.status
}

// MovieCount returns the number of movies in the collection
func (s *Store) MovieCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.movies)
}

// Movies returns detached copies of the movie collection, fetching it from
// the media server on first use. Concurrent callers during a fetch share the single
// in-flight request. A failed fetch leaves the store in StatusFailure with
// an empty collection, and later reads keep returning that empty collection
// without retrying until a caller forces a refresh.
func (s *Store) Movies(ctx context.Context, forceRefresh bool) ([]*models.Movie, error) {
	s.mu.Lock()
	if s.status == StatusNone || (forceRefresh && s.status != StatusPending) {
		s.status = StatusPending
		s.pending = make(chan struct{})
		go s.fetch(s.pending)
	}
	pending := s.pending
	s.mu.Unlock()

	if pending != nil {
		select {
		case <-pending:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	return s.snapshot(), nil
}

// MovieByID returns a detached copy of one movie, fetching the collection
// first if needed
func (s *Store) MovieByID(ctx context.Context, tmdbID string) (*models.Movie, error) {
	if _, err := s.Movies(ctx, false); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	movie, ok := s.movies[tmdbID]
	if !ok {
		return nil, ErrMovieNotFound
	}
	return movie.Clone(), nil
}

// fetch issues the single underlying catalog request for one PENDING cycle
func (s *Store) fetch(done chan struct{}) {
	records, err := s.service.FetchCatalog(context.Background())

	s.mu.Lock()
	if err != nil {
		// Recover by presenting an empty collection. The failure state does
		// not self-heal: only a forced refresh issues a new request.
		s.movies = make(map[string]*models.Movie)
		s.status = StatusFailure
		log.Error().Err(err).Msg("Catalog fetch failed, presenting empty collection")
	} else {
		s.movies = materialize(records)
		s.status = StatusSuccess
		log.Info().Int("movies", len(s.movies)).Msg("Catalog fetched")
	}
	onChange := s.onChange
	close(done)
	s.mu.Unlock()

	if onChange != nil {
		onChange()
	}
}

// snapshot returns the current collection as a slice of detached copies.
// Callers marshal and sort these outside the lock, so they must never alias
// the live aggregates the mutators write to.
func (s *Store) snapshot() []*models.Movie {
	s.mu.RLock()
	defer s.mu.RUnlock()
	movies := make([]*models.Movie, 0, len(s.movies))
	for _, m := range s.movies {
		movies = append(movies, m.Clone())
	}
	return movies
}

// MarkEpisodeWatched marks an episode as finished now and persists the
// change in the background
func (s *Store) MarkEpisodeWatched(tmdbID, episodeID string) error {
	err := s.mutateEpisode(tmdbID, episodeID, func(e *models.Episode) {
		now := time.Now()
		e.LastWatched = &now
	})
	if err != nil {
		return err
	}

	s.persist("mark_watched", episodeID, func(ctx context.Context) error {
		return s.service.MarkWatched(ctx, episodeID)
	})
	return nil
}

// MarkEpisodeUnwatched clears an episode's finished mark and persists the
// change in the background
func (s *Store) MarkEpisodeUnwatched(tmdbID, episodeID string) error {
	err := s.mutateEpisode(tmdbID, episodeID, func(e *models.Episode) {
		e.LastWatched = nil
	})
	if err != nil {
		return err
	}

	s.persist("mark_unwatched", episodeID, func(ctx context.Context) error {
		return s.service.MarkUnwatched(ctx, episodeID)
	})
	return nil
}

// SetEpisodeProgress records the playback position of an episode and
// persists it in the background
func (s *Store) SetEpisodeProgress(tmdbID, episodeID string, seconds float64) error {
	err := s.mutateEpisode(tmdbID, episodeID, func(e *models.Episode) {
		e.Progress = seconds
	})
	if err != nil {
		return err
	}

	s.persist("set_progress", episodeID, func(ctx context.Context) error {
		return s.service.SetProgress(ctx, episodeID, seconds)
	})
	return nil
}

// DeleteEpisode removes an episode from its movie. When the last episode
// goes, the movie itself is removed from the collection. The deletion is
// persisted in the background.
func (s *Store) DeleteEpisode(tmdbID, episodeID string) error {
	s.mu.Lock()
	movie, ok := s.movies[tmdbID]
	if !ok {
		s.mu.Unlock()
		return ErrMovieNotFound
	}
	if _, ok := movie.Episodes[episodeID]; !ok {
		s.mu.Unlock()
		return ErrEpisodeNotFound
	}

	delete(movie.Episodes, episodeID)
	if len(movie.Episodes) == 0 {
		delete(s.movies, tmdbID)
		log.Info().Str("tmdb_id", tmdbID).Msg("Removed movie with no remaining episodes")
	}
	onChange := s.onChange
	s.mu.Unlock()

	if onChange != nil {
		onChange()
	}

	s.persist("delete_episode", episodeID, func(ctx context.Context) error {
		return s.service.DeleteEpisode(ctx, episodeID)
	})
	return nil
}

// DeleteOriginalFile drops the original (large) video file of an episode.
// Unlike DeleteEpisode this never cascades; it only clears a flag.
func (s *Store) DeleteOriginalFile(tmdbID, episodeID string) error {
	err := s.mutateEpisode(tmdbID, episodeID, func(e *models.Episode) {
		e.HasOriginalVersion = false
	})
	if err != nil {
		return err
	}

	s.persist("delete_original_file", episodeID, func(ctx context.Context) error {
		return s.service.DeleteOriginalFile(ctx, episodeID)
	})
	return nil
}

// StarMovie stars a movie. The media server models stars per episode, so
// one persistence call is issued for every episode of the movie.
func (s *Store) StarMovie(tmdbID string) error {
	return s.setStarred(tmdbID, true)
}

// UnstarMovie removes the star from a movie, one call per episode
func (s *Store) UnstarMovie(tmdbID string) error {
	return s.setStarred(tmdbID, false)
}

func (s *Store) setStarred(tmdbID string, starred bool) error {
	s.mu.Lock()
	movie, ok := s.movies[tmdbID]
	if !ok {
		s.mu.Unlock()
		return ErrMovieNotFound
	}
	movie.IsStarred = starred
	episodeIDs := make([]string, 0, len(movie.Episodes))
	for id := range movie.Episodes {
		episodeIDs = append(episodeIDs, id)
	}
	onChange := s.onChange
	s.mu.Unlock()

	if onChange != nil {
		onChange()
	}

	operation := "star_episode"
	call := s.service.StarEpisode
	if !starred {
		operation = "unstar_episode"
		call = s.service.UnstarEpisode
	}
	for _, episodeID := range episodeIDs {
		episodeID := episodeID
		s.persist(operation, episodeID, func(ctx context.Context) error {
			return call(ctx, episodeID)
		})
	}
	return nil
}

// AcceptMovie saves a triaged movie draft to the media server and merges
// the saved record into the collection. Unlike the other mutators this is
// synchronous: the server assigns episode ids, so there is nothing to apply
// optimistically.
func (s *Store) AcceptMovie(ctx context.Context, draft clients.MovieDraft) (*models.Movie, error) {
	saved, err := s.service.SaveMovie(ctx, draft)
	if err != nil {
		return nil, err
	}

	movie := materializeMovie(*saved)

	s.mu.Lock()
	s.movies[movie.TmdbID] = movie
	onChange := s.onChange
	s.mu.Unlock()

	if onChange != nil {
		onChange()
	}

	log.Info().
		Str("tmdb_id", movie.TmdbID).
		Int("episodes", len(movie.Episodes)).
		Msg("Accepted triaged movie into collection")

	return movie.Clone(), nil
}

// Close waits for all background persistence calls to finish
func (s *Store) Close() {
	s.persistence.Wait()
}

// mutateEpisode applies fn to one episode under the write lock and fires
// the change callback
func (s *Store) mutateEpisode(tmdbID, episodeID string, fn func(*models.Episode)) error {
	s.mu.Lock()
	movie, ok := s.movies[tmdbID]
	if !ok {
		s.mu.Unlock()
		return ErrMovieNotFound
	}
	episode, ok := movie.Episodes[episodeID]
	if !ok {
		s.mu.Unlock()
		return ErrEpisodeNotFound
	}
	fn(episode)
	onChange := s.onChange
	s.mu.Unlock()

	if onChange != nil {
		onChange()
	}
	return nil
}

// setLocalProgress updates an episode's position without issuing a
// persistence call. Used by the progress tracker between flushes.
func (s *Store) setLocalProgress(tmdbID, episodeID string, seconds float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	movie, ok := s.movies[tmdbID]
	if !ok {
		return
	}
	episode, ok := movie.Episodes[episodeID]
	if !ok {
		return
	}
	episode.Progress = seconds
}

// persist runs one fire-and-forget persistence call. The result never
// feeds back into the collection; failures are logged with a correlation
// id and the optimistic local state stands.
func (s *Store) persist(operation, episodeID string, fn func(context.Context) error) {
	correlationID := uuid.New().String()
	s.persistence.Add(1)
	go func() {
		defer s.persistence.Done()
		if err := fn(context.Background()); err != nil {
			log.Error().
				Err(err).
				Str("operation", operation).
				Str("episode_id", episodeID).
				Str("correlation_id", correlationID).
				Msg("Failed to persist mutation, keeping local state")
			return
		}
		log.Debug().
			Str("operation", operation).
			Str("episode_id", episodeID).
			Str("correlation_id", correlationID).
			Msg("Mutation persisted")
	}()
}

// materialize turns raw catalog records into the aggregate collection,
// keyed by tmdbId
func materialize(records []clients.CatalogMovie) map[string]*models.Movie {
	movies := make(map[string]*models.Movie, len(records))
	for _, record := range records {
		movie := materializeMovie(record)
		movies[movie.TmdbID] = movie
	}
	return movies
}

func materializeMovie(record clients.CatalogMovie) *models.Movie {
	movie := &models.Movie{
		TmdbID:      record.TmdbID,
		Title:       record.Title,
		Description: record.Description,
		CoverURL:    record.CoverURL,
		MediaType:   models.MediaType(record.MediaType),
		IsStarred:   record.IsStarred,
		Episodes:    make(map[string]*models.Episode, len(record.Episodes)),
	}
	for _, e := range record.Episodes {
		movie.Episodes[e.ID] = &models.Episode{
			ID:                 e.ID,
			Season:             e.Season,
			EpisodeNumber:      e.Episode,
			ConversionStatus:   models.ConversionStatus(e.ConversionStatus),
			LastWatched:        e.LastWatched,
			Progress:           e.Progress,
			Duration:           e.Duration,
			DateAdded:          e.DateAdded,
			ReleaseYear:        e.ReleaseYear,
			ConvertedVideoURL:  e.ConvertedVideoURL,
			OriginalVideoURL:   e.OriginalVideoURL,
			VTTSubtitleURLs:    e.VTTSubtitleURLs,
			SRTSubtitleURLs:    e.SRTSubtitleURLs,
			HasOriginalVersion: e.HasOriginalVersion,
		}
	}
	return movie
}
