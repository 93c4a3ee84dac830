package library

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/nicbou/homeserver/internal/clients"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeCatalogService records every call so tests can assert how often and
// with which episode ids the store talks to the media server
type fakeCatalogService struct {
	mu           sync.Mutex
	catalog      []clients.CatalogMovie
	fetchErr     error
	persistErr   error
	fetchCount   int
	calls        []string
	savedDrafts  []clients.MovieDraft
	savedCatalog *clients.CatalogMovie
}

func (f *fakeCatalogService) FetchCatalog(ctx context.Context) ([]clients.CatalogMovie, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fetchCount++
	if f.fetchErr != nil {
		return nil, f.fetchErr
	}
	return f.catalog, nil
}

func (f *fakeCatalogService) record(call string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, call)
	return f.persistErr
}

func (f *fakeCatalogService) MarkWatched(ctx context.Context, episodeID string) error {
	return f.record("watched:" + episodeID)
}

func (f *fakeCatalogService) MarkUnwatched(ctx context.Context, episodeID string) error {
	return f.record("unwatched:" + episodeID)
}

func (f *fakeCatalogService) SetProgress(ctx context.Context, episodeID string, seconds float64) error {
	return f.record("progress:" + episodeID)
}

func (f *fakeCatalogService) DeleteEpisode(ctx context.Context, episodeID string) error {
	return f.record("delete:" + episodeID)
}

func (f *fakeCatalogService) DeleteOriginalFile(ctx context.Context, episodeID string) error {
	return f.record("deleteOriginal:" + episodeID)
}

func (f *fakeCatalogService) StarEpisode(ctx context.Context, episodeID string) error {
	return f.record("star:" + episodeID)
}

func (f *fakeCatalogService) UnstarEpisode(ctx context.Context, episodeID string) error {
	return f.record("unstar:" + episodeID)
}

func (f *fakeCatalogService) SaveMovie(ctx context.Context, draft clients.MovieDraft) (*clients.CatalogMovie, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.savedDrafts = append(f.savedDrafts, draft)
	if f.persistErr != nil {
		return nil, f.persistErr
	}
	return f.savedCatalog, nil
}

func (f *fakeCatalogService) callCount(prefix string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	count := 0
	for _, call := range f.calls {
		if len(call) >= len(prefix) && call[:len(prefix)] == prefix {
			count++
		}
	}
	return count
}

func intPtr(v int) *int {
	return &v
}

func testCatalog() []clients.CatalogMovie {
	return []clients.CatalogMovie{
		{
			TmdbID: "603",
			Title:  "The Matrix",
			Episodes: []clients.CatalogEpisode{
				{ID: "603-1", Duration: 8000},
			},
		},
		{
			TmdbID: "1396",
			Title:  "Breaking Bad",
			Episodes: []clients.CatalogEpisode{
				{ID: "1396-1", Season: intPtr(1), Episode: intPtr(1)},
				{ID: "1396-2", Season: intPtr(1), Episode: intPtr(2)},
			},
		},
	}
}

func newTestStore(t *testing.T) (*Store, *fakeCatalogService) {
	t.Helper()
	service := &fakeCatalogService{catalog: testCatalog()}
	store := NewStore(service)
	return store, service
}

// loadedStore returns a store whose collection is already fetched
func loadedStore(t *testing.T) (*Store, *fakeCatalogService) {
	t.Helper()
	store, service := newTestStore(t)
	_, err := store.Movies(context.Background(), false)
	require.NoError(t, err)
	require.Equal(t, StatusSuccess, store.Status())
	return store, service
}

func TestStoreMovies(t *testing.T) {
	t.Run("first read fetches the catalog", func(t *testing.T) {
		store, service := newTestStore(t)

		movies, err := store.Movies(context.Background(), false)
		require.NoError(t, err)
		assert.Len(t, movies, 2)
		assert.Equal(t, StatusSuccess, store.Status())
		assert.Equal(t, 1, service.fetchCount)
	})

	t.Run("later reads reuse the fetched collection", func(t *testing.T) {
		store, service := loadedStore(t)

		for i := 0; i < 3; i++ {
			movies, err := store.Movies(context.Background(), false)
			require.NoError(t, err)
			assert.Len(t, movies, 2)
		}
		assert.Equal(t, 1, service.fetchCount)
	})

	t.Run("concurrent readers share one fetch", func(t *testing.T) {
		store, service := newTestStore(t)

		var wg sync.WaitGroup
		for i := 0; i < 10; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				movies, err := store.Movies(context.Background(), false)
				assert.NoError(t, err)
				assert.Len(t, movies, 2)
			}()
		}
		wg.Wait()

		assert.Equal(t, 1, service.fetchCount)
	})

	t.Run("forced refresh issues a new fetch", func(t *testing.T) {
		store, service := loadedStore(t)

		_, err := store.Movies(context.Background(), true)
		require.NoError(t, err)
		assert.Equal(t, 2, service.fetchCount)
	})

	t.Run("canceled context stops waiting", func(t *testing.T) {
		store, _ := newTestStore(t)

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		_, err := store.Movies(ctx, false)
		assert.ErrorIs(t, err, context.Canceled)
	})
}

func TestStoreFetchFailure(t *testing.T) {
	t.Run("failed fetch leaves an empty collection", func(t *testing.T) {
		service := &fakeCatalogService{fetchErr: errors.New("connection refused")}
		store := NewStore(service)

		movies, err := store.Movies(context.Background(), false)
		require.NoError(t, err)
		assert.Empty(t, movies)
		assert.Equal(t, StatusFailure, store.Status())
	})

	t.Run("failure does not retry on later reads", func(t *testing.T) {
		service := &fakeCatalogService{fetchErr: errors.New("connection refused")}
		store := NewStore(service)

		_, err := store.Movies(context.Background(), false)
		require.NoError(t, err)
		_, err = store.Movies(context.Background(), false)
		require.NoError(t, err)

		assert.Equal(t, 1, service.fetchCount)
		assert.Equal(t, StatusFailure, store.Status())
	})

	t.Run("forced refresh recovers from failure", func(t *testing.T) {
		service := &fakeCatalogService{fetchErr: errors.New("connection refused")}
		store := NewStore(service)

		_, err := store.Movies(context.Background(), false)
		require.NoError(t, err)

		service.mu.Lock()
		service.fetchErr = nil
		service.catalog = testCatalog()
		service.mu.Unlock()

		movies, err := store.Movies(context.Background(), true)
		require.NoError(t, err)
		assert.Len(t, movies, 2)
		assert.Equal(t, StatusSuccess, store.Status())
	})
}

func TestStoreMovieByID(t *testing.T) {
	store, _ := loadedStore(t)

	movie, err := store.MovieByID(context.Background(), "603")
	require.NoError(t, err)
	assert.Equal(t, "The Matrix", movie.Title)

	_, err = store.MovieByID(context.Background(), "999")
	assert.ErrorIs(t, err, ErrMovieNotFound)
}

func TestStoreWatchedMutations(t *testing.T) {
	t.Run("mark watched applies locally and persists", func(t *testing.T) {
		store, service := loadedStore(t)

		require.NoError(t, store.MarkEpisodeWatched("603", "603-1"))

		movie, err := store.MovieByID(context.Background(), "603")
		require.NoError(t, err)
		assert.True(t, movie.IsWatched())

		store.Close()
		assert.Equal(t, 1, service.callCount("watched:603-1"))
	})

	t.Run("mark unwatched clears the finished mark", func(t *testing.T) {
		store, service := loadedStore(t)

		require.NoError(t, store.MarkEpisodeWatched("603", "603-1"))
		require.NoError(t, store.MarkEpisodeUnwatched("603", "603-1"))

		movie, err := store.MovieByID(context.Background(), "603")
		require.NoError(t, err)
		assert.False(t, movie.IsWatched())

		store.Close()
		assert.Equal(t, 1, service.callCount("unwatched:603-1"))
	})

	t.Run("failed persistence keeps the local state", func(t *testing.T) {
		store, service := loadedStore(t)
		service.mu.Lock()
		service.persistErr = errors.New("502 bad gateway")
		service.mu.Unlock()

		require.NoError(t, store.MarkEpisodeWatched("603", "603-1"))
		store.Close()

		movie, err := store.MovieByID(context.Background(), "603")
		require.NoError(t, err)
		assert.True(t, movie.IsWatched())
	})

	t.Run("unknown ids are rejected", func(t *testing.T) {
		store, _ := loadedStore(t)

		assert.ErrorIs(t, store.MarkEpisodeWatched("999", "1"), ErrMovieNotFound)
		assert.ErrorIs(t, store.MarkEpisodeWatched("603", "999"), ErrEpisodeNotFound)
	})
}

func TestStoreSetEpisodeProgress(t *testing.T) {
	store, service := loadedStore(t)

	require.NoError(t, store.SetEpisodeProgress("603", "603-1", 1234))

	movie, err := store.MovieByID(context.Background(), "603")
	require.NoError(t, err)
	assert.Equal(t, float64(1234), movie.Episodes["603-1"].Progress)

	store.Close()
	assert.Equal(t, 1, service.callCount("progress:603-1"))
}

func TestStoreDeleteEpisode(t *testing.T) {
	t.Run("removes the episode", func(t *testing.T) {
		store, service := loadedStore(t)

		require.NoError(t, store.DeleteEpisode("1396", "1396-1"))

		movie, err := store.MovieByID(context.Background(), "1396")
		require.NoError(t, err)
		assert.Len(t, movie.Episodes, 1)

		store.Close()
		assert.Equal(t, 1, service.callCount("delete:1396-1"))
	})

	t.Run("removes the movie when the last episode goes", func(t *testing.T) {
		store, _ := loadedStore(t)

		require.NoError(t, store.DeleteEpisode("603", "603-1"))

		_, err := store.MovieByID(context.Background(), "603")
		assert.ErrorIs(t, err, ErrMovieNotFound)
		assert.Equal(t, 1, store.MovieCount())
	})
}

func TestStoreDeleteOriginalFile(t *testing.T) {
	service := &fakeCatalogService{catalog: []clients.CatalogMovie{
		{
			TmdbID: "603",
			Title:  "The Matrix",
			Episodes: []clients.CatalogEpisode{
				{ID: "603-1", HasOriginalVersion: true},
			},
		},
	}}
	store := NewStore(service)
	_, err := store.Movies(context.Background(), false)
	require.NoError(t, err)

	require.NoError(t, store.DeleteOriginalFile("603", "603-1"))

	// The episode itself stays
	movie, err := store.MovieByID(context.Background(), "603")
	require.NoError(t, err)
	require.Len(t, movie.Episodes, 1)
	assert.False(t, movie.HasOriginalVersion())

	store.Close()
	assert.Equal(t, 1, service.callCount("deleteOriginal:603-1"))
}

func TestStoreStarFanOut(t *testing.T) {
	t.Run("star issues one call per episode", func(t *testing.T) {
		store, service := loadedStore(t)

		require.NoError(t, store.StarMovie("1396"))

		movie, err := store.MovieByID(context.Background(), "1396")
		require.NoError(t, err)
		assert.True(t, movie.IsStarred)

		store.Close()
		assert.Equal(t, 1, service.callCount("star:1396-1"))
		assert.Equal(t, 1, service.callCount("star:1396-2"))
	})

	t.Run("unstar mirrors the fan-out", func(t *testing.T) {
		store, service := loadedStore(t)

		require.NoError(t, store.StarMovie("1396"))
		require.NoError(t, store.UnstarMovie("1396"))

		movie, err := store.MovieByID(context.Background(), "1396")
		require.NoError(t, err)
		assert.False(t, movie.IsStarred)

		store.Close()
		assert.Equal(t, 2, service.callCount("unstar:1396"))
	})

	t.Run("unknown movie is rejected", func(t *testing.T) {
		store, _ := loadedStore(t)
		assert.ErrorIs(t, store.StarMovie("999"), ErrMovieNotFound)
	})
}

func TestStoreAcceptMovie(t *testing.T) {
	store, service := loadedStore(t)
	service.mu.Lock()
	service.savedCatalog = &clients.CatalogMovie{
		TmdbID: "27205",
		Title:  "Inception",
		Episodes: []clients.CatalogEpisode{
			{ID: "27205-1"},
		},
	}
	service.mu.Unlock()

	draft := clients.MovieDraft{TmdbID: "27205", Title: "Inception"}
	movie, err := store.AcceptMovie(context.Background(), draft)
	require.NoError(t, err)
	assert.Equal(t, "Inception", movie.Title)

	// The saved movie is part of the collection immediately
	found, err := store.MovieByID(context.Background(), "27205")
	require.NoError(t, err)
	assert.Equal(t, "Inception", found.Title)
	assert.Equal(t, 3, store.MovieCount())
}

func TestStoreOnChange(t *testing.T) {
	store, _ := newTestStore(t)

	var mu sync.Mutex
	changes := 0
	store.OnChange(func() {
		mu.Lock()
		changes++
		mu.Unlock()
	})

	_, err := store.Movies(context.Background(), false)
	require.NoError(t, err)
	require.NoError(t, store.MarkEpisodeWatched("603", "603-1"))
	store.Close()

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, 2, changes)
}

func TestStoreSupersedingProgressWrites(t *testing.T) {
	store, service := loadedStore(t)

	// Quick successive writes each persist; the local state reflects the
	// last one regardless of network ordering
	require.NoError(t, store.SetEpisodeProgress("603", "603-1", 100))
	require.NoError(t, store.SetEpisodeProgress("603", "603-1", 200))
	store.Close()

	movie, err := store.MovieByID(context.Background(), "603")
	require.NoError(t, err)
	assert.Equal(t, float64(200), movie.Episodes["603-1"].Progress)
	assert.Equal(t, 2, service.callCount("progress:603-1"))
}

func TestStoreSnapshotIsolation(t *testing.T) {
	t.Run("returned movies do not follow later mutations", func(t *testing.T) {
		store, _ := loadedStore(t)
		defer store.Close()

		movies, err := store.Movies(context.Background(), false)
		require.NoError(t, err)

		require.NoError(t, store.MarkEpisodeWatched("603", "603-1"))

		for _, m := range movies {
			if m.TmdbID == "603" {
				assert.False(t, m.IsWatched())
			}
		}

		fresh, err := store.MovieByID(context.Background(), "603")
		require.NoError(t, err)
		assert.True(t, fresh.IsWatched())
	})

	t.Run("mutating a returned movie does not leak into the collection", func(t *testing.T) {
		store, _ := loadedStore(t)
		defer store.Close()

		movie, err := store.MovieByID(context.Background(), "603")
		require.NoError(t, err)

		now := time.Now()
		movie.Episodes["603-1"].LastWatched = &now
		delete(movie.Episodes, "603-1")

		fresh, err := store.MovieByID(context.Background(), "603")
		require.NoError(t, err)
		require.Len(t, fresh.Episodes, 1)
		assert.False(t, fresh.IsWatched())
	})
}

func TestStoreConcurrentReadersAndMutators(t *testing.T) {
	store, _ := loadedStore(t)

	// Readers marshal their snapshots while mutators rewrite episode fields
	// and delete map entries; run with -race
	var wg sync.WaitGroup
	for r := 0; r < 4; r++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 50; i++ {
				movies, err := store.Movies(context.Background(), false)
				assert.NoError(t, err)
				for _, m := range movies {
					_, err := json.Marshal(m)
					assert.NoError(t, err)
				}
			}
		}()
	}

	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < 50; i++ {
			assert.NoError(t, store.MarkEpisodeWatched("1396", "1396-1"))
			assert.NoError(t, store.MarkEpisodeUnwatched("1396", "1396-1"))
			assert.NoError(t, store.SetEpisodeProgress("1396", "1396-2", float64(i)))
		}
		assert.NoError(t, store.DeleteEpisode("603", "603-1"))
	}()

	wg.Wait()
	store.Close()
}

func TestMaterializeMovie(t *testing.T) {
	now := time.Now()
	record := clients.CatalogMovie{
		TmdbID:    "603",
		Title:     "The Matrix",
		MediaType: 2,
		IsStarred: true,
		Episodes: []clients.CatalogEpisode{
			{
				ID:               "603-1",
				ConversionStatus: 3,
				LastWatched:      &now,
				Progress:         42,
				Duration:         8000,
			},
		},
	}

	movie := materializeMovie(record)
	assert.Equal(t, "603", movie.TmdbID)
	assert.True(t, movie.IsStarred)
	require.Contains(t, movie.Episodes, "603-1")

	episode := movie.Episodes["603-1"]
	assert.True(t, episode.IsConverted())
	assert.True(t, episode.IsWatched())
	assert.Equal(t, float64(42), episode.Progress)
}
