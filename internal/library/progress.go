package library

import (
	"sync"
	"time"
)

// DefaultProgressFlushInterval is how often playback progress is written
// back to the media server while a player is active
const DefaultProgressFlushInterval = 3 * time.Second

// ProgressTracker debounces progress write-back for one playback session.
// The playback surface reports its position on every tick; the tracker
// applies it to the in-memory episode immediately but only persists it to
// the media server once per interval, and once more on Close. Progress is
// never flushed before the surface reports it is ready, so a slow-loading
// session cannot overwrite a saved position with zero.
type ProgressTracker struct {
	store     *Store
	tmdbID    string
	episodeID string

	mu       sync.Mutex
	position float64
	ready    bool

	ticker    *time.Ticker
	stop      chan struct{}
	closeOnce sync.Once
}

// TrackProgress starts a progress tracker for one playback session. The
// caller must Close it on teardown; a tracker that outlives its playback
// surface keeps flushing progress for an episode nobody is watching.
func (s *Store) TrackProgress(tmdbID, episodeID string, interval time.Duration) *ProgressTracker {
	if interval <= 0 {
		interval = DefaultProgressFlushInterval
	}

	t := &ProgressTracker{
		store:     s,
		tmdbID:    tmdbID,
		episodeID: episodeID,
		ticker:    time.NewTicker(interval),
		stop:      make(chan struct{}),
	}
	go t.run()
	return t
}

// Update records the current playback position. ready reports whether the
// playback surface has buffered enough to know a reliable position; until
// then nothing is persisted.
func (t *ProgressTracker) Update(position float64, ready bool) {
	t.mu.Lock()
	t.position = position
	t.ready = ready
	t.mu.Unlock()

	// The in-memory collection follows every tick; only the write-back to
	// the media server is debounced.
	if ready {
		t.store.setLocalProgress(t.tmdbID, t.episodeID, position)
	}
}

// Close stops the flush ticker and forces one final flush so at most one
// interval of progress is at risk. Idempotent.
func (t *ProgressTracker) Close() {
	t.closeOnce.Do(func() {
		t.ticker.Stop()
		close(t.stop)
		t.flush()
	})
}

func (t *ProgressTracker) run() {
	for {
		select {
		case <-t.ticker.C:
			t.flush()
		case <-t.stop:
			return
		}
	}
}

func (t *ProgressTracker) flush() {
	t.mu.Lock()
	ready := t.ready
	position := t.position
	t.mu.Unlock()

	if !ready {
		return
	}
	// Errors are already handled by the store's persistence path; a vanished
	// episode just means the flush is a no-op.
	_ = t.store.SetEpisodeProgress(t.tmdbID, t.episodeID, position)
}
