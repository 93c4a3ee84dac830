package library

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// ErrSessionNotFound is returned for progress reports against a closed or
// unknown playback session
var ErrSessionNotFound = errors.New("playback session not found")

// SessionManager hands out progress trackers to playback surfaces. Each
// surface opens a session when playback starts and closes it on teardown;
// the manager guarantees the tracker's ticker is stopped when the session
// goes away.
type SessionManager struct {
	store    *Store
	interval time.Duration

	mu       sync.Mutex
	trackers map[string]*ProgressTracker
}

// NewSessionManager creates a session manager flushing at the given
// interval
func NewSessionManager(store *Store, interval time.Duration) *SessionManager {
	return &SessionManager{
		store:    store,
		interval: interval,
		trackers: make(map[string]*ProgressTracker),
	}
}

// Open starts a playback session for an episode and returns its id
func (m *SessionManager) Open(tmdbID, episodeID string) string {
	sessionID := uuid.New().String()
	tracker := m.store.TrackProgress(tmdbID, episodeID, m.interval)

	m.mu.Lock()
	m.trackers[sessionID] = tracker
	m.mu.Unlock()

	log.Debug().
		Str("session_id", sessionID).
		Str("tmdb_id", tmdbID).
		Str("episode_id", episodeID).
		Msg("Playback session opened")

	return sessionID
}

// Update reports the playback position of a session
func (m *SessionManager) Update(sessionID string, position float64, ready bool) error {
	m.mu.Lock()
	tracker, ok := m.trackers[sessionID]
	m.mu.Unlock()

	if !ok {
		return ErrSessionNotFound
	}
	tracker.Update(position, ready)
	return nil
}

// Close tears down a session, forcing a final progress flush
func (m *SessionManager) Close(sessionID string) error {
	m.mu.Lock()
	tracker, ok := m.trackers[sessionID]
	delete(m.trackers, sessionID)
	m.mu.Unlock()

	if !ok {
		return ErrSessionNotFound
	}
	tracker.Close()

	log.Debug().Str("session_id", sessionID).Msg("Playback session closed")
	return nil
}

// CloseAll tears down every open session, used on shutdown
func (m *SessionManager) CloseAll() {
	m.mu.Lock()
	trackers := m.trackers
	m.trackers = make(map[string]*ProgressTracker)
	m.mu.Unlock()

	for _, tracker := range trackers {
		tracker.Close()
	}
}
