package models

import (
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"time"
)

// ConversionStatus tracks whether a web-playable encoding of an episode
// exists. The numeric values are part of the backend wire format.
type ConversionStatus int

const (
	ConversionStatusNotConverted ConversionStatus = 0
	ConversionStatusConverting   ConversionStatus = 1
	// 2 belongs to a retired "conversion failed" state that the backend can
	// still emit; it is treated the same as not converted.
	ConversionStatusConverted ConversionStatus = 3
)

// WatchStatus is the derived watch state of an episode or movie
type WatchStatus int

const (
	WatchStatusNotWatched WatchStatus = 0
	WatchStatusWatching   WatchStatus = 1
	WatchStatusWatched    WatchStatus = 2
)

// MediaType distinguishes TV shows from stand-alone movies
type MediaType int

const (
	MediaTypeTVShow MediaType = 1
	MediaTypeMovie  MediaType = 2
)

// Episode represents one watchable unit. Season and EpisodeNumber are
// pointers because both are optional: a stand-alone movie has neither.
// All status fields are derived on read, never stored.
type Episode struct {
	ID                 string            `json:"id"`
	Season             *int              `json:"season"`
	EpisodeNumber      *int              `json:"episode"`
	ConversionStatus   ConversionStatus  `json:"conversionStatus"`
	LastWatched        *time.Time        `json:"lastWatched,omitempty"`
	Progress           float64           `json:"progress"`
	Duration           float64           `json:"duration,omitempty"`
	DateAdded          time.Time         `json:"dateAdded"`
	ReleaseYear        string            `json:"releaseYear,omitempty"`
	ConvertedVideoURL  string            `json:"convertedVideoUrl,omitempty"`
	OriginalVideoURL   string            `json:"originalVideoUrl,omitempty"`
	VTTSubtitleURLs    map[string]string `json:"vttSubtitleUrls,omitempty"`
	SRTSubtitleURLs    map[string]string `json:"srtSubtitleUrls,omitempty"`
	HasOriginalVersion bool              `json:"hasOriginalVersion"`
}

// WatchStatus derives the watch state of the episode. An explicit
// LastWatched mark takes precedence over playback progress.
func (e *Episode) WatchStatus() WatchStatus {
	if e.LastWatched != nil {
		return WatchStatusWatched
	}
	if e.Progress > 0 {
		return WatchStatusWatching
	}
	return WatchStatusNotWatched
}

// IsWatched returns true when the episode was explicitly marked finished
func (e *Episode) IsWatched() bool {
	return e.WatchStatus() == WatchStatusWatched
}

// IsWatching returns true when playback started but the episode was not
// marked finished
func (e *Episode) IsWatching() bool {
	return e.WatchStatus() == WatchStatusWatching
}

// IsConverted returns true when a web-playable encoding exists
func (e *Episode) IsConverted() bool {
	return e.ConversionStatus == ConversionStatusConverted
}

// EpisodeString returns a short display label: "S1E2" for episodes with a
// season, "Part 2" for multi-part movies, "" otherwise.
func (e *Episode) EpisodeString() string {
	if e.EpisodeNumber == nil {
		return ""
	}
	if e.Season != nil {
		return fmt.Sprintf("S%dE%d", *e.Season, *e.EpisodeNumber)
	}
	return fmt.Sprintf("Part %d", *e.EpisodeNumber)
}

// effectiveSeason collapses a missing season into season 1 so stand-alone
// movies still group into a single section
func (e *Episode) effectiveSeason() int {
	if e.Season == nil {
		return 1
	}
	return *e.Season
}

func (e *Episode) effectiveEpisode() int {
	if e.EpisodeNumber == nil {
		return 0
	}
	return *e.EpisodeNumber
}

// MarshalJSON adds the derived fields to the stored ones
func (e Episode) MarshalJSON() ([]byte, error) {
	type Alias Episode
	return json.Marshal(&struct {
		*Alias
		WatchStatus   WatchStatus `json:"watchStatus"`
		EpisodeString string      `json:"episodeString,omitempty"`
	}{
		Alias:         (*Alias)(&e),
		WatchStatus:   e.WatchStatus(),
		EpisodeString: e.EpisodeString(),
	})
}

// Season is one season bucket of a show's episodes, sorted by episode
// number, with a count of episodes not yet watched
type Season struct {
	Number      int        `json:"seasonNumber"`
	Episodes    []*Episode `json:"episodes"`
	UnseenCount int        `json:"unseenCount"`
}

// Movie is the aggregate root for a movie or TV show. It exclusively owns
// its episodes; ordering and all status fields are computed on read.
type Movie struct {
	TmdbID      string              `json:"tmdbId"`
	Title       string              `json:"title"`
	Description string              `json:"description"`
	CoverURL    string              `json:"coverUrl"`
	MediaType   MediaType           `json:"mediaType"`
	IsStarred   bool                `json:"isStarred"`
	Episodes    map[string]*Episode `json:"-"`
}

// Clone returns a detached copy of the movie and its episodes. Callers that
// hold a movie outside the collection lock must work on a clone.
func (m *Movie) Clone() *Movie {
	clone := *m
	clone.Episodes = make(map[string]*Episode, len(m.Episodes))
	for id, e := range m.Episodes {
		episode := *e
		clone.Episodes[id] = &episode
	}
	return &clone
}

// EpisodeList returns all episodes sorted by season and episode number.
// Episodes without a season sort into season 1; ties keep insertion order.
func (m *Movie) EpisodeList() []*Episode {
	episodes := make([]*Episode, 0, len(m.Episodes))
	for _, e := range m.Episodes {
		episodes = append(episodes, e)
	}
	// Map iteration order is random, so pre-sort by ID for a stable base
	// order before the season/episode sort.
	sort.Slice(episodes, func(i, j int) bool {
		return episodes[i].ID < episodes[j].ID
	})
	sort.SliceStable(episodes, func(i, j int) bool {
		a, b := episodes[i], episodes[j]
		if a.effectiveSeason() != b.effectiveSeason() {
			return a.effectiveSeason() < b.effectiveSeason()
		}
		return a.effectiveEpisode() < b.effectiveEpisode()
	})
	return episodes
}

// WatchStatus derives the aggregate watch state: watched when every episode
// is watched, watching when any episode is in progress
func (m *Movie) WatchStatus() WatchStatus {
	allWatched := true
	anyWatching := false
	for _, e := range m.Episodes {
		switch e.WatchStatus() {
		case WatchStatusWatching:
			anyWatching = true
			allWatched = false
		case WatchStatusNotWatched:
			allWatched = false
		}
	}
	if allWatched {
		return WatchStatusWatched
	}
	if anyWatching {
		return WatchStatusWatching
	}
	return WatchStatusNotWatched
}

// IsWatched returns true when every episode was watched
func (m *Movie) IsWatched() bool {
	return m.WatchStatus() == WatchStatusWatched
}

// LastWatched returns the completion date of the movie. It is only defined
// once every episode has been watched, and is the most recent of the
// per-episode dates. A partially watched show has no completion date.
func (m *Movie) LastWatched() *time.Time {
	var latest *time.Time
	for _, e := range m.Episodes {
		if e.LastWatched == nil {
			return nil
		}
		if latest == nil || e.LastWatched.After(*latest) {
			latest = e.LastWatched
		}
	}
	return latest
}

// ConversionStatus derives the aggregate conversion state
func (m *Movie) ConversionStatus() ConversionStatus {
	allConverted := true
	anyConverting := false
	for _, e := range m.Episodes {
		switch e.ConversionStatus {
		case ConversionStatusConverting:
			anyConverting = true
			allConverted = false
		case ConversionStatusConverted:
		default:
			allConverted = false
		}
	}
	if allConverted && len(m.Episodes) > 0 {
		return ConversionStatusConverted
	}
	if anyConverting {
		return ConversionStatusConverting
	}
	return ConversionStatusNotConverted
}

// IsConverted returns true when every episode has a web-playable encoding
func (m *Movie) IsConverted() bool {
	return m.ConversionStatus() == ConversionStatusConverted
}

// DateAdded is the date the most recent episode was added
func (m *Movie) DateAdded() time.Time {
	var latest time.Time
	for _, e := range m.Episodes {
		if e.DateAdded.After(latest) {
			latest = e.DateAdded
		}
	}
	return latest
}

// ReleaseYear is the release year of the first episode
func (m *Movie) ReleaseYear() string {
	episodes := m.EpisodeList()
	if len(episodes) == 0 {
		return ""
	}
	return episodes[0].ReleaseYear
}

// HasOriginalVersion returns true when any episode still has its original
// (large) video file
func (m *Movie) HasOriginalVersion() bool {
	for _, e := range m.Episodes {
		if e.HasOriginalVersion {
			return true
		}
	}
	return false
}

// PercentSeen reports completion as a percentage. Single-episode movies use
// playback progress against duration, shows use the watched episode count.
func (m *Movie) PercentSeen() int {
	episodes := m.EpisodeList()
	if len(episodes) == 0 {
		return 0
	}
	if len(episodes) == 1 {
		if episodes[0].Duration <= 0 {
			return 0
		}
		return int(math.Round(episodes[0].Progress / episodes[0].Duration * 100))
	}
	watched := 0
	for _, e := range episodes {
		if e.IsWatched() {
			watched++
		}
	}
	return int(math.Round(float64(watched) / float64(len(episodes)) * 100))
}

// Seasons groups the episode list by season number. Episodes without a
// season land in season 1. Every episode appears in exactly one bucket.
func (m *Movie) Seasons() []Season {
	buckets := make(map[int]*Season)
	var numbers []int
	for _, e := range m.EpisodeList() {
		number := e.effectiveSeason()
		bucket, ok := buckets[number]
		if !ok {
			bucket = &Season{Number: number}
			buckets[number] = bucket
			numbers = append(numbers, number)
		}
		bucket.Episodes = append(bucket.Episodes, e)
		if !e.IsWatched() {
			bucket.UnseenCount++
		}
	}
	sort.Ints(numbers)
	seasons := make([]Season, 0, len(numbers))
	for _, number := range numbers {
		seasons = append(seasons, *buckets[number])
	}
	return seasons
}

// NextEpisodeToPlay picks the episode a play button should start: resume an
// in-progress episode first, then the first unwatched one, then any
// converted episode. Returns nil when nothing is playable yet; callers must
// treat that as "no play action", not as an error.
func (m *Movie) NextEpisodeToPlay() *Episode {
	episodes := m.EpisodeList()
	for _, e := range episodes {
		if e.IsConverted() && e.IsWatching() {
			return e
		}
	}
	for _, e := range episodes {
		if e.IsConverted() && e.WatchStatus() == WatchStatusNotWatched {
			return e
		}
	}
	for _, e := range episodes {
		if e.IsConverted() {
			return e
		}
	}
	return nil
}

// MarshalJSON adds the derived fields the frontend reads to the stored ones
func (m Movie) MarshalJSON() ([]byte, error) {
	type Alias Movie
	var nextEpisodeID string
	if next := m.NextEpisodeToPlay(); next != nil {
		nextEpisodeID = next.ID
	}
	return json.Marshal(&struct {
		*Alias
		Episodes         []*Episode       `json:"episodes"`
		WatchStatus      WatchStatus      `json:"watchStatus"`
		LastWatched      *time.Time       `json:"lastWatched,omitempty"`
		ConversionStatus ConversionStatus `json:"conversionStatus"`
		DateAdded        time.Time        `json:"dateAdded"`
		Seasons          []Season         `json:"seasons"`
		NextEpisodeID    string           `json:"nextEpisodeToPlay,omitempty"`
		PercentSeen      int              `json:"percentSeen"`
		HasOriginal      bool             `json:"hasOriginalVersion"`
	}{
		Alias:            (*Alias)(&m),
		Episodes:         m.EpisodeList(),
		WatchStatus:      m.WatchStatus(),
		LastWatched:      m.LastWatched(),
		ConversionStatus: m.ConversionStatus(),
		DateAdded:        m.DateAdded(),
		Seasons:          m.Seasons(),
		NextEpisodeID:    nextEpisodeID,
		PercentSeen:      m.PercentSeen(),
		HasOriginal:      m.HasOriginalVersion(),
	})
}
