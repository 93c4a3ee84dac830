package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func intPtr(v int) *int {
	return &v
}

func timePtr(v time.Time) *time.Time {
	return &v
}

func newTestMovie(episodes ...*Episode) *Movie {
	m := &Movie{
		TmdbID:    "603",
		Title:     "The Matrix",
		MediaType: MediaTypeMovie,
		Episodes:  make(map[string]*Episode),
	}
	for _, e := range episodes {
		m.Episodes[e.ID] = e
	}
	return m
}

func TestEpisodeWatchStatus(t *testing.T) {
	t.Run("not watched by default", func(t *testing.T) {
		e := &Episode{ID: "1"}
		assert.Equal(t, WatchStatusNotWatched, e.WatchStatus())
	})

	t.Run("watching when progress exists", func(t *testing.T) {
		e := &Episode{ID: "1", Progress: 120}
		assert.Equal(t, WatchStatusWatching, e.WatchStatus())
		assert.True(t, e.IsWatching())
	})

	t.Run("watched mark beats progress", func(t *testing.T) {
		e := &Episode{ID: "1", Progress: 120, LastWatched: timePtr(time.Now())}
		assert.Equal(t, WatchStatusWatched, e.WatchStatus())
		assert.True(t, e.IsWatched())
	})
}

func TestEpisodeString(t *testing.T) {
	tests := []struct {
		name     string
		season   *int
		episode  *int
		expected string
	}{
		{"season and episode", intPtr(1), intPtr(2), "S1E2"},
		{"multi-part movie", nil, intPtr(2), "Part 2"},
		{"stand-alone movie", nil, nil, ""},
		{"season without episode number", intPtr(3), nil, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := &Episode{ID: "1", Season: tt.season, EpisodeNumber: tt.episode}
			assert.Equal(t, tt.expected, e.EpisodeString())
		})
	}
}

func TestEpisodeListOrdering(t *testing.T) {
	m := newTestMovie(
		&Episode{ID: "c", Season: intPtr(2), EpisodeNumber: intPtr(1)},
		&Episode{ID: "a", Season: intPtr(1), EpisodeNumber: intPtr(2)},
		&Episode{ID: "b", Season: intPtr(1), EpisodeNumber: intPtr(1)},
		&Episode{ID: "d"},
	)

	episodes := m.EpisodeList()
	require.Len(t, episodes, 4)

	// The season-less episode sorts into season 1 with episode number 0
	assert.Equal(t, "d", episodes[0].ID)
	assert.Equal(t, "b", episodes[1].ID)
	assert.Equal(t, "a", episodes[2].ID)
	assert.Equal(t, "c", episodes[3].ID)
}

func TestMovieWatchStatus(t *testing.T) {
	t.Run("watched when every episode is watched", func(t *testing.T) {
		m := newTestMovie(
			&Episode{ID: "1", LastWatched: timePtr(time.Now())},
			&Episode{ID: "2", LastWatched: timePtr(time.Now())},
		)
		assert.Equal(t, WatchStatusWatched, m.WatchStatus())
		assert.True(t, m.IsWatched())
	})

	t.Run("watching when any episode is in progress", func(t *testing.T) {
		m := newTestMovie(
			&Episode{ID: "1", LastWatched: timePtr(time.Now())},
			&Episode{ID: "2", Progress: 45},
		)
		assert.Equal(t, WatchStatusWatching, m.WatchStatus())
	})

	t.Run("not watched when nothing started", func(t *testing.T) {
		m := newTestMovie(
			&Episode{ID: "1"},
			&Episode{ID: "2"},
		)
		assert.Equal(t, WatchStatusNotWatched, m.WatchStatus())
	})
}

func TestMovieLastWatched(t *testing.T) {
	older := time.Date(2024, 3, 1, 20, 0, 0, 0, time.UTC)
	newer := time.Date(2024, 5, 1, 20, 0, 0, 0, time.UTC)

	t.Run("most recent date when all episodes watched", func(t *testing.T) {
		m := newTestMovie(
			&Episode{ID: "1", LastWatched: timePtr(older)},
			&Episode{ID: "2", LastWatched: timePtr(newer)},
		)
		require.NotNil(t, m.LastWatched())
		assert.Equal(t, newer, *m.LastWatched())
	})

	t.Run("nil while any episode is unwatched", func(t *testing.T) {
		m := newTestMovie(
			&Episode{ID: "1", LastWatched: timePtr(newer)},
			&Episode{ID: "2"},
		)
		assert.Nil(t, m.LastWatched())
	})
}

func TestMovieClone(t *testing.T) {
	watched := time.Date(2024, 3, 1, 20, 0, 0, 0, time.UTC)
	m := newTestMovie(
		&Episode{ID: "1", LastWatched: timePtr(watched)},
		&Episode{ID: "2"},
	)

	clone := m.Clone()
	clone.Episodes["2"].LastWatched = timePtr(watched)
	delete(clone.Episodes, "1")

	require.Len(t, m.Episodes, 2)
	assert.Nil(t, m.Episodes["2"].LastWatched)
	assert.Equal(t, watched, *m.Episodes["1"].LastWatched)
}

func TestMovieConversionStatus(t *testing.T) {
	tests := []struct {
		name     string
		statuses []ConversionStatus
		expected ConversionStatus
	}{
		{"all converted", []ConversionStatus{ConversionStatusConverted, ConversionStatusConverted}, ConversionStatusConverted},
		{"one converting", []ConversionStatus{ConversionStatusConverted, ConversionStatusConverting}, ConversionStatusConverting},
		{"one pending", []ConversionStatus{ConversionStatusConverted, ConversionStatusNotConverted}, ConversionStatusNotConverted},
		{"no episodes", nil, ConversionStatusNotConverted},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := newTestMovie()
			for i, status := range tt.statuses {
				id := string(rune('a' + i))
				m.Episodes[id] = &Episode{ID: id, ConversionStatus: status}
			}
			assert.Equal(t, tt.expected, m.ConversionStatus())
		})
	}
}

func TestMoviePercentSeen(t *testing.T) {
	t.Run("single episode uses playback progress", func(t *testing.T) {
		m := newTestMovie(&Episode{ID: "1", Progress: 1500, Duration: 3000})
		assert.Equal(t, 50, m.PercentSeen())
	})

	t.Run("single episode with zero duration", func(t *testing.T) {
		m := newTestMovie(&Episode{ID: "1", Progress: 1500})
		assert.Equal(t, 0, m.PercentSeen())
	})

	t.Run("show uses watched episode count", func(t *testing.T) {
		m := newTestMovie(
			&Episode{ID: "1", LastWatched: timePtr(time.Now())},
			&Episode{ID: "2", Progress: 45},
			&Episode{ID: "3"},
		)
		assert.Equal(t, 33, m.PercentSeen())
	})
}

func TestMovieSeasons(t *testing.T) {
	t.Run("groups episodes by season", func(t *testing.T) {
		m := newTestMovie(
			&Episode{ID: "1", Season: intPtr(1), EpisodeNumber: intPtr(1), LastWatched: timePtr(time.Now())},
			&Episode{ID: "2", Season: intPtr(1), EpisodeNumber: intPtr(2)},
			&Episode{ID: "3", Season: intPtr(2), EpisodeNumber: intPtr(1)},
		)

		seasons := m.Seasons()
		require.Len(t, seasons, 2)

		assert.Equal(t, 1, seasons[0].Number)
		assert.Len(t, seasons[0].Episodes, 2)
		assert.Equal(t, 1, seasons[0].UnseenCount)

		assert.Equal(t, 2, seasons[1].Number)
		assert.Len(t, seasons[1].Episodes, 1)
		assert.Equal(t, 1, seasons[1].UnseenCount)
	})

	t.Run("season-less episodes land in season 1", func(t *testing.T) {
		m := newTestMovie(
			&Episode{ID: "1"},
			&Episode{ID: "2", EpisodeNumber: intPtr(2)},
		)

		seasons := m.Seasons()
		require.Len(t, seasons, 1)
		assert.Equal(t, 1, seasons[0].Number)
		assert.Len(t, seasons[0].Episodes, 2)
	})

	t.Run("every episode appears in exactly one bucket", func(t *testing.T) {
		m := newTestMovie(
			&Episode{ID: "1", Season: intPtr(1)},
			&Episode{ID: "2", Season: intPtr(3)},
			&Episode{ID: "3"},
		)

		total := 0
		for _, season := range m.Seasons() {
			total += len(season.Episodes)
		}
		assert.Equal(t, len(m.Episodes), total)
	})
}

func TestNextEpisodeToPlay(t *testing.T) {
	t.Run("resumes the in-progress episode", func(t *testing.T) {
		m := newTestMovie(
			&Episode{ID: "1", Season: intPtr(1), EpisodeNumber: intPtr(1), ConversionStatus: ConversionStatusConverted, LastWatched: timePtr(time.Now())},
			&Episode{ID: "2", Season: intPtr(1), EpisodeNumber: intPtr(2), ConversionStatus: ConversionStatusConverted, Progress: 45},
			&Episode{ID: "3", Season: intPtr(1), EpisodeNumber: intPtr(3), ConversionStatus: ConversionStatusConverted},
		)

		next := m.NextEpisodeToPlay()
		require.NotNil(t, next)
		assert.Equal(t, "2", next.ID)
	})

	t.Run("falls back to the first unwatched episode", func(t *testing.T) {
		m := newTestMovie(
			&Episode{ID: "1", Season: intPtr(1), EpisodeNumber: intPtr(1), ConversionStatus: ConversionStatusConverted, LastWatched: timePtr(time.Now())},
			&Episode{ID: "2", Season: intPtr(1), EpisodeNumber: intPtr(2), ConversionStatus: ConversionStatusConverted},
		)

		next := m.NextEpisodeToPlay()
		require.NotNil(t, next)
		assert.Equal(t, "2", next.ID)
	})

	t.Run("skips unconverted episodes", func(t *testing.T) {
		m := newTestMovie(
			&Episode{ID: "1", Season: intPtr(1), EpisodeNumber: intPtr(1), ConversionStatus: ConversionStatusConverting},
			&Episode{ID: "2", Season: intPtr(1), EpisodeNumber: intPtr(2), ConversionStatus: ConversionStatusConverted},
		)

		next := m.NextEpisodeToPlay()
		require.NotNil(t, next)
		assert.Equal(t, "2", next.ID)
	})

	t.Run("replays a fully watched movie", func(t *testing.T) {
		m := newTestMovie(
			&Episode{ID: "1", ConversionStatus: ConversionStatusConverted, LastWatched: timePtr(time.Now())},
		)

		next := m.NextEpisodeToPlay()
		require.NotNil(t, next)
		assert.Equal(t, "1", next.ID)
	})

	t.Run("nil when nothing is converted", func(t *testing.T) {
		m := newTestMovie(
			&Episode{ID: "1", ConversionStatus: ConversionStatusConverting},
		)
		assert.Nil(t, m.NextEpisodeToPlay())
	})
}

func TestMovieMarshalJSON(t *testing.T) {
	m := newTestMovie(
		&Episode{ID: "1", Season: intPtr(1), EpisodeNumber: intPtr(1), ConversionStatus: ConversionStatusConverted, Progress: 45, Duration: 90},
	)

	data, err := json.Marshal(m)
	require.NoError(t, err)

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &decoded))

	assert.Equal(t, "603", decoded["tmdbId"])
	assert.Equal(t, float64(WatchStatusWatching), decoded["watchStatus"])
	assert.Equal(t, float64(ConversionStatusConverted), decoded["conversionStatus"])
	assert.Equal(t, "1", decoded["nextEpisodeToPlay"])
	assert.Equal(t, float64(50), decoded["percentSeen"])

	episodes, ok := decoded["episodes"].([]interface{})
	require.True(t, ok)
	require.Len(t, episodes, 1)

	episode := episodes[0].(map[string]interface{})
	assert.Equal(t, float64(WatchStatusWatching), episode["watchStatus"])
	assert.Equal(t, "S1E1", episode["episodeString"])
}
