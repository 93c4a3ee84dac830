package models

import (
	"math/rand"
	"sort"
	"strings"
)

// SortStrategy names a user-selectable ordering for movie lists
type SortStrategy string

const (
	// SortDefault puts unwatched movies first, newest additions on top, and
	// pushes finished movies into a tail ordered by how long ago they were
	// completed (oldest completions last).
	SortDefault SortStrategy = "default"
	// SortStarredFirst is the default order with starred movies on top
	SortStarredFirst SortStrategy = "starred"
	// SortFirstAdded orders by the date the movie entered the library,
	// oldest first
	SortFirstAdded SortStrategy = "first_added"
	// SortLastSeen puts the most recently completed movies first
	SortLastSeen SortStrategy = "last_seen"
	// SortShuffle is a seeded random order, reproducible for a given seed
	SortShuffle SortStrategy = "shuffle"
)

// ParseSortStrategy maps a query parameter to a strategy, falling back to
// the default order for unknown values
func ParseSortStrategy(value string) SortStrategy {
	switch SortStrategy(value) {
	case SortStarredFirst, SortFirstAdded, SortLastSeen, SortShuffle:
		return SortStrategy(value)
	default:
		return SortDefault
	}
}

// defaultLess is the base comparator: a movie with no completion date ranks
// ahead of any movie that has one; completed movies order by completion date
// ascending; the rest order by date added, newest first.
func defaultLess(a, b *Movie) bool {
	aLast, bLast := a.LastWatched(), b.LastWatched()
	switch {
	case aLast != nil && bLast != nil:
		return aLast.Before(*bLast)
	case aLast != nil:
		return false
	case bLast != nil:
		return true
	default:
		return a.DateAdded().After(b.DateAdded())
	}
}

func starredFirstLess(a, b *Movie) bool {
	if a.IsStarred != b.IsStarred {
		return a.IsStarred
	}
	return defaultLess(a, b)
}

func firstAddedLess(a, b *Movie) bool {
	return a.DateAdded().Before(b.DateAdded())
}

func lastSeenLess(a, b *Movie) bool {
	aLast, bLast := a.LastWatched(), b.LastWatched()
	switch {
	case aLast != nil && bLast != nil:
		return aLast.After(*bLast)
	case aLast != nil:
		return true
	case bLast != nil:
		return false
	default:
		return a.DateAdded().After(b.DateAdded())
	}
}

var comparators = map[SortStrategy]func(a, b *Movie) bool{
	SortDefault:      defaultLess,
	SortStarredFirst: starredFirstLess,
	SortFirstAdded:   firstAddedLess,
	SortLastSeen:     lastSeenLess,
}

// SortMovies orders movies in place according to the strategy. Shuffle is
// the only non-comparator strategy; it is deterministic for a given seed.
// Ties are broken by tmdbId so equal inputs always produce equal output.
func SortMovies(movies []*Movie, strategy SortStrategy, seed int64) {
	if strategy == SortShuffle {
		sort.Slice(movies, func(i, j int) bool {
			return movies[i].TmdbID < movies[j].TmdbID
		})
		rand.New(rand.NewSource(seed)).Shuffle(len(movies), func(i, j int) {
			movies[i], movies[j] = movies[j], movies[i]
		})
		return
	}

	less, ok := comparators[strategy]
	if !ok {
		less = defaultLess
	}
	sort.SliceStable(movies, func(i, j int) bool {
		a, b := movies[i], movies[j]
		if less(a, b) {
			return true
		}
		if less(b, a) {
			return false
		}
		return a.TmdbID < b.TmdbID
	})
}

// FilterOptions selects which watch states a movie list shows. The zero
// value hides everything; DefaultFilterOptions shows everything.
type FilterOptions struct {
	Seen             bool
	New              bool
	InProgress       bool
	OnlyWithOriginal bool
	OnlyStarred      bool
}

// DefaultFilterOptions shows all watch states with no extra restrictions
func DefaultFilterOptions() FilterOptions {
	return FilterOptions{Seen: true, New: true, InProgress: true}
}

// FilterMovies returns the movies matching the watch-state options and the
// free-text query. The query matches title and description
// case-insensitively; a blank query matches everything.
func FilterMovies(movies []*Movie, opts FilterOptions, query string) []*Movie {
	query = strings.ToLower(strings.TrimSpace(query))

	results := make([]*Movie, 0, len(movies))
	for _, m := range movies {
		status := m.WatchStatus()
		switch {
		case opts.Seen && status == WatchStatusWatched:
		case opts.New && status == WatchStatusNotWatched:
		case opts.InProgress && status == WatchStatusWatching:
		default:
			continue
		}

		if opts.OnlyWithOriginal && !m.HasOriginalVersion() {
			continue
		}
		if opts.OnlyStarred && !m.IsStarred {
			continue
		}

		if query != "" {
			title := strings.ToLower(m.Title)
			description := strings.ToLower(m.Description)
			if !strings.Contains(title, query) && !strings.Contains(description, query) {
				continue
			}
		}

		results = append(results, m)
	}
	return results
}

// ShuffleSeed derives a numeric seed from the opaque seed string a client
// passes around in its URL
func ShuffleSeed(value string) int64 {
	var seed int64
	for _, r := range value {
		seed = seed*31 + int64(r)
	}
	return seed
}
