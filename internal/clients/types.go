package clients

import (
	"time"
)

// CatalogEpisode is one episode record as the media server returns it
type CatalogEpisode struct {
	ID                 string            `json:"id"`
	Season             *int              `json:"season"`
	Episode            *int              `json:"episode"`
	ConversionStatus   int               `json:"conversionStatus"`
	LastWatched        *time.Time        `json:"lastWatched"`
	Progress           float64           `json:"progress"`
	Duration           float64           `json:"duration"`
	DateAdded          time.Time         `json:"dateAdded"`
	ReleaseYear        string            `json:"releaseYear"`
	ConvertedVideoURL  string            `json:"convertedVideoUrl"`
	OriginalVideoURL   string            `json:"originalVideoUrl"`
	VTTSubtitleURLs    map[string]string `json:"vttSubtitleUrls"`
	SRTSubtitleURLs    map[string]string `json:"srtSubtitleUrls"`
	HasOriginalVersion bool              `json:"hasOriginalVersion"`
}

// CatalogMovie is one movie record with its nested episode list
type CatalogMovie struct {
	TmdbID      string           `json:"tmdbId"`
	Title       string           `json:"title"`
	Description string           `json:"description"`
	CoverURL    string           `json:"coverUrl"`
	MediaType   int              `json:"mediaType"`
	IsStarred   bool             `json:"isStarred"`
	Episodes    []CatalogEpisode `json:"episodes"`
}

// CatalogResponse is the response of the catalog listing endpoint
type CatalogResponse struct {
	Movies []CatalogMovie `json:"movies"`
}

// TriageEpisode is one episode of a movie draft being saved from triage
type TriageEpisode struct {
	Season      *int           `json:"season"`
	Episode     *int           `json:"episode"`
	LastWatched *time.Time     `json:"lastWatched"`
	Progress    float64        `json:"progress"`
	ReleaseYear string         `json:"releaseYear"`
	Triage      FileAssignment `json:"triage"`
}

// FileAssignment maps an episode draft to the video and subtitle files
// picked during triage
type FileAssignment struct {
	MovieFile       string `json:"movieFile,omitempty"`
	SubtitlesFileEn string `json:"subtitlesFileEn,omitempty"`
	SubtitlesFileDe string `json:"subtitlesFileDe,omitempty"`
	SubtitlesFileFr string `json:"subtitlesFileFr,omitempty"`
}

// MovieDraft is the payload for creating or updating a movie from a triage
// decision
type MovieDraft struct {
	TmdbID      string          `json:"tmdbId"`
	Title       string          `json:"title"`
	Description string          `json:"description"`
	CoverURL    string          `json:"coverUrl"`
	MediaType   int             `json:"mediaType"`
	Episodes    []TriageEpisode `json:"episodes"`
}

// actionResponse is the acknowledgement the server sends for mutations
type actionResponse struct {
	Result  string `json:"result"`
	Message string `json:"message,omitempty"`
}
