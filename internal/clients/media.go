package clients

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/nicbou/homeserver/internal/config"
	"github.com/rs/zerolog/log"
)

// MediaClient handles communication with the media server's catalog API.
// Every operation is a thin request/response wrapper; all state lives on
// the server or in the library store.
type MediaClient struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

// NewMediaClient creates a new media server client
func NewMediaClient(cfg config.MediaServerConfig) *MediaClient {
	timeout := 30 * time.Second
	if cfg.Timeout != "" {
		if d, err := time.ParseDuration(cfg.Timeout); err == nil {
			timeout = d
		}
	}

	return &MediaClient{
		baseURL: cfg.URL,
		apiKey:  cfg.APIKey,
		client: &http.Client{
			Timeout: timeout,
		},
	}
}

// FetchCatalog fetches all movie records with their episodes
func (c *MediaClient) FetchCatalog(ctx context.Context) ([]CatalogMovie, error) {
	req, err := c.newRequest(ctx, http.MethodGet, "/api/movies/", nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("making request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	var result CatalogResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decoding response: %w", err)
	}

	log.Debug().
		Int("count", len(result.Movies)).
		Msg("Fetched catalog from media server")

	return result.Movies, nil
}

// MarkWatched marks an episode as finished. Idempotent.
func (c *MediaClient) MarkWatched(ctx context.Context, episodeID string) error {
	return c.doAction(ctx, http.MethodPost, fmt.Sprintf("/api/movies/%s/watched/", episodeID), nil)
}

// MarkUnwatched clears an episode's finished mark. Idempotent.
func (c *MediaClient) MarkUnwatched(ctx context.Context, episodeID string) error {
	return c.doAction(ctx, http.MethodPost, fmt.Sprintf("/api/movies/%s/unwatched/", episodeID), nil)
}

// SetProgress persists the playback position of an episode in seconds.
// Last write wins on the server side.
func (c *MediaClient) SetProgress(ctx context.Context, episodeID string, seconds float64) error {
	payload := map[string]float64{"progress": seconds}
	return c.doAction(ctx, http.MethodPost, fmt.Sprintf("/api/movies/%s/progress/", episodeID), payload)
}

// DeleteEpisode deletes an episode and its files. Idempotent.
func (c *MediaClient) DeleteEpisode(ctx context.Context, episodeID string) error {
	return c.doAction(ctx, http.MethodDelete, fmt.Sprintf("/api/movies/%s/", episodeID), nil)
}

// DeleteOriginalFile deletes the original (large) video file of an episode,
// keeping the web-playable encoding. Idempotent.
func (c *MediaClient) DeleteOriginalFile(ctx context.Context, episodeID string) error {
	return c.doAction(ctx, http.MethodDelete, fmt.Sprintf("/api/movies/%s/originalFile/", episodeID), nil)
}

// StarEpisode stars the movie an episode belongs to. The star is a
// movie-level concept client-side but the server models it per episode.
func (c *MediaClient) StarEpisode(ctx context.Context, episodeID string) error {
	return c.doAction(ctx, http.MethodPost, fmt.Sprintf("/api/movies/%s/star/", episodeID), nil)
}

// UnstarEpisode removes the star from the movie an episode belongs to
func (c *MediaClient) UnstarEpisode(ctx context.Context, episodeID string) error {
	return c.doAction(ctx, http.MethodPost, fmt.Sprintf("/api/movies/%s/unstar/", episodeID), nil)
}

// SaveMovie creates or updates a movie and its episode list from a triage
// decision, and returns the saved record
func (c *MediaClient) SaveMovie(ctx context.Context, draft MovieDraft) (*CatalogMovie, error) {
	body, err := json.Marshal(draft)
	if err != nil {
		return nil, fmt.Errorf("encoding movie draft: %w", err)
	}

	req, err := c.newRequest(ctx, http.MethodPost, "/api/movies/", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("making request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	var saved CatalogMovie
	if err := json.NewDecoder(resp.Body).Decode(&saved); err != nil {
		return nil, fmt.Errorf("decoding response: %w", err)
	}

	log.Info().
		Str("tmdb_id", saved.TmdbID).
		Int("episodes", len(saved.Episodes)).
		Msg("Saved movie to media server")

	return &saved, nil
}

// Ping checks if the media server is reachable
func (c *MediaClient) Ping(ctx context.Context) error {
	req, err := c.newRequest(ctx, http.MethodHead, "/api/movies/", nil)
	if err != nil {
		return err
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("making request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusInternalServerError {
		return fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	return nil
}

func (c *MediaClient) newRequest(ctx context.Context, method, path string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}
	return req, nil
}

// doAction performs a mutation request and checks the acknowledgement
func (c *MediaClient) doAction(ctx context.Context, method, path string, payload any) error {
	var body io.Reader
	if payload != nil {
		encoded, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("encoding payload: %w", err)
		}
		body = bytes.NewReader(encoded)
	}

	req, err := c.newRequest(ctx, method, path, body)
	if err != nil {
		return err
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("making request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusNoContent {
		return fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	var ack actionResponse
	if err := json.NewDecoder(resp.Body).Decode(&ack); err != nil {
		if err == io.EOF {
			return nil
		}
		return fmt.Errorf("decoding response: %w", err)
	}
	if ack.Result != "" && ack.Result != "success" {
		return fmt.Errorf("server reported failure: %s", ack.Message)
	}

	return nil
}
