// Package tvmaze implements the metadata provider on top of the public
// TVmaze API. No API key is required.
package tvmaze

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/Nomadcxx/jellyrename/internal/provider"
	"github.com/avast/retry-go"
)

const (
	DefaultURL  = "https://api.tvmaze.com"
	providerKey = "tvmaze"
)

var errNotFound = errors.New("not found")

type Config struct {
	URL           string
	Timeout       time.Duration
	RetryAttempts uint
	RetryDelay    time.Duration
}

type Client struct {
	baseURL    string
	httpClient *http.Client
	attempts   uint
	delay      time.Duration
}

func NewClient(cfg Config) *Client {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	baseURL := cfg.URL
	if baseURL == "" {
		baseURL = DefaultURL
	}
	attempts := cfg.RetryAttempts
	if attempts == 0 {
		attempts = 1
	}

	return &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: timeout},
		attempts:   attempts,
		delay:      cfg.RetryDelay,
	}
}

func (c *Client) Name() string {
	return providerKey
}

// SearchShows queries /search/shows. Results keep TVmaze's score order.
func (c *Client) SearchShows(ctx context.Context, name string) ([]provider.Show, error) {
	q := url.Values{}
	q.Set("q", name)

	var results []searchResult
	if err := c.get(ctx, "/search/shows", q, &results); err != nil {
		return nil, provider.Wrap(providerKey, "search "+strconv.Quote(name), err)
	}

	shows := make([]provider.Show, 0, len(results))
	for _, r := range results {
		shows = append(shows, provider.Show{
			ID:   r.Show.ID,
			Name: r.Show.Name,
			Year: premieredYear(r.Show.Premiered),
		})
	}
	return shows, nil
}

// Episodes queries /shows/{id}/episodebynumber. A 404 means no such episode.
func (c *Client) Episodes(ctx context.Context, showID, season, episode int) ([]provider.Episode, error) {
	endpoint := fmt.Sprintf("/shows/%d/episodebynumber", showID)
	q := url.Values{}
	q.Set("season", strconv.Itoa(season))
	q.Set("number", strconv.Itoa(episode))

	var ep episodeResponse
	err := c.get(ctx, endpoint, q, &ep)
	if errors.Is(err, errNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, provider.Wrap(providerKey, fmt.Sprintf("episode %d s%02de%02d", showID, season, episode), err)
	}

	return []provider.Episode{{
		ShowID:  showID,
		Season:  ep.Season,
		Number:  ep.Number,
		Title:   ep.Name,
		AirDate: ep.Airdate,
	}}, nil
}

func (c *Client) get(ctx context.Context, endpoint string, query url.Values, result interface{}) error {
	fullURL, err := url.JoinPath(c.baseURL, endpoint)
	if err != nil {
		return fmt.Errorf("invalid URL: %w", err)
	}
	if len(query) > 0 {
		fullURL += "?" + query.Encode()
	}

	return retry.Do(
		func() error {
			return c.do(ctx, fullURL, result)
		},
		retry.Context(ctx),
		retry.Attempts(c.attempts),
		retry.Delay(c.delay),
		retry.LastErrorOnly(true),
		retry.RetryIf(isTransient),
	)
}

func (c *Client) do(ctx context.Context, fullURL string, result interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("executing request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return errNotFound
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return &statusError{Code: resp.StatusCode, Body: string(body)}
	}

	if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}
	return nil
}

type statusError struct {
	Code int
	Body string
}

func (e *statusError) Error() string {
	return fmt.Sprintf("API error (status %d): %s", e.Code, e.Body)
}

// isTransient retries network errors, rate limiting and server errors.
func isTransient(err error) bool {
	if errors.Is(err, errNotFound) {
		return false
	}
	var se *statusError
	if errors.As(err, &se) {
		return se.Code == http.StatusTooManyRequests || se.Code >= 500
	}
	return true
}

func premieredYear(premiered string) int {
	if len(premiered) < 4 {
		return 0
	}
	year, err := strconv.Atoi(premiered[:4])
	if err != nil {
		return 0
	}
	return year
}
