package sonarr

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/avast/retry-go"
)

type Config struct {
	URL           string
	APIKey        string
	Timeout       time.Duration
	RetryAttempts uint
	RetryDelay    time.Duration
}

type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	attempts   uint
	delay      time.Duration
}

func NewClient(cfg Config) *Client {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	attempts := cfg.RetryAttempts
	if attempts == 0 {
		attempts = 1
	}

	return &Client{
		baseURL: cfg.URL,
		apiKey:  cfg.APIKey,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		attempts: attempts,
		delay:    cfg.RetryDelay,
	}
}

// APIError is a non-2xx answer from Sonarr.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("API error (status %d): %s", e.StatusCode, e.Body)
}

func (c *Client) request(ctx context.Context, method, endpoint string, query url.Values) (*http.Response, error) {
	fullURL, err := url.JoinPath(c.baseURL, endpoint)
	if err != nil {
		return nil, fmt.Errorf("invalid URL: %w", err)
	}
	if len(query) > 0 {
		fullURL += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, fullURL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	req.Header.Set("X-Api-Key", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("executing request: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		defer resp.Body.Close()
		bodyBytes, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, &APIError{StatusCode: resp.StatusCode, Body: string(bodyBytes)}
	}

	return resp, nil
}

func (c *Client) get(ctx context.Context, endpoint string, query url.Values, result interface{}) error {
	return retry.Do(
		func() error {
			resp, err := c.request(ctx, http.MethodGet, endpoint, query)
			if err != nil {
				return err
			}
			defer resp.Body.Close()

			if result != nil {
				if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
					return fmt.Errorf("decoding response: %w", err)
				}
			}
			return nil
		},
		retry.Context(ctx),
		retry.Attempts(c.attempts),
		retry.Delay(c.delay),
		retry.LastErrorOnly(true),
		retry.RetryIf(isTransient),
	)
}

// isTransient keeps auth and request errors from being retried.
func isTransient(err error) bool {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode == http.StatusTooManyRequests || apiErr.StatusCode >= 500
	}
	return true
}

// GetSystemStatus doubles as the connection check: it fails fast on a wrong
// URL or API key.
func (c *Client) GetSystemStatus(ctx context.Context) (*SystemStatus, error) {
	var status SystemStatus
	if err := c.get(ctx, "/api/v3/system/status", nil, &status); err != nil {
		return nil, fmt.Errorf("getting system status: %w", err)
	}
	return &status, nil
}
