package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"
)

// Client is the football data API client. It is the only place that touches
// the provider wire format; everything it returns is a canonical record from
// the models package.
type Client struct {
	baseURL     string
	apiKey      string
	httpClient  *http.Client
	rateLimiter chan struct{} // concurrency semaphore
	maxRetries  int
	retryDelay  time.Duration
}

// NewClient creates a new provider API client.
func NewClient(baseURL, apiKey string, timeout time.Duration) *Client {
	// Max 10 concurrent requests against the provider.
	rateLimiter := make(chan struct{}, 10)
	for i := 0; i < 10; i++ {
		rateLimiter <- struct{}{}
	}

	return &Client{
		baseURL:     baseURL,
		apiKey:      apiKey,
		rateLimiter: rateLimiter,
		maxRetries:  3,
		retryDelay:  1 * time.Second,
		httpClient: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
	}
}

// get performs a GET request with retry logic and rate limiting.
func (c *Client) get(ctx context.Context, path string, params map[string]string) ([]byte, error) {
	url := fmt.Sprintf("%s/%s", c.baseURL, path)

	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			// Exponential backoff: 1s, 2s, 4s
			backoff := c.retryDelay * time.Duration(1<<uint(attempt-1))
			log.Info().
				Str("url", url).
				Int("attempt", attempt).
				Dur("backoff", backoff).
				Msg("Retrying API request after backoff")

			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(backoff):
			}
		}

		body, retryable, err := c.doRequest(ctx, url, params)
		if err == nil {
			return body, nil
		}
		lastErr = err
		if !retryable {
			return nil, err
		}
	}

	return nil, lastErr
}

func (c *Client) doRequest(ctx context.Context, url string, params map[string]string) (body []byte, retryable bool, err error) {
	// Rate limiting: acquire semaphore
	select {
	case <-ctx.Done():
		return nil, false, ctx.Err()
	case <-c.rateLimiter:
		defer func() { c.rateLimiter <- struct{}{} }()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, false, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("x-apisports-key", c.apiKey)
	req.Header.Set("Accept", "application/json")

	if len(params) > 0 {
		q := req.URL.Query()
		for key, value := range params {
			q.Add(key, value)
		}
		req.URL.RawQuery = q.Encode()
	}

	log.Debug().
		Str("url", url).
		Msg("Making API request")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, true, fmt.Errorf("API request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err = io.ReadAll(resp.Body)
	if err != nil {
		return nil, true, fmt.Errorf("failed to read response body: %w", err)
	}

	switch resp.StatusCode {
	case http.StatusOK:
		log.Debug().
			Str("url", url).
			Int("status", resp.StatusCode).
			Int("size", len(body)).
			Msg("API request successful")
		return body, false, nil

	case http.StatusTooManyRequests, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		return nil, true, fmt.Errorf("API returned retryable status %d: %s", resp.StatusCode, string(body))

	case http.StatusUnauthorized, http.StatusForbidden:
		// Don't retry auth errors
		return nil, false, fmt.Errorf("API authentication failed (status %d): %s", resp.StatusCode, string(body))

	default:
		return nil, false, fmt.Errorf("API returned status %d: %s", resp.StatusCode, string(body))
	}
}

// getEnvelope performs a request and unmarshals the provider's standard
// response envelope into out.
func (c *Client) getEnvelope(ctx context.Context, path string, params map[string]string, out any) error {
	body, err := c.get(ctx, path, params)
	if err != nil {
		return err
	}

	var envelope struct {
		Response json.RawMessage `json:"response"`
		Errors   json.RawMessage `json:"errors"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return fmt.Errorf("failed to unmarshal response envelope: %w", err)
	}
	if len(envelope.Errors) > 0 && string(envelope.Errors) != "[]" && string(envelope.Errors) != "{}" && string(envelope.Errors) != "null" {
		return fmt.Errorf("API reported errors: %s", string(envelope.Errors))
	}
	if len(envelope.Response) == 0 {
		return nil
	}
	if err := json.Unmarshal(envelope.Response, out); err != nil {
		return fmt.Errorf("failed to unmarshal response payload: %w", err)
	}
	return nil
}

// Options narrows a fetch to a league, season or country. All fields are
// optional provider-side filters.
type Options struct {
	League  string
	Season  string
	Country string
}

func (o *Options) params() map[string]string {
	params := make(map[string]string)
	if o == nil {
		return params
	}
	if o.League != "" {
		params["league"] = o.League
	}
	if o.Season != "" {
		params["season"] = o.Season
	}
	if o.Country != "" {
		params["country"] = o.Country
	}
	return params
}
