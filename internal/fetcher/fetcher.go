// Package fetcher retrieves clock responses over HTTP.
package fetcher

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"
)

// DefaultURL is the world clock endpoint queried when none is configured
const DefaultURL = "http://worldclockapi.com/api/json/utc/now"

// Options configures a Client
type Options struct {
	URL       string
	Timeout   time.Duration
	UserAgent string
	MaxBytes  int64
	Logger    *slog.Logger
}

// Client fetches and decodes JSON objects from a single endpoint
type Client struct {
	url       string
	userAgent string
	maxBytes  int64
	http      *http.Client
	log       *slog.Logger
}

// New validates the endpoint and returns a Client for it
func New(opts Options) (*Client, error) {
	raw := opts.URL
	if raw == "" {
		raw = DefaultURL
	}

	u, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("invalid URL: %w", err)
	}
	if u.Scheme == "" {
		// worldclockapi only answers on plain http
		u, err = url.Parse("http://" + raw)
		if err != nil {
			return nil, fmt.Errorf("invalid URL: %w", err)
		}
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("unsupported scheme: %s", u.Scheme)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("invalid URL: missing host in %q", raw)
	}

	if opts.Timeout <= 0 {
		opts.Timeout = 10 * time.Second
	}
	if opts.UserAgent == "" {
		opts.UserAgent = "katas/1.0"
	}
	if opts.MaxBytes <= 0 {
		opts.MaxBytes = 1024 * 1024
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	return &Client{
		url:       u.String(),
		userAgent: opts.UserAgent,
		maxBytes:  opts.MaxBytes,
		http:      &http.Client{Timeout: opts.Timeout},
		log:       opts.Logger,
	}, nil
}

// URL returns the endpoint the client queries
func (c *Client) URL() string {
	return c.url
}

// Fetch performs a GET and decodes the body as a JSON object
func (c *Client) Fetch(ctx context.Context) (map[string]any, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch: %w", err)
	}
	defer resp.Body.Close()

	c.log.Debug("clock response", "url", c.url, "status", resp.StatusCode, "elapsed", time.Since(start))

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("HTTP %d: %s", resp.StatusCode, resp.Status)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, c.maxBytes))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}

	var out map[string]any
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, fmt.Errorf("decode body: %w", err)
	}
	if out == nil {
		return nil, fmt.Errorf("decode body: expected a JSON object")
	}

	return out, nil
}
