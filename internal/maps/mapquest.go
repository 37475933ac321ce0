// Package maps fetches static map images for cafe detail pages from the
// MapQuest static map API.
package maps

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"time"
)

const defaultBaseURL = "https://www.mapquestapi.com/staticmap/v5/map"

// Client fetches static map images. A Client with an empty API key is a
// no-op so map fetching can be left unconfigured in development and tests.
type Client struct {
	apiKey  string
	baseURL string
	dir     string
	http    *http.Client
	logger  *slog.Logger
}

// Option customizes a Client.
type Option func(*Client)

// WithBaseURL overrides the MapQuest endpoint. Used in tests.
func WithBaseURL(u string) Option {
	return func(c *Client) { c.baseURL = u }
}

// WithHTTPClient overrides the HTTP client.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.http = h }
}

// NewClient returns a Client that saves map images under dir/maps.
func NewClient(apiKey, dir string, logger *slog.Logger, opts ...Option) *Client {
	c := &Client{
		apiKey:  apiKey,
		baseURL: defaultBaseURL,
		dir:     dir,
		http:    &http.Client{Timeout: 10 * time.Second},
		logger:  logger,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Enabled reports whether an API key is configured.
func (c *Client) Enabled() bool {
	return c.apiKey != ""
}

// StaticMapURL builds the static map URL for an address.
func (c *Client) StaticMapURL(address, city, state string) string {
	where := fmt.Sprintf("%s,%s,%s", address, city, state)
	q := url.Values{}
	q.Set("key", c.apiKey)
	q.Set("center", where)
	q.Set("size", "@2x")
	q.Set("zoom", "15")
	q.Set("locations", where)
	return c.baseURL + "?" + q.Encode()
}

// SaveMap fetches the static map for a cafe and writes it to
// <dir>/maps/<cafeID>.jpg. Callers treat failures as non-fatal; a missing
// map image only degrades the detail page.
func (c *Client) SaveMap(ctx context.Context, cafeID uint, address, city, state string) error {
	if !c.Enabled() {
		return nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.StaticMapURL(address, city, state), nil)
	if err != nil {
		return fmt.Errorf("building map request: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("fetching map: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("fetching map: unexpected status %d", resp.StatusCode)
	}

	mapsDir := filepath.Join(c.dir, "maps")
	if err := os.MkdirAll(mapsDir, 0o755); err != nil {
		return fmt.Errorf("creating maps dir: %w", err)
	}

	path := filepath.Join(mapsDir, fmt.Sprintf("%d.jpg", cafeID))
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating map file: %w", err)
	}
	defer f.Close()

	if _, err := io.Copy(f, resp.Body); err != nil {
		return fmt.Errorf("writing map file: %w", err)
	}

	c.logger.InfoContext(ctx, "saved static map",
		slog.Uint64("cafe_id", uint64(cafeID)),
		slog.String("path", path),
	)
	return nil
}
