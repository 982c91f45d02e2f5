// Package googlebooks is a client for the Google Books volumes API.
package googlebooks

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/listenupapp/shelf/internal/metadata"
	"github.com/listenupapp/shelf/internal/ratelimit"
)

// Name identifies this provider in logs and config.
const Name = "googlebooks"

const (
	defaultBaseURL = "https://www.googleapis.com/books/v1"

	// Anonymous quota is generous but shared per IP; stay well under it.
	defaultRPS   = 2.0
	defaultBurst = 4

	defaultTimeout = 30 * time.Second
	maxResults     = 5
)

// Client is a rate-limited Google Books client.
type Client struct {
	http    *http.Client
	limiter *ratelimit.KeyedRateLimiter
	logger  *slog.Logger
	baseURL string
	apiKey  string
}

// Option configures a Client.
type Option func(*Client)

// WithAPIKey sets the API key sent with every request.
func WithAPIKey(key string) Option {
	return func(c *Client) { c.apiKey = key }
}

// WithBaseURL points the client at a different API root.
func WithBaseURL(u string) Option {
	return func(c *Client) { c.baseURL = strings.TrimRight(u, "/") }
}

// WithHTTPClient replaces the HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// New creates a new Google Books client.
func New(logger *slog.Logger, opts ...Option) *Client {
	c := &Client{
		http:    &http.Client{Timeout: defaultTimeout},
		limiter: ratelimit.New(defaultRPS, defaultBurst),
		logger:  logger,
		baseURL: defaultBaseURL,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Name returns the provider name.
func (c *Client) Name() string { return Name }

// Close releases resources held by the client.
func (c *Client) Close() {
	c.limiter.Stop()
}

// ByISBN looks a book up by ISBN (q=isbn:<isbn>).
func (c *Client) ByISBN(ctx context.Context, isbn string) ([]metadata.Candidate, error) {
	cands, err := c.volumes(ctx, "isbn:"+isbn)
	if err != nil {
		return nil, metadata.WrapError(Name, "isbn", isbn, err)
	}
	return cands, nil
}

// ByTitle searches by title (q=intitle:<title>).
func (c *Client) ByTitle(ctx context.Context, title string) ([]metadata.Candidate, error) {
	cands, err := c.volumes(ctx, "intitle:"+title)
	if err != nil {
		return nil, metadata.WrapError(Name, "title", title, err)
	}
	return cands, nil
}

func (c *Client) volumes(ctx context.Context, q string) ([]metadata.Candidate, error) {
	if err := c.limiter.Wait(ctx, Name); err != nil {
		return nil, fmt.Errorf("rate limit wait: %w", err)
	}

	query := url.Values{}
	query.Set("q", q)
	query.Set("maxResults", fmt.Sprint(maxResults))
	query.Set("printType", "books")
	if c.apiKey != "" {
		query.Set("key", c.apiKey)
	}

	reqURL := c.baseURL + "/volumes?" + query.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "Shelf/1.0")

	c.logger.Debug("google books request", "q", q)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	if err := metadata.StatusError(resp.StatusCode); err != nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, err
	}

	var vr volumesResponse
	if err := json.NewDecoder(resp.Body).Decode(&vr); err != nil {
		return nil, fmt.Errorf("%w: %v", metadata.ErrMalformed, err)
	}

	cands := make([]metadata.Candidate, 0, len(vr.Items))
	for i := range vr.Items {
		cands = append(cands, vr.Items[i].VolumeInfo.candidate())
	}

	c.logger.Debug("google books results", "q", q, "total", vr.TotalItems, "returned", len(cands))
	return cands, nil
}
