// Package itunes is a client for the Apple iTunes lookup and search APIs, restricted to ebooks.
package itunes

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
const Name = "itunes"

const (
	defaultBaseURL = "https://itunes.apple.com"

	// Apple asks for roughly 20 requests per minute.
	defaultRPS   = 1.0 / 3
	defaultBurst = 5

	defaultTimeout = 30 * time.Second
	defaultLimit   = 5
)

// Client is a rate-limited iTunes client.
type Client struct {
	http    *http.Client
	limiter *ratelimit.KeyedRateLimiter
	logger  *slog.Logger
	baseURL string
	country string
}

// Option configures a Client.
type Option func(*Client)

// WithBaseURL points the client at a different API root.
func WithBaseURL(u string) Option {
	return func(c *Client) { c.baseURL = strings.TrimRight(u, "/") }
}

// WithHTTPClient replaces the HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithCountry sets the storefront country code (default us).
func WithCountry(code string) Option {
	return func(c *Client) { c.country = strings.ToLower(code) }
}

// New creates a new iTunes client.
func New(logger *slog.Logger, opts ...Option) *Client {
	c := &Client{
		http:    &http.Client{Timeout: defaultTimeout},
		limiter: ratelimit.New(defaultRPS, defaultBurst),
		logger:  logger,
		baseURL: defaultBaseURL,
		country: "us",
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

// ByISBN looks an ebook up by ISBN via /lookup.
func (c *Client) ByISBN(ctx context.Context, isbn string) ([]metadata.Candidate, error) {
	q := url.Values{}
	q.Set("isbn", isbn)
	cands, err := c.get(ctx, "/lookup", q, isbn)
	if err != nil {
		return nil, metadata.WrapError(Name, "isbn", isbn, err)
	}
	return cands, nil
}

// ByTitle searches ebooks by title via /search.
func (c *Client) ByTitle(ctx context.Context, title string) ([]metadata.Candidate, error) {
	q := url.Values{}
	q.Set("term", title)
	q.Set("media", "ebook")
	q.Set("entity", "ebook")
	q.Set("attribute", "titleTerm")
	q.Set("limit", fmt.Sprint(defaultLimit))
	cands, err := c.get(ctx, "/search", q, "")
	if err != nil {
		return nil, metadata.WrapError(Name, "title", title, err)
	}
	return cands, nil
}

func (c *Client) get(ctx context.Context, path string, q url.Values, isbn string) ([]metadata.Candidate, error) {
	if err := c.limiter.Wait(ctx, Name); err != nil {
		return nil, fmt.Errorf("rate limit wait: %w", err)
	}

	q.Set("country", c.country)
	reqURL := c.baseURL + path + "?" + q.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "Shelf/1.0")

	c.logger.Debug("itunes request", "path", path, "query", q.Encode())

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	if err := metadata.StatusError(resp.StatusCode); err != nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, err
	}

	var sr searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&sr); err != nil {
		return nil, fmt.Errorf("%w: %v", metadata.ErrMalformed, err)
	}

	cands := make([]metadata.Candidate, 0, len(sr.Results))
	for i := range sr.Results {
		r := &sr.Results[i]
		if !r.isBook() {
			continue
		}
		cands = append(cands, r.candidate(isbn))
	}

	c.logger.Debug("itunes results", "path", path, "total", sr.ResultCount, "returned", len(cands))
	return cands, nil
}
