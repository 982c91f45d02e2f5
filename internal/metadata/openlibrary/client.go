// Package openlibrary is a client for the Open Library books and search APIs.
package openlibrary

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
const Name = "openlibrary"

const (
	defaultBaseURL  = "https://openlibrary.org"
	defaultCoverURL = "https://covers.openlibrary.org"

	// Open Library asks clients to stay around one request per second.
	defaultRPS   = 1.0
	defaultBurst = 2

	defaultTimeout = 15 * time.Second
	searchLimit    = 5
	searchFields   = "key,title,author_name,isbn,first_publish_year,publisher,cover_i"
)

// Client is a rate-limited Open Library client.
type Client struct {
	http     *http.Client
	limiter  *ratelimit.KeyedRateLimiter
	logger   *slog.Logger
	baseURL  string
	coverURL string
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

// New creates a new Open Library client.
func New(logger *slog.Logger, opts ...Option) *Client {
	c := &Client{
		http:     &http.Client{Timeout: defaultTimeout},
		limiter:  ratelimit.New(defaultRPS, defaultBurst),
		logger:   logger,
		baseURL:  defaultBaseURL,
		coverURL: defaultCoverURL,
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

// ByISBN looks a book up through /api/books?bibkeys=ISBN:<isbn>&jscmd=data.
// The response is a map keyed by bibkey; an unknown ISBN yields an empty map.
func (c *Client) ByISBN(ctx context.Context, isbn string) ([]metadata.Candidate, error) {
	q := url.Values{}
	q.Set("bibkeys", "ISBN:"+isbn)
	q.Set("jscmd", "data")
	q.Set("format", "json")

	var res map[string]bookDetails
	if err := c.get(ctx, "/api/books", q, &res); err != nil {
		return nil, metadata.WrapError(Name, "isbn", isbn, err)
	}

	details, ok := res["ISBN:"+isbn]
	if !ok {
		return nil, nil
	}
	cand := details.candidate()
	if cand.ISBN == "" {
		cand.ISBN = isbn
	}
	return []metadata.Candidate{cand}, nil
}

// ByTitle searches /search.json by title.
func (c *Client) ByTitle(ctx context.Context, title string) ([]metadata.Candidate, error) {
	q := url.Values{}
	q.Set("title", title)
	q.Set("fields", searchFields)
	q.Set("limit", fmt.Sprint(searchLimit))

	var res searchResponse
	if err := c.get(ctx, "/search.json", q, &res); err != nil {
		return nil, metadata.WrapError(Name, "title", title, err)
	}

	cands := make([]metadata.Candidate, 0, len(res.Docs))
	for i := range res.Docs {
		cands = append(cands, res.Docs[i].candidate(c.coverURL))
	}
	return cands, nil
}

func (c *Client) get(ctx context.Context, path string, q url.Values, target any) error {
	if err := c.limiter.Wait(ctx, Name); err != nil {
		return fmt.Errorf("rate limit wait: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path+"?"+q.Encode(), nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "Shelf/1.0")

	c.logger.Debug("open library request", "path", path)

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	if err := metadata.StatusError(resp.StatusCode); err != nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return err
	}

	if err := json.NewDecoder(resp.Body).Decode(target); err != nil {
		return fmt.Errorf("%w: %v", metadata.ErrMalformed, err)
	}
	return nil
}
