package resolver

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/listenupapp/shelf/internal/domain"
	"github.com/listenupapp/shelf/internal/logger"
	"github.com/listenupapp/shelf/internal/metadata"
)

type fakeProvider struct {
	name       string
	candidates []metadata.Candidate
	err        error
	delay      time.Duration
	isbnCalls  atomic.Int32
	titleCalls atomic.Int32
}

func (p *fakeProvider) Name() string { return p.name }

func (p *fakeProvider) ByISBN(ctx context.Context, _ string) ([]metadata.Candidate, error) {
	p.isbnCalls.Add(1)
	return p.respond(ctx)
}

func (p *fakeProvider) ByTitle(ctx context.Context, _ string) ([]metadata.Candidate, error) {
	p.titleCalls.Add(1)
	return p.respond(ctx)
}

func (p *fakeProvider) respond(ctx context.Context) ([]metadata.Candidate, error) {
	if p.delay > 0 {
		select {
		case <-time.After(p.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return p.candidates, p.err
}

var (
	isbnKey  = domain.LookupKey{Value: "9780441172719", Kind: domain.KeyISBN}
	titleKey = domain.LookupKey{Value: "dune", Kind: domain.KeyTitle}
)

func newTestResolver(isbn, title Provider, timeout time.Duration) *Resolver {
	return New(Options{ISBN: isbn, Title: title, Timeout: timeout}, logger.Discard().Logger)
}

func TestResolve_RoutesByKeyShape(t *testing.T) {
	isbn := &fakeProvider{name: "isbn", candidates: []metadata.Candidate{{Title: "Dune"}}}
	title := &fakeProvider{name: "title", candidates: []metadata.Candidate{{Title: "Dune"}}}
	r := newTestResolver(isbn, title, time.Second)

	res := r.Resolve(context.Background(), isbnKey)
	assert.Equal(t, "isbn", res.Provider)
	assert.EqualValues(t, 1, isbn.isbnCalls.Load())
	assert.EqualValues(t, 0, title.titleCalls.Load())

	res = r.Resolve(context.Background(), titleKey)
	assert.Equal(t, "title", res.Provider)
	assert.EqualValues(t, 1, title.titleCalls.Load())
	assert.EqualValues(t, 0, isbn.titleCalls.Load())
}

func TestResolve_FirstCandidateWins(t *testing.T) {
	p := &fakeProvider{name: "p", candidates: []metadata.Candidate{
		{
			Title:         "Dune",
			Authors:       []string{"Frank Herbert", "Someone Else"},
			Publisher:     "Ace",
			PublishedDate: "1990-09-01",
			Description:   "<p>Set on <b>Arrakis</b>.</p>",
			ThumbnailURL:  "https://example.com/dune.jpg",
			ISBN:          "978-0-441-17271-9",
		},
		{Title: "Dune Messiah"},
	}}
	r := newTestResolver(p, p, time.Second)

	res := r.Resolve(context.Background(), isbnKey)
	require.True(t, res.Matched())

	d := res.Draft
	assert.Equal(t, "Dune", d.Title)
	assert.Equal(t, "Frank Herbert", d.Author)
	assert.Equal(t, "Ace", *d.Publisher)
	assert.Equal(t, "1990", *d.Year)
	assert.Equal(t, "9780441172719", *d.ISBN)
	assert.Equal(t, "https://example.com/dune.jpg", *d.ThumbnailURL)
	assert.Equal(t, "Set on **Arrakis**.", *d.Description)
}

func TestResolve_AbsentFieldsStayNil(t *testing.T) {
	p := &fakeProvider{name: "p", candidates: []metadata.Candidate{{Title: "Anonymous Pamphlet"}}}
	r := newTestResolver(p, p, time.Second)

	res := r.Resolve(context.Background(), titleKey)
	require.True(t, res.Matched())

	d := res.Draft
	assert.Empty(t, d.Author, "no placeholder author")
	assert.Nil(t, d.ISBN)
	assert.Nil(t, d.Publisher)
	assert.Nil(t, d.Year)
	assert.Nil(t, d.Description)
	assert.Nil(t, d.ThumbnailURL)
}

func TestResolve_ISBNKeyFillsMissingISBN(t *testing.T) {
	p := &fakeProvider{name: "p", candidates: []metadata.Candidate{{Title: "Dune"}}}
	r := newTestResolver(p, p, time.Second)

	res := r.Resolve(context.Background(), isbnKey)
	require.True(t, res.Matched())
	assert.Equal(t, isbnKey.Value, *res.Draft.ISBN)
}

func TestResolve_NoMatchOutcomes(t *testing.T) {
	tests := []struct {
		name       string
		provider   *fakeProvider
		timeout    time.Duration
		wantReason string
	}{
		{name: "zero results", provider: &fakeProvider{name: "p"}, wantReason: ReasonNoResults},
		{name: "transport failure", provider: &fakeProvider{name: "p", err: metadata.ErrServer}, wantReason: ReasonProvider},
		{name: "malformed", provider: &fakeProvider{name: "p", err: metadata.ErrMalformed}, wantReason: ReasonProvider},
		{name: "untitled result", provider: &fakeProvider{name: "p", candidates: []metadata.Candidate{{Title: "  "}}}, wantReason: ReasonNoTitle},
		{name: "timeout", provider: &fakeProvider{name: "p", delay: time.Second}, timeout: 20 * time.Millisecond, wantReason: ReasonTimeout},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			timeout := tt.timeout
			if timeout == 0 {
				timeout = time.Second
			}
			r := newTestResolver(tt.provider, tt.provider, timeout)

			res := r.Resolve(context.Background(), titleKey)
			assert.False(t, res.Matched())
			assert.Equal(t, tt.wantReason, res.Reason)
		})
	}
}

func TestResolve_NoRetries(t *testing.T) {
	p := &fakeProvider{name: "p", err: errors.New("connection reset")}
	r := newTestResolver(p, p, time.Second)

	r.Resolve(context.Background(), titleKey)
	assert.EqualValues(t, 1, p.titleCalls.Load())
}

func TestResolve_CachesMatchesOnly(t *testing.T) {
	p := &fakeProvider{name: "p", candidates: []metadata.Candidate{{Title: "Dune", Publisher: "Ace"}}}
	r := newTestResolver(p, p, time.Second)

	first := r.Resolve(context.Background(), titleKey)
	require.True(t, first.Matched())
	*first.Draft.Publisher = "mutated by caller"

	second := r.Resolve(context.Background(), titleKey)
	require.True(t, second.Matched())
	assert.True(t, second.Cached)
	assert.Equal(t, "Ace", *second.Draft.Publisher, "cache hands out copies")
	assert.EqualValues(t, 1, p.titleCalls.Load())

	r.Forget(titleKey)
	r.Resolve(context.Background(), titleKey)
	assert.EqualValues(t, 2, p.titleCalls.Load())

	miss := &fakeProvider{name: "miss"}
	r = newTestResolver(miss, miss, time.Second)
	r.Resolve(context.Background(), isbnKey)
	r.Resolve(context.Background(), isbnKey)
	assert.EqualValues(t, 2, miss.isbnCalls.Load(), "no-match is not cached")
}

func TestParseYear(t *testing.T) {
	assert.Equal(t, "1965", *parseYear("1965"))
	assert.Equal(t, "1990", *parseYear("1990-09-01"))
	assert.Equal(t, "2005", *parseYear("2005-03"))
	assert.Nil(t, parseYear(""))
	assert.Nil(t, parseYear("circa 1900"))
	assert.Nil(t, parseYear("199"))
}

func TestHTMLToMarkdown(t *testing.T) {
	assert.Equal(t, "plain text", htmlToMarkdown("plain text"))
	assert.Equal(t, "**bold**", htmlToMarkdown("<b>bold</b>"))
	assert.Empty(t, htmlToMarkdown(""))
}
