// Package resolver maps lookup keys to book drafts using an external metadata provider.
//
// Resolve never fails: transport errors, timeouts, malformed responses, and
// empty result sets all come back as a Result without a draft, with the
// reason logged.
package resolver

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/patrickmn/go-cache"

	"github.com/listenupapp/shelf/internal/domain"
	"github.com/listenupapp/shelf/internal/metadata"
)

const (
	// DefaultTimeout bounds a single provider lookup.
	DefaultTimeout = 10 * time.Second
	// DefaultCacheTTL is how long a match is remembered.
	DefaultCacheTTL = 30 * time.Minute
)

// No-match reasons.
const (
	ReasonNoResults = "no_results"
	ReasonTimeout   = "timeout"
	ReasonProvider  = "provider_error"
	ReasonNoTitle   = "untitled_result"
	ReasonCancelled = "cancelled"
)

// Provider is a metadata source able to look books up by ISBN and by title.
type Provider interface {
	Name() string
	ByISBN(ctx context.Context, isbn string) ([]metadata.Candidate, error)
	ByTitle(ctx context.Context, title string) ([]metadata.Candidate, error)
}

// Result is the outcome of a lookup: a draft, or no match with a reason.
type Result struct {
	Draft    *domain.BookDraft
	Reason   string
	Provider string
	Cached   bool
}

// Matched reports whether the lookup produced a draft.
func (r Result) Matched() bool {
	return r.Draft != nil
}

// Options configures a Resolver.
type Options struct {
	// ISBN handles ISBN-shaped keys, Title handles everything else.
	ISBN     Provider
	Title    Provider
	Timeout  time.Duration
	CacheTTL time.Duration
}

// Resolver routes keys to providers by shape and caches matches.
type Resolver struct {
	isbn    Provider
	title   Provider
	cache   *cache.Cache
	logger  *slog.Logger
	timeout time.Duration
}

// New creates a resolver. ISBN and Title providers are required.
func New(opts Options, logger *slog.Logger) *Resolver {
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.CacheTTL <= 0 {
		opts.CacheTTL = DefaultCacheTTL
	}
	return &Resolver{
		isbn:    opts.ISBN,
		title:   opts.Title,
		cache:   cache.New(opts.CacheTTL, 2*opts.CacheTTL),
		logger:  logger,
		timeout: opts.Timeout,
	}
}

// Resolve issues a single query for key and maps the first candidate into a draft.
func (r *Resolver) Resolve(ctx context.Context, key domain.LookupKey) Result {
	provider := r.title
	if key.IsISBN() {
		provider = r.isbn
	}

	log := r.logger.With("key", key.String(), "provider", provider.Name())

	if cached, ok := r.cache.Get(key.String()); ok {
		draft := cached.(domain.BookDraft).Clone()
		log.Debug("resolution cache hit")
		return Result{Draft: &draft, Provider: provider.Name(), Cached: true}
	}

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	start := time.Now()
	var (
		cands []metadata.Candidate
		err   error
	)
	if key.IsISBN() {
		cands, err = provider.ByISBN(ctx, key.Value)
	} else {
		cands, err = provider.ByTitle(ctx, key.Value)
	}

	if err != nil {
		reason := ReasonProvider
		switch {
		case errors.Is(err, context.DeadlineExceeded):
			reason = ReasonTimeout
		case errors.Is(err, context.Canceled):
			reason = ReasonCancelled
		}
		log.Warn("resolution failed", "reason", reason, "error", err, "elapsed", time.Since(start))
		return Result{Reason: reason, Provider: provider.Name()}
	}

	if len(cands) == 0 {
		log.Info("no match", "reason", ReasonNoResults)
		return Result{Reason: ReasonNoResults, Provider: provider.Name()}
	}

	draft, ok := toDraft(cands[0], key)
	if !ok {
		log.Info("no match", "reason", ReasonNoTitle)
		return Result{Reason: ReasonNoTitle, Provider: provider.Name()}
	}

	r.cache.SetDefault(key.String(), draft.Clone())
	log.Debug("resolved", "title", draft.Title, "elapsed", time.Since(start))
	return Result{Draft: &draft, Provider: provider.Name()}
}

// Forget drops a cached match.
func (r *Resolver) Forget(key domain.LookupKey) {
	r.cache.Delete(key.String())
}
