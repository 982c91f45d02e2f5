package service

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/listenupapp/shelf/internal/domain"
	"github.com/listenupapp/shelf/internal/mirror"
	"github.com/listenupapp/shelf/internal/sse"
	"github.com/listenupapp/shelf/internal/store"
)

const subscriberBuffer = 64

// SessionConfig holds a session's collaborators.
type SessionConfig struct {
	Store        CatalogStore
	Resolver     Resolver
	Emitter      EventEmitter
	Logger       *slog.Logger
	StoreTimeout time.Duration
}

func (c *SessionConfig) setDefaults() {
	if c.Emitter == nil {
		c.Emitter = noopEmitter{}
	}
	if c.Logger == nil {
		c.Logger = slog.New(slog.DiscardHandler)
	}
	if c.StoreTimeout <= 0 {
		c.StoreTimeout = DefaultStoreTimeout
	}
}

// Session is one user's view of the catalog and the entry point for UI operations.
//
// The mirror is only mutated after the store call it reflects has succeeded.
// Background lookups never touch the mirror directly: they hand the persisted
// book to the session, which applies it under the mirror's lock.
//
// syncMu orders writes against Refresh. A write holds it shared from its store
// call until the mirror reflects it; Refresh holds it exclusively from listing
// to replacing the mirror, so a stale listing never overwrites a newer write.
type Session struct {
	userID   string
	store    CatalogStore
	resolver Resolver
	emitter  EventEmitter
	logger   *slog.Logger
	timeout  time.Duration

	mirror   *mirror.Mirror
	syncMu   sync.RWMutex
	inflight *inflightKeys
	work     sync.WaitGroup

	mu        sync.Mutex
	selection string
	closed    bool
	subs      map[int]chan Transition
	nextSub   int
}

// NewSession creates a session for userID. Call Refresh to load the mirror.
func NewSession(userID string, cfg SessionConfig) *Session {
	cfg.setDefaults()
	return &Session{
		userID:   userID,
		store:    cfg.Store,
		resolver: cfg.Resolver,
		emitter:  cfg.Emitter,
		logger:   cfg.Logger.With("user_id", userID),
		timeout:  cfg.StoreTimeout,
		mirror:   mirror.New(),
		inflight: NewSyncMap[domain.LookupKey, *flight](),
		subs:     make(map[int]chan Transition),
	}
}

// UserID returns the session's user.
func (s *Session) UserID() string {
	return s.userID
}

// CurrentCollections returns a snapshot of the mirror, newest collection first.
func (s *Session) CurrentCollections() []*domain.Collection {
	return s.mirror.Snapshot()
}

// Loaded reports whether the mirror has been filled from the store at least once.
func (s *Session) Loaded() bool {
	return s.mirror.Loaded()
}

// Selection returns the id of the collection captures are written to, or "".
func (s *Session) Selection() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.selection
}

// SelectCollection sets the write target for the pipeline. An empty id clears it.
func (s *Session) SelectCollection(collectionID string) error {
	if collectionID != "" && !s.mirror.Has(collectionID) {
		return store.CollectionNotFound(collectionID)
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrSessionClosed
	}
	changed := s.selection != collectionID
	s.selection = collectionID
	s.mu.Unlock()

	if changed {
		s.logger.Debug("selection changed", "collection_id", collectionID)
		s.emitter.Emit(sse.NewSelectionChangedEvent(s.userID, collectionID))
	}
	return nil
}

// clearSelectionIf clears the selection when it points at collectionID.
func (s *Session) clearSelectionIf(collectionID string) {
	s.mu.Lock()
	cleared := s.selection == collectionID
	if cleared {
		s.selection = ""
	}
	s.mu.Unlock()

	if cleared {
		s.emitter.Emit(sse.NewSelectionChangedEvent(s.userID, ""))
	}
}

// Refresh reloads the mirror from the store.
// On failure the previous snapshot is kept and the error is returned.
func (s *Session) Refresh(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	s.syncMu.Lock()
	collections, err := s.store.ListCollections(ctx, s.userID)
	if err != nil {
		s.syncMu.Unlock()
		s.logger.Warn("refresh failed, keeping last snapshot", "error", err)
		return fmt.Errorf("refresh: %w", err)
	}
	s.mirror.Replace(collections)
	s.syncMu.Unlock()

	if sel := s.Selection(); sel != "" && !s.mirror.Has(sel) {
		s.clearSelectionIf(sel)
	}

	s.logger.Debug("mirror refreshed", "collections", len(collections))
	return nil
}

// CreateCollection persists a new collection and mirrors it.
func (s *Session) CreateCollection(ctx context.Context, name string) (*domain.Collection, error) {
	if s.isClosed() {
		return nil, ErrSessionClosed
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	s.syncMu.RLock()
	defer s.syncMu.RUnlock()

	c, err := s.store.CreateCollection(ctx, s.userID, name)
	if err != nil {
		return nil, err
	}

	s.mirror.PutCollection(c)
	s.logger.Info("collection created", "collection_id", c.ID, "name", c.Name)
	return c.Clone(), nil
}

// RenameCollection changes a collection's name. Its books are untouched.
func (s *Session) RenameCollection(ctx context.Context, collectionID, name string) (*domain.Collection, error) {
	if s.isClosed() {
		return nil, ErrSessionClosed
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	s.syncMu.RLock()
	defer s.syncMu.RUnlock()

	c, err := s.store.RenameCollection(ctx, s.userID, collectionID, name)
	if err != nil {
		return nil, err
	}

	s.mirror.RenameCollection(c)
	s.logger.Info("collection renamed", "collection_id", c.ID, "name", c.Name)
	return c.Clone(), nil
}

// DeleteCollection removes a collection, and its books when cascade is set.
// A failed cascade leaves some books deleted; the mirror is then re-synced
// from the store instead of guessing what survived.
func (s *Session) DeleteCollection(ctx context.Context, collectionID string, cascade bool) error {
	if s.isClosed() {
		return ErrSessionClosed
	}

	if err := s.deleteCollection(ctx, collectionID, cascade); err != nil {
		if cascade {
			if rerr := s.Refresh(ctx); rerr != nil {
				s.logger.Warn("re-sync after failed cascade delete failed", "error", rerr)
			}
		}
		return err
	}

	s.clearSelectionIf(collectionID)
	s.logger.Info("collection deleted", "collection_id", collectionID, "cascade", cascade)
	return nil
}

func (s *Session) deleteCollection(ctx context.Context, collectionID string, cascade bool) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	s.syncMu.RLock()
	defer s.syncMu.RUnlock()

	if err := s.store.DeleteCollection(ctx, s.userID, collectionID, cascade); err != nil {
		return err
	}
	s.mirror.RemoveCollection(collectionID)
	return nil
}

// DeleteBook removes a single book. Deleting an absent book succeeds.
func (s *Session) DeleteBook(ctx context.Context, collectionID, bookID string) error {
	if s.isClosed() {
		return ErrSessionClosed
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	s.syncMu.RLock()
	defer s.syncMu.RUnlock()

	if err := s.store.DeleteBook(ctx, s.userID, collectionID, bookID); err != nil {
		return err
	}

	s.mirror.RemoveBook(collectionID, bookID)
	return nil
}

// UpdateBook amends a stored book's metadata and mirrors the amended copy.
// Cached matches for the book's old and new keys are dropped so the next
// capture of the same book resolves afresh.
func (s *Session) UpdateBook(ctx context.Context, collectionID, bookID string, draft domain.BookDraft) (*domain.Book, error) {
	if s.isClosed() {
		return nil, ErrSessionClosed
	}

	old, _ := s.mirror.Book(collectionID, bookID)

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	s.syncMu.RLock()
	b, err := s.store.UpdateBook(ctx, s.userID, collectionID, bookID, draft)
	if err != nil {
		s.syncMu.RUnlock()
		return nil, err
	}
	s.mirror.ReplaceBook(b)
	s.syncMu.RUnlock()

	if f, ok := s.resolver.(cacheForgetter); ok {
		f.Forget(manualKey(b.BookDraft))
		if old != nil {
			f.Forget(manualKey(old.BookDraft))
		}
	}

	s.logger.Info("book updated", "collection_id", collectionID, "book_id", bookID)
	return b.Clone(), nil
}

// Subscribe returns a channel of pipeline transitions and a function that ends the subscription.
// Slow subscribers miss transitions rather than stalling the pipeline.
func (s *Session) Subscribe() (<-chan Transition, func()) {
	ch := make(chan Transition, subscriberBuffer)

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		close(ch)
		return ch, func() {}
	}

	id := s.nextSub
	s.nextSub++
	s.subs[id] = ch

	return ch, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if c, ok := s.subs[id]; ok {
			delete(s.subs, id)
			close(c)
		}
	}
}

// Close stops accepting work, waits for in-flight keys to settle, and ends all subscriptions.
// Keys still in flight settle as skipped without writing.
func (s *Session) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	s.mu.Unlock()

	s.work.Wait()

	s.mu.Lock()
	for id, ch := range s.subs {
		delete(s.subs, id)
		close(ch)
	}
	s.mu.Unlock()

	s.logger.Debug("session closed")
}

func (s *Session) isClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

// publish fans a transition out to subscribers and the SSE emitter.
func (s *Session) publish(t Transition) {
	if t.Err != nil && t.Error == "" {
		t.Error = t.Err.Error()
	}

	s.mu.Lock()
	for _, ch := range s.subs {
		select {
		case ch <- t:
		default:
			s.logger.Warn("dropped transition for slow subscriber", "key", t.Key.String())
		}
	}
	s.mu.Unlock()

	s.emitter.Emit(t.event(s.userID))
}
