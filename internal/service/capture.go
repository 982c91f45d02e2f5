package service

import (
	"context"
	"errors"

	"github.com/listenupapp/shelf/internal/capture"
	"github.com/listenupapp/shelf/internal/domain"
	"github.com/listenupapp/shelf/internal/store"
)

// errNotAccepted is returned by Wait on a submission that never entered the pipeline.
var errNotAccepted = errors.New("submission was not accepted")

// Submission is the immediate answer to SubmitRecognizedToken.
type Submission struct {
	flight *flight
	Key     domain.LookupKey `json:"key"`
	Status  SubmitStatus     `json:"status"`
}

// Accepted reports whether the token started a new lookup.
func (sub Submission) Accepted() bool {
	return sub.Status == SubmitAccepted
}

// Wait blocks until the submitted key settles or ctx is done.
// Once settled, every call returns the same terminal transition.
func (sub Submission) Wait(ctx context.Context) (Transition, error) {
	if sub.flight == nil {
		return Transition{}, errNotAccepted
	}
	select {
	case <-sub.flight.done:
		return sub.flight.final, nil
	case <-ctx.Done():
		return Transition{}, ctx.Err()
	}
}

// State reports where the submitted key is in the pipeline.
// Submissions that never entered the pipeline are idle.
func (sub Submission) State() State {
	if sub.flight == nil {
		return StateIdle
	}
	return sub.flight.currentState()
}

// SubmitRecognizedToken feeds one recognition event into the pipeline.
//
// Tokens that do not reduce to a lookup key, tokens whose key is already in
// flight, and tokens arriving while no collection is selected are answered
// immediately and start no work. An accepted token is resolved and persisted
// in the background into the collection selected at submission time.
func (s *Session) SubmitRecognizedToken(tok domain.Token) Submission {
	key, ok := capture.Extract(tok)
	if !ok {
		return Submission{Status: SubmitNoCandidate}
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return Submission{Key: key, Status: SubmitClosed}
	}
	target := s.selection
	if target == "" {
		s.mu.Unlock()
		s.logger.Debug("token dropped, no collection selected", "key", key.String())
		return Submission{Key: key, Status: SubmitNoSelection}
	}

	f := newFlight(target)
	if _, loaded := s.inflight.LoadOrStore(key, f); loaded {
		s.mu.Unlock()
		s.logger.Debug("token dropped, key already in flight", "key", key.String())
		return Submission{Key: key, Status: SubmitDuplicate}
	}
	// Added under mu so Close cannot start waiting before this lookup is counted.
	s.work.Add(1)
	s.mu.Unlock()

	s.publish(Transition{Key: key, State: StateResolving, CollectionID: target})

	go s.run(key, f, capture.SecondLine(tok))

	return Submission{Key: key, Status: SubmitAccepted, flight: f}
}

// KeyState reports where key is in the pipeline. Keys not in flight are idle.
func (s *Session) KeyState(key domain.LookupKey) State {
	if f, ok := s.inflight.Load(key); ok {
		return f.currentState()
	}
	return StateIdle
}

// InFlight returns the number of keys being resolved or persisted.
func (s *Session) InFlight() int {
	return s.inflight.Len()
}

// run drives one key from resolving to settled.
func (s *Session) run(key domain.LookupKey, f *flight, authorHint string) {
	defer s.work.Done()

	log := s.logger.With("key", key.String(), "collection_id", f.target)

	res := s.resolver.Resolve(context.Background(), key)
	if !res.Matched() {
		log.Info("capture skipped", "reason", res.Reason)
		s.settle(key, f, Transition{Outcome: OutcomeSkipped, Reason: res.Reason})
		return
	}

	draft := res.Draft.Clone()
	if draft.Author == "" && authorHint != "" {
		draft.Author = authorHint
	}

	if reason := s.targetChanged(f.target); reason != "" {
		log.Info("capture discarded before persisting", "reason", reason)
		s.settle(key, f, Transition{Outcome: OutcomeSkipped, Reason: reason})
		return
	}

	f.setState(StatePersisting)
	s.publish(Transition{Key: key, State: StatePersisting, CollectionID: f.target})

	book, err := s.persist(f.target, draft)
	if err != nil {
		log.Warn("capture failed", "error", err)
		s.settle(key, f, Transition{Outcome: OutcomeFailed, Err: err})
		return
	}

	log.Info("capture stored", "book_id", book.ID, "title", book.Title)
	s.settle(key, f, Transition{Outcome: OutcomeSuccess, Book: book})
}

// targetChanged returns a skip reason when the session closed or the selection
// moved away from target while the key was resolving.
func (s *Session) targetChanged(target string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch {
	case s.closed:
		return ReasonSessionClosed
	case s.selection != target:
		return ReasonSelectionChanged
	default:
		return ""
	}
}

// persist writes draft into collectionID and mirrors the stored book.
// The mirror is untouched when the store call fails.
func (s *Session) persist(collectionID string, draft domain.BookDraft) (*domain.Book, error) {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	s.syncMu.RLock()
	defer s.syncMu.RUnlock()

	book, err := s.store.AddBook(ctx, s.userID, collectionID, draft)
	if err != nil {
		return nil, err
	}

	if !s.mirror.AppendBook(book) {
		s.logger.Debug("stored book not mirrored, collection absent from snapshot",
			"collection_id", collectionID, "book_id", book.ID)
	}
	return book, nil
}

// settle releases the key and publishes its terminal transition.
// The key is released first so a waiter can resubmit it immediately.
func (s *Session) settle(key domain.LookupKey, f *flight, t Transition) {
	t.Key = key
	t.State = StateSettled
	t.CollectionID = f.target
	if t.Err != nil {
		t.Error = t.Err.Error()
	}

	s.inflight.Delete(key)
	f.finish(t)
	s.publish(t)
}

// AddBookManually writes a fully known draft into the selected collection.
// It skips resolution and goes straight to persisting.
func (s *Session) AddBookManually(ctx context.Context, draft domain.BookDraft) (*domain.Book, error) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil, ErrSessionClosed
	}
	target := s.selection
	s.mu.Unlock()

	if target == "" {
		return nil, ErrNoSelection
	}
	return s.addBook(ctx, target, draft)
}

// AddBookToCollection writes a fully known draft into collectionID regardless of the selection.
func (s *Session) AddBookToCollection(ctx context.Context, collectionID string, draft domain.BookDraft) (*domain.Book, error) {
	if s.isClosed() {
		return nil, ErrSessionClosed
	}
	if !s.mirror.Has(collectionID) {
		return nil, store.CollectionNotFound(collectionID)
	}
	return s.addBook(ctx, collectionID, draft)
}

func (s *Session) addBook(ctx context.Context, target string, draft domain.BookDraft) (*domain.Book, error) {
	key := manualKey(draft)
	s.publish(Transition{Key: key, State: StatePersisting, CollectionID: target})

	storeCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	s.syncMu.RLock()
	book, err := s.store.AddBook(storeCtx, s.userID, target, draft)
	if err != nil {
		s.syncMu.RUnlock()
		s.publish(Transition{Key: key, State: StateSettled, Outcome: OutcomeFailed, Err: err, CollectionID: target})
		return nil, err
	}
	s.mirror.AppendBook(book)
	s.syncMu.RUnlock()
	s.publish(Transition{Key: key, State: StateSettled, Outcome: OutcomeSuccess, Book: book, CollectionID: target})
	return book.Clone(), nil
}

// manualKey labels a manual add the way a capture of the same book would be keyed.
func manualKey(draft domain.BookDraft) domain.LookupKey {
	if draft.ISBN != nil {
		if isbn, ok := capture.NormalizeISBN(*draft.ISBN); ok {
			return domain.LookupKey{Value: isbn, Kind: domain.KeyISBN}
		}
	}
	return domain.LookupKey{Value: capture.FoldTitle(draft.Title), Kind: domain.KeyTitle}
}
