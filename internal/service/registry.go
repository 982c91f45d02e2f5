package service

import (
	"context"
	"log/slog"
	"sync"

	"github.com/listenupapp/shelf/internal/capture/inbox"
	"github.com/listenupapp/shelf/internal/domain"
)

// Sessions keeps one Session per user and creates them on first use.
type Sessions struct {
	cfg    SessionConfig
	logger *slog.Logger

	mu       sync.Mutex
	sessions map[string]*Session
	closed   bool
}

var _ inbox.Sink = (*Sessions)(nil)

// NewSessions creates an empty registry. Every session shares cfg's collaborators.
func NewSessions(cfg SessionConfig) *Sessions {
	cfg.setDefaults()
	return &Sessions{
		cfg:      cfg,
		logger:   cfg.Logger,
		sessions: make(map[string]*Session),
	}
}

// Get returns userID's session, loading its mirror from the store when it is not loaded yet.
// A failed load still returns the session together with the error; the next Get retries.
func (r *Sessions) Get(ctx context.Context, userID string) (*Session, error) {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return nil, ErrSessionClosed
	}
	s, ok := r.sessions[userID]
	if !ok {
		s = NewSession(userID, r.cfg)
		r.sessions[userID] = s
		r.logger.Info("session opened", "user_id", userID)
	}
	r.mu.Unlock()

	if !s.Loaded() {
		if err := s.Refresh(ctx); err != nil {
			return s, err
		}
	}
	return s, nil
}

// Len returns the number of open sessions.
func (r *Sessions) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

// Deliver submits a token from a non-interactive source such as the inbox directory.
// Outcomes other than a closed session are logged, not returned.
func (r *Sessions) Deliver(ctx context.Context, userID string, tok domain.Token) error {
	s, err := r.Get(ctx, userID)
	if s == nil {
		return err
	}
	if err != nil {
		r.logger.Warn("delivering token with a stale catalog", "user_id", userID, "error", err)
	}

	sub := s.SubmitRecognizedToken(tok)
	switch sub.Status {
	case SubmitClosed:
		return ErrSessionClosed
	case SubmitAccepted:
		r.logger.Debug("token accepted", "user_id", userID, "key", sub.Key.String())
	default:
		r.logger.Info("token not accepted",
			"user_id", userID,
			"status", string(sub.Status),
			"key", sub.Key.String())
	}
	return nil
}

// Shutdown closes every session, waiting for their in-flight keys to settle.
func (r *Sessions) Shutdown() error {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return nil
	}
	r.closed = true
	sessions := make([]*Session, 0, len(r.sessions))
	for _, s := range r.sessions {
		sessions = append(sessions, s)
	}
	r.sessions = map[string]*Session{}
	r.mu.Unlock()

	var wg sync.WaitGroup
	for _, s := range sessions {
		wg.Go(s.Close)
	}
	wg.Wait()

	r.logger.Info("sessions closed", "count", len(sessions))
	return nil
}
