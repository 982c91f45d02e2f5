// Package service coordinates the capture pipeline: recognized tokens are
// reduced to lookup keys, resolved into book drafts, persisted into the
// selected collection, and mirrored in memory for readers.
package service

import (
	"context"
	"time"

	"github.com/listenupapp/shelf/internal/domain"
	domainerrors "github.com/listenupapp/shelf/internal/errors"
	"github.com/listenupapp/shelf/internal/resolver"
)

// DefaultStoreTimeout bounds a single catalog store call.
const DefaultStoreTimeout = 15 * time.Second

// CatalogStore is the persistence the coordinator needs.
type CatalogStore interface {
	CreateCollection(ctx context.Context, userID, name string) (*domain.Collection, error)
	RenameCollection(ctx context.Context, userID, collectionID, name string) (*domain.Collection, error)
	DeleteCollection(ctx context.Context, userID, collectionID string, cascadeBooks bool) error
	AddBook(ctx context.Context, userID, collectionID string, draft domain.BookDraft) (*domain.Book, error)
	UpdateBook(ctx context.Context, userID, collectionID, bookID string, draft domain.BookDraft) (*domain.Book, error)
	DeleteBook(ctx context.Context, userID, collectionID, bookID string) error
	ListCollections(ctx context.Context, userID string) ([]*domain.Collection, error)
}

// Resolver maps a lookup key to a draft. It never fails; misses carry a reason.
type Resolver interface {
	Resolve(ctx context.Context, key domain.LookupKey) resolver.Result
}

// cacheForgetter is implemented by resolvers that cache matches.
type cacheForgetter interface {
	Forget(key domain.LookupKey)
}

// EventEmitter receives SSE events for UI surfaces.
type EventEmitter interface {
	Emit(event any)
}

type noopEmitter struct{}

func (noopEmitter) Emit(any) {}

var (
	// ErrNoSelection is returned when a write needs a target collection and none is selected.
	ErrNoSelection = domainerrors.Validation("no collection selected")
	// ErrSessionClosed is returned by operations on a closed session.
	ErrSessionClosed = domainerrors.Conflict("session closed")
)
