// Package store persists the user → collection → book hierarchy.
//
// The Badger-backed Store in this package is the default backend; the sqlite
// subpackage implements the same Catalog contract on SQLite.
package store

import (
	"context"

	"github.com/listenupapp/shelf/internal/domain"
)

// Catalog is the hierarchical catalog persistence contract shared by every backend.
type Catalog interface {
	CreateCollection(ctx context.Context, userID, name string) (*domain.Collection, error)
	GetCollection(ctx context.Context, userID, collectionID string) (*domain.Collection, error)
	RenameCollection(ctx context.Context, userID, collectionID, name string) (*domain.Collection, error)
	DeleteCollection(ctx context.Context, userID, collectionID string, cascadeBooks bool) error
	ListCollections(ctx context.Context, userID string) ([]*domain.Collection, error)

	AddBook(ctx context.Context, userID, collectionID string, draft domain.BookDraft) (*domain.Book, error)
	UpdateBook(ctx context.Context, userID, collectionID, bookID string, draft domain.BookDraft) (*domain.Book, error)
	DeleteBook(ctx context.Context, userID, collectionID, bookID string) error

	SetSearchIndexer(indexer SearchIndexer)
	Close() error
}

// EventEmitter is the interface for emitting SSE events.
// Store uses this to broadcast changes without depending on SSE implementation details.
type EventEmitter interface {
	Emit(event any)
}

// NoopEmitter is a no-op implementation of EventEmitter for testing.
type NoopEmitter struct{}

// Emit implements EventEmitter.Emit as a no-op.
func (NoopEmitter) Emit(_ any) {}

// NewNoopEmitter creates a new no-op emitter for testing.
func NewNoopEmitter() EventEmitter {
	return NoopEmitter{}
}

// SearchIndexer is the interface for updating the search index.
// Store uses this to keep search in sync without depending on search implementation.
type SearchIndexer interface {
	IndexBook(ctx context.Context, userID string, book *domain.Book) error
	DeleteBook(ctx context.Context, userID, bookID string) error
}

// NoopSearchIndexer is a no-op implementation for testing.
type NoopSearchIndexer struct{}

// IndexBook is a no-op.
func (NoopSearchIndexer) IndexBook(context.Context, string, *domain.Book) error { return nil }

// DeleteBook is a no-op.
func (NoopSearchIndexer) DeleteBook(context.Context, string, string) error { return nil }

// NewNoopSearchIndexer creates a new no-op search indexer for testing.
func NewNoopSearchIndexer() SearchIndexer {
	return NoopSearchIndexer{}
}
