package store

import (
	"context"
	"log/slog"
	"sync"

	"github.com/listenupapp/shelf/internal/domain"
	"github.com/listenupapp/shelf/internal/sse"
)

// Notifier fans committed catalog changes out to the event emitter and the search index.
// Backends call it only after a write has been committed.
type Notifier struct {
	emitter EventEmitter
	logger  *slog.Logger

	mu      sync.RWMutex
	indexer SearchIndexer
}

// NewNotifier creates a notifier. A nil emitter or logger is replaced by a no-op.
func NewNotifier(emitter EventEmitter, logger *slog.Logger) *Notifier {
	if emitter == nil {
		emitter = NewNoopEmitter()
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Notifier{emitter: emitter, logger: logger, indexer: NewNoopSearchIndexer()}
}

// SetIndexer replaces the search indexer.
// Set after store creation because the search index is built from the store.
func (n *Notifier) SetIndexer(indexer SearchIndexer) {
	if indexer == nil {
		indexer = NewNoopSearchIndexer()
	}
	n.mu.Lock()
	n.indexer = indexer
	n.mu.Unlock()
}

func (n *Notifier) searchIndexer() SearchIndexer {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.indexer
}

// CollectionCreated publishes a new collection.
func (n *Notifier) CollectionCreated(userID string, c *domain.Collection) {
	n.emitter.Emit(sse.NewCollectionCreatedEvent(userID, c))
}

// CollectionRenamed publishes a renamed collection.
func (n *Notifier) CollectionRenamed(userID string, c *domain.Collection) {
	n.emitter.Emit(sse.NewCollectionRenamedEvent(userID, c))
}

// CollectionDeleted publishes a removed collection.
func (n *Notifier) CollectionDeleted(userID, collectionID string, cascade bool) {
	n.emitter.Emit(sse.NewCollectionDeletedEvent(userID, collectionID, cascade))
}

// BookAdded publishes and indexes a new book.
func (n *Notifier) BookAdded(ctx context.Context, userID string, b *domain.Book) {
	n.emitter.Emit(sse.NewBookAddedEvent(userID, b))
	n.index(ctx, userID, b)
}

// BookUpdated publishes and reindexes an amended book.
func (n *Notifier) BookUpdated(ctx context.Context, userID string, b *domain.Book) {
	n.emitter.Emit(sse.NewBookUpdatedEvent(userID, b))
	n.index(ctx, userID, b)
}

// BookDeleted publishes a removed book and drops it from the index.
func (n *Notifier) BookDeleted(ctx context.Context, userID, collectionID, bookID string) {
	n.emitter.Emit(sse.NewBookDeletedEvent(userID, collectionID, bookID))
	if err := n.searchIndexer().DeleteBook(ctx, userID, bookID); err != nil {
		n.logger.Warn("failed to remove book from search index", "book_id", bookID, "error", err)
	}
}

func (n *Notifier) index(ctx context.Context, userID string, b *domain.Book) {
	if err := n.searchIndexer().IndexBook(ctx, userID, b); err != nil {
		n.logger.Warn("failed to index book for search", "book_id", b.ID, "error", err)
	}
}
