package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/dgraph-io/badger/v4"
	"golang.org/x/sync/errgroup"

	"github.com/listenupapp/shelf/internal/domain"
	domainerrors "github.com/listenupapp/shelf/internal/errors"
	"github.com/listenupapp/shelf/internal/id"
)

// collectionDoc is the stored form of a collection. Books live under their own keys.
type collectionDoc struct {
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	ID        string    `json:"id"`
	OwnerID   string    `json:"owner_id"`
	Name      string    `json:"name"`
}

func toCollectionDoc(c *domain.Collection) collectionDoc {
	return collectionDoc{
		ID:        c.ID,
		OwnerID:   c.OwnerID,
		Name:      c.Name,
		CreatedAt: c.CreatedAt,
		UpdatedAt: c.UpdatedAt,
	}
}

func (d collectionDoc) collection() *domain.Collection {
	c := &domain.Collection{OwnerID: d.OwnerID, Name: d.Name, Books: []*domain.Book{}}
	c.ID = d.ID
	c.CreatedAt = d.CreatedAt
	c.UpdatedAt = d.UpdatedAt
	return c
}

// CreateCollection persists a new collection for userID and returns it with its final id.
func (s *Store) CreateCollection(ctx context.Context, userID, name string) (*domain.Collection, error) {
	if err := ctx.Err(); err != nil {
		return nil, domainerrors.StoreWrite(err)
	}

	name, err := ValidateName(name)
	if err != nil {
		return nil, err
	}

	collID, err := id.Collection()
	if err != nil {
		return nil, domainerrors.StoreWrite(fmt.Errorf("generate collection ID: %w", err))
	}

	c := domain.NewCollection(userID, name)
	c.ID = collID

	if err := s.db.Update(func(txn *badger.Txn) error {
		return setTxn(txn, collectionKey(userID, c.ID), toCollectionDoc(c))
	}); err != nil {
		return nil, domainerrors.StoreWrite(fmt.Errorf("create collection: %w", err))
	}

	s.logger.Debug("collection created", "user_id", userID, "collection_id", c.ID)
	s.notify.CollectionCreated(userID, c)

	return c.Clone(), nil
}

// GetCollection returns a collection populated with its books.
func (s *Store) GetCollection(ctx context.Context, userID, collectionID string) (*domain.Collection, error) {
	if err := ctx.Err(); err != nil {
		return nil, domainerrors.StoreRead(err)
	}

	var c *domain.Collection
	err := s.db.View(func(txn *badger.Txn) error {
		var err error
		c, err = loadCollectionTxn(txn, userID, collectionID)
		return err
	})
	if err != nil {
		return nil, readError("get collection", err)
	}
	return c, nil
}

// RenameCollection changes a collection's name.
func (s *Store) RenameCollection(ctx context.Context, userID, collectionID, name string) (*domain.Collection, error) {
	if err := ctx.Err(); err != nil {
		return nil, domainerrors.StoreWrite(err)
	}

	name, err := ValidateName(name)
	if err != nil {
		return nil, err
	}

	var c *domain.Collection
	err = s.db.Update(func(txn *badger.Txn) error {
		var err error
		c, err = loadCollectionTxn(txn, userID, collectionID)
		if err != nil {
			return err
		}
		c.Name = name
		c.Touch()
		return setTxn(txn, collectionKey(userID, collectionID), toCollectionDoc(c))
	})
	if err != nil {
		return nil, writeError("rename collection", err)
	}

	s.notify.CollectionRenamed(userID, c)
	return c.Clone(), nil
}

// DeleteCollection removes a collection.
//
// Without cascade only the collection document is removed and its books stay
// in the store as orphans. With cascade every book is deleted first, each
// independently; if any book deletion fails the errors are joined and
// returned and the collection document is kept so a retry can finish the job.
// Books already deleted are not restored. Once the document is gone AddBook
// can no longer land under the collection, so a final sweep removes any book
// added while the cascade was running. Deleting an absent collection is a no-op.
func (s *Store) DeleteCollection(ctx context.Context, userID, collectionID string, cascadeBooks bool) error {
	if err := ctx.Err(); err != nil {
		return domainerrors.StoreWrite(err)
	}

	if cascadeBooks {
		if err := s.cascadeBooks(ctx, userID, collectionID); err != nil {
			return err
		}
	}

	var existed bool
	err := s.db.Update(func(txn *badger.Txn) error {
		key := collectionKey(userID, collectionID)
		var err error
		existed, err = existsTxn(txn, key)
		if err != nil || !existed {
			return err
		}
		return txn.Delete(key)
	})
	if err != nil {
		return domainerrors.StoreWrite(fmt.Errorf("delete collection: %w", err))
	}

	if cascadeBooks {
		if err := s.cascadeBooks(ctx, userID, collectionID); err != nil {
			return err
		}
	}

	if existed {
		s.logger.Debug("collection deleted",
			"user_id", userID,
			"collection_id", collectionID,
			"cascade", cascadeBooks)
		s.notify.CollectionDeleted(userID, collectionID, cascadeBooks)
	}
	return nil
}

// cascadeBooks deletes every book currently stored under the collection.
func (s *Store) cascadeBooks(ctx context.Context, userID, collectionID string) error {
	var keys [][]byte
	if err := s.db.View(func(txn *badger.Txn) error {
		keys = keysWithPrefix(txn, collectionBooksPrefix(userID, collectionID))
		return nil
	}); err != nil {
		return domainerrors.StoreRead(fmt.Errorf("list collection books: %w", err))
	}

	if err := s.deleteBooks(ctx, userID, collectionID, keys); err != nil {
		s.logger.Warn("cascade delete incomplete",
			"user_id", userID,
			"collection_id", collectionID,
			"error", err)
		return domainerrors.StoreWrite(fmt.Errorf("cascade delete collection %s: %w", collectionID, err))
	}
	return nil
}

// deleteBooks deletes each key in its own transaction with bounded parallelism.
// Every deletion is attempted; failures are joined.
func (s *Store) deleteBooks(ctx context.Context, userID, collectionID string, keys [][]byte) error {
	var (
		g    errgroup.Group
		mu   sync.Mutex
		errs []error
	)
	g.SetLimit(cascadeParallelism)

	for _, key := range keys {
		g.Go(func() error {
			bookID := lastSegment(key)
			if err := s.deleteCascadedBook(ctx, userID, collectionID, bookID, key); err != nil {
				mu.Lock()
				errs = append(errs, fmt.Errorf("delete book %s: %w", bookID, err))
				mu.Unlock()
			}
			return nil
		})
	}
	_ = g.Wait()

	return errors.Join(errs...)
}

func (s *Store) deleteCascadedBook(ctx context.Context, userID, collectionID, bookID string, key []byte) error {
	if s.beforeBookDelete != nil {
		if err := s.beforeBookDelete(bookID); err != nil {
			return err
		}
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := s.delete(key); err != nil {
		return err
	}
	s.notify.BookDeleted(ctx, userID, collectionID, bookID)
	return nil
}

// ListCollections returns every collection of userID with its books.
// Collections come newest first, books in insertion order. Orphaned books
// (whose collection document is gone) are not returned.
func (s *Store) ListCollections(ctx context.Context, userID string) ([]*domain.Collection, error) {
	if err := ctx.Err(); err != nil {
		return nil, domainerrors.StoreRead(err)
	}

	var collections []*domain.Collection
	err := s.db.View(func(txn *badger.Txn) error {
		byID := make(map[string]*domain.Collection)

		if err := scanPrefix(txn, userCollectionsPrefix(userID), func(_, val []byte) error {
			var doc collectionDoc
			if err := json.Unmarshal(val, &doc); err != nil {
				return fmt.Errorf("decode collection: %w", err)
			}
			c := doc.collection()
			byID[c.ID] = c
			collections = append(collections, c)
			return nil
		}); err != nil {
			return err
		}

		return scanPrefix(txn, userBooksPrefix(userID), func(key, val []byte) error {
			c, ok := byID[collectionOfBookKey(key)]
			if !ok {
				return nil
			}
			var b domain.Book
			if err := json.Unmarshal(val, &b); err != nil {
				return fmt.Errorf("decode book: %w", err)
			}
			c.Books = append(c.Books, &b)
			return nil
		})
	})
	if err != nil {
		return nil, domainerrors.StoreRead(fmt.Errorf("list collections: %w", err))
	}

	for _, c := range collections {
		domain.SortBooks(c.Books)
	}
	domain.SortCollections(collections)

	if collections == nil {
		collections = []*domain.Collection{}
	}
	return collections, nil
}

func loadCollectionTxn(txn *badger.Txn, userID, collectionID string) (*domain.Collection, error) {
	var doc collectionDoc
	if err := getTxn(txn, collectionKey(userID, collectionID), &doc); err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil, CollectionNotFound(collectionID)
		}
		return nil, err
	}

	c := doc.collection()
	if err := scanPrefix(txn, collectionBooksPrefix(userID, collectionID), func(_, val []byte) error {
		var b domain.Book
		if err := json.Unmarshal(val, &b); err != nil {
			return fmt.Errorf("decode book: %w", err)
		}
		c.Books = append(c.Books, &b)
		return nil
	}); err != nil {
		return nil, err
	}
	domain.SortBooks(c.Books)
	return c, nil
}

// readError passes not-found through and wraps everything else as a read failure.
func readError(op string, err error) error {
	if IsNotFound(err) {
		return err
	}
	return domainerrors.StoreRead(fmt.Errorf("%s: %w", op, err))
}

// writeError passes not-found through and wraps everything else as a write failure.
func writeError(op string, err error) error {
	if IsNotFound(err) {
		return err
	}
	return domainerrors.StoreWrite(fmt.Errorf("%s: %w", op, err))
}
