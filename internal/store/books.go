package store

import (
	"bytes"
	"context"
	"errors"
	"fmt"

	"github.com/dgraph-io/badger/v4"

	"github.com/listenupapp/shelf/internal/domain"
	domainerrors "github.com/listenupapp/shelf/internal/errors"
	"github.com/listenupapp/shelf/internal/id"
)

// AddBook persists a new book under collectionID and returns it with its final id.
// Fails with a not-found error when the collection does not exist.
func (s *Store) AddBook(ctx context.Context, userID, collectionID string, draft domain.BookDraft) (*domain.Book, error) {
	if err := ctx.Err(); err != nil {
		return nil, domainerrors.StoreWrite(err)
	}

	bookID, err := id.Book()
	if err != nil {
		return nil, domainerrors.StoreWrite(fmt.Errorf("generate book ID: %w", err))
	}

	draft.Normalize()
	b := domain.NewBook(collectionID, draft)
	b.ID = bookID

	err = s.db.Update(func(txn *badger.Txn) error {
		ok, err := existsTxn(txn, collectionKey(userID, collectionID))
		if err != nil {
			return err
		}
		if !ok {
			return CollectionNotFound(collectionID)
		}
		return setTxn(txn, bookKey(userID, collectionID, b.ID), b)
	})
	if err != nil {
		return nil, writeError("add book", err)
	}

	s.logger.Debug("book added",
		"user_id", userID,
		"collection_id", collectionID,
		"book_id", b.ID)
	s.notify.BookAdded(ctx, userID, b)

	return b.Clone(), nil
}

// UpdateBook amends a book's metadata. Its id, collection, and creation time are kept.
func (s *Store) UpdateBook(ctx context.Context, userID, collectionID, bookID string, draft domain.BookDraft) (*domain.Book, error) {
	if err := ctx.Err(); err != nil {
		return nil, domainerrors.StoreWrite(err)
	}

	draft.Normalize()

	var b domain.Book
	err := s.db.Update(func(txn *badger.Txn) error {
		key := bookKey(userID, collectionID, bookID)
		if err := getTxn(txn, key, &b); err != nil {
			if errors.Is(err, badger.ErrKeyNotFound) {
				return BookNotFound(bookID)
			}
			return err
		}
		b.Amend(draft)
		return setTxn(txn, key, &b)
	})
	if err != nil {
		return nil, writeError("update book", err)
	}

	s.notify.BookUpdated(ctx, userID, &b)
	return b.Clone(), nil
}

// DeleteBook removes a single book. Deleting an absent book is not an error.
func (s *Store) DeleteBook(ctx context.Context, userID, collectionID, bookID string) error {
	if err := ctx.Err(); err != nil {
		return domainerrors.StoreWrite(err)
	}

	var existed bool
	err := s.db.Update(func(txn *badger.Txn) error {
		key := bookKey(userID, collectionID, bookID)
		var err error
		existed, err = existsTxn(txn, key)
		if err != nil || !existed {
			return err
		}
		return txn.Delete(key)
	})
	if err != nil {
		return domainerrors.StoreWrite(fmt.Errorf("delete book: %w", err))
	}

	if existed {
		s.notify.BookDeleted(ctx, userID, collectionID, bookID)
	}
	return nil
}

// lastSegment returns the id after the final ':' of a key.
func lastSegment(key []byte) string {
	if i := bytes.LastIndexByte(key, ':'); i >= 0 {
		return string(key[i+1:])
	}
	return string(key)
}
