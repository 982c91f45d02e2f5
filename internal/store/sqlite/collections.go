package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/listenupapp/shelf/internal/domain"
	domainerrors "github.com/listenupapp/shelf/internal/errors"
	"github.com/listenupapp/shelf/internal/id"
	"github.com/listenupapp/shelf/internal/store"
)

// collectionColumns is the ordered list of columns selected in collection queries.
// Must match the scan order in scanCollection.
const collectionColumns = `id, user_id, name, created_at, updated_at`

// scanCollection scans a sql.Row (or sql.Rows via its Scan method) into a domain.Collection.
func scanCollection(scanner interface{ Scan(dest ...any) error }) (*domain.Collection, error) {
	c := &domain.Collection{Books: []*domain.Book{}}
	var createdAt, updatedAt int64

	if err := scanner.Scan(&c.ID, &c.OwnerID, &c.Name, &createdAt, &updatedAt); err != nil {
		return nil, err
	}

	c.CreatedAt = fromNanos(createdAt)
	c.UpdatedAt = fromNanos(updatedAt)
	return c, nil
}

// CreateCollection persists a new collection for userID and returns it with its final id.
func (s *Store) CreateCollection(ctx context.Context, userID, name string) (*domain.Collection, error) {
	name, err := store.ValidateName(name)
	if err != nil {
		return nil, err
	}

	collID, err := id.Collection()
	if err != nil {
		return nil, domainerrors.StoreWrite(fmt.Errorf("generate collection ID: %w", err))
	}

	c := domain.NewCollection(userID, name)
	c.ID = collID

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO collections (user_id, id, name, created_at, updated_at) VALUES (?, ?, ?, ?, ?)`,
		userID, c.ID, c.Name, toNanos(c.CreatedAt), toNanos(c.UpdatedAt))
	if err != nil {
		return nil, domainerrors.StoreWrite(fmt.Errorf("insert collection: %w", err))
	}

	s.notify.CollectionCreated(userID, c)
	return c.Clone(), nil
}

// GetCollection returns a collection populated with its books.
func (s *Store) GetCollection(ctx context.Context, userID, collectionID string) (*domain.Collection, error) {
	c, err := scanCollection(s.db.QueryRowContext(ctx,
		`SELECT `+collectionColumns+` FROM collections WHERE user_id = ? AND id = ?`,
		userID, collectionID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.CollectionNotFound(collectionID)
	}
	if err != nil {
		return nil, domainerrors.StoreRead(fmt.Errorf("get collection: %w", err))
	}

	books, err := s.queryBooks(ctx,
		`WHERE user_id = ? AND collection_id = ? ORDER BY created_at, id`,
		userID, collectionID)
	if err != nil {
		return nil, domainerrors.StoreRead(fmt.Errorf("get collection books: %w", err))
	}
	c.Books = books
	return c, nil
}

// RenameCollection changes a collection's name.
func (s *Store) RenameCollection(ctx context.Context, userID, collectionID, name string) (*domain.Collection, error) {
	name, err := store.ValidateName(name)
	if err != nil {
		return nil, err
	}

	res, err := s.db.ExecContext(ctx,
		`UPDATE collections SET name = ?, updated_at = ? WHERE user_id = ? AND id = ?`,
		name, toNanos(timeNow()), userID, collectionID)
	if err != nil {
		return nil, domainerrors.StoreWrite(fmt.Errorf("rename collection: %w", err))
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, store.CollectionNotFound(collectionID)
	}

	c, err := s.GetCollection(ctx, userID, collectionID)
	if err != nil {
		return nil, err
	}
	s.notify.CollectionRenamed(userID, c)
	return c, nil
}

// DeleteCollection removes a collection, optionally deleting its books first.
// Cascade failures are joined and leave the collection row in place. After the
// row is gone a second sweep removes books added while the cascade ran.
func (s *Store) DeleteCollection(ctx context.Context, userID, collectionID string, cascadeBooks bool) error {
	if cascadeBooks {
		if err := s.cascadeBooks(ctx, userID, collectionID); err != nil {
			return err
		}
	}

	res, err := s.db.ExecContext(ctx,
		`DELETE FROM collections WHERE user_id = ? AND id = ?`, userID, collectionID)
	if err != nil {
		return domainerrors.StoreWrite(fmt.Errorf("delete collection: %w", err))
	}

	if cascadeBooks {
		if err := s.cascadeBooks(ctx, userID, collectionID); err != nil {
			return err
		}
	}

	if n, _ := res.RowsAffected(); n > 0 {
		s.notify.CollectionDeleted(userID, collectionID, cascadeBooks)
	}
	return nil
}

func (s *Store) cascadeBooks(ctx context.Context, userID, collectionID string) error {
	bookIDs, err := s.bookIDs(ctx, userID, collectionID)
	if err != nil {
		return domainerrors.StoreRead(fmt.Errorf("list collection books: %w", err))
	}
	if err := s.deleteBooks(ctx, userID, collectionID, bookIDs); err != nil {
		s.logger.Warn("cascade delete incomplete",
			"user_id", userID,
			"collection_id", collectionID,
			"error", err)
		return domainerrors.StoreWrite(fmt.Errorf("cascade delete collection %s: %w", collectionID, err))
	}
	return nil
}

func (s *Store) deleteBooks(ctx context.Context, userID, collectionID string, bookIDs []string) error {
	var (
		g    errgroup.Group
		mu   sync.Mutex
		errs []error
	)
	g.SetLimit(cascadeParallelism)

	for _, bookID := range bookIDs {
		g.Go(func() error {
			if err := s.deleteCascadedBook(ctx, userID, collectionID, bookID); err != nil {
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

func (s *Store) deleteCascadedBook(ctx context.Context, userID, collectionID, bookID string) error {
	if s.beforeBookDelete != nil {
		if err := s.beforeBookDelete(bookID); err != nil {
			return err
		}
	}
	if _, err := s.db.ExecContext(ctx,
		`DELETE FROM books WHERE user_id = ? AND collection_id = ? AND id = ?`,
		userID, collectionID, bookID); err != nil {
		return err
	}
	s.notify.BookDeleted(ctx, userID, collectionID, bookID)
	return nil
}

// ListCollections returns every collection of userID with its books, newest
// collection first and books in insertion order. Orphaned books are skipped.
func (s *Store) ListCollections(ctx context.Context, userID string) ([]*domain.Collection, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+collectionColumns+` FROM collections WHERE user_id = ? ORDER BY created_at DESC, id`,
		userID)
	if err != nil {
		return nil, domainerrors.StoreRead(fmt.Errorf("list collections: %w", err))
	}
	defer rows.Close()

	collections := []*domain.Collection{}
	byID := make(map[string]*domain.Collection)
	for rows.Next() {
		c, err := scanCollection(rows)
		if err != nil {
			return nil, domainerrors.StoreRead(fmt.Errorf("scan collection: %w", err))
		}
		collections = append(collections, c)
		byID[c.ID] = c
	}
	if err := rows.Err(); err != nil {
		return nil, domainerrors.StoreRead(fmt.Errorf("iterate collections: %w", err))
	}

	books, err := s.queryBooks(ctx,
		`WHERE user_id = ? AND collection_id IN (SELECT id FROM collections WHERE user_id = ?) ORDER BY created_at, id`,
		userID, userID)
	if err != nil {
		return nil, domainerrors.StoreRead(fmt.Errorf("list books: %w", err))
	}
	for _, b := range books {
		if c, ok := byID[b.CollectionID]; ok {
			c.Books = append(c.Books, b)
		}
	}

	return collections, nil
}
