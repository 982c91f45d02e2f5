package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/listenupapp/shelf/internal/domain"
	domainerrors "github.com/listenupapp/shelf/internal/errors"
	"github.com/listenupapp/shelf/internal/id"
	"github.com/listenupapp/shelf/internal/store"
)

// bookColumns is the ordered list of columns selected in book queries.
// Must match the scan order in scanBook.
const bookColumns = `id, collection_id, title, author, isbn, thumbnail_url, description, publisher, year, created_at, updated_at`

var timeNow = time.Now

func scanBook(scanner interface{ Scan(dest ...any) error }) (*domain.Book, error) {
	var (
		b                    domain.Book
		isbn, thumb          sql.NullString
		desc, publisher      sql.NullString
		year                 sql.NullString
		createdAt, updatedAt int64
	)

	if err := scanner.Scan(
		&b.ID,
		&b.CollectionID,
		&b.Title,
		&b.Author,
		&isbn,
		&thumb,
		&desc,
		&publisher,
		&year,
		&createdAt,
		&updatedAt,
	); err != nil {
		return nil, err
	}

	b.ISBN = stringPtr(isbn)
	b.ThumbnailURL = stringPtr(thumb)
	b.Description = stringPtr(desc)
	b.Publisher = stringPtr(publisher)
	b.Year = stringPtr(year)
	b.CreatedAt = fromNanos(createdAt)
	b.UpdatedAt = fromNanos(updatedAt)
	return &b, nil
}

// queryBooks selects books with the given WHERE/ORDER clause.
func (s *Store) queryBooks(ctx context.Context, clause string, args ...any) ([]*domain.Book, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+bookColumns+` FROM books `+clause, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	books := []*domain.Book{}
	for rows.Next() {
		b, err := scanBook(rows)
		if err != nil {
			return nil, err
		}
		books = append(books, b)
	}
	return books, rows.Err()
}

func (s *Store) bookIDs(ctx context.Context, userID, collectionID string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id FROM books WHERE user_id = ? AND collection_id = ?`, userID, collectionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var bookID string
		if err := rows.Scan(&bookID); err != nil {
			return nil, err
		}
		ids = append(ids, bookID)
	}
	return ids, rows.Err()
}

// AddBook persists a new book under collectionID and returns it with its final id.
// The existence check and insert share one transaction.
func (s *Store) AddBook(ctx context.Context, userID, collectionID string, draft domain.BookDraft) (*domain.Book, error) {
	bookID, err := id.Book()
	if err != nil {
		return nil, domainerrors.StoreWrite(fmt.Errorf("generate book ID: %w", err))
	}

	draft.Normalize()
	b := domain.NewBook(collectionID, draft)
	b.ID = bookID

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, domainerrors.StoreWrite(fmt.Errorf("begin tx: %w", err))
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	var one int
	err = tx.QueryRowContext(ctx,
		`SELECT 1 FROM collections WHERE user_id = ? AND id = ?`, userID, collectionID).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.CollectionNotFound(collectionID)
	}
	if err != nil {
		return nil, domainerrors.StoreWrite(fmt.Errorf("check collection: %w", err))
	}

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO books (user_id, collection_id, id, title, author, isbn, thumbnail_url,
		 description, publisher, year, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		userID, collectionID, b.ID,
		b.Title, b.Author,
		nullableString(b.ISBN), nullableString(b.ThumbnailURL),
		nullableString(b.Description), nullableString(b.Publisher),
		nullableString(b.Year),
		toNanos(b.CreatedAt), toNanos(b.UpdatedAt),
	); err != nil {
		return nil, domainerrors.StoreWrite(fmt.Errorf("insert book: %w", err))
	}

	if err := tx.Commit(); err != nil {
		return nil, domainerrors.StoreWrite(fmt.Errorf("commit: %w", err))
	}

	s.notify.BookAdded(ctx, userID, b)
	return b.Clone(), nil
}

// UpdateBook amends a book's metadata. Its id, collection, and creation time are kept.
func (s *Store) UpdateBook(ctx context.Context, userID, collectionID, bookID string, draft domain.BookDraft) (*domain.Book, error) {
	draft.Normalize()

	res, err := s.db.ExecContext(ctx,
		`UPDATE books SET title = ?, author = ?, isbn = ?, thumbnail_url = ?, description = ?,
		 publisher = ?, year = ?, updated_at = ?
		 WHERE user_id = ? AND collection_id = ? AND id = ?`,
		draft.Title, draft.Author,
		nullableString(draft.ISBN), nullableString(draft.ThumbnailURL),
		nullableString(draft.Description), nullableString(draft.Publisher),
		nullableString(draft.Year), toNanos(timeNow()),
		userID, collectionID, bookID)
	if err != nil {
		return nil, domainerrors.StoreWrite(fmt.Errorf("update book: %w", err))
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, store.BookNotFound(bookID)
	}

	b, err := scanBook(s.db.QueryRowContext(ctx,
		`SELECT `+bookColumns+` FROM books WHERE user_id = ? AND collection_id = ? AND id = ?`,
		userID, collectionID, bookID))
	if err != nil {
		return nil, domainerrors.StoreRead(fmt.Errorf("reload book: %w", err))
	}

	s.notify.BookUpdated(ctx, userID, b)
	return b, nil
}

// DeleteBook removes a single book. Deleting an absent book is not an error.
func (s *Store) DeleteBook(ctx context.Context, userID, collectionID, bookID string) error {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM books WHERE user_id = ? AND collection_id = ? AND id = ?`,
		userID, collectionID, bookID)
	if err != nil {
		return domainerrors.StoreWrite(fmt.Errorf("delete book: %w", err))
	}
	if n, _ := res.RowsAffected(); n > 0 {
		s.notify.BookDeleted(ctx, userID, collectionID, bookID)
	}
	return nil
}
