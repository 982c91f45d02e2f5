// Package storetest holds the behavior every store.Catalog backend must share.
package storetest

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/listenupapp/shelf/internal/domain"
	domainerrors "github.com/listenupapp/shelf/internal/errors"
	"github.com/listenupapp/shelf/internal/store"
)

// Factory opens an empty backend with the given emitter. The backend is closed by the caller's cleanup.
type Factory func(t *testing.T, emitter store.EventEmitter) store.Catalog

// Recorder is an EventEmitter that keeps every emitted event.
type Recorder struct {
	mu     sync.Mutex
	events []any
}

// Emit records event.
func (r *Recorder) Emit(event any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
}

// Events returns a copy of the recorded events.
func (r *Recorder) Events() []any {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]any(nil), r.events...)
}

// Run executes the catalog contract against the backend produced by newStore.
func Run(t *testing.T, newStore Factory) {
	t.Helper()

	tests := []struct {
		name string
		fn   func(t *testing.T, newStore Factory)
	}{
		{"CreateAssignsFinalIDs", testCreateAssignsFinalIDs},
		{"EmptyNameRejected", testEmptyNameRejected},
		{"RoundTrip", testRoundTrip},
		{"ListOrdering", testListOrdering},
		{"UsersIsolated", testUsersIsolated},
		{"AddBookMissingCollection", testAddBookMissingCollection},
		{"DeleteBookIdempotent", testDeleteBookIdempotent},
		{"DeleteWithoutCascadeOrphans", testDeleteWithoutCascadeOrphans},
		{"CascadeDeleteRemovesBooks", testCascadeDeleteRemovesBooks},
		{"RenameAndUpdate", testRenameAndUpdate},
		{"EmitsEvents", testEmitsEvents},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.fn(t, newStore)
		})
	}
}

// Hooked is a backend opened with a hook that runs ahead of each cascaded book
// deletion, plus a raw count of the books stored under a collection.
type Hooked struct {
	Catalog    store.Catalog
	CountBooks func(userID, collectionID string) int
}

// HookedFactory opens an empty backend wired to beforeBookDelete.
type HookedFactory func(t *testing.T, beforeBookDelete func(bookID string) error) Hooked

// RunCascade executes the cascade checks that need a hook into the backend.
func RunCascade(t *testing.T, open HookedFactory) {
	t.Helper()

	t.Run("CascadeSweepsBookAddedMidway", func(t *testing.T) {
		testCascadeSweepsBookAddedMidway(t, open)
	})
}

func testCascadeSweepsBookAddedMidway(t *testing.T, open HookedFactory) {
	ctx := context.Background()

	var (
		s       store.Catalog
		cid     string
		once    sync.Once
		lateErr error
	)
	h := open(t, func(string) error {
		once.Do(func() {
			_, lateErr = s.AddBook(ctx, "u1", cid, draft("Late Arrival"))
		})
		return nil
	})
	s = h.Catalog

	c, err := s.CreateCollection(ctx, "u1", "Busy")
	require.NoError(t, err)
	cid = c.ID
	for _, title := range []string{"Dune", "Emma"} {
		_, err := s.AddBook(ctx, "u1", c.ID, draft(title))
		require.NoError(t, err)
	}

	require.NoError(t, s.DeleteCollection(ctx, "u1", c.ID, true))
	require.NoError(t, lateErr, "the collection still existed when the late book was added")

	assert.Zero(t, h.CountBooks("u1", c.ID), "no book remains under a cascade-deleted collection")
	_, err = s.GetCollection(ctx, "u1", c.ID)
	assert.ErrorIs(t, err, store.ErrCollectionNotFound)
}

func draft(title string) domain.BookDraft {
	return domain.BookDraft{Title: title, Author: "Author of " + title}
}

func testCreateAssignsFinalIDs(t *testing.T, newStore Factory) {
	s := newStore(t, nil)
	ctx := context.Background()

	c, err := s.CreateCollection(ctx, "u1", "  Fiction ")
	require.NoError(t, err)
	assert.NotEmpty(t, c.ID)
	assert.Equal(t, "Fiction", c.Name)
	assert.Equal(t, "u1", c.OwnerID)
	assert.Empty(t, c.Books)

	b, err := s.AddBook(ctx, "u1", c.ID, draft("Dune"))
	require.NoError(t, err)
	assert.NotEmpty(t, b.ID)
	assert.Equal(t, c.ID, b.CollectionID)
	assert.False(t, b.CreatedAt.IsZero())
}

func testEmptyNameRejected(t *testing.T, newStore Factory) {
	s := newStore(t, nil)

	_, err := s.CreateCollection(context.Background(), "u1", "   ")
	assert.ErrorIs(t, err, domainerrors.ErrValidation)
	assert.ErrorIs(t, err, store.ErrEmptyName)
}

func testRoundTrip(t *testing.T, newStore Factory) {
	s := newStore(t, nil)
	ctx := context.Background()

	c, err := s.CreateCollection(ctx, "u1", "Sci-Fi")
	require.NoError(t, err)

	full := domain.BookDraft{
		Title:        "Dune",
		Author:       "Frank Herbert",
		ISBN:         domain.Ptr("9780441172719"),
		ThumbnailURL: domain.Ptr("https://example.com/dune.jpg"),
		Description:  domain.Ptr(""),
		Publisher:    domain.Ptr("Ace"),
		Year:         domain.Ptr("1990"),
	}
	added, err := s.AddBook(ctx, "u1", c.ID, full)
	require.NoError(t, err)

	sparse, err := s.AddBook(ctx, "u1", c.ID, domain.BookDraft{Title: "Untitled Zine"})
	require.NoError(t, err)

	got, err := s.GetCollection(ctx, "u1", c.ID)
	require.NoError(t, err)
	require.Len(t, got.Books, 2)

	b := got.Books[0]
	assert.Equal(t, added.ID, b.ID)
	assert.Equal(t, full.Title, b.Title)
	assert.Equal(t, full.Author, b.Author)
	assert.Equal(t, full.ISBN, b.ISBN)
	assert.Equal(t, full.ThumbnailURL, b.ThumbnailURL)
	require.NotNil(t, b.Description, "empty differs from unknown")
	assert.Empty(t, *b.Description)
	assert.Equal(t, full.Publisher, b.Publisher)
	assert.Equal(t, full.Year, b.Year)
	assert.True(t, added.CreatedAt.Equal(b.CreatedAt))

	s2 := got.Books[1]
	assert.Equal(t, sparse.ID, s2.ID)
	assert.Nil(t, s2.ISBN)
	assert.Nil(t, s2.ThumbnailURL)
	assert.Nil(t, s2.Description)
	assert.Nil(t, s2.Publisher)
	assert.Nil(t, s2.Year)
}

func testListOrdering(t *testing.T, newStore Factory) {
	s := newStore(t, nil)
	ctx := context.Background()

	older, err := s.CreateCollection(ctx, "u1", "Older")
	require.NoError(t, err)
	time.Sleep(2 * time.Millisecond)
	newer, err := s.CreateCollection(ctx, "u1", "Newer")
	require.NoError(t, err)

	var ids []string
	for _, title := range []string{"First", "Second", "Third"} {
		b, err := s.AddBook(ctx, "u1", older.ID, draft(title))
		require.NoError(t, err)
		ids = append(ids, b.ID)
		time.Sleep(time.Millisecond)
	}

	list, err := s.ListCollections(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, newer.ID, list[0].ID, "newest collection first")
	assert.Equal(t, older.ID, list[1].ID)

	var got []string
	for _, b := range list[1].Books {
		got = append(got, b.ID)
	}
	assert.Equal(t, ids, got, "books in insertion order")
	assert.Empty(t, list[0].Books)
}

func testUsersIsolated(t *testing.T, newStore Factory) {
	s := newStore(t, nil)
	ctx := context.Background()

	c, err := s.CreateCollection(ctx, "alice", "Mine")
	require.NoError(t, err)
	_, err = s.CreateCollection(ctx, "alice:bob", "Tricky")
	require.NoError(t, err)

	list, err := s.ListCollections(ctx, "bob")
	require.NoError(t, err)
	assert.Empty(t, list)

	list, err = s.ListCollections(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, c.ID, list[0].ID)

	_, err = s.GetCollection(ctx, "bob", c.ID)
	assert.ErrorIs(t, err, store.ErrCollectionNotFound)

	_, err = s.AddBook(ctx, "bob", c.ID, draft("Stolen"))
	assert.ErrorIs(t, err, domainerrors.ErrNotFound)
}

func testAddBookMissingCollection(t *testing.T, newStore Factory) {
	s := newStore(t, nil)

	_, err := s.AddBook(context.Background(), "u1", "coll-missing", draft("Dune"))
	require.Error(t, err)
	assert.ErrorIs(t, err, store.ErrCollectionNotFound)
	assert.ErrorIs(t, err, domainerrors.ErrNotFound)
	assert.True(t, store.IsNotFound(err))
}

func testDeleteBookIdempotent(t *testing.T, newStore Factory) {
	s := newStore(t, nil)
	ctx := context.Background()

	c, err := s.CreateCollection(ctx, "u1", "Shelf")
	require.NoError(t, err)
	b, err := s.AddBook(ctx, "u1", c.ID, draft("Dune"))
	require.NoError(t, err)

	require.NoError(t, s.DeleteBook(ctx, "u1", c.ID, b.ID))
	require.NoError(t, s.DeleteBook(ctx, "u1", c.ID, b.ID))
	require.NoError(t, s.DeleteBook(ctx, "u1", c.ID, "book-never-existed"))

	got, err := s.GetCollection(ctx, "u1", c.ID)
	require.NoError(t, err)
	assert.Empty(t, got.Books)
}

func testDeleteWithoutCascadeOrphans(t *testing.T, newStore Factory) {
	s := newStore(t, nil)
	ctx := context.Background()

	c, err := s.CreateCollection(ctx, "u1", "Doomed")
	require.NoError(t, err)
	_, err = s.AddBook(ctx, "u1", c.ID, draft("Orphan"))
	require.NoError(t, err)

	require.NoError(t, s.DeleteCollection(ctx, "u1", c.ID, false))

	list, err := s.ListCollections(ctx, "u1")
	require.NoError(t, err)
	assert.Empty(t, list, "orphaned books never surface")

	_, err = s.GetCollection(ctx, "u1", c.ID)
	assert.ErrorIs(t, err, store.ErrCollectionNotFound)

	require.NoError(t, s.DeleteCollection(ctx, "u1", c.ID, false), "deleting an absent collection is a no-op")
}

func testCascadeDeleteRemovesBooks(t *testing.T, newStore Factory) {
	s := newStore(t, nil)
	ctx := context.Background()

	c, err := s.CreateCollection(ctx, "u1", "Bulk")
	require.NoError(t, err)
	keep, err := s.CreateCollection(ctx, "u1", "Keep")
	require.NoError(t, err)

	for i := range 20 {
		_, err := s.AddBook(ctx, "u1", c.ID, draft("Book "+string(rune('A'+i))))
		require.NoError(t, err)
	}
	kept, err := s.AddBook(ctx, "u1", keep.ID, draft("Survivor"))
	require.NoError(t, err)

	require.NoError(t, s.DeleteCollection(ctx, "u1", c.ID, true))

	_, err = s.GetCollection(ctx, "u1", c.ID)
	assert.ErrorIs(t, err, store.ErrCollectionNotFound)

	list, err := s.ListCollections(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, list, 1)
	require.Len(t, list[0].Books, 1)
	assert.Equal(t, kept.ID, list[0].Books[0].ID)
}

func testRenameAndUpdate(t *testing.T, newStore Factory) {
	s := newStore(t, nil)
	ctx := context.Background()

	c, err := s.CreateCollection(ctx, "u1", "Draft Name")
	require.NoError(t, err)
	b, err := s.AddBook(ctx, "u1", c.ID, draft("Dune"))
	require.NoError(t, err)

	renamed, err := s.RenameCollection(ctx, "u1", c.ID, "Final Name")
	require.NoError(t, err)
	assert.Equal(t, "Final Name", renamed.Name)
	assert.Len(t, renamed.Books, 1)

	_, err = s.RenameCollection(ctx, "u1", "coll-missing", "x")
	assert.ErrorIs(t, err, store.ErrCollectionNotFound)

	updated, err := s.UpdateBook(ctx, "u1", c.ID, b.ID, domain.BookDraft{Title: "Dune", Author: "Frank Herbert", Year: domain.Ptr("1965")})
	require.NoError(t, err)
	assert.Equal(t, b.ID, updated.ID)
	assert.Equal(t, c.ID, updated.CollectionID)
	assert.True(t, b.CreatedAt.Equal(updated.CreatedAt))
	assert.Equal(t, "Frank Herbert", updated.Author)

	got, err := s.GetCollection(ctx, "u1", c.ID)
	require.NoError(t, err)
	require.Len(t, got.Books, 1)
	assert.Equal(t, "1965", *got.Books[0].Year)

	_, err = s.UpdateBook(ctx, "u1", c.ID, "book-missing", draft("x"))
	assert.ErrorIs(t, err, store.ErrBookNotFound)
}

func testEmitsEvents(t *testing.T, newStore Factory) {
	rec := &Recorder{}
	s := newStore(t, rec)
	ctx := context.Background()

	c, err := s.CreateCollection(ctx, "u1", "Evented")
	require.NoError(t, err)
	b, err := s.AddBook(ctx, "u1", c.ID, draft("Dune"))
	require.NoError(t, err)
	require.NoError(t, s.DeleteBook(ctx, "u1", c.ID, b.ID))
	require.NoError(t, s.DeleteBook(ctx, "u1", c.ID, b.ID))
	require.NoError(t, s.DeleteCollection(ctx, "u1", c.ID, true))

	assert.Len(t, rec.Events(), 4, "absent deletes emit nothing")
}
