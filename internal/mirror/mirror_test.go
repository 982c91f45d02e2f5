package mirror

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/listenupapp/shelf/internal/domain"
)

func collection(id string, created time.Time) *domain.Collection {
	c := domain.NewCollection("u1", "Collection "+id)
	c.ID = id
	c.CreatedAt = created
	return c
}

func book(id, collectionID string) *domain.Book {
	b := domain.NewBook(collectionID, domain.BookDraft{Title: "Title " + id})
	b.ID = id
	return b
}

func TestMirror_SnapshotIsDeepCopy(t *testing.T) {
	m := New()
	now := time.Now()
	m.Replace([]*domain.Collection{collection("c1", now)})
	require.True(t, m.AppendBook(book("b1", "c1")))

	snap := m.Snapshot()
	snap[0].Name = "mutated"
	snap[0].Books[0].Title = "mutated"
	snap[0].Books = nil

	again := m.Snapshot()
	assert.Equal(t, "Collection c1", again[0].Name)
	require.Len(t, again[0].Books, 1)
	assert.Equal(t, "Title b1", again[0].Books[0].Title)
}

func TestMirror_ReplaceOrdersNewestFirst(t *testing.T) {
	m := New()
	assert.False(t, m.Loaded())

	now := time.Now()
	m.Replace([]*domain.Collection{
		collection("old", now.Add(-time.Hour)),
		collection("new", now),
	})
	assert.True(t, m.Loaded())

	snap := m.Snapshot()
	assert.Equal(t, "new", snap[0].ID)
	assert.Equal(t, "old", snap[1].ID)

	m.PutCollection(collection("newest", now.Add(time.Hour)))
	assert.Equal(t, "newest", m.Snapshot()[0].ID)
}

func TestMirror_BookMutations(t *testing.T) {
	m := New()
	m.Replace([]*domain.Collection{collection("c1", time.Now())})

	assert.False(t, m.AppendBook(book("b1", "missing")), "unknown collection")
	assert.True(t, m.AppendBook(book("b1", "c1")))
	assert.False(t, m.AppendBook(book("b1", "c1")), "duplicate id")
	assert.True(t, m.AppendBook(book("b2", "c1")))

	amended := book("b1", "c1")
	amended.Title = "Amended"
	assert.True(t, m.ReplaceBook(amended))

	c, ok := m.Collection("c1")
	require.True(t, ok)
	require.Len(t, c.Books, 2)
	assert.Equal(t, "Amended", c.Books[0].Title)
	assert.Equal(t, "b2", c.Books[1].ID)

	got, ok := m.Book("c1", "b1")
	require.True(t, ok)
	got.Title = "mutated"
	again, _ := m.Book("c1", "b1")
	assert.Equal(t, "Amended", again.Title)
	_, ok = m.Book("c1", "missing")
	assert.False(t, ok)

	assert.True(t, m.RemoveBook("c1", "b1"))
	assert.False(t, m.RemoveBook("c1", "b1"))

	assert.True(t, m.RemoveCollection("c1"))
	assert.False(t, m.Has("c1"))
	assert.False(t, m.RemoveCollection("c1"))
}

func TestMirror_RenameKeepsBooks(t *testing.T) {
	m := New()
	m.Replace([]*domain.Collection{collection("c1", time.Now())})
	require.True(t, m.AppendBook(book("b1", "c1")))

	renamed := collection("c1", time.Now())
	renamed.Name = "Renamed"
	assert.True(t, m.RenameCollection(renamed), "books in the argument are ignored")

	c, ok := m.Collection("c1")
	require.True(t, ok)
	assert.Equal(t, "Renamed", c.Name)
	require.Len(t, c.Books, 1)
	assert.Equal(t, "b1", c.Books[0].ID)

	assert.False(t, m.RenameCollection(collection("missing", time.Now())))
}

func TestMirror_ConcurrentReadersNeverSeeTornState(t *testing.T) {
	m := New()
	m.Replace([]*domain.Collection{collection("c1", time.Now())})

	var wg sync.WaitGroup
	for i := range 50 {
		wg.Add(2)
		go func() {
			defer wg.Done()
			m.AppendBook(book("b"+string(rune('A'+i%26))+string(rune('a'+i/26)), "c1"))
		}()
		go func() {
			defer wg.Done()
			for _, c := range m.Snapshot() {
				for _, b := range c.Books {
					assert.NotEmpty(t, b.ID)
				}
			}
		}()
	}
	wg.Wait()

	c, ok := m.Collection("c1")
	require.True(t, ok)
	assert.Len(t, c.Books, 50)
}
