// Package mirror holds the in-memory copy of one user's catalog.
//
// A single mutex guards the whole collection list. Every read returns a deep
// copy, so callers never observe a half-applied change and cannot mutate the
// mirror through a returned value.
package mirror

import (
	"slices"
	"sync"

	"github.com/listenupapp/shelf/internal/domain"
)

// Mirror is the mutex-guarded collection list.
type Mirror struct {
	mu          sync.Mutex
	collections []*domain.Collection
	loaded      bool
}

// New creates an empty mirror.
func New() *Mirror {
	return &Mirror{collections: []*domain.Collection{}}
}

// Snapshot returns a deep copy of the collections, newest first.
func (m *Mirror) Snapshot() []*domain.Collection {
	m.mu.Lock()
	defer m.mu.Unlock()
	return domain.CloneCollections(m.collections)
}

// Loaded reports whether Replace has been called at least once.
func (m *Mirror) Loaded() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.loaded
}

// Replace swaps in a freshly read collection list.
func (m *Mirror) Replace(cs []*domain.Collection) {
	next := domain.CloneCollections(cs)
	domain.SortCollections(next)

	m.mu.Lock()
	defer m.mu.Unlock()
	m.collections = next
	m.loaded = true
}

// Collection returns a copy of one collection.
func (m *Mirror) Collection(collectionID string) (*domain.Collection, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if c := m.find(collectionID); c != nil {
		return c.Clone(), true
	}
	return nil, false
}

// Has reports whether the mirror holds collectionID.
func (m *Mirror) Has(collectionID string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.find(collectionID) != nil
}

// PutCollection inserts or replaces a collection, keeping newest-first order.
func (m *Mirror) PutCollection(c *domain.Collection) {
	cp := c.Clone()

	m.mu.Lock()
	defer m.mu.Unlock()

	idx := slices.IndexFunc(m.collections, func(x *domain.Collection) bool { return x.ID == c.ID })
	if idx >= 0 {
		m.collections[idx] = cp
	} else {
		m.collections = append(m.collections, cp)
	}
	domain.SortCollections(m.collections)
}

// RenameCollection copies c's name and update time onto the mirrored collection.
// The mirrored book list is kept as is.
func (m *Mirror) RenameCollection(c *domain.Collection) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	cur := m.find(c.ID)
	if cur == nil {
		return false
	}
	cur.Name = c.Name
	cur.UpdatedAt = c.UpdatedAt
	return true
}

// RemoveCollection drops a collection and its books.
func (m *Mirror) RemoveCollection(collectionID string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	before := len(m.collections)
	m.collections = slices.DeleteFunc(m.collections, func(c *domain.Collection) bool {
		return c.ID == collectionID
	})
	return len(m.collections) != before
}

// Book returns a copy of one mirrored book.
func (m *Mirror) Book(collectionID, bookID string) (*domain.Book, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	c := m.find(collectionID)
	if c == nil {
		return nil, false
	}
	for _, b := range c.Books {
		if b.ID == bookID {
			return b.Clone(), true
		}
	}
	return nil, false
}

// AppendBook adds a book to the end of its collection.
// Returns false when the collection is not mirrored or already holds the book.
func (m *Mirror) AppendBook(b *domain.Book) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	c := m.find(b.CollectionID)
	if c == nil {
		return false
	}
	return c.AppendBook(b.Clone())
}

// ReplaceBook swaps an existing book for an amended copy.
func (m *Mirror) ReplaceBook(b *domain.Book) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	c := m.find(b.CollectionID)
	if c == nil {
		return false
	}
	idx := slices.IndexFunc(c.Books, func(x *domain.Book) bool { return x.ID == b.ID })
	if idx < 0 {
		return false
	}
	c.Books[idx] = b.Clone()
	return true
}

// RemoveBook drops a book from its collection.
func (m *Mirror) RemoveBook(collectionID, bookID string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	c := m.find(collectionID)
	if c == nil {
		return false
	}
	return c.RemoveBook(bookID)
}

// find must be called with mu held.
func (m *Mirror) find(collectionID string) *domain.Collection {
	for _, c := range m.collections {
		if c.ID == collectionID {
			return c
		}
	}
	return nil
}
