package domain

import (
	"slices"
	"strings"
)

// Collection is a named, user-owned grouping of books.
// Books holds the collection's books in insertion order.
type Collection struct {
	Syncable
	OwnerID string  `json:"owner_id"`
	Name    string  `json:"name"`
	Books   []*Book `json:"books"`
}

// NewCollection builds an unsaved collection owned by ownerID.
func NewCollection(ownerID, name string) *Collection {
	c := &Collection{OwnerID: ownerID, Name: strings.TrimSpace(name), Books: []*Book{}}
	c.InitTimestamps()
	return c
}

// Clone returns a deep copy of the collection and its books.
func (c *Collection) Clone() *Collection {
	if c == nil {
		return nil
	}
	out := &Collection{
		Syncable: c.Syncable,
		OwnerID:  c.OwnerID,
		Name:     c.Name,
		Books:    make([]*Book, len(c.Books)),
	}
	for i, b := range c.Books {
		out.Books[i] = b.Clone()
	}
	return out
}

// FindBook returns the book with bookID, or nil.
func (c *Collection) FindBook(bookID string) *Book {
	for _, b := range c.Books {
		if b.ID == bookID {
			return b
		}
	}
	return nil
}

// AppendBook adds a book at the end of the collection.
// Returns false if a book with the same id is already present.
func (c *Collection) AppendBook(b *Book) bool {
	if b.ID != "" && c.FindBook(b.ID) != nil {
		return false
	}
	c.Books = append(c.Books, b)
	return true
}

// RemoveBook removes the book with bookID.
func (c *Collection) RemoveBook(bookID string) bool {
	idx := slices.IndexFunc(c.Books, func(b *Book) bool { return b.ID == bookID })
	if idx < 0 {
		return false
	}
	c.Books = slices.Delete(c.Books, idx, idx+1)
	return true
}

// SortCollections orders collections newest first.
// Ties on CreatedAt fall back to id so the order is stable across reads.
func SortCollections(cs []*Collection) {
	slices.SortStableFunc(cs, func(a, b *Collection) int {
		if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
			return c
		}
		return strings.Compare(a.ID, b.ID)
	})
}

// SortBooks orders books by insertion (CreatedAt ascending, then id).
func SortBooks(bs []*Book) {
	slices.SortStableFunc(bs, func(a, b *Book) int {
		if c := a.CreatedAt.Compare(b.CreatedAt); c != 0 {
			return c
		}
		return strings.Compare(a.ID, b.ID)
	})
}

// CloneCollections deep-copies a collection list.
func CloneCollections(cs []*Collection) []*Collection {
	out := make([]*Collection, len(cs))
	for i, c := range cs {
		out[i] = c.Clone()
	}
	return out
}
