package domain

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCollection_CloneIsDeep(t *testing.T) {
	coll := NewCollection("u1", "  Sci-Fi ")
	coll.ID = "coll-1"
	book := NewBook(coll.ID, BookDraft{Title: "Dune", Author: "Frank Herbert", Year: Ptr("1965")})
	book.ID = "book-1"
	coll.AppendBook(book)

	clone := coll.Clone()
	clone.Name = "changed"
	clone.Books[0].Title = "changed"
	*clone.Books[0].Year = "2000"
	clone.Books = append(clone.Books, &Book{})

	assert.Equal(t, "Sci-Fi", coll.Name)
	assert.Equal(t, "Dune", coll.Books[0].Title)
	assert.Equal(t, "1965", *coll.Books[0].Year)
	assert.Len(t, coll.Books, 1)
}

func TestCollection_AppendAndRemoveBook(t *testing.T) {
	coll := NewCollection("u1", "Reading")
	b1 := &Book{Syncable: Syncable{ID: "book-1"}}
	b2 := &Book{Syncable: Syncable{ID: "book-2"}}

	assert.True(t, coll.AppendBook(b1))
	assert.True(t, coll.AppendBook(b2))
	assert.False(t, coll.AppendBook(b1), "duplicate id")

	assert.True(t, coll.RemoveBook("book-1"))
	assert.False(t, coll.RemoveBook("book-1"))
	require.Len(t, coll.Books, 1)
	assert.Equal(t, "book-2", coll.Books[0].ID)
	assert.Nil(t, coll.FindBook("book-1"))
}

func TestSortCollections_NewestFirst(t *testing.T) {
	now := time.Now()
	cs := []*Collection{
		{Syncable: Syncable{ID: "a", CreatedAt: now.Add(-2 * time.Hour)}},
		{Syncable: Syncable{ID: "c", CreatedAt: now}},
		{Syncable: Syncable{ID: "b", CreatedAt: now}},
	}

	SortCollections(cs)

	assert.Equal(t, "b", cs[0].ID)
	assert.Equal(t, "c", cs[1].ID)
	assert.Equal(t, "a", cs[2].ID)
}

func TestSortBooks_InsertionOrder(t *testing.T) {
	now := time.Now()
	bs := []*Book{
		{Syncable: Syncable{ID: "late", CreatedAt: now.Add(time.Minute)}},
		{Syncable: Syncable{ID: "early", CreatedAt: now}},
	}

	SortBooks(bs)

	assert.Equal(t, "early", bs[0].ID)
	assert.Equal(t, "late", bs[1].ID)
}

func TestBook_AmendKeepsIdentity(t *testing.T) {
	book := NewBook("coll-1", BookDraft{Title: "Dune"})
	book.ID = "book-1"
	created := book.CreatedAt

	book.Amend(BookDraft{Title: "Dune Messiah", Publisher: Ptr("Ace")})

	assert.Equal(t, "book-1", book.ID)
	assert.Equal(t, "coll-1", book.CollectionID)
	assert.Equal(t, created, book.CreatedAt)
	assert.Equal(t, "Dune Messiah", book.Title)
	assert.Equal(t, "Ace", *book.Publisher)
}

func TestBook_JSONOmitsUnknownFields(t *testing.T) {
	book := NewBook("coll-1", BookDraft{Title: "Dune", Author: "", Description: Ptr("")})

	data, err := json.Marshal(book)
	require.NoError(t, err)

	var raw map[string]any
	require.NoError(t, json.Unmarshal(data, &raw))
	assert.Equal(t, "Dune", raw["title"])
	assert.Equal(t, "", raw["author"])
	assert.Equal(t, "", raw["description"], "known-empty is kept")
	assert.NotContains(t, raw, "isbn")
	assert.NotContains(t, raw, "year")
}

func TestLookupKey_Shape(t *testing.T) {
	assert.True(t, LookupKey{Value: "9780441172719", Kind: KeyISBN}.IsISBN())
	assert.False(t, LookupKey{Value: "dune", Kind: KeyTitle}.IsISBN())
	assert.Equal(t, "title:dune", LookupKey{Value: "dune", Kind: KeyTitle}.String())
}

func TestTokenKind_Valid(t *testing.T) {
	assert.True(t, TokenText.Valid())
	assert.True(t, TokenBarcode.Valid())
	assert.False(t, TokenKind("qr").Valid())
}
