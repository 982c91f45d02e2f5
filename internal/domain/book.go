// Package domain contains the catalog entities shared by the capture pipeline, the stores, and the API.
package domain

import "strings"

// BookDraft is the metadata of a book that has not been persisted yet.
// It is produced by the metadata resolver or by manual entry.
// Optional fields are nil when unknown; an empty string is a known empty value.
type BookDraft struct {
	ISBN         *string `json:"isbn,omitempty"`
	ThumbnailURL *string `json:"thumbnail_url,omitempty"`
	Description  *string `json:"description,omitempty"`
	Publisher    *string `json:"publisher,omitempty"`
	Year         *string `json:"year,omitempty"`
	Title        string  `json:"title"`
	Author       string  `json:"author"`
}

// Clone returns a deep copy of the draft.
func (d BookDraft) Clone() BookDraft {
	return BookDraft{
		ISBN:         clonePtr(d.ISBN),
		ThumbnailURL: clonePtr(d.ThumbnailURL),
		Description:  clonePtr(d.Description),
		Publisher:    clonePtr(d.Publisher),
		Year:         clonePtr(d.Year),
		Title:        d.Title,
		Author:       d.Author,
	}
}

// Normalize trims the free-text fields in place.
func (d *BookDraft) Normalize() {
	d.Title = strings.TrimSpace(d.Title)
	d.Author = strings.TrimSpace(d.Author)
	if d.ISBN != nil {
		trimmed := strings.TrimSpace(*d.ISBN)
		d.ISBN = &trimmed
	}
}

// Book is a persisted catalog entry scoped to one user and one collection.
// ID and CollectionID never change after the first write.
type Book struct {
	Syncable
	CollectionID string `json:"collection_id"`
	BookDraft
}

// NewBook builds a book for collectionID from a draft.
// The caller assigns the id when the book is persisted.
func NewBook(collectionID string, draft BookDraft) *Book {
	b := &Book{CollectionID: collectionID, BookDraft: draft.Clone()}
	b.InitTimestamps()
	return b
}

// Clone returns a deep copy of the book.
func (b *Book) Clone() *Book {
	if b == nil {
		return nil
	}
	return &Book{
		Syncable:     b.Syncable,
		CollectionID: b.CollectionID,
		BookDraft:    b.BookDraft.Clone(),
	}
}

// Amend replaces the metadata fields with those of draft.
// Identity (ID, CollectionID, CreatedAt) is left alone.
func (b *Book) Amend(draft BookDraft) {
	b.BookDraft = draft.Clone()
	b.Touch()
}

// SearchText returns the text indexed for full-text search.
func (b *Book) SearchText() string {
	parts := []string{b.Title, b.Author}
	if b.Publisher != nil {
		parts = append(parts, *b.Publisher)
	}
	if b.Description != nil {
		parts = append(parts, *b.Description)
	}
	return strings.Join(parts, "\n")
}
