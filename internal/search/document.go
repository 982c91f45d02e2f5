// Package search provides full-text search over users' catalogs using Bleve.
// One index holds every user's books; each query is filtered to its user.
package search

import (
	"strconv"

	"github.com/listenupapp/shelf/internal/domain"
)

// BookDocument is the indexed form of a book.
type BookDocument struct {
	ID           string
	UserID       string
	CollectionID string
	Title        string
	Author       string
	Publisher    string
	Description  string
	ISBN         string
	Year         int
	CreatedAt    int64 // Unix millis
}

// docID scopes a book id to its user so two users can never collide.
func docID(userID, bookID string) string {
	return userID + "/" + bookID
}

// NewBookDocument builds the index document for a book owned by userID.
func NewBookDocument(userID string, b *domain.Book) *BookDocument {
	doc := &BookDocument{
		ID:           b.ID,
		UserID:       userID,
		CollectionID: b.CollectionID,
		Title:        b.Title,
		Author:       b.Author,
		CreatedAt:    b.CreatedAt.UnixMilli(),
	}
	if b.Publisher != nil {
		doc.Publisher = *b.Publisher
	}
	if b.Description != nil {
		doc.Description = *b.Description
	}
	if b.ISBN != nil {
		doc.ISBN = *b.ISBN
	}
	if b.Year != nil {
		if y, err := strconv.Atoi(*b.Year); err == nil {
			doc.Year = y
		}
	}
	return doc
}

// ToMap converts the document to a map with lowercase field names.
// This ensures field names match the Bleve index mapping.
func (d *BookDocument) ToMap() map[string]any {
	m := map[string]any{
		"id":            d.ID,
		"user_id":       d.UserID,
		"collection_id": d.CollectionID,
		"name":          d.Title,
		"author":        d.Author,
		"created_at":    d.CreatedAt,
	}
	if d.Publisher != "" {
		m["publisher"] = d.Publisher
	}
	if d.Description != "" {
		m["description"] = d.Description
	}
	if d.ISBN != "" {
		m["isbn"] = d.ISBN
	}
	if d.Year > 0 {
		m["publish_year"] = d.Year
	}
	return m
}
