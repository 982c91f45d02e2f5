// Package sse implements Server-Sent Events for streaming catalog and capture updates to UI surfaces.
package sse

import (
	"time"

	"github.com/google/uuid"

	"github.com/listenupapp/shelf/internal/domain"
)

// EventType represents the type of SSE Event.
type EventType string

const (
	// EventCollectionCreated represents a collection creation event.
	EventCollectionCreated EventType = "collection.created"
	// EventCollectionRenamed represents a collection rename event.
	EventCollectionRenamed EventType = "collection.renamed"
	// EventCollectionDeleted represents a collection deletion event.
	EventCollectionDeleted EventType = "collection.deleted"

	// EventBookAdded represents a book being written into a collection.
	EventBookAdded EventType = "book.added"
	// EventBookUpdated represents amended book metadata.
	EventBookUpdated EventType = "book.updated"
	// EventBookDeleted represents a book deletion event.
	EventBookDeleted EventType = "book.deleted"

	// EventCapture represents a lookup key changing state in the capture pipeline.
	EventCapture EventType = "capture.transition"

	// EventSelectionChanged represents the target collection for captures changing.
	EventSelectionChanged EventType = "selection.changed"

	// EventHeartbeat represents a connection keepalive event.
	EventHeartbeat EventType = "heartbeat"
)

// Event represents an SSE event to be sent to clients.
// The Data field contains the event payload as a JSON object for direct deserialization.
type Event struct {
	Timestamp time.Time `json:"timestamp"`
	Data      any       `json:"data"`
	ID        string    `json:"id"`
	Type      EventType `json:"type"`

	// UserID restricts delivery to one user's clients. Empty means broadcast.
	UserID string `json:"-"`
}

func newEvent(userID string, t EventType, data any) Event {
	return Event{
		ID:        uuid.NewString(),
		Type:      t,
		Data:      data,
		Timestamp: time.Now(),
		UserID:    userID,
	}
}

// CollectionEventData is the data payload for collection events.
type CollectionEventData struct {
	CreatedAt time.Time `json:"created_at,omitzero"`
	ID        string    `json:"id"`
	Name      string    `json:"name,omitempty"`
	BookCount int       `json:"book_count"`
	Cascade   bool      `json:"cascade,omitempty"`
}

// BookEventData is the data payload for book add and update events.
type BookEventData struct {
	Book *domain.Book `json:"book"`
}

// BookDeletedEventData is the data payload for book delete events.
type BookDeletedEventData struct {
	DeletedAt    time.Time `json:"deleted_at"`
	CollectionID string    `json:"collection_id"`
	BookID       string    `json:"book_id"`
}

// CaptureEventData is the data payload for capture transitions.
// Book is set when a key settles successfully, Error when it fails.
type CaptureEventData struct {
	Book         *domain.Book `json:"book,omitempty"`
	Key          string       `json:"key"`
	KeyKind      string       `json:"key_kind"`
	State        string       `json:"state"`
	Result       string       `json:"result,omitempty"`
	Reason       string       `json:"reason,omitempty"`
	Error        string       `json:"error,omitempty"`
	CollectionID string       `json:"collection_id,omitempty"`
}

// SelectionEventData is the data payload for selection changes.
type SelectionEventData struct {
	CollectionID string `json:"collection_id"`
}

// HeartbeatEventData is the data payload for heartbeat events.
type HeartbeatEventData struct {
	ServerTime time.Time `json:"server_time"`
}

// NewCollectionCreatedEvent creates a collection.created event.
func NewCollectionCreatedEvent(userID string, c *domain.Collection) Event {
	return newEvent(userID, EventCollectionCreated, CollectionEventData{
		ID:        c.ID,
		Name:      c.Name,
		BookCount: len(c.Books),
		CreatedAt: c.CreatedAt,
	})
}

// NewCollectionRenamedEvent creates a collection.renamed event.
func NewCollectionRenamedEvent(userID string, c *domain.Collection) Event {
	return newEvent(userID, EventCollectionRenamed, CollectionEventData{
		ID:        c.ID,
		Name:      c.Name,
		BookCount: len(c.Books),
	})
}

// NewCollectionDeletedEvent creates a collection.deleted event.
func NewCollectionDeletedEvent(userID, collectionID string, cascade bool) Event {
	return newEvent(userID, EventCollectionDeleted, CollectionEventData{
		ID:      collectionID,
		Cascade: cascade,
	})
}

// NewBookAddedEvent creates a book.added event.
func NewBookAddedEvent(userID string, b *domain.Book) Event {
	return newEvent(userID, EventBookAdded, BookEventData{Book: b.Clone()})
}

// NewBookUpdatedEvent creates a book.updated event.
func NewBookUpdatedEvent(userID string, b *domain.Book) Event {
	return newEvent(userID, EventBookUpdated, BookEventData{Book: b.Clone()})
}

// NewBookDeletedEvent creates a book.deleted event.
func NewBookDeletedEvent(userID, collectionID, bookID string) Event {
	return newEvent(userID, EventBookDeleted, BookDeletedEventData{
		CollectionID: collectionID,
		BookID:       bookID,
		DeletedAt:    time.Now(),
	})
}

// NewCaptureEvent creates a capture.transition event.
func NewCaptureEvent(userID string, data CaptureEventData) Event {
	return newEvent(userID, EventCapture, data)
}

// NewSelectionChangedEvent creates a selection.changed event.
func NewSelectionChangedEvent(userID, collectionID string) Event {
	return newEvent(userID, EventSelectionChanged, SelectionEventData{CollectionID: collectionID})
}

// NewHeartbeatEvent creates a heartbeat event.
func NewHeartbeatEvent() Event {
	return newEvent("", EventHeartbeat, HeartbeatEventData{ServerTime: time.Now()})
}
