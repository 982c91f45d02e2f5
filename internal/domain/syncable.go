package domain

import "time"

// Syncable provides the identity and timestamps shared by persisted catalog entities.
// ID is empty until the entity has been written to the store for the first time.
type Syncable struct {
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	ID        string    `json:"id"`
}

// Touch updates the UpdatedAt timestamp to the current time.
func (s *Syncable) Touch() {
	s.UpdatedAt = time.Now()
}

// InitTimestamps sets both CreatedAt and UpdatedAt to now.
// Call this when creating a new entity.
func (s *Syncable) InitTimestamps() {
	now := time.Now()
	s.CreatedAt = now
	s.UpdatedAt = now
}

// IsPersisted reports whether the entity has been assigned a store id.
func (s *Syncable) IsPersisted() bool {
	return s.ID != ""
}

// Ptr returns a pointer to v. Used for optional book fields.
func Ptr[T any](v T) *T {
	return &v
}

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
