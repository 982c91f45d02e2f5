package store

import (
	"errors"
	"strings"

	domainerrors "github.com/listenupapp/shelf/internal/errors"
)

var (
	// ErrCollectionNotFound is returned when a collection is not found in the store.
	ErrCollectionNotFound = errors.New("collection not found")
	// ErrBookNotFound is returned when a book is not found in the store.
	ErrBookNotFound = errors.New("book not found")
	// ErrEmptyName is returned when a collection name is blank.
	ErrEmptyName = errors.New("collection name is required")
)

// CollectionNotFound reports a missing collection as a domain NotFound error.
// errors.Is matches both ErrCollectionNotFound and errors.ErrNotFound.
func CollectionNotFound(collectionID string) error {
	return domainerrors.NotFoundf("collection %s not found", collectionID).WithCause(ErrCollectionNotFound)
}

// BookNotFound reports a missing book as a domain NotFound error.
func BookNotFound(bookID string) error {
	return domainerrors.NotFoundf("book %s not found", bookID).WithCause(ErrBookNotFound)
}

// ValidateName trims and checks a collection name.
func ValidateName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", domainerrors.Validation(ErrEmptyName.Error()).WithCause(ErrEmptyName)
	}
	return name, nil
}

// IsNotFound reports whether err is any not-found condition.
func IsNotFound(err error) bool {
	return errors.Is(err, domainerrors.ErrNotFound)
}
