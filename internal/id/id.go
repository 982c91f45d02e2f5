package id

import (
	"fmt"

	gonanoid "github.com/matoous/go-nanoid/v2"
)

// Prefixes for catalog entities.
const (
	PrefixCollection = "coll"
	PrefixBook       = "book"
)

// Generate creates a prefixed unique ID using NanoID.
// Format: prefix-nanoid (e.g., "coll-V1StGXR8_Z5jdHi6B-myT").
//
// Returns an error if the system has insufficient entropy for secure random generation.
func Generate(prefix string) (string, error) {
	id, err := gonanoid.New()
	if err != nil {
		return "", fmt.Errorf("generate nanoid: %w", err)
	}
	return prefix + "-" + id, nil
}

// MustGenerate is like Generate but panics if ID generation fails.
func MustGenerate(prefix string) string {
	id, err := Generate(prefix)
	if err != nil {
		panic(fmt.Sprintf("failed to generate ID: %v", err))
	}
	return id
}

// Collection returns a new collection id.
func Collection() (string, error) { return Generate(PrefixCollection) }

// Book returns a new book id.
func Book() (string, error) { return Generate(PrefixBook) }
