// Package metadata holds the types shared by the book metadata provider clients.
package metadata

import (
	"errors"
	"fmt"
	"net/http"
)

// Sentinel errors returned by provider clients.
var (
	ErrNotFound    = errors.New("metadata: not found")
	ErrRateLimited = errors.New("metadata: rate limited by server")
	ErrBadRequest  = errors.New("metadata: bad request")
	ErrServer      = errors.New("metadata: server error")
	ErrMalformed   = errors.New("metadata: malformed response")
)

// Candidate is one provider search hit, before mapping into a book draft.
// Empty strings mean the provider did not supply the field.
type Candidate struct {
	Title         string
	Authors       []string
	Publisher     string
	PublishedDate string
	Description   string
	ThumbnailURL  string
	ISBN          string
}

// Error wraps an underlying error with operation context.
type Error struct {
	Provider string // googlebooks, openlibrary, itunes
	Op       string // isbn, title
	Query    string
	Err      error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s %s [%s]: %v", e.Provider, e.Op, e.Query, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// WrapError creates an Error with context.
func WrapError(provider, op, query string, err error) error {
	return &Error{Provider: provider, Op: op, Query: query, Err: err}
}

// StatusError maps an HTTP status to a sentinel error. 200 maps to nil.
func StatusError(status int) error {
	switch {
	case status == http.StatusOK:
		return nil
	case status == http.StatusNotFound:
		return ErrNotFound
	case status == http.StatusTooManyRequests:
		return ErrRateLimited
	case status == http.StatusBadRequest:
		return ErrBadRequest
	case status >= http.StatusInternalServerError:
		return ErrServer
	default:
		return fmt.Errorf("unexpected status %d", status)
	}
}
