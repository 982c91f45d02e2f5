package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/listenupapp/shelf/internal/domain"
)

func (s *Server) registerBookRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID:   "addBook",
		Method:        http.MethodPost,
		Path:          "/api/v1/collections/{id}/books",
		Summary:       "Add book",
		Description:   "Adds a book with fully known metadata to a collection, skipping lookup",
		Tags:          []string{"Books"},
		DefaultStatus: http.StatusCreated,
	}, s.handleAddBook)

	huma.Register(s.api, huma.Operation{
		OperationID: "updateBook",
		Method:      http.MethodPatch,
		Path:        "/api/v1/collections/{id}/books/{bookId}",
		Summary:     "Update book",
		Description: "Replaces a stored book's metadata. Its id and collection are kept",
		Tags:        []string{"Books"},
	}, s.handleUpdateBook)

	huma.Register(s.api, huma.Operation{
		OperationID:   "deleteBook",
		Method:        http.MethodDelete,
		Path:          "/api/v1/collections/{id}/books/{bookId}",
		Summary:       "Delete book",
		Description:   "Deletes a book. Deleting a missing book succeeds",
		Tags:          []string{"Books"},
		DefaultStatus: http.StatusNoContent,
	}, s.handleDeleteBook)
}

// === DTOs ===

// AddBookRequest is a manually entered book.
type AddBookRequest struct {
	ISBN         *string `json:"isbn,omitempty" validate:"omitempty,shelfisbn" doc:"ISBN-10 or ISBN-13, hyphens allowed"`
	ThumbnailURL *string `json:"thumbnail_url,omitempty" validate:"omitempty,url" doc:"Cover image URL"`
	Description  *string `json:"description,omitempty" validate:"omitempty,max=10000" doc:"Description (markdown)"`
	Publisher    *string `json:"publisher,omitempty" validate:"omitempty,max=200" doc:"Publisher"`
	Year         *string `json:"year,omitempty" validate:"omitempty,len=4,numeric" doc:"Four-digit publication year"`
	Title        string  `json:"title" validate:"notblank,max=500" doc:"Title"`
	Author       string  `json:"author,omitempty" validate:"max=300" doc:"Primary author"`
}

func (r AddBookRequest) draft() domain.BookDraft {
	return domain.BookDraft{
		ISBN:         r.ISBN,
		ThumbnailURL: r.ThumbnailURL,
		Description:  r.Description,
		Publisher:    r.Publisher,
		Year:         r.Year,
		Title:        r.Title,
		Author:       r.Author,
	}
}

// AddBookInput wraps the add request for Huma.
type AddBookInput struct {
	UserID       string `header:"X-User-ID" doc:"Calling user"`
	CollectionID string `path:"id" doc:"Collection ID"`
	Body         AddBookRequest
}

// UpdateBookInput wraps the amend request for Huma.
type UpdateBookInput struct {
	UserID       string `header:"X-User-ID" doc:"Calling user"`
	CollectionID string `path:"id" doc:"Collection ID"`
	BookID       string `path:"bookId" doc:"Book ID"`
	Body         AddBookRequest
}

// BookOutput wraps a single book.
type BookOutput struct {
	Body *domain.Book
}

// DeleteBookInput contains parameters for deleting a book.
type DeleteBookInput struct {
	UserID       string `header:"X-User-ID" doc:"Calling user"`
	CollectionID string `path:"id" doc:"Collection ID"`
	BookID       string `path:"bookId" doc:"Book ID"`
}

// === Handlers ===

func (s *Server) handleAddBook(ctx context.Context, input *AddBookInput) (*BookOutput, error) {
	if err := s.validator.Validate(input.Body); err != nil {
		return nil, err
	}

	sess, err := s.session(ctx, input.UserID)
	if err != nil {
		return nil, err
	}

	book, err := sess.AddBookToCollection(ctx, input.CollectionID, input.Body.draft())
	if err != nil {
		return nil, err
	}
	return &BookOutput{Body: book}, nil
}

func (s *Server) handleUpdateBook(ctx context.Context, input *UpdateBookInput) (*BookOutput, error) {
	if err := s.validator.Validate(input.Body); err != nil {
		return nil, err
	}

	sess, err := s.session(ctx, input.UserID)
	if err != nil {
		return nil, err
	}

	book, err := sess.UpdateBook(ctx, input.CollectionID, input.BookID, input.Body.draft())
	if err != nil {
		return nil, err
	}
	return &BookOutput{Body: book}, nil
}

func (s *Server) handleDeleteBook(ctx context.Context, input *DeleteBookInput) (*struct{}, error) {
	sess, err := s.session(ctx, input.UserID)
	if err != nil {
		return nil, err
	}

	if err := sess.DeleteBook(ctx, input.CollectionID, input.BookID); err != nil {
		return nil, err
	}
	return nil, nil
}
