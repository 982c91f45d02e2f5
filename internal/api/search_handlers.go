package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/listenupapp/shelf/internal/search"
)

func (s *Server) registerSearchRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "searchBooks",
		Method:      http.MethodGet,
		Path:        "/api/v1/search",
		Summary:     "Search books",
		Description: "Full-text search over the caller's books by title, author, publisher, description and ISBN",
		Tags:        []string{"Search"},
	}, s.handleSearch)
}

// SearchInput contains search parameters.
type SearchInput struct {
	UserID       string `header:"X-User-ID" doc:"Calling user"`
	Query        string `query:"q" doc:"Search text; empty lists the newest books"`
	CollectionID string `query:"collection_id" doc:"Restrict to one collection"`
	Limit        int    `query:"limit" minimum:"0" maximum:"100" default:"20" doc:"Page size"`
	Offset       int    `query:"offset" minimum:"0" doc:"Results to skip"`
	Highlight    bool   `query:"highlight" doc:"Return highlighted fragments"`
}

// SearchOutput wraps the search result for Huma.
type SearchOutput struct {
	Body *search.SearchResult
}

func (s *Server) handleSearch(ctx context.Context, input *SearchInput) (*SearchOutput, error) {
	if input.UserID == "" {
		return nil, huma.Error401Unauthorized("Missing " + userHeader + " header")
	}
	if s.services.Search == nil {
		return nil, huma.Error503ServiceUnavailable("search is not available")
	}

	result, err := s.services.Search.Search(ctx, search.SearchParams{
		UserID:       input.UserID,
		Query:        input.Query,
		CollectionID: input.CollectionID,
		Limit:        input.Limit,
		Offset:       input.Offset,
		Highlight:    input.Highlight,
	})
	if err != nil {
		s.logger.Error("search failed", "user_id", input.UserID, "error", err)
		return nil, huma.Error500InternalServerError("search failed")
	}
	return &SearchOutput{Body: result}, nil
}
