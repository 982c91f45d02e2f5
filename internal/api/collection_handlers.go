package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/listenupapp/shelf/internal/domain"
)

func (s *Server) registerCollectionRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "listCollections",
		Method:      http.MethodGet,
		Path:        "/api/v1/collections",
		Summary:     "List collections",
		Description: "Returns the caller's collections with their books, newest first",
		Tags:        []string{"Collections"},
	}, s.handleListCollections)

	huma.Register(s.api, huma.Operation{
		OperationID:   "createCollection",
		Method:        http.MethodPost,
		Path:          "/api/v1/collections",
		Summary:       "Create collection",
		Description:   "Creates an empty collection",
		Tags:          []string{"Collections"},
		DefaultStatus: http.StatusCreated,
	}, s.handleCreateCollection)

	huma.Register(s.api, huma.Operation{
		OperationID: "renameCollection",
		Method:      http.MethodPatch,
		Path:        "/api/v1/collections/{id}",
		Summary:     "Rename collection",
		Description: "Changes a collection's name",
		Tags:        []string{"Collections"},
	}, s.handleRenameCollection)

	huma.Register(s.api, huma.Operation{
		OperationID:   "deleteCollection",
		Method:        http.MethodDelete,
		Path:          "/api/v1/collections/{id}",
		Summary:       "Delete collection",
		Description:   "Deletes a collection. With cascade=true its books are deleted too; otherwise they are orphaned and hidden",
		Tags:          []string{"Collections"},
		DefaultStatus: http.StatusNoContent,
	}, s.handleDeleteCollection)

	huma.Register(s.api, huma.Operation{
		OperationID: "selectCollection",
		Method:      http.MethodPut,
		Path:        "/api/v1/selection",
		Summary:     "Select collection",
		Description: "Sets the collection captured books are written to. An empty id clears the selection",
		Tags:        []string{"Collections"},
	}, s.handleSelectCollection)

	huma.Register(s.api, huma.Operation{
		OperationID: "refreshCollections",
		Method:      http.MethodPost,
		Path:        "/api/v1/refresh",
		Summary:     "Refresh",
		Description: "Reloads the caller's catalog from the store",
		Tags:        []string{"Collections"},
	}, s.handleRefresh)
}

// === DTOs ===

// CatalogResponse is the caller's catalog view.
type CatalogResponse struct {
	Collections []*domain.Collection `json:"collections" doc:"Collections, newest first"`
	Selection   string               `json:"selection,omitempty" doc:"Selected collection ID"`
}

// CatalogOutput wraps the catalog view for Huma.
type CatalogOutput struct {
	Body CatalogResponse
}

// ListCollectionsInput contains parameters for listing collections.
type ListCollectionsInput struct {
	UserID string `header:"X-User-ID" doc:"Calling user"`
}

// CreateCollectionRequest is the request body for creating a collection.
type CreateCollectionRequest struct {
	Name string `json:"name" minLength:"1" maxLength:"200" doc:"Collection name"`
}

// CreateCollectionInput wraps the create request for Huma.
type CreateCollectionInput struct {
	UserID string `header:"X-User-ID" doc:"Calling user"`
	Body   CreateCollectionRequest
}

// CollectionOutput wraps a single collection.
type CollectionOutput struct {
	Body *domain.Collection
}

// RenameCollectionInput wraps the rename request for Huma.
type RenameCollectionInput struct {
	UserID string `header:"X-User-ID" doc:"Calling user"`
	ID     string `path:"id" doc:"Collection ID"`
	Body   CreateCollectionRequest
}

// DeleteCollectionInput contains parameters for deleting a collection.
type DeleteCollectionInput struct {
	UserID  string `header:"X-User-ID" doc:"Calling user"`
	ID      string `path:"id" doc:"Collection ID"`
	Cascade bool   `query:"cascade" doc:"Also delete the collection's books"`
}

// SelectCollectionRequest is the request body for changing the selection.
type SelectCollectionRequest struct {
	CollectionID string `json:"collection_id" doc:"Collection to capture into, empty to clear"`
}

// SelectCollectionInput wraps the selection request for Huma.
type SelectCollectionInput struct {
	UserID string `header:"X-User-ID" doc:"Calling user"`
	Body   SelectCollectionRequest
}

// SelectionResponse reports the current selection.
type SelectionResponse struct {
	CollectionID string `json:"collection_id"`
}

// SelectionOutput wraps the selection for Huma.
type SelectionOutput struct {
	Body SelectionResponse
}

// RefreshInput contains parameters for a refresh.
type RefreshInput struct {
	UserID string `header:"X-User-ID" doc:"Calling user"`
}

// === Handlers ===

func (s *Server) handleListCollections(ctx context.Context, input *ListCollectionsInput) (*CatalogOutput, error) {
	sess, err := s.session(ctx, input.UserID)
	if err != nil {
		return nil, err
	}
	return catalogOutput(sess.CurrentCollections(), sess.Selection()), nil
}

func (s *Server) handleCreateCollection(ctx context.Context, input *CreateCollectionInput) (*CollectionOutput, error) {
	sess, err := s.session(ctx, input.UserID)
	if err != nil {
		return nil, err
	}

	c, err := sess.CreateCollection(ctx, input.Body.Name)
	if err != nil {
		return nil, err
	}
	return &CollectionOutput{Body: c}, nil
}

func (s *Server) handleRenameCollection(ctx context.Context, input *RenameCollectionInput) (*CollectionOutput, error) {
	sess, err := s.session(ctx, input.UserID)
	if err != nil {
		return nil, err
	}

	c, err := sess.RenameCollection(ctx, input.ID, input.Body.Name)
	if err != nil {
		return nil, err
	}
	return &CollectionOutput{Body: c}, nil
}

func (s *Server) handleDeleteCollection(ctx context.Context, input *DeleteCollectionInput) (*struct{}, error) {
	sess, err := s.session(ctx, input.UserID)
	if err != nil {
		return nil, err
	}

	if err := sess.DeleteCollection(ctx, input.ID, input.Cascade); err != nil {
		s.logger.Warn("delete collection failed", "user_id", input.UserID, "collection_id", input.ID, "error", err)
		return nil, err
	}
	return nil, nil
}

func (s *Server) handleSelectCollection(ctx context.Context, input *SelectCollectionInput) (*SelectionOutput, error) {
	sess, err := s.session(ctx, input.UserID)
	if err != nil {
		return nil, err
	}

	if err := sess.SelectCollection(input.Body.CollectionID); err != nil {
		return nil, err
	}
	return &SelectionOutput{Body: SelectionResponse{CollectionID: sess.Selection()}}, nil
}

func (s *Server) handleRefresh(ctx context.Context, input *RefreshInput) (*CatalogOutput, error) {
	sess, err := s.session(ctx, input.UserID)
	if err != nil {
		return nil, err
	}

	if err := sess.Refresh(ctx); err != nil {
		return nil, err
	}
	return catalogOutput(sess.CurrentCollections(), sess.Selection()), nil
}

func catalogOutput(collections []*domain.Collection, selection string) *CatalogOutput {
	if collections == nil {
		collections = []*domain.Collection{}
	}
	return &CatalogOutput{Body: CatalogResponse{Collections: collections, Selection: selection}}
}
