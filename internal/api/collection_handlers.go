package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/popcornapp/popcorn-server/internal/domain"
	"github.com/popcornapp/popcorn-server/internal/service"
)

func (s *Server) registerCollectionRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "listCollection",
		Method:      http.MethodGet,
		Path:        "/api/v1/me/{kind}",
		Summary:     "List collection",
		Description: "Returns the movies in the caller's favorites or watchlist",
		Tags:        []string{"Collections"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleListCollection)

	huma.Register(s.api, huma.Operation{
		OperationID: "getCollectionItem",
		Method:      http.MethodGet,
		Path:        "/api/v1/me/{kind}/{movieId}",
		Summary:     "Get collection item",
		Description: "Reports whether a movie is in the collection and whether a write is still pending",
		Tags:        []string{"Collections"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleGetCollectionItem)

	huma.Register(s.api, huma.Operation{
		OperationID: "addCollectionItem",
		Method:      http.MethodPut,
		Path:        "/api/v1/me/{kind}/{movieId}",
		Summary:     "Add to collection",
		Description: "Adds a catalog movie to the collection. Adding a present movie is a no-op",
		Tags:        []string{"Collections"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleAddCollectionItem)

	huma.Register(s.api, huma.Operation{
		OperationID: "removeCollectionItem",
		Method:      http.MethodDelete,
		Path:        "/api/v1/me/{kind}/{movieId}",
		Summary:     "Remove from collection",
		Description: "Removes a movie from the collection. Removing an absent movie is a no-op",
		Tags:        []string{"Collections"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleRemoveCollectionItem)
}

// === DTOs ===

// CollectionInput identifies a collection of the caller.
type CollectionInput struct {
	Kind string `path:"kind" enum:"favorites,watchlist" doc:"Collection name"`
}

// CollectionItemInput identifies a movie in a collection of the caller.
type CollectionItemInput struct {
	Kind    string `path:"kind" enum:"favorites,watchlist" doc:"Collection name"`
	MovieID string `path:"movieId" doc:"Movie ID"`
}

// CollectionResponse contains a collection's movies.
type CollectionResponse struct {
	Kind   domain.CollectionKind `json:"kind" doc:"Collection name"`
	Movies []MovieResponse       `json:"movies" doc:"Movies in key order"`
}

// CollectionOutput wraps a collection for Huma.
type CollectionOutput struct {
	Body CollectionResponse
}

// CollectionItemOutput wraps an item state for Huma.
type CollectionItemOutput struct {
	Body service.CollectionItem
}

// === Handlers ===

func (s *Server) handleListCollection(ctx context.Context, input *CollectionInput) (*CollectionOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}

	kind := domain.CollectionKind(input.Kind)
	movies, err := s.services.Collections.List(ctx, userID, kind)
	if err != nil {
		return nil, err
	}

	out := make([]MovieResponse, len(movies))
	for i, m := range movies {
		out[i] = toMovieResponse(m)
	}
	return &CollectionOutput{Body: CollectionResponse{Kind: kind, Movies: out}}, nil
}

func (s *Server) handleGetCollectionItem(ctx context.Context, input *CollectionItemInput) (*CollectionItemOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}

	item, err := s.services.Collections.Item(ctx, userID, domain.CollectionKind(input.Kind), input.MovieID)
	if err != nil {
		return nil, err
	}
	return &CollectionItemOutput{Body: *item}, nil
}

func (s *Server) handleAddCollectionItem(ctx context.Context, input *CollectionItemInput) (*CollectionItemOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}

	item, err := s.services.Collections.Add(ctx, userID, domain.CollectionKind(input.Kind), input.MovieID)
	if err != nil {
		return nil, err
	}
	return &CollectionItemOutput{Body: *item}, nil
}

func (s *Server) handleRemoveCollectionItem(ctx context.Context, input *CollectionItemInput) (*CollectionItemOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}

	item, err := s.services.Collections.Remove(ctx, userID, domain.CollectionKind(input.Kind), input.MovieID)
	if err != nil {
		return nil, err
	}
	return &CollectionItemOutput{Body: *item}, nil
}
