package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/popcornapp/popcorn-server/internal/domain"
)

func (s *Server) registerRatingRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "getRating",
		Method:      http.MethodGet,
		Path:        "/api/v1/movies/{id}/rating",
		Summary:     "Get own rating",
		Description: "Returns the caller's rating of a movie, 0 when unrated",
		Tags:        []string{"Ratings"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleGetRating)

	huma.Register(s.api, huma.Operation{
		OperationID: "submitRating",
		Method:      http.MethodPut,
		Path:        "/api/v1/movies/{id}/rating",
		Summary:     "Rate movie",
		Description: "Sets the caller's rating of a movie, replacing any earlier rating",
		Tags:        []string{"Ratings"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleSubmitRating)
}

// === DTOs ===

// RatingInput identifies a movie.
type RatingInput struct {
	ID string `path:"id" doc:"Movie ID"`
}

// SubmitRatingRequest is the request body for rating a movie.
type SubmitRatingRequest struct {
	Rating int `json:"rating" minimum:"0" maximum:"5" doc:"Stars, 0 to 5"`
}

// SubmitRatingInput wraps the rating request for Huma.
type SubmitRatingInput struct {
	ID   string `path:"id" doc:"Movie ID"`
	Body SubmitRatingRequest
}

// RatingResponse is the caller's rating.
type RatingResponse struct {
	MovieID string `json:"movie_id" doc:"Movie ID"`
	Rating  int    `json:"rating" doc:"Stars, 0 when unrated"`
}

// RatingOutput wraps the rating for Huma.
type RatingOutput struct {
	Body RatingResponse
}

// === Handlers ===

func (s *Server) handleGetRating(ctx context.Context, input *RatingInput) (*RatingOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}

	rating, err := s.services.Ratings.Get(ctx, input.ID, userID)
	if err != nil {
		return nil, err
	}
	return &RatingOutput{Body: RatingResponse{MovieID: input.ID, Rating: rating}}, nil
}

func (s *Server) handleSubmitRating(ctx context.Context, input *SubmitRatingInput) (*RatingOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}

	// Bounds are enforced by the schema; keep the check for callers that bypass it.
	rating := min(max(input.Body.Rating, domain.MinRating), domain.MaxRating)
	if err := s.services.Ratings.Submit(ctx, input.ID, userID, rating); err != nil {
		return nil, err
	}
	return &RatingOutput{Body: RatingResponse{MovieID: input.ID, Rating: rating}}, nil
}
