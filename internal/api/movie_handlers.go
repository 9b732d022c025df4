package api

import (
	"context"
	"net/http"
	"strings"

	"github.com/danielgtaylor/huma/v2"

	"github.com/popcornapp/popcorn-server/internal/domain"
	"github.com/popcornapp/popcorn-server/internal/search"
	"github.com/popcornapp/popcorn-server/internal/service"
)

func (s *Server) registerMovieRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "listMovies",
		Method:      http.MethodGet,
		Path:        "/api/v1/movies",
		Summary:     "List movies",
		Description: "Returns the current catalog, optionally filtered by a title substring",
		Tags:        []string{"Movies"},
	}, s.handleListMovies)

	huma.Register(s.api, huma.Operation{
		OperationID: "searchMovies",
		Method:      http.MethodGet,
		Path:        "/api/v1/movies/search",
		Summary:     "Search movies",
		Description: "Full-text search over titles and descriptions with genre, rating and year filters",
		Tags:        []string{"Movies"},
	}, s.handleSearchMovies)

	huma.Register(s.api, huma.Operation{
		OperationID: "getMovie",
		Method:      http.MethodGet,
		Path:        "/api/v1/movies/{id}",
		Summary:     "Get movie",
		Description: "Returns a movie with its community rating and, for signed-in users, their own rating and collection state",
		Tags:        []string{"Movies"},
	}, s.handleGetMovie)

	huma.Register(s.api, huma.Operation{
		OperationID: "refreshCatalog",
		Method:      http.MethodPost,
		Path:        "/api/v1/catalog/refresh",
		Summary:     "Refresh catalog",
		Description: "Fetches the catalog from upstream and waits for the result",
		Tags:        []string{"Movies"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleRefreshCatalog)
}

// === DTOs ===

// MovieResponse is a catalog movie with its genre field decoded.
type MovieResponse struct {
	domain.Movie
	Genres     []string `json:"genres,omitempty" doc:"Genre names when the genre field is a JSON list"`
	GenreLabel string   `json:"genre_label" doc:"Display form of the genre field"`
}

func toMovieResponse(m domain.Movie) MovieResponse {
	genres, _ := m.Genres()
	return MovieResponse{Movie: m, Genres: genres, GenreLabel: m.GenreLabel()}
}

// ListMoviesInput contains parameters for listing movies.
type ListMoviesInput struct {
	Query string `query:"q" doc:"Case-insensitive title substring"`
}

// ListMoviesResponse contains the filtered catalog.
type ListMoviesResponse struct {
	Movies []MovieResponse `json:"movies" doc:"Matching movies in catalog order"`
	Total  int             `json:"total" doc:"Number of matches"`
}

// ListMoviesOutput wraps the list response for Huma.
type ListMoviesOutput struct {
	Body ListMoviesResponse
}

// SearchMoviesInput contains parameters for full-text search.
type SearchMoviesInput struct {
	Query     string  `query:"q" doc:"Search text"`
	Genre     string  `query:"genre" doc:"Comma-separated genres, any of which may match"`
	MinRating float64 `query:"min_rating" minimum:"0" maximum:"10" doc:"Minimum upstream rating"`
	MinYear   int     `query:"min_year" doc:"Earliest release year"`
	MaxYear   int     `query:"max_year" doc:"Latest release year"`
	Sort      string  `query:"sort" enum:"relevance,title,rating,year" default:"relevance" doc:"Sort field"`
	Order     string  `query:"order" enum:"asc,desc" default:"desc" doc:"Sort direction"`
	Limit     int     `query:"limit" minimum:"0" maximum:"100" doc:"Page size (default 20)"`
	Offset    int     `query:"offset" minimum:"0" doc:"Results to skip"`
}

// SearchMoviesOutput wraps the search result for Huma.
type SearchMoviesOutput struct {
	Body search.SearchResult
}

// GetMovieInput identifies a movie.
type GetMovieInput struct {
	ID string `path:"id" doc:"Movie ID"`
}

// MovieDetailResponse is a movie with community and personal state.
type MovieDetailResponse struct {
	Movie       MovieResponse                                     `json:"movie" doc:"Catalog entry"`
	Community   *domain.RatingSummary                             `json:"community" doc:"Ratings from every user"`
	UserRating  *int                                              `json:"user_rating,omitempty" doc:"Caller's rating, 0 when unrated"`
	Collections map[domain.CollectionKind]*service.CollectionItem `json:"collections,omitempty" doc:"Caller's favorites and watchlist state"`
}

// MovieDetailOutput wraps the detail response for Huma.
type MovieDetailOutput struct {
	Body MovieDetailResponse
}

// RefreshCatalogOutput wraps the catalog status after a refresh.
type RefreshCatalogOutput struct {
	Body service.CatalogStatus
}

// === Handlers ===

func (s *Server) handleListMovies(_ context.Context, input *ListMoviesInput) (*ListMoviesOutput, error) {
	movies := s.services.Catalog.List(input.Query)

	out := make([]MovieResponse, len(movies))
	for i, m := range movies {
		out[i] = toMovieResponse(m)
	}
	return &ListMoviesOutput{Body: ListMoviesResponse{Movies: out, Total: len(out)}}, nil
}

func (s *Server) handleSearchMovies(ctx context.Context, input *SearchMoviesInput) (*SearchMoviesOutput, error) {
	params := search.DefaultSearchParams()
	params.Query = input.Query
	params.MinRating = input.MinRating
	params.MinYear = input.MinYear
	params.MaxYear = input.MaxYear
	params.Offset = input.Offset
	if input.Limit > 0 {
		params.Limit = input.Limit
	}
	if input.Sort != "" {
		params.SortBy = input.Sort
	}
	if input.Order != "" {
		params.SortOrder = input.Order
	}
	for g := range strings.SplitSeq(input.Genre, ",") {
		if g = strings.TrimSpace(g); g != "" {
			params.Genres = append(params.Genres, g)
		}
	}

	result, err := s.services.Catalog.Search(ctx, params)
	if err != nil {
		return nil, err
	}
	return &SearchMoviesOutput{Body: *result}, nil
}

func (s *Server) handleGetMovie(ctx context.Context, input *GetMovieInput) (*MovieDetailOutput, error) {
	movie, err := s.services.Catalog.Get(input.ID)
	if err != nil {
		return nil, err
	}

	community, err := s.services.Ratings.Summary(ctx, movie.ID)
	if err != nil {
		return nil, err
	}

	resp := MovieDetailResponse{
		Movie:     toMovieResponse(movie),
		Community: community,
	}

	// Personal state only for signed-in callers.
	if userID, err := GetUserID(ctx); err == nil {
		rating, err := s.services.Ratings.Get(ctx, movie.ID, userID)
		if err != nil {
			return nil, err
		}
		resp.UserRating = &rating

		memberships, err := s.services.Collections.Memberships(ctx, userID, movie.ID)
		if err != nil {
			return nil, err
		}
		resp.Collections = memberships
	}

	return &MovieDetailOutput{Body: resp}, nil
}

func (s *Server) handleRefreshCatalog(ctx context.Context, _ *struct{}) (*RefreshCatalogOutput, error) {
	if _, err := GetUserID(ctx); err != nil {
		return nil, err
	}

	select {
	case res := <-s.services.Catalog.Refresh(ctx):
		if res.Err != nil {
			s.logger.Warn("Manual catalog refresh failed", "error", res.Err)
		}
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	return &RefreshCatalogOutput{Body: s.services.Catalog.Status()}, nil
}
