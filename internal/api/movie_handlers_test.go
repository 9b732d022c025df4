package api

import (
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/popcornapp/popcorn-server/internal/search"
	"github.com/popcornapp/popcorn-server/internal/service"
)

func TestMovies_List(t *testing.T) {
	ts := setupTestServer(t)

	resp := ts.api.Get("/api/v1/movies")
	require.Equal(t, http.StatusOK, resp.Code)

	env := decode[ListMoviesResponse](t, resp)
	require.Equal(t, 3, env.Data.Total)
	assert.Equal(t, "top1", env.Data.Movies[0].ID)
	assert.Equal(t, []string{"Drama"}, env.Data.Movies[0].Genres)
	assert.Equal(t, "1972", env.Data.Movies[1].Year)
	assert.Equal(t, "Action, Sci-Fi", env.Data.Movies[2].GenreLabel)

	env = decode[ListMoviesResponse](t, ts.api.Get("/api/v1/movies?q=GOD"))
	require.Equal(t, 1, env.Data.Total)
	assert.Equal(t, "The Godfather", env.Data.Movies[0].Title)

	env = decode[ListMoviesResponse](t, ts.api.Get("/api/v1/movies?q=incep%20"))
	assert.Zero(t, env.Data.Total)

	env = decode[ListMoviesResponse](t, ts.api.Get("/api/v1/movies?q=zzz"))
	assert.Zero(t, env.Data.Total)
	assert.NotNil(t, env.Data.Movies)
}

func TestMovies_Search(t *testing.T) {
	ts := setupTestServer(t)

	var result search.SearchResult
	require.Eventually(t, func() bool {
		env := decode[search.SearchResult](t, ts.api.Get("/api/v1/movies/search?q=dream"))
		result = env.Data
		return result.Total == 1
	}, 5*time.Second, 20*time.Millisecond)
	assert.Equal(t, "top13", result.Hits[0].ID)

	env := decode[search.SearchResult](t, ts.api.Get("/api/v1/movies/search?genre=Drama&sort=year&order=asc"))
	require.Len(t, env.Data.Hits, 2)
	assert.Equal(t, "top2", env.Data.Hits[0].ID)

	resp := ts.api.Get("/api/v1/movies/search?sort=bogus")
	assert.Equal(t, http.StatusUnprocessableEntity, resp.Code)
}

func TestMovies_GetDetail(t *testing.T) {
	ts := setupTestServer(t)

	resp := ts.api.Get("/api/v1/movies/top1")
	require.Equal(t, http.StatusOK, resp.Code)
	anon := decode[MovieDetailResponse](t, resp)
	assert.Equal(t, "The Shawshank Redemption", anon.Data.Movie.Title)
	require.NotNil(t, anon.Data.Community)
	assert.Zero(t, anon.Data.Community.Count)
	assert.Nil(t, anon.Data.UserRating)
	assert.Empty(t, anon.Data.Collections)

	bearer, _ := ts.signup(t, "ada@example.com", "ada")
	require.Equal(t, http.StatusOK, ts.api.Put("/api/v1/movies/top1/rating", bearer, map[string]any{"rating": 4}).Code)

	type detail struct {
		UserRating  *int `json:"user_rating"`
		Collections map[string]struct {
			InList bool   `json:"in_list"`
			State  string `json:"state"`
		} `json:"collections"`
	}
	me := decode[detail](t, ts.api.Get("/api/v1/movies/top1", bearer))
	require.NotNil(t, me.Data.UserRating)
	assert.Equal(t, 4, *me.Data.UserRating)
	require.Contains(t, me.Data.Collections, "favorites")
	assert.False(t, me.Data.Collections["favorites"].InList)
	assert.Equal(t, "idle", me.Data.Collections["watchlist"].State)
}

func TestMovies_GetUnknown(t *testing.T) {
	ts := setupTestServer(t)

	resp := ts.api.Get("/api/v1/movies/nope")
	require.Equal(t, http.StatusNotFound, resp.Code)

	env := decode[any](t, resp)
	assert.False(t, env.Success)
	require.NotNil(t, env.Error)
	assert.Equal(t, "NOT_FOUND", env.Error.Code)
}

func TestCatalog_Refresh(t *testing.T) {
	ts := setupTestServer(t)

	resp := ts.api.Post("/api/v1/catalog/refresh")
	assert.Equal(t, http.StatusUnauthorized, resp.Code)

	bearer, _ := ts.signup(t, "ada@example.com", "ada")
	resp = ts.api.Post("/api/v1/catalog/refresh", bearer)
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())

	env := decode[service.CatalogStatus](t, resp)
	assert.True(t, env.Data.Loaded)
	assert.Equal(t, 3, env.Data.Movies)
	assert.Empty(t, env.Data.LastError)
}
