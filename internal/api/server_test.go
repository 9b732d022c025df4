package api

import (
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/danielgtaylor/huma/v2/humatest"
	json "github.com/goccy/go-json"
	"github.com/stretchr/testify/require"

	"github.com/popcornapp/popcorn-server/internal/auth"
	"github.com/popcornapp/popcorn-server/internal/catalog"
	"github.com/popcornapp/popcorn-server/internal/config"
	"github.com/popcornapp/popcorn-server/internal/http/response"
	"github.com/popcornapp/popcorn-server/internal/search"
	"github.com/popcornapp/popcorn-server/internal/service"
	"github.com/popcornapp/popcorn-server/internal/sse"
	"github.com/popcornapp/popcorn-server/internal/store"
)

// upstreamCatalog is served by the fake movie API.
const upstreamCatalog = `[
  {"rank": 1, "title": "The Shawshank Redemption", "description": "Two imprisoned men bond over a number of years.",
   "genre": ["Drama"], "rating": 9.3, "id": "top1", "year": 1994,
   "images": [["thumb", "https://example.com/shawshank.jpg"]]},
  {"rank": 2, "title": "The Godfather", "description": "The aging patriarch of an organized crime dynasty transfers control.",
   "genre": ["Crime", "Drama"], "rating": 9.2, "id": "top2", "year": "1972",
   "images": [["thumb", "https://example.com/godfather.jpg"]]},
  {"rank": 13, "title": "Inception", "description": "A thief who steals corporate secrets through dream-sharing technology.",
   "genre": "[\"Action\",\"Sci-Fi\"]", "rating": "8.8", "id": "top13", "year": 2010,
   "images": [["thumb", "https://example.com/inception.jpg"]]}
]`

// testServer wraps the API server with its collaborators.
type testServer struct {
	*Server
	api      humatest.TestAPI
	store    *store.Store
	hub      *sse.Manager
	services *Services
}

// setupTestServer builds the full HTTP stack over a temporary store and a fake upstream catalog.
func setupTestServer(t *testing.T) *testServer {
	t.Helper()

	tmpDir, err := os.MkdirTemp("", "popcorn-api-test-*")
	require.NoError(t, err)

	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(upstreamCatalog))
	}))

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))

	hub := sse.NewManager(logger)
	st, err := store.New(filepath.Join(tmpDir, "test.db"), logger, hub)
	require.NoError(t, err)
	hub.SetSnapshotLoader(st.Snapshot)

	index, err := search.NewSearchIndex(search.Options{DataPath: tmpDir, Logger: logger})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	go hub.Start(ctx)

	client := catalog.NewClient(config.CatalogConfig{URL: upstream.URL + "/", Timeout: 5 * time.Second}, logger)
	catalogSvc := service.NewCatalogService(client, index, hub, 0, logger)
	catalogSvc.Start(ctx)

	key, err := auth.LoadOrGenerateKey(tmpDir)
	require.NoError(t, err)
	tokens, err := auth.NewTokenService(key, 15*time.Minute)
	require.NoError(t, err)
	hasher := auth.NewPasswordHasher(auth.Argon2Params{Memory: 1024, Iterations: 1, Parallelism: 1, SaltLength: 16, KeyLength: 32})

	collections := service.NewCollectionService(hub, st, catalogSvc, logger)
	services := &Services{
		Auth:        service.NewAuthService(st, tokens, hasher, collections, logger),
		Catalog:     catalogSvc,
		Collections: collections,
		Social:      service.NewSocialService(st, hub, logger),
		Ratings:     service.NewRatingService(st, hub, logger),
		Profile:     service.NewProfileService(st, logger),
		Settings:    service.NewSettingsService(st, logger),
	}

	server := NewServer(st, services, hub, Options{Version: "test"}, logger)

	t.Cleanup(func() {
		server.Close()
		collections.Shutdown()
		_ = hub.Shutdown(context.Background())
		cancel()
		upstream.Close()
		_ = index.Close()
		_ = st.Close()
		_ = os.RemoveAll(tmpDir)
	})

	require.Eventually(t, func() bool { return catalogSvc.Status().Loaded }, 5*time.Second, 10*time.Millisecond)

	return &testServer{
		Server:   server,
		api:      humatest.Wrap(t, server.API()),
		store:    st,
		hub:      hub,
		services: services,
	}
}

// envelope is a decoded response with typed data.
type envelope[T any] struct {
	Version int                 `json:"v"`
	Success bool                `json:"success"`
	Data    T                   `json:"data"`
	Error   *response.ErrorBody `json:"error"`
}

func decode[T any](t *testing.T, resp *httptest.ResponseRecorder) envelope[T] {
	t.Helper()
	var env envelope[T]
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &env), resp.Body.String())
	return env
}

// signup creates a user through the API and returns the bearer header and user id.
func (ts *testServer) signup(t *testing.T, email, username string) (string, string) {
	t.Helper()

	resp := ts.api.Post("/api/v1/auth/signup", map[string]any{
		"email":     email,
		"password":  "correct horse battery",
		"username":  username,
		"firstName": "Test",
		"lastName":  "User",
	})
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())

	env := decode[service.AuthResponse](t, resp)
	require.True(t, env.Success)
	return "Authorization: Bearer " + env.Data.AccessToken, env.Data.User.ID
}
