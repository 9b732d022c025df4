package service

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/popcornapp/popcorn-server/internal/auth"
	"github.com/popcornapp/popcorn-server/internal/domain"
	"github.com/popcornapp/popcorn-server/internal/search"
	"github.com/popcornapp/popcorn-server/internal/sse"
	"github.com/popcornapp/popcorn-server/internal/store"
)

var testCatalog = domain.Catalog{
	{ID: "top1", Title: "The Shawshank Redemption", Genre: `["Drama"]`, Rating: 9.3, Year: "1994"},
	{ID: "top2", Title: "The Godfather", Genre: `["Crime","Drama"]`, Rating: 9.2, Year: "1972"},
	{ID: "top13", Title: "Inception", Genre: `["Action","Sci-Fi"]`, Rating: 8.8, Year: "2010"},
}

// stubFetcher returns a fixed catalog or error.
type stubFetcher struct {
	catalog domain.Catalog
	err     error
}

func (f *stubFetcher) Fetch(ctx context.Context) (domain.Catalog, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.catalog, nil
}

type testServices struct {
	store       *store.Store
	hub         *sse.Manager
	fetcher     *stubFetcher
	catalog     *CatalogService
	collections *CollectionService
	social      *SocialService
	ratings     *RatingService
	auth        *AuthService
	profiles    *ProfileService
	settings    *SettingsService
}

// setupTestServices wires every service over a temporary store, a running hub and a loaded catalog.
func setupTestServices(t *testing.T) *testServices {
	t.Helper()

	tmpDir, err := os.MkdirTemp("", "popcorn-service-test-*")
	require.NoError(t, err)

	logger := slog.New(slog.DiscardHandler)
	hub := sse.NewManager(logger)
	s, err := store.New(filepath.Join(tmpDir, "test.db"), logger, hub)
	require.NoError(t, err)
	hub.SetSnapshotLoader(s.Snapshot)

	index, err := search.NewSearchIndex(search.Options{DataPath: tmpDir, Logger: logger})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	go hub.Start(ctx)

	fetcher := &stubFetcher{catalog: testCatalog}
	catalogSvc := NewCatalogService(fetcher, index, hub, 0, logger)
	catalogSvc.Start(ctx)

	key, err := auth.LoadOrGenerateKey(tmpDir)
	require.NoError(t, err)
	tokens, err := auth.NewTokenService(key, 15*time.Minute)
	require.NoError(t, err)
	hasher := auth.NewPasswordHasher(auth.Argon2Params{Memory: 1024, Iterations: 1, Parallelism: 1, SaltLength: 16, KeyLength: 32})

	collections := NewCollectionService(hub, s, catalogSvc, logger)

	svc := &testServices{
		store:       s,
		hub:         hub,
		fetcher:     fetcher,
		catalog:     catalogSvc,
		collections: collections,
		social:      NewSocialService(s, hub, logger),
		ratings:     NewRatingService(s, hub, logger),
		auth:        NewAuthService(s, tokens, hasher, collections, logger),
		profiles:    NewProfileService(s, logger),
		settings:    NewSettingsService(s, logger),
	}

	t.Cleanup(func() {
		collections.Shutdown()
		_ = hub.Shutdown(context.Background())
		cancel()
		_ = index.Close()
		_ = s.Close()
		_ = os.RemoveAll(tmpDir)
	})

	// Block until the initial fetch has been applied.
	require.Eventually(t, func() bool { return catalogSvc.Status().Loaded }, 2*time.Second, 10*time.Millisecond)
	return svc
}

func createTestProfile(t *testing.T, s *store.Store, id, username, first, last string) *domain.UserProfile {
	t.Helper()
	p := &domain.UserProfile{ID: id, Username: username, FirstName: first, LastName: last}
	require.NoError(t, s.SaveProfile(context.Background(), p))
	return p
}
