package store_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/popcornapp/popcorn-server/internal/domain"
	"github.com/popcornapp/popcorn-server/internal/store"
)

func TestProfiles(t *testing.T) {
	s, cleanup := setupTestStore(t)
	defer cleanup()
	ctx := context.Background()

	require.NoError(t, s.SaveProfile(ctx, &domain.UserProfile{ID: "u2", Username: "bob"}))
	require.NoError(t, s.SaveProfile(ctx, &domain.UserProfile{ID: "u1", Username: "ada", FirstName: "Ada"}))
	require.NoError(t, s.Set(ctx, "users/broken", "not a profile"))
	// Collections under a user must not show up as profiles.
	require.NoError(t, s.AddToCollection(ctx, "u1", domain.CollectionFavorites, domain.Movie{ID: "tt1"}))

	got, err := s.GetProfile(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, "Ada", got.FirstName)

	profiles, err := s.ListProfiles(ctx)
	require.NoError(t, err)
	require.Len(t, profiles, 2)
	assert.Equal(t, "u1", profiles[0].ID)
	assert.Equal(t, "u2", profiles[1].ID)

	exists, err := s.ProfileExists(ctx, "u3")
	require.NoError(t, err)
	assert.False(t, exists)

	assert.ErrorIs(t, s.SaveProfile(ctx, &domain.UserProfile{}), store.ErrInvalidPath)
}

func TestConnections_KeyedByTarget(t *testing.T) {
	s, cleanup := setupTestStore(t)
	defer cleanup()
	ctx := context.Background()

	require.NoError(t, s.AddConnection(ctx, "u1", "u2"))
	require.NoError(t, s.AddConnection(ctx, "u1", "u2"))
	require.NoError(t, s.AddConnection(ctx, "u1", "u3"))

	targets, err := s.Connections(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, []string{"u2", "u3"}, targets)

	connected, err := s.IsConnected(ctx, "u1", "u2")
	require.NoError(t, err)
	assert.True(t, connected)

	// Connections are directed.
	connected, err = s.IsConnected(ctx, "u2", "u1")
	require.NoError(t, err)
	assert.False(t, connected)
}

func TestConnections_RemoveCleansLegacyEdges(t *testing.T) {
	s, cleanup := setupTestStore(t)
	defer cleanup()
	ctx := context.Background()

	require.NoError(t, s.AddConnection(ctx, "u1", "u2"))
	_, err := s.Push(ctx, domain.ConnectionsPath("u1"), "u2")
	require.NoError(t, err)

	removed, err := s.RemoveConnection(ctx, "u1", "u2")
	require.NoError(t, err)
	assert.Equal(t, 2, removed)

	targets, err := s.Connections(ctx, "u1")
	require.NoError(t, err)
	assert.Empty(t, targets)

	removed, err = s.RemoveConnection(ctx, "u1", "u2")
	require.NoError(t, err)
	assert.Zero(t, removed)
}

func TestRatings(t *testing.T) {
	s, cleanup := setupTestStore(t)
	defer cleanup()
	ctx := context.Background()

	_, err := s.GetRating(ctx, "tt1", "u1")
	assert.ErrorIs(t, err, store.ErrNotFound)

	require.NoError(t, s.SetRating(ctx, "tt1", "u1", 4))
	require.NoError(t, s.SetRating(ctx, "tt1", "u1", 3))
	require.NoError(t, s.SetRating(ctx, "tt1", "u2", 5))

	v, err := s.GetRating(ctx, "tt1", "u1")
	require.NoError(t, err)
	assert.Equal(t, 3, v)

	all, err := s.Ratings(ctx, "tt1")
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"u1": 3, "u2": 5}, all)
}

func TestSettings_DefaultsWhenUnset(t *testing.T) {
	s, cleanup := setupTestStore(t)
	defer cleanup()
	ctx := context.Background()

	got, err := s.GetSettings(ctx, "u1")
	require.NoError(t, err)
	assert.False(t, got.DarkMode)

	require.NoError(t, s.SaveSettings(ctx, "u1", &domain.UserSettings{DarkMode: true}))
	got, err = s.GetSettings(ctx, "u1")
	require.NoError(t, err)
	assert.True(t, got.DarkMode)
}

func TestCollections(t *testing.T) {
	s, cleanup := setupTestStore(t)
	defer cleanup()
	ctx := context.Background()

	inception := domain.Movie{ID: "top13", Title: "Inception"}
	require.NoError(t, s.AddToCollection(ctx, "u1", domain.CollectionFavorites, inception))
	require.NoError(t, s.AddToCollection(ctx, "u1", domain.CollectionFavorites, inception))

	snap, err := s.Collection(ctx, "u1", domain.CollectionFavorites)
	require.NoError(t, err)
	require.Len(t, snap.Children, 1)
	assert.Equal(t, "top13", snap.Children[0].Key)

	watchlist, err := s.Collection(ctx, "u1", domain.CollectionWatchlist)
	require.NoError(t, err)
	assert.Empty(t, watchlist.Children)

	require.NoError(t, s.RemoveFromCollection(ctx, "u1", domain.CollectionFavorites, "top13"))
	require.NoError(t, s.RemoveFromCollection(ctx, "u1", domain.CollectionFavorites, "top13"))

	snap, err = s.Collection(ctx, "u1", domain.CollectionFavorites)
	require.NoError(t, err)
	assert.Empty(t, snap.Children)

	assert.ErrorIs(t, s.AddToCollection(ctx, "u1", domain.CollectionFavorites, domain.Movie{}), store.ErrInvalidPath)
}

func TestRevokedTokens(t *testing.T) {
	s, cleanup := setupTestStore(t)
	defer cleanup()
	ctx := context.Background()

	revoked, err := s.IsTokenRevoked(ctx, "tok-1")
	require.NoError(t, err)
	assert.False(t, revoked)

	require.NoError(t, s.RevokeToken(ctx, "tok-1", time.Now().Add(time.Hour)))
	revoked, err = s.IsTokenRevoked(ctx, "tok-1")
	require.NoError(t, err)
	assert.True(t, revoked)

	// Already expired tokens need no entry.
	require.NoError(t, s.RevokeToken(ctx, "tok-2", time.Now().Add(-time.Minute)))
	revoked, err = s.IsTokenRevoked(ctx, "tok-2")
	require.NoError(t, err)
	assert.False(t, revoked)
}
