package api

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/popcornapp/popcorn-server/internal/domain"
)

func TestSocial_ListUsers(t *testing.T) {
	ts := setupTestServer(t)
	ada, adaID := ts.signup(t, "ada@example.com", "ada")
	_, graceID := ts.signup(t, "grace@example.com", "grace_hopper")

	resp := ts.api.Get("/api/v1/users", ada)
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())

	users := decode[ListUsersResponse](t, resp).Data.Users
	require.Len(t, users, 1)
	assert.Equal(t, graceID, users[0].Profile.ID)
	assert.NotEqual(t, adaID, users[0].Profile.ID)
	assert.NotEmpty(t, users[0].AvatarColor)
	assert.False(t, users[0].Connected)

	users = decode[ListUsersResponse](t, ts.api.Get("/api/v1/users?q=HOPPER", ada)).Data.Users
	assert.Len(t, users, 1)
	users = decode[ListUsersResponse](t, ts.api.Get("/api/v1/users?q=nobody", ada)).Data.Users
	assert.Empty(t, users)

	assert.Equal(t, http.StatusUnauthorized, ts.api.Get("/api/v1/users").Code)
}

func TestSocial_GetUser(t *testing.T) {
	ts := setupTestServer(t)
	ada, _ := ts.signup(t, "ada@example.com", "ada")
	_, graceID := ts.signup(t, "grace@example.com", "grace")

	resp := ts.api.Get("/api/v1/users/"+graceID, ada)
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	user := decode[domain.UserSummary](t, resp).Data
	assert.Equal(t, "grace", user.Profile.Username)
	assert.False(t, user.Connected)

	require.Equal(t, http.StatusOK, ts.api.Put("/api/v1/me/connections/"+graceID, ada).Code)
	user = decode[domain.UserSummary](t, ts.api.Get("/api/v1/users/"+graceID, ada)).Data
	assert.True(t, user.Connected)

	assert.Equal(t, http.StatusNotFound, ts.api.Get("/api/v1/users/usr-missing", ada).Code)
	assert.Equal(t, http.StatusUnauthorized, ts.api.Get("/api/v1/users/"+graceID).Code)
}

func TestSocial_ConnectDisconnect(t *testing.T) {
	ts := setupTestServer(t)
	ada, adaID := ts.signup(t, "ada@example.com", "ada")
	_, graceID := ts.signup(t, "grace@example.com", "grace")

	resp := ts.api.Put("/api/v1/me/connections/"+graceID, ada)
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	assert.True(t, decode[ConnectionResponse](t, resp).Data.Connected)

	// Connecting twice keeps a single edge.
	require.Equal(t, http.StatusOK, ts.api.Put("/api/v1/me/connections/"+graceID, ada).Code)

	conns := decode[ConnectionsResponse](t, ts.api.Get("/api/v1/me/connections", ada)).Data
	assert.Equal(t, []string{graceID}, conns.UserIDs)

	users := decode[ListUsersResponse](t, ts.api.Get("/api/v1/users", ada)).Data.Users
	require.Len(t, users, 1)
	assert.True(t, users[0].Connected)

	// An edge written under a generated key is removed too.
	_, err := ts.store.Push(context.Background(), domain.ConnectionsPath(adaID), graceID)
	require.NoError(t, err)

	resp = ts.api.Delete("/api/v1/me/connections/"+graceID, ada)
	require.Equal(t, http.StatusOK, resp.Code)
	assert.False(t, decode[ConnectionResponse](t, resp).Data.Connected)

	conns = decode[ConnectionsResponse](t, ts.api.Get("/api/v1/me/connections", ada)).Data
	assert.Empty(t, conns.UserIDs)
}

func TestSocial_ConnectErrors(t *testing.T) {
	ts := setupTestServer(t)
	ada, adaID := ts.signup(t, "ada@example.com", "ada")

	assert.Equal(t, http.StatusBadRequest, ts.api.Put("/api/v1/me/connections/"+adaID, ada).Code)
	assert.Equal(t, http.StatusNotFound, ts.api.Put("/api/v1/me/connections/usr-missing", ada).Code)
	assert.Equal(t, http.StatusUnauthorized, ts.api.Put("/api/v1/me/connections/"+adaID).Code)
}
