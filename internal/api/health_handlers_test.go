package api

import (
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHealthCheck_ReportsComponents(t *testing.T) {
	ts := setupTestServer(t)

	// The search index fills shortly after the catalog loads.
	require.Eventually(t, func() bool {
		env := decode[HealthResponse](t, ts.api.Get("/health"))
		return env.Data.Status == statusHealthy
	}, 5*time.Second, 20*time.Millisecond)

	resp := ts.api.Get("/health")
	require.Equal(t, http.StatusOK, resp.Code)

	env := decode[HealthResponse](t, resp)
	assert.True(t, env.Success)
	assert.Equal(t, EnvelopeVersion, env.Version)
	for _, name := range []string{"database", "search", "sse", "catalog"} {
		require.Contains(t, env.Data.Components, name)
		assert.Equal(t, statusHealthy, env.Data.Components[name].Status, name)
	}
	require.NotNil(t, env.Data.Catalog)
	assert.True(t, env.Data.Catalog.Loaded)
	assert.Equal(t, 3, env.Data.Catalog.Movies)
}

func TestHealthCheck_NoDependencies(t *testing.T) {
	s := &Server{}
	assert.Equal(t, statusDegraded, s.checkDatabase(t.Context()).Status)
	assert.Equal(t, statusDegraded, s.checkSearchIndex().Status)
	assert.Equal(t, statusDegraded, s.checkSSEManager().Status)
}
