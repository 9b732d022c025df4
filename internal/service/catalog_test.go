package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/popcornapp/popcorn-server/internal/catalog"
	domainerrors "github.com/popcornapp/popcorn-server/internal/errors"
	"github.com/popcornapp/popcorn-server/internal/search"
)

func TestCatalogService_ListAndGet(t *testing.T) {
	svc := setupTestServices(t)

	assert.Len(t, svc.catalog.List(""), 3)

	got := svc.catalog.List("GOD")
	require.Len(t, got, 1)
	assert.Equal(t, "top2", got[0].ID)

	// The query is not trimmed: every hit contains it verbatim, ignoring case.
	for _, m := range svc.catalog.List(" ") {
		assert.NotEqual(t, "Inception", m.Title)
	}
	assert.Len(t, svc.catalog.List(" "), 2)
	assert.Empty(t, svc.catalog.List("incep "))
	assert.Len(t, svc.catalog.List("the "), 2)

	assert.Empty(t, svc.catalog.List("matrix"))

	m, err := svc.catalog.Get("top13")
	require.NoError(t, err)
	assert.Equal(t, "Inception", m.Title)

	_, err = svc.catalog.Get("top99")
	assert.ErrorIs(t, err, domainerrors.ErrNotFound)
}

func TestCatalogService_FailedRefreshKeepsCatalog(t *testing.T) {
	svc := setupTestServices(t)
	ctx := context.Background()

	svc.fetcher.err = &catalog.StatusError{StatusCode: 503}
	res := <-svc.catalog.Refresh(ctx)
	require.Error(t, res.Err)
	assert.True(t, errors.Is(res.Err, catalog.ErrStatus))

	st := svc.catalog.Status()
	assert.True(t, st.Loaded)
	assert.Equal(t, 3, st.Movies)
	assert.NotEmpty(t, st.LastError)
	assert.Len(t, svc.catalog.List(""), 3)

	svc.fetcher.err = nil
	svc.fetcher.catalog = testCatalog[:1]
	res = <-svc.catalog.Refresh(ctx)
	require.NoError(t, res.Err)

	st = svc.catalog.Status()
	assert.Equal(t, 1, st.Movies)
	assert.Empty(t, st.LastError)
}

func TestCatalogService_Search(t *testing.T) {
	svc := setupTestServices(t)
	ctx := context.Background()

	params := search.DefaultSearchParams()
	params.Query = "inception"

	// The index is rebuilt on the dispatcher right after the holder is updated.
	var result *search.SearchResult
	require.Eventually(t, func() bool {
		var err error
		result, err = svc.catalog.Search(ctx, params)
		return err == nil && result.Total > 0
	}, 2*time.Second, 20*time.Millisecond)

	require.NotEmpty(t, result.Hits)
	assert.Equal(t, "top13", result.Hits[0].ID)
}
