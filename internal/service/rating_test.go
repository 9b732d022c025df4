package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainerrors "github.com/popcornapp/popcorn-server/internal/errors"
)

func TestRatingService_SubmitAndGet(t *testing.T) {
	svc := setupTestServices(t)
	ctx := context.Background()

	v, err := svc.ratings.Get(ctx, "top1", "u1")
	require.NoError(t, err)
	assert.Equal(t, 0, v)

	require.NoError(t, svc.ratings.Submit(ctx, "top1", "u1", 4))
	require.NoError(t, svc.ratings.Submit(ctx, "top1", "u1", 2))

	v, err = svc.ratings.Get(ctx, "top1", "u1")
	require.NoError(t, err)
	assert.Equal(t, 2, v)

	assert.ErrorIs(t, svc.ratings.Submit(ctx, "top1", "", 3), domainerrors.ErrUnauthorized)
}

func TestRatingService_Summary(t *testing.T) {
	svc := setupTestServices(t)
	ctx := context.Background()

	sum, err := svc.ratings.Summary(ctx, "top1")
	require.NoError(t, err)
	assert.Equal(t, 0, sum.Count)
	assert.Zero(t, sum.Average)

	require.NoError(t, svc.ratings.Submit(ctx, "top1", "u1", 5))
	require.NoError(t, svc.ratings.Submit(ctx, "top1", "u2", 2))
	require.NoError(t, svc.ratings.Submit(ctx, "top2", "u1", 1))

	sum, err = svc.ratings.Summary(ctx, "top1")
	require.NoError(t, err)
	assert.Equal(t, "top1", sum.MovieID)
	assert.Equal(t, 2, sum.Count)
	assert.InDelta(t, 3.5, sum.Average, 0.001)
}

func TestRatingService_Observe(t *testing.T) {
	svc := setupTestServices(t)
	ctx := context.Background()

	w, err := svc.ratings.Observe("top1", "u1")
	require.NoError(t, err)
	defer w.Close()

	next := func() int {
		t.Helper()
		select {
		case v := <-w.Updates():
			return v
		case <-time.After(2 * time.Second):
			t.Fatal("no rating update")
			return -1
		}
	}

	assert.Equal(t, 0, next())

	require.NoError(t, svc.ratings.Submit(ctx, "top1", "u1", 3))
	require.Eventually(t, func() bool { return w.Value() == 3 }, 2*time.Second, 10*time.Millisecond)

	// Another user's rating of the same movie is not this watch's value.
	require.NoError(t, svc.ratings.Submit(ctx, "top1", "u2", 5))
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, 3, w.Value())

	w.Close()
	w.Close()
	for range w.Updates() {
	}
}
