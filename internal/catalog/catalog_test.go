package catalog

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/popcornapp/popcorn-server/internal/config"
	"github.com/popcornapp/popcorn-server/internal/domain"
)

func loadFixture(t *testing.T, name string) []byte {
	t.Helper()
	data, err := os.ReadFile(filepath.Join("testdata", name))
	require.NoError(t, err)
	return data
}

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	return NewClient(config.CatalogConfig{
		URL:     server.URL + "/",
		APIKey:  "test-key",
		APIHost: "movies.example.com",
		Timeout: 5 * time.Second,
	}, slog.New(slog.DiscardHandler))
}

func TestClient_Fetch(t *testing.T) {
	fixture := loadFixture(t, "top_movies.json")

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "test-key", r.Header.Get("X-RapidAPI-Key"))
		assert.Equal(t, "movies.example.com", r.Header.Get("X-RapidAPI-Host"))
		_, _ = w.Write(fixture)
	})

	movies, err := client.Fetch(context.Background())
	require.NoError(t, err)
	require.Len(t, movies, 2)

	first := movies[0]
	assert.Equal(t, "top1", first.ID)
	assert.Equal(t, "https://example.com/shawshank-1.jpg", first.Image)
	assert.Equal(t, "1994", first.Year)
	assert.Equal(t, "Drama", first.GenreLabel())
	assert.InDelta(t, 9.3, first.Rating, 0.001)

	assert.Equal(t, "Action, Sci-Fi", movies[1].GenreLabel())
}

func TestClient_Fetch_Errors(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantErr error
	}{
		{name: "server error", status: http.StatusInternalServerError, wantErr: ErrStatus},
		{name: "rate limited", status: http.StatusTooManyRequests, wantErr: ErrRateLimited},
		{name: "not an array", status: http.StatusOK, body: `{"message":"quota"}`, wantErr: ErrParse},
		{name: "missing field", status: http.StatusOK, body: `[{"id":"1","title":"x"}]`, wantErr: ErrParse},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			})

			movies, err := client.Fetch(context.Background())
			assert.Nil(t, movies)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestClient_Fetch_Transport(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	url := server.URL
	server.Close()

	client := NewClient(config.CatalogConfig{URL: url}, slog.New(slog.DiscardHandler))
	_, err := client.Fetch(context.Background())
	assert.ErrorIs(t, err, ErrTransport)
}

func TestClient_BreakerOpensAfterConsecutiveFailures(t *testing.T) {
	var hits atomic.Int32
	client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusBadGateway)
	})
	client.rateLimiter.SetLimit(1000)
	client.rateLimiter.SetBurst(100)

	for range 5 {
		_, err := client.Fetch(context.Background())
		require.ErrorIs(t, err, ErrStatus)
	}

	_, err := client.Fetch(context.Background())
	assert.ErrorIs(t, err, ErrBreakerOpen)
	assert.Equal(t, int32(5), hits.Load())
}

func TestParse_RecordErrorsNameIndexAndField(t *testing.T) {
	valid := `{"id":"1","title":"A","description":"d","link":"l","genre":"[]","images":[["a","u"]],"rating":1,"year":"2000"}`

	tests := []struct {
		name      string
		body      string
		wantIndex int
		wantField string
	}{
		{"missing rating", `[` + valid + `,{"id":"2","title":"B","description":"d","link":"l","genre":"[]","images":[["a","u"]],"year":"2000"}]`, 1, "rating"},
		{"null title", `[{"id":"1","title":null}]`, 0, "title"},
		{"short images", `[{"id":"1","title":"A","description":"d","link":"l","genre":"[]","images":[["only"]],"rating":1,"year":"2000"}]`, 0, "images"},
		{"empty images", `[{"id":"1","title":"A","description":"d","link":"l","genre":"[]","images":[],"rating":1,"year":"2000"}]`, 0, "images"},
		{"numeric id", `[{"id":1}]`, 0, "id"},
		{"bad year", `[{"id":"1","title":"A","description":"d","link":"l","genre":"[]","images":[["a","u"]],"rating":1,"year":true}]`, 0, "year"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			movies, err := Parse([]byte(tt.body))
			assert.Nil(t, movies)

			var pe *ParseError
			require.True(t, errors.As(err, &pe), "got %v", err)
			assert.Equal(t, tt.wantIndex, pe.Index)
			assert.Equal(t, tt.wantField, pe.Field)
		})
	}
}

func TestParse_EmptyArray(t *testing.T) {
	movies, err := Parse([]byte(`[]`))
	require.NoError(t, err)
	assert.Empty(t, movies)
}

func TestFilter(t *testing.T) {
	c := domain.Catalog{
		{ID: "1", Title: "Inception", Rating: 8.8, Year: "2010", Genre: `["Sci-Fi"]`},
		{ID: "2", Title: "The Dark Knight"},
		{ID: "3", Title: "Interstellar"},
	}

	assert.Equal(t, domain.Catalog{c[0]}, Filter(c, "incep"))
	assert.Equal(t, domain.Catalog{c[0]}, Filter(c, "INCEPTION"))
	assert.Empty(t, Filter(c, "zzz"))
	assert.Equal(t, c, Filter(c, ""))
	assert.Equal(t, domain.Catalog{c[0], c[2]}, Filter(c, "in"))
	// Only titles are searched.
	assert.Empty(t, Filter(c, "sci-fi"))
}

type stubFetcher struct {
	movies domain.Catalog
	err    error
}

func (s stubFetcher) Fetch(context.Context) (domain.Catalog, error) {
	return s.movies, s.err
}

func TestFetchAsync_DeliversOnDispatcher(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	d := NewDispatcher(4)
	go d.Run(ctx)

	holder := NewHolder()
	done := make(chan Result, 2)

	FetchAsync(ctx, stubFetcher{movies: domain.Catalog{{ID: "1"}}}, d, func(res Result) {
		holder.Apply(res, time.Now())
		done <- res
	})
	res := <-done
	require.NoError(t, res.Err)
	assert.True(t, holder.Loaded())
	assert.Len(t, holder.Catalog(), 1)

	boom := errors.New("boom")
	FetchAsync(ctx, stubFetcher{err: boom}, d, func(res Result) {
		holder.Apply(res, time.Now())
		done <- res
	})
	res = <-done
	assert.ErrorIs(t, res.Err, boom)

	// A failed fetch keeps the previous catalog.
	assert.Len(t, holder.Catalog(), 1)
	assert.ErrorIs(t, holder.LastError(), boom)
}

func TestDispatcher_PostAfterStop(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	d := NewDispatcher(1)
	go d.Run(ctx)
	cancel()
	<-d.Done()

	assert.False(t, d.Post(context.Background(), func() {}))
}
