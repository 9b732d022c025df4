package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/popcornapp/popcorn-server/internal/catalog"
	"github.com/popcornapp/popcorn-server/internal/domain"
	domainerrors "github.com/popcornapp/popcorn-server/internal/errors"
	"github.com/popcornapp/popcorn-server/internal/search"
	"github.com/popcornapp/popcorn-server/internal/sse"
	"github.com/popcornapp/popcorn-server/internal/store"
)

// CatalogService owns the current movie catalog: it schedules fetches, applies results on the
// catalog dispatcher, reindexes search and announces replacements to subscribers.
type CatalogService struct {
	fetcher         catalog.Fetcher
	holder          *catalog.Holder
	dispatcher      *catalog.Dispatcher
	index           *search.SearchIndex
	emitter         store.EventEmitter
	refreshInterval time.Duration
	logger          *slog.Logger
}

// NewCatalogService creates a catalog service. index may be nil, which disables full-text search.
func NewCatalogService(
	fetcher catalog.Fetcher,
	index *search.SearchIndex,
	emitter store.EventEmitter,
	refreshInterval time.Duration,
	logger *slog.Logger,
) *CatalogService {
	if emitter == nil {
		emitter = store.NewNoopEmitter()
	}
	return &CatalogService{
		fetcher:         fetcher,
		holder:          catalog.NewHolder(),
		dispatcher:      catalog.NewDispatcher(16),
		index:           index,
		emitter:         emitter,
		refreshInterval: refreshInterval,
		logger:          logger,
	}
}

// Start runs the dispatcher, triggers the first fetch and, with a refresh interval,
// re-fetches periodically. Everything stops when ctx is canceled.
func (s *CatalogService) Start(ctx context.Context) {
	go s.dispatcher.Run(ctx)
	s.Refresh(ctx)

	if s.refreshInterval <= 0 {
		return
	}

	go func() {
		ticker := time.NewTicker(s.refreshInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				s.Refresh(ctx)
			case <-ctx.Done():
				return
			}
		}
	}()
}

// Refresh starts a fetch and returns at once. The returned channel receives the result
// after it has been applied to the holder.
func (s *CatalogService) Refresh(ctx context.Context) <-chan catalog.Result {
	out := make(chan catalog.Result, 1)
	catalog.FetchAsync(ctx, s.fetcher, s.dispatcher, func(res catalog.Result) {
		s.apply(res)
		out <- res
	})
	return out
}

// apply runs on the dispatcher.
func (s *CatalogService) apply(res catalog.Result) {
	if !s.holder.Apply(res, time.Now()) {
		s.logger.Warn("catalog fetch failed, keeping previous catalog",
			slog.String("error", res.Err.Error()),
			slog.Int("movies", len(s.holder.Catalog())))
		return
	}

	s.logger.Info("catalog replaced", slog.Int("movies", len(res.Catalog)))

	if s.index != nil {
		if err := s.index.Replace(res.Catalog); err != nil {
			s.logger.Error("failed to reindex catalog", slog.String("error", err.Error()))
		}
	}

	s.emitter.Emit(sse.NewCatalogReplacedEvent(len(res.Catalog)))
}

// List returns the catalog filtered by title. The query is matched as typed, whitespace included.
// An empty query returns every movie.
func (s *CatalogService) List(query string) domain.Catalog {
	return catalog.Filter(s.holder.Catalog(), query)
}

// Get returns one movie of the current catalog.
func (s *CatalogService) Get(movieID string) (domain.Movie, error) {
	m, ok := s.holder.Catalog().Find(movieID)
	if !ok {
		return domain.Movie{}, domainerrors.NotFoundf("movie %q is not in the catalog", movieID)
	}
	return m, nil
}

// Search runs a full-text query over the indexed catalog.
func (s *CatalogService) Search(ctx context.Context, params search.SearchParams) (*search.SearchResult, error) {
	if s.index == nil {
		return nil, domainerrors.Unavailable("search is not available")
	}
	return s.index.Search(ctx, params)
}

// CatalogStatus describes the held catalog for health checks.
type CatalogStatus struct {
	Loaded    bool       `json:"loaded"`
	Movies    int        `json:"movies"`
	UpdatedAt *time.Time `json:"updated_at,omitempty"`
	LastError string     `json:"last_error,omitempty"`
}

// Status reports the current catalog state.
func (s *CatalogService) Status() CatalogStatus {
	st := CatalogStatus{
		Loaded: s.holder.Loaded(),
		Movies: len(s.holder.Catalog()),
	}
	if st.Loaded {
		at := s.holder.UpdatedAt()
		st.UpdatedAt = &at
	}
	if err := s.holder.LastError(); err != nil {
		st.LastError = err.Error()
	}
	return st
}

// IndexedDocuments returns the number of movies in the search index.
func (s *CatalogService) IndexedDocuments() (uint64, error) {
	if s.index == nil {
		return 0, domainerrors.Unavailable("search is not available")
	}
	return s.index.DocumentCount()
}
