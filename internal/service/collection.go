package service

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/popcornapp/popcorn-server/internal/collection"
	"github.com/popcornapp/popcorn-server/internal/domain"
	domainerrors "github.com/popcornapp/popcorn-server/internal/errors"
	"github.com/popcornapp/popcorn-server/internal/metrics"
	"github.com/popcornapp/popcorn-server/internal/store"
)

// syncTimeout bounds the wait for a new mirror's first snapshot.
const syncTimeout = 5 * time.Second

type mirrorKey struct {
	userID string
	kind   domain.CollectionKind
}

// CollectionService keeps one favorites and one watchlist mirror per active user.
// Mirrors are created on first use and closed on logout or shutdown.
type CollectionService struct {
	watcher collection.Watcher
	store   *store.Store
	catalog *CatalogService
	logger  *slog.Logger

	mu      sync.Mutex
	mirrors map[mirrorKey]*collection.Synchronizer
	closed  bool
}

// NewCollectionService creates a new collection service.
func NewCollectionService(watcher collection.Watcher, store *store.Store, catalog *CatalogService, logger *slog.Logger) *CollectionService {
	return &CollectionService{
		watcher: watcher,
		store:   store,
		catalog: catalog,
		logger:  logger,
		mirrors: make(map[mirrorKey]*collection.Synchronizer),
	}
}

// CollectionItem is the membership of one movie in one collection.
type CollectionItem struct {
	MovieID string                `json:"movie_id"`
	Kind    domain.CollectionKind `json:"kind"`
	InList  bool                  `json:"in_list"`
	State   domain.ItemState      `json:"state"`
}

// Acquire returns the running mirror of a user's collection, starting it if needed,
// and waits for its first snapshot.
func (s *CollectionService) Acquire(ctx context.Context, userID string, kind domain.CollectionKind) (*collection.Synchronizer, error) {
	if userID == "" {
		return nil, domainerrors.Unauthorized("authentication required")
	}
	if !kind.Valid() {
		return nil, domainerrors.Validationf("unknown collection %q", kind)
	}

	sync, err := s.mirror(userID, kind)
	if err != nil {
		return nil, err
	}

	waitCtx, cancel := context.WithTimeout(ctx, syncTimeout)
	defer cancel()
	if err := sync.WaitReady(waitCtx); err != nil {
		if errors.Is(err, collection.ErrClosed) {
			return nil, domainerrors.Unavailable("collection sync stopped")
		}
		return nil, domainerrors.Wrap(err, domainerrors.CodeUnavailable, "collection not synced yet")
	}
	return sync, nil
}

func (s *CollectionService) mirror(userID string, kind domain.CollectionKind) (*collection.Synchronizer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil, domainerrors.Unavailable("server is shutting down")
	}

	key := mirrorKey{userID: userID, kind: kind}
	if sync, ok := s.mirrors[key]; ok {
		return sync, nil
	}

	sync := collection.New(s.watcher, s.store, userID, kind, s.logger)
	if err := sync.Start(); err != nil {
		return nil, domainerrors.Wrap(err, domainerrors.CodeUnavailable, "cannot subscribe to collection")
	}
	s.mirrors[key] = sync
	metrics.CollectionMirrors.Inc()

	s.logger.Debug("collection mirror started",
		slog.String("user_id", userID),
		slog.String("collection", string(kind)))
	return sync, nil
}

// List returns the movies in a user's collection.
func (s *CollectionService) List(ctx context.Context, userID string, kind domain.CollectionKind) ([]domain.Movie, error) {
	sync, err := s.Acquire(ctx, userID, kind)
	if err != nil {
		return nil, err
	}
	return sync.Movies(), nil
}

// Item reports whether a movie is in a user's collection.
func (s *CollectionService) Item(ctx context.Context, userID string, kind domain.CollectionKind, movieID string) (*CollectionItem, error) {
	sync, err := s.Acquire(ctx, userID, kind)
	if err != nil {
		return nil, err
	}
	return itemOf(sync, movieID), nil
}

// Add puts a catalog movie into a user's collection. The returned state is PendingWrite
// until the write's snapshot reaches the mirror.
func (s *CollectionService) Add(ctx context.Context, userID string, kind domain.CollectionKind, movieID string) (*CollectionItem, error) {
	movie, err := s.catalog.Get(movieID)
	if err != nil {
		return nil, err
	}

	sync, err := s.Acquire(ctx, userID, kind)
	if err != nil {
		return nil, err
	}
	if err := sync.Add(ctx, movie); err != nil {
		return nil, writeError(err)
	}
	return itemOf(sync, movieID), nil
}

// Remove takes a movie out of a user's collection. Removing an absent movie succeeds.
// The movie need not be in the current catalog.
func (s *CollectionService) Remove(ctx context.Context, userID string, kind domain.CollectionKind, movieID string) (*CollectionItem, error) {
	sync, err := s.Acquire(ctx, userID, kind)
	if err != nil {
		return nil, err
	}
	if err := sync.Remove(ctx, movieID); err != nil {
		return nil, writeError(err)
	}
	return itemOf(sync, movieID), nil
}

// Memberships reports a movie's state in every collection of a user.
func (s *CollectionService) Memberships(ctx context.Context, userID, movieID string) (map[domain.CollectionKind]*CollectionItem, error) {
	out := make(map[domain.CollectionKind]*CollectionItem, len(domain.CollectionKinds))
	for _, kind := range domain.CollectionKinds {
		item, err := s.Item(ctx, userID, kind, movieID)
		if err != nil {
			return nil, err
		}
		out[kind] = item
	}
	return out, nil
}

// Release closes every mirror of a user.
func (s *CollectionService) Release(userID string) {
	s.mu.Lock()
	var released []*collection.Synchronizer
	for key, sync := range s.mirrors {
		if key.userID == userID {
			released = append(released, sync)
			delete(s.mirrors, key)
		}
	}
	s.mu.Unlock()

	for _, sync := range released {
		sync.Close()
		metrics.CollectionMirrors.Dec()
	}
}

// Shutdown closes every mirror and rejects new ones.
func (s *CollectionService) Shutdown() {
	s.mu.Lock()
	s.closed = true
	mirrors := s.mirrors
	s.mirrors = make(map[mirrorKey]*collection.Synchronizer)
	s.mu.Unlock()

	for _, sync := range mirrors {
		sync.Close()
		metrics.CollectionMirrors.Dec()
	}
	s.logger.Info("collection mirrors closed", slog.Int("count", len(mirrors)))
}

// ActiveMirrors returns the number of running mirrors.
func (s *CollectionService) ActiveMirrors() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.mirrors)
}

func itemOf(sync *collection.Synchronizer, movieID string) *CollectionItem {
	return &CollectionItem{
		MovieID: movieID,
		Kind:    sync.Kind(),
		InList:  sync.Contains(movieID),
		State:   sync.State(movieID),
	}
}

func writeError(err error) error {
	if errors.Is(err, collection.ErrClosed) {
		return domainerrors.Unavailable("collection sync stopped")
	}
	return err
}
