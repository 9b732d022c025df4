// Package collection mirrors one user's favorites or watchlist in memory and keeps it in step
// with the document tree through a standing subscription.
package collection

import (
	"context"
	"errors"
	"log/slog"
	"slices"
	"sync"

	json "github.com/goccy/go-json"

	"github.com/popcornapp/popcorn-server/internal/domain"
	"github.com/popcornapp/popcorn-server/internal/sse"
)

// ErrClosed is returned by writes on a closed synchronizer.
var ErrClosed = errors.New("collection: synchronizer closed")

// Watcher opens scoped watches on tree nodes.
type Watcher interface {
	Watch(userID, path string) (*sse.Subscription, error)
}

// Writer persists collection entries.
type Writer interface {
	AddToCollection(ctx context.Context, uid string, kind domain.CollectionKind, movie domain.Movie) error
	RemoveFromCollection(ctx context.Context, uid string, kind domain.CollectionKind, movieID string) error
}

// Synchronizer is the local mirror of users/{uid}/{kind}.
//
// The list is only ever replaced by a delivered snapshot; Add and Remove write through to the tree
// and mark the movie PendingWrite until a snapshot reflects the write.
type Synchronizer struct {
	watcher Watcher
	writer  Writer
	logger  *slog.Logger
	userID  string
	kind    domain.CollectionKind

	mu      sync.RWMutex
	movies  []domain.Movie
	// pending maps a movie with an outstanding write to the membership the write produces.
	pending map[string]bool
	synced  bool
	closed  bool
	sub     *sse.Subscription

	changes   chan struct{}
	ready     chan struct{}
	readyOnce sync.Once
	done      chan struct{}
}

// New creates an unsynced mirror. Call Start to subscribe.
func New(watcher Watcher, writer Writer, userID string, kind domain.CollectionKind, logger *slog.Logger) *Synchronizer {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Synchronizer{
		watcher: watcher,
		writer:  writer,
		userID:  userID,
		kind:    kind,
		logger:  logger.With(slog.String("user_id", userID), slog.String("collection", string(kind))),
		pending: make(map[string]bool),
		changes: make(chan struct{}, 1),
		ready:   make(chan struct{}),
		done:    make(chan struct{}),
	}
}

// Start subscribes to the collection node. The initial snapshot arrives asynchronously;
// use Synced or Changes to wait for it.
func (s *Synchronizer) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrClosed
	}
	if s.sub != nil {
		return nil
	}

	sub, err := s.watcher.Watch(s.userID, domain.CollectionPath(s.userID, s.kind))
	if err != nil {
		return err
	}
	s.sub = sub

	go s.run(sub)
	return nil
}

func (s *Synchronizer) run(sub *sse.Subscription) {
	defer close(s.done)

	for event := range sub.Events() {
		snap, ok := sse.SnapshotOf(event)
		if !ok {
			continue
		}
		s.apply(snap)
	}
	s.logger.Debug("collection subscription ended")
}

// apply replaces the local list with snap and settles pending writes it reflects.
func (s *Synchronizer) apply(snap *domain.Snapshot) {
	movies := make([]domain.Movie, 0, len(snap.Children))
	for _, c := range snap.Children {
		var m domain.Movie
		if err := json.Unmarshal(c.Value, &m); err != nil {
			s.logger.Debug("dropping undecodable collection entry",
				slog.String("key", c.Key),
				slog.String("error", err.Error()))
			continue
		}
		if m.ID == "" {
			m.ID = c.Key
		}
		movies = append(movies, m)
	}

	s.mu.Lock()
	s.movies = movies
	s.synced = true
	for id, present := range s.pending {
		if s.containsLocked(id) == present {
			delete(s.pending, id)
		}
	}
	s.mu.Unlock()

	s.readyOnce.Do(func() { close(s.ready) })
	select {
	case s.changes <- struct{}{}:
	default:
	}
}

func (s *Synchronizer) containsLocked(movieID string) bool {
	return slices.ContainsFunc(s.movies, func(m domain.Movie) bool { return m.ID == movieID })
}

// Contains reports whether the last delivered snapshot holds movieID.
func (s *Synchronizer) Contains(movieID string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.containsLocked(movieID)
}

// Movies returns a copy of the mirrored list in key order.
func (s *Synchronizer) Movies() []domain.Movie {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.movies)
}

// State returns the membership state of movieID.
func (s *Synchronizer) State(movieID string) domain.ItemState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.stateLocked(movieID)
}

func (s *Synchronizer) stateLocked(movieID string) domain.ItemState {
	if _, ok := s.pending[movieID]; ok {
		return domain.ItemPendingWrite
	}
	if s.containsLocked(movieID) {
		return domain.ItemConfirmed
	}
	return domain.ItemIdle
}

// Synced reports whether at least one snapshot has been applied.
func (s *Synchronizer) Synced() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.synced
}

// Ready is closed once the first snapshot has been applied.
func (s *Synchronizer) Ready() <-chan struct{} {
	return s.ready
}

// WaitReady blocks until the first snapshot is applied, the subscription ends or ctx is done.
func (s *Synchronizer) WaitReady(ctx context.Context) error {
	select {
	case <-s.ready:
		return nil
	case <-s.done:
		return ErrClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Changes signals after every applied snapshot. Signals coalesce, so use it from one goroutine.
func (s *Synchronizer) Changes() <-chan struct{} {
	return s.changes
}

// Kind returns the mirrored collection kind.
func (s *Synchronizer) Kind() domain.CollectionKind {
	return s.kind
}

// Add writes movie into the collection. Adding a present movie rewrites the same entry.
// The local list changes when the resulting snapshot arrives.
func (s *Synchronizer) Add(ctx context.Context, movie domain.Movie) error {
	if err := s.begin(movie.ID, true); err != nil {
		return err
	}
	err := s.writer.AddToCollection(ctx, s.userID, s.kind, movie)
	s.finish(movie.ID, err)
	return err
}

// Remove deletes movieID from the collection. Removing an absent movie succeeds.
func (s *Synchronizer) Remove(ctx context.Context, movieID string) error {
	if err := s.begin(movieID, false); err != nil {
		return err
	}
	err := s.writer.RemoveFromCollection(ctx, s.userID, s.kind, movieID)
	s.finish(movieID, err)
	return err
}

// Toggle removes movie when the mirror holds it and adds it otherwise.
// It reports the membership the write produces.
func (s *Synchronizer) Toggle(ctx context.Context, movie domain.Movie) (bool, error) {
	if s.Contains(movie.ID) {
		return false, s.Remove(ctx, movie.ID)
	}
	return true, s.Add(ctx, movie)
}

func (s *Synchronizer) begin(movieID string, present bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrClosed
	}
	s.pending[movieID] = present
	return nil
}

// finish settles the pending mark of a write. A failed write drops it, so State falls back to
// the mirrored list. A successful write stays pending until a snapshot reflects it, unless the
// mirror already does: removing an absent movie changes nothing and produces no snapshot.
func (s *Synchronizer) finish(movieID string, err error) {
	if err != nil {
		s.logger.Warn("collection write failed",
			slog.String("movie_id", movieID),
			slog.String("error", err.Error()))
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	present, ok := s.pending[movieID]
	if !ok {
		return
	}
	if err != nil || s.containsLocked(movieID) == present {
		delete(s.pending, movieID)
	}
}

// Close releases the subscription and waits for the apply loop to exit. Safe to call more than once.
func (s *Synchronizer) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	sub := s.sub
	s.mu.Unlock()

	if sub == nil {
		return
	}
	sub.Close()
	<-s.done
}
