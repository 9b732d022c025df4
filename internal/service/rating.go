package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	json "github.com/goccy/go-json"

	"github.com/popcornapp/popcorn-server/internal/collection"
	"github.com/popcornapp/popcorn-server/internal/domain"
	domainerrors "github.com/popcornapp/popcorn-server/internal/errors"
	"github.com/popcornapp/popcorn-server/internal/sse"
	"github.com/popcornapp/popcorn-server/internal/store"
)

// RatingService stores per-user movie ratings.
type RatingService struct {
	store   *store.Store
	watcher collection.Watcher
	logger  *slog.Logger
}

// NewRatingService creates a new rating service.
func NewRatingService(store *store.Store, watcher collection.Watcher, logger *slog.Logger) *RatingService {
	return &RatingService{store: store, watcher: watcher, logger: logger}
}

// Submit overwrites the user's rating of a movie. Values are stored as given;
// callers that accept client input bound it to domain.MinRating..domain.MaxRating.
func (s *RatingService) Submit(ctx context.Context, movieID, userID string, rating int) error {
	if userID == "" {
		return domainerrors.Unauthorized("authentication required")
	}
	if err := s.store.SetRating(ctx, movieID, userID, rating); err != nil {
		return fmt.Errorf("saving rating: %w", err)
	}
	s.logger.Debug("rating submitted",
		slog.String("movie_id", movieID),
		slog.String("user_id", userID),
		slog.Int("rating", rating))
	return nil
}

// Get returns the user's rating of a movie, 0 when unrated.
func (s *RatingService) Get(ctx context.Context, movieID, userID string) (int, error) {
	if userID == "" {
		return 0, domainerrors.Unauthorized("authentication required")
	}
	v, err := s.store.GetRating(ctx, movieID, userID)
	if errors.Is(err, store.ErrNotFound) {
		return 0, nil
	}
	return v, err
}

// Summary aggregates every user's rating of a movie.
func (s *RatingService) Summary(ctx context.Context, movieID string) (*domain.RatingSummary, error) {
	ratings, err := s.store.Ratings(ctx, movieID)
	if err != nil {
		return nil, err
	}
	return summarize(movieID, ratings), nil
}

func summarize(movieID string, ratings map[string]int) *domain.RatingSummary {
	sum := &domain.RatingSummary{MovieID: movieID, Count: len(ratings)}
	if len(ratings) == 0 {
		return sum
	}
	total := 0
	for _, v := range ratings {
		total += v
	}
	sum.Average = float64(total) / float64(len(ratings))
	return sum
}

// Observe opens a standing watch on the user's rating of a movie.
func (s *RatingService) Observe(movieID, userID string) (*RatingWatch, error) {
	if userID == "" {
		return nil, domainerrors.Unauthorized("authentication required")
	}
	sub, err := s.watcher.Watch(userID, domain.RatingPath(movieID, userID))
	if err != nil {
		return nil, fmt.Errorf("watching rating: %w", err)
	}

	w := &RatingWatch{
		sub:     sub,
		updates: make(chan int, 1),
		done:    make(chan struct{}),
		logger:  s.logger,
	}
	go w.run()
	return w, nil
}

// RatingWatch follows one rating. The value is 0 until a rating is stored and
// the last write wins.
type RatingWatch struct {
	sub     *sse.Subscription
	updates chan int
	done    chan struct{}
	logger  *slog.Logger

	mu    sync.RWMutex
	value int
}

func (w *RatingWatch) run() {
	defer close(w.done)
	defer close(w.updates)

	for event := range w.sub.Events() {
		snap, ok := sse.SnapshotOf(event)
		if !ok {
			continue
		}

		v := 0
		if snap.Value != nil {
			if err := json.Unmarshal(snap.Value, &v); err != nil {
				w.logger.Debug("ignoring non-integer rating", slog.String("path", snap.Path))
				continue
			}
		}

		w.mu.Lock()
		w.value = v
		w.mu.Unlock()

		// Keep only the newest value for a slow reader.
		select {
		case <-w.updates:
		default:
		}
		w.updates <- v
	}
}

// Value returns the last observed rating.
func (w *RatingWatch) Value() int {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.value
}

// Updates delivers each observed value, starting with the current one. It is closed
// when the watch ends.
func (w *RatingWatch) Updates() <-chan int {
	return w.updates
}

// Close ends the watch. Safe to call more than once.
func (w *RatingWatch) Close() {
	w.sub.Close()
	<-w.done
}
