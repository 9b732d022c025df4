package store

import (
	"context"
	"fmt"

	json "github.com/goccy/go-json"

	"github.com/popcornapp/popcorn-server/internal/domain"
)

// SetRating stores uid's rating of a movie, replacing any earlier value.
func (s *Store) SetRating(ctx context.Context, movieID, uid string, value int) error {
	return s.Set(ctx, domain.RatingPath(movieID, uid), value)
}

// GetRating reads uid's rating of a movie. Returns ErrNotFound if the user has not rated it.
func (s *Store) GetRating(ctx context.Context, movieID, uid string) (int, error) {
	var v int
	if err := s.Get(ctx, domain.RatingPath(movieID, uid), &v); err != nil {
		return 0, err
	}
	return v, nil
}

// Ratings returns every user's rating of a movie keyed by user id.
func (s *Store) Ratings(ctx context.Context, movieID string) (map[string]int, error) {
	children, err := s.Children(ctx, domain.RatingsPath(movieID))
	if err != nil {
		return nil, fmt.Errorf("list ratings: %w", err)
	}
	return DecodeRatings(children), nil
}

// DecodeRatings converts rating children into a map, skipping non-integer values.
func DecodeRatings(children []domain.Child) map[string]int {
	out := make(map[string]int, len(children))
	for _, c := range children {
		var v int
		if err := json.Unmarshal(c.Value, &v); err != nil {
			continue
		}
		out[c.Key] = v
	}
	return out
}
