package store

import (
	"context"

	"github.com/popcornapp/popcorn-server/internal/domain"
)

// AddToCollection writes movie into a user's collection, keyed by movie id.
func (s *Store) AddToCollection(ctx context.Context, uid string, kind domain.CollectionKind, movie domain.Movie) error {
	if movie.ID == "" {
		return ErrInvalidPath.WithMessage("movie has no id")
	}
	return s.Set(ctx, domain.CollectionItemPath(uid, kind, movie.ID), movie)
}

// RemoveFromCollection deletes a movie from a user's collection. Removing an absent movie is a no-op.
func (s *Store) RemoveFromCollection(ctx context.Context, uid string, kind domain.CollectionKind, movieID string) error {
	return s.Delete(ctx, domain.CollectionItemPath(uid, kind, movieID))
}

// Collection returns the raw snapshot of a user's collection.
func (s *Store) Collection(ctx context.Context, uid string, kind domain.CollectionKind) (*domain.Snapshot, error) {
	return s.Snapshot(ctx, domain.CollectionPath(uid, kind))
}
