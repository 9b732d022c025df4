package store

import (
	"context"
	"fmt"

	json "github.com/goccy/go-json"

	"github.com/popcornapp/popcorn-server/internal/domain"
)

// AddConnection records a directed edge from uid to target.
// The edge is keyed by target, so adding twice leaves one edge.
func (s *Store) AddConnection(ctx context.Context, uid, target string) error {
	if target == "" {
		return ErrInvalidPath.WithMessage("connection target is empty")
	}
	return s.Set(ctx, domain.ConnectionPath(uid, target), target)
}

// RemoveConnection deletes every edge from uid whose value is target,
// including edges written under generated keys. Returns how many were removed.
func (s *Store) RemoveConnection(ctx context.Context, uid, target string) (int, error) {
	return s.DeleteWhereEqual(ctx, domain.ConnectionsPath(uid), target)
}

// Connections returns the distinct target ids uid is connected to.
func (s *Store) Connections(ctx context.Context, uid string) ([]string, error) {
	children, err := s.Children(ctx, domain.ConnectionsPath(uid))
	if err != nil {
		return nil, fmt.Errorf("list connections: %w", err)
	}

	seen := make(map[string]bool, len(children))
	targets := make([]string, 0, len(children))
	for _, c := range children {
		var target string
		if err := json.Unmarshal(c.Value, &target); err != nil || target == "" {
			continue
		}
		if seen[target] {
			continue
		}
		seen[target] = true
		targets = append(targets, target)
	}
	return targets, nil
}

// IsConnected reports whether uid has at least one edge to target.
func (s *Store) IsConnected(ctx context.Context, uid, target string) (bool, error) {
	matches, err := s.QueryEqual(ctx, domain.ConnectionsPath(uid), target)
	if err != nil {
		return false, err
	}
	return len(matches) > 0, nil
}
