package store

import (
	"context"
	"errors"
	"fmt"

	json "github.com/goccy/go-json"

	"github.com/popcornapp/popcorn-server/internal/domain"
)

// SaveProfile writes the profile node of a user.
func (s *Store) SaveProfile(ctx context.Context, p *domain.UserProfile) error {
	if p.ID == "" {
		return ErrInvalidPath.WithMessage("profile has no user id")
	}
	return s.Set(ctx, domain.UserPath(p.ID), p)
}

// GetProfile reads the profile node of a user.
func (s *Store) GetProfile(ctx context.Context, uid string) (*domain.UserProfile, error) {
	var p domain.UserProfile
	if err := s.Get(ctx, domain.UserPath(uid), &p); err != nil {
		return nil, err
	}
	if p.ID == "" {
		p.ID = uid
	}
	return &p, nil
}

// ListProfiles returns every stored profile ordered by user id.
// Entries that do not decode as profiles are skipped.
func (s *Store) ListProfiles(ctx context.Context) ([]domain.UserProfile, error) {
	children, err := s.Children(ctx, domain.UsersRoot)
	if err != nil {
		return nil, fmt.Errorf("list profiles: %w", err)
	}

	profiles := make([]domain.UserProfile, 0, len(children))
	for _, c := range children {
		var p domain.UserProfile
		if err := json.Unmarshal(c.Value, &p); err != nil {
			s.logger.Warn("skipping undecodable profile", "uid", c.Key, "error", err)
			continue
		}
		if p.ID == "" {
			p.ID = c.Key
		}
		profiles = append(profiles, p)
	}
	return profiles, nil
}

// ProfileExists reports whether uid has a profile node.
func (s *Store) ProfileExists(ctx context.Context, uid string) (bool, error) {
	_, err := s.GetProfile(ctx, uid)
	if errors.Is(err, ErrNotFound) {
		return false, nil
	}
	return err == nil, err
}
