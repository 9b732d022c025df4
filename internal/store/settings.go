package store

import (
	"context"
	"errors"

	"github.com/popcornapp/popcorn-server/internal/domain"
)

// GetSettings reads a user's settings. A user who never saved any gets the zero value.
func (s *Store) GetSettings(ctx context.Context, uid string) (*domain.UserSettings, error) {
	var settings domain.UserSettings
	err := s.Get(ctx, domain.SettingsPath(uid), &settings)
	if errors.Is(err, ErrNotFound) {
		return &domain.UserSettings{}, nil
	}
	if err != nil {
		return nil, err
	}
	return &settings, nil
}

// SaveSettings replaces a user's settings.
func (s *Store) SaveSettings(ctx context.Context, uid string, settings *domain.UserSettings) error {
	return s.Set(ctx, domain.SettingsPath(uid), settings)
}
