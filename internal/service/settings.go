package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/popcornapp/popcorn-server/internal/domain"
	domainerrors "github.com/popcornapp/popcorn-server/internal/errors"
	"github.com/popcornapp/popcorn-server/internal/store"
)

// SettingsService manages per-user display preferences.
type SettingsService struct {
	store  *store.Store
	logger *slog.Logger
}

// NewSettingsService creates a new settings service.
func NewSettingsService(store *store.Store, logger *slog.Logger) *SettingsService {
	return &SettingsService{store: store, logger: logger}
}

// UpdateSettingsRequest changes the settings that are set.
type UpdateSettingsRequest struct {
	DarkMode *bool `json:"darkMode,omitempty"`
}

// Get returns the user's settings, defaults when none were saved.
func (s *SettingsService) Get(ctx context.Context, userID string) (*domain.UserSettings, error) {
	if userID == "" {
		return nil, domainerrors.Unauthorized("authentication required")
	}
	return s.store.GetSettings(ctx, userID)
}

// Update applies req and returns the stored settings.
func (s *SettingsService) Update(ctx context.Context, userID string, req UpdateSettingsRequest) (*domain.UserSettings, error) {
	settings, err := s.Get(ctx, userID)
	if err != nil {
		return nil, err
	}

	if req.DarkMode != nil {
		settings.DarkMode = *req.DarkMode
	}

	if err := s.store.SaveSettings(ctx, userID, settings); err != nil {
		return nil, fmt.Errorf("save settings: %w", err)
	}

	s.logger.Debug("settings updated", "user_id", userID, "dark_mode", settings.DarkMode)
	return settings, nil
}
