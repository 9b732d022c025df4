package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/popcornapp/popcorn-server/internal/color"
	"github.com/popcornapp/popcorn-server/internal/domain"
	domainerrors "github.com/popcornapp/popcorn-server/internal/errors"
	"github.com/popcornapp/popcorn-server/internal/normalize"
	"github.com/popcornapp/popcorn-server/internal/sse"
	"github.com/popcornapp/popcorn-server/internal/store"
)

// UserNotifier delivers an event to one user's streams. *sse.Manager implements it.
type UserNotifier interface {
	EmitToUser(userID string, event sse.Event)
}

// SocialService manages the user list and directed connections between users.
type SocialService struct {
	store    *store.Store
	notifier UserNotifier
	logger   *slog.Logger
}

// NewSocialService creates a new social service. notifier may be nil.
func NewSocialService(store *store.Store, notifier UserNotifier, logger *slog.Logger) *SocialService {
	return &SocialService{
		store:    store,
		notifier: notifier,
		logger:   logger,
	}
}

// ListUsers returns every other user, flagged with whether the caller is connected to them.
// A non-empty query keeps users whose username or display name contains it, ignoring case.
func (s *SocialService) ListUsers(ctx context.Context, currentUserID, query string) ([]domain.UserSummary, error) {
	if currentUserID == "" {
		return nil, domainerrors.Unauthorized("authentication required")
	}

	profiles, err := s.store.ListProfiles(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing users: %w", err)
	}

	targets, err := s.store.Connections(ctx, currentUserID)
	if err != nil {
		return nil, fmt.Errorf("listing connections: %w", err)
	}
	connected := make(map[string]bool, len(targets))
	for _, t := range targets {
		connected[t] = true
	}

	query = normalize.Query(query)
	users := make([]domain.UserSummary, 0, len(profiles))
	for _, p := range profiles {
		if p.ID == currentUserID {
			continue
		}
		if query != "" && !normalize.ContainsFold(p.Username, query) && !normalize.ContainsFold(p.DisplayName(), query) {
			continue
		}
		users = append(users, domain.UserSummary{
			Profile:     p,
			AvatarColor: color.ForUser(p.ID),
			Initials:    p.Initials(),
			Connected:   connected[p.ID],
		})
	}
	return users, nil
}

// User returns one other user as seen by the caller.
func (s *SocialService) User(ctx context.Context, currentUserID, targetUserID string) (*domain.UserSummary, error) {
	if currentUserID == "" {
		return nil, domainerrors.Unauthorized("authentication required")
	}
	profile, err := s.store.GetProfile(ctx, targetUserID)
	if err != nil {
		switch {
		case errors.Is(err, store.ErrNotFound):
			return nil, domainerrors.NotFoundf("user %q not found", targetUserID)
		case errors.Is(err, store.ErrInvalidPath):
			return nil, domainerrors.Validationf("invalid user id %q", targetUserID)
		}
		return nil, fmt.Errorf("loading user: %w", err)
	}

	connected, err := s.store.IsConnected(ctx, currentUserID, targetUserID)
	if err != nil {
		return nil, fmt.Errorf("checking connection: %w", err)
	}
	return &domain.UserSummary{
		Profile:     *profile,
		AvatarColor: color.ForUser(profile.ID),
		Initials:    profile.Initials(),
		Connected:   connected,
	}, nil
}

// ToggleConnection flips the caller's edge to target based on the state the caller last saw.
// With currentlyConnected false an edge is added; with true every edge to target is removed.
// It returns the resulting state.
func (s *SocialService) ToggleConnection(ctx context.Context, currentUserID, targetUserID string, currentlyConnected bool) (bool, error) {
	if currentlyConnected {
		return false, s.Disconnect(ctx, currentUserID, targetUserID)
	}
	return true, s.Connect(ctx, currentUserID, targetUserID)
}

// Connect adds an edge from the caller to target. Connecting twice keeps one edge.
func (s *SocialService) Connect(ctx context.Context, currentUserID, targetUserID string) error {
	if err := s.checkTarget(ctx, currentUserID, targetUserID); err != nil {
		return err
	}
	already, err := s.store.IsConnected(ctx, currentUserID, targetUserID)
	if err != nil {
		return fmt.Errorf("checking connection: %w", err)
	}
	if err := s.store.AddConnection(ctx, currentUserID, targetUserID); err != nil {
		return fmt.Errorf("adding connection: %w", err)
	}
	if !already && s.notifier != nil {
		s.notifier.EmitToUser(targetUserID, sse.NewConnectionAddedEvent(currentUserID))
	}
	s.logger.Info("user connected",
		slog.String("user_id", currentUserID),
		slog.String("target_id", targetUserID))
	return nil
}

// Disconnect removes every edge from the caller to target. Removing a missing edge succeeds.
func (s *SocialService) Disconnect(ctx context.Context, currentUserID, targetUserID string) error {
	if currentUserID == "" {
		return domainerrors.Unauthorized("authentication required")
	}
	if targetUserID == "" {
		return domainerrors.Validation("target user is required")
	}
	removed, err := s.store.RemoveConnection(ctx, currentUserID, targetUserID)
	if err != nil {
		return fmt.Errorf("removing connection: %w", err)
	}
	s.logger.Info("user disconnected",
		slog.String("user_id", currentUserID),
		slog.String("target_id", targetUserID),
		slog.Int("edges_removed", removed))
	return nil
}

// Connections returns the ids the user is connected to.
func (s *SocialService) Connections(ctx context.Context, userID string) ([]string, error) {
	if userID == "" {
		return nil, domainerrors.Unauthorized("authentication required")
	}
	return s.store.Connections(ctx, userID)
}

func (s *SocialService) checkTarget(ctx context.Context, currentUserID, targetUserID string) error {
	switch {
	case currentUserID == "":
		return domainerrors.Unauthorized("authentication required")
	case targetUserID == "":
		return domainerrors.Validation("target user is required")
	case targetUserID == currentUserID:
		return domainerrors.Validation("cannot connect to yourself")
	}

	exists, err := s.store.ProfileExists(ctx, targetUserID)
	if err != nil {
		if errors.Is(err, store.ErrInvalidPath) {
			return domainerrors.Validationf("invalid user id %q", targetUserID)
		}
		return fmt.Errorf("looking up user: %w", err)
	}
	if !exists {
		return domainerrors.NotFoundf("user %q not found", targetUserID)
	}
	return nil
}
