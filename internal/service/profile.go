package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/popcornapp/popcorn-server/internal/color"
	"github.com/popcornapp/popcorn-server/internal/domain"
	domainerrors "github.com/popcornapp/popcorn-server/internal/errors"
	"github.com/popcornapp/popcorn-server/internal/store"
)

// ProfileService provides user profile management.
type ProfileService struct {
	store  *store.Store
	logger *slog.Logger
}

// NewProfileService creates a new profile service.
func NewProfileService(store *store.Store, logger *slog.Logger) *ProfileService {
	return &ProfileService{store: store, logger: logger}
}

// ProfileView is a profile with its derived avatar fields.
type ProfileView struct {
	domain.UserProfile
	DisplayName string `json:"displayName"`
	AvatarColor string `json:"avatar_color"`
	Initials    string `json:"initials"`
}

func viewOf(p *domain.UserProfile) *ProfileView {
	return &ProfileView{
		UserProfile: *p,
		DisplayName: p.DisplayName(),
		AvatarColor: color.ForUser(p.ID),
		Initials:    p.Initials(),
	}
}

// UpdateProfileRequest changes the fields that are set. Nil fields are left alone.
type UpdateProfileRequest struct {
	Username  *string `json:"username,omitempty" validate:"omitempty,username"`
	FirstName *string `json:"firstName,omitempty" validate:"omitempty,max=64"`
	LastName  *string `json:"lastName,omitempty" validate:"omitempty,max=64"`
}

// Get returns a user's profile.
func (s *ProfileService) Get(ctx context.Context, userID string) (*ProfileView, error) {
	if userID == "" {
		return nil, domainerrors.Unauthorized("authentication required")
	}
	p, err := s.store.GetProfile(ctx, userID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, domainerrors.NotFoundf("user %q not found", userID)
		}
		return nil, fmt.Errorf("get profile: %w", err)
	}
	return viewOf(p), nil
}

// Update applies req to the user's own profile.
func (s *ProfileService) Update(ctx context.Context, userID string, req UpdateProfileRequest) (*ProfileView, error) {
	if userID == "" {
		return nil, domainerrors.Unauthorized("authentication required")
	}
	if err := validate.Validate(req); err != nil {
		return nil, err
	}

	p, err := s.store.GetProfile(ctx, userID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, domainerrors.NotFoundf("user %q not found", userID)
		}
		return nil, fmt.Errorf("get profile: %w", err)
	}

	if req.Username != nil && *req.Username != p.Username {
		taken, err := usernameInUse(ctx, s.store, *req.Username, userID)
		if err != nil {
			return nil, err
		}
		if taken {
			return nil, domainerrors.AlreadyExists("username already in use")
		}
		p.Username = *req.Username
	}
	if req.FirstName != nil {
		p.FirstName = strings.TrimSpace(*req.FirstName)
	}
	if req.LastName != nil {
		p.LastName = strings.TrimSpace(*req.LastName)
	}

	if err := s.store.SaveProfile(ctx, p); err != nil {
		return nil, fmt.Errorf("save profile: %w", err)
	}

	s.logger.Info("Profile updated", "user_id", userID)
	return viewOf(p), nil
}
