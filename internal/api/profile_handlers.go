package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/popcornapp/popcorn-server/internal/domain"
	"github.com/popcornapp/popcorn-server/internal/service"
)

func (s *Server) registerProfileRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "getProfile",
		Method:      http.MethodGet,
		Path:        "/api/v1/me/profile",
		Summary:     "Get profile",
		Description: "Returns the caller's profile with avatar fields",
		Tags:        []string{"Profile"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleGetProfile)

	huma.Register(s.api, huma.Operation{
		OperationID: "updateProfile",
		Method:      http.MethodPatch,
		Path:        "/api/v1/me/profile",
		Summary:     "Update profile",
		Description: "Updates the fields present in the body",
		Tags:        []string{"Profile"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleUpdateProfile)

	huma.Register(s.api, huma.Operation{
		OperationID: "getSettings",
		Method:      http.MethodGet,
		Path:        "/api/v1/me/settings",
		Summary:     "Get settings",
		Tags:        []string{"Profile"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleGetSettings)

	huma.Register(s.api, huma.Operation{
		OperationID: "updateSettings",
		Method:      http.MethodPatch,
		Path:        "/api/v1/me/settings",
		Summary:     "Update settings",
		Tags:        []string{"Profile"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleUpdateSettings)
}

// === DTOs ===

// ProfileOutput wraps a profile for Huma.
type ProfileOutput struct {
	Body *service.ProfileView
}

// UpdateProfileRequest is the request body for a profile change.
type UpdateProfileRequest struct {
	Username  *string `json:"username,omitempty" minLength:"1" maxLength:"32" doc:"New username"`
	FirstName *string `json:"firstName,omitempty" maxLength:"64" doc:"New first name"`
	LastName  *string `json:"lastName,omitempty" maxLength:"64" doc:"New last name"`
}

// UpdateProfileInput wraps the profile change for Huma.
type UpdateProfileInput struct {
	Body UpdateProfileRequest
}

// SettingsOutput wraps settings for Huma.
type SettingsOutput struct {
	Body *domain.UserSettings
}

// UpdateSettingsRequest is the request body for a settings change.
type UpdateSettingsRequest struct {
	DarkMode *bool `json:"darkMode,omitempty" doc:"Dark theme"`
}

// UpdateSettingsInput wraps the settings change for Huma.
type UpdateSettingsInput struct {
	Body UpdateSettingsRequest
}

// === Handlers ===

func (s *Server) handleGetProfile(ctx context.Context, _ *struct{}) (*ProfileOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}

	view, err := s.services.Profile.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	return &ProfileOutput{Body: view}, nil
}

func (s *Server) handleUpdateProfile(ctx context.Context, input *UpdateProfileInput) (*ProfileOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}

	view, err := s.services.Profile.Update(ctx, userID, service.UpdateProfileRequest{
		Username:  input.Body.Username,
		FirstName: input.Body.FirstName,
		LastName:  input.Body.LastName,
	})
	if err != nil {
		return nil, err
	}
	return &ProfileOutput{Body: view}, nil
}

func (s *Server) handleGetSettings(ctx context.Context, _ *struct{}) (*SettingsOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}

	settings, err := s.services.Settings.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	return &SettingsOutput{Body: settings}, nil
}

func (s *Server) handleUpdateSettings(ctx context.Context, input *UpdateSettingsInput) (*SettingsOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}

	settings, err := s.services.Settings.Update(ctx, userID, service.UpdateSettingsRequest{DarkMode: input.Body.DarkMode})
	if err != nil {
		return nil, err
	}
	return &SettingsOutput{Body: settings}, nil
}
