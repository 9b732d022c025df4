package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/popcornapp/popcorn-server/internal/auth"
	"github.com/popcornapp/popcorn-server/internal/domain"
	domainerrors "github.com/popcornapp/popcorn-server/internal/errors"
	"github.com/popcornapp/popcorn-server/internal/id"
	"github.com/popcornapp/popcorn-server/internal/normalize"
	"github.com/popcornapp/popcorn-server/internal/store"
	"github.com/popcornapp/popcorn-server/internal/validation"
)

// validate is a shared validator instance for request validation.
var validate = validation.New()

// AuthService handles signup, login, logout and token verification.
type AuthService struct {
	store        *store.Store
	tokenService *auth.TokenService
	hasher       *auth.PasswordHasher
	collections  *CollectionService
	logger       *slog.Logger
}

// NewAuthService creates a new authentication service.
func NewAuthService(
	store *store.Store,
	tokenService *auth.TokenService,
	hasher *auth.PasswordHasher,
	collections *CollectionService,
	logger *slog.Logger,
) *AuthService {
	return &AuthService{
		store:        store,
		tokenService: tokenService,
		hasher:       hasher,
		collections:  collections,
		logger:       logger,
	}
}

// SignupRequest contains new account data.
type SignupRequest struct {
	Email     string `json:"email" validate:"required,email"`
	Password  string `json:"password" validate:"required,min=8,max=1024"`
	Username  string `json:"username" validate:"required,username"`
	FirstName string `json:"firstName" validate:"max=64"`
	LastName  string `json:"lastName" validate:"max=64"`
}

// LoginRequest contains user credentials.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// AuthResponse contains an access token and the signed-in user's profile.
type AuthResponse struct {
	AccessToken string              `json:"access_token"`
	ExpiresAt   time.Time           `json:"expires_at"`
	User        *domain.UserProfile `json:"user"`
}

// Signup creates an account and its public profile, then signs the user in.
func (s *AuthService) Signup(ctx context.Context, req SignupRequest) (*AuthResponse, error) {
	req.Email = strings.TrimSpace(req.Email)
	req.Username = strings.TrimSpace(req.Username)
	if err := validate.Validate(req); err != nil {
		return nil, err
	}

	taken, err := usernameInUse(ctx, s.store, req.Username, "")
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, domainerrors.AlreadyExists("username already in use")
	}

	passwordHash, err := s.hasher.Hash(req.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	userID, err := id.Generate(id.PrefixUser)
	if err != nil {
		return nil, fmt.Errorf("generate user ID: %w", err)
	}

	account := &domain.Account{
		ID:           userID,
		Email:        req.Email,
		PasswordHash: passwordHash,
		LastLoginAt:  time.Now(),
	}
	account.InitTimestamps()

	if err := s.store.Accounts.Create(ctx, userID, account); err != nil {
		if errors.Is(err, store.ErrAlreadyExists) {
			return nil, domainerrors.AlreadyExists("email already in use")
		}
		return nil, fmt.Errorf("create account: %w", err)
	}

	profile := &domain.UserProfile{
		ID:        userID,
		Username:  req.Username,
		FirstName: strings.TrimSpace(req.FirstName),
		LastName:  strings.TrimSpace(req.LastName),
	}
	if err := s.store.SaveProfile(ctx, profile); err != nil {
		if delErr := s.store.Accounts.Delete(ctx, userID); delErr != nil {
			s.logger.Error("Failed to roll back account after profile error",
				"user_id", userID,
				"error", delErr,
			)
		}
		return nil, fmt.Errorf("create profile: %w", err)
	}

	s.logger.Info("User signed up",
		"user_id", userID,
		"username", profile.Username,
	)

	return s.issue(account, profile)
}

// Login verifies credentials and issues a new access token.
func (s *AuthService) Login(ctx context.Context, req LoginRequest) (*AuthResponse, error) {
	if err := validate.Validate(req); err != nil {
		return nil, err
	}

	account, err := s.store.Accounts.GetByIndex(ctx, "email", req.Email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			// Don't leak whether email exists
			return nil, domainerrors.InvalidCredentials("invalid email or password")
		}
		return nil, fmt.Errorf("lookup account: %w", err)
	}

	if !s.hasher.Verify(account.PasswordHash, req.Password) {
		return nil, domainerrors.InvalidCredentials("invalid email or password")
	}

	account.LastLoginAt = time.Now()
	account.Touch()
	if err := s.store.Accounts.Update(ctx, account.ID, account); err != nil {
		// Log but don't fail login
		s.logger.Warn("Failed to update last login time",
			"user_id", account.ID,
			"error", err,
		)
	}

	profile, err := s.store.GetProfile(ctx, account.ID)
	if err != nil {
		return nil, fmt.Errorf("load profile: %w", err)
	}

	s.logger.Info("User logged in", "user_id", account.ID)

	return s.issue(account, profile)
}

func (s *AuthService) issue(account *domain.Account, profile *domain.UserProfile) (*AuthResponse, error) {
	token, claims, err := s.tokenService.GenerateAccessToken(account)
	if err != nil {
		return nil, fmt.Errorf("generate access token: %w", err)
	}
	return &AuthResponse{
		AccessToken: token,
		ExpiresAt:   claims.Expiration,
		User:        profile,
	}, nil
}

// Logout revokes the token behind claims and releases the user's collection mirrors.
func (s *AuthService) Logout(ctx context.Context, claims *auth.AccessClaims) error {
	if err := s.store.RevokeToken(ctx, claims.TokenID, claims.Expiration); err != nil {
		return fmt.Errorf("revoke token: %w", err)
	}
	if s.collections != nil {
		s.collections.Release(claims.UserID)
	}
	s.logger.Info("User logged out", "user_id", claims.UserID)
	return nil
}

// VerifyAccessToken validates a token and checks it has not been revoked.
// Used by authentication middleware.
func (s *AuthService) VerifyAccessToken(ctx context.Context, tokenString string) (*auth.AccessClaims, error) {
	claims, err := s.tokenService.VerifyAccessToken(tokenString)
	if err != nil {
		return nil, domainerrors.Wrap(err, domainerrors.CodeUnauthorized, "invalid or expired token")
	}

	revoked, err := s.store.IsTokenRevoked(ctx, claims.TokenID)
	if err != nil {
		return nil, fmt.Errorf("check revocation: %w", err)
	}
	if revoked {
		return nil, domainerrors.Unauthorized("token has been revoked")
	}
	return claims, nil
}

// usernameInUse reports whether another user already holds username, ignoring case.
func usernameInUse(ctx context.Context, st *store.Store, username, exceptID string) (bool, error) {
	profiles, err := st.ListProfiles(ctx)
	if err != nil {
		return false, fmt.Errorf("list profiles: %w", err)
	}
	want := normalize.Fold(username)
	for _, p := range profiles {
		if p.ID != exceptID && normalize.Fold(p.Username) == want {
			return true, nil
		}
	}
	return false, nil
}
