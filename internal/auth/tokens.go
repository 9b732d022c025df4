package auth

import (
	"errors"
	"fmt"
	"time"

	"aidanwoods.dev/go-paseto"
	json "github.com/goccy/go-json"

	"github.com/popcornapp/popcorn-server/internal/domain"
	"github.com/popcornapp/popcorn-server/internal/id"
)

const (
	tokenIssuer   = "popcorn-server"
	tokenAudience = "popcorn-client"
	tokenIDPrefix = "tok"
)

// ErrInvalidToken is returned for tokens that fail decryption or a claim rule.
var ErrInvalidToken = errors.New("auth: invalid token")

// TokenService issues and verifies PASETO v4.local access tokens.
type TokenService struct {
	symmetricKey        paseto.V4SymmetricKey
	accessTokenDuration time.Duration
	now                 func() time.Time
}

// NewTokenService creates a token service from a 32-byte key.
func NewTokenService(key []byte, accessDuration time.Duration) (*TokenService, error) {
	if len(key) != keyLength {
		return nil, fmt.Errorf("PASETO v4 key must be exactly %d bytes, got %d", keyLength, len(key))
	}

	symmetricKey, err := paseto.V4SymmetricKeyFromBytes(key)
	if err != nil {
		return nil, fmt.Errorf("failed to create PASETO symmetric key: %w", err)
	}

	return &TokenService{
		symmetricKey:        symmetricKey,
		accessTokenDuration: accessDuration,
		now:                 time.Now,
	}, nil
}

// GenerateAccessToken creates an access token for account and returns it with its claims.
func (s *TokenService) GenerateAccessToken(account *domain.Account) (string, *AccessClaims, error) {
	now := s.now()

	tokenID, err := id.Generate(tokenIDPrefix)
	if err != nil {
		return "", nil, fmt.Errorf("generate token ID: %w", err)
	}

	claims := &AccessClaims{
		UserID:     account.ID,
		Email:      account.Email,
		Issuer:     tokenIssuer,
		Subject:    account.ID,
		Audience:   tokenAudience,
		IssuedAt:   now,
		NotBefore:  now,
		Expiration: now.Add(s.accessTokenDuration),
		TokenID:    tokenID,
	}

	token := paseto.NewToken()
	token.SetIssuer(claims.Issuer)
	token.SetSubject(claims.Subject)
	token.SetAudience(claims.Audience)
	token.SetIssuedAt(claims.IssuedAt)
	token.SetNotBefore(claims.NotBefore)
	token.SetExpiration(claims.Expiration)
	token.SetJti(claims.TokenID)
	//nolint:errcheck // Token.Set only errors on unmarshalable values
	_ = token.Set("user_id", claims.UserID)
	//nolint:errcheck // Token.Set only errors on unmarshalable values
	_ = token.Set("email", claims.Email)

	return token.V4Encrypt(s.symmetricKey, nil), claims, nil
}

// VerifyAccessToken decrypts a token and checks issuer, audience and validity window.
func (s *TokenService) VerifyAccessToken(tokenString string) (*AccessClaims, error) {
	parser := paseto.NewParser()
	parser.AddRule(paseto.ForAudience(tokenAudience))
	parser.AddRule(paseto.IssuedBy(tokenIssuer))
	parser.AddRule(paseto.NotExpired())
	parser.AddRule(paseto.ValidAt(s.now()))

	token, err := parser.ParseV4Local(s.symmetricKey, tokenString, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}

	var claims AccessClaims
	if err := json.Unmarshal(token.ClaimsJSON(), &claims); err != nil {
		return nil, fmt.Errorf("%w: parse claims: %w", ErrInvalidToken, err)
	}
	if claims.UserID == "" {
		return nil, fmt.Errorf("%w: no user", ErrInvalidToken)
	}

	return &claims, nil
}

// AccessTokenDuration returns the configured access token lifetime.
func (s *TokenService) AccessTokenDuration() time.Duration {
	return s.accessTokenDuration
}
