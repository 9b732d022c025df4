package providers

import (
	"github.com/samber/do/v2"

	"github.com/popcornapp/popcorn-server/internal/auth"
	"github.com/popcornapp/popcorn-server/internal/config"
	"github.com/popcornapp/popcorn-server/internal/logger"
)

// AuthKey wraps the authentication key bytes.
type AuthKey []byte

// ProvideAuthKey loads or generates the authentication key.
func ProvideAuthKey(i do.Injector) (AuthKey, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	key, err := auth.LoadOrGenerateKey(cfg.Data.BasePath)
	if err != nil {
		return nil, err
	}

	cfg.Auth.AccessTokenKey = key

	log.WithField("access_token_duration", cfg.Auth.AccessTokenDuration).
		Info("Authentication key loaded; logged out tokens stay revoked until they expire")

	return AuthKey(key), nil
}

// ProvideTokenService provides the PASETO token service.
func ProvideTokenService(i do.Injector) (*auth.TokenService, error) {
	cfg := do.MustInvoke[*config.Config](i)
	authKey := do.MustInvoke[AuthKey](i)

	return auth.NewTokenService([]byte(authKey), cfg.Auth.AccessTokenDuration)
}

// ProvidePasswordHasher provides the argon2id password hasher used for signup and login.
func ProvidePasswordHasher(i do.Injector) (*auth.PasswordHasher, error) {
	log := do.MustInvoke[*logger.Logger](i)
	params := auth.DefaultArgon2Params

	log.Debug("Password hashing configured",
		"algorithm", "argon2id",
		"memory_kib", params.Memory,
		"iterations", params.Iterations,
	)
	return auth.NewPasswordHasher(params), nil
}
