package providers

import (
	"github.com/samber/do/v2"

	"github.com/popcornapp/popcorn-server/internal/auth"
	"github.com/popcornapp/popcorn-server/internal/logger"
	"github.com/popcornapp/popcorn-server/internal/service"
)

// CollectionServiceHandle closes every collection mirror on shutdown.
type CollectionServiceHandle struct {
	*service.CollectionService
}

// Shutdown implements do.Shutdownable.
func (h *CollectionServiceHandle) Shutdown() error {
	h.CollectionService.Shutdown()
	return nil
}

// ProvideCollectionService provides the favorites and watchlist service.
func ProvideCollectionService(i do.Injector) (*CollectionServiceHandle, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	sseHandle := do.MustInvoke[*SSEManagerHandle](i)
	catalogHandle := do.MustInvoke[*CatalogServiceHandle](i)
	log := do.MustInvoke[*logger.Logger](i)

	svc := service.NewCollectionService(sseHandle.Manager, storeHandle.Store, catalogHandle.CatalogService, log.Logger)
	return &CollectionServiceHandle{CollectionService: svc}, nil
}

// ProvideAuthService provides the authentication service.
func ProvideAuthService(i do.Injector) (*service.AuthService, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	tokenService := do.MustInvoke[*auth.TokenService](i)
	hasher := do.MustInvoke[*auth.PasswordHasher](i)
	collections := do.MustInvoke[*CollectionServiceHandle](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewAuthService(storeHandle.Store, tokenService, hasher, collections.CollectionService, log.Logger), nil
}

// ProvideSocialService provides the user connections service.
func ProvideSocialService(i do.Injector) (*service.SocialService, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	sseHandle := do.MustInvoke[*SSEManagerHandle](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewSocialService(storeHandle.Store, sseHandle.Manager, log.Logger), nil
}

// ProvideRatingService provides the movie rating service.
func ProvideRatingService(i do.Injector) (*service.RatingService, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	sseHandle := do.MustInvoke[*SSEManagerHandle](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewRatingService(storeHandle.Store, sseHandle.Manager, log.Logger), nil
}

// ProvideProfileService provides the profile service.
func ProvideProfileService(i do.Injector) (*service.ProfileService, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewProfileService(storeHandle.Store, log.Logger), nil
}

// ProvideSettingsService provides the user settings service.
func ProvideSettingsService(i do.Injector) (*service.SettingsService, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewSettingsService(storeHandle.Store, log.Logger), nil
}
