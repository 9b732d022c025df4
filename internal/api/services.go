package api

import (
	"github.com/popcornapp/popcorn-server/internal/service"
)

// Services groups all business logic services used by the API server.
// This reduces the parameter count for NewServer and improves testability.
type Services struct {
	Auth        *service.AuthService
	Catalog     *service.CatalogService
	Collections *service.CollectionService // Favorites and watchlist mirrors
	Social      *service.SocialService
	Ratings     *service.RatingService
	Profile     *service.ProfileService
	Settings    *service.SettingsService
}
