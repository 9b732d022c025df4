// Package providers contains dependency injection providers for the Popcorn server.
package providers

import (
	"github.com/samber/do/v2"

	"github.com/popcornapp/popcorn-server/internal/config"
	"github.com/popcornapp/popcorn-server/internal/logger"
)

// ProvideConfig provides the application configuration.
func ProvideConfig(i do.Injector) (*config.Config, error) {
	return config.LoadConfig()
}

// ProvideLogger provides the structured logger.
func ProvideLogger(i do.Injector) (*logger.Logger, error) {
	cfg := do.MustInvoke[*config.Config](i)

	log := logger.New(logger.Config{
		Level:       logger.ParseLevel(cfg.Logger.Level),
		AddSource:   cfg.App.Environment == "development",
		Environment: cfg.App.Environment,
	})

	log.Info("Starting Popcorn Server",
		"environment", cfg.App.Environment,
		"log_level", cfg.Logger.Level,
		"data_path", cfg.Data.BasePath,
	)

	catalogLog := log.WithField("catalog_url", cfg.Catalog.URL).WithField("catalog_host", cfg.Catalog.APIHost)
	if cfg.Catalog.RefreshInterval > 0 {
		catalogLog.Info("Movie catalog will refresh periodically", "interval", cfg.Catalog.RefreshInterval)
	} else {
		catalogLog.Info("Movie catalog will be fetched once at startup; use POST /api/v1/catalog/refresh to reload")
	}
	if cfg.Catalog.APIKey == "" {
		catalogLog.Warn("CATALOG_API_KEY is not set; the catalog provider will likely reject requests")
	}

	return log, nil
}
