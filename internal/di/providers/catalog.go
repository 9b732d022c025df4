package providers

import (
	"context"

	"github.com/samber/do/v2"

	"github.com/popcornapp/popcorn-server/internal/catalog"
	"github.com/popcornapp/popcorn-server/internal/config"
	"github.com/popcornapp/popcorn-server/internal/logger"
	"github.com/popcornapp/popcorn-server/internal/service"
)

// ProvideCatalogClient provides the upstream movie API client.
func ProvideCatalogClient(i do.Injector) (*catalog.Client, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	return catalog.NewClient(cfg.Catalog, log.Component("catalog")), nil
}

// CatalogServiceHandle wraps the catalog service with the context its fetch loop runs under.
type CatalogServiceHandle struct {
	*service.CatalogService
	cancel context.CancelFunc
}

// Shutdown implements do.Shutdownable.
func (h *CatalogServiceHandle) Shutdown() error {
	h.cancel()
	return nil
}

// ProvideCatalogService provides the catalog service and starts the first fetch.
func ProvideCatalogService(i do.Injector) (*CatalogServiceHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)
	client := do.MustInvoke[*catalog.Client](i)
	indexHandle := do.MustInvoke[*SearchIndexHandle](i)
	sseHandle := do.MustInvoke[*SSEManagerHandle](i)

	svc := service.NewCatalogService(client, indexHandle.SearchIndex, sseHandle.Manager, cfg.Catalog.RefreshInterval, log.Logger)

	ctx, cancel := context.WithCancel(context.Background())
	svc.Start(ctx)

	log.Info("Catalog service started", "refresh_interval", cfg.Catalog.RefreshInterval)

	return &CatalogServiceHandle{CatalogService: svc, cancel: cancel}, nil
}
