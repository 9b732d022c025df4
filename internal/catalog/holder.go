package catalog

import (
	"sync"
	"time"

	"github.com/popcornapp/popcorn-server/internal/domain"
	"github.com/popcornapp/popcorn-server/internal/metrics"
)

// Holder keeps the latest successful catalog. Apply runs on the dispatcher; readers may call
// the getters from any goroutine.
type Holder struct {
	mu        sync.RWMutex
	catalog   domain.Catalog
	lastErr   error
	updatedAt time.Time
	loaded    bool
}

// NewHolder creates an empty holder.
func NewHolder() *Holder {
	return &Holder{}
}

// Apply records a fetch result. A failure keeps the previous catalog and only sets LastError.
// It reports whether the catalog was replaced.
func (h *Holder) Apply(res Result, now time.Time) bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	if res.Err != nil {
		h.lastErr = res.Err
		return false
	}

	h.catalog = res.Catalog
	h.lastErr = nil
	h.updatedAt = now
	h.loaded = true
	metrics.CatalogSize.Set(float64(len(res.Catalog)))
	return true
}

// Catalog returns the current catalog. Callers must not modify it.
func (h *Holder) Catalog() domain.Catalog {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.catalog
}

// Loaded reports whether any fetch has succeeded.
func (h *Holder) Loaded() bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.loaded
}

// LastError returns the error of the most recent fetch, nil after a success.
func (h *Holder) LastError() error {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.lastErr
}

// UpdatedAt returns when the current catalog was applied.
func (h *Holder) UpdatedAt() time.Time {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.updatedAt
}
