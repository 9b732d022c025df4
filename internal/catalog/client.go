// Package catalog fetches the upstream movie catalog, holds the current copy and filters it.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"
	"golang.org/x/time/rate"

	"github.com/popcornapp/popcorn-server/internal/config"
	"github.com/popcornapp/popcorn-server/internal/domain"
	"github.com/popcornapp/popcorn-server/internal/metrics"
)

// maxBodySize caps the upstream payload.
const maxBodySize = 8 << 20

// Client fetches the catalog from the upstream provider.
type Client struct {
	httpClient  *http.Client
	rateLimiter *rate.Limiter
	breaker     *gobreaker.CircuitBreaker[domain.Catalog]
	logger      *slog.Logger
	url         string
	apiKey      string
	apiHost     string
}

// NewClient creates a catalog client for the configured endpoint.
// Outbound requests are limited to one every two seconds with a burst of 3.
func NewClient(cfg config.CatalogConfig, logger *slog.Logger) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	c := &Client{
		httpClient:  &http.Client{Timeout: timeout},
		rateLimiter: rate.NewLimiter(rate.Every(2*time.Second), 3),
		logger:      logger,
		url:         cfg.URL,
		apiKey:      cfg.APIKey,
		apiHost:     cfg.APIHost,
	}
	c.breaker = newBreaker(logger)
	return c
}

// Fetch performs one request and decodes the whole payload.
// A malformed record fails the fetch; no partial catalog is returned.
func (c *Client) Fetch(ctx context.Context) (domain.Catalog, error) {
	start := time.Now()

	movies, err := c.breaker.Execute(func() (domain.Catalog, error) {
		return c.fetch(ctx)
	})

	result := resultLabel(err)
	metrics.RecordCatalogFetch(result, time.Since(start))

	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return nil, fmt.Errorf("%w: %w", ErrBreakerOpen, err)
		}
		return nil, err
	}

	c.logger.Debug("catalog fetched",
		slog.Int("movies", len(movies)),
		slog.Duration("duration", time.Since(start)))
	return movies, nil
}

func (c *Client) fetch(ctx context.Context) (domain.Catalog, error) {
	if err := c.rateLimiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrTransport, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrTransport, err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-RapidAPI-Key", c.apiKey)
	req.Header.Set("X-RapidAPI-Host", c.apiHost)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrTransport, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, &StatusError{StatusCode: resp.StatusCode}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, fmt.Errorf("%w: read body: %w", ErrTransport, err)
	}

	return Parse(body)
}

func resultLabel(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		return "breaker_open"
	case errors.Is(err, ErrParse):
		return "parse"
	case errors.Is(err, ErrStatus):
		return "status"
	default:
		return "transport"
	}
}
