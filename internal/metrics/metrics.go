// Package metrics exposes Prometheus instrumentation for the catalog, the document tree, the subscription hub and HTTP.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Catalog
	CatalogFetches = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "popcorn_catalog_fetches_total",
			Help: "Catalog fetch attempts by outcome",
		},
		[]string{"result"}, // "ok", "transport", "status", "parse", "breaker_open"
	)

	CatalogFetchDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "popcorn_catalog_fetch_duration_seconds",
			Help:    "Duration of upstream catalog requests",
			Buckets: prometheus.DefBuckets,
		},
	)

	CatalogSize = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "popcorn_catalog_movies",
			Help: "Number of movies in the current catalog",
		},
	)

	CatalogBreakerState = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "popcorn_catalog_breaker_state",
			Help: "Catalog circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
	)

	// Document tree
	TreeWrites = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "popcorn_tree_writes_total",
			Help: "Document tree writes by operation and root",
		},
		[]string{"op", "root"},
	)

	// Subscription hub
	SubscribersActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "popcorn_subscribers_active",
			Help: "Connected subscribers (in-process watchers and SSE streams)",
		},
	)

	EventsDelivered = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "popcorn_events_total",
			Help: "Hub event deliveries by type and outcome",
		},
		[]string{"type", "outcome"}, // outcome: "delivered", "dropped", "replaced"
	)

	// Collections
	CollectionMirrors = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "popcorn_collection_mirrors_active",
			Help: "Running favorites/watchlist synchronizers",
		},
	)

	// HTTP
	HTTPRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "popcorn_http_requests_total",
			Help: "HTTP requests by method, route and status",
		},
		[]string{"method", "route", "status"},
	)

	HTTPDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "popcorn_http_request_duration_seconds",
			Help:    "HTTP request latency",
			Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		},
		[]string{"method", "route"},
	)
)

// RecordCatalogFetch records one fetch outcome and its duration.
func RecordCatalogFetch(result string, d time.Duration) {
	CatalogFetches.WithLabelValues(result).Inc()
	CatalogFetchDuration.Observe(d.Seconds())
}

// RecordHTTPRequest records one handled request.
func RecordHTTPRequest(method, route string, status int, d time.Duration) {
	HTTPRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	HTTPDuration.WithLabelValues(method, route).Observe(d.Seconds())
}
