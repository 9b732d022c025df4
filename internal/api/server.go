// Package api provides the HTTP API server and handlers for the Popcorn application.
package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/popcornapp/popcorn-server/internal/sse"
	"github.com/popcornapp/popcorn-server/internal/store"
)

// Options tunes the HTTP layer.
type Options struct {
	AllowedOrigins []string // CORS origins, "*" allows any
	Version        string
}

// Server holds dependencies for HTTP handlers.
type Server struct {
	store           *store.Store
	services        *Services
	sseManager      *sse.Manager
	sseHandler      *sse.Handler
	router          *chi.Mux
	api             huma.API
	authRateLimiter *RateLimiter
	logger          *slog.Logger
}

// NewServer creates a new HTTP server with all routes configured.
func NewServer(store *store.Store, services *Services, sseManager *sse.Manager, opts Options, logger *slog.Logger) *Server {
	s := &Server{
		store:           store,
		services:        services,
		sseManager:      sseManager,
		router:          chi.NewRouter(),
		authRateLimiter: NewRateLimiter(20, time.Minute, 10),
		logger:          logger,
	}
	if sseManager != nil {
		s.sseHandler = sse.NewHandler(sseManager, streamUserID, logger)
	}

	s.setupMiddleware(opts)
	s.setupAPI(opts)
	s.registerRoutes()

	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// API returns the huma API, mainly for tests and OpenAPI export.
func (s *Server) API() huma.API {
	return s.api
}

// Close releases background resources held by the server.
func (s *Server) Close() {
	if s.authRateLimiter != nil {
		s.authRateLimiter.Stop()
	}
}

// setupMiddleware configures middleware stack.
func (s *Server) setupMiddleware(opts Options) {
	origins := opts.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	s.router.Use(requestIDMiddleware)
	s.router.Use(middleware.RealIP)
	s.router.Use(observeMiddleware(s.logger))
	s.router.Use(middleware.Recoverer)
	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders: []string{"X-Request-ID"},
		MaxAge:         300,
	}))
	// Coarse per-IP ceiling for every route; auth routes are limited further.
	s.router.Use(httprate.LimitByRealIP(600, time.Minute))
	s.router.Use(middleware.Compress(5))
	s.router.Use(remoteAddrMiddleware)
	if s.services != nil && s.services.Auth != nil {
		s.router.Use(authMiddleware(s.services.Auth))
	}
}

func (s *Server) setupAPI(opts Options) {
	version := opts.Version
	if version == "" {
		version = "dev"
	}

	humaConfig := huma.DefaultConfig("Popcorn API", version)
	humaConfig.Components.SecuritySchemes = map[string]*huma.SecurityScheme{
		"bearer": {
			Type:         "http",
			Scheme:       "bearer",
			BearerFormat: "PASETO",
		},
	}
	humaConfig.Transformers = append(humaConfig.Transformers, EnvelopeTransformer)

	s.api = humachi.New(s.router, humaConfig)
	RegisterErrorHandler()
}

// registerRoutes configures all HTTP routes.
func (s *Server) registerRoutes() {
	s.router.Handle("/metrics", promhttp.Handler())
	if s.sseHandler != nil {
		s.router.Get("/api/v1/sync/stream", s.sseHandler.ServeHTTP)
	}

	s.registerHealthRoutes()
	s.registerAuthRoutes()
	s.registerMovieRoutes()
	s.registerCollectionRoutes()
	s.registerSocialRoutes()
	s.registerRatingRoutes()
	s.registerProfileRoutes()
}
