// Package api provides the HTTP API server and handlers for the notes API.
package api

import (
	"net/http"
	"slices"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/archipelago/notes-api/internal/config"
	"github.com/archipelago/notes-api/internal/http/response"
	"github.com/archipelago/notes-api/internal/logger"
	"github.com/archipelago/notes-api/internal/ratelimit"
)

// Server holds dependencies for HTTP handlers.
type Server struct {
	services *Services
	verifier TokenVerifier
	cfg      *config.Config
	router   *chi.Mux
	api      huma.API
	logger   *logger.Logger

	authRateLimiter    *ratelimit.KeyedRateLimiter
	suggestRateLimiter *ratelimit.KeyedRateLimiter
}

// NewServer creates a new HTTP server with all routes configured.
// Call Close when done to stop the rate limiters.
func NewServer(services *Services, verifier TokenVerifier, cfg *config.Config, log *logger.Logger) *Server {
	s := &Server{
		services:           services,
		verifier:           verifier,
		cfg:                cfg,
		router:             chi.NewRouter(),
		logger:             log,
		authRateLimiter:    newPerMinuteLimiter(cfg.Auth.RateLimit, cfg.Auth.RateBurst),
		suggestRateLimiter: newPerMinuteLimiter(cfg.Suggest.RateLimit, cfg.Suggest.RateBurst),
	}

	s.setupMiddleware()

	humaConfig := huma.DefaultConfig("Archipelago Notes API", "1.0.0")
	humaConfig.Components.SecuritySchemes = map[string]*huma.SecurityScheme{
		"bearer": {
			Type:         "http",
			Scheme:       "bearer",
			BearerFormat: "PASETO",
		},
	}
	// Responses are plain JSON documents without a $schema link.
	humaConfig.CreateHooks = nil

	s.api = humachi.New(s.router, humaConfig)
	RegisterErrorHandler()

	s.registerHealthRoutes()
	s.registerAuthRoutes()
	s.registerNoteRoutes()
	s.registerTagRoutes()

	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// API returns the Huma API, mainly for tests and OpenAPI export.
func (s *Server) API() huma.API {
	return s.api
}

// Close stops background work owned by the server.
func (s *Server) Close() {
	s.authRateLimiter.Stop()
	s.suggestRateLimiter.Stop()
}

// setupMiddleware configures the middleware stack. Identity resolution runs
// for every request; operations that need a caller reject anonymous ones.
func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(requestLogger(s.logger))
	s.router.Use(middleware.Recoverer)
	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   s.cfg.Server.CORSAllowedOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", userIDHeader},
		ExposedHeaders:   []string{middleware.RequestIDHeader},
		AllowCredentials: !slices.Contains(s.cfg.Server.CORSAllowedOrigins, "*"),
		MaxAge:           300,
	}))
	s.router.Use(identityMiddleware(s.verifier, s.cfg.Auth.TrustUserHeader, s.logger))

	s.router.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		response.NotFound(w, "route not found", s.logger.Logger)
	})
	s.router.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		response.MethodNotAllowed(w, "method not allowed", s.logger.Logger)
	})
}

