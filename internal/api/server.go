// Package api provides the HTTP API server and handlers for Shelf.
package api

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/listenupapp/shelf/internal/search"
	"github.com/listenupapp/shelf/internal/service"
	"github.com/listenupapp/shelf/internal/sse"
	"github.com/listenupapp/shelf/internal/validation"
)

// Searcher runs full-text queries over a user's books.
type Searcher interface {
	Search(ctx context.Context, params search.SearchParams) (*search.SearchResult, error)
	DocumentCount() (uint64, error)
}

// Services groups the collaborators handlers depend on.
type Services struct {
	Sessions *service.Sessions
	Store    service.CatalogStore // health checks only
	Search   Searcher
	SSE      *sse.Manager
}

// Options tunes the HTTP surface.
type Options struct {
	CORSOrigins []string
	// CaptureRate and CaptureBurst bound token submissions per user.
	CaptureRate  float64
	CaptureBurst int
}

const (
	defaultCaptureRate  = 20
	defaultCaptureBurst = 40
)

// Server holds dependencies for HTTP handlers.
type Server struct {
	services       *Services
	validator      *validation.Validator
	captureLimiter *RateLimiter
	router         *chi.Mux
	api            huma.API
	logger         *slog.Logger
}

// NewServer creates a new HTTP server with all routes configured.
func NewServer(services *Services, opts Options, logger *slog.Logger) *Server {
	if opts.CaptureRate <= 0 {
		opts.CaptureRate = defaultCaptureRate
	}
	if opts.CaptureBurst <= 0 {
		opts.CaptureBurst = defaultCaptureBurst
	}

	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(requestLogger(logger))
	router.Use(middleware.Recoverer)
	router.Use(cors.Handler(corsOptions(opts.CORSOrigins)))

	humaConfig := huma.DefaultConfig("Shelf API", "1.0.0")
	humaConfig.Info.Description = "Capture books from a camera feed into user collections"
	api := humachi.New(router, humaConfig)
	RegisterErrorHandler()

	s := &Server{
		services:       services,
		validator:      validation.New(),
		captureLimiter: NewRateLimiter(opts.CaptureRate, time.Second, opts.CaptureBurst),
		router:         router,
		api:            api,
		logger:         logger,
	}

	s.registerHealthRoutes()
	s.registerCollectionRoutes()
	s.registerBookRoutes()
	s.registerCaptureRoutes()
	s.registerSearchRoutes()
	s.registerEventRoutes()

	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// API exposes the huma API, mainly for tests and OpenAPI export.
func (s *Server) API() huma.API {
	return s.api
}

// Close releases background resources held by the server.
func (s *Server) Close() {
	s.captureLimiter.Stop()
}

func corsOptions(origins []string) cors.Options {
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	return cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", userHeader},
		ExposedHeaders:   []string{"X-Request-Id"},
		AllowCredentials: false,
		MaxAge:           300,
	}
}
