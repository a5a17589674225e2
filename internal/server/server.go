// Package server provides the HTTP server and routing for VentasBI.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog"

	"github.com/hjuarez/ventasbi/internal/config"
	analyticshandlers "github.com/hjuarez/ventasbi/internal/modules/analytics/handlers"
	"github.com/hjuarez/ventasbi/internal/modules/forecast"
	forecasthandlers "github.com/hjuarez/ventasbi/internal/modules/forecast/handlers"
	"github.com/hjuarez/ventasbi/internal/modules/ingest"
	"github.com/hjuarez/ventasbi/internal/modules/model"
	"github.com/hjuarez/ventasbi/internal/modules/trends"
)

// Config holds server configuration
type Config struct {
	Port              int
	Log               zerolog.Logger
	Config            *config.Config
	DevMode           bool
	ForecastHandlers  *forecasthandlers.Handler
	AnalyticsHandlers *analyticshandlers.Handler
	ForecastService   *forecast.Service
	TrendsService     *trends.Service
	Parser            *ingest.Parser
	Repo              *ingest.Repository
	ModelCache        *model.Cache
}

// Server represents the HTTP server
type Server struct {
	router            *chi.Mux
	server            *http.Server
	log               zerolog.Logger
	cfg               *config.Config
	forecastHandlers  *forecasthandlers.Handler
	analyticsHandlers *analyticshandlers.Handler
	forecastService   *forecast.Service
	trendsService     *trends.Service
	parser            *ingest.Parser
	repo              *ingest.Repository
	modelCache        *model.Cache
	startupTime       time.Time
}

// New creates a new HTTP server
func New(cfg Config) *Server {
	s := &Server{
		router:            chi.NewRouter(),
		log:               cfg.Log.With().Str("component", "server").Logger(),
		cfg:               cfg.Config,
		forecastHandlers:  cfg.ForecastHandlers,
		analyticsHandlers: cfg.AnalyticsHandlers,
		forecastService:   cfg.ForecastService,
		trendsService:     cfg.TrendsService,
		parser:            cfg.Parser,
		repo:              cfg.Repo,
		modelCache:        cfg.ModelCache,
		startupTime:       time.Now(),
	}

	s.setupMiddleware(cfg.DevMode)
	s.setupRoutes()

	s.server = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 120 * time.Second, // Grid search can take a while on first request
		IdleTimeout:  60 * time.Second,
	}

	return s
}

// setupMiddleware configures middleware
func (s *Server) setupMiddleware(devMode bool) {
	// Recovery from panics
	s.router.Use(middleware.Recoverer)

	// Request ID
	s.router.Use(middleware.RequestID)

	// Real IP
	s.router.Use(middleware.RealIP)

	// Logging
	s.router.Use(s.loggingMiddleware)

	// Timeout
	s.router.Use(middleware.Timeout(120 * time.Second))

	// CORS
	allowedOrigins := []string{"*"}
	if !devMode {
		allowedOrigins = []string{"http://localhost:8080"}
	}
	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))
}

// setupRoutes registers all API routes
func (s *Server) setupRoutes() {
	s.router.Route("/api", func(r chi.Router) {
		r.Get("/health", s.handleHealth)

		r.Get("/predict", s.forecastHandlers.HandlePredict)
		r.Get("/predict/export", s.forecastHandlers.HandleExport)

		r.Post("/upload", s.handleUpload)

		r.Route("/analytics", func(r chi.Router) {
			r.Get("/summary", s.analyticsHandlers.HandleSummary)
			r.Get("/customers/top", s.analyticsHandlers.HandleTopCustomers)
			r.Get("/customers/{id}/history", s.analyticsHandlers.HandleHistory)
			r.Get("/customers/{id}/monthly", s.analyticsHandlers.HandleMonthly)
		})

		r.Get("/trends/weekly", s.handleWeeklyTrends)
	})
}

// loggingMiddleware logs each request with zerolog
func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		s.log.Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Dur("elapsed", time.Since(start)).
			Msg("Request")
	})
}

// Start begins serving HTTP requests
func (s *Server) Start() error {
	s.log.Info().Str("addr", s.server.Addr).Msg("HTTP server listening")
	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown gracefully stops the server
func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}
