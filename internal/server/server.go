package server

import (
	"context"
	"crypto/rand"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/lf-pro/cro/internal/analysis"
)

const defaultMaxUpload = 32 << 20

// Config holds server configuration
type Config struct {
	Port int
	Log  zerolog.Logger

	Runner *analysis.Runner

	// Token protects the dashboard; a random one is generated when empty.
	Token string

	MaxUploadBytes int64

	// Seed and Timeout are the analysis defaults for uploads that do not
	// set their own.
	Seed    uint64
	Timeout time.Duration
}

// Server serves the analysis API and dashboard.
type Server struct {
	router    *chi.Mux
	server    *http.Server
	log       zerolog.Logger
	runner    *analysis.Runner
	port      int
	token     string
	maxUpload int64
	seed      uint64
	timeout   time.Duration
	startTime time.Time
}

// New creates a new HTTP server
func New(cfg Config) *Server {
	s := &Server{
		router:    chi.NewRouter(),
		log:       cfg.Log.With().Str("component", "server").Logger(),
		runner:    cfg.Runner,
		port:      cfg.Port,
		token:     cfg.Token,
		maxUpload: cfg.MaxUploadBytes,
		seed:      cfg.Seed,
		timeout:   cfg.Timeout,
		startTime: time.Now(),
	}
	if s.token == "" {
		s.token = rand.Text()
	}
	if s.maxUpload <= 0 {
		s.maxUpload = defaultMaxUpload
	}
	if s.runner == nil {
		s.runner = analysis.NewRunner(cfg.Log)
	}

	s.setupMiddleware()
	s.setupRoutes()

	s.server = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      s.router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 90 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return s
}

func (s *Server) setupMiddleware() {
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(s.loggingMiddleware)
	s.router.Use(middleware.Timeout(60 * time.Second))
	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))
}

func (s *Server) setupRoutes() {
	s.router.Get("/health", s.handleHealth)
	s.router.Handle("/metrics", promhttp.Handler())

	s.router.Route("/api", func(r chi.Router) {
		r.Post("/analyze", s.handleAnalyze)
	})

	s.router.Route("/dashboard", func(r chi.Router) {
		r.Use(s.authMiddleware)
		r.Get("/", s.handleDashboard)
		r.Post("/analyze", s.handleDashboardAnalyze)
	})
}

// Start starts the HTTP server
func (s *Server) Start() error {
	s.log.Info().
		Int("port", s.port).
		Str("dashboard", s.DashboardURL()).
		Msg("Starting HTTP server")
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	s.log.Info().Msg("Shutting down HTTP server")
	return s.server.Shutdown(ctx)
}

func (s *Server) Token() string {
	return s.token
}

// DashboardURL is the local dashboard address including the login token.
func (s *Server) DashboardURL() string {
	return fmt.Sprintf("http://localhost:%d/dashboard?token=%s", s.port, s.token)
}

func (s *Server) Handler() http.Handler {
	return s.router
}

// loggingMiddleware logs HTTP requests
func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			route = rctx.RoutePattern()
		}
		observeRequest(r.Method, route, ww.Status(), time.Since(start))

		s.log.Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Int("bytes", ww.BytesWritten()).
			Dur("duration_ms", time.Since(start)).
			Str("request_id", middleware.GetReqID(r.Context())).
			Msg("HTTP request")
	})
}
