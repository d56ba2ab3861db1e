package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/mattjoyce/grouse/internal/complaint"
	"github.com/mattjoyce/grouse/internal/events"
	"github.com/mattjoyce/grouse/internal/metrics"
	"github.com/mattjoyce/grouse/internal/slack"
)

// Config holds HTTP gateway configuration.
type Config struct {
	Listen      string
	CommandPath string
	MaxBodySize int64
	Subject     string
	// Backend names the storage backend for /healthz reporting.
	Backend      string
	AdminEnabled bool
	// AdminToken is the bearer token guarding /admin endpoints.
	AdminToken string
}

// Server is the HTTP gateway. It verifies each slash command against the
// signing secret before anything else touches the payload.
type Server struct {
	config        Config
	authenticator *slack.Authenticator
	store         complaint.Store
	logger        *slog.Logger
	metrics       *metrics.Metrics
	events        *events.Hub
	server        *http.Server
	startedAt     time.Time
}

// New creates a new gateway instance.
func New(config Config, authenticator *slack.Authenticator, store complaint.Store, logger *slog.Logger) *Server {
	if config.CommandPath == "" {
		config.CommandPath = "/slack/command"
	}
	if config.MaxBodySize <= 0 {
		config.MaxBodySize = 1 << 20
	}
	if config.Subject == "" {
		config.Subject = "Curtis"
	}
	return &Server{
		config:        config,
		authenticator: authenticator,
		store:         store,
		logger:        logger,
		metrics:       metrics.New(),
		events:        events.NewHub(256),
		startedAt:     time.Now(),
	}
}

// Start starts the HTTP server (blocking).
func (s *Server) Start(ctx context.Context) error {
	router := s.setupRoutes()

	s.server = &http.Server{
		Addr:         s.config.Listen,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	s.logger.Info("gateway starting", "listen", s.config.Listen, "command_path", s.config.CommandPath)
	s.events.Publish(events.TypeServerStarted, nil)

	// Run server in a goroutine
	errCh := make(chan error, 1)
	go func() {
		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	// Wait for context cancellation or server error
	select {
	case <-ctx.Done():
		s.logger.Info("gateway shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server shutdown failed: %w", err)
		}
		return ctx.Err()
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	}
}

// setupRoutes configures the HTTP router
func (s *Server) setupRoutes() *chi.Mux {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.loggingMiddleware)
	r.Use(middleware.Recoverer)

	// The command endpoint authenticates via request signing, not bearer auth.
	r.Post(s.config.CommandPath, s.handleCommand)

	// Unauthenticated ops endpoints.
	r.Get("/healthz", s.handleHealthz)
	r.Method(http.MethodGet, "/metrics", s.metrics.Handler())

	// Protected admin API.
	if s.config.AdminEnabled {
		r.Group(func(r chi.Router) {
			r.Use(s.authMiddleware)
			r.Get("/admin/complaints", s.handleListComplaints)
			r.Get("/admin/events", s.handleEvents)
		})
	}

	return r
}

// loggingMiddleware logs HTTP requests and feeds the duration histogram.
func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		elapsed := time.Since(start)

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			route = rctx.RoutePattern()
		}
		s.metrics.ObserveRequest(route, elapsed.Seconds())

		s.logger.Info("http request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration_ms", elapsed.Milliseconds(),
			"request_id", middleware.GetReqID(r.Context()),
		)
	})
}
