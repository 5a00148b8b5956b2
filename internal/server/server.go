// Package server provides the HTTP server implementation for the
// photon-ALP scan API.
package server

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"

	"github.com/astrohep/alpflux/internal/config"
	apperrors "github.com/astrohep/alpflux/internal/errors"
	"github.com/astrohep/alpflux/internal/service"
)

// Server represents the HTTP server for the scan API.
// It wraps the standard http.Server and adds application-specific
// configuration and graceful shutdown capabilities.
type Server struct {
	scanner        *service.Scanner
	cfg            config.AppConfig
	httpServer     *http.Server
	logger         zerolog.Logger
	shutdownSignal chan os.Signal
	metrics        *Metrics
	timeouts       Timeouts
	limits         RequestLimits
}

// NewServer creates a new Server instance with the given scanner and
// configuration. It initializes the HTTP server with timeouts and a
// request multiplexer.
//
// Parameters:
//   - scanner: The scanner service executing scan requests.
//   - cfg: The application configuration (port, workers, etc.).
//   - opts: Optional functional options for customizing the server.
//
// Returns:
//   - *Server: A pointer to the initialized Server.
func NewServer(scanner *service.Scanner, cfg config.AppConfig, opts ...Option) *Server {
	s := &Server{
		scanner:        scanner,
		cfg:            cfg,
		logger:         zerolog.New(os.Stdout).With().Timestamp().Str("component", "server").Logger(),
		shutdownSignal: make(chan os.Signal, 1),
		metrics:        NewMetrics(),
		timeouts:       DefaultServerTimeouts(),
		limits:         DefaultRequestLimits(),
	}

	for _, opt := range opts {
		opt(s)
	}

	if s.scanner == nil {
		s.scanner = &service.Scanner{Workers: cfg.Workers}
	}

	mux := http.NewServeMux()

	// Middleware chain: Logging -> Metrics -> Handler
	mux.HandleFunc("/api/v1/scan", s.wrapWithMiddleware(s.handleScan))
	mux.HandleFunc("/healthz", s.wrapWithMiddleware(s.handleHealth))
	mux.HandleFunc("/metrics", s.wrapWithMiddleware(s.handleMetrics))

	s.httpServer = &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      mux,
		ReadTimeout:  s.timeouts.ReadTimeout,
		WriteTimeout: s.timeouts.WriteTimeout,
		IdleTimeout:  s.timeouts.IdleTimeout,
	}

	return s
}

// Handler returns the fully wired request handler, for tests driving the
// server through httptest.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// wrapWithMiddleware applies the full middleware chain to a handler.
func (s *Server) wrapWithMiddleware(handler http.HandlerFunc) http.HandlerFunc {
	wrapped := s.metricsMiddleware(handler)
	wrapped = s.loggingMiddleware(wrapped)
	return wrapped
}

// loggingMiddleware logs one line per request.
func (s *Server) loggingMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.logger.Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Str("remote", r.RemoteAddr).
			Msg("request")
		next(w, r)
	}
}

// Start initializes and starts the HTTP server.
// It listens for incoming requests on the configured port and handles
// system signals (SIGINT, SIGTERM) to ensure a graceful shutdown.
//
// Returns:
//   - error: An error if the server fails to start or shuts down
//     unexpectedly.
func (s *Server) Start() error {
	signal.Notify(s.shutdownSignal, os.Interrupt, syscall.SIGTERM)

	errCh := make(chan error, 1)

	go func() {
		s.logger.Info().
			Str("addr", s.httpServer.Addr).
			Msg("starting server")
		s.logger.Info().Msg("endpoints: POST /api/v1/scan, GET /healthz, GET /metrics")

		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-s.shutdownSignal:
		s.logger.Info().Msg("shutdown signal received, initiating graceful shutdown")
	case err := <-errCh:
		return apperrors.NewServerError("server failed to start", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), s.timeouts.ShutdownTimeout)
	defer cancel()

	if err := s.httpServer.Shutdown(ctx); err != nil {
		return apperrors.NewServerError("failed to gracefully shutdown server", err)
	}

	s.logger.Info().Msg("server stopped gracefully")
	return nil
}
