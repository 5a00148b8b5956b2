package server

import (
	"time"

	"github.com/rs/zerolog"

	"github.com/astrohep/alpflux/internal/service"
)

// Option defines a functional option for configuring a Server.
type Option func(*Server)

// WithLogger sets a custom zerolog logger for the server.
// This is useful for testing or integrating with existing logging
// infrastructure.
//
// Parameters:
//   - logger: The logger to use.
//
// Returns:
//   - Option: A functional option that configures the server's logger.
func WithLogger(logger zerolog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// WithScanner sets a custom scanner service for the server.
// This enables dependency injection for testing, or wiring in an
// optical depth model and validity observer.
//
// Parameters:
//   - scanner: The scanner to use. If nil, the default scanner is used.
//
// Returns:
//   - Option: A functional option that configures the server's scanner.
func WithScanner(scanner *service.Scanner) Option {
	return func(s *Server) {
		if scanner != nil {
			s.scanner = scanner
		}
	}
}

// WithTimeouts sets custom timeout configuration for the server.
// This allows fine-tuning server behavior for different deployment
// scenarios.
//
// Parameters:
//   - timeouts: The timeout configuration.
//
// Returns:
//   - Option: A functional option that configures the server's timeouts.
func WithTimeouts(timeouts Timeouts) Option {
	return func(s *Server) {
		s.timeouts = timeouts
	}
}

// WithRequestLimits sets custom request limits.
//
// Parameters:
//   - limits: The limit configuration.
//
// Returns:
//   - Option: A functional option that configures the server's limits.
func WithRequestLimits(limits RequestLimits) Option {
	return func(s *Server) {
		s.limits = limits
	}
}

// Timeouts holds timeout configuration for the HTTP server.
// These can be customized via functional options for testing or
// deployment needs.
type Timeouts struct {
	// RequestTimeout is the maximum duration for a single scan.
	RequestTimeout time.Duration
	// ShutdownTimeout is the maximum duration allowed for graceful shutdown.
	ShutdownTimeout time.Duration
	// ReadTimeout is the maximum duration for reading the entire request, including the body.
	ReadTimeout time.Duration
	// WriteTimeout is the maximum duration before timing out writes of the response.
	WriteTimeout time.Duration
	// IdleTimeout is the maximum amount of time to wait for the next request when keep-alives are enabled.
	IdleTimeout time.Duration
}

func DefaultServerTimeouts() Timeouts {
	return Timeouts{
		RequestTimeout:  5 * time.Minute,
		ShutdownTimeout: 30 * time.Second,
		ReadTimeout:     10 * time.Second,
		WriteTimeout:    10 * time.Minute,
		IdleTimeout:     2 * time.Minute,
	}
}

// RequestLimits bounds what a single scan request may ask for, so one
// request cannot exhaust the process.
type RequestLimits struct {
	// MaxBodyBytes caps the JSON request body size.
	MaxBodyBytes int64
	// MaxEnergies caps the number of grid points per scan.
	MaxEnergies int
}

func DefaultRequestLimits() RequestLimits {
	return RequestLimits{
		MaxBodyBytes: 1 << 20, // 1 MiB
		MaxEnergies:  10000,
	}
}
