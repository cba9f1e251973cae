// Package http exposes the contract prober over a JSON API together with
// liveness and readiness probes.
package http

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/archon-research/contract-probe/internal/ports/inbound"
)

// ServerConfig holds configuration for the HTTP server.
type ServerConfig struct {
	// DefaultAddress is probed when a request names no address.
	DefaultAddress string

	// Logger for the server
	Logger *slog.Logger

	// ReadTimeout for HTTP requests
	ReadTimeout time.Duration

	// WriteTimeout for HTTP responses. A report makes one RPC per catalog
	// entry, so this is longer than a plain API would need.
	WriteTimeout time.Duration
}

// ServerConfigDefaults returns a config with default values.
func ServerConfigDefaults() ServerConfig {
	return ServerConfig{
		Logger:       slog.Default(),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 2 * time.Minute,
	}
}

// Server serves the API routes and the health probes on one listener.
//
// Endpoints:
//   - GET  /api/health            - process is up
//   - GET  /api/contract/info     - account-level facts
//   - GET  /api/contract/methods  - catalog probe results
//   - GET  /api/contract/report   - facts and probe results
//   - POST /api/contract/call     - call with a computed selector
//   - GET  /health/ready          - an endpoint has been found at least once
//   - GET  /health/live           - the latest resolution found an endpoint
//   - GET  /health                - combined status
type Server struct {
	server       *http.Server
	api          *Handler
	checker      inbound.HealthChecker
	shuttingDown *atomic.Bool
	logger       *slog.Logger
}

// NewServer creates a new server.
func NewServer(config ServerConfig, prober inbound.ContractProber, checker inbound.HealthChecker, shuttingDown *atomic.Bool) *Server {
	defaults := ServerConfigDefaults()
	if config.Logger == nil {
		config.Logger = defaults.Logger
	}
	if config.ReadTimeout == 0 {
		config.ReadTimeout = defaults.ReadTimeout
	}
	if config.WriteTimeout == 0 {
		config.WriteTimeout = defaults.WriteTimeout
	}
	if shuttingDown == nil {
		shuttingDown = &atomic.Bool{}
	}

	s := &Server{
		api:          NewHandler(prober, config.DefaultAddress, config.Logger),
		checker:      checker,
		shuttingDown: shuttingDown,
		logger:       config.Logger.With("component", "http-server"),
	}

	mux := http.NewServeMux()
	s.api.RegisterRoutes(mux)
	mux.HandleFunc("GET /health/ready", s.handleReady)
	mux.HandleFunc("GET /health/live", s.handleLive)
	mux.HandleFunc("GET /health", s.handleHealth)

	s.server = &http.Server{
		Handler:      mux,
		ReadTimeout:  config.ReadTimeout,
		WriteTimeout: config.WriteTimeout,
	}
	return s
}

// Handler returns the routing handler, for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.server.Handler
}

// Serve accepts connections on ln until Shutdown. It returns nil after a
// graceful shutdown.
func (s *Server) Serve(ln net.Listener) error {
	s.logger.Info("starting http server", "addr", ln.Addr().String())
	if err := s.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown marks the server as shutting down and stops it gracefully.
func (s *Server) Shutdown(timeout time.Duration) error {
	s.shuttingDown.Store(true)
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	return s.server.Shutdown(ctx)
}
