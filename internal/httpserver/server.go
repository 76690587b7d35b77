// Package httpserver provides the HTTP API of doctrack.
package httpserver

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/felixgeelhaar/fortify/ratelimit"
	"github.com/go-chi/chi/v5"

	"github.com/doctrack/doctrack/internal/config"
	"github.com/doctrack/doctrack/internal/httpserver/handlers"
	"github.com/doctrack/doctrack/internal/httpserver/middleware"
	httpws "github.com/doctrack/doctrack/internal/httpserver/websocket"
	"github.com/doctrack/doctrack/internal/observability"
)

// Server is the HTTP server of the doctorate API.
type Server struct {
	config      config.ServerConfig
	version     string
	router      chi.Router
	httpServer  *http.Server
	wsHub       *httpws.Hub
	doctorates  *handlers.Doctorates
	rateLimiter ratelimit.RateLimiter
	metrics     *observability.Metrics
}

// ServerDeps contains dependencies for creating a new server.
type ServerDeps struct {
	Config  config.ServerConfig
	Service handlers.Service
	Version string
	// Metrics is served on /metrics and fed by command execution. A
	// private collector is used when nil.
	Metrics *observability.Metrics
}

// NewServer creates a new HTTP server. Changes made through the API are
// pushed to live feed subscribers.
func NewServer(deps ServerDeps) *Server {
	s := &Server{
		config:  deps.Config,
		version: deps.Version,
		wsHub:   httpws.NewHub(),
		metrics: deps.Metrics,
	}
	if s.metrics == nil {
		s.metrics = observability.NewMetrics(deps.Version)
	}
	s.doctorates = handlers.NewDoctorates(deps.Service, httpws.NewChangeBroadcaster(s.wsHub), s.metrics)
	if deps.Config.RateLimitPerMinute > 0 {
		s.rateLimiter = middleware.NewRateLimiter(middleware.PerMinute(deps.Config.RateLimitPerMinute))
	}

	s.router = s.setupRouter()

	s.httpServer = &http.Server{
		Addr:              s.config.Address,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       s.getReadTimeout(),
		WriteTimeout:      s.getWriteTimeout(),
		IdleTimeout:       60 * time.Second,
	}

	return s
}

// Start serves until ctx is canceled, then shuts down gracefully.
func (s *Server) Start(ctx context.Context) error {
	go s.wsHub.Run(ctx)

	listener, err := net.Listen("tcp", s.config.Address)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.config.Address, err)
	}

	errChan := make(chan error, 1)
	go func() {
		if err := s.httpServer.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- err
		}
		close(errChan)
	}()

	select {
	case <-ctx.Done():
		// Use a new context for shutdown since the original is canceled
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.getShutdownTimeout())
		defer cancel()
		return s.Shutdown(shutdownCtx) //nolint:contextcheck // Intentionally new context for graceful shutdown
	case err := <-errChan:
		return err
	}
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	shutdownCtx, cancel := context.WithTimeout(ctx, s.getShutdownTimeout())
	defer cancel()

	s.wsHub.Close()
	err := s.httpServer.Shutdown(shutdownCtx)
	if s.rateLimiter != nil {
		err = errors.Join(err, s.rateLimiter.Close())
	}
	return err
}

// Address returns the server address.
func (s *Server) Address() string {
	return s.config.Address
}

// Handler returns the root handler, for embedding and tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Hub returns the live feed hub.
func (s *Server) Hub() *httpws.Hub {
	return s.wsHub
}

func (s *Server) getReadTimeout() time.Duration {
	if s.config.ReadTimeout > 0 {
		return s.config.ReadTimeout
	}
	return 15 * time.Second
}

func (s *Server) getWriteTimeout() time.Duration {
	if s.config.WriteTimeout > 0 {
		return s.config.WriteTimeout
	}
	return 15 * time.Second
}

func (s *Server) getShutdownTimeout() time.Duration {
	if s.config.ShutdownTimeout > 0 {
		return s.config.ShutdownTimeout
	}
	return 30 * time.Second
}
