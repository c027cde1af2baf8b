// Package api exposes the agent over HTTP.
//
// Endpoints:
//
//	GET  /                    service info
//	GET  /health              liveness probe
//	GET  /ready               readiness probe (pings the database)
//	POST /api/chat            synchronous chat (genkit.Handler)
//	POST /api/chat/stream     streaming chat (Server-Sent Events)
//	POST /api/diagnostics     equipment diagnostics (genkit.Handler)
package api

import (
	"context"
	"net/http"
	"time"

	"github.com/steelhand/steelhand/internal/chat"
	"github.com/steelhand/steelhand/internal/diagnostics"
	"github.com/steelhand/steelhand/internal/log"
)

const (
	// DefaultAddr is the default listen address.
	DefaultAddr = "127.0.0.1:8000"

	// ShutdownTimeout bounds graceful shutdown.
	ShutdownTimeout = 10 * time.Second

	// ReadHeaderTimeout guards against slow-header clients.
	ReadHeaderTimeout = 10 * time.Second

	// ReadTimeout is the maximum duration for reading a request.
	ReadTimeout = 30 * time.Second

	// WriteTimeout is generous because agent turns can run long.
	WriteTimeout = 120 * time.Second

	// IdleTimeout applies to keep-alive connections.
	IdleTimeout = 120 * time.Second
)

// Server is the HTTP server for the agent API.
type Server struct {
	mux    *http.ServeMux
	logger log.Logger

	health      *HealthHandler
	chat        *ChatHandler
	diagnostics *DiagnosticsHandler
}

// Config carries the server's handler dependencies.
type Config struct {
	Pinger          Pinger
	ChatFlow        *chat.Flow
	DiagnosticsFlow *diagnostics.Flow
	Logger          log.Logger
}

// NewServer creates the server with all routes registered.
func NewServer(cfg Config) *Server {
	mux := http.NewServeMux()

	s := &Server{
		mux:         mux,
		logger:      cfg.Logger,
		health:      NewHealthHandler(cfg.Pinger, cfg.Logger),
		chat:        NewChatHandler(cfg.ChatFlow, cfg.Logger),
		diagnostics: NewDiagnosticsHandler(cfg.DiagnosticsFlow, cfg.Logger),
	}

	mux.HandleFunc("GET /{$}", s.info)
	s.health.RegisterRoutes(mux)
	s.chat.RegisterRoutes(mux)
	s.diagnostics.RegisterRoutes(mux)

	return s
}

// info identifies the service for anyone probing the root path.
func (s *Server) info(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"service": "steelhand",
		"status":  "running",
	}, s.logger)
}

// Handler returns the full handler chain: recovery, then logging,
// then routing.
func (s *Server) Handler() http.Handler {
	return chain(s.mux,
		recoveryMiddleware(s.logger),
		loggingMiddleware(s.logger))
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	if addr == "" {
		addr = DefaultAddr
	}

	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: ReadHeaderTimeout,
		ReadTimeout:       ReadTimeout,
		WriteTimeout:      WriteTimeout,
		IdleTimeout:       IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("starting HTTP server", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		s.logger.Info("shutting down HTTP server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		if err == http.ErrServerClosed {
			return nil
		}
		return err
	}
}
