// Package server manages the HTTP server lifecycle.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/helioscrm/dynlogic/internal/core/api"
	"github.com/helioscrm/dynlogic/internal/core/config"
	"github.com/helioscrm/dynlogic/internal/core/metrics"
	"github.com/helioscrm/dynlogic/internal/logic"
)

// shutdownTimeout bounds graceful shutdown before in-flight requests are cut.
const shutdownTimeout = 30 * time.Second

// Middleware wraps a handler; used to chain auth in front of the API routes.
type Middleware func(http.Handler) http.Handler

// Server wraps http.Server with lifecycle management.
type Server struct {
	cfg      *config.Config
	logger   *slog.Logger
	resolver *logic.Resolver
	srv      *http.Server
}

// New assembles the full handler tree. Operational endpoints (healthz,
// readyz, metrics) stay outside the auth middleware so probes and scrapers
// need no credentials.
func New(cfg *config.Config, logger *slog.Logger, svc *api.Service, resolver *logic.Resolver, m *metrics.Metrics, authMW Middleware) *Server {
	apiMux := http.NewServeMux()
	svc.Routes(apiMux)

	var apiHandler http.Handler = apiMux
	if authMW != nil {
		apiHandler = authMW(apiMux)
	}

	root := http.NewServeMux()
	root.Handle("/v1/", apiHandler)
	root.HandleFunc("GET /healthz", handleHealthz)

	s := &Server{
		cfg:      cfg,
		logger:   logger,
		resolver: resolver,
	}
	root.HandleFunc("GET /readyz", s.handleReadyz)
	if m != nil {
		root.Handle("GET /metrics", m.Handler())
	}

	s.srv = &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Handler:           http.TimeoutHandler(root, cfg.RequestTimeout, `{"error":"request timed out"}`),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// Start serves until the context is cancelled, then shuts down gracefully.
func (s *Server) Start(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.srv.Addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.srv.Addr, err)
	}

	s.logger.Info("server listening", "addr", ln.Addr().String())

	errCh := make(chan error, 1)
	go func() {
		if err := s.srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.logger.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := s.srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}
	return nil
}

func handleHealthz(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"status":"ok"}`))
}

// handleReadyz reports ready once at least one rule set is installed. A
// service with zero entity types can still resolve (all defaults), so this
// is informational for rollout sequencing rather than a hard gate.
func (s *Server) handleReadyz(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if len(s.resolver.EntityTypes()) == 0 {
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte(`{"status":"no rule sets loaded"}`))
		return
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"status":"ready"}`))
}
