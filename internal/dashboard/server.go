// Copyright 2026 Kyle Keefer
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package dashboard runs the hiro web dashboard: target tracking, request
// history, and an execute-request endpoint backed by the HTTP tool.
package dashboard

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/kwkeefer/hiro/internal/dashboard/api"
	"github.com/kwkeefer/hiro/internal/dashboard/httputil"
	"github.com/kwkeefer/hiro/internal/dashboard/store"
	"github.com/kwkeefer/hiro/internal/httptool"
	"github.com/kwkeefer/hiro/internal/log"
)

// Config configures the dashboard server.
type Config struct {
	// Listen is the address to bind, e.g. "127.0.0.1:7331".
	Listen string

	// DatabasePath is the sqlite database file.
	DatabasePath string

	// HTTP configures the outbound request tool used by the
	// execute-request endpoints.
	HTTP *httptool.Config

	// ShutdownTimeout bounds graceful shutdown (default 10s).
	ShutdownTimeout time.Duration

	// Version is reported by the health endpoint.
	Version string
}

// Server is the dashboard daemon: HTTP server, sqlite store, request tool.
type Server struct {
	cfg     Config
	store   *store.SQLiteStore
	tool    *httptool.RequestTool
	metrics *Metrics
	server  *http.Server
	logger  *slog.Logger
}

// New creates a dashboard server. The store is opened and migrated here so
// startup fails loudly instead of deferring database problems to the first
// request.
func New(cfg Config, logger *slog.Logger) (*Server, error) {
	if cfg.Listen == "" {
		cfg.Listen = "127.0.0.1:7331"
	}
	if cfg.ShutdownTimeout == 0 {
		cfg.ShutdownTimeout = 10 * time.Second
	}
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	logger = log.WithComponent(logger, "dashboard")

	st, err := store.New(store.Config{Path: cfg.DatabasePath})
	if err != nil {
		return nil, fmt.Errorf("failed to open store: %w", err)
	}

	tool, err := httptool.New(cfg.HTTP)
	if err != nil {
		st.Close()
		return nil, fmt.Errorf("failed to create request tool: %w", err)
	}

	s := &Server{
		cfg:     cfg,
		store:   st,
		tool:    tool,
		metrics: NewMetrics(),
		logger:  logger,
	}

	handler, err := s.buildHandler()
	if err != nil {
		st.Close()
		return nil, err
	}

	s.server = &http.Server{
		Addr:              cfg.Listen,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	return s, nil
}

// Store returns the backing store, for CLI subcommands sharing a database.
func (s *Server) Store() *store.SQLiteStore {
	return s.store
}

// buildHandler assembles the route table and middleware chain.
func (s *Server) buildHandler() (http.Handler, error) {
	mux := http.NewServeMux()

	api.NewTargetsHandler(s.store).RegisterRoutes(mux)
	api.NewRequestsHandler(s.store, s.tool, s.metrics, s.logger).RegisterRoutes(mux)

	ui, err := NewUI(s.store, s.tool, s.logger)
	if err != nil {
		return nil, err
	}
	ui.RegisterRoutes(mux)

	mux.HandleFunc("GET /v1/health", s.handleHealth)
	mux.Handle("GET /metrics", promhttp.HandlerFor(s.metrics.Registry, promhttp.HandlerOpts{}))

	return log.HTTPMiddleware(s.logger, s.countRequests(mux)), nil
}

// handleHealth handles GET /v1/health.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	version := s.cfg.Version
	if version == "" {
		version = "dev"
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"version": version,
	})
}

// countRequests feeds the per-route request counter.
func (s *Server) countRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		s.metrics.CountRequest(r.Method+" "+r.URL.Path, rec.status)
	})
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(status int) {
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}

// Start runs the server until ctx is cancelled, then shuts down gracefully.
func (s *Server) Start(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.cfg.Listen)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.cfg.Listen, err)
	}

	s.logger.Info("dashboard listening", slog.String("addr", ln.Addr().String()))

	errCh := make(chan error, 1)
	go func() {
		if err := s.server.Serve(ln); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		s.store.Close()
		return err
	case <-ctx.Done():
	}

	return s.Shutdown()
}

// Shutdown drains in-flight requests and closes the store.
func (s *Server) Shutdown() error {
	s.logger.Info("shutting down dashboard")

	ctx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
	defer cancel()

	err := s.server.Shutdown(ctx)
	if cerr := s.store.Close(); err == nil {
		err = cerr
	}
	return err
}
