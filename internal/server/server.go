// Package server exposes the analysis pipeline over a REST API: job
// submission, report retrieval, explanations, dashboard aggregates and a
// websocket status stream.
package server

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/veritylabs/fosight/internal/metrics"
)

// maxUploadBytes bounds a single analysis submission (two PDFs).
const maxUploadBytes = 32 << 20

// Server wraps the HTTP server and its routes.
type Server struct {
	httpServer *http.Server
	logger     *slog.Logger
}

// New creates a server listening on addr. The collector may be nil, which
// disables the metrics snapshot endpoint's timing data.
func New(addr string, svc AnalysisAPI, collector *metrics.Collector, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}

	h := &handlers{svc: svc, collector: collector, logger: logger}

	r := mux.NewRouter()
	r.Use(recoveryMiddleware(logger))
	r.Use(loggingMiddleware(logger))

	r.HandleFunc("/api/analyze", h.analyze).Methods(http.MethodPost)
	r.HandleFunc("/api/report/{job_id}", h.report).Methods(http.MethodGet)
	r.HandleFunc("/api/report/{job_id}/explain", h.explain).Methods(http.MethodPost)
	r.HandleFunc("/api/report/{job_id}/explain-confidence", h.explainConfidence).Methods(http.MethodPost)
	r.HandleFunc("/api/jobs/{job_id}/watch", h.watch).Methods(http.MethodGet)
	r.HandleFunc("/api/dashboard/stats", h.dashboardStats).Methods(http.MethodGet)
	r.HandleFunc("/api/dashboard/cases", h.dashboardCases).Methods(http.MethodGet)
	r.HandleFunc("/api/stats", h.metricsSnapshot).Methods(http.MethodGet)
	r.HandleFunc("/healthz", h.health).Methods(http.MethodGet)

	return &Server{
		httpServer: &http.Server{
			Addr:              addr,
			Handler:           r,
			ReadHeaderTimeout: 10 * time.Second,
		},
		logger: logger,
	}
}

// Start blocks serving requests until the listener fails or Shutdown is
// called. A clean shutdown returns nil.
func (s *Server) Start() error {
	s.logger.Info("http server listening", "addr", s.httpServer.Addr)
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown drains in-flight requests and stops the listener.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("http server shutting down")
	return s.httpServer.Shutdown(ctx)
}
