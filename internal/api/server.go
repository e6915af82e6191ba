// Package api exposes the HTTP interface for the seed search service.
package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/fairdice/seedsearch/internal/config"
	"github.com/fairdice/seedsearch/internal/metrics"
	"github.com/fairdice/seedsearch/internal/search"
)

// JobService is the registry surface the handlers consume.
type JobService interface {
	Create(candidates []string, skippedEntries int, params search.Params) (string, error)
	Snapshot(jobID string) (search.Snapshot, error)
	Pause(jobID string) error
	Resume(jobID string) error
}

// Server wires HTTP handlers to the job registry.
type Server struct {
	router chi.Router
	jobs   JobService
	cfg    config.Config
	logger *zap.Logger
}

// NewServer constructs a Server with middleware and routes.
func NewServer(jobs JobService, cfg config.Config, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{
		jobs:   jobs,
		cfg:    cfg,
		logger: logger,
	}
	r := chi.NewRouter()
	r.Use(requestIDMiddleware)
	r.Use(loggingMiddleware(logger))
	r.Use(recoverMiddleware(logger))
	r.Use(metrics.Middleware)
	timeout := time.Duration(cfg.Server.RequestTimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	r.Use(timeoutMiddleware(timeout))
	if cfg.RateLimit.RPS > 0 {
		r.Use(rateLimitMiddleware(rate.NewLimiter(rate.Limit(cfg.RateLimit.RPS), maxInt(cfg.RateLimit.Burst, 1))))
	}
	if cfg.Auth.Enabled {
		r.Use(apiKeyMiddleware(cfg.Auth.APIKey))
	}

	r.Get("/healthz", s.healthz)
	r.Get("/readyz", s.readyz)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Post("/process", s.startProcess)
	r.Get("/progress/{job_id}", s.getProgress)
	r.Route("/pause/{job_id}", func(r chi.Router) {
		r.Get("/", s.pauseJob)
		r.Post("/", s.pauseJob)
	})
	r.Route("/resume/{job_id}", func(r chi.Router) {
		r.Get("/", s.resumeJob)
		r.Post("/", s.resumeJob)
	})

	s.router = r
	return s
}

// Handler returns the router for use with http.Server.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) readyz(w http.ResponseWriter, _ *http.Request) {
	// The registry is in-memory and always ready once constructed.
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
