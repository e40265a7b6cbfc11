// Package api serves the HTTP surface: trigger a search, list pending jobs,
// health and metrics.
package api

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/amishk599/jobradar/internal/metrics"
	"github.com/amishk599/jobradar/internal/model"
	"github.com/amishk599/jobradar/internal/pipeline"
)

// Searcher runs one poll cycle plus dispatch.
type Searcher interface {
	Search(ctx context.Context) (pipeline.Result, error)
}

// Pinger reports backend health.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Server wires HTTP handlers for the pipeline.
type Server struct {
	search  Searcher
	pending model.PendingLister
	health  Pinger
	logger  *slog.Logger
}

// New constructs the API server.
func New(search Searcher, pending model.PendingLister, health Pinger, logger *slog.Logger) *Server {
	return &Server{search: search, pending: pending, health: health, logger: logger}
}

// Router builds the HTTP router.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Get("/healthz", s.handleHealth)
	r.Mount("/metrics", metrics.Handler())

	r.Post("/search", s.handleSearch)
	r.Get("/new-jobs", s.handleNewJobs)
	return r
}

type searchResponse struct {
	Message           string             `json:"message"`
	TotalJobsFound    int                `json:"totalJobsFound"`
	TotalJobsStored   int                `json:"totalJobsStored"`
	NotificationsSent int                `json:"notificationsSent"`
	Sources           []pipeline.Outcome `json:"sources"`
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	res, err := s.search.Search(r.Context())
	resp := searchResponse{
		Message:           "Job search completed",
		TotalJobsFound:    res.JobsFound,
		TotalJobsStored:   res.JobsStored,
		NotificationsSent: res.Dispatch.Sent,
		Sources:           res.Sources,
	}
	if resp.Sources == nil {
		resp.Sources = []pipeline.Outcome{}
	}
	if err != nil {
		s.logger.Error("search failed", "error", err)
		resp.Message = "Internal server error"
		writeJSON(w, http.StatusInternalServerError, resp)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleNewJobs(w http.ResponseWriter, r *http.Request) {
	jobs, err := s.pending.Pending(r.Context())
	if err != nil {
		s.logger.Error("listing pending jobs failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "Internal server error"})
		return
	}
	if jobs == nil {
		jobs = []model.Job{}
	}
	writeJSON(w, http.StatusOK, jobs)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()
	if err := s.health.Ping(ctx); err != nil {
		s.logger.Warn("health check failed", "error", err)
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
