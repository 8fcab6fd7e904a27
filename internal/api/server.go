// Package api exposes the analysis pipeline over HTTP: synchronous and
// asynchronous persona analysis, outline-only uploads, job inspection,
// and similarity provider statistics.
package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/dgallion1/docrank/internal/config"
	"github.com/dgallion1/docrank/internal/pipeline"
	"github.com/dgallion1/docrank/internal/similarity"
)

// Server is the HTTP API server.
type Server struct {
	router       chi.Router
	orchestrator *pipeline.Orchestrator
	sim          *similarity.Selector
	log          zerolog.Logger
	cfg          config.Config
	version      string
}

// NewServer creates and configures the HTTP server.
func NewServer(orch *pipeline.Orchestrator, sim *similarity.Selector, log zerolog.Logger, cfg config.Config, version string) *Server {
	s := &Server{
		orchestrator: orch,
		sim:          sim,
		log:          log,
		cfg:          cfg,
		version:      version,
	}
	s.setupRoutes()
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) setupRoutes() {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(RequestLogger(s.log))

	// Public endpoints.
	r.Get("/health", s.handleHealth)

	// Authenticated endpoints. With no API key configured the group is
	// open, which suits local and single-tenant deployments.
	r.Group(func(r chi.Router) {
		if s.cfg.Server.APIKey != "" {
			r.Use(AuthMiddleware(s.cfg.Server.APIKey))
		}

		r.Post("/api/analyze", s.handleAnalyze)
		r.Post("/api/analyze/async", s.handleAnalyzeAsync)
		r.Get("/api/jobs/{jobID}", s.handleJob)
		r.Get("/api/jobs", s.handleJobs)
		r.Post("/api/outline", s.handleOutline)
		r.Get("/api/stats/similarity", s.handleSimilarityStats)
	})

	s.router = r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"version": s.version,
	})
}
