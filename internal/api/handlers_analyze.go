package api

import (
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/dgallion1/docrank/internal/pipeline"
)

// handleAnalyze runs a full analysis synchronously and returns the
// ranked result.
func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	req, ok := s.readRequest(w, r)
	if !ok {
		return
	}

	res, err := s.orchestrator.Runner().Run(r.Context(), req)
	if err != nil {
		if pipeline.IsValidationError(err) {
			jsonError(w, err.Error(), http.StatusBadRequest)
			return
		}
		jsonError(w, err.Error(), http.StatusUnprocessableEntity)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// handleAnalyzeAsync queues the analysis and returns a job handle.
func (s *Server) handleAnalyzeAsync(w http.ResponseWriter, r *http.Request) {
	req, ok := s.readRequest(w, r)
	if !ok {
		return
	}

	job := pipeline.NewJob(req)
	if err := s.orchestrator.Submit(job); err != nil {
		jsonError(w, err.Error(), http.StatusServiceUnavailable)
		return
	}

	writeJSON(w, http.StatusAccepted, map[string]any{
		"job_id":   job.ID,
		"status":   pipeline.StatusPending,
		"poll_url": fmt.Sprintf("/api/jobs/%s", job.ID),
	})
}

func (s *Server) handleJob(w http.ResponseWriter, r *http.Request) {
	job := s.orchestrator.GetJob(chi.URLParam(r, "jobID"))
	if job == nil {
		jsonError(w, "job not found", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, job.Snapshot())
}

func (s *Server) handleJobs(w http.ResponseWriter, r *http.Request) {
	// Results stay on the per-job endpoint; the list is a light index.
	snaps := s.orchestrator.Jobs()
	for i := range snaps {
		snaps[i].Result = nil
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"jobs":        snaps,
		"queue_depth": s.orchestrator.QueueDepth(),
	})
}

// readRequest decodes and validates an analysis request body, writing
// the error response itself when the body is unusable.
func (s *Server) readRequest(w http.ResponseWriter, r *http.Request) (pipeline.Request, bool) {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.Server.MaxRequestBody)
	data, err := io.ReadAll(r.Body)
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			jsonError(w, fmt.Sprintf("request body exceeds %d bytes", maxErr.Limit), http.StatusRequestEntityTooLarge)
		} else {
			jsonError(w, "failed to read request body", http.StatusBadRequest)
		}
		return pipeline.Request{}, false
	}

	req, err := pipeline.ParseRequest(data, "")
	if err != nil {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return pipeline.Request{}, false
	}
	return req, true
}
