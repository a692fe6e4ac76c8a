package api

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/dgallion1/ragprep/internal/pipeline"
	"github.com/go-chi/chi/v5"
)

// handleDocumentStructure returns the classified hierarchy and per-phase
// reports for a completed job.
func (s *Server) handleDocumentStructure(w http.ResponseWriter, r *http.Request) {
	job, res, ok := s.completedResult(w, r)
	if !ok {
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"job_id":       job.ID,
		"run_id":       res.RunID,
		"source":       res.Source,
		"title":        res.Title,
		"tree":         res.Tree,
		"structure":    res.Structure,
		"extraction":   res.Extraction,
		"cleaning":     res.Cleaning,
		"output_dir":   res.OutputDir,
		"generated_at": res.GeneratedAt,
	})
}

// handleDocumentChunks returns the chunk records for a completed job.
func (s *Server) handleDocumentChunks(w http.ResponseWriter, r *http.Request) {
	job, res, ok := s.completedResult(w, r)
	if !ok {
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"job_id":   job.ID,
		"run_id":   res.RunID,
		"chunking": res.Chunking,
		"chunks":   res.Chunks,
	})
}

// completedResult resolves the job from the URL and hands back its pipeline
// result, writing the error response itself when the job is missing or not
// yet done.
func (s *Server) completedResult(w http.ResponseWriter, r *http.Request) (*pipeline.Job, *pipeline.Result, bool) {
	job := s.orchestrator.GetJob(chi.URLParam(r, "jobID"))
	if job == nil {
		jsonError(w, "job not found", http.StatusNotFound)
		return nil, nil, false
	}
	snap := job.Snapshot()
	if snap.Status != pipeline.StatusCompleted {
		jsonError(w, fmt.Sprintf("job is %s, results are not available", snap.Status), http.StatusConflict)
		return nil, nil, false
	}
	res := job.Result()
	if res == nil {
		jsonError(w, "job result is no longer available", http.StatusConflict)
		return nil, nil, false
	}
	return job, res, true
}
