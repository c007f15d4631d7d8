package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/Hassanibrar632/Automated-BookGen/internal/bookgen"
)

type generateRequest struct {
	Notes        string            `json:"notes"`
	HeadingNotes map[string]string `json:"heading_notes"`
	StartHeading int               `json:"start_heading"`
}

func (s *Server) handleGenerate(w http.ResponseWriter, r *http.Request) {
	title := bookTitle(r)

	var req generateRequest
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			jsonError(w, "invalid request body: "+err.Error(), http.StatusBadRequest)
			return
		}
	}

	if req.StartHeading <= 0 {
		req.StartHeading = 1
	}
	// A fresh run generates the outline first, which needs editorial notes.
	// A resume (start_heading > 1) reuses the stored outline.
	if req.StartHeading == 1 && strings.TrimSpace(req.Notes) == "" {
		jsonError(w, "notes are required to generate a new outline", http.StatusBadRequest)
		return
	}

	job, err := s.runner.Submit(bookgen.GenerationRequest{
		BookTitle:    title,
		Notes:        req.Notes,
		HeadingNotes: req.HeadingNotes,
		StartHeading: req.StartHeading,
	})
	if err != nil {
		jsonError(w, err.Error(), http.StatusServiceUnavailable)
		return
	}

	snap := job.Snapshot()
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusAccepted)
	json.NewEncoder(w).Encode(map[string]any{
		"job_id":   snap.ID,
		"status":   snap.Status,
		"poll_url": fmt.Sprintf("/api/jobs/%s", snap.ID),
	})
}

func (s *Server) handleJobStatus(w http.ResponseWriter, r *http.Request) {
	jobID := chi.URLParam(r, "jobID")
	job := s.runner.GetJob(jobID)
	if job == nil {
		jsonError(w, "job not found", http.StatusNotFound)
		return
	}

	snap := job.Snapshot()
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(snap)
}
