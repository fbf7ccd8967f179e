package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/l0l1/l0l1-go/internal/models"
	"github.com/l0l1/l0l1-go/internal/pii"
	"github.com/l0l1/l0l1-go/internal/store"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

type errorResponse struct {
	Error string `json:"error"`
}

// writeError maps store errors onto HTTP statuses: validation 400,
// not found 404, everything else 500.
func writeError(w http.ResponseWriter, err error) {
	var verr *store.ValidationError
	switch {
	case errors.As(err, &verr):
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: verr.Error()})
	case errors.Is(err, store.ErrNotFound):
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "pattern not found"})
	default:
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: err.Error()})
	}
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid JSON body: " + err.Error()})
		return false
	}
	return true
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	fmt.Fprintln(w, "ok")
}

// ---- SQL assistance ----

type completeRequest struct {
	PartialQuery  string `json:"partial_query"`
	WorkspaceID   string `json:"workspace_id"`
	SchemaContext string `json:"schema_context"`
}

func (s *Server) handleComplete(w http.ResponseWriter, r *http.Request) {
	var req completeRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.PartialQuery == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "partial_query is required"})
		return
	}

	suggestions, err := s.learning.Suggestions(r.Context(), req.PartialQuery, req.WorkspaceID, req.SchemaContext)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"suggestions": suggestions})
}

type correctRequest struct {
	Query         string `json:"query"`
	ErrorMessage  string `json:"error_message"`
	WorkspaceID   string `json:"workspace_id"`
	SchemaContext string `json:"schema_context"`
}

func (s *Server) handleCorrect(w http.ResponseWriter, r *http.Request) {
	var req correctRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Query == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "query is required"})
		return
	}

	improvement, err := s.learning.ImproveQuery(r.Context(), req.Query, req.ErrorMessage, req.WorkspaceID, req.SchemaContext)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, improvement)
}

type queryRequest struct {
	Query         string `json:"query"`
	SchemaContext string `json:"schema_context"`
}

func (s *Server) handleValidate(w http.ResponseWriter, r *http.Request) {
	var req queryRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Query == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "query is required"})
		return
	}

	report, err := s.learning.ValidateQuery(r.Context(), req.Query, req.SchemaContext)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func (s *Server) handleExplain(w http.ResponseWriter, r *http.Request) {
	var req queryRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Query == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "query is required"})
		return
	}

	explanation, err := s.learning.ExplainQuery(r.Context(), req.Query, req.SchemaContext)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"explanation": explanation})
}

type checkPIIResponse struct {
	Findings []pii.Finding `json:"findings"`
	IsSafe   bool          `json:"is_safe"`
}

func (s *Server) handleCheckPII(w http.ResponseWriter, r *http.Request) {
	var req queryRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	findings, safe := s.learning.CheckPII(req.Query)
	writeJSON(w, http.StatusOK, checkPIIResponse{Findings: findings, IsSafe: safe})
}

// ---- Learning ----

func (s *Server) handleRecord(w http.ResponseWriter, r *http.Request) {
	var input store.RecordInput
	if !decodeJSON(w, r, &input) {
		return
	}

	recorded, err := s.learning.RecordSuccessfulQuery(r.Context(), input)
	if err != nil {
		writeError(w, err)
		return
	}

	if !recorded {
		writeJSON(w, http.StatusOK, map[string]any{"recorded": false})
		return
	}

	patternID := models.PatternID(input.Query)
	s.hub.Broadcast(Event{
		Type:        "pattern_recorded",
		PatternID:   patternID,
		WorkspaceID: input.WorkspaceID,
	})
	writeJSON(w, http.StatusCreated, map[string]any{
		"recorded":   true,
		"pattern_id": patternID,
	})
}

type matchView struct {
	Pattern models.PatternSummary `json:"pattern"`
	Score   float64               `json:"score"`
}

func (s *Server) handleSimilar(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	query := q.Get("query")
	if query == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "query is required"})
		return
	}

	threshold, _ := strconv.ParseFloat(q.Get("threshold"), 64)
	limit, _ := strconv.Atoi(q.Get("limit"))

	matches, err := s.learning.SimilarQueries(r.Context(), query, q.Get("workspace_id"), threshold, limit)
	if err != nil {
		writeError(w, err)
		return
	}

	views := make([]matchView, 0, len(matches))
	for _, m := range matches {
		views = append(views, matchView{Pattern: m.Pattern.Summary(), Score: m.Score})
	}
	writeJSON(w, http.StatusOK, map[string]any{"matches": views})
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.learning.Stats(r.Context(), r.URL.Query().Get("workspace_id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

// ---- Pattern administration ----

func (s *Server) handleListPatterns(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	opts := store.ListOptions{SortBy: q.Get("sort_by"), Order: q.Get("order")}
	if ws := q.Get("workspace_id"); ws != "" {
		opts.WorkspaceID = &ws
	}
	opts.Limit, _ = strconv.Atoi(q.Get("limit"))
	opts.Offset, _ = strconv.Atoi(q.Get("offset"))

	result, err := s.store.List(r.Context(), opts)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"patterns": summarize(result.Patterns),
		"total":    result.Total,
	})
}

func (s *Server) handleGetPattern(w http.ResponseWriter, r *http.Request) {
	pattern, err := s.store.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, pattern.Summary())
}

func (s *Server) handleUpdatePattern(w http.ResponseWriter, r *http.Request) {
	var fields store.UpdateFields
	if !decodeJSON(w, r, &fields) {
		return
	}

	pattern, err := s.store.Update(r.Context(), r.PathValue("id"), fields)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, pattern.Summary())
}

func (s *Server) handleDeletePattern(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := s.store.Delete(r.Context(), id); err != nil {
		writeError(w, err)
		return
	}

	s.hub.Broadcast(Event{Type: "pattern_deleted", PatternID: id})
	writeJSON(w, http.StatusOK, map[string]any{"deleted": true})
}

type adjustConfidenceRequest struct {
	PatternID  string  `json:"pattern_id"`
	Adjustment float64 `json:"adjustment"`
}

func (s *Server) handleAdjustConfidence(w http.ResponseWriter, r *http.Request) {
	var req adjustConfidenceRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	pattern, err := s.store.AdjustConfidence(r.Context(), req.PatternID, req.Adjustment)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, pattern.Summary())
}

func (s *Server) handleBulkDelete(w http.ResponseWriter, r *http.Request) {
	var criteria store.BulkDeleteCriteria
	if !decodeJSON(w, r, &criteria) {
		return
	}

	deleted, err := s.store.BulkDelete(r.Context(), criteria)
	if err != nil {
		writeError(w, err)
		return
	}

	if deleted > 0 {
		s.hub.Broadcast(Event{Type: "patterns_bulk_deleted", Count: deleted})
	}
	writeJSON(w, http.StatusOK, map[string]any{"deleted": deleted})
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	var workspace *string
	if ws := r.URL.Query().Get("workspace_id"); ws != "" {
		workspace = &ws
	}

	patterns, err := s.store.Export(r.Context(), workspace)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"patterns": patterns,
		"count":    len(patterns),
	})
}

type importRequest struct {
	Patterns    []models.PatternRecord `json:"patterns"`
	WorkspaceID string                 `json:"workspace_id"`
	Overwrite   bool                   `json:"overwrite"`
}

// handleImport starts a background import job and returns its ID.
func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	var req importRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if len(req.Patterns) == 0 {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "patterns must not be empty"})
		return
	}
	if req.WorkspaceID == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "workspace_id must not be empty"})
		return
	}

	job := s.jobs.Create("import")
	s.jobs.UpdateProgress(job, 0, len(req.Patterns))

	patterns := req.Patterns
	workspaceID := req.WorkspaceID
	overwrite := req.Overwrite
	s.jobs.Run(job, func(ctx context.Context) (any, error) {
		report, err := s.store.Import(ctx, patterns, workspaceID, overwrite)
		if err != nil {
			return nil, err
		}
		s.jobs.UpdateProgress(job, report.Total, report.Total)
		s.hub.Broadcast(Event{Type: "patterns_imported", Count: report.Imported})
		return report, nil
	})

	writeJSON(w, http.StatusAccepted, map[string]any{"job_id": job.ID})
}

// ---- Jobs ----

func (s *Server) handleListJobs(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"jobs": s.jobs.List()})
}

func (s *Server) handleGetJob(w http.ResponseWriter, r *http.Request) {
	job := s.jobs.Get(r.PathValue("id"))
	if job == nil {
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "job not found"})
		return
	}
	writeJSON(w, http.StatusOK, job.Snapshot())
}

// ---- Runtime stats ----

func (s *Server) handleRuntimeStats(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.metrics.Snapshot())
}

func summarize(patterns []models.PatternRecord) []models.PatternSummary {
	summaries := make([]models.PatternSummary, 0, len(patterns))
	for i := range patterns {
		summaries = append(summaries, patterns[i].Summary())
	}
	return summaries
}
