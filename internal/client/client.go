// Package client provides a REST client for the l0l1 server, used by
// the CLI.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"time"

	"github.com/l0l1/l0l1-go/internal/jobs"
	"github.com/l0l1/l0l1-go/internal/metrics"
	"github.com/l0l1/l0l1-go/internal/models"
	"github.com/l0l1/l0l1-go/internal/pii"
	"github.com/l0l1/l0l1-go/internal/store"
)

// Client talks to the l0l1 REST API.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// New creates a client. If endpoint is empty, uses the L0L1_SERVER_URL
// env var or defaults to localhost:8080. Timeout can be configured via
// L0L1_CLIENT_TIMEOUT (default 2m to cover LLM-backed endpoints).
func New(endpoint string) *Client {
	if endpoint == "" {
		endpoint = os.Getenv("L0L1_SERVER_URL")
	}
	if endpoint == "" {
		endpoint = "http://localhost:8080"
	}

	timeout := 2 * time.Minute
	if t := os.Getenv("L0L1_CLIENT_TIMEOUT"); t != "" {
		if d, err := time.ParseDuration(t); err == nil {
			timeout = d
		}
	}

	return &Client{
		baseURL: endpoint,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

type apiError struct {
	Error string `json:"error"`
}

// do sends a JSON request and decodes the JSON response into result.
func (c *Client) do(ctx context.Context, method, path string, body, result any) error {
	var reqBody io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		reqBody = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode >= http.StatusBadRequest {
		var apiErr apiError
		if json.Unmarshal(raw, &apiErr) == nil && apiErr.Error != "" {
			return fmt.Errorf("server error: %s", apiErr.Error)
		}
		return fmt.Errorf("server error: %s - %s", resp.Status, string(raw))
	}

	if result != nil && len(raw) > 0 {
		if err := json.Unmarshal(raw, result); err != nil {
			return fmt.Errorf("unmarshal response: %w", err)
		}
	}
	return nil
}

// Health checks server liveness.
func (c *Client) Health(ctx context.Context) error {
	return c.do(ctx, http.MethodGet, "/health", nil, nil)
}

// RecordResult is the outcome of recording a query.
type RecordResult struct {
	Recorded  bool   `json:"recorded"`
	PatternID string `json:"pattern_id"`
}

// Record stores a successful query execution.
func (c *Client) Record(ctx context.Context, input store.RecordInput) (*RecordResult, error) {
	var result RecordResult
	if err := c.do(ctx, http.MethodPost, "/learning/record", input, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// Match pairs a pattern summary with its similarity score.
type Match struct {
	Pattern models.PatternSummary `json:"pattern"`
	Score   float64               `json:"score"`
}

// Similar retrieves patterns similar to the query. Zero threshold and
// limit use server defaults.
func (c *Client) Similar(ctx context.Context, query, workspaceID string, threshold float64, limit int) ([]Match, error) {
	params := url.Values{"query": {query}}
	if workspaceID != "" {
		params.Set("workspace_id", workspaceID)
	}
	if threshold > 0 {
		params.Set("threshold", strconv.FormatFloat(threshold, 'f', -1, 64))
	}
	if limit > 0 {
		params.Set("limit", strconv.Itoa(limit))
	}

	var result struct {
		Matches []Match `json:"matches"`
	}
	if err := c.do(ctx, http.MethodGet, "/learning/similar?"+params.Encode(), nil, &result); err != nil {
		return nil, err
	}
	return result.Matches, nil
}

// Stats retrieves learning statistics, store-wide when workspaceID is
// empty.
func (c *Client) Stats(ctx context.Context, workspaceID string) (*models.LearningStats, error) {
	path := "/learning/stats"
	if workspaceID != "" {
		path += "?workspace_id=" + url.QueryEscape(workspaceID)
	}

	var stats models.LearningStats
	if err := c.do(ctx, http.MethodGet, path, nil, &stats); err != nil {
		return nil, err
	}
	return &stats, nil
}

// Suggest returns completion suggestions for a partial query.
func (c *Client) Suggest(ctx context.Context, partialQuery, workspaceID, schemaContext string) ([]string, error) {
	body := map[string]string{
		"partial_query":  partialQuery,
		"workspace_id":   workspaceID,
		"schema_context": schemaContext,
	}

	var result struct {
		Suggestions []string `json:"suggestions"`
	}
	if err := c.do(ctx, http.MethodPost, "/sql/complete", body, &result); err != nil {
		return nil, err
	}
	return result.Suggestions, nil
}

// Improve corrects a failing query using learned patterns and the
// model.
func (c *Client) Improve(ctx context.Context, query, errorMessage, workspaceID, schemaContext string) (*models.Improvement, error) {
	body := map[string]string{
		"query":          query,
		"error_message":  errorMessage,
		"workspace_id":   workspaceID,
		"schema_context": schemaContext,
	}

	var improvement models.Improvement
	if err := c.do(ctx, http.MethodPost, "/sql/correct", body, &improvement); err != nil {
		return nil, err
	}
	return &improvement, nil
}

// Explain returns a plain-language explanation of the query.
func (c *Client) Explain(ctx context.Context, query, schemaContext string) (string, error) {
	body := map[string]string{"query": query, "schema_context": schemaContext}

	var result struct {
		Explanation string `json:"explanation"`
	}
	if err := c.do(ctx, http.MethodPost, "/sql/explain", body, &result); err != nil {
		return "", err
	}
	return result.Explanation, nil
}

// Validate returns the model's structured assessment of the query.
func (c *Client) Validate(ctx context.Context, query, schemaContext string) (*models.ValidationReport, error) {
	body := map[string]string{"query": query, "schema_context": schemaContext}

	var report models.ValidationReport
	if err := c.do(ctx, http.MethodPost, "/sql/validate", body, &report); err != nil {
		return nil, err
	}
	return &report, nil
}

// PIICheck reports detected PII in a query.
func (c *Client) PIICheck(ctx context.Context, query string) ([]pii.Finding, bool, error) {
	var result struct {
		Findings []pii.Finding `json:"findings"`
		IsSafe   bool          `json:"is_safe"`
	}
	if err := c.do(ctx, http.MethodPost, "/sql/check-pii", map[string]string{"query": query}, &result); err != nil {
		return nil, false, err
	}
	return result.Findings, result.IsSafe, nil
}

// PatternPage is one page of pattern summaries.
type PatternPage struct {
	Patterns []models.PatternSummary `json:"patterns"`
	Total    int                     `json:"total"`
}

// ListPatterns returns a page of patterns.
func (c *Client) ListPatterns(ctx context.Context, workspaceID, sortBy, order string, limit, offset int) (*PatternPage, error) {
	params := url.Values{}
	if workspaceID != "" {
		params.Set("workspace_id", workspaceID)
	}
	if sortBy != "" {
		params.Set("sort_by", sortBy)
	}
	if order != "" {
		params.Set("order", order)
	}
	if limit > 0 {
		params.Set("limit", strconv.Itoa(limit))
	}
	if offset > 0 {
		params.Set("offset", strconv.Itoa(offset))
	}

	path := "/patterns"
	if len(params) > 0 {
		path += "?" + params.Encode()
	}

	var page PatternPage
	if err := c.do(ctx, http.MethodGet, path, nil, &page); err != nil {
		return nil, err
	}
	return &page, nil
}

// GetPattern retrieves one pattern by ID.
func (c *Client) GetPattern(ctx context.Context, id string) (*models.PatternSummary, error) {
	var summary models.PatternSummary
	if err := c.do(ctx, http.MethodGet, "/patterns/"+url.PathEscape(id), nil, &summary); err != nil {
		return nil, err
	}
	return &summary, nil
}

// DeletePattern removes one pattern.
func (c *Client) DeletePattern(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/patterns/"+url.PathEscape(id), nil, nil)
}

// AdjustConfidence shifts a pattern's confidence by adjustment in
// [-1, 1].
func (c *Client) AdjustConfidence(ctx context.Context, id string, adjustment float64) (*models.PatternSummary, error) {
	body := map[string]any{"pattern_id": id, "adjustment": adjustment}

	var summary models.PatternSummary
	if err := c.do(ctx, http.MethodPost, "/patterns/adjust-confidence", body, &summary); err != nil {
		return nil, err
	}
	return &summary, nil
}

// BulkDelete removes patterns matching the criteria and returns the
// count.
func (c *Client) BulkDelete(ctx context.Context, criteria store.BulkDeleteCriteria) (int, error) {
	var result struct {
		Deleted int `json:"deleted"`
	}
	if err := c.do(ctx, http.MethodPost, "/patterns/bulk-delete", criteria, &result); err != nil {
		return 0, err
	}
	return result.Deleted, nil
}

// Export downloads all patterns in scope, without embeddings.
func (c *Client) Export(ctx context.Context, workspaceID string) ([]models.PatternRecord, error) {
	path := "/patterns/export"
	if workspaceID != "" {
		path += "?workspace_id=" + url.QueryEscape(workspaceID)
	}

	var result struct {
		Patterns []models.PatternRecord `json:"patterns"`
	}
	if err := c.do(ctx, http.MethodGet, path, nil, &result); err != nil {
		return nil, err
	}
	return result.Patterns, nil
}

// ImportAsync uploads patterns for background import into the given
// workspace and returns the job ID.
func (c *Client) ImportAsync(ctx context.Context, patterns []models.PatternRecord, workspaceID string, overwrite bool) (string, error) {
	body := map[string]any{"patterns": patterns, "workspace_id": workspaceID, "overwrite": overwrite}

	var result struct {
		JobID string `json:"job_id"`
	}
	if err := c.do(ctx, http.MethodPost, "/patterns/import", body, &result); err != nil {
		return "", err
	}
	return result.JobID, nil
}

// GetJob retrieves a background job's state.
func (c *Client) GetJob(ctx context.Context, id string) (*jobs.Snapshot, error) {
	var snap jobs.Snapshot
	if err := c.do(ctx, http.MethodGet, "/jobs/"+url.PathEscape(id), nil, &snap); err != nil {
		return nil, err
	}
	return &snap, nil
}

// ListJobs returns all background jobs, most recent first.
func (c *Client) ListJobs(ctx context.Context) ([]jobs.Snapshot, error) {
	var result struct {
		Jobs []jobs.Snapshot `json:"jobs"`
	}
	if err := c.do(ctx, http.MethodGet, "/jobs", nil, &result); err != nil {
		return nil, err
	}
	return result.Jobs, nil
}

// RuntimeStats returns the server's in-memory metrics snapshot.
func (c *Client) RuntimeStats(ctx context.Context) (*metrics.Snapshot, error) {
	var snap metrics.Snapshot
	if err := c.do(ctx, http.MethodGet, "/stats/runtime", nil, &snap); err != nil {
		return nil, err
	}
	return &snap, nil
}
