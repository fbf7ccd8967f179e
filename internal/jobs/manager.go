// Package jobs tracks background operations (pattern export and
// import) so API clients can poll their progress.
package jobs

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Status represents the state of a background job.
type Status string

const (
	StatusPending   Status = "pending"
	StatusRunning   Status = "running"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
)

// Job represents one background operation.
type Job struct {
	ID          string
	Type        string // "export" or "import"
	Status      Status
	Progress    int
	Total       int
	Result      any
	Error       string
	StartedAt   time.Time
	CompletedAt *time.Time

	mu sync.RWMutex
}

// Snapshot is a thread-safe, serializable copy of a job's state.
type Snapshot struct {
	ID          string     `json:"id"`
	Type        string     `json:"type"`
	Status      Status     `json:"status"`
	Progress    int        `json:"progress"`
	Total       int        `json:"total"`
	Result      any        `json:"result,omitempty"`
	Error       string     `json:"error,omitempty"`
	StartedAt   time.Time  `json:"started_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

// Snapshot returns a consistent copy of the job state.
func (j *Job) Snapshot() Snapshot {
	j.mu.RLock()
	defer j.mu.RUnlock()
	return Snapshot{
		ID:          j.ID,
		Type:        j.Type,
		Status:      j.Status,
		Progress:    j.Progress,
		Total:       j.Total,
		Result:      j.Result,
		Error:       j.Error,
		StartedAt:   j.StartedAt,
		CompletedAt: j.CompletedAt,
	}
}

// Manager tracks background jobs in memory. Jobs are not persisted;
// they live for the lifetime of the server process.
type Manager struct {
	jobs map[string]*Job
	mu   sync.RWMutex
}

// NewManager creates a job manager.
func NewManager() *Manager {
	return &Manager{jobs: make(map[string]*Job)}
}

// Create registers a new pending job.
func (m *Manager) Create(jobType string) *Job {
	job := &Job{
		ID:        uuid.New().String()[:8], // Short ID for convenience
		Type:      jobType,
		Status:    StatusPending,
		StartedAt: time.Now(),
	}

	m.mu.Lock()
	m.jobs[job.ID] = job
	m.mu.Unlock()

	slog.Info("job created", "job_id", job.ID, "type", jobType)
	return job
}

// Get retrieves a job by ID, nil if unknown.
func (m *Manager) Get(id string) *Job {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.jobs[id]
}

// List returns snapshots of all jobs, most recent first.
func (m *Manager) List() []Snapshot {
	m.mu.RLock()
	jobs := make([]*Job, 0, len(m.jobs))
	for _, job := range m.jobs {
		jobs = append(jobs, job)
	}
	m.mu.RUnlock()

	snapshots := make([]Snapshot, 0, len(jobs))
	for _, job := range jobs {
		snapshots = append(snapshots, job.Snapshot())
	}
	slices.SortFunc(snapshots, func(a, b Snapshot) int {
		return b.StartedAt.Compare(a.StartedAt)
	})
	return snapshots
}

// UpdateProgress records job progress and bumps a pending job to
// running.
func (m *Manager) UpdateProgress(job *Job, current, total int) {
	job.mu.Lock()
	job.Progress = current
	job.Total = total
	if job.Status == StatusPending {
		job.Status = StatusRunning
	}
	job.mu.Unlock()
}

// SetRunning marks a job as running.
func (m *Manager) SetRunning(job *Job) {
	job.mu.Lock()
	job.Status = StatusRunning
	job.mu.Unlock()
}

// Complete marks a job as completed with its result.
func (m *Manager) Complete(job *Job, result any) {
	job.mu.Lock()
	job.Status = StatusCompleted
	job.Result = result
	now := time.Now()
	job.CompletedAt = &now
	job.mu.Unlock()

	slog.Info("job completed", "job_id", job.ID, "type", job.Type)
}

// Fail marks a job as failed with the error message.
func (m *Manager) Fail(job *Job, err error) {
	job.mu.Lock()
	job.Status = StatusFailed
	job.Error = err.Error()
	now := time.Now()
	job.CompletedAt = &now
	job.mu.Unlock()

	slog.Error("job failed", "job_id", job.ID, "type", job.Type, "error", err)
}

// Run executes fn in a background goroutine, tracking its outcome on
// the job. The goroutine gets a fresh context so the job outlives the
// HTTP request that started it.
func (m *Manager) Run(job *Job, fn func(ctx context.Context) (any, error)) {
	m.SetRunning(job)

	go func() {
		defer func() {
			if r := recover(); r != nil {
				slog.Error("job goroutine panicked", "job_id", job.ID, "panic", r)
				m.Fail(job, fmt.Errorf("internal panic: %v", r))
			}
		}()

		result, err := fn(context.Background())
		if err != nil {
			m.Fail(job, err)
			return
		}
		m.Complete(job, result)
	}()
}
