// Package jobs defines the refresh-job model: one job per data-refresh
// cycle, re-running the insight engine over the current dataset.
package jobs

import (
	"context"
	"time"
)

// JobStatus represents the current status of a refresh job.
type JobStatus string

const (
	// JobStatusPending indicates the job is waiting to be processed.
	JobStatusPending JobStatus = "pending"
	// JobStatusRunning indicates the job is currently being processed.
	JobStatusRunning JobStatus = "running"
	// JobStatusCompleted indicates the job completed successfully.
	JobStatusCompleted JobStatus = "completed"
	// JobStatusFailed indicates the job failed.
	JobStatusFailed JobStatus = "failed"
	// JobStatusRetrying indicates the job failed and is being retried.
	JobStatusRetrying JobStatus = "retrying"
)

// RefreshJob represents one full recomputation of the insight report.
// The engine only has safe abort points between component invocations, so a
// job always runs a component to completion; cancellation applies between
// jobs, never mid-component.
type RefreshJob struct {
	// JobID is the unique identifier for this job.
	JobID string `json:"job_id"`

	// Source describes where the dataset comes from (file path, GCS URI).
	Source string `json:"source"`

	// Requested notes who or what asked for the refresh.
	Requested string `json:"requested,omitempty"`

	// Status is the current status of the job.
	Status JobStatus `json:"status"`

	// CreatedAt is when the job was created.
	CreatedAt time.Time `json:"created_at"`

	// StartedAt is when the job started processing.
	StartedAt *time.Time `json:"started_at,omitempty"`

	// CompletedAt is when the job completed (success or failure).
	CompletedAt *time.Time `json:"completed_at,omitempty"`

	// Error contains error details if the job failed.
	Error string `json:"error,omitempty"`

	// RetryCount is the number of times this job has been retried.
	RetryCount int `json:"retry_count"`

	// MaxRetries is the maximum number of retries allowed.
	MaxRetries int `json:"max_retries"`
}

// Publisher defines the interface for publishing refresh jobs to a queue.
type Publisher interface {
	// PublishRefresh publishes a refresh job.
	PublishRefresh(ctx context.Context, job *RefreshJob) error

	// Close closes the publisher and releases resources.
	Close() error
}

// Consumer defines the interface for consuming refresh jobs from a queue.
type Consumer interface {
	// Start begins consuming jobs from the queue.
	Start(ctx context.Context, handler JobHandler) error

	// Stop stops consuming jobs and waits for in-flight jobs to complete.
	Stop(ctx context.Context) error
}

// JobHandler is a function that processes a refresh job. It should return an
// error if the job failed and may be retried.
type JobHandler func(ctx context.Context, job *RefreshJob) error

// JobStore defines the interface for storing and retrieving job status.
type JobStore interface {
	// SaveJob saves or updates a job's state.
	SaveJob(ctx context.Context, job *RefreshJob) error

	// GetJob retrieves a job by ID.
	GetJob(ctx context.Context, jobID string) (*RefreshJob, error)

	// ListJobs retrieves jobs with optional filtering.
	ListJobs(ctx context.Context, filter JobFilter) ([]*RefreshJob, error)
}

// JobFilter defines filtering criteria for listing jobs.
type JobFilter struct {
	// Status filters jobs by status.
	Status JobStatus

	// Limit limits the number of results.
	Limit int

	// Offset for pagination.
	Offset int
}
