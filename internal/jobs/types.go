package jobs

import (
	"context"
	"time"

	"github.com/budgemon/budgemon/internal/archive"
)

// JobType represents the type of job to be executed.
type JobType string

const (
	// JobTypeArchiveInterpretation writes an interpretation to the archive sinks.
	JobTypeArchiveInterpretation JobType = "archive_interpretation"
)

// JobStatus represents the current status of a job.
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

// ArchiveJob carries one interpretation record to the archive.
type ArchiveJob struct {
	// JobID is the unique identifier for this job.
	JobID string `json:"job_id"`

	// RequestID is the chat request that produced the record.
	RequestID string `json:"request_id"`

	// Record is the interpretation to archive. It holds the user's
	// message and is never serialized with the job.
	Record *archive.Record `json:"-"`

	// DoneSinks names the archive sinks that already stored Record.
	// Retries skip them.
	DoneSinks []string `json:"done_sinks,omitempty"`

	Status      JobStatus  `json:"status"`
	CreatedAt   time.Time  `json:"created_at"`
	StartedAt   *time.Time `json:"started_at,omitempty"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`

	// Error contains error details if the last attempt failed.
	Error string `json:"error,omitempty"`

	RetryCount int `json:"retry_count"`
	MaxRetries int `json:"max_retries"`
}

// Job is a generic interface for all job types.
type Job interface {
	// GetID returns the unique job identifier.
	GetID() string

	// GetType returns the job type.
	GetType() JobType

	// GetStatus returns the current job status.
	GetStatus() JobStatus
}

// GetID implements the Job interface.
func (j *ArchiveJob) GetID() string {
	return j.JobID
}

// GetType implements the Job interface.
func (j *ArchiveJob) GetType() JobType {
	return JobTypeArchiveInterpretation
}

// GetStatus implements the Job interface.
func (j *ArchiveJob) GetStatus() JobStatus {
	return j.Status
}

// Publisher defines the interface for publishing jobs to a queue.
type Publisher interface {
	// PublishArchive publishes an archive job.
	PublishArchive(ctx context.Context, job *ArchiveJob) error

	// Close closes the publisher and releases resources.
	Close() error
}

// Consumer defines the interface for consuming jobs from a queue.
type Consumer interface {
	// Start begins consuming jobs from the queue.
	// The handler function is called for each job received.
	Start(ctx context.Context, handler JobHandler) error

	// Stop stops consuming jobs and waits for in-flight jobs to complete.
	Stop(ctx context.Context) error
}

// JobHandler is a function that processes a job.
// It should return an error if the job failed and should be retried.
type JobHandler func(ctx context.Context, job Job) error

// JobStore defines the interface for storing and retrieving job status.
type JobStore interface {
	// SaveJob saves or updates a job's state.
	SaveJob(ctx context.Context, job *ArchiveJob) error

	// GetJob retrieves a job by ID.
	GetJob(ctx context.Context, jobID string) (*ArchiveJob, error)

	// ListJobs retrieves jobs with optional filtering.
	ListJobs(ctx context.Context, filter JobFilter) ([]*ArchiveJob, error)
}

// JobFilter defines filtering criteria for listing jobs.
type JobFilter struct {
	// RequestID filters jobs by chat request ID.
	RequestID string

	// Status filters jobs by status.
	Status JobStatus

	// Limit limits the number of results.
	Limit int

	// Offset for pagination.
	Offset int
}
