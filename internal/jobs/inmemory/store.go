package inmemory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/budgemon/budgemon/internal/jobs"
)

const (
	defaultRetention = time.Hour
	defaultMaxJobs   = 10000
	pruneInterval    = time.Minute
)

// Store is an in-memory implementation of JobStore.
// It stores jobs in memory and is safe for concurrent use.
// Completed and failed jobs are dropped after the retention period, and
// the oldest of them go first whenever the store holds more than maxJobs.
// Pending, running and retrying jobs are never dropped.
type Store struct {
	mu   sync.RWMutex
	jobs map[string]*jobs.ArchiveJob

	retention time.Duration
	maxJobs   int
	lastPrune time.Time
	now       func() time.Time
}

// NewStore creates a new in-memory job store.
func NewStore() *Store {
	return &Store{
		jobs:      make(map[string]*jobs.ArchiveJob),
		retention: defaultRetention,
		maxJobs:   defaultMaxJobs,
		now:       time.Now,
	}
}

// SaveJob implements the JobStore interface.
func (s *Store) SaveJob(ctx context.Context, job *jobs.ArchiveJob) error {
	if job.JobID == "" {
		return fmt.Errorf("job ID is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// Store a copy so callers can keep mutating theirs.
	jobCopy := *job
	s.jobs[job.JobID] = &jobCopy

	now := s.now()
	if len(s.jobs) > s.maxJobs || now.Sub(s.lastPrune) > pruneInterval {
		s.pruneLocked(now)
	}

	return nil
}

// pruneLocked evicts finished jobs. s.mu must be held for writing.
func (s *Store) pruneLocked(now time.Time) {
	s.lastPrune = now

	var finished []*jobs.ArchiveJob
	for id, job := range s.jobs {
		if !isFinished(job) {
			continue
		}
		if job.CompletedAt != nil && now.Sub(*job.CompletedAt) > s.retention {
			delete(s.jobs, id)
			continue
		}
		finished = append(finished, job)
	}

	excess := len(s.jobs) - s.maxJobs
	if excess <= 0 {
		return
	}
	sort.Slice(finished, func(i, j int) bool {
		return finishedAt(finished[i]).Before(finishedAt(finished[j]))
	})
	for i := 0; i < excess && i < len(finished); i++ {
		delete(s.jobs, finished[i].JobID)
	}
}

func isFinished(job *jobs.ArchiveJob) bool {
	return job.Status == jobs.JobStatusCompleted || job.Status == jobs.JobStatusFailed
}

func finishedAt(job *jobs.ArchiveJob) time.Time {
	if job.CompletedAt != nil {
		return *job.CompletedAt
	}
	return job.CreatedAt
}

// GetJob implements the JobStore interface.
func (s *Store) GetJob(ctx context.Context, jobID string) (*jobs.ArchiveJob, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	job, exists := s.jobs[jobID]
	if !exists {
		return nil, fmt.Errorf("job not found: %s", jobID)
	}

	jobCopy := *job
	return &jobCopy, nil
}

// ListJobs implements the JobStore interface. Results are ordered newest
// first so pagination is stable.
func (s *Store) ListJobs(ctx context.Context, filter jobs.JobFilter) ([]*jobs.ArchiveJob, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := []*jobs.ArchiveJob{}

	for _, job := range s.jobs {
		if filter.RequestID != "" && job.RequestID != filter.RequestID {
			continue
		}
		if filter.Status != "" && job.Status != filter.Status {
			continue
		}

		jobCopy := *job
		result = append(result, &jobCopy)
	}

	sort.Slice(result, func(i, j int) bool {
		if result[i].CreatedAt.Equal(result[j].CreatedAt) {
			return result[i].JobID < result[j].JobID
		}
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})

	if filter.Offset > 0 {
		if filter.Offset >= len(result) {
			return []*jobs.ArchiveJob{}, nil
		}
		result = result[filter.Offset:]
	}

	if filter.Limit > 0 && filter.Limit < len(result) {
		result = result[:filter.Limit]
	}

	return result, nil
}

// Ensure Store implements JobStore interface.
var _ jobs.JobStore = (*Store)(nil)
