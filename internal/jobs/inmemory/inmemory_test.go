package inmemory

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/budgemon/budgemon/internal/archive"
	"github.com/budgemon/budgemon/internal/jobs"
	"github.com/rs/zerolog"
)

func waitForStatus(t *testing.T, store *Store, jobID string, want jobs.JobStatus) *jobs.ArchiveJob {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		job, err := store.GetJob(context.Background(), jobID)
		if err == nil && job.Status == want {
			return job
		}
		time.Sleep(5 * time.Millisecond)
	}
	job, _ := store.GetJob(context.Background(), jobID)
	t.Fatalf("Timed out waiting for job %s to reach %s, last state: %+v", jobID, want, job)
	return nil
}

func TestQueue_ProcessesJob(t *testing.T) {
	store := NewStore()
	q := NewQueue(10, store)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var handled atomic.Int32
	if err := q.Start(ctx, func(ctx context.Context, job jobs.Job) error {
		handled.Add(1)
		return nil
	}); err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	job := &jobs.ArchiveJob{RequestID: "req-1", Record: &archive.Record{OutputID: "out-1"}}
	if err := q.PublishArchive(ctx, job); err != nil {
		t.Fatalf("PublishArchive failed: %v", err)
	}
	if job.JobID == "" {
		t.Fatal("Expected job ID to be assigned")
	}
	if job.MaxRetries != defaultMaxRetries {
		t.Errorf("Expected default max retries, got %d", job.MaxRetries)
	}

	waitForStatus(t, store, job.JobID, jobs.JobStatusCompleted)
	if handled.Load() != 1 {
		t.Errorf("Expected handler to run once, ran %d times", handled.Load())
	}

	if err := q.Stop(context.Background()); err != nil {
		t.Errorf("Stop failed: %v", err)
	}
}

func TestQueue_RetriesThenSucceeds(t *testing.T) {
	store := NewStore()
	q := NewQueue(10, store)
	q.backoff = time.Millisecond
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var attempts atomic.Int32
	_ = q.Start(ctx, func(ctx context.Context, job jobs.Job) error {
		if attempts.Add(1) < 3 {
			return errors.New("sink unavailable")
		}
		return nil
	})

	job := &jobs.ArchiveJob{RequestID: "req-2", Record: &archive.Record{OutputID: "out-2"}}
	_ = q.PublishArchive(ctx, job)

	got := waitForStatus(t, store, job.JobID, jobs.JobStatusCompleted)
	if got.RetryCount != 2 {
		t.Errorf("Expected 2 retries, got %d", got.RetryCount)
	}
	if got.Error != "" {
		t.Errorf("Expected error cleared after success, got %q", got.Error)
	}
	_ = q.Close()
}

func TestQueue_FailsAfterMaxRetries(t *testing.T) {
	store := NewStore()
	q := NewQueue(10, store)
	q.backoff = time.Millisecond
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	_ = q.Start(ctx, func(ctx context.Context, job jobs.Job) error {
		return errors.New("permission denied")
	})

	job := &jobs.ArchiveJob{RequestID: "req-3", MaxRetries: 1, Record: &archive.Record{OutputID: "out-3"}}
	_ = q.PublishArchive(ctx, job)

	got := waitForStatus(t, store, job.JobID, jobs.JobStatusFailed)
	if got.Error != "permission denied" {
		t.Errorf("Expected last error to be kept, got %q", got.Error)
	}
	_ = q.Close()
}

func TestQueue_PublishAfterClose(t *testing.T) {
	q := NewQueue(1, nil)
	_ = q.Close()

	if err := q.PublishArchive(context.Background(), &jobs.ArchiveJob{}); err == nil {
		t.Error("Expected error publishing to a closed queue")
	}
	if err := q.Start(context.Background(), func(ctx context.Context, job jobs.Job) error { return nil }); err == nil {
		t.Error("Expected error starting a closed queue")
	}
}

func TestStore_ListJobs(t *testing.T) {
	store := NewStore()
	ctx := context.Background()
	base := time.Date(2026, 3, 9, 12, 0, 0, 0, time.UTC)

	for i, j := range []*jobs.ArchiveJob{
		{JobID: "a", RequestID: "r1", Status: jobs.JobStatusCompleted},
		{JobID: "b", RequestID: "r2", Status: jobs.JobStatusFailed},
		{JobID: "c", RequestID: "r1", Status: jobs.JobStatusCompleted},
	} {
		j.CreatedAt = base.Add(time.Duration(i) * time.Minute)
		if err := store.SaveJob(ctx, j); err != nil {
			t.Fatalf("SaveJob failed: %v", err)
		}
	}

	tests := []struct {
		name   string
		filter jobs.JobFilter
		want   []string
	}{
		{name: "all newest first", want: []string{"c", "b", "a"}},
		{name: "by request", filter: jobs.JobFilter{RequestID: "r1"}, want: []string{"c", "a"}},
		{name: "by status", filter: jobs.JobFilter{Status: jobs.JobStatusFailed}, want: []string{"b"}},
		{name: "limit", filter: jobs.JobFilter{Limit: 2}, want: []string{"c", "b"}},
		{name: "offset", filter: jobs.JobFilter{Offset: 1}, want: []string{"b", "a"}},
		{name: "offset past end", filter: jobs.JobFilter{Offset: 5}, want: []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := store.ListJobs(ctx, tt.filter)
			if err != nil {
				t.Fatalf("ListJobs failed: %v", err)
			}
			if len(got) != len(tt.want) {
				t.Fatalf("Expected %d jobs, got %d", len(tt.want), len(got))
			}
			for i, id := range tt.want {
				if got[i].JobID != id {
					t.Errorf("Position %d: expected %s, got %s", i, id, got[i].JobID)
				}
			}
		})
	}
}

func TestStore_CopiesOnSaveAndGet(t *testing.T) {
	store := NewStore()
	ctx := context.Background()

	job := &jobs.ArchiveJob{JobID: "x", Status: jobs.JobStatusPending}
	_ = store.SaveJob(ctx, job)
	job.Status = jobs.JobStatusFailed

	got, _ := store.GetJob(ctx, "x")
	if got.Status != jobs.JobStatusPending {
		t.Errorf("Expected stored copy to be unaffected, got %s", got.Status)
	}

	if _, err := store.GetJob(ctx, "missing"); err == nil {
		t.Error("Expected error for unknown job")
	}
	if err := store.SaveJob(ctx, &jobs.ArchiveJob{}); err == nil {
		t.Error("Expected error saving a job without ID")
	}
}

type countingSink struct {
	name     string
	failures atomic.Int32 // remaining attempts that fail
	writes   atomic.Int32
}

func (c *countingSink) Name() string { return c.name }

func (c *countingSink) Store(ctx context.Context, rec *archive.Record) error {
	c.writes.Add(1)
	if c.failures.Add(-1) >= 0 {
		return errors.New("503 service unavailable")
	}
	return nil
}

func TestQueue_RetryWritesOnlyFailedSinks(t *testing.T) {
	bq := &countingSink{name: "bigquery"}
	gcs := &countingSink{name: "gcs"}
	gcs.failures.Store(1)

	store := NewStore()
	q := NewQueue(10, store)
	q.backoff = time.Millisecond
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	_ = q.Start(ctx, jobs.NewArchiveHandler(archive.NewArchiver(bq, gcs), zerolog.Nop()))

	job := &jobs.ArchiveJob{RequestID: "req-4", Record: &archive.Record{OutputID: "out-4"}}
	_ = q.PublishArchive(ctx, job)

	got := waitForStatus(t, store, job.JobID, jobs.JobStatusCompleted)
	if got.RetryCount != 1 {
		t.Errorf("Expected one retry, got %d", got.RetryCount)
	}
	if n := bq.writes.Load(); n != 1 {
		t.Errorf("Expected one bigquery write for the record, got %d", n)
	}
	if n := gcs.writes.Load(); n != 2 {
		t.Errorf("Expected two gcs attempts, got %d", n)
	}
	_ = q.Close()
}

func TestStore_EvictsFinishedJobs(t *testing.T) {
	store := NewStore()
	ctx := context.Background()
	now := time.Date(2026, 3, 9, 12, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return now }

	old := now.Add(-2 * defaultRetention)
	recent := now.Add(-time.Minute)
	for _, j := range []*jobs.ArchiveJob{
		{JobID: "old-done", Status: jobs.JobStatusCompleted, CompletedAt: &old},
		{JobID: "old-failed", Status: jobs.JobStatusFailed, CompletedAt: &old},
		{JobID: "old-retrying", Status: jobs.JobStatusRetrying, CompletedAt: &old},
		{JobID: "recent-done", Status: jobs.JobStatusCompleted, CompletedAt: &recent},
	} {
		_ = store.SaveJob(ctx, j)
	}
	// The next save after the prune interval sweeps the store.
	now = now.Add(pruneInterval + time.Second)
	_ = store.SaveJob(ctx, &jobs.ArchiveJob{JobID: "new", Status: jobs.JobStatusPending})

	for _, tt := range []struct {
		id   string
		kept bool
	}{
		{"old-done", false},
		{"old-failed", false},
		{"old-retrying", true},
		{"recent-done", true},
	} {
		_, err := store.GetJob(ctx, tt.id)
		if kept := err == nil; kept != tt.kept {
			t.Errorf("Job %s: expected kept=%v, got %v", tt.id, tt.kept, kept)
		}
	}
}

func TestStore_CapsFinishedJobs(t *testing.T) {
	store := NewStore()
	store.maxJobs = 2
	ctx := context.Background()
	base := time.Date(2026, 3, 9, 12, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return base.Add(time.Minute) }

	first, second := base, base.Add(time.Second)
	_ = store.SaveJob(ctx, &jobs.ArchiveJob{JobID: "first", Status: jobs.JobStatusCompleted, CompletedAt: &first})
	_ = store.SaveJob(ctx, &jobs.ArchiveJob{JobID: "pending", Status: jobs.JobStatusPending})
	_ = store.SaveJob(ctx, &jobs.ArchiveJob{JobID: "second", Status: jobs.JobStatusCompleted, CompletedAt: &second})

	if _, err := store.GetJob(ctx, "first"); err == nil {
		t.Error("Expected the oldest finished job to be evicted over the cap")
	}
	for _, id := range []string{"pending", "second"} {
		if _, err := store.GetJob(ctx, id); err != nil {
			t.Errorf("Expected job %s to be kept: %v", id, err)
		}
	}
}
