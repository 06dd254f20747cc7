package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/budgemon/budgemon/internal/api/middleware"
	"github.com/budgemon/budgemon/internal/jobs"
	"github.com/rs/zerolog"
)

// maxJobsPage caps how many jobs one list call returns.
const maxJobsPage = 100

// JobView is the public shape of an archive job. It identifies the
// archived interpretation but carries none of its content: no message,
// completion, card or amount.
type JobView struct {
	JobID       string         `json:"job_id"`
	RequestID   string         `json:"request_id"`
	OutputID    string         `json:"output_id,omitempty"`
	Outcome     string         `json:"outcome,omitempty"`
	Status      jobs.JobStatus `json:"status"`
	DoneSinks   []string       `json:"done_sinks,omitempty"`
	RetryCount  int            `json:"retry_count"`
	MaxRetries  int            `json:"max_retries"`
	Error       string         `json:"error,omitempty"`
	CreatedAt   time.Time      `json:"created_at"`
	StartedAt   *time.Time     `json:"started_at,omitempty"`
	CompletedAt *time.Time     `json:"completed_at,omitempty"`
}

// NewJobView redacts job for the API.
func NewJobView(job *jobs.ArchiveJob) JobView {
	v := JobView{
		JobID:       job.JobID,
		RequestID:   job.RequestID,
		Status:      job.Status,
		DoneSinks:   job.DoneSinks,
		RetryCount:  job.RetryCount,
		MaxRetries:  job.MaxRetries,
		Error:       job.Error,
		CreatedAt:   job.CreatedAt,
		StartedAt:   job.StartedAt,
		CompletedAt: job.CompletedAt,
	}
	if job.Record != nil {
		v.OutputID = job.Record.OutputID
		v.Outcome = job.Record.Outcome
	}
	return v
}

// JobsHandler serves archive job status.
type JobsHandler struct {
	store jobs.JobStore
	log   zerolog.Logger
}

// NewJobsHandler creates a new jobs handler.
func NewJobsHandler(store jobs.JobStore, log zerolog.Logger) *JobsHandler {
	return &JobsHandler{
		store: store,
		log:   log,
	}
}

// GetJob handles GET /api/jobs/{id}
func (h *JobsHandler) GetJob(w http.ResponseWriter, r *http.Request, jobID string) {
	job, err := h.store.GetJob(r.Context(), jobID)
	if err != nil {
		h.log.Debug().Err(err).Str("job_id", jobID).Msg("Job lookup failed")
		middleware.WriteError(w, http.StatusNotFound, "Job not found")
		return
	}

	middleware.WriteJSON(w, http.StatusOK, NewJobView(job))
}

// ListJobs handles GET /api/jobs?request_id=&status=&limit=&offset=
func (h *JobsHandler) ListJobs(w http.ResponseWriter, r *http.Request) {
	filter, ok := parseJobFilter(r)
	if !ok {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid job filter")
		return
	}

	list, err := h.store.ListJobs(r.Context(), filter)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to list jobs")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to list jobs")
		return
	}

	views := make([]JobView, 0, len(list))
	for _, job := range list {
		views = append(views, NewJobView(job))
	}

	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"jobs":  views,
		"count": len(views),
	})
}

// parseJobFilter reads the list query. Limit defaults to and is capped
// at maxJobsPage; negative numbers are rejected.
func parseJobFilter(r *http.Request) (jobs.JobFilter, bool) {
	query := r.URL.Query()
	filter := jobs.JobFilter{
		RequestID: query.Get("request_id"),
		Status:    jobs.JobStatus(query.Get("status")),
		Limit:     maxJobsPage,
	}

	for key, dst := range map[string]*int{"limit": &filter.Limit, "offset": &filter.Offset} {
		raw := query.Get(key)
		if raw == "" {
			continue
		}
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			return filter, false
		}
		*dst = n
	}

	if filter.Limit == 0 || filter.Limit > maxJobsPage {
		filter.Limit = maxJobsPage
	}
	return filter, true
}
