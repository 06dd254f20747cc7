package jobs

import (
	"context"
	"fmt"

	"github.com/budgemon/budgemon/internal/archive"
	"github.com/budgemon/budgemon/internal/logger"
	"github.com/rs/zerolog"
)

// RecordStorer persists archive records to the sinks not yet listed in
// done and returns the updated list.
type RecordStorer interface {
	Store(ctx context.Context, rec *archive.Record, done []string) ([]string, error)
}

// NewArchiveHandler returns a JobHandler that writes archive jobs through
// storer. Sinks that succeed are recorded on the job so a retry only
// writes to the ones that failed.
func NewArchiveHandler(storer RecordStorer, log zerolog.Logger) JobHandler {
	return func(ctx context.Context, job Job) error {
		archiveJob, ok := job.(*ArchiveJob)
		if !ok {
			return fmt.Errorf("unexpected job type: %T", job)
		}
		if archiveJob.Record == nil {
			return fmt.Errorf("archive job %s has no record", archiveJob.JobID)
		}

		jobLog := logger.WithFields(log, map[string]interface{}{
			"job_id":     archiveJob.JobID,
			"job_type":   string(job.GetType()),
			"request_id": archiveJob.RequestID,
			"output_id":  archiveJob.Record.OutputID,
		})

		jobLog.Debug().
			Int("attempt", archiveJob.RetryCount+1).
			Strs("done_sinks", archiveJob.DoneSinks).
			Msg("Archiving interpretation")

		done, err := storer.Store(ctx, archiveJob.Record, archiveJob.DoneSinks)
		archiveJob.DoneSinks = done
		if err != nil {
			jobLog.Error().
				Err(err).
				Strs("done_sinks", done).
				Msg("Archive write failed")
			return err
		}

		jobLog.Info().Strs("sinks", done).Msg("Interpretation archived")
		return nil
	}
}
