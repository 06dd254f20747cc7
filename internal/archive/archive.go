package archive

import (
	"context"
	"errors"
	"fmt"
	"slices"

	infraBQ "github.com/budgemon/budgemon/internal/infra/bigquery"
)

// Sink is one archive destination.
type Sink interface {
	Store(ctx context.Context, rec *Record) error
	Name() string
}

// Archiver writes each record to every configured sink.
type Archiver struct {
	sinks []Sink
}

// NewArchiver creates an Archiver over sinks.
func NewArchiver(sinks ...Sink) *Archiver {
	return &Archiver{sinks: sinks}
}

// Enabled reports whether at least one sink is configured.
func (a *Archiver) Enabled() bool {
	return a != nil && len(a.sinks) > 0
}

// Store writes rec to every sink whose name is not in done and returns
// done extended with the sinks that succeeded. Every pending sink is
// attempted; failures are joined in the returned error. Passing the
// returned names back on a retry keeps healthy sinks from writing twice.
func (a *Archiver) Store(ctx context.Context, rec *Record, done []string) ([]string, error) {
	if a == nil {
		return done, nil
	}

	stored := append([]string(nil), done...)
	var errs []error
	for _, s := range a.sinks {
		if slices.Contains(done, s.Name()) {
			continue
		}
		if err := s.Store(ctx, rec); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", s.Name(), err))
			continue
		}
		stored = append(stored, s.Name())
	}
	return stored, errors.Join(errs...)
}

// rowInserter is the part of the BigQuery repository the sink needs.
type rowInserter interface {
	InsertInterpretation(ctx context.Context, row *infraBQ.InterpretationRow) error
}

// BigQuerySink appends records to the interpretations table.
type BigQuerySink struct {
	repo rowInserter
}

// NewBigQuerySink creates a sink over repo.
func NewBigQuerySink(repo rowInserter) *BigQuerySink {
	return &BigQuerySink{repo: repo}
}

// Name implements Sink.
func (s *BigQuerySink) Name() string { return "bigquery" }

// Store implements Sink.
func (s *BigQuerySink) Store(ctx context.Context, rec *Record) error {
	row, err := rec.Row()
	if err != nil {
		return err
	}
	if err := s.repo.InsertInterpretation(ctx, row); err != nil {
		return fmt.Errorf("BigQuerySink.Store: %w", err)
	}
	return nil
}
