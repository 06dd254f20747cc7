package bigquery

import "context"

// InterpretationRepository is the archive storage used by the API and CLI.
type InterpretationRepository interface {
	// EnsureTable creates the interpretations table if it is missing.
	EnsureTable(ctx context.Context) error

	// InsertInterpretation inserts a single InterpretationRow.
	InsertInterpretation(ctx context.Context, row *InterpretationRow) error

	// ListRecentInterpretations returns up to limit rows, newest first.
	ListRecentInterpretations(ctx context.Context, limit int) ([]*InterpretationSummary, error)

	// GetInterpretation returns one row by output ID.
	GetInterpretation(ctx context.Context, outputID string) (*InterpretationSummary, error)

	// Close releases the underlying client.
	Close() error
}

var _ InterpretationRepository = (*BigQueryInterpretationRepository)(nil)
