package bigquery

import (
	"cloud.google.com/go/bigquery"
	"cloud.google.com/go/civil"
)

// InterpretationsTable is the archive table name.
const InterpretationsTable = "interpretations"

type InterpretationRow struct {
	OutputID  string `bigquery:"output_id"`  // REQUIRED
	RequestID string `bigquery:"request_id"` // REQUIRED

	Provider string `bigquery:"provider"` // REQUIRED
	Persona  string `bigquery:"persona"`  // REQUIRED
	Outcome  string `bigquery:"outcome"`  // REQUIRED

	Message    string            `bigquery:"message"`     // REQUIRED
	RawText    string            `bigquery:"raw_text"`    // REQUIRED, completion as returned
	ResultJSON bigquery.NullJSON `bigquery:"result_json"` // REQUIRED (JSON)

	Category bigquery.NullString  `bigquery:"category"` // NULLABLE
	Amount   bigquery.NullFloat64 `bigquery:"amount"`   // NULLABLE, signed
	Card     bigquery.NullString  `bigquery:"card"`     // NULLABLE

	LatencyMS   int64                  `bigquery:"latency_ms"`
	RequestDate civil.Date             `bigquery:"request_date"` // REQUIRED, partition column
	CreatedTS   bigquery.NullTimestamp `bigquery:"created_ts"`   // REQUIRED
}
