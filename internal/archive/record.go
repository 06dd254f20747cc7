package archive

import (
	"encoding/json"
	"fmt"
	"time"

	"cloud.google.com/go/bigquery"
	"cloud.google.com/go/civil"
	"github.com/budgemon/budgemon/internal/chat"
	infraBQ "github.com/budgemon/budgemon/internal/infra/bigquery"
	"github.com/google/uuid"
)

// Record is one archived interpretation.
type Record struct {
	OutputID   string        `json:"output_id"`
	RequestID  string        `json:"request_id"`
	Provider   string        `json:"provider"`
	Persona    string        `json:"persona"`
	Outcome    string        `json:"outcome"`
	Message    string        `json:"message"`
	Completion string        `json:"completion"`
	Result     chat.Result   `json:"result"`
	Latency    time.Duration `json:"latency_ns"`
	CreatedAt  time.Time     `json:"created_at"`
}

// NewRecord captures an interpretation at time now.
func NewRecord(interp *chat.Interpretation, now time.Time) *Record {
	return &Record{
		OutputID:   uuid.NewString(),
		RequestID:  interp.RequestID,
		Provider:   interp.Provider,
		Persona:    string(interp.Persona),
		Outcome:    interp.Outcome(),
		Message:    interp.Message,
		Completion: interp.Completion,
		Result:     interp.Result,
		Latency:    interp.Latency,
		CreatedAt:  now.UTC(),
	}
}

// ObjectName is the GCS object path: interpretations/YYYY/MM/DD/<id>.json.
func (r *Record) ObjectName() string {
	return ObjectName(r.OutputID, r.CreatedAt)
}

// ObjectName builds the object path for an output created at t.
func ObjectName(outputID string, t time.Time) string {
	return fmt.Sprintf("interpretations/%s/%s.json", t.UTC().Format("2006/01/02"), outputID)
}

// Row converts the record to its BigQuery form.
func (r *Record) Row() (*infraBQ.InterpretationRow, error) {
	resultJSON, err := json.Marshal(r.Result)
	if err != nil {
		return nil, fmt.Errorf("Record.Row: marshal result: %w", err)
	}

	row := &infraBQ.InterpretationRow{
		OutputID:    r.OutputID,
		RequestID:   r.RequestID,
		Provider:    r.Provider,
		Persona:     r.Persona,
		Outcome:     r.Outcome,
		Message:     r.Message,
		RawText:     r.Completion,
		ResultJSON:  bigquery.NullJSON{JSONVal: string(resultJSON), Valid: true},
		LatencyMS:   r.Latency.Milliseconds(),
		RequestDate: civil.DateOf(r.CreatedAt),
		CreatedTS:   bigquery.NullTimestamp{Timestamp: r.CreatedAt, Valid: true},
	}

	if r.Result.IsTransaction {
		row.Category = bigquery.NullString{StringVal: r.Result.Category, Valid: true}
	}
	if amount, ok := r.Result.SignedAmount(); ok {
		row.Amount = bigquery.NullFloat64{Float64: amount, Valid: true}
	}
	if r.Result.Card != nil {
		row.Card = bigquery.NullString{StringVal: *r.Result.Card, Valid: true}
	}

	return row, nil
}
