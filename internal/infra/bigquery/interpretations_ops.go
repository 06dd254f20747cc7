package bigquery

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"cloud.google.com/go/bigquery"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/iterator"
)

// InterpretationSummary is a read-side view of an archived interpretation.
type InterpretationSummary struct {
	OutputID   string    `bigquery:"output_id" json:"output_id"`
	RequestID  string    `bigquery:"request_id" json:"request_id"`
	Provider   string    `bigquery:"provider" json:"provider"`
	Persona    string    `bigquery:"persona" json:"persona"`
	Outcome    string    `bigquery:"outcome" json:"outcome"`
	Message    string    `bigquery:"message" json:"message"`
	RawText    string    `bigquery:"raw_text" json:"raw_text"`
	ResultJSON string    `bigquery:"result_json" json:"result_json"`
	LatencyMS  int64     `bigquery:"latency_ms" json:"latency_ms"`
	CreatedTS  time.Time `bigquery:"created_ts" json:"created_ts"`
}

// ErrInterpretationNotFound is returned by GetInterpretation for unknown IDs.
var ErrInterpretationNotFound = errors.New("interpretation not found")

// BigQueryInterpretationRepository stores archived interpretations. It
// holds a shared BigQuery client.
type BigQueryInterpretationRepository struct {
	client    *bigquery.Client
	projectID string
	datasetID string
}

// NewBigQueryInterpretationRepository creates a repository bound to
// projectID.datasetID.
func NewBigQueryInterpretationRepository(ctx context.Context, projectID, datasetID string) (*BigQueryInterpretationRepository, error) {
	client, err := bigquery.NewClient(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("NewBigQueryInterpretationRepository: creating client: %w", err)
	}
	return &BigQueryInterpretationRepository{
		client:    client,
		projectID: projectID,
		datasetID: datasetID,
	}, nil
}

// Close closes the BigQuery client connection.
func (r *BigQueryInterpretationRepository) Close() error {
	if r.client != nil {
		return r.client.Close()
	}
	return nil
}

func (r *BigQueryInterpretationRepository) tableRef() string {
	return "`" + r.projectID + "." + r.datasetID + "." + InterpretationsTable + "`"
}

// EnsureTable creates the interpretations table, partitioned by
// request_date, when it does not exist yet.
func (r *BigQueryInterpretationRepository) EnsureTable(ctx context.Context) error {
	table := r.client.Dataset(r.datasetID).Table(InterpretationsTable)

	_, err := table.Metadata(ctx)
	if err == nil {
		return nil
	}
	var apiErr *googleapi.Error
	if !errors.As(err, &apiErr) || apiErr.Code != http.StatusNotFound {
		return fmt.Errorf("EnsureTable: reading metadata: %w", err)
	}

	schema, err := bigquery.InferSchema(InterpretationRow{})
	if err != nil {
		return fmt.Errorf("EnsureTable: inferring schema: %w", err)
	}

	meta := &bigquery.TableMetadata{
		Schema: schema,
		TimePartitioning: &bigquery.TimePartitioning{
			Type:  bigquery.DayPartitioningType,
			Field: "request_date",
		},
		Description: "Chat interpretations archived by the BudgeMon API",
	}
	if err := table.Create(ctx, meta); err != nil {
		return fmt.Errorf("EnsureTable: creating table: %w", err)
	}
	return nil
}

// InsertInterpretation inserts a single row. Uses DML INSERT to avoid
// streaming buffer issues.
func (r *BigQueryInterpretationRepository) InsertInterpretation(ctx context.Context, row *InterpretationRow) error {
	q := r.client.Query(`
		INSERT INTO ` + r.tableRef() + ` (
			output_id, request_id, provider, persona, outcome,
			message, raw_text, result_json,
			category, amount, card,
			latency_ms, request_date, created_ts
		)
		VALUES (
			@output_id, @request_id, @provider, @persona, @outcome,
			@message, @raw_text, @result_json,
			@category, @amount, @card,
			@latency_ms, @request_date, @created_ts
		)
	`)

	q.Parameters = []bigquery.QueryParameter{
		{Name: "output_id", Value: row.OutputID},
		{Name: "request_id", Value: row.RequestID},
		{Name: "provider", Value: row.Provider},
		{Name: "persona", Value: row.Persona},
		{Name: "outcome", Value: row.Outcome},
		{Name: "message", Value: row.Message},
		{Name: "raw_text", Value: row.RawText},
		{Name: "result_json", Value: row.ResultJSON},
		{Name: "category", Value: row.Category},
		{Name: "amount", Value: row.Amount},
		{Name: "card", Value: row.Card},
		{Name: "latency_ms", Value: row.LatencyMS},
		{Name: "request_date", Value: row.RequestDate},
		{Name: "created_ts", Value: row.CreatedTS},
	}

	job, err := q.Run(ctx)
	if err != nil {
		return fmt.Errorf("InsertInterpretation: running insert query: %w", err)
	}

	status, err := job.Wait(ctx)
	if err != nil {
		return fmt.Errorf("InsertInterpretation: waiting for job: %w", err)
	}
	if err := status.Err(); err != nil {
		return fmt.Errorf("InsertInterpretation: job error: %w", err)
	}

	return nil
}

const summaryColumns = `
			output_id,
			request_id,
			provider,
			persona,
			outcome,
			message,
			raw_text,
			TO_JSON_STRING(result_json) AS result_json,
			latency_ms,
			created_ts`

// ListRecentInterpretations returns the newest rows first.
func (r *BigQueryInterpretationRepository) ListRecentInterpretations(ctx context.Context, limit int) ([]*InterpretationSummary, error) {
	if limit <= 0 {
		limit = 20
	}

	q := r.client.Query(`
		SELECT` + summaryColumns + `
		FROM ` + r.tableRef() + `
		ORDER BY created_ts DESC
		LIMIT @limit
	`)
	q.Parameters = []bigquery.QueryParameter{
		{Name: "limit", Value: limit},
	}

	it, err := q.Read(ctx)
	if err != nil {
		return nil, fmt.Errorf("ListRecentInterpretations: reading query: %w", err)
	}

	var rows []*InterpretationSummary
	for {
		var row InterpretationSummary
		err := it.Next(&row)
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("ListRecentInterpretations: iterating: %w", err)
		}
		rows = append(rows, &row)
	}

	return rows, nil
}

// GetInterpretation returns the row with the given output ID.
func (r *BigQueryInterpretationRepository) GetInterpretation(ctx context.Context, outputID string) (*InterpretationSummary, error) {
	q := r.client.Query(`
		SELECT` + summaryColumns + `
		FROM ` + r.tableRef() + `
		WHERE output_id = @output_id
		LIMIT 1
	`)
	q.Parameters = []bigquery.QueryParameter{
		{Name: "output_id", Value: outputID},
	}

	it, err := q.Read(ctx)
	if err != nil {
		return nil, fmt.Errorf("GetInterpretation: reading query: %w", err)
	}

	var row InterpretationSummary
	err = it.Next(&row)
	if err == iterator.Done {
		return nil, fmt.Errorf("GetInterpretation: %s: %w", outputID, ErrInterpretationNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("GetInterpretation: iterating: %w", err)
	}

	return &row, nil
}
