package bigquery

import (
	"testing"

	"cloud.google.com/go/bigquery"
)

func TestInterpretationRowSchema(t *testing.T) {
	schema, err := bigquery.InferSchema(InterpretationRow{})
	if err != nil {
		t.Fatalf("InferSchema failed: %v", err)
	}

	fields := make(map[string]*bigquery.FieldSchema)
	for _, f := range schema {
		fields[f.Name] = f
	}

	tests := []struct {
		name     string
		typ      bigquery.FieldType
		required bool
	}{
		{"output_id", bigquery.StringFieldType, true},
		{"request_id", bigquery.StringFieldType, true},
		{"outcome", bigquery.StringFieldType, true},
		{"category", bigquery.StringFieldType, false},
		{"amount", bigquery.FloatFieldType, false},
		{"card", bigquery.StringFieldType, false},
		{"latency_ms", bigquery.IntegerFieldType, true},
		{"request_date", bigquery.DateFieldType, true},
		{"created_ts", bigquery.TimestampFieldType, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, ok := fields[tt.name]
			if !ok {
				t.Fatalf("Expected column %s in schema", tt.name)
			}
			if f.Type != tt.typ {
				t.Errorf("Column %s: type = %s, want %s", tt.name, f.Type, tt.typ)
			}
			if f.Required != tt.required {
				t.Errorf("Column %s: required = %v, want %v", tt.name, f.Required, tt.required)
			}
		})
	}
}
