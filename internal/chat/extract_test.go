package chat

import (
	"errors"
	"reflect"
	"testing"
)

func TestExtractJSON(t *testing.T) {
	bare := `{"isTransaction": true, "amount": 5, "card": null}`
	want, err := ExtractJSON(bare)
	if err != nil {
		t.Fatalf("Failed to parse bare object: %v", err)
	}

	tests := []struct {
		name string
		raw  string
	}{
		{"json fence", "```json\n" + bare + "\n```"},
		{"json fence without newline", "```json" + bare + "```"},
		{"plain fence", "```\n" + bare + "\n```"},
		{"surrounding whitespace", "\n\n   " + bare + "  \n"},
		{"surrounding prose", "Sure! Here is the result: " + bare + " Hope that helps."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ExtractJSON(tt.raw)
			if err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}
			if !reflect.DeepEqual(got, want) {
				t.Errorf("ExtractJSON() = %v, want %v", got, want)
			}
		})
	}
}

func TestExtractJSON_Unparsable(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{"no braces", "I'm not sure what you mean."},
		{"broken object", `Result: {"isTransaction": tru}`},
		{"empty", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ExtractJSON(tt.raw)
			if !errors.Is(err, ErrUnparsableOutput) {
				t.Errorf("Expected ErrUnparsableOutput, got %v", err)
			}
		})
	}
}

func TestExtractJSON_NonObject(t *testing.T) {
	got, err := ExtractJSON(`[1, 2, 3]`)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("Expected empty object for a JSON array, got %v", got)
	}
}

func TestExtractJSON_OutOfRangeNumber(t *testing.T) {
	raw, err := ExtractJSON(`{"isTransaction": true, "type": "expense", "title": 12, "amount": 1e400, "card": "Visa"}`)
	if err != nil {
		t.Fatalf("Expected parsable output with a huge number to decode, got %v", err)
	}

	r := Normalize(raw, NormalizeInput{Cards: cards("Visa"), Message: "bought a yacht on Visa"})
	if r.Amount != nil {
		t.Errorf("Expected out-of-range amount to normalize to null, got %v", *r.Amount)
	}
	if r.Title != "12" {
		t.Errorf("Expected numeric title 12, got %q", r.Title)
	}
	if !r.IsTransaction || r.Card == nil || *r.Card != "Visa" {
		t.Errorf("Expected transaction on Visa, got %+v", r)
	}
}

func TestExtractJSON_NumbersReachNormalizer(t *testing.T) {
	raw, err := ExtractJSON(`{"isTransaction": true, "type": "expense", "amount": 12.5, "card": "Visa"} `)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	r := Normalize(raw, NormalizeInput{Cards: cards("Visa"), Message: "lunch on visa"})
	if r.Amount == nil || *r.Amount != 12.5 {
		t.Errorf("Expected amount 12.5, got %v", r.Amount)
	}
}
