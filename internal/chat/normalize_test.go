package chat

import (
	"strings"
	"testing"
)

func cards(names ...string) []Card {
	out := make([]Card, 0, len(names))
	for _, n := range names {
		out = append(out, Card{Name: n, Balance: NewNumber(100)})
	}
	return out
}

func TestValidateCategory(t *testing.T) {
	tests := []struct {
		input interface{}
		want  string
	}{
		{"Food", "Food"},
		{"Subscription", "Subscription"},
		{"food", DefaultCategory},
		{"Groceries", DefaultCategory},
		{"", DefaultCategory},
		{nil, DefaultCategory},
		{42.0, DefaultCategory},
	}

	for _, tt := range tests {
		if got := ValidateCategory(tt.input); got != tt.want {
			t.Errorf("ValidateCategory(%v) = %s, want %s", tt.input, got, tt.want)
		}
	}
}

func TestResolveCard(t *testing.T) {
	userCards := cards("Visa", "Cash", "Savings Account")

	tests := []struct {
		name    string
		claimed string
		message string
		want    string
		wantOK  bool
	}{
		{name: "exact", claimed: "Visa", message: "coffee on visa", want: "Visa", wantOK: true},
		{name: "case-insensitive returns canonical", claimed: "savings account", message: "moved $50", want: "Savings Account", wantOK: true},
		{name: "trimmed", claimed: "  Visa ", message: "x", want: "Visa", wantOK: true},
		{name: "unknown card", claimed: "Amex", message: "paid with amex"},
		{name: "empty claim", claimed: "", message: "coffee"},
		{name: "cash mentioned", claimed: "Cash", message: "Paid $12 with CASH", want: "Cash", wantOK: true},
		{name: "cash not mentioned", claimed: "Cash", message: "coffee $5"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ResolveCard(tt.claimed, userCards, tt.message)
			if ok != tt.wantOK || got != tt.want {
				t.Errorf("ResolveCard(%q) = (%q, %v), want (%q, %v)", tt.claimed, got, ok, tt.want, tt.wantOK)
			}
		})
	}
}

func TestNormalize_Transaction(t *testing.T) {
	raw := map[string]interface{}{
		"isTransaction":       true,
		"isQuery":             false,
		"type":                "expense",
		"title":               "Coffee",
		"amount":              "5.50",
		"category":            "Food",
		"card":                "visa",
		"queryResponse":       nil,
		"transactionResponse": "Got it! ☕",
	}

	r := Normalize(raw, NormalizeInput{Cards: cards("Visa"), Message: "coffee 5.50 on visa"})

	if !r.IsTransaction || r.IsQuery {
		t.Fatalf("Expected transaction, got %+v", r)
	}
	if r.Type == nil || *r.Type != TypeExpense {
		t.Errorf("Expected expense type, got %v", r.Type)
	}
	if r.Amount == nil || *r.Amount != 5.5 {
		t.Errorf("Expected amount 5.5, got %v", r.Amount)
	}
	if r.Card == nil || *r.Card != "Visa" {
		t.Errorf("Expected card Visa, got %v", r.Card)
	}
	if r.TransactionResponse == nil || *r.TransactionResponse != "Got it! ☕" {
		t.Errorf("Expected transaction response, got %v", r.TransactionResponse)
	}
}

func TestNormalize_Defaults(t *testing.T) {
	r := Normalize(map[string]interface{}{}, NormalizeInput{})

	if r.IsTransaction || r.IsQuery {
		t.Errorf("Expected both flags false, got %+v", r)
	}
	if r.Title != DefaultTitle {
		t.Errorf("Expected default title, got %q", r.Title)
	}
	if r.Category != DefaultCategory {
		t.Errorf("Expected default category, got %q", r.Category)
	}
	if r.Type != nil || r.Amount != nil || r.Card != nil || r.QueryResponse != nil || r.TransactionResponse != nil {
		t.Errorf("Expected nil optional fields, got %+v", r)
	}
}

func TestNormalize_FieldCoercion(t *testing.T) {
	tests := []struct {
		name  string
		raw   map[string]interface{}
		check func(t *testing.T, r Result)
	}{
		{
			name: "string flags",
			raw:  map[string]interface{}{"isQuery": "true", "isTransaction": "yes"},
			check: func(t *testing.T, r Result) {
				if !r.IsQuery || r.IsTransaction {
					t.Errorf("Expected only the literal \"true\" to count, got %+v", r)
				}
			},
		},
		{
			name: "unknown type",
			raw:  map[string]interface{}{"isTransaction": true, "type": "transfer", "amount": 3.0, "card": "Visa"},
			check: func(t *testing.T, r Result) {
				if r.Type != nil {
					t.Errorf("Expected nil type, got %v", *r.Type)
				}
			},
		},
		{
			name: "numeric title",
			raw:  map[string]interface{}{"title": 7.0},
			check: func(t *testing.T, r Result) {
				if r.Title != "7" {
					t.Errorf("Expected title 7, got %q", r.Title)
				}
			},
		},
		{
			name: "empty responses become null",
			raw:  map[string]interface{}{"isQuery": true, "queryResponse": "", "transactionResponse": ""},
			check: func(t *testing.T, r Result) {
				if r.QueryResponse != nil || r.TransactionResponse != nil {
					t.Errorf("Expected nil responses, got %+v", r)
				}
			},
		},
		{
			name: "amount with currency suffix",
			raw:  map[string]interface{}{"amount": "12abc"},
			check: func(t *testing.T, r Result) {
				if r.Amount == nil || *r.Amount != 12 {
					t.Errorf("Expected 12, got %v", r.Amount)
				}
			},
		},
		{
			name: "non-numeric amount",
			raw:  map[string]interface{}{"amount": "abc"},
			check: func(t *testing.T, r Result) {
				if r.Amount != nil {
					t.Errorf("Expected nil amount, got %v", *r.Amount)
				}
			},
		},
		{
			name: "zero amount kept",
			raw:  map[string]interface{}{"amount": 0.0},
			check: func(t *testing.T, r Result) {
				if r.Amount == nil || *r.Amount != 0 {
					t.Errorf("Expected amount 0, got %v", r.Amount)
				}
			},
		},
		{
			name: "card of wrong type",
			raw:  map[string]interface{}{"card": 12.0},
			check: func(t *testing.T, r Result) {
				if r.Card != nil {
					t.Errorf("Expected nil card, got %v", *r.Card)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.check(t, Normalize(tt.raw, NormalizeInput{Cards: cards("Visa"), Message: "test"}))
		})
	}
}

func TestNormalize_DowngradeWithoutCard(t *testing.T) {
	raw := map[string]interface{}{
		"isTransaction":       true,
		"type":                "expense",
		"title":               "Coffee",
		"amount":              5.0,
		"category":            "Food",
		"card":                nil,
		"transactionResponse": "Logged!",
	}

	for _, p := range []Persona{PersonaLumi, PersonaLuna} {
		t.Run(string(p), func(t *testing.T) {
			r := Normalize(raw, NormalizeInput{Cards: cards("Visa", "Mastercard"), Message: "coffee $5", Persona: p})

			if r.IsTransaction || !r.IsQuery {
				t.Fatalf("Expected downgrade to query, got %+v", r)
			}
			if r.Type != nil {
				t.Errorf("Expected nil type after downgrade, got %v", *r.Type)
			}
			if r.TransactionResponse != nil {
				t.Errorf("Expected transaction response cleared, got %q", *r.TransactionResponse)
			}
			if r.QueryResponse == nil || !strings.Contains(*r.QueryResponse, "Visa, Mastercard") {
				t.Errorf("Expected clarification listing cards, got %v", r.QueryResponse)
			}
			if r.Amount == nil || *r.Amount != 5 || r.Title != "Coffee" || r.Category != "Food" {
				t.Errorf("Expected transaction fields kept for the follow-up, got %+v", r)
			}
		})
	}
}

func TestNormalize_DowngradeKeepsModelQuestion(t *testing.T) {
	raw := map[string]interface{}{
		"isTransaction": true,
		"amount":        20.0,
		"card":          "Amex",
		"queryResponse": "Which card did you use for that?",
	}

	r := Normalize(raw, NormalizeInput{Cards: cards("Visa"), Message: "dinner $20"})

	if r.QueryResponse == nil || *r.QueryResponse != "Which card did you use for that?" {
		t.Errorf("Expected model question kept, got %v", r.QueryResponse)
	}
}

func TestNormalize_DowngradeNoCards(t *testing.T) {
	raw := map[string]interface{}{"isTransaction": true, "amount": 20.0}

	r := Normalize(raw, NormalizeInput{Message: "dinner $20"})

	if r.QueryResponse == nil || !strings.Contains(*r.QueryResponse, "don't have any cards") {
		t.Errorf("Expected no-cards clarification, got %v", r.QueryResponse)
	}
}

func TestNormalize_NoAmountIsNotDowngraded(t *testing.T) {
	raw := map[string]interface{}{"isTransaction": true, "type": "income", "title": "Salary"}

	r := Normalize(raw, NormalizeInput{Cards: cards("Visa"), Message: "got paid"})

	if !r.IsTransaction || r.IsQuery {
		t.Errorf("Expected transaction without amount to stay a transaction, got %+v", r)
	}
	if r.Type == nil || *r.Type != TypeIncome {
		t.Errorf("Expected income type, got %v", r.Type)
	}
}

func TestNormalize_TypeOnlyForTransactions(t *testing.T) {
	raw := map[string]interface{}{"isQuery": true, "type": "expense"}

	r := Normalize(raw, NormalizeInput{})

	if r.Type != nil {
		t.Errorf("Expected type nil when not a transaction, got %v", *r.Type)
	}
}

func TestMentionsCash(t *testing.T) {
	tests := []struct {
		message string
		want    bool
	}{
		{"paid with cash", true},
		{"Using CASH today", true},
		{"cashback from store", true},
		{"coffee $5", false},
		{"", false},
	}

	for _, tt := range tests {
		if got := MentionsCash(tt.message); got != tt.want {
			t.Errorf("MentionsCash(%q) = %v, want %v", tt.message, got, tt.want)
		}
	}
}
