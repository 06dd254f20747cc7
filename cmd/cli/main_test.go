package main

import (
	"testing"

	"github.com/budgemon/budgemon/internal/chat"
)

func TestTruncate(t *testing.T) {
	tests := []struct {
		input string
		n     int
		want  string
	}{
		{"coffee $5", 20, "coffee $5"},
		{"spent $20 using my Cash card", 10, "spent $20…"},
		{"☕☕☕☕", 3, "☕☕…"},
	}

	for _, tt := range tests {
		if got := truncate(tt.input, tt.n); got != tt.want {
			t.Errorf("truncate(%q, %d) = %q, want %q", tt.input, tt.n, got, tt.want)
		}
	}
}

func TestParseCards(t *testing.T) {
	got := parseCards(" Visa, ,Cash ,")
	want := []chat.Card{{Name: "Visa"}, {Name: "Cash"}}

	if len(got) != len(want) {
		t.Fatalf("Expected %d cards, got %d: %+v", len(want), len(got), got)
	}
	for i := range want {
		if got[i].Name != want[i].Name {
			t.Errorf("Card %d: expected %q, got %q", i, want[i].Name, got[i].Name)
		}
	}
	if parseCards("") != nil {
		t.Error("Expected no cards for an empty list")
	}
}
