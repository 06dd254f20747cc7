package chat

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// NormalizeInput is the caller-side context the normalizer checks model
// claims against.
type NormalizeInput struct {
	Cards   []Card
	Message string
	Persona Persona
}

// Normalize turns the untyped model object into a Result. It never fails:
// every missing or mistyped field has a default.
func Normalize(raw map[string]interface{}, in NormalizeInput) Result {
	r := Result{
		IsTransaction: truthyFlag(raw["isTransaction"]),
		IsQuery:       truthyFlag(raw["isQuery"]),
		Type:          transactionType(raw["type"]),
		Title:         title(raw["title"]),
		Category:      ValidateCategory(raw["category"]),
		QueryResponse: optionalText(raw["queryResponse"]),

		TransactionResponse: optionalText(raw["transactionResponse"]),
	}

	if f, ok := ParseAmount(raw["amount"]); ok {
		r.Amount = &f
	}

	if claimed, ok := raw["card"].(string); ok {
		if name, ok := ResolveCard(claimed, in.Cards, in.Message); ok {
			r.Card = &name
		}
	}

	// A transaction cannot be posted against an unknown account: ask instead.
	if r.IsTransaction && r.Amount != nil && r.Card == nil {
		r.IsTransaction = false
		r.IsQuery = true
		r.TransactionResponse = nil
		if r.QueryResponse == nil {
			q := cardClarification(in.Cards, in.Persona)
			r.QueryResponse = &q
		}
	}

	if !r.IsTransaction {
		r.Type = nil
	}

	return r
}

// ValidateCategory returns the category if it is in the fixed set,
// otherwise DefaultCategory.
func ValidateCategory(v interface{}) string {
	s, ok := v.(string)
	if !ok {
		return DefaultCategory
	}
	for _, c := range Categories {
		if c == s {
			return c
		}
	}
	return DefaultCategory
}

// ResolveCard matches a claimed card name against the user's cards,
// ignoring case, and returns the canonical name. A "Cash" match is only
// accepted when the message itself talks about cash.
func ResolveCard(claimed string, cards []Card, message string) (string, bool) {
	claimed = strings.TrimSpace(claimed)
	if claimed == "" {
		return "", false
	}
	for _, c := range cards {
		if !strings.EqualFold(c.Name, claimed) {
			continue
		}
		if strings.EqualFold(c.Name, CashCardName) && !MentionsCash(message) {
			return "", false
		}
		return c.Name, true
	}
	return "", false
}

// MentionsCash reports whether the message contains a cash phrase.
func MentionsCash(message string) bool {
	lower := strings.ToLower(message)
	for _, phrase := range cashPhrases {
		if strings.Contains(lower, phrase) {
			return true
		}
	}
	return false
}

func truthyFlag(v interface{}) bool {
	switch val := v.(type) {
	case bool:
		return val
	case string:
		return val == "true"
	default:
		return false
	}
}

func transactionType(v interface{}) *TransactionType {
	s, ok := v.(string)
	if !ok {
		return nil
	}
	switch t := TransactionType(s); t {
	case TypeExpense, TypeIncome:
		return &t
	default:
		return nil
	}
}

func title(v interface{}) string {
	switch val := v.(type) {
	case string:
		if val != "" {
			return val
		}
	case float64:
		if val != 0 {
			return strconv.FormatFloat(val, 'f', -1, 64)
		}
	case json.Number:
		if f, err := val.Float64(); err == nil && f != 0 {
			return strconv.FormatFloat(f, 'f', -1, 64)
		}
	case bool:
		if val {
			return "true"
		}
	}
	return DefaultTitle
}

func optionalText(v interface{}) *string {
	s, ok := v.(string)
	if !ok || s == "" {
		return nil
	}
	return &s
}

func cardClarification(cards []Card, p Persona) string {
	names := cardNames(cards)
	if len(names) == 0 {
		if p == PersonaLuna {
			return "You don't even have a card set up. Add one first, then we'll talk. 💅"
		}
		return "I'd love to record that, but you don't have any cards yet! Add a card first and I'll log it for you. 😊"
	}

	list := strings.Join(names, ", ")
	if p == PersonaLuna {
		return fmt.Sprintf("Which card? Pick one: %s. 💅", list)
	}
	return fmt.Sprintf("I'd be happy to record that! Which card did you use? Your cards are: %s. 😊", list)
}
