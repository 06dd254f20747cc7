package chat

import (
	"math"
	"time"
)

// TransactionType is the direction of a detected transaction.
type TransactionType string

const (
	TypeExpense TransactionType = "expense"
	TypeIncome  TransactionType = "income"
)

// Card is one of the user's accounts as sent by the client.
type Card struct {
	ID      string `json:"id,omitempty"`
	Name    string `json:"name"`
	Balance Number `json:"balance"`
}

// Transaction is one entry of the user's recent history.
// Amount's sign encodes direction: negative is an expense.
type Transaction struct {
	Date     string `json:"date"`
	Title    string `json:"title"`
	Amount   Number `json:"amount"`
	Category string `json:"category"`
}

// Turn is one message of the conversation shown in the chat box.
type Turn struct {
	Sender string `json:"sender"` // "user" or "bot"
	Text   string `json:"text"`
}

// Request is everything the client sends for one chat message.
type Request struct {
	RequestID           string        `json:"-"`
	Message             string        `json:"message"`
	Cards               []Card        `json:"cards"`
	Transactions        []Transaction `json:"transactions"`
	ConversationHistory []Turn        `json:"conversationHistory"`
	PetType             string        `json:"petType"`
}

// Result is the normalized interpretation of one message.
type Result struct {
	IsTransaction       bool             `json:"isTransaction"`
	IsQuery             bool             `json:"isQuery"`
	Type                *TransactionType `json:"type"`
	Title               string           `json:"title"`
	Amount              *float64         `json:"amount"`
	Category            string           `json:"category"`
	Card                *string          `json:"card"`
	QueryResponse       *string          `json:"queryResponse"`
	TransactionResponse *string          `json:"transactionResponse"`
}

// SignedAmount returns the amount with the sign implied by the type:
// income is positive, expense negative. ok is false when the result
// carries no postable amount.
func (r Result) SignedAmount() (amount float64, ok bool) {
	if r.Amount == nil || r.Type == nil {
		return 0, false
	}
	magnitude := math.Abs(*r.Amount)
	if *r.Type == TypeIncome {
		return magnitude, true
	}
	return -magnitude, true
}

// Interpretation bundles a result with what produced it.
type Interpretation struct {
	RequestID  string
	Provider   string
	Persona    Persona
	Message    string
	Prompt     string
	Completion string
	Result     Result
	Latency    time.Duration
}

// Outcome names the kind of result for logs and metrics.
func (i *Interpretation) Outcome() string {
	switch {
	case i.Result.IsTransaction:
		return "transaction"
	case i.Result.IsQuery:
		return "query"
	default:
		return "chat"
	}
}
