package chat

// Fixed values shared by the prompt and the normalizer.
const (
	// DefaultTitle is used when the model gives no usable title.
	DefaultTitle = "New Transaction"

	// DefaultCategory is used for missing or unknown categories.
	DefaultCategory = "General"

	// CashCardName is the card name that needs an explicit mention.
	CashCardName = "Cash"

	// MaxHistoryTurns is how many previous chat messages reach the prompt.
	MaxHistoryTurns = 10
)

// Categories is the closed set of transaction categories.
var Categories = []string{
	"Food",
	"Shopping",
	"Transport",
	"Bills",
	"Entertainment",
	"Savings",
	"Subscription",
	"Income",
	"Other",
	"General",
}

// cashPhrases must appear in the user's own text before a "Cash" card
// claim is accepted.
var cashPhrases = []string{
	"cash",
	"cash card",
	"using cash",
	"with cash",
	"on cash",
}
