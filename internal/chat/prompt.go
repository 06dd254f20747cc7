package chat

import (
	"fmt"
	"strings"
)

// PromptInput is everything the prompt is built from.
type PromptInput struct {
	Context AccountContext
	Message string
	History []Turn
	Persona Persona
}

// BuildPrompt composes the full instruction sent to the model.
func BuildPrompt(in PromptInput) string {
	var b strings.Builder

	// 1) Persona and topic restriction.
	b.WriteString(in.Persona.description())
	b.WriteString("\n\n")
	b.WriteString("TOPIC RESTRICTION:\n")
	b.WriteString("You ONLY talk about the user's personal finances: spending, income, budgets, savings and their accounts.\n")
	b.WriteString("If the user asks about anything else, do not answer it. Set \"isQuery\" to true and use \"queryResponse\" " +
		"to redirect them back to their money in your own voice.\n\n")

	// 2) Account context.
	b.WriteString(in.Context.AccountsBlock())
	b.WriteString("\n")
	b.WriteString(in.Context.HistoryBlock())
	b.WriteString("\n")
	b.WriteString(in.Context.SummaryBlock())
	b.WriteString("\n")

	// 3) Conversation so far.
	b.WriteString(historyBlock(in.History, in.Persona))
	b.WriteString("\n")

	// 4) Output schema.
	b.WriteString(schemaBlock(in.Context.Cards))
	b.WriteString("\n")

	// 5) Rules.
	b.WriteString(rulesBlock())
	b.WriteString("\n")

	b.WriteString(fmt.Sprintf("User message: %q\n\n", in.Message))
	b.WriteString("Return ONLY the JSON object, no other text.\n")
	b.WriteString("Do NOT wrap the response in code fences.\n")

	return b.String()
}

// RecentHistory keeps the last MaxHistoryTurns turns.
func RecentHistory(history []Turn) []Turn {
	if len(history) > MaxHistoryTurns {
		return history[len(history)-MaxHistoryTurns:]
	}
	return history
}

func historyBlock(history []Turn, p Persona) string {
	var b strings.Builder
	b.WriteString("CONVERSATION HISTORY:\n")
	history = RecentHistory(history)
	if len(history) == 0 {
		b.WriteString("(this is the first message)\n")
		return b.String()
	}
	for _, t := range history {
		speaker := "User"
		if t.Sender != "user" {
			speaker = p.DisplayName()
		}
		b.WriteString(fmt.Sprintf("%s: %s\n", speaker, strings.TrimSpace(t.Text)))
	}
	return b.String()
}

func schemaBlock(cards []Card) string {
	names := cardNames(cards)
	available := "none"
	if len(names) > 0 {
		available = strings.Join(names, ", ")
	}

	return "Return ONLY a valid JSON object with the following structure:\n" +
		"{\n" +
		"  \"isTransaction\": boolean,  // true ONLY if the user is telling you about a NEW expense or income\n" +
		"  \"isQuery\": boolean,  // true for questions, casual chat, off-topic redirects, or a transaction without a card\n" +
		"  \"type\": \"expense\" | \"income\" | null,  // null if not a transaction\n" +
		"  \"title\": string,  // short descriptive title, e.g. \"Coffee\", \"Salary\", \"Groceries\"\n" +
		"  \"amount\": number | null,  // positive number, null if no amount was given\n" +
		"  \"category\": string,  // one of: " + strings.Join(Categories, ", ") + "\n" +
		"  \"card\": string | null,  // ONLY if the user literally named it. Must be one of: " + available + "\n" +
		"  \"queryResponse\": string | null,  // your reply when isQuery is true\n" +
		"  \"transactionResponse\": string | null  // your confirmation when isTransaction is true\n" +
		"}\n"
}

func rulesBlock() string {
	rules := []string{
		"If the message describes spending money or buying something, set type to \"expense\" and isTransaction to true.",
		"If the message describes receiving money (salary, refund, gift, earnings), set type to \"income\" and isTransaction to true.",
		"If the message is a question about their money (balances, totals, habits), set isQuery to true and answer it in queryResponse using the data above.",
		"If the message is casual chat, set isQuery to true and reply briefly in queryResponse, steering back to finances.",
		"Infer the category from context (coffee/lunch = Food, train/bus/uber = Transport, netflix/spotify = Subscription, rent/electricity = Bills, salary = Income). Use \"General\" when unsure.",
		"CARD RULE (critical): set \"card\" ONLY if the user's own words name one of the available cards. " +
			"NEVER guess, NEVER pick a default, and NEVER assume \"Cash\" unless the user literally says cash. If no card is named, set card to null.",
		"If a transaction has an amount but no card was named, still return the transaction fields with card null and ask which card to use in queryResponse.",
		"transactionResponse must be at most 2 sentences, in your persona's voice.",
		"Never invent amounts. If no amount is given, set amount to null.",
	}

	var b strings.Builder
	b.WriteString("RULES:\n")
	for i, r := range rules {
		b.WriteString(fmt.Sprintf("%d. %s\n", i+1, r))
	}
	return b.String()
}

func cardNames(cards []Card) []string {
	names := make([]string, 0, len(cards))
	for _, c := range cards {
		if strings.TrimSpace(c.Name) == "" {
			continue
		}
		names = append(names, c.Name)
	}
	return names
}
