package chat

import (
	"fmt"
	"math"
	"sort"
	"strings"
)

// MaxContextTransactions caps how much history is summarized for the model.
const MaxContextTransactions = 50

// CategoryTotal is the expense sum for one category.
type CategoryTotal struct {
	Category string
	Total    float64
}

// AccountContext is the textual summary of the user's money handed to the
// prompt, together with the figures it was built from.
type AccountContext struct {
	Cards        []Card
	TotalBalance float64

	Transactions       []Transaction // the window actually summarized
	TotalExpenses      float64
	TotalIncome        float64
	ExpensesByCategory []CategoryTotal
}

// AssembleContext summarizes accounts and the most recent transactions.
// Transactions are expected newest first; only the first
// MaxContextTransactions are used.
func AssembleContext(cards []Card, txs []Transaction) AccountContext {
	ac := AccountContext{Cards: cards}

	for _, c := range cards {
		ac.TotalBalance += c.Balance.Float()
	}

	if len(txs) > MaxContextTransactions {
		txs = txs[:MaxContextTransactions]
	}
	ac.Transactions = txs

	byCategory := make(map[string]float64)
	for _, tx := range txs {
		amount := tx.Amount.Float()
		if amount < 0 {
			ac.TotalExpenses += math.Abs(amount)
			byCategory[categoryLabel(tx.Category)] += math.Abs(amount)
		} else {
			ac.TotalIncome += amount
		}
	}

	names := make([]string, 0, len(byCategory))
	for name := range byCategory {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		ac.ExpensesByCategory = append(ac.ExpensesByCategory, CategoryTotal{Category: name, Total: byCategory[name]})
	}

	return ac
}

// AccountsBlock renders one line per account and the running total.
func (ac AccountContext) AccountsBlock() string {
	var b strings.Builder
	b.WriteString("ACCOUNTS:\n")
	if len(ac.Cards) == 0 {
		b.WriteString("No accounts yet.\n")
		return b.String()
	}
	for _, c := range ac.Cards {
		b.WriteString(fmt.Sprintf("- %s: %s\n", c.Name, money(c.Balance.Float())))
	}
	b.WriteString(fmt.Sprintf("Total balance: %s\n", money(ac.TotalBalance)))
	return b.String()
}

// HistoryBlock renders one line per transaction with absolute amounts.
func (ac AccountContext) HistoryBlock() string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("RECENT TRANSACTIONS (%d):\n", len(ac.Transactions)))
	if len(ac.Transactions) == 0 {
		b.WriteString("No transactions yet.\n")
		return b.String()
	}
	for _, tx := range ac.Transactions {
		amount := tx.Amount.Float()
		kind := TypeIncome
		if amount < 0 {
			kind = TypeExpense
		}
		b.WriteString(fmt.Sprintf("- %s: %s %s (%s) [%s]\n",
			tx.Date, tx.Title, money(math.Abs(amount)), kind, categoryLabel(tx.Category)))
	}
	return b.String()
}

// SummaryBlock renders the aggregate figures over the same window.
func (ac AccountContext) SummaryBlock() string {
	var b strings.Builder
	b.WriteString("SUMMARY (same window):\n")
	b.WriteString(fmt.Sprintf("Total expenses: %s\n", money(ac.TotalExpenses)))
	b.WriteString(fmt.Sprintf("Total income: %s\n", money(ac.TotalIncome)))
	b.WriteString("Expenses by category:\n")
	if len(ac.ExpensesByCategory) == 0 {
		b.WriteString("- none\n")
	}
	for _, ct := range ac.ExpensesByCategory {
		b.WriteString(fmt.Sprintf("- %s: %s\n", ct.Category, money(ct.Total)))
	}
	return b.String()
}

// String joins all blocks.
func (ac AccountContext) String() string {
	return ac.AccountsBlock() + "\n" + ac.HistoryBlock() + "\n" + ac.SummaryBlock()
}

func categoryLabel(c string) string {
	if strings.TrimSpace(c) == "" {
		return DefaultCategory
	}
	return c
}

func money(v float64) string {
	if v < 0 {
		return fmt.Sprintf("-$%.2f", math.Abs(v))
	}
	return fmt.Sprintf("$%.2f", v)
}
