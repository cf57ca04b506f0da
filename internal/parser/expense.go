package parser

import (
	"strings"

	"github.com/example/pocket-assistant/internal/extract"
	"github.com/example/pocket-assistant/internal/persistence"
)

// Expense is a parsed add-expense command.
type Expense struct {
	AmountCents int64
	Category    string
	Note        string
}

// NewExpense converts the payload into its repository form. The occurrence
// time is left for the store to fill in.
func (e Expense) NewExpense() persistence.NewExpense {
	return persistence.NewExpense{AmountCents: e.AmountCents, Category: e.Category, Note: e.Note}
}

// ParseExpense reads "<amount> <category> [note]". The category is the
// second word as written.
func ParseExpense(text string) (Expense, error) {
	fields := strings.Fields(text)
	if len(fields) < 2 {
		return Expense{}, ErrMissingArgument
	}

	cents, ok := extract.Amount(fields[0])
	if !ok {
		return Expense{}, ErrInvalidAmount
	}

	return Expense{
		AmountCents: cents,
		Category:    fields[1],
		Note:        strings.Join(fields[2:], " "),
	}, nil
}
