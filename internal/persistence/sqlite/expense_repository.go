package sqlite

import (
	"context"
	"strings"
	"time"

	"github.com/example/pocket-assistant/internal/persistence"
)

// ExpenseRepository implements persistence.ExpenseRepository using SQLite
type ExpenseRepository struct {
	base
}

const expenseColumns = `id, amount_cents, currency, category, note, occurred_at, created_at`

// CreateExpense records an expense. A zero OccurredAt means now.
func (r *ExpenseRepository) CreateExpense(ctx context.Context, in persistence.NewExpense) (persistence.Expense, error) {
	if in.AmountCents <= 0 || strings.TrimSpace(in.Category) == "" {
		return persistence.Expense{}, persistence.ErrConstraintViolation
	}

	now := r.stamp()
	occurred := in.OccurredAt
	if occurred.IsZero() {
		occurred = now
	}

	id, err := r.insert(ctx, `
		INSERT INTO expenses (amount_cents, currency, category, note, occurred_at, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`,
		in.AmountCents,
		persistence.DefaultCurrency,
		in.Category,
		in.Note,
		formatTime(occurred),
		formatTime(now),
	)
	if err != nil {
		return persistence.Expense{}, err
	}

	row := r.queryRow(ctx, `SELECT `+expenseColumns+` FROM expenses WHERE id = ?`, id)
	expense, err := scanExpense(row)
	if err != nil {
		return persistence.Expense{}, r.mapper.MapError(err)
	}
	return expense, nil
}

// ListExpenses returns expenses in [From, To), newest first
func (r *ExpenseRepository) ListExpenses(ctx context.Context, filter persistence.RangeFilter) ([]persistence.Expense, error) {
	clause, args := rangeClause("occurred_at", filter.From, filter.To, nil)
	rows, err := r.query(ctx, `
		SELECT `+expenseColumns+` FROM expenses
		WHERE 1=1`+clause+`
		ORDER BY occurred_at DESC, id DESC
	`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var expenses []persistence.Expense
	for rows.Next() {
		expense, err := scanExpense(rows)
		if err != nil {
			return nil, r.mapper.MapError(err)
		}
		expenses = append(expenses, expense)
	}
	if err := rows.Err(); err != nil {
		return nil, r.mapper.MapError(err)
	}

	return expenses, nil
}

// ExpenseTotal sums expenses in [from, to)
func (r *ExpenseRepository) ExpenseTotal(ctx context.Context, from, to time.Time) (int64, error) {
	var total int64
	err := r.queryRow(ctx, `
		SELECT COALESCE(SUM(amount_cents), 0) FROM expenses
		WHERE occurred_at >= ? AND occurred_at < ?
	`, formatTime(from), formatTime(to)).Scan(&total)
	if err != nil {
		return 0, r.mapper.MapError(err)
	}
	return total, nil
}

// ExpenseBreakdown totals expenses in [from, to) per category, largest first
func (r *ExpenseRepository) ExpenseBreakdown(ctx context.Context, from, to time.Time) ([]persistence.CategoryTotal, error) {
	rows, err := r.query(ctx, `
		SELECT category, SUM(amount_cents) AS total
		FROM expenses
		WHERE occurred_at >= ? AND occurred_at < ?
		GROUP BY category
		ORDER BY total DESC, category ASC
	`, formatTime(from), formatTime(to))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var breakdown []persistence.CategoryTotal
	for rows.Next() {
		var ct persistence.CategoryTotal
		if err := rows.Scan(&ct.Category, &ct.TotalCents); err != nil {
			return nil, r.mapper.MapError(err)
		}
		breakdown = append(breakdown, ct)
	}
	if err := rows.Err(); err != nil {
		return nil, r.mapper.MapError(err)
	}

	return breakdown, nil
}

func scanExpense(row rowScanner) (persistence.Expense, error) {
	var (
		expense                   persistence.Expense
		occurredStr, createdAtStr string
	)

	if err := row.Scan(
		&expense.ID,
		&expense.AmountCents,
		&expense.Currency,
		&expense.Category,
		&expense.Note,
		&occurredStr,
		&createdAtStr,
	); err != nil {
		return persistence.Expense{}, err
	}

	var err error
	if expense.OccurredAt, err = parseTime("occurred_at", occurredStr); err != nil {
		return persistence.Expense{}, err
	}
	if expense.CreatedAt, err = parseTime("created_at", createdAtStr); err != nil {
		return persistence.Expense{}, err
	}

	return expense, nil
}
