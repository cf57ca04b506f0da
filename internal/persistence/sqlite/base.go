package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// base carries what every repository shares.
type base struct {
	pool   *ConnectionPool
	mapper *ErrorMapper
	retry  *RetryHelper
	now    func() time.Time
}

func (b base) stamp() time.Time {
	return b.now().UTC().Truncate(time.Second)
}

// exec runs a write with lock retries and returns the affected row count.
func (b base) exec(ctx context.Context, query string, args ...any) (sql.Result, error) {
	var result sql.Result
	err := b.retry.WithRetry(ctx, func() error {
		var err error
		result, err = b.pool.DB().ExecContext(ctx, query, args...)
		return err
	})
	return result, err
}

// execAffecting runs a write and reports whether it touched any row.
func (b base) execAffecting(ctx context.Context, query string, args ...any) (bool, error) {
	result, err := b.exec(ctx, query, args...)
	if err != nil {
		return false, err
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return n > 0, nil
}

// insert runs an INSERT and returns the new row id.
func (b base) insert(ctx context.Context, query string, args ...any) (int64, error) {
	result, err := b.exec(ctx, query, args...)
	if err != nil {
		return 0, err
	}
	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get last insert id: %w", err)
	}
	return id, nil
}

func (b base) queryRow(ctx context.Context, query string, args ...any) *sql.Row {
	return b.pool.DB().QueryRowContext(ctx, query, args...)
}

func (b base) query(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	rows, err := b.pool.DB().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, b.mapper.MapError(err)
	}
	return rows, nil
}

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func formatTime(t time.Time) string {
	return t.UTC().Truncate(time.Second).Format(time.RFC3339)
}

func formatOptionalTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return formatTime(*t)
}

func parseTime(column, value string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to parse %s: %w", column, err)
	}
	return t.UTC(), nil
}

func parseOptionalTime(column string, value sql.NullString) (*time.Time, error) {
	if !value.Valid || value.String == "" {
		return nil, nil
	}
	t, err := parseTime(column, value.String)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// rangeClause appends half-open bounds on column to a WHERE clause.
func rangeClause(column string, from, to *time.Time, args []any) (string, []any) {
	clause := ""
	if from != nil {
		clause += " AND " + column + " >= ?"
		args = append(args, formatTime(*from))
	}
	if to != nil {
		clause += " AND " + column + " < ?"
		args = append(args, formatTime(*to))
	}
	return clause, args
}
