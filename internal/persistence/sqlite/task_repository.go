package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/example/pocket-assistant/internal/persistence"
)

// TaskRepository implements persistence.TaskRepository using SQLite
type TaskRepository struct {
	base
}

const taskColumns = `id, title, due_at, tag, status, created_at, updated_at`

// CreateTask inserts a new open task
func (r *TaskRepository) CreateTask(ctx context.Context, in persistence.NewTask) (persistence.Task, error) {
	if strings.TrimSpace(in.Title) == "" {
		return persistence.Task{}, persistence.ErrConstraintViolation
	}

	now := r.stamp()
	id, err := r.insert(ctx, `
		INSERT INTO tasks (title, due_at, tag, status, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`,
		in.Title,
		formatOptionalTime(in.Due),
		in.Tag,
		string(persistence.TaskOpen),
		formatTime(now),
		formatTime(now),
	)
	if err != nil {
		return persistence.Task{}, err
	}

	return r.GetTask(ctx, id)
}

// GetTask retrieves a task by ID
func (r *TaskRepository) GetTask(ctx context.Context, id int64) (persistence.Task, error) {
	row := r.queryRow(ctx, `SELECT `+taskColumns+` FROM tasks WHERE id = ?`, id)
	task, err := scanTask(row)
	if err != nil {
		return persistence.Task{}, r.mapper.MapError(err)
	}
	return task, nil
}

// FindTaskByKeyword returns the most recently created open task whose title
// contains keyword. Matching happens in Go because SQLite's LOWER only folds
// ASCII.
func (r *TaskRepository) FindTaskByKeyword(ctx context.Context, keyword string) (persistence.Task, error) {
	rows, err := r.query(ctx, `
		SELECT `+taskColumns+`
		FROM tasks
		WHERE status = ?
		ORDER BY created_at DESC, id DESC
	`, string(persistence.TaskOpen))
	if err != nil {
		return persistence.Task{}, err
	}
	defer rows.Close()

	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return persistence.Task{}, r.mapper.MapError(err)
		}
		if persistence.TitleContains(task.Title, keyword) {
			return task, nil
		}
	}
	if err := rows.Err(); err != nil {
		return persistence.Task{}, r.mapper.MapError(err)
	}

	return persistence.Task{}, persistence.ErrNotFound
}

// ListTasks returns tasks matching filter. Undated tasks ignore the range.
func (r *TaskRepository) ListTasks(ctx context.Context, filter persistence.TaskFilter) ([]persistence.Task, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks WHERE 1=1`
	var args []any

	if filter.Status != "" {
		query += ` AND status = ?`
		args = append(args, string(filter.Status))
	}
	if filter.From != nil {
		query += ` AND (due_at IS NULL OR due_at >= ?)`
		args = append(args, formatTime(*filter.From))
	}
	if filter.To != nil {
		query += ` AND (due_at IS NULL OR due_at < ?)`
		args = append(args, formatTime(*filter.To))
	}
	query += ` ORDER BY due_at IS NULL, due_at ASC, created_at DESC, id DESC`

	rows, err := r.query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tasks []persistence.Task
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, r.mapper.MapError(err)
		}
		tasks = append(tasks, task)
	}
	if err := rows.Err(); err != nil {
		return nil, r.mapper.MapError(err)
	}

	return tasks, nil
}

// CompleteTask moves an open task to done. The status check and the update
// share one transaction.
func (r *TaskRepository) CompleteTask(ctx context.Context, id int64) (persistence.Task, error) {
	txErr := r.retry.WithRetry(ctx, func() error {
		return r.pool.WithTransaction(ctx, func(tx *sql.Tx) error {
			var status string
			if err := tx.QueryRowContext(ctx, `SELECT status FROM tasks WHERE id = ?`, id).Scan(&status); err != nil {
				return r.mapper.MapError(err)
			}
			next, err := persistence.TaskStatus(status).Complete()
			if err != nil {
				return err
			}
			_, err = tx.ExecContext(ctx, `
				UPDATE tasks SET status = ?, updated_at = ? WHERE id = ?
			`, string(next), formatTime(r.stamp()), id)
			return r.mapper.MapError(err)
		})
	})
	if txErr != nil && !errors.Is(txErr, persistence.ErrConflict) {
		return persistence.Task{}, txErr
	}

	task, err := r.GetTask(ctx, id)
	if err != nil {
		return persistence.Task{}, err
	}
	return task, txErr
}

// DeleteTask removes a task by ID
func (r *TaskRepository) DeleteTask(ctx context.Context, id int64) error {
	changed, err := r.execAffecting(ctx, `DELETE FROM tasks WHERE id = ?`, id)
	if err != nil {
		return err
	}
	if !changed {
		return persistence.ErrNotFound
	}
	return nil
}

// RescheduleTask replaces the due time of a task
func (r *TaskRepository) RescheduleTask(ctx context.Context, id int64, due time.Time) (persistence.Task, error) {
	changed, err := r.execAffecting(ctx, `
		UPDATE tasks SET due_at = ?, updated_at = ? WHERE id = ?
	`, formatTime(due), formatTime(r.stamp()), id)
	if err != nil {
		return persistence.Task{}, err
	}
	if !changed {
		return persistence.Task{}, persistence.ErrNotFound
	}
	return r.GetTask(ctx, id)
}

func scanTask(row rowScanner) (persistence.Task, error) {
	var (
		task                       persistence.Task
		due                        sql.NullString
		status                     string
		createdAtStr, updatedAtStr string
	)

	if err := row.Scan(&task.ID, &task.Title, &due, &task.Tag, &status, &createdAtStr, &updatedAtStr); err != nil {
		return persistence.Task{}, err
	}

	task.Status = persistence.TaskStatus(status)
	if !task.Status.Valid() {
		return persistence.Task{}, errors.New("sqlite: unknown task status " + status)
	}

	var err error
	if task.Due, err = parseOptionalTime("due_at", due); err != nil {
		return persistence.Task{}, err
	}
	if task.CreatedAt, err = parseTime("created_at", createdAtStr); err != nil {
		return persistence.Task{}, err
	}
	if task.UpdatedAt, err = parseTime("updated_at", updatedAtStr); err != nil {
		return persistence.Task{}, err
	}

	return task, nil
}
