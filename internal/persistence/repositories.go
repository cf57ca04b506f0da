package persistence

import (
	"context"
	"time"
)

// TaskFilter narrows task listings. Zero values disable a criterion. The
// range is half-open: [From, To). Tasks without a due time always match the
// range criteria.
type TaskFilter struct {
	Status TaskStatus
	From   *time.Time
	To     *time.Time
}

// RangeFilter narrows meeting and expense listings to [From, To).
type RangeFilter struct {
	From *time.Time
	To   *time.Time
}

// TaskRepository stores tasks. List order is due time ascending with
// undated tasks last, then creation time descending.
type TaskRepository interface {
	CreateTask(ctx context.Context, task NewTask) (Task, error)
	GetTask(ctx context.Context, id int64) (Task, error)
	// FindTaskByKeyword returns the most recently created open task whose
	// title contains keyword, case-insensitively.
	FindTaskByKeyword(ctx context.Context, keyword string) (Task, error)
	ListTasks(ctx context.Context, filter TaskFilter) ([]Task, error)
	// CompleteTask moves an open task to done. It returns ErrConflict when
	// the task is already done.
	CompleteTask(ctx context.Context, id int64) (Task, error)
	DeleteTask(ctx context.Context, id int64) error
	RescheduleTask(ctx context.Context, id int64, due time.Time) (Task, error)
}

// MeetingRepository stores meetings. Listings are ordered by start time.
type MeetingRepository interface {
	CreateMeeting(ctx context.Context, meeting NewMeeting) (Meeting, error)
	GetMeeting(ctx context.Context, id int64) (Meeting, error)
	ListMeetings(ctx context.Context, filter RangeFilter) ([]Meeting, error)
	// FindDueForReminder returns reminder-enabled pending meetings starting
	// in (now, windowEnd].
	FindDueForReminder(ctx context.Context, now, windowEnd time.Time) ([]Meeting, error)
	// MarkReminded moves a pending meeting to notified and reports whether
	// this call performed the transition.
	MarkReminded(ctx context.Context, id int64) (bool, error)
	// UpdateMeetingStart moves a meeting and re-arms its reminder.
	UpdateMeetingStart(ctx context.Context, id int64, start time.Time) (Meeting, error)
	DeleteMeeting(ctx context.Context, id int64) error
}

// ExpenseRepository stores expenses. Listings are ordered by occurrence time
// descending; breakdowns by total descending.
type ExpenseRepository interface {
	CreateExpense(ctx context.Context, expense NewExpense) (Expense, error)
	ListExpenses(ctx context.Context, filter RangeFilter) ([]Expense, error)
	ExpenseTotal(ctx context.Context, from, to time.Time) (int64, error)
	ExpenseBreakdown(ctx context.Context, from, to time.Time) ([]CategoryTotal, error)
}

// SettingRepository stores key/value settings. The last write wins.
type SettingRepository interface {
	GetSetting(ctx context.Context, key string) (string, bool, error)
	SetSetting(ctx context.Context, key, value string) error
}

// Store groups every repository the assistant uses.
type Store interface {
	TaskRepository
	MeetingRepository
	ExpenseRepository
	SettingRepository
}
