package testfixtures

import (
	"context"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/example/pocket-assistant/internal/persistence"
)

var (
	taskCounter    uint64
	meetingCounter uint64
	expenseCounter uint64
)

// ----------------------------- Task fixtures -----------------------------

// TaskOption configures a generated task.
type TaskOption func(*persistence.NewTask)

// WithTaskTitle overrides the task title.
func WithTaskTitle(title string) TaskOption {
	return func(t *persistence.NewTask) {
		t.Title = title
	}
}

// WithTaskDue sets the due instant.
func WithTaskDue(due time.Time) TaskOption {
	return func(t *persistence.NewTask) {
		t.Due = &due
	}
}

// WithTaskTag sets the tag.
func WithTaskTag(tag string) TaskOption {
	return func(t *persistence.NewTask) {
		t.Tag = tag
	}
}

// NewTaskFixture returns a deterministic task payload.
func NewTaskFixture(opts ...TaskOption) persistence.NewTask {
	idx := atomic.AddUint64(&taskCounter, 1)
	task := persistence.NewTask{Title: fmt.Sprintf("Tarefa %03d", idx)}
	for _, opt := range opts {
		opt(&task)
	}
	return task
}

// SeedTask stores a task built from opts and fails the test on error.
func SeedTask(tb testing.TB, repo persistence.TaskRepository, opts ...TaskOption) persistence.Task {
	tb.Helper()

	task, err := repo.CreateTask(context.Background(), NewTaskFixture(opts...))
	if err != nil {
		tb.Fatalf("failed to seed task: %v", err)
	}
	return task
}

// ---------------------------- Meeting fixtures ----------------------------

// MeetingOption configures a generated meeting.
type MeetingOption func(*persistence.NewMeeting)

// WithMeetingTitle overrides the meeting title.
func WithMeetingTitle(title string) MeetingOption {
	return func(m *persistence.NewMeeting) {
		m.Title = title
	}
}

// WithMeetingStart sets the start instant.
func WithMeetingStart(start time.Time) MeetingOption {
	return func(m *persistence.NewMeeting) {
		m.Start = start
	}
}

// WithMeetingLocation sets the location.
func WithMeetingLocation(location string) MeetingOption {
	return func(m *persistence.NewMeeting) {
		m.Location = location
	}
}

// WithMeetingAttendees sets the attendee list.
func WithMeetingAttendees(attendees ...string) MeetingOption {
	return func(m *persistence.NewMeeting) {
		m.Attendees = attendees
	}
}

// WithoutReminder disables the pre-start reminder.
func WithoutReminder() MeetingOption {
	return func(m *persistence.NewMeeting) {
		m.RemindEnabled = false
	}
}

// NewMeetingFixture returns a deterministic meeting payload starting one hour
// after ReferenceTime with its reminder enabled.
func NewMeetingFixture(opts ...MeetingOption) persistence.NewMeeting {
	idx := atomic.AddUint64(&meetingCounter, 1)
	meeting := persistence.NewMeeting{
		Title:         fmt.Sprintf("Reunião %03d", idx),
		Start:         ReferenceTime().Add(time.Hour),
		RemindEnabled: true,
	}
	for _, opt := range opts {
		opt(&meeting)
	}
	return meeting
}

// SeedMeeting stores a meeting built from opts and fails the test on error.
func SeedMeeting(tb testing.TB, repo persistence.MeetingRepository, opts ...MeetingOption) persistence.Meeting {
	tb.Helper()

	meeting, err := repo.CreateMeeting(context.Background(), NewMeetingFixture(opts...))
	if err != nil {
		tb.Fatalf("failed to seed meeting: %v", err)
	}
	return meeting
}

// ---------------------------- Expense fixtures ----------------------------

// ExpenseOption configures a generated expense.
type ExpenseOption func(*persistence.NewExpense)

// WithExpenseAmount sets the amount in cents.
func WithExpenseAmount(cents int64) ExpenseOption {
	return func(e *persistence.NewExpense) {
		e.AmountCents = cents
	}
}

// WithExpenseCategory sets the category.
func WithExpenseCategory(category string) ExpenseOption {
	return func(e *persistence.NewExpense) {
		e.Category = category
	}
}

// WithExpenseNote sets the note.
func WithExpenseNote(note string) ExpenseOption {
	return func(e *persistence.NewExpense) {
		e.Note = note
	}
}

// WithExpenseAt sets the occurrence instant.
func WithExpenseAt(at time.Time) ExpenseOption {
	return func(e *persistence.NewExpense) {
		e.OccurredAt = at
	}
}

// NewExpenseFixture returns a deterministic expense payload occurring at
// ReferenceTime.
func NewExpenseFixture(opts ...ExpenseOption) persistence.NewExpense {
	idx := atomic.AddUint64(&expenseCounter, 1)
	expense := persistence.NewExpense{
		AmountCents: int64(idx) * 100,
		Category:    "geral",
		OccurredAt:  ReferenceTime(),
	}
	for _, opt := range opts {
		opt(&expense)
	}
	return expense
}

// SeedExpense stores an expense built from opts and fails the test on error.
func SeedExpense(tb testing.TB, repo persistence.ExpenseRepository, opts ...ExpenseOption) persistence.Expense {
	tb.Helper()

	expense, err := repo.CreateExpense(context.Background(), NewExpenseFixture(opts...))
	if err != nil {
		tb.Fatalf("failed to seed expense: %v", err)
	}
	return expense
}
