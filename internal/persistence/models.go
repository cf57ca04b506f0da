package persistence

import (
	"strings"
	"time"
)

// DefaultCurrency is the only currency expenses are recorded in.
const DefaultCurrency = "EUR"

// TaskStatus is the lifecycle state of a task.
type TaskStatus string

const (
	TaskOpen TaskStatus = "open"
	TaskDone TaskStatus = "done"
)

// Valid reports whether s is a known status.
func (s TaskStatus) Valid() bool {
	return s == TaskOpen || s == TaskDone
}

// Complete returns the state after completing a task in state s. Only open
// tasks can be completed.
func (s TaskStatus) Complete() (TaskStatus, error) {
	if s != TaskOpen {
		return s, ErrConflict
	}
	return TaskDone, nil
}

// ReminderState tracks whether the 30 minute reminder for a meeting was sent.
type ReminderState string

const (
	ReminderPending  ReminderState = "pending"
	ReminderNotified ReminderState = "notified"
)

// Notify returns the state after a reminder was delivered.
func (s ReminderState) Notify() (ReminderState, error) {
	if s != ReminderPending {
		return s, ErrConflict
	}
	return ReminderNotified, nil
}

// Rearm returns the state after the meeting start moved.
func (ReminderState) Rearm() ReminderState {
	return ReminderPending
}

// Task is a to-do item.
type Task struct {
	ID        int64
	Title     string
	Due       *time.Time
	Tag       string
	Status    TaskStatus
	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewTask carries the fields needed to create a task.
type NewTask struct {
	Title string
	Due   *time.Time
	Tag   string
}

// Meeting is a calendar entry with an optional pre-start reminder.
type Meeting struct {
	ID            int64
	Title         string
	Start         time.Time
	Location      string
	Attendees     string
	RemindEnabled bool
	Reminder      ReminderState
	CreatedAt     time.Time
}

// Reminded reports whether the reminder for the current start time was sent.
func (m Meeting) Reminded() bool {
	return m.Reminder == ReminderNotified
}

// AttendeeList splits the stored attendee string.
func (m Meeting) AttendeeList() []string {
	if strings.TrimSpace(m.Attendees) == "" {
		return nil
	}
	parts := strings.Split(m.Attendees, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// NewMeeting carries the fields needed to create a meeting.
type NewMeeting struct {
	Title         string
	Start         time.Time
	Location      string
	Attendees     []string
	RemindEnabled bool
}

// JoinAttendees renders an attendee list into its stored form.
func JoinAttendees(attendees []string) string {
	return strings.Join(attendees, ", ")
}

// Expense is an immutable spending record.
type Expense struct {
	ID          int64
	AmountCents int64
	Currency    string
	Category    string
	Note        string
	OccurredAt  time.Time
	CreatedAt   time.Time
}

// NewExpense carries the fields needed to record an expense. A zero
// OccurredAt means "now".
type NewExpense struct {
	AmountCents int64
	Category    string
	Note        string
	OccurredAt  time.Time
}

// CategoryTotal is one row of an expense breakdown.
type CategoryTotal struct {
	Category   string
	TotalCents int64
}

// Setting keys shared by the command handler and the scheduler.
const (
	SettingDigestHour     = "MORNING_DIGEST_HOUR"
	SettingDigestMinute   = "MORNING_DIGEST_MINUTE"
	SettingDigestLastSent = "digest.last_sent_date"
)

// Setting is a key/value configuration entry.
type Setting struct {
	Key   string
	Value string
}

// TitleContains reports whether title contains keyword, ignoring case.
func TitleContains(title, keyword string) bool {
	keyword = strings.TrimSpace(keyword)
	if keyword == "" {
		return false
	}
	return strings.Contains(strings.ToLower(title), strings.ToLower(keyword))
}

// InRange reports whether t falls in the half-open range [from, to). Nil
// bounds are open.
func InRange(t time.Time, from, to *time.Time) bool {
	if from != nil && t.Before(*from) {
		return false
	}
	if to != nil && !t.Before(*to) {
		return false
	}
	return true
}
