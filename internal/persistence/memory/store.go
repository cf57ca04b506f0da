// Package memory provides an in-process implementation of the persistence
// contracts. It backs unit tests and ephemeral chat sessions.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/example/pocket-assistant/internal/persistence"
)

// Store keeps every entity in maps guarded by a single mutex.
type Store struct {
	mu       sync.RWMutex
	now      func() time.Time
	nextID   int64
	tasks    map[int64]persistence.Task
	meetings map[int64]persistence.Meeting
	expenses map[int64]persistence.Expense
	settings map[string]string
}

var _ persistence.Store = (*Store)(nil)

// New returns an empty store. A nil clock defaults to time.Now.
func New(now func() time.Time) *Store {
	if now == nil {
		now = time.Now
	}
	return &Store{
		now:      now,
		tasks:    make(map[int64]persistence.Task),
		meetings: make(map[int64]persistence.Meeting),
		expenses: make(map[int64]persistence.Expense),
		settings: make(map[string]string),
	}
}

// Close is a no-op.
func (s *Store) Close() error {
	return nil
}

func (s *Store) stamp() time.Time {
	return normalize(s.now())
}

func (s *Store) allocateIDLocked() int64 {
	s.nextID++
	return s.nextID
}

// normalize matches the precision and zone the SQLite store round-trips.
func normalize(t time.Time) time.Time {
	return t.UTC().Truncate(time.Second)
}

// --- TaskRepository implementation ---

// CreateTask stores a new open task.
func (s *Store) CreateTask(_ context.Context, in persistence.NewTask) (persistence.Task, error) {
	if strings.TrimSpace(in.Title) == "" {
		return persistence.Task{}, persistence.ErrConstraintViolation
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.stamp()
	task := persistence.Task{
		ID:        s.allocateIDLocked(),
		Title:     in.Title,
		Due:       cloneTime(in.Due),
		Tag:       in.Tag,
		Status:    persistence.TaskOpen,
		CreatedAt: now,
		UpdatedAt: now,
	}
	s.tasks[task.ID] = task
	return cloneTask(task), nil
}

// GetTask retrieves a task by ID.
func (s *Store) GetTask(_ context.Context, id int64) (persistence.Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	task, ok := s.tasks[id]
	if !ok {
		return persistence.Task{}, persistence.ErrNotFound
	}
	return cloneTask(task), nil
}

// FindTaskByKeyword returns the newest open task whose title contains keyword.
func (s *Store) FindTaskByKeyword(_ context.Context, keyword string) (persistence.Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var (
		best  persistence.Task
		found bool
	)
	for _, task := range s.tasks {
		if task.Status != persistence.TaskOpen || !persistence.TitleContains(task.Title, keyword) {
			continue
		}
		if !found || newerThan(task.CreatedAt, task.ID, best.CreatedAt, best.ID) {
			best, found = task, true
		}
	}
	if !found {
		return persistence.Task{}, persistence.ErrNotFound
	}
	return cloneTask(best), nil
}

// ListTasks returns tasks matching filter ordered by due time with undated
// tasks last, then newest first.
func (s *Store) ListTasks(_ context.Context, filter persistence.TaskFilter) ([]persistence.Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	from, to := bound(filter.From), bound(filter.To)
	tasks := make([]persistence.Task, 0, len(s.tasks))
	for _, task := range s.tasks {
		if filter.Status != "" && task.Status != filter.Status {
			continue
		}
		if task.Due != nil && !persistence.InRange(*task.Due, from, to) {
			continue
		}
		tasks = append(tasks, cloneTask(task))
	}

	sort.Slice(tasks, func(i, j int) bool {
		a, b := tasks[i], tasks[j]
		switch {
		case a.Due == nil && b.Due != nil:
			return false
		case a.Due != nil && b.Due == nil:
			return true
		case a.Due != nil && b.Due != nil && !a.Due.Equal(*b.Due):
			return a.Due.Before(*b.Due)
		}
		return newerThan(a.CreatedAt, a.ID, b.CreatedAt, b.ID)
	})

	return tasks, nil
}

// CompleteTask moves an open task to done.
func (s *Store) CompleteTask(_ context.Context, id int64) (persistence.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	task, ok := s.tasks[id]
	if !ok {
		return persistence.Task{}, persistence.ErrNotFound
	}
	status, err := task.Status.Complete()
	if err != nil {
		return cloneTask(task), err
	}
	task.Status = status
	task.UpdatedAt = s.stamp()
	s.tasks[id] = task
	return cloneTask(task), nil
}

// DeleteTask removes a task by ID.
func (s *Store) DeleteTask(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.tasks[id]; !ok {
		return persistence.ErrNotFound
	}
	delete(s.tasks, id)
	return nil
}

// RescheduleTask replaces the due time of a task.
func (s *Store) RescheduleTask(_ context.Context, id int64, due time.Time) (persistence.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	task, ok := s.tasks[id]
	if !ok {
		return persistence.Task{}, persistence.ErrNotFound
	}
	d := normalize(due)
	task.Due = &d
	task.UpdatedAt = s.stamp()
	s.tasks[id] = task
	return cloneTask(task), nil
}

// --- MeetingRepository implementation ---

// CreateMeeting stores a new meeting with its reminder armed.
func (s *Store) CreateMeeting(_ context.Context, in persistence.NewMeeting) (persistence.Meeting, error) {
	if strings.TrimSpace(in.Title) == "" || in.Start.IsZero() {
		return persistence.Meeting{}, persistence.ErrConstraintViolation
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	meeting := persistence.Meeting{
		ID:            s.allocateIDLocked(),
		Title:         in.Title,
		Start:         normalize(in.Start),
		Location:      in.Location,
		Attendees:     persistence.JoinAttendees(in.Attendees),
		RemindEnabled: in.RemindEnabled,
		Reminder:      persistence.ReminderPending,
		CreatedAt:     s.stamp(),
	}
	s.meetings[meeting.ID] = meeting
	return meeting, nil
}

// GetMeeting retrieves a meeting by ID.
func (s *Store) GetMeeting(_ context.Context, id int64) (persistence.Meeting, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	meeting, ok := s.meetings[id]
	if !ok {
		return persistence.Meeting{}, persistence.ErrNotFound
	}
	return meeting, nil
}

// ListMeetings returns meetings starting in the filter range ordered by start.
func (s *Store) ListMeetings(_ context.Context, filter persistence.RangeFilter) ([]persistence.Meeting, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	from, to := bound(filter.From), bound(filter.To)
	meetings := make([]persistence.Meeting, 0, len(s.meetings))
	for _, meeting := range s.meetings {
		if persistence.InRange(meeting.Start, from, to) {
			meetings = append(meetings, meeting)
		}
	}
	sortMeetings(meetings)
	return meetings, nil
}

// FindDueForReminder returns armed, pending meetings starting in (now, windowEnd].
func (s *Store) FindDueForReminder(_ context.Context, now, windowEnd time.Time) ([]persistence.Meeting, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	now, windowEnd = normalize(now), normalize(windowEnd)
	var meetings []persistence.Meeting
	for _, meeting := range s.meetings {
		if !meeting.RemindEnabled || meeting.Reminder != persistence.ReminderPending {
			continue
		}
		if meeting.Start.After(now) && !meeting.Start.After(windowEnd) {
			meetings = append(meetings, meeting)
		}
	}
	sortMeetings(meetings)
	return meetings, nil
}

// MarkReminded moves a pending meeting to notified.
func (s *Store) MarkReminded(_ context.Context, id int64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	meeting, ok := s.meetings[id]
	if !ok {
		return false, persistence.ErrNotFound
	}
	state, err := meeting.Reminder.Notify()
	if err != nil {
		return false, nil
	}
	meeting.Reminder = state
	s.meetings[id] = meeting
	return true, nil
}

// UpdateMeetingStart moves a meeting and re-arms its reminder.
func (s *Store) UpdateMeetingStart(_ context.Context, id int64, start time.Time) (persistence.Meeting, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	meeting, ok := s.meetings[id]
	if !ok {
		return persistence.Meeting{}, persistence.ErrNotFound
	}
	meeting.Start = normalize(start)
	meeting.Reminder = meeting.Reminder.Rearm()
	s.meetings[id] = meeting
	return meeting, nil
}

// DeleteMeeting removes a meeting by ID.
func (s *Store) DeleteMeeting(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.meetings[id]; !ok {
		return persistence.ErrNotFound
	}
	delete(s.meetings, id)
	return nil
}

// --- ExpenseRepository implementation ---

// CreateExpense records an expense. A zero OccurredAt means now.
func (s *Store) CreateExpense(_ context.Context, in persistence.NewExpense) (persistence.Expense, error) {
	if in.AmountCents <= 0 || strings.TrimSpace(in.Category) == "" {
		return persistence.Expense{}, persistence.ErrConstraintViolation
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.stamp()
	occurred := now
	if !in.OccurredAt.IsZero() {
		occurred = normalize(in.OccurredAt)
	}
	expense := persistence.Expense{
		ID:          s.allocateIDLocked(),
		AmountCents: in.AmountCents,
		Currency:    persistence.DefaultCurrency,
		Category:    in.Category,
		Note:        in.Note,
		OccurredAt:  occurred,
		CreatedAt:   now,
	}
	s.expenses[expense.ID] = expense
	return expense, nil
}

// ListExpenses returns expenses in the filter range, newest first.
func (s *Store) ListExpenses(_ context.Context, filter persistence.RangeFilter) ([]persistence.Expense, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.expensesInRangeLocked(filter.From, filter.To), nil
}

// ExpenseTotal sums expenses in [from, to).
func (s *Store) ExpenseTotal(_ context.Context, from, to time.Time) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var total int64
	for _, expense := range s.expensesInRangeLocked(&from, &to) {
		total += expense.AmountCents
	}
	return total, nil
}

// ExpenseBreakdown totals expenses in [from, to) per category, largest first.
func (s *Store) ExpenseBreakdown(_ context.Context, from, to time.Time) ([]persistence.CategoryTotal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	totals := make(map[string]int64)
	for _, expense := range s.expensesInRangeLocked(&from, &to) {
		totals[expense.Category] += expense.AmountCents
	}

	breakdown := make([]persistence.CategoryTotal, 0, len(totals))
	for category, cents := range totals {
		breakdown = append(breakdown, persistence.CategoryTotal{Category: category, TotalCents: cents})
	}
	sort.Slice(breakdown, func(i, j int) bool {
		if breakdown[i].TotalCents == breakdown[j].TotalCents {
			return breakdown[i].Category < breakdown[j].Category
		}
		return breakdown[i].TotalCents > breakdown[j].TotalCents
	})
	return breakdown, nil
}

func (s *Store) expensesInRangeLocked(from, to *time.Time) []persistence.Expense {
	from, to = bound(from), bound(to)
	expenses := make([]persistence.Expense, 0, len(s.expenses))
	for _, expense := range s.expenses {
		if persistence.InRange(expense.OccurredAt, from, to) {
			expenses = append(expenses, expense)
		}
	}
	sort.Slice(expenses, func(i, j int) bool {
		return newerThan(expenses[i].OccurredAt, expenses[i].ID, expenses[j].OccurredAt, expenses[j].ID)
	})
	return expenses
}

// --- SettingRepository implementation ---

// GetSetting returns the value stored under key.
func (s *Store) GetSetting(_ context.Context, key string) (string, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	value, ok := s.settings[key]
	return value, ok, nil
}

// SetSetting upserts key.
func (s *Store) SetSetting(_ context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.settings[key] = value
	return nil
}

func cloneTask(task persistence.Task) persistence.Task {
	task.Due = cloneTime(task.Due)
	return task
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := normalize(*t)
	return &v
}

// bound truncates a range bound the way the SQLite store compares it.
func bound(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := normalize(*t)
	return &v
}

func sortMeetings(meetings []persistence.Meeting) {
	sort.Slice(meetings, func(i, j int) bool {
		if meetings[i].Start.Equal(meetings[j].Start) {
			return meetings[i].ID < meetings[j].ID
		}
		return meetings[i].Start.Before(meetings[j].Start)
	})
}

// newerThan orders by timestamp descending with the ID as tie breaker.
func newerThan(at time.Time, id int64, otherAt time.Time, otherID int64) bool {
	if at.Equal(otherAt) {
		return id > otherID
	}
	return at.After(otherAt)
}
