package sqlite

import (
	"context"
	"strings"
	"time"

	"github.com/example/pocket-assistant/internal/persistence"
)

// MeetingRepository implements persistence.MeetingRepository using SQLite
type MeetingRepository struct {
	base
}

const meetingColumns = `id, title, start_at, location, attendees, remind_enabled, reminder_state, created_at`

// CreateMeeting inserts a meeting with its reminder armed
func (r *MeetingRepository) CreateMeeting(ctx context.Context, in persistence.NewMeeting) (persistence.Meeting, error) {
	if strings.TrimSpace(in.Title) == "" || in.Start.IsZero() {
		return persistence.Meeting{}, persistence.ErrConstraintViolation
	}

	id, err := r.insert(ctx, `
		INSERT INTO meetings (title, start_at, location, attendees, remind_enabled, reminder_state, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`,
		in.Title,
		formatTime(in.Start),
		in.Location,
		persistence.JoinAttendees(in.Attendees),
		in.RemindEnabled,
		string(persistence.ReminderPending),
		formatTime(r.stamp()),
	)
	if err != nil {
		return persistence.Meeting{}, err
	}

	return r.GetMeeting(ctx, id)
}

// GetMeeting retrieves a meeting by ID
func (r *MeetingRepository) GetMeeting(ctx context.Context, id int64) (persistence.Meeting, error) {
	row := r.queryRow(ctx, `SELECT `+meetingColumns+` FROM meetings WHERE id = ?`, id)
	meeting, err := scanMeeting(row)
	if err != nil {
		return persistence.Meeting{}, r.mapper.MapError(err)
	}
	return meeting, nil
}

// ListMeetings returns meetings starting in [From, To) ordered by start
func (r *MeetingRepository) ListMeetings(ctx context.Context, filter persistence.RangeFilter) ([]persistence.Meeting, error) {
	clause, args := rangeClause("start_at", filter.From, filter.To, nil)
	return r.list(ctx, `
		SELECT `+meetingColumns+` FROM meetings
		WHERE 1=1`+clause+`
		ORDER BY start_at ASC, id ASC
	`, args...)
}

// FindDueForReminder returns armed, pending meetings starting in (now, windowEnd]
func (r *MeetingRepository) FindDueForReminder(ctx context.Context, now, windowEnd time.Time) ([]persistence.Meeting, error) {
	return r.list(ctx, `
		SELECT `+meetingColumns+` FROM meetings
		WHERE remind_enabled = 1 AND reminder_state = ?
			AND start_at > ? AND start_at <= ?
		ORDER BY start_at ASC, id ASC
	`, string(persistence.ReminderPending), formatTime(now), formatTime(windowEnd))
}

// MarkReminded flips pending to notified. The conditional update makes
// overlapping ticks race safely: only one of them observes true.
func (r *MeetingRepository) MarkReminded(ctx context.Context, id int64) (bool, error) {
	changed, err := r.execAffecting(ctx, `
		UPDATE meetings SET reminder_state = ?
		WHERE id = ? AND reminder_state = ?
	`, string(persistence.ReminderNotified), id, string(persistence.ReminderPending))
	if err != nil {
		return false, err
	}
	if changed {
		return true, nil
	}
	if _, err := r.GetMeeting(ctx, id); err != nil {
		return false, err
	}
	return false, nil
}

// UpdateMeetingStart moves a meeting and re-arms its reminder
func (r *MeetingRepository) UpdateMeetingStart(ctx context.Context, id int64, start time.Time) (persistence.Meeting, error) {
	changed, err := r.execAffecting(ctx, `
		UPDATE meetings SET start_at = ?, reminder_state = ? WHERE id = ?
	`, formatTime(start), string(persistence.ReminderPending), id)
	if err != nil {
		return persistence.Meeting{}, err
	}
	if !changed {
		return persistence.Meeting{}, persistence.ErrNotFound
	}
	return r.GetMeeting(ctx, id)
}

// DeleteMeeting removes a meeting by ID
func (r *MeetingRepository) DeleteMeeting(ctx context.Context, id int64) error {
	changed, err := r.execAffecting(ctx, `DELETE FROM meetings WHERE id = ?`, id)
	if err != nil {
		return err
	}
	if !changed {
		return persistence.ErrNotFound
	}
	return nil
}

func (r *MeetingRepository) list(ctx context.Context, query string, args ...any) ([]persistence.Meeting, error) {
	rows, err := r.query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var meetings []persistence.Meeting
	for rows.Next() {
		meeting, err := scanMeeting(rows)
		if err != nil {
			return nil, r.mapper.MapError(err)
		}
		meetings = append(meetings, meeting)
	}
	if err := rows.Err(); err != nil {
		return nil, r.mapper.MapError(err)
	}

	return meetings, nil
}

func scanMeeting(row rowScanner) (persistence.Meeting, error) {
	var (
		meeting                persistence.Meeting
		startStr, createdAtStr string
		state                  string
	)

	if err := row.Scan(
		&meeting.ID,
		&meeting.Title,
		&startStr,
		&meeting.Location,
		&meeting.Attendees,
		&meeting.RemindEnabled,
		&state,
		&createdAtStr,
	); err != nil {
		return persistence.Meeting{}, err
	}

	meeting.Reminder = persistence.ReminderState(state)

	var err error
	if meeting.Start, err = parseTime("start_at", startStr); err != nil {
		return persistence.Meeting{}, err
	}
	if meeting.CreatedAt, err = parseTime("created_at", createdAtStr); err != nil {
		return persistence.Meeting{}, err
	}

	return meeting, nil
}
