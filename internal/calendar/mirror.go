// Package calendar mirrors assistant meetings into a Google Calendar. The
// local store stays authoritative; the mirror only follows it.
package calendar

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"golang.org/x/oauth2/google"
	gcal "google.golang.org/api/calendar/v3"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"

	"github.com/example/pocket-assistant/internal/persistence"
)

// EventDuration is the length given to mirrored events; meetings carry
// only a start.
const EventDuration = time.Hour

// EventID derives the Google event id of a meeting. Ids use the base32hex
// alphabet so Google accepts them on insert.
func EventID(meetingID int64) string {
	return fmt.Sprintf("assistantmeeting%06d", meetingID)
}

// Mirror writes meetings to one calendar.
type Mirror struct {
	events     *gcal.EventsService
	calendarID string
	loc        *time.Location
	logger     *slog.Logger
}

// New authenticates with the service account JSON at credentialsFile.
func New(ctx context.Context, credentialsFile, calendarID string, loc *time.Location, logger *slog.Logger) (*Mirror, error) {
	raw, err := os.ReadFile(credentialsFile)
	if err != nil {
		return nil, fmt.Errorf("read calendar credentials: %w", err)
	}
	jwt, err := google.JWTConfigFromJSON(raw, gcal.CalendarEventsScope)
	if err != nil {
		return nil, fmt.Errorf("parse calendar credentials: %w", err)
	}
	svc, err := gcal.NewService(ctx, option.WithHTTPClient(jwt.Client(ctx)))
	if err != nil {
		return nil, fmt.Errorf("create calendar service: %w", err)
	}
	return NewWithService(svc, calendarID, loc, logger), nil
}

// NewWithService wraps an existing calendar service.
func NewWithService(svc *gcal.Service, calendarID string, loc *time.Location, logger *slog.Logger) *Mirror {
	if calendarID == "" {
		calendarID = "primary"
	}
	if loc == nil {
		loc = time.UTC
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Mirror{
		events:     svc.Events,
		calendarID: calendarID,
		loc:        loc,
		logger:     logger.With("component", "calendar", "calendar_id", calendarID),
	}
}

// SyncMeeting creates or replaces the event of meeting.
func (m *Mirror) SyncMeeting(ctx context.Context, meeting persistence.Meeting) error {
	event := m.toEvent(meeting)

	_, err := m.events.Update(m.calendarID, event.Id, event).Context(ctx).Do()
	if err == nil {
		m.logger.DebugContext(ctx, "event updated", "meeting_id", meeting.ID)
		return nil
	}
	if !isMissing(err) {
		return fmt.Errorf("update event %s: %w", event.Id, err)
	}

	if _, err := m.events.Insert(m.calendarID, event).Context(ctx).Do(); err != nil {
		return fmt.Errorf("insert event %s: %w", event.Id, err)
	}
	m.logger.DebugContext(ctx, "event created", "meeting_id", meeting.ID)
	return nil
}

// RemoveMeeting deletes the event of a meeting. A missing event is not an
// error.
func (m *Mirror) RemoveMeeting(ctx context.Context, id int64) error {
	eventID := EventID(id)
	err := m.events.Delete(m.calendarID, eventID).Context(ctx).Do()
	if err != nil && !isMissing(err) {
		return fmt.Errorf("delete event %s: %w", eventID, err)
	}
	return nil
}

func (m *Mirror) toEvent(meeting persistence.Meeting) *gcal.Event {
	start := meeting.Start.In(m.loc)
	event := &gcal.Event{
		Id:       EventID(meeting.ID),
		Summary:  meeting.Title,
		Location: meeting.Location,
		Start:    &gcal.EventDateTime{DateTime: start.Format(time.RFC3339), TimeZone: m.loc.String()},
		End:      &gcal.EventDateTime{DateTime: start.Add(EventDuration).Format(time.RFC3339), TimeZone: m.loc.String()},
	}
	if attendees := meeting.AttendeeList(); len(attendees) > 0 {
		event.Description = "Participantes: " + strings.Join(attendees, ", ")
	}
	return event
}

func isMissing(err error) bool {
	var apiErr *googleapi.Error
	if !errors.As(err, &apiErr) {
		return false
	}
	return apiErr.Code == http.StatusNotFound || apiErr.Code == http.StatusGone
}

// Nop is the mirror used when no calendar is configured.
type Nop struct{}

// SyncMeeting does nothing.
func (Nop) SyncMeeting(context.Context, persistence.Meeting) error { return nil }

// RemoveMeeting does nothing.
func (Nop) RemoveMeeting(context.Context, int64) error { return nil }
