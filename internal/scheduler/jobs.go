package scheduler

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/example/pocket-assistant/internal/persistence"
)

const lastSentLayout = "2006-01-02"

// RunDigest sends today's open tasks and meetings to the recipient. A date
// already recorded in the last-sent setting is skipped, and the date is
// recorded only after the send succeeds.
func (s *Scheduler) RunDigest(ctx context.Context) error {
	if s.recipient == "" {
		s.logger.InfoContext(ctx, "digest skipped", "reason", "no recipient configured")
		return nil
	}

	now := s.now().In(s.loc)
	today := now.Format(lastSentLayout)

	last, ok, err := s.store.GetSetting(ctx, persistence.SettingDigestLastSent)
	if err != nil {
		return fmt.Errorf("read last digest date: %w", err)
	}
	if ok && last == today {
		s.logger.InfoContext(ctx, "digest skipped", "reason", "already sent", "date", today)
		return nil
	}

	y, m, d := now.Date()
	start := time.Date(y, m, d, 0, 0, 0, 0, s.loc)
	end := start.AddDate(0, 0, 1)

	tasks, err := s.store.ListTasks(ctx, persistence.TaskFilter{Status: persistence.TaskOpen, From: &start, To: &end})
	if err != nil {
		return fmt.Errorf("list digest tasks: %w", err)
	}
	meetings, err := s.store.ListMeetings(ctx, persistence.RangeFilter{From: &start, To: &end})
	if err != nil {
		return fmt.Errorf("list digest meetings: %w", err)
	}

	if err := s.notifier.Send(ctx, s.recipient, s.render.Digest(tasks, meetings)); err != nil {
		return fmt.Errorf("send digest: %w", err)
	}
	if err := s.store.SetSetting(ctx, persistence.SettingDigestLastSent, today); err != nil {
		return fmt.Errorf("record digest date: %w", err)
	}

	s.logger.InfoContext(ctx, "digest sent", "date", today, "tasks", len(tasks), "meetings", len(meetings))
	return nil
}

// RunReminders performs one reminder sweep. Each meeting whose reminder
// window [start-30m, start) contains now is notified once; the flag is set
// only after a successful send. Failures of one meeting do not stop the
// sweep and are returned joined.
func (s *Scheduler) RunReminders(ctx context.Context) error {
	if s.recipient == "" {
		s.logger.DebugContext(ctx, "reminder sweep skipped", "reason", "no recipient configured")
		return nil
	}

	s.sweepMu.Lock()
	defer s.sweepMu.Unlock()

	now := s.now()
	candidates, err := s.store.FindDueForReminder(ctx, now, now.Add(ReminderWindow))
	if err != nil {
		return fmt.Errorf("find due meetings: %w", err)
	}

	var errs []error
	for _, meeting := range candidates {
		if !ReminderDue(meeting.Start, now) {
			continue
		}
		if err := s.notifier.Send(ctx, s.recipient, s.render.MeetingReminder(meeting)); err != nil {
			errs = append(errs, fmt.Errorf("send reminder for meeting %d: %w", meeting.ID, err))
			continue
		}
		marked, err := s.store.MarkReminded(ctx, meeting.ID)
		if err != nil {
			errs = append(errs, fmt.Errorf("mark meeting %d reminded: %w", meeting.ID, err))
			continue
		}
		if !marked {
			s.logger.WarnContext(ctx, "reminder already recorded", "meeting_id", meeting.ID)
			continue
		}
		s.logger.InfoContext(ctx, "reminder sent", "meeting_id", meeting.ID, "start", meeting.Start)
	}
	return errors.Join(errs...)
}

// ReminderDue reports whether now lies in [start-ReminderLead, start).
func ReminderDue(start, now time.Time) bool {
	return !now.Before(start.Add(-ReminderLead)) && now.Before(start)
}
