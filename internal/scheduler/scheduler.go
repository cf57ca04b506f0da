// Package scheduler runs the two background jobs of the assistant: the
// daily digest and the pre-meeting reminder sweep. Both read and write
// through the repository contract and deliver text to a single recipient.
package scheduler

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"sync"
	"time"

	"github.com/example/pocket-assistant/internal/parser"
	"github.com/example/pocket-assistant/internal/persistence"
	"github.com/example/pocket-assistant/internal/render"
)

const (
	// DefaultReminderInterval is the cadence of the reminder sweep.
	DefaultReminderInterval = time.Minute
	// ReminderLead is how long before the start a reminder becomes due.
	ReminderLead = 30 * time.Minute
	// ReminderWindow bounds the sweep query. It exceeds the lead by more
	// than one interval so a meeting is never skipped between ticks.
	ReminderWindow = ReminderLead + time.Minute
)

// ErrAlreadyRunning is returned by Start on a running scheduler.
var ErrAlreadyRunning = errors.New("scheduler: already running")

// Notifier delivers text to a recipient.
type Notifier interface {
	Send(ctx context.Context, to, text string) error
}

// Config wires a Scheduler.
type Config struct {
	Store    persistence.Store
	Notifier Notifier
	// Recipient receives every notification. Empty disables both jobs.
	Recipient string
	Location  *time.Location
	// DefaultDigest applies while no digest time is stored in settings.
	DefaultDigest    parser.DigestTime
	ReminderInterval time.Duration
	Now              func() time.Time
	Logger           *slog.Logger
}

// digestHandle is one installed digest timer. Its next fire time has its own
// lock so the timer goroutine never needs Scheduler.mu, which Reschedule and
// Stop hold while waiting for that goroutine to exit.
type digestHandle struct {
	cancel context.CancelFunc
	done   chan struct{}

	mu sync.Mutex
	at time.Time
}

func (h *digestHandle) next() time.Time {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.at
}

func (h *digestHandle) setNext(at time.Time) {
	h.mu.Lock()
	h.at = at
	h.mu.Unlock()
}

// Scheduler owns the digest timer and the reminder ticker.
type Scheduler struct {
	store     persistence.Store
	notifier  Notifier
	recipient string
	loc       *time.Location
	fallback  parser.DigestTime
	interval  time.Duration
	render    *render.Renderer
	now       func() time.Time
	logger    *slog.Logger

	mu      sync.Mutex
	running bool
	runCtx  context.Context
	cancel  context.CancelFunc
	digest  *digestHandle
	wg      sync.WaitGroup

	// sweepMu keeps reminder sweeps from overlapping.
	sweepMu sync.Mutex
}

// New builds a stopped scheduler.
func New(cfg Config) *Scheduler {
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	if cfg.ReminderInterval <= 0 {
		cfg.ReminderInterval = DefaultReminderInterval
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &Scheduler{
		store:     cfg.Store,
		notifier:  cfg.Notifier,
		recipient: cfg.Recipient,
		loc:       cfg.Location,
		fallback:  cfg.DefaultDigest,
		interval:  cfg.ReminderInterval,
		render:    render.New(cfg.Location),
		now:       cfg.Now,
		logger:    cfg.Logger.With("component", "scheduler"),
	}
}

// Start launches both jobs. The digest time is read from settings now, not
// from any earlier run. Jobs stop when ctx is cancelled or Stop is called.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return ErrAlreadyRunning
	}
	s.runCtx, s.cancel = context.WithCancel(ctx)
	s.running = true

	s.wg.Add(1)
	go s.reminderLoop(s.runCtx)

	s.installDigestLocked(ctx)
	s.logger.InfoContext(ctx, "scheduler started", "recipient_set", s.recipient != "", "reminder_interval", s.interval.String())
	return nil
}

// Stop cancels both jobs and waits for them. No tick runs after Stop
// returns. Stopping a stopped scheduler is a no-op.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return
	}
	s.cancel()
	s.wg.Wait()
	s.running = false
	s.digest = nil
	s.logger.Info("scheduler stopped")
}

// Reschedule replaces the digest timer with one at the currently stored
// digest time. The new timer is installed before Reschedule returns. On a
// stopped scheduler it does nothing; Start reads the setting anyway.
func (s *Scheduler) Reschedule(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return nil
	}
	if s.digest != nil {
		s.digest.cancel()
		<-s.digest.done
		s.digest = nil
	}
	s.installDigestLocked(ctx)
	return nil
}

// NextDigest returns when the installed digest timer fires.
func (s *Scheduler) NextDigest() (time.Time, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.digest == nil {
		return time.Time{}, false
	}
	return s.digest.next(), true
}

func (s *Scheduler) installDigestLocked(ctx context.Context) {
	t := s.DigestTime(ctx)
	next := NextDigestAt(s.now(), t, s.loc)

	digestCtx, cancel := context.WithCancel(s.runCtx)
	handle := &digestHandle{at: next, cancel: cancel, done: make(chan struct{})}
	s.digest = handle

	s.wg.Add(1)
	go s.digestLoop(digestCtx, t, handle)
	s.logger.InfoContext(ctx, "digest scheduled", "digest_time", t.String(), "next_run", next)
}

// DigestTime reads the configured digest time, falling back to the default
// when the settings are absent or unreadable.
func (s *Scheduler) DigestTime(ctx context.Context) parser.DigestTime {
	if s.store == nil {
		return s.fallback
	}
	hour, okHour, err := s.store.GetSetting(ctx, persistence.SettingDigestHour)
	if err != nil {
		s.logger.WarnContext(ctx, "read digest hour failed", "error", err)
		return s.fallback
	}
	minute, okMinute, err := s.store.GetSetting(ctx, persistence.SettingDigestMinute)
	if err != nil {
		s.logger.WarnContext(ctx, "read digest minute failed", "error", err)
		return s.fallback
	}
	if !okHour && !okMinute {
		return s.fallback
	}

	t := s.fallback
	if okHour {
		h, err := strconv.Atoi(hour)
		if err != nil || h < 0 || h > 23 {
			s.logger.WarnContext(ctx, "ignoring invalid digest hour", "value", hour)
			return s.fallback
		}
		t.Hour = h
	}
	if okMinute {
		m, err := strconv.Atoi(minute)
		if err != nil || m < 0 || m > 59 {
			s.logger.WarnContext(ctx, "ignoring invalid digest minute", "value", minute)
			return s.fallback
		}
		t.Minute = m
	}
	return t
}

// NextDigestAt returns the first instant strictly after now at which the
// wall clock in loc reads t.
func NextDigestAt(now time.Time, t parser.DigestTime, loc *time.Location) time.Time {
	local := now.In(loc)
	y, m, d := local.Date()
	next := time.Date(y, m, d, t.Hour, t.Minute, 0, 0, loc)
	if !next.After(now) {
		next = time.Date(y, m, d+1, t.Hour, t.Minute, 0, 0, loc)
	}
	return next
}

func (s *Scheduler) digestLoop(ctx context.Context, t parser.DigestTime, handle *digestHandle) {
	defer s.wg.Done()
	defer close(handle.done)

	next := handle.next()
	for {
		timer := time.NewTimer(next.Sub(s.now()))
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
		}

		err := s.RunDigest(ctx)
		if ctx.Err() != nil {
			return
		}
		if err != nil {
			s.logger.ErrorContext(ctx, "digest failed", "error", err)
		}
		next = NextDigestAt(next, t, s.loc)
		handle.setNext(next)
	}
}

func (s *Scheduler) reminderLoop(ctx context.Context) {
	defer s.wg.Done()

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := s.RunReminders(ctx); err != nil {
				s.logger.ErrorContext(ctx, "reminder sweep failed", "error", err)
			}
		}
	}
}
