package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/example/pocket-assistant/internal/dedupe"
	"github.com/example/pocket-assistant/internal/logging"
	"github.com/example/pocket-assistant/internal/parser"
	"github.com/example/pocket-assistant/internal/persistence"
	"github.com/example/pocket-assistant/internal/render"
	"github.com/example/pocket-assistant/internal/router"
)

// DigestRescheduler re-arms the daily digest after its time changed.
type DigestRescheduler interface {
	Reschedule(ctx context.Context) error
}

// CalendarMirror copies meetings to an external calendar.
type CalendarMirror interface {
	SyncMeeting(ctx context.Context, meeting persistence.Meeting) error
	RemoveMeeting(ctx context.Context, id int64) error
}

// Message is one inbound text message.
type Message struct {
	ID   string
	From string
	Text string
}

// Reply is the outcome of handling a message.
type Reply struct {
	// Text is empty when nothing should be sent back.
	Text    string
	Command router.Command
	// Duplicate is set when the message id was already processed.
	Duplicate bool
	// Err is the classified failure, if any. The reply text already
	// describes it to the user.
	Err     error
	TraceID string
}

// AssistantConfig wires the assistant's collaborators.
type AssistantConfig struct {
	Store    persistence.Store
	Location *time.Location
	Digest   DigestRescheduler
	Calendar CalendarMirror
	Dedupe   *dedupe.Cache
	Router   *router.Router
	Now      func() time.Time
	TraceID  func() string
	Logger   *slog.Logger
}

// Assistant turns inbound messages into repository operations and replies.
// Messages are processed one at a time.
type Assistant struct {
	mu       sync.Mutex
	store    persistence.Store
	loc      *time.Location
	digest   DigestRescheduler
	calendar CalendarMirror
	dedupe   *dedupe.Cache
	router   *router.Router
	render   *render.Renderer
	now      func() time.Time
	traceID  func() string
	logger   *slog.Logger
}

// NewAssistant wires dependencies for message handling.
func NewAssistant(cfg AssistantConfig) *Assistant {
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	if cfg.Dedupe == nil {
		cfg.Dedupe = dedupe.New(dedupe.DefaultCapacity)
	}
	if cfg.Router == nil {
		cfg.Router = router.New()
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.TraceID == nil {
		cfg.TraceID = uuid.NewString
	}
	return &Assistant{
		store:    cfg.Store,
		loc:      cfg.Location,
		digest:   cfg.Digest,
		calendar: cfg.Calendar,
		dedupe:   cfg.Dedupe,
		router:   cfg.Router,
		render:   render.New(cfg.Location),
		now:      cfg.Now,
		traceID:  cfg.TraceID,
		logger:   defaultLogger(cfg.Logger),
	}
}

// Handle processes one message to completion and returns the reply.
// Failures never escape as errors: they are classified, logged and turned
// into reply text.
func (a *Assistant) Handle(ctx context.Context, msg Message) Reply {
	traceID := a.traceID()
	logger := serviceLogger(ctx, a.logger, "Assistant", "Handle", "trace_id", traceID, "message_id", msg.ID)
	ctx = logging.ContextWithLogger(ctx, logger)

	if !a.dedupe.Admit(msg.ID) {
		logger.DebugContext(ctx, "duplicate message ignored")
		return Reply{Duplicate: true, TraceID: traceID}
	}

	text := strings.TrimSpace(msg.Text)
	if text == "" {
		return Reply{TraceID: traceID}
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	route := a.router.Route(text)
	logger = logger.With("command", route.Command.String())
	ctx = logging.ContextWithLogger(ctx, logger)

	reply := Reply{Command: route.Command, TraceID: traceID}
	out, err := a.dispatch(ctx, route)
	if err != nil {
		reply.Err = err
		reply.Text = a.describe(err)
		if kind := ErrorKind(err); kind == "unexpected" || kind == "canceled" {
			logger.ErrorContext(ctx, "command failed", "error", err, "error_kind", kind)
		} else {
			logger.InfoContext(ctx, "command rejected", "error", err, "error_kind", kind)
		}
		return reply
	}

	logger.InfoContext(ctx, "command handled")
	reply.Text = out
	return reply
}

func (a *Assistant) dispatch(ctx context.Context, route router.Route) (string, error) {
	if a.store == nil && route.Command != router.Help && route.Command != router.Unknown {
		return "", errors.New("assistant has no store")
	}

	switch route.Command {
	case router.Help:
		return a.render.Help(), nil
	case router.AddTask:
		return a.addTask(ctx, route.Args)
	case router.ListTasks:
		return a.listTasks(ctx, route.Args)
	case router.CompleteTask:
		return a.completeTask(ctx, route.Args)
	case router.DeleteTask:
		return a.deleteTask(ctx, route.Args)
	case router.CreateMeeting:
		return a.createMeeting(ctx, route.Args)
	case router.ListMeetings:
		return a.listMeetings(ctx, route.Args)
	case router.DeleteMeeting:
		return a.deleteMeeting(ctx, route.Args)
	case router.SnoozeMeeting:
		return a.snoozeMeeting(ctx, route.Args)
	case router.AddExpense:
		return a.addExpense(ctx, route.Args)
	case router.ListExpenses:
		return a.listExpenses(ctx, route.Args)
	case router.Report:
		return a.report(ctx, route.Args)
	case router.Backup:
		return a.backup(ctx)
	case router.ConfigDigest:
		return a.configDigest(ctx, route.Args)
	default:
		return a.render.Unknown(), nil
	}
}

// describe turns a classified error into reply text.
func (a *Assistant) describe(err error) string {
	var pErr *ParseError
	if errors.As(err, &pErr) {
		return a.render.Error(pErr.Hint)
	}
	var vErr *ValidationError
	if errors.As(err, &vErr) && vErr.HasErrors() {
		return a.render.Error(vErr.Message())
	}
	var nfErr *NotFoundError
	if errors.As(err, &nfErr) {
		return a.render.Error(notFoundMessage(nfErr))
	}
	return a.render.Failure()
}

func notFoundMessage(err *NotFoundError) string {
	switch {
	case err.Entity == entityTask && strings.HasPrefix(err.Ref, "#"):
		return fmt.Sprintf("Tarefa %s não encontrada.", err.Ref)
	case err.Entity == entityTask:
		return "Tarefa não encontrada. Use o ID ou uma palavra-chave mais específica."
	case err.Entity == entityMeeting:
		return fmt.Sprintf("Reunião %s não encontrada.", err.Ref)
	default:
		return "Não encontrado."
	}
}

// SetDigestTime stores a new digest time and re-arms the digest before
// returning.
func (a *Assistant) SetDigestTime(ctx context.Context, t parser.DigestTime) error {
	if a.store == nil {
		return errors.New("assistant has no store")
	}
	if err := a.store.SetSetting(ctx, persistence.SettingDigestHour, fmt.Sprint(t.Hour)); err != nil {
		return fmt.Errorf("store digest hour: %w", err)
	}
	if err := a.store.SetSetting(ctx, persistence.SettingDigestMinute, fmt.Sprint(t.Minute)); err != nil {
		return fmt.Errorf("store digest minute: %w", err)
	}
	if a.digest == nil {
		return nil
	}
	if err := a.digest.Reschedule(ctx); err != nil {
		return fmt.Errorf("reschedule digest: %w", err)
	}
	return nil
}

// localNow is the reference instant for parsing.
func (a *Assistant) localNow() time.Time {
	return a.now().In(a.loc)
}

func (a *Assistant) mirrorMeeting(ctx context.Context, meeting persistence.Meeting) {
	if a.calendar == nil {
		return
	}
	if err := a.calendar.SyncMeeting(ctx, meeting); err != nil {
		logging.OrDefault(ctx, a.logger).WarnContext(ctx, "calendar sync failed",
			"meeting_id", meeting.ID, "error", err, "error_kind", ErrorKind(err))
	}
}

func (a *Assistant) unmirrorMeeting(ctx context.Context, id int64) {
	if a.calendar == nil {
		return
	}
	if err := a.calendar.RemoveMeeting(ctx, id); err != nil {
		logging.OrDefault(ctx, a.logger).WarnContext(ctx, "calendar removal failed",
			"meeting_id", id, "error", err, "error_kind", ErrorKind(err))
	}
}
