package testfixtures

import (
	"io"
	"log/slog"
	"time"

	"github.com/example/pocket-assistant/internal/application"
	"github.com/example/pocket-assistant/internal/parser"
	"github.com/example/pocket-assistant/internal/persistence"
	"github.com/example/pocket-assistant/internal/scheduler"
)

// Owner is the recipient number used across fixtures.
const Owner = "351900000000"

// ServiceFactory assists tests with constructing services using
// deterministic identifiers and clocks.
type ServiceFactory struct {
	Clock       *Clock
	IDGenerator *IDGenerator
}

// ServiceFactoryOption configures a ServiceFactory instance.
type ServiceFactoryOption func(*ServiceFactory)

// NewServiceFactory constructs a ServiceFactory with defaults.
func NewServiceFactory(opts ...ServiceFactoryOption) *ServiceFactory {
	factory := &ServiceFactory{
		Clock:       NewClock(time.Time{}),
		IDGenerator: NewIDGenerator("trace"),
	}
	for _, opt := range opts {
		opt(factory)
	}
	if factory.Clock == nil {
		factory.Clock = NewClock(time.Time{})
	}
	if factory.IDGenerator == nil {
		factory.IDGenerator = NewIDGenerator("trace")
	}
	return factory
}

// WithClock overrides the clock used by the factory.
func WithClock(clock *Clock) ServiceFactoryOption {
	return func(factory *ServiceFactory) {
		factory.Clock = clock
	}
}

// WithIDGenerator overrides the trace identifier generator used by the factory.
func WithIDGenerator(generator *IDGenerator) ServiceFactoryOption {
	return func(factory *ServiceFactory) {
		factory.IDGenerator = generator
	}
}

// DiscardLogger returns a logger that drops every record.
func DiscardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// AssistantDeps captures dependencies for constructing an assistant.
type AssistantDeps struct {
	Store    persistence.Store
	Digest   application.DigestRescheduler
	Calendar application.CalendarMirror
	TraceID  func() string
	Now      func() time.Time
	Logger   *slog.Logger
}

// NewAssistant builds an assistant in the fixture location using the
// supplied dependencies combined with the factory defaults.
func (f *ServiceFactory) NewAssistant(deps AssistantDeps) *application.Assistant {
	traceID := deps.TraceID
	if traceID == nil {
		traceID = f.IDGenerator.NextFunc()
	}
	now := deps.Now
	if now == nil {
		now = f.Clock.NowFunc()
	}
	logger := deps.Logger
	if logger == nil {
		logger = DiscardLogger()
	}
	return application.NewAssistant(application.AssistantConfig{
		Store:    deps.Store,
		Location: Location(),
		Digest:   deps.Digest,
		Calendar: deps.Calendar,
		Now:      now,
		TraceID:  traceID,
		Logger:   logger,
	})
}

// SchedulerDeps captures dependencies for constructing a scheduler.
type SchedulerDeps struct {
	Store            persistence.Store
	Notifier         scheduler.Notifier
	Recipient        string
	DefaultDigest    *parser.DigestTime
	ReminderInterval time.Duration
	Now              func() time.Time
	Logger           *slog.Logger
}

// NewScheduler builds a stopped scheduler addressing Owner at 08:00 unless
// deps say otherwise.
func (f *ServiceFactory) NewScheduler(deps SchedulerDeps) *scheduler.Scheduler {
	recipient := deps.Recipient
	if recipient == "" {
		recipient = Owner
	}
	digest := parser.DigestTime{Hour: 8}
	if deps.DefaultDigest != nil {
		digest = *deps.DefaultDigest
	}
	now := deps.Now
	if now == nil {
		now = f.Clock.NowFunc()
	}
	logger := deps.Logger
	if logger == nil {
		logger = DiscardLogger()
	}
	return scheduler.New(scheduler.Config{
		Store:            deps.Store,
		Notifier:         deps.Notifier,
		Recipient:        recipient,
		Location:         Location(),
		DefaultDigest:    digest,
		ReminderInterval: deps.ReminderInterval,
		Now:              now,
		Logger:           logger,
	})
}
