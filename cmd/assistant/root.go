package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/example/pocket-assistant/internal/application"
	"github.com/example/pocket-assistant/internal/calendar"
	"github.com/example/pocket-assistant/internal/config"
	"github.com/example/pocket-assistant/internal/logging"
	"github.com/example/pocket-assistant/internal/parser"
	"github.com/example/pocket-assistant/internal/persistence"
	"github.com/example/pocket-assistant/internal/persistence/sqlite"
	"github.com/example/pocket-assistant/internal/scheduler"
)

type rootOptions struct {
	configFile string
	stdin      io.Reader
	stdout     io.Writer
	stderr     io.Writer
}

func newRootCmd(stdin io.Reader, stdout, stderr io.Writer) *cobra.Command {
	opts := &rootOptions{stdin: stdin, stdout: stdout, stderr: stderr}

	cmd := &cobra.Command{
		Use:           "assistant",
		Short:         "Personal assistant for tasks, meetings and expenses over WhatsApp",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.SetIn(stdin)
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)
	cmd.PersistentFlags().StringVarP(&opts.configFile, "config", "c", "", "YAML configuration file (overrides "+config.FileEnv+")")

	cmd.AddCommand(
		newServeCmd(opts),
		newMigrateCmd(opts),
		newChatCmd(opts),
	)
	return cmd
}

// load resolves configuration and the process logger. Errors are also
// reported on stderr because the root command silences them.
func (o *rootOptions) load() (config.Config, *slog.Logger, error) {
	var (
		cfg config.Config
		err error
	)
	if o.configFile != "" {
		cfg, err = config.LoadFile(o.configFile)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		fmt.Fprintf(o.stderr, "configuration error: %v\n", err)
		return config.Config{}, nil, err
	}

	logger, err := logging.New(o.stderr, cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(o.stderr, "configuration error: %v\n", err)
		return config.Config{}, nil, err
	}
	return cfg, logger, nil
}

func openStorage(ctx context.Context, cfg config.Config, logger *slog.Logger) (*sqlite.Storage, error) {
	storage, err := sqlite.Open(ctx, cfg.SQLiteDSN, sqlite.WithLogger(logger))
	if err != nil {
		return nil, fmt.Errorf("open storage: %w", err)
	}
	if err := storage.Migrate(ctx); err != nil {
		_ = storage.Close()
		return nil, fmt.Errorf("apply migrations: %w", err)
	}
	return storage, nil
}

func newCalendarMirror(ctx context.Context, cfg config.Config, logger *slog.Logger) application.CalendarMirror {
	if !cfg.Calendar.Enabled() {
		return calendar.Nop{}
	}
	mirror, err := calendar.New(ctx, cfg.Calendar.CredentialsFile, cfg.Calendar.CalendarID, cfg.Location, logger)
	if err != nil {
		logger.WarnContext(ctx, "calendar mirror disabled", "error", err)
		return calendar.Nop{}
	}
	return mirror
}

type services struct {
	assistant *application.Assistant
	scheduler *scheduler.Scheduler
}

func newServices(cfg config.Config, store persistence.Store, notifier scheduler.Notifier, recipient string, mirror application.CalendarMirror, logger *slog.Logger) services {
	sched := scheduler.New(scheduler.Config{
		Store:         store,
		Notifier:      notifier,
		Recipient:     recipient,
		Location:      cfg.Location,
		DefaultDigest: parser.DigestTime{Hour: cfg.DigestHour, Minute: cfg.DigestMinute},
		Now:           time.Now,
		Logger:        logger,
	})
	assistant := application.NewAssistant(application.AssistantConfig{
		Store:    store,
		Location: cfg.Location,
		Digest:   sched,
		Calendar: mirror,
		Now:      time.Now,
		Logger:   logger,
	})
	return services{assistant: assistant, scheduler: sched}
}
