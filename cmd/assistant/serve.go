package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/crypto/acme/autocert"
	"golang.org/x/sync/errgroup"

	"github.com/example/pocket-assistant/internal/config"
	httptransport "github.com/example/pocket-assistant/internal/http"
	"github.com/example/pocket-assistant/internal/parser"
	"github.com/example/pocket-assistant/internal/scheduler"
	"github.com/example/pocket-assistant/internal/whatsapp"
)

const shutdownTimeout = 10 * time.Second

func newServeCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the webhook server together with the digest and reminder timers",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, logger, err := opts.load()
			if err != nil {
				return err
			}
			if err := serve(cmd.Context(), cfg, logger); err != nil {
				logger.Error("server stopped with error", "error", err)
				return err
			}
			return nil
		},
	}
}

// unconfiguredSender logs outbound text when no WhatsApp credentials exist.
type unconfiguredSender struct {
	logger *slog.Logger
}

func (s unconfiguredSender) Send(ctx context.Context, to, text string) error {
	s.logger.WarnContext(ctx, "whatsapp not configured, message not delivered", "to", to, "length", len(text))
	return nil
}

func newSender(cfg config.Config, logger *slog.Logger) scheduler.Notifier {
	if !cfg.WhatsApp.Enabled() {
		return unconfiguredSender{logger: logger}
	}
	return whatsapp.NewClient(whatsapp.Credentials{
		Token:         cfg.WhatsApp.Token,
		PhoneNumberID: cfg.WhatsApp.PhoneNumberID,
		APIVersion:    cfg.WhatsApp.APIVersion,
	}, whatsapp.WithLogger(logger))
}

func serve(ctx context.Context, cfg config.Config, logger *slog.Logger) error {
	storage, err := openStorage(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := storage.Close(); cerr != nil {
			logger.Error("failed to close storage", "error", cerr)
		}
	}()

	sender := newSender(cfg, logger)
	svc := newServices(cfg, storage, sender, cfg.OwnerNumber, newCalendarMirror(ctx, cfg, logger), logger)
	if cfg.OwnerNumber == "" {
		logger.WarnContext(ctx, "OWNER_NUMBER not set, digest and reminders are disabled")
	}

	webhook := httptransport.NewWebhookHandler(httptransport.WebhookConfig{
		Assistant:   svc.assistant,
		Sender:      sender,
		VerifyToken: cfg.WhatsApp.VerifyToken,
		AppSecret:   cfg.WhatsApp.AppSecret,
		Owner:       cfg.OwnerNumber,
		Logger:      logger,
	})
	handler := httptransport.NewRouter(httptransport.RouterConfig{
		Health:   httptransport.NewHealthHandler(time.Now, logger),
		Webhook:  webhook,
		Messages: httptransport.NewMessageHandler(svc.assistant, logger),
		Middleware: []func(http.Handler) http.Handler{
			httptransport.Recoverer(logger),
			httptransport.RequestLogger(logger),
		},
	})

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	if err := svc.scheduler.Start(ctx); err != nil {
		return fmt.Errorf("start scheduler: %w", err)
	}
	defer svc.scheduler.Stop()

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return listen(server, cfg.TLS, logger)
	})

	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("shutdown server: %w", err)
		}
		webhook.Wait()
		return nil
	})

	if cfg.File != "" {
		g.Go(func() error {
			if err := watchDigestTime(gctx, cfg, svc.assistant, logger); err != nil {
				logger.WarnContext(gctx, "config watcher stopped", "error", err)
			}
			return nil
		})
	}

	return g.Wait()
}

func listen(server *http.Server, tlsCfg config.TLSConfig, logger *slog.Logger) error {
	var err error
	if tlsCfg.Enabled() {
		manager := &autocert.Manager{
			Prompt:     autocert.AcceptTOS,
			HostPolicy: autocert.HostWhitelist(tlsCfg.Domain),
			Cache:      autocert.DirCache(tlsCfg.CacheDir),
		}
		server.TLSConfig = manager.TLSConfig()
		logger.Info("assistant listening with managed TLS", "addr", server.Addr, "domain", tlsCfg.Domain)
		err = server.ListenAndServeTLS("", "")
	} else {
		logger.Info("assistant listening", "addr", server.Addr)
		err = server.ListenAndServe()
	}
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("listen: %w", err)
	}
	return nil
}

type digestSetter interface {
	SetDigestTime(ctx context.Context, t parser.DigestTime) error
}

// watchDigestTime applies digest_time edits in the config file through the
// same path as the config command.
func watchDigestTime(ctx context.Context, cfg config.Config, target digestSetter, logger *slog.Logger) error {
	current := parser.DigestTime{Hour: cfg.DigestHour, Minute: cfg.DigestMinute}
	return config.Watch(ctx, cfg.File, func(next config.Config) {
		updated := parser.DigestTime{Hour: next.DigestHour, Minute: next.DigestMinute}
		if updated == current {
			return
		}
		if err := target.SetDigestTime(ctx, updated); err != nil {
			logger.ErrorContext(ctx, "apply digest time from config failed", "error", err)
			return
		}
		logger.InfoContext(ctx, "digest time reloaded from config", "digest_time", updated.String())
		current = updated
	}, func(err error) {
		logger.WarnContext(ctx, "config reload failed", "error", err)
	})
}
