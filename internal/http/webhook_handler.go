package http

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"sync"

	"github.com/example/pocket-assistant/internal/application"
	"github.com/example/pocket-assistant/internal/whatsapp"
)

type sender interface {
	Send(ctx context.Context, to, text string) error
}

// WebhookConfig wires the WhatsApp webhook.
type WebhookConfig struct {
	Assistant   assistant
	Sender      sender
	VerifyToken string
	AppSecret   string
	// Owner restricts processing to one sender number when set.
	Owner  string
	Logger *slog.Logger
}

// WebhookHandler receives WhatsApp Cloud API notifications.
type WebhookHandler struct {
	cfg       WebhookConfig
	responder responder
	logger    *slog.Logger
	inflight  sync.WaitGroup
}

// NewWebhookHandler builds the webhook handler.
func NewWebhookHandler(cfg WebhookConfig) *WebhookHandler {
	base := defaultLogger(cfg.Logger)
	return &WebhookHandler{cfg: cfg, responder: newResponder(base), logger: base}
}

// Verify answers the subscription handshake.
func (h *WebhookHandler) Verify(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	challenge, ok := whatsapp.Challenge(r.URL.Query(), h.cfg.VerifyToken)
	if !ok {
		handlerLogger(ctx, h.logger, "WebhookHandler").WarnContext(ctx, "webhook verification failed", "mode", r.URL.Query().Get("hub.mode"))
		h.responder.writeError(ctx, w, http.StatusForbidden, nil)
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = io.WriteString(w, challenge)
}

// Receive authenticates and acknowledges a notification, then answers its
// text messages in the background so the platform does not retry.
func (h *WebhookHandler) Receive(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := handlerLogger(ctx, h.logger, "WebhookHandler")

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			h.responder.writeError(ctx, w, http.StatusRequestEntityTooLarge, nil)
			return
		}
		h.responder.writeError(ctx, w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	if !whatsapp.VerifySignature(h.cfg.AppSecret, body, r.Header.Get(whatsapp.SignatureHeader)) {
		h.responder.writeError(ctx, w, http.StatusUnauthorized, errBadSignature)
		return
	}

	messages, err := whatsapp.ParseWebhook(body)
	if err != nil {
		h.responder.writeError(ctx, w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	w.WriteHeader(http.StatusOK)

	accepted := messages[:0]
	for _, msg := range messages {
		if h.cfg.Owner != "" && msg.From != h.cfg.Owner {
			logger.InfoContext(ctx, "ignoring message from unknown sender", "message_id", msg.ID)
			continue
		}
		accepted = append(accepted, msg)
	}
	if len(accepted) == 0 {
		return
	}

	h.inflight.Add(1)
	go func() {
		defer h.inflight.Done()
		h.process(context.WithoutCancel(ctx), logger, accepted)
	}()
}

func (h *WebhookHandler) process(ctx context.Context, logger *slog.Logger, messages []whatsapp.Inbound) {
	for _, msg := range messages {
		reply := h.cfg.Assistant.Handle(ctx, application.Message{ID: msg.ID, From: msg.From, Text: msg.Text})
		if reply.Duplicate || reply.Text == "" {
			continue
		}
		if h.cfg.Sender == nil {
			logger.WarnContext(ctx, "no sender configured, reply dropped", "message_id", msg.ID)
			continue
		}
		if err := h.cfg.Sender.Send(ctx, msg.From, reply.Text); err != nil {
			logger.ErrorContext(ctx, "send reply failed", "message_id", msg.ID, "trace_id", reply.TraceID, "error", err)
		}
	}
}

// Wait blocks until every acknowledged notification has been answered.
func (h *WebhookHandler) Wait() {
	h.inflight.Wait()
}
