package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/example/pocket-assistant/internal/application"
)

const maxBodyBytes = 1 << 20

type assistant interface {
	Handle(ctx context.Context, msg application.Message) application.Reply
}

// MessageHandler feeds plain JSON messages to the assistant and returns the
// reply inline.
type MessageHandler struct {
	assistant assistant
	responder responder
	logger    *slog.Logger
}

// NewMessageHandler builds the local integration handler.
func NewMessageHandler(assistant assistant, logger *slog.Logger) *MessageHandler {
	base := defaultLogger(logger)
	return &MessageHandler{assistant: assistant, responder: newResponder(base), logger: base}
}

type messageRequest struct {
	ID   string `json:"id"`
	From string `json:"from"`
	Text string `json:"text"`
}

type messageResponse struct {
	Reply     string `json:"reply"`
	Command   string `json:"command,omitempty"`
	Duplicate bool   `json:"duplicate,omitempty"`
	ErrorKind string `json:"error_kind,omitempty"`
	TraceID   string `json:"trace_id,omitempty"`
}

// Post handles one message. A missing id is replaced by a random one, so
// such requests are never deduplicated.
func (h *MessageHandler) Post(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.assistant == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	ctx := r.Context()

	var req messageRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		h.responder.writeError(ctx, w, http.StatusBadRequest, errBadRequestBody)
		return
	}
	if strings.TrimSpace(req.Text) == "" {
		h.responder.writeError(ctx, w, http.StatusBadRequest, errMissingText)
		return
	}
	if req.ID == "" {
		req.ID = uuid.NewString()
	}

	reply := h.assistant.Handle(ctx, application.Message{ID: req.ID, From: req.From, Text: req.Text})
	handlerLogger(ctx, h.logger, "MessageHandler", "message_id", req.ID).
		DebugContext(ctx, "message handled", "trace_id", reply.TraceID, "duplicate", reply.Duplicate)

	resp := messageResponse{
		Reply:     reply.Text,
		Duplicate: reply.Duplicate,
		ErrorKind: application.ErrorKind(reply.Err),
		TraceID:   reply.TraceID,
	}
	if !reply.Duplicate {
		resp.Command = reply.Command.String()
	}
	h.responder.writeJSON(ctx, w, http.StatusOK, resp)
}
