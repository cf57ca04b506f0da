package http

import (
	"log/slog"
	"net/http"
	"time"
)

// HealthHandler answers liveness probes.
type HealthHandler struct {
	now       func() time.Time
	responder responder
}

// NewHealthHandler builds a probe handler. A nil now uses time.Now.
func NewHealthHandler(now func() time.Time, logger *slog.Logger) *HealthHandler {
	if now == nil {
		now = time.Now
	}
	return &HealthHandler{now: now, responder: newResponder(defaultLogger(logger))}
}

type healthResponse struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
}

// Get reports the service as up.
func (h *HealthHandler) Get(w http.ResponseWriter, r *http.Request) {
	h.responder.writeJSON(r.Context(), w, http.StatusOK, healthResponse{
		Status:    "ok",
		Timestamp: h.now().UTC(),
	})
}
