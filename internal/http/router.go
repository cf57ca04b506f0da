package http

import (
	"net/http"
	"strings"
)

// RouterConfig selects the handlers to mount. Nil handlers are skipped.
type RouterConfig struct {
	Health     *HealthHandler
	Webhook    *WebhookHandler
	Messages   *MessageHandler
	Middleware []func(http.Handler) http.Handler
}

// NewRouter mounts the configured handlers and wraps them in middleware,
// the first entry outermost.
func NewRouter(cfg RouterConfig) http.Handler {
	mux := http.NewServeMux()

	if cfg.Health != nil {
		mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodGet && r.Method != http.MethodHead {
				methodNotAllowed(w, http.MethodGet, http.MethodHead)
				return
			}
			cfg.Health.Get(w, r)
		})
	}

	if cfg.Webhook != nil {
		mux.HandleFunc("/webhook", func(w http.ResponseWriter, r *http.Request) {
			switch r.Method {
			case http.MethodGet:
				cfg.Webhook.Verify(w, r)
			case http.MethodPost:
				cfg.Webhook.Receive(w, r)
			default:
				methodNotAllowed(w, http.MethodGet, http.MethodPost)
			}
		})
	}

	if cfg.Messages != nil {
		mux.HandleFunc("/messages", func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodPost {
				methodNotAllowed(w, http.MethodPost)
				return
			}
			cfg.Messages.Post(w, r)
		})
	}

	var handler http.Handler = mux
	for i := len(cfg.Middleware) - 1; i >= 0; i-- {
		if cfg.Middleware[i] != nil {
			handler = cfg.Middleware[i](handler)
		}
	}

	return handler
}

func methodNotAllowed(w http.ResponseWriter, allowed ...string) {
	if len(allowed) > 0 {
		w.Header().Set("Allow", strings.Join(allowed, ", "))
	}
	http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
}
