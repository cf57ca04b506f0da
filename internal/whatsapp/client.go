// Package whatsapp talks to the WhatsApp Cloud API: it sends text messages
// through the Graph API and decodes and authenticates inbound webhooks.
package whatsapp

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"
)

const (
	// DefaultBaseURL is the Graph API root.
	DefaultBaseURL = "https://graph.facebook.com"
	// DefaultAPIVersion is used when no version is configured.
	DefaultAPIVersion = "v21.0"
	// MaxTextLength is the Cloud API limit on a text body.
	MaxTextLength = 4096

	defaultTimeout = 10 * time.Second
)

// ErrNotConfigured is returned by Send when credentials are missing.
var ErrNotConfigured = errors.New("whatsapp: client not configured")

// APIError is a non-2xx answer from the Graph API.
type APIError struct {
	Status int
	Body   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("whatsapp: HTTP %d: %s", e.Status, e.Body)
}

// Credentials identify the sending business number.
type Credentials struct {
	Token         string
	PhoneNumberID string
	APIVersion    string
}

// Client sends outbound text messages.
type Client struct {
	creds   Credentials
	baseURL string
	http    *http.Client
	logger  *slog.Logger
}

// Option customises a Client.
type Option func(*Client)

// WithBaseURL points the client at another Graph API root.
func WithBaseURL(url string) Option {
	return func(c *Client) {
		c.baseURL = url
	}
}

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.http = client
		}
	}
}

// WithLogger sets the client logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// NewClient builds a client for creds.
func NewClient(creds Credentials, opts ...Option) *Client {
	if creds.APIVersion == "" {
		creds.APIVersion = DefaultAPIVersion
	}
	c := &Client{
		creds:   creds,
		baseURL: DefaultBaseURL,
		http:    &http.Client{Timeout: defaultTimeout},
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = c.logger.With("component", "whatsapp")
	return c
}

type textBody struct {
	Body string `json:"body"`
}

type sendRequest struct {
	MessagingProduct string   `json:"messaging_product"`
	RecipientType    string   `json:"recipient_type"`
	To               string   `json:"to"`
	Type             string   `json:"type"`
	Text             textBody `json:"text"`
}

// Send delivers text to the given number. Empty text is a no-op and long
// text is truncated to MaxTextLength.
func (c *Client) Send(ctx context.Context, to, text string) error {
	if text == "" {
		return nil
	}
	if c.creds.Token == "" || c.creds.PhoneNumberID == "" {
		return ErrNotConfigured
	}

	payload, err := json.Marshal(sendRequest{
		MessagingProduct: "whatsapp",
		RecipientType:    "individual",
		To:               to,
		Type:             "text",
		Text:             textBody{Body: Truncate(text, MaxTextLength)},
	})
	if err != nil {
		return fmt.Errorf("whatsapp: marshal payload: %w", err)
	}

	url := fmt.Sprintf("%s/%s/%s/messages", c.baseURL, c.creds.APIVersion, c.creds.PhoneNumberID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("whatsapp: create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.creds.Token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("whatsapp: request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<10))
		return &APIError{Status: resp.StatusCode, Body: string(body)}
	}
	_, _ = io.Copy(io.Discard, resp.Body)

	c.logger.DebugContext(ctx, "message sent", "status", resp.StatusCode)
	return nil
}

// Truncate shortens text to at most limit bytes without splitting a rune,
// marking the cut with an ellipsis.
func Truncate(text string, limit int) string {
	if len(text) <= limit {
		return text
	}
	const ellipsis = "..."
	cut := limit - len(ellipsis)
	for cut > 0 && !runeStart(text[cut]) {
		cut--
	}
	return text[:cut] + ellipsis
}

func runeStart(b byte) bool {
	return b&0xC0 != 0x80
}
