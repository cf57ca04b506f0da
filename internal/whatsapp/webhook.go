package whatsapp

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
)

// SignatureHeader carries the payload HMAC on webhook deliveries.
const SignatureHeader = "X-Hub-Signature-256"

// Webhook is the notification envelope posted by the Cloud API.
type Webhook struct {
	Object string  `json:"object"`
	Entry  []Entry `json:"entry"`
}

// Entry groups changes for one business account.
type Entry struct {
	ID      string   `json:"id"`
	Changes []Change `json:"changes"`
}

// Change is one field update.
type Change struct {
	Field string `json:"field"`
	Value Value  `json:"value"`
}

// Value holds the messages and delivery statuses of a change.
type Value struct {
	MessagingProduct string    `json:"messaging_product"`
	Messages         []Message `json:"messages,omitempty"`
	Statuses         []Status  `json:"statuses,omitempty"`
}

// Message is one inbound message of any type.
type Message struct {
	ID        string       `json:"id"`
	From      string       `json:"from"`
	Timestamp string       `json:"timestamp"`
	Type      string       `json:"type"`
	Text      *MessageText `json:"text,omitempty"`
}

// MessageText is the body of a text message.
type MessageText struct {
	Body string `json:"body"`
}

// Status is a delivery receipt for an outbound message.
type Status struct {
	ID     string `json:"id"`
	Status string `json:"status"`
}

// Inbound is a text message ready for the assistant.
type Inbound struct {
	ID   string
	From string
	Text string
}

// ParseWebhook decodes body and returns its text messages in delivery
// order. Other message types and status receipts are dropped.
func ParseWebhook(body []byte) ([]Inbound, error) {
	var hook Webhook
	if err := json.Unmarshal(body, &hook); err != nil {
		return nil, fmt.Errorf("whatsapp: decode webhook: %w", err)
	}

	var out []Inbound
	for _, entry := range hook.Entry {
		for _, change := range entry.Changes {
			for _, msg := range change.Value.Messages {
				if msg.Type != "text" || msg.Text == nil {
					continue
				}
				out = append(out, Inbound{ID: msg.ID, From: msg.From, Text: msg.Text.Body})
			}
		}
	}
	return out, nil
}

// VerifySignature checks the sha256=<hex> HMAC of body under appSecret. An
// empty secret disables the check.
func VerifySignature(appSecret string, body []byte, signature string) bool {
	if appSecret == "" {
		return true
	}
	hexSig, ok := strings.CutPrefix(signature, "sha256=")
	if !ok || hexSig == "" {
		return false
	}
	provided, err := hex.DecodeString(hexSig)
	if err != nil {
		return false
	}
	return hmac.Equal(provided, Sign(appSecret, body))
}

// Sign returns the raw HMAC-SHA256 of body.
func Sign(appSecret string, body []byte) []byte {
	mac := hmac.New(sha256.New, []byte(appSecret))
	mac.Write(body)
	return mac.Sum(nil)
}

// Challenge answers the subscription handshake. It returns the challenge to
// echo and whether the request carried the expected verify token.
func Challenge(query url.Values, verifyToken string) (string, bool) {
	if verifyToken == "" {
		return "", false
	}
	if query.Get("hub.mode") != "subscribe" {
		return "", false
	}
	if !hmac.Equal([]byte(query.Get("hub.verify_token")), []byte(verifyToken)) {
		return "", false
	}
	return query.Get("hub.challenge"), true
}
