package testfixtures

import (
	"context"
	"sync"
)

// SentMessage is one captured outbound notification.
type SentMessage struct {
	To   string
	Text string
}

// RecordingNotifier captures sends and can be told to fail.
type RecordingNotifier struct {
	mu   sync.Mutex
	sent []SentMessage
	err  error
}

// NewRecordingNotifier returns an empty notifier.
func NewRecordingNotifier() *RecordingNotifier {
	return &RecordingNotifier{}
}

// Send records the message unless a failure is configured.
func (n *RecordingNotifier) Send(_ context.Context, to, text string) error {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.err != nil {
		return n.err
	}
	n.sent = append(n.sent, SentMessage{To: to, Text: text})
	return nil
}

// FailWith makes subsequent sends return err. Pass nil to recover.
func (n *RecordingNotifier) FailWith(err error) {
	n.mu.Lock()
	n.err = err
	n.mu.Unlock()
}

// Messages returns a copy of everything sent so far.
func (n *RecordingNotifier) Messages() []SentMessage {
	n.mu.Lock()
	defer n.mu.Unlock()

	out := make([]SentMessage, len(n.sent))
	copy(out, n.sent)
	return out
}

// Reset forgets recorded messages.
func (n *RecordingNotifier) Reset() {
	n.mu.Lock()
	n.sent = nil
	n.mu.Unlock()
}
