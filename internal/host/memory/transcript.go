package memory

import (
	"context"
	"sync"
)

// Message is one chat post.
type Message struct {
	Speaker string
	HTML    string
}

// Transcript is a host.Chat that records every post.
// All methods are safe for concurrent use.
type Transcript struct {
	mu       sync.Mutex
	messages []Message
}

// NewTranscript creates an empty Transcript.
func NewTranscript() *Transcript {
	return &Transcript{}
}

// Send implements host.Chat.
func (t *Transcript) Send(_ context.Context, speaker, html string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.messages = append(t.messages, Message{Speaker: speaker, HTML: html})
	return nil
}

// Messages returns a copy of every recorded post in order.
func (t *Transcript) Messages() []Message {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]Message, len(t.messages))
	copy(out, t.messages)
	return out
}

// Last returns the most recent post.
func (t *Transcript) Last() (Message, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if len(t.messages) == 0 {
		return Message{}, false
	}
	return t.messages[len(t.messages)-1], true
}

// Reset discards all recorded posts.
func (t *Transcript) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.messages = nil
}
