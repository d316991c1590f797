package whatsapp

import (
	"context"
	"sync"
)

// SentMessage records one delivery through the MockSender.
type SentMessage struct {
	To       string
	Template Template
	Body     string
}

// MockSender collects messages for tests and local development.
type MockSender struct {
	mu       sync.Mutex
	Messages []SentMessage
	// FailWith makes every Send return this error.
	FailWith error
}

// NewMockSender creates a MockSender.
func NewMockSender() *MockSender {
	return &MockSender{}
}

// Send records the message.
func (m *MockSender) Send(_ context.Context, to string, template Template, params map[string]string) error {
	if m.FailWith != nil {
		return m.FailWith
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Messages = append(m.Messages, SentMessage{
		To:       to,
		Template: template,
		Body:     RenderBody(template, params),
	})
	return nil
}

// Sent returns a copy of the recorded messages.
func (m *MockSender) Sent() []SentMessage {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]SentMessage, len(m.Messages))
	copy(out, m.Messages)
	return out
}
