package services

import (
	"fmt"
	"sync"
)

// SentNotification records one Send call made against the mock.
type SentNotification struct {
	Template NotificationTemplate
	To       string
	Params   map[string]string
}

// MockNotifier is an in-memory Notifier for testing. It records every send
// and can be told to fail, which lets tests verify that transitions survive
// dispatcher outages.
type MockNotifier struct {
	mu      sync.Mutex
	sent    []SentNotification
	failAll bool
}

// NewMockNotifier creates a new mock notifier
func NewMockNotifier() *MockNotifier {
	return &MockNotifier{}
}

// SetAsMockForTesting sets this mock as the global notifier instance for testing
func (m *MockNotifier) SetAsMockForTesting() {
	SetNotifier(m)
}

// Send records the notification, or fails if FailAll was set.
func (m *MockNotifier) Send(template NotificationTemplate, to string, params map[string]string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.failAll {
		return fmt.Errorf("mock notifier: dispatcher unavailable")
	}

	copied := make(map[string]string, len(params))
	for k, v := range params {
		copied[k] = v
	}
	m.sent = append(m.sent, SentNotification{Template: template, To: to, Params: copied})
	return nil
}

// FailAll makes every subsequent Send return an error.
func (m *MockNotifier) FailAll(fail bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failAll = fail
}

// Sent returns a copy of all recorded notifications.
func (m *MockNotifier) Sent() []SentNotification {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]SentNotification, len(m.sent))
	copy(out, m.sent)
	return out
}

// SentTo returns the notifications delivered to a recipient.
func (m *MockNotifier) SentTo(to string) []SentNotification {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []SentNotification
	for _, s := range m.sent {
		if s.To == to {
			out = append(out, s)
		}
	}
	return out
}

// CountByTemplate returns how many notifications used the given template.
func (m *MockNotifier) CountByTemplate(template NotificationTemplate) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	count := 0
	for _, s := range m.sent {
		if s.Template == template {
			count++
		}
	}
	return count
}

// Clear removes all recorded notifications.
func (m *MockNotifier) Clear() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = nil
}
