package services

import (
	"context"
	"sync"
)

// MockEventPublisher records published order events for testing.
type MockEventPublisher struct {
	mu     sync.Mutex
	events []OrderEvent
}

// NewMockEventPublisher creates a new mock event publisher
func NewMockEventPublisher() *MockEventPublisher {
	return &MockEventPublisher{}
}

// SetAsMockForTesting sets this mock as the global publisher instance for testing
func (m *MockEventPublisher) SetAsMockForTesting() {
	SetEventPublisher(m)
}

// PublishOrderChange records the event.
func (m *MockEventPublisher) PublishOrderChange(ctx context.Context, event OrderEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, event)
	return nil
}

// Events returns a copy of all recorded events.
func (m *MockEventPublisher) Events() []OrderEvent {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]OrderEvent, len(m.events))
	copy(out, m.events)
	return out
}

// EventsFor returns the recorded events for one order.
func (m *MockEventPublisher) EventsFor(orderCode string) []OrderEvent {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []OrderEvent
	for _, e := range m.events {
		if e.OrderCode == orderCode {
			out = append(out, e)
		}
	}
	return out
}

// Clear removes all recorded events.
func (m *MockEventPublisher) Clear() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = nil
}
