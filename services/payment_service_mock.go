package services

import (
	"fmt"
	"sync"

	"github.com/google/uuid"
)

// MockPaymentGateway is an in-memory PaymentGateway for testing. Created
// intents start unconfirmed; tests flip them with MarkSucceeded to simulate
// the browser-side charge.
type MockPaymentGateway struct {
	mu       sync.Mutex
	intents  map[string]bool // intent ID -> charge succeeded
	failNext bool
}

// NewMockPaymentGateway creates a new mock payment gateway
func NewMockPaymentGateway() *MockPaymentGateway {
	return &MockPaymentGateway{intents: make(map[string]bool)}
}

// SetAsMockForTesting sets this mock as the global gateway instance for testing
func (m *MockPaymentGateway) SetAsMockForTesting() {
	SetPaymentGateway(m)
}

// CreateIntent returns a fake intent, or fails once if FailNext was set.
func (m *MockPaymentGateway) CreateIntent(amountCents int64, currency, orderCode string) (*PaymentIntent, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.failNext {
		m.failNext = false
		return nil, fmt.Errorf("mock gateway: intent creation failed")
	}

	id := "pi_mock_" + uuid.New().String()[:8]
	m.intents[id] = false

	return &PaymentIntent{
		ID:           id,
		ClientSecret: id + "_secret",
		AmountCents:  amountCents,
		Currency:     currency,
	}, nil
}

// VerifyCharge reports the recorded state of an intent. Unknown intents are
// treated as known-but-unpaid so tests can feed arbitrary ids like "pi_123".
func (m *MockPaymentGateway) VerifyCharge(intentID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.failNext {
		m.failNext = false
		return false, fmt.Errorf("mock gateway: unreachable")
	}
	return m.intents[intentID], nil
}

// MarkSucceeded records a successful charge for an intent.
func (m *MockPaymentGateway) MarkSucceeded(intentID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.intents[intentID] = true
}

// FailNext makes the next gateway call return an error.
func (m *MockPaymentGateway) FailNext() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failNext = true
}
