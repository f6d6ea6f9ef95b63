package mocks

import (
	"sync"

	"github.com/AchilleasB/blood-quest/donation-service/internal/core/ports"
)

// Decision is one recorded authorization outcome.
type Decision struct {
	Action  string
	Allowed bool
}

// MockMetrics implements ports.Metrics and keeps every observation.
type MockMetrics struct {
	mu sync.Mutex

	Decisions      []Decision
	Transitions    []string
	PaymentIntents []string
}

var _ ports.Metrics = (*MockMetrics)(nil)

func NewMockMetrics() *MockMetrics {
	return &MockMetrics{}
}

func (m *MockMetrics) AuthorizationDecision(action string, allowed bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Decisions = append(m.Decisions, Decision{Action: action, Allowed: allowed})
}

// LifecycleTransition records "resource:to".
func (m *MockMetrics) LifecycleTransition(resource, to string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Transitions = append(m.Transitions, resource+":"+to)
}

func (m *MockMetrics) PaymentIntent(outcome string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.PaymentIntents = append(m.PaymentIntents, outcome)
}
