package mocks

import (
	"context"
	"sync"

	"github.com/AchilleasB/blood-quest/donation-service/internal/core/ports"
)

// MockEventRecorder implements ports.EventRecorder and keeps every event.
type MockEventRecorder struct {
	mu sync.RWMutex

	Events      []ports.LifecycleEvent
	RecordError error
}

var _ ports.EventRecorder = (*MockEventRecorder)(nil)

func NewMockEventRecorder() *MockEventRecorder {
	return &MockEventRecorder{}
}

func (m *MockEventRecorder) Record(ctx context.Context, evt ports.LifecycleEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.RecordError != nil {
		return m.RecordError
	}
	m.Events = append(m.Events, evt)
	return nil
}

// GetEvents returns a copy of the recorded events.
func (m *MockEventRecorder) GetEvents() []ports.LifecycleEvent {
	m.mu.RLock()
	defer m.mu.RUnlock()
	events := make([]ports.LifecycleEvent, len(m.Events))
	copy(events, m.Events)
	return events
}

// MockLifecycleEventPublisher implements ports.LifecycleEventPublisher for
// testing the outbox relay without a real RabbitMQ connection.
type MockLifecycleEventPublisher struct {
	mu sync.RWMutex

	// Track published events for verification
	PublishedEvents []ports.LifecycleEvent

	// Error injection for testing error scenarios
	PublishError error

	// Track number of calls
	PublishCallCount int
}

var _ ports.LifecycleEventPublisher = (*MockLifecycleEventPublisher)(nil)

func NewMockLifecycleEventPublisher() *MockLifecycleEventPublisher {
	return &MockLifecycleEventPublisher{
		PublishedEvents: make([]ports.LifecycleEvent, 0),
	}
}

func (m *MockLifecycleEventPublisher) PublishLifecycleEvent(ctx context.Context, evt ports.LifecycleEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.PublishCallCount++

	if m.PublishError != nil {
		return m.PublishError
	}

	m.PublishedEvents = append(m.PublishedEvents, evt)
	return nil
}

// GetPublishedEvents returns all events that were published.
func (m *MockLifecycleEventPublisher) GetPublishedEvents() []ports.LifecycleEvent {
	m.mu.RLock()
	defer m.mu.RUnlock()

	events := make([]ports.LifecycleEvent, len(m.PublishedEvents))
	copy(events, m.PublishedEvents)
	return events
}

// GetPublishCount returns the number of times PublishLifecycleEvent was called.
func (m *MockLifecycleEventPublisher) GetPublishCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.PublishCallCount
}

// Reset clears all tracking data.
func (m *MockLifecycleEventPublisher) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.PublishedEvents = make([]ports.LifecycleEvent, 0)
	m.PublishError = nil
	m.PublishCallCount = 0
}
