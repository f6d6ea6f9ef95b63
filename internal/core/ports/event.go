package ports

import (
	"context"
	"time"
)

// Lifecycle event types recorded in the outbox.
const (
	EventRequestStatusChanged = "donation_request.status_changed"
	EventRequestDonated       = "donation_request.donated"
	EventUserStatusChanged    = "user.status_changed"
	EventUserRoleChanged      = "user.role_changed"
	EventBlogStatusChanged    = "blog.status_changed"
)

type LifecycleEvent struct {
	ID         string    `json:"id"`
	Type       string    `json:"type"`
	ResourceID string    `json:"resource_id"`
	Actor      string    `json:"actor"`
	From       string    `json:"from,omitempty"`
	To         string    `json:"to"`
	OccurredAt time.Time `json:"occurred_at"`
}

// EventRecorder appends lifecycle events to a durable outbox.
type EventRecorder interface {
	Record(ctx context.Context, evt LifecycleEvent) error
}

// LifecycleEventPublisher delivers recorded events to the broker.
type LifecycleEventPublisher interface {
	PublishLifecycleEvent(ctx context.Context, evt LifecycleEvent) error
}
