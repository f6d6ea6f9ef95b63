package services

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/AchilleasB/blood-quest/donation-service/internal/core/ports"
)

// recordEvent appends evt to the outbox. The store write it describes has
// already happened, so a failure here is logged and not returned.
func recordEvent(ctx context.Context, rec ports.EventRecorder, logger *slog.Logger, evt ports.LifecycleEvent) {
	evt.ID = uuid.NewString()
	evt.OccurredAt = time.Now().UTC()
	if err := rec.Record(ctx, evt); err != nil {
		logger.ErrorContext(ctx, "failed to record lifecycle event",
			"type", evt.Type,
			"resource_id", evt.ResourceID,
			"error", err,
		)
	}
}
