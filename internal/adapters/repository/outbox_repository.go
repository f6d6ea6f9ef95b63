package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/sony/gobreaker"

	"github.com/AchilleasB/blood-quest/donation-service/internal/core/domain"
	"github.com/AchilleasB/blood-quest/donation-service/internal/core/ports"
)

// outboxSchema creates the outbox table and the trigger that announces each
// new row on outbox_channel with the row id as payload.
const outboxSchema = `
CREATE TABLE IF NOT EXISTS outbox_events (
	id           UUID PRIMARY KEY,
	event_type   TEXT        NOT NULL,
	resource_id  TEXT        NOT NULL,
	payload      JSONB       NOT NULL,
	created_at   TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	processed_at TIMESTAMPTZ
);

CREATE INDEX IF NOT EXISTS outbox_events_unprocessed
	ON outbox_events (created_at) WHERE processed_at IS NULL;

CREATE OR REPLACE FUNCTION notify_outbox_event() RETURNS trigger AS $$
BEGIN
	PERFORM pg_notify('outbox_channel', NEW.id::text);
	RETURN NEW;
END;
$$ LANGUAGE plpgsql;

DROP TRIGGER IF EXISTS outbox_events_notify ON outbox_events;
CREATE TRIGGER outbox_events_notify
	AFTER INSERT ON outbox_events
	FOR EACH ROW EXECUTE FUNCTION notify_outbox_event();
`

// SQLOutboxRepository appends lifecycle events to the Postgres outbox that
// cmd/relay drains into RabbitMQ.
type SQLOutboxRepository struct {
	db *sql.DB
	cb *gobreaker.CircuitBreaker
}

var _ ports.EventRecorder = (*SQLOutboxRepository)(nil)

func NewSQLOutboxRepository(db *sql.DB, cb *gobreaker.CircuitBreaker) *SQLOutboxRepository {
	return &SQLOutboxRepository{db: db, cb: cb}
}

func (r *SQLOutboxRepository) EnsureSchema(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, outboxSchema); err != nil {
		return fmt.Errorf("create outbox schema: %w", err)
	}
	return nil
}

func (r *SQLOutboxRepository) Record(ctx context.Context, evt ports.LifecycleEvent) error {
	payload, err := json.Marshal(evt)
	if err != nil {
		return err
	}

	_, err = r.cb.Execute(func() (interface{}, error) {
		return r.db.ExecContext(ctx,
			"INSERT INTO outbox_events (id, event_type, resource_id, payload, created_at) VALUES ($1, $2, $3, $4, $5)",
			evt.ID,
			evt.Type,
			evt.ResourceID,
			payload,
			evt.OccurredAt,
		)
	})
	if err != nil {
		return domain.Upstream("outbox unavailable", err)
	}
	return nil
}

func (r *SQLOutboxRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}
