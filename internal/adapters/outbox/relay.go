package outbox

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/lib/pq"
	"github.com/sony/gobreaker"

	"github.com/AchilleasB/blood-quest/donation-service/internal/core/ports"
)

const (
	// PostgreSQL NOTIFY/LISTEN configuration
	listenerMinReconnectInterval = 10 * time.Second
	listenerMaxReconnectInterval = time.Minute
	outboxChannelName            = "outbox_channel"

	// Event processing timeouts
	eventProcessTimeout     = 30 * time.Second
	batchProcessTimeout     = 60 * time.Second
	periodicProcessInterval = 90 * time.Second

	// Health check configuration
	healthCheckStaleThreshold = 5 * time.Minute

	// Batch processing limits
	maxEventsPerBatch = 100
)

// Relay listens for PostgreSQL NOTIFY signals on the outbox_channel
// and publishes lifecycle events to RabbitMQ.
type Relay struct {
	db            *sql.DB
	publisher     ports.LifecycleEventPublisher
	listener      *pq.Listener
	dbURL         string
	dbCB          *gobreaker.CircuitBreaker
	logger        *slog.Logger
	lastProcessed atomic.Int64
	healthy       atomic.Bool
}

func NewRelay(db *sql.DB, dbURL string, publisher ports.LifecycleEventPublisher, dbCB *gobreaker.CircuitBreaker, logger *slog.Logger) *Relay {
	r := &Relay{
		db:        db,
		dbURL:     dbURL,
		publisher: publisher,
		dbCB:      dbCB,
		logger:    logger,
	}
	r.lastProcessed.Store(time.Now().UnixNano())
	r.healthy.Store(true)
	return r
}

// IsHealthy reports whether the relay process is alive and responding.
// An open circuit is degraded but recoverable, so it is not checked here.
func (r *Relay) IsHealthy() bool {
	return r.healthy.Load()
}

// IsReady reports whether the relay can process events.
func (r *Relay) IsReady() bool {
	if r.dbCB.State() == gobreaker.StateOpen {
		return false
	}

	// Check if we've processed something recently (not stuck)
	last := time.Unix(0, r.lastProcessed.Load())
	if time.Since(last) > healthCheckStaleThreshold {
		return false
	}

	return r.IsHealthy()
}

// Start begins listening for outbox notifications and processing events.
// This is a blocking call that runs until the context is cancelled.
func (r *Relay) Start(ctx context.Context) error {
	reportProblem := func(ev pq.ListenerEventType, err error) {
		if err != nil {
			r.logger.Error("outbox listener error", "error", err)
		}
	}

	r.listener = pq.NewListener(r.dbURL, listenerMinReconnectInterval, listenerMaxReconnectInterval, reportProblem)
	defer r.listener.Close()

	if err := r.listener.Listen(outboxChannelName); err != nil {
		return err
	}

	r.logger.Info("outbox relay listening", "channel", outboxChannelName)

	// Catch up on anything written while the relay was down
	if err := r.ProcessUnprocessedEvents(ctx); err != nil {
		r.logger.Error("outbox startup backlog failed", "error", err)
	}

	ticker := time.NewTicker(periodicProcessInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			r.logger.Info("outbox relay shutting down")
			return ctx.Err()

		case notification := <-r.listener.Notify:
			if notification == nil {
				r.logger.Warn("outbox listener reconnecting")
				r.healthy.Store(false)
				continue
			}

			if err := r.ProcessEventByID(ctx, notification.Extra); err != nil {
				r.logger.Error("outbox event failed", "id", notification.Extra, "error", err)
			} else {
				r.markProcessed()
			}

		case <-ticker.C:
			// Keep the connection alive and pick up missed notifications
			go r.listener.Ping()

			if err := r.ProcessUnprocessedEvents(ctx); err != nil {
				r.logger.Error("outbox periodic processing failed", "error", err)
			} else {
				r.markProcessed()
			}
		}
	}
}

func (r *Relay) markProcessed() {
	r.lastProcessed.Store(time.Now().UnixNano())
	r.healthy.Store(true)
}

// ProcessEventByID publishes a single unprocessed event and marks it processed.
func (r *Relay) ProcessEventByID(ctx context.Context, eventID string) error {
	ctx, cancel := context.WithTimeout(ctx, eventProcessTimeout)
	defer cancel()

	_, err := r.dbCB.Execute(func() (interface{}, error) {
		tx, err := r.db.BeginTx(ctx, nil)
		if err != nil {
			return nil, err
		}
		defer tx.Rollback()

		// Lock and fetch the event
		var id string
		var payload []byte
		err = tx.QueryRowContext(ctx, `
			SELECT id, payload
			FROM outbox_events
			WHERE id = $1 AND processed_at IS NULL
			FOR UPDATE SKIP LOCKED`, eventID).Scan(&id, &payload)

		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		if err != nil {
			return nil, err
		}

		if err := r.publish(ctx, id, payload); err != nil {
			return nil, err
		}
		if err := markEventProcessed(ctx, tx, id); err != nil {
			return nil, err
		}
		return nil, tx.Commit()
	})
	return err
}

// ProcessUnprocessedEvents drains up to maxEventsPerBatch pending events in
// creation order. Events that fail to publish stay pending for the next pass.
func (r *Relay) ProcessUnprocessedEvents(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, batchProcessTimeout)
	defer cancel()

	_, err := r.dbCB.Execute(func() (interface{}, error) {
		tx, err := r.db.BeginTx(ctx, nil)
		if err != nil {
			return nil, err
		}
		defer tx.Rollback()

		rows, err := tx.QueryContext(ctx, `
			SELECT id, payload
			FROM outbox_events
			WHERE processed_at IS NULL
			ORDER BY created_at
			LIMIT $1
			FOR UPDATE SKIP LOCKED`, maxEventsPerBatch)
		if err != nil {
			return nil, err
		}

		type record struct {
			ID      string
			Payload []byte
		}

		var records []record
		for rows.Next() {
			var rec record
			if err := rows.Scan(&rec.ID, &rec.Payload); err != nil {
				rows.Close()
				return nil, err
			}
			records = append(records, rec)
		}
		rows.Close()
		if err := rows.Err(); err != nil {
			return nil, err
		}

		for _, rec := range records {
			if err := r.publish(ctx, rec.ID, rec.Payload); err != nil {
				r.logger.Error("outbox publish failed", "id", rec.ID, "error", err)
				continue
			}
			if err := markEventProcessed(ctx, tx, rec.ID); err != nil {
				return nil, err
			}
			r.logger.Debug("outbox event processed", "id", rec.ID)
		}

		return nil, tx.Commit()
	})
	return err
}

// publish decodes and forwards one payload. A payload that does not decode
// is logged and treated as delivered so it is not retried forever.
func (r *Relay) publish(ctx context.Context, id string, payload []byte) error {
	var evt ports.LifecycleEvent
	if err := json.Unmarshal(payload, &evt); err != nil {
		r.logger.Error("outbox payload invalid, skipping", "id", id, "error", err)
		return nil
	}
	return r.publisher.PublishLifecycleEvent(ctx, evt)
}

func markEventProcessed(ctx context.Context, tx *sql.Tx, id string) error {
	_, err := tx.ExecContext(ctx, `UPDATE outbox_events SET processed_at = NOW() WHERE id = $1`, id)
	return err
}
