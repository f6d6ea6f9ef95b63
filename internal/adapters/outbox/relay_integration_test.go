//go:build integration

package outbox_test

import (
	"context"
	"database/sql"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	_ "github.com/lib/pq"
	"github.com/stretchr/testify/suite"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"

	"github.com/AchilleasB/blood-quest/donation-service/internal/adapters/outbox"
	"github.com/AchilleasB/blood-quest/donation-service/internal/adapters/repository"
	"github.com/AchilleasB/blood-quest/donation-service/internal/config"
	"github.com/AchilleasB/blood-quest/donation-service/internal/core/ports"
	"github.com/AchilleasB/blood-quest/donation-service/internal/mocks"
)

type RelaySuite struct {
	suite.Suite
	container *tcpostgres.PostgresContainer
	db        *sql.DB
	dbURL     string
	logger    *slog.Logger

	recorder  *repository.SQLOutboxRepository
	publisher *mocks.MockLifecycleEventPublisher
	relay     *outbox.Relay
}

func TestRelaySuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(RelaySuite))
}

func (s *RelaySuite) SetupSuite() {
	ctx := context.Background()
	s.logger = slog.New(slog.NewTextHandler(io.Discard, nil))

	container, err := tcpostgres.Run(ctx, "postgres:16-alpine",
		tcpostgres.WithDatabase("outbox"),
		tcpostgres.WithUsername("outbox"),
		tcpostgres.WithPassword("outbox"),
		tcpostgres.BasicWaitStrategies(),
	)
	s.Require().NoError(err, "start postgres container")
	s.container = container

	s.dbURL, err = container.ConnectionString(ctx, "sslmode=disable")
	s.Require().NoError(err)

	s.db, err = sql.Open("postgres", s.dbURL)
	s.Require().NoError(err)
	s.Require().NoError(s.db.PingContext(ctx))

	s.recorder = repository.NewSQLOutboxRepository(s.db, config.NewCircuitBreaker(config.BreakerPostgres, s.logger, nil))
	s.Require().NoError(s.recorder.EnsureSchema(ctx))
	// Schema creation is idempotent.
	s.Require().NoError(s.recorder.EnsureSchema(ctx))
}

func (s *RelaySuite) TearDownSuite() {
	ctx := context.Background()
	if s.db != nil {
		_ = s.db.Close()
	}
	if s.container != nil {
		_ = s.container.Terminate(ctx)
	}
}

func (s *RelaySuite) SetupTest() {
	_, err := s.db.Exec("TRUNCATE outbox_events")
	s.Require().NoError(err)

	s.publisher = mocks.NewMockLifecycleEventPublisher()
	s.relay = outbox.NewRelay(s.db, s.dbURL, s.publisher,
		config.NewCircuitBreaker(config.BreakerRelayPostgres, s.logger, nil), s.logger)
}

func (s *RelaySuite) recordEvent(to string) ports.LifecycleEvent {
	evt := ports.LifecycleEvent{
		ID:         uuid.NewString(),
		Type:       ports.EventRequestStatusChanged,
		ResourceID: "65f1a2b3c4d5e6f708091a2b",
		Actor:      "volunteer@example.com",
		From:       "pending",
		To:         to,
		OccurredAt: time.Now().UTC(),
	}
	s.Require().NoError(s.recorder.Record(context.Background(), evt))
	return evt
}

func (s *RelaySuite) pending() int {
	var n int
	err := s.db.QueryRow("SELECT COUNT(*) FROM outbox_events WHERE processed_at IS NULL").Scan(&n)
	s.Require().NoError(err)
	return n
}

func (s *RelaySuite) TestProcessUnprocessedEvents() {
	first := s.recordEvent("inprogress")
	second := s.recordEvent("done")
	s.Equal(2, s.pending())

	s.Require().NoError(s.relay.ProcessUnprocessedEvents(context.Background()))

	events := s.publisher.GetPublishedEvents()
	s.Require().Len(events, 2)
	s.Equal(first.ID, events[0].ID)
	s.Equal(second.ID, events[1].ID)
	s.Equal("done", events[1].To)
	s.Zero(s.pending())

	// A second pass finds nothing left to publish.
	s.Require().NoError(s.relay.ProcessUnprocessedEvents(context.Background()))
	s.Equal(2, s.publisher.GetPublishCount())
}

func (s *RelaySuite) TestProcessEventByID() {
	evt := s.recordEvent("canceled")

	s.Require().NoError(s.relay.ProcessEventByID(context.Background(), evt.ID))
	s.Require().Len(s.publisher.GetPublishedEvents(), 1)
	s.Zero(s.pending())

	// Already processed: no second delivery.
	s.Require().NoError(s.relay.ProcessEventByID(context.Background(), evt.ID))
	s.Equal(1, s.publisher.GetPublishCount())
}

func (s *RelaySuite) TestFailedPublishStaysPending() {
	s.recordEvent("inprogress")
	s.publisher.PublishError = context.DeadlineExceeded

	s.Require().NoError(s.relay.ProcessUnprocessedEvents(context.Background()))
	s.Equal(1, s.pending())

	s.publisher.PublishError = nil
	s.Require().NoError(s.relay.ProcessUnprocessedEvents(context.Background()))
	s.Zero(s.pending())
	s.Len(s.publisher.GetPublishedEvents(), 1)
}

func (s *RelaySuite) TestStartDeliversNotifiedEvents() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- s.relay.Start(ctx) }()

	// Give the listener time to subscribe before writing.
	time.Sleep(500 * time.Millisecond)
	evt := s.recordEvent("done")

	s.Eventually(func() bool {
		for _, got := range s.publisher.GetPublishedEvents() {
			if got.ID == evt.ID {
				return true
			}
		}
		return false
	}, 10*time.Second, 100*time.Millisecond)

	cancel()
	s.ErrorIs(<-done, context.Canceled)
}
