package messaging

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/sony/gobreaker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AchilleasB/blood-quest/donation-service/internal/config"
	"github.com/AchilleasB/blood-quest/donation-service/internal/core/ports"
)

type published struct {
	exchange string
	key      string
	msg      amqp.Publishing
}

type fakeChannel struct {
	mu      sync.Mutex
	err     error
	closed  bool
	publish []published
}

func (f *fakeChannel) PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.publish = append(f.publish, published{exchange: exchange, key: key, msg: msg})
	return nil
}

func (f *fakeChannel) Close() error {
	f.closed = true
	return nil
}

func newTestBroker(ch *fakeChannel) *RabbitMQBroker {
	return &RabbitMQBroker{
		ch:        ch,
		queueName: "donation.lifecycle",
		cb:        config.NewCircuitBreaker(config.BreakerRabbitMQ, nil, nil),
	}
}

func lifecycleEvent() ports.LifecycleEvent {
	return ports.LifecycleEvent{
		ID:         "3f1c8a52-7a0e-4c55-9b1f-0d1c2e3f4a5b",
		Type:       "donation_request.status_changed",
		ResourceID: "65f1a2b3c4d5e6f708091a2b",
		Actor:      "volunteer@example.com",
		From:       "pending",
		To:         "inprogress",
		OccurredAt: time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC),
	}
}

func TestPublishLifecycleEvent(t *testing.T) {
	ch := &fakeChannel{}
	broker := newTestBroker(ch)
	evt := lifecycleEvent()

	require.NoError(t, broker.PublishLifecycleEvent(context.Background(), evt))
	require.Len(t, ch.publish, 1)

	got := ch.publish[0]
	assert.Equal(t, "", got.exchange)
	assert.Equal(t, "donation.lifecycle", got.key)
	assert.Equal(t, "application/json", got.msg.ContentType)
	assert.Equal(t, amqp.Persistent, got.msg.DeliveryMode)
	assert.Equal(t, evt.ID, got.msg.MessageId)
	assert.Equal(t, evt.Type, got.msg.Type)
	assert.True(t, evt.OccurredAt.Equal(got.msg.Timestamp))

	var body ports.LifecycleEvent
	require.NoError(t, json.Unmarshal(got.msg.Body, &body))
	assert.Equal(t, evt.ResourceID, body.ResourceID)
	assert.Equal(t, evt.From, body.From)
	assert.Equal(t, evt.To, body.To)
	assert.Equal(t, evt.Actor, body.Actor)
}

func TestPublishLifecycleEvent_ExpiredContext(t *testing.T) {
	ch := &fakeChannel{}
	broker := newTestBroker(ch)

	ctx, cancel := context.WithDeadline(context.Background(), time.Now().Add(-time.Second))
	defer cancel()

	err := broker.PublishLifecycleEvent(ctx, lifecycleEvent())
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Empty(t, ch.publish)
}

func TestPublishLifecycleEvent_ChannelError(t *testing.T) {
	channelErr := errors.New("channel/connection is not open")
	ch := &fakeChannel{err: channelErr}
	broker := newTestBroker(ch)

	err := broker.PublishLifecycleEvent(context.Background(), lifecycleEvent())
	assert.ErrorIs(t, err, channelErr)
}

func TestPublishLifecycleEvent_BreakerOpensAfterRepeatedFailures(t *testing.T) {
	ch := &fakeChannel{err: errors.New("connection reset")}
	broker := newTestBroker(ch)

	for i := 0; i < 3; i++ {
		require.Error(t, broker.PublishLifecycleEvent(context.Background(), lifecycleEvent()))
	}

	ch.err = nil
	err := broker.PublishLifecycleEvent(context.Background(), lifecycleEvent())
	assert.ErrorIs(t, err, gobreaker.ErrOpenState)
	assert.Empty(t, ch.publish)
}

func TestClose(t *testing.T) {
	ch := &fakeChannel{}
	broker := newTestBroker(ch)

	require.NoError(t, broker.Close())
	assert.True(t, ch.closed)
}
