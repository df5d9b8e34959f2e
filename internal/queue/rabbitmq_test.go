package queue

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"eventix/internal/metrics"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/testutil"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeChannel struct {
	exchange string
	key      string
	msg      amqp.Publishing
	err      error
	closed   bool
}

func (f *fakeChannel) PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error {
	f.exchange, f.key, f.msg = exchange, key, msg
	return f.err
}

func (f *fakeChannel) Close() error {
	f.closed = true
	return nil
}

func TestNewPublishing(t *testing.T) {
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	pub, err := newPublishing(RoutingBookingPaid, map[string]int{"booking_id": 11}, now)
	require.NoError(t, err)

	assert.Equal(t, "application/json", pub.ContentType)
	assert.Equal(t, amqp.Persistent, pub.DeliveryMode)
	assert.Equal(t, now, pub.Timestamp)
	_, err = uuid.Parse(pub.MessageId)
	assert.NoError(t, err)

	var msg Message
	require.NoError(t, json.Unmarshal(pub.Body, &msg))
	assert.Equal(t, pub.MessageId, msg.ID)
	assert.Equal(t, RoutingBookingPaid, msg.RoutingKey)
	assert.JSONEq(t, `{"booking_id":11}`, string(msg.Payload))
}

func TestNewPublishing_UnsupportedPayload(t *testing.T) {
	_, err := newPublishing(RoutingBookingPaid, make(chan int), time.Now())
	assert.Error(t, err)
}

func TestPublish(t *testing.T) {
	metrics.EventsPublishedTotal.Reset()
	ch := &fakeChannel{}
	p := &RabbitMQPublisher{ch: ch, exchange: SettlementExchange}

	require.NoError(t, p.Publish(context.Background(), RoutingBookingCancelled, map[string]int{"booking_id": 11}))

	assert.Equal(t, SettlementExchange, ch.exchange)
	assert.Equal(t, RoutingBookingCancelled, ch.key)
	assert.Equal(t, float64(1), testutil.ToFloat64(metrics.EventsPublishedTotal.WithLabelValues(RoutingBookingCancelled, "ok")))
}

func TestPublish_ChannelError(t *testing.T) {
	metrics.EventsPublishedTotal.Reset()
	ch := &fakeChannel{err: errors.New("channel closed")}
	p := &RabbitMQPublisher{ch: ch, exchange: SettlementExchange}

	err := p.Publish(context.Background(), RoutingBookingResized, struct{}{})
	assert.Error(t, err)
	assert.Equal(t, float64(1), testutil.ToFloat64(metrics.EventsPublishedTotal.WithLabelValues(RoutingBookingResized, "error")))
}

func TestClose(t *testing.T) {
	ch := &fakeChannel{}
	p := &RabbitMQPublisher{ch: ch}

	assert.NoError(t, p.Close())
	assert.True(t, ch.closed)
	assert.NoError(t, NopPublisher{}.Publish(context.Background(), RoutingBookingPaid, nil))
}
