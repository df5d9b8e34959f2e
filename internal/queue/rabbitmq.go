package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"eventix/internal/logger"
	"eventix/internal/metrics"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
)

const SettlementExchange = "eventix.settlement"

// Routing keys for settlement events.
const (
	RoutingBookingPaid         = "booking.paid"
	RoutingBookingResized      = "booking.resized"
	RoutingBookingCancelled    = "booking.cancelled"
	RoutingWalletPaid          = "wallet.paid"
	RoutingWalletRefunded      = "wallet.refunded"
	RoutingTopUpConfirmed      = "wallet.topup_confirmed"
	RoutingReconciliationIssue = "settlement.reconciliation_issue"
)

// Message is the envelope every settlement event is published in.
type Message struct {
	ID         string          `json:"id"`
	RoutingKey string          `json:"routing_key"`
	OccurredAt time.Time       `json:"occurred_at"`
	Payload    json.RawMessage `json:"payload"`
}

type Publisher interface {
	Publish(ctx context.Context, routingKey string, payload any) error
	Close() error
}

type channel interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Close() error
}

type RabbitMQPublisher struct {
	conn     *amqp.Connection
	ch       channel
	exchange string
}

// NewRabbitMQPublisher dials url and declares the durable topic exchange
// settlement events are published to.
func NewRabbitMQPublisher(url string) (*RabbitMQPublisher, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}

	err = ch.ExchangeDeclare(
		SettlementExchange,
		"topic",
		true,  // durable
		false, // auto-deleted
		false, // internal
		false, // no-wait
		nil,
	)
	if err != nil {
		ch.Close()
		conn.Close()
		return nil, fmt.Errorf("failed to declare exchange: %w", err)
	}

	logger.Info("connected to RabbitMQ", "exchange", SettlementExchange)
	return &RabbitMQPublisher{conn: conn, ch: ch, exchange: SettlementExchange}, nil
}

func (p *RabbitMQPublisher) Publish(ctx context.Context, routingKey string, payload any) error {
	pub, err := newPublishing(routingKey, payload, time.Now().UTC())
	if err != nil {
		metrics.RecordPublish(routingKey, "error")
		return err
	}

	if err := p.ch.PublishWithContext(ctx, p.exchange, routingKey, false, false, pub); err != nil {
		metrics.RecordPublish(routingKey, "error")
		return fmt.Errorf("failed to publish message: %w", err)
	}

	metrics.RecordPublish(routingKey, "ok")
	logger.Debug("settlement event published", "routing_key", routingKey, "message_id", pub.MessageId)
	return nil
}

func (p *RabbitMQPublisher) Close() error {
	if p.ch != nil {
		p.ch.Close()
	}
	if p.conn != nil {
		return p.conn.Close()
	}
	return nil
}

func newPublishing(routingKey string, payload any, now time.Time) (amqp.Publishing, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return amqp.Publishing{}, fmt.Errorf("failed to marshal payload: %w", err)
	}

	msg := Message{
		ID:         uuid.NewString(),
		RoutingKey: routingKey,
		OccurredAt: now,
		Payload:    raw,
	}
	body, err := json.Marshal(msg)
	if err != nil {
		return amqp.Publishing{}, fmt.Errorf("failed to marshal message: %w", err)
	}

	return amqp.Publishing{
		ContentType:  "application/json",
		MessageId:    msg.ID,
		Timestamp:    now,
		DeliveryMode: amqp.Persistent,
		Body:         body,
	}, nil
}

// NopPublisher drops every event. It is used when RABBITMQ_URL is empty.
type NopPublisher struct{}

func (NopPublisher) Publish(ctx context.Context, routingKey string, payload any) error {
	return nil
}

func (NopPublisher) Close() error { return nil }
