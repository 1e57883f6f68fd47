// Package events publishes order lifecycle events. Publishing is fire and
// forget on the request path: a broker outage is logged, never surfaced to
// the customer.
package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/rs/zerolog"
	"github.com/segmentio/kafka-go"
)

// Event types emitted on the orders topic.
const (
	EventOrderPlaced   = "order.placed"
	EventPaymentPaid   = "payment.paid"
	EventPaymentFailed = "payment.failed"
)

// OrderEvent is the wire format for order lifecycle events.
type OrderEvent struct {
	Type      string    `json:"type"`
	OrderID   string    `json:"orderId"`
	UserID    string    `json:"userId"`
	Total     float64   `json:"total,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// Publisher publishes order lifecycle events.
type Publisher interface {
	Publish(ctx context.Context, event OrderEvent)
	Close() error
}

// kafkaPublisher implements Publisher on a Kafka topic.
type kafkaPublisher struct {
	writer *kafka.Writer
	logger zerolog.Logger
}

// NewKafkaPublisher creates a Kafka-backed publisher for the given topic.
func NewKafkaPublisher(brokers []string, topic string, logger zerolog.Logger) Publisher {
	writer := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireOne,
	}

	return &kafkaPublisher{
		writer: writer,
		logger: logger.With().Str("component", "event-publisher").Logger(),
	}
}

// Publish writes the event keyed by order id. Errors are logged only.
func (p *kafkaPublisher) Publish(ctx context.Context, event OrderEvent) {
	event.Timestamp = time.Now().UTC()

	payload, err := json.Marshal(event)
	if err != nil {
		p.logger.Error().Err(err).Str("type", event.Type).Msg("failed to encode order event")
		return
	}

	publishCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	err = p.writer.WriteMessages(publishCtx, kafka.Message{
		Key:   []byte(event.OrderID),
		Value: payload,
		Time:  event.Timestamp,
	})
	if err != nil {
		p.logger.Error().
			Err(err).
			Str("type", event.Type).
			Str("order_id", event.OrderID).
			Msg("failed to publish order event")
		return
	}

	p.logger.Debug().
		Str("type", event.Type).
		Str("order_id", event.OrderID).
		Msg("order event published")
}

// Close flushes and closes the underlying writer.
func (p *kafkaPublisher) Close() error {
	return p.writer.Close()
}

// noopPublisher implements Publisher when event publishing is disabled.
type noopPublisher struct{}

// NewNoopPublisher returns a Publisher that discards all events.
func NewNoopPublisher() Publisher {
	return noopPublisher{}
}

func (noopPublisher) Publish(ctx context.Context, event OrderEvent) {}

func (noopPublisher) Close() error { return nil }
