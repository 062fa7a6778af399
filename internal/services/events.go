package services

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/segmentio/kafka-go"
)

// OrderEvent is published to the order events topic on lifecycle changes.
type OrderEvent struct {
	Type        string    `json:"type"`
	OrderID     string    `json:"order_id"`
	OrderNumber string    `json:"order_number"`
	Total       float64   `json:"total"`
	OccurredAt  time.Time `json:"occurred_at"`
}

// EventPublisher emits order lifecycle events to Kafka. A nil publisher is
// valid and drops all events, so brokers stay optional in configuration.
type EventPublisher struct {
	writer *kafka.Writer
}

// NewEventPublisher builds a publisher for the given brokers and topic.
// Returns nil when no brokers are configured.
func NewEventPublisher(brokers []string, topic string) *EventPublisher {
	if len(brokers) == 0 {
		return nil
	}

	return &EventPublisher{
		writer: &kafka.Writer{
			Addr:     kafka.TCP(brokers...),
			Topic:    topic,
			Balancer: &kafka.LeastBytes{},
		},
	}
}

// Publish sends an event, logging failures instead of surfacing them; event
// delivery is best-effort and never blocks an order flow outcome.
func (p *EventPublisher) Publish(ctx context.Context, event OrderEvent) {
	if p == nil || p.writer == nil {
		return
	}

	if event.OccurredAt.IsZero() {
		event.OccurredAt = time.Now()
	}

	value, err := json.Marshal(event)
	if err != nil {
		log.Printf("[Events] marshal order event: %v", err)
		return
	}

	if err := p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(event.OrderID),
		Value: value,
	}); err != nil {
		log.Printf("[Events] publish %s for order %s: %v", event.Type, event.OrderNumber, err)
	}
}

// Close flushes and closes the underlying writer.
func (p *EventPublisher) Close() error {
	if p == nil || p.writer == nil {
		return nil
	}
	return p.writer.Close()
}
