// Package messaging connects the application layer to Kafka: publishing
// domain events and dispatching consumed messages to use cases.
package messaging

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/altbank/pix-lifecycle/internal/domain/port"
	"github.com/altbank/pix-lifecycle/pkg/events"
	"github.com/altbank/pix-lifecycle/pkg/kafka"
)

// Compile-time interface check.
var _ port.EventPublisher = (*KafkaPublisher)(nil)

// KafkaPublisher implements port.EventPublisher on top of the shared Kafka
// producer. Messages are keyed by aggregate id so events for the same entity
// land on the same partition in order.
type KafkaPublisher struct {
	producer *kafka.Producer
	logger   *slog.Logger
}

// NewKafkaPublisher creates a new Kafka event publisher.
func NewKafkaPublisher(producer *kafka.Producer, logger *slog.Logger) *KafkaPublisher {
	return &KafkaPublisher{producer: producer, logger: logger}
}

// Publish sends domain events to the given topic.
func (p *KafkaPublisher) Publish(ctx context.Context, topic string, evts ...events.DomainEvent) error {
	messages := make([]kafka.Message, 0, len(evts))
	for _, evt := range evts {
		payload, err := json.Marshal(evt)
		if err != nil {
			return fmt.Errorf("failed to marshal event %s: %w", evt.EventType(), err)
		}
		messages = append(messages, kafka.Message{
			Key:   []byte(evt.AggregateID().String()),
			Value: payload,
		})
	}

	if err := p.producer.Publish(ctx, topic, messages...); err != nil {
		publishFailuresTotal.WithLabelValues(topic).Inc()
		return err
	}

	for _, evt := range evts {
		eventsPublishedTotal.WithLabelValues(topic, evt.EventType()).Inc()
		p.logger.Debug("event published",
			"topic", topic,
			"event_type", evt.EventType(),
			"aggregate_id", evt.AggregateID(),
		)
	}
	return nil
}
