package kafka

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/heartcheck/heartcheck/internal/domain/event"
	"github.com/heartcheck/heartcheck/internal/domain/port"
	"github.com/heartcheck/heartcheck/pkg/events"
	pkgkafka "github.com/heartcheck/heartcheck/pkg/kafka"
)

// MessageProducer is satisfied by *pkgkafka.Producer.
type MessageProducer interface {
	Publish(ctx context.Context, topic string, messages ...pkgkafka.Message) error
}

// Topics routes event types to topics.
type Topics struct {
	Training string
	Alerts   string
}

func (t Topics) forType(eventType string) string {
	if eventType == event.EventTypeHighRiskPredicted {
		return t.Alerts
	}
	return t.Training
}

// Publisher implements port.EventPublisher using Kafka.
type Publisher struct {
	producer MessageProducer
	topics   Topics
	logger   *slog.Logger
}

var _ port.EventPublisher = (*Publisher)(nil)

// NewPublisher creates a new Kafka event publisher.
func NewPublisher(producer MessageProducer, topics Topics, logger *slog.Logger) *Publisher {
	return &Publisher{producer: producer, topics: topics, logger: logger}
}

// Publish sends domain events to Kafka, one envelope per message, keyed by
// aggregate so a run's events stay ordered.
func (p *Publisher) Publish(ctx context.Context, domainEvents ...events.DomainEvent) error {
	byTopic := make(map[string][]pkgkafka.Message)
	for _, evt := range domainEvents {
		eventType := evt.EventType()

		payload, err := events.Marshal(evt)
		if err != nil {
			return fmt.Errorf("failed to marshal event %s: %w", eventType, err)
		}

		topic := p.topics.forType(eventType)
		p.logger.DebugContext(ctx, "publishing event",
			slog.String("event_type", eventType),
			slog.String("topic", topic),
			slog.Int("payload_size", len(payload)),
		)

		byTopic[topic] = append(byTopic[topic], pkgkafka.Message{
			Key:   []byte(evt.AggregateID().String()),
			Value: payload,
			Headers: map[string]string{
				"event_type": eventType,
			},
		})
	}

	for topic, messages := range byTopic {
		if err := p.producer.Publish(ctx, topic, messages...); err != nil {
			return fmt.Errorf("failed to publish events to topic %s: %w", topic, err)
		}
	}
	return nil
}

// LogPublisher records events in the log when no broker is configured.
type LogPublisher struct {
	logger *slog.Logger
}

var _ port.EventPublisher = (*LogPublisher)(nil)

// NewLogPublisher creates a LogPublisher.
func NewLogPublisher(logger *slog.Logger) *LogPublisher {
	return &LogPublisher{logger: logger}
}

func (p *LogPublisher) Publish(ctx context.Context, domainEvents ...events.DomainEvent) error {
	for _, evt := range domainEvents {
		p.logger.InfoContext(ctx, "domain event",
			slog.String("event_type", evt.EventType()),
			slog.String("aggregate_id", evt.AggregateID().String()),
		)
	}
	return nil
}
