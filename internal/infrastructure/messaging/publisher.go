package messaging

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/ecom/inventory/internal/domain/inventory"
	"github.com/ecom/inventory/internal/domain/shared"
	"github.com/ecom/inventory/internal/infrastructure/config"
)

// messageWriter is the slice of kafka.Writer the publisher needs
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaPublisher implements inventory.EventPublisher on a Kafka bus. Each
// event goes to its own topic derived from the event name
// (<prefix>.<name>), keyed by the event's partitioning key so all events of
// one SKU stay ordered within a topic.
type KafkaPublisher struct {
	writer          messageWriter
	topicPrefix     string
	maxPayloadBytes int
	logger          *zap.Logger
}

// NewKafkaPublisher creates a publisher for the configured brokers
func NewKafkaPublisher(kafkaCfg config.KafkaConfig, eventCfg config.EventConfig, logger *zap.Logger) *KafkaPublisher {
	writer := &kafka.Writer{
		Addr:                   kafka.TCP(kafkaCfg.Brokers...),
		Balancer:               &kafka.LeastBytes{},
		RequiredAcks:           kafka.RequireAll,
		AllowAutoTopicCreation: true,
	}

	return &KafkaPublisher{
		writer:          writer,
		topicPrefix:     kafkaCfg.TopicPrefix,
		maxPayloadBytes: eventCfg.MaxPayloadBytes,
		logger:          logger.Named("publisher"),
	}
}

// Publish serializes and emits the events. An oversized payload rejects the
// whole call before anything is sent, so a partial batch never reaches the
// bus because of a size violation.
func (p *KafkaPublisher) Publish(ctx context.Context, events ...inventory.Event) error {
	if len(events) == 0 {
		return nil
	}

	msgs := make([]kafka.Message, 0, len(events))
	for _, event := range events {
		payload, err := json.Marshal(event)
		if err != nil {
			return fmt.Errorf("failed to serialize %s event: %w", event.Name(), err)
		}
		if len(payload) > p.maxPayloadBytes {
			p.logger.Error("event payload exceeds size cap",
				zap.String("event", event.Name()),
				zap.Int("size", len(payload)),
				zap.Int("cap", p.maxPayloadBytes),
			)
			return fmt.Errorf("%s event of %d bytes: %w", event.Name(), len(payload), shared.ErrPayloadTooLarge)
		}

		msgs = append(msgs, kafka.Message{
			Topic: p.topicPrefix + "." + event.Name(),
			Key:   []byte(event.Key()),
			Value: payload,
		})
	}

	if err := p.writer.WriteMessages(ctx, msgs...); err != nil {
		return fmt.Errorf("failed to publish events: %w", err)
	}

	for _, event := range events {
		p.logger.Debug("event published",
			zap.String("event", event.Name()),
			zap.String("key", event.Key()),
		)
	}
	return nil
}

// Close flushes and closes the underlying writer
func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}

// Ensure KafkaPublisher implements EventPublisher
var _ inventory.EventPublisher = (*KafkaPublisher)(nil)
