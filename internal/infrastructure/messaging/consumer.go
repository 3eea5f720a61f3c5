package messaging

import (
	"context"
	"errors"
	"io"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/ecom/inventory/internal/infrastructure/config"
)

// HandlerFunc processes one fetched message. Returning an error records the
// failure but does not block the partition; the message is committed either
// way. Handlers are expected to classify poison messages themselves and
// only return errors for conditions worth alerting on.
type HandlerFunc func(ctx context.Context, msg kafka.Message) error

// Consumer runs a Kafka group consumer loop over a single topic. Offsets
// are committed after the handler returns, so a crash mid-message results
// in redelivery (at-least-once).
type Consumer struct {
	reader *kafka.Reader
	handle HandlerFunc
	logger *zap.Logger
}

// NewConsumer creates a group consumer for the given topic
func NewConsumer(cfg config.KafkaConfig, topic string, handler HandlerFunc, logger *zap.Logger) *Consumer {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  cfg.Brokers,
		GroupID:  cfg.ConsumerGroupID,
		Topic:    topic,
		MinBytes: 1,
		MaxBytes: 10e6,
	})

	return &Consumer{
		reader: reader,
		handle: handler,
		logger: logger.Named("consumer").With(zap.String("topic", topic)),
	}
}

// Run fetches and handles messages until the context is cancelled
func (c *Consumer) Run(ctx context.Context) error {
	c.logger.Info("consumer started")
	for {
		msg, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, io.EOF) {
				c.logger.Info("consumer stopped")
				return nil
			}
			return err
		}

		if err := c.handle(ctx, msg); err != nil {
			c.logger.Error("message handler failed",
				zap.Int("partition", msg.Partition),
				zap.Int64("offset", msg.Offset),
				zap.Error(err),
			)
		}

		if err := c.reader.CommitMessages(ctx, msg); err != nil {
			if errors.Is(err, context.Canceled) {
				return nil
			}
			c.logger.Error("failed to commit offset",
				zap.Int("partition", msg.Partition),
				zap.Int64("offset", msg.Offset),
				zap.Error(err),
			)
		}
	}
}

// Close closes the underlying reader
func (c *Consumer) Close() error {
	return c.reader.Close()
}
