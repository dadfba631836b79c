package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/Karthik-Subramanian-R/Text-Ranking-Relevance-Service/pkg/config"
	"github.com/segmentio/kafka-go"
)

// fetchBackoff is how long the consume loop waits after a fetch error
// before trying the broker again.
const fetchBackoff = time.Second

// Handler processes one decoded envelope. kind is the event discriminator
// written by the producer; payload is the raw event JSON. Returning an
// error leaves the message uncommitted so it is redelivered.
type Handler func(ctx context.Context, kind string, payload []byte) error

// Consumer reads enveloped events from a topic and dispatches them to a
// Handler. Messages whose envelope does not decode are committed and
// skipped so one malformed event cannot wedge the partition.
type Consumer struct {
	reader  *kafka.Reader
	logger  *slog.Logger
	handler Handler
}

// NewConsumer creates a Consumer for the given topic and handler.
func NewConsumer(cfg config.KafkaConfig, topic string, handler Handler) *Consumer {
	r := kafka.NewReader(kafka.ReaderConfig{
		Brokers:     cfg.Brokers,
		Topic:       topic,
		GroupID:     cfg.ConsumerGroup,
		MinBytes:    1e3,
		MaxBytes:    10e6,
		StartOffset: kafka.LastOffset,
	})
	return &Consumer{
		reader:  r,
		logger:  slog.Default().With("component", "kafka-consumer", "topic", topic),
		handler: handler,
	}
}

// Start runs the consume loop until ctx is cancelled.
func (c *Consumer) Start(ctx context.Context) error {
	c.logger.Info("consumer started")
	for {
		msg, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				c.logger.Info("consumer stopping", "reason", ctx.Err())
				return c.reader.Close()
			}
			c.logger.Error("fetch failed, backing off", "error", err, "backoff", fetchBackoff)
			select {
			case <-time.After(fetchBackoff):
				continue
			case <-ctx.Done():
				return c.reader.Close()
			}
		}

		var env envelope
		if err := json.Unmarshal(msg.Value, &env); err != nil || env.Kind == "" {
			c.logger.Warn("skipping message without a valid envelope",
				"partition", msg.Partition,
				"offset", msg.Offset,
				"error", err,
			)
			c.commit(ctx, msg)
			continue
		}

		if err := c.handler(ctx, env.Kind, env.Payload); err != nil {
			c.logger.Error("handler failed, leaving uncommitted",
				"kind", env.Kind,
				"partition", msg.Partition,
				"offset", msg.Offset,
				"error", err,
			)
			continue
		}
		c.commit(ctx, msg)
	}
}

func (c *Consumer) commit(ctx context.Context, msg kafka.Message) {
	if err := c.reader.CommitMessages(ctx, msg); err != nil {
		c.logger.Error("commit failed",
			"partition", msg.Partition,
			"offset", msg.Offset,
			"error", err,
		)
	}
}

// Close closes the underlying Kafka reader.
func (c *Consumer) Close() error {
	return c.reader.Close()
}

// DecodePayload unmarshals an envelope payload into T.
func DecodePayload[T any](payload []byte) (T, error) {
	var result T
	if err := json.Unmarshal(payload, &result); err != nil {
		return result, fmt.Errorf("decoding event payload: %w", err)
	}
	return result, nil
}
