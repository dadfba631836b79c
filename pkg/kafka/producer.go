// Package kafka moves rank-pipeline events between the service and its
// analytics consumers. Every message on the wire is an envelope carrying a
// kind discriminator and a JSON payload, so consumers dispatch on kind
// instead of probing payload shapes.
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

// Event is one rank-pipeline event to publish. Kind discriminates the
// payload type on the consumer side; Key selects the partition.
type Event struct {
	Kind  string
	Key   string
	Value any
}

// envelope is the wire format shared by producer and consumer.
type envelope struct {
	Kind      string          `json:"kind"`
	EmittedAt time.Time       `json:"emitted_at"`
	Payload   json.RawMessage `json:"payload"`
}

// Producer publishes enveloped events to a single topic.
type Producer struct {
	writer *kafka.Writer
	logger *slog.Logger
}

// NewProducer creates a Producer for the given topic.
func NewProducer(cfg config.KafkaConfig, topic string) *Producer {
	w := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		BatchSize:    100,
		BatchTimeout: 10 * time.Millisecond,
		MaxAttempts:  3,
		RequiredAcks: kafka.RequireAll,
		Async:        false,
	}
	return &Producer{
		writer: w,
		logger: slog.Default().With("component", "kafka-producer", "topic", topic),
	}
}

func seal(event Event) (kafka.Message, error) {
	payload, err := json.Marshal(event.Value)
	if err != nil {
		return kafka.Message{}, fmt.Errorf("marshaling %s payload: %w", event.Kind, err)
	}
	value, err := json.Marshal(envelope{
		Kind:      event.Kind,
		EmittedAt: time.Now().UTC(),
		Payload:   payload,
	})
	if err != nil {
		return kafka.Message{}, fmt.Errorf("marshaling %s envelope: %w", event.Kind, err)
	}
	return kafka.Message{Key: []byte(event.Key), Value: value}, nil
}

// Publish seals one event into an envelope and writes it synchronously.
func (p *Producer) Publish(ctx context.Context, event Event) error {
	msg, err := seal(event)
	if err != nil {
		return err
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		p.logger.Error("failed to publish event", "kind", event.Kind, "key", event.Key, "error", err)
		return fmt.Errorf("publishing %s event: %w", event.Kind, err)
	}
	p.logger.Debug("event published", "kind", event.Kind, "key", event.Key, "size", len(msg.Value))
	return nil
}

// PublishBatch seals and writes a batch of events in one Kafka write.
func (p *Producer) PublishBatch(ctx context.Context, events []Event) error {
	messages := make([]kafka.Message, 0, len(events))
	for _, event := range events {
		msg, err := seal(event)
		if err != nil {
			return err
		}
		messages = append(messages, msg)
	}
	if err := p.writer.WriteMessages(ctx, messages...); err != nil {
		p.logger.Error("failed to publish batch", "count", len(messages), "error", err)
		return fmt.Errorf("publishing event batch: %w", err)
	}
	p.logger.Debug("batch published", "count", len(messages))
	return nil
}

// Close flushes pending writes and closes the underlying writer.
func (p *Producer) Close() error {
	return p.writer.Close()
}
