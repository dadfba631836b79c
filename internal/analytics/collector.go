package analytics

import (
	"context"
	"log/slog"

	"github.com/Karthik-Subramanian-R/Text-Ranking-Relevance-Service/pkg/kafka"
	"github.com/Karthik-Subramanian-R/Text-Ranking-Relevance-Service/pkg/metrics"
)

// maxPublishBatch caps how many buffered events a single Kafka write carries.
const maxPublishBatch = 64

// Collector buffers rank events in memory and publishes them to Kafka from a
// background goroutine. Track never blocks the request path; events are
// dropped when the buffer is full. Events that arrive close together are
// coalesced into a single batched write.
type Collector struct {
	producer *kafka.Producer
	eventCh  chan Event
	metrics  *metrics.Metrics
	logger   *slog.Logger
	done     chan struct{}
}

// NewCollector creates a Collector with the given buffer size.
func NewCollector(producer *kafka.Producer, m *metrics.Metrics, bufferSize int) *Collector {
	if bufferSize <= 0 {
		bufferSize = 10000
	}
	return &Collector{
		producer: producer,
		eventCh:  make(chan Event, bufferSize),
		metrics:  m,
		logger:   slog.Default().With("component", "analytics-collector"),
		done:     make(chan struct{}),
	}
}

// Start launches the publishing loop. It runs until ctx is cancelled or the
// event channel is closed via Close.
func (c *Collector) Start(ctx context.Context) {
	go func() {
		defer close(c.done)
		for {
			select {
			case event, ok := <-c.eventCh:
				if !ok {
					return
				}
				c.publish(ctx, c.coalesce(event))
			case <-ctx.Done():
				c.drainRemaining()
				return
			}
		}
	}()
	c.logger.Info("analytics collector started", "buffer_size", cap(c.eventCh))
}

// Track enqueues an event for publishing.
func (c *Collector) Track(event Event) {
	select {
	case c.eventCh <- event:
	default:
		c.logger.Warn("analytics event dropped (buffer full)")
		if c.metrics != nil {
			c.metrics.AnalyticsEventsTotal.WithLabelValues("dropped").Inc()
		}
	}
}

// Close stops accepting events and waits for the publish loop to drain.
func (c *Collector) Close() {
	close(c.eventCh)
	<-c.done
}

// coalesce pulls any further events already waiting in the buffer so they
// ride in the same Kafka write as the one just received.
func (c *Collector) coalesce(first Event) []kafka.Event {
	batch := []kafka.Event{{Kind: first.EventKind(), Key: "rank-analytics", Value: first}}
	for len(batch) < maxPublishBatch {
		select {
		case event, ok := <-c.eventCh:
			if !ok {
				return batch
			}
			batch = append(batch, kafka.Event{Kind: event.EventKind(), Key: "rank-analytics", Value: event})
		default:
			return batch
		}
	}
	return batch
}

func (c *Collector) publish(ctx context.Context, batch []kafka.Event) {
	if len(batch) == 0 {
		return
	}
	if err := c.producer.PublishBatch(ctx, batch); err != nil {
		c.logger.Error("failed to publish analytics events",
			"count", len(batch),
			"error", err,
		)
		if c.metrics != nil {
			c.metrics.AnalyticsEventsTotal.WithLabelValues("failed").Add(float64(len(batch)))
		}
		return
	}
	if c.metrics != nil {
		c.metrics.AnalyticsEventsTotal.WithLabelValues("published").Add(float64(len(batch)))
	}
}

func (c *Collector) drainRemaining() {
	for {
		select {
		case event, ok := <-c.eventCh:
			if !ok {
				return
			}
			c.publish(context.Background(), c.coalesce(event))
		default:
			return
		}
	}
}
