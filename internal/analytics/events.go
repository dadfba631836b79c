// Package analytics publishes rank events to Kafka and aggregates them into
// latency and query statistics served over HTTP.
package analytics

import "time"

// Envelope kinds used on the rank-events topic.
const (
	KindRank   = "rank"
	KindIngest = "ingest"
)

// Event is anything the Collector can publish.
type Event interface {
	EventKind() string
}

type EventType string

const (
	EventRank      EventType = "rank"
	EventCacheHit  EventType = "cache_hit"
	EventCacheMiss EventType = "cache_miss"
	EventIngest    EventType = "ingest_document"
)

// RankEvent records one rank request as observed at the HTTP layer.
type RankEvent struct {
	Type         EventType `json:"type"`
	Query        string    `json:"query"`
	Kernel       string    `json:"kernel"`
	Method       int       `json:"method"`
	TotalMatched int       `json:"total_matched"`
	Returned     int       `json:"returned"`
	LatencyMs    int64     `json:"latency_ms"`
	CacheHit     bool      `json:"cache_hit"`
	Timestamp    time.Time `json:"timestamp"`
	RequestID    string    `json:"request_id"`
}

func (RankEvent) EventKind() string { return KindRank }

// IngestEvent records one document accepted through the ingest endpoint.
type IngestEvent struct {
	Type        EventType `json:"type"`
	DocumentID  string    `json:"document_id"`
	LexemeCount int       `json:"lexeme_count"`
	Timestamp   time.Time `json:"timestamp"`
}

func (IngestEvent) EventKind() string { return KindIngest }
