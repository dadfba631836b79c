package analytics

import (
	"context"
	"log/slog"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Karthik-Subramanian-R/Text-Ranking-Relevance-Service/pkg/kafka"
	"github.com/Karthik-Subramanian-R/Text-Ranking-Relevance-Service/pkg/metrics"
)

// AggregatedStats is the snapshot served by the analytics endpoint.
type AggregatedStats struct {
	TotalRanks        int64            `json:"total_ranks"`
	TotalDocsIngested int64            `json:"total_docs_ingested"`
	CacheHits         int64            `json:"cache_hits"`
	CacheMisses       int64            `json:"cache_misses"`
	ZeroResultCount   int64            `json:"zero_result_count"`
	RanksByKernel     map[string]int64 `json:"ranks_by_kernel"`
	AvgLatencyMs      float64          `json:"avg_latency_ms"`
	P50LatencyMs      int64            `json:"p50_latency_ms"`
	P95LatencyMs      int64            `json:"p95_latency_ms"`
	P99LatencyMs      int64            `json:"p99_latency_ms"`
	TopQueries        []QueryCount     `json:"top_queries"`
	ZeroResultQueries []QueryCount     `json:"zero_result_queries"`
	RanksPerMinute    float64          `json:"ranks_per_minute"`
}

// QueryCount pairs a query string with its observed frequency.
type QueryCount struct {
	Query string `json:"query"`
	Count int64  `json:"count"`
}

// Aggregator consumes the rank-events topic and maintains rolling statistics.
type Aggregator struct {
	mu                sync.RWMutex
	totalRanks        atomic.Int64
	totalIngested     atomic.Int64
	cacheHits         atomic.Int64
	cacheMisses       atomic.Int64
	zeroResults       atomic.Int64
	latencies         []int64
	kernelCounts      map[string]int64
	queryCounts       map[string]int64
	zeroResultQueries map[string]int64
	startTime         time.Time

	logger *slog.Logger
}

// NewAggregator creates an empty Aggregator. Feed it by running a consumer
// whose handler comes from HandleEvent.
func NewAggregator() *Aggregator {
	return &Aggregator{
		latencies:         make([]int64, 0, 10000),
		kernelCounts:      make(map[string]int64),
		queryCounts:       make(map[string]int64),
		zeroResultQueries: make(map[string]int64),
		startTime:         time.Now(),
		logger:            slog.Default().With("component", "analytics-aggregator"),
	}
}

// Start runs the given Kafka consumer until ctx is cancelled.
func (a *Aggregator) Start(ctx context.Context, consumer *kafka.Consumer) error {
	a.logger.Info("analytics aggregator starting")
	return consumer.Start(ctx)
}

// HandleEvent returns a kafka.Handler that feeds the aggregator,
// dispatching on the envelope kind. Undecodable payloads are logged and
// skipped so the consumer keeps advancing.
func HandleEvent(agg *Aggregator, m *metrics.Metrics) kafka.Handler {
	consumed := func() {
		if m != nil {
			m.AnalyticsEventsTotal.WithLabelValues("consumed").Inc()
		}
	}
	return func(ctx context.Context, kind string, payload []byte) error {
		switch kind {
		case KindRank:
			event, err := kafka.DecodePayload[RankEvent](payload)
			if err != nil {
				agg.logger.Error("failed to decode rank event", "error", err)
				return nil
			}
			agg.recordRankEvent(event)
			consumed()
		case KindIngest:
			event, err := kafka.DecodePayload[IngestEvent](payload)
			if err != nil {
				agg.logger.Error("failed to decode ingest event", "error", err)
				return nil
			}
			agg.recordIngestEvent(event)
			consumed()
		default:
			agg.logger.Warn("skipping event of unknown kind", "kind", kind)
		}
		return nil
	}
}

func (a *Aggregator) recordRankEvent(event RankEvent) {
	a.totalRanks.Add(1)
	if event.CacheHit {
		a.cacheHits.Add(1)
	} else {
		a.cacheMisses.Add(1)
	}
	if event.TotalMatched == 0 {
		a.zeroResults.Add(1)
	}

	a.mu.Lock()
	a.latencies = append(a.latencies, event.LatencyMs)
	a.kernelCounts[event.Kernel]++
	a.queryCounts[event.Query]++
	if event.TotalMatched == 0 {
		a.zeroResultQueries[event.Query]++
	}
	a.mu.Unlock()
}

func (a *Aggregator) recordIngestEvent(event IngestEvent) {
	a.totalIngested.Add(1)
}

// Stats returns a consistent snapshot of the aggregated statistics.
func (a *Aggregator) Stats() AggregatedStats {
	a.mu.RLock()
	defer a.mu.RUnlock()

	stats := AggregatedStats{
		TotalRanks:        a.totalRanks.Load(),
		TotalDocsIngested: a.totalIngested.Load(),
		CacheHits:         a.cacheHits.Load(),
		CacheMisses:       a.cacheMisses.Load(),
		ZeroResultCount:   a.zeroResults.Load(),
		RanksByKernel:     make(map[string]int64, len(a.kernelCounts)),
	}
	for kernel, count := range a.kernelCounts {
		stats.RanksByKernel[kernel] = count
	}
	if len(a.latencies) > 0 {
		sorted := make([]int64, len(a.latencies))
		copy(sorted, a.latencies)
		sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })

		var sum int64
		for _, l := range sorted {
			sum += l
		}
		stats.AvgLatencyMs = float64(sum) / float64(len(sorted))
		stats.P50LatencyMs = percentile(sorted, 50)
		stats.P95LatencyMs = percentile(sorted, 95)
		stats.P99LatencyMs = percentile(sorted, 99)
	}
	stats.TopQueries = topN(a.queryCounts, 10)
	stats.ZeroResultQueries = topN(a.zeroResultQueries, 10)
	elapsed := time.Since(a.startTime).Minutes()
	if elapsed > 0 {
		stats.RanksPerMinute = float64(stats.TotalRanks) / elapsed
	}
	return stats
}

func percentile(sorted []int64, pct int) int64 {
	if len(sorted) == 0 {
		return 0
	}
	idx := (pct * len(sorted)) / 100
	if idx >= len(sorted) {
		idx = len(sorted) - 1
	}
	return sorted[idx]
}

func topN(counts map[string]int64, n int) []QueryCount {
	result := make([]QueryCount, 0, len(counts))
	for query, count := range counts {
		result = append(result, QueryCount{Query: query, Count: count})
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].Count != result[j].Count {
			return result[i].Count > result[j].Count
		}
		return result[i].Query < result[j].Query
	})
	if len(result) > n {
		result = result[:n]
	}
	return result
}
