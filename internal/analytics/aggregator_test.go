package analytics

import (
	"context"
	"encoding/json"
	"testing"
	"time"
)

func rankEventJSON(t *testing.T, event RankEvent) []byte {
	t.Helper()
	data, err := json.Marshal(event)
	if err != nil {
		t.Fatalf("marshaling event: %v", err)
	}
	return data
}

func TestAggregatorRecordsRankEvents(t *testing.T) {
	agg := NewAggregator()
	handle := HandleEvent(agg, nil)
	ctx := context.Background()

	events := []RankEvent{
		{Type: EventCacheMiss, Query: "cat & dog", Kernel: "standard", TotalMatched: 3, LatencyMs: 10},
		{Type: EventCacheHit, Query: "cat & dog", Kernel: "standard", TotalMatched: 3, LatencyMs: 1, CacheHit: true},
		{Type: EventCacheMiss, Query: "fish", Kernel: "cover_density", TotalMatched: 0, LatencyMs: 20},
	}
	for _, event := range events {
		if err := handle(ctx, KindRank, rankEventJSON(t, event)); err != nil {
			t.Fatalf("handle: %v", err)
		}
	}

	stats := agg.Stats()
	if stats.TotalRanks != 3 {
		t.Errorf("TotalRanks = %d, want 3", stats.TotalRanks)
	}
	if stats.CacheHits != 1 || stats.CacheMisses != 2 {
		t.Errorf("cache hits/misses = %d/%d, want 1/2", stats.CacheHits, stats.CacheMisses)
	}
	if stats.ZeroResultCount != 1 {
		t.Errorf("ZeroResultCount = %d, want 1", stats.ZeroResultCount)
	}
	if stats.RanksByKernel["standard"] != 2 || stats.RanksByKernel["cover_density"] != 1 {
		t.Errorf("RanksByKernel = %v", stats.RanksByKernel)
	}
	if len(stats.TopQueries) == 0 || stats.TopQueries[0].Query != "cat & dog" {
		t.Errorf("TopQueries = %v", stats.TopQueries)
	}
	if len(stats.ZeroResultQueries) != 1 || stats.ZeroResultQueries[0].Query != "fish" {
		t.Errorf("ZeroResultQueries = %v", stats.ZeroResultQueries)
	}
}

func TestAggregatorRecordsIngestEvents(t *testing.T) {
	agg := NewAggregator()
	handle := HandleEvent(agg, nil)

	event := IngestEvent{Type: EventIngest, DocumentID: "d1", LexemeCount: 4, Timestamp: time.Now()}
	data, err := json.Marshal(event)
	if err != nil {
		t.Fatalf("marshaling event: %v", err)
	}
	if err := handle(context.Background(), KindIngest, data); err != nil {
		t.Fatalf("handle: %v", err)
	}

	stats := agg.Stats()
	if stats.TotalDocsIngested != 1 {
		t.Errorf("TotalDocsIngested = %d, want 1", stats.TotalDocsIngested)
	}
	if stats.TotalRanks != 0 {
		t.Errorf("TotalRanks = %d, want 0", stats.TotalRanks)
	}
}

func TestAggregatorSkipsUndecodableEvents(t *testing.T) {
	agg := NewAggregator()
	handle := HandleEvent(agg, nil)

	if err := handle(context.Background(), KindRank, []byte("not json")); err != nil {
		t.Fatalf("handle should swallow decode errors, got %v", err)
	}
	if err := handle(context.Background(), "unknown-kind", []byte(`{}`)); err != nil {
		t.Fatalf("handle should skip unknown kinds, got %v", err)
	}
	if stats := agg.Stats(); stats.TotalRanks != 0 || stats.TotalDocsIngested != 0 {
		t.Errorf("stats = %+v, want all zero", stats)
	}
}

func TestAggregatorLatencyPercentiles(t *testing.T) {
	agg := NewAggregator()
	for i := 1; i <= 100; i++ {
		agg.recordRankEvent(RankEvent{Query: "q", Kernel: "standard", TotalMatched: 1, LatencyMs: int64(i)})
	}

	stats := agg.Stats()
	if stats.P50LatencyMs != 51 {
		t.Errorf("P50 = %d, want 51", stats.P50LatencyMs)
	}
	if stats.P95LatencyMs != 96 {
		t.Errorf("P95 = %d, want 96", stats.P95LatencyMs)
	}
	if stats.P99LatencyMs != 100 {
		t.Errorf("P99 = %d, want 100", stats.P99LatencyMs)
	}
	if stats.AvgLatencyMs != 50.5 {
		t.Errorf("Avg = %v, want 50.5", stats.AvgLatencyMs)
	}
}

func TestTopNOrdersByCountThenQuery(t *testing.T) {
	counts := map[string]int64{"b": 2, "a": 2, "c": 5, "d": 1}
	result := topN(counts, 3)
	if len(result) != 3 {
		t.Fatalf("len = %d, want 3", len(result))
	}
	if result[0].Query != "c" || result[1].Query != "a" || result[2].Query != "b" {
		t.Errorf("order = %v", result)
	}
}
