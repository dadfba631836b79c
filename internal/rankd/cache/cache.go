// Package cache provides a Redis-backed cache for rank results, collapsing
// concurrent identical requests through singleflight.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"

	"golang.org/x/sync/singleflight"

	"github.com/Karthik-Subramanian-R/Text-Ranking-Relevance-Service/internal/rankd/executor"
	"github.com/Karthik-Subramanian-R/Text-Ranking-Relevance-Service/pkg/config"
	"github.com/Karthik-Subramanian-R/Text-Ranking-Relevance-Service/pkg/metrics"
	pkgredis "github.com/Karthik-Subramanian-R/Text-Ranking-Relevance-Service/pkg/redis"
)

const keyPrefix = "rank:"

// ScoreCache caches RankResult values keyed by the full request shape.
type ScoreCache struct {
	client  *pkgredis.Client
	cfg     config.RedisConfig
	group   singleflight.Group
	metrics *metrics.Metrics
	logger  *slog.Logger
	hits    atomic.Int64
	misses  atomic.Int64
}

// New creates a ScoreCache on top of the given Redis client.
func New(client *pkgredis.Client, cfg config.RedisConfig, m *metrics.Metrics) *ScoreCache {
	return &ScoreCache{
		client:  client,
		cfg:     cfg,
		metrics: m,
		logger:  slog.Default().With("component", "score-cache"),
	}
}

// Request identifies a cacheable rank computation.
type Request struct {
	Query   string
	Kernel  executor.Kernel
	Method  int
	Weights []float32
	Limit   int
}

// Get returns the cached result for req, if present.
func (c *ScoreCache) Get(ctx context.Context, req Request) (*executor.RankResult, bool) {
	key := c.buildKey(req)
	data, err := c.client.Fetch(ctx, key)
	if err != nil {
		if !errors.Is(err, pkgredis.ErrCacheMiss) {
			c.logger.Error("cache fetch failed", "key", key, "error", err)
		}
		c.recordMiss()
		return nil, false
	}
	var result executor.RankResult
	if err := json.Unmarshal(data, &result); err != nil {
		c.logger.Error("cache unmarshal failed", "key", key, "error", err)
		c.recordMiss()
		return nil, false
	}
	c.recordHit()
	return &result, true
}

// Set stores a result for req with the configured TTL.
func (c *ScoreCache) Set(ctx context.Context, req Request, result *executor.RankResult) {
	key := c.buildKey(req)
	data, err := json.Marshal(result)
	if err != nil {
		c.logger.Error("cache marshal failed", "key", key, "error", err)
		return
	}
	if err := c.client.Store(ctx, key, data, c.cfg.CacheTTL); err != nil {
		c.logger.Error("cache store failed", "key", key, "error", err)
	}
}

// GetOrCompute returns the cached result for req or computes and stores it.
// Concurrent callers with the same key share a single computation. The bool
// result reports whether the value came from the cache.
func (c *ScoreCache) GetOrCompute(
	ctx context.Context,
	req Request,
	computeFn func() (*executor.RankResult, error),
) (*executor.RankResult, bool, error) {
	if result, ok := c.Get(ctx, req); ok {
		return result, true, nil
	}
	key := c.buildKey(req)
	val, err, _ := c.group.Do(key, func() (interface{}, error) {
		if result, ok := c.Get(ctx, req); ok {
			return result, nil
		}
		result, err := computeFn()
		if err != nil {
			return nil, err
		}
		c.Set(ctx, req, result)
		return result, nil
	})
	if err != nil {
		return nil, false, err
	}
	return val.(*executor.RankResult), false, nil
}

// Invalidate removes all cached rank results.
func (c *ScoreCache) Invalidate(ctx context.Context) error {
	deleted, err := c.client.Purge(ctx, keyPrefix+"*")
	if err != nil {
		return fmt.Errorf("invalidating score cache: %w", err)
	}
	c.logger.Info("score cache invalidated", "keys_deleted", deleted)
	return nil
}

// Stats returns the hit and miss counts since startup.
func (c *ScoreCache) Stats() (hits, misses int64) {
	return c.hits.Load(), c.misses.Load()
}

func (c *ScoreCache) recordHit() {
	c.hits.Add(1)
	if c.metrics != nil {
		c.metrics.CacheHitsTotal.Inc()
	}
}

func (c *ScoreCache) recordMiss() {
	c.misses.Add(1)
	if c.metrics != nil {
		c.metrics.CacheMissesTotal.Inc()
	}
}

func (c *ScoreCache) buildKey(req Request) string {
	raw := fmt.Sprintf("%s|%s|%d|%v|%d", req.Query, req.Kernel, req.Method, req.Weights, req.Limit)
	hash := sha256.Sum256([]byte(raw))
	return fmt.Sprintf("%s%x", keyPrefix, hash[:16])
}
