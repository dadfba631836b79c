// Package redis backs the rank score cache. The client speaks in byte
// payloads with a cache-miss sentinel, and purges cached results by key
// pattern in batches.
package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Karthik-Subramanian-R/Text-Ranking-Relevance-Service/pkg/config"
	"github.com/redis/go-redis/v9"
)

// ErrCacheMiss is returned by Fetch when the key does not exist.
var ErrCacheMiss = errors.New("cache miss")

// purgeBatch is how many keys a single DEL carries during a pattern purge.
const purgeBatch = 256

// Client wraps a go-redis client for score caching.
type Client struct {
	rdb *redis.Client
}

// NewClient connects to Redis and verifies the connection with a PING.
func NewClient(cfg config.RedisConfig) (*Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		PoolSize:     cfg.PoolSize,
		DialTimeout:  3 * time.Second,
		ReadTimeout:  2 * time.Second,
		WriteTimeout: 2 * time.Second,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}
	return &Client{rdb: rdb}, nil
}

// Fetch returns the payload stored under key, or ErrCacheMiss when absent.
func (c *Client) Fetch(ctx context.Context, key string) ([]byte, error) {
	data, err := c.rdb.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrCacheMiss
		}
		return nil, fmt.Errorf("fetching %s: %w", key, err)
	}
	return data, nil
}

// Store writes a payload under key with the given TTL.
func (c *Client) Store(ctx context.Context, key string, payload []byte, ttl time.Duration) error {
	if err := c.rdb.Set(ctx, key, payload, ttl).Err(); err != nil {
		return fmt.Errorf("storing %s: %w", key, err)
	}
	return nil
}

// Purge scans for keys matching the glob pattern and deletes them in
// batches, returning the number of keys removed.
func (c *Client) Purge(ctx context.Context, pattern string) (int64, error) {
	var deleted int64
	batch := make([]string, 0, purgeBatch)

	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		n, err := c.rdb.Del(ctx, batch...).Result()
		deleted += n
		batch = batch[:0]
		return err
	}

	iter := c.rdb.Scan(ctx, 0, pattern, purgeBatch).Iterator()
	for iter.Next(ctx) {
		batch = append(batch, iter.Val())
		if len(batch) == purgeBatch {
			if err := flush(); err != nil {
				return deleted, fmt.Errorf("purging %s: %w", pattern, err)
			}
		}
	}
	if err := iter.Err(); err != nil {
		return deleted, fmt.Errorf("scanning %s: %w", pattern, err)
	}
	if err := flush(); err != nil {
		return deleted, fmt.Errorf("purging %s: %w", pattern, err)
	}
	return deleted, nil
}

// Ping sends a PING to Redis and returns any error.
func (c *Client) Ping(ctx context.Context) error {
	return c.rdb.Ping(ctx).Err()
}

// Close closes the underlying Redis connection.
func (c *Client) Close() error {
	return c.rdb.Close()
}
