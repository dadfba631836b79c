package resilience

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"time"
)

// RetryConfig controls attempt count and backoff shape. Delays double each
// attempt, capped at CapDelay, with +/-JitterFraction of random spread.
type RetryConfig struct {
	MaxAttempts    int
	BaseDelay      time.Duration
	CapDelay       time.Duration
	JitterFraction float64
}

func (cfg RetryConfig) withDefaults() RetryConfig {
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 3
	}
	if cfg.BaseDelay <= 0 {
		cfg.BaseDelay = 100 * time.Millisecond
	}
	if cfg.CapDelay <= 0 {
		cfg.CapDelay = 10 * time.Second
	}
	if cfg.JitterFraction <= 0 {
		cfg.JitterFraction = 0.1
	}
	return cfg
}

type permanentError struct{ err error }

func (e *permanentError) Error() string { return e.err.Error() }
func (e *permanentError) Unwrap() error { return e.err }

// Permanent marks err as not worth retrying. Retry returns it immediately,
// unwrapped. Use it for failures more attempts cannot fix, such as an open
// circuit breaker or invalid input.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &permanentError{err: err}
}

// Retry runs fn up to cfg.MaxAttempts times with exponential backoff,
// stopping early when fn succeeds, returns a Permanent error, or ctx is
// cancelled. fn receives ctx so in-flight work is cancelled with the retry.
func Retry(ctx context.Context, op string, cfg RetryConfig, fn func(ctx context.Context) error) error {
	cfg = cfg.withDefaults()
	logger := slog.Default().With("component", "retry", "operation", op)

	var lastErr error
	for attempt := 1; ; attempt++ {
		lastErr = fn(ctx)
		if lastErr == nil {
			if attempt > 1 {
				logger.Info("succeeded after retry", "attempt", attempt)
			}
			return nil
		}
		var perm *permanentError
		if errors.As(lastErr, &perm) {
			return perm.err
		}
		if attempt >= cfg.MaxAttempts {
			return fmt.Errorf("%s failed after %d attempts: %w", op, cfg.MaxAttempts, lastErr)
		}
		if ctx.Err() != nil {
			return fmt.Errorf("%s retry aborted: %w", op, ctx.Err())
		}

		delay := backoffDelay(attempt, cfg)
		logger.Warn("attempt failed, backing off",
			"attempt", attempt,
			"max_attempts", cfg.MaxAttempts,
			"delay", delay,
			"error", lastErr,
		)
		timer := time.NewTimer(delay)
		select {
		case <-timer.C:
		case <-ctx.Done():
			timer.Stop()
			return fmt.Errorf("%s retry aborted during backoff: %w", op, ctx.Err())
		}
	}
}

func backoffDelay(attempt int, cfg RetryConfig) time.Duration {
	delay := cfg.BaseDelay << (attempt - 1)
	if delay > cfg.CapDelay || delay <= 0 {
		delay = cfg.CapDelay
	}
	spread := float64(delay) * cfg.JitterFraction * (2*rand.Float64() - 1)
	delay += time.Duration(spread)
	if delay < cfg.BaseDelay/2 {
		delay = cfg.BaseDelay / 2
	}
	return delay
}
