package resilience

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// WithDeadline runs fn under a context that expires after limit. A limit of
// zero or less runs fn with ctx unchanged. fn must honor context
// cancellation; on expiry its own error is translated into a named
// deadline error so callers can tell a scoring timeout from a caller
// disconnect.
func WithDeadline(ctx context.Context, limit time.Duration, op string, fn func(ctx context.Context) error) error {
	if limit <= 0 {
		return fn(ctx)
	}
	dctx, cancel := context.WithTimeout(ctx, limit)
	defer cancel()

	err := fn(dctx)
	if err == nil {
		return nil
	}
	if errors.Is(dctx.Err(), context.DeadlineExceeded) && ctx.Err() == nil {
		return fmt.Errorf("%s exceeded %v: %w", op, limit, context.DeadlineExceeded)
	}
	return err
}
