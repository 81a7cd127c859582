// Package rate provides fixed-window request limiting with pluggable
// backing stores.
package rate

import (
	"context"
	"time"
)

// Result is the outcome of a limiter query.
type Result struct {
	Allowed     bool
	Remaining   int64
	RetryAfter  time.Duration
	CurrentHits int64
}

// Limiter is a fixed-window counter. Both backends count whole windows:
// bursts straddling a window boundary can exceed the nominal rate by up to
// 2x. That is an accepted trade-off of the algorithm, not a defect.
type Limiter interface {
	Allow(ctx context.Context, key string, limit int, window time.Duration) (Result, error)
}
