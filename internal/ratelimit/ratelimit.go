// Package ratelimit implements fixed-window request counting. Counters live
// in Redis when configured so every API instance shares one budget, and in
// process memory otherwise.
package ratelimit

import (
	"context"
	"time"
)

type Result struct {
	Limit      int
	Remaining  int
	ResetAfter time.Duration
	Allowed    bool
}

type Limiter interface {
	Allow(ctx context.Context, key string) (Result, error)
}

func newResult(limit int, count int64, resetAfter time.Duration) Result {
	remaining := limit - int(count)
	if remaining < 0 {
		remaining = 0
	}
	return Result{
		Limit:      limit,
		Remaining:  remaining,
		ResetAfter: resetAfter,
		Allowed:    count <= int64(limit),
	}
}
