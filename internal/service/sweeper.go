package service

import (
	"context"
	"log/slog"
	"time"
)

type expiringCache interface {
	CleanExpired(ctx context.Context) (int64, error)
}

// CacheSweeper periodically removes expired idempotency entries so replay
// lookups stay bounded.
type CacheSweeper struct {
	cache    expiringCache
	logger   *slog.Logger
	interval time.Duration
}

func NewCacheSweeper(cache expiringCache, logger *slog.Logger, interval time.Duration) *CacheSweeper {
	return &CacheSweeper{
		cache:    cache,
		logger:   logger,
		interval: interval,
	}
}

// Start blocks until ctx is cancelled.
func (s *CacheSweeper) Start(ctx context.Context) {
	s.logger.Info("idempotency sweeper started", "interval", s.interval)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("idempotency sweeper stopped")
			return
		case <-ticker.C:
			s.sweep(ctx)
		}
	}
}

func (s *CacheSweeper) sweep(ctx context.Context) {
	removed, err := s.cache.CleanExpired(ctx)
	if err != nil {
		s.logger.Error("failed to clean idempotency cache", "error", err)
		return
	}
	if removed > 0 {
		s.logger.Debug("idempotency cache cleaned", "removed", removed)
	}
}
