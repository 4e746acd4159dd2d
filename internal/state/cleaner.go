package state

import (
	"context"
	"log/slog"
	"time"
)

// Cleaner periodically evicts expired pending conversions from the storage.
// The original deployment never evicted abandoned conversations, which leaks
// one map entry per chat that walked away mid-conversion.
type Cleaner struct {
	storage  Storage
	log      *slog.Logger
	interval time.Duration
}

// NewCleaner constructs a Cleaner instance.
func NewCleaner(storage Storage, log *slog.Logger, interval time.Duration) *Cleaner {
	if log == nil {
		log = slog.Default()
	}
	if interval <= 0 {
		interval = 5 * time.Minute
	}

	return &Cleaner{
		storage:  storage,
		log:      log,
		interval: interval,
	}
}

// Run starts the eviction loop until the context is cancelled.
func (c *Cleaner) Run(ctx context.Context) {
	if c == nil || c.storage == nil {
		return
	}

	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			c.log.Info("state cleaner stopped", slog.Any("reason", ctx.Err()))
			return
		case <-ticker.C:
			evicted, err := c.storage.EvictExpired(ctx)
			if err != nil {
				c.log.Error("state cleaner eviction failed", slog.Any("error", err))
				continue
			}
			if evicted > 0 {
				c.log.Info("evicted abandoned pending conversions", slog.Int("count", evicted))
			}
		}
	}
}
