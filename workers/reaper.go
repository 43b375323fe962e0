package workers

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// EvictStore is the queue operation the reaper drives.
type EvictStore interface {
	EvictStale(ctx context.Context, olderThan time.Time) (int64, error)
}

// Reaper evicts queue entries whose clients stopped polling, reclaiming
// slots from abandoned sessions. Runs at a coarser cadence than the
// admitter; the two never coordinate beyond the store's own atomicity.
type Reaper struct {
	store    EvictStore
	entryTTL time.Duration
	interval time.Duration
	logger   *zap.Logger
}

func NewReaper(store EvictStore, entryTTL, interval time.Duration, logger *zap.Logger) *Reaper {
	return &Reaper{
		store:    store,
		entryTTL: entryTTL,
		interval: interval,
		logger:   logger,
	}
}

// Run loops until the context is cancelled.
func (r *Reaper) Run(ctx context.Context) {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.Tick(ctx)
		}
	}
}

// Tick runs one eviction round.
func (r *Reaper) Tick(ctx context.Context) {
	evicted, err := r.store.EvictStale(ctx, time.Now().Add(-r.entryTTL))
	if err != nil {
		r.logger.Warn("Eviction tick skipped", zap.Error(err))
		return
	}
	if evicted > 0 {
		r.logger.Info("Evicted stale queue entries", zap.Int64("count", evicted))
	}
}
