package workers

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// AdmitStore is the queue operation the admitter drives.
type AdmitStore interface {
	AdmitBatch(ctx context.Context, maxCount int) (int64, error)
}

// Admitter promotes a bounded number of waiting shoppers per tick. A store
// error skips the tick; the next one retries.
type Admitter struct {
	store     AdmitStore
	batchSize int
	interval  time.Duration
	logger    *zap.Logger
}

func NewAdmitter(store AdmitStore, batchSize int, interval time.Duration, logger *zap.Logger) *Admitter {
	return &Admitter{
		store:     store,
		batchSize: batchSize,
		interval:  interval,
		logger:    logger,
	}
}

// Run loops until the context is cancelled.
func (a *Admitter) Run(ctx context.Context) {
	ticker := time.NewTicker(a.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			a.Tick(ctx)
		}
	}
}

// Tick runs one admission round.
func (a *Admitter) Tick(ctx context.Context) {
	admitted, err := a.store.AdmitBatch(ctx, a.batchSize)
	if err != nil {
		a.logger.Warn("Admission tick skipped", zap.Error(err))
		return
	}
	if admitted > 0 {
		a.logger.Info("Admitted shoppers", zap.Int64("count", admitted))
	}
}
