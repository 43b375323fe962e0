package workers

import (
	"context"
	"encoding/json"
	"time"

	"order-entry-service/kafka"
	"order-entry-service/models"
	"order-entry-service/repository"

	"go.uber.org/zap"
)

// OutboxRelay delivers committed-but-unpublished stock updates to the bus.
// Rows are only ever visible here after their order transaction committed,
// so nothing is published for a rollback. Publish failures leave the row
// pending; the next tick retries, which makes delivery at-least-once.
type OutboxRelay struct {
	orders     repository.OrderRepository
	publisher  kafka.StockPublisher
	batchSize  int
	interval   time.Duration
	maxRetries int
	logger     *zap.Logger
}

func NewOutboxRelay(
	orders repository.OrderRepository,
	publisher kafka.StockPublisher,
	batchSize int,
	interval time.Duration,
	maxRetries int,
	logger *zap.Logger,
) *OutboxRelay {
	return &OutboxRelay{
		orders:     orders,
		publisher:  publisher,
		batchSize:  batchSize,
		interval:   interval,
		maxRetries: maxRetries,
		logger:     logger,
	}
}

// Run loops until the context is cancelled.
func (r *OutboxRelay) Run(ctx context.Context) {
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

// Tick publishes one batch of pending outbox rows in creation order.
func (r *OutboxRelay) Tick(ctx context.Context) {
	events, err := r.orders.FetchPendingEvents(ctx, r.batchSize)
	if err != nil {
		r.logger.Warn("Outbox poll skipped", zap.Error(err))
		return
	}

	for _, event := range events {
		if err := r.publish(ctx, event); err != nil {
			r.logger.Error("Stock update publish failed",
				zap.String("event_id", event.ID.String()),
				zap.Int("retries", event.Retries+1),
				zap.Error(err),
			)
			if markErr := r.orders.MarkEventFailed(ctx, event.ID, err.Error(), r.maxRetries); markErr != nil {
				r.logger.Warn("Failed to record publish failure",
					zap.String("event_id", event.ID.String()), zap.Error(markErr))
			}
			continue
		}

		if err := r.orders.MarkEventProcessed(ctx, event.ID); err != nil {
			// The message went out; the row stays pending and will be
			// published again. Consumers deduplicate on event ID.
			r.logger.Warn("Failed to mark outbox event processed",
				zap.String("event_id", event.ID.String()), zap.Error(err))
		}
	}
}

func (r *OutboxRelay) publish(ctx context.Context, event models.OutboxEvent) error {
	var msg models.StockUpdateMessage
	key := event.OrderID.String()
	if err := json.Unmarshal(event.Payload, &msg); err == nil && msg.ProductCode != "" {
		key = msg.ProductCode
	}
	return r.publisher.Publish(ctx, key, event.Payload)
}
