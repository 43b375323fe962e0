package repository

import (
	"context"
	"time"

	"order-entry-service/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// OrderRepository defines the persistence surface for orders and their
// transactional outbox rows.
type OrderRepository interface {
	CreateWithOutbox(ctx context.Context, order *models.Order, events []models.OutboxEvent) error
	FetchPendingEvents(ctx context.Context, limit int) ([]models.OutboxEvent, error)
	MarkEventProcessed(ctx context.Context, eventID uuid.UUID) error
	MarkEventFailed(ctx context.Context, eventID uuid.UUID, lastError string, maxRetries int) error
}

// GormOrderRepository implements OrderRepository using GORM.
type GormOrderRepository struct {
	db *gorm.DB
}

func NewGormOrderRepository(db *gorm.DB) OrderRepository {
	return &GormOrderRepository{db: db}
}

// CreateWithOutbox writes the order, its items, and the stock-update outbox
// rows in a single transaction. Either everything commits or nothing does,
// so an outbox row can never describe an order that rolled back.
func (r *GormOrderRepository) CreateWithOutbox(ctx context.Context, order *models.Order, events []models.OutboxEvent) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(order).Error; err != nil {
			return err
		}
		if len(events) > 0 {
			if err := tx.Create(&events).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

// FetchPendingEvents returns undelivered outbox rows in creation order.
func (r *GormOrderRepository) FetchPendingEvents(ctx context.Context, limit int) ([]models.OutboxEvent, error) {
	var events []models.OutboxEvent
	err := r.db.WithContext(ctx).
		Where("status = ?", models.OutboxStatusPending).
		Order("created_at ASC").
		Limit(limit).
		Find(&events).Error
	if err != nil {
		return nil, err
	}
	return events, nil
}

// MarkEventProcessed records a successful publish.
func (r *GormOrderRepository) MarkEventProcessed(ctx context.Context, eventID uuid.UUID) error {
	now := time.Now()
	return r.db.WithContext(ctx).
		Model(&models.OutboxEvent{}).
		Where("id = ?", eventID).
		Updates(map[string]interface{}{
			"status":       models.OutboxStatusProcessed,
			"processed_at": &now,
		}).Error
}

// MarkEventFailed bumps the retry count and records the error. Once the
// count passes maxRetries the row is marked failed and the relay stops
// retrying it; until then it stays pending for the next tick.
func (r *GormOrderRepository) MarkEventFailed(ctx context.Context, eventID uuid.UUID, lastError string, maxRetries int) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var event models.OutboxEvent
		if err := tx.Where("id = ?", eventID).First(&event).Error; err != nil {
			return err
		}

		event.Retries++
		event.LastError = lastError
		if event.Retries >= maxRetries {
			event.Status = models.OutboxStatusFailed
		}

		return tx.Save(&event).Error
	})
}
