package models

import (
	"time"

	"github.com/google/uuid"
)

// OrderStatus values for the order row.
const (
	OrderStatusPlaced = "placed"
)

// Order is the committed order record.
type Order struct {
	ID          uuid.UUID   `gorm:"type:uuid;primaryKey" json:"id"`
	UserID      string      `gorm:"index;not null" json:"user_id"`
	TotalAmount int64       `gorm:"not null" json:"total_amount"`
	Status      string      `gorm:"not null" json:"status"`
	OrderItems  []OrderItem `gorm:"foreignKey:OrderID" json:"items"`
	CreatedAt   time.Time   `json:"created_at"`
}

// OrderItem is one purchased product/option line of an order.
type OrderItem struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	OrderID   uuid.UUID `gorm:"type:uuid;index;not null" json:"order_id"`
	ProductID string    `gorm:"not null" json:"product_id"`
	OptionID  string    `gorm:"not null" json:"option_id"`
	UnitPrice int64     `gorm:"not null" json:"unit_price"`
	Quantity  int64     `gorm:"not null" json:"quantity"`
}

// Outbox event statuses.
const (
	OutboxStatusPending   = "pending"
	OutboxStatusProcessed = "processed"
	OutboxStatusFailed    = "failed"
)

// OutboxEvent is a stock-update fact recorded in the same transaction as the
// order that produced it. The relay worker publishes pending rows to the bus
// and marks them processed, so a crash between commit and publish only delays
// delivery instead of dropping it.
type OutboxEvent struct {
	ID          uuid.UUID  `gorm:"type:uuid;primaryKey"`
	OrderID     uuid.UUID  `gorm:"type:uuid;index;not null"`
	EventType   string     `gorm:"not null"`
	Payload     []byte     `gorm:"not null"`
	Status      string     `gorm:"index;not null"`
	Retries     int        `gorm:"not null;default:0"`
	LastError   string
	ProcessedAt *time.Time
	CreatedAt   time.Time `gorm:"index"`
}

// EventTypeStockUpdated identifies stock-decrement outbox rows.
const EventTypeStockUpdated = "stock.updated"

// StockUpdateMessage is the payload published to the stock topic. Consumers
// deduplicate on EventID; delivery is at-least-once.
type StockUpdateMessage struct {
	EventID       string    `json:"event_id"`
	ProductCode   string    `json:"product_code"`
	OptionCode    string    `json:"option_code"`
	QuantityDelta int64     `json:"quantity_delta"`
	Timestamp     time.Time `json:"timestamp"`
}
