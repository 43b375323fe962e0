package services

import (
	"context"
	"encoding/json"
	"time"

	"order-entry-service/models"
	"order-entry-service/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// AdmissionChecker is the slice of the queue the checkout flow needs: has
// this token been admitted, and remove its entry once it is done.
type AdmissionChecker interface {
	IsAllowed(ctx context.Context, token string) (bool, error)
	Remove(ctx context.Context, token string) error
}

// CheckoutService turns an admitted shopper's cart into a committed order
// plus its stock-update outbox rows.
type CheckoutService struct {
	orders repository.OrderRepository
	carts  CartStore
	queue  AdmissionChecker
	logger *zap.Logger
}

func NewCheckoutService(orders repository.OrderRepository, carts CartStore, queue AdmissionChecker, logger *zap.Logger) *CheckoutService {
	return &CheckoutService{
		orders: orders,
		carts:  carts,
		queue:  queue,
		logger: logger,
	}
}

// PlaceOrder writes the order and one stock-update outbox row per cart line
// in a single transaction. On commit the cart and queue entry are cleaned up
// best-effort; the relay worker publishes the outbox rows afterwards. On any
// transaction failure nothing is published and the cart is left intact for
// retry.
func (s *CheckoutService) PlaceOrder(ctx context.Context, token string) (*models.Order, *ServiceError) {
	allowed, err := s.queue.IsAllowed(ctx, token)
	if err != nil {
		s.logger.Error("Admission check failed", zap.String("token", token), zap.Error(err))
		return nil, &ServiceError{StatusCode: 503, Message: "Checkout is temporarily unavailable"}
	}
	if !allowed {
		return nil, &ServiceError{StatusCode: 409, Message: "Not admitted to checkout; join the queue first"}
	}

	cart, err := s.carts.GetCart(ctx, token)
	if err != nil {
		s.logger.Error("Cart read failed during checkout", zap.String("token", token), zap.Error(err))
		return nil, &ServiceError{StatusCode: 503, Message: "Checkout is temporarily unavailable"}
	}
	if len(cart.Lines) == 0 {
		return nil, &ServiceError{StatusCode: 400, Message: "Cart is empty"}
	}

	order := &models.Order{
		ID:          uuid.New(),
		UserID:      token,
		TotalAmount: cart.TotalAmount,
		Status:      models.OrderStatusPlaced,
		CreatedAt:   time.Now(),
	}

	events := make([]models.OutboxEvent, 0, len(cart.Lines))
	for _, line := range cart.Lines {
		order.OrderItems = append(order.OrderItems, models.OrderItem{
			ID:        uuid.New(),
			OrderID:   order.ID,
			ProductID: line.ProductID,
			OptionID:  line.OptionID,
			UnitPrice: line.UnitPrice,
			Quantity:  line.Quantity,
		})

		eventID := uuid.New()
		payload, err := json.Marshal(models.StockUpdateMessage{
			EventID:       eventID.String(),
			ProductCode:   line.ProductID,
			OptionCode:    line.OptionID,
			QuantityDelta: -line.Quantity,
			Timestamp:     order.CreatedAt,
		})
		if err != nil {
			s.logger.Error("Failed to marshal stock update", zap.String("token", token), zap.Error(err))
			return nil, &ServiceError{StatusCode: 500, Message: "Failed to place order"}
		}

		events = append(events, models.OutboxEvent{
			ID:        eventID,
			OrderID:   order.ID,
			EventType: models.EventTypeStockUpdated,
			Payload:   payload,
			Status:    models.OutboxStatusPending,
			CreatedAt: order.CreatedAt,
		})
	}

	if err := s.orders.CreateWithOutbox(ctx, order, events); err != nil {
		s.logger.Error("Order transaction failed", zap.String("token", token), zap.Error(err))
		return nil, &ServiceError{StatusCode: 500, Message: "Failed to place order"}
	}

	// The order is committed; cleanup failures must not surface as checkout
	// failures. The reaper reclaims anything left behind.
	if err := s.carts.ClearCart(ctx, token); err != nil {
		s.logger.Warn("Cart cleanup failed after checkout", zap.String("token", token), zap.Error(err))
	}
	if err := s.queue.Remove(ctx, token); err != nil {
		s.logger.Warn("Queue cleanup failed after checkout", zap.String("token", token), zap.Error(err))
	}

	s.logger.Info("Order placed",
		zap.String("order_id", order.ID.String()),
		zap.String("token", token),
		zap.Int("lines", len(cart.Lines)),
		zap.Int64("total", order.TotalAmount),
	)
	return order, nil
}
