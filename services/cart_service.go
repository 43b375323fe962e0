package services

import (
	"context"

	"order-entry-service/models"

	"go.uber.org/zap"
)

// CartStore is the cart storage surface the service depends on.
type CartStore interface {
	IncrementLine(ctx context.Context, token, productID, optionID string, unitPrice int64) error
	DecrementLine(ctx context.Context, token, productID, optionID string) error
	RemoveLine(ctx context.Context, token, productID, optionID string) error
	GetCart(ctx context.Context, token string) (*models.Cart, error)
	ClearCart(ctx context.Context, token string) error
}

// CartService handles the shopper's in-progress basket.
type CartService struct {
	store  CartStore
	logger *zap.Logger
}

func NewCartService(store CartStore, logger *zap.Logger) *CartService {
	return &CartService{store: store, logger: logger}
}

// AddItem increments the line by one, creating it with the given price
// snapshot on first add, and returns the recomputed cart.
func (s *CartService) AddItem(ctx context.Context, token, productID, optionID string, unitPrice int64) (*models.Cart, *ServiceError) {
	if productID == "" || optionID == "" {
		return nil, &ServiceError{StatusCode: 400, Message: "product_id and option_id are required"}
	}
	if unitPrice < 0 {
		return nil, &ServiceError{StatusCode: 400, Message: "unit_price must not be negative"}
	}

	if err := s.store.IncrementLine(ctx, token, productID, optionID, unitPrice); err != nil {
		s.logger.Error("Failed to add cart item",
			zap.String("token", token), zap.String("product_id", productID), zap.Error(err))
		return nil, &ServiceError{StatusCode: 503, Message: "Cart is temporarily unavailable"}
	}
	return s.readCart(ctx, token)
}

// DecrementItem removes one unit from the line; the line disappears instead
// of ever holding a zero or negative quantity.
func (s *CartService) DecrementItem(ctx context.Context, token, productID, optionID string) (*models.Cart, *ServiceError) {
	if productID == "" || optionID == "" {
		return nil, &ServiceError{StatusCode: 400, Message: "product_id and option_id are required"}
	}

	if err := s.store.DecrementLine(ctx, token, productID, optionID); err != nil {
		s.logger.Error("Failed to decrement cart item",
			zap.String("token", token), zap.String("product_id", productID), zap.Error(err))
		return nil, &ServiceError{StatusCode: 503, Message: "Cart is temporarily unavailable"}
	}
	return s.readCart(ctx, token)
}

// RemoveItem deletes the line outright; removing an absent line succeeds.
func (s *CartService) RemoveItem(ctx context.Context, token, productID, optionID string) (*models.Cart, *ServiceError) {
	if err := s.store.RemoveLine(ctx, token, productID, optionID); err != nil {
		s.logger.Error("Failed to remove cart item",
			zap.String("token", token), zap.String("product_id", productID), zap.Error(err))
		return nil, &ServiceError{StatusCode: 503, Message: "Cart is temporarily unavailable"}
	}
	return s.readCart(ctx, token)
}

// GetCart returns the current cart; a user with no cart gets an empty one.
func (s *CartService) GetCart(ctx context.Context, token string) (*models.Cart, *ServiceError) {
	return s.readCart(ctx, token)
}

// ClearCart empties the whole cart.
func (s *CartService) ClearCart(ctx context.Context, token string) *ServiceError {
	if err := s.store.ClearCart(ctx, token); err != nil {
		s.logger.Error("Failed to clear cart", zap.String("token", token), zap.Error(err))
		return &ServiceError{StatusCode: 503, Message: "Cart is temporarily unavailable"}
	}
	return nil
}

func (s *CartService) readCart(ctx context.Context, token string) (*models.Cart, *ServiceError) {
	cart, err := s.store.GetCart(ctx, token)
	if err != nil {
		s.logger.Error("Failed to read cart", zap.String("token", token), zap.Error(err))
		return nil, &ServiceError{StatusCode: 503, Message: "Cart is temporarily unavailable"}
	}
	return cart, nil
}
