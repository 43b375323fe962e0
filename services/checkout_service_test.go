package services_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"order-entry-service/models"
	"order-entry-service/services"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// --- Mock order repository ---

type mockOrderRepo struct {
	orders  []*models.Order
	events  []models.OutboxEvent
	failing bool
}

func (m *mockOrderRepo) CreateWithOutbox(_ context.Context, order *models.Order, events []models.OutboxEvent) error {
	if m.failing {
		return errors.New("deadlock detected")
	}
	m.orders = append(m.orders, order)
	m.events = append(m.events, events...)
	return nil
}

func (m *mockOrderRepo) FetchPendingEvents(_ context.Context, limit int) ([]models.OutboxEvent, error) {
	if limit > len(m.events) {
		limit = len(m.events)
	}
	return m.events[:limit], nil
}

func (m *mockOrderRepo) MarkEventProcessed(_ context.Context, _ uuid.UUID) error { return nil }

func (m *mockOrderRepo) MarkEventFailed(_ context.Context, _ uuid.UUID, _ string, _ int) error {
	return nil
}

// --- Mock admission checker ---

type mockAdmission struct {
	allowed map[string]bool
	removed []string
	failing bool
}

func (m *mockAdmission) IsAllowed(_ context.Context, token string) (bool, error) {
	if m.failing {
		return false, errors.New("connection refused")
	}
	return m.allowed[token], nil
}

func (m *mockAdmission) Remove(_ context.Context, token string) error {
	m.removed = append(m.removed, token)
	return nil
}

func newCheckoutService(orders *mockOrderRepo, carts services.CartStore, queue *mockAdmission) *services.CheckoutService {
	logger, _ := zap.NewDevelopment()
	return services.NewCheckoutService(orders, carts, queue, logger)
}

// --- Tests ---

func TestCheckout_RejectsUnadmittedShopper(t *testing.T) {
	orders := &mockOrderRepo{}
	carts := newMockCartStore()
	queue := &mockAdmission{allowed: map[string]bool{}}
	svc := newCheckoutService(orders, carts, queue)

	_, svcErr := svc.PlaceOrder(context.Background(), "user1")
	require.NotNil(t, svcErr)
	assert.Equal(t, 409, svcErr.StatusCode)
	assert.Empty(t, orders.orders)
}

func TestCheckout_RejectsEmptyCart(t *testing.T) {
	orders := &mockOrderRepo{}
	carts := newMockCartStore()
	queue := &mockAdmission{allowed: map[string]bool{"user1": true}}
	svc := newCheckoutService(orders, carts, queue)

	_, svcErr := svc.PlaceOrder(context.Background(), "user1")
	require.NotNil(t, svcErr)
	assert.Equal(t, 400, svcErr.StatusCode)
}

func TestCheckout_PlacesOrderWithOutboxEvents(t *testing.T) {
	orders := &mockOrderRepo{}
	carts := newMockCartStore()
	queue := &mockAdmission{allowed: map[string]bool{"user1": true}}
	svc := newCheckoutService(orders, carts, queue)
	ctx := context.Background()

	require.NoError(t, carts.IncrementLine(ctx, "user1", "p1", "o1", 1000))
	require.NoError(t, carts.IncrementLine(ctx, "user1", "p1", "o1", 1000))
	require.NoError(t, carts.IncrementLine(ctx, "user1", "p2", "o2", 500))

	order, svcErr := svc.PlaceOrder(ctx, "user1")
	require.Nil(t, svcErr)
	assert.Equal(t, int64(2500), order.TotalAmount)
	assert.Len(t, order.OrderItems, 2)

	// One stock-update row per line, written with the order.
	require.Len(t, orders.events, 2)
	for _, event := range orders.events {
		assert.Equal(t, models.EventTypeStockUpdated, event.EventType)
		assert.Equal(t, models.OutboxStatusPending, event.Status)
		assert.Equal(t, order.ID, event.OrderID)

		var msg models.StockUpdateMessage
		require.NoError(t, json.Unmarshal(event.Payload, &msg))
		assert.Negative(t, msg.QuantityDelta)
	}

	// Post-commit cleanup: cart emptied, queue entry removed.
	cart, err := carts.GetCart(ctx, "user1")
	require.NoError(t, err)
	assert.Empty(t, cart.Lines)
	assert.Equal(t, []string{"user1"}, queue.removed)
}

func TestCheckout_TransactionFailureKeepsCart(t *testing.T) {
	orders := &mockOrderRepo{failing: true}
	carts := newMockCartStore()
	queue := &mockAdmission{allowed: map[string]bool{"user1": true}}
	svc := newCheckoutService(orders, carts, queue)
	ctx := context.Background()

	require.NoError(t, carts.IncrementLine(ctx, "user1", "p1", "o1", 1000))

	_, svcErr := svc.PlaceOrder(ctx, "user1")
	require.NotNil(t, svcErr)
	assert.Equal(t, 500, svcErr.StatusCode)

	// The cart survives for retry and the queue entry stays.
	cart, err := carts.GetCart(ctx, "user1")
	require.NoError(t, err)
	assert.Len(t, cart.Lines, 1)
	assert.Empty(t, queue.removed)
	assert.Empty(t, orders.events)
}

func TestCheckout_AdmissionCheckOutageIs503(t *testing.T) {
	orders := &mockOrderRepo{}
	carts := newMockCartStore()
	queue := &mockAdmission{failing: true}
	svc := newCheckoutService(orders, carts, queue)

	_, svcErr := svc.PlaceOrder(context.Background(), "user1")
	require.NotNil(t, svcErr)
	assert.Equal(t, 503, svcErr.StatusCode)
}
