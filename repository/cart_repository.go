package repository

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"order-entry-service/models"

	"github.com/redis/go-redis/v9"
)

// CartRepository stores each cart as two Redis hashes keyed by user token:
// one mapping "product:option" to quantity, one to the unit-price snapshot.
// Quantities move with HINCRBY so two tabs hammering "+" on the same line
// never lose an update, while lines for different products stay independent.
type CartRepository struct {
	client *redis.Client
	ttl    time.Duration
}

func NewCartRepository(client *redis.Client, ttl time.Duration) *CartRepository {
	return &CartRepository{client: client, ttl: ttl}
}

func (r *CartRepository) qtyKey(token string) string {
	return fmt.Sprintf("cart:user:%s:qty", token)
}

func (r *CartRepository) priceKey(token string) string {
	return fmt.Sprintf("cart:user:%s:price", token)
}

func lineField(productID, optionID string) string {
	return productID + ":" + optionID
}

// addScript increments the line quantity and records the price snapshot only
// on first add, refreshing the cart TTL.
var addScript = redis.NewScript(`
local qty = redis.call('HINCRBY', KEYS[1], ARGV[1], 1)
redis.call('HSETNX', KEYS[2], ARGV[1], ARGV[2])
redis.call('PEXPIRE', KEYS[1], ARGV[3])
redis.call('PEXPIRE', KEYS[2], ARGV[3])
return qty
`)

// decrementScript floors the quantity at zero by deleting the line instead
// of storing a non-positive count.
var decrementScript = redis.NewScript(`
local qty = redis.call('HINCRBY', KEYS[1], ARGV[1], -1)
if qty <= 0 then
  redis.call('HDEL', KEYS[1], ARGV[1])
  redis.call('HDEL', KEYS[2], ARGV[1])
  return 0
end
return qty
`)

// IncrementLine adds one unit to the line, creating it with the given price
// snapshot on first add.
func (r *CartRepository) IncrementLine(ctx context.Context, token, productID, optionID string, unitPrice int64) error {
	keys := []string{r.qtyKey(token), r.priceKey(token)}
	err := addScript.Run(ctx, r.client, keys,
		lineField(productID, optionID), unitPrice, r.ttl.Milliseconds()).Err()
	if err != nil {
		return fmt.Errorf("cart increment failed: %w", err)
	}
	return nil
}

// DecrementLine removes one unit from the line, deleting it when the
// quantity would drop below one.
func (r *CartRepository) DecrementLine(ctx context.Context, token, productID, optionID string) error {
	keys := []string{r.qtyKey(token), r.priceKey(token)}
	err := decrementScript.Run(ctx, r.client, keys, lineField(productID, optionID)).Err()
	if err != nil {
		return fmt.Errorf("cart decrement failed: %w", err)
	}
	return nil
}

// RemoveLine deletes the line outright. Removing an absent line is not an
// error.
func (r *CartRepository) RemoveLine(ctx context.Context, token, productID, optionID string) error {
	field := lineField(productID, optionID)
	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HDel(ctx, r.qtyKey(token), field)
		pipe.HDel(ctx, r.priceKey(token), field)
		return nil
	})
	if err != nil {
		return fmt.Errorf("cart remove failed: %w", err)
	}
	return nil
}

// GetCart returns the cart with its total recomputed from the lines. A user
// with no cart gets an empty cart, not an error.
func (r *CartRepository) GetCart(ctx context.Context, token string) (*models.Cart, error) {
	quantities, err := r.client.HGetAll(ctx, r.qtyKey(token)).Result()
	if err != nil {
		return nil, fmt.Errorf("cart read failed: %w", err)
	}
	prices, err := r.client.HGetAll(ctx, r.priceKey(token)).Result()
	if err != nil {
		return nil, fmt.Errorf("cart read failed: %w", err)
	}

	cart := &models.Cart{
		UserID: token,
		Lines:  make([]models.CartLine, 0, len(quantities)),
	}

	fields := make([]string, 0, len(quantities))
	for field := range quantities {
		fields = append(fields, field)
	}
	sort.Strings(fields)

	for _, field := range fields {
		qty, err := strconv.ParseInt(quantities[field], 10, 64)
		if err != nil || qty <= 0 {
			continue
		}
		price, _ := strconv.ParseInt(prices[field], 10, 64)

		productID, optionID, _ := strings.Cut(field, ":")
		cart.Lines = append(cart.Lines, models.CartLine{
			ProductID: productID,
			OptionID:  optionID,
			UnitPrice: price,
			Quantity:  qty,
		})
	}

	cart.ComputeTotal()
	return cart, nil
}

// ClearCart deletes the whole cart.
func (r *CartRepository) ClearCart(ctx context.Context, token string) error {
	if err := r.client.Del(ctx, r.qtyKey(token), r.priceKey(token)).Err(); err != nil {
		return fmt.Errorf("cart clear failed: %w", err)
	}
	return nil
}
