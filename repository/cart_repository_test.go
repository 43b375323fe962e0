package repository_test

import (
	"context"
	"testing"
	"time"

	"order-entry-service/repository"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newCartRepo(t *testing.T) *repository.CartRepository {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return repository.NewCartRepository(client, time.Hour)
}

func TestCart_AddAndIncrement(t *testing.T) {
	repo := newCartRepo(t)
	ctx := context.Background()

	require.NoError(t, repo.IncrementLine(ctx, "user1", "p1", "o1", 1000))
	require.NoError(t, repo.IncrementLine(ctx, "user1", "p1", "o1", 1000))

	cart, err := repo.GetCart(ctx, "user1")
	require.NoError(t, err)
	require.Len(t, cart.Lines, 1)
	assert.Equal(t, int64(2), cart.Lines[0].Quantity)
	assert.Equal(t, int64(1000), cart.Lines[0].UnitPrice)
	assert.Equal(t, int64(2000), cart.TotalAmount)
}

func TestCart_PriceSnapshotFixedAtFirstAdd(t *testing.T) {
	repo := newCartRepo(t)
	ctx := context.Background()

	require.NoError(t, repo.IncrementLine(ctx, "user1", "p1", "o1", 1000))
	// A later add with a drifted price does not replace the snapshot.
	require.NoError(t, repo.IncrementLine(ctx, "user1", "p1", "o1", 1500))

	cart, err := repo.GetCart(ctx, "user1")
	require.NoError(t, err)
	require.Len(t, cart.Lines, 1)
	assert.Equal(t, int64(1000), cart.Lines[0].UnitPrice)
	assert.Equal(t, int64(2000), cart.TotalAmount)
}

func TestCart_DecrementFloorsAtZeroByDeleting(t *testing.T) {
	repo := newCartRepo(t)
	ctx := context.Background()

	require.NoError(t, repo.IncrementLine(ctx, "user1", "p1", "o1", 1000))
	require.NoError(t, repo.IncrementLine(ctx, "user1", "p1", "o1", 1000))

	require.NoError(t, repo.DecrementLine(ctx, "user1", "p1", "o1"))
	cart, err := repo.GetCart(ctx, "user1")
	require.NoError(t, err)
	require.Len(t, cart.Lines, 1)
	assert.Equal(t, int64(1), cart.Lines[0].Quantity)

	require.NoError(t, repo.DecrementLine(ctx, "user1", "p1", "o1"))
	cart, err = repo.GetCart(ctx, "user1")
	require.NoError(t, err)
	assert.Empty(t, cart.Lines)
	assert.Equal(t, int64(0), cart.TotalAmount)

	// Decrementing a line that no longer exists never stores a negative.
	require.NoError(t, repo.DecrementLine(ctx, "user1", "p1", "o1"))
	cart, err = repo.GetCart(ctx, "user1")
	require.NoError(t, err)
	assert.Empty(t, cart.Lines)
}

func TestCart_LinesAreIndependent(t *testing.T) {
	repo := newCartRepo(t)
	ctx := context.Background()

	require.NoError(t, repo.IncrementLine(ctx, "user1", "p1", "o1", 1000))
	require.NoError(t, repo.IncrementLine(ctx, "user1", "p2", "o1", 500))
	require.NoError(t, repo.DecrementLine(ctx, "user1", "p1", "o1"))

	cart, err := repo.GetCart(ctx, "user1")
	require.NoError(t, err)
	require.Len(t, cart.Lines, 1)
	assert.Equal(t, "p2", cart.Lines[0].ProductID)
	assert.Equal(t, int64(500), cart.TotalAmount)
}

func TestCart_RemoveIsIdempotent(t *testing.T) {
	repo := newCartRepo(t)
	ctx := context.Background()

	require.NoError(t, repo.IncrementLine(ctx, "user1", "p1", "o1", 1000))
	require.NoError(t, repo.RemoveLine(ctx, "user1", "p1", "o1"))
	require.NoError(t, repo.RemoveLine(ctx, "user1", "p1", "o1"))

	cart, err := repo.GetCart(ctx, "user1")
	require.NoError(t, err)
	assert.Empty(t, cart.Lines)
}

func TestCart_AbsentCartIsEmptyNotError(t *testing.T) {
	repo := newCartRepo(t)

	cart, err := repo.GetCart(context.Background(), "nobody")
	require.NoError(t, err)
	assert.Equal(t, "nobody", cart.UserID)
	assert.Empty(t, cart.Lines)
	assert.Equal(t, int64(0), cart.TotalAmount)
}

func TestCart_ClearRemovesEverything(t *testing.T) {
	repo := newCartRepo(t)
	ctx := context.Background()

	require.NoError(t, repo.IncrementLine(ctx, "user1", "p1", "o1", 1000))
	require.NoError(t, repo.IncrementLine(ctx, "user1", "p2", "o2", 2000))
	require.NoError(t, repo.ClearCart(ctx, "user1"))

	cart, err := repo.GetCart(ctx, "user1")
	require.NoError(t, err)
	assert.Empty(t, cart.Lines)
}

func TestCart_TotalIsAlwaysRecomputed(t *testing.T) {
	repo := newCartRepo(t)
	ctx := context.Background()

	require.NoError(t, repo.IncrementLine(ctx, "user1", "p1", "o1", 1000))
	require.NoError(t, repo.IncrementLine(ctx, "user1", "p2", "o2", 300))
	require.NoError(t, repo.IncrementLine(ctx, "user1", "p2", "o2", 300))

	cart, err := repo.GetCart(ctx, "user1")
	require.NoError(t, err)

	var expected int64
	for _, line := range cart.Lines {
		expected += line.UnitPrice * line.Quantity
	}
	assert.Equal(t, expected, cart.TotalAmount)
	assert.Equal(t, int64(1600), cart.TotalAmount)
}
