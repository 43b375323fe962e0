package services_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"order-entry-service/models"
	"order-entry-service/repository"
	"order-entry-service/services"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// --- Mock queue store ---

type mockQueueStore struct {
	entries map[string]*models.WaitingEntry
	next    int64
	failing bool
}

func newMockQueueStore() *mockQueueStore {
	return &mockQueueStore{entries: make(map[string]*models.WaitingEntry)}
}

func (m *mockQueueStore) Join(_ context.Context, token string, now time.Time) (*models.WaitingEntry, error) {
	if m.failing {
		return nil, errors.New("connection refused")
	}
	if entry, ok := m.entries[token]; ok {
		entry.LastSeenAt = now
		return entry, nil
	}
	entry := &models.WaitingEntry{
		Token:      token,
		EnqueuedAt: now,
		LastSeenAt: now,
		State:      models.StateWaiting,
		Rank:       m.next,
	}
	m.next++
	m.entries[token] = entry
	return entry, nil
}

func (m *mockQueueStore) Status(_ context.Context, token string, now time.Time) (*models.WaitingEntry, error) {
	if m.failing {
		return nil, errors.New("connection refused")
	}
	entry, ok := m.entries[token]
	if !ok {
		return nil, repository.ErrEntryNotFound
	}
	entry.LastSeenAt = now
	return entry, nil
}

func (m *mockQueueStore) Remove(_ context.Context, token string) error {
	if m.failing {
		return errors.New("connection refused")
	}
	delete(m.entries, token)
	return nil
}

func newQueueService(store services.QueueStore) *services.QueueService {
	logger, _ := zap.NewDevelopment()
	return services.NewQueueService(store, logger)
}

// --- Tests ---

func TestQueueService_JoinReturnsRank(t *testing.T) {
	store := newMockQueueStore()
	svc := newQueueService(store)

	first, svcErr := svc.Join(context.Background(), "tokenA")
	require.Nil(t, svcErr)
	assert.False(t, first.IsAllowed)
	assert.Equal(t, int64(0), first.Rank)

	second, svcErr := svc.Join(context.Background(), "tokenB")
	require.Nil(t, svcErr)
	assert.Equal(t, int64(1), second.Rank)
}

func TestQueueService_JoinTwiceKeepsPosition(t *testing.T) {
	store := newMockQueueStore()
	svc := newQueueService(store)

	_, svcErr := svc.Join(context.Background(), "tokenA")
	require.Nil(t, svcErr)
	again, svcErr := svc.Join(context.Background(), "tokenA")
	require.Nil(t, svcErr)
	assert.Equal(t, int64(0), again.Rank)
	assert.Len(t, store.entries, 1)
}

func TestQueueService_PollAllowedEntry(t *testing.T) {
	store := newMockQueueStore()
	svc := newQueueService(store)

	_, svcErr := svc.Join(context.Background(), "tokenA")
	require.Nil(t, svcErr)
	store.entries["tokenA"].State = models.StateAllowed

	status, svcErr := svc.Poll(context.Background(), "tokenA")
	require.Nil(t, svcErr)
	assert.True(t, status.IsAllowed)
	assert.Equal(t, int64(0), status.Rank)
}

func TestQueueService_PollUnknownTokenIs404(t *testing.T) {
	svc := newQueueService(newMockQueueStore())

	status, svcErr := svc.Poll(context.Background(), "ghost")
	assert.Nil(t, status)
	require.NotNil(t, svcErr)
	assert.Equal(t, 404, svcErr.StatusCode)
}

func TestQueueService_StoreOutageIs503(t *testing.T) {
	store := newMockQueueStore()
	store.failing = true
	svc := newQueueService(store)

	_, svcErr := svc.Join(context.Background(), "tokenA")
	require.NotNil(t, svcErr)
	assert.Equal(t, 503, svcErr.StatusCode)

	_, svcErr = svc.Poll(context.Background(), "tokenA")
	require.NotNil(t, svcErr)
	assert.Equal(t, 503, svcErr.StatusCode)

	svcErr = svc.Leave(context.Background(), "tokenA")
	require.NotNil(t, svcErr)
	assert.Equal(t, 503, svcErr.StatusCode)
}

func TestQueueService_LeaveRemovesEntry(t *testing.T) {
	store := newMockQueueStore()
	svc := newQueueService(store)

	_, svcErr := svc.Join(context.Background(), "tokenA")
	require.Nil(t, svcErr)

	require.Nil(t, svc.Leave(context.Background(), "tokenA"))

	_, svcErr = svc.Poll(context.Background(), "tokenA")
	require.NotNil(t, svcErr)
	assert.Equal(t, 404, svcErr.StatusCode)
}
