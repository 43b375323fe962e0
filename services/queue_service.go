package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"order-entry-service/models"
	"order-entry-service/repository"

	"go.uber.org/zap"
)

// QueueStore is the admission-queue storage surface the service depends on.
type QueueStore interface {
	Join(ctx context.Context, token string, now time.Time) (*models.WaitingEntry, error)
	Status(ctx context.Context, token string, now time.Time) (*models.WaitingEntry, error)
	Remove(ctx context.Context, token string) error
}

// QueueService handles join/poll/leave for the checkout waiting line.
type QueueService struct {
	store  QueueStore
	logger *zap.Logger
}

func NewQueueService(store QueueStore, logger *zap.Logger) *QueueService {
	return &QueueService{store: store, logger: logger}
}

// Join enqueues the token, or returns its current state when it already has
// a live entry. Joining twice never creates a second entry.
func (s *QueueService) Join(ctx context.Context, token string) (*models.QueueStatus, *ServiceError) {
	entry, err := s.store.Join(ctx, token, time.Now())
	if err != nil {
		s.logger.Error("Queue join failed", zap.String("token", token), zap.Error(err))
		return nil, &ServiceError{StatusCode: 503, Message: "Queue is temporarily unavailable"}
	}
	return statusFor(entry), nil
}

// Poll refreshes the token's heartbeat and returns its rank and state. A
// token with no entry gets a 404 so the client knows to re-join, which is
// distinct from a live entry still waiting at some rank.
func (s *QueueService) Poll(ctx context.Context, token string) (*models.QueueStatus, *ServiceError) {
	entry, err := s.store.Status(ctx, token, time.Now())
	if errors.Is(err, repository.ErrEntryNotFound) {
		return nil, &ServiceError{StatusCode: 404, Message: "Not in queue; join again"}
	}
	if err != nil {
		s.logger.Error("Queue poll failed", zap.String("token", token), zap.Error(err))
		return nil, &ServiceError{StatusCode: 503, Message: "Queue is temporarily unavailable"}
	}
	return statusFor(entry), nil
}

// Leave removes the token's entry, whatever its state. Idempotent.
func (s *QueueService) Leave(ctx context.Context, token string) *ServiceError {
	if err := s.store.Remove(ctx, token); err != nil {
		s.logger.Error("Queue leave failed", zap.String("token", token), zap.Error(err))
		return &ServiceError{StatusCode: 503, Message: "Queue is temporarily unavailable"}
	}
	return nil
}

func statusFor(entry *models.WaitingEntry) *models.QueueStatus {
	if entry.State == models.StateAllowed {
		return &models.QueueStatus{
			Rank:      0,
			IsAllowed: true,
			Message:   "You may proceed to checkout",
		}
	}
	return &models.QueueStatus{
		Rank:      entry.Rank,
		IsAllowed: false,
		Message:   fmt.Sprintf("%d shopper(s) ahead of you", entry.Rank),
	}
}
