package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/notifyhub/event-notifications/internal/domain"
	"github.com/notifyhub/event-notifications/internal/repository"
)

// SubscriptionService manages push-delivery registrations.
type SubscriptionService struct {
	repo repository.SubscriptionRepository
}

func NewSubscriptionService(repo repository.SubscriptionRepository) *SubscriptionService {
	return &SubscriptionService{repo: repo}
}

// Create registers a client's callback endpoint. One subscription per client.
func (s *SubscriptionService) Create(ctx context.Context, sub *domain.Subscription) (*domain.Subscription, error) {
	if err := sub.Validate(); err != nil {
		return nil, err
	}

	sub.ID = uuid.New().String()
	sub.CreatedAt = time.Now().UTC()

	if err := s.repo.Create(ctx, sub); err != nil {
		if err == domain.ErrSubscriptionExists {
			return nil, err
		}
		return nil, fmt.Errorf("persist subscription: %w", err)
	}
	return sub, nil
}

// GetByClientID returns the client's subscription, or ErrNotFound.
func (s *SubscriptionService) GetByClientID(ctx context.Context, clientID string) (*domain.Subscription, error) {
	if clientID == "" {
		return nil, domain.ErrMissingClientID
	}
	return s.repo.GetByClientID(ctx, clientID)
}

// List returns every registered subscription, oldest first. No registrations
// yields an empty list, never an error.
func (s *SubscriptionService) List(ctx context.Context) ([]*domain.Subscription, error) {
	subs, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list subscriptions: %w", err)
	}
	if subs == nil {
		subs = []*domain.Subscription{}
	}
	return subs, nil
}
