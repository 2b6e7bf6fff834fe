package repository

import (
	"context"

	"github.com/notifyhub/event-notifications/internal/domain"
)

// NotificationRepository is the facade over the durable notification store.
// The pgx implementation is in pg_notification_repo.go.
// Tests use a hand-written mock (mock_notification_repo.go).
//
// MarkAck and MarkError only touch rows that are owned by clientID and still
// OPEN. That one WHERE clause carries three rules at once: status transitions
// are one-way terminal, acknowledgements are idempotent, and a caller can
// never learn whether an id it does not own exists.
type NotificationRepository interface {
	Insert(ctx context.Context, n *domain.Notification) error
	GetByID(ctx context.Context, id string) (*domain.Notification, error)
	FetchOpen(ctx context.Context, clientID string, limit int) ([]*domain.Notification, error)
	MarkAck(ctx context.Context, clientID, id string) (bool, error)
	MarkError(ctx context.Context, clientID, id, code, description string) (bool, error)
}

// SubscriptionRepository stores push-delivery registrations.
type SubscriptionRepository interface {
	Create(ctx context.Context, s *domain.Subscription) error
	GetByClientID(ctx context.Context, clientID string) (*domain.Subscription, error)
	List(ctx context.Context) ([]*domain.Subscription, error)
}
