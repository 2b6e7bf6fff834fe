package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/notifyhub/event-notifications/internal/domain"
	"github.com/notifyhub/event-notifications/internal/repository"
)

// Publisher hands a freshly stored notification to the push pipeline.
// The realtime producer implements it; tests substitute a recorder.
type Publisher interface {
	Publish(ctx context.Context, n *domain.Notification)
}

// CreationService persists new notifications. One call writes one OPEN
// notification, however many typed sub-events it bundles. Creation is not
// idempotent; callers dedupe upstream.
type CreationService struct {
	repo      repository.NotificationRepository
	publisher Publisher
	logger    *zap.Logger
}

func NewCreationService(
	repo repository.NotificationRepository,
	publisher Publisher,
	logger *zap.Logger,
) *CreationService {
	return &CreationService{repo: repo, publisher: publisher, logger: logger}
}

// Create validates and stores the notification, then offers it to the push
// pipeline. A store failure is returned to the caller; a push-pipeline skip
// is not an error since the polling path still serves the notification.
func (s *CreationService) Create(ctx context.Context, req domain.CreateRequest) (*domain.CreateResult, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	n := &domain.Notification{
		ID:         uuid.New().String(),
		ClientID:   req.ClientID,
		ResourceID: req.ResourceID,
		Events:     req.Events,
		Status:     domain.StatusOpen,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	if err := s.repo.Insert(ctx, n); err != nil {
		return nil, fmt.Errorf("persist notification: %w", err)
	}

	s.publisher.Publish(ctx, n)

	s.logger.Info("notification created",
		zap.String("notification_id", n.ID),
		zap.String("client_id", n.ClientID),
		zap.Int("events", len(n.Events)),
	)
	return &domain.CreateResult{NotificationID: n.ID, Status: n.Status}, nil
}
