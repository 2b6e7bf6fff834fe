package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/notifyhub/event-notifications/internal/domain"
	"github.com/notifyhub/event-notifications/internal/repository"
)

// PollingService serves the pull delivery path: a stateless transformation of
// a poll request into the caller's OPEN notifications, applying any piggy-
// backed acknowledgements on the way.
type PollingService struct {
	repo             repository.NotificationRepository
	defaultMaxEvents int
	logger           *zap.Logger
}

func NewPollingService(
	repo repository.NotificationRepository,
	defaultMaxEvents int,
	logger *zap.Logger,
) *PollingService {
	return &PollingService{repo: repo, defaultMaxEvents: defaultMaxEvents, logger: logger}
}

// Poll returns up to MaxEvents OPEN notifications for the client and applies
// the request's ack and error entries.
//
// The fetch happens before the mutations, so a notification acked in the same
// call is still returned once and then transitions. Acks and errors that name
// a notification the client does not own, or one no longer OPEN, are silently
// ignored; the response never reveals whether such an id exists. Poll never
// waits for data: an empty result returns immediately.
func (s *PollingService) Poll(ctx context.Context, req domain.PollRequest) (*domain.PollResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	max := req.MaxEvents
	if max == 0 {
		max = s.defaultMaxEvents
	}

	notifications, err := s.repo.FetchOpen(ctx, req.ClientID, max)
	if err != nil {
		return nil, fmt.Errorf("fetch open notifications: %w", err)
	}
	if notifications == nil {
		// An empty result must serialize as [], not null.
		notifications = []*domain.Notification{}
	}

	for _, id := range req.Ack {
		applied, err := s.repo.MarkAck(ctx, req.ClientID, id)
		if err != nil {
			return nil, fmt.Errorf("ack notification %s: %w", id, err)
		}
		if !applied {
			s.logger.Debug("ack ignored",
				zap.String("client_id", req.ClientID),
				zap.String("notification_id", id),
			)
		}
	}

	for id, e := range req.Errors {
		applied, err := s.repo.MarkError(ctx, req.ClientID, id, e.Code, e.Description)
		if err != nil {
			return nil, fmt.Errorf("mark notification %s as errored: %w", id, err)
		}
		if !applied {
			s.logger.Debug("error report ignored",
				zap.String("client_id", req.ClientID),
				zap.String("notification_id", id),
			)
		}
	}

	return &domain.PollResponse{
		Notifications: notifications,
		Count:         len(notifications),
	}, nil
}
