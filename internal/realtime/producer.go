// Package realtime turns stored notifications into queued push deliveries.
package realtime

import (
	"context"
	"encoding/json"
	"errors"

	"go.uber.org/zap"

	"github.com/notifyhub/event-notifications/internal/domain"
	"github.com/notifyhub/event-notifications/internal/queue"
	"github.com/notifyhub/event-notifications/internal/repository"
)

// TokenSigner produces the security event token carried in a push delivery.
// Token construction and key management belong to the signer; this service
// treats the result as an opaque blob.
type TokenSigner interface {
	Sign(ctx context.Context, n *domain.Notification) (string, error)
}

// PassthroughSigner is the stand-in signer used when no real SET signer is
// wired: the token is simply the serialized notification. Deployments inject
// their own TokenSigner for signed tokens.
type PassthroughSigner struct{}

func (PassthroughSigner) Sign(_ context.Context, n *domain.Notification) (string, error) {
	b, err := json.Marshal(n)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// Producer enqueues a pushable item for every stored notification whose
// client holds a matching subscription. Publish is best-effort: any failure
// is logged and skipped, leaving the polling path to serve the notification.
type Producer struct {
	subs   repository.SubscriptionRepository
	signer TokenSigner
	q      *queue.RealtimeQueue
	logger *zap.Logger
}

func NewProducer(
	subs repository.SubscriptionRepository,
	signer TokenSigner,
	q *queue.RealtimeQueue,
	logger *zap.Logger,
) *Producer {
	return &Producer{subs: subs, signer: signer, q: q, logger: logger}
}

// Publish resolves the client's subscription, signs the token, and enqueues
// the pushable notification. Clients without a subscription, or whose
// subscription covers none of the bundled sub-event types, are skipped.
func (p *Producer) Publish(ctx context.Context, n *domain.Notification) {
	log := p.logger.With(
		zap.String("notification_id", n.ID),
		zap.String("client_id", n.ClientID),
	)

	sub, err := p.subs.GetByClientID(ctx, n.ClientID)
	if errors.Is(err, domain.ErrNotFound) {
		log.Debug("no push subscription for client, polling only")
		return
	}
	if err != nil {
		log.Error("subscription lookup failed", zap.Error(err))
		return
	}

	if !subscribed(sub, n) {
		log.Debug("subscription does not cover any bundled event type")
		return
	}

	token, err := p.signer.Sign(ctx, n)
	if err != nil {
		log.Error("failed to sign security event token", zap.Error(err))
		return
	}

	p.q.Enqueue(domain.PushableNotification{
		NotificationID:     n.ID,
		CallbackURL:        sub.CallbackURL,
		SecurityEventToken: token,
	})
	log.Debug("notification queued for push delivery")
}

// subscribed reports whether the subscription covers at least one of the
// notification's sub-event types. An empty EventTypes list covers everything.
func subscribed(sub *domain.Subscription, n *domain.Notification) bool {
	if len(sub.EventTypes) == 0 {
		return true
	}
	for _, t := range sub.EventTypes {
		if _, ok := n.Events[t]; ok {
			return true
		}
	}
	return false
}
