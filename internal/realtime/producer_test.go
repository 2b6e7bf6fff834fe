package realtime_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/notifyhub/event-notifications/internal/domain"
	"github.com/notifyhub/event-notifications/internal/queue"
	"github.com/notifyhub/event-notifications/internal/realtime"
	"github.com/notifyhub/event-notifications/internal/repository"
)

type failingSigner struct{}

func (failingSigner) Sign(context.Context, *domain.Notification) (string, error) {
	return "", errors.New("keystore unavailable")
}

func notification(clientID string, eventTypes ...string) *domain.Notification {
	events := make(map[string]json.RawMessage, len(eventTypes))
	for _, t := range eventTypes {
		events[t] = json.RawMessage(`{}`)
	}
	return &domain.Notification{
		ID:         "n-1",
		ClientID:   clientID,
		ResourceID: "r-1",
		Events:     events,
		Status:     domain.StatusOpen,
		CreatedAt:  time.Now().UTC(),
	}
}

func subscribe(t *testing.T, subs *repository.MockSubscriptionRepository, clientID string, eventTypes ...string) {
	t.Helper()
	err := subs.Create(context.Background(), &domain.Subscription{
		ID:          "s-" + clientID,
		ClientID:    clientID,
		CallbackURL: "https://tpp.example.com/events",
		EventTypes:  eventTypes,
		CreatedAt:   time.Now().UTC(),
	})
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}
}

func TestProducer_EnqueuesForSubscribedClient(t *testing.T) {
	subs := repository.NewMockSubscriptionRepository()
	subscribe(t, subs, "client-1")
	q := queue.New()

	p := realtime.NewProducer(subs, realtime.PassthroughSigner{}, q, zap.NewNop())
	p.Publish(context.Background(), notification("client-1", "consent-revoked"))

	if q.Len() != 1 {
		t.Fatalf("expected 1 queued item, got %d", q.Len())
	}
	item, _ := q.Take(0)
	if item.NotificationID != "n-1" {
		t.Fatalf("expected n-1, got %s", item.NotificationID)
	}
	if item.CallbackURL != "https://tpp.example.com/events" {
		t.Fatalf("unexpected callback URL %s", item.CallbackURL)
	}
	if item.SecurityEventToken == "" {
		t.Fatal("expected a non-empty token")
	}
}

func TestProducer_SkipsUnsubscribedClient(t *testing.T) {
	subs := repository.NewMockSubscriptionRepository()
	q := queue.New()

	p := realtime.NewProducer(subs, realtime.PassthroughSigner{}, q, zap.NewNop())
	p.Publish(context.Background(), notification("nobody", "consent-revoked"))

	if q.Len() != 0 {
		t.Fatalf("expected empty queue, got %d", q.Len())
	}
}

func TestProducer_EventTypeFilter(t *testing.T) {
	tests := []struct {
		name       string
		subscribed []string
		bundled    []string
		wantQueued bool
	}{
		{"empty subscription covers all", nil, []string{"consent-revoked"}, true},
		{"matching type", []string{"consent-revoked"}, []string{"consent-revoked"}, true},
		{"one of several matches", []string{"consent-revoked"}, []string{"account-closed", "consent-revoked"}, true},
		{"no match", []string{"consent-revoked"}, []string{"account-closed"}, false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			subs := repository.NewMockSubscriptionRepository()
			subscribe(t, subs, "client-1", tc.subscribed...)
			q := queue.New()

			p := realtime.NewProducer(subs, realtime.PassthroughSigner{}, q, zap.NewNop())
			p.Publish(context.Background(), notification("client-1", tc.bundled...))

			queued := q.Len() == 1
			if queued != tc.wantQueued {
				t.Fatalf("queued=%v, want %v", queued, tc.wantQueued)
			}
		})
	}
}

func TestProducer_SignerFailureSkipsQuietly(t *testing.T) {
	subs := repository.NewMockSubscriptionRepository()
	subscribe(t, subs, "client-1")
	q := queue.New()

	p := realtime.NewProducer(subs, failingSigner{}, q, zap.NewNop())
	p.Publish(context.Background(), notification("client-1", "consent-revoked"))

	if q.Len() != 0 {
		t.Fatalf("expected nothing queued on signer failure, got %d", q.Len())
	}
}
