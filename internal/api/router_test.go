package api_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/notifyhub/event-notifications/internal/api"
	"github.com/notifyhub/event-notifications/internal/domain"
	"github.com/notifyhub/event-notifications/internal/queue"
	"github.com/notifyhub/event-notifications/internal/repository"
	"github.com/notifyhub/event-notifications/internal/service"
)

type noopPublisher struct{}

func (noopPublisher) Publish(context.Context, *domain.Notification) {}

type fixture struct {
	router        http.Handler
	notifications *repository.MockNotificationRepository
	subscriptions *repository.MockSubscriptionRepository
	pollsServed   int
}

func newFixture() *fixture {
	f := &fixture{
		notifications: repository.NewMockNotificationRepository(),
		subscriptions: repository.NewMockSubscriptionRepository(),
	}
	svcs := api.Services{
		Polling:       service.NewPollingService(f.notifications, 5, zap.NewNop()),
		Creation:      service.NewCreationService(f.notifications, noopPublisher{}, zap.NewNop()),
		Subscriptions: service.NewSubscriptionService(f.subscriptions),
	}
	f.router = api.NewRouter(svcs, queue.New(), prometheus.NewRegistry(), func() { f.pollsServed++ }, zap.NewNop())
	return f
}

func (f *fixture) do(t *testing.T, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	return rec
}

func TestRouter_Health(t *testing.T) {
	f := newFixture()
	rec := f.do(t, http.MethodGet, "/health", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestRouter_CreateNotification(t *testing.T) {
	f := newFixture()
	rec := f.do(t, http.MethodPost, "/api/v1/events",
		`{"clientId":"client-1","resourceId":"consent-42","events":{"consent-revoked":{"reason":"user"}}}`)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Fatalf("expected application/json, got %q", ct)
	}

	var result domain.CreateResult
	if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if result.NotificationID == "" || result.Status != domain.StatusOpen {
		t.Fatalf("unexpected result %+v", result)
	}

	if _, err := f.notifications.GetByID(context.Background(), result.NotificationID); err != nil {
		t.Fatalf("notification not persisted: %v", err)
	}
}

func TestRouter_CreateNotification_InvalidJSONIs400(t *testing.T) {
	f := newFixture()
	rec := f.do(t, http.MethodPost, "/api/v1/events", `{"clientId":`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestRouter_CreateNotification_ValidationIs422(t *testing.T) {
	f := newFixture()
	rec := f.do(t, http.MethodPost, "/api/v1/events", `{"resourceId":"r","events":{"e":{}}}`)
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422 for missing client id, got %d", rec.Code)
	}
}

func TestRouter_Poll(t *testing.T) {
	f := newFixture()

	created := f.do(t, http.MethodPost, "/api/v1/events",
		`{"clientId":"client-1","resourceId":"consent-42","events":{"consent-revoked":{}}}`)
	if created.Code != http.StatusCreated {
		t.Fatalf("setup create failed: %d", created.Code)
	}

	rec := f.do(t, http.MethodPost, "/api/v1/events/poll", `{"clientId":"client-1"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body)
	}

	var resp domain.PollResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Count != 1 || len(resp.Notifications) != 1 {
		t.Fatalf("expected 1 notification, got %+v", resp)
	}
	if f.pollsServed != 1 {
		t.Fatalf("expected the poll hook to fire once, got %d", f.pollsServed)
	}
}

func TestRouter_Poll_EmptyResultIsArray(t *testing.T) {
	f := newFixture()
	rec := f.do(t, http.MethodPost, "/api/v1/events/poll", `{"clientId":"nobody"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"sets":[]`) {
		t.Fatalf("expected sets to serialize as [], got %s", rec.Body)
	}
}

func TestRouter_Poll_InvalidJSONIs400(t *testing.T) {
	f := newFixture()
	rec := f.do(t, http.MethodPost, "/api/v1/events/poll", `not json`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestRouter_Poll_MissingClientIDIs422(t *testing.T) {
	f := newFixture()
	rec := f.do(t, http.MethodPost, "/api/v1/events/poll", `{}`)
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", rec.Code)
	}
}

func TestRouter_Subscriptions(t *testing.T) {
	f := newFixture()

	rec := f.do(t, http.MethodPost, "/api/v1/subscriptions",
		`{"clientId":"client-1","callbackUrl":"https://tpp.example.com/events"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create: expected 201, got %d: %s", rec.Code, rec.Body)
	}

	// One subscription per client.
	dup := f.do(t, http.MethodPost, "/api/v1/subscriptions",
		`{"clientId":"client-1","callbackUrl":"https://other.example.com"}`)
	if dup.Code != http.StatusConflict {
		t.Fatalf("duplicate: expected 409, got %d", dup.Code)
	}

	get := f.do(t, http.MethodGet, "/api/v1/subscriptions/client-1", "")
	if get.Code != http.StatusOK {
		t.Fatalf("get: expected 200, got %d", get.Code)
	}
	var sub domain.Subscription
	if err := json.Unmarshal(get.Body.Bytes(), &sub); err != nil {
		t.Fatalf("decode subscription: %v", err)
	}
	if sub.CallbackURL != "https://tpp.example.com/events" {
		t.Fatalf("unexpected callback URL %s", sub.CallbackURL)
	}

	list := f.do(t, http.MethodGet, "/api/v1/subscriptions", "")
	if list.Code != http.StatusOK {
		t.Fatalf("list: expected 200, got %d", list.Code)
	}
	var subs []*domain.Subscription
	if err := json.Unmarshal(list.Body.Bytes(), &subs); err != nil {
		t.Fatalf("decode list: %v", err)
	}
	if len(subs) != 1 {
		t.Fatalf("expected 1 subscription listed, got %d", len(subs))
	}
}

func TestRouter_Subscriptions_UnknownClientIs404(t *testing.T) {
	f := newFixture()
	rec := f.do(t, http.MethodGet, "/api/v1/subscriptions/ghost", "")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestRouter_CorrelationID(t *testing.T) {
	f := newFixture()

	t.Run("echoes provided id", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/health", nil)
		req.Header.Set("X-Correlation-ID", "corr-123")
		rec := httptest.NewRecorder()
		f.router.ServeHTTP(rec, req)
		if got := rec.Header().Get("X-Correlation-ID"); got != "corr-123" {
			t.Fatalf("expected corr-123 echoed, got %q", got)
		}
	})

	t.Run("generates one when absent", func(t *testing.T) {
		rec := f.do(t, http.MethodGet, "/health", "")
		if rec.Header().Get("X-Correlation-ID") == "" {
			t.Fatal("expected a generated correlation id")
		}
	})
}
