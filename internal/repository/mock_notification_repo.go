package repository

import (
	"context"
	"sort"
	"sync"

	"github.com/notifyhub/event-notifications/internal/domain"
)

// MockNotificationRepository is a hand-written, in-memory implementation of
// NotificationRepository used in unit tests. No mock-generation library needed.
type MockNotificationRepository struct {
	mu            sync.RWMutex
	notifications map[string]*domain.Notification

	// Optional error overrides — set in tests to simulate failure paths.
	InsertErr    error
	FetchOpenErr error
	MarkAckErr   error
	MarkErrorErr error
}

func NewMockNotificationRepository() *MockNotificationRepository {
	return &MockNotificationRepository{
		notifications: make(map[string]*domain.Notification),
	}
}

func (m *MockNotificationRepository) Insert(_ context.Context, n *domain.Notification) error {
	if m.InsertErr != nil {
		return m.InsertErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	clone := *n
	m.notifications[n.ID] = &clone
	return nil
}

func (m *MockNotificationRepository) GetByID(_ context.Context, id string) (*domain.Notification, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	n, ok := m.notifications[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	clone := *n
	return &clone, nil
}

func (m *MockNotificationRepository) FetchOpen(_ context.Context, clientID string, limit int) ([]*domain.Notification, error) {
	if m.FetchOpenErr != nil {
		return nil, m.FetchOpenErr
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	var open []*domain.Notification
	for _, n := range m.notifications {
		if n.ClientID == clientID && n.Status == domain.StatusOpen {
			clone := *n
			open = append(open, &clone)
		}
	}
	sort.Slice(open, func(i, j int) bool { return open[i].CreatedAt.Before(open[j].CreatedAt) })

	if len(open) > limit {
		open = open[:limit]
	}
	return open, nil
}

func (m *MockNotificationRepository) MarkAck(_ context.Context, clientID, id string) (bool, error) {
	if m.MarkAckErr != nil {
		return false, m.MarkAckErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	n, ok := m.notifications[id]
	if !ok || n.ClientID != clientID || n.Status != domain.StatusOpen {
		return false, nil
	}
	n.Status = domain.StatusAck
	return true, nil
}

func (m *MockNotificationRepository) MarkError(_ context.Context, clientID, id, code, description string) (bool, error) {
	if m.MarkErrorErr != nil {
		return false, m.MarkErrorErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	n, ok := m.notifications[id]
	if !ok || n.ClientID != clientID || n.Status != domain.StatusOpen {
		return false, nil
	}
	n.Status = domain.StatusError
	n.ErrorCode = &code
	n.ErrorDescription = &description
	return true, nil
}

// MockSubscriptionRepository is the in-memory SubscriptionRepository for tests.
type MockSubscriptionRepository struct {
	mu            sync.RWMutex
	subscriptions map[string]*domain.Subscription

	CreateErr error
}

func NewMockSubscriptionRepository() *MockSubscriptionRepository {
	return &MockSubscriptionRepository{
		subscriptions: make(map[string]*domain.Subscription),
	}
}

func (m *MockSubscriptionRepository) Create(_ context.Context, s *domain.Subscription) error {
	if m.CreateErr != nil {
		return m.CreateErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.subscriptions[s.ClientID]; ok {
		return domain.ErrSubscriptionExists
	}
	clone := *s
	m.subscriptions[s.ClientID] = &clone
	return nil
}

func (m *MockSubscriptionRepository) List(_ context.Context) ([]*domain.Subscription, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var result []*domain.Subscription
	for _, s := range m.subscriptions {
		clone := *s
		result = append(result, &clone)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].CreatedAt.Before(result[j].CreatedAt) })
	return result, nil
}

func (m *MockSubscriptionRepository) GetByClientID(_ context.Context, clientID string) (*domain.Subscription, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.subscriptions[clientID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	clone := *s
	return &clone, nil
}
