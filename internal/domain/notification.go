package domain

import (
	"encoding/json"
	"time"
)

// Status tracks the lifecycle of a notification. Transitions are one-way:
// a notification starts as OPEN and ends as either ACK or ERR.
type Status string

const (
	StatusOpen  Status = "OPEN"
	StatusAck   Status = "ACK"
	StatusError Status = "ERR"
)

func (s Status) IsValid() bool {
	switch s {
	case StatusOpen, StatusAck, StatusError:
		return true
	}
	return false
}

// Notification is the core domain entity. A single notification may bundle
// several typed sub-events for one resource; the payload of each sub-event is
// opaque JSON produced by the business site that raised it.
//
// Events is keyed by sub-event type. Go maps and JSONB storage do not
// preserve insertion order, so consumers must not rely on the order in which
// sub-events were raised; sub-event types are independent of each other.
type Notification struct {
	ID               string                     `json:"notificationId"`
	ClientID         string                     `json:"clientId"`
	ResourceID       string                     `json:"resourceId"`
	Events           map[string]json.RawMessage `json:"events"`
	Status           Status                     `json:"status"`
	ErrorCode        *string                    `json:"errorCode,omitempty"`
	ErrorDescription *string                    `json:"errorDescription,omitempty"`
	CreatedAt        time.Time                  `json:"createdAt"`
	UpdatedAt        time.Time                  `json:"updatedAt"`
}

// PushableNotification is the unit placed on the realtime queue. It references
// a stored notification and carries everything the dispatch job needs to
// deliver it: the subscriber's callback URL and the pre-signed security event
// token. The token is opaque to this service; signing belongs to the signer
// collaborator and delivery consumes the item exactly once.
type PushableNotification struct {
	NotificationID     string
	CallbackURL        string
	SecurityEventToken string
}

// Subscription registers a client's callback endpoint for push delivery.
// EventTypes limits delivery to the listed sub-event types; empty means all.
type Subscription struct {
	ID          string    `json:"subscriptionId"`
	ClientID    string    `json:"clientId"`
	CallbackURL string    `json:"callbackUrl"`
	EventTypes  []string  `json:"eventTypes,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
}

func (s *Subscription) Validate() error {
	if s.ClientID == "" {
		return ErrMissingClientID
	}
	if s.CallbackURL == "" {
		return ErrInvalidCallbackURL
	}
	return nil
}
