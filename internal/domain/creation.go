package domain

import "encoding/json"

// CreateRequest is the inbound payload for notification creation. Events maps
// sub-event type to its opaque JSON payload; one request produces exactly one
// notification, however many sub-events it bundles.
type CreateRequest struct {
	ClientID   string                     `json:"clientId"`
	ResourceID string                     `json:"resourceId"`
	Events     map[string]json.RawMessage `json:"events"`
}

func (r *CreateRequest) Validate() error {
	if r.ClientID == "" {
		return ErrMissingClientID
	}
	if r.ResourceID == "" {
		return ErrMissingResourceID
	}
	if len(r.Events) == 0 {
		return ErrNoEvents
	}
	return nil
}

// CreateResult reports the outcome of notification creation.
// Creation is not idempotent; callers dedupe upstream.
type CreateResult struct {
	NotificationID string `json:"notificationId"`
	Status         Status `json:"status"`
}
