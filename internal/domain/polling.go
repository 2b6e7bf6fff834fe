package domain

// NotificationError reports a processing failure on the subscriber's side
// for a single notification.
type NotificationError struct {
	Code        string `json:"err"`
	Description string `json:"description"`
}

// PollRequest is the inbound payload for the polling endpoint.
//
// Polling here is always short polling: the server answers immediately with
// whatever is OPEN, never holding the connection waiting for new data.
// Ack lists notification ids the caller confirms as processed; Errors maps
// notification ids to the failure the caller observed.
type PollRequest struct {
	ClientID  string                       `json:"clientId"`
	MaxEvents int                          `json:"maxEvents"`
	Ack       []string                     `json:"ack,omitempty"`
	Errors    map[string]NotificationError `json:"setErrs,omitempty"`
}

func (r *PollRequest) Validate() error {
	if r.ClientID == "" {
		return ErrMissingClientID
	}
	if r.MaxEvents < 0 {
		return ErrInvalidMaxEvents
	}
	return nil
}

// PollResponse carries the caller's OPEN notifications, at most MaxEvents of them.
type PollResponse struct {
	Notifications []*Notification `json:"sets"`
	Count         int             `json:"count"`
}
