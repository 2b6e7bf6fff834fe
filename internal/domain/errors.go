package domain

import "errors"

// Sentinel errors used throughout the application.
// Handlers translate these to HTTP status codes via a single mapError function.
var (
	ErrNotFound           = errors.New("not found")
	ErrMissingClientID    = errors.New("clientId must not be empty")
	ErrMissingResourceID  = errors.New("resourceId must not be empty")
	ErrNoEvents           = errors.New("at least one event is required")
	ErrInvalidMaxEvents   = errors.New("maxEvents must not be negative")
	ErrInvalidCallbackURL = errors.New("callbackUrl must not be empty")
	ErrSubscriptionExists = errors.New("client already has a subscription")
)
