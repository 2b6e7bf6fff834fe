package dispatch

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"golang.org/x/time/rate"
)

// Sender abstracts delivery of a push notification payload to a subscriber's
// callback URL. Mocking this interface in tests gives full control over
// delivery behaviour without making real HTTP calls.
type Sender interface {
	Send(ctx context.Context, callbackURL string, body []byte) error
}

// PayloadBuilder shapes the JSON body posted to the callback URL from the
// pre-signed security event token and the notification id. The default
// builder wraps both in a small envelope; deployments with bespoke subscriber
// contracts inject their own.
type PayloadBuilder func(securityEventToken, notificationID string) ([]byte, error)

// DefaultPayload is the standard delivery envelope.
func DefaultPayload(securityEventToken, notificationID string) ([]byte, error) {
	return json.Marshal(map[string]string{
		"notificationId": notificationID,
		"SET":            securityEventToken,
	})
}

// WebhookSender delivers payloads by POSTing JSON to the callback URL.
// A single token-bucket limiter bounds the outbound send rate across all
// workers of a dispatch run.
type WebhookSender struct {
	httpClient *http.Client
	limiter    *rate.Limiter
}

// NewWebhookSender constructs a sender with a per-request timeout and an
// outbound rate limit of ratePerSec sends per second (burst == rate, so no
// extra burst capacity accumulates between dispatch runs).
func NewWebhookSender(timeout time.Duration, ratePerSec int) *WebhookSender {
	return &WebhookSender{
		httpClient: &http.Client{Timeout: timeout},
		limiter:    rate.NewLimiter(rate.Limit(ratePerSec), ratePerSec),
	}
}

// Send posts the body to the callback URL. Subscribers acknowledge receipt
// with a 2xx response (202 Accepted per the delivery contract); the response
// body is never interpreted.
func (s *WebhookSender) Send(ctx context.Context, callbackURL string, body []byte) error {
	if err := s.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limit wait: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, callbackURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("unexpected callback status: %d", resp.StatusCode)
	}
	return nil
}

// compile-time check that WebhookSender implements Sender
var _ Sender = (*WebhookSender)(nil)
