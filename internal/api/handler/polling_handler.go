package handler

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	apimw "github.com/notifyhub/event-notifications/internal/api/middleware"
	"github.com/notifyhub/event-notifications/internal/domain"
	"github.com/notifyhub/event-notifications/internal/service"
)

// PollingHandler serves the pull-delivery endpoint.
type PollingHandler struct {
	svc      *service.PollingService
	onServed func()
	logger   *zap.Logger
}

// NewPollingHandler constructs the handler. onServed is an optional metrics
// hook counting answered polls (nil = no-op).
func NewPollingHandler(svc *service.PollingService, onServed func(), logger *zap.Logger) *PollingHandler {
	if onServed == nil {
		onServed = func() {}
	}
	return &PollingHandler{svc: svc, onServed: onServed, logger: logger}
}

// Poll handles POST /api/v1/events/poll
//
// The response is always immediate: OPEN notifications if any, an empty set
// otherwise. Ack and error entries in the request body are applied in the
// same call.
func (h *PollingHandler) Poll(w http.ResponseWriter, r *http.Request) {
	var req domain.PollRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	resp, err := h.svc.Poll(r.Context(), req)
	if err != nil {
		h.logger.Warn("poll failed",
			zap.String("correlation_id", apimw.GetCorrelationID(r.Context())),
			zap.String("client_id", req.ClientID),
			zap.Error(err),
		)
		mapError(w, err)
		return
	}

	h.onServed()
	respondJSON(w, http.StatusOK, resp)
}
