package handler

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	apimw "github.com/notifyhub/event-notifications/internal/api/middleware"
	"github.com/notifyhub/event-notifications/internal/domain"
	"github.com/notifyhub/event-notifications/internal/service"
)

// CreationHandler serves notification creation for the business sites that
// raise state-change events.
type CreationHandler struct {
	svc    *service.CreationService
	logger *zap.Logger
}

func NewCreationHandler(svc *service.CreationService, logger *zap.Logger) *CreationHandler {
	return &CreationHandler{svc: svc, logger: logger}
}

// Create handles POST /api/v1/events
func (h *CreationHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req domain.CreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	result, err := h.svc.Create(r.Context(), req)
	if err != nil {
		h.logger.Warn("create notification failed",
			zap.String("correlation_id", apimw.GetCorrelationID(r.Context())),
			zap.Error(err),
		)
		mapError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, result)
}
