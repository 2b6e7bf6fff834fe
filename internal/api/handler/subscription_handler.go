package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/notifyhub/event-notifications/internal/domain"
	"github.com/notifyhub/event-notifications/internal/service"
)

// SubscriptionHandler manages push-delivery registrations.
type SubscriptionHandler struct {
	svc    *service.SubscriptionService
	logger *zap.Logger
}

func NewSubscriptionHandler(svc *service.SubscriptionService, logger *zap.Logger) *SubscriptionHandler {
	return &SubscriptionHandler{svc: svc, logger: logger}
}

// Create handles POST /api/v1/subscriptions
func (h *SubscriptionHandler) Create(w http.ResponseWriter, r *http.Request) {
	var sub domain.Subscription
	if err := json.NewDecoder(r.Body).Decode(&sub); err != nil {
		respondError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	created, err := h.svc.Create(r.Context(), &sub)
	if err != nil {
		h.logger.Warn("create subscription failed", zap.Error(err))
		mapError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, created)
}

// List handles GET /api/v1/subscriptions
func (h *SubscriptionHandler) List(w http.ResponseWriter, r *http.Request) {
	subs, err := h.svc.List(r.Context())
	if err != nil {
		h.logger.Warn("list subscriptions failed", zap.Error(err))
		mapError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, subs)
}

// GetByClientID handles GET /api/v1/subscriptions/{clientId}
func (h *SubscriptionHandler) GetByClientID(w http.ResponseWriter, r *http.Request) {
	clientID := chi.URLParam(r, "clientId")
	sub, err := h.svc.GetByClientID(r.Context(), clientID)
	if err != nil {
		mapError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, sub)
}
