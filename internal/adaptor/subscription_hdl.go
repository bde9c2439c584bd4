package adaptor

import (
	"io"
	"net/http"

	"hotel-booking/internal/dto/request"
	"hotel-booking/internal/usecase"
	"hotel-booking/pkg/utils"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

const maxWebhookBody = 64 << 10

type SubscriptionHandler struct {
	service usecase.SubscriptionService
	log     *zap.Logger
}

func NewSubscriptionHandler(service usecase.SubscriptionService, log *zap.Logger) *SubscriptionHandler {
	return &SubscriptionHandler{
		service: service,
		log:     log.With(zap.String("handler", "subscription")),
	}
}

// ListPlans handles GET /api/subscriptions/plans
func (h *SubscriptionHandler) ListPlans(w http.ResponseWriter, r *http.Request) {
	plans, err := h.service.ListPlans(r.Context())
	if err != nil {
		handleServiceError(h.log, w, err, "list plans")
		return
	}

	utils.ResponseSuccess(w, "success", plans)
}

// CreateSubscription handles POST /api/subscriptions
func (h *SubscriptionHandler) CreateSubscription(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}

	var req request.CreateSubscriptionRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if validationErrors := utils.ValidateStruct(req); len(validationErrors) > 0 {
		utils.ResponseBadRequest(w, "Validation failed", validationErrors)
		return
	}

	sub, err := h.service.CreateSubscription(r.Context(), actor, &req)
	if err != nil {
		handleServiceError(h.log, w, err, "create subscription")
		return
	}

	utils.ResponseCreated(w, "Subscription started", sub)
}

// ListMySubscriptions handles GET /api/user/subscriptions
func (h *SubscriptionHandler) ListMySubscriptions(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}

	subs, err := h.service.GetMySubscriptions(r.Context(), actor)
	if err != nil {
		handleServiceError(h.log, w, err, "list my subscriptions")
		return
	}

	utils.ResponseSuccess(w, "success", subs)
}

// CancelSubscription handles POST /api/subscriptions/{id}/cancel and the
// admin variant.
func (h *SubscriptionHandler) CancelSubscription(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}

	sub, err := h.service.CancelSubscription(r.Context(), actor, chi.URLParam(r, "id"))
	if err != nil {
		handleServiceError(h.log, w, err, "cancel subscription")
		return
	}

	utils.ResponseSuccess(w, "Subscription cancelled", sub)
}

// Webhook handles POST /subscriptions/webhook from the payment gateway. The
// raw body is passed on untouched so the signature can be checked.
func (h *SubscriptionHandler) Webhook(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxWebhookBody))
	if err != nil {
		utils.ResponseBadRequest(w, "Invalid request body", nil)
		return
	}

	result, err := h.service.HandleWebhook(r.Context(), body, r.Header)
	if err != nil {
		handleServiceError(h.log, w, err, "handle subscription webhook")
		return
	}

	utils.ResponseSuccess(w, "Webhook processed", result)
}
