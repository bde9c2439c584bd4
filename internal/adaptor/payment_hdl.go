package adaptor

import (
	"net/http"

	"hotel-booking/internal/dto/request"
	"hotel-booking/internal/usecase"
	"hotel-booking/pkg/utils"

	"go.uber.org/zap"
)

type PaymentHandler struct {
	service usecase.PaymentService
	log     *zap.Logger
}

func NewPaymentHandler(service usecase.PaymentService, log *zap.Logger) *PaymentHandler {
	return &PaymentHandler{
		service: service,
		log:     log.With(zap.String("handler", "payment")),
	}
}

// RegisterBillingKey handles POST /api/payments/billing-key
func (h *PaymentHandler) RegisterBillingKey(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}

	var req request.RegisterBillingKeyRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if validationErrors := utils.ValidateStruct(req); len(validationErrors) > 0 {
		utils.ResponseBadRequest(w, "Validation failed", validationErrors)
		return
	}

	key, err := h.service.RegisterBillingKey(r.Context(), actor, &req)
	if err != nil {
		handleServiceError(h.log, w, err, "register billing key")
		return
	}

	utils.ResponseCreated(w, "Billing key registered", key)
}

// GetBillingKey handles GET /api/payments/billing-key
func (h *PaymentHandler) GetBillingKey(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}

	key, err := h.service.GetBillingKey(r.Context(), actor)
	if err != nil {
		handleServiceError(h.log, w, err, "get billing key")
		return
	}

	utils.ResponseSuccess(w, "success", key)
}

// ListMyPayments handles GET /api/user/payments
func (h *PaymentHandler) ListMyPayments(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}

	req := paginationFrom(r)
	payments, err := h.service.ListMyPayments(r.Context(), actor, &req)
	if err != nil {
		handleServiceError(h.log, w, err, "list my payments")
		return
	}

	utils.ResponseSuccess(w, "success", payments)
}

// ListPayments handles GET /api/admin/payments
func (h *PaymentHandler) ListPayments(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}

	req := paginationFrom(r)
	payments, err := h.service.ListPayments(r.Context(), actor, &req)
	if err != nil {
		handleServiceError(h.log, w, err, "list payments")
		return
	}

	utils.ResponseSuccess(w, "success", payments)
}
