package adaptor

import (
	"net/http"

	"hotel-booking/internal/dto/request"
	"hotel-booking/internal/usecase"
	"hotel-booking/pkg/utils"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

type ReviewHandler struct {
	service usecase.ReviewService
	log     *zap.Logger
}

func NewReviewHandler(service usecase.ReviewService, log *zap.Logger) *ReviewHandler {
	return &ReviewHandler{
		service: service,
		log:     log.With(zap.String("handler", "review")),
	}
}

// ListHotelReviews handles GET /api/hotels/{id}/reviews (public)
func (h *ReviewHandler) ListHotelReviews(w http.ResponseWriter, r *http.Request) {
	req := paginationFrom(r)
	reviews, err := h.service.ListHotelReviews(r.Context(), chi.URLParam(r, "id"), &req)
	if err != nil {
		handleServiceError(h.log, w, err, "list hotel reviews")
		return
	}

	utils.ResponseSuccess(w, "success", reviews)
}

// GetHotelReviewStats handles GET /api/hotels/{id}/review-stats (public)
func (h *ReviewHandler) GetHotelReviewStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.service.GetHotelReviewStats(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		handleServiceError(h.log, w, err, "get hotel review stats")
		return
	}

	utils.ResponseSuccess(w, "success", stats)
}

// ListReplies handles GET /api/reviews/{id}/replies (public)
func (h *ReviewHandler) ListReplies(w http.ResponseWriter, r *http.Request) {
	replies, err := h.service.ListReplies(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		handleServiceError(h.log, w, err, "list replies")
		return
	}

	utils.ResponseSuccess(w, "success", replies)
}

// CreateReview handles POST /api/reviews
func (h *ReviewHandler) CreateReview(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}

	var req request.CreateReviewRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if validationErrors := utils.ValidateStruct(req); len(validationErrors) > 0 {
		utils.ResponseBadRequest(w, "Validation failed", validationErrors)
		return
	}

	review, err := h.service.CreateReview(r.Context(), actor, &req)
	if err != nil {
		handleServiceError(h.log, w, err, "create review")
		return
	}

	utils.ResponseCreated(w, "success", review)
}

// ListMyReviews handles GET /api/user/reviews
func (h *ReviewHandler) ListMyReviews(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}

	req := paginationFrom(r)
	reviews, err := h.service.ListMyReviews(r.Context(), actor, &req)
	if err != nil {
		handleServiceError(h.log, w, err, "list my reviews")
		return
	}

	utils.ResponseSuccess(w, "success", reviews)
}

// UpdateReview handles PUT /api/reviews/{id} (owner only)
func (h *ReviewHandler) UpdateReview(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}

	var req request.UpdateReviewRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if validationErrors := utils.ValidateStruct(req); len(validationErrors) > 0 {
		utils.ResponseBadRequest(w, "Validation failed", validationErrors)
		return
	}

	review, err := h.service.UpdateReview(r.Context(), actor, chi.URLParam(r, "id"), &req)
	if err != nil {
		handleServiceError(h.log, w, err, "update review")
		return
	}

	utils.ResponseSuccess(w, "success", review)
}

// DeleteReview handles DELETE /api/reviews/{id} (owner only)
func (h *ReviewHandler) DeleteReview(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}

	if err := h.service.DeleteReview(r.Context(), actor, chi.URLParam(r, "id")); err != nil {
		handleServiceError(h.log, w, err, "delete review")
		return
	}

	utils.ResponseSuccess(w, "success", nil)
}

// AdminDeleteReview handles DELETE /api/admin/reviews/{id}
func (h *ReviewHandler) AdminDeleteReview(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}

	var req request.AdminDeleteReviewRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if validationErrors := utils.ValidateStruct(req); len(validationErrors) > 0 {
		utils.ResponseBadRequest(w, "Validation failed", validationErrors)
		return
	}

	if err := h.service.AdminDeleteReview(r.Context(), actor, chi.URLParam(r, "id"), &req); err != nil {
		handleServiceError(h.log, w, err, "admin delete review")
		return
	}

	utils.ResponseSuccess(w, "Review removed", nil)
}

// CreateReply handles POST /api/manager/replies
func (h *ReviewHandler) CreateReply(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}

	var req request.CreateReplyRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if validationErrors := utils.ValidateStruct(req); len(validationErrors) > 0 {
		utils.ResponseBadRequest(w, "Validation failed", validationErrors)
		return
	}

	reply, err := h.service.CreateReply(r.Context(), actor, &req)
	if err != nil {
		handleServiceError(h.log, w, err, "create reply")
		return
	}

	utils.ResponseCreated(w, "success", reply)
}

// UpdateReply handles PUT /api/manager/replies/{id}
func (h *ReviewHandler) UpdateReply(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}

	var req request.UpdateReplyRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if validationErrors := utils.ValidateStruct(req); len(validationErrors) > 0 {
		utils.ResponseBadRequest(w, "Validation failed", validationErrors)
		return
	}

	reply, err := h.service.UpdateReply(r.Context(), actor, chi.URLParam(r, "id"), &req)
	if err != nil {
		handleServiceError(h.log, w, err, "update reply")
		return
	}

	utils.ResponseSuccess(w, "success", reply)
}

// DeleteReply handles DELETE /api/manager/replies/{id}
func (h *ReviewHandler) DeleteReply(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}

	if err := h.service.DeleteReply(r.Context(), actor, chi.URLParam(r, "id")); err != nil {
		handleServiceError(h.log, w, err, "delete reply")
		return
	}

	utils.ResponseSuccess(w, "success", nil)
}
