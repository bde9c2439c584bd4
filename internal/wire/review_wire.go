package wire

import (
	"hotel-booking/internal/adaptor"

	"github.com/go-chi/chi/v5"
)

func wireReview(r chi.Router, reviewHandler *adaptor.ReviewHandler, g *guards) {
	// ==================== PUBLIC ROUTES ====================
	r.Get("/api/hotels/{id}/reviews", reviewHandler.ListHotelReviews)
	r.Get("/api/hotels/{id}/review-stats", reviewHandler.GetHotelReviewStats)
	r.Get("/api/reviews/{id}/replies", reviewHandler.ListReplies)

	// ==================== GUEST ROUTES ====================
	r.Group(func(r chi.Router) {
		r.Use(g.auth, g.guest)

		r.Post("/api/reviews", reviewHandler.CreateReview)
		r.Get("/api/user/reviews", reviewHandler.ListMyReviews)
		r.Put("/api/reviews/{id}", reviewHandler.UpdateReview)
		r.Delete("/api/reviews/{id}", reviewHandler.DeleteReview)
	})

	// ==================== MANAGER ROUTES ====================
	r.Group(func(r chi.Router) {
		r.Use(g.auth, g.manager)

		r.Post("/api/manager/replies", reviewHandler.CreateReply)
		r.Put("/api/manager/replies/{id}", reviewHandler.UpdateReply)
		r.Delete("/api/manager/replies/{id}", reviewHandler.DeleteReply)
	})

	// ==================== ADMIN ROUTES ====================
	r.With(g.auth, g.admin).Delete("/api/admin/reviews/{id}", reviewHandler.AdminDeleteReview)
}
