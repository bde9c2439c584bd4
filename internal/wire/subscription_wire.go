package wire

import (
	"hotel-booking/internal/adaptor"

	"github.com/go-chi/chi/v5"
)

func wireSubscription(r chi.Router, subscriptionHandler *adaptor.SubscriptionHandler, g *guards) {
	// ==================== PUBLIC ROUTES ====================
	r.Get("/api/subscriptions/plans", subscriptionHandler.ListPlans)

	// Called by the payment gateway; authenticated by its signature
	r.With(g.webhookLimit).Post("/subscriptions/webhook", subscriptionHandler.Webhook)

	// ==================== GUEST ROUTES ====================
	r.Group(func(r chi.Router) {
		r.Use(g.auth, g.guest)

		r.Post("/api/subscriptions", subscriptionHandler.CreateSubscription)
		r.Get("/api/user/subscriptions", subscriptionHandler.ListMySubscriptions)
		r.Post("/api/subscriptions/{id}/cancel", subscriptionHandler.CancelSubscription)
	})

	// ==================== ADMIN ROUTES ====================
	r.With(g.auth, g.admin).Post("/api/admin/subscriptions/{id}/cancel", subscriptionHandler.CancelSubscription)
}
