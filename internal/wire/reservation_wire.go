package wire

import (
	"hotel-booking/internal/adaptor"

	"github.com/go-chi/chi/v5"
)

func wireReservation(r chi.Router, reservationHandler *adaptor.ReservationHandler, paymentHandler *adaptor.PaymentHandler, g *guards) {
	// ==================== PUBLIC ROUTES ====================
	r.Get("/api/rooms/{id}/availability", reservationHandler.CheckAvailability)
	r.Get("/api/rooms/{id}/occupancy", reservationHandler.GetRoomOccupancy)

	// ==================== GUEST ROUTES ====================
	r.Group(func(r chi.Router) {
		r.Use(g.auth, g.guest)

		r.Post("/api/reservations", reservationHandler.CreateReservation)
		r.Get("/api/reservations/{id}", reservationHandler.GetReservation)
		r.Post("/api/reservations/{id}/cancel", reservationHandler.CancelReservation)
		r.Get("/api/user/reservations", reservationHandler.ListMyReservations)

		r.Post("/api/payments/billing-key", paymentHandler.RegisterBillingKey)
		r.Get("/api/payments/billing-key", paymentHandler.GetBillingKey)
		r.Get("/api/user/payments", paymentHandler.ListMyPayments)
	})

	// ==================== ADMIN ROUTES ====================
	r.Group(func(r chi.Router) {
		r.Use(g.auth, g.admin)

		r.Get("/api/admin/reservations", reservationHandler.ListReservations)
		r.Put("/api/admin/reservations/{id}/status", reservationHandler.UpdateReservationStatus)
		r.Post("/api/admin/reservations/{id}/cancel", reservationHandler.CancelReservation)
		r.Get("/api/admin/payments", paymentHandler.ListPayments)
	})
}
