package wire

import (
	"hotel-booking/internal/adaptor"

	"github.com/go-chi/chi/v5"
)

func wireUser(r chi.Router, userHandler *adaptor.UserHandler, adminHandler *adaptor.AdminHandler, g *guards) {
	// ==================== GUEST ROUTES ====================
	r.Group(func(r chi.Router) {
		r.Use(g.auth, g.guest)

		r.Get("/api/user/profile", userHandler.GetProfile)
		r.Put("/api/user/profile", userHandler.UpdateProfile)
	})

	// ==================== ADMIN ROUTES ====================
	r.Group(func(r chi.Router) {
		r.Use(g.auth, g.admin)

		r.Get("/api/admin/users", adminHandler.ListUsers)
		r.Delete("/api/admin/users/{id}", adminHandler.DeactivateUser)
		r.Post("/api/admin/managers", adminHandler.CreateManager)
		r.Get("/api/admin/logs", adminHandler.ListLogs)
	})
}
