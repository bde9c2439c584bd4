package wire

import (
	"hotel-booking/internal/adaptor"

	"github.com/go-chi/chi/v5"
)

func wireAuth(r chi.Router, authHandler *adaptor.AuthHandler, g *guards) {
	// ==================== PUBLIC ROUTES ====================
	r.With(g.authLimit).Post("/api/register", authHandler.Register)
	r.With(g.authLimit).Post("/api/login", authHandler.Login)

	// ==================== PROTECTED ROUTES ====================
	// Any authenticated role may end its own session
	r.With(g.auth).Post("/api/logout", authHandler.Logout)
}
