package wire

import (
	"hotel-booking/internal/adaptor"

	"github.com/go-chi/chi/v5"
)

func wireHotel(r chi.Router, hotelHandler *adaptor.HotelHandler, g *guards) {
	// ==================== PUBLIC ROUTES ====================
	r.Get("/api/hotels", hotelHandler.ListHotels)
	r.Get("/api/hotels/{id}", hotelHandler.GetHotel)
	r.Get("/api/hotels/{id}/rooms", hotelHandler.ListHotelRooms)
	r.Get("/api/rooms/available", hotelHandler.SearchAvailable)
	r.Get("/api/rooms/{id}", hotelHandler.GetRoom)

	// ==================== MANAGER ROUTES ====================
	// Managers only touch rooms of their own hotel; the service checks it
	r.Group(func(r chi.Router) {
		r.Use(g.auth, g.manager)

		r.Post("/api/manager/rooms", hotelHandler.CreateRoom)
		r.Put("/api/manager/rooms/{id}", hotelHandler.UpdateRoom)
		r.Delete("/api/manager/rooms/{id}", hotelHandler.DeleteRoom)
	})

	// ==================== ADMIN ROUTES ====================
	r.Group(func(r chi.Router) {
		r.Use(g.auth, g.admin)

		r.Post("/api/admin/hotels", hotelHandler.CreateHotel)
		r.Put("/api/admin/hotels/{id}", hotelHandler.UpdateHotel)
		r.Delete("/api/admin/hotels/{id}", hotelHandler.DeleteHotel)

		r.Post("/api/admin/rooms", hotelHandler.CreateRoom)
		r.Put("/api/admin/rooms/{id}", hotelHandler.UpdateRoom)
		r.Delete("/api/admin/rooms/{id}", hotelHandler.DeleteRoom)
	})
}
