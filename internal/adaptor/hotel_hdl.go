package adaptor

import (
	"net/http"

	"hotel-booking/internal/dto/request"
	"hotel-booking/internal/usecase"
	"hotel-booking/pkg/utils"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// HotelHandler serves the catalog: hotels and their rooms.
type HotelHandler struct {
	hotels usecase.HotelService
	rooms  usecase.RoomService
	log    *zap.Logger
}

func NewHotelHandler(hotels usecase.HotelService, rooms usecase.RoomService, log *zap.Logger) *HotelHandler {
	return &HotelHandler{
		hotels: hotels,
		rooms:  rooms,
		log:    log.With(zap.String("handler", "hotel")),
	}
}

// ListHotels handles GET /api/hotels?city=&country=&name=
func (h *HotelHandler) ListHotels(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	req := &request.HotelFilterRequest{
		PaginatedRequest: paginationFrom(r),
		City:             query.Get("city"),
		Country:          query.Get("country"),
		Name:             query.Get("name"),
	}

	hotels, err := h.hotels.ListHotels(r.Context(), req)
	if err != nil {
		handleServiceError(h.log, w, err, "list hotels")
		return
	}

	utils.ResponseSuccess(w, "success", hotels)
}

// GetHotel handles GET /api/hotels/{id}
func (h *HotelHandler) GetHotel(w http.ResponseWriter, r *http.Request) {
	hotel, err := h.hotels.GetHotel(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		handleServiceError(h.log, w, err, "get hotel")
		return
	}

	utils.ResponseSuccess(w, "success", hotel)
}

// ListHotelRooms handles GET /api/hotels/{id}/rooms
func (h *HotelHandler) ListHotelRooms(w http.ResponseWriter, r *http.Request) {
	req := paginationFrom(r)
	rooms, err := h.rooms.ListHotelRooms(r.Context(), chi.URLParam(r, "id"), &req)
	if err != nil {
		handleServiceError(h.log, w, err, "list hotel rooms")
		return
	}

	utils.ResponseSuccess(w, "success", rooms)
}

// GetRoom handles GET /api/rooms/{id}
func (h *HotelHandler) GetRoom(w http.ResponseWriter, r *http.Request) {
	room, err := h.rooms.GetRoom(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		handleServiceError(h.log, w, err, "get room")
		return
	}

	utils.ResponseSuccess(w, "success", room)
}

// SearchAvailable handles GET /api/rooms/available?check_in_date=&check_out_date=&guests=&hotel_id=
func (h *HotelHandler) SearchAvailable(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	req := &request.AvailableRoomsRequest{
		PaginatedRequest: paginationFrom(r),
		CheckInDate:      query.Get("check_in_date"),
		CheckOutDate:     query.Get("check_out_date"),
		Guests:           utils.ParseInt(query.Get("guests"), 0),
	}
	if hotelID := query.Get("hotel_id"); hotelID != "" {
		req.HotelID = &hotelID
	}

	rooms, err := h.rooms.SearchAvailable(r.Context(), req)
	if err != nil {
		handleServiceError(h.log, w, err, "search available rooms")
		return
	}

	utils.ResponseSuccess(w, "success", rooms)
}

// CreateHotel handles POST /api/admin/hotels
func (h *HotelHandler) CreateHotel(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}
	var req request.HotelRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if validationErrors := utils.ValidateStruct(req); len(validationErrors) > 0 {
		utils.ResponseBadRequest(w, "Validation failed", validationErrors)
		return
	}

	hotel, err := h.hotels.CreateHotel(r.Context(), actor, &req)
	if err != nil {
		handleServiceError(h.log, w, err, "create hotel")
		return
	}

	utils.ResponseCreated(w, "Hotel created", hotel)
}

// UpdateHotel handles PUT /api/admin/hotels/{id}
func (h *HotelHandler) UpdateHotel(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}
	var req request.HotelUpdateRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if validationErrors := utils.ValidateStruct(req); len(validationErrors) > 0 {
		utils.ResponseBadRequest(w, "Validation failed", validationErrors)
		return
	}

	hotel, err := h.hotels.UpdateHotel(r.Context(), actor, chi.URLParam(r, "id"), &req)
	if err != nil {
		handleServiceError(h.log, w, err, "update hotel")
		return
	}

	utils.ResponseSuccess(w, "Hotel updated", hotel)
}

// DeleteHotel handles DELETE /api/admin/hotels/{id}
func (h *HotelHandler) DeleteHotel(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}

	if err := h.hotels.DeleteHotel(r.Context(), actor, chi.URLParam(r, "id")); err != nil {
		handleServiceError(h.log, w, err, "delete hotel")
		return
	}

	utils.ResponseSuccess(w, "Hotel deleted", nil)
}

// CreateRoom handles POST /api/manager/rooms and /api/admin/rooms
func (h *HotelHandler) CreateRoom(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}
	var req request.RoomRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if validationErrors := utils.ValidateStruct(req); len(validationErrors) > 0 {
		utils.ResponseBadRequest(w, "Validation failed", validationErrors)
		return
	}

	room, err := h.rooms.CreateRoom(r.Context(), actor, &req)
	if err != nil {
		handleServiceError(h.log, w, err, "create room")
		return
	}

	utils.ResponseCreated(w, "Room created", room)
}

// UpdateRoom handles PUT /api/manager/rooms/{id} and /api/admin/rooms/{id}
func (h *HotelHandler) UpdateRoom(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}
	var req request.RoomUpdateRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if validationErrors := utils.ValidateStruct(req); len(validationErrors) > 0 {
		utils.ResponseBadRequest(w, "Validation failed", validationErrors)
		return
	}

	room, err := h.rooms.UpdateRoom(r.Context(), actor, chi.URLParam(r, "id"), &req)
	if err != nil {
		handleServiceError(h.log, w, err, "update room")
		return
	}

	utils.ResponseSuccess(w, "Room updated", room)
}

// DeleteRoom handles DELETE /api/manager/rooms/{id} and /api/admin/rooms/{id}
func (h *HotelHandler) DeleteRoom(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}

	if err := h.rooms.DeleteRoom(r.Context(), actor, chi.URLParam(r, "id")); err != nil {
		handleServiceError(h.log, w, err, "delete room")
		return
	}

	utils.ResponseSuccess(w, "Room deleted", nil)
}
