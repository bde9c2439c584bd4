package response

import (
	"time"

	"hotel-booking/internal/data/entity"
)

type HotelResponse struct {
	ID            string    `json:"id"`
	Name          string    `json:"name"`
	Address       string    `json:"address"`
	City          string    `json:"city"`
	Country       string    `json:"country"`
	StarRating    int       `json:"star_rating"`
	Description   *string   `json:"description,omitempty"`
	Amenities     *string   `json:"amenities,omitempty"`
	Phone         *string   `json:"phone,omitempty"`
	Email         *string   `json:"email,omitempty"`
	Website       *string   `json:"website,omitempty"`
	CheckInTime   string    `json:"check_in_time"`
	CheckOutTime  string    `json:"check_out_time"`
	IsActive      bool      `json:"is_active"`
	AverageRating *float64  `json:"average_rating,omitempty"`
	ReviewCount   *int64    `json:"review_count,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}

type RoomResponse struct {
	ID            string    `json:"id"`
	HotelID       string    `json:"hotel_id"`
	RoomNumber    string    `json:"room_number"`
	RoomType      string    `json:"room_type"`
	Capacity      int       `json:"capacity"`
	PricePerNight int64     `json:"price_per_night"`
	Description   *string   `json:"description,omitempty"`
	Amenities     *string   `json:"amenities,omitempty"`
	IsAvailable   bool      `json:"is_available"`
	CreatedAt     time.Time `json:"created_at"`
}

type AvailabilityResponse struct {
	RoomID       string    `json:"room_id"`
	CheckInDate  time.Time `json:"check_in_date"`
	CheckOutDate time.Time `json:"check_out_date"`
	Available    bool      `json:"available"`
	Nights       int       `json:"nights"`
	TotalPrice   int64     `json:"total_price"`
}

type BookedInterval struct {
	CheckInDate  time.Time `json:"check_in_date"`
	CheckOutDate time.Time `json:"check_out_date"`
}

// OccupancyResponse lists booked intervals without guest data.
type OccupancyResponse struct {
	RoomID string           `json:"room_id"`
	Booked []BookedInterval `json:"booked"`
}

// Helper converters
func HotelToResponse(hotel *entity.Hotel) HotelResponse {
	return HotelResponse{
		ID:           hotel.ID.String(),
		Name:         hotel.Name,
		Address:      hotel.Address,
		City:         hotel.City,
		Country:      hotel.Country,
		StarRating:   hotel.StarRating,
		Description:  hotel.Description,
		Amenities:    hotel.Amenities,
		Phone:        hotel.Phone,
		Email:        hotel.Email,
		Website:      hotel.Website,
		CheckInTime:  hotel.CheckInTime,
		CheckOutTime: hotel.CheckOutTime,
		IsActive:     hotel.IsActive,
		CreatedAt:    hotel.CreatedAt,
	}
}

func RoomToResponse(room *entity.HotelRoom) RoomResponse {
	return RoomResponse{
		ID:            room.ID.String(),
		HotelID:       room.HotelID.String(),
		RoomNumber:    room.RoomNumber,
		RoomType:      room.RoomType,
		Capacity:      room.Capacity,
		PricePerNight: room.PricePerNight,
		Description:   room.Description,
		Amenities:     room.Amenities,
		IsAvailable:   room.IsAvailable,
		CreatedAt:     room.CreatedAt,
	}
}
