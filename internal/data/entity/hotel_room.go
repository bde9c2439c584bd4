package entity

import "github.com/google/uuid"

type HotelRoom struct {
	Base
	HotelID       uuid.UUID `db:"hotel_id"`
	RoomNumber    string    `db:"room_number"`
	RoomType      string    `db:"room_type"`
	Capacity      int       `db:"capacity"`
	PricePerNight int64     `db:"price_per_night"` // KRW
	Description   *string   `db:"description"`
	Amenities     *string   `db:"amenities"`
	IsAvailable   bool      `db:"is_available"`
}
