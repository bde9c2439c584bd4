package request

type HotelRequest struct {
	Name         string  `json:"name" validate:"required,min=1,max=100"`
	Address      string  `json:"address" validate:"required,min=1,max=200"`
	City         string  `json:"city" validate:"required,min=1,max=100"`
	Country      string  `json:"country" validate:"required,min=1,max=100"`
	StarRating   int     `json:"star_rating" validate:"required,min=1,max=5"`
	Description  *string `json:"description,omitempty" validate:"omitempty,max=2000"`
	Amenities    *string `json:"amenities,omitempty" validate:"omitempty,max=1000"`
	Phone        *string `json:"phone,omitempty" validate:"omitempty,min=8,max=20"`
	Email        *string `json:"email,omitempty" validate:"omitempty,email"`
	Website      *string `json:"website,omitempty" validate:"omitempty,url"`
	CheckInTime  string  `json:"check_in_time" validate:"required,datetime=15:04"`
	CheckOutTime string  `json:"check_out_time" validate:"required,datetime=15:04"`
}

type HotelUpdateRequest struct {
	Name         *string `json:"name,omitempty" validate:"omitempty,min=1,max=100"`
	Address      *string `json:"address,omitempty" validate:"omitempty,min=1,max=200"`
	City         *string `json:"city,omitempty" validate:"omitempty,min=1,max=100"`
	Country      *string `json:"country,omitempty" validate:"omitempty,min=1,max=100"`
	StarRating   *int    `json:"star_rating,omitempty" validate:"omitempty,min=1,max=5"`
	Description  *string `json:"description,omitempty" validate:"omitempty,max=2000"`
	Amenities    *string `json:"amenities,omitempty" validate:"omitempty,max=1000"`
	Phone        *string `json:"phone,omitempty" validate:"omitempty,min=8,max=20"`
	Email        *string `json:"email,omitempty" validate:"omitempty,email"`
	Website      *string `json:"website,omitempty" validate:"omitempty,url"`
	CheckInTime  *string `json:"check_in_time,omitempty" validate:"omitempty,datetime=15:04"`
	CheckOutTime *string `json:"check_out_time,omitempty" validate:"omitempty,datetime=15:04"`
	IsActive     *bool   `json:"is_active,omitempty"`
}

type HotelFilterRequest struct {
	PaginatedRequest
	City    string `json:"city"`
	Country string `json:"country"`
	Name    string `json:"name"`
}

type RoomRequest struct {
	HotelID       string  `json:"hotel_id" validate:"required,uuid4"`
	RoomNumber    string  `json:"room_number" validate:"required,min=1,max=20"`
	RoomType      string  `json:"room_type" validate:"required,min=1,max=50"`
	Capacity      int     `json:"capacity" validate:"required,min=1,max=20"`
	PricePerNight int64   `json:"price_per_night" validate:"required,gt=0"`
	Description   *string `json:"description,omitempty" validate:"omitempty,max=2000"`
	Amenities     *string `json:"amenities,omitempty" validate:"omitempty,max=1000"`
}

type RoomUpdateRequest struct {
	RoomNumber    *string `json:"room_number,omitempty" validate:"omitempty,min=1,max=20"`
	RoomType      *string `json:"room_type,omitempty" validate:"omitempty,min=1,max=50"`
	Capacity      *int    `json:"capacity,omitempty" validate:"omitempty,min=1,max=20"`
	PricePerNight *int64  `json:"price_per_night,omitempty" validate:"omitempty,gt=0"`
	Description   *string `json:"description,omitempty" validate:"omitempty,max=2000"`
	Amenities     *string `json:"amenities,omitempty" validate:"omitempty,max=1000"`
	IsAvailable   *bool   `json:"is_available,omitempty"`
}

// AvailableRoomsRequest searches rooms free for the whole stay.
type AvailableRoomsRequest struct {
	PaginatedRequest
	CheckInDate  string  `json:"check_in_date" validate:"required"`
	CheckOutDate string  `json:"check_out_date" validate:"required"`
	Guests       int     `json:"guests" validate:"min=0,max=20"`
	HotelID      *string `json:"hotel_id,omitempty" validate:"omitempty,uuid4"`
}
