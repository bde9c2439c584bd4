package request

const (
	PaymentMethodBillingKey = "billing_key"
	PaymentMethodCard       = "card"
)

type CardRequest struct {
	Number            string `json:"number" validate:"required,numeric,min=12,max=19"`
	ExpiryYear        string `json:"expiry_year" validate:"required,len=2,numeric"`
	ExpiryMonth       string `json:"expiry_month" validate:"required,len=2,numeric"`
	BirthOrBusinessNo string `json:"birth_or_business_no,omitempty" validate:"omitempty,numeric"`
	PasswordTwoDigits string `json:"password_two_digits,omitempty" validate:"omitempty,len=2,numeric"`
}

type CreateReservationRequest struct {
	HotelRoomID    string `json:"hotel_room_id" validate:"required,uuid4"`
	CheckInDate    string `json:"check_in_date" validate:"required"`
	CheckOutDate   string `json:"check_out_date" validate:"required"`
	NumberOfGuests int    `json:"number_of_guests" validate:"required,gte=1"`
	TotalPrice     int64  `json:"total_price" validate:"required,gt=0"`
	// OrderToken is chosen by the client and reused on retries of the same
	// booking so the guest is never charged twice.
	OrderToken    string       `json:"order_token" validate:"required,min=8,max=64"`
	PaymentMethod string       `json:"payment_method" validate:"required,oneof=billing_key card"`
	Card          *CardRequest `json:"card,omitempty" validate:"required_if=PaymentMethod card"`
	OrderName     string       `json:"order_name,omitempty" validate:"omitempty,max=100"`
}

type CancelReservationRequest struct {
	Reason string `json:"reason,omitempty" validate:"omitempty,max=200"`
}

type UpdateReservationStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=CHECKED_IN CHECKED_OUT"`
}

type ReservationFilterRequest struct {
	PaginatedRequest
	Status string `json:"status" validate:"omitempty,oneof=RESERVED CHECKED_IN CHECKED_OUT CANCELLED"`
}
