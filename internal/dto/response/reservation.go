package response

import (
	"time"

	"hotel-booking/internal/data/entity"
)

type ReservationResponse struct {
	ID               string                   `json:"id"`
	UserID           string                   `json:"user_id"`
	HotelRoomID      string                   `json:"hotel_room_id"`
	CheckInDate      time.Time                `json:"check_in_date"`
	CheckOutDate     time.Time                `json:"check_out_date"`
	NumberOfGuests   int                      `json:"number_of_guests"`
	TotalPrice       int64                    `json:"total_price"`
	Status           entity.ReservationStatus `json:"status"`
	PaymentHistoryID *string                  `json:"payment_history_id,omitempty"`
	CreatedAt        time.Time                `json:"created_at"`
	UpdatedAt        time.Time                `json:"updated_at"`
}

type PaymentHistoryResponse struct {
	ID             string               `json:"id"`
	UserID         string               `json:"user_id"`
	ReservationID  *string              `json:"reservation_id,omitempty"`
	SubscriptionID *string              `json:"subscription_id,omitempty"`
	Amount         int64                `json:"amount"`
	PaymentType    entity.PaymentType   `json:"payment_type"`
	Status         entity.PaymentStatus `json:"status"`
	TransactionID  *string              `json:"transaction_id,omitempty"`
	PaymentID      string               `json:"payment_id"`
	PaymentMethod  *string              `json:"payment_method,omitempty"`
	Description    *string              `json:"description,omitempty"`
	CreatedAt      time.Time            `json:"created_at"`
}

type BillingKeyResponse struct {
	Registered bool   `json:"registered"`
	Status     string `json:"status,omitempty"`
}

// Helper converters
func ReservationToResponse(res *entity.Reservation, payment *entity.PaymentHistory) ReservationResponse {
	resp := ReservationResponse{
		ID:             res.ID.String(),
		UserID:         res.UserID.String(),
		HotelRoomID:    res.HotelRoomID.String(),
		CheckInDate:    res.CheckInDate,
		CheckOutDate:   res.CheckOutDate,
		NumberOfGuests: res.NumberOfGuests,
		TotalPrice:     res.TotalPrice,
		Status:         res.Status,
		CreatedAt:      res.CreatedAt,
		UpdatedAt:      res.UpdatedAt,
	}
	if payment != nil {
		id := payment.ID.String()
		resp.PaymentHistoryID = &id
	}
	return resp
}

func PaymentToResponse(p *entity.PaymentHistory) PaymentHistoryResponse {
	resp := PaymentHistoryResponse{
		ID:            p.ID.String(),
		UserID:        p.UserID.String(),
		Amount:        p.Amount,
		PaymentType:   p.PaymentType,
		Status:        p.Status,
		TransactionID: p.TransactionID,
		PaymentID:     p.PaymentID,
		PaymentMethod: p.PaymentMethod,
		Description:   p.Description,
		CreatedAt:     p.CreatedAt,
	}
	if p.ReservationID != nil {
		id := p.ReservationID.String()
		resp.ReservationID = &id
	}
	if p.SubscriptionID != nil {
		id := p.SubscriptionID.String()
		resp.SubscriptionID = &id
	}
	return resp
}
