package entity

import (
	"time"

	"github.com/google/uuid"
)

type ReservationStatus string

const (
	ReservationStatusReserved   ReservationStatus = "RESERVED"
	ReservationStatusCheckedIn  ReservationStatus = "CHECKED_IN"
	ReservationStatusCheckedOut ReservationStatus = "CHECKED_OUT"
	ReservationStatusCancelled  ReservationStatus = "CANCELLED"
)

// BlockingStatuses occupy the room for their [check-in, check-out) interval.
var BlockingStatuses = []ReservationStatus{ReservationStatusReserved, ReservationStatusCheckedIn}

func (s ReservationStatus) Valid() bool {
	switch s {
	case ReservationStatusReserved, ReservationStatusCheckedIn, ReservationStatusCheckedOut, ReservationStatusCancelled:
		return true
	}
	return false
}

func (s ReservationStatus) Terminal() bool {
	return s == ReservationStatusCheckedOut || s == ReservationStatusCancelled
}

// Cancellable: guests may cancel before check-out.
func (s ReservationStatus) Cancellable() bool {
	return s == ReservationStatusReserved || s == ReservationStatusCheckedIn
}

// CanAdvanceTo covers staff transitions only; cancellation has its own flow.
func (s ReservationStatus) CanAdvanceTo(next ReservationStatus) bool {
	switch s {
	case ReservationStatusReserved:
		return next == ReservationStatusCheckedIn
	case ReservationStatusCheckedIn:
		return next == ReservationStatusCheckedOut
	}
	return false
}

type Reservation struct {
	BaseNoDelete
	UserID         uuid.UUID         `db:"user_id"`
	HotelRoomID    uuid.UUID         `db:"hotel_room_id"`
	CheckInDate    time.Time         `db:"check_in_date"`
	CheckOutDate   time.Time         `db:"check_out_date"`
	NumberOfGuests int               `db:"number_of_guests"`
	TotalPrice     int64             `db:"total_price"`
	Status         ReservationStatus `db:"status"`
}

// Overlaps uses half-open intervals, so a stay ending on the day another
// begins does not conflict.
func (r *Reservation) Overlaps(checkIn, checkOut time.Time) bool {
	return r.CheckInDate.Before(checkOut) && r.CheckOutDate.After(checkIn)
}
