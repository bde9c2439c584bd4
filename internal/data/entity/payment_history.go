package entity

import "github.com/google/uuid"

type PaymentType string

const (
	PaymentTypeReservation  PaymentType = "reservation"
	PaymentTypeDeposit      PaymentType = "deposit"
	PaymentTypeRefund       PaymentType = "refund"
	PaymentTypeSubscription PaymentType = "subscription"
)

type PaymentStatus string

const (
	PaymentStatusCompleted PaymentStatus = "completed"
	PaymentStatusPending   PaymentStatus = "pending"
	PaymentStatusFailed    PaymentStatus = "failed"
	PaymentStatusRefunded  PaymentStatus = "refunded"
)

// PaymentHistory is an append-only ledger row; only Status changes after insert.
type PaymentHistory struct {
	BaseNoDelete
	UserID         uuid.UUID     `db:"user_id"`
	ReservationID  *uuid.UUID    `db:"reservation_id"`
	SubscriptionID *uuid.UUID    `db:"subscription_id"`
	Amount         int64         `db:"amount"`
	PaymentType    PaymentType   `db:"payment_type"`
	Status         PaymentStatus `db:"status"`
	TransactionID  *string       `db:"transaction_id"`
	PaymentID      string        `db:"payment_id"`
	PaymentMethod  *string       `db:"payment_method"`
	Description    *string       `db:"description"`
}
