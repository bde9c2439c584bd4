package entity

import (
	"time"

	"github.com/google/uuid"
)

type SagaKind string

const (
	SagaReservationCreate    SagaKind = "reservation_create"
	SagaReservationCancel    SagaKind = "reservation_cancel"
	SagaSubscriptionCreate   SagaKind = "subscription_create"
	SagaSubscriptionSchedule SagaKind = "subscription_schedule"
)

// SagaState is the last completed step of a saga. Every step writes its
// marker before the next external call, so a restart knows where to resume.
// A rejected saga ended before any money moved and its key may start over.
type SagaState string

const (
	SagaStarted            SagaState = "started"
	SagaPaymentUnknown     SagaState = "payment_unknown"
	SagaPaymentCaptured    SagaState = "payment_captured"
	SagaCompensating       SagaState = "compensating"
	SagaRefundConfirmed    SagaState = "refund_confirmed"
	SagaCompleted          SagaState = "completed"
	SagaFailed             SagaState = "failed"
	SagaRejected           SagaState = "rejected"
	SagaCompensated        SagaState = "compensated"
	SagaCompensationFailed SagaState = "compensation_failed"
)

// OpenSagaStates are picked up by the recovery worker.
var OpenSagaStates = []SagaState{
	SagaStarted, SagaPaymentUnknown, SagaPaymentCaptured, SagaCompensating, SagaRefundConfirmed,
}

func (s SagaState) Terminal() bool {
	switch s {
	case SagaCompleted, SagaFailed, SagaRejected, SagaCompensated, SagaCompensationFailed:
		return true
	}
	return false
}

type BookingSaga struct {
	BaseNoDelete
	Kind           SagaKind   `db:"kind"`
	IdempotencyKey string     `db:"idempotency_key"`
	State          SagaState  `db:"state"`
	UserID         uuid.UUID  `db:"user_id"`
	ReservationID  *uuid.UUID `db:"reservation_id"`
	SubscriptionID *uuid.UUID `db:"subscription_id"`
	PaymentID      string     `db:"payment_id"`
	TransactionID  *string    `db:"transaction_id"`
	Amount         int64      `db:"amount"`
	Payload        []byte     `db:"payload"` // JSON, kind specific
	Attempts       int        `db:"attempts"`
	LastError      *string    `db:"last_error"`
	LockedUntil    *time.Time `db:"locked_until"`
}
