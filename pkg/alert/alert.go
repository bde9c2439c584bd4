// Package alert delivers reconciliation alerts: money moved at the gateway
// but the database does not agree, or the outcome is unknown. Operators (or a
// downstream consumer) must act on every alert.
package alert

import (
	"context"
	"time"

	"go.uber.org/zap"
)

type Kind string

const (
	KindCompensationFailed   Kind = "compensation_failed"
	KindCompensated          Kind = "compensated"
	KindRefundNotRecorded    Kind = "refund_not_recorded"
	KindPaymentUnknown       Kind = "payment_unknown"
	KindMissingPayment       Kind = "missing_payment_record"
	KindScheduleFailed       Kind = "subscription_schedule_failed"
	KindSagaAttemptsExceeded Kind = "saga_attempts_exceeded"
	KindScheduleNotRevoked   Kind = "subscription_schedule_not_revoked"
	KindChargeAfterCancel    Kind = "charge_after_cancellation"
)

type Alert struct {
	Kind           Kind      `json:"kind"`
	SagaID         string    `json:"saga_id,omitempty"`
	ReservationID  string    `json:"reservation_id,omitempty"`
	SubscriptionID string    `json:"subscription_id,omitempty"`
	UserID         string    `json:"user_id,omitempty"`
	PaymentID      string    `json:"payment_id,omitempty"`
	TransactionID  string    `json:"transaction_id,omitempty"`
	Amount         int64     `json:"amount,omitempty"`
	Reason         string    `json:"reason"`
	OccurredAt     time.Time `json:"occurred_at"`
}

func (a Alert) fields() []zap.Field {
	return []zap.Field{
		zap.String("kind", string(a.Kind)),
		zap.String("saga_id", a.SagaID),
		zap.String("reservation_id", a.ReservationID),
		zap.String("subscription_id", a.SubscriptionID),
		zap.String("user_id", a.UserID),
		zap.String("payment_id", a.PaymentID),
		zap.String("transaction_id", a.TransactionID),
		zap.Int64("amount", a.Amount),
		zap.String("reason", a.Reason),
	}
}

type Publisher interface {
	Publish(ctx context.Context, a Alert) error
}

// logPublisher writes alerts to the error log only. Used when no broker is
// configured.
type logPublisher struct {
	log *zap.Logger
}

func NewLogPublisher(log *zap.Logger) Publisher {
	return &logPublisher{log: log.With(zap.String("component", "alert"))}
}

func (p *logPublisher) Publish(_ context.Context, a Alert) error {
	if a.OccurredAt.IsZero() {
		a.OccurredAt = time.Now().UTC()
	}
	p.log.Error("RECONCILIATION ALERT", a.fields()...)
	return nil
}
