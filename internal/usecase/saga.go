package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"hotel-booking/internal/data/entity"
	"hotel-booking/internal/data/repository"
	"hotel-booking/pkg/alert"
	"hotel-booking/pkg/portone"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// PaymentGateway is the part of the PortOne client the orchestrators use.
type PaymentGateway interface {
	OneTimePayment(ctx context.Context, paymentID string, req portone.OneTimePaymentRequest) (*portone.PaymentResult, error)
	GetPayment(ctx context.Context, paymentID string) (*portone.Payment, error)
	CancelPayment(ctx context.Context, paymentID string, req portone.CancelRequest) (*portone.CancelResult, error)
	CreateBillingKey(ctx context.Context, req portone.BillingKeyRequest) (*portone.BillingKeyInfo, error)
	GetBillingKey(ctx context.Context, billingKey string) (*portone.BillingKeyInfo, error)
	CreateSchedule(ctx context.Context, paymentID string, req portone.ScheduleRequest) (*portone.ScheduleResult, error)
	RevokeSchedules(ctx context.Context, billingKey string) (*portone.RevokeSchedulesResult, error)
}

const (
	refundReasonSystem = "system error"
	refundReasonUser   = "User canceled reservation"
)

// errOutcomeUnknown marks a gateway step whose result could not be
// established; the saga stays open for the recovery worker.
var errOutcomeUnknown = errors.New("gateway outcome unknown")

// sagaSupport bundles what every saga step needs: the gateway under a
// deadline, durable state markers and the alert channel.
type sagaSupport struct {
	repo    *repository.Repository
	gateway PaymentGateway
	alerts  alert.Publisher
	timeout time.Duration
	lease   time.Duration
	now     func() time.Time
	log     *zap.Logger
}

func (s *sagaSupport) newSaga(kind entity.SagaKind, key string, userID uuid.UUID, amount int64) *entity.BookingSaga {
	now := s.now()
	lockedUntil := now.Add(s.lease)
	return &entity.BookingSaga{
		BaseNoDelete:   entity.BaseNoDelete{ID: uuid.New(), CreatedAt: now, UpdatedAt: now},
		Kind:           kind,
		IdempotencyKey: key,
		State:          entity.SagaStarted,
		UserID:         userID,
		Amount:         amount,
		Payload:        []byte(`{}`),
		LockedUntil:    &lockedUntil,
	}
}

// mark moves the saga from its current state to state. A write error is
// logged and returned; callers that can resume from the previous marker may
// ignore it. repository.ErrStateChanged means another runner owns the saga
// now and the caller must stop.
func (s *sagaSupport) mark(ctx context.Context, saga *entity.BookingSaga, state entity.SagaState, cause error) error {
	var lastErr *string
	if cause != nil {
		msg := cause.Error()
		lastErr = &msg
	}
	if err := s.repo.Saga.MarkState(context.WithoutCancel(ctx), saga.ID, saga.State, state, lastErr); err != nil {
		level := zap.ErrorLevel
		if errors.Is(err, repository.ErrStateChanged) {
			level = zap.WarnLevel
		}
		s.log.Log(level, "Failed to record saga state",
			zap.Error(err),
			zap.String("saga_id", saga.ID.String()),
			zap.String("from", string(saga.State)),
			zap.String("state", string(state)))
		return err
	}
	saga.State = state
	return nil
}

// capture records the transaction id the gateway returned for the saga.
func (s *sagaSupport) capture(ctx context.Context, saga *entity.BookingSaga, txID string) error {
	if err := s.repo.Saga.MarkCaptured(context.WithoutCancel(ctx), saga.ID, saga.State, txID); err != nil {
		s.log.Warn("Failed to record captured payment",
			zap.Error(err),
			zap.String("saga_id", saga.ID.String()),
			zap.String("transaction_id", txID))
		return err
	}
	saga.State = entity.SagaPaymentCaptured
	saga.TransactionID = &txID
	return nil
}

func (s *sagaSupport) raise(ctx context.Context, a alert.Alert) {
	if a.OccurredAt.IsZero() {
		a.OccurredAt = s.now().UTC()
	}
	if err := s.alerts.Publish(context.WithoutCancel(ctx), a); err != nil {
		s.log.Error("Failed to publish reconciliation alert", zap.Error(err), zap.String("kind", string(a.Kind)))
	}
}

func sagaAlert(kind alert.Kind, saga *entity.BookingSaga, reason string) alert.Alert {
	a := alert.Alert{
		Kind:      kind,
		SagaID:    saga.ID.String(),
		UserID:    saga.UserID.String(),
		PaymentID: saga.PaymentID,
		Amount:    saga.Amount,
		Reason:    reason,
	}
	if saga.ReservationID != nil {
		a.ReservationID = saga.ReservationID.String()
	}
	if saga.SubscriptionID != nil {
		a.SubscriptionID = saga.SubscriptionID.String()
	}
	if saga.TransactionID != nil {
		a.TransactionID = *saga.TransactionID
	}
	return a
}

func (s *sagaSupport) getPayment(ctx context.Context, paymentID string) (*portone.Payment, error) {
	gctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	return s.gateway.GetPayment(gctx, paymentID)
}

// charge captures a one-time payment. A timeout or duplicate-id answer is
// resolved by asking the gateway for the payment's real status, never by
// charging again.
func (s *sagaSupport) charge(ctx context.Context, saga *entity.BookingSaga, req portone.OneTimePaymentRequest) (string, error) {
	gctx, cancel := context.WithTimeout(ctx, s.timeout)
	result, err := s.gateway.OneTimePayment(gctx, saga.PaymentID, req)
	cancel()
	if err == nil {
		return result.TransactionID, nil
	}

	if !errors.Is(err, portone.ErrOutcomeUnknown) && !errors.Is(err, portone.ErrAlreadyExists) {
		s.log.Warn("Payment rejected", zap.Error(err), zap.String("payment_id", saga.PaymentID))
		return "", fmt.Errorf("%w: %v", ErrPayment, err)
	}

	s.log.Warn("Payment outcome unknown, querying gateway", zap.Error(err), zap.String("payment_id", saga.PaymentID))
	if merr := s.mark(ctx, saga, entity.SagaPaymentUnknown, err); errors.Is(merr, repository.ErrStateChanged) {
		return "", fmt.Errorf("%w: saga taken over: %v", errOutcomeUnknown, merr)
	}

	payment, qerr := s.getPayment(ctx, saga.PaymentID)
	switch {
	case errors.Is(qerr, portone.ErrNotFound):
		return "", fmt.Errorf("%w: payment was not created", ErrPayment)
	case qerr != nil:
		return "", fmt.Errorf("%w: %v", errOutcomeUnknown, qerr)
	}

	switch payment.Status {
	case portone.PaymentStatusPaid:
		return payment.TransactionID, nil
	case portone.PaymentStatusReady, portone.PaymentStatusPending:
		return "", fmt.Errorf("%w: payment status %s", errOutcomeUnknown, payment.Status)
	default:
		return "", fmt.Errorf("%w: payment status %s", ErrPayment, payment.Status)
	}
}

// refund cancels the whole payment. An unknown or still pending outcome is
// resolved by status query; a payment already CANCELLED counts as refunded.
func (s *sagaSupport) refund(ctx context.Context, paymentID, reason string) error {
	gctx, cancel := context.WithTimeout(ctx, s.timeout)
	result, err := s.gateway.CancelPayment(gctx, paymentID, portone.CancelRequest{Reason: reason})
	cancel()
	switch {
	case err == nil && result.Succeeded():
		return nil
	case err == nil && result.Pending():
		s.log.Info("Refund requested, not yet applied", zap.String("payment_id", paymentID))
	case err == nil:
		return fmt.Errorf("%w: refund status %s", ErrPayment, result.Status)
	case !errors.Is(err, portone.ErrOutcomeUnknown) && !errors.Is(err, portone.ErrAlreadyExists):
		return fmt.Errorf("%w: %v", ErrPayment, err)
	}

	payment, qerr := s.getPayment(ctx, paymentID)
	if qerr != nil {
		return fmt.Errorf("%w: %v", errOutcomeUnknown, qerr)
	}
	if payment.Status == portone.PaymentStatusCancelled {
		return nil
	}
	if err == nil {
		// requested: the PG applies it later, the worker checks again
		return fmt.Errorf("%w: refund requested, payment status %s", errOutcomeUnknown, payment.Status)
	}
	return fmt.Errorf("%w: refund not applied, payment status %s", ErrPayment, payment.Status)
}

// compensate refunds a captured payment whose booking or subscription could
// not be stored. An unknown refund outcome leaves the saga in compensating so
// the recovery worker tries again.
func (s *sagaSupport) compensate(ctx context.Context, saga *entity.BookingSaga, cause error) error {
	if saga.State != entity.SagaCompensating {
		if err := s.mark(ctx, saga, entity.SagaCompensating, cause); errors.Is(err, repository.ErrStateChanged) {
			return err
		}
	}

	err := s.refund(ctx, saga.PaymentID, refundReasonSystem)
	switch {
	case err == nil:
		_ = s.mark(ctx, saga, entity.SagaCompensated, cause)
		s.raise(ctx, sagaAlert(alert.KindCompensated, saga, fmt.Sprintf("refunded: %v", cause)))
		return nil
	case errors.Is(err, errOutcomeUnknown):
		s.raise(ctx, sagaAlert(alert.KindPaymentUnknown, saga, fmt.Sprintf("refund outcome unknown: %v", err)))
		return err
	default:
		_ = s.mark(ctx, saga, entity.SagaCompensationFailed, err)
		s.raise(ctx, sagaAlert(alert.KindCompensationFailed, saga, err.Error()))
		return err
	}
}
