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
	"hotel-booking/pkg/utils"

	"go.uber.org/zap"
)

// RecoveryWorker drives sagas left open by a crash, a timeout or a failed
// step to a terminal state. Every step it takes is one the request path
// could have taken, so running it next to live traffic is safe.
type RecoveryWorker struct {
	repo          *repository.Repository
	saga          *sagaSupport
	reservations  *reservationService
	subscriptions *subscriptionService
	interval      time.Duration
	maxAttempts   int
	batchSize     int
	log           *zap.Logger
}

func newRecoveryWorker(repo *repository.Repository, saga *sagaSupport, reservations *reservationService, subscriptions *subscriptionService, config utils.SagaConfig, log *zap.Logger) *RecoveryWorker {
	interval := config.RecoveryInterval
	if interval <= 0 {
		interval = time.Minute
	}
	batch := config.BatchSize
	if batch <= 0 {
		batch = 20
	}
	maxAttempts := config.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = 5
	}
	return &RecoveryWorker{
		repo:          repo,
		saga:          saga,
		reservations:  reservations,
		subscriptions: subscriptions,
		interval:      interval,
		maxAttempts:   maxAttempts,
		batchSize:     batch,
		log:           log.With(zap.String("service", "recovery")),
	}
}

// Start runs one pass immediately and then one per interval until ctx ends.
func (w *RecoveryWorker) Start(ctx context.Context) {
	w.log.Info("Recovery worker started", zap.Duration("interval", w.interval))

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		if _, err := w.RunOnce(ctx); err != nil && ctx.Err() == nil {
			w.log.Error("Recovery pass failed", zap.Error(err))
		}
		select {
		case <-ctx.Done():
			w.log.Info("Recovery worker stopped")
			return
		case <-ticker.C:
		}
	}
}

// RunOnce claims one batch of due sagas and advances each of them, then runs
// the periodic housekeeping. It returns how many sagas it claimed.
func (w *RecoveryWorker) RunOnce(ctx context.Context) (int, error) {
	sagas, err := w.repo.Saga.ClaimDue(ctx, w.saga.lease, w.batchSize)
	if err != nil {
		return 0, fmt.Errorf("claim sagas: %w", err)
	}

	for _, saga := range sagas {
		if ctx.Err() != nil {
			return len(sagas), ctx.Err()
		}
		w.advance(ctx, saga)
	}

	now := w.saga.now()
	if _, err := w.subscriptions.ExpireOverdue(ctx, now); err != nil {
		w.log.Error("Failed to expire subscriptions", zap.Error(err))
	}
	if n, err := w.repo.Session.CleanExpiredSessions(ctx); err != nil {
		w.log.Error("Failed to clean sessions", zap.Error(err))
	} else if n > 0 {
		w.log.Info("Expired sessions removed", zap.Int64("count", n))
	}

	return len(sagas), nil
}

func (w *RecoveryWorker) advance(ctx context.Context, saga *entity.BookingSaga) {
	log := w.log.With(
		zap.String("saga_id", saga.ID.String()),
		zap.String("kind", string(saga.Kind)),
		zap.String("state", string(saga.State)),
		zap.Int("attempts", saga.Attempts))

	if saga.Attempts > w.maxAttempts {
		w.giveUp(ctx, saga)
		log.Error("Saga gave up after too many attempts")
		return
	}

	var err error
	switch saga.Kind {
	case entity.SagaReservationCreate, entity.SagaSubscriptionCreate:
		err = w.advanceCreate(ctx, saga)
	case entity.SagaReservationCancel:
		err = w.advanceCancel(ctx, saga)
	case entity.SagaSubscriptionSchedule:
		err = w.subscriptions.schedule(ctx, saga)
	default:
		err = fmt.Errorf("unknown saga kind %q", saga.Kind)
	}

	if err != nil {
		log.Warn("Saga step did not finish, will retry", zap.Error(err))
		return
	}
	log.Info("Saga advanced", zap.String("now", string(saga.State)))
}

func (w *RecoveryWorker) giveUp(ctx context.Context, saga *entity.BookingSaga) {
	reason := fmt.Sprintf("gave up after %d attempts in state %s", saga.Attempts, saga.State)
	if saga.LastError != nil {
		reason += ": " + *saga.LastError
	}
	w.saga.mark(ctx, saga, entity.SagaCompensationFailed, errors.New(reason))

	kind := alert.KindSagaAttemptsExceeded
	if saga.Kind == entity.SagaSubscriptionSchedule {
		kind = alert.KindScheduleFailed
	}
	w.saga.raise(ctx, sagaAlert(kind, saga, reason))
}

// advanceCreate finishes a booking or subscription saga that never reached
// completed. The reservation or subscription row is written in the same
// transaction that completes the saga, so an open saga means no such row
// exists: any captured money goes back.
func (w *RecoveryWorker) advanceCreate(ctx context.Context, saga *entity.BookingSaga) error {
	switch saga.State {
	case entity.SagaPaymentCaptured, entity.SagaCompensating:
		return w.saga.compensate(ctx, saga, errors.New("purchase was not persisted"))

	case entity.SagaStarted, entity.SagaPaymentUnknown:
		payment, err := w.saga.getPayment(ctx, saga.PaymentID)
		switch {
		case errors.Is(err, portone.ErrNotFound):
			w.saga.mark(ctx, saga, entity.SagaFailed, errors.New("payment was never created"))
			return nil
		case err != nil:
			return fmt.Errorf("query payment %s: %w", saga.PaymentID, err)
		}

		switch payment.Status {
		case portone.PaymentStatusPaid:
			if err := w.saga.capture(ctx, saga, payment.TransactionID); err != nil {
				return fmt.Errorf("record capture: %w", err)
			}
			return w.saga.compensate(ctx, saga, errors.New("payment captured but purchase was abandoned"))
		case portone.PaymentStatusReady, portone.PaymentStatusPending:
			return fmt.Errorf("payment %s still %s", saga.PaymentID, payment.Status)
		default:
			w.saga.mark(ctx, saga, entity.SagaFailed, fmt.Errorf("payment status %s", payment.Status))
			return nil
		}
	}
	return fmt.Errorf("unexpected state %s", saga.State)
}

// advanceCancel finishes a cancellation: the refund either happened at the
// gateway or it did not, and the database is brought in line with that.
func (w *RecoveryWorker) advanceCancel(ctx context.Context, saga *entity.BookingSaga) error {
	switch saga.State {
	case entity.SagaRefundConfirmed:
		if _, err := w.reservations.applyCancellation(ctx, saga); err != nil {
			return fmt.Errorf("apply cancellation: %w", err)
		}
		return nil

	case entity.SagaStarted, entity.SagaPaymentUnknown:
		payment, err := w.saga.getPayment(ctx, saga.PaymentID)
		if err != nil {
			return fmt.Errorf("query payment %s: %w", saga.PaymentID, err)
		}
		if payment.Status != portone.PaymentStatusCancelled {
			if saga.State == entity.SagaPaymentUnknown {
				// a refund was sent or requested; wait for the gateway
				return fmt.Errorf("refund pending, payment status %s", payment.Status)
			}
			w.saga.mark(ctx, saga, entity.SagaFailed, fmt.Errorf("refund not applied, payment status %s", payment.Status))
			return nil
		}
		if err := w.saga.mark(ctx, saga, entity.SagaRefundConfirmed, nil); errors.Is(err, repository.ErrStateChanged) {
			return err
		}
		if _, err := w.reservations.applyCancellation(ctx, saga); err != nil {
			w.saga.raise(ctx, sagaAlert(alert.KindRefundNotRecorded, saga, err.Error()))
			return fmt.Errorf("apply cancellation: %w", err)
		}
		return nil
	}
	return fmt.Errorf("unexpected state %s", saga.State)
}
