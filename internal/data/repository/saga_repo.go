package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"hotel-booking/internal/data/entity"
	"hotel-booking/pkg/database"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

type SagaRepository interface {
	// Create inserts the saga unless one with the same idempotency key
	// exists, and reports whether it inserted.
	Create(ctx context.Context, saga *entity.BookingSaga) (bool, error)
	FindByID(ctx context.Context, id uuid.UUID) (*entity.BookingSaga, error)
	FindByKey(ctx context.Context, key string) (*entity.BookingSaga, error)
	// MarkState moves the saga from one state to another. ErrStateChanged
	// means the row is no longer in from: someone else advanced it.
	MarkState(ctx context.Context, id uuid.UUID, from, to entity.SagaState, lastErr *string) error
	MarkCaptured(ctx context.Context, id uuid.UUID, from entity.SagaState, transactionID string) error
	// Restart reopens a failed or rejected saga under a fresh lease.
	Restart(ctx context.Context, id uuid.UUID, from entity.SagaState, payload []byte, amount int64, lease time.Duration) error
	// ClaimDue leases up to limit open sagas whose lease ran out and bumps
	// their attempt counter. Concurrent workers never claim the same row.
	ClaimDue(ctx context.Context, lease time.Duration, limit int) ([]*entity.BookingSaga, error)
}

const sagaColumns = `id, kind, idempotency_key, state, user_id, reservation_id, subscription_id, payment_id,
		transaction_id, amount, payload, attempts, last_error, locked_until, created_at, updated_at`

type sagaRepository struct {
	db  database.Querier
	log *zap.Logger
}

func NewSagaRepository(db database.Querier, log *zap.Logger) SagaRepository {
	return &sagaRepository{
		db:  db,
		log: log.With(zap.String("repository", "saga")),
	}
}

func scanSaga(row scanner) (*entity.BookingSaga, error) {
	var s entity.BookingSaga
	err := row.Scan(
		&s.ID,
		&s.Kind,
		&s.IdempotencyKey,
		&s.State,
		&s.UserID,
		&s.ReservationID,
		&s.SubscriptionID,
		&s.PaymentID,
		&s.TransactionID,
		&s.Amount,
		&s.Payload,
		&s.Attempts,
		&s.LastError,
		&s.LockedUntil,
		&s.CreatedAt,
		&s.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *sagaRepository) Create(ctx context.Context, saga *entity.BookingSaga) (bool, error) {
	query := `
		INSERT INTO booking_sagas (id, kind, idempotency_key, state, user_id, reservation_id, subscription_id,
		                           payment_id, transaction_id, amount, payload, attempts, locked_until,
		                           created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
		ON CONFLICT (idempotency_key) DO NOTHING
	`

	result, err := r.db.Exec(ctx, query,
		saga.ID,
		saga.Kind,
		saga.IdempotencyKey,
		saga.State,
		saga.UserID,
		saga.ReservationID,
		saga.SubscriptionID,
		saga.PaymentID,
		saga.TransactionID,
		saga.Amount,
		saga.Payload,
		saga.Attempts,
		saga.LockedUntil,
		saga.CreatedAt,
		saga.UpdatedAt,
	)
	if err != nil {
		r.log.Error("Failed to create saga", zap.Error(err), zap.String("key", saga.IdempotencyKey))
		return false, fmt.Errorf("create saga %s: %w", saga.IdempotencyKey, mapWriteError(err))
	}

	return result.RowsAffected() == 1, nil
}

func (r *sagaRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.BookingSaga, error) {
	query := `SELECT ` + sagaColumns + ` FROM booking_sagas WHERE id = $1`

	saga, err := scanSaga(r.db.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		r.log.Error("Failed to find saga by ID", zap.Error(err), zap.String("saga_id", id.String()))
		return nil, fmt.Errorf("find saga by ID %s: %w", id, err)
	}

	return saga, nil
}

func (r *sagaRepository) FindByKey(ctx context.Context, key string) (*entity.BookingSaga, error) {
	query := `SELECT ` + sagaColumns + ` FROM booking_sagas WHERE idempotency_key = $1`

	saga, err := scanSaga(r.db.QueryRow(ctx, query, key))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		r.log.Error("Failed to find saga by key", zap.Error(err), zap.String("key", key))
		return nil, fmt.Errorf("find saga by key %s: %w", key, err)
	}

	return saga, nil
}

func (r *sagaRepository) MarkState(ctx context.Context, id uuid.UUID, from, to entity.SagaState, lastErr *string) error {
	query := `
		UPDATE booking_sagas
		SET state = $3, last_error = COALESCE($4, last_error), updated_at = NOW()
		WHERE id = $1 AND state = $2
	`

	result, err := r.db.Exec(ctx, query, id, from, to, lastErr)
	if err != nil {
		r.log.Error("Failed to mark saga state",
			zap.Error(err),
			zap.String("saga_id", id.String()),
			zap.String("state", string(to)))
		return fmt.Errorf("mark saga %s %s: %w", id, to, err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("saga %s not %s: %w", id, from, ErrStateChanged)
	}

	r.log.Debug("Saga state",
		zap.String("saga_id", id.String()),
		zap.String("from", string(from)),
		zap.String("state", string(to)))
	return nil
}

func (r *sagaRepository) MarkCaptured(ctx context.Context, id uuid.UUID, from entity.SagaState, transactionID string) error {
	query := `
		UPDATE booking_sagas
		SET state = $3, transaction_id = $4, updated_at = NOW()
		WHERE id = $1 AND state = $2
	`

	result, err := r.db.Exec(ctx, query, id, from, entity.SagaPaymentCaptured, transactionID)
	if err != nil {
		r.log.Error("Failed to mark saga captured", zap.Error(err), zap.String("saga_id", id.String()))
		return fmt.Errorf("mark saga %s captured: %w", id, err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("saga %s not %s: %w", id, from, ErrStateChanged)
	}

	return nil
}

func (r *sagaRepository) Restart(ctx context.Context, id uuid.UUID, from entity.SagaState, payload []byte, amount int64, lease time.Duration) error {
	query := `
		UPDATE booking_sagas
		SET state = $2, payload = $4, amount = $5, attempts = 0, last_error = NULL, locked_until = $6, updated_at = NOW()
		WHERE id = $1 AND state = $3
	`

	result, err := r.db.Exec(ctx, query, id, entity.SagaStarted, from, payload, amount, time.Now().Add(lease))
	if err != nil {
		r.log.Error("Failed to restart saga", zap.Error(err), zap.String("saga_id", id.String()))
		return fmt.Errorf("restart saga %s: %w", id, err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("saga %s not %s: %w", id, from, ErrStateChanged)
	}

	return nil
}

func (r *sagaRepository) ClaimDue(ctx context.Context, lease time.Duration, limit int) ([]*entity.BookingSaga, error) {
	query := `
		UPDATE booking_sagas
		SET locked_until = NOW() + $1::bigint * INTERVAL '1 millisecond',
		    attempts = attempts + 1,
		    updated_at = NOW()
		WHERE id IN (
			SELECT id FROM booking_sagas
			WHERE state = ANY($2)
			  AND (locked_until IS NULL OR locked_until < NOW())
			ORDER BY updated_at
			LIMIT $3
			FOR UPDATE SKIP LOCKED
		)
		RETURNING ` + sagaColumns

	rows, err := r.db.Query(ctx, query, lease.Milliseconds(), textArray(entity.OpenSagaStates), limit)
	if err != nil {
		r.log.Error("Failed to claim sagas", zap.Error(err))
		return nil, fmt.Errorf("claim sagas: %w", err)
	}

	sagas, err := collect(rows, scanSaga)
	if err != nil {
		return nil, fmt.Errorf("scan saga rows: %w", err)
	}
	return sagas, nil
}
