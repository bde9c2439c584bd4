package repository

import (
	"context"
	"errors"
	"fmt"

	"hotel-booking/internal/data/entity"
	"hotel-booking/pkg/database"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

type PaymentHistoryRepository interface {
	Create(ctx context.Context, payment *entity.PaymentHistory) error
	// CreateIfAbsent inserts unless a row with the same transaction id
	// exists, and reports whether it inserted.
	CreateIfAbsent(ctx context.Context, payment *entity.PaymentHistory) (bool, error)
	FindByReservationID(ctx context.Context, reservationID uuid.UUID, paymentType entity.PaymentType) (*entity.PaymentHistory, error)
	FindByTransactionID(ctx context.Context, transactionID string) (*entity.PaymentHistory, error)
	FindByUserID(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*entity.PaymentHistory, error)
	CountByUserID(ctx context.Context, userID uuid.UUID) (int64, error)
	FindAll(ctx context.Context, limit, offset int) ([]*entity.PaymentHistory, error)
	Count(ctx context.Context) (int64, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status entity.PaymentStatus) error
}

const paymentColumns = `id, user_id, reservation_id, subscription_id, amount, payment_type, status,
		transaction_id, payment_id, payment_method, description, created_at, updated_at`

const insertPayment = `
		INSERT INTO payment_histories (id, user_id, reservation_id, subscription_id, amount, payment_type,
		                               status, transaction_id, payment_id, payment_method, description,
		                               created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`

type paymentHistoryRepository struct {
	db  database.Querier
	log *zap.Logger
}

func NewPaymentHistoryRepository(db database.Querier, log *zap.Logger) PaymentHistoryRepository {
	return &paymentHistoryRepository{
		db:  db,
		log: log.With(zap.String("repository", "payment_history")),
	}
}

func scanPayment(row scanner) (*entity.PaymentHistory, error) {
	var p entity.PaymentHistory
	err := row.Scan(
		&p.ID,
		&p.UserID,
		&p.ReservationID,
		&p.SubscriptionID,
		&p.Amount,
		&p.PaymentType,
		&p.Status,
		&p.TransactionID,
		&p.PaymentID,
		&p.PaymentMethod,
		&p.Description,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func paymentArgs(p *entity.PaymentHistory) []any {
	return []any{
		p.ID,
		p.UserID,
		p.ReservationID,
		p.SubscriptionID,
		p.Amount,
		p.PaymentType,
		p.Status,
		p.TransactionID,
		p.PaymentID,
		p.PaymentMethod,
		p.Description,
		p.CreatedAt,
		p.UpdatedAt,
	}
}

func (r *paymentHistoryRepository) Create(ctx context.Context, payment *entity.PaymentHistory) error {
	if _, err := r.db.Exec(ctx, insertPayment, paymentArgs(payment)...); err != nil {
		r.log.Error("Failed to create payment history",
			zap.Error(err),
			zap.String("payment_id", payment.PaymentID),
			zap.String("type", string(payment.PaymentType)))
		return fmt.Errorf("create payment history %s: %w", payment.PaymentID, mapWriteError(err))
	}

	return nil
}

func (r *paymentHistoryRepository) CreateIfAbsent(ctx context.Context, payment *entity.PaymentHistory) (bool, error) {
	query := insertPayment + ` ON CONFLICT (transaction_id) DO NOTHING`

	result, err := r.db.Exec(ctx, query, paymentArgs(payment)...)
	if err != nil {
		r.log.Error("Failed to create payment history",
			zap.Error(err),
			zap.String("payment_id", payment.PaymentID),
			zap.String("type", string(payment.PaymentType)))
		return false, fmt.Errorf("create payment history %s: %w", payment.PaymentID, mapWriteError(err))
	}

	inserted := result.RowsAffected() == 1
	if !inserted {
		r.log.Info("Payment history already recorded", zap.String("payment_id", payment.PaymentID))
	}
	return inserted, nil
}

func (r *paymentHistoryRepository) FindByReservationID(ctx context.Context, reservationID uuid.UUID, paymentType entity.PaymentType) (*entity.PaymentHistory, error) {
	query := `
		SELECT ` + paymentColumns + `
		FROM payment_histories
		WHERE reservation_id = $1 AND payment_type = $2
		ORDER BY created_at DESC
		LIMIT 1
	`

	payment, err := scanPayment(r.db.QueryRow(ctx, query, reservationID, paymentType))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		r.log.Error("Failed to find payment by reservation", zap.Error(err), zap.String("reservation_id", reservationID.String()))
		return nil, fmt.Errorf("find payment of reservation %s: %w", reservationID, err)
	}

	return payment, nil
}

func (r *paymentHistoryRepository) FindByTransactionID(ctx context.Context, transactionID string) (*entity.PaymentHistory, error) {
	query := `SELECT ` + paymentColumns + ` FROM payment_histories WHERE transaction_id = $1`

	payment, err := scanPayment(r.db.QueryRow(ctx, query, transactionID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		r.log.Error("Failed to find payment by transaction", zap.Error(err), zap.String("transaction_id", transactionID))
		return nil, fmt.Errorf("find payment by transaction %s: %w", transactionID, err)
	}

	return payment, nil
}

func (r *paymentHistoryRepository) FindByUserID(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*entity.PaymentHistory, error) {
	query := `
		SELECT ` + paymentColumns + `
		FROM payment_histories
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`

	rows, err := r.db.Query(ctx, query, userID, limit, offset)
	if err != nil {
		r.log.Error("Failed to find payments by user", zap.Error(err), zap.String("user_id", userID.String()))
		return nil, fmt.Errorf("find payments of user %s: %w", userID, err)
	}

	payments, err := collect(rows, scanPayment)
	if err != nil {
		return nil, fmt.Errorf("scan payment rows: %w", err)
	}
	return payments, nil
}

func (r *paymentHistoryRepository) CountByUserID(ctx context.Context, userID uuid.UUID) (int64, error) {
	query := `SELECT COUNT(*) FROM payment_histories WHERE user_id = $1`

	var count int64
	if err := r.db.QueryRow(ctx, query, userID).Scan(&count); err != nil {
		r.log.Error("Failed to count payments by user", zap.Error(err), zap.String("user_id", userID.String()))
		return 0, fmt.Errorf("count payments of user %s: %w", userID, err)
	}
	return count, nil
}

func (r *paymentHistoryRepository) FindAll(ctx context.Context, limit, offset int) ([]*entity.PaymentHistory, error) {
	query := `
		SELECT ` + paymentColumns + `
		FROM payment_histories
		ORDER BY created_at DESC
		LIMIT $1 OFFSET $2
	`

	rows, err := r.db.Query(ctx, query, limit, offset)
	if err != nil {
		r.log.Error("Failed to find payments", zap.Error(err))
		return nil, fmt.Errorf("find payments: %w", err)
	}

	payments, err := collect(rows, scanPayment)
	if err != nil {
		return nil, fmt.Errorf("scan payment rows: %w", err)
	}
	return payments, nil
}

func (r *paymentHistoryRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM payment_histories`).Scan(&count); err != nil {
		r.log.Error("Failed to count payments", zap.Error(err))
		return 0, fmt.Errorf("count payments: %w", err)
	}
	return count, nil
}

func (r *paymentHistoryRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status entity.PaymentStatus) error {
	query := `UPDATE payment_histories SET status = $2, updated_at = NOW() WHERE id = $1`

	result, err := r.db.Exec(ctx, query, id, status)
	if err != nil {
		r.log.Error("Failed to update payment status", zap.Error(err), zap.String("payment_history_id", id.String()))
		return fmt.Errorf("update payment %s status: %w", id, err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("payment %s: %w", id, ErrNotFound)
	}

	return nil
}
