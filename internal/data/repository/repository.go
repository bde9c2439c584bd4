package repository

import (
	"context"
	"errors"
	"fmt"

	"hotel-booking/pkg/database"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

var (
	// ErrNotFound: an UPDATE/DELETE matched no row (missing, or a guarded
	// status check did not hold).
	ErrNotFound = errors.New("record not found")
	// ErrConflict: a unique or exclusion constraint rejected the write.
	ErrConflict = errors.New("record conflicts with existing data")
	// ErrStateChanged: a compare-and-set found the row in another state.
	ErrStateChanged = errors.New("record state changed")
)

type Repository struct {
	User         UserRepository
	Session      SessionRepository
	Hotel        HotelRepository
	Room         RoomRepository
	Reservation  ReservationRepository
	Payment      PaymentHistoryRepository
	Subscription SubscriptionRepository
	Plan         SubscriptionPlanRepository
	AdminLog     AdminLogRepository
	Review       ReviewRepository
	Reply        ReviewReplyRepository
	Saga         SagaRepository

	Tx Transactor
}

// Transactor runs fn with every repository bound to one database
// transaction. A non-nil error from fn rolls back; nil commits.
type Transactor interface {
	WithinTx(ctx context.Context, fn func(tx *Repository) error) error
}

func NewRepository(db database.PgxIface, log *zap.Logger) *Repository {
	repo := bind(db, log)
	repo.Tx = &pgxTransactor{db: db, log: log.With(zap.String("repository", "tx"))}
	return repo
}

func bind(q database.Querier, log *zap.Logger) *Repository {
	return &Repository{
		User:         NewUserRepository(q, log),
		Session:      NewSessionRepository(q, log),
		Hotel:        NewHotelRepository(q, log),
		Room:         NewRoomRepository(q, log),
		Reservation:  NewReservationRepository(q, log),
		Payment:      NewPaymentHistoryRepository(q, log),
		Subscription: NewSubscriptionRepository(q, log),
		Plan:         NewSubscriptionPlanRepository(q, log),
		AdminLog:     NewAdminLogRepository(q, log),
		Review:       NewReviewRepository(q, log),
		Reply:        NewReviewReplyRepository(q, log),
		Saga:         NewSagaRepository(q, log),
	}
}

type pgxTransactor struct {
	db  database.PgxIface
	log *zap.Logger
}

func (t *pgxTransactor) WithinTx(ctx context.Context, fn func(tx *Repository) error) error {
	tx, err := t.db.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.ReadCommitted})
	if err != nil {
		t.log.Error("Failed to begin transaction", zap.Error(err))
		return fmt.Errorf("begin tx: %w", err)
	}

	committed := false
	defer func() {
		if !committed {
			if rbErr := tx.Rollback(context.WithoutCancel(ctx)); rbErr != nil && !errors.Is(rbErr, pgx.ErrTxClosed) {
				t.log.Warn("Failed to rollback transaction", zap.Error(rbErr))
			}
		}
	}()

	repo := bind(tx, t.log)
	repo.Tx = nestedTransactor{repo: repo}

	if err := fn(repo); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		t.log.Error("Failed to commit transaction", zap.Error(err))
		return fmt.Errorf("commit tx: %w", mapWriteError(err))
	}
	committed = true
	return nil
}

// nestedTransactor joins the transaction already in progress.
type nestedTransactor struct {
	repo *Repository
}

func (n nestedTransactor) WithinTx(_ context.Context, fn func(tx *Repository) error) error {
	return fn(n.repo)
}

// mapWriteError tags constraint violations with ErrConflict, keeping the
// driver error in the chain.
func mapWriteError(err error) error {
	if database.IsConflict(err) {
		return fmt.Errorf("%w: %w", ErrConflict, err)
	}
	return err
}

type scanner interface {
	Scan(dest ...any) error
}

func collect[T any](rows pgx.Rows, scan func(scanner) (*T, error)) ([]*T, error) {
	defer rows.Close()

	var items []*T
	for rows.Next() {
		item, err := scan(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

// textArray converts typed string constants for `= ANY($n)` parameters.
func textArray[S ~string](values []S) []string {
	out := make([]string, len(values))
	for i, v := range values {
		out[i] = string(v)
	}
	return out
}
