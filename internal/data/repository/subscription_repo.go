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

type SubscriptionRepository interface {
	Create(ctx context.Context, sub *entity.Subscription) error
	FindByID(ctx context.Context, id uuid.UUID) (*entity.Subscription, error)
	FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*entity.Subscription, error)
	FindByUserID(ctx context.Context, userID uuid.UUID) ([]*entity.Subscription, error)
	FindActiveByUserID(ctx context.Context, userID uuid.UUID) (*entity.Subscription, error)
	// ExtendEndDate sets end_date and reactivates the subscription.
	ExtendEndDate(ctx context.Context, id uuid.UUID, endDate time.Time) error
	UpdateStatus(ctx context.Context, id uuid.UUID, from, to entity.SubscriptionStatus) error
	// ExpireOverdue flips active subscriptions that ended before cutoff.
	ExpireOverdue(ctx context.Context, cutoff time.Time) (int64, error)
}

const subscriptionColumns = `id, user_id, plan_id, status, start_date, end_date, created_at, updated_at`

type subscriptionRepository struct {
	db  database.Querier
	log *zap.Logger
}

func NewSubscriptionRepository(db database.Querier, log *zap.Logger) SubscriptionRepository {
	return &subscriptionRepository{
		db:  db,
		log: log.With(zap.String("repository", "subscription")),
	}
}

func scanSubscription(row scanner) (*entity.Subscription, error) {
	var s entity.Subscription
	err := row.Scan(
		&s.ID,
		&s.UserID,
		&s.PlanID,
		&s.Status,
		&s.StartDate,
		&s.EndDate,
		&s.CreatedAt,
		&s.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *subscriptionRepository) Create(ctx context.Context, sub *entity.Subscription) error {
	query := `
		INSERT INTO subscriptions (id, user_id, plan_id, status, start_date, end_date, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	_, err := r.db.Exec(ctx, query,
		sub.ID,
		sub.UserID,
		sub.PlanID,
		sub.Status,
		sub.StartDate,
		sub.EndDate,
		sub.CreatedAt,
		sub.UpdatedAt,
	)
	if err != nil {
		r.log.Error("Failed to create subscription", zap.Error(err), zap.String("user_id", sub.UserID.String()))
		return fmt.Errorf("create subscription for user %s: %w", sub.UserID, mapWriteError(err))
	}

	return nil
}

func (r *subscriptionRepository) findOne(ctx context.Context, id uuid.UUID, lock bool) (*entity.Subscription, error) {
	query := `SELECT ` + subscriptionColumns + ` FROM subscriptions WHERE id = $1`
	if lock {
		query += ` FOR UPDATE`
	}

	sub, err := scanSubscription(r.db.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		r.log.Error("Failed to find subscription by ID", zap.Error(err), zap.String("subscription_id", id.String()))
		return nil, fmt.Errorf("find subscription by ID %s: %w", id, err)
	}

	return sub, nil
}

func (r *subscriptionRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.Subscription, error) {
	return r.findOne(ctx, id, false)
}

func (r *subscriptionRepository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*entity.Subscription, error) {
	return r.findOne(ctx, id, true)
}

func (r *subscriptionRepository) FindByUserID(ctx context.Context, userID uuid.UUID) ([]*entity.Subscription, error) {
	query := `SELECT ` + subscriptionColumns + ` FROM subscriptions WHERE user_id = $1 ORDER BY start_date DESC`

	rows, err := r.db.Query(ctx, query, userID)
	if err != nil {
		r.log.Error("Failed to find subscriptions by user", zap.Error(err), zap.String("user_id", userID.String()))
		return nil, fmt.Errorf("find subscriptions of user %s: %w", userID, err)
	}

	subs, err := collect(rows, scanSubscription)
	if err != nil {
		return nil, fmt.Errorf("scan subscription rows: %w", err)
	}
	return subs, nil
}

func (r *subscriptionRepository) FindActiveByUserID(ctx context.Context, userID uuid.UUID) (*entity.Subscription, error) {
	query := `
		SELECT ` + subscriptionColumns + `
		FROM subscriptions
		WHERE user_id = $1 AND status = $2
		ORDER BY end_date DESC
		LIMIT 1
	`

	sub, err := scanSubscription(r.db.QueryRow(ctx, query, userID, entity.SubscriptionStatusActive))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		r.log.Error("Failed to find active subscription", zap.Error(err), zap.String("user_id", userID.String()))
		return nil, fmt.Errorf("find active subscription of user %s: %w", userID, err)
	}

	return sub, nil
}

func (r *subscriptionRepository) ExtendEndDate(ctx context.Context, id uuid.UUID, endDate time.Time) error {
	query := `UPDATE subscriptions SET end_date = $2, status = $3, updated_at = NOW() WHERE id = $1`

	result, err := r.db.Exec(ctx, query, id, endDate, entity.SubscriptionStatusActive)
	if err != nil {
		r.log.Error("Failed to extend subscription", zap.Error(err), zap.String("subscription_id", id.String()))
		return fmt.Errorf("extend subscription %s: %w", id, err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("subscription %s: %w", id, ErrNotFound)
	}

	r.log.Info("Subscription extended", zap.String("subscription_id", id.String()), zap.Time("end_date", endDate))
	return nil
}

func (r *subscriptionRepository) UpdateStatus(ctx context.Context, id uuid.UUID, from, to entity.SubscriptionStatus) error {
	query := `UPDATE subscriptions SET status = $3, updated_at = NOW() WHERE id = $1 AND status = $2`

	result, err := r.db.Exec(ctx, query, id, from, to)
	if err != nil {
		r.log.Error("Failed to update subscription status", zap.Error(err), zap.String("subscription_id", id.String()))
		return fmt.Errorf("update subscription %s status: %w", id, err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("subscription %s in status %s: %w", id, from, ErrNotFound)
	}

	return nil
}

func (r *subscriptionRepository) ExpireOverdue(ctx context.Context, cutoff time.Time) (int64, error) {
	query := `UPDATE subscriptions SET status = $2, updated_at = NOW() WHERE status = $1 AND end_date < $3`

	result, err := r.db.Exec(ctx, query, entity.SubscriptionStatusActive, entity.SubscriptionStatusExpired, cutoff)
	if err != nil {
		r.log.Error("Failed to expire subscriptions", zap.Error(err))
		return 0, fmt.Errorf("expire subscriptions: %w", err)
	}

	return result.RowsAffected(), nil
}

type SubscriptionPlanRepository interface {
	FindAll(ctx context.Context) ([]*entity.SubscriptionPlan, error)
	FindByID(ctx context.Context, id uuid.UUID) (*entity.SubscriptionPlan, error)
}

type subscriptionPlanRepository struct {
	db  database.Querier
	log *zap.Logger
}

func NewSubscriptionPlanRepository(db database.Querier, log *zap.Logger) SubscriptionPlanRepository {
	return &subscriptionPlanRepository{
		db:  db,
		log: log.With(zap.String("repository", "subscription_plan")),
	}
}

func scanPlan(row scanner) (*entity.SubscriptionPlan, error) {
	var p entity.SubscriptionPlan
	if err := row.Scan(&p.ID, &p.Type, &p.Price, &p.Description); err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *subscriptionPlanRepository) FindAll(ctx context.Context) ([]*entity.SubscriptionPlan, error) {
	rows, err := r.db.Query(ctx, `SELECT id, type, price, description FROM subscription_plans ORDER BY price`)
	if err != nil {
		r.log.Error("Failed to find plans", zap.Error(err))
		return nil, fmt.Errorf("find plans: %w", err)
	}

	plans, err := collect(rows, scanPlan)
	if err != nil {
		return nil, fmt.Errorf("scan plan rows: %w", err)
	}
	return plans, nil
}

func (r *subscriptionPlanRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.SubscriptionPlan, error) {
	query := `SELECT id, type, price, description FROM subscription_plans WHERE id = $1`

	plan, err := scanPlan(r.db.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		r.log.Error("Failed to find plan by ID", zap.Error(err), zap.String("plan_id", id.String()))
		return nil, fmt.Errorf("find plan by ID %s: %w", id, err)
	}

	return plan, nil
}
