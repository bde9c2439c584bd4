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

type ReviewRepository interface {
	Create(ctx context.Context, review *entity.HotelReview) error
	FindByID(ctx context.Context, id uuid.UUID) (*entity.HotelReview, error)
	FindByReservationID(ctx context.Context, reservationID uuid.UUID) (*entity.HotelReview, error)
	FindByHotelID(ctx context.Context, hotelID uuid.UUID, limit, offset int) ([]*entity.HotelReview, error)
	CountByHotelID(ctx context.Context, hotelID uuid.UUID) (int64, error)
	FindByUserID(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*entity.HotelReview, error)
	CountByUserID(ctx context.Context, userID uuid.UUID) (int64, error)
	Update(ctx context.Context, review *entity.HotelReview) error
	SoftDelete(ctx context.Context, id uuid.UUID, reason *string, adminID *uuid.UUID) error

	// Business queries
	GetHotelReviewStats(ctx context.Context, hotelID uuid.UUID) (float64, int64, error) // rating, count
}

const reviewColumns = `id, user_id, hotel_id, reservation_id, rating, title, content, pros, cons, stay_date,
		is_verified, delete_reason, deleted_by_admin_id, created_at, updated_at, deleted_at`

type reviewRepository struct {
	db  database.Querier
	log *zap.Logger
}

func NewReviewRepository(db database.Querier, log *zap.Logger) ReviewRepository {
	return &reviewRepository{
		db:  db,
		log: log.With(zap.String("repository", "review")),
	}
}

func scanReview(row scanner) (*entity.HotelReview, error) {
	var review entity.HotelReview
	err := row.Scan(
		&review.ID,
		&review.UserID,
		&review.HotelID,
		&review.ReservationID,
		&review.Rating,
		&review.Title,
		&review.Content,
		&review.Pros,
		&review.Cons,
		&review.StayDate,
		&review.IsVerified,
		&review.DeleteReason,
		&review.DeletedByAdminID,
		&review.CreatedAt,
		&review.UpdatedAt,
		&review.DeletedAt,
	)
	if err != nil {
		return nil, err
	}
	return &review, nil
}

func (r *reviewRepository) Create(ctx context.Context, review *entity.HotelReview) error {
	query := `
		INSERT INTO hotel_reviews (id, user_id, hotel_id, reservation_id, rating, title, content, pros, cons,
		                           stay_date, is_verified, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`

	_, err := r.db.Exec(ctx, query,
		review.ID,
		review.UserID,
		review.HotelID,
		review.ReservationID,
		review.Rating,
		review.Title,
		review.Content,
		review.Pros,
		review.Cons,
		review.StayDate,
		review.IsVerified,
		review.CreatedAt,
		review.UpdatedAt,
	)
	if err != nil {
		r.log.Error("Failed to create review",
			zap.Error(err),
			zap.String("user_id", review.UserID.String()),
			zap.String("hotel_id", review.HotelID.String()),
		)
		return fmt.Errorf("create review for hotel %s by user %s: %w",
			review.HotelID, review.UserID, mapWriteError(err))
	}

	return nil
}

func (r *reviewRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.HotelReview, error) {
	query := `SELECT ` + reviewColumns + ` FROM hotel_reviews WHERE id = $1 AND deleted_at IS NULL`

	review, err := scanReview(r.db.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		r.log.Error("Failed to find review by ID", zap.Error(err), zap.String("review_id", id.String()))
		return nil, fmt.Errorf("find review by ID %s: %w", id, err)
	}

	return review, nil
}

// FindByReservationID includes deleted reviews: one reservation earns one
// review, even after it is removed.
func (r *reviewRepository) FindByReservationID(ctx context.Context, reservationID uuid.UUID) (*entity.HotelReview, error) {
	query := `SELECT ` + reviewColumns + ` FROM hotel_reviews WHERE reservation_id = $1`

	review, err := scanReview(r.db.QueryRow(ctx, query, reservationID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		r.log.Error("Failed to find review by reservation", zap.Error(err), zap.String("reservation_id", reservationID.String()))
		return nil, fmt.Errorf("find review by reservation %s: %w", reservationID, err)
	}

	return review, nil
}

func (r *reviewRepository) FindByHotelID(ctx context.Context, hotelID uuid.UUID, limit, offset int) ([]*entity.HotelReview, error) {
	query := `
		SELECT ` + reviewColumns + `
		FROM hotel_reviews
		WHERE hotel_id = $1 AND deleted_at IS NULL
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`

	rows, err := r.db.Query(ctx, query, hotelID, limit, offset)
	if err != nil {
		r.log.Error("Failed to find reviews by hotel ID",
			zap.Error(err),
			zap.String("hotel_id", hotelID.String()),
			zap.Int("limit", limit),
			zap.Int("offset", offset),
		)
		return nil, fmt.Errorf("find reviews by hotel ID %s: %w", hotelID, err)
	}

	reviews, err := collect(rows, scanReview)
	if err != nil {
		return nil, fmt.Errorf("scan review rows: %w", err)
	}
	return reviews, nil
}

func (r *reviewRepository) CountByHotelID(ctx context.Context, hotelID uuid.UUID) (int64, error) {
	query := `SELECT COUNT(*) FROM hotel_reviews WHERE hotel_id = $1 AND deleted_at IS NULL`

	var count int64
	if err := r.db.QueryRow(ctx, query, hotelID).Scan(&count); err != nil {
		r.log.Error("Failed to count reviews by hotel", zap.Error(err), zap.String("hotel_id", hotelID.String()))
		return 0, fmt.Errorf("count reviews by hotel %s: %w", hotelID, err)
	}
	return count, nil
}

func (r *reviewRepository) FindByUserID(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*entity.HotelReview, error) {
	query := `
		SELECT ` + reviewColumns + `
		FROM hotel_reviews
		WHERE user_id = $1 AND deleted_at IS NULL
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`

	rows, err := r.db.Query(ctx, query, userID, limit, offset)
	if err != nil {
		r.log.Error("Failed to find reviews by user ID", zap.Error(err), zap.String("user_id", userID.String()))
		return nil, fmt.Errorf("find reviews by user ID %s: %w", userID, err)
	}

	reviews, err := collect(rows, scanReview)
	if err != nil {
		return nil, fmt.Errorf("scan review rows: %w", err)
	}
	return reviews, nil
}

func (r *reviewRepository) CountByUserID(ctx context.Context, userID uuid.UUID) (int64, error) {
	query := `SELECT COUNT(*) FROM hotel_reviews WHERE user_id = $1 AND deleted_at IS NULL`

	var count int64
	if err := r.db.QueryRow(ctx, query, userID).Scan(&count); err != nil {
		r.log.Error("Failed to count reviews by user", zap.Error(err), zap.String("user_id", userID.String()))
		return 0, fmt.Errorf("count reviews by user %s: %w", userID, err)
	}
	return count, nil
}

func (r *reviewRepository) Update(ctx context.Context, review *entity.HotelReview) error {
	query := `
		UPDATE hotel_reviews
		SET rating = $2, title = $3, content = $4, pros = $5, cons = $6, updated_at = $7
		WHERE id = $1 AND deleted_at IS NULL
	`

	result, err := r.db.Exec(ctx, query,
		review.ID,
		review.Rating,
		review.Title,
		review.Content,
		review.Pros,
		review.Cons,
		review.UpdatedAt,
	)
	if err != nil {
		r.log.Error("Failed to update review", zap.Error(err), zap.String("review_id", review.ID.String()))
		return fmt.Errorf("update review %s: %w", review.ID, err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("review %s: %w", review.ID, ErrNotFound)
	}

	return nil
}

func (r *reviewRepository) SoftDelete(ctx context.Context, id uuid.UUID, reason *string, adminID *uuid.UUID) error {
	query := `
		UPDATE hotel_reviews
		SET deleted_at = NOW(), updated_at = NOW(), delete_reason = $2, deleted_by_admin_id = $3
		WHERE id = $1 AND deleted_at IS NULL
	`

	result, err := r.db.Exec(ctx, query, id, reason, adminID)
	if err != nil {
		r.log.Error("Failed to delete review", zap.Error(err), zap.String("review_id", id.String()))
		return fmt.Errorf("delete review %s: %w", id, err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("review %s: %w", id, ErrNotFound)
	}

	r.log.Info("Review deleted", zap.String("review_id", id.String()), zap.Bool("by_admin", adminID != nil))
	return nil
}

func (r *reviewRepository) GetHotelReviewStats(ctx context.Context, hotelID uuid.UUID) (float64, int64, error) {
	query := `
		SELECT
			COALESCE(AVG(rating), 0) AS avg_rating,
			COUNT(*) AS total_reviews
		FROM hotel_reviews
		WHERE hotel_id = $1 AND deleted_at IS NULL
	`

	var avgRating float64
	var count int64
	if err := r.db.QueryRow(ctx, query, hotelID).Scan(&avgRating, &count); err != nil {
		r.log.Error("Failed to get hotel review stats", zap.Error(err), zap.String("hotel_id", hotelID.String()))
		return 0, 0, fmt.Errorf("get review stats for hotel %s: %w", hotelID, err)
	}

	return avgRating, count, nil
}
