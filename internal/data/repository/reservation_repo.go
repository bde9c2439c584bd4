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

type ReservationRepository interface {
	Create(ctx context.Context, reservation *entity.Reservation) error
	FindByID(ctx context.Context, id uuid.UUID) (*entity.Reservation, error)
	// FindOverlapping returns blocking reservations of the room that intersect
	// [checkIn, checkOut).
	FindOverlapping(ctx context.Context, roomID uuid.UUID, checkIn, checkOut time.Time) ([]*entity.Reservation, error)
	FindUpcomingByRoomID(ctx context.Context, roomID uuid.UUID, from time.Time) ([]*entity.Reservation, error)
	FindByUserID(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*entity.Reservation, error)
	CountByUserID(ctx context.Context, userID uuid.UUID) (int64, error)
	FindAll(ctx context.Context, status *entity.ReservationStatus, limit, offset int) ([]*entity.Reservation, error)
	Count(ctx context.Context, status *entity.ReservationStatus) (int64, error)
	HasCompletedStay(ctx context.Context, userID, hotelID uuid.UUID) (bool, error)
	// UpdateStatus is a compare-and-set: it only moves rows still in from.
	UpdateStatus(ctx context.Context, id uuid.UUID, from, to entity.ReservationStatus) error
}

const reservationColumns = `id, user_id, hotel_room_id, check_in_date, check_out_date, number_of_guests,
		total_price, status, created_at, updated_at`

type reservationRepository struct {
	db  database.Querier
	log *zap.Logger
}

func NewReservationRepository(db database.Querier, log *zap.Logger) ReservationRepository {
	return &reservationRepository{
		db:  db,
		log: log.With(zap.String("repository", "reservation")),
	}
}

func scanReservation(row scanner) (*entity.Reservation, error) {
	var res entity.Reservation
	err := row.Scan(
		&res.ID,
		&res.UserID,
		&res.HotelRoomID,
		&res.CheckInDate,
		&res.CheckOutDate,
		&res.NumberOfGuests,
		&res.TotalPrice,
		&res.Status,
		&res.CreatedAt,
		&res.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &res, nil
}

func (r *reservationRepository) Create(ctx context.Context, reservation *entity.Reservation) error {
	query := `
		INSERT INTO reservations (id, user_id, hotel_room_id, check_in_date, check_out_date,
		                          number_of_guests, total_price, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`

	_, err := r.db.Exec(ctx, query,
		reservation.ID,
		reservation.UserID,
		reservation.HotelRoomID,
		reservation.CheckInDate,
		reservation.CheckOutDate,
		reservation.NumberOfGuests,
		reservation.TotalPrice,
		reservation.Status,
		reservation.CreatedAt,
		reservation.UpdatedAt,
	)
	if err != nil {
		r.log.Error("Failed to create reservation",
			zap.Error(err),
			zap.String("reservation_id", reservation.ID.String()),
			zap.String("room_id", reservation.HotelRoomID.String()))
		return fmt.Errorf("create reservation %s: %w", reservation.ID, mapWriteError(err))
	}

	r.log.Info("Reservation created",
		zap.String("reservation_id", reservation.ID.String()),
		zap.String("room_id", reservation.HotelRoomID.String()),
		zap.Time("check_in", reservation.CheckInDate),
		zap.Time("check_out", reservation.CheckOutDate))
	return nil
}

func (r *reservationRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.Reservation, error) {
	query := `SELECT ` + reservationColumns + ` FROM reservations WHERE id = $1`

	res, err := scanReservation(r.db.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		r.log.Error("Failed to find reservation by ID", zap.Error(err), zap.String("reservation_id", id.String()))
		return nil, fmt.Errorf("find reservation by ID %s: %w", id, err)
	}

	return res, nil
}

func (r *reservationRepository) FindOverlapping(ctx context.Context, roomID uuid.UUID, checkIn, checkOut time.Time) ([]*entity.Reservation, error) {
	query := `
		SELECT ` + reservationColumns + `
		FROM reservations
		WHERE hotel_room_id = $1
		  AND status = ANY($2)
		  AND check_in_date < $4
		  AND check_out_date > $3
		ORDER BY check_in_date
	`

	rows, err := r.db.Query(ctx, query, roomID, textArray(entity.BlockingStatuses), checkIn, checkOut)
	if err != nil {
		r.log.Error("Failed to find overlapping reservations", zap.Error(err), zap.String("room_id", roomID.String()))
		return nil, fmt.Errorf("find overlapping reservations of room %s: %w", roomID, err)
	}

	reservations, err := collect(rows, scanReservation)
	if err != nil {
		return nil, fmt.Errorf("scan reservation rows: %w", err)
	}
	return reservations, nil
}

func (r *reservationRepository) FindUpcomingByRoomID(ctx context.Context, roomID uuid.UUID, from time.Time) ([]*entity.Reservation, error) {
	query := `
		SELECT ` + reservationColumns + `
		FROM reservations
		WHERE hotel_room_id = $1
		  AND status = ANY($2)
		  AND check_out_date > $3
		ORDER BY check_in_date
	`

	rows, err := r.db.Query(ctx, query, roomID, textArray(entity.BlockingStatuses), from)
	if err != nil {
		r.log.Error("Failed to find upcoming reservations", zap.Error(err), zap.String("room_id", roomID.String()))
		return nil, fmt.Errorf("find upcoming reservations of room %s: %w", roomID, err)
	}

	reservations, err := collect(rows, scanReservation)
	if err != nil {
		return nil, fmt.Errorf("scan reservation rows: %w", err)
	}
	return reservations, nil
}

func (r *reservationRepository) FindByUserID(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*entity.Reservation, error) {
	query := `
		SELECT ` + reservationColumns + `
		FROM reservations
		WHERE user_id = $1
		ORDER BY check_in_date DESC
		LIMIT $2 OFFSET $3
	`

	rows, err := r.db.Query(ctx, query, userID, limit, offset)
	if err != nil {
		r.log.Error("Failed to find reservations by user", zap.Error(err), zap.String("user_id", userID.String()))
		return nil, fmt.Errorf("find reservations of user %s: %w", userID, err)
	}

	reservations, err := collect(rows, scanReservation)
	if err != nil {
		return nil, fmt.Errorf("scan reservation rows: %w", err)
	}
	return reservations, nil
}

func (r *reservationRepository) CountByUserID(ctx context.Context, userID uuid.UUID) (int64, error) {
	query := `SELECT COUNT(*) FROM reservations WHERE user_id = $1`

	var count int64
	if err := r.db.QueryRow(ctx, query, userID).Scan(&count); err != nil {
		r.log.Error("Failed to count reservations by user", zap.Error(err), zap.String("user_id", userID.String()))
		return 0, fmt.Errorf("count reservations of user %s: %w", userID, err)
	}
	return count, nil
}

func (r *reservationRepository) FindAll(ctx context.Context, status *entity.ReservationStatus, limit, offset int) ([]*entity.Reservation, error) {
	query := `
		SELECT ` + reservationColumns + `
		FROM reservations
		WHERE ($1::text IS NULL OR status = $1)
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`

	rows, err := r.db.Query(ctx, query, status, limit, offset)
	if err != nil {
		r.log.Error("Failed to find reservations", zap.Error(err))
		return nil, fmt.Errorf("find reservations: %w", err)
	}

	reservations, err := collect(rows, scanReservation)
	if err != nil {
		return nil, fmt.Errorf("scan reservation rows: %w", err)
	}
	return reservations, nil
}

func (r *reservationRepository) Count(ctx context.Context, status *entity.ReservationStatus) (int64, error) {
	query := `SELECT COUNT(*) FROM reservations WHERE ($1::text IS NULL OR status = $1)`

	var count int64
	if err := r.db.QueryRow(ctx, query, status).Scan(&count); err != nil {
		r.log.Error("Failed to count reservations", zap.Error(err))
		return 0, fmt.Errorf("count reservations: %w", err)
	}
	return count, nil
}

func (r *reservationRepository) HasCompletedStay(ctx context.Context, userID, hotelID uuid.UUID) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1
			FROM reservations res
			JOIN hotel_rooms hr ON hr.id = res.hotel_room_id
			WHERE res.user_id = $1 AND hr.hotel_id = $2 AND res.status = $3
		)
	`

	var exists bool
	if err := r.db.QueryRow(ctx, query, userID, hotelID, entity.ReservationStatusCheckedOut).Scan(&exists); err != nil {
		r.log.Error("Failed to check completed stay", zap.Error(err), zap.String("user_id", userID.String()))
		return false, fmt.Errorf("check stay of user %s at hotel %s: %w", userID, hotelID, err)
	}
	return exists, nil
}

func (r *reservationRepository) UpdateStatus(ctx context.Context, id uuid.UUID, from, to entity.ReservationStatus) error {
	query := `UPDATE reservations SET status = $3, updated_at = NOW() WHERE id = $1 AND status = $2`

	result, err := r.db.Exec(ctx, query, id, from, to)
	if err != nil {
		r.log.Error("Failed to update reservation status",
			zap.Error(err),
			zap.String("reservation_id", id.String()),
			zap.String("to", string(to)))
		return fmt.Errorf("update reservation %s status: %w", id, err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("reservation %s in status %s: %w", id, from, ErrNotFound)
	}

	r.log.Info("Reservation status updated",
		zap.String("reservation_id", id.String()),
		zap.String("from", string(from)),
		zap.String("to", string(to)))
	return nil
}
