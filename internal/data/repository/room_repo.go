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

// AvailabilityFilter selects rooms free for the whole [CheckIn, CheckOut) stay.
type AvailabilityFilter struct {
	CheckIn     time.Time
	CheckOut    time.Time
	MinCapacity int
	HotelID     *uuid.UUID
}

type RoomRepository interface {
	Create(ctx context.Context, room *entity.HotelRoom) error
	FindByID(ctx context.Context, id uuid.UUID) (*entity.HotelRoom, error)
	// FindByIDForUpdate locks the room row until the surrounding transaction
	// ends; concurrent bookings of one room serialize on it.
	FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*entity.HotelRoom, error)
	FindByHotelID(ctx context.Context, hotelID uuid.UUID, limit, offset int) ([]*entity.HotelRoom, error)
	CountByHotelID(ctx context.Context, hotelID uuid.UUID) (int64, error)
	FindAvailable(ctx context.Context, filter AvailabilityFilter, limit, offset int) ([]*entity.HotelRoom, error)
	CountAvailable(ctx context.Context, filter AvailabilityFilter) (int64, error)
	Update(ctx context.Context, room *entity.HotelRoom) error
	SoftDelete(ctx context.Context, id uuid.UUID) error
}

const roomColumns = `r.id, r.hotel_id, r.room_number, r.room_type, r.capacity, r.price_per_night, r.description,
		r.amenities, r.is_available, r.created_at, r.updated_at, r.deleted_at`

const availableRoomClause = `
		r.deleted_at IS NULL
		AND r.is_available
		AND h.deleted_at IS NULL
		AND h.is_active
		AND r.capacity >= $3
		AND ($4::uuid IS NULL OR r.hotel_id = $4)
		AND NOT EXISTS (
			SELECT 1 FROM reservations x
			WHERE x.hotel_room_id = r.id
			  AND x.status = ANY($5)
			  AND x.check_in_date < $2
			  AND x.check_out_date > $1
		)`

type roomRepository struct {
	db  database.Querier
	log *zap.Logger
}

func NewRoomRepository(db database.Querier, log *zap.Logger) RoomRepository {
	return &roomRepository{
		db:  db,
		log: log.With(zap.String("repository", "room")),
	}
}

func scanRoom(row scanner) (*entity.HotelRoom, error) {
	var room entity.HotelRoom
	err := row.Scan(
		&room.ID,
		&room.HotelID,
		&room.RoomNumber,
		&room.RoomType,
		&room.Capacity,
		&room.PricePerNight,
		&room.Description,
		&room.Amenities,
		&room.IsAvailable,
		&room.CreatedAt,
		&room.UpdatedAt,
		&room.DeletedAt,
	)
	if err != nil {
		return nil, err
	}
	return &room, nil
}

func (r *roomRepository) Create(ctx context.Context, room *entity.HotelRoom) error {
	query := `
		INSERT INTO hotel_rooms (id, hotel_id, room_number, room_type, capacity, price_per_night,
		                         description, amenities, is_available, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`

	_, err := r.db.Exec(ctx, query,
		room.ID,
		room.HotelID,
		room.RoomNumber,
		room.RoomType,
		room.Capacity,
		room.PricePerNight,
		room.Description,
		room.Amenities,
		room.IsAvailable,
		room.CreatedAt,
		room.UpdatedAt,
	)
	if err != nil {
		r.log.Error("Failed to create room",
			zap.Error(err),
			zap.String("hotel_id", room.HotelID.String()),
			zap.String("room_number", room.RoomNumber))
		return fmt.Errorf("create room %s in hotel %s: %w", room.RoomNumber, room.HotelID, mapWriteError(err))
	}

	return nil
}

// findOne hides rooms of a deleted hotel along with deleted rooms.
func (r *roomRepository) findOne(ctx context.Context, id uuid.UUID, lock bool) (*entity.HotelRoom, error) {
	query := `
		SELECT ` + roomColumns + `
		FROM hotel_rooms r
		JOIN hotels h ON h.id = r.hotel_id
		WHERE r.id = $1 AND r.deleted_at IS NULL AND h.deleted_at IS NULL`
	if lock {
		query += ` FOR UPDATE OF r`
	}

	room, err := scanRoom(r.db.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		r.log.Error("Failed to find room by ID", zap.Error(err), zap.String("room_id", id.String()), zap.Bool("lock", lock))
		return nil, fmt.Errorf("find room by ID %s: %w", id, err)
	}

	return room, nil
}

func (r *roomRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.HotelRoom, error) {
	return r.findOne(ctx, id, false)
}

func (r *roomRepository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*entity.HotelRoom, error) {
	return r.findOne(ctx, id, true)
}

func (r *roomRepository) FindByHotelID(ctx context.Context, hotelID uuid.UUID, limit, offset int) ([]*entity.HotelRoom, error) {
	query := `
		SELECT ` + roomColumns + `
		FROM hotel_rooms r
		WHERE r.hotel_id = $1 AND r.deleted_at IS NULL
		ORDER BY r.room_number
		LIMIT $2 OFFSET $3
	`

	rows, err := r.db.Query(ctx, query, hotelID, limit, offset)
	if err != nil {
		r.log.Error("Failed to find rooms by hotel", zap.Error(err), zap.String("hotel_id", hotelID.String()))
		return nil, fmt.Errorf("find rooms by hotel %s: %w", hotelID, err)
	}

	rooms, err := collect(rows, scanRoom)
	if err != nil {
		return nil, fmt.Errorf("scan room rows: %w", err)
	}
	return rooms, nil
}

func (r *roomRepository) CountByHotelID(ctx context.Context, hotelID uuid.UUID) (int64, error) {
	query := `SELECT COUNT(*) FROM hotel_rooms WHERE hotel_id = $1 AND deleted_at IS NULL`

	var count int64
	if err := r.db.QueryRow(ctx, query, hotelID).Scan(&count); err != nil {
		r.log.Error("Failed to count rooms by hotel", zap.Error(err), zap.String("hotel_id", hotelID.String()))
		return 0, fmt.Errorf("count rooms by hotel %s: %w", hotelID, err)
	}
	return count, nil
}

func (r *roomRepository) FindAvailable(ctx context.Context, filter AvailabilityFilter, limit, offset int) ([]*entity.HotelRoom, error) {
	query := `
		SELECT ` + roomColumns + `
		FROM hotel_rooms r
		JOIN hotels h ON h.id = r.hotel_id
		WHERE` + availableRoomClause + `
		ORDER BY r.price_per_night, r.id
		LIMIT $6 OFFSET $7
	`

	rows, err := r.db.Query(ctx, query,
		filter.CheckIn,
		filter.CheckOut,
		filter.MinCapacity,
		filter.HotelID,
		textArray(entity.BlockingStatuses),
		limit,
		offset,
	)
	if err != nil {
		r.log.Error("Failed to find available rooms",
			zap.Error(err),
			zap.Time("check_in", filter.CheckIn),
			zap.Time("check_out", filter.CheckOut))
		return nil, fmt.Errorf("find available rooms: %w", err)
	}

	rooms, err := collect(rows, scanRoom)
	if err != nil {
		return nil, fmt.Errorf("scan room rows: %w", err)
	}
	return rooms, nil
}

func (r *roomRepository) CountAvailable(ctx context.Context, filter AvailabilityFilter) (int64, error) {
	query := `
		SELECT COUNT(*)
		FROM hotel_rooms r
		JOIN hotels h ON h.id = r.hotel_id
		WHERE` + availableRoomClause

	var count int64
	err := r.db.QueryRow(ctx, query,
		filter.CheckIn,
		filter.CheckOut,
		filter.MinCapacity,
		filter.HotelID,
		textArray(entity.BlockingStatuses),
	).Scan(&count)
	if err != nil {
		r.log.Error("Failed to count available rooms", zap.Error(err))
		return 0, fmt.Errorf("count available rooms: %w", err)
	}
	return count, nil
}

func (r *roomRepository) Update(ctx context.Context, room *entity.HotelRoom) error {
	query := `
		UPDATE hotel_rooms
		SET room_number = $2, room_type = $3, capacity = $4, price_per_night = $5, description = $6,
		    amenities = $7, is_available = $8, updated_at = $9
		WHERE id = $1 AND deleted_at IS NULL
	`

	result, err := r.db.Exec(ctx, query,
		room.ID,
		room.RoomNumber,
		room.RoomType,
		room.Capacity,
		room.PricePerNight,
		room.Description,
		room.Amenities,
		room.IsAvailable,
		room.UpdatedAt,
	)
	if err != nil {
		r.log.Error("Failed to update room", zap.Error(err), zap.String("room_id", room.ID.String()))
		return fmt.Errorf("update room %s: %w", room.ID, mapWriteError(err))
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("room %s: %w", room.ID, ErrNotFound)
	}

	return nil
}

func (r *roomRepository) SoftDelete(ctx context.Context, id uuid.UUID) error {
	query := `UPDATE hotel_rooms SET deleted_at = NOW(), is_available = FALSE, updated_at = NOW() WHERE id = $1 AND deleted_at IS NULL`

	result, err := r.db.Exec(ctx, query, id)
	if err != nil {
		r.log.Error("Failed to delete room", zap.Error(err), zap.String("room_id", id.String()))
		return fmt.Errorf("delete room %s: %w", id, err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("room %s: %w", id, ErrNotFound)
	}

	return nil
}
