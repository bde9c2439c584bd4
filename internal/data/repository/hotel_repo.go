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

// HotelFilter narrows list queries; empty fields match everything.
type HotelFilter struct {
	City    string
	Country string
	Name    string
}

type HotelRepository interface {
	Create(ctx context.Context, hotel *entity.Hotel) error
	FindByID(ctx context.Context, id uuid.UUID) (*entity.Hotel, error)
	FindAll(ctx context.Context, filter HotelFilter, limit, offset int) ([]*entity.Hotel, error)
	Count(ctx context.Context, filter HotelFilter) (int64, error)
	Update(ctx context.Context, hotel *entity.Hotel) error
	SoftDelete(ctx context.Context, id uuid.UUID) error
}

const hotelColumns = `id, name, address, city, country, star_rating, description, amenities, phone, email,
		website, check_in_time, check_out_time, is_active, created_at, updated_at, deleted_at`

const hotelFilterClause = `
		deleted_at IS NULL
		AND ($1 = '' OR city ILIKE $1)
		AND ($2 = '' OR country ILIKE $2)
		AND ($3 = '' OR name ILIKE '%' || $3 || '%')`

type hotelRepository struct {
	db  database.Querier
	log *zap.Logger
}

func NewHotelRepository(db database.Querier, log *zap.Logger) HotelRepository {
	return &hotelRepository{
		db:  db,
		log: log.With(zap.String("repository", "hotel")),
	}
}

func scanHotel(row scanner) (*entity.Hotel, error) {
	var h entity.Hotel
	err := row.Scan(
		&h.ID,
		&h.Name,
		&h.Address,
		&h.City,
		&h.Country,
		&h.StarRating,
		&h.Description,
		&h.Amenities,
		&h.Phone,
		&h.Email,
		&h.Website,
		&h.CheckInTime,
		&h.CheckOutTime,
		&h.IsActive,
		&h.CreatedAt,
		&h.UpdatedAt,
		&h.DeletedAt,
	)
	if err != nil {
		return nil, err
	}
	return &h, nil
}

func (r *hotelRepository) Create(ctx context.Context, hotel *entity.Hotel) error {
	query := `
		INSERT INTO hotels (id, name, address, city, country, star_rating, description, amenities, phone,
		                    email, website, check_in_time, check_out_time, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
	`

	_, err := r.db.Exec(ctx, query,
		hotel.ID,
		hotel.Name,
		hotel.Address,
		hotel.City,
		hotel.Country,
		hotel.StarRating,
		hotel.Description,
		hotel.Amenities,
		hotel.Phone,
		hotel.Email,
		hotel.Website,
		hotel.CheckInTime,
		hotel.CheckOutTime,
		hotel.IsActive,
		hotel.CreatedAt,
		hotel.UpdatedAt,
	)
	if err != nil {
		r.log.Error("Failed to create hotel", zap.Error(err), zap.String("name", hotel.Name))
		return fmt.Errorf("create hotel %s: %w", hotel.Name, mapWriteError(err))
	}

	return nil
}

func (r *hotelRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.Hotel, error) {
	query := `SELECT ` + hotelColumns + ` FROM hotels WHERE id = $1 AND deleted_at IS NULL`

	hotel, err := scanHotel(r.db.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		r.log.Error("Failed to find hotel by ID", zap.Error(err), zap.String("hotel_id", id.String()))
		return nil, fmt.Errorf("find hotel by ID %s: %w", id, err)
	}

	return hotel, nil
}

func (r *hotelRepository) FindAll(ctx context.Context, filter HotelFilter, limit, offset int) ([]*entity.Hotel, error) {
	query := `
		SELECT ` + hotelColumns + `
		FROM hotels
		WHERE` + hotelFilterClause + `
		ORDER BY star_rating DESC, name
		LIMIT $4 OFFSET $5
	`

	rows, err := r.db.Query(ctx, query, filter.City, filter.Country, filter.Name, limit, offset)
	if err != nil {
		r.log.Error("Failed to find hotels", zap.Error(err), zap.Int("limit", limit), zap.Int("offset", offset))
		return nil, fmt.Errorf("find hotels: %w", err)
	}

	hotels, err := collect(rows, scanHotel)
	if err != nil {
		return nil, fmt.Errorf("scan hotel rows: %w", err)
	}
	return hotels, nil
}

func (r *hotelRepository) Count(ctx context.Context, filter HotelFilter) (int64, error) {
	query := `SELECT COUNT(*) FROM hotels WHERE` + hotelFilterClause

	var count int64
	if err := r.db.QueryRow(ctx, query, filter.City, filter.Country, filter.Name).Scan(&count); err != nil {
		r.log.Error("Failed to count hotels", zap.Error(err))
		return 0, fmt.Errorf("count hotels: %w", err)
	}
	return count, nil
}

func (r *hotelRepository) Update(ctx context.Context, hotel *entity.Hotel) error {
	query := `
		UPDATE hotels
		SET name = $2, address = $3, city = $4, country = $5, star_rating = $6, description = $7,
		    amenities = $8, phone = $9, email = $10, website = $11, check_in_time = $12,
		    check_out_time = $13, is_active = $14, updated_at = $15
		WHERE id = $1 AND deleted_at IS NULL
	`

	result, err := r.db.Exec(ctx, query,
		hotel.ID,
		hotel.Name,
		hotel.Address,
		hotel.City,
		hotel.Country,
		hotel.StarRating,
		hotel.Description,
		hotel.Amenities,
		hotel.Phone,
		hotel.Email,
		hotel.Website,
		hotel.CheckInTime,
		hotel.CheckOutTime,
		hotel.IsActive,
		hotel.UpdatedAt,
	)
	if err != nil {
		r.log.Error("Failed to update hotel", zap.Error(err), zap.String("hotel_id", hotel.ID.String()))
		return fmt.Errorf("update hotel %s: %w", hotel.ID, mapWriteError(err))
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("hotel %s: %w", hotel.ID, ErrNotFound)
	}

	return nil
}

func (r *hotelRepository) SoftDelete(ctx context.Context, id uuid.UUID) error {
	query := `UPDATE hotels SET deleted_at = NOW(), is_active = FALSE, updated_at = NOW() WHERE id = $1 AND deleted_at IS NULL`

	result, err := r.db.Exec(ctx, query, id)
	if err != nil {
		r.log.Error("Failed to delete hotel", zap.Error(err), zap.String("hotel_id", id.String()))
		return fmt.Errorf("delete hotel %s: %w", id, err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("hotel %s: %w", id, ErrNotFound)
	}

	r.log.Info("Hotel deleted", zap.String("hotel_id", id.String()))
	return nil
}
