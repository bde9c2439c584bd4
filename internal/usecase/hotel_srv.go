package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"hotel-booking/internal/data/entity"
	"hotel-booking/internal/data/repository"
	"hotel-booking/internal/dto/request"
	"hotel-booking/internal/dto/response"
	"hotel-booking/pkg/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type HotelService interface {
	// Public
	GetHotel(ctx context.Context, hotelID string) (*response.HotelResponse, error)
	ListHotels(ctx context.Context, req *request.HotelFilterRequest) (*response.PaginatedResponse[response.HotelResponse], error)

	// Admin
	CreateHotel(ctx context.Context, actor Actor, req *request.HotelRequest) (*response.HotelResponse, error)
	UpdateHotel(ctx context.Context, actor Actor, hotelID string, req *request.HotelUpdateRequest) (*response.HotelResponse, error)
	DeleteHotel(ctx context.Context, actor Actor, hotelID string) error
}

type hotelService struct {
	repo *repository.Repository
	now  func() time.Time
	log  *zap.Logger
}

func NewHotelService(repo *repository.Repository, log *zap.Logger) HotelService {
	return &hotelService{
		repo: repo,
		now:  time.Now,
		log:  log.With(zap.String("service", "hotel")),
	}
}

func (s *hotelService) GetHotel(ctx context.Context, hotelID string) (*response.HotelResponse, error) {
	id, err := parseID(hotelID, "hotel id")
	if err != nil {
		return nil, err
	}

	hotel, err := s.repo.Hotel.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("load hotel: %w", err)
	}
	if hotel == nil {
		return nil, fmt.Errorf("%w: hotel %s", ErrNotFound, id)
	}

	resp := response.HotelToResponse(hotel)

	// stats are decoration; a failure here does not fail the read
	avg, count, err := s.repo.Review.GetHotelReviewStats(ctx, id)
	if err != nil {
		s.log.Warn("Failed to load review stats", zap.Error(err), zap.String("hotel_id", id.String()))
	} else {
		resp.AverageRating = &avg
		resp.ReviewCount = &count
	}

	return &resp, nil
}

func (s *hotelService) ListHotels(ctx context.Context, req *request.HotelFilterRequest) (*response.PaginatedResponse[response.HotelResponse], error) {
	req.Normalize()

	filter := repository.HotelFilter{City: req.City, Country: req.Country, Name: req.Name}
	hotels, err := s.repo.Hotel.FindAll(ctx, filter, req.Limit(), req.Offset())
	if err != nil {
		return nil, fmt.Errorf("list hotels: %w", err)
	}
	total, err := s.repo.Hotel.Count(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("count hotels: %w", err)
	}

	return response.NewPaginatedResponse(response.MapSlice(hotels, response.HotelToResponse), req.Page, req.PerPage, total), nil
}

func (s *hotelService) CreateHotel(ctx context.Context, actor Actor, req *request.HotelRequest) (*response.HotelResponse, error) {
	if !actor.IsAdmin() {
		return nil, fmt.Errorf("%w: admin only", ErrUnauthorized)
	}
	if errs := utils.ValidateStruct(req); len(errs) > 0 {
		s.log.Warn("Create hotel validation failed", zap.Any("errors", errs))
		return nil, validationError(errs)
	}

	now := s.now()
	hotel := &entity.Hotel{
		Base:         entity.Base{ID: uuid.New(), CreatedAt: now, UpdatedAt: now},
		Name:         req.Name,
		Address:      req.Address,
		City:         req.City,
		Country:      req.Country,
		StarRating:   req.StarRating,
		Description:  req.Description,
		Amenities:    req.Amenities,
		Phone:        req.Phone,
		Email:        req.Email,
		Website:      req.Website,
		CheckInTime:  req.CheckInTime,
		CheckOutTime: req.CheckOutTime,
		IsActive:     true,
	}

	err := s.repo.Tx.WithinTx(ctx, func(tx *repository.Repository) error {
		if err := tx.Hotel.Create(ctx, hotel); err != nil {
			return err
		}
		return tx.AdminLog.Create(ctx, newAdminLog(actor.UserID, "create", "hotel", hotel.ID, hotel.Name, now))
	})
	if err != nil {
		return nil, conflictOr(err, "hotel already exists")
	}

	s.log.Info("Hotel created", zap.String("hotel_id", hotel.ID.String()), zap.String("name", hotel.Name))
	resp := response.HotelToResponse(hotel)
	return &resp, nil
}

func (s *hotelService) UpdateHotel(ctx context.Context, actor Actor, hotelID string, req *request.HotelUpdateRequest) (*response.HotelResponse, error) {
	if !actor.IsAdmin() {
		return nil, fmt.Errorf("%w: admin only", ErrUnauthorized)
	}
	if errs := utils.ValidateStruct(req); len(errs) > 0 {
		return nil, validationError(errs)
	}
	id, err := parseID(hotelID, "hotel id")
	if err != nil {
		return nil, err
	}

	hotel, err := s.repo.Hotel.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("load hotel: %w", err)
	}
	if hotel == nil {
		return nil, fmt.Errorf("%w: hotel %s", ErrNotFound, id)
	}

	applyHotelUpdate(hotel, req)
	hotel.UpdatedAt = s.now()

	err = s.repo.Tx.WithinTx(ctx, func(tx *repository.Repository) error {
		if err := tx.Hotel.Update(ctx, hotel); err != nil {
			return err
		}
		return tx.AdminLog.Create(ctx, newAdminLog(actor.UserID, "update", "hotel", id, hotel.Name, hotel.UpdatedAt))
	})
	if err != nil {
		return nil, notFoundOr(err, "hotel")
	}

	resp := response.HotelToResponse(hotel)
	return &resp, nil
}

func (s *hotelService) DeleteHotel(ctx context.Context, actor Actor, hotelID string) error {
	if !actor.IsAdmin() {
		return fmt.Errorf("%w: admin only", ErrUnauthorized)
	}
	id, err := parseID(hotelID, "hotel id")
	if err != nil {
		return err
	}

	err = s.repo.Tx.WithinTx(ctx, func(tx *repository.Repository) error {
		if err := tx.Hotel.SoftDelete(ctx, id); err != nil {
			return err
		}
		return tx.AdminLog.Create(ctx, newAdminLog(actor.UserID, "delete", "hotel", id, "", s.now()))
	})
	if err != nil {
		return notFoundOr(err, "hotel")
	}

	s.log.Info("Hotel deleted", zap.String("hotel_id", id.String()))
	return nil
}

func applyHotelUpdate(hotel *entity.Hotel, req *request.HotelUpdateRequest) {
	if req.Name != nil {
		hotel.Name = *req.Name
	}
	if req.Address != nil {
		hotel.Address = *req.Address
	}
	if req.City != nil {
		hotel.City = *req.City
	}
	if req.Country != nil {
		hotel.Country = *req.Country
	}
	if req.StarRating != nil {
		hotel.StarRating = *req.StarRating
	}
	if req.Description != nil {
		hotel.Description = req.Description
	}
	if req.Amenities != nil {
		hotel.Amenities = req.Amenities
	}
	if req.Phone != nil {
		hotel.Phone = req.Phone
	}
	if req.Email != nil {
		hotel.Email = req.Email
	}
	if req.Website != nil {
		hotel.Website = req.Website
	}
	if req.CheckInTime != nil {
		hotel.CheckInTime = *req.CheckInTime
	}
	if req.CheckOutTime != nil {
		hotel.CheckOutTime = *req.CheckOutTime
	}
	if req.IsActive != nil {
		hotel.IsActive = *req.IsActive
	}
}

// notFoundOr turns a repository miss into the domain error.
func notFoundOr(err error, what string) error {
	if errors.Is(err, repository.ErrNotFound) {
		return fmt.Errorf("%w: %s", ErrNotFound, what)
	}
	return err
}

func conflictOr(err error, msg string) error {
	if errors.Is(err, repository.ErrConflict) {
		return fmt.Errorf("%w: %s", ErrConflict, msg)
	}
	return err
}
