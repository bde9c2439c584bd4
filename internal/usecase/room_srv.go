package usecase

import (
	"context"
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

type RoomService interface {
	// Public
	GetRoom(ctx context.Context, roomID string) (*response.RoomResponse, error)
	ListHotelRooms(ctx context.Context, hotelID string, req *request.PaginatedRequest) (*response.PaginatedResponse[response.RoomResponse], error)
	SearchAvailable(ctx context.Context, req *request.AvailableRoomsRequest) (*response.PaginatedResponse[response.RoomResponse], error)

	// Manager / admin
	CreateRoom(ctx context.Context, actor Actor, req *request.RoomRequest) (*response.RoomResponse, error)
	UpdateRoom(ctx context.Context, actor Actor, roomID string, req *request.RoomUpdateRequest) (*response.RoomResponse, error)
	DeleteRoom(ctx context.Context, actor Actor, roomID string) error
}

type roomService struct {
	repo *repository.Repository
	now  func() time.Time
	log  *zap.Logger
}

func NewRoomService(repo *repository.Repository, log *zap.Logger) RoomService {
	return &roomService{
		repo: repo,
		now:  time.Now,
		log:  log.With(zap.String("service", "room")),
	}
}

func (s *roomService) GetRoom(ctx context.Context, roomID string) (*response.RoomResponse, error) {
	id, err := parseID(roomID, "room id")
	if err != nil {
		return nil, err
	}

	room, err := s.repo.Room.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("load room: %w", err)
	}
	if room == nil {
		return nil, fmt.Errorf("%w: room %s", ErrNotFound, id)
	}

	resp := response.RoomToResponse(room)
	return &resp, nil
}

func (s *roomService) ListHotelRooms(ctx context.Context, hotelID string, req *request.PaginatedRequest) (*response.PaginatedResponse[response.RoomResponse], error) {
	id, err := parseID(hotelID, "hotel id")
	if err != nil {
		return nil, err
	}
	req.Normalize()

	rooms, err := s.repo.Room.FindByHotelID(ctx, id, req.Limit(), req.Offset())
	if err != nil {
		return nil, fmt.Errorf("list rooms: %w", err)
	}
	total, err := s.repo.Room.CountByHotelID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("count rooms: %w", err)
	}

	return response.NewPaginatedResponse(response.MapSlice(rooms, response.RoomToResponse), req.Page, req.PerPage, total), nil
}

// SearchAvailable lists rooms with no blocking reservation in [in, out).
func (s *roomService) SearchAvailable(ctx context.Context, req *request.AvailableRoomsRequest) (*response.PaginatedResponse[response.RoomResponse], error) {
	req.Normalize()
	if errs := utils.ValidateStruct(req); len(errs) > 0 {
		return nil, validationError(errs)
	}
	in, out, err := parseStay(req.CheckInDate, req.CheckOutDate)
	if err != nil {
		return nil, err
	}

	filter := repository.AvailabilityFilter{CheckIn: in, CheckOut: out, MinCapacity: req.Guests}
	if req.HotelID != nil {
		hotelID, err := parseID(*req.HotelID, "hotel_id")
		if err != nil {
			return nil, err
		}
		filter.HotelID = &hotelID
	}

	rooms, err := s.repo.Room.FindAvailable(ctx, filter, req.Limit(), req.Offset())
	if err != nil {
		return nil, fmt.Errorf("search rooms: %w", err)
	}
	total, err := s.repo.Room.CountAvailable(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("count rooms: %w", err)
	}

	return response.NewPaginatedResponse(response.MapSlice(rooms, response.RoomToResponse), req.Page, req.PerPage, total), nil
}

func (s *roomService) CreateRoom(ctx context.Context, actor Actor, req *request.RoomRequest) (*response.RoomResponse, error) {
	if errs := utils.ValidateStruct(req); len(errs) > 0 {
		s.log.Warn("Create room validation failed", zap.Any("errors", errs))
		return nil, validationError(errs)
	}
	hotelID, err := parseID(req.HotelID, "hotel_id")
	if err != nil {
		return nil, err
	}

	hotel, err := s.repo.Hotel.FindByID(ctx, hotelID)
	if err != nil {
		return nil, fmt.Errorf("load hotel: %w", err)
	}
	if hotel == nil {
		return nil, fmt.Errorf("%w: hotel %s", ErrNotFound, hotelID)
	}
	if err := s.authorize(ctx, actor, hotelID); err != nil {
		return nil, err
	}

	now := s.now()
	room := &entity.HotelRoom{
		Base:          entity.Base{ID: uuid.New(), CreatedAt: now, UpdatedAt: now},
		HotelID:       hotelID,
		RoomNumber:    req.RoomNumber,
		RoomType:      req.RoomType,
		Capacity:      req.Capacity,
		PricePerNight: req.PricePerNight,
		Description:   req.Description,
		Amenities:     req.Amenities,
		IsAvailable:   true,
	}

	err = s.repo.Tx.WithinTx(ctx, func(tx *repository.Repository) error {
		if err := tx.Room.Create(ctx, room); err != nil {
			return err
		}
		return s.auditIfAdmin(ctx, tx, actor, "create", room.ID, room.RoomNumber)
	})
	if err != nil {
		return nil, conflictOr(err, fmt.Sprintf("room %s already exists in this hotel", req.RoomNumber))
	}

	s.log.Info("Room created",
		zap.String("room_id", room.ID.String()),
		zap.String("hotel_id", hotelID.String()),
		zap.String("actor_id", actor.UserID.String()))

	resp := response.RoomToResponse(room)
	return &resp, nil
}

func (s *roomService) UpdateRoom(ctx context.Context, actor Actor, roomID string, req *request.RoomUpdateRequest) (*response.RoomResponse, error) {
	if errs := utils.ValidateStruct(req); len(errs) > 0 {
		return nil, validationError(errs)
	}
	room, err := s.loadManaged(ctx, actor, roomID)
	if err != nil {
		return nil, err
	}

	if req.RoomNumber != nil {
		room.RoomNumber = *req.RoomNumber
	}
	if req.RoomType != nil {
		room.RoomType = *req.RoomType
	}
	if req.Capacity != nil {
		room.Capacity = *req.Capacity
	}
	if req.PricePerNight != nil {
		room.PricePerNight = *req.PricePerNight
	}
	if req.Description != nil {
		room.Description = req.Description
	}
	if req.Amenities != nil {
		room.Amenities = req.Amenities
	}
	if req.IsAvailable != nil {
		room.IsAvailable = *req.IsAvailable
	}
	room.UpdatedAt = s.now()

	err = s.repo.Tx.WithinTx(ctx, func(tx *repository.Repository) error {
		if err := tx.Room.Update(ctx, room); err != nil {
			return err
		}
		return s.auditIfAdmin(ctx, tx, actor, "update", room.ID, room.RoomNumber)
	})
	if err != nil {
		return nil, conflictOr(notFoundOr(err, "room"), "room number already used in this hotel")
	}

	resp := response.RoomToResponse(room)
	return &resp, nil
}

func (s *roomService) DeleteRoom(ctx context.Context, actor Actor, roomID string) error {
	room, err := s.loadManaged(ctx, actor, roomID)
	if err != nil {
		return err
	}

	err = s.repo.Tx.WithinTx(ctx, func(tx *repository.Repository) error {
		if err := tx.Room.SoftDelete(ctx, room.ID); err != nil {
			return err
		}
		return s.auditIfAdmin(ctx, tx, actor, "delete", room.ID, room.RoomNumber)
	})
	if err != nil {
		return notFoundOr(err, "room")
	}

	s.log.Info("Room deleted", zap.String("room_id", room.ID.String()))
	return nil
}

func (s *roomService) loadManaged(ctx context.Context, actor Actor, roomID string) (*entity.HotelRoom, error) {
	id, err := parseID(roomID, "room id")
	if err != nil {
		return nil, err
	}
	room, err := s.repo.Room.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("load room: %w", err)
	}
	if room == nil {
		return nil, fmt.Errorf("%w: room %s", ErrNotFound, id)
	}
	if err := s.authorize(ctx, actor, room.HotelID); err != nil {
		return nil, err
	}
	return room, nil
}

func (s *roomService) authorize(ctx context.Context, actor Actor, hotelID uuid.UUID) error {
	ok, err := canManageHotel(ctx, s.repo.User, actor, hotelID)
	if err != nil {
		return err
	}
	if !ok {
		s.log.Warn("Room change by non-manager",
			zap.String("user_id", actor.UserID.String()),
			zap.String("hotel_id", hotelID.String()))
		return fmt.Errorf("%w: not a manager of this hotel", ErrUnauthorized)
	}
	return nil
}

func (s *roomService) auditIfAdmin(ctx context.Context, tx *repository.Repository, actor Actor, action string, roomID uuid.UUID, details string) error {
	if !actor.IsAdmin() {
		return nil
	}
	return tx.AdminLog.Create(ctx, newAdminLog(actor.UserID, action, "room", roomID, details, s.now()))
}
