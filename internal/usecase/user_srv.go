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

type UserService interface {
	GetProfile(ctx context.Context, actor Actor) (*response.UserResponse, error)
	UpdateProfile(ctx context.Context, actor Actor, req *request.UpdateProfileRequest) (*response.UserResponse, error)

	// Admin endpoints
	ListUsers(ctx context.Context, actor Actor, req *request.UserFilterRequest) (*response.PaginatedResponse[response.UserResponse], error)
	DeactivateUser(ctx context.Context, actor Actor, userID string) error
	CreateManager(ctx context.Context, actor Actor, req *request.CreateManagerRequest) (*response.UserResponse, error)
}

type userService struct {
	repo *repository.Repository
	now  func() time.Time
	log  *zap.Logger
}

func NewUserService(repo *repository.Repository, log *zap.Logger) UserService {
	return &userService{
		repo: repo,
		now:  time.Now,
		log:  log.With(zap.String("service", "user")),
	}
}

func (us *userService) GetProfile(ctx context.Context, actor Actor) (*response.UserResponse, error) {
	user, err := us.repo.User.FindByID(ctx, actor.UserID)
	if err != nil {
		us.log.Error("Failed to find user", zap.Error(err), zap.String("user_id", actor.UserID.String()))
		return nil, fmt.Errorf("get profile: %w", err)
	}
	if user == nil {
		return nil, fmt.Errorf("%w: user %s", ErrNotFound, actor.UserID)
	}

	resp := response.UserToResponse(user)
	return &resp, nil
}

func (us *userService) UpdateProfile(ctx context.Context, actor Actor, req *request.UpdateProfileRequest) (*response.UserResponse, error) {
	if errs := utils.ValidateStruct(req); len(errs) > 0 {
		return nil, validationError(errs)
	}

	user, err := us.repo.User.FindByID(ctx, actor.UserID)
	if err != nil {
		return nil, fmt.Errorf("load user: %w", err)
	}
	if user == nil {
		return nil, fmt.Errorf("%w: user %s", ErrNotFound, actor.UserID)
	}

	if req.Username != nil {
		user.Username = *req.Username
	}
	if req.Phone != nil {
		user.Phone = req.Phone
	}
	if req.Password != nil {
		hashed, err := utils.HashPassword(*req.Password)
		if err != nil {
			return nil, fmt.Errorf("hash password: %w", err)
		}
		user.PasswordHash = hashed
	}
	user.UpdatedAt = us.now()

	if err := us.repo.User.Update(ctx, user); err != nil {
		return nil, fmt.Errorf("update profile: %w", err)
	}

	us.log.Info("Profile updated", zap.String("user_id", user.ID.String()))
	resp := response.UserToResponse(user)
	return &resp, nil
}

func (us *userService) ListUsers(ctx context.Context, actor Actor, req *request.UserFilterRequest) (*response.PaginatedResponse[response.UserResponse], error) {
	if !actor.IsAdmin() {
		return nil, fmt.Errorf("%w: admin only", ErrUnauthorized)
	}
	req.Normalize()
	if errs := utils.ValidateStruct(req); len(errs) > 0 {
		return nil, validationError(errs)
	}

	var role *entity.UserRole
	if req.Role != "" {
		r := entity.UserRole(req.Role)
		role = &r
	}

	users, err := us.repo.User.FindAll(ctx, role, req.Limit(), req.Offset())
	if err != nil {
		us.log.Error("Failed to get all users", zap.Error(err), zap.Int("page", req.Page))
		return nil, fmt.Errorf("list users: %w", err)
	}
	total, err := us.repo.User.Count(ctx, role)
	if err != nil {
		return nil, fmt.Errorf("count users: %w", err)
	}

	return response.NewPaginatedResponse(response.MapSlice(users, response.UserToResponse), req.Page, req.PerPage, total), nil
}

// DeactivateUser disables the account and ends every session it holds.
func (us *userService) DeactivateUser(ctx context.Context, actor Actor, userID string) error {
	if !actor.IsAdmin() {
		return fmt.Errorf("%w: admin only", ErrUnauthorized)
	}
	id, err := parseID(userID, "user id")
	if err != nil {
		return err
	}
	if id == actor.UserID {
		return fmt.Errorf("%w: admins cannot deactivate themselves", ErrValidation)
	}

	err = us.repo.Tx.WithinTx(ctx, func(tx *repository.Repository) error {
		if err := tx.User.Deactivate(ctx, id); err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return fmt.Errorf("%w: user %s", ErrNotFound, id)
			}
			return err
		}
		if err := tx.Session.RevokeAllUserSessions(ctx, id); err != nil {
			return err
		}
		return tx.AdminLog.Create(ctx, newAdminLog(actor.UserID, "deactivate", "user", id, "", us.now()))
	})
	if err != nil {
		return err
	}

	us.log.Info("User deactivated", zap.String("user_id", id.String()), zap.String("admin_id", actor.UserID.String()))
	return nil
}

func (us *userService) CreateManager(ctx context.Context, actor Actor, req *request.CreateManagerRequest) (*response.UserResponse, error) {
	if !actor.IsAdmin() {
		return nil, fmt.Errorf("%w: admin only", ErrUnauthorized)
	}
	if errs := utils.ValidateStruct(req); len(errs) > 0 {
		return nil, validationError(errs)
	}
	hotelID, err := parseID(req.HotelID, "hotel_id")
	if err != nil {
		return nil, err
	}

	hotel, err := us.repo.Hotel.FindByID(ctx, hotelID)
	if err != nil {
		return nil, fmt.Errorf("load hotel: %w", err)
	}
	if hotel == nil {
		return nil, fmt.Errorf("%w: hotel %s", ErrNotFound, hotelID)
	}

	hashed, err := utils.HashPassword(req.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	now := us.now()
	manager := &entity.User{
		Base:         entity.Base{ID: uuid.New(), CreatedAt: now, UpdatedAt: now},
		Username:     req.Username,
		Email:        req.Email,
		PasswordHash: hashed,
		Phone:        req.Phone,
		Role:         entity.RoleHotelManager,
		HotelID:      &hotelID,
		IsActive:     true,
	}

	err = us.repo.Tx.WithinTx(ctx, func(tx *repository.Repository) error {
		if err := tx.User.Create(ctx, manager); err != nil {
			if errors.Is(err, repository.ErrConflict) {
				return fmt.Errorf("%w: email already registered", ErrConflict)
			}
			return err
		}
		details := fmt.Sprintf("manager of hotel %s", hotelID)
		return tx.AdminLog.Create(ctx, newAdminLog(actor.UserID, "create", "hotel_manager", manager.ID, details, now))
	})
	if err != nil {
		return nil, err
	}

	us.log.Info("Hotel manager created",
		zap.String("user_id", manager.ID.String()),
		zap.String("hotel_id", hotelID.String()))

	resp := response.UserToResponse(manager)
	return &resp, nil
}
