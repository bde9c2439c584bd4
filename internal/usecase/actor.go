package usecase

import (
	"context"
	"fmt"
	"time"

	"hotel-booking/internal/data/entity"
	"hotel-booking/internal/data/repository"

	"github.com/google/uuid"
)

// Actor is the authenticated caller as established by the auth middleware.
// Services re-check ownership against it; the route guard only checks role.
type Actor struct {
	UserID uuid.UUID
	Role   entity.UserRole
}

func (a Actor) IsAdmin() bool {
	return a.Role == entity.RoleAdmin
}

func (a Actor) Owns(userID uuid.UUID) bool {
	return a.UserID != uuid.Nil && a.UserID == userID
}

// canManageHotel: admins manage every hotel, managers only their own.
func canManageHotel(ctx context.Context, users repository.UserRepository, actor Actor, hotelID uuid.UUID) (bool, error) {
	if actor.IsAdmin() {
		return true, nil
	}
	if actor.Role != entity.RoleHotelManager {
		return false, nil
	}
	user, err := users.FindByID(ctx, actor.UserID)
	if err != nil {
		return false, fmt.Errorf("load manager %s: %w", actor.UserID, err)
	}
	return user.ManagesHotel(hotelID), nil
}

func parseID(value, field string) (uuid.UUID, error) {
	id, err := uuid.Parse(value)
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: invalid %s %q", ErrValidation, field, value)
	}
	return id, nil
}

func newAdminLog(adminID uuid.UUID, action, targetType string, targetID uuid.UUID, details string, now time.Time) *entity.AdminLog {
	return &entity.AdminLog{
		BaseSimple: entity.BaseSimple{ID: uuid.New(), CreatedAt: now},
		AdminID:    adminID,
		Action:     action,
		TargetType: targetType,
		TargetID:   targetID,
		Details:    details,
	}
}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
