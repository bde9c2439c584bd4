package usecase

import (
	"context"
	"testing"
	"time"

	"hotel-booking/internal/data/entity"
	"hotel-booking/internal/dto/request"
	"hotel-booking/pkg/utils"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestDeactivateUserEndsSessions(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	users := NewUserService(h.repo, zap.NewNop())

	for range 2 {
		id := uuid.New()
		h.store.sessions[id] = &entity.Session{
			BaseSimple: entity.BaseSimple{ID: id},
			UserID:     h.guest.ID,
			ExpiresAt:  h.now.Add(time.Hour),
		}
	}

	require.NoError(t, users.DeactivateUser(ctx, h.adminActor(), h.guest.ID.String()))

	assert.False(t, h.store.users[h.guest.ID].IsActive)
	for _, sess := range h.store.sessions {
		assert.NotNil(t, sess.RevokedAt)
	}
	require.Len(t, h.store.logs, 1)
	assert.Equal(t, "deactivate", h.store.logs[0].Action)
	assert.Equal(t, "user", h.store.logs[0].TargetType)
	assert.Equal(t, h.guest.ID, h.store.logs[0].TargetID)

	assert.ErrorIs(t, users.DeactivateUser(ctx, h.adminActor(), h.guest.ID.String()), ErrNotFound)
}

func TestDeactivateUserRules(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	users := NewUserService(h.repo, zap.NewNop())

	assert.ErrorIs(t, users.DeactivateUser(ctx, h.adminActor(), h.admin.ID.String()), ErrValidation)
	assert.ErrorIs(t, users.DeactivateUser(ctx, h.guestActor(), h.admin.ID.String()), ErrUnauthorized)
	assert.ErrorIs(t, users.DeactivateUser(ctx, h.adminActor(), uuid.NewString()), ErrNotFound)

	assert.True(t, h.store.users[h.admin.ID].IsActive)
	assert.Empty(t, h.store.logs)
}

func TestCreateManagerCanManageOwnHotel(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	users := NewUserService(h.repo, zap.NewNop())

	resp, err := users.CreateManager(ctx, h.adminActor(), &request.CreateManagerRequest{
		Username: "harbour-mgr",
		Email:    "mgr@harbour.example.com",
		Password: "long-enough",
		HotelID:  h.hotel.String(),
	})
	require.NoError(t, err)
	assert.Equal(t, entity.RoleHotelManager, resp.Role)
	require.NotNil(t, resp.HotelID)
	assert.Equal(t, h.hotel.String(), *resp.HotelID)

	require.Len(t, h.store.logs, 1)
	assert.Equal(t, "hotel_manager", h.store.logs[0].TargetType)

	manager := Actor{UserID: uuid.MustParse(resp.ID), Role: entity.RoleHotelManager}
	ok, err := canManageHotel(ctx, h.repo.User, manager, h.hotel)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = canManageHotel(ctx, h.repo.User, manager, uuid.New())
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestCreateManagerRules(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	users := NewUserService(h.repo, zap.NewNop())
	req := &request.CreateManagerRequest{
		Username: "harbour-mgr",
		Email:    "mgr@harbour.example.com",
		Password: "long-enough",
		HotelID:  uuid.NewString(),
	}

	_, err := users.CreateManager(ctx, h.adminActor(), req)
	assert.ErrorIs(t, err, ErrNotFound, "unknown hotel")

	_, err = users.CreateManager(ctx, h.guestActor(), req)
	assert.ErrorIs(t, err, ErrUnauthorized)

	req.HotelID = h.hotel.String()
	req.Email = h.guest.Email
	_, err = users.CreateManager(ctx, h.adminActor(), req)
	assert.ErrorIs(t, err, ErrConflict)
	assert.Empty(t, h.store.logs)
}

func TestUpdateProfile(t *testing.T) {
	h := newHarness(t)
	users := NewUserService(h.repo, zap.NewNop())

	name, password := "guest-renamed", "new-password"
	resp, err := users.UpdateProfile(context.Background(), h.guestActor(), &request.UpdateProfileRequest{
		Username: &name,
		Password: &password,
	})
	require.NoError(t, err)
	assert.Equal(t, name, resp.Username)

	stored := h.store.users[h.guest.ID]
	assert.Equal(t, name, stored.Username)
	assert.True(t, utils.CheckPasswordHash(password, stored.PasswordHash))
}

func TestListUsersByRole(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	users := NewUserService(h.repo, zap.NewNop())

	page, err := users.ListUsers(ctx, h.adminActor(), &request.UserFilterRequest{Role: "admin"})
	require.NoError(t, err)
	require.Len(t, page.Data, 1)
	assert.Equal(t, h.admin.ID.String(), page.Data[0].ID)

	_, err = users.ListUsers(ctx, h.guestActor(), &request.UserFilterRequest{})
	assert.ErrorIs(t, err, ErrUnauthorized)
}
