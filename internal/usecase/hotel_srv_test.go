package usecase

import (
	"context"
	"testing"

	"hotel-booking/internal/data/entity"
	"hotel-booking/internal/dto/request"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func hotelRequest(name, city string) *request.HotelRequest {
	return &request.HotelRequest{
		Name:         name,
		Address:      "12 Haeundae-ro",
		City:         city,
		Country:      "KR",
		StarRating:   4,
		CheckInTime:  "15:00",
		CheckOutTime: "11:00",
	}
}

func TestHotelLifecycleIsAudited(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	hotels := NewHotelService(h.repo, zap.NewNop())

	created, err := hotels.CreateHotel(ctx, h.adminActor(), hotelRequest("Sea View", "Busan"))
	require.NoError(t, err)
	assert.True(t, created.IsActive)
	id := uuid.MustParse(created.ID)
	require.NotNil(t, h.store.hotels[id])

	name := "Sea View Annex"
	updated, err := hotels.UpdateHotel(ctx, h.adminActor(), created.ID, &request.HotelUpdateRequest{Name: &name})
	require.NoError(t, err)
	assert.Equal(t, name, updated.Name)
	assert.Equal(t, name, h.store.hotels[id].Name)

	require.NoError(t, hotels.DeleteHotel(ctx, h.adminActor(), created.ID))
	_, err = hotels.GetHotel(ctx, created.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	assert.ErrorIs(t, hotels.DeleteHotel(ctx, h.adminActor(), created.ID), ErrNotFound)

	require.Len(t, h.store.logs, 3)
	for i, action := range []string{"create", "update", "delete"} {
		assert.Equal(t, action, h.store.logs[i].Action)
		assert.Equal(t, "hotel", h.store.logs[i].TargetType)
		assert.Equal(t, id, h.store.logs[i].TargetID)
		assert.Equal(t, h.admin.ID, h.store.logs[i].AdminID)
	}
}

func TestHotelWritesAreAdminOnly(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	hotels := NewHotelService(h.repo, zap.NewNop())
	manager := Actor{UserID: uuid.New(), Role: entity.RoleHotelManager}

	_, err := hotels.CreateHotel(ctx, h.guestActor(), hotelRequest("Sea View", "Busan"))
	assert.ErrorIs(t, err, ErrUnauthorized)

	name := "Renamed"
	_, err = hotels.UpdateHotel(ctx, manager, h.hotel.String(), &request.HotelUpdateRequest{Name: &name})
	assert.ErrorIs(t, err, ErrUnauthorized)

	assert.ErrorIs(t, hotels.DeleteHotel(ctx, manager, h.hotel.String()), ErrUnauthorized)

	assert.Equal(t, "Hotel Harbour", h.store.hotels[h.hotel].Name)
	assert.Empty(t, h.store.logs)
}

func TestCreateHotelValidation(t *testing.T) {
	h := newHarness(t)
	hotels := NewHotelService(h.repo, zap.NewNop())

	req := hotelRequest("Sea View", "Busan")
	req.StarRating = 6
	_, err := hotels.CreateHotel(context.Background(), h.adminActor(), req)
	assert.ErrorIs(t, err, ErrValidation)

	req = hotelRequest("Sea View", "Busan")
	req.CheckInTime = "3pm"
	_, err = hotels.CreateHotel(context.Background(), h.adminActor(), req)
	assert.ErrorIs(t, err, ErrValidation)
}

func TestGetHotelWithReviewStats(t *testing.T) {
	h := newHarness(t)
	hotels := NewHotelService(h.repo, zap.NewNop())
	for _, rating := range []int{3, 5} {
		review := &entity.HotelReview{
			Base:          entity.Base{ID: uuid.New()},
			UserID:        h.guest.ID,
			HotelID:       h.hotel,
			ReservationID: uuid.New(),
			Rating:        rating,
		}
		h.store.reviews[review.ID] = review
	}

	resp, err := hotels.GetHotel(context.Background(), h.hotel.String())
	require.NoError(t, err)
	require.NotNil(t, resp.AverageRating)
	require.NotNil(t, resp.ReviewCount)
	assert.InDelta(t, 4.0, *resp.AverageRating, 0.001)
	assert.Equal(t, int64(2), *resp.ReviewCount)

	_, err = hotels.GetHotel(context.Background(), "not-a-uuid")
	assert.ErrorIs(t, err, ErrValidation)
}

func TestListHotelsFiltersByCity(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	hotels := NewHotelService(h.repo, zap.NewNop())

	_, err := hotels.CreateHotel(ctx, h.adminActor(), hotelRequest("Han River Inn", "Seoul"))
	require.NoError(t, err)
	_, err = hotels.CreateHotel(ctx, h.adminActor(), hotelRequest("Gwangan Stay", "Busan"))
	require.NoError(t, err)

	page, err := hotels.ListHotels(ctx, &request.HotelFilterRequest{City: "busan"})
	require.NoError(t, err)
	assert.Equal(t, int64(2), page.Pagination.Total, "seeded hotel plus Gwangan Stay")
	for _, hotel := range page.Data {
		assert.Equal(t, "Busan", hotel.City)
	}

	page, err = hotels.ListHotels(ctx, &request.HotelFilterRequest{})
	require.NoError(t, err)
	assert.Len(t, page.Data, 3)
}

func TestDeletedHotelHidesItsRooms(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	hotels := NewHotelService(h.repo, zap.NewNop())
	rooms := NewRoomService(h.repo, zap.NewNop())

	_, err := rooms.GetRoom(ctx, h.room.ID.String())
	require.NoError(t, err)

	require.NoError(t, hotels.DeleteHotel(ctx, h.adminActor(), h.hotel.String()))

	_, err = rooms.GetRoom(ctx, h.room.ID.String())
	assert.ErrorIs(t, err, ErrNotFound)
}
