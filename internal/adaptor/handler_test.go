package adaptor

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"hotel-booking/internal/data/entity"
	"hotel-booking/internal/dto/request"
	"hotel-booking/internal/dto/response"
	"hotel-booking/internal/usecase"
	"hotel-booking/pkg/utils"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestHandleServiceErrorStatus(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{fmt.Errorf("%w: check_out_date must be after check_in_date", usecase.ErrValidation), http.StatusBadRequest},
		{fmt.Errorf("%w: room 1", usecase.ErrNotFound), http.StatusNotFound},
		{fmt.Errorf("%w: room already booked", usecase.ErrConflict), http.StatusConflict},
		{fmt.Errorf("%w: reservation belongs to another user", usecase.ErrUnauthorized), http.StatusForbidden},
		{fmt.Errorf("%w: wrong password", usecase.ErrInvalidCredentials), http.StatusUnauthorized},
		{fmt.Errorf("%w: already checked out", usecase.ErrInvalidState), http.StatusConflict},
		{fmt.Errorf("%w: card declined", usecase.ErrPayment), http.StatusPaymentRequired},
		{fmt.Errorf("%w: payment row missing", usecase.ErrInconsistentState), http.StatusInternalServerError},
		{errors.New("connection refused"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			rec := httptest.NewRecorder()
			handleServiceError(zap.NewNop(), rec, tt.err, "test")
			assert.Equal(t, tt.want, rec.Code)
			assert.Contains(t, rec.Body.String(), `"status":false`)
		})
	}
}

func TestUnknownErrorsAreHidden(t *testing.T) {
	rec := httptest.NewRecorder()
	handleServiceError(zap.NewNop(), rec, errors.New("pq: password authentication failed"), "test")
	assert.NotContains(t, rec.Body.String(), "password")
}

// stubReservations records the actor it was called with.
type stubReservations struct {
	usecase.ReservationService
	actor  usecase.Actor
	req    *request.CreateReservationRequest
	err    error
	cancel *request.CancelReservationRequest
}

func (s *stubReservations) CreateReservation(_ context.Context, actor usecase.Actor, req *request.CreateReservationRequest) (*response.ReservationResponse, error) {
	s.actor, s.req = actor, req
	if s.err != nil {
		return nil, s.err
	}
	return &response.ReservationResponse{ID: uuid.NewString(), Status: entity.ReservationStatusReserved}, nil
}

func (s *stubReservations) CancelReservation(_ context.Context, actor usecase.Actor, id string, req *request.CancelReservationRequest) (*response.ReservationResponse, error) {
	s.actor, s.cancel = actor, req
	return &response.ReservationResponse{ID: id, Status: entity.ReservationStatusCancelled}, nil
}

func withActor(r *http.Request, userID uuid.UUID, role string) *http.Request {
	return r.WithContext(utils.SetUserContext(r.Context(), userID, role))
}

const reservationBody = `{
	"hotel_room_id": "2f1c8b0e-7a52-4b1e-9f3c-1d2e3f4a5b6c",
	"check_in_date": "2026-06-10",
	"check_out_date": "2026-06-12",
	"number_of_guests": 2,
	"total_price": 200000,
	"order_token": "order-0001",
	"payment_method": "card",
	"card": {"number": "4242424242424242", "expiry_year": "28", "expiry_month": "12", "birth_or_business_no": "900101", "password_two_digits": "12"}
}`

func TestCreateReservationHandler(t *testing.T) {
	stub := &stubReservations{}
	h := NewReservationHandler(stub, zap.NewNop())
	userID := uuid.New()

	req := withActor(httptest.NewRequest(http.MethodPost, "/api/reservations", strings.NewReader(reservationBody)), userID, "user")
	rec := httptest.NewRecorder()
	h.CreateReservation(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Equal(t, usecase.Actor{UserID: userID, Role: entity.RoleUser}, stub.actor)
	assert.Equal(t, "order-0001", stub.req.OrderToken)
}

func TestCreateReservationHandlerErrors(t *testing.T) {
	stub := &stubReservations{err: fmt.Errorf("%w: room already booked", usecase.ErrConflict)}
	h := NewReservationHandler(stub, zap.NewNop())

	rec := httptest.NewRecorder()
	h.CreateReservation(rec, httptest.NewRequest(http.MethodPost, "/api/reservations", strings.NewReader(reservationBody)))
	assert.Equal(t, http.StatusUnauthorized, rec.Code, "no actor in context")

	rec = httptest.NewRecorder()
	h.CreateReservation(rec, withActor(httptest.NewRequest(http.MethodPost, "/api/reservations", strings.NewReader("{")), uuid.New(), "user"))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = httptest.NewRecorder()
	h.CreateReservation(rec, withActor(httptest.NewRequest(http.MethodPost, "/api/reservations", strings.NewReader(reservationBody)), uuid.New(), "user"))
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestCancelReservationAcceptsEmptyBody(t *testing.T) {
	stub := &stubReservations{}
	h := NewReservationHandler(stub, zap.NewNop())
	id := uuid.NewString()

	r := chi.NewRouter()
	r.Post("/api/reservations/{id}/cancel", h.CancelReservation)

	req := withActor(httptest.NewRequest(http.MethodPost, "/api/reservations/"+id+"/cancel", nil), uuid.New(), "user")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Body.String(), id)
	assert.Empty(t, stub.cancel.Reason)
}

type stubSubscriptions struct {
	usecase.SubscriptionService
	body   []byte
	header http.Header
}

func (s *stubSubscriptions) HandleWebhook(_ context.Context, body []byte, header http.Header) (*response.WebhookResponse, error) {
	s.body, s.header = body, header
	return &response.WebhookResponse{Renewed: true, EndDate: time.Date(2026, 7, 1, 0, 0, 0, 0, time.UTC)}, nil
}

func TestWebhookPassesRawBody(t *testing.T) {
	stub := &stubSubscriptions{}
	h := NewSubscriptionHandler(stub, zap.NewNop())
	body := `{"transactionId":"tx-1","subscriptionId":"s","amount":9900,"status":"Paid"}`

	req := httptest.NewRequest(http.MethodPost, "/subscriptions/webhook", strings.NewReader(body))
	req.Header.Set("webhook-id", "msg-1")
	rec := httptest.NewRecorder()
	h.Webhook(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, body, string(stub.body))
	assert.Equal(t, "msg-1", stub.header.Get("webhook-id"))
}

func TestClientIP(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.RemoteAddr = "198.51.100.4:5555"
	assert.Equal(t, "198.51.100.4", clientIP(r))

	r.Header.Set("X-Forwarded-For", "203.0.113.9, 10.0.0.1")
	assert.Equal(t, "203.0.113.9", clientIP(r))
}
