package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"hotel-booking/internal/data/entity"
	"hotel-booking/internal/data/repository"
	"hotel-booking/internal/dto/request"
	"hotel-booking/internal/dto/response"
	"hotel-booking/pkg/alert"
	"hotel-booking/pkg/cache"
	"hotel-booking/pkg/portone"
	"hotel-booking/pkg/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type ReservationService interface {
	// Guest endpoints
	CreateReservation(ctx context.Context, actor Actor, req *request.CreateReservationRequest) (*response.ReservationResponse, error)
	CancelReservation(ctx context.Context, actor Actor, reservationID string, req *request.CancelReservationRequest) (*response.ReservationResponse, error)
	GetReservation(ctx context.Context, actor Actor, reservationID string) (*response.ReservationResponse, error)
	ListMyReservations(ctx context.Context, actor Actor, req *request.PaginatedRequest) (*response.PaginatedResponse[response.ReservationResponse], error)

	// Admin endpoints
	UpdateReservationStatus(ctx context.Context, actor Actor, reservationID string, req *request.UpdateReservationStatusRequest) (*response.ReservationResponse, error)
	ListReservations(ctx context.Context, actor Actor, req *request.ReservationFilterRequest) (*response.PaginatedResponse[response.ReservationResponse], error)

	// Public
	CheckAvailability(ctx context.Context, roomID, checkIn, checkOut string) (*response.AvailabilityResponse, error)
	GetRoomOccupancy(ctx context.Context, roomID string) (*response.OccupancyResponse, error)
}

// reservationPayload is stored on the create saga. Card data never is.
type reservationPayload struct {
	HotelRoomID   uuid.UUID `json:"hotel_room_id"`
	CheckIn       time.Time `json:"check_in"`
	CheckOut      time.Time `json:"check_out"`
	Guests        int       `json:"guests"`
	PaymentMethod string    `json:"payment_method"`
}

type cancelPayload struct {
	Reason           string                   `json:"reason"`
	PreviousStatus   entity.ReservationStatus `json:"previous_status"`
	PaymentHistoryID uuid.UUID                `json:"payment_history_id"`
	AdminID          *uuid.UUID               `json:"admin_id,omitempty"`
}

type reservationService struct {
	repo    *repository.Repository
	saga    *sagaSupport
	locker  cache.Locker
	lockTTL time.Duration
	now     func() time.Time
	log     *zap.Logger
}

func newReservationService(repo *repository.Repository, saga *sagaSupport, locker cache.Locker, lockTTL time.Duration, log *zap.Logger) *reservationService {
	return &reservationService{
		repo:    repo,
		saga:    saga,
		locker:  locker,
		lockTTL: lockTTL,
		now:     saga.now,
		log:     log.With(zap.String("service", "reservation")),
	}
}

func (s *reservationService) CreateReservation(ctx context.Context, actor Actor, req *request.CreateReservationRequest) (*response.ReservationResponse, error) {
	// 1. Validate request
	if errs := utils.ValidateStruct(req); len(errs) > 0 {
		s.log.Warn("Create reservation validation failed", zap.Any("errors", errs))
		return nil, validationError(errs)
	}

	roomID, err := parseID(req.HotelRoomID, "hotel_room_id")
	if err != nil {
		return nil, err
	}
	checkIn, checkOut, err := parseStay(req.CheckInDate, req.CheckOutDate)
	if err != nil {
		return nil, err
	}
	if checkIn.Before(startOfDay(s.now().In(checkIn.Location()))) {
		return nil, fmt.Errorf("%w: check-in date is in the past", ErrValidation)
	}

	// 2. Room rules
	room, err := s.repo.Room.FindByID(ctx, roomID)
	if err != nil {
		return nil, fmt.Errorf("load room: %w", err)
	}
	if room == nil {
		return nil, fmt.Errorf("%w: room %s", ErrNotFound, roomID)
	}
	if !room.IsAvailable {
		return nil, fmt.Errorf("%w: room %s is not open for booking", ErrValidation, roomID)
	}
	hotel, err := s.repo.Hotel.FindByID(ctx, room.HotelID)
	if err != nil {
		return nil, fmt.Errorf("load hotel: %w", err)
	}
	if hotel == nil {
		return nil, fmt.Errorf("%w: room %s", ErrNotFound, roomID)
	}
	if !hotel.IsActive {
		return nil, fmt.Errorf("%w: hotel %s is not taking bookings", ErrValidation, hotel.ID)
	}
	if req.NumberOfGuests > room.Capacity {
		return nil, fmt.Errorf("%w: room holds at most %d guests", ErrValidation, room.Capacity)
	}
	nights := utils.Nights(checkIn, checkOut)
	if expected := room.PricePerNight * int64(nights); req.TotalPrice != expected {
		return nil, fmt.Errorf("%w: total_price must be %d for %d nights", ErrValidation, expected, nights)
	}

	method, customer, err := s.paymentMethod(ctx, actor, req)
	if err != nil {
		return nil, err
	}

	// 3. Start or replay the saga for this order token
	saga, err := s.startCreateSaga(ctx, actor, req, roomID, checkIn, checkOut)
	if err != nil {
		return nil, err
	}
	if saga.State != entity.SagaStarted {
		return s.replay(ctx, saga)
	}

	log := s.log.With(zap.String("saga_id", saga.ID.String()), zap.String("room_id", roomID.String()))

	// 4. Room lock, best effort. Until the charge a rejection leaves the
	// order token reusable.
	release, err := s.locker.Acquire(ctx, "room:"+roomID.String(), s.lockTTL)
	switch {
	case errors.Is(err, cache.ErrLockHeld):
		s.saga.mark(ctx, saga, entity.SagaRejected, err)
		return nil, fmt.Errorf("%w: another booking of this room is in progress", ErrConflict)
	case err != nil:
		log.Warn("Room lock unavailable, relying on database constraints", zap.Error(err))
		release = func() {}
	}
	defer release()

	// 5. Overlap check before any money moves
	overlapping, err := s.repo.Reservation.FindOverlapping(ctx, roomID, checkIn, checkOut)
	if err != nil {
		s.saga.mark(ctx, saga, entity.SagaRejected, err)
		return nil, fmt.Errorf("check overlapping reservations: %w", err)
	}
	if len(overlapping) > 0 {
		s.saga.mark(ctx, saga, entity.SagaRejected, errors.New("dates overlap an existing reservation"))
		return nil, fmt.Errorf("%w: room is already booked for these dates", ErrConflict)
	}

	// 6. Capture payment
	orderName := req.OrderName
	if orderName == "" {
		orderName = fmt.Sprintf("Room %s, %d nights", room.RoomNumber, nights)
	}
	txID, err := s.saga.charge(ctx, saga, portone.OneTimePaymentRequest{
		OrderName: orderName,
		Amount:    req.TotalPrice,
		Method:    method,
		Customer:  customer,
	})
	if err != nil {
		if errors.Is(err, errOutcomeUnknown) {
			s.saga.raise(ctx, sagaAlert(alert.KindPaymentUnknown, saga, err.Error()))
			return nil, fmt.Errorf("%w: payment outcome is unknown and will be reconciled", ErrPayment)
		}
		s.saga.mark(ctx, saga, entity.SagaFailed, err)
		return nil, err
	}

	// 7. Record capture. From here the request context no longer matters:
	// money has moved and the saga must reach a terminal state.
	pctx := context.WithoutCancel(ctx)
	if err := s.saga.capture(pctx, saga, txID); errors.Is(err, repository.ErrStateChanged) {
		return nil, fmt.Errorf("%w: payment is being reconciled", ErrPayment)
	}

	// 8. Persist reservation and payment row
	now := s.now()
	reservation := &entity.Reservation{
		BaseNoDelete:   entity.BaseNoDelete{ID: *saga.ReservationID, CreatedAt: now, UpdatedAt: now},
		UserID:         actor.UserID,
		HotelRoomID:    roomID,
		CheckInDate:    checkIn,
		CheckOutDate:   checkOut,
		NumberOfGuests: req.NumberOfGuests,
		TotalPrice:     req.TotalPrice,
		Status:         entity.ReservationStatusReserved,
	}
	payment := &entity.PaymentHistory{
		BaseNoDelete:  entity.BaseNoDelete{ID: uuid.New(), CreatedAt: now, UpdatedAt: now},
		UserID:        actor.UserID,
		ReservationID: &reservation.ID,
		Amount:        req.TotalPrice,
		PaymentType:   entity.PaymentTypeReservation,
		Status:        entity.PaymentStatusCompleted,
		TransactionID: &txID,
		PaymentID:     saga.PaymentID,
		PaymentMethod: &req.PaymentMethod,
		Description:   &orderName,
	}

	err = s.repo.Tx.WithinTx(pctx, func(tx *repository.Repository) error {
		locked, err := tx.Room.FindByIDForUpdate(pctx, roomID)
		if err != nil {
			return err
		}
		if locked == nil {
			return fmt.Errorf("%w: room %s was removed", ErrNotFound, roomID)
		}

		overlapping, err := tx.Reservation.FindOverlapping(pctx, roomID, checkIn, checkOut)
		if err != nil {
			return err
		}
		if len(overlapping) > 0 {
			return fmt.Errorf("%w: room was booked concurrently", ErrConflict)
		}

		if err := tx.Reservation.Create(pctx, reservation); err != nil {
			return err
		}
		if err := tx.Payment.Create(pctx, payment); err != nil {
			return err
		}
		return tx.Saga.MarkState(pctx, saga.ID, saga.State, entity.SagaCompleted, nil)
	})
	if errors.Is(err, repository.ErrStateChanged) {
		// the recovery worker claimed the saga and refunds it
		log.Warn("Saga taken over before the reservation was stored", zap.Error(err))
		return nil, fmt.Errorf("%w: payment is being reconciled", ErrPayment)
	}
	if err != nil {
		log.Error("Failed to persist paid reservation, compensating", zap.Error(err))

		// 9. Refund exactly once, then surface the original error
		_ = s.saga.compensate(pctx, saga, err)
		if errors.Is(err, repository.ErrConflict) {
			return nil, fmt.Errorf("%w: room was booked concurrently, payment refunded", ErrConflict)
		}
		return nil, fmt.Errorf("persist reservation: %w", err)
	}

	log.Info("Reservation created",
		zap.String("reservation_id", reservation.ID.String()),
		zap.String("user_id", actor.UserID.String()),
		zap.String("payment_id", saga.PaymentID),
		zap.Int64("total_price", req.TotalPrice),
	)

	resp := response.ReservationToResponse(reservation, payment)
	return &resp, nil
}

func (s *reservationService) paymentMethod(ctx context.Context, actor Actor, req *request.CreateReservationRequest) (portone.PaymentMethod, *portone.Customer, error) {
	user, err := s.repo.User.FindByID(ctx, actor.UserID)
	if err != nil {
		return portone.PaymentMethod{}, nil, fmt.Errorf("load user: %w", err)
	}
	if user == nil {
		return portone.PaymentMethod{}, nil, fmt.Errorf("%w: user %s", ErrNotFound, actor.UserID)
	}

	customer := customerOf(user)
	if req.PaymentMethod == request.PaymentMethodBillingKey {
		if user.BillingKey == nil || *user.BillingKey == "" {
			return portone.PaymentMethod{}, nil, fmt.Errorf("%w: no billing key registered", ErrValidation)
		}
		return portone.PaymentMethod{BillingKey: *user.BillingKey}, customer, nil
	}

	card := cardCredential(*req.Card)
	return portone.PaymentMethod{Card: &card}, customer, nil
}

// startCreateSaga inserts the saga for the order token, or returns the one
// already stored under it.
func (s *reservationService) startCreateSaga(ctx context.Context, actor Actor, req *request.CreateReservationRequest, roomID uuid.UUID, checkIn, checkOut time.Time) (*entity.BookingSaga, error) {
	key := fmt.Sprintf("reservation:%s:%s", actor.UserID, req.OrderToken)

	saga := s.saga.newSaga(entity.SagaReservationCreate, key, actor.UserID, req.TotalPrice)
	reservationID := uuid.New()
	saga.ReservationID = &reservationID
	saga.PaymentID = "rsv-" + saga.ID.String()

	payload, err := json.Marshal(reservationPayload{
		HotelRoomID:   roomID,
		CheckIn:       checkIn,
		CheckOut:      checkOut,
		Guests:        req.NumberOfGuests,
		PaymentMethod: req.PaymentMethod,
	})
	if err != nil {
		return nil, fmt.Errorf("encode saga payload: %w", err)
	}
	saga.Payload = payload

	created, err := s.repo.Saga.Create(ctx, saga)
	if err != nil {
		return nil, fmt.Errorf("start reservation saga: %w", err)
	}
	if created {
		return saga, nil
	}

	existing, err := s.repo.Saga.FindByKey(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("load reservation saga: %w", err)
	}
	if existing == nil {
		return nil, fmt.Errorf("%w: order token is being processed", ErrConflict)
	}
	switch existing.State {
	case entity.SagaStarted:
		// same token, first attempt still running
		return nil, fmt.Errorf("%w: a booking with this order token is in progress", ErrConflict)
	case entity.SagaRejected:
		// turned away before the charge; the token is still good
		if err := s.repo.Saga.Restart(ctx, existing.ID, entity.SagaRejected, payload, req.TotalPrice, s.saga.lease); err != nil {
			if errors.Is(err, repository.ErrStateChanged) {
				return nil, fmt.Errorf("%w: a booking with this order token is in progress", ErrConflict)
			}
			return nil, fmt.Errorf("restart reservation saga: %w", err)
		}
		existing.State = entity.SagaStarted
		existing.Payload = payload
		existing.Amount = req.TotalPrice
		existing.Attempts = 0
		existing.LastError = nil
		return existing, nil
	}
	return existing, nil
}

// replay answers a retried order token from the stored saga.
func (s *reservationService) replay(ctx context.Context, saga *entity.BookingSaga) (*response.ReservationResponse, error) {
	switch saga.State {
	case entity.SagaCompleted:
		reservation, err := s.repo.Reservation.FindByID(ctx, *saga.ReservationID)
		if err != nil {
			return nil, fmt.Errorf("load reservation: %w", err)
		}
		if reservation == nil {
			s.saga.raise(ctx, sagaAlert(alert.KindMissingPayment, saga, "completed saga has no reservation"))
			return nil, fmt.Errorf("%w: reservation of order %s is missing", ErrInconsistentState, saga.IdempotencyKey)
		}
		payment, err := s.repo.Payment.FindByReservationID(ctx, reservation.ID, entity.PaymentTypeReservation)
		if err != nil {
			return nil, fmt.Errorf("load payment: %w", err)
		}
		s.log.Info("Replayed completed order token", zap.String("reservation_id", reservation.ID.String()))
		resp := response.ReservationToResponse(reservation, payment)
		return &resp, nil

	case entity.SagaFailed, entity.SagaCompensated, entity.SagaCompensationFailed:
		return nil, fmt.Errorf("%w: this order token already failed, use a new token", ErrPayment)

	default:
		return nil, fmt.Errorf("%w: a booking with this order token is in progress", ErrConflict)
	}
}

func (s *reservationService) CancelReservation(ctx context.Context, actor Actor, reservationID string, req *request.CancelReservationRequest) (*response.ReservationResponse, error) {
	if req == nil {
		req = &request.CancelReservationRequest{}
	}
	if errs := utils.ValidateStruct(req); len(errs) > 0 {
		return nil, validationError(errs)
	}
	id, err := parseID(reservationID, "reservation id")
	if err != nil {
		return nil, err
	}

	// 1. Load and check ownership and state
	reservation, err := s.repo.Reservation.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("load reservation: %w", err)
	}
	if reservation == nil {
		return nil, fmt.Errorf("%w: reservation %s", ErrNotFound, id)
	}
	if !actor.IsAdmin() && !actor.Owns(reservation.UserID) {
		s.log.Warn("Cancel attempt on foreign reservation",
			zap.String("reservation_id", id.String()),
			zap.String("user_id", actor.UserID.String()))
		return nil, fmt.Errorf("%w: reservation belongs to another user", ErrUnauthorized)
	}
	if !reservation.Status.Cancellable() {
		return nil, fmt.Errorf("%w: reservation is %s", ErrInvalidState, reservation.Status)
	}

	// 2. The payment row must exist
	payment, err := s.repo.Payment.FindByReservationID(ctx, id, entity.PaymentTypeReservation)
	if err != nil {
		return nil, fmt.Errorf("load payment: %w", err)
	}
	if payment == nil {
		s.saga.raise(ctx, alert.Alert{
			Kind:          alert.KindMissingPayment,
			ReservationID: id.String(),
			UserID:        reservation.UserID.String(),
			Amount:        reservation.TotalPrice,
			Reason:        "reservation has no payment record, cannot refund",
		})
		return nil, fmt.Errorf("%w: reservation %s has no payment record", ErrInconsistentState, id)
	}

	reason := req.Reason
	if reason == "" {
		reason = refundReasonUser
	}

	// 3. Start the cancel saga
	saga, err := s.startCancelSaga(ctx, actor, reservation, payment, reason)
	if err != nil {
		return nil, err
	}

	// 4. Refund
	if err := s.saga.refund(ctx, payment.PaymentID, reason); err != nil {
		if errors.Is(err, errOutcomeUnknown) {
			s.saga.mark(ctx, saga, entity.SagaPaymentUnknown, err)
			s.saga.raise(ctx, sagaAlert(alert.KindPaymentUnknown, saga, err.Error()))
			return nil, fmt.Errorf("%w: refund outcome is unknown and will be reconciled", ErrPayment)
		}
		s.saga.mark(ctx, saga, entity.SagaFailed, err)
		s.log.Warn("Refund rejected, reservation left unchanged", zap.Error(err), zap.String("reservation_id", id.String()))
		return nil, err
	}

	// 5. Record the cancellation
	pctx := context.WithoutCancel(ctx)
	if err := s.saga.mark(pctx, saga, entity.SagaRefundConfirmed, nil); errors.Is(err, repository.ErrStateChanged) {
		return nil, fmt.Errorf("%w: refund is being reconciled", ErrPayment)
	}

	cancelled, err := s.applyCancellation(pctx, saga)
	if err != nil {
		s.saga.raise(ctx, sagaAlert(alert.KindRefundNotRecorded, saga, err.Error()))
		return nil, fmt.Errorf("refund succeeded but the cancellation was not recorded: %w", err)
	}

	s.log.Info("Reservation cancelled",
		zap.String("reservation_id", id.String()),
		zap.String("actor_id", actor.UserID.String()),
		zap.String("payment_id", payment.PaymentID))

	resp := response.ReservationToResponse(cancelled, payment)
	return &resp, nil
}

func (s *reservationService) startCancelSaga(ctx context.Context, actor Actor, reservation *entity.Reservation, payment *entity.PaymentHistory, reason string) (*entity.BookingSaga, error) {
	p := cancelPayload{
		Reason:           reason,
		PreviousStatus:   reservation.Status,
		PaymentHistoryID: payment.ID,
	}
	if actor.IsAdmin() {
		adminID := actor.UserID
		p.AdminID = &adminID
	}
	payload, err := json.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("encode saga payload: %w", err)
	}

	key := "cancel:" + reservation.ID.String()
	saga := s.saga.newSaga(entity.SagaReservationCancel, key, reservation.UserID, payment.Amount)
	saga.ReservationID = &reservation.ID
	saga.PaymentID = payment.PaymentID
	saga.TransactionID = payment.TransactionID
	saga.Payload = payload

	created, err := s.repo.Saga.Create(ctx, saga)
	if err != nil {
		return nil, fmt.Errorf("start cancel saga: %w", err)
	}
	if created {
		return saga, nil
	}

	existing, err := s.repo.Saga.FindByKey(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("load cancel saga: %w", err)
	}
	if existing == nil {
		return nil, fmt.Errorf("%w: cancellation is being processed", ErrConflict)
	}

	switch existing.State {
	case entity.SagaFailed:
		// earlier refund was rejected; try again under the same saga
		if err := s.repo.Saga.Restart(ctx, existing.ID, entity.SagaFailed, payload, payment.Amount, s.saga.lease); err != nil {
			if errors.Is(err, repository.ErrStateChanged) {
				return nil, fmt.Errorf("%w: cancellation is being processed", ErrConflict)
			}
			return nil, fmt.Errorf("restart cancel saga: %w", err)
		}
		existing.State = entity.SagaStarted
		existing.Payload = payload
		existing.Attempts = 0
		return existing, nil
	case entity.SagaCompleted:
		return nil, fmt.Errorf("%w: reservation is already cancelled", ErrInvalidState)
	default:
		return nil, fmt.Errorf("%w: cancellation is already in progress", ErrConflict)
	}
}

// applyCancellation writes everything that follows a confirmed refund in one
// transaction. Re-running it after a partial failure is safe.
func (s *reservationService) applyCancellation(ctx context.Context, saga *entity.BookingSaga) (*entity.Reservation, error) {
	var p cancelPayload
	if err := json.Unmarshal(saga.Payload, &p); err != nil {
		return nil, fmt.Errorf("decode cancel payload of saga %s: %w", saga.ID, err)
	}
	if saga.ReservationID == nil {
		return nil, fmt.Errorf("%w: cancel saga %s has no reservation", ErrInconsistentState, saga.ID)
	}
	if p.Reason == "" {
		p.Reason = refundReasonUser
	}

	var result *entity.Reservation
	err := s.repo.Tx.WithinTx(ctx, func(tx *repository.Repository) error {
		reservation, err := tx.Reservation.FindByID(ctx, *saga.ReservationID)
		if err != nil {
			return err
		}
		if reservation == nil {
			return fmt.Errorf("%w: reservation %s vanished after refund", ErrInconsistentState, *saga.ReservationID)
		}

		switch {
		case reservation.Status == entity.ReservationStatusCancelled:
			// already applied by an earlier run
		case reservation.Status.Cancellable():
			if err := tx.Reservation.UpdateStatus(ctx, reservation.ID, reservation.Status, entity.ReservationStatusCancelled); err != nil {
				return err
			}
			reservation.Status = entity.ReservationStatusCancelled
			reservation.UpdatedAt = s.now()
		default:
			return fmt.Errorf("%w: reservation %s is %s after refund", ErrInconsistentState, reservation.ID, reservation.Status)
		}

		payment, err := tx.Payment.FindByReservationID(ctx, reservation.ID, entity.PaymentTypeReservation)
		if err != nil {
			return err
		}
		if payment == nil {
			return fmt.Errorf("%w: reservation %s has no payment record", ErrInconsistentState, reservation.ID)
		}
		if payment.Status != entity.PaymentStatusRefunded {
			if err := tx.Payment.UpdateStatus(ctx, payment.ID, entity.PaymentStatusRefunded); err != nil {
				return err
			}
		}

		existingRefund, err := tx.Payment.FindByReservationID(ctx, reservation.ID, entity.PaymentTypeRefund)
		if err != nil {
			return err
		}
		if existingRefund == nil {
			now := s.now()
			reason := p.Reason
			refund := &entity.PaymentHistory{
				BaseNoDelete:  entity.BaseNoDelete{ID: uuid.New(), CreatedAt: now, UpdatedAt: now},
				UserID:        reservation.UserID,
				ReservationID: &reservation.ID,
				Amount:        payment.Amount,
				PaymentType:   entity.PaymentTypeRefund,
				Status:        entity.PaymentStatusCompleted,
				PaymentID:     payment.PaymentID,
				PaymentMethod: payment.PaymentMethod,
				Description:   &reason,
			}
			if err := tx.Payment.Create(ctx, refund); err != nil {
				return err
			}
		}

		if p.AdminID != nil {
			entry := newAdminLog(*p.AdminID, "cancel", "reservation", reservation.ID, p.Reason, s.now())
			if err := tx.AdminLog.Create(ctx, entry); err != nil {
				return err
			}
		}

		result = reservation
		return tx.Saga.MarkState(ctx, saga.ID, saga.State, entity.SagaCompleted, nil)
	})
	if err != nil {
		return nil, err
	}

	saga.State = entity.SagaCompleted
	return result, nil
}

func (s *reservationService) UpdateReservationStatus(ctx context.Context, actor Actor, reservationID string, req *request.UpdateReservationStatusRequest) (*response.ReservationResponse, error) {
	if !actor.IsAdmin() {
		return nil, fmt.Errorf("%w: only admins change reservation status", ErrUnauthorized)
	}
	if errs := utils.ValidateStruct(req); len(errs) > 0 {
		return nil, validationError(errs)
	}
	id, err := parseID(reservationID, "reservation id")
	if err != nil {
		return nil, err
	}

	reservation, err := s.repo.Reservation.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("load reservation: %w", err)
	}
	if reservation == nil {
		return nil, fmt.Errorf("%w: reservation %s", ErrNotFound, id)
	}

	next := entity.ReservationStatus(req.Status)
	if !reservation.Status.CanAdvanceTo(next) {
		return nil, fmt.Errorf("%w: cannot move reservation from %s to %s", ErrInvalidState, reservation.Status, next)
	}

	previous := reservation.Status
	err = s.repo.Tx.WithinTx(ctx, func(tx *repository.Repository) error {
		if err := tx.Reservation.UpdateStatus(ctx, id, previous, next); err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return fmt.Errorf("%w: reservation changed concurrently", ErrConflict)
			}
			return err
		}
		details := fmt.Sprintf("%s -> %s", previous, next)
		return tx.AdminLog.Create(ctx, newAdminLog(actor.UserID, "update_status", "reservation", id, details, s.now()))
	})
	if err != nil {
		return nil, err
	}

	reservation.Status = next
	reservation.UpdatedAt = s.now()

	s.log.Info("Reservation status updated",
		zap.String("reservation_id", id.String()),
		zap.String("from", string(previous)),
		zap.String("to", string(next)),
		zap.String("admin_id", actor.UserID.String()))

	resp := response.ReservationToResponse(reservation, nil)
	return &resp, nil
}

func (s *reservationService) GetReservation(ctx context.Context, actor Actor, reservationID string) (*response.ReservationResponse, error) {
	id, err := parseID(reservationID, "reservation id")
	if err != nil {
		return nil, err
	}

	reservation, err := s.repo.Reservation.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("load reservation: %w", err)
	}
	if reservation == nil {
		return nil, fmt.Errorf("%w: reservation %s", ErrNotFound, id)
	}

	if !actor.IsAdmin() && !actor.Owns(reservation.UserID) {
		allowed := false
		room, err := s.repo.Room.FindByID(ctx, reservation.HotelRoomID)
		if err != nil {
			return nil, fmt.Errorf("load room: %w", err)
		}
		if room != nil {
			if allowed, err = canManageHotel(ctx, s.repo.User, actor, room.HotelID); err != nil {
				return nil, err
			}
		}
		if !allowed {
			return nil, fmt.Errorf("%w: reservation belongs to another user", ErrUnauthorized)
		}
	}

	payment, err := s.repo.Payment.FindByReservationID(ctx, id, entity.PaymentTypeReservation)
	if err != nil {
		return nil, fmt.Errorf("load payment: %w", err)
	}

	resp := response.ReservationToResponse(reservation, payment)
	return &resp, nil
}

func (s *reservationService) ListMyReservations(ctx context.Context, actor Actor, req *request.PaginatedRequest) (*response.PaginatedResponse[response.ReservationResponse], error) {
	req.Normalize()

	reservations, err := s.repo.Reservation.FindByUserID(ctx, actor.UserID, req.Limit(), req.Offset())
	if err != nil {
		return nil, fmt.Errorf("list reservations: %w", err)
	}
	total, err := s.repo.Reservation.CountByUserID(ctx, actor.UserID)
	if err != nil {
		return nil, fmt.Errorf("count reservations: %w", err)
	}

	data := response.MapSlice(reservations, reservationOnly)
	return response.NewPaginatedResponse(data, req.Page, req.PerPage, total), nil
}

func (s *reservationService) ListReservations(ctx context.Context, actor Actor, req *request.ReservationFilterRequest) (*response.PaginatedResponse[response.ReservationResponse], error) {
	if !actor.IsAdmin() {
		return nil, fmt.Errorf("%w: admin only", ErrUnauthorized)
	}
	req.Normalize()
	if errs := utils.ValidateStruct(req); len(errs) > 0 {
		return nil, validationError(errs)
	}

	var status *entity.ReservationStatus
	if req.Status != "" {
		st := entity.ReservationStatus(req.Status)
		status = &st
	}

	reservations, err := s.repo.Reservation.FindAll(ctx, status, req.Limit(), req.Offset())
	if err != nil {
		return nil, fmt.Errorf("list reservations: %w", err)
	}
	total, err := s.repo.Reservation.Count(ctx, status)
	if err != nil {
		return nil, fmt.Errorf("count reservations: %w", err)
	}

	data := response.MapSlice(reservations, reservationOnly)
	return response.NewPaginatedResponse(data, req.Page, req.PerPage, total), nil
}

func (s *reservationService) CheckAvailability(ctx context.Context, roomID, checkIn, checkOut string) (*response.AvailabilityResponse, error) {
	id, err := parseID(roomID, "room id")
	if err != nil {
		return nil, err
	}
	in, out, err := parseStay(checkIn, checkOut)
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

	overlapping, err := s.repo.Reservation.FindOverlapping(ctx, id, in, out)
	if err != nil {
		return nil, fmt.Errorf("check overlapping reservations: %w", err)
	}

	nights := utils.Nights(in, out)
	return &response.AvailabilityResponse{
		RoomID:       id.String(),
		CheckInDate:  in,
		CheckOutDate: out,
		Available:    room.IsAvailable && len(overlapping) == 0,
		Nights:       nights,
		TotalPrice:   room.PricePerNight * int64(nights),
	}, nil
}

func (s *reservationService) GetRoomOccupancy(ctx context.Context, roomID string) (*response.OccupancyResponse, error) {
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

	upcoming, err := s.repo.Reservation.FindUpcomingByRoomID(ctx, id, startOfDay(s.now()))
	if err != nil {
		return nil, fmt.Errorf("load occupancy: %w", err)
	}

	booked := make([]response.BookedInterval, 0, len(upcoming))
	for _, r := range upcoming {
		booked = append(booked, response.BookedInterval{CheckInDate: r.CheckInDate, CheckOutDate: r.CheckOutDate})
	}
	return &response.OccupancyResponse{RoomID: id.String(), Booked: booked}, nil
}

func reservationOnly(r *entity.Reservation) response.ReservationResponse {
	return response.ReservationToResponse(r, nil)
}

// parseStay parses a [check-in, check-out) pair.
func parseStay(checkIn, checkOut string) (time.Time, time.Time, error) {
	in, err := utils.ParseDate(checkIn)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("%w: check_in_date: %v", ErrValidation, err)
	}
	out, err := utils.ParseDate(checkOut)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("%w: check_out_date: %v", ErrValidation, err)
	}
	if !out.After(in) {
		return time.Time{}, time.Time{}, fmt.Errorf("%w: check-out must be after check-in", ErrValidation)
	}
	return in, out, nil
}
