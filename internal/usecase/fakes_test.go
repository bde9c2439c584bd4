package usecase

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"
	"testing"
	"time"

	"hotel-booking/internal/data/entity"
	"hotel-booking/internal/data/repository"
	"hotel-booking/pkg/alert"
	"hotel-booking/pkg/cache"
	"hotel-booking/pkg/portone"
	"hotel-booking/pkg/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// memStore is an in-memory stand-in for Postgres. Transactions snapshot the
// whole store and restore it when fn fails.
type memStore struct {
	mu sync.Mutex

	users        map[uuid.UUID]*entity.User
	sessions     map[uuid.UUID]*entity.Session
	hotels       map[uuid.UUID]*entity.Hotel
	rooms        map[uuid.UUID]*entity.HotelRoom
	reservations map[uuid.UUID]*entity.Reservation
	payments     map[uuid.UUID]*entity.PaymentHistory
	subs         map[uuid.UUID]*entity.Subscription
	plans        map[uuid.UUID]*entity.SubscriptionPlan
	sagas        map[uuid.UUID]*entity.BookingSaga
	reviews      map[uuid.UUID]*entity.HotelReview
	replies      map[uuid.UUID]*entity.ReviewReply
	logs         []*entity.AdminLog

	// failOn injects an error into the named operation, e.g. "payment.create".
	failOn map[string]error
	clock  func() time.Time
}

func newMemStore(clock func() time.Time) *memStore {
	return &memStore{
		users:        map[uuid.UUID]*entity.User{},
		sessions:     map[uuid.UUID]*entity.Session{},
		hotels:       map[uuid.UUID]*entity.Hotel{},
		rooms:        map[uuid.UUID]*entity.HotelRoom{},
		reservations: map[uuid.UUID]*entity.Reservation{},
		payments:     map[uuid.UUID]*entity.PaymentHistory{},
		subs:         map[uuid.UUID]*entity.Subscription{},
		plans:        map[uuid.UUID]*entity.SubscriptionPlan{},
		sagas:        map[uuid.UUID]*entity.BookingSaga{},
		reviews:      map[uuid.UUID]*entity.HotelReview{},
		replies:      map[uuid.UUID]*entity.ReviewReply{},
		failOn:       map[string]error{},
		clock:        clock,
	}
}

func clone[T any](v *T) *T {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}

func cloneMap[K comparable, V any](m map[K]*V) map[K]*V {
	out := make(map[K]*V, len(m))
	for k, v := range m {
		out[k] = clone(v)
	}
	return out
}

type memSnapshot struct {
	users        map[uuid.UUID]*entity.User
	sessions     map[uuid.UUID]*entity.Session
	hotels       map[uuid.UUID]*entity.Hotel
	rooms        map[uuid.UUID]*entity.HotelRoom
	reservations map[uuid.UUID]*entity.Reservation
	payments     map[uuid.UUID]*entity.PaymentHistory
	subs         map[uuid.UUID]*entity.Subscription
	sagas        map[uuid.UUID]*entity.BookingSaga
	reviews      map[uuid.UUID]*entity.HotelReview
	replies      map[uuid.UUID]*entity.ReviewReply
	logs         []*entity.AdminLog
}

func (s *memStore) snapshot() memSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return memSnapshot{
		users:        cloneMap(s.users),
		sessions:     cloneMap(s.sessions),
		hotels:       cloneMap(s.hotels),
		rooms:        cloneMap(s.rooms),
		reservations: cloneMap(s.reservations),
		payments:     cloneMap(s.payments),
		subs:         cloneMap(s.subs),
		sagas:        cloneMap(s.sagas),
		reviews:      cloneMap(s.reviews),
		replies:      cloneMap(s.replies),
		logs:         slices.Clone(s.logs),
	}
}

func (s *memStore) restore(snap memSnapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users = snap.users
	s.sessions = snap.sessions
	s.hotels = snap.hotels
	s.rooms = snap.rooms
	s.reservations = snap.reservations
	s.payments = snap.payments
	s.subs = snap.subs
	s.sagas = snap.sagas
	s.reviews = snap.reviews
	s.replies = snap.replies
	s.logs = snap.logs
}

// fail must be called with mu held.
func (s *memStore) fail(op string) error {
	if err, ok := s.failOn[op]; ok {
		return err
	}
	return nil
}

func (s *memStore) repository() *repository.Repository {
	repo := &repository.Repository{
		User:         &memUsers{s},
		Session:      &memSessions{s},
		Hotel:        &memHotels{s},
		Room:         &memRooms{s},
		Reservation:  &memReservations{s},
		Payment:      &memPayments{s},
		Subscription: &memSubscriptions{s},
		Plan:         &memPlans{s},
		AdminLog:     &memAdminLogs{s},
		Review:       &memReviews{s},
		Reply:        &memReplies{s},
		Saga:         &memSagas{s},
	}
	repo.Tx = &memTx{store: s, repo: repo}
	return repo
}

type memTx struct {
	store *memStore
	repo  *repository.Repository
}

func (t *memTx) WithinTx(_ context.Context, fn func(tx *repository.Repository) error) error {
	snap := t.store.snapshot()
	if err := fn(t.repo); err != nil {
		t.store.restore(snap)
		return err
	}
	return nil
}

// Users

type memUsers struct{ s *memStore }

func (r *memUsers) Create(_ context.Context, user *entity.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, u := range r.s.users {
		if u.Email == user.Email {
			return repository.ErrConflict
		}
	}
	r.s.users[user.ID] = clone(user)
	return nil
}

func (r *memUsers) FindByID(_ context.Context, id uuid.UUID) (*entity.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return clone(r.s.users[id]), nil
}

func (r *memUsers) FindByEmail(_ context.Context, email string) (*entity.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, u := range r.s.users {
		if u.Email == email {
			return clone(u), nil
		}
	}
	return nil, nil
}

func (r *memUsers) FindAll(_ context.Context, role *entity.UserRole, _, _ int) ([]*entity.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*entity.User
	for _, u := range r.s.users {
		if role == nil || u.Role == *role {
			out = append(out, clone(u))
		}
	}
	return out, nil
}

func (r *memUsers) Count(ctx context.Context, role *entity.UserRole) (int64, error) {
	users, _ := r.FindAll(ctx, role, 0, 0)
	return int64(len(users)), nil
}

func (r *memUsers) Update(_ context.Context, user *entity.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.users[user.ID]; !ok {
		return repository.ErrNotFound
	}
	r.s.users[user.ID] = clone(user)
	return nil
}

func (r *memUsers) UpdateBillingKey(_ context.Context, id uuid.UUID, billingKey string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	u, ok := r.s.users[id]
	if !ok {
		return repository.ErrNotFound
	}
	u.BillingKey = &billingKey
	return nil
}

func (r *memUsers) Deactivate(_ context.Context, id uuid.UUID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	u, ok := r.s.users[id]
	if !ok || !u.IsActive {
		return repository.ErrNotFound
	}
	u.IsActive = false
	return nil
}

// Sessions

type memSessions struct{ s *memStore }

func (r *memSessions) Create(_ context.Context, session *entity.Session) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.sessions[session.ID] = clone(session)
	return nil
}

func (r *memSessions) FindValidSession(_ context.Context, id uuid.UUID) (*entity.Session, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	sess := r.s.sessions[id]
	if !sess.Active(r.s.clock()) {
		return nil, nil
	}
	return clone(sess), nil
}

func (r *memSessions) Revoke(_ context.Context, id uuid.UUID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	sess, ok := r.s.sessions[id]
	if !ok || sess.RevokedAt != nil {
		return repository.ErrNotFound
	}
	now := r.s.clock()
	sess.RevokedAt = &now
	return nil
}

func (r *memSessions) RevokeAllUserSessions(_ context.Context, userID uuid.UUID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	now := r.s.clock()
	for _, sess := range r.s.sessions {
		if sess.UserID == userID && sess.RevokedAt == nil {
			sess.RevokedAt = &now
		}
	}
	return nil
}

func (r *memSessions) CleanExpiredSessions(_ context.Context) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var n int64
	for id, sess := range r.s.sessions {
		if !sess.Active(r.s.clock()) {
			delete(r.s.sessions, id)
			n++
		}
	}
	return n, nil
}

// Hotels

type memHotels struct{ s *memStore }

func (r *memHotels) Create(_ context.Context, hotel *entity.Hotel) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.hotels[hotel.ID] = clone(hotel)
	return nil
}

func (r *memHotels) FindByID(_ context.Context, id uuid.UUID) (*entity.Hotel, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	hotel := r.s.hotels[id]
	if hotel == nil || hotel.IsDeleted() {
		return nil, nil
	}
	return clone(hotel), nil
}

func (r *memHotels) FindAll(_ context.Context, filter repository.HotelFilter, _, _ int) ([]*entity.Hotel, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*entity.Hotel
	for _, hotel := range r.s.hotels {
		if hotel.IsDeleted() {
			continue
		}
		if filter.City != "" && !strings.EqualFold(hotel.City, filter.City) {
			continue
		}
		if filter.Country != "" && !strings.EqualFold(hotel.Country, filter.Country) {
			continue
		}
		if filter.Name != "" && !strings.Contains(strings.ToLower(hotel.Name), strings.ToLower(filter.Name)) {
			continue
		}
		out = append(out, clone(hotel))
	}
	return out, nil
}

func (r *memHotels) Count(ctx context.Context, filter repository.HotelFilter) (int64, error) {
	hotels, _ := r.FindAll(ctx, filter, 0, 0)
	return int64(len(hotels)), nil
}

func (r *memHotels) Update(_ context.Context, hotel *entity.Hotel) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	existing, ok := r.s.hotels[hotel.ID]
	if !ok || existing.IsDeleted() {
		return repository.ErrNotFound
	}
	r.s.hotels[hotel.ID] = clone(hotel)
	return nil
}

func (r *memHotels) SoftDelete(_ context.Context, id uuid.UUID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	hotel, ok := r.s.hotels[id]
	if !ok || hotel.IsDeleted() {
		return repository.ErrNotFound
	}
	now := r.s.clock()
	hotel.DeletedAt = &now
	return nil
}

// Rooms

type memRooms struct{ s *memStore }

// visible mirrors the join on hotels: a room of a deleted hotel is gone too.
// Must be called with mu held.
func (r *memRooms) visible(room *entity.HotelRoom) bool {
	if room == nil || room.IsDeleted() {
		return false
	}
	hotel := r.s.hotels[room.HotelID]
	return hotel != nil && !hotel.IsDeleted()
}

func (r *memRooms) Create(_ context.Context, room *entity.HotelRoom) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.rooms[room.ID] = clone(room)
	return nil
}

func (r *memRooms) FindByID(_ context.Context, id uuid.UUID) (*entity.HotelRoom, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	room := r.s.rooms[id]
	if !r.visible(room) {
		return nil, nil
	}
	return clone(room), nil
}

func (r *memRooms) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*entity.HotelRoom, error) {
	return r.FindByID(ctx, id)
}

func (r *memRooms) FindByHotelID(_ context.Context, hotelID uuid.UUID, _, _ int) ([]*entity.HotelRoom, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*entity.HotelRoom
	for _, room := range r.s.rooms {
		if room.HotelID == hotelID && !room.IsDeleted() {
			out = append(out, clone(room))
		}
	}
	return out, nil
}

func (r *memRooms) CountByHotelID(ctx context.Context, hotelID uuid.UUID) (int64, error) {
	rooms, _ := r.FindByHotelID(ctx, hotelID, 0, 0)
	return int64(len(rooms)), nil
}

func (r *memRooms) FindAvailable(context.Context, repository.AvailabilityFilter, int, int) ([]*entity.HotelRoom, error) {
	return nil, fmt.Errorf("not supported in memory")
}

func (r *memRooms) CountAvailable(context.Context, repository.AvailabilityFilter) (int64, error) {
	return 0, fmt.Errorf("not supported in memory")
}

func (r *memRooms) Update(_ context.Context, room *entity.HotelRoom) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.rooms[room.ID]; !ok {
		return repository.ErrNotFound
	}
	r.s.rooms[room.ID] = clone(room)
	return nil
}

func (r *memRooms) SoftDelete(_ context.Context, id uuid.UUID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	room, ok := r.s.rooms[id]
	if !ok || room.IsDeleted() {
		return repository.ErrNotFound
	}
	now := r.s.clock()
	room.DeletedAt = &now
	return nil
}

// Reservations

type memReservations struct{ s *memStore }

// overlapping must be called with mu held.
func (r *memReservations) overlapping(roomID uuid.UUID, in, out time.Time) []*entity.Reservation {
	var found []*entity.Reservation
	for _, res := range r.s.reservations {
		if res.HotelRoomID == roomID && slices.Contains(entity.BlockingStatuses, res.Status) && res.Overlaps(in, out) {
			found = append(found, clone(res))
		}
	}
	return found
}

// Create enforces the no-overlap exclusion constraint.
func (r *memReservations) Create(_ context.Context, res *entity.Reservation) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.fail("reservation.create"); err != nil {
		return err
	}
	if len(r.overlapping(res.HotelRoomID, res.CheckInDate, res.CheckOutDate)) > 0 {
		return fmt.Errorf("reservations_no_overlap: %w", repository.ErrConflict)
	}
	r.s.reservations[res.ID] = clone(res)
	return nil
}

func (r *memReservations) FindByID(_ context.Context, id uuid.UUID) (*entity.Reservation, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return clone(r.s.reservations[id]), nil
}

func (r *memReservations) FindOverlapping(_ context.Context, roomID uuid.UUID, in, out time.Time) ([]*entity.Reservation, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return r.overlapping(roomID, in, out), nil
}

func (r *memReservations) FindUpcomingByRoomID(_ context.Context, roomID uuid.UUID, from time.Time) ([]*entity.Reservation, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*entity.Reservation
	for _, res := range r.s.reservations {
		if res.HotelRoomID == roomID && slices.Contains(entity.BlockingStatuses, res.Status) && res.CheckOutDate.After(from) {
			out = append(out, clone(res))
		}
	}
	return out, nil
}

func (r *memReservations) FindByUserID(_ context.Context, userID uuid.UUID, _, _ int) ([]*entity.Reservation, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*entity.Reservation
	for _, res := range r.s.reservations {
		if res.UserID == userID {
			out = append(out, clone(res))
		}
	}
	return out, nil
}

func (r *memReservations) CountByUserID(ctx context.Context, userID uuid.UUID) (int64, error) {
	res, _ := r.FindByUserID(ctx, userID, 0, 0)
	return int64(len(res)), nil
}

func (r *memReservations) FindAll(_ context.Context, status *entity.ReservationStatus, _, _ int) ([]*entity.Reservation, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*entity.Reservation
	for _, res := range r.s.reservations {
		if status == nil || res.Status == *status {
			out = append(out, clone(res))
		}
	}
	return out, nil
}

func (r *memReservations) Count(ctx context.Context, status *entity.ReservationStatus) (int64, error) {
	res, _ := r.FindAll(ctx, status, 0, 0)
	return int64(len(res)), nil
}

func (r *memReservations) HasCompletedStay(_ context.Context, userID, hotelID uuid.UUID) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, res := range r.s.reservations {
		room := r.s.rooms[res.HotelRoomID]
		if res.UserID == userID && room != nil && room.HotelID == hotelID && res.Status == entity.ReservationStatusCheckedOut {
			return true, nil
		}
	}
	return false, nil
}

func (r *memReservations) UpdateStatus(_ context.Context, id uuid.UUID, from, to entity.ReservationStatus) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.fail("reservation.update_status"); err != nil {
		return err
	}
	res, ok := r.s.reservations[id]
	if !ok || res.Status != from {
		return repository.ErrNotFound
	}
	res.Status = to
	res.UpdatedAt = r.s.clock()
	return nil
}

// Payments

type memPayments struct{ s *memStore }

func (r *memPayments) Create(_ context.Context, p *entity.PaymentHistory) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.fail("payment.create"); err != nil {
		return err
	}
	r.s.payments[p.ID] = clone(p)
	return nil
}

func (r *memPayments) CreateIfAbsent(_ context.Context, p *entity.PaymentHistory) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if p.TransactionID != nil {
		for _, existing := range r.s.payments {
			if existing.TransactionID != nil && *existing.TransactionID == *p.TransactionID {
				return false, nil
			}
		}
	}
	r.s.payments[p.ID] = clone(p)
	return true, nil
}

func (r *memPayments) FindByReservationID(_ context.Context, reservationID uuid.UUID, paymentType entity.PaymentType) (*entity.PaymentHistory, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, p := range r.s.payments {
		if p.ReservationID != nil && *p.ReservationID == reservationID && p.PaymentType == paymentType {
			return clone(p), nil
		}
	}
	return nil, nil
}

func (r *memPayments) FindByTransactionID(_ context.Context, transactionID string) (*entity.PaymentHistory, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, p := range r.s.payments {
		if p.TransactionID != nil && *p.TransactionID == transactionID {
			return clone(p), nil
		}
	}
	return nil, nil
}

func (r *memPayments) FindByUserID(_ context.Context, userID uuid.UUID, _, _ int) ([]*entity.PaymentHistory, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*entity.PaymentHistory
	for _, p := range r.s.payments {
		if p.UserID == userID {
			out = append(out, clone(p))
		}
	}
	return out, nil
}

func (r *memPayments) CountByUserID(ctx context.Context, userID uuid.UUID) (int64, error) {
	ps, _ := r.FindByUserID(ctx, userID, 0, 0)
	return int64(len(ps)), nil
}

func (r *memPayments) FindAll(_ context.Context, _, _ int) ([]*entity.PaymentHistory, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := make([]*entity.PaymentHistory, 0, len(r.s.payments))
	for _, p := range r.s.payments {
		out = append(out, clone(p))
	}
	return out, nil
}

func (r *memPayments) Count(ctx context.Context) (int64, error) {
	ps, _ := r.FindAll(ctx, 0, 0)
	return int64(len(ps)), nil
}

func (r *memPayments) UpdateStatus(_ context.Context, id uuid.UUID, status entity.PaymentStatus) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	p, ok := r.s.payments[id]
	if !ok {
		return repository.ErrNotFound
	}
	p.Status = status
	return nil
}

// Subscriptions and plans

type memSubscriptions struct{ s *memStore }

func (r *memSubscriptions) Create(_ context.Context, sub *entity.Subscription) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, existing := range r.s.subs {
		if existing.UserID == sub.UserID && existing.Status == entity.SubscriptionStatusActive {
			return repository.ErrConflict
		}
	}
	r.s.subs[sub.ID] = clone(sub)
	return nil
}

func (r *memSubscriptions) FindByID(_ context.Context, id uuid.UUID) (*entity.Subscription, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return clone(r.s.subs[id]), nil
}

func (r *memSubscriptions) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*entity.Subscription, error) {
	return r.FindByID(ctx, id)
}

func (r *memSubscriptions) FindByUserID(_ context.Context, userID uuid.UUID) ([]*entity.Subscription, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*entity.Subscription
	for _, sub := range r.s.subs {
		if sub.UserID == userID {
			out = append(out, clone(sub))
		}
	}
	return out, nil
}

func (r *memSubscriptions) FindActiveByUserID(_ context.Context, userID uuid.UUID) (*entity.Subscription, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, sub := range r.s.subs {
		if sub.UserID == userID && sub.Status == entity.SubscriptionStatusActive {
			return clone(sub), nil
		}
	}
	return nil, nil
}

func (r *memSubscriptions) ExtendEndDate(_ context.Context, id uuid.UUID, endDate time.Time) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	sub, ok := r.s.subs[id]
	if !ok {
		return repository.ErrNotFound
	}
	sub.EndDate = endDate
	sub.Status = entity.SubscriptionStatusActive
	return nil
}

func (r *memSubscriptions) UpdateStatus(_ context.Context, id uuid.UUID, from, to entity.SubscriptionStatus) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	sub, ok := r.s.subs[id]
	if !ok || sub.Status != from {
		return repository.ErrNotFound
	}
	sub.Status = to
	return nil
}

func (r *memSubscriptions) ExpireOverdue(_ context.Context, cutoff time.Time) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var n int64
	for _, sub := range r.s.subs {
		if sub.Status == entity.SubscriptionStatusActive && sub.EndDate.Before(cutoff) {
			sub.Status = entity.SubscriptionStatusExpired
			n++
		}
	}
	return n, nil
}

type memPlans struct{ s *memStore }

func (r *memPlans) FindAll(_ context.Context) ([]*entity.SubscriptionPlan, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*entity.SubscriptionPlan
	for _, p := range r.s.plans {
		out = append(out, clone(p))
	}
	return out, nil
}

func (r *memPlans) FindByID(_ context.Context, id uuid.UUID) (*entity.SubscriptionPlan, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return clone(r.s.plans[id]), nil
}

// Admin logs

type memAdminLogs struct{ s *memStore }

func (r *memAdminLogs) Create(_ context.Context, log *entity.AdminLog) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.logs = append(r.s.logs, clone(log))
	return nil
}

func (r *memAdminLogs) FindAll(_ context.Context, targetType string, _, _ int) ([]*entity.AdminLog, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*entity.AdminLog
	for _, l := range r.s.logs {
		if targetType == "" || l.TargetType == targetType {
			out = append(out, clone(l))
		}
	}
	return out, nil
}

func (r *memAdminLogs) Count(ctx context.Context, targetType string) (int64, error) {
	logs, _ := r.FindAll(ctx, targetType, 0, 0)
	return int64(len(logs)), nil
}

// Reviews

type memReviews struct{ s *memStore }

func (r *memReviews) Create(_ context.Context, review *entity.HotelReview) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, existing := range r.s.reviews {
		if existing.ReservationID == review.ReservationID {
			return repository.ErrConflict
		}
	}
	r.s.reviews[review.ID] = clone(review)
	return nil
}

func (r *memReviews) FindByID(_ context.Context, id uuid.UUID) (*entity.HotelReview, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	review := r.s.reviews[id]
	if review == nil || review.IsDeleted() {
		return nil, nil
	}
	return clone(review), nil
}

func (r *memReviews) FindByReservationID(_ context.Context, reservationID uuid.UUID) (*entity.HotelReview, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, review := range r.s.reviews {
		if review.ReservationID == reservationID {
			return clone(review), nil
		}
	}
	return nil, nil
}

func (r *memReviews) FindByHotelID(_ context.Context, hotelID uuid.UUID, _, _ int) ([]*entity.HotelReview, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*entity.HotelReview
	for _, review := range r.s.reviews {
		if review.HotelID == hotelID && !review.IsDeleted() {
			out = append(out, clone(review))
		}
	}
	return out, nil
}

func (r *memReviews) CountByHotelID(ctx context.Context, hotelID uuid.UUID) (int64, error) {
	reviews, _ := r.FindByHotelID(ctx, hotelID, 0, 0)
	return int64(len(reviews)), nil
}

func (r *memReviews) FindByUserID(_ context.Context, userID uuid.UUID, _, _ int) ([]*entity.HotelReview, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*entity.HotelReview
	for _, review := range r.s.reviews {
		if review.UserID == userID && !review.IsDeleted() {
			out = append(out, clone(review))
		}
	}
	return out, nil
}

func (r *memReviews) CountByUserID(ctx context.Context, userID uuid.UUID) (int64, error) {
	reviews, _ := r.FindByUserID(ctx, userID, 0, 0)
	return int64(len(reviews)), nil
}

func (r *memReviews) Update(_ context.Context, review *entity.HotelReview) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.reviews[review.ID]; !ok {
		return repository.ErrNotFound
	}
	r.s.reviews[review.ID] = clone(review)
	return nil
}

func (r *memReviews) SoftDelete(_ context.Context, id uuid.UUID, reason *string, adminID *uuid.UUID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	review, ok := r.s.reviews[id]
	if !ok || review.IsDeleted() {
		return repository.ErrNotFound
	}
	now := r.s.clock()
	review.DeletedAt = &now
	review.DeleteReason = reason
	review.DeletedByAdminID = adminID
	return nil
}

func (r *memReviews) GetHotelReviewStats(ctx context.Context, hotelID uuid.UUID) (float64, int64, error) {
	reviews, _ := r.FindByHotelID(ctx, hotelID, 0, 0)
	if len(reviews) == 0 {
		return 0, 0, nil
	}
	sum := 0
	for _, review := range reviews {
		sum += review.Rating
	}
	return float64(sum) / float64(len(reviews)), int64(len(reviews)), nil
}

// Replies

type memReplies struct{ s *memStore }

func (r *memReplies) Create(_ context.Context, reply *entity.ReviewReply) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.replies[reply.ID] = clone(reply)
	return nil
}

func (r *memReplies) FindByID(_ context.Context, id uuid.UUID) (*entity.ReviewReply, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return clone(r.s.replies[id]), nil
}

func (r *memReplies) FindByReviewID(_ context.Context, reviewID uuid.UUID) ([]*entity.ReviewReply, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*entity.ReviewReply
	for _, reply := range r.s.replies {
		if reply.ReviewID == reviewID {
			out = append(out, clone(reply))
		}
	}
	return out, nil
}

func (r *memReplies) Update(_ context.Context, reply *entity.ReviewReply) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.replies[reply.ID]; !ok {
		return repository.ErrNotFound
	}
	r.s.replies[reply.ID] = clone(reply)
	return nil
}

func (r *memReplies) Delete(_ context.Context, id uuid.UUID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.replies[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.s.replies, id)
	return nil
}

// Sagas

type memSagas struct{ s *memStore }

func (r *memSagas) Create(_ context.Context, saga *entity.BookingSaga) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, existing := range r.s.sagas {
		if existing.IdempotencyKey == saga.IdempotencyKey {
			return false, nil
		}
	}
	r.s.sagas[saga.ID] = clone(saga)
	return true, nil
}

func (r *memSagas) FindByID(_ context.Context, id uuid.UUID) (*entity.BookingSaga, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return clone(r.s.sagas[id]), nil
}

func (r *memSagas) FindByKey(_ context.Context, key string) (*entity.BookingSaga, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, saga := range r.s.sagas {
		if saga.IdempotencyKey == key {
			return clone(saga), nil
		}
	}
	return nil, nil
}

func (r *memSagas) MarkState(_ context.Context, id uuid.UUID, from, to entity.SagaState, lastErr *string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	saga, ok := r.s.sagas[id]
	if !ok || saga.State != from {
		return repository.ErrStateChanged
	}
	saga.State = to
	if lastErr != nil {
		saga.LastError = lastErr
	}
	return nil
}

func (r *memSagas) MarkCaptured(_ context.Context, id uuid.UUID, from entity.SagaState, transactionID string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	saga, ok := r.s.sagas[id]
	if !ok || saga.State != from {
		return repository.ErrStateChanged
	}
	saga.State = entity.SagaPaymentCaptured
	saga.TransactionID = &transactionID
	return nil
}

func (r *memSagas) Restart(_ context.Context, id uuid.UUID, from entity.SagaState, payload []byte, amount int64, lease time.Duration) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	saga, ok := r.s.sagas[id]
	if !ok || saga.State != from {
		return repository.ErrStateChanged
	}
	until := r.s.clock().Add(lease)
	saga.State = entity.SagaStarted
	saga.Payload = payload
	saga.Amount = amount
	saga.Attempts = 0
	saga.LastError = nil
	saga.LockedUntil = &until
	return nil
}

func (r *memSagas) ClaimDue(_ context.Context, lease time.Duration, limit int) ([]*entity.BookingSaga, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	now := r.s.clock()
	var out []*entity.BookingSaga
	for _, saga := range r.s.sagas {
		if len(out) == limit {
			break
		}
		if !slices.Contains(entity.OpenSagaStates, saga.State) {
			continue
		}
		if saga.LockedUntil != nil && !saga.LockedUntil.Before(now) {
			continue
		}
		until := now.Add(lease)
		saga.LockedUntil = &until
		saga.Attempts++
		out = append(out, clone(saga))
	}
	return out, nil
}

// fakeGateway simulates PortOne: charges are recorded per payment id and
// every call is counted.
type fakeGateway struct {
	mu sync.Mutex

	payments map[string]*portone.Payment

	chargeErr error
	// chargeLands makes a failing charge still capture money, like a
	// timeout after the gateway applied the payment.
	chargeLands bool
	queryErr    error
	cancelErr   error
	scheduleErr error
	revokeErr   error
	// cancelStatus is what CancelPayment answers; REQUESTED leaves the
	// payment paid, like a PG that applies refunds later.
	cancelStatus string

	charges, cancels, queries, schedules, revokes int
}

func newFakeGateway() *fakeGateway {
	return &fakeGateway{payments: map[string]*portone.Payment{}, cancelStatus: portone.CancellationSucceeded}
}

func (g *fakeGateway) OneTimePayment(_ context.Context, paymentID string, req portone.OneTimePaymentRequest) (*portone.PaymentResult, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.charges++

	if g.chargeErr != nil && !g.chargeLands {
		return nil, g.chargeErr
	}
	if _, ok := g.payments[paymentID]; ok {
		return nil, &portone.APIError{Status: 409, Type: "ALREADY_PAID", Message: "already paid"}
	}
	txID := "tx-" + paymentID
	g.payments[paymentID] = &portone.Payment{
		ID:            paymentID,
		Status:        portone.PaymentStatusPaid,
		TransactionID: txID,
		Amount:        portone.Amount{Total: req.Amount},
	}
	if g.chargeErr != nil {
		return nil, g.chargeErr
	}
	return &portone.PaymentResult{PaymentID: paymentID, TransactionID: txID}, nil
}

func (g *fakeGateway) GetPayment(_ context.Context, paymentID string) (*portone.Payment, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.queries++
	if g.queryErr != nil {
		return nil, g.queryErr
	}
	p, ok := g.payments[paymentID]
	if !ok {
		return nil, fmt.Errorf("payment %s: %w", paymentID, portone.ErrNotFound)
	}
	return clone(p), nil
}

func (g *fakeGateway) CancelPayment(_ context.Context, paymentID string, _ portone.CancelRequest) (*portone.CancelResult, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.cancels++
	if g.cancelErr != nil {
		return nil, g.cancelErr
	}
	p, ok := g.payments[paymentID]
	if !ok {
		return nil, fmt.Errorf("payment %s: %w", paymentID, portone.ErrNotFound)
	}
	if g.cancelStatus == portone.CancellationSucceeded {
		p.Status = portone.PaymentStatusCancelled
	}
	return &portone.CancelResult{CancellationID: "cn-" + paymentID, Status: g.cancelStatus}, nil
}

func (g *fakeGateway) CreateBillingKey(_ context.Context, _ portone.BillingKeyRequest) (*portone.BillingKeyInfo, error) {
	return &portone.BillingKeyInfo{BillingKey: "billing-key-1", Status: "ISSUED"}, nil
}

func (g *fakeGateway) GetBillingKey(_ context.Context, billingKey string) (*portone.BillingKeyInfo, error) {
	if billingKey == "" {
		return nil, portone.ErrNotFound
	}
	return &portone.BillingKeyInfo{BillingKey: billingKey, Status: "ISSUED"}, nil
}

// CreateSchedule settles the charge at once so a webhook for it can be
// confirmed.
func (g *fakeGateway) CreateSchedule(_ context.Context, paymentID string, req portone.ScheduleRequest) (*portone.ScheduleResult, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.schedules++
	if g.scheduleErr != nil {
		return nil, g.scheduleErr
	}
	if _, ok := g.payments[paymentID]; ok {
		return nil, &portone.APIError{Status: 409, Type: "ALREADY_EXISTS", Message: "schedule exists"}
	}
	g.payments[paymentID] = &portone.Payment{
		ID:            paymentID,
		Status:        portone.PaymentStatusPaid,
		TransactionID: "tx-" + paymentID,
		Amount:        portone.Amount{Total: req.Amount},
	}
	return &portone.ScheduleResult{ScheduleID: "sch-" + paymentID}, nil
}

func (g *fakeGateway) RevokeSchedules(_ context.Context, billingKey string) (*portone.RevokeSchedulesResult, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.revokes++
	if g.revokeErr != nil {
		return nil, g.revokeErr
	}
	return &portone.RevokeSchedulesResult{RevokedScheduleIDs: []string{"sch-" + billingKey}}, nil
}

type fakeAlerts struct {
	mu     sync.Mutex
	alerts []alert.Alert
}

func (f *fakeAlerts) Publish(_ context.Context, a alert.Alert) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.alerts = append(f.alerts, a)
	return nil
}

func (f *fakeAlerts) kinds() []alert.Kind {
	f.mu.Lock()
	defer f.mu.Unlock()
	kinds := make([]alert.Kind, 0, len(f.alerts))
	for _, a := range f.alerts {
		kinds = append(kinds, a.Kind)
	}
	return kinds
}

// harness wires the orchestrators to the in-memory store at a fixed clock.
type harness struct {
	now     time.Time
	store   *memStore
	repo    *repository.Repository
	gateway *fakeGateway
	alerts  *fakeAlerts

	reservations  *reservationService
	subscriptions *subscriptionService
	payments      PaymentService
	reviews       ReviewService
	worker        *RecoveryWorker

	guest  *entity.User
	admin  *entity.User
	hotel  uuid.UUID
	room   *entity.HotelRoom
	plan   *entity.SubscriptionPlan
	config *utils.Config
}

func newHarness(t *testing.T) *harness {
	t.Helper()

	h := &harness{now: time.Date(2026, 6, 1, 9, 0, 0, 0, time.UTC)}
	clock := func() time.Time { return h.now }

	h.store = newMemStore(clock)
	h.repo = h.store.repository()
	h.gateway = newFakeGateway()
	h.alerts = &fakeAlerts{}
	h.config = &utils.Config{
		PortOne:      utils.PortOneConfig{Timeout: time.Second, AllowUnsignedWebhooks: true},
		Redis:        utils.RedisConfig{LockTTL: 30 * time.Second},
		Saga:         utils.SagaConfig{Lease: 2 * time.Minute, MaxAttempts: 3, BatchSize: 10, RecoveryInterval: time.Minute},
		Subscription: utils.SubscriptionConfig{GracePeriod: 72 * time.Hour},
	}

	log := zap.NewNop()
	saga := &sagaSupport{
		repo:    h.repo,
		gateway: h.gateway,
		alerts:  h.alerts,
		timeout: h.config.PortOne.Timeout,
		lease:   h.config.Saga.Lease,
		now:     clock,
		log:     log,
	}
	h.reservations = newReservationService(h.repo, saga, cache.NewMemoryLocker(), h.config.Redis.LockTTL, log)
	h.subscriptions = newSubscriptionService(h.repo, saga, h.config, log)
	h.payments = newPaymentService(h.repo, saga, log)
	h.reviews = NewReviewService(h.repo, log)
	h.worker = newRecoveryWorker(h.repo, saga, h.reservations, h.subscriptions, h.config.Saga, log)

	billingKey := "billing-key-guest"
	h.guest = &entity.User{
		Base:       entity.Base{ID: uuid.New()},
		Username:   "guest",
		Email:      "guest@example.com",
		Role:       entity.RoleUser,
		BillingKey: &billingKey,
		IsActive:   true,
	}
	h.admin = &entity.User{
		Base:     entity.Base{ID: uuid.New()},
		Username: "admin",
		Email:    "admin@example.com",
		Role:     entity.RoleAdmin,
		IsActive: true,
	}
	h.hotel = uuid.New()
	hotel := &entity.Hotel{
		Base:         entity.Base{ID: h.hotel, CreatedAt: h.now, UpdatedAt: h.now},
		Name:         "Hotel Harbour",
		Address:      "1 Pier Road",
		City:         "Busan",
		Country:      "KR",
		StarRating:   4,
		CheckInTime:  "15:00",
		CheckOutTime: "11:00",
		IsActive:     true,
	}
	h.room = &entity.HotelRoom{
		Base:          entity.Base{ID: uuid.New()},
		HotelID:       h.hotel,
		RoomNumber:    "101",
		RoomType:      "double",
		Capacity:      2,
		PricePerNight: 100000,
		IsAvailable:   true,
	}
	h.plan = &entity.SubscriptionPlan{ID: uuid.New(), Type: entity.PlanBasic, Price: 9900}

	h.store.users[h.guest.ID] = clone(h.guest)
	h.store.users[h.admin.ID] = clone(h.admin)
	h.store.hotels[hotel.ID] = hotel
	h.store.rooms[h.room.ID] = clone(h.room)
	h.store.plans[h.plan.ID] = clone(h.plan)
	return h
}

func (h *harness) guestActor() Actor {
	return Actor{UserID: h.guest.ID, Role: entity.RoleUser}
}

func (h *harness) adminActor() Actor {
	return Actor{UserID: h.admin.ID, Role: entity.RoleAdmin}
}

// seedReservation stores a paid reservation directly, bypassing the saga.
func (h *harness) seedReservation(in, out time.Time, status entity.ReservationStatus) *entity.Reservation {
	res := &entity.Reservation{
		BaseNoDelete:   entity.BaseNoDelete{ID: uuid.New(), CreatedAt: h.now, UpdatedAt: h.now},
		UserID:         h.guest.ID,
		HotelRoomID:    h.room.ID,
		CheckInDate:    in,
		CheckOutDate:   out,
		NumberOfGuests: 2,
		TotalPrice:     h.room.PricePerNight * int64(utils.Nights(in, out)),
		Status:         status,
	}
	paymentID := "rsv-seed-" + res.ID.String()
	txID := "tx-" + paymentID
	payment := &entity.PaymentHistory{
		BaseNoDelete:  entity.BaseNoDelete{ID: uuid.New(), CreatedAt: h.now, UpdatedAt: h.now},
		UserID:        h.guest.ID,
		ReservationID: &res.ID,
		Amount:        res.TotalPrice,
		PaymentType:   entity.PaymentTypeReservation,
		Status:        entity.PaymentStatusCompleted,
		TransactionID: &txID,
		PaymentID:     paymentID,
	}
	h.store.reservations[res.ID] = clone(res)
	h.store.payments[payment.ID] = payment
	h.gateway.payments[paymentID] = &portone.Payment{
		ID:            paymentID,
		Status:        portone.PaymentStatusPaid,
		TransactionID: txID,
		Amount:        portone.Amount{Total: res.TotalPrice},
	}
	return res
}

func (h *harness) sagaByKind(kind entity.SagaKind) []*entity.BookingSaga {
	h.store.mu.Lock()
	defer h.store.mu.Unlock()
	var out []*entity.BookingSaga
	for _, s := range h.store.sagas {
		if s.Kind == kind {
			out = append(out, clone(s))
		}
	}
	return out
}

func (h *harness) paymentsOfType(t entity.PaymentType) []*entity.PaymentHistory {
	h.store.mu.Lock()
	defer h.store.mu.Unlock()
	var out []*entity.PaymentHistory
	for _, p := range h.store.payments {
		if p.PaymentType == t {
			out = append(out, clone(p))
		}
	}
	return out
}

func june(d int) time.Time {
	return time.Date(2026, 6, d, 0, 0, 0, 0, time.UTC)
}
