package usecase

import (
	"time"

	"hotel-booking/internal/data/repository"
	"hotel-booking/pkg/alert"
	"hotel-booking/pkg/cache"
	"hotel-booking/pkg/utils"

	"go.uber.org/zap"
)

type Service struct {
	Auth         AuthService
	User         UserService
	Hotel        HotelService
	Room         RoomService
	Reservation  ReservationService
	Payment      PaymentService
	Subscription SubscriptionService
	Review       ReviewService
	AdminLog     AdminLogService

	Recovery *RecoveryWorker
}

// Deps are the outside collaborators the services talk to besides Postgres.
type Deps struct {
	Gateway PaymentGateway
	Locker  cache.Locker
	Alerts  alert.Publisher
	Tokens  *utils.TokenManager
}

func NewService(repo *repository.Repository, config *utils.Config, deps Deps, log *zap.Logger) *Service {
	saga := &sagaSupport{
		repo:    repo,
		gateway: deps.Gateway,
		alerts:  deps.Alerts,
		timeout: config.PortOne.Timeout,
		lease:   config.Saga.Lease,
		now:     time.Now,
		log:     log.With(zap.String("service", "saga")),
	}

	reservations := newReservationService(repo, saga, deps.Locker, config.Redis.LockTTL, log)
	subscriptions := newSubscriptionService(repo, saga, config, log)

	return &Service{
		Auth:         NewAuthService(repo, deps.Tokens, log),
		User:         NewUserService(repo, log),
		Hotel:        NewHotelService(repo, log),
		Room:         NewRoomService(repo, log),
		Reservation:  reservations,
		Payment:      newPaymentService(repo, saga, log),
		Subscription: subscriptions,
		Review:       NewReviewService(repo, log),
		AdminLog:     NewAdminLogService(repo.AdminLog, log),
		Recovery:     newRecoveryWorker(repo, saga, reservations, subscriptions, config.Saga, log),
	}
}
