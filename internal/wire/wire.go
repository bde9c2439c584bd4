package wire

import (
	"fmt"
	"net/http"

	"hotel-booking/internal/adaptor"
	"hotel-booking/internal/data/repository"
	"hotel-booking/internal/usecase"
	"hotel-booking/pkg/middleware"
	"hotel-booking/pkg/utils"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// App holds the router and the services that run outside a request, such as
// the saga recovery worker.
type App struct {
	Router  *chi.Mux
	Service *usecase.Service
}

// guards bundles the middleware every route group picks from.
type guards struct {
	auth         func(http.Handler) http.Handler
	guest        func(http.Handler) http.Handler
	manager      func(http.Handler) http.Handler
	admin        func(http.Handler) http.Handler
	authLimit    func(http.Handler) http.Handler
	webhookLimit func(http.Handler) http.Handler
}

// Wiring builds services, handlers and routes. rdb may be nil, in which case
// rate limit counters stay in process memory.
func Wiring(repo *repository.Repository, config *utils.Config, deps usecase.Deps, rdb *redis.Client, logger *zap.Logger) (*App, error) {
	service := usecase.NewService(repo, config, deps, logger)
	handler := adaptor.NewHandler(service, logger)

	g, err := newGuards(repo, config, deps.Tokens, rdb, logger)
	if err != nil {
		return nil, err
	}

	return &App{
		Router:  setupRouter(handler, g, config, logger),
		Service: service,
	}, nil
}

func newGuards(repo *repository.Repository, config *utils.Config, tokens *utils.TokenManager, rdb *redis.Client, logger *zap.Logger) (*guards, error) {
	authLimit, err := middleware.RateLimit(config.RateLimit.Auth, "auth", rdb, logger)
	if err != nil {
		return nil, fmt.Errorf("auth rate limit: %w", err)
	}
	webhookLimit, err := middleware.RateLimit(config.RateLimit.Webhook, "webhook", rdb, logger)
	if err != nil {
		return nil, fmt.Errorf("webhook rate limit: %w", err)
	}

	return &guards{
		auth:         middleware.Authenticate(tokens, repo.Session, config.Auth, logger),
		guest:        middleware.GuestUser(logger),
		manager:      middleware.HotelManager(logger),
		admin:        middleware.Admin(logger),
		authLimit:    authLimit,
		webhookLimit: webhookLimit,
	}, nil
}

func setupRouter(handler *adaptor.Handler, g *guards, config *utils.Config, logger *zap.Logger) *chi.Mux {
	r := chi.NewRouter()

	// Apply global middleware
	r.Use(chimw.RequestID)
	r.Use(middleware.Logger(logger))
	r.Use(middleware.Recover(logger))
	r.Use(middleware.CORS(config.App.AllowedOrigins))

	// Apply routes
	wireAuth(r, handler.Auth, g)
	wireUser(r, handler.User, handler.Admin, g)
	wireHotel(r, handler.Hotel, g)
	wireReservation(r, handler.Reservation, handler.Payment, g)
	wireSubscription(r, handler.Subscription, g)
	wireReview(r, handler.Review, g)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		utils.ResponseSuccess(w, "OK", nil)
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		utils.ResponseNotFound(w, "Route not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		utils.ResponseJSON(w, http.StatusMethodNotAllowed, false, "Method not allowed", nil, nil)
	})

	return r
}
