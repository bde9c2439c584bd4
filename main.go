package main

import (
	"log"

	"hotel-booking/cmd"
	"hotel-booking/internal/data/repository"
	"hotel-booking/internal/usecase"
	"hotel-booking/internal/wire"
	"hotel-booking/pkg/alert"
	"hotel-booking/pkg/cache"
	"hotel-booking/pkg/database"
	"hotel-booking/pkg/portone"
	"hotel-booking/pkg/utils"

	"go.uber.org/zap"
)

func main() {
	// Load config
	config, err := utils.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Initialize logger
	logger, err := utils.InitLogger(config.App)
	if err != nil {
		log.Printf("Failed to init logger: %v. Using standard log.", err)
		logger, _ = zap.NewProduction()
	}
	defer logger.Sync()

	logger.Info("Starting application",
		zap.String("app", config.App.Name),
		zap.String("port", config.App.Port),
		zap.Bool("debug", config.App.Debug),
	)

	// Connect to database
	db, err := database.InitDB(config.Database)
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()
	logger.Info("Database connected successfully")

	// Redis backs the booking lock and the rate limiter when configured
	rdb, err := cache.InitRedis(config.Redis)
	if err != nil {
		logger.Fatal("Failed to connect to redis", zap.Error(err))
	}
	var locker cache.Locker
	if rdb != nil {
		defer rdb.Close()
		locker = cache.NewRedisLocker(rdb, logger)
		logger.Info("Redis connected", zap.String("addr", config.Redis.Addr))
	} else {
		locker = cache.NewMemoryLocker()
		logger.Warn("REDIS_ADDR not set, using in-process booking lock")
	}

	// Reconciliation alerts go to RabbitMQ when configured
	var alerts alert.Publisher
	if config.RabbitMQ.URL != "" {
		publisher := alert.NewAMQPPublisher(config.RabbitMQ.URL, config.RabbitMQ.AlertQueue, config.RabbitMQ.DialTimeout, logger)
		defer publisher.Close()
		alerts = publisher
	} else {
		alerts = alert.NewLogPublisher(logger)
		logger.Warn("RABBITMQ_URL not set, reconciliation alerts only go to the log")
	}

	if config.PortOne.WebhookSecret == "" {
		if config.PortOne.AllowUnsignedWebhooks {
			logger.Warn("PORTONE_WEBHOOK_SECRET not set, accepting unsigned webhooks")
		} else {
			logger.Warn("PORTONE_WEBHOOK_SECRET not set, subscription webhooks will be refused")
		}
	}

	// Initialize all repositories
	repos := repository.NewRepository(db, logger)

	// Wire all dependencies
	app, err := wire.Wiring(repos, config, usecase.Deps{
		Gateway: portone.NewClient(config.PortOne, logger),
		Locker:  locker,
		Alerts:  alerts,
		Tokens:  utils.NewTokenManager(config.JWT),
	}, rdb, logger)
	if err != nil {
		logger.Fatal("Failed to wire application", zap.Error(err))
	}

	if err := cmd.APIServer(app.Router, app.Service.Recovery, config.App.Port, config.App.ShutdownTimeout, logger); err != nil {
		logger.Error("Server exited with error", zap.Error(err))
	}
}
