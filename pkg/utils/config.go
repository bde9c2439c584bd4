package utils

import (
	"errors"
	"io/fs"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	App          AppConfig
	Database     DatabaseConfig
	JWT          JWTConfig
	Auth         AuthConfig
	PortOne      PortOneConfig
	Redis        RedisConfig
	RabbitMQ     RabbitMQConfig
	RateLimit    RateLimitConfig
	Saga         SagaConfig
	Subscription SubscriptionConfig
}

type AppConfig struct {
	Name            string
	Port            string
	Debug           bool
	LogPath         string
	ShutdownTimeout time.Duration
	AllowedOrigins  []string
}

type DatabaseConfig struct {
	Host     string
	Port     string
	Name     string
	User     string
	Password string
	SSLMode  string
	MaxConns int32
}

type JWTConfig struct {
	Secret      string
	Issuer      string
	ExpiryHours int
}

// AuthConfig holds the static service credential. An empty token disables it.
type AuthConfig struct {
	ServiceToken  string
	ServiceUserID string
}

// PortOneConfig: webhooks are refused without WebhookSecret unless
// AllowUnsignedWebhooks is set, which is meant for local development only.
type PortOneConfig struct {
	BaseURL               string
	APISecret             string
	StoreID               string
	ChannelKey            string
	WebhookSecret         string
	AllowUnsignedWebhooks bool
	Timeout               time.Duration
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	LockTTL  time.Duration
}

type RabbitMQConfig struct {
	URL         string
	AlertQueue  string
	DialTimeout time.Duration
}

type RateLimitConfig struct {
	Auth    string
	Webhook string
}

type SagaConfig struct {
	RecoveryInterval time.Duration
	Lease            time.Duration
	MaxAttempts      int
	BatchSize        int
}

type SubscriptionConfig struct {
	GracePeriod time.Duration
}

func LoadConfig() (*Config, error) {
	viper.SetConfigFile(".env")
	viper.SetConfigType("env")

	// Set defaults
	viper.SetDefault("APP_NAME", "hotel-booking")
	viper.SetDefault("PORT", "8080")
	viper.SetDefault("DEBUG", false)
	viper.SetDefault("LOG_PATH", "logs/")
	viper.SetDefault("SHUTDOWN_TIMEOUT", "15s")
	viper.SetDefault("CORS_ALLOWED_ORIGINS", "*")
	viper.SetDefault("DB_PORT", "5432")
	viper.SetDefault("DB_SSLMODE", "disable")
	viper.SetDefault("DB_MAX_CONNS", 10)
	viper.SetDefault("JWT_ISSUER", "hotel-booking")
	viper.SetDefault("JWT_EXPIRY_HOURS", 24)
	viper.SetDefault("PORTONE_BASE_URL", "https://api.portone.io")
	viper.SetDefault("PORTONE_TIMEOUT", "10s")
	viper.SetDefault("PORTONE_ALLOW_UNSIGNED_WEBHOOKS", false)
	viper.SetDefault("REDIS_DB", 0)
	viper.SetDefault("REDIS_LOCK_TTL", "30s")
	viper.SetDefault("RABBITMQ_ALERT_QUEUE", "payment.reconciliation")
	viper.SetDefault("RABBITMQ_DIAL_TIMEOUT", "3s")
	viper.SetDefault("RATE_LIMIT_AUTH", "20-M")
	viper.SetDefault("RATE_LIMIT_WEBHOOK", "300-M")
	viper.SetDefault("SAGA_RECOVERY_INTERVAL", "1m")
	viper.SetDefault("SAGA_LEASE", "2m")
	viper.SetDefault("SAGA_MAX_ATTEMPTS", 5)
	viper.SetDefault("SAGA_BATCH_SIZE", 20)
	viper.SetDefault("SUBSCRIPTION_GRACE_PERIOD", "72h")

	// .env boleh tidak ada, env var biasa tetap dibaca
	if err := viper.ReadInConfig(); err != nil {
		var pathErr *fs.PathError
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &pathErr) && !errors.As(err, &notFound) {
			return nil, err
		}
	}

	viper.AutomaticEnv()

	config := &Config{
		App: AppConfig{
			Name:            viper.GetString("APP_NAME"),
			Port:            viper.GetString("PORT"),
			Debug:           viper.GetBool("DEBUG"),
			LogPath:         viper.GetString("LOG_PATH"),
			ShutdownTimeout: viper.GetDuration("SHUTDOWN_TIMEOUT"),
			AllowedOrigins:  viper.GetStringSlice("CORS_ALLOWED_ORIGINS"),
		},
		Database: DatabaseConfig{
			Host:     viper.GetString("DB_HOST"),
			Port:     viper.GetString("DB_PORT"),
			Name:     viper.GetString("DB_NAME"),
			User:     viper.GetString("DB_USER"),
			Password: viper.GetString("DB_PASS"),
			SSLMode:  viper.GetString("DB_SSLMODE"),
			MaxConns: viper.GetInt32("DB_MAX_CONNS"),
		},
		JWT: JWTConfig{
			Secret:      viper.GetString("JWT_SECRET"),
			Issuer:      viper.GetString("JWT_ISSUER"),
			ExpiryHours: viper.GetInt("JWT_EXPIRY_HOURS"),
		},
		Auth: AuthConfig{
			ServiceToken:  viper.GetString("AUTH_SERVICE_TOKEN"),
			ServiceUserID: viper.GetString("AUTH_SERVICE_USER_ID"),
		},
		PortOne: PortOneConfig{
			BaseURL:               viper.GetString("PORTONE_BASE_URL"),
			APISecret:             viper.GetString("PORTONE_API_SECRET"),
			StoreID:               viper.GetString("PORTONE_STORE_ID"),
			ChannelKey:            viper.GetString("PORTONE_CHANNEL_KEY"),
			WebhookSecret:         viper.GetString("PORTONE_WEBHOOK_SECRET"),
			AllowUnsignedWebhooks: viper.GetBool("PORTONE_ALLOW_UNSIGNED_WEBHOOKS"),
			Timeout:               viper.GetDuration("PORTONE_TIMEOUT"),
		},
		Redis: RedisConfig{
			Addr:     viper.GetString("REDIS_ADDR"),
			Password: viper.GetString("REDIS_PASSWORD"),
			DB:       viper.GetInt("REDIS_DB"),
			LockTTL:  viper.GetDuration("REDIS_LOCK_TTL"),
		},
		RabbitMQ: RabbitMQConfig{
			URL:         viper.GetString("RABBITMQ_URL"),
			AlertQueue:  viper.GetString("RABBITMQ_ALERT_QUEUE"),
			DialTimeout: viper.GetDuration("RABBITMQ_DIAL_TIMEOUT"),
		},
		RateLimit: RateLimitConfig{
			Auth:    viper.GetString("RATE_LIMIT_AUTH"),
			Webhook: viper.GetString("RATE_LIMIT_WEBHOOK"),
		},
		Saga: SagaConfig{
			RecoveryInterval: viper.GetDuration("SAGA_RECOVERY_INTERVAL"),
			Lease:            viper.GetDuration("SAGA_LEASE"),
			MaxAttempts:      viper.GetInt("SAGA_MAX_ATTEMPTS"),
			BatchSize:        viper.GetInt("SAGA_BATCH_SIZE"),
		},
		Subscription: SubscriptionConfig{
			GracePeriod: viper.GetDuration("SUBSCRIPTION_GRACE_PERIOD"),
		},
	}

	return config, nil
}
