package middleware

import (
	"fmt"
	"net/http"

	"hotel-booking/pkg/utils"

	"github.com/redis/go-redis/v9"
	"github.com/ulule/limiter/v3"
	"github.com/ulule/limiter/v3/drivers/middleware/stdlib"
	"github.com/ulule/limiter/v3/drivers/store/memory"
	redisstore "github.com/ulule/limiter/v3/drivers/store/redis"
	"go.uber.org/zap"
)

// RateLimit limits requests per client IP with a formatted rate such as
// "20-M". Counters live in Redis when a client is given so every instance
// shares them, otherwise in process memory.
func RateLimit(formatted, routeID string, client *redis.Client, logger *zap.Logger) (func(http.Handler) http.Handler, error) {
	rate, err := limiter.NewRateFromFormatted(formatted)
	if err != nil {
		return nil, fmt.Errorf("parse rate %q for %s: %w", formatted, routeID, err)
	}

	prefix := "rate_limiter:" + routeID
	var store limiter.Store
	if client != nil {
		store, err = redisstore.NewStoreWithOptions(client, limiter.StoreOptions{
			Prefix:   prefix,
			MaxRetry: 3,
		})
		if err != nil {
			return nil, fmt.Errorf("create redis limiter store for %s: %w", routeID, err)
		}
	} else {
		store = memory.NewStoreWithOptions(limiter.StoreOptions{
			Prefix:          prefix,
			CleanUpInterval: limiter.DefaultCleanUpInterval,
		})
	}

	mw := stdlib.NewMiddleware(limiter.New(store, rate),
		stdlib.WithLimitReachedHandler(func(w http.ResponseWriter, r *http.Request) {
			logger.Warn("Rate limit reached",
				zap.String("route", routeID),
				zap.String("ip", r.RemoteAddr))
			utils.ResponseTooManyRequests(w, "Too many requests, try again later")
		}),
		stdlib.WithErrorHandler(func(w http.ResponseWriter, r *http.Request, err error) {
			logger.Error("Rate limiter failed", zap.String("route", routeID), zap.Error(err))
			utils.ResponseInternalError(w, "Internal server error")
		}),
	)
	return mw.Handler, nil
}
