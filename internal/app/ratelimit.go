package app

import (
	"storyquest-server/internal/config"

	ratelimit "github.com/JGLTechnologies/gin-rate-limit"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// NewRateLimitStore returns the counter store for the API rate limiter, or nil
// when rate limiting is disabled. With a Redis client the counters are shared
// between server instances, otherwise they live in process memory.
func NewRateLimitStore(cfg *config.Config, redisClient *redis.Client, logger *zap.Logger) ratelimit.Store {
	if !cfg.RateLimitEnabled {
		logger.Info("Rate limiting disabled")
		return nil
	}

	fields := []zap.Field{
		zap.Uint("limit", cfg.RateLimitRequests),
		zap.Duration("window", cfg.RateLimitWindow),
	}
	if redisClient != nil {
		logger.Info("Rate limiter uses Redis store", fields...)
		return ratelimit.RedisStore(&ratelimit.RedisOptions{
			RedisClient: redisClient,
			Rate:        cfg.RateLimitWindow,
			Limit:       cfg.RateLimitRequests,
		})
	}
	logger.Info("Rate limiter uses in-memory store", fields...)
	return ratelimit.InMemoryStore(&ratelimit.InMemoryOptions{
		Rate:  cfg.RateLimitWindow,
		Limit: cfg.RateLimitRequests,
	})
}
