package handler

import (
	"fmt"
	"net/http"
	"time"

	ratelimit "github.com/JGLTechnologies/gin-rate-limit"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// NewRateLimitMiddleware ограничивает число запросов с одного IP в окне store.
// Превышение отдается как 429 с телом APIError.
func NewRateLimitMiddleware(store ratelimit.Store, logger *zap.Logger) gin.HandlerFunc {
	log := logger.Named("RateLimiter")
	return ratelimit.RateLimiter(store, &ratelimit.Options{
		ErrorHandler: func(c *gin.Context, info ratelimit.Info) {
			retryAfter := time.Until(info.ResetTime).Round(time.Second)
			if retryAfter < 0 {
				retryAfter = 0
			}
			log.Warn("Rate limit exceeded",
				zap.String("clientIP", c.ClientIP()),
				zap.Time("resetTime", info.ResetTime),
				zap.String("path", c.FullPath()),
			)
			c.Header("Retry-After", fmt.Sprintf("%.0f", retryAfter.Seconds()))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, APIError{
				Message: "Too many requests. Try again in " + retryAfter.String(),
			})
		},
		KeyFunc: func(c *gin.Context) string {
			return c.ClientIP()
		},
	})
}
