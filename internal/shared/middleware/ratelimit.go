package middleware

import (
	"context"
	"math"
	"strconv"
	"time"

	"catalog-backend/internal/infrastructure/cache"
	"catalog-backend/internal/shared/response"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// RateLimiter - implement bởi cache.RedisClient
type RateLimiter interface {
	Allow(ctx context.Context, key string, limit int, window time.Duration) (cache.RateDecision, error)
}

// RateLimit giới hạn số request theo client IP trong mỗi window.
// Redis lỗi thì cho request đi qua (fail-open) và log warning.
func RateLimit(limiter RateLimiter, limit int, window time.Duration, logger zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := "ratelimit:" + c.ClientIP()

		decision, err := limiter.Allow(c.Request.Context(), key, limit, window)
		if err != nil {
			logger.Warn().
				Err(err).
				Str("request_id", c.GetString(RequestIDKey)).
				Msg("Rate limiter unavailable, allowing request")
			c.Next()
			return
		}

		c.Header("X-RateLimit-Limit", strconv.Itoa(decision.Limit))
		c.Header("X-RateLimit-Remaining", strconv.Itoa(decision.Remaining))
		c.Header("X-RateLimit-Reset", strconv.Itoa(seconds(decision.ResetIn)))

		if !decision.Allowed {
			c.Header("Retry-After", strconv.Itoa(seconds(decision.ResetIn)))
			response.TooManyRequests(c, "rate limit exceeded, try again later")
			return
		}

		c.Next()
	}
}

func seconds(d time.Duration) int {
	return int(math.Ceil(d.Seconds()))
}
