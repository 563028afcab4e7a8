package middleware

import (
	"runtime/debug"

	"catalog-backend/internal/shared/response"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// Recovery bắt panic trong handler, trả 500 theo envelope chung
func Recovery(logger zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if err := recover(); err != nil {
				logger.Error().
					Str("request_id", c.GetString(RequestIDKey)).
					Interface("error", err).
					Bytes("stack", debug.Stack()).
					Msg("Panic recovered")

				response.InternalServerError(c)
			}
		}()

		c.Next()
	}
}
