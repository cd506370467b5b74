// internal/middleware/recovery_middleware.go
package middleware

import (
	"net/http"

	"subdesk-service/internal/pkg/response"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// RecoveryMiddleware converts a handler panic into a 500 response and one
// structured log line carrying the stack. The client only ever sees the
// generic message.
func RecoveryMiddleware(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if r := recover(); r != nil {
				fields := []zap.Field{
					zap.Any("panic", r),
					zap.String("method", c.Request.Method),
					zap.String("path", c.Request.URL.Path),
					zap.String("client_ip", c.ClientIP()),
					zap.Stack("stack"),
				}
				if userID := c.GetString("user_id"); userID != "" {
					fields = append(fields, zap.String("user_id", userID))
				}
				logger.Error("panic recovered", fields...)
				response.Error(c, http.StatusInternalServerError, "internal server error", nil)
			}
		}()
		c.Next()
	}
}
