// internal/middleware/auth_middleware.go
package middleware

import (
	"strings"

	xerrors "subdesk-service/internal/pkg/errors"
	"subdesk-service/internal/pkg/jwt"
	"subdesk-service/internal/pkg/response"
	"subdesk-service/internal/pkg/session"

	"github.com/gin-gonic/gin"
)

type AuthMiddleware struct {
	jwtManager *jwt.Manager
	sessions   *session.Manager
}

func NewAuthMiddleware(jwtManager *jwt.Manager, sessions *session.Manager) *AuthMiddleware {
	return &AuthMiddleware{
		jwtManager: jwtManager,
		sessions:   sessions,
	}
}

// Auth validates the bearer token and checks its server-side session still
// exists, so a logged-out token is refused even before the JWT expires.
func (m *AuthMiddleware) Auth() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := extractToken(c)
		if token == "" {
			response.Unauthorized(c, "missing authorization token")
			return
		}

		claims, err := m.jwtManager.Verify(token)
		if err != nil {
			response.Unauthorized(c, "invalid or expired token")
			return
		}

		if _, err := m.sessions.Get(c.Request.Context(), claims.UserID, claims.ID); err != nil {
			if xerrors.Is(err, xerrors.ErrSessionExpired) {
				response.Unauthorized(c, "session expired")
				return
			}
			response.FromError(c, err)
			return
		}
		m.sessions.Touch(c.Request.Context(), claims.UserID, claims.ID)

		c.Set("user_id", claims.UserID)
		c.Set("user_name", claims.Name)
		c.Set("user_role", claims.Role)
		c.Set("jti", claims.ID)

		c.Next()
	}
}

// RequireAdmin rejects non-admin users. Must run after Auth.
func (m *AuthMiddleware) RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		role, exists := c.Get("user_role")
		if !exists || role != "admin" {
			response.Forbidden(c, "admin access required")
			return
		}
		c.Next()
	}
}

func extractToken(c *gin.Context) string {
	header := c.GetHeader("Authorization")
	if strings.HasPrefix(header, "Bearer ") {
		return strings.TrimPrefix(header, "Bearer ")
	}
	return ""
}
