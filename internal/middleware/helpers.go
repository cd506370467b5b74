// internal/middleware/helpers.go
package middleware

import (
	"subdesk-service/internal/domain/activity"

	"github.com/gin-gonic/gin"
)

// GetUserID gets the authenticated user's id from context.
func GetUserID(c *gin.Context) (string, bool) {
	id, exists := c.Get("user_id")
	if !exists {
		return "", false
	}
	s, ok := id.(string)
	return s, ok
}

// GetJTI gets the token id from context.
func GetJTI(c *gin.Context) (string, bool) {
	jti, exists := c.Get("jti")
	if !exists {
		return "", false
	}
	s, ok := jti.(string)
	return s, ok
}

// Actor builds the audit actor snapshot for the authenticated request.
// Must be used after Auth().
func Actor(c *gin.Context) activity.Actor {
	return activity.Actor{
		ID:   c.GetString("user_id"),
		Name: c.GetString("user_name"),
		Role: c.GetString("user_role"),
	}
}

// IsAdmin checks if the authenticated user is an admin.
func IsAdmin(c *gin.Context) bool {
	return c.GetString("user_role") == "admin"
}
