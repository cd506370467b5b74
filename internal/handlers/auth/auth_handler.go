// internal/handlers/auth/auth_handler.go
package auth

import (
	"net/http"

	"subdesk-service/internal/domain/user"
	"subdesk-service/internal/middleware"
	"subdesk-service/internal/pkg/response"
	"subdesk-service/internal/service/auth"

	"github.com/gin-gonic/gin"
)

type AuthHandler struct {
	authService *auth.AuthService
}

func NewAuthHandler(authService *auth.AuthService) *AuthHandler {
	return &AuthHandler{
		authService: authService,
	}
}

// Login authenticates a user and returns a bearer token.
func (h *AuthHandler) Login(c *gin.Context) {
	var req user.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ValidationError(c, "invalid login payload", err)
		return
	}

	result, err := h.authService.Login(c.Request.Context(), &req, c.ClientIP(), c.Request.UserAgent())
	if err != nil {
		response.FromError(c, err)
		return
	}

	response.Success(c, http.StatusOK, "login successful", result)
}

// Logout revokes the current session.
func (h *AuthHandler) Logout(c *gin.Context) {
	jti, ok := middleware.GetJTI(c)
	if !ok {
		response.Unauthorized(c, "not authenticated")
		return
	}

	if err := h.authService.Logout(c.Request.Context(), middleware.Actor(c), jti); err != nil {
		response.FromError(c, err)
		return
	}

	response.Success(c, http.StatusOK, "logged out", nil)
}

// Me returns the authenticated user's profile.
func (h *AuthHandler) Me(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.Unauthorized(c, "not authenticated")
		return
	}

	u, err := h.authService.CurrentUser(c.Request.Context(), userID)
	if err != nil {
		response.FromError(c, err)
		return
	}

	response.Success(c, http.StatusOK, "profile retrieved", u.Public())
}
