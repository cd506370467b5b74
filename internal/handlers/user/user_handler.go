// internal/handlers/user/user_handler.go
package user

import (
	"net/http"

	"subdesk-service/internal/domain/user"
	"subdesk-service/internal/middleware"
	"subdesk-service/internal/pkg/response"
	usersvc "subdesk-service/internal/service/user"

	"github.com/gin-gonic/gin"
)

// UserHandler exposes the admin-only user management endpoints.
type UserHandler struct {
	userService *usersvc.UserService
}

func NewUserHandler(userService *usersvc.UserService) *UserHandler {
	return &UserHandler{
		userService: userService,
	}
}

func (h *UserHandler) CreateUser(c *gin.Context) {
	var req user.CreateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ValidationError(c, "invalid user payload", err)
		return
	}

	created, err := h.userService.CreateUser(c.Request.Context(), middleware.Actor(c), &req)
	if err != nil {
		response.FromError(c, err)
		return
	}

	response.Success(c, http.StatusCreated, "user created", created.Public())
}

func (h *UserHandler) ListUsers(c *gin.Context) {
	users, err := h.userService.ListUsers(c.Request.Context())
	if err != nil {
		response.FromError(c, err)
		return
	}

	public := make([]user.Public, 0, len(users))
	for i := range users {
		public = append(public, users[i].Public())
	}
	response.Success(c, http.StatusOK, "users retrieved", public)
}

func (h *UserHandler) GetUser(c *gin.Context) {
	u, err := h.userService.GetUser(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.FromError(c, err)
		return
	}

	response.Success(c, http.StatusOK, "user retrieved", u.Public())
}

func (h *UserHandler) UpdateUser(c *gin.Context) {
	var req user.UpdateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ValidationError(c, "invalid user payload", err)
		return
	}

	updated, err := h.userService.UpdateUser(c.Request.Context(), middleware.Actor(c), c.Param("id"), &req)
	if err != nil {
		response.FromError(c, err)
		return
	}

	response.Success(c, http.StatusOK, "user updated", updated.Public())
}

func (h *UserHandler) DeleteUser(c *gin.Context) {
	if err := h.userService.DeleteUser(c.Request.Context(), middleware.Actor(c), c.Param("id")); err != nil {
		response.FromError(c, err)
		return
	}

	response.Success(c, http.StatusOK, "user deleted", nil)
}
