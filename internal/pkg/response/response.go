package response

import (
	"net/http"

	xerrors "subdesk-service/internal/pkg/errors"

	"github.com/gin-gonic/gin"
)

// Response defines the standard API response format.
type Response struct {
	Success bool        `json:"success"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// Success sends a successful response with a message and optional data.
func Success(c *gin.Context, status int, message string, data interface{}) {
	if status == 0 {
		status = http.StatusOK
	}

	c.JSON(status, Response{
		Success: true,
		Message: message,
		Data:    data,
	})
}

// Error sends a standardized error response.
func Error(c *gin.Context, code int, message string, err error) {
	c.Abort()

	c.JSON(code, Response{
		Success: false,
		Message: message,
		Error:   xerrors.MessageOrDefault(err, message),
	})
}

// FromError maps an application error to the matching HTTP status.
// Storage errors deliberately hide their details from the client.
func FromError(c *gin.Context, err error) {
	switch {
	case xerrors.Is(err, xerrors.ErrValidation):
		Error(c, http.StatusBadRequest, "validation failed", err)
	case xerrors.Is(err, xerrors.ErrDuplicateEntry):
		Error(c, http.StatusConflict, "duplicate entry", err)
	case xerrors.Is(err, xerrors.ErrNotFound):
		Error(c, http.StatusNotFound, "not found", err)
	case xerrors.Is(err, xerrors.ErrUnauthorized), xerrors.Is(err, xerrors.ErrSessionExpired):
		Error(c, http.StatusUnauthorized, "unauthorized", xerrors.ErrUnauthorized)
	case xerrors.Is(err, xerrors.ErrForbidden):
		Error(c, http.StatusForbidden, "forbidden", xerrors.ErrForbidden)
	case xerrors.Is(err, xerrors.ErrRateLimited):
		Error(c, http.StatusTooManyRequests, "too many requests", xerrors.ErrRateLimited)
	default:
		Error(c, http.StatusInternalServerError, "internal server error", xerrors.ErrStorage)
	}
}

// Unauthorized sends a 401 Unauthorized response.
func Unauthorized(c *gin.Context, message string) {
	Error(c, http.StatusUnauthorized, message, nil)
}

// Forbidden sends a 403 Forbidden response.
func Forbidden(c *gin.Context, message string) {
	Error(c, http.StatusForbidden, message, nil)
}

// NotFound sends a 404 Not Found response.
func NotFound(c *gin.Context, message string) {
	Error(c, http.StatusNotFound, message, nil)
}

// ValidationError sends a 400 Bad Request response for invalid input.
func ValidationError(c *gin.Context, message string, err error) {
	Error(c, http.StatusBadRequest, message, err)
}
