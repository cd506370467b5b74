// internal/handlers/activity/activity_handler.go
package activity

import (
	"net/http"

	"subdesk-service/internal/domain/activity"
	"subdesk-service/internal/pkg/response"
	activitysvc "subdesk-service/internal/service/activity"

	"github.com/gin-gonic/gin"
)

type ActivityHandler struct {
	activityService *activitysvc.ActivityService
}

func NewActivityHandler(activityService *activitysvc.ActivityService) *ActivityHandler {
	return &ActivityHandler{
		activityService: activityService,
	}
}

// ListActivity returns the audit trail, newest first.
func (h *ActivityHandler) ListActivity(c *gin.Context) {
	var params activity.ListParams
	if err := c.ShouldBindQuery(&params); err != nil {
		response.ValidationError(c, "invalid query parameters", err)
		return
	}

	logs, err := h.activityService.List(c.Request.Context(), params)
	if err != nil {
		response.FromError(c, err)
		return
	}

	response.Success(c, http.StatusOK, "activity retrieved", logs)
}
