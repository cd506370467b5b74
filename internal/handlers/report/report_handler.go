// internal/handlers/report/report_handler.go
package report

import (
	"net/http"
	"time"

	"subdesk-service/internal/pkg/response"
	reportsvc "subdesk-service/internal/service/report"

	"github.com/gin-gonic/gin"
)

type ReportHandler struct {
	reportService *reportsvc.ReportService
}

func NewReportHandler(reportService *reportsvc.ReportService) *ReportHandler {
	return &ReportHandler{
		reportService: reportService,
	}
}

// Expiring returns accounts and subscriptions ending within the next days.
// Data only; nothing is pushed or mailed.
func (h *ReportHandler) Expiring(c *gin.Context) {
	report, err := h.reportService.Expiring(c.Request.Context(), time.Now())
	if err != nil {
		response.FromError(c, err)
		return
	}

	response.Success(c, http.StatusOK, "expiring items retrieved", report)
}

func (h *ReportHandler) Revenue(c *gin.Context) {
	report, err := h.reportService.Revenue(c.Request.Context())
	if err != nil {
		response.FromError(c, err)
		return
	}

	response.Success(c, http.StatusOK, "revenue report retrieved", report)
}

func (h *ReportHandler) Dashboard(c *gin.Context) {
	report, err := h.reportService.Dashboard(c.Request.Context(), time.Now())
	if err != nil {
		response.FromError(c, err)
		return
	}

	response.Success(c, http.StatusOK, "dashboard retrieved", report)
}
