package handler

import (
	"bytes"

	"github.com/gin-gonic/gin"
	apptracker "github.com/wikimedia/wikimedia-cz-tracker/internal/application/tracker"
)

// ReportHandler serves the cross-ticket summaries
type ReportHandler struct {
	BaseHandler
	reportService *apptracker.ReportService
}

// NewReportHandler creates a new report handler
func NewReportHandler(reportService *apptracker.ReportService) *ReportHandler {
	return &ReportHandler{
		reportService: reportService,
	}
}

// AcksPerUser godoc
// @ID           getAcksPerUser
// @Summary      Content acks given per user and topic
// @Tags         reports
// @Produce      json
// @Success      200 {object} APIResponse[[]apptracker.AckPerUserRow]
// @Router       /acks-per-user [get]
func (h *ReportHandler) AcksPerUser(c *gin.Context) {
	rows, err := h.reportService.AcksPerUser(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, rows)
}

// AcksPerUserCSV godoc
// @ID           exportAcksPerUser
// @Summary      Content acks per user as CSV
// @Tags         reports
// @Produce      text/csv
// @Success      200 {file} binary
// @Router       /acks-per-user/csv [get]
func (h *ReportHandler) AcksPerUserCSV(c *gin.Context) {
	h.writeCSV(c, "acks-per-user.csv", func(buf *bytes.Buffer) error {
		return h.reportService.WriteAcksPerUserCSV(c.Request.Context(), buf)
	})
}

// UserSummary godoc
// @ID           getUserSummary
// @Summary      Ticket totals of every user
// @Tags         reports
// @Produce      json
// @Success      200 {object} APIResponse[apptracker.UserSummary]
// @Router       /users/summary [get]
func (h *ReportHandler) UserSummary(c *gin.Context) {
	summary, err := h.reportService.UserSummary(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, summary)
}
