package handler

import (
	"bytes"

	"github.com/gin-gonic/gin"
	apptracker "github.com/wikimedia/wikimedia-cz-tracker/internal/application/tracker"
)

// ExportHandler serves CSV exports
type ExportHandler struct {
	BaseHandler
	exportService *apptracker.ExportService
}

// NewExportHandler creates a new export handler
func NewExportHandler(exportService *apptracker.ExportService) *ExportHandler {
	return &ExportHandler{
		exportService: exportService,
	}
}

// Export godoc
// @ID           exportData
// @Summary      Export objects as CSV
// @Description  Writes tickets, grants, topics, expenses or users matching the filter of the chosen type. Only staff can export users.
// @Tags         export
// @Accept       json
// @Produce      text/csv
// @Param        request body apptracker.ExportRequest true "Export type and filter"
// @Success      200 {file} binary
// @Failure      400 {object} ErrorResponse
// @Failure      401 {object} ErrorResponse
// @Failure      403 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /export [post]
func (h *ExportHandler) Export(c *gin.Context) {
	var req apptracker.ExportRequest
	if !h.BindJSON(c, &req) {
		return
	}
	user := currentUser(c)
	if err := h.exportService.Authorize(user, req); err != nil {
		h.HandleError(c, err)
		return
	}
	filename, err := h.exportService.Filename(req.Type)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.writeCSV(c, filename, func(buf *bytes.Buffer) error {
		return h.exportService.Export(c.Request.Context(), user, req, buf)
	})
}
