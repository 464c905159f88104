package handler

import (
	"fmt"
	"mime"
	"net/http"

	"github.com/gin-gonic/gin"
	apptracker "github.com/wikimedia/wikimedia-cz-tracker/internal/application/tracker"
	csvimport "github.com/wikimedia/wikimedia-cz-tracker/internal/infrastructure/import"
	"github.com/wikimedia/wikimedia-cz-tracker/internal/interfaces/http/dto"
)

const (
	// Maximum file size for imports (10MB)
	maxImportFileSize = 10 * 1024 * 1024
)

// ImportHandler handles CSV import endpoints
type ImportHandler struct {
	BaseHandler
	importService *apptracker.ImportService
}

// NewImportHandler creates a new ImportHandler
func NewImportHandler(importService *apptracker.ImportService) *ImportHandler {
	return &ImportHandler{
		importService: importService,
	}
}

// ImportTypesResponse lists the importable object types and the caller's
// row limit
type ImportTypesResponse struct {
	Types    []string `json:"types"`
	RowLimit int      `json:"row_limit"`
}

// Types godoc
//
//	@Summary		List import types
//	@Tags			import
//	@ID				listImportTypes
//	@Produce		json
//	@Success		200	{object}	APIResponse[ImportTypesResponse]
//	@Failure		401	{object}	ErrorResponse
//	@Security		BearerAuth
//	@Router			/import [get]
func (h *ImportHandler) Types(c *gin.Context) {
	user, ok := h.RequireUser(c)
	if !ok {
		return
	}
	h.Success(c, ImportTypesResponse{
		Types:    h.importService.Types(),
		RowLimit: h.importService.RowLimit(user),
	})
}

// Import godoc
//
//	@Summary		Import a CSV file
//	@Description	Creates one object per row. Rows past the caller's row limit are skipped.
//	@Tags			import
//	@ID				importCSV
//	@Accept			multipart/form-data
//	@Produce		json
//	@Param			type	path		string	true	"Object type"	Enums(ticket, topic, subtopic, grant, expense, preexpense, media, user)
//	@Param			file	formData	file	true	"CSV file"
//	@Success		200		{object}	APIResponse[apptracker.ImportResult]
//	@Failure		400		{object}	ErrorResponse
//	@Failure		401		{object}	ErrorResponse
//	@Failure		403		{object}	ErrorResponse
//	@Failure		413		{object}	ErrorResponse
//	@Failure		415		{object}	ErrorResponse
//	@Security		BearerAuth
//	@Router			/import/{type} [post]
func (h *ImportHandler) Import(c *gin.Context) {
	user, ok := h.RequireUser(c)
	if !ok {
		return
	}

	file, header, err := c.Request.FormFile("file")
	if err != nil {
		h.BadRequest(c, "file is required")
		return
	}
	defer file.Close()

	if header.Size > maxImportFileSize {
		h.Error(c, http.StatusRequestEntityTooLarge, dto.ErrCodeValidation, "file exceeds maximum size of 10MB")
		return
	}

	contentType := header.Header.Get("Content-Type")
	if contentType != "" && contentType != "text/csv" && contentType != "application/octet-stream" &&
		contentType != "text/plain" && contentType != "application/vnd.ms-excel" {
		h.Error(c, http.StatusUnsupportedMediaType, dto.ErrCodeValidation, "file must be a CSV file")
		return
	}

	result, err := h.importService.Import(c.Request.Context(), user, c.Param("type"), file)
	if err != nil && result != nil && len(result.Errors) > 0 {
		h.ValidationError(c, rowErrorDetails(result.Errors))
		return
	}
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}

func rowErrorDetails(errs []csvimport.RowError) []dto.ValidationDetail {
	details := make([]dto.ValidationDetail, 0, len(errs))
	for _, e := range errs {
		field := fmt.Sprintf("row %d", e.Row)
		if e.Column != "" {
			field += "." + e.Column
		}
		details = append(details, dto.ValidationDetail{Field: field, Message: e.Message})
	}
	return details
}

// Example godoc
//
//	@Summary		Download an example import file
//	@Tags			import
//	@ID				downloadImportExample
//	@Produce		text/csv
//	@Param			type	path		string	true	"Object type"
//	@Success		200		{file}		binary
//	@Failure		400		{object}	ErrorResponse
//	@Security		BearerAuth
//	@Router			/import/{type}/example [get]
func (h *ImportHandler) Example(c *gin.Context) {
	user, ok := h.RequireUser(c)
	if !ok {
		return
	}
	example, err := h.importService.Example(user, c.Param("type"))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	c.Header("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": example.Filename}))
	c.Header("Content-Type", csvContentType)
	c.Status(http.StatusOK)
	if err := example.Write(c.Writer); err != nil {
		_ = c.Error(err)
	}
}
