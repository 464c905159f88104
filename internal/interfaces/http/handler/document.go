package handler

import (
	"fmt"
	"io"
	"mime"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	apptracker "github.com/wikimedia/wikimedia-cz-tracker/internal/application/tracker"
	"github.com/wikimedia/wikimedia-cz-tracker/internal/interfaces/http/dto"
)

// Maximum size of an uploaded ticket document (20MB)
const maxDocumentFileSize = 20 * 1024 * 1024

// DocumentHandler serves the supporting documents of tickets
type DocumentHandler struct {
	BaseHandler
	documentService *apptracker.DocumentService
}

// NewDocumentHandler creates a new document handler
func NewDocumentHandler(documentService *apptracker.DocumentService) *DocumentHandler {
	return &DocumentHandler{
		documentService: documentService,
	}
}

// List godoc
// @ID           listTicketDocuments
// @Summary      List documents of a ticket
// @Description  Users without see_all_docs only see their own uploads
// @Tags         documents
// @Produce      json
// @Param        id path int true "Ticket ID"
// @Success      200 {object} APIResponse[[]apptracker.DocumentResponse]
// @Failure      403 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /tickets/{id}/documents [get]
func (h *DocumentHandler) List(c *gin.Context) {
	id, ok := h.ParamID(c, "id")
	if !ok {
		return
	}
	docs, err := h.documentService.List(c.Request.Context(), currentUser(c), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, docs)
}

// Upload godoc
//
//	@Summary		Upload a ticket document
//	@Tags			documents
//	@ID				uploadTicketDocument
//	@Accept			multipart/form-data
//	@Produce		json
//	@Param			id			path		int		true	"Ticket ID"
//	@Param			file		formData	file	true	"Document payload"
//	@Param			filename	formData	string	false	"Stored name, defaults to the uploaded name"
//	@Param			description	formData	string	false	"Description"
//	@Success		201			{object}	APIResponse[apptracker.DocumentResponse]
//	@Failure		400			{object}	ErrorResponse
//	@Failure		403			{object}	ErrorResponse
//	@Failure		409			{object}	ErrorResponse
//	@Failure		413			{object}	ErrorResponse
//	@Security		BearerAuth
//	@Router			/tickets/{id}/documents [post]
func (h *DocumentHandler) Upload(c *gin.Context) {
	id, ok := h.ParamID(c, "id")
	if !ok {
		return
	}

	file, header, err := c.Request.FormFile("file")
	if err != nil {
		h.BadRequest(c, "file is required")
		return
	}
	defer file.Close()

	if header.Size > maxDocumentFileSize {
		h.Error(c, http.StatusRequestEntityTooLarge, dto.ErrCodeValidation, "file exceeds maximum size of 20MB")
		return
	}

	filename := c.PostForm("filename")
	if filename == "" {
		filename = header.Filename
	}
	contentType := header.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	doc, err := h.documentService.Upload(c.Request.Context(), currentUser(c), id, apptracker.UploadDocumentInput{
		Filename:    filename,
		Description: c.PostForm("description"),
		ContentType: contentType,
		Size:        header.Size,
		Body:        file,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, doc)
}

// Download godoc
// @ID           downloadTicketDocument
// @Summary      Download a ticket document
// @Description  Redirects to a presigned link when the store supports it and streams the payload otherwise
// @Tags         documents
// @Produce      octet-stream
// @Param        id path int true "Ticket ID"
// @Param        filename path string true "Document filename"
// @Success      200 {file} binary
// @Success      302
// @Failure      403 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /tickets/{id}/documents/{filename} [get]
func (h *DocumentHandler) Download(c *gin.Context) {
	id, ok := h.ParamID(c, "id")
	if !ok {
		return
	}
	download, err := h.documentService.Download(c.Request.Context(), currentUser(c), id, c.Param("filename"))
	if err != nil {
		h.HandleError(c, err)
		return
	}

	if download.URL != "" {
		c.Redirect(http.StatusFound, download.URL)
		return
	}
	defer download.Body.Close()

	c.Header("Content-Disposition", mime.FormatMediaType("inline", map[string]string{"filename": download.Filename}))
	c.Header("Content-Type", download.ContentType)
	if download.Size > 0 {
		c.Header("Content-Length", strconv.FormatInt(download.Size, 10))
	}
	c.Status(http.StatusOK)
	if _, err := io.Copy(c.Writer, download.Body); err != nil {
		_ = c.Error(fmt.Errorf("stream document: %w", err))
	}
}

// Update godoc
// @ID           updateDocument
// @Summary      Change a document description
// @Tags         documents
// @Accept       json
// @Produce      json
// @Param        id path int true "Document ID"
// @Param        request body apptracker.UpdateDocumentRequest true "Description"
// @Success      200 {object} APIResponse[apptracker.DocumentResponse]
// @Failure      403 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /documents/{id} [patch]
func (h *DocumentHandler) Update(c *gin.Context) {
	id, ok := h.ParamID(c, "id")
	if !ok {
		return
	}
	var req apptracker.UpdateDocumentRequest
	if !h.BindJSON(c, &req) {
		return
	}
	doc, err := h.documentService.Update(c.Request.Context(), currentUser(c), id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, doc)
}

// Delete godoc
// @ID           deleteDocument
// @Summary      Delete a document
// @Tags         documents
// @Param        id path int true "Document ID"
// @Success      204
// @Failure      403 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /documents/{id} [delete]
func (h *DocumentHandler) Delete(c *gin.Context) {
	id, ok := h.ParamID(c, "id")
	if !ok {
		return
	}
	if err := h.documentService.Delete(c.Request.Context(), currentUser(c), id); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}
