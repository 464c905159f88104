package handler

import (
	"github.com/gin-gonic/gin"
	apptracker "github.com/wikimedia/wikimedia-cz-tracker/internal/application/tracker"
)

// MediaHandler serves the wiki media attached to tickets
type MediaHandler struct {
	BaseHandler
	mediaService *apptracker.MediaService
}

// NewMediaHandler creates a new media handler
func NewMediaHandler(mediaService *apptracker.MediaService) *MediaHandler {
	return &MediaHandler{
		mediaService: mediaService,
	}
}

// List godoc
// @ID           listTicketMedia
// @Summary      List media of a ticket
// @Tags         media
// @Produce      json
// @Param        id path int true "Ticket ID"
// @Success      200 {object} APIResponse[[]apptracker.MediaResponse]
// @Router       /tickets/{id}/media [get]
func (h *MediaHandler) List(c *gin.Context) {
	id, ok := h.ParamID(c, "id")
	if !ok {
		return
	}
	media, err := h.mediaService.List(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, media)
}

// Summary godoc
// @ID           getTicketMediaSummary
// @Summary      Media usage statistics of a ticket
// @Tags         media
// @Produce      json
// @Param        id path int true "Ticket ID"
// @Success      200 {object} APIResponse[apptracker.MediaSummary]
// @Failure      403 {object} ErrorResponse
// @Router       /tickets/{id}/media/summary [get]
func (h *MediaHandler) Summary(c *gin.Context) {
	id, ok := h.ParamID(c, "id")
	if !ok {
		return
	}
	summary, err := h.mediaService.Summary(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, summary)
}

// Refresh godoc
// @ID           refreshTicketMedia
// @Summary      Queue a refresh of the ticket's wiki data
// @Tags         media
// @Produce      json
// @Param        id path int true "Ticket ID"
// @Success      202 {object} APIResponse[ScheduledResponse]
// @Security     BearerAuth
// @Router       /tickets/{id}/media/refresh [post]
func (h *MediaHandler) Refresh(c *gin.Context) {
	id, ok := h.ParamID(c, "id")
	if !ok {
		return
	}
	scheduled, err := h.mediaService.ScheduleRefresh(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Accepted(c, ScheduledResponse{Scheduled: scheduled})
}

// Get godoc
// @ID           getMediaInfo
// @Summary      Get a media item
// @Tags         media
// @Produce      json
// @Param        id path int true "Media ID"
// @Success      200 {object} APIResponse[apptracker.MediaResponse]
// @Failure      404 {object} ErrorResponse
// @Router       /mediainfo/{id} [get]
func (h *MediaHandler) Get(c *gin.Context) {
	id, ok := h.ParamID(c, "id")
	if !ok {
		return
	}
	media, err := h.mediaService.Get(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, media)
}

// CreateBulk godoc
// @ID           createMediaInfo
// @Summary      Attach wiki files to tickets
// @Description  Accepts a list of files identified by page title or page id
// @Tags         media
// @Accept       json
// @Produce      json
// @Param        request body []apptracker.CreateMediaRequest true "Media"
// @Success      201 {object} APIResponse[[]apptracker.MediaResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      403 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /mediainfo [post]
func (h *MediaHandler) CreateBulk(c *gin.Context) {
	var req []apptracker.CreateMediaRequest
	if !h.BindJSON(c, &req) {
		return
	}
	if len(req) == 0 {
		h.BadRequest(c, "At least one media item is required")
		return
	}
	media, err := h.mediaService.CreateBulk(c.Request.Context(), currentUser(c), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, media)
}

// Delete godoc
// @ID           deleteMediaInfo
// @Summary      Detach a media item
// @Tags         media
// @Param        id path int true "Media ID"
// @Success      204
// @Failure      403 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /mediainfo/{id} [delete]
func (h *MediaHandler) Delete(c *gin.Context) {
	id, ok := h.ParamID(c, "id")
	if !ok {
		return
	}
	if err := h.mediaService.Delete(c.Request.Context(), currentUser(c), id); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}
