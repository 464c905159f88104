package handler

import (
	"github.com/gin-gonic/gin"
	appnotification "github.com/wikimedia/wikimedia-cz-tracker/internal/application/notification"
	"github.com/wikimedia/wikimedia-cz-tracker/internal/domain/notification"
)

// WatchHandler serves the watch settings of tickets, topics and grants
type WatchHandler struct {
	BaseHandler
	watchService *appnotification.WatchService
}

// NewWatchHandler creates a new watch handler
func NewWatchHandler(watchService *appnotification.WatchService) *WatchHandler {
	return &WatchHandler{
		watchService: watchService,
	}
}

// WatchRequest lists the notification types to follow. An empty list
// unfollows the object.
type WatchRequest struct {
	Types []notification.Type `json:"types"`
}

// State returns the watch form of one kind of object
// @ID           getWatchState
// @Summary      Watch settings of the caller
// @Tags         watch
// @Produce      json
// @Param        id path int true "Object ID"
// @Success      200 {object} APIResponse[[]appnotification.WatchItem]
// @Security     BearerAuth
// @Router       /tickets/{id}/watch [get]
// @Router       /topics/{id}/watch [get]
// @Router       /grants/{id}/watch [get]
func (h *WatchHandler) State(kind notification.WatchedKind) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := h.ParamID(c, "id")
		if !ok {
			return
		}
		items, err := h.watchService.WatchState(c.Request.Context(), currentUser(c), notification.ObjectRef{Kind: kind, ID: id})
		if err != nil {
			h.HandleError(c, err)
			return
		}
		h.Success(c, items)
	}
}

// Set replaces the caller's watch settings of one kind of object
// @ID           setWatchState
// @Summary      Change watch settings
// @Tags         watch
// @Accept       json
// @Produce      json
// @Param        id path int true "Object ID"
// @Param        request body WatchRequest true "Followed types"
// @Success      200 {object} APIResponse[[]appnotification.WatchItem]
// @Failure      400 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /tickets/{id}/watch [post]
// @Router       /topics/{id}/watch [post]
// @Router       /grants/{id}/watch [post]
func (h *WatchHandler) Set(kind notification.WatchedKind) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := h.ParamID(c, "id")
		if !ok {
			return
		}
		var req WatchRequest
		if !h.BindJSON(c, &req) {
			return
		}
		ctx := c.Request.Context()
		user := currentUser(c)
		ref := notification.ObjectRef{Kind: kind, ID: id}
		if err := h.watchService.SetWatches(ctx, user, ref, req.Types); err != nil {
			h.HandleError(c, err)
			return
		}
		items, err := h.watchService.WatchState(ctx, user, ref)
		if err != nil {
			h.HandleError(c, err)
			return
		}
		h.Success(c, items)
	}
}
