package handler

import (
	"github.com/gin-gonic/gin"
	appcomment "github.com/wikimedia/wikimedia-cz-tracker/internal/application/comment"
)

// CommentHandler serves ticket comments
type CommentHandler struct {
	BaseHandler
	commentService *appcomment.Service
}

// NewCommentHandler creates a new comment handler
func NewCommentHandler(commentService *appcomment.Service) *CommentHandler {
	return &CommentHandler{
		commentService: commentService,
	}
}

// List godoc
// @ID           listTicketComments
// @Summary      List comments of a ticket
// @Tags         comments
// @Produce      json
// @Param        id path int true "Ticket ID"
// @Success      200 {object} APIResponse[[]appcomment.CommentResponse]
// @Failure      403 {object} ErrorResponse
// @Router       /tickets/{id}/comments [get]
func (h *CommentHandler) List(c *gin.Context) {
	id, ok := h.ParamID(c, "id")
	if !ok {
		return
	}
	comments, err := h.commentService.List(c.Request.Context(), currentUser(c), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, comments)
}

// Create godoc
// @ID           createTicketComment
// @Summary      Comment on a ticket
// @Description  Mentioned users are notified and the commenter starts watching the ticket
// @Tags         comments
// @Accept       json
// @Produce      json
// @Param        id path int true "Ticket ID"
// @Param        request body appcomment.CreateCommentRequest true "Comment"
// @Success      201 {object} APIResponse[appcomment.CommentResponse]
// @Failure      403 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /tickets/{id}/comments [post]
func (h *CommentHandler) Create(c *gin.Context) {
	id, ok := h.ParamID(c, "id")
	if !ok {
		return
	}
	var req appcomment.CreateCommentRequest
	if !h.BindJSON(c, &req) {
		return
	}
	comment, err := h.commentService.Create(c.Request.Context(), currentUser(c), id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, comment)
}
