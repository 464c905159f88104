package handler

import (
	"github.com/gin-gonic/gin"
	apptracker "github.com/wikimedia/wikimedia-cz-tracker/internal/application/tracker"
)

// GrantHandler serves the grant tree: grants, topics and subtopics
type GrantHandler struct {
	BaseHandler
	grantService *apptracker.GrantService
}

// NewGrantHandler creates a new grant handler
func NewGrantHandler(grantService *apptracker.GrantService) *GrantHandler {
	return &GrantHandler{
		grantService: grantService,
	}
}

// ListGrants godoc
// @ID           listGrants
// @Summary      List grants
// @Tags         grants
// @Produce      json
// @Success      200 {object} APIResponse[[]apptracker.GrantResponse]
// @Router       /grants [get]
func (h *GrantHandler) ListGrants(c *gin.Context) {
	grants, err := h.grantService.ListGrants(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, grants)
}

// GetGrant godoc
// @ID           getGrant
// @Summary      Get a grant with its ticket summary
// @Tags         grants
// @Produce      json
// @Param        id path int true "Grant ID"
// @Success      200 {object} APIResponse[apptracker.GrantResponse]
// @Failure      404 {object} ErrorResponse
// @Router       /grants/{id} [get]
func (h *GrantHandler) GetGrant(c *gin.Context) {
	id, ok := h.ParamID(c, "id")
	if !ok {
		return
	}
	grant, err := h.grantService.GetGrant(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, grant)
}

// GetGrantBySlug godoc
// @ID           getGrantBySlug
// @Summary      Get a grant by slug
// @Tags         grants
// @Produce      json
// @Param        slug path string true "Grant slug"
// @Success      200 {object} APIResponse[apptracker.GrantResponse]
// @Failure      404 {object} ErrorResponse
// @Router       /grants/by-slug/{slug} [get]
func (h *GrantHandler) GetGrantBySlug(c *gin.Context) {
	grant, err := h.grantService.GetGrantBySlug(c.Request.Context(), c.Param("slug"))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, grant)
}

// CreateGrant godoc
// @ID           createGrant
// @Summary      Create a grant
// @Tags         grants
// @Accept       json
// @Produce      json
// @Param        request body apptracker.GrantRequest true "Grant"
// @Success      201 {object} APIResponse[apptracker.GrantResponse]
// @Failure      403 {object} ErrorResponse
// @Failure      409 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /grants [post]
func (h *GrantHandler) CreateGrant(c *gin.Context) {
	var req apptracker.GrantRequest
	if !h.BindJSON(c, &req) {
		return
	}
	grant, err := h.grantService.CreateGrant(c.Request.Context(), currentUser(c), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, grant)
}

// UpdateGrant godoc
// @ID           updateGrant
// @Summary      Replace a grant
// @Tags         grants
// @Accept       json
// @Produce      json
// @Param        id path int true "Grant ID"
// @Param        request body apptracker.GrantRequest true "Grant"
// @Success      200 {object} APIResponse[apptracker.GrantResponse]
// @Failure      403 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /grants/{id} [put]
func (h *GrantHandler) UpdateGrant(c *gin.Context) {
	id, ok := h.ParamID(c, "id")
	if !ok {
		return
	}
	var req apptracker.GrantRequest
	if !h.BindJSON(c, &req) {
		return
	}
	grant, err := h.grantService.UpdateGrant(c.Request.Context(), currentUser(c), id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, grant)
}

// DeleteGrant godoc
// @ID           deleteGrant
// @Summary      Delete a grant without topics
// @Tags         grants
// @Param        id path int true "Grant ID"
// @Success      204
// @Failure      403 {object} ErrorResponse
// @Failure      409 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /grants/{id} [delete]
func (h *GrantHandler) DeleteGrant(c *gin.Context) {
	id, ok := h.ParamID(c, "id")
	if !ok {
		return
	}
	if err := h.grantService.DeleteGrant(c.Request.Context(), currentUser(c), id); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}

// ListTopics godoc
// @ID           listTopics
// @Summary      List topics with their subtopics
// @Tags         topics
// @Produce      json
// @Param        grant query int false "Grant ID"
// @Param        open_for_tickets query bool false "Only topics accepting tickets"
// @Success      200 {object} APIResponse[[]apptracker.TopicResponse]
// @Router       /topics [get]
func (h *GrantHandler) ListTopics(c *gin.Context) {
	var filter apptracker.TopicListFilter
	if !h.BindQuery(c, &filter) {
		return
	}
	topics, err := h.grantService.ListTopics(c.Request.Context(), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, topics)
}

// GetTopic godoc
// @ID           getTopic
// @Summary      Get a topic with its ticket summary
// @Tags         topics
// @Produce      json
// @Param        id path int true "Topic ID"
// @Success      200 {object} APIResponse[apptracker.TopicResponse]
// @Failure      404 {object} ErrorResponse
// @Router       /topics/{id} [get]
func (h *GrantHandler) GetTopic(c *gin.Context) {
	id, ok := h.ParamID(c, "id")
	if !ok {
		return
	}
	topic, err := h.grantService.GetTopic(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, topic)
}

// CreateTopic godoc
// @ID           createTopic
// @Summary      Create a topic
// @Tags         topics
// @Accept       json
// @Produce      json
// @Param        request body apptracker.TopicRequest true "Topic"
// @Success      201 {object} APIResponse[apptracker.TopicResponse]
// @Failure      403 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /topics [post]
func (h *GrantHandler) CreateTopic(c *gin.Context) {
	var req apptracker.TopicRequest
	if !h.BindJSON(c, &req) {
		return
	}
	topic, err := h.grantService.CreateTopic(c.Request.Context(), currentUser(c), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, topic)
}

// UpdateTopic godoc
// @ID           updateTopic
// @Summary      Replace a topic
// @Tags         topics
// @Accept       json
// @Produce      json
// @Param        id path int true "Topic ID"
// @Param        request body apptracker.TopicRequest true "Topic"
// @Success      200 {object} APIResponse[apptracker.TopicResponse]
// @Failure      403 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /topics/{id} [put]
func (h *GrantHandler) UpdateTopic(c *gin.Context) {
	id, ok := h.ParamID(c, "id")
	if !ok {
		return
	}
	var req apptracker.TopicRequest
	if !h.BindJSON(c, &req) {
		return
	}
	topic, err := h.grantService.UpdateTopic(c.Request.Context(), currentUser(c), id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, topic)
}

// DeleteTopic godoc
// @ID           deleteTopic
// @Summary      Delete a topic without tickets
// @Tags         topics
// @Param        id path int true "Topic ID"
// @Success      204
// @Failure      403 {object} ErrorResponse
// @Failure      409 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /topics/{id} [delete]
func (h *GrantHandler) DeleteTopic(c *gin.Context) {
	id, ok := h.ParamID(c, "id")
	if !ok {
		return
	}
	if err := h.grantService.DeleteTopic(c.Request.Context(), currentUser(c), id); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}

// ListSubtopicsQuery narrows the subtopic list
type ListSubtopicsQuery struct {
	TopicID *int64 `form:"topic"`
}

// ListSubtopics godoc
// @ID           listSubtopics
// @Summary      List subtopics
// @Tags         subtopics
// @Produce      json
// @Param        topic query int false "Topic ID"
// @Success      200 {object} APIResponse[[]apptracker.SubtopicResponse]
// @Router       /subtopics [get]
func (h *GrantHandler) ListSubtopics(c *gin.Context) {
	var query ListSubtopicsQuery
	if !h.BindQuery(c, &query) {
		return
	}
	subtopics, err := h.grantService.ListSubtopics(c.Request.Context(), query.TopicID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, subtopics)
}

// GetSubtopic godoc
// @ID           getSubtopic
// @Summary      Get a subtopic
// @Tags         subtopics
// @Produce      json
// @Param        id path int true "Subtopic ID"
// @Success      200 {object} APIResponse[apptracker.SubtopicResponse]
// @Failure      404 {object} ErrorResponse
// @Router       /subtopics/{id} [get]
func (h *GrantHandler) GetSubtopic(c *gin.Context) {
	id, ok := h.ParamID(c, "id")
	if !ok {
		return
	}
	subtopic, err := h.grantService.GetSubtopic(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, subtopic)
}

// CreateSubtopic creates a subtopic under a topic the caller administers
// @ID           createSubtopic
// @Tags         subtopics
// @Accept       json
// @Produce      json
// @Param        request body apptracker.SubtopicRequest true "Subtopic"
// @Success      201 {object} APIResponse[apptracker.SubtopicResponse]
// @Security     BearerAuth
// @Router       /subtopics [post]
func (h *GrantHandler) CreateSubtopic(c *gin.Context) {
	var req apptracker.SubtopicRequest
	if !h.BindJSON(c, &req) {
		return
	}
	subtopic, err := h.grantService.CreateSubtopic(c.Request.Context(), currentUser(c), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, subtopic)
}

// UpdateSubtopic replaces a subtopic
// @ID           updateSubtopic
// @Tags         subtopics
// @Accept       json
// @Produce      json
// @Param        id path int true "Subtopic ID"
// @Param        request body apptracker.SubtopicRequest true "Subtopic"
// @Success      200 {object} APIResponse[apptracker.SubtopicResponse]
// @Security     BearerAuth
// @Router       /subtopics/{id} [put]
func (h *GrantHandler) UpdateSubtopic(c *gin.Context) {
	id, ok := h.ParamID(c, "id")
	if !ok {
		return
	}
	var req apptracker.SubtopicRequest
	if !h.BindJSON(c, &req) {
		return
	}
	subtopic, err := h.grantService.UpdateSubtopic(c.Request.Context(), currentUser(c), id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, subtopic)
}

// DeleteSubtopic removes a subtopic
// @ID           deleteSubtopic
// @Tags         subtopics
// @Param        id path int true "Subtopic ID"
// @Success      204
// @Security     BearerAuth
// @Router       /subtopics/{id} [delete]
func (h *GrantHandler) DeleteSubtopic(c *gin.Context) {
	id, ok := h.ParamID(c, "id")
	if !ok {
		return
	}
	if err := h.grantService.DeleteSubtopic(c.Request.Context(), currentUser(c), id); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}

// Finance godoc
// @ID           getFinance
// @Summary      Paid and unpaid totals per grant and topic
// @Tags         finance
// @Produce      json
// @Success      200 {object} APIResponse[apptracker.FinanceResponse]
// @Router       /finance [get]
func (h *GrantHandler) Finance(c *gin.Context) {
	finance, err := h.grantService.Finance(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, finance)
}
