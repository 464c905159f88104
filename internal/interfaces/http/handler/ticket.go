package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	apptracker "github.com/wikimedia/wikimedia-cz-tracker/internal/application/tracker"
	"github.com/wikimedia/wikimedia-cz-tracker/internal/domain/identity"
)

// TicketHandler serves tickets and their workflow actions
type TicketHandler struct {
	BaseHandler
	ticketService *apptracker.TicketService
	rowsService   *apptracker.RowsService
}

// NewTicketHandler creates a new ticket handler
func NewTicketHandler(ticketService *apptracker.TicketService, rowsService *apptracker.RowsService) *TicketHandler {
	return &TicketHandler{
		ticketService: ticketService,
		rowsService:   rowsService,
	}
}

// List godoc
// @ID           listTickets
// @Summary      List tickets
// @Description  Paginated and filterable list of tickets
// @Tags         tickets
// @Produce      json
// @Param        search query string false "Name or description fragment"
// @Param        topic query int false "Topic ID"
// @Param        grant query int false "Grant ID"
// @Param        subtopic query int false "Subtopic ID"
// @Param        requested_user query int false "Requester user ID"
// @Param        payment_status query string false "Payment status" Enums(n_a, unpaid, partially_paid, paid, overpaid)
// @Param        is_completed query bool false "Only completed or open tickets"
// @Param        page query int false "Page number" default(1)
// @Param        page_size query int false "Page size" default(25) maximum(500)
// @Param        ordering query string false "Sort order" Enums(id, -id, updated, -updated, event_date, -event_date, name, -name)
// @Success      200 {object} APIResponse[[]apptracker.TicketResponse]
// @Failure      400 {object} ErrorResponse
// @Router       /tickets [get]
func (h *TicketHandler) List(c *gin.Context) {
	var filter apptracker.TicketListFilter
	if !h.BindQuery(c, &filter) {
		return
	}
	tickets, total, err := h.ticketService.List(c.Request.Context(), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	page, pageSize := filter.Page, filter.PageSize
	if page == 0 {
		page = 1
	}
	if pageSize == 0 {
		pageSize = 25
	}
	h.SuccessWithMeta(c, tickets, total, page, pageSize)
}

// Get godoc
// @ID           getTicket
// @Summary      Get a ticket
// @Tags         tickets
// @Produce      json
// @Param        id path int true "Ticket ID"
// @Success      200 {object} APIResponse[apptracker.TicketResponse]
// @Failure      404 {object} ErrorResponse
// @Router       /tickets/{id} [get]
func (h *TicketHandler) Get(c *gin.Context) {
	id, ok := h.ParamID(c, "id")
	if !ok {
		return
	}
	ticket, err := h.ticketService.Get(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, ticket)
}

// Create godoc
// @ID           createTicket
// @Summary      Create a ticket
// @Description  Creates a ticket requested by the caller. Admin fields are ignored for non-staff users.
// @Tags         tickets
// @Accept       json
// @Produce      json
// @Param        request body apptracker.CreateTicketRequest true "Ticket"
// @Success      201 {object} APIResponse[apptracker.TicketResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      401 {object} ErrorResponse
// @Failure      403 {object} ErrorResponse
// @Failure      422 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /tickets [post]
func (h *TicketHandler) Create(c *gin.Context) {
	var req apptracker.CreateTicketRequest
	if !h.BindJSON(c, &req) {
		return
	}
	ticket, err := h.ticketService.Create(c.Request.Context(), currentUser(c), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, ticket)
}

// Update godoc
// @ID           updateTicket
// @Summary      Update a ticket
// @Tags         tickets
// @Accept       json
// @Produce      json
// @Param        id path int true "Ticket ID"
// @Param        request body apptracker.UpdateTicketRequest true "Changed fields"
// @Success      200 {object} APIResponse[apptracker.TicketResponse]
// @Failure      403 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Failure      422 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /tickets/{id} [patch]
func (h *TicketHandler) Update(c *gin.Context) {
	id, ok := h.ParamID(c, "id")
	if !ok {
		return
	}
	var req apptracker.UpdateTicketRequest
	if !h.BindJSON(c, &req) {
		return
	}
	ticket, err := h.ticketService.Update(c.Request.Context(), currentUser(c), id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, ticket)
}

// Delete godoc
// @ID           deleteTicket
// @Summary      Delete a ticket
// @Tags         tickets
// @Param        id path int true "Ticket ID"
// @Success      204
// @Failure      403 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /tickets/{id} [delete]
func (h *TicketHandler) Delete(c *gin.Context) {
	id, ok := h.ParamID(c, "id")
	if !ok {
		return
	}
	if err := h.ticketService.Delete(c.Request.Context(), currentUser(c), id); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}

// AddAck godoc
// @ID           addTicketAck
// @Summary      Add an ack to a ticket
// @Description  Requesters may add user acks, topic admins and supervisors the admin ones
// @Tags         tickets
// @Accept       json
// @Produce      json
// @Param        id path int true "Ticket ID"
// @Param        request body apptracker.AddAckRequest true "Ack"
// @Success      201 {object} APIResponse[apptracker.AckResult]
// @Failure      403 {object} ErrorResponse
// @Failure      409 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /tickets/{id}/acks [post]
func (h *TicketHandler) AddAck(c *gin.Context) {
	id, ok := h.ParamID(c, "id")
	if !ok {
		return
	}
	var req apptracker.AddAckRequest
	if !h.BindJSON(c, &req) {
		return
	}
	result, err := h.ticketService.AddAck(c.Request.Context(), currentUser(c), id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, result)
}

// RemoveAck godoc
// @ID           removeTicketAck
// @Summary      Remove an ack from a ticket
// @Tags         tickets
// @Produce      json
// @Param        id path int true "Ticket ID"
// @Param        ack_id path int true "Ack ID"
// @Success      200 {object} APIResponse[apptracker.TicketResponse]
// @Failure      403 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /tickets/{id}/acks/{ack_id} [delete]
func (h *TicketHandler) RemoveAck(c *gin.Context) {
	id, ok := h.ParamID(c, "id")
	if !ok {
		return
	}
	ackID, ok := h.ParamID(c, "ack_id")
	if !ok {
		return
	}
	ticket, err := h.ticketService.RemoveAck(c.Request.Context(), currentUser(c), id, ackID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, ticket)
}

// CopyPreexpeditures godoc
// @ID           copyTicketPreexpeditures
// @Summary      Copy planned expenses into real ones
// @Tags         tickets
// @Produce      json
// @Param        id path int true "Ticket ID"
// @Success      200 {object} APIResponse[apptracker.TicketResponse]
// @Failure      403 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /tickets/{id}/copy-preexpeditures [post]
func (h *TicketHandler) CopyPreexpeditures(c *gin.Context) {
	id, ok := h.ParamID(c, "id")
	if !ok {
		return
	}
	ticket, err := h.ticketService.CopyPreexpeditures(c.Request.Context(), currentUser(c), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, ticket)
}

// SignState godoc
// @ID           getTicketSignState
// @Summary      Whether the caller signed the statutory declaration
// @Tags         tickets
// @Produce      json
// @Param        id path int true "Ticket ID"
// @Success      200 {object} APIResponse[apptracker.SignStatus]
// @Failure      403 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /tickets/{id}/sign [get]
func (h *TicketHandler) SignState(c *gin.Context) {
	id, ok := h.ParamID(c, "id")
	if !ok {
		return
	}
	status, err := h.ticketService.SignState(c.Request.Context(), currentUser(c), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, status)
}

// Sign godoc
// @ID           signTicket
// @Summary      Sign or withdraw the statutory declaration
// @Tags         tickets
// @Accept       json
// @Produce      json
// @Param        id path int true "Ticket ID"
// @Param        request body apptracker.SignRequest true "Declaration"
// @Success      200 {object} APIResponse[apptracker.SignStatus]
// @Failure      403 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /tickets/{id}/sign [post]
func (h *TicketHandler) Sign(c *gin.Context) {
	id, ok := h.ParamID(c, "id")
	if !ok {
		return
	}
	var req apptracker.SignRequest
	if !h.BindJSON(c, &req) {
		return
	}
	status, err := h.ticketService.Sign(c.Request.Context(), currentUser(c), id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, status)
}

// Signatures godoc
// @ID           listTicketSignatures
// @Summary      List statutory declaration signatures of a ticket
// @Tags         tickets
// @Produce      json
// @Param        id path int true "Ticket ID"
// @Success      200 {object} APIResponse[[]apptracker.SignatureResponse]
// @Router       /tickets/{id}/signatures [get]
func (h *TicketHandler) Signatures(c *gin.Context) {
	id, ok := h.ParamID(c, "id")
	if !ok {
		return
	}
	signatures, err := h.ticketService.Signatures(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, signatures)
}

// RowsQuery selects archived or active rows
type RowsQuery struct {
	Archived bool `form:"archived"`
}

// Rows godoc
// @ID           getTicketRows
// @Summary      Ticket table rows
// @Description  Cached, localized rows of the ticket table. The body is served as stored.
// @Tags         tickets
// @Produce      json
// @Param        lang path string true "Language code"
// @Param        archived query bool false "Archived tickets instead of active ones"
// @Success      200 {object} apptracker.TicketRow
// @Failure      404 {object} ErrorResponse
// @Router       /tickets/json/{lang} [get]
func (h *TicketHandler) Rows(c *gin.Context) {
	lang := c.Param("lang")
	if !identity.IsSupportedLanguage(lang) {
		h.NotFound(c, "Unknown language")
		return
	}
	var query RowsQuery
	if !h.BindQuery(c, &query) {
		return
	}
	body, err := h.rowsService.Rows(c.Request.Context(), lang, query.Archived)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	c.Data(http.StatusOK, "application/json; charset=utf-8", body)
}
