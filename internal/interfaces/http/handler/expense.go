package handler

import (
	"github.com/gin-gonic/gin"
	apptracker "github.com/wikimedia/wikimedia-cz-tracker/internal/application/tracker"
)

// ExpenseHandler serves real and planned ticket expenses
type ExpenseHandler struct {
	BaseHandler
	expenseService *apptracker.ExpenseService
}

// NewExpenseHandler creates a new expense handler
func NewExpenseHandler(expenseService *apptracker.ExpenseService) *ExpenseHandler {
	return &ExpenseHandler{
		expenseService: expenseService,
	}
}

// ListExpeditures godoc
// @ID           listExpeditures
// @Summary      List real expenses
// @Tags         expeditures
// @Produce      json
// @Param        ticket query int false "Ticket ID"
// @Param        wage query bool false "Wage expenses only"
// @Param        paid query bool false "Paid expenses only"
// @Success      200 {object} APIResponse[[]apptracker.ExpeditureResponse]
// @Router       /expeditures [get]
func (h *ExpenseHandler) ListExpeditures(c *gin.Context) {
	var filter apptracker.ExpenseListFilter
	if !h.BindQuery(c, &filter) {
		return
	}
	items, err := h.expenseService.ListExpeditures(c.Request.Context(), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, items)
}

// GetExpediture godoc
// @ID           getExpediture
// @Summary      Get a real expense
// @Tags         expeditures
// @Produce      json
// @Param        id path int true "Expediture ID"
// @Success      200 {object} APIResponse[apptracker.ExpeditureResponse]
// @Failure      404 {object} ErrorResponse
// @Router       /expeditures/{id} [get]
func (h *ExpenseHandler) GetExpediture(c *gin.Context) {
	id, ok := h.ParamID(c, "id")
	if !ok {
		return
	}
	item, err := h.expenseService.GetExpediture(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, item)
}

// CreateExpediture godoc
// @ID           createExpediture
// @Summary      Add a real expense to a ticket
// @Description  Expenses of tickets with accepted or closed expeditures cannot be changed
// @Tags         expeditures
// @Accept       json
// @Produce      json
// @Param        request body apptracker.CreateExpeditureRequest true "Expense"
// @Success      201 {object} APIResponse[apptracker.ExpeditureResponse]
// @Failure      403 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /expeditures [post]
func (h *ExpenseHandler) CreateExpediture(c *gin.Context) {
	var req apptracker.CreateExpeditureRequest
	if !h.BindJSON(c, &req) {
		return
	}
	item, err := h.expenseService.CreateExpediture(c.Request.Context(), currentUser(c), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, item)
}

// UpdateExpediture godoc
// @ID           updateExpediture
// @Summary      Update a real expense
// @Tags         expeditures
// @Accept       json
// @Produce      json
// @Param        id path int true "Expediture ID"
// @Param        request body apptracker.UpdateExpeditureRequest true "Changed fields"
// @Success      200 {object} APIResponse[apptracker.ExpeditureResponse]
// @Failure      403 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /expeditures/{id} [patch]
func (h *ExpenseHandler) UpdateExpediture(c *gin.Context) {
	id, ok := h.ParamID(c, "id")
	if !ok {
		return
	}
	var req apptracker.UpdateExpeditureRequest
	if !h.BindJSON(c, &req) {
		return
	}
	item, err := h.expenseService.UpdateExpediture(c.Request.Context(), currentUser(c), id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, item)
}

// DeleteExpediture godoc
// @ID           deleteExpediture
// @Summary      Delete a real expense
// @Tags         expeditures
// @Param        id path int true "Expediture ID"
// @Success      204
// @Failure      403 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /expeditures/{id} [delete]
func (h *ExpenseHandler) DeleteExpediture(c *gin.Context) {
	id, ok := h.ParamID(c, "id")
	if !ok {
		return
	}
	if err := h.expenseService.DeleteExpediture(c.Request.Context(), currentUser(c), id); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}

// ListPreexpeditures lists planned expenses
// @ID           listPreexpeditures
// @Tags         preexpeditures
// @Produce      json
// @Param        ticket query int false "Ticket ID"
// @Param        wage query bool false "Wage expenses only"
// @Success      200 {object} APIResponse[[]apptracker.PreexpeditureResponse]
// @Router       /preexpeditures [get]
func (h *ExpenseHandler) ListPreexpeditures(c *gin.Context) {
	var filter apptracker.ExpenseListFilter
	if !h.BindQuery(c, &filter) {
		return
	}
	items, err := h.expenseService.ListPreexpeditures(c.Request.Context(), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, items)
}

// GetPreexpediture returns one planned expense
// @ID           getPreexpediture
// @Tags         preexpeditures
// @Produce      json
// @Param        id path int true "Preexpediture ID"
// @Success      200 {object} APIResponse[apptracker.PreexpeditureResponse]
// @Router       /preexpeditures/{id} [get]
func (h *ExpenseHandler) GetPreexpediture(c *gin.Context) {
	id, ok := h.ParamID(c, "id")
	if !ok {
		return
	}
	item, err := h.expenseService.GetPreexpediture(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, item)
}

// CreatePreexpediture adds a planned expense
// @ID           createPreexpediture
// @Tags         preexpeditures
// @Accept       json
// @Produce      json
// @Param        request body apptracker.CreatePreexpeditureRequest true "Expense"
// @Success      201 {object} APIResponse[apptracker.PreexpeditureResponse]
// @Security     BearerAuth
// @Router       /preexpeditures [post]
func (h *ExpenseHandler) CreatePreexpediture(c *gin.Context) {
	var req apptracker.CreatePreexpeditureRequest
	if !h.BindJSON(c, &req) {
		return
	}
	item, err := h.expenseService.CreatePreexpediture(c.Request.Context(), currentUser(c), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, item)
}

// UpdatePreexpediture changes a planned expense
// @ID           updatePreexpediture
// @Tags         preexpeditures
// @Accept       json
// @Produce      json
// @Param        id path int true "Preexpediture ID"
// @Param        request body apptracker.UpdatePreexpeditureRequest true "Changed fields"
// @Success      200 {object} APIResponse[apptracker.PreexpeditureResponse]
// @Security     BearerAuth
// @Router       /preexpeditures/{id} [patch]
func (h *ExpenseHandler) UpdatePreexpediture(c *gin.Context) {
	id, ok := h.ParamID(c, "id")
	if !ok {
		return
	}
	var req apptracker.UpdatePreexpeditureRequest
	if !h.BindJSON(c, &req) {
		return
	}
	item, err := h.expenseService.UpdatePreexpediture(c.Request.Context(), currentUser(c), id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, item)
}

// DeletePreexpediture removes a planned expense
// @ID           deletePreexpediture
// @Tags         preexpeditures
// @Param        id path int true "Preexpediture ID"
// @Success      204
// @Security     BearerAuth
// @Router       /preexpeditures/{id} [delete]
func (h *ExpenseHandler) DeletePreexpediture(c *gin.Context) {
	id, ok := h.ParamID(c, "id")
	if !ok {
		return
	}
	if err := h.expenseService.DeletePreexpediture(c.Request.Context(), currentUser(c), id); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}
