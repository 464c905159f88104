package handler

import (
	"bytes"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	apppayment "github.com/wikimedia/wikimedia-cz-tracker/internal/application/payment"
)

// PaymentHandler serves the transaction ledger and payment clusters
type PaymentHandler struct {
	BaseHandler
	paymentService *apppayment.Service
}

// NewPaymentHandler creates a new payment handler
func NewPaymentHandler(paymentService *apppayment.Service) *PaymentHandler {
	return &PaymentHandler{
		paymentService: paymentService,
	}
}

// ListTransactions godoc
// @ID           listTransactions
// @Summary      List transactions
// @Description  Every transaction, newest first, with the grand total
// @Tags         transactions
// @Produce      json
// @Success      200 {object} APIResponse[apppayment.TransactionList]
// @Router       /transactions [get]
func (h *PaymentHandler) ListTransactions(c *gin.Context) {
	list, err := h.paymentService.List(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, list)
}

// TransactionsCSV godoc
// @ID           exportTransactions
// @Summary      Transactions as CSV
// @Tags         transactions
// @Produce      text/csv
// @Success      200 {file} binary
// @Router       /transactions/csv [get]
func (h *PaymentHandler) TransactionsCSV(c *gin.Context) {
	h.writeCSV(c, "transactions.csv", func(buf *bytes.Buffer) error {
		return h.paymentService.WriteCSV(c.Request.Context(), buf)
	})
}

// GetCluster godoc
// @ID           getCluster
// @Summary      Get a payment cluster
// @Description  The id may name any ticket of a cluster. Ids that are not the cluster id redirect to it.
// @Tags         clusters
// @Produce      json
// @Param        id path int true "Cluster or ticket ID"
// @Success      200 {object} APIResponse[apppayment.ClusterResponse]
// @Success      302
// @Failure      404 {object} ErrorResponse
// @Router       /clusters/{id} [get]
func (h *PaymentHandler) GetCluster(c *gin.Context) {
	id, ok := h.ParamID(c, "id")
	if !ok {
		return
	}
	lookup, err := h.paymentService.Cluster(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	if lookup.RedirectTo != nil {
		c.Redirect(http.StatusFound, clusterPath(c, *lookup.RedirectTo))
		return
	}
	h.Success(c, lookup.Cluster)
}

// clusterPath swaps the id segment of the current route
func clusterPath(c *gin.Context, id int64) string {
	path := c.Request.URL.Path
	current := c.Param("id")
	return path[:len(path)-len(current)] + strconv.FormatInt(id, 10)
}
