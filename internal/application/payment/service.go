// Package payment serves the transaction ledger and the clusters that tie
// transactions to the tickets they pay for
package payment

import (
	"context"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/wikimedia/wikimedia-cz-tracker/internal/domain/payment"
	"github.com/wikimedia/wikimedia-cz-tracker/internal/domain/shared"
	"github.com/wikimedia/wikimedia-cz-tracker/internal/domain/tracker"
	csvimport "github.com/wikimedia/wikimedia-cz-tracker/internal/infrastructure/import"
	"go.uber.org/zap"
)

// TransactionResponse is one ledger line
type TransactionResponse struct {
	ID             int64           `json:"id"`
	Date           string          `json:"date"`
	OtherParty     string          `json:"other_party"`
	OtherID        *int64          `json:"other,omitempty"`
	Amount         decimal.Decimal `json:"amount"`
	Description    string          `json:"description"`
	AccountingInfo string          `json:"accounting_info"`
	Tickets        []int64         `json:"tickets"`
	Grants         []string        `json:"grants"`
	ClusterID      *int64          `json:"cluster,omitempty"`
}

// TransactionList is the ledger with its grand total
type TransactionList struct {
	Transactions []TransactionResponse `json:"transactions"`
	Total        decimal.Decimal       `json:"total"`
}

// ClusterTicket summarises a ticket inside a cluster
type ClusterTicket struct {
	ID                  int64           `json:"id"`
	Name                string          `json:"name"`
	RequestedBy         string          `json:"requested_by"`
	AcceptedExpeditures decimal.Decimal `json:"accepted_expeditures"`
	PaidExpeditures     decimal.Decimal `json:"paid_expeditures"`
}

// ClusterResponse is the detail of a cluster
type ClusterResponse struct {
	ID                int64                 `json:"id"`
	MoreTickets       bool                  `json:"more_tickets"`
	TotalTickets      *decimal.Decimal      `json:"total_tickets"`
	TotalTransactions *decimal.Decimal      `json:"total_transactions"`
	Balance           decimal.Decimal       `json:"balance"`
	Tickets           []ClusterTicket       `json:"tickets"`
	Transactions      []TransactionResponse `json:"transactions"`
}

// ClusterLookup is the result of resolving an id that may name a cluster
// or one of its tickets
type ClusterLookup struct {
	Cluster *ClusterResponse
	// RedirectTo is set when the id was a ticket of another cluster
	RedirectTo *int64
}

// Service reads transactions and clusters
type Service struct {
	transactions payment.TransactionRepository
	clusters     payment.ClusterRepository
	tickets      tracker.TicketRepository
	currency     string
	logger       *zap.Logger
}

// NewService creates a new payment Service
func NewService(
	transactions payment.TransactionRepository,
	clusters payment.ClusterRepository,
	tickets tracker.TicketRepository,
	currency string,
	logger *zap.Logger,
) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		transactions: transactions,
		clusters:     clusters,
		tickets:      tickets,
		currency:     currency,
		logger:       logger,
	}
}

// List returns every transaction, newest first, with the total amount
func (s *Service) List(ctx context.Context) (*TransactionList, error) {
	items, err := s.transactions.FindAll(ctx)
	if err != nil {
		return nil, err
	}
	return &TransactionList{
		Transactions: toResponses(items),
		Total:        payment.SumAmounts(items),
	}, nil
}

// WriteCSV writes the ledger in the accounting export format
func (s *Service) WriteCSV(ctx context.Context, w io.Writer) error {
	items, err := s.transactions.FindAll(ctx)
	if err != nil {
		return err
	}
	cw := csvimport.NewWriter(w,
		"DATE", "OTHER PARTY", "AMOUNT "+s.currency, "DESCRIPTION", "TICKETS", "GRANTS", "ACCOUNTING INFO")
	for _, t := range items {
		ids := make([]string, len(t.TicketIDs))
		for i, id := range t.TicketIDs {
			ids[i] = strconv.FormatInt(id, 10)
		}
		cw.WriteRow(
			t.Date.Format(time.DateOnly),
			t.OtherParty(),
			t.Amount,
			t.Description,
			strings.Join(ids, " "),
			strings.Join(t.GrantShortNames, " "),
			t.AccountingInfo,
		)
	}
	return cw.Err()
}

// Cluster resolves id to a cluster. When no cluster has the id but a
// ticket does, the ticket's cluster is returned as a redirect.
func (s *Service) Cluster(ctx context.Context, id int64) (*ClusterLookup, error) {
	cluster, err := s.clusters.FindByID(ctx, id)
	if err == nil {
		resp, err := s.clusterResponse(ctx, cluster)
		if err != nil {
			return nil, err
		}
		return &ClusterLookup{Cluster: resp}, nil
	}
	if !shared.IsNotFound(err) {
		return nil, err
	}
	clusterID, err := s.clusters.FindClusterIDOfTicket(ctx, id)
	if err != nil {
		return nil, err
	}
	if clusterID == nil {
		return nil, shared.ErrNotFound.WithMessage("Ticket is not part of any cluster")
	}
	return &ClusterLookup{RedirectTo: clusterID}, nil
}

func (s *Service) clusterResponse(ctx context.Context, c *payment.Cluster) (*ClusterResponse, error) {
	resp := &ClusterResponse{
		ID:                c.ID,
		MoreTickets:       c.MoreTickets,
		TotalTickets:      c.TotalTickets,
		TotalTransactions: c.TotalTransactions,
		Balance:           c.Balance(),
		Tickets:           make([]ClusterTicket, 0, len(c.TicketIDs)),
		Transactions:      toResponses(c.Transactions),
	}
	for _, id := range c.TicketIDs {
		t, err := s.tickets.FindByID(ctx, id)
		if err != nil {
			if shared.IsNotFound(err) {
				continue
			}
			return nil, err
		}
		resp.Tickets = append(resp.Tickets, ClusterTicket{
			ID:                  t.ID,
			Name:                t.Name,
			RequestedBy:         t.RequestedBy(),
			AcceptedExpeditures: t.AcceptedExpeditures(),
			PaidExpeditures:     t.PaidExpeditures(),
		})
	}
	return resp, nil
}

func toResponses(items []*payment.Transaction) []TransactionResponse {
	out := make([]TransactionResponse, 0, len(items))
	for _, t := range items {
		grants := t.GrantShortNames
		if grants == nil {
			grants = []string{}
		}
		out = append(out, TransactionResponse{
			ID:             t.ID,
			Date:           t.Date.Format(time.DateOnly),
			OtherParty:     t.OtherParty(),
			OtherID:        t.OtherID,
			Amount:         t.Amount,
			Description:    t.Description,
			AccountingInfo: t.AccountingInfo,
			Tickets:        t.TicketIDs,
			Grants:         grants,
			ClusterID:      t.ClusterID,
		})
	}
	return out
}
