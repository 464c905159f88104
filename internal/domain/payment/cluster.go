package payment

import "github.com/shopspring/decimal"

// Cluster groups tickets and transactions that pay for each other. Its id
// is the id of its lowest-numbered ticket.
type Cluster struct {
	ID                int64
	MoreTickets       bool
	TotalTickets      *decimal.Decimal
	TotalTransactions *decimal.Decimal
	TicketIDs         []int64
	Transactions      []*Transaction
}

// Balance is transactions minus accepted ticket amounts; zero when either
// total is unknown
func (c *Cluster) Balance() decimal.Decimal {
	if c.TotalTickets == nil || c.TotalTransactions == nil {
		return decimal.Zero
	}
	return c.TotalTransactions.Sub(*c.TotalTickets)
}
