package payment

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/wikimedia/wikimedia-cz-tracker/internal/domain/shared"
)

// Transaction is one payment to (positive) or from (negative) a user
type Transaction struct {
	ID              int64
	Date            time.Time
	OtherID         *int64
	Other           string // username of OtherID, filled by the repository
	OtherText       string
	Amount          decimal.Decimal
	Description     string
	AccountingInfo  string
	TicketIDs       []int64
	GrantShortNames []string // grants of the related tickets, filled by the repository
	ClusterID       *int64
	Created         time.Time
}

// NewTransaction creates a validated transaction
func NewTransaction(date time.Time, amount decimal.Decimal, description string) (*Transaction, error) {
	description = strings.TrimSpace(description)
	if description == "" || len([]rune(description)) > 255 {
		return nil, shared.ErrInvalidInput.WithMessage("Transaction description must be 1 to 255 characters")
	}
	return &Transaction{
		Date:        date,
		Amount:      amount.Round(2),
		Description: description,
		TicketIDs:   []int64{},
		Created:     time.Now(),
	}, nil
}

// OtherParty returns the counterparty username or free text
func (t *Transaction) OtherParty() string {
	if t.OtherID != nil {
		return t.Other
	}
	return t.OtherText
}

func (t *Transaction) String() string {
	out := fmt.Sprintf("%s, %s", t.Date.Format("2006-01-02"), t.Amount.StringFixed(2))
	if t.Description != "" {
		out += ": " + t.Description
	}
	return out
}

// SumAmounts totals the amount of transactions
func SumAmounts(items []*Transaction) decimal.Decimal {
	total := decimal.Zero
	for _, t := range items {
		total = total.Add(t.Amount)
	}
	return total
}
