package tracker

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Expediture is a real expense attached to a ticket
type Expediture struct {
	ID             int64
	TicketID       int64
	Description    string
	Amount         decimal.Decimal
	AccountingInfo string
	Paid           bool
	Wage           bool
	Created        time.Time
}

// NewExpediture creates a validated expediture
func NewExpediture(ticketID int64, description string, amount decimal.Decimal, wage bool) (*Expediture, error) {
	if err := validateExpense(description, amount); err != nil {
		return nil, err
	}
	return &Expediture{
		TicketID:    ticketID,
		Description: strings.TrimSpace(description),
		Amount:      amount.Round(2),
		Wage:        wage,
		Created:     time.Now(),
	}, nil
}

// Label renders "description (amount currency)"
func (e *Expediture) Label(currency string) string {
	return expenseLabel(e.Description, e.Amount, currency)
}

// Preexpediture is a planned expense attached to a ticket
type Preexpediture struct {
	ID          int64
	TicketID    int64
	Description string
	Amount      decimal.Decimal
	Wage        bool
	Created     time.Time
}

// NewPreexpediture creates a validated preexpediture
func NewPreexpediture(ticketID int64, description string, amount decimal.Decimal, wage bool) (*Preexpediture, error) {
	if err := validateExpense(description, amount); err != nil {
		return nil, err
	}
	return &Preexpediture{
		TicketID:    ticketID,
		Description: strings.TrimSpace(description),
		Amount:      amount.Round(2),
		Wage:        wage,
		Created:     time.Now(),
	}, nil
}

// Label renders "description (amount currency)"
func (p *Preexpediture) Label(currency string) string {
	return expenseLabel(p.Description, p.Amount, currency)
}

// ToExpediture copies a planned expense into a real one
func (p *Preexpediture) ToExpediture(ticketID int64) *Expediture {
	return &Expediture{
		TicketID:    ticketID,
		Description: p.Description,
		Amount:      p.Amount,
		Wage:        p.Wage,
		Created:     time.Now(),
	}
}

var maxExpenseAmount = decimal.RequireFromString("999999.99")

func validateExpense(description string, amount decimal.Decimal) error {
	description = strings.TrimSpace(description)
	if description == "" || len([]rune(description)) > 255 {
		return ErrInvalidTicket.WithMessage("Expense description must be 1 to 255 characters")
	}
	if amount.Abs().GreaterThan(maxExpenseAmount) {
		return ErrInvalidTicket.WithMessage("Expense amount is out of range")
	}
	return nil
}

func expenseLabel(description string, amount decimal.Decimal, currency string) string {
	return fmt.Sprintf("%s (%s %s)", description, amount.StringFixed(2), currency)
}
