package tracker

import "github.com/shopspring/decimal"

// Aggregate holds the summary numbers shown for a topic, subtopic or grant
type Aggregate struct {
	ExpeditureCount         int                     `json:"expeditures_count"`
	ExpeditureAmount        decimal.Decimal         `json:"expeditures_amount"`
	PreexpeditureCount      int                     `json:"preexpeditures_count"`
	PreexpeditureAmount     decimal.Decimal         `json:"preexpeditures_amount"`
	AcceptedExpeditures     decimal.Decimal         `json:"accepted_expeditures"`
	TicketsPerPaymentStatus map[PaymentStatus]int64 `json:"tickets_per_payment_status"`
	PaidWages               decimal.Decimal         `json:"paid_wages"`
	PaidTogether            decimal.Decimal         `json:"paid_together"`
	MediaCount              int64                   `json:"media_count"`
	TotalTickets            int64                   `json:"total_tickets"`
}

// NewAggregate returns a zeroed aggregate
func NewAggregate() *Aggregate {
	return &Aggregate{
		ExpeditureAmount:        decimal.Zero,
		PreexpeditureAmount:     decimal.Zero,
		AcceptedExpeditures:     decimal.Zero,
		TicketsPerPaymentStatus: map[PaymentStatus]int64{},
		PaidWages:               decimal.Zero,
		PaidTogether:            decimal.Zero,
	}
}

// AddTicket folds one fully loaded ticket into the aggregate
func (a *Aggregate) AddTicket(t *Ticket) {
	ec, ea := t.ExpeditureTotals()
	pc, pa := t.PreexpeditureTotals()
	a.ExpeditureCount += ec
	a.ExpeditureAmount = a.ExpeditureAmount.Add(ea)
	a.PreexpeditureCount += pc
	a.PreexpeditureAmount = a.PreexpeditureAmount.Add(pa)
	if t.RatingPercentage != nil && *t.RatingPercentage > 0 {
		a.AcceptedExpeditures = a.AcceptedExpeditures.Add(t.AcceptedExpeditures())
	}
	a.TicketsPerPaymentStatus[t.PaymentStatus]++
	a.PaidWages = a.PaidWages.Add(t.PaidWages())
	a.PaidTogether = a.PaidTogether.Add(t.PaidExpeditures())
	a.MediaCount += t.MediaCount
	a.TotalTickets++
}

// Merge adds another aggregate into a
func (a *Aggregate) Merge(other *Aggregate) {
	a.ExpeditureCount += other.ExpeditureCount
	a.ExpeditureAmount = a.ExpeditureAmount.Add(other.ExpeditureAmount)
	a.PreexpeditureCount += other.PreexpeditureCount
	a.PreexpeditureAmount = a.PreexpeditureAmount.Add(other.PreexpeditureAmount)
	a.AcceptedExpeditures = a.AcceptedExpeditures.Add(other.AcceptedExpeditures)
	for status, n := range other.TicketsPerPaymentStatus {
		a.TicketsPerPaymentStatus[status] += n
	}
	a.PaidWages = a.PaidWages.Add(other.PaidWages)
	a.PaidTogether = a.PaidTogether.Add(other.PaidTogether)
	a.MediaCount += other.MediaCount
	a.TotalTickets += other.TotalTickets
}

// AggregateTickets builds an aggregate over tickets
func AggregateTickets(tickets []*Ticket) *Aggregate {
	a := NewAggregate()
	for _, t := range tickets {
		a.AddTicket(t)
	}
	return a
}
