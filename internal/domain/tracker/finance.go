package tracker

import "github.com/shopspring/decimal"

// FinanceStatus sums accepted amounts of tickets by payment state
type FinanceStatus struct {
	// Fuzzy marks sums that involve clusters spanning several tickets
	Fuzzy    bool            `json:"fuzzy"`
	Unpaid   decimal.Decimal `json:"unpaid"`
	Paid     decimal.Decimal `json:"paid"`
	Overpaid decimal.Decimal `json:"overpaid"`
}

// NewFinanceStatus returns an empty status
func NewFinanceStatus() *FinanceStatus {
	return &FinanceStatus{Unpaid: decimal.Zero, Paid: decimal.Zero, Overpaid: decimal.Zero}
}

// AddTicket adds a ticket's accepted amounts to the matching bucket
func (f *FinanceStatus) AddTicket(t *Ticket) {
	switch t.PaymentStatus {
	case PaymentUnpaid:
		f.Unpaid = f.Unpaid.Add(t.AcceptedExpeditures())
	case PaymentPaid:
		f.Paid = f.Paid.Add(t.AcceptedExpeditures())
	case PaymentPartiallyPaid:
		if t.RatingPercentage == nil {
			return
		}
		f.Paid = f.Paid.Add(rate(t.paidSum(true, false), *t.RatingPercentage))
		f.Unpaid = f.Unpaid.Add(rate(t.paidSum(false, false), *t.RatingPercentage))
	}
}

// AddFinance merges another status into f
func (f *FinanceStatus) AddFinance(other *FinanceStatus) {
	f.Fuzzy = f.Fuzzy || other.Fuzzy
	f.Unpaid = f.Unpaid.Add(other.Unpaid)
	f.Paid = f.Paid.Add(other.Paid)
	f.Overpaid = f.Overpaid.Add(other.Overpaid)
}

// Equal compares two statuses by value
func (f *FinanceStatus) Equal(other *FinanceStatus) bool {
	return f.Fuzzy == other.Fuzzy &&
		f.Unpaid.Equal(other.Unpaid) &&
		f.Paid.Equal(other.Paid) &&
		f.Overpaid.Equal(other.Overpaid)
}

// TopicFinance is one row of the finance matrix
type TopicFinance struct {
	Topic   *Topic
	Finance *FinanceStatus
}

// GrantFinance is the finance matrix block of one grant
type GrantFinance struct {
	Grant   *Grant
	Topics  []TopicFinance
	Finance *FinanceStatus
}

// BuildGrantFinance computes per-topic statuses and their grant total.
// ticketsByTopic holds fully loaded tickets keyed by topic id.
func BuildGrantFinance(grant *Grant, topics []*Topic, ticketsByTopic map[int64][]*Ticket) GrantFinance {
	out := GrantFinance{Grant: grant, Finance: NewFinanceStatus()}
	for _, topic := range topics {
		tf := NewFinanceStatus()
		for _, t := range ticketsByTopic[topic.ID] {
			tf.AddTicket(t)
		}
		out.Finance.AddFinance(tf)
		out.Topics = append(out.Topics, TopicFinance{Topic: topic, Finance: tf})
	}
	return out
}
