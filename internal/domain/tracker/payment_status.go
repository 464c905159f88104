package tracker

// PaymentStatus summarizes how much of a ticket's expeditures were paid
type PaymentStatus string

const (
	PaymentNA            PaymentStatus = "n_a"
	PaymentUnpaid        PaymentStatus = "unpaid"
	PaymentPartiallyPaid PaymentStatus = "partially_paid"
	PaymentPaid          PaymentStatus = "paid"
	// PaymentOverpaid is a valid stored value that is never computed
	PaymentOverpaid PaymentStatus = "overpaid"
)

var paymentStatusDisplay = map[PaymentStatus]string{
	PaymentNA:            "n/a",
	PaymentUnpaid:        "unpaid",
	PaymentPartiallyPaid: "partially paid",
	PaymentPaid:          "paid",
	PaymentOverpaid:      "overpaid",
}

// PaymentStatusFor derives the status from paid and total expediture counts
func PaymentStatusFor(paid, total int) PaymentStatus {
	switch {
	case total == 0:
		return PaymentNA
	case paid == 0:
		return PaymentUnpaid
	case paid < total:
		return PaymentPartiallyPaid
	default:
		return PaymentPaid
	}
}

// IsValid reports whether s is a known status
func (s PaymentStatus) IsValid() bool {
	_, ok := paymentStatusDisplay[s]
	return ok
}

// Display returns the english display name
func (s PaymentStatus) Display() string {
	if d, ok := paymentStatusDisplay[s]; ok {
		return d
	}
	return string(s)
}
