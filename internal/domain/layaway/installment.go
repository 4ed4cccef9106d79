package layaway

import (
	"time"

	"github.com/shopspring/decimal"
)

// Installment is one scheduled payment of a plan
type Installment struct {
	ID         int64
	PlanID     int64
	DueDate    time.Time
	Amount     decimal.Decimal
	Label      string
	IsPaid     bool
	PaidDate   *time.Time
	PaidAmount *decimal.Decimal
	UpdatedAt  time.Time
}

// SetPaid toggles the paid flag. Moving to paid stamps the paid date and
// amount; moving to unpaid clears them. Setting the current value again is
// a no-op and returns false.
func (i *Installment) SetPaid(paid bool, now time.Time) bool {
	if i.IsPaid == paid {
		return false
	}
	i.IsPaid = paid
	if paid {
		stamp := now
		amount := i.Amount
		i.PaidDate = &stamp
		i.PaidAmount = &amount
	} else {
		i.PaidDate = nil
		i.PaidAmount = nil
	}
	i.UpdatedAt = now
	return true
}
