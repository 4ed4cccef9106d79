package receivable

import (
	"time"

	"github.com/shopspring/decimal"
)

// AgingBucket classifies an outstanding balance by days past due
type AgingBucket string

const (
	AgingCurrent AgingBucket = "current"
	Aging30      AgingBucket = "days30"
	Aging60      AgingBucket = "days60"
	Aging90      AgingBucket = "days90"
)

// AgeBucket maps days overdue to a bucket using strict thresholds
func AgeBucket(daysOverdue int) AgingBucket {
	switch {
	case daysOverdue > 90:
		return Aging90
	case daysOverdue > 60:
		return Aging60
	case daysOverdue > 30:
		return Aging30
	default:
		return AgingCurrent
	}
}

// DaysOverdue returns the number of whole calendar days between the due date
// and now, or 0 when the invoice is not past due. An invoice that fell due
// earlier today is past due with 0 days overdue.
func DaysOverdue(dueDate, now time.Time) int {
	if !IsPastDue(dueDate, now) {
		return 0
	}
	due := startOfDay(dueDate)
	today := startOfDay(now.In(dueDate.Location()))
	// Calendar arithmetic in UTC sidesteps DST-length days
	dueUTC := time.Date(due.Year(), due.Month(), due.Day(), 0, 0, 0, 0, time.UTC)
	todayUTC := time.Date(today.Year(), today.Month(), today.Day(), 0, 0, 0, 0, time.UTC)
	return int(todayUTC.Sub(dueUTC).Hours() / 24)
}

// Aging sums outstanding balances per bucket
type Aging struct {
	Current decimal.Decimal `json:"current"`
	Days30  decimal.Decimal `json:"days30"`
	Days60  decimal.Decimal `json:"days60"`
	Days90  decimal.Decimal `json:"days90"`
}

// NewAging returns an aging with every bucket at zero
func NewAging() Aging {
	return Aging{
		Current: decimal.Zero,
		Days30:  decimal.Zero,
		Days60:  decimal.Zero,
		Days90:  decimal.Zero,
	}
}

// Add credits amount to bucket
func (a *Aging) Add(bucket AgingBucket, amount decimal.Decimal) {
	switch bucket {
	case Aging90:
		a.Days90 = a.Days90.Add(amount)
	case Aging60:
		a.Days60 = a.Days60.Add(amount)
	case Aging30:
		a.Days30 = a.Days30.Add(amount)
	default:
		a.Current = a.Current.Add(amount)
	}
}

// Total returns the sum of all buckets
func (a Aging) Total() decimal.Decimal {
	return a.Current.Add(a.Days30).Add(a.Days60).Add(a.Days90)
}

// AgeInvoice adds the invoice's outstanding balance to the matching bucket.
// Paid, inactive and fully credited invoices are not aged.
func (a *Aging) AgeInvoice(inv *Invoice, now time.Time) {
	outstanding := inv.Outstanding()
	if outstanding.Sign() <= 0 || inv.Status == InvoiceStatusInactive {
		return
	}
	if DeriveStatus(inv.Amount, inv.PaidAmount, inv.DueDate, now) == InvoiceStatusPaid {
		return
	}
	a.Add(AgeBucket(DaysOverdue(inv.DueDate, now)), outstanding)
}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
