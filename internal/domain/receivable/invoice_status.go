package receivable

import (
	"time"

	"github.com/shopspring/decimal"
)

// InvoiceStatus is the lifecycle status of an invoice
type InvoiceStatus string

const (
	InvoiceStatusPending  InvoiceStatus = "pending"
	InvoiceStatusPartial  InvoiceStatus = "partial"
	InvoiceStatusOverdue  InvoiceStatus = "overdue"
	InvoiceStatusPaid     InvoiceStatus = "paid"
	InvoiceStatusInactive InvoiceStatus = "inactive"
)

// IsValid checks if the status is a known value
func (s InvoiceStatus) IsValid() bool {
	switch s {
	case InvoiceStatusPending, InvoiceStatusPartial, InvoiceStatusOverdue,
		InvoiceStatusPaid, InvoiceStatusInactive:
		return true
	}
	return false
}

func (s InvoiceStatus) String() string {
	return string(s)
}

// DeriveStatus computes the status of an active invoice.
//
// Paid and partial are decided before the due date is looked at: a fully
// paid invoice is never overdue, and a partially paid invoice past its due
// date stays partial. Overdue is reserved for lateness with nothing paid.
func DeriveStatus(amount, paidAmount decimal.Decimal, dueDate, now time.Time) InvoiceStatus {
	switch {
	case paidAmount.GreaterThanOrEqual(amount):
		return InvoiceStatusPaid
	case paidAmount.Sign() > 0:
		return InvoiceStatusPartial
	case IsPastDue(dueDate, now):
		return InvoiceStatusOverdue
	default:
		return InvoiceStatusPending
	}
}

// IsPastDue reports whether the due instant is strictly before now. Due
// dates are stored as DATE, so an invoice due today turns past due once
// now passes midnight of that day.
func IsPastDue(dueDate, now time.Time) bool {
	return dueDate.Before(now)
}
