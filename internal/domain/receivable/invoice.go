package receivable

import (
	"strings"
	"time"

	"github.com/ledgerline/backend/internal/domain/shared"
	"github.com/ledgerline/backend/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
)

// Invoice is a bill issued to a customer.
//
// Amount is fixed at write time from Subtotal + Tax - Discount. PaidAmount
// and Status are derived from the ledger by ApplyLedgerCredit.
type Invoice struct {
	ID            int64
	InvoiceNumber string
	CustomerID    *int64
	Subtotal      decimal.Decimal
	Tax           decimal.Decimal
	Discount      decimal.Decimal
	Amount        decimal.Decimal
	PaidAmount    decimal.Decimal
	DueDate       time.Time
	Status        InvoiceStatus
	IsLayaway     bool
	Notes         string
	CreatedAt     time.Time
	UpdatedAt     time.Time
	Version       int
}

// InvoiceAmounts are the editable monetary inputs of an invoice
type InvoiceAmounts struct {
	Subtotal decimal.Decimal
	Tax      decimal.Decimal
	Discount decimal.Decimal
}

// Total returns Subtotal + Tax - Discount
func (a InvoiceAmounts) Total() decimal.Decimal {
	return a.Subtotal.Add(a.Tax).Sub(a.Discount)
}

func (a InvoiceAmounts) validate() error {
	if a.Subtotal.IsNegative() || a.Tax.IsNegative() || a.Discount.IsNegative() {
		return shared.NewDomainError(shared.CodeInvalidInput, "Subtotal, tax and discount cannot be negative")
	}
	if a.Total().IsNegative() {
		return shared.NewDomainError(shared.CodeInvalidInput, "Discount cannot exceed subtotal plus tax")
	}
	return nil
}

// NewInvoice creates a pending invoice with nothing paid
func NewInvoice(number string, customerID *int64, amounts InvoiceAmounts, dueDate time.Time, isLayaway bool) (*Invoice, error) {
	if strings.TrimSpace(number) == "" {
		return nil, shared.NewDomainError(shared.CodeInvalidInput, "Invoice number cannot be empty")
	}
	if dueDate.IsZero() {
		return nil, shared.NewDomainError(shared.CodeInvalidInput, "Due date is required")
	}
	if err := amounts.validate(); err != nil {
		return nil, err
	}

	now := time.Now()
	return &Invoice{
		InvoiceNumber: number,
		CustomerID:    customerID,
		Subtotal:      amounts.Subtotal,
		Tax:           amounts.Tax,
		Discount:      amounts.Discount,
		Amount:        valueobject.RoundAmount(amounts.Total()),
		PaidAmount:    decimal.Zero,
		DueDate:       dueDate,
		Status:        InvoiceStatusPending,
		IsLayaway:     isLayaway,
		CreatedAt:     now,
		UpdatedAt:     now,
		Version:       1,
	}, nil
}

// UpdateTerms edits amounts and due date. Amount is recomputed and
// PaidAmount is left alone; it may not drop below what is already credited.
func (i *Invoice) UpdateTerms(amounts InvoiceAmounts, dueDate time.Time) error {
	if err := amounts.validate(); err != nil {
		return err
	}
	if dueDate.IsZero() {
		return shared.NewDomainError(shared.CodeInvalidInput, "Due date is required")
	}
	total := valueobject.RoundAmount(amounts.Total())
	if total.LessThan(i.PaidAmount) {
		return shared.NewDomainErrorf(CodeOverAllocation,
			"Invoice amount %s cannot be lower than the %s already credited",
			valueobject.Format(total), valueobject.Format(i.PaidAmount)).
			WithDetail("side", SideInvoice).
			WithDetail("id", i.ID).
			WithDetail("credited", valueobject.Format(i.PaidAmount)).
			WithDetail("requested", valueobject.Format(total))
	}

	i.Subtotal = amounts.Subtotal
	i.Tax = amounts.Tax
	i.Discount = amounts.Discount
	i.Amount = total
	i.DueDate = dueDate
	i.UpdatedAt = time.Now()
	return nil
}

// Outstanding returns Amount - PaidAmount, never below zero
func (i *Invoice) Outstanding() decimal.Decimal {
	return valueobject.NonNegative(i.Amount.Sub(i.PaidAmount))
}

// RemainingCapacity returns how much more can be credited given the ledger
// total for this invoice.
func (i *Invoice) RemainingCapacity(credited decimal.Decimal) decimal.Decimal {
	return valueobject.NonNegative(i.Amount.Sub(credited))
}

// EnsureCapacity rejects credit that would push direct payments plus
// allocations past the invoice amount.
func (i *Invoice) EnsureCapacity(credited, requested decimal.Decimal) error {
	remaining := i.RemainingCapacity(credited)
	if requested.GreaterThan(remaining) {
		return NewOverAllocationError(SideInvoice, i.ID, remaining, requested)
	}
	return nil
}

// EnsureActive rejects credits against an inactive invoice
func (i *Invoice) EnsureActive() error {
	if i.Status == InvoiceStatusInactive {
		return ErrInvoiceInactive.WithDetail("id", i.ID)
	}
	return nil
}

// ApplyLedgerCredit stores the credited total recomputed from the ledger and
// derives the status. An inactive invoice keeps its status.
func (i *Invoice) ApplyLedgerCredit(credited decimal.Decimal, now time.Time) {
	i.PaidAmount = credited
	if i.Status != InvoiceStatusInactive {
		i.Status = DeriveStatus(i.Amount, credited, i.DueDate, now)
	}
	i.UpdatedAt = now
}

// Deactivate marks the invoice inactive
func (i *Invoice) Deactivate() {
	i.Status = InvoiceStatusInactive
	i.UpdatedAt = time.Now()
}

// Reactivate re-derives the status of an inactive invoice
func (i *Invoice) Reactivate(now time.Time) {
	i.Status = DeriveStatus(i.Amount, i.PaidAmount, i.DueDate, now)
	i.UpdatedAt = now
}

// IsOpen reports whether the invoice can still receive credit
func (i *Invoice) IsOpen() bool {
	return i.Status != InvoiceStatusInactive && i.Outstanding().Sign() > 0
}
