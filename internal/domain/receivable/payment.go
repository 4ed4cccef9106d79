package receivable

import (
	"time"

	"github.com/ledgerline/backend/internal/domain/shared"
	"github.com/ledgerline/backend/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
)

// PaymentMethod is how a payment was received
type PaymentMethod string

const (
	PaymentMethodCash         PaymentMethod = "cash"
	PaymentMethodCheck        PaymentMethod = "check"
	PaymentMethodBankTransfer PaymentMethod = "bank_transfer"
	PaymentMethodCard         PaymentMethod = "card"
	PaymentMethodOther        PaymentMethod = "other"
)

// IsValid checks if the method is a known value
func (m PaymentMethod) IsValid() bool {
	switch m {
	case PaymentMethodCash, PaymentMethodCheck, PaymentMethodBankTransfer,
		PaymentMethodCard, PaymentMethodOther:
		return true
	}
	return false
}

// Payment is money received. Amount never changes after creation.
type Payment struct {
	ID          int64
	Amount      decimal.Decimal
	PaymentDate time.Time
	Method      PaymentMethod
	Reference   string
	InvoiceID   *int64
	IsMatched   bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// NewPayment creates a payment, optionally bound directly to one invoice
func NewPayment(amount decimal.Decimal, paymentDate time.Time, method PaymentMethod, reference string, invoiceID *int64) (*Payment, error) {
	if !valueobject.IsPositive(amount) {
		return nil, invalidAmount("payment amount", amount)
	}
	if !method.IsValid() {
		return nil, shared.NewDomainErrorf(shared.CodeInvalidInput, "Unknown payment method %q", method)
	}
	if paymentDate.IsZero() {
		paymentDate = time.Now()
	}
	now := time.Now()
	return &Payment{
		Amount:      amount,
		PaymentDate: paymentDate,
		Method:      method,
		Reference:   reference,
		InvoiceID:   invoiceID,
		IsMatched:   invoiceID != nil,
		CreatedAt:   now,
		UpdatedAt:   now,
	}, nil
}

// BindingKind tells how a payment is tied to invoices
type BindingKind int

const (
	// Unbound payments have neither a direct invoice nor allocations
	Unbound BindingKind = iota
	// DirectlyBound payments carry an invoice id and never use the ledger
	DirectlyBound
	// LedgerAllocated payments are credited through allocation rows
	LedgerAllocated
)

func (k BindingKind) String() string {
	switch k {
	case DirectlyBound:
		return "directly_bound"
	case LedgerAllocated:
		return "ledger_allocated"
	default:
		return "unbound"
	}
}

// Binding is the tagged binding state of a payment
type Binding struct {
	Kind      BindingKind
	InvoiceID int64           // set for DirectlyBound
	Allocated decimal.Decimal // ledger total for LedgerAllocated
}

// Binding derives the payment's binding state from its ledger total
func (p *Payment) Binding(allocated decimal.Decimal) Binding {
	switch {
	case p.InvoiceID != nil:
		return Binding{Kind: DirectlyBound, InvoiceID: *p.InvoiceID, Allocated: decimal.Zero}
	case allocated.Sign() > 0:
		return Binding{Kind: LedgerAllocated, Allocated: allocated}
	default:
		return Binding{Kind: Unbound, Allocated: decimal.Zero}
	}
}

// EnsureLedgerAllocatable rejects ledger allocation for a directly bound payment
func (p *Payment) EnsureLedgerAllocatable() error {
	if p.InvoiceID != nil {
		return ErrAlreadyDirectlyBound.
			WithDetail("payment_id", p.ID).
			WithDetail("invoice_id", *p.InvoiceID)
	}
	return nil
}

// Available returns the part of the payment not yet allocated
func (p *Payment) Available(allocated decimal.Decimal) decimal.Decimal {
	return valueobject.NonNegative(p.Amount.Sub(allocated))
}

// EnsureCapacity rejects allocations beyond the payment amount
func (p *Payment) EnsureCapacity(allocated, requested decimal.Decimal) error {
	available := p.Available(allocated)
	if requested.GreaterThan(available) {
		return NewOverAllocationError(SidePayment, p.ID, available, requested)
	}
	return nil
}

// RefreshMatched recomputes IsMatched from the ledger total
func (p *Payment) RefreshMatched(allocated decimal.Decimal) {
	if p.InvoiceID != nil {
		p.IsMatched = true
	} else {
		p.IsMatched = allocated.GreaterThanOrEqual(p.Amount)
	}
	p.UpdatedAt = time.Now()
}

// DetachInvoice clears a direct binding
func (p *Payment) DetachInvoice() {
	p.InvoiceID = nil
	p.IsMatched = false
	p.UpdatedAt = time.Now()
}
