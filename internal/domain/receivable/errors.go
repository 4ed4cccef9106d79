package receivable

import (
	"github.com/ledgerline/backend/internal/domain/shared"
	"github.com/ledgerline/backend/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
)

// Error codes of the reconciliation core
const (
	CodeInvalidAmount        = "INVALID_AMOUNT"
	CodeOverAllocation       = "OVER_ALLOCATION"
	CodeAlreadyDirectlyBound = "ALREADY_DIRECTLY_BOUND"
	CodeInvalidInvoiceState  = "INVALID_INVOICE_STATE"
)

// Capacity sides reported in OVER_ALLOCATION details
const (
	SidePayment = "payment"
	SideInvoice = "invoice"
)

var (
	ErrInvalidAmount        = shared.NewDomainError(CodeInvalidAmount, "Amount must be greater than zero")
	ErrOverAllocation       = shared.NewDomainError(CodeOverAllocation, "Amount exceeds the available balance")
	ErrAlreadyDirectlyBound = shared.NewDomainError(CodeAlreadyDirectlyBound, "Payment is directly bound to an invoice and cannot be allocated")
	ErrInvoiceInactive      = shared.NewDomainError(CodeInvalidInvoiceState, "Invoice is inactive")
)

// NewOverAllocationError reports which side ran out of capacity with the
// exact available and requested amounts.
func NewOverAllocationError(side string, id int64, available, requested decimal.Decimal) *shared.DomainError {
	return shared.NewDomainErrorf(CodeOverAllocation,
		"Requested %s exceeds the %s %d available balance of %s",
		valueobject.Format(requested), side, id, valueobject.Format(available)).
		WithDetail("side", side).
		WithDetail("id", id).
		WithDetail("available", valueobject.Format(available)).
		WithDetail("requested", valueobject.Format(requested))
}

func invalidAmount(field string, amount decimal.Decimal) *shared.DomainError {
	return shared.NewDomainErrorf(CodeInvalidAmount, "%s must be greater than zero, got %s", field, amount.String()).
		WithDetail("field", field).
		WithDetail("requested", amount.String())
}
