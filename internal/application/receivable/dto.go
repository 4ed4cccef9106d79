package receivable

import (
	"time"

	"github.com/ledgerline/backend/internal/domain/receivable"
	"github.com/shopspring/decimal"
)

// CreateInvoiceRequest describes a new invoice. The number is assigned.
type CreateInvoiceRequest struct {
	CustomerID *int64
	Subtotal   decimal.Decimal
	Tax        decimal.Decimal
	Discount   decimal.Decimal
	DueDate    time.Time
	IsLayaway  bool
	Notes      string
}

func (r CreateInvoiceRequest) amounts() receivable.InvoiceAmounts {
	return receivable.InvoiceAmounts{Subtotal: r.Subtotal, Tax: r.Tax, Discount: r.Discount}
}

// UpdateInvoiceRequest replaces the monetary terms and due date
type UpdateInvoiceRequest struct {
	Subtotal decimal.Decimal
	Tax      decimal.Decimal
	Discount decimal.Decimal
	DueDate  time.Time
}

func (r UpdateInvoiceRequest) amounts() receivable.InvoiceAmounts {
	return receivable.InvoiceAmounts{Subtotal: r.Subtotal, Tax: r.Tax, Discount: r.Discount}
}

// CreatePaymentRequest describes received money. A non-nil InvoiceID binds
// the payment directly to that invoice.
type CreatePaymentRequest struct {
	Amount      decimal.Decimal
	PaymentDate time.Time
	Method      receivable.PaymentMethod
	Reference   string
	InvoiceID   *int64
}

// PaymentDetail is a payment with its ledger position
type PaymentDetail struct {
	Payment     receivable.Payment
	Binding     receivable.Binding
	Allocations []receivable.Allocation
	Allocated   decimal.Decimal
	Available   decimal.Decimal
}

// CreateCustomerRequest describes a new customer
type CreateCustomerRequest struct {
	Name    string
	Email   string
	Phone   string
	Address string
}

// ListCustomersQuery selects ordering and paging of customer summaries.
// TopN > 0 returns the first N rows and ignores Page and PageSize.
type ListCustomersQuery struct {
	Sort     string
	Order    string // asc or desc, default desc
	Page     int
	PageSize int
	TopN     int
}
