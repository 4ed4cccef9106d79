package receivable

import (
	"context"

	"github.com/ledgerline/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// InvoiceFilter defines filtering options for invoice queries
type InvoiceFilter struct {
	shared.Filter
	CustomerID *int64
	Status     *InvoiceStatus
	OpenOnly   bool // outstanding > 0 and not inactive
}

// PaymentFilter defines filtering options for payment queries
type PaymentFilter struct {
	shared.Filter
	UnmatchedOnly bool
}

// InvoiceRepository defines persistence for invoices
type InvoiceRepository interface {
	// FindByID returns shared.ErrNotFound when the invoice does not exist
	FindByID(ctx context.Context, id int64) (*Invoice, error)

	// FindByIDForUpdate loads the invoice and holds a row lock until the
	// surrounding transaction ends
	FindByIDForUpdate(ctx context.Context, id int64) (*Invoice, error)

	// FindAll returns a page of invoices and the total count
	FindAll(ctx context.Context, filter InvoiceFilter) ([]Invoice, int64, error)

	// FindOpen returns every invoice that can still receive credit
	FindOpen(ctx context.Context) ([]Invoice, error)

	// FindByCustomerIDs returns all invoices of the given customers
	FindByCustomerIDs(ctx context.Context, customerIDs []int64) ([]Invoice, error)

	// ListIDs returns every invoice id in ascending order
	ListIDs(ctx context.Context) ([]int64, error)

	Create(ctx context.Context, invoice *Invoice) error

	// Save updates the invoice with optimistic locking on Version
	Save(ctx context.Context, invoice *Invoice) error

	Delete(ctx context.Context, id int64) error

	// DetachCustomer nulls the customer reference on the customer's invoices
	DetachCustomer(ctx context.Context, customerID int64) (int64, error)
}

// PaymentRepository defines persistence for payments
type PaymentRepository interface {
	FindByID(ctx context.Context, id int64) (*Payment, error)
	FindByIDForUpdate(ctx context.Context, id int64) (*Payment, error)
	FindAll(ctx context.Context, filter PaymentFilter) ([]Payment, int64, error)

	// FindDirectByInvoice returns payments directly bound to the invoice
	FindDirectByInvoice(ctx context.Context, invoiceID int64) ([]Payment, error)

	Create(ctx context.Context, payment *Payment) error
	Save(ctx context.Context, payment *Payment) error
	Delete(ctx context.Context, id int64) error

	// DetachInvoice clears the direct binding of every payment bound to the invoice
	DetachInvoice(ctx context.Context, invoiceID int64) (int64, error)
}

// AllocationRepository defines persistence for the allocation ledger
type AllocationRepository interface {
	FindByID(ctx context.Context, id int64) (*Allocation, error)
	FindByPayment(ctx context.Context, paymentID int64) ([]Allocation, error)
	FindByInvoice(ctx context.Context, invoiceID int64) ([]Allocation, error)

	// SumByPayment totals allocations of the payment (zero when none)
	SumByPayment(ctx context.Context, paymentID int64) (decimal.Decimal, error)

	// SumByPayments totals allocations per payment for the given ids
	SumByPayments(ctx context.Context, paymentIDs []int64) (map[int64]decimal.Decimal, error)

	Create(ctx context.Context, allocation *Allocation) error
	CreateBatch(ctx context.Context, allocations []*Allocation) error
	Delete(ctx context.Context, id int64) error

	// DeleteByInvoice removes the invoice's rows and returns the affected payment ids
	DeleteByInvoice(ctx context.Context, invoiceID int64) ([]int64, error)

	// DeleteByPayment removes the payment's rows and returns the affected invoice ids
	DeleteByPayment(ctx context.Context, paymentID int64) ([]int64, error)
}

// CustomerRepository defines persistence for customers
type CustomerRepository interface {
	FindByID(ctx context.Context, id int64) (*Customer, error)
	FindAll(ctx context.Context) ([]Customer, error)
	Create(ctx context.Context, customer *Customer) error
	Save(ctx context.Context, customer *Customer) error
	Delete(ctx context.Context, id int64) error
}

// InvoiceSequenceRepository hands out invoice sequence numbers
type InvoiceSequenceRepository interface {
	// Next returns the next sequence for year. It must run inside a
	// transaction; the sequence row stays locked until commit.
	Next(ctx context.Context, year int) (int, error)
}

// CreditedTotal sums direct payments and allocations for one invoice
func CreditedTotal(direct []Payment, allocations []Allocation) decimal.Decimal {
	total := SumAllocations(allocations)
	for _, p := range direct {
		total = total.Add(p.Amount)
	}
	return total
}
