package receivable

import (
	"sort"
	"time"

	"github.com/ledgerline/backend/internal/domain/shared"
	"github.com/ledgerline/backend/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
)

// Allocation credits part of one payment to one invoice. Rows are never
// updated; removing an allocation deletes it.
type Allocation struct {
	ID        int64
	PaymentID int64
	InvoiceID int64
	Amount    decimal.Decimal
	CreatedAt time.Time
}

// NewAllocation validates the amount and builds an allocation row
func NewAllocation(paymentID, invoiceID int64, amount decimal.Decimal) (*Allocation, error) {
	if !valueobject.IsPositive(amount) {
		return nil, invalidAmount("allocation amount", amount)
	}
	return &Allocation{
		PaymentID: paymentID,
		InvoiceID: invoiceID,
		Amount:    amount,
		CreatedAt: time.Now(),
	}, nil
}

// AllocationEntry is one line of a batch allocation request
type AllocationEntry struct {
	InvoiceID int64
	Amount    decimal.Decimal
}

// SumAllocations totals allocation amounts
func SumAllocations(allocs []Allocation) decimal.Decimal {
	total := decimal.Zero
	for _, a := range allocs {
		total = total.Add(a.Amount)
	}
	return total
}

// BatchPlan is a validated batch request grouped by invoice
type BatchPlan struct {
	Total      decimal.Decimal
	ByInvoice  map[int64]decimal.Decimal
	InvoiceIDs []int64 // ascending, the order rows are locked in
}

// PlanBatch validates each entry amount and groups entries per invoice.
// It does not check capacity; callers do that against locked rows.
func PlanBatch(entries []AllocationEntry) (*BatchPlan, error) {
	if len(entries) == 0 {
		return nil, shared.NewDomainError(shared.CodeInvalidInput, "Batch must contain at least one entry")
	}
	plan := &BatchPlan{
		Total:     decimal.Zero,
		ByInvoice: make(map[int64]decimal.Decimal, len(entries)),
	}
	for _, e := range entries {
		if !valueobject.IsPositive(e.Amount) {
			return nil, invalidAmount("allocation amount", e.Amount).WithDetail("invoice_id", e.InvoiceID)
		}
		if _, seen := plan.ByInvoice[e.InvoiceID]; !seen {
			plan.InvoiceIDs = append(plan.InvoiceIDs, e.InvoiceID)
			plan.ByInvoice[e.InvoiceID] = decimal.Zero
		}
		plan.ByInvoice[e.InvoiceID] = plan.ByInvoice[e.InvoiceID].Add(e.Amount)
		plan.Total = plan.Total.Add(e.Amount)
	}
	sort.Slice(plan.InvoiceIDs, func(a, b int) bool { return plan.InvoiceIDs[a] < plan.InvoiceIDs[b] })
	return plan, nil
}
