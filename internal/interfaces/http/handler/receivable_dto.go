package handler

import (
	"time"

	appreceivable "github.com/ledgerline/backend/internal/application/receivable"
	"github.com/ledgerline/backend/internal/domain/receivable"
	"github.com/shopspring/decimal"
)

// InvoiceResponse represents an invoice in API responses
// @Description Invoice with ledger derived paid amount and status
type InvoiceResponse struct {
	ID            int64           `json:"id" example:"42"`
	InvoiceNumber string          `json:"invoice_number" example:"INV-2026-0007"`
	CustomerID    *int64          `json:"customer_id,omitempty" example:"3"`
	Subtotal      decimal.Decimal `json:"subtotal" swaggertype:"string" example:"100.00"`
	Tax           decimal.Decimal `json:"tax" swaggertype:"string" example:"8.00"`
	Discount      decimal.Decimal `json:"discount" swaggertype:"string" example:"0"`
	Amount        decimal.Decimal `json:"amount" swaggertype:"string" example:"108.00"`
	PaidAmount    decimal.Decimal `json:"paid_amount" swaggertype:"string" example:"50.00"`
	Outstanding   decimal.Decimal `json:"outstanding" swaggertype:"string" example:"58.00"`
	DueDate       string          `json:"due_date" example:"2026-03-31"`
	Status        string          `json:"status" example:"partial" enums:"pending,partial,overdue,paid,inactive"`
	IsLayaway     bool            `json:"is_layaway" example:"false"`
	Notes         string          `json:"notes,omitempty"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
	Version       int             `json:"version" example:"3"`
}

func toInvoiceResponse(inv *receivable.Invoice) InvoiceResponse {
	return InvoiceResponse{
		ID:            inv.ID,
		InvoiceNumber: inv.InvoiceNumber,
		CustomerID:    inv.CustomerID,
		Subtotal:      inv.Subtotal,
		Tax:           inv.Tax,
		Discount:      inv.Discount,
		Amount:        inv.Amount,
		PaidAmount:    inv.PaidAmount,
		Outstanding:   inv.Outstanding(),
		DueDate:       inv.DueDate.Format(DateLayout),
		Status:        string(inv.Status),
		IsLayaway:     inv.IsLayaway,
		Notes:         inv.Notes,
		CreatedAt:     inv.CreatedAt,
		UpdatedAt:     inv.UpdatedAt,
		Version:       inv.Version,
	}
}

func toInvoiceResponses(items []receivable.Invoice) []InvoiceResponse {
	out := make([]InvoiceResponse, len(items))
	for i := range items {
		out[i] = toInvoiceResponse(&items[i])
	}
	return out
}

// PaymentResponse represents a payment in API responses
type PaymentResponse struct {
	ID          int64           `json:"id" example:"7"`
	Amount      decimal.Decimal `json:"amount" swaggertype:"string" example:"150.00"`
	PaymentDate string          `json:"payment_date" example:"2026-02-14"`
	Method      string          `json:"method" example:"bank_transfer" enums:"cash,check,bank_transfer,card,other"`
	Reference   string          `json:"reference,omitempty" example:"WIRE-2231"`
	InvoiceID   *int64          `json:"invoice_id,omitempty"`
	IsMatched   bool            `json:"is_matched"`
	CreatedAt   time.Time       `json:"created_at"`
}

func toPaymentResponse(p *receivable.Payment) PaymentResponse {
	return PaymentResponse{
		ID:          p.ID,
		Amount:      p.Amount,
		PaymentDate: p.PaymentDate.Format(DateLayout),
		Method:      string(p.Method),
		Reference:   p.Reference,
		InvoiceID:   p.InvoiceID,
		IsMatched:   p.IsMatched,
		CreatedAt:   p.CreatedAt,
	}
}

// PaymentDetailResponse is a payment with its binding and allocations
type PaymentDetailResponse struct {
	PaymentResponse
	Binding     string               `json:"binding" example:"ledger_allocated" enums:"unbound,directly_bound,ledger_allocated"`
	Allocated   decimal.Decimal      `json:"allocated" swaggertype:"string"`
	Available   decimal.Decimal      `json:"available" swaggertype:"string"`
	Allocations []AllocationResponse `json:"allocations"`
}

func toPaymentDetailResponse(d *appreceivable.PaymentDetail) PaymentDetailResponse {
	allocs := make([]AllocationResponse, len(d.Allocations))
	for i := range d.Allocations {
		allocs[i] = toAllocationResponse(&d.Allocations[i])
	}
	return PaymentDetailResponse{
		PaymentResponse: toPaymentResponse(&d.Payment),
		Binding:         d.Binding.Kind.String(),
		Allocated:       d.Allocated,
		Available:       d.Available,
		Allocations:     allocs,
	}
}

// AllocationResponse represents one ledger row
type AllocationResponse struct {
	ID        int64           `json:"id"`
	PaymentID int64           `json:"payment_id"`
	InvoiceID int64           `json:"invoice_id"`
	Amount    decimal.Decimal `json:"amount" swaggertype:"string"`
	CreatedAt time.Time       `json:"created_at"`
}

func toAllocationResponse(a *receivable.Allocation) AllocationResponse {
	return AllocationResponse{
		ID:        a.ID,
		PaymentID: a.PaymentID,
		InvoiceID: a.InvoiceID,
		Amount:    a.Amount,
		CreatedAt: a.CreatedAt,
	}
}

// CustomerResponse represents a customer in API responses
type CustomerResponse struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name" example:"Acme Corp"`
	Email     string    `json:"email,omitempty" example:"billing@acme.test"`
	Phone     string    `json:"phone,omitempty"`
	Address   string    `json:"address,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

func toCustomerResponse(c *receivable.Customer) CustomerResponse {
	return CustomerResponse{
		ID:        c.ID,
		Name:      c.Name,
		Email:     c.Email,
		Phone:     c.Phone,
		Address:   c.Address,
		CreatedAt: c.CreatedAt,
	}
}

// CustomerSummaryResponse is a customer with stats derived from its invoices
type CustomerSummaryResponse struct {
	CustomerResponse
	Stats receivable.CustomerStats `json:"stats"`
}

func toCustomerSummaryResponse(s *receivable.CustomerSummary) CustomerSummaryResponse {
	return CustomerSummaryResponse{
		CustomerResponse: toCustomerResponse(&s.Customer),
		Stats:            s.Stats,
	}
}
