// Package layaway tracks installment schedules attached to layaway invoices.
//
// Installment paid flags are bookkeeping only. Marking an installment paid
// does not create an allocation and does not change the invoice's paid
// amount; funds still move through the allocation ledger.
package layaway

import (
	"strconv"
	"strings"
	"time"

	"github.com/ledgerline/backend/internal/domain/receivable"
	"github.com/ledgerline/backend/internal/domain/shared"
	"github.com/ledgerline/backend/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
)

// Error codes of the layaway scheduler
const (
	CodeNotLayaway = "NOT_LAYAWAY"
)

var (
	ErrNotLayaway   = shared.NewDomainError(CodeNotLayaway, "Invoice is not a layaway invoice")
	ErrPlanExists   = shared.NewDomainError(shared.CodeConflict, "A layaway plan already exists for this invoice")
	ErrPlanNotFound = shared.NewDomainError(shared.CodeNotFound, "Layaway plan not found")
)

// PaymentFrequency is the cadence of installments
type PaymentFrequency string

const (
	FrequencyWeekly   PaymentFrequency = "weekly"
	FrequencyBiweekly PaymentFrequency = "biweekly"
	FrequencyMonthly  PaymentFrequency = "monthly"
)

// IsValid checks if the frequency is a known value
func (f PaymentFrequency) IsValid() bool {
	switch f {
	case FrequencyWeekly, FrequencyBiweekly, FrequencyMonthly:
		return true
	}
	return false
}

// Plan is the installment schedule of one layaway invoice
type Plan struct {
	ID               int64
	InvoiceID        int64
	Months           int
	PaymentFrequency PaymentFrequency
	DownPayment      decimal.Decimal
	IsCancelled      bool
	Notes            string
	Installments     []Installment
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// InstallmentInput is a caller supplied schedule line
type InstallmentInput struct {
	DueDate time.Time
	Amount  decimal.Decimal
	Label   string
}

// NewPlan validates the plan terms and stores the schedule as given.
// Installments are not derived by dividing the invoice amount.
func NewPlan(invoiceID int64, months int, frequency PaymentFrequency, downPayment decimal.Decimal, notes string, inputs []InstallmentInput) (*Plan, error) {
	if months < 1 {
		return nil, shared.NewDomainError(shared.CodeInvalidInput, "Months must be at least 1")
	}
	if !frequency.IsValid() {
		return nil, shared.NewDomainErrorf(shared.CodeInvalidInput, "Unknown payment frequency %q", frequency)
	}
	if downPayment.IsNegative() {
		return nil, shared.NewDomainError(shared.CodeInvalidInput, "Down payment cannot be negative")
	}

	now := time.Now()
	plan := &Plan{
		InvoiceID:        invoiceID,
		Months:           months,
		PaymentFrequency: frequency,
		DownPayment:      downPayment,
		Notes:            notes,
		Installments:     make([]Installment, 0, len(inputs)),
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	for i, in := range inputs {
		if in.DueDate.IsZero() {
			return nil, shared.NewDomainErrorf(shared.CodeInvalidInput, "Installment %d has no due date", i+1)
		}
		if !valueobject.IsPositive(in.Amount) {
			return nil, shared.NewDomainErrorf(receivable.CodeInvalidAmount, "Installment %d amount must be greater than zero", i+1)
		}
		label := strings.TrimSpace(in.Label)
		if label == "" {
			label = defaultLabel(i + 1)
		}
		plan.Installments = append(plan.Installments, Installment{
			DueDate: in.DueDate,
			Amount:  in.Amount,
			Label:   label,
		})
	}
	return plan, nil
}

func defaultLabel(n int) string {
	return "Installment " + strconv.Itoa(n)
}

// EnsureLayaway rejects invoices not flagged for layaway
func EnsureLayaway(inv *receivable.Invoice) error {
	if !inv.IsLayaway {
		return ErrNotLayaway.WithDetail("invoice_id", inv.ID)
	}
	return nil
}

// Cancel marks the plan cancelled. Installment paid flags are kept.
func (p *Plan) Cancel() {
	p.IsCancelled = true
	p.UpdatedAt = time.Now()
}

// UpdateNotes replaces the free text notes
func (p *Plan) UpdateNotes(notes string) {
	p.Notes = notes
	p.UpdatedAt = time.Now()
}

// ScheduledTotal is the down payment plus every installment
func (p *Plan) ScheduledTotal() decimal.Decimal {
	total := p.DownPayment
	for _, inst := range p.Installments {
		total = total.Add(inst.Amount)
	}
	return total
}

// Progress summarizes paid installments. It is informational and is not
// reconciled against the invoice's paid amount.
type Progress struct {
	PaidCount      int             `json:"paid_count"`
	TotalCount     int             `json:"total_count"`
	PaidAmount     decimal.Decimal `json:"paid_amount"`
	ScheduledTotal decimal.Decimal `json:"scheduled_total"`
	NextDue        *time.Time      `json:"next_due,omitempty"`
}

// Progress computes the plan's installment progress
func (p *Plan) Progress() Progress {
	prog := Progress{
		TotalCount:     len(p.Installments),
		PaidAmount:     decimal.Zero,
		ScheduledTotal: p.ScheduledTotal(),
	}
	for i := range p.Installments {
		inst := &p.Installments[i]
		if inst.IsPaid {
			prog.PaidCount++
			if inst.PaidAmount != nil {
				prog.PaidAmount = prog.PaidAmount.Add(*inst.PaidAmount)
			}
			continue
		}
		if prog.NextDue == nil || inst.DueDate.Before(*prog.NextDue) {
			due := inst.DueDate
			prog.NextDue = &due
		}
	}
	return prog
}
