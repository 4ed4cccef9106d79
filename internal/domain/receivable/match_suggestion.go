package receivable

import (
	"math"
	"sort"
	"time"

	"github.com/ledgerline/backend/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
)

// MaxSuggestions caps the number of suggestions returned for a payment
const MaxSuggestions = 5

// Confidence levels of the suggestion rule cascade
const (
	ConfidenceExactRemaining = 95
	ConfidenceInvoiceTotal   = 90
	ConfidenceNearRemaining  = 80
	ConfidencePartial        = 70
	ConfidenceDateWeek       = 60
	ConfidenceDateMonth      = 50
)

// Reasons reported alongside each confidence level
const (
	ReasonExactRemaining = "Exact amount match."
	ReasonInvoiceTotal   = "Payment matches invoice total."
	ReasonNearRemaining  = "Amount close to remaining balance."
	ReasonPartial        = "Possible partial payment."
	ReasonDateProximity  = "Payment date close to due date."
)

var nearRemainingTolerance = decimal.RequireFromString("0.05")

// InvoiceSummary is the invoice view attached to a suggestion
type InvoiceSummary struct {
	ID            int64           `json:"id"`
	InvoiceNumber string          `json:"invoice_number"`
	CustomerID    *int64          `json:"customer_id,omitempty"`
	Amount        decimal.Decimal `json:"amount"`
	PaidAmount    decimal.Decimal `json:"paid_amount"`
	Outstanding   decimal.Decimal `json:"outstanding"`
	DueDate       time.Time       `json:"due_date"`
	Status        InvoiceStatus   `json:"status"`
}

// SummarizeInvoice builds the summary view of inv
func SummarizeInvoice(inv *Invoice) InvoiceSummary {
	return InvoiceSummary{
		ID:            inv.ID,
		InvoiceNumber: inv.InvoiceNumber,
		CustomerID:    inv.CustomerID,
		Amount:        inv.Amount,
		PaidAmount:    inv.PaidAmount,
		Outstanding:   inv.Outstanding(),
		DueDate:       inv.DueDate,
		Status:        inv.Status,
	}
}

// MatchSuggestion ranks one invoice as a candidate for a payment
type MatchSuggestion struct {
	Invoice    InvoiceSummary `json:"invoice"`
	Confidence int            `json:"confidence"`
	Reason     string         `json:"reason"`
}

// SuggestMatches ranks open invoices for payment. allocated is the payment's
// current ledger total. The result holds at most limit entries, each with
// confidence >= 50, ordered by confidence desc, then due date desc, then
// invoice id. A limit outside 1..MaxSuggestions means MaxSuggestions.
func SuggestMatches(payment *Payment, allocated decimal.Decimal, invoices []Invoice, limit int) []MatchSuggestion {
	if limit <= 0 || limit > MaxSuggestions {
		limit = MaxSuggestions
	}
	if payment.InvoiceID != nil {
		return []MatchSuggestion{}
	}
	remaining := payment.Available(allocated)
	if remaining.Sign() <= 0 {
		return []MatchSuggestion{}
	}

	suggestions := make([]MatchSuggestion, 0, len(invoices))
	for i := range invoices {
		inv := &invoices[i]
		if !inv.IsOpen() {
			continue
		}
		confidence, reason := scoreCandidate(payment, remaining, inv)
		if confidence < ConfidenceDateMonth {
			continue
		}
		suggestions = append(suggestions, MatchSuggestion{
			Invoice:    SummarizeInvoice(inv),
			Confidence: confidence,
			Reason:     reason,
		})
	}

	sort.SliceStable(suggestions, func(a, b int) bool {
		sa, sb := suggestions[a], suggestions[b]
		if sa.Confidence != sb.Confidence {
			return sa.Confidence > sb.Confidence
		}
		if !sa.Invoice.DueDate.Equal(sb.Invoice.DueDate) {
			return sa.Invoice.DueDate.After(sb.Invoice.DueDate)
		}
		return sa.Invoice.ID < sb.Invoice.ID
	})

	if len(suggestions) > limit {
		suggestions = suggestions[:limit]
	}
	return suggestions
}

// scoreCandidate applies the rule cascade; the first matching rule wins
func scoreCandidate(payment *Payment, remaining decimal.Decimal, inv *Invoice) (int, string) {
	invoiceRemaining := inv.Outstanding()

	if valueobject.NearlyEqual(remaining, invoiceRemaining) {
		return ConfidenceExactRemaining, ReasonExactRemaining
	}
	if valueobject.NearlyEqual(payment.Amount, inv.Amount) {
		return ConfidenceInvoiceTotal, ReasonInvoiceTotal
	}
	diffRatio := remaining.Sub(invoiceRemaining).Abs().Div(invoiceRemaining)
	if diffRatio.LessThanOrEqual(nearRemainingTolerance) {
		return ConfidenceNearRemaining, ReasonNearRemaining
	}
	if remaining.LessThan(invoiceRemaining) {
		return ConfidencePartial, ReasonPartial
	}

	switch days := daysBetween(payment.PaymentDate, inv.DueDate); {
	case days <= 7:
		return ConfidenceDateWeek, ReasonDateProximity
	case days <= 30:
		return ConfidenceDateMonth, ReasonDateProximity
	}
	return 0, ""
}

// daysBetween returns the absolute distance in whole calendar days
func daysBetween(a, b time.Time) int {
	ay, am, ad := a.Date()
	by, bm, bd := b.In(a.Location()).Date()
	da := time.Date(ay, am, ad, 0, 0, 0, 0, time.UTC)
	db := time.Date(by, bm, bd, 0, 0, 0, 0, time.UTC)
	return int(math.Abs(da.Sub(db).Hours() / 24))
}
