package receivable

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestPayment(t *testing.T, amount string, date time.Time) *Payment {
	t.Helper()
	p, err := NewPayment(dec(amount), date, PaymentMethodBankTransfer, "", nil)
	require.NoError(t, err)
	p.ID = 100
	return p
}

func TestSuggestMatches_ExactAmount(t *testing.T) {
	payment := newTestPayment(t, "250.00", testNow)
	invoices := []Invoice{
		newTestInvoice(t, 1, "900", "0", testNow),
		newTestInvoice(t, 2, "400", "150", testNow), // remaining 250
	}

	got := SuggestMatches(payment, decimal.Zero, invoices, 0)

	require.NotEmpty(t, got)
	assert.Equal(t, int64(2), got[0].Invoice.ID)
	assert.Equal(t, 95, got[0].Confidence)
	assert.Equal(t, "Exact amount match.", got[0].Reason)
}

func TestSuggestMatches_Cascade(t *testing.T) {
	due := testNow.AddDate(0, 0, 5)

	tests := []struct {
		name       string
		payment    string
		allocated  string
		invoiceAmt string
		invoicePd  string
		due        time.Time
		confidence int
		reason     string
	}{
		{"remaining equals invoice remaining", "300", "100", "500", "300", due, 95, ReasonExactRemaining},
		{"payment equals invoice total", "500", "100", "500", "0", due, 90, ReasonInvoiceTotal},
		{"within five percent", "1000", "0", "1040", "0", due, 80, ReasonNearRemaining},
		{"smaller than remaining", "100", "0", "1000", "0", due, 70, ReasonPartial},
		{"larger but due within a week", "1000", "0", "200", "0", due, 60, ReasonDateProximity},
		{"larger but due within a month", "1000", "0", "200", "0", testNow.AddDate(0, 0, 20), 50, ReasonDateProximity},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			payment := newTestPayment(t, tt.payment, testNow)
			inv := newTestInvoice(t, 1, tt.invoiceAmt, tt.invoicePd, tt.due)

			got := SuggestMatches(payment, dec(tt.allocated), []Invoice{inv}, 0)

			require.Len(t, got, 1)
			assert.Equal(t, tt.confidence, got[0].Confidence)
			assert.Equal(t, tt.reason, got[0].Reason)
		})
	}
}

func TestSuggestMatches_DropsDistantAndClosed(t *testing.T) {
	payment := newTestPayment(t, "1000", testNow)

	far := newTestInvoice(t, 1, "200", "0", testNow.AddDate(0, 0, 45))
	paid := newTestInvoice(t, 2, "1000", "1000", testNow)
	inactive := newTestInvoice(t, 3, "1000", "0", testNow)
	inactive.Deactivate()

	got := SuggestMatches(payment, decimal.Zero, []Invoice{far, paid, inactive}, 0)
	assert.Empty(t, got)
}

func TestSuggestMatches_NothingLeftToAllocate(t *testing.T) {
	payment := newTestPayment(t, "100", testNow)
	inv := newTestInvoice(t, 1, "100", "0", testNow)

	assert.Empty(t, SuggestMatches(payment, dec("100"), []Invoice{inv}, 0))

	invoiceID := int64(1)
	payment.InvoiceID = &invoiceID
	assert.Empty(t, SuggestMatches(payment, decimal.Zero, []Invoice{inv}, 0))
}

func TestSuggestMatches_RankingIsDeterministic(t *testing.T) {
	payment := newTestPayment(t, "100", testNow)

	var invoices []Invoice
	for i := int64(1); i <= 8; i++ {
		// All are partial candidates (70); due dates spread over days
		invoices = append(invoices, newTestInvoice(t, i, "500", "0", testNow.AddDate(0, 0, int(i%4))))
	}
	invoices = append(invoices, newTestInvoice(t, 20, "100", "0", daysAgo(10)))

	first := SuggestMatches(payment, decimal.Zero, invoices, 0)
	second := SuggestMatches(payment, decimal.Zero, invoices, 0)

	require.Len(t, first, MaxSuggestions)
	assert.Equal(t, first, second)
	assert.Equal(t, int64(20), first[0].Invoice.ID)

	for i := 1; i < len(first); i++ {
		prev, cur := first[i-1], first[i]
		assert.GreaterOrEqual(t, cur.Confidence, 50)
		if prev.Confidence == cur.Confidence {
			assert.False(t, cur.Invoice.DueDate.After(prev.Invoice.DueDate), "due date must be descending")
		} else {
			assert.Greater(t, prev.Confidence, cur.Confidence)
		}
	}
	// Due in 3 days: ids 3 and 7, ordered by id
	assert.Equal(t, int64(3), first[1].Invoice.ID)
	assert.Equal(t, int64(7), first[2].Invoice.ID)
}

func TestSuggestMatches_Limit(t *testing.T) {
	payment := newTestPayment(t, "10", testNow)
	invoices := []Invoice{
		newTestInvoice(t, 1, "100", "0", testNow),
		newTestInvoice(t, 2, "100", "0", testNow),
	}
	assert.Len(t, SuggestMatches(payment, decimal.Zero, invoices, 1), 1)
}

func TestSuggestMatches_LimitNeverExceedsMax(t *testing.T) {
	payment := newTestPayment(t, "100", testNow)
	invoices := make([]Invoice, 0, 8)
	for id := int64(1); id <= 8; id++ {
		invoices = append(invoices, newTestInvoice(t, id, "500", "0", testNow))
	}

	for _, limit := range []int{0, MaxSuggestions, 6, 20} {
		got := SuggestMatches(payment, decimal.Zero, invoices, limit)
		assert.Len(t, got, MaxSuggestions, "limit=%d", limit)
	}
	assert.Len(t, SuggestMatches(payment, decimal.Zero, invoices, 3), 3)
}
