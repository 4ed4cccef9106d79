package receivable

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func daysAgo(n int) time.Time {
	return testNow.AddDate(0, 0, -n)
}

func newTestInvoice(t *testing.T, id int64, amount string, paid string, due time.Time) Invoice {
	t.Helper()
	inv, err := NewInvoice(FormatInvoiceNumber(2024, int(id)), nil,
		InvoiceAmounts{Subtotal: dec(amount), Tax: decimal.Zero, Discount: decimal.Zero}, due, false)
	require.NoError(t, err)
	inv.ID = id
	inv.ApplyLedgerCredit(dec(paid), testNow)
	return *inv
}
