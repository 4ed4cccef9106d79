package receivable

import (
	"errors"
	"testing"
	"time"

	"github.com/ledgerline/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewInvoice(t *testing.T) {
	t.Run("amount is subtotal plus tax minus discount", func(t *testing.T) {
		inv, err := NewInvoice("INV-2024-0001", nil, InvoiceAmounts{
			Subtotal: dec("900"), Tax: dec("150"), Discount: dec("50"),
		}, testNow, false)
		require.NoError(t, err)

		assert.True(t, inv.Amount.Equal(dec("1000")))
		assert.True(t, inv.PaidAmount.IsZero())
		assert.Equal(t, InvoiceStatusPending, inv.Status)
		assert.Equal(t, 1, inv.Version)
	})

	t.Run("rejects discount above total", func(t *testing.T) {
		_, err := NewInvoice("INV-2024-0002", nil, InvoiceAmounts{
			Subtotal: dec("10"), Tax: decimal.Zero, Discount: dec("11"),
		}, testNow, false)
		assert.True(t, errors.Is(err, shared.ErrInvalidInput))
	})

	t.Run("rejects missing number and due date", func(t *testing.T) {
		_, err := NewInvoice(" ", nil, InvoiceAmounts{}, testNow, false)
		assert.Error(t, err)
		_, err = NewInvoice("INV-2024-0003", nil, InvoiceAmounts{}, time.Time{}, false)
		assert.Error(t, err)
	})
}

func TestInvoice_UpdateTerms(t *testing.T) {
	inv := newTestInvoice(t, 1, "1000", "400", daysAgo(1))

	t.Run("recomputes amount and keeps paid amount", func(t *testing.T) {
		err := inv.UpdateTerms(InvoiceAmounts{Subtotal: dec("1100"), Tax: dec("10"), Discount: dec("10")}, testNow)
		require.NoError(t, err)
		assert.True(t, inv.Amount.Equal(dec("1100")))
		assert.True(t, inv.PaidAmount.Equal(dec("400")))
	})

	t.Run("amount cannot drop below credited", func(t *testing.T) {
		err := inv.UpdateTerms(InvoiceAmounts{Subtotal: dec("300")}, testNow)
		assert.True(t, errors.Is(err, ErrOverAllocation))
		assert.True(t, inv.Amount.Equal(dec("1100")))
	})
}

func TestInvoice_EnsureCapacity(t *testing.T) {
	inv := newTestInvoice(t, 7, "1000", "0", testNow)

	assert.NoError(t, inv.EnsureCapacity(dec("400"), dec("600")))

	err := inv.EnsureCapacity(dec("400"), dec("600.01"))
	require.Error(t, err)
	de, ok := shared.AsDomainError(err)
	require.True(t, ok)
	assert.Equal(t, CodeOverAllocation, de.Code)
	assert.Equal(t, SideInvoice, de.Details["side"])
	assert.Equal(t, "600.00", de.Details["available"])
	assert.Equal(t, "600.01", de.Details["requested"])
}

func TestInvoice_ApplyLedgerCredit(t *testing.T) {
	inv := newTestInvoice(t, 1, "1000", "0", daysAgo(1))
	assert.Equal(t, InvoiceStatusOverdue, inv.Status)

	inv.ApplyLedgerCredit(dec("400"), testNow)
	assert.Equal(t, InvoiceStatusPartial, inv.Status)
	assert.True(t, inv.Outstanding().Equal(dec("600")))

	inv.Deactivate()
	inv.ApplyLedgerCredit(dec("1000"), testNow)
	assert.Equal(t, InvoiceStatusInactive, inv.Status, "inactive status is sticky")
	assert.True(t, inv.PaidAmount.Equal(dec("1000")))
	assert.False(t, inv.IsOpen())
	assert.Error(t, inv.EnsureActive())

	inv.Reactivate(testNow)
	assert.Equal(t, InvoiceStatusPaid, inv.Status)
}
