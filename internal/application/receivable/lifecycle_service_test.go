package receivable_test

import (
	"context"
	"testing"
	"time"

	appreceivable "github.com/ledgerline/backend/internal/application/receivable"
	"github.com/ledgerline/backend/internal/domain/receivable"
	"github.com/ledgerline/backend/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInvoiceService_Create(t *testing.T) {
	ctx := context.Background()
	f := newLedgerFixture(t)

	first, err := f.invoices.Create(ctx, appreceivable.CreateInvoiceRequest{
		Subtotal: dec("100"),
		Tax:      dec("8.25"),
		Discount: dec("10"),
		DueDate:  day("2026-03-31"),
		Notes:    "spring order",
	})
	require.NoError(t, err)
	assert.Equal(t, "INV-2026-0001", first.InvoiceNumber)
	assert.True(t, dec("98.25").Equal(first.Amount))
	assert.Equal(t, receivable.InvoiceStatusPending, first.Status)

	second := f.invoice("10", "2026-03-31", nil)
	assert.Equal(t, "INV-2026-0002", second.InvoiceNumber)

	t.Run("unknown customer", func(t *testing.T) {
		missing := int64(77)
		_, err := f.invoices.Create(ctx, appreceivable.CreateInvoiceRequest{
			CustomerID: &missing, Subtotal: dec("10"), DueDate: day("2026-03-31"),
		})
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})

	t.Run("negative total", func(t *testing.T) {
		_, err := f.invoices.Create(ctx, appreceivable.CreateInvoiceRequest{
			Subtotal: dec("10"), Discount: dec("20"), DueDate: day("2026-03-31"),
		})
		require.Error(t, err)
	})
}

func TestInvoiceService_UpdateAmounts(t *testing.T) {
	ctx := context.Background()
	f := newLedgerFixture(t)
	inv := f.invoice("100", "2026-03-15", nil)
	p := f.payment("60", nil)
	_, err := f.recon.Allocate(ctx, appreceivable.AllocateRequest{PaymentID: p.ID, InvoiceID: inv.ID, Amount: dec("60")})
	require.NoError(t, err)

	t.Run("shrinking to the credited amount pays the invoice", func(t *testing.T) {
		got, err := f.invoices.UpdateAmounts(ctx, inv.ID, appreceivable.UpdateInvoiceRequest{
			Subtotal: dec("60"), DueDate: day("2026-03-15"),
		})
		require.NoError(t, err)
		assert.Equal(t, receivable.InvoiceStatusPaid, got.Status)
	})

	t.Run("below the credited amount is rejected", func(t *testing.T) {
		_, err := f.invoices.UpdateAmounts(ctx, inv.ID, appreceivable.UpdateInvoiceRequest{
			Subtotal: dec("50"), DueDate: day("2026-03-15"),
		})
		requireCode(t, err, receivable.CodeOverAllocation)
	})

	t.Run("growing reopens it", func(t *testing.T) {
		got, err := f.invoices.UpdateAmounts(ctx, inv.ID, appreceivable.UpdateInvoiceRequest{
			Subtotal: dec("150"), DueDate: day("2026-03-15"),
		})
		require.NoError(t, err)
		assert.Equal(t, receivable.InvoiceStatusPartial, got.Status)
		assert.True(t, dec("60").Equal(got.PaidAmount))
	})
}

func TestInvoiceService_DeactivateReactivate(t *testing.T) {
	ctx := context.Background()
	f := newLedgerFixture(t)
	inv := f.invoice("100", "2026-02-01", nil)

	got, err := f.invoices.Deactivate(ctx, inv.ID)
	require.NoError(t, err)
	assert.Equal(t, receivable.InvoiceStatusInactive, got.Status)

	got, err = f.invoices.Reactivate(ctx, inv.ID)
	require.NoError(t, err)
	assert.Equal(t, receivable.InvoiceStatusOverdue, got.Status)

	got, err = f.invoices.Reactivate(ctx, inv.ID)
	require.NoError(t, err)
	assert.Equal(t, receivable.InvoiceStatusOverdue, got.Status)
}

func TestInvoiceService_Delete(t *testing.T) {
	ctx := context.Background()
	f := newLedgerFixture(t)
	inv := f.invoice("100", "2026-03-15", nil)
	direct := f.payment("30", &inv.ID)
	ledger := f.payment("70", nil)
	_, err := f.recon.Allocate(ctx, appreceivable.AllocateRequest{PaymentID: ledger.ID, InvoiceID: inv.ID, Amount: dec("70")})
	require.NoError(t, err)
	require.True(t, f.detail(ledger.ID).Payment.IsMatched)

	require.NoError(t, f.invoices.Delete(ctx, inv.ID))

	_, err = f.invoices.Get(ctx, inv.ID)
	assert.ErrorIs(t, err, shared.ErrNotFound)

	d := f.detail(direct.ID)
	assert.Nil(t, d.Payment.InvoiceID)
	assert.False(t, d.Payment.IsMatched)
	assert.Equal(t, receivable.Unbound, d.Binding.Kind)

	d = f.detail(ledger.ID)
	assert.Empty(t, d.Allocations)
	assert.False(t, d.Payment.IsMatched)
}

func TestPaymentService(t *testing.T) {
	ctx := context.Background()

	t.Run("direct binding credits the invoice", func(t *testing.T) {
		f := newLedgerFixture(t)
		inv := f.invoice("100", "2026-03-15", nil)
		p := f.payment("100", &inv.ID)

		assert.True(t, p.IsMatched)
		assert.Equal(t, receivable.InvoiceStatusPaid, f.reload(inv.ID).Status)

		d := f.detail(p.ID)
		assert.Equal(t, receivable.DirectlyBound, d.Binding.Kind)
		assert.Equal(t, inv.ID, d.Binding.InvoiceID)
	})

	t.Run("direct binding respects invoice capacity", func(t *testing.T) {
		f := newLedgerFixture(t)
		inv := f.invoice("100", "2026-03-15", nil)
		_, err := f.payments.Create(ctx, appreceivable.CreatePaymentRequest{
			Amount:      dec("120"),
			PaymentDate: day("2026-02-20"),
			Method:      receivable.PaymentMethodCash,
			InvoiceID:   &inv.ID,
		})
		requireCode(t, err, receivable.CodeOverAllocation)
	})

	t.Run("unknown method", func(t *testing.T) {
		f := newLedgerFixture(t)
		_, err := f.payments.Create(ctx, appreceivable.CreatePaymentRequest{
			Amount: dec("10"), PaymentDate: day("2026-02-20"), Method: "barter",
		})
		requireCode(t, err, shared.CodeInvalidInput)
	})

	t.Run("delete recomputes every credited invoice", func(t *testing.T) {
		f := newLedgerFixture(t)
		a := f.invoice("50", "2026-03-15", nil)
		b := f.invoice("50", "2026-03-15", nil)
		p := f.payment("100", nil)
		_, err := f.recon.AllocateBatch(ctx, p.ID, []receivable.AllocationEntry{
			{InvoiceID: a.ID, Amount: dec("50")},
			{InvoiceID: b.ID, Amount: dec("50")},
		})
		require.NoError(t, err)

		require.NoError(t, f.payments.Delete(ctx, p.ID))

		assert.Equal(t, receivable.InvoiceStatusPending, f.reload(a.ID).Status)
		assert.Equal(t, receivable.InvoiceStatusPending, f.reload(b.ID).Status)
		_, err = f.payments.Get(ctx, p.ID)
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})

	t.Run("unmatched listing", func(t *testing.T) {
		f := newLedgerFixture(t)
		inv := f.invoice("100", "2026-03-15", nil)
		f.payment("100", &inv.ID)
		open := f.payment("40", nil)

		page, err := f.payments.ListUnmatched(ctx, shared.Filter{})
		require.NoError(t, err)
		require.Len(t, page.Items, 1)
		assert.Equal(t, open.ID, page.Items[0].ID)
		assert.EqualValues(t, 1, page.Total)
	})
}

func TestCustomerService(t *testing.T) {
	ctx := context.Background()
	f := newLedgerFixture(t)

	acme, err := f.customers.Create(ctx, appreceivable.CreateCustomerRequest{Name: "  Acme  ", Email: "ap@acme.test"})
	require.NoError(t, err)
	assert.Equal(t, "Acme", acme.Name)
	globex, err := f.customers.Create(ctx, appreceivable.CreateCustomerRequest{Name: "Globex"})
	require.NoError(t, err)
	_, err = f.customers.Create(ctx, appreceivable.CreateCustomerRequest{Name: "Initech"})
	require.NoError(t, err)

	paid := f.invoice("100", "2026-03-15", &acme.ID)
	f.payment("100", &paid.ID)
	f.invoice("50", "2026-01-15", &acme.ID)
	f.invoice("500", "2026-03-20", &globex.ID)

	t.Run("stats", func(t *testing.T) {
		summary, err := f.customers.GetStats(ctx, acme.ID)
		require.NoError(t, err)
		s := summary.Stats
		assert.Equal(t, 2, s.InvoiceCount)
		assert.True(t, dec("150").Equal(s.TotalRevenue))
		assert.True(t, dec("100").Equal(s.TotalPaid))
		assert.True(t, dec("50").Equal(s.TotalOutstanding))
		assert.Equal(t, 1, s.OverdueCount)
		assert.NotNil(t, s.LastActivityDate)
	})

	t.Run("sorted by revenue", func(t *testing.T) {
		page, err := f.customers.List(ctx, appreceivable.ListCustomersQuery{Sort: "revenue"})
		require.NoError(t, err)
		require.Len(t, page.Items, 3)
		assert.Equal(t, "Globex", page.Items[0].Customer.Name)
		assert.Equal(t, "Acme", page.Items[1].Customer.Name)
		assert.Equal(t, "Initech", page.Items[2].Customer.Name)
	})

	t.Run("top n by name ascending", func(t *testing.T) {
		page, err := f.customers.List(ctx, appreceivable.ListCustomersQuery{Sort: "name", Order: "asc", TopN: 2})
		require.NoError(t, err)
		require.Len(t, page.Items, 2)
		assert.Equal(t, "Acme", page.Items[0].Customer.Name)
		assert.Equal(t, "Globex", page.Items[1].Customer.Name)
		assert.EqualValues(t, 3, page.Total)
	})

	t.Run("delete detaches invoices", func(t *testing.T) {
		require.NoError(t, f.customers.Delete(ctx, globex.ID))
		_, err := f.customers.GetStats(ctx, globex.ID)
		assert.ErrorIs(t, err, shared.ErrNotFound)

		page, err := f.invoices.List(ctx, receivable.InvoiceFilter{})
		require.NoError(t, err)
		for _, inv := range page.Items {
			if inv.CustomerID != nil {
				assert.NotEqual(t, globex.ID, *inv.CustomerID)
			}
		}
		assert.Len(t, page.Items, 3)
	})
}

func TestReceivablesSnapshotter(t *testing.T) {
	ctx := context.Background()
	f := newLedgerFixture(t)
	f.invoice("100", "2026-03-15", nil)
	f.invoice("40", "2026-02-01", nil)
	settled := f.invoice("10", "2026-03-15", nil)
	f.payment("10", &settled.ID)
	f.payment("25", nil)

	snap, err := appreceivable.NewReceivablesSnapshotter(f.scope,
		appreceivable.WithClock(func() time.Time { return testNow }),
	).Snapshot(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 2, snap.OpenInvoices)
	assert.EqualValues(t, 1, snap.OverdueInvoices)
	assert.EqualValues(t, 1, snap.UnmatchedCount)
	assert.EqualValues(t, 14000, snap.OutstandingCent)
}
