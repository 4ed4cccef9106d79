package layaway_test

import (
	"context"
	"testing"
	"time"

	applayaway "github.com/ledgerline/backend/internal/application/layaway"
	appreceivable "github.com/ledgerline/backend/internal/application/receivable"
	"github.com/ledgerline/backend/internal/domain/layaway"
	"github.com/ledgerline/backend/internal/domain/receivable"
	"github.com/ledgerline/backend/internal/domain/shared"
	"github.com/ledgerline/backend/internal/infrastructure/config"
	"github.com/ledgerline/backend/internal/infrastructure/persistence"
	"github.com/ledgerline/backend/internal/infrastructure/persistence/models"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
)

var testNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

type fixture struct {
	service  *applayaway.Service
	invoices *appreceivable.InvoiceService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	database, err := persistence.Open(sqlite.Open(":memory:"), &config.DatabaseConfig{MaxOpenConns: 1, MaxIdleConns: 1})
	require.NoError(t, err)
	require.NoError(t, database.DB.AutoMigrate(models.AllModels()...))
	t.Cleanup(func() { _ = database.Close() })

	scope := persistence.NewGormTransactionScope(database.DB)
	svc := applayaway.NewService(scope)
	svc.SetClock(func() time.Time { return testNow })
	return &fixture{
		service:  svc,
		invoices: appreceivable.NewInvoiceService(scope, appreceivable.WithClock(func() time.Time { return testNow })),
	}
}

func (f *fixture) invoice(t *testing.T, layawayFlag bool) *receivable.Invoice {
	t.Helper()
	inv, err := f.invoices.Create(context.Background(), appreceivable.CreateInvoiceRequest{
		Subtotal:  decimal.NewFromInt(300),
		DueDate:   testNow.AddDate(0, 3, 0),
		IsLayaway: layawayFlag,
	})
	require.NoError(t, err)
	return inv
}

func schedule() []layaway.InstallmentInput {
	return []layaway.InstallmentInput{
		{DueDate: testNow.AddDate(0, 1, 0), Amount: decimal.NewFromInt(100)},
		{DueDate: testNow.AddDate(0, 2, 0), Amount: decimal.NewFromInt(100), Label: "Second"},
	}
}

func TestService_CreatePlan(t *testing.T) {
	ctx := context.Background()

	t.Run("stores the schedule as given", func(t *testing.T) {
		f := newFixture(t)
		inv := f.invoice(t, true)

		plan, err := f.service.CreatePlan(ctx, applayaway.CreatePlanRequest{
			InvoiceID:        inv.ID,
			Months:           3,
			PaymentFrequency: layaway.FrequencyMonthly,
			DownPayment:      decimal.NewFromInt(100),
			Installments:     schedule(),
		})
		require.NoError(t, err)
		require.Len(t, plan.Installments, 2)
		assert.Equal(t, "Installment 1", plan.Installments[0].Label)
		assert.Equal(t, "Second", plan.Installments[1].Label)
		assert.True(t, decimal.NewFromInt(300).Equal(plan.ScheduledTotal()))

		got, err := f.service.GetPlanByInvoice(ctx, inv.ID)
		require.NoError(t, err)
		assert.Equal(t, plan.ID, got.ID)
		assert.Len(t, got.Installments, 2)
	})

	t.Run("requires a layaway invoice", func(t *testing.T) {
		f := newFixture(t)
		inv := f.invoice(t, false)

		_, err := f.service.CreatePlan(ctx, applayaway.CreatePlanRequest{
			InvoiceID: inv.ID, Months: 2, PaymentFrequency: layaway.FrequencyMonthly,
		})
		assert.ErrorIs(t, err, layaway.ErrNotLayaway)
	})

	t.Run("one plan per invoice", func(t *testing.T) {
		f := newFixture(t)
		inv := f.invoice(t, true)
		req := applayaway.CreatePlanRequest{InvoiceID: inv.ID, Months: 2, PaymentFrequency: layaway.FrequencyWeekly}

		_, err := f.service.CreatePlan(ctx, req)
		require.NoError(t, err)
		_, err = f.service.CreatePlan(ctx, req)
		assert.ErrorIs(t, err, layaway.ErrPlanExists)
	})

	t.Run("invalid frequency", func(t *testing.T) {
		f := newFixture(t)
		inv := f.invoice(t, true)
		_, err := f.service.CreatePlan(ctx, applayaway.CreatePlanRequest{
			InvoiceID: inv.ID, Months: 2, PaymentFrequency: "daily",
		})
		assert.ErrorIs(t, err, shared.ErrInvalidInput)
	})

	t.Run("missing plan", func(t *testing.T) {
		f := newFixture(t)
		inv := f.invoice(t, true)
		_, err := f.service.GetPlanByInvoice(ctx, inv.ID)
		assert.ErrorIs(t, err, layaway.ErrPlanNotFound)
	})
}

func TestService_InstallmentsAndPlanUpdates(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	inv := f.invoice(t, true)
	plan, err := f.service.CreatePlan(ctx, applayaway.CreatePlanRequest{
		InvoiceID:        inv.ID,
		Months:           2,
		PaymentFrequency: layaway.FrequencyMonthly,
		Installments:     schedule(),
	})
	require.NoError(t, err)
	first := plan.Installments[0].ID

	inst, err := f.service.SetInstallmentPaid(ctx, first, true)
	require.NoError(t, err)
	assert.True(t, inst.IsPaid)
	require.NotNil(t, inst.PaidDate)
	assert.True(t, testNow.Equal(*inst.PaidDate))

	// installment flags never reach the ledger
	stored, err := f.invoices.Get(ctx, inv.ID)
	require.NoError(t, err)
	assert.True(t, stored.PaidAmount.IsZero())

	got, err := f.service.GetPlanByInvoice(ctx, inv.ID)
	require.NoError(t, err)
	prog := got.Progress()
	assert.Equal(t, 1, prog.PaidCount)
	assert.True(t, decimal.NewFromInt(100).Equal(prog.PaidAmount))

	inst, err = f.service.SetInstallmentPaid(ctx, first, false)
	require.NoError(t, err)
	assert.False(t, inst.IsPaid)
	assert.Nil(t, inst.PaidDate)

	updated, err := f.service.UpdateNotes(ctx, plan.ID, "moved to biweekly talks")
	require.NoError(t, err)
	assert.Equal(t, "moved to biweekly talks", updated.Notes)

	cancelled, err := f.service.CancelPlan(ctx, plan.ID)
	require.NoError(t, err)
	assert.True(t, cancelled.IsCancelled)

	_, err = f.service.SetInstallmentPaid(ctx, 9999, true)
	assert.ErrorIs(t, err, shared.ErrNotFound)
}
