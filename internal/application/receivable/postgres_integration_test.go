//go:build integration

package receivable_test

import (
	"context"
	"sync"
	"testing"
	"time"

	appreceivable "github.com/ledgerline/backend/internal/application/receivable"
	"github.com/ledgerline/backend/internal/domain/receivable"
	"github.com/ledgerline/backend/internal/domain/shared"
	"github.com/ledgerline/backend/internal/infrastructure/config"
	"github.com/ledgerline/backend/internal/infrastructure/migration"
	"github.com/ledgerline/backend/internal/infrastructure/persistence"
	"github.com/ledgerline/backend/migrations"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.uber.org/zap"
	gormpostgres "gorm.io/driver/postgres"
)

// newPostgresFixture starts a throwaway PostgreSQL container and applies the
// embedded migrations, so row locks behave as in production.
func newPostgresFixture(t *testing.T) *ledgerFixture {
	t.Helper()
	ctx := context.Background()

	container, err := tcpostgres.Run(ctx,
		"postgres:16-alpine",
		tcpostgres.WithDatabase("ledger_test"),
		tcpostgres.WithUsername("postgres"),
		tcpostgres.WithPassword("postgres"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second)),
	)
	require.NoError(t, err, "Failed to start PostgreSQL container")
	t.Cleanup(func() { _ = container.Terminate(context.Background()) })

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	database, err := persistence.Open(gormpostgres.Open(dsn), &config.DatabaseConfig{
		MaxOpenConns:    20,
		MaxIdleConns:    5,
		ConnMaxLifetime: 1,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.Close() })

	sqlDB, err := database.DB.DB()
	require.NoError(t, err)
	m, err := migration.NewEmbedded(sqlDB, migrations.FS, zap.NewNop())
	require.NoError(t, err)
	require.NoError(t, m.Up())

	scope := persistence.NewGormTransactionScope(database.DB)
	clock := appreceivable.WithClock(func() time.Time { return testNow })
	return &ledgerFixture{
		t:           t,
		db:          database.DB,
		scope:       scope,
		recon:       appreceivable.NewReconciliationService(scope, clock),
		invoices:    appreceivable.NewInvoiceService(scope, clock),
		payments:    appreceivable.NewPaymentService(scope, clock),
		customers:   appreceivable.NewCustomerService(scope, clock),
		suggestions: appreceivable.NewSuggestionService(scope, clock),
	}
}

func TestPostgres_ConcurrentAllocationsNeverOverdrawPayment(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping container test in short mode")
	}
	ctx := context.Background()
	f := newPostgresFixture(t)

	p := f.payment("100", nil)
	invoices := make([]*receivable.Invoice, 10)
	for i := range invoices {
		invoices[i] = f.invoice("20", "2026-03-31", nil)
	}

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		ok       int
		rejected int
	)
	for _, inv := range invoices {
		wg.Add(1)
		go func(invoiceID int64) {
			defer wg.Done()
			_, err := f.recon.Allocate(ctx, appreceivable.AllocateRequest{
				PaymentID: p.ID, InvoiceID: invoiceID, Amount: dec("20"),
			})
			mu.Lock()
			defer mu.Unlock()
			if err == nil {
				ok++
				return
			}
			if de, isDomain := shared.AsDomainError(err); isDomain && de.Code == receivable.CodeOverAllocation {
				rejected++
				return
			}
			t.Errorf("unexpected error: %v", err)
		}(inv.ID)
	}
	wg.Wait()

	assert.Equal(t, 5, ok)
	assert.Equal(t, 5, rejected)

	d := f.detail(p.ID)
	assert.True(t, d.Payment.IsMatched)
	assert.Len(t, d.Allocations, 5)
	assert.True(t, dec("100").Equal(d.Allocated), "allocated %s", d.Allocated)
}

func TestPostgres_ConcurrentPaymentsNeverOverdrawInvoice(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping container test in short mode")
	}
	ctx := context.Background()
	f := newPostgresFixture(t)

	inv := f.invoice("50", "2026-03-31", nil)
	payments := make([]*receivable.Payment, 6)
	for i := range payments {
		payments[i] = f.payment("20", nil)
	}

	var wg sync.WaitGroup
	for _, p := range payments {
		wg.Add(1)
		go func(paymentID int64) {
			defer wg.Done()
			_, _ = f.recon.Allocate(ctx, appreceivable.AllocateRequest{
				PaymentID: paymentID, InvoiceID: inv.ID, Amount: dec("20"),
			})
		}(p.ID)
	}
	wg.Wait()

	got := f.reload(inv.ID)
	assert.True(t, dec("40").Equal(got.PaidAmount), "paid %s", got.PaidAmount)
	assert.Equal(t, receivable.InvoiceStatusPartial, got.Status)
}
