package persistence

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/ledgerline/backend/internal/domain/receivable"
	"github.com/ledgerline/backend/internal/infrastructure/config"
	"github.com/ledgerline/backend/internal/infrastructure/persistence/models"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// setupLedgerTestDB opens an in-memory sqlite database with the full schema.
// A single connection keeps every query on the same in-memory database.
func setupLedgerTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	database, err := Open(sqlite.Open(":memory:"), &config.DatabaseConfig{MaxOpenConns: 1, MaxIdleConns: 1})
	require.NoError(t, err)
	require.NoError(t, database.DB.AutoMigrate(models.AllModels()...))
	t.Cleanup(func() { _ = database.Close() })
	return database.DB
}

// newMockGormDB returns a postgres dialect GORM handle over sqlmock
func newMockGormDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock, *sql.DB) {
	t.Helper()
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)

	dialector := postgres.New(postgres.Config{
		Conn:       mockDB,
		DriverName: "postgres",
	})
	gormDB, err := gorm.Open(dialector, &gorm.Config{
		SkipDefaultTransaction: true,
	})
	require.NoError(t, err)
	return gormDB, mock, mockDB
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func seedInvoice(t *testing.T, db *gorm.DB, number string, amount string, due time.Time, customerID *int64) *receivable.Invoice {
	t.Helper()
	inv, err := receivable.NewInvoice(number, customerID, receivable.InvoiceAmounts{Subtotal: dec(amount)}, due, false)
	require.NoError(t, err)
	require.NoError(t, NewGormInvoiceRepository(db).Create(context.Background(), inv))
	return inv
}

func seedPayment(t *testing.T, db *gorm.DB, amount string, invoiceID *int64) *receivable.Payment {
	t.Helper()
	p, err := receivable.NewPayment(dec(amount), time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), receivable.PaymentMethodBankTransfer, "", invoiceID)
	require.NoError(t, err)
	require.NoError(t, NewGormPaymentRepository(db).Create(context.Background(), p))
	return p
}
