package persistence

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"
	appreceivable "github.com/ledgerline/backend/internal/application/receivable"
	"github.com/ledgerline/backend/internal/domain/receivable"
	"github.com/ledgerline/backend/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGormTransactionScope_LocksRowsForUpdate(t *testing.T) {
	db, mock, mockDB := newMockGormDB(t)
	defer mockDB.Close()
	scope := NewGormTransactionScope(db)

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT \* FROM "payments" WHERE id = \$1 .*FOR UPDATE`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "amount", "method", "is_matched"}).
			AddRow(3, "100.00", "cash", false))
	mock.ExpectQuery(`SELECT \* FROM "invoices" WHERE id = \$1 .*FOR UPDATE`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "invoice_number", "amount", "paid_amount", "status", "version"}).
			AddRow(7, "INV-2024-0007", "80.00", "0", "pending", 1))
	mock.ExpectCommit()

	err := scope.Execute(context.Background(), func(repos appreceivable.TransactionalRepositories) error {
		p, err := repos.PaymentRepo().FindByIDForUpdate(context.Background(), 3)
		if err != nil {
			return err
		}
		assert.True(t, p.Amount.Equal(dec("100")))
		inv, err := repos.InvoiceRepo().FindByIDForUpdate(context.Background(), 7)
		if err != nil {
			return err
		}
		assert.Equal(t, receivable.InvoiceStatusPending, inv.Status)
		return nil
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGormTransactionScope_MapsLockFailures(t *testing.T) {
	for _, code := range []string{"40001", "40P01", "55P03"} {
		t.Run(code, func(t *testing.T) {
			db, mock, mockDB := newMockGormDB(t)
			defer mockDB.Close()
			scope := NewGormTransactionScope(db)

			mock.ExpectBegin()
			mock.ExpectQuery(`SELECT \* FROM "invoices" WHERE id = \$1 .*FOR UPDATE`).
				WillReturnError(&pgconn.PgError{Code: code, Message: "could not serialize access"})
			mock.ExpectRollback()

			err := scope.Execute(context.Background(), func(repos appreceivable.TransactionalRepositories) error {
				_, err := repos.InvoiceRepo().FindByIDForUpdate(context.Background(), 1)
				return err
			})
			require.Error(t, err)
			assert.ErrorIs(t, err, shared.ErrConcurrencyConflict)
			assert.True(t, shared.IsRetryable(err))
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestTranslateError_PassesOtherErrors(t *testing.T) {
	assert.NoError(t, TranslateError(nil))

	plain := errors.New("boom")
	assert.Same(t, plain, TranslateError(plain))

	unique := &pgconn.PgError{Code: "23505"}
	assert.Equal(t, error(unique), TranslateError(unique))
}

func TestGormTransactionScope_RollsBackOnError(t *testing.T) {
	db := setupLedgerTestDB(t)
	scope := NewGormTransactionScope(db)
	ctx := context.Background()
	inv := seedInvoice(t, db, "INV-2024-0001", "100", time.Now(), nil)
	p := seedPayment(t, db, "100", nil)

	failure := errors.New("stop")
	err := scope.Execute(ctx, func(repos appreceivable.TransactionalRepositories) error {
		a, err := receivable.NewAllocation(p.ID, inv.ID, dec("60"))
		if err != nil {
			return err
		}
		if err := repos.AllocationRepo().Create(ctx, a); err != nil {
			return err
		}
		return failure
	})
	assert.ErrorIs(t, err, failure)

	sum, err := NewGormAllocationRepository(db).SumByPayment(ctx, p.ID)
	require.NoError(t, err)
	assert.True(t, sum.IsZero(), "allocation insert was rolled back")
}
