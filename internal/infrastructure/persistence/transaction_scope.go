package persistence

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
	appreceivable "github.com/ledgerline/backend/internal/application/receivable"
	"github.com/ledgerline/backend/internal/domain/layaway"
	"github.com/ledgerline/backend/internal/domain/receivable"
	"github.com/ledgerline/backend/internal/domain/shared"
	"gorm.io/gorm"
)

// SQLSTATE codes reported when a transaction loses a lock or serialization race
const (
	sqlStateSerializationFailure = "40001"
	sqlStateDeadlockDetected     = "40P01"
	sqlStateLockNotAvailable     = "55P03"
)

// GormTransactionScope implements TransactionScope using GORM transactions.
// It provides atomic execution of multiple repository operations.
type GormTransactionScope struct {
	db *gorm.DB
}

// NewGormTransactionScope creates a new GormTransactionScope.
func NewGormTransactionScope(db *gorm.DB) *GormTransactionScope {
	return &GormTransactionScope{db: db}
}

// Execute runs the given function within a database transaction.
// If the function returns an error, the transaction is rolled back.
// Lock and serialization failures surface as shared.ErrConcurrencyConflict.
func (s *GormTransactionScope) Execute(ctx context.Context, fn func(repos appreceivable.TransactionalRepositories) error) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&gormTransactionalRepositories{tx: tx})
	})
	return TranslateError(err)
}

// TranslateError maps postgres concurrency failures to the retryable
// domain conflict and leaves other errors untouched
func TranslateError(err error) error {
	if err == nil {
		return nil
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case sqlStateSerializationFailure, sqlStateDeadlockDetected, sqlStateLockNotAvailable:
			return shared.ErrConcurrencyConflict.WithDetail("sqlstate", pgErr.Code)
		}
	}
	return err
}

// gormTransactionalRepositories provides access to all repositories within a transaction.
type gormTransactionalRepositories struct {
	tx *gorm.DB
}

// InvoiceRepo returns the invoice repository scoped to the current transaction.
func (r *gormTransactionalRepositories) InvoiceRepo() receivable.InvoiceRepository {
	return NewGormInvoiceRepository(r.tx)
}

// PaymentRepo returns the payment repository scoped to the current transaction.
func (r *gormTransactionalRepositories) PaymentRepo() receivable.PaymentRepository {
	return NewGormPaymentRepository(r.tx)
}

// AllocationRepo returns the allocation ledger scoped to the current transaction.
func (r *gormTransactionalRepositories) AllocationRepo() receivable.AllocationRepository {
	return NewGormAllocationRepository(r.tx)
}

// CustomerRepo returns the customer repository scoped to the current transaction.
func (r *gormTransactionalRepositories) CustomerRepo() receivable.CustomerRepository {
	return NewGormCustomerRepository(r.tx)
}

// SequenceRepo returns the invoice sequence repository scoped to the current transaction.
func (r *gormTransactionalRepositories) SequenceRepo() receivable.InvoiceSequenceRepository {
	return NewGormInvoiceSequenceRepository(r.tx)
}

// LayawayRepo returns the layaway plan repository scoped to the current transaction.
func (r *gormTransactionalRepositories) LayawayRepo() layaway.PlanRepository {
	return NewGormLayawayRepository(r.tx)
}

// Ensure GormTransactionScope implements TransactionScope
var _ appreceivable.TransactionScope = (*GormTransactionScope)(nil)

// Ensure gormTransactionalRepositories implements TransactionalRepositories
var _ appreceivable.TransactionalRepositories = (*gormTransactionalRepositories)(nil)
