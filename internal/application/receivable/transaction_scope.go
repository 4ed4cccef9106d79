package receivable

import (
	"context"

	"github.com/ledgerline/backend/internal/domain/layaway"
	"github.com/ledgerline/backend/internal/domain/receivable"
)

// TransactionScope provides transactional access to the receivable repositories.
// Repositories handed to fn share one database transaction, committed when
// fn returns nil and rolled back otherwise.
type TransactionScope interface {
	Execute(ctx context.Context, fn func(repos TransactionalRepositories) error) error
}

// TransactionalRepositories provides access to all repositories within a transaction.
//
// Lock order inside a transaction is payment rows first, then invoice rows
// by ascending id. Every write path follows it.
type TransactionalRepositories interface {
	InvoiceRepo() receivable.InvoiceRepository
	PaymentRepo() receivable.PaymentRepository
	AllocationRepo() receivable.AllocationRepository
	CustomerRepo() receivable.CustomerRepository
	SequenceRepo() receivable.InvoiceSequenceRepository
	LayawayRepo() layaway.PlanRepository
}

// Repositories bundles repository implementations, used by NoOpTransactionScope
type Repositories struct {
	Invoices    receivable.InvoiceRepository
	Payments    receivable.PaymentRepository
	Allocations receivable.AllocationRepository
	Customers   receivable.CustomerRepository
	Sequences   receivable.InvoiceSequenceRepository
	Layaway     layaway.PlanRepository
}

// NoOpTransactionScope runs fn directly against the given repositories
// without a transaction. It is meant for tests.
type NoOpTransactionScope struct {
	repos Repositories
}

// NewNoOpTransactionScope creates a NoOpTransactionScope with the given repositories.
func NewNoOpTransactionScope(repos Repositories) *NoOpTransactionScope {
	return &NoOpTransactionScope{repos: repos}
}

// Execute runs the function without a real transaction.
func (s *NoOpTransactionScope) Execute(_ context.Context, fn func(repos TransactionalRepositories) error) error {
	return fn(s)
}

func (s *NoOpTransactionScope) InvoiceRepo() receivable.InvoiceRepository       { return s.repos.Invoices }
func (s *NoOpTransactionScope) PaymentRepo() receivable.PaymentRepository       { return s.repos.Payments }
func (s *NoOpTransactionScope) AllocationRepo() receivable.AllocationRepository { return s.repos.Allocations }
func (s *NoOpTransactionScope) CustomerRepo() receivable.CustomerRepository     { return s.repos.Customers }
func (s *NoOpTransactionScope) SequenceRepo() receivable.InvoiceSequenceRepository {
	return s.repos.Sequences
}
func (s *NoOpTransactionScope) LayawayRepo() layaway.PlanRepository { return s.repos.Layaway }

var _ TransactionScope = (*NoOpTransactionScope)(nil)
var _ TransactionalRepositories = (*NoOpTransactionScope)(nil)
