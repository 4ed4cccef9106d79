package receivable

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ledgerline/backend/internal/domain/receivable"
	"github.com/ledgerline/backend/internal/domain/shared"
	"github.com/ledgerline/backend/internal/domain/shared/valueobject"
	"github.com/ledgerline/backend/internal/infrastructure/logger"
	"github.com/ledgerline/backend/internal/infrastructure/telemetry"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const (
	reconciliationSpan = "reconciliation"
	idempotencyPrefix  = "ledger:allocate:"
)

// AllocateRequest credits Amount of a payment to an invoice
type AllocateRequest struct {
	PaymentID      int64
	InvoiceID      int64
	Amount         decimal.Decimal
	IdempotencyKey string // optional
}

// RecomputeResult is the invoice state after a recompute
type RecomputeResult struct {
	InvoiceID  int64                    `json:"invoice_id"`
	PaidAmount decimal.Decimal          `json:"paid_amount"`
	Status     receivable.InvoiceStatus `json:"status"`
}

// ReconciliationService owns the allocation ledger. Every mutation runs in
// one transaction holding row locks on the payment and then the invoice, so
// concurrent requests cannot both pass a capacity check.
type ReconciliationService struct {
	scope TransactionScope
	opts  options
}

// NewReconciliationService creates a new ReconciliationService
func NewReconciliationService(scope TransactionScope, opts ...Option) *ReconciliationService {
	return &ReconciliationService{
		scope: scope,
		opts:  buildOptions(opts),
	}
}

// Allocate records one allocation after checking both capacity limits.
// A failed attempt releases its idempotency key so the request can be reissued.
func (s *ReconciliationService) Allocate(ctx context.Context, req AllocateRequest) (alloc *receivable.Allocation, err error) {
	ctx, span := telemetry.StartServiceSpan(ctx, reconciliationSpan, "allocate",
		telemetry.SpanAttrPaymentID, req.PaymentID,
		telemetry.SpanAttrInvoiceID, req.InvoiceID,
		telemetry.SpanAttrAmount, req.Amount,
	)
	defer span.End()
	started := time.Now()
	defer func() {
		s.opts.metrics.RecordOperation(ctx, "allocate", started, err)
		telemetry.RecordError(span, err)
	}()

	log := logger.L(ctx).With(
		zap.Int64("payment_id", req.PaymentID),
		zap.Int64("invoice_id", req.InvoiceID),
		zap.String("amount", req.Amount.String()),
	)

	if !valueobject.IsPositive(req.Amount) {
		return nil, receivable.ErrInvalidAmount.WithDetail("requested", req.Amount.String())
	}

	release, err := s.reserveKey(ctx, req.IdempotencyKey)
	if err != nil {
		if errors.Is(err, shared.ErrDuplicateRequest) {
			log.Warn("duplicate allocation request", zap.String("idempotency_key", req.IdempotencyKey))
		}
		return nil, err
	}
	defer func() {
		if err != nil {
			release()
		}
	}()

	err = s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		payment, err := repos.PaymentRepo().FindByIDForUpdate(ctx, req.PaymentID)
		if err != nil {
			return err
		}
		if err := payment.EnsureLedgerAllocatable(); err != nil {
			return err
		}
		allocated, err := repos.AllocationRepo().SumByPayment(ctx, payment.ID)
		if err != nil {
			return err
		}
		if err := payment.EnsureCapacity(allocated, req.Amount); err != nil {
			return err
		}

		invoice, err := repos.InvoiceRepo().FindByIDForUpdate(ctx, req.InvoiceID)
		if err != nil {
			return err
		}
		if err := invoice.EnsureActive(); err != nil {
			return err
		}
		credited, err := creditedTotal(ctx, repos, invoice.ID)
		if err != nil {
			return err
		}
		if err := invoice.EnsureCapacity(credited, req.Amount); err != nil {
			return err
		}

		a, err := receivable.NewAllocation(payment.ID, invoice.ID, req.Amount)
		if err != nil {
			return err
		}
		if err := repos.AllocationRepo().Create(ctx, a); err != nil {
			return err
		}

		payment.RefreshMatched(allocated.Add(req.Amount))
		if err := repos.PaymentRepo().Save(ctx, payment); err != nil {
			return err
		}
		invoice.ApplyLedgerCredit(credited.Add(req.Amount), s.opts.now())
		if err := repos.InvoiceRepo().Save(ctx, invoice); err != nil {
			return err
		}

		alloc = a
		return nil
	})
	if err != nil {
		logRejection(log, "allocation rejected", err)
		return nil, err
	}

	s.opts.metrics.RecordAllocated(ctx, req.Amount)
	telemetry.AddEvent(span, "allocation_created", telemetry.SpanAttrAllocationID, alloc.ID)
	log.Info("allocation created", zap.Int64("allocation_id", alloc.ID))
	return alloc, nil
}

// AllocateBatch records several allocations of one payment atomically. The
// payment is locked first, then each invoice in ascending id order. Entries
// for the same invoice are checked against its capacity together. Affected
// invoices are recomputed after commit, each in its own transaction.
func (s *ReconciliationService) AllocateBatch(ctx context.Context, paymentID int64, entries []receivable.AllocationEntry) (created []*receivable.Allocation, err error) {
	ctx, span := telemetry.StartServiceSpan(ctx, reconciliationSpan, "allocate_batch",
		telemetry.SpanAttrPaymentID, paymentID,
		telemetry.SpanAttrEntries, len(entries),
	)
	defer span.End()
	started := time.Now()
	defer func() {
		s.opts.metrics.RecordOperation(ctx, "allocate_batch", started, err)
		telemetry.RecordError(span, err)
	}()

	log := logger.L(ctx).With(zap.Int64("payment_id", paymentID), zap.Int("entries", len(entries)))

	plan, err := receivable.PlanBatch(entries)
	if err != nil {
		return nil, err
	}

	err = s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		payment, err := repos.PaymentRepo().FindByIDForUpdate(ctx, paymentID)
		if err != nil {
			return err
		}
		if err := payment.EnsureLedgerAllocatable(); err != nil {
			return err
		}
		allocated, err := repos.AllocationRepo().SumByPayment(ctx, payment.ID)
		if err != nil {
			return err
		}
		if err := payment.EnsureCapacity(allocated, plan.Total); err != nil {
			return err
		}

		for _, invoiceID := range plan.InvoiceIDs {
			invoice, err := repos.InvoiceRepo().FindByIDForUpdate(ctx, invoiceID)
			if err != nil {
				return err
			}
			if err := invoice.EnsureActive(); err != nil {
				return err
			}
			credited, err := creditedTotal(ctx, repos, invoiceID)
			if err != nil {
				return err
			}
			if err := invoice.EnsureCapacity(credited, plan.ByInvoice[invoiceID]); err != nil {
				return err
			}
		}

		rows := make([]*receivable.Allocation, 0, len(entries))
		for _, e := range entries {
			a, err := receivable.NewAllocation(payment.ID, e.InvoiceID, e.Amount)
			if err != nil {
				return err
			}
			rows = append(rows, a)
		}
		if err := repos.AllocationRepo().CreateBatch(ctx, rows); err != nil {
			return err
		}

		payment.RefreshMatched(allocated.Add(plan.Total))
		if err := repos.PaymentRepo().Save(ctx, payment); err != nil {
			return err
		}
		created = rows
		return nil
	})
	if err != nil {
		logRejection(log, "batch allocation rejected", err)
		return nil, err
	}

	s.opts.metrics.RecordAllocated(ctx, plan.Total)
	log.Info("batch allocation created", zap.String("total", plan.Total.String()))

	// The ledger rows are committed; a failed recompute leaves a stale cached
	// paid amount that RecomputeInvoice or RecomputeAll repairs.
	for _, invoiceID := range plan.InvoiceIDs {
		if _, rerr := s.RecomputeInvoice(ctx, invoiceID); rerr != nil {
			log.Error("recompute after batch allocation failed",
				zap.Int64("invoice_id", invoiceID), zap.Error(rerr))
		}
	}
	return created, nil
}

// RemoveAllocation deletes one ledger row and refreshes both sides
func (s *ReconciliationService) RemoveAllocation(ctx context.Context, allocationID int64) (err error) {
	ctx, span := telemetry.StartServiceSpan(ctx, reconciliationSpan, "remove_allocation",
		telemetry.SpanAttrAllocationID, allocationID,
	)
	defer span.End()
	started := time.Now()
	defer func() {
		s.opts.metrics.RecordOperation(ctx, "remove_allocation", started, err)
		telemetry.RecordError(span, err)
	}()

	log := logger.L(ctx).With(zap.Int64("allocation_id", allocationID))

	err = s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		alloc, err := repos.AllocationRepo().FindByID(ctx, allocationID)
		if err != nil {
			return err
		}
		payment, err := repos.PaymentRepo().FindByIDForUpdate(ctx, alloc.PaymentID)
		if err != nil {
			return err
		}
		invoice, err := repos.InvoiceRepo().FindByIDForUpdate(ctx, alloc.InvoiceID)
		if err != nil {
			return err
		}
		if err := repos.AllocationRepo().Delete(ctx, alloc.ID); err != nil {
			return err
		}

		allocated, err := repos.AllocationRepo().SumByPayment(ctx, payment.ID)
		if err != nil {
			return err
		}
		payment.RefreshMatched(allocated)
		if err := repos.PaymentRepo().Save(ctx, payment); err != nil {
			return err
		}
		_, err = applyLedger(ctx, repos, invoice, s.opts.now())
		return err
	})
	if err != nil {
		logRejection(log, "allocation removal failed", err)
		return err
	}
	log.Info("allocation removed")
	return nil
}

// RecomputeInvoice re-derives PaidAmount and Status from direct payments
// plus allocations. It is idempotent.
func (s *ReconciliationService) RecomputeInvoice(ctx context.Context, invoiceID int64) (result *RecomputeResult, err error) {
	ctx, span := telemetry.StartServiceSpan(ctx, reconciliationSpan, "recompute_invoice",
		telemetry.SpanAttrInvoiceID, invoiceID,
	)
	defer span.End()
	started := time.Now()
	defer func() {
		s.opts.metrics.RecordOperation(ctx, "recompute", started, err)
		telemetry.RecordError(span, err)
	}()

	err = s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		invoice, err := repos.InvoiceRepo().FindByIDForUpdate(ctx, invoiceID)
		if err != nil {
			return err
		}
		result, err = applyLedger(ctx, repos, invoice, s.opts.now())
		return err
	})
	if err != nil {
		return nil, err
	}

	s.opts.metrics.RecordRecompute(ctx, string(result.Status))
	telemetry.SetAttributes(span, telemetry.SpanAttrStatus, string(result.Status))
	return result, nil
}

// RecomputeAll recomputes every invoice, one transaction each. It keeps
// going after a failure and returns how many invoices were recomputed along
// with the joined errors.
func (s *ReconciliationService) RecomputeAll(ctx context.Context) (int, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, reconciliationSpan, "recompute_all")
	defer span.End()

	var ids []int64
	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		var err error
		ids, err = repos.InvoiceRepo().ListIDs(ctx)
		return err
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return 0, err
	}

	var errs []error
	done := 0
	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}
		if _, err := s.RecomputeInvoice(ctx, id); err != nil {
			errs = append(errs, fmt.Errorf("invoice %d: %w", id, err))
			continue
		}
		done++
	}

	joined := errors.Join(errs...)
	telemetry.SetAttributes(span, "recomputed", done, "failed", len(errs))
	telemetry.RecordError(span, joined)
	logger.L(ctx).Info("recompute sweep finished", zap.Int("recomputed", done), zap.Int("failed", len(errs)))
	return done, joined
}

func (s *ReconciliationService) reserveKey(ctx context.Context, key string) (func(), error) {
	if key == "" || s.opts.keys == nil {
		return func() {}, nil
	}
	full := idempotencyPrefix + key
	ok, err := s.opts.keys.Reserve(ctx, full, s.opts.keyTTL)
	if err != nil {
		return nil, fmt.Errorf("reserve idempotency key: %w", err)
	}
	if !ok {
		return nil, shared.ErrDuplicateRequest.WithDetail("idempotency_key", key)
	}
	return func() {
		if err := s.opts.keys.Release(context.WithoutCancel(ctx), full); err != nil {
			logger.L(ctx).Warn("failed to release idempotency key",
				zap.String("idempotency_key", key), zap.Error(err))
		}
	}, nil
}

// creditedTotal sums direct payments and allocations for the invoice
func creditedTotal(ctx context.Context, repos TransactionalRepositories, invoiceID int64) (decimal.Decimal, error) {
	direct, err := repos.PaymentRepo().FindDirectByInvoice(ctx, invoiceID)
	if err != nil {
		return decimal.Zero, err
	}
	allocs, err := repos.AllocationRepo().FindByInvoice(ctx, invoiceID)
	if err != nil {
		return decimal.Zero, err
	}
	return receivable.CreditedTotal(direct, allocs), nil
}

// applyLedger recomputes a locked invoice from the ledger and saves it
func applyLedger(ctx context.Context, repos TransactionalRepositories, invoice *receivable.Invoice, now time.Time) (*RecomputeResult, error) {
	credited, err := creditedTotal(ctx, repos, invoice.ID)
	if err != nil {
		return nil, err
	}
	invoice.ApplyLedgerCredit(credited, now)
	if err := repos.InvoiceRepo().Save(ctx, invoice); err != nil {
		return nil, err
	}
	return &RecomputeResult{
		InvoiceID:  invoice.ID,
		PaidAmount: invoice.PaidAmount,
		Status:     invoice.Status,
	}, nil
}

// logRejection logs business rule violations at warn and everything else at error
func logRejection(log *logger.ContextLogger, msg string, err error) {
	if de, ok := shared.AsDomainError(err); ok {
		log.Warn(msg, zap.String("code", de.Code), zap.Any("details", de.Details))
		return
	}
	log.Error(msg, zap.Error(err))
}
