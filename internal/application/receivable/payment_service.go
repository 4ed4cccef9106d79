package receivable

import (
	"context"

	"github.com/ledgerline/backend/internal/domain/receivable"
	"github.com/ledgerline/backend/internal/domain/shared"
	"github.com/ledgerline/backend/internal/infrastructure/logger"
	"github.com/ledgerline/backend/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

// PaymentService records received money and removes it again
type PaymentService struct {
	scope TransactionScope
	opts  options
}

// NewPaymentService creates a new PaymentService
func NewPaymentService(scope TransactionScope, opts ...Option) *PaymentService {
	return &PaymentService{scope: scope, opts: buildOptions(opts)}
}

// Create stores a payment. A directly bound payment is checked against the
// invoice's remaining capacity and the invoice is recomputed in the same
// transaction.
func (s *PaymentService) Create(ctx context.Context, req CreatePaymentRequest) (*receivable.Payment, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "payment", "create", telemetry.SpanAttrAmount, req.Amount)
	defer span.End()

	payment, err := receivable.NewPayment(req.Amount, req.PaymentDate, req.Method, req.Reference, req.InvoiceID)
	if err != nil {
		return nil, err
	}

	err = s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		if payment.InvoiceID == nil {
			return repos.PaymentRepo().Create(ctx, payment)
		}

		invoice, err := repos.InvoiceRepo().FindByIDForUpdate(ctx, *payment.InvoiceID)
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
		if err := invoice.EnsureCapacity(credited, payment.Amount); err != nil {
			return err
		}
		if err := repos.PaymentRepo().Create(ctx, payment); err != nil {
			return err
		}
		_, err = applyLedger(ctx, repos, invoice, s.opts.now())
		return err
	})
	if err != nil {
		telemetry.RecordError(span, err)
		logRejection(logger.L(ctx), "payment rejected", err)
		return nil, err
	}

	fields := []zap.Field{zap.Int64("payment_id", payment.ID), zap.String("amount", payment.Amount.String())}
	if payment.InvoiceID != nil {
		fields = append(fields, zap.Int64("invoice_id", *payment.InvoiceID))
	}
	logger.L(ctx).Info("payment recorded", fields...)
	return payment, nil
}

// Get returns the payment with its allocations and binding state
func (s *PaymentService) Get(ctx context.Context, id int64) (*PaymentDetail, error) {
	var detail *PaymentDetail
	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		payment, err := repos.PaymentRepo().FindByID(ctx, id)
		if err != nil {
			return err
		}
		allocs, err := repos.AllocationRepo().FindByPayment(ctx, id)
		if err != nil {
			return err
		}
		allocated := receivable.SumAllocations(allocs)
		detail = &PaymentDetail{
			Payment:     *payment,
			Binding:     payment.Binding(allocated),
			Allocations: allocs,
			Allocated:   allocated,
			Available:   payment.Available(allocated),
		}
		return nil
	})
	return detail, err
}

// ListUnmatched returns payments not yet fully matched
func (s *PaymentService) ListUnmatched(ctx context.Context, filter shared.Filter) (shared.Paginated[receivable.Payment], error) {
	f := receivable.PaymentFilter{Filter: filter.Normalize(), UnmatchedOnly: true}
	var (
		items []receivable.Payment
		total int64
	)
	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		var err error
		items, total, err = repos.PaymentRepo().FindAll(ctx, f)
		return err
	})
	if err != nil {
		return shared.Paginated[receivable.Payment]{}, err
	}
	return shared.NewPaginated(items, total, f.Page, f.PageSize), nil
}

// Delete removes the payment with its allocations and recomputes every
// invoice it credited.
func (s *PaymentService) Delete(ctx context.Context, id int64) error {
	ctx, span := telemetry.StartServiceSpan(ctx, "payment", "delete", telemetry.SpanAttrPaymentID, id)
	defer span.End()

	var affected []int64
	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		payment, err := repos.PaymentRepo().FindByIDForUpdate(ctx, id)
		if err != nil {
			return err
		}

		invoiceIDs, err := repos.AllocationRepo().DeleteByPayment(ctx, id)
		if err != nil {
			return err
		}
		set := newIDSet(len(invoiceIDs) + 1)
		for _, iid := range invoiceIDs {
			set.add(iid)
		}
		if payment.InvoiceID != nil {
			set.add(*payment.InvoiceID)
		}
		if err := repos.PaymentRepo().Delete(ctx, id); err != nil {
			return err
		}

		now := s.opts.now()
		for _, iid := range set.sorted() {
			invoice, err := repos.InvoiceRepo().FindByIDForUpdate(ctx, iid)
			if err != nil {
				return err
			}
			if _, err := applyLedger(ctx, repos, invoice, now); err != nil {
				return err
			}
		}
		affected = set.ids
		return nil
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return err
	}
	logger.L(ctx).Info("payment deleted", zap.Int64("payment_id", id), zap.Int64s("recomputed_invoices", affected))
	return nil
}
