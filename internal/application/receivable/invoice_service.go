package receivable

import (
	"context"
	"sort"

	"github.com/ledgerline/backend/internal/domain/receivable"
	"github.com/ledgerline/backend/internal/domain/shared"
	"github.com/ledgerline/backend/internal/infrastructure/logger"
	"github.com/ledgerline/backend/internal/infrastructure/telemetry"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// InvoiceService handles the invoice lifecycle around the ledger
type InvoiceService struct {
	scope TransactionScope
	opts  options
}

// NewInvoiceService creates a new InvoiceService
func NewInvoiceService(scope TransactionScope, opts ...Option) *InvoiceService {
	return &InvoiceService{scope: scope, opts: buildOptions(opts)}
}

// Create issues a new invoice numbered INV-{year}-{seq}. The sequence row
// for the year stays locked until commit so numbers are never reused.
func (s *InvoiceService) Create(ctx context.Context, req CreateInvoiceRequest) (*receivable.Invoice, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "invoice", "create")
	defer span.End()

	var invoice *receivable.Invoice
	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		if req.CustomerID != nil {
			if _, err := repos.CustomerRepo().FindByID(ctx, *req.CustomerID); err != nil {
				return err
			}
		}

		now := s.opts.now()
		seq, err := repos.SequenceRepo().Next(ctx, now.Year())
		if err != nil {
			return err
		}
		inv, err := receivable.NewInvoice(receivable.FormatInvoiceNumber(now.Year(), seq),
			req.CustomerID, req.amounts(), req.DueDate, req.IsLayaway)
		if err != nil {
			return err
		}
		inv.Notes = req.Notes
		inv.ApplyLedgerCredit(decimal.Zero, now)
		if err := repos.InvoiceRepo().Create(ctx, inv); err != nil {
			return err
		}
		invoice = inv
		return nil
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	telemetry.SetAttributes(span, telemetry.SpanAttrInvoiceID, invoice.ID)
	logger.L(ctx).Info("invoice created",
		zap.Int64("invoice_id", invoice.ID),
		zap.String("invoice_number", invoice.InvoiceNumber),
		zap.String("amount", invoice.Amount.String()),
	)
	return invoice, nil
}

// Get returns one invoice
func (s *InvoiceService) Get(ctx context.Context, id int64) (*receivable.Invoice, error) {
	var invoice *receivable.Invoice
	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		var err error
		invoice, err = repos.InvoiceRepo().FindByID(ctx, id)
		return err
	})
	return invoice, err
}

// List returns a page of invoices matching filter
func (s *InvoiceService) List(ctx context.Context, filter receivable.InvoiceFilter) (shared.Paginated[receivable.Invoice], error) {
	filter.Filter = filter.Filter.Normalize()
	var (
		items []receivable.Invoice
		total int64
	)
	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		var err error
		items, total, err = repos.InvoiceRepo().FindAll(ctx, filter)
		return err
	})
	if err != nil {
		return shared.Paginated[receivable.Invoice]{}, err
	}
	return shared.NewPaginated(items, total, filter.Page, filter.PageSize), nil
}

// UpdateAmounts replaces subtotal, tax, discount and due date. The new
// total may not drop below what the ledger already credits.
func (s *InvoiceService) UpdateAmounts(ctx context.Context, id int64, req UpdateInvoiceRequest) (*receivable.Invoice, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "invoice", "update_amounts", telemetry.SpanAttrInvoiceID, id)
	defer span.End()

	var invoice *receivable.Invoice
	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		inv, err := repos.InvoiceRepo().FindByIDForUpdate(ctx, id)
		if err != nil {
			return err
		}
		credited, err := creditedTotal(ctx, repos, inv.ID)
		if err != nil {
			return err
		}
		now := s.opts.now()
		inv.ApplyLedgerCredit(credited, now)
		if err := inv.UpdateTerms(req.amounts(), req.DueDate); err != nil {
			return err
		}
		inv.ApplyLedgerCredit(credited, now)
		if err := repos.InvoiceRepo().Save(ctx, inv); err != nil {
			return err
		}
		invoice = inv
		return nil
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	logger.L(ctx).Info("invoice amounts updated",
		zap.Int64("invoice_id", id),
		zap.String("amount", invoice.Amount.String()),
		zap.String("status", string(invoice.Status)),
	)
	return invoice, nil
}

// Deactivate voids the invoice. It keeps its ledger rows but takes no new
// credit and is left out of stats and suggestions.
func (s *InvoiceService) Deactivate(ctx context.Context, id int64) (*receivable.Invoice, error) {
	return s.setActive(ctx, id, false)
}

// Reactivate restores an inactive invoice and re-derives its status
func (s *InvoiceService) Reactivate(ctx context.Context, id int64) (*receivable.Invoice, error) {
	return s.setActive(ctx, id, true)
}

func (s *InvoiceService) setActive(ctx context.Context, id int64, active bool) (*receivable.Invoice, error) {
	var invoice *receivable.Invoice
	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		inv, err := repos.InvoiceRepo().FindByIDForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if !active {
			inv.Deactivate()
			if err := repos.InvoiceRepo().Save(ctx, inv); err != nil {
				return err
			}
			invoice = inv
			return nil
		}
		if inv.Status != receivable.InvoiceStatusInactive {
			invoice = inv
			return nil
		}
		inv.Reactivate(s.opts.now())
		if _, err := applyLedger(ctx, repos, inv, s.opts.now()); err != nil {
			return err
		}
		invoice = inv
		return nil
	})
	if err != nil {
		return nil, err
	}
	logger.L(ctx).Info("invoice activity changed",
		zap.Int64("invoice_id", id), zap.String("status", string(invoice.Status)))
	return invoice, nil
}

// Delete removes the invoice. Its allocations and layaway plan are deleted,
// directly bound payments become unbound and every affected payment gets its
// matched flag refreshed.
func (s *InvoiceService) Delete(ctx context.Context, id int64) error {
	ctx, span := telemetry.StartServiceSpan(ctx, "invoice", "delete", telemetry.SpanAttrInvoiceID, id)
	defer span.End()

	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		allocs, err := repos.AllocationRepo().FindByInvoice(ctx, id)
		if err != nil {
			return err
		}
		direct, err := repos.PaymentRepo().FindDirectByInvoice(ctx, id)
		if err != nil {
			return err
		}

		// payments before the invoice, ascending
		paymentIDs := newIDSet(len(allocs) + len(direct))
		for _, a := range allocs {
			paymentIDs.add(a.PaymentID)
		}
		for _, p := range direct {
			paymentIDs.add(p.ID)
		}
		payments := make([]*receivable.Payment, 0, len(paymentIDs.ids))
		for _, pid := range paymentIDs.sorted() {
			p, err := repos.PaymentRepo().FindByIDForUpdate(ctx, pid)
			if err != nil {
				return err
			}
			payments = append(payments, p)
		}
		if _, err := repos.InvoiceRepo().FindByIDForUpdate(ctx, id); err != nil {
			return err
		}

		// A payment that bound itself to the invoice after the reads above is
		// not locked. Taking its lock now would invert the lock order, so the
		// delete rolls back and the caller retries.
		affected, err := repos.AllocationRepo().DeleteByInvoice(ctx, id)
		if err != nil {
			return err
		}
		for _, pid := range affected {
			if !paymentIDs.has(pid) {
				return shared.ErrConcurrencyConflict
			}
		}
		detached, err := repos.PaymentRepo().DetachInvoice(ctx, id)
		if err != nil {
			return err
		}
		if detached != int64(len(direct)) {
			return shared.ErrConcurrencyConflict
		}
		if err := repos.LayawayRepo().DeleteByInvoice(ctx, id); err != nil {
			return err
		}
		if err := repos.InvoiceRepo().Delete(ctx, id); err != nil {
			return err
		}

		sums, err := repos.AllocationRepo().SumByPayments(ctx, paymentIDs.sorted())
		if err != nil {
			return err
		}
		for _, p := range payments {
			if p.InvoiceID != nil && *p.InvoiceID == id {
				p.DetachInvoice()
			}
			p.RefreshMatched(sums[p.ID])
			if err := repos.PaymentRepo().Save(ctx, p); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return err
	}
	logger.L(ctx).Info("invoice deleted", zap.Int64("invoice_id", id))
	return nil
}

// idSet collects ids without duplicates
type idSet struct {
	seen map[int64]struct{}
	ids  []int64
}

func newIDSet(capacity int) *idSet {
	return &idSet{seen: make(map[int64]struct{}, capacity), ids: make([]int64, 0, capacity)}
}

func (s *idSet) add(id int64) {
	if _, ok := s.seen[id]; ok {
		return
	}
	s.seen[id] = struct{}{}
	s.ids = append(s.ids, id)
}

func (s *idSet) has(id int64) bool {
	_, ok := s.seen[id]
	return ok
}

func (s *idSet) sorted() []int64 {
	sort.Slice(s.ids, func(i, j int) bool { return s.ids[i] < s.ids[j] })
	return s.ids
}
