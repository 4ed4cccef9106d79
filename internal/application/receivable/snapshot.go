package receivable

import (
	"context"

	"github.com/ledgerline/backend/internal/domain/receivable"
	"github.com/ledgerline/backend/internal/domain/shared"
	"github.com/ledgerline/backend/internal/infrastructure/telemetry"
	"github.com/shopspring/decimal"
)

// ReceivablesSnapshotter samples open receivables for the metrics collector
type ReceivablesSnapshotter struct {
	scope TransactionScope
	opts  options
}

// NewReceivablesSnapshotter creates a new ReceivablesSnapshotter
func NewReceivablesSnapshotter(scope TransactionScope, opts ...Option) *ReceivablesSnapshotter {
	return &ReceivablesSnapshotter{scope: scope, opts: buildOptions(opts)}
}

// Snapshot implements telemetry.ReceivablesProvider
func (s *ReceivablesSnapshotter) Snapshot(ctx context.Context) (telemetry.ReceivablesSnapshot, error) {
	var snap telemetry.ReceivablesSnapshot
	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		open, err := repos.InvoiceRepo().FindOpen(ctx)
		if err != nil {
			return err
		}
		now := s.opts.now()
		outstanding := decimal.Zero
		for i := range open {
			inv := &open[i]
			snap.OpenInvoices++
			if inv.PaidAmount.IsZero() && receivable.IsPastDue(inv.DueDate, now) {
				snap.OverdueInvoices++
			}
			outstanding = outstanding.Add(inv.Outstanding())
		}
		snap.OutstandingCent = outstanding.Shift(2).IntPart()

		_, unmatched, err := repos.PaymentRepo().FindAll(ctx, receivable.PaymentFilter{
			Filter:        shared.Filter{Page: 1, PageSize: 1},
			UnmatchedOnly: true,
		})
		if err != nil {
			return err
		}
		snap.UnmatchedCount = unmatched
		return nil
	})
	return snap, err
}

var _ telemetry.ReceivablesProvider = (*ReceivablesSnapshotter)(nil)
