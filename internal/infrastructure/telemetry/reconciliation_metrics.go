package telemetry

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/ledgerline/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
)

// ErrMeterNil is returned when no meter is supplied.
var ErrMeterNil = errors.New("telemetry: meter cannot be nil")

// Outcome labels of ledger operations
const (
	OutcomeSuccess  = "success"
	OutcomeRejected = "rejected"
	OutcomeConflict = "conflict"
	OutcomeError    = "error"
)

// ReceivablesSnapshot is the open receivables state sampled by the collector
type ReceivablesSnapshot struct {
	OpenInvoices    int64
	OverdueInvoices int64
	UnmatchedCount  int64
	OutstandingCent int64
}

// ReceivablesProvider samples receivables state for gauges
type ReceivablesProvider interface {
	Snapshot(ctx context.Context) (ReceivablesSnapshot, error)
}

// ReconciliationMetrics counts ledger activity and samples open receivables.
type ReconciliationMetrics struct {
	logger *zap.Logger

	operations      *Counter
	allocatedCents  *Counter
	recomputes      *Counter
	suggestions     *Counter
	operationTiming *Histogram

	openInvoices    *Gauge
	overdueInvoices *Gauge
	unmatched       *Gauge
	outstanding     *Gauge

	stopChan    chan struct{}
	stopOnce    sync.Once
	collectOnce sync.Once
}

// NewReconciliationMetrics registers the reconciliation instruments on meter.
func NewReconciliationMetrics(meter metric.Meter, logger *zap.Logger) (*ReconciliationMetrics, error) {
	if meter == nil {
		return nil, ErrMeterNil
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	m := &ReconciliationMetrics{logger: logger, stopChan: make(chan struct{})}

	var err error
	if m.operations, err = NewCounter(meter, "ledger_operations_total",
		"Ledger operations by kind and outcome", "{operations}"); err != nil {
		return nil, err
	}
	if m.allocatedCents, err = NewCounter(meter, "ledger_allocated_amount_total",
		"Amount allocated from payments to invoices, in cents", "{cents}"); err != nil {
		return nil, err
	}
	if m.recomputes, err = NewCounter(meter, "ledger_invoice_recomputes_total",
		"Invoice recomputations by resulting status", "{invoices}"); err != nil {
		return nil, err
	}
	if m.suggestions, err = NewCounter(meter, "ledger_match_suggestions_total",
		"Match suggestions returned", "{suggestions}"); err != nil {
		return nil, err
	}
	if m.operationTiming, err = NewHistogram(meter, HistogramOpts{
		Name:        "ledger_operation_duration_seconds",
		Description: "Duration of ledger operations",
		Unit:        "s",
		Boundaries:  DurationBuckets,
	}); err != nil {
		return nil, err
	}
	if m.openInvoices, err = NewGauge(meter, "ledger_open_invoices",
		"Invoices with an outstanding balance", "{invoices}"); err != nil {
		return nil, err
	}
	if m.overdueInvoices, err = NewGauge(meter, "ledger_overdue_invoices",
		"Invoices past due with an outstanding balance", "{invoices}"); err != nil {
		return nil, err
	}
	if m.unmatched, err = NewGauge(meter, "ledger_unmatched_payments",
		"Payments not fully matched to invoices", "{payments}"); err != nil {
		return nil, err
	}
	if m.outstanding, err = NewGauge(meter, "ledger_outstanding_amount",
		"Total outstanding receivables, in cents", "{cents}"); err != nil {
		return nil, err
	}
	return m, nil
}

// OutcomeOf classifies an operation error for metric labels
func OutcomeOf(err error) string {
	if err == nil {
		return OutcomeSuccess
	}
	de, ok := shared.AsDomainError(err)
	switch {
	case !ok:
		return OutcomeError
	case de.Retryable || de.Code == shared.CodeDuplicateRequest:
		return OutcomeConflict
	default:
		return OutcomeRejected
	}
}

// RecordOperation counts one ledger operation and its duration
func (m *ReconciliationMetrics) RecordOperation(ctx context.Context, operation string, started time.Time, err error) {
	if m == nil {
		return
	}
	outcome := OutcomeOf(err)
	m.operations.Inc(ctx, AttrOperation.String(operation), AttrOutcome.String(outcome))
	m.operationTiming.RecordDuration(ctx, time.Since(started), AttrOperation.String(operation))
}

// RecordAllocated adds a committed allocation amount
func (m *ReconciliationMetrics) RecordAllocated(ctx context.Context, amount decimal.Decimal) {
	if m == nil {
		return
	}
	m.allocatedCents.Add(ctx, amount.Shift(2).IntPart())
}

// RecordRecompute counts an invoice recomputation by resulting status
func (m *ReconciliationMetrics) RecordRecompute(ctx context.Context, status string) {
	if m == nil {
		return
	}
	m.recomputes.Inc(ctx, AttrStatus.String(status))
}

// RecordSuggestions counts returned match suggestions
func (m *ReconciliationMetrics) RecordSuggestions(ctx context.Context, n int) {
	if m == nil || n == 0 {
		return
	}
	m.suggestions.Add(ctx, int64(n))
}

// RecordSnapshot sets the receivables gauges
func (m *ReconciliationMetrics) RecordSnapshot(ctx context.Context, s ReceivablesSnapshot) {
	m.openInvoices.Record(ctx, s.OpenInvoices)
	m.overdueInvoices.Record(ctx, s.OverdueInvoices)
	m.unmatched.Record(ctx, s.UnmatchedCount)
	m.outstanding.Record(ctx, s.OutstandingCent)
}

// StartPeriodicCollection samples provider every interval until Stop or
// ctx is cancelled. Only the first call starts a collector.
func (m *ReconciliationMetrics) StartPeriodicCollection(ctx context.Context, provider ReceivablesProvider, interval time.Duration) {
	m.collectOnce.Do(func() {
		if interval <= 0 {
			interval = 5 * time.Minute
		}
		go m.runPeriodicCollection(ctx, provider, interval)
	})
}

func (m *ReconciliationMetrics) runPeriodicCollection(ctx context.Context, provider ReceivablesProvider, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	m.collect(ctx, provider)
	for {
		select {
		case <-m.stopChan:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.collect(ctx, provider)
		}
	}
}

func (m *ReconciliationMetrics) collect(ctx context.Context, provider ReceivablesProvider) {
	snap, err := provider.Snapshot(ctx)
	if err != nil {
		m.logger.Warn("Failed to sample receivables for metrics", zap.Error(err))
		return
	}
	m.RecordSnapshot(ctx, snap)
}

// Stop ends periodic collection.
func (m *ReconciliationMetrics) Stop() {
	m.stopOnce.Do(func() {
		close(m.stopChan)
	})
}
