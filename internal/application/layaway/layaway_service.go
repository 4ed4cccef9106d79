// Package layaway schedules installments for layaway invoices. Installment
// flags are bookkeeping and never move money through the ledger.
package layaway

import (
	"context"
	"time"

	appreceivable "github.com/ledgerline/backend/internal/application/receivable"
	"github.com/ledgerline/backend/internal/domain/layaway"
	"github.com/ledgerline/backend/internal/infrastructure/logger"
	"github.com/ledgerline/backend/internal/infrastructure/telemetry"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// CreatePlanRequest describes a plan and its caller supplied schedule
type CreatePlanRequest struct {
	InvoiceID        int64
	Months           int
	PaymentFrequency layaway.PaymentFrequency
	DownPayment      decimal.Decimal
	Notes            string
	Installments     []layaway.InstallmentInput
}

// Service handles layaway plans
type Service struct {
	scope appreceivable.TransactionScope
	now   func() time.Time
}

// NewService creates a new layaway Service
func NewService(scope appreceivable.TransactionScope) *Service {
	return &Service{scope: scope, now: time.Now}
}

// SetClock overrides the time source used to stamp paid dates
func (s *Service) SetClock(now func() time.Time) {
	if now != nil {
		s.now = now
	}
}

// CreatePlan attaches a plan to a layaway invoice. An invoice holds at most
// one plan; the invoice row is locked while that is checked.
func (s *Service) CreatePlan(ctx context.Context, req CreatePlanRequest) (*layaway.Plan, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "layaway", "create_plan", telemetry.SpanAttrInvoiceID, req.InvoiceID)
	defer span.End()

	var plan *layaway.Plan
	err := s.scope.Execute(ctx, func(repos appreceivable.TransactionalRepositories) error {
		invoice, err := repos.InvoiceRepo().FindByIDForUpdate(ctx, req.InvoiceID)
		if err != nil {
			return err
		}
		if err := layaway.EnsureLayaway(invoice); err != nil {
			return err
		}
		exists, err := repos.LayawayRepo().ExistsForInvoice(ctx, invoice.ID)
		if err != nil {
			return err
		}
		if exists {
			return layaway.ErrPlanExists.WithDetail("invoice_id", invoice.ID)
		}

		p, err := layaway.NewPlan(invoice.ID, req.Months, req.PaymentFrequency, req.DownPayment, req.Notes, req.Installments)
		if err != nil {
			return err
		}
		if err := repos.LayawayRepo().Create(ctx, p); err != nil {
			return err
		}
		plan = p
		return nil
	})
	if err != nil {
		telemetry.RecordError(span, err)
		logger.L(ctx).Warn("layaway plan rejected", zap.Int64("invoice_id", req.InvoiceID), zap.Error(err))
		return nil, err
	}

	logger.L(ctx).Info("layaway plan created",
		zap.Int64("plan_id", plan.ID),
		zap.Int64("invoice_id", plan.InvoiceID),
		zap.Int("installments", len(plan.Installments)),
	)
	return plan, nil
}

// SetInstallmentPaid flips an installment's paid flag. It does not touch the
// invoice or the allocation ledger.
func (s *Service) SetInstallmentPaid(ctx context.Context, installmentID int64, paid bool) (*layaway.Installment, error) {
	var inst *layaway.Installment
	err := s.scope.Execute(ctx, func(repos appreceivable.TransactionalRepositories) error {
		var err error
		inst, err = repos.LayawayRepo().FindInstallment(ctx, installmentID)
		if err != nil {
			return err
		}
		if !inst.SetPaid(paid, s.now()) {
			return nil
		}
		return repos.LayawayRepo().SaveInstallment(ctx, inst)
	})
	if err != nil {
		return nil, err
	}
	logger.L(ctx).Info("installment updated",
		zap.Int64("installment_id", installmentID),
		zap.Int64("plan_id", inst.PlanID),
		zap.Bool("paid", inst.IsPaid),
	)
	return inst, nil
}

// CancelPlan marks the plan cancelled
func (s *Service) CancelPlan(ctx context.Context, planID int64) (*layaway.Plan, error) {
	return s.updatePlan(ctx, planID, func(p *layaway.Plan) { p.Cancel() })
}

// UpdateNotes replaces the plan's notes
func (s *Service) UpdateNotes(ctx context.Context, planID int64, notes string) (*layaway.Plan, error) {
	return s.updatePlan(ctx, planID, func(p *layaway.Plan) { p.UpdateNotes(notes) })
}

func (s *Service) updatePlan(ctx context.Context, planID int64, mutate func(*layaway.Plan)) (*layaway.Plan, error) {
	var plan *layaway.Plan
	err := s.scope.Execute(ctx, func(repos appreceivable.TransactionalRepositories) error {
		p, err := repos.LayawayRepo().FindByID(ctx, planID)
		if err != nil {
			return err
		}
		mutate(p)
		if err := repos.LayawayRepo().Save(ctx, p); err != nil {
			return err
		}
		plan = p
		return nil
	})
	if err != nil {
		return nil, err
	}
	logger.L(ctx).Info("layaway plan updated", zap.Int64("plan_id", planID), zap.Bool("cancelled", plan.IsCancelled))
	return plan, nil
}

// GetPlanByInvoice returns the invoice's plan with its installments
func (s *Service) GetPlanByInvoice(ctx context.Context, invoiceID int64) (*layaway.Plan, error) {
	var plan *layaway.Plan
	err := s.scope.Execute(ctx, func(repos appreceivable.TransactionalRepositories) error {
		var err error
		plan, err = repos.LayawayRepo().FindByInvoice(ctx, invoiceID)
		return err
	})
	return plan, err
}
