package persistence

import (
	"context"
	"errors"

	"github.com/ledgerline/backend/internal/domain/layaway"
	"github.com/ledgerline/backend/internal/domain/shared"
	"github.com/ledgerline/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormLayawayRepository implements layaway.PlanRepository using GORM
type GormLayawayRepository struct {
	db *gorm.DB
}

// NewGormLayawayRepository creates a new GormLayawayRepository
func NewGormLayawayRepository(db *gorm.DB) *GormLayawayRepository {
	return &GormLayawayRepository{db: db}
}

func (r *GormLayawayRepository) withInstallments(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).Preload("Installments", func(db *gorm.DB) *gorm.DB {
		return db.Order("due_date ASC, id ASC")
	})
}

// FindByID loads a plan with its installments
func (r *GormLayawayRepository) FindByID(ctx context.Context, id int64) (*layaway.Plan, error) {
	var model models.LayawayPlanModel
	if err := r.withInstallments(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, layaway.ErrPlanNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByInvoice loads the plan attached to the invoice
func (r *GormLayawayRepository) FindByInvoice(ctx context.Context, invoiceID int64) (*layaway.Plan, error) {
	var model models.LayawayPlanModel
	if err := r.withInstallments(ctx).First(&model, "invoice_id = ?", invoiceID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, layaway.ErrPlanNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// ExistsForInvoice reports whether the invoice already has a plan
func (r *GormLayawayRepository) ExistsForInvoice(ctx context.Context, invoiceID int64) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.LayawayPlanModel{}).
		Where("invoice_id = ?", invoiceID).
		Count(&count).Error
	return count > 0, err
}

// Create inserts the plan together with its installments
func (r *GormLayawayRepository) Create(ctx context.Context, plan *layaway.Plan) error {
	model := &models.LayawayPlanModel{}
	model.FromDomain(plan)
	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		return err
	}
	plan.ID = model.ID
	for i := range model.Installments {
		plan.Installments[i].ID = model.Installments[i].ID
		plan.Installments[i].PlanID = model.ID
	}
	return nil
}

// Save updates plan level fields. Installments are saved one by one.
func (r *GormLayawayRepository) Save(ctx context.Context, plan *layaway.Plan) error {
	result := r.db.WithContext(ctx).
		Model(&models.LayawayPlanModel{}).
		Where("id = ?", plan.ID).
		Updates(map[string]any{
			"is_cancelled": plan.IsCancelled,
			"notes":        plan.Notes,
			"updated_at":   plan.UpdatedAt,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return layaway.ErrPlanNotFound
	}
	return nil
}

// DeleteByInvoice removes the invoice's plan and installments; no plan is not an error
func (r *GormLayawayRepository) DeleteByInvoice(ctx context.Context, invoiceID int64) error {
	db := r.db.WithContext(ctx)
	var planIDs []int64
	if err := db.Model(&models.LayawayPlanModel{}).Where("invoice_id = ?", invoiceID).Pluck("id", &planIDs).Error; err != nil {
		return err
	}
	if len(planIDs) == 0 {
		return nil
	}
	if err := db.Where("plan_id IN ?", planIDs).Delete(&models.LayawayInstallmentModel{}).Error; err != nil {
		return err
	}
	return db.Where("id IN ?", planIDs).Delete(&models.LayawayPlanModel{}).Error
}

// FindInstallment finds one installment by its ID
func (r *GormLayawayRepository) FindInstallment(ctx context.Context, id int64) (*layaway.Installment, error) {
	var model models.LayawayInstallmentModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.NotFound("installment", id)
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// SaveInstallment persists the paid state of an installment
func (r *GormLayawayRepository) SaveInstallment(ctx context.Context, inst *layaway.Installment) error {
	result := r.db.WithContext(ctx).
		Model(&models.LayawayInstallmentModel{}).
		Where("id = ?", inst.ID).
		Updates(map[string]any{
			"is_paid":     inst.IsPaid,
			"paid_date":   inst.PaidDate,
			"paid_amount": inst.PaidAmount,
			"label":       inst.Label,
			"updated_at":  inst.UpdatedAt,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.NotFound("installment", inst.ID)
	}
	return nil
}

// Ensure GormLayawayRepository implements PlanRepository
var _ layaway.PlanRepository = (*GormLayawayRepository)(nil)
