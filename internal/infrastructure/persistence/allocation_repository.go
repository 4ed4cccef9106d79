package persistence

import (
	"context"
	"errors"

	"github.com/ledgerline/backend/internal/domain/receivable"
	"github.com/ledgerline/backend/internal/domain/shared"
	"github.com/ledgerline/backend/internal/infrastructure/persistence/models"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// GormAllocationRepository implements AllocationRepository on the
// payment_invoice_matches table
type GormAllocationRepository struct {
	db *gorm.DB
}

// NewGormAllocationRepository creates a new GormAllocationRepository
func NewGormAllocationRepository(db *gorm.DB) *GormAllocationRepository {
	return &GormAllocationRepository{db: db}
}

// FindByID finds an allocation by its ID
func (r *GormAllocationRepository) FindByID(ctx context.Context, id int64) (*receivable.Allocation, error) {
	var model models.AllocationModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.NotFound("allocation", id)
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByPayment returns the payment's allocations in insertion order
func (r *GormAllocationRepository) FindByPayment(ctx context.Context, paymentID int64) ([]receivable.Allocation, error) {
	return r.find(ctx, "payment_id = ?", paymentID)
}

// FindByInvoice returns the invoice's allocations in insertion order
func (r *GormAllocationRepository) FindByInvoice(ctx context.Context, invoiceID int64) ([]receivable.Allocation, error) {
	return r.find(ctx, "invoice_id = ?", invoiceID)
}

func (r *GormAllocationRepository) find(ctx context.Context, cond string, arg int64) ([]receivable.Allocation, error) {
	var rows []models.AllocationModel
	if err := r.db.WithContext(ctx).Where(cond, arg).Order("id ASC").Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]receivable.Allocation, len(rows))
	for i := range rows {
		out[i] = *rows[i].ToDomain()
	}
	return out, nil
}

// SumByPayment totals the payment's allocations. Amounts are added as
// decimals in Go so drivers without exact numeric SUM give the same result.
func (r *GormAllocationRepository) SumByPayment(ctx context.Context, paymentID int64) (decimal.Decimal, error) {
	var amounts []decimal.Decimal
	err := r.db.WithContext(ctx).
		Model(&models.AllocationModel{}).
		Where("payment_id = ?", paymentID).
		Pluck("amount", &amounts).Error
	if err != nil {
		return decimal.Zero, err
	}
	return decimal.Sum(decimal.Zero, amounts...), nil
}

// SumByPayments totals allocations per payment. Ids without rows map to zero.
func (r *GormAllocationRepository) SumByPayments(ctx context.Context, paymentIDs []int64) (map[int64]decimal.Decimal, error) {
	sums := make(map[int64]decimal.Decimal, len(paymentIDs))
	if len(paymentIDs) == 0 {
		return sums, nil
	}
	for _, id := range paymentIDs {
		sums[id] = decimal.Zero
	}

	var rows []models.AllocationModel
	err := r.db.WithContext(ctx).
		Select("payment_id", "amount").
		Where("payment_id IN ?", paymentIDs).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	for _, row := range rows {
		sums[row.PaymentID] = sums[row.PaymentID].Add(row.Amount)
	}
	return sums, nil
}

// Create inserts one allocation
func (r *GormAllocationRepository) Create(ctx context.Context, allocation *receivable.Allocation) error {
	model := &models.AllocationModel{}
	model.FromDomain(allocation)
	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		return err
	}
	allocation.ID = model.ID
	return nil
}

// CreateBatch inserts all allocations in one statement
func (r *GormAllocationRepository) CreateBatch(ctx context.Context, allocations []*receivable.Allocation) error {
	if len(allocations) == 0 {
		return nil
	}
	rows := make([]models.AllocationModel, len(allocations))
	for i, a := range allocations {
		rows[i].FromDomain(a)
	}
	if err := r.db.WithContext(ctx).Create(&rows).Error; err != nil {
		return err
	}
	for i := range rows {
		allocations[i].ID = rows[i].ID
	}
	return nil
}

// Delete deletes one allocation
func (r *GormAllocationRepository) Delete(ctx context.Context, id int64) error {
	result := r.db.WithContext(ctx).Delete(&models.AllocationModel{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.NotFound("allocation", id)
	}
	return nil
}

// DeleteByInvoice deletes the invoice's allocations and returns the
// distinct payment ids they referenced
func (r *GormAllocationRepository) DeleteByInvoice(ctx context.Context, invoiceID int64) ([]int64, error) {
	return r.deleteReturning(ctx, "invoice_id", "payment_id", invoiceID)
}

// DeleteByPayment deletes the payment's allocations and returns the
// distinct invoice ids they referenced
func (r *GormAllocationRepository) DeleteByPayment(ctx context.Context, paymentID int64) ([]int64, error) {
	return r.deleteReturning(ctx, "payment_id", "invoice_id", paymentID)
}

func (r *GormAllocationRepository) deleteReturning(ctx context.Context, keyColumn, otherColumn string, id int64) ([]int64, error) {
	db := r.db.WithContext(ctx)
	var ids []int64
	err := db.Model(&models.AllocationModel{}).
		Where(keyColumn+" = ?", id).
		Distinct(otherColumn).
		Order(otherColumn+" ASC").
		Pluck(otherColumn, &ids).Error
	if err != nil {
		return nil, err
	}
	if err := db.Where(keyColumn+" = ?", id).Delete(&models.AllocationModel{}).Error; err != nil {
		return nil, err
	}
	return ids, nil
}

// Ensure GormAllocationRepository implements AllocationRepository
var _ receivable.AllocationRepository = (*GormAllocationRepository)(nil)
