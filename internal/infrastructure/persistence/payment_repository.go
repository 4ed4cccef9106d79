package persistence

import (
	"context"
	"errors"

	"github.com/ledgerline/backend/internal/domain/receivable"
	"github.com/ledgerline/backend/internal/domain/shared"
	"github.com/ledgerline/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormPaymentRepository implements PaymentRepository using GORM
type GormPaymentRepository struct {
	db *gorm.DB
}

// NewGormPaymentRepository creates a new GormPaymentRepository
func NewGormPaymentRepository(db *gorm.DB) *GormPaymentRepository {
	return &GormPaymentRepository{db: db}
}

// FindByID finds a payment by its ID
func (r *GormPaymentRepository) FindByID(ctx context.Context, id int64) (*receivable.Payment, error) {
	return r.first(r.db.WithContext(ctx), id)
}

// FindByIDForUpdate finds a payment and locks its row
func (r *GormPaymentRepository) FindByIDForUpdate(ctx context.Context, id int64) (*receivable.Payment, error) {
	return r.first(r.db.WithContext(ctx).Clauses(clause.Locking{Strength: "UPDATE"}), id)
}

func (r *GormPaymentRepository) first(db *gorm.DB, id int64) (*receivable.Payment, error) {
	var model models.PaymentModel
	if err := db.First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.NotFound("payment", id)
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindAll returns a page of payments and the total matching count
func (r *GormPaymentRepository) FindAll(ctx context.Context, filter receivable.PaymentFilter) ([]receivable.Payment, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.PaymentModel{})
	if filter.UnmatchedOnly {
		query = query.Where("is_matched = ?", false)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var rows []models.PaymentModel
	err := query.
		Order(orderClause(filter.OrderBy, filter.OrderDir, PaymentSortFields, "payment_date")).
		Offset(filter.Offset()).
		Limit(filter.PageSize).
		Find(&rows).Error
	if err != nil {
		return nil, 0, err
	}
	return paymentsToDomain(rows), total, nil
}

// FindDirectByInvoice returns payments directly bound to the invoice
func (r *GormPaymentRepository) FindDirectByInvoice(ctx context.Context, invoiceID int64) ([]receivable.Payment, error) {
	var rows []models.PaymentModel
	err := r.db.WithContext(ctx).
		Where("invoice_id = ?", invoiceID).
		Order("id ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return paymentsToDomain(rows), nil
}

// Create inserts the payment and sets its generated ID
func (r *GormPaymentRepository) Create(ctx context.Context, payment *receivable.Payment) error {
	model := &models.PaymentModel{}
	model.FromDomain(payment)
	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		return err
	}
	payment.ID = model.ID
	return nil
}

// Save persists the mutable fields of a payment. Amount is never rewritten.
func (r *GormPaymentRepository) Save(ctx context.Context, payment *receivable.Payment) error {
	result := r.db.WithContext(ctx).
		Model(&models.PaymentModel{}).
		Where("id = ?", payment.ID).
		Updates(map[string]any{
			"invoice_id": payment.InvoiceID,
			"is_matched": payment.IsMatched,
			"reference":  payment.Reference,
			"updated_at": payment.UpdatedAt,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.NotFound("payment", payment.ID)
	}
	return nil
}

// Delete deletes a payment
func (r *GormPaymentRepository) Delete(ctx context.Context, id int64) error {
	result := r.db.WithContext(ctx).Delete(&models.PaymentModel{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.NotFound("payment", id)
	}
	return nil
}

// DetachInvoice clears the direct binding of payments bound to the invoice
func (r *GormPaymentRepository) DetachInvoice(ctx context.Context, invoiceID int64) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&models.PaymentModel{}).
		Where("invoice_id = ?", invoiceID).
		Update("invoice_id", nil)
	return result.RowsAffected, result.Error
}

func paymentsToDomain(rows []models.PaymentModel) []receivable.Payment {
	out := make([]receivable.Payment, len(rows))
	for i := range rows {
		out[i] = *rows[i].ToDomain()
	}
	return out
}

// Ensure GormPaymentRepository implements PaymentRepository
var _ receivable.PaymentRepository = (*GormPaymentRepository)(nil)
