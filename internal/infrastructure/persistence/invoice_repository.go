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

// GormInvoiceRepository implements InvoiceRepository using GORM
type GormInvoiceRepository struct {
	db *gorm.DB
}

// NewGormInvoiceRepository creates a new GormInvoiceRepository
func NewGormInvoiceRepository(db *gorm.DB) *GormInvoiceRepository {
	return &GormInvoiceRepository{db: db}
}

// FindByID finds an invoice by its ID
func (r *GormInvoiceRepository) FindByID(ctx context.Context, id int64) (*receivable.Invoice, error) {
	return r.first(r.db.WithContext(ctx), id)
}

// FindByIDForUpdate finds an invoice and locks its row (SELECT ... FOR UPDATE)
func (r *GormInvoiceRepository) FindByIDForUpdate(ctx context.Context, id int64) (*receivable.Invoice, error) {
	return r.first(r.db.WithContext(ctx).Clauses(clause.Locking{Strength: "UPDATE"}), id)
}

func (r *GormInvoiceRepository) first(db *gorm.DB, id int64) (*receivable.Invoice, error) {
	var model models.InvoiceModel
	if err := db.First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.NotFound("invoice", id)
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindAll returns a page of invoices and the total matching count
func (r *GormInvoiceRepository) FindAll(ctx context.Context, filter receivable.InvoiceFilter) ([]receivable.Invoice, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.InvoiceModel{})
	if filter.CustomerID != nil {
		query = query.Where("customer_id = ?", *filter.CustomerID)
	}
	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}
	if filter.OpenOnly {
		query = openInvoices(query)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var rows []models.InvoiceModel
	err := query.
		Order(orderClause(filter.OrderBy, filter.OrderDir, InvoiceSortFields, "created_at")).
		Offset(filter.Offset()).
		Limit(filter.PageSize).
		Find(&rows).Error
	if err != nil {
		return nil, 0, err
	}
	return invoicesToDomain(rows), total, nil
}

// FindOpen returns every active invoice with an outstanding balance, oldest due first
func (r *GormInvoiceRepository) FindOpen(ctx context.Context) ([]receivable.Invoice, error) {
	var rows []models.InvoiceModel
	err := openInvoices(r.db.WithContext(ctx)).
		Order("due_date ASC, id ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return invoicesToDomain(rows), nil
}

// FindByCustomerIDs returns all invoices of the given customers
func (r *GormInvoiceRepository) FindByCustomerIDs(ctx context.Context, customerIDs []int64) ([]receivable.Invoice, error) {
	if len(customerIDs) == 0 {
		return []receivable.Invoice{}, nil
	}
	var rows []models.InvoiceModel
	err := r.db.WithContext(ctx).
		Where("customer_id IN ?", customerIDs).
		Order("id ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return invoicesToDomain(rows), nil
}

// ListIDs returns every invoice id in ascending order
func (r *GormInvoiceRepository) ListIDs(ctx context.Context) ([]int64, error) {
	var ids []int64
	err := r.db.WithContext(ctx).
		Model(&models.InvoiceModel{}).
		Order("id ASC").
		Pluck("id", &ids).Error
	return ids, err
}

// Create inserts the invoice and sets its generated ID
func (r *GormInvoiceRepository) Create(ctx context.Context, invoice *receivable.Invoice) error {
	model := &models.InvoiceModel{}
	model.FromDomain(invoice)
	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		return err
	}
	invoice.ID = model.ID
	return nil
}

// Save updates the invoice when its version is unchanged and bumps the version
func (r *GormInvoiceRepository) Save(ctx context.Context, invoice *receivable.Invoice) error {
	result := r.db.WithContext(ctx).
		Model(&models.InvoiceModel{}).
		Where("id = ? AND version = ?", invoice.ID, invoice.Version).
		Updates(map[string]any{
			"customer_id": invoice.CustomerID,
			"subtotal":    invoice.Subtotal,
			"tax":         invoice.Tax,
			"discount":    invoice.Discount,
			"amount":      invoice.Amount,
			"paid_amount": invoice.PaidAmount,
			"due_date":    invoice.DueDate,
			"status":      invoice.Status,
			"notes":       invoice.Notes,
			"updated_at":  invoice.UpdatedAt,
			"version":     invoice.Version + 1,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrConcurrencyConflict
	}
	invoice.Version++
	return nil
}

// Delete deletes an invoice
func (r *GormInvoiceRepository) Delete(ctx context.Context, id int64) error {
	result := r.db.WithContext(ctx).Delete(&models.InvoiceModel{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.NotFound("invoice", id)
	}
	return nil
}

// DetachCustomer clears the customer reference of the customer's invoices
func (r *GormInvoiceRepository) DetachCustomer(ctx context.Context, customerID int64) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&models.InvoiceModel{}).
		Where("customer_id = ?", customerID).
		Update("customer_id", nil)
	return result.RowsAffected, result.Error
}

func openInvoices(db *gorm.DB) *gorm.DB {
	return db.Where("status <> ? AND amount > paid_amount", receivable.InvoiceStatusInactive)
}

func invoicesToDomain(rows []models.InvoiceModel) []receivable.Invoice {
	out := make([]receivable.Invoice, len(rows))
	for i := range rows {
		out[i] = *rows[i].ToDomain()
	}
	return out
}

// Ensure GormInvoiceRepository implements InvoiceRepository
var _ receivable.InvoiceRepository = (*GormInvoiceRepository)(nil)
