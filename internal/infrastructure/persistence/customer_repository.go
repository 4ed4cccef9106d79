package persistence

import (
	"context"
	"errors"

	"github.com/ledgerline/backend/internal/domain/receivable"
	"github.com/ledgerline/backend/internal/domain/shared"
	"github.com/ledgerline/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormCustomerRepository implements CustomerRepository using GORM
type GormCustomerRepository struct {
	db *gorm.DB
}

// NewGormCustomerRepository creates a new GormCustomerRepository
func NewGormCustomerRepository(db *gorm.DB) *GormCustomerRepository {
	return &GormCustomerRepository{db: db}
}

// FindByID finds a customer by its ID
func (r *GormCustomerRepository) FindByID(ctx context.Context, id int64) (*receivable.Customer, error) {
	var model models.CustomerModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.NotFound("customer", id)
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindAll returns every customer ordered by ID
func (r *GormCustomerRepository) FindAll(ctx context.Context) ([]receivable.Customer, error) {
	var rows []models.CustomerModel
	if err := r.db.WithContext(ctx).Order("id ASC").Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]receivable.Customer, len(rows))
	for i := range rows {
		out[i] = *rows[i].ToDomain()
	}
	return out, nil
}

// Create inserts the customer and sets its generated ID
func (r *GormCustomerRepository) Create(ctx context.Context, customer *receivable.Customer) error {
	model := &models.CustomerModel{}
	model.FromDomain(customer)
	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		return err
	}
	customer.ID = model.ID
	return nil
}

// Save updates a customer's contact fields
func (r *GormCustomerRepository) Save(ctx context.Context, customer *receivable.Customer) error {
	result := r.db.WithContext(ctx).
		Model(&models.CustomerModel{}).
		Where("id = ?", customer.ID).
		Updates(map[string]any{
			"name":       customer.Name,
			"email":      customer.Email,
			"phone":      customer.Phone,
			"address":    customer.Address,
			"updated_at": customer.UpdatedAt,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.NotFound("customer", customer.ID)
	}
	return nil
}

// Delete deletes a customer
func (r *GormCustomerRepository) Delete(ctx context.Context, id int64) error {
	result := r.db.WithContext(ctx).Delete(&models.CustomerModel{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.NotFound("customer", id)
	}
	return nil
}

// Ensure GormCustomerRepository implements CustomerRepository
var _ receivable.CustomerRepository = (*GormCustomerRepository)(nil)
