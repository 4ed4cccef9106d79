package persistence

import (
	"context"
	"time"

	"github.com/ledgerline/backend/internal/domain/receivable"
	"gorm.io/gorm"
)

// GormInvoiceSequenceRepository hands out per-year invoice sequence numbers
type GormInvoiceSequenceRepository struct {
	db *gorm.DB
}

// NewGormInvoiceSequenceRepository creates a new GormInvoiceSequenceRepository
func NewGormInvoiceSequenceRepository(db *gorm.DB) *GormInvoiceSequenceRepository {
	return &GormInvoiceSequenceRepository{db: db}
}

// upsert keeps the year's row locked until the caller's transaction ends
const nextSequenceSQL = `INSERT INTO invoice_sequences (year, last_value, updated_at)
VALUES (?, 1, ?)
ON CONFLICT (year) DO UPDATE SET last_value = invoice_sequences.last_value + 1, updated_at = excluded.updated_at
RETURNING last_value`

// Next increments and returns the sequence for year, starting at 1
func (r *GormInvoiceSequenceRepository) Next(ctx context.Context, year int) (int, error) {
	var next int
	if err := r.db.WithContext(ctx).Raw(nextSequenceSQL, year, time.Now()).Scan(&next).Error; err != nil {
		return 0, err
	}
	return next, nil
}

// Ensure GormInvoiceSequenceRepository implements InvoiceSequenceRepository
var _ receivable.InvoiceSequenceRepository = (*GormInvoiceSequenceRepository)(nil)
