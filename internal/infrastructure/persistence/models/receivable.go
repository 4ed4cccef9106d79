package models

import (
	"time"

	"github.com/ledgerline/backend/internal/domain/receivable"
	"github.com/shopspring/decimal"
)

// CustomerModel is the persistence model for the Customer entity.
type CustomerModel struct {
	ID        int64     `gorm:"primaryKey;autoIncrement"`
	Name      string    `gorm:"type:varchar(200);not null"`
	Email     string    `gorm:"type:varchar(200);index"`
	Phone     string    `gorm:"type:varchar(50)"`
	Address   string    `gorm:"type:text"`
	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`
}

// TableName returns the table name for GORM
func (CustomerModel) TableName() string {
	return "customers"
}

// ToDomain converts the persistence model to a domain Customer.
func (m *CustomerModel) ToDomain() *receivable.Customer {
	return &receivable.Customer{
		ID:        m.ID,
		Name:      m.Name,
		Email:     m.Email,
		Phone:     m.Phone,
		Address:   m.Address,
		CreatedAt: m.CreatedAt,
		UpdatedAt: m.UpdatedAt,
	}
}

// FromDomain populates the persistence model from a domain Customer.
func (m *CustomerModel) FromDomain(c *receivable.Customer) {
	m.ID = c.ID
	m.Name = c.Name
	m.Email = c.Email
	m.Phone = c.Phone
	m.Address = c.Address
	m.CreatedAt = c.CreatedAt
	m.UpdatedAt = c.UpdatedAt
}

// InvoiceModel is the persistence model for the Invoice aggregate.
type InvoiceModel struct {
	ID            int64                    `gorm:"primaryKey;autoIncrement"`
	InvoiceNumber string                   `gorm:"type:varchar(32);not null;uniqueIndex"`
	CustomerID    *int64                   `gorm:"index"`
	Subtotal      decimal.Decimal          `gorm:"type:decimal(18,4);not null;default:0"`
	Tax           decimal.Decimal          `gorm:"type:decimal(18,4);not null;default:0"`
	Discount      decimal.Decimal          `gorm:"type:decimal(18,4);not null;default:0"`
	Amount        decimal.Decimal          `gorm:"type:decimal(18,4);not null"`
	PaidAmount    decimal.Decimal          `gorm:"type:decimal(18,4);not null;default:0"`
	DueDate       time.Time                `gorm:"type:date;not null;index"`
	Status        receivable.InvoiceStatus `gorm:"type:varchar(20);not null;default:'pending';index"`
	IsLayaway     bool                     `gorm:"not null;default:false"`
	Notes         string                   `gorm:"type:text"`
	CreatedAt     time.Time                `gorm:"not null"`
	UpdatedAt     time.Time                `gorm:"not null"`
	Version       int                      `gorm:"not null;default:1"`
}

// TableName returns the table name for GORM
func (InvoiceModel) TableName() string {
	return "invoices"
}

// ToDomain converts the persistence model to a domain Invoice.
func (m *InvoiceModel) ToDomain() *receivable.Invoice {
	return &receivable.Invoice{
		ID:            m.ID,
		InvoiceNumber: m.InvoiceNumber,
		CustomerID:    m.CustomerID,
		Subtotal:      m.Subtotal,
		Tax:           m.Tax,
		Discount:      m.Discount,
		Amount:        m.Amount,
		PaidAmount:    m.PaidAmount,
		DueDate:       m.DueDate,
		Status:        m.Status,
		IsLayaway:     m.IsLayaway,
		Notes:         m.Notes,
		CreatedAt:     m.CreatedAt,
		UpdatedAt:     m.UpdatedAt,
		Version:       m.Version,
	}
}

// FromDomain populates the persistence model from a domain Invoice.
func (m *InvoiceModel) FromDomain(i *receivable.Invoice) {
	m.ID = i.ID
	m.InvoiceNumber = i.InvoiceNumber
	m.CustomerID = i.CustomerID
	m.Subtotal = i.Subtotal
	m.Tax = i.Tax
	m.Discount = i.Discount
	m.Amount = i.Amount
	m.PaidAmount = i.PaidAmount
	m.DueDate = i.DueDate
	m.Status = i.Status
	m.IsLayaway = i.IsLayaway
	m.Notes = i.Notes
	m.CreatedAt = i.CreatedAt
	m.UpdatedAt = i.UpdatedAt
	m.Version = i.Version
}

// PaymentModel is the persistence model for the Payment entity.
type PaymentModel struct {
	ID          int64                    `gorm:"primaryKey;autoIncrement"`
	Amount      decimal.Decimal          `gorm:"type:decimal(18,4);not null"`
	PaymentDate time.Time                `gorm:"type:date;not null"`
	Method      receivable.PaymentMethod `gorm:"type:varchar(20);not null"`
	Reference   string                   `gorm:"type:varchar(100)"`
	InvoiceID   *int64                   `gorm:"index"`
	IsMatched   bool                     `gorm:"not null;default:false;index"`
	CreatedAt   time.Time                `gorm:"not null"`
	UpdatedAt   time.Time                `gorm:"not null"`
}

// TableName returns the table name for GORM
func (PaymentModel) TableName() string {
	return "payments"
}

// ToDomain converts the persistence model to a domain Payment.
func (m *PaymentModel) ToDomain() *receivable.Payment {
	return &receivable.Payment{
		ID:          m.ID,
		Amount:      m.Amount,
		PaymentDate: m.PaymentDate,
		Method:      m.Method,
		Reference:   m.Reference,
		InvoiceID:   m.InvoiceID,
		IsMatched:   m.IsMatched,
		CreatedAt:   m.CreatedAt,
		UpdatedAt:   m.UpdatedAt,
	}
}

// FromDomain populates the persistence model from a domain Payment.
func (m *PaymentModel) FromDomain(p *receivable.Payment) {
	m.ID = p.ID
	m.Amount = p.Amount
	m.PaymentDate = p.PaymentDate
	m.Method = p.Method
	m.Reference = p.Reference
	m.InvoiceID = p.InvoiceID
	m.IsMatched = p.IsMatched
	m.CreatedAt = p.CreatedAt
	m.UpdatedAt = p.UpdatedAt
}

// AllocationModel is one row of the allocation ledger.
type AllocationModel struct {
	ID        int64           `gorm:"primaryKey;autoIncrement"`
	PaymentID int64           `gorm:"not null;index"`
	InvoiceID int64           `gorm:"not null;index"`
	Amount    decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	CreatedAt time.Time       `gorm:"not null"`
}

// TableName returns the table name for GORM
func (AllocationModel) TableName() string {
	return "payment_invoice_matches"
}

// ToDomain converts the persistence model to a domain Allocation.
func (m *AllocationModel) ToDomain() *receivable.Allocation {
	return &receivable.Allocation{
		ID:        m.ID,
		PaymentID: m.PaymentID,
		InvoiceID: m.InvoiceID,
		Amount:    m.Amount,
		CreatedAt: m.CreatedAt,
	}
}

// FromDomain populates the persistence model from a domain Allocation.
func (m *AllocationModel) FromDomain(a *receivable.Allocation) {
	m.ID = a.ID
	m.PaymentID = a.PaymentID
	m.InvoiceID = a.InvoiceID
	m.Amount = a.Amount
	m.CreatedAt = a.CreatedAt
}

// InvoiceSequenceModel holds the last issued invoice sequence of a year.
type InvoiceSequenceModel struct {
	Year      int       `gorm:"primaryKey;autoIncrement:false"`
	LastValue int       `gorm:"not null;default:0"`
	UpdatedAt time.Time `gorm:"not null"`
}

// TableName returns the table name for GORM
func (InvoiceSequenceModel) TableName() string {
	return "invoice_sequences"
}
