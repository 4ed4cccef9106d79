package models

import (
	"time"

	"github.com/ledgerline/backend/internal/domain/layaway"
	"github.com/shopspring/decimal"
)

// LayawayPlanModel is the persistence model for a layaway plan.
type LayawayPlanModel struct {
	ID               int64                    `gorm:"primaryKey;autoIncrement"`
	InvoiceID        int64                    `gorm:"not null;uniqueIndex"`
	Months           int                      `gorm:"not null"`
	PaymentFrequency layaway.PaymentFrequency `gorm:"type:varchar(20);not null"`
	DownPayment      decimal.Decimal          `gorm:"type:decimal(18,4);not null;default:0"`
	IsCancelled      bool                     `gorm:"not null;default:false"`
	Notes            string                   `gorm:"type:text"`
	CreatedAt        time.Time                `gorm:"not null"`
	UpdatedAt        time.Time                `gorm:"not null"`

	Installments []LayawayInstallmentModel `gorm:"foreignKey:PlanID;constraint:OnDelete:CASCADE"`
}

// TableName returns the table name for GORM
func (LayawayPlanModel) TableName() string {
	return "layaway_plans"
}

// ToDomain converts the plan and any loaded installments.
func (m *LayawayPlanModel) ToDomain() *layaway.Plan {
	plan := &layaway.Plan{
		ID:               m.ID,
		InvoiceID:        m.InvoiceID,
		Months:           m.Months,
		PaymentFrequency: m.PaymentFrequency,
		DownPayment:      m.DownPayment,
		IsCancelled:      m.IsCancelled,
		Notes:            m.Notes,
		CreatedAt:        m.CreatedAt,
		UpdatedAt:        m.UpdatedAt,
		Installments:     make([]layaway.Installment, len(m.Installments)),
	}
	for i := range m.Installments {
		plan.Installments[i] = *m.Installments[i].ToDomain()
	}
	return plan
}

// FromDomain populates the plan model and its installments.
func (m *LayawayPlanModel) FromDomain(p *layaway.Plan) {
	m.ID = p.ID
	m.InvoiceID = p.InvoiceID
	m.Months = p.Months
	m.PaymentFrequency = p.PaymentFrequency
	m.DownPayment = p.DownPayment
	m.IsCancelled = p.IsCancelled
	m.Notes = p.Notes
	m.CreatedAt = p.CreatedAt
	m.UpdatedAt = p.UpdatedAt
	m.Installments = make([]LayawayInstallmentModel, len(p.Installments))
	for i := range p.Installments {
		m.Installments[i].FromDomain(&p.Installments[i])
	}
}

// LayawayInstallmentModel is one scheduled line of a plan.
type LayawayInstallmentModel struct {
	ID         int64            `gorm:"primaryKey;autoIncrement"`
	PlanID     int64            `gorm:"not null;index"`
	DueDate    time.Time        `gorm:"type:date;not null"`
	Amount     decimal.Decimal  `gorm:"type:decimal(18,4);not null"`
	Label      string           `gorm:"type:varchar(100);not null"`
	IsPaid     bool             `gorm:"not null;default:false"`
	PaidDate   *time.Time       `gorm:"type:date"`
	PaidAmount *decimal.Decimal `gorm:"type:decimal(18,4)"`
	UpdatedAt  time.Time        `gorm:"not null"`
}

// TableName returns the table name for GORM
func (LayawayInstallmentModel) TableName() string {
	return "layaway_installments"
}

// ToDomain converts the persistence model to a domain Installment.
func (m *LayawayInstallmentModel) ToDomain() *layaway.Installment {
	return &layaway.Installment{
		ID:         m.ID,
		PlanID:     m.PlanID,
		DueDate:    m.DueDate,
		Amount:     m.Amount,
		Label:      m.Label,
		IsPaid:     m.IsPaid,
		PaidDate:   m.PaidDate,
		PaidAmount: m.PaidAmount,
		UpdatedAt:  m.UpdatedAt,
	}
}

// FromDomain populates the persistence model from a domain Installment.
func (m *LayawayInstallmentModel) FromDomain(i *layaway.Installment) {
	m.ID = i.ID
	m.PlanID = i.PlanID
	m.DueDate = i.DueDate
	m.Amount = i.Amount
	m.Label = i.Label
	m.IsPaid = i.IsPaid
	m.PaidDate = i.PaidDate
	m.PaidAmount = i.PaidAmount
	m.UpdatedAt = i.UpdatedAt
}
