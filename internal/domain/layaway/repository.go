package layaway

import "context"

// PlanRepository defines persistence for layaway plans and their installments
type PlanRepository interface {
	// FindByID loads the plan with installments ordered by due date
	FindByID(ctx context.Context, id int64) (*Plan, error)

	// FindByInvoice returns shared.ErrNotFound when the invoice has no plan
	FindByInvoice(ctx context.Context, invoiceID int64) (*Plan, error)

	// ExistsForInvoice reports whether a plan is attached to the invoice
	ExistsForInvoice(ctx context.Context, invoiceID int64) (bool, error)

	// Create inserts the plan and its installments
	Create(ctx context.Context, plan *Plan) error

	// Save updates plan level fields only
	Save(ctx context.Context, plan *Plan) error

	// DeleteByInvoice removes the plan and its installments, if any
	DeleteByInvoice(ctx context.Context, invoiceID int64) error

	FindInstallment(ctx context.Context, id int64) (*Installment, error)
	SaveInstallment(ctx context.Context, inst *Installment) error
}
