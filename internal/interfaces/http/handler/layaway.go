package handler

import (
	"time"

	"github.com/gin-gonic/gin"
	applayaway "github.com/ledgerline/backend/internal/application/layaway"
	"github.com/ledgerline/backend/internal/domain/layaway"
	"github.com/shopspring/decimal"
)

// LayawayHandler handles installment plans of layaway invoices
type LayawayHandler struct {
	BaseHandler
	layawayService *applayaway.Service
}

// NewLayawayHandler creates a new LayawayHandler
func NewLayawayHandler(layawayService *applayaway.Service) *LayawayHandler {
	return &LayawayHandler{layawayService: layawayService}
}

// InstallmentInput is one caller supplied schedule line
type InstallmentInput struct {
	DueDate string          `json:"due_date" binding:"required,datetime=2006-01-02" example:"2026-04-01"`
	Amount  decimal.Decimal `json:"amount" binding:"decimal_gt0" swaggertype:"string" example:"50.00"`
	Label   string          `json:"label" binding:"max=100" example:"April"`
}

// CreatePlanRequest represents a layaway plan with its schedule
// @Description Request body for attaching a plan to a layaway invoice
type CreatePlanRequest struct {
	Months           int                `json:"months" binding:"required,min=1,max=120" example:"3"`
	PaymentFrequency string             `json:"payment_frequency" binding:"required,oneof=weekly biweekly monthly" example:"monthly"`
	DownPayment      decimal.Decimal    `json:"down_payment" binding:"decimal_gte0" swaggertype:"string" example:"20.00"`
	Notes            string             `json:"notes" binding:"max=2000"`
	Installments     []InstallmentInput `json:"installments" binding:"max=520,dive"`
}

// SetInstallmentPaidRequest flips an installment's paid flag
type SetInstallmentPaidRequest struct {
	IsPaid *bool `json:"is_paid" binding:"required"`
}

// UpdatePlanNotesRequest replaces the notes of a plan
type UpdatePlanNotesRequest struct {
	Notes string `json:"notes" binding:"max=2000"`
}

// InstallmentResponse represents one installment
type InstallmentResponse struct {
	ID         int64            `json:"id"`
	PlanID     int64            `json:"plan_id"`
	DueDate    string           `json:"due_date" example:"2026-04-01"`
	Amount     decimal.Decimal  `json:"amount" swaggertype:"string"`
	Label      string           `json:"label"`
	IsPaid     bool             `json:"is_paid"`
	PaidDate   *time.Time       `json:"paid_date,omitempty"`
	PaidAmount *decimal.Decimal `json:"paid_amount,omitempty" swaggertype:"string"`
}

// PlanResponse represents a plan with its schedule and progress
type PlanResponse struct {
	ID               int64                 `json:"id"`
	InvoiceID        int64                 `json:"invoice_id"`
	Months           int                   `json:"months"`
	PaymentFrequency string                `json:"payment_frequency"`
	DownPayment      decimal.Decimal       `json:"down_payment" swaggertype:"string"`
	IsCancelled      bool                  `json:"is_cancelled"`
	Notes            string                `json:"notes,omitempty"`
	Installments     []InstallmentResponse `json:"installments"`
	Progress         layaway.Progress      `json:"progress"`
	CreatedAt        time.Time             `json:"created_at"`
	UpdatedAt        time.Time             `json:"updated_at"`
}

func toInstallmentResponse(i *layaway.Installment) InstallmentResponse {
	return InstallmentResponse{
		ID:         i.ID,
		PlanID:     i.PlanID,
		DueDate:    i.DueDate.Format(DateLayout),
		Amount:     i.Amount,
		Label:      i.Label,
		IsPaid:     i.IsPaid,
		PaidDate:   i.PaidDate,
		PaidAmount: i.PaidAmount,
	}
}

func toPlanResponse(p *layaway.Plan) PlanResponse {
	installments := make([]InstallmentResponse, len(p.Installments))
	for i := range p.Installments {
		installments[i] = toInstallmentResponse(&p.Installments[i])
	}
	return PlanResponse{
		ID:               p.ID,
		InvoiceID:        p.InvoiceID,
		Months:           p.Months,
		PaymentFrequency: string(p.PaymentFrequency),
		DownPayment:      p.DownPayment,
		IsCancelled:      p.IsCancelled,
		Notes:            p.Notes,
		Installments:     installments,
		Progress:         p.Progress(),
		CreatedAt:        p.CreatedAt,
		UpdatedAt:        p.UpdatedAt,
	}
}

// CreatePlan godoc
// @ID           createLayawayPlan
// @Summary      Attach an installment plan to a layaway invoice
// @Tags         layaway
// @Param        id path int true "Invoice ID"
// @Param        request body CreatePlanRequest true "Plan"
// @Success      201 {object} APIResponse[PlanResponse]
// @Failure      400,404,409,422 {object} ErrorResponse
// @Router       /invoices/{id}/layaway [post]
func (h *LayawayHandler) CreatePlan(c *gin.Context) {
	invoiceID, ok := h.ParamID(c, "id")
	if !ok {
		return
	}
	var req CreatePlanRequest
	if !h.BindJSON(c, &req) {
		return
	}

	inputs := make([]layaway.InstallmentInput, len(req.Installments))
	for i, in := range req.Installments {
		due, err := ParseDate(in.DueDate)
		if err != nil {
			h.BadRequest(c, "Invalid installment due_date: expected YYYY-MM-DD")
			return
		}
		inputs[i] = layaway.InstallmentInput{DueDate: due, Amount: in.Amount, Label: in.Label}
	}

	plan, err := h.layawayService.CreatePlan(c.Request.Context(), applayaway.CreatePlanRequest{
		InvoiceID:        invoiceID,
		Months:           req.Months,
		PaymentFrequency: layaway.PaymentFrequency(req.PaymentFrequency),
		DownPayment:      req.DownPayment,
		Notes:            req.Notes,
		Installments:     inputs,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, toPlanResponse(plan))
}

// GetPlan godoc
// @ID           getLayawayPlan
// @Summary      Get the plan of a layaway invoice
// @Tags         layaway
// @Param        id path int true "Invoice ID"
// @Success      200 {object} APIResponse[PlanResponse]
// @Failure      404 {object} ErrorResponse
// @Router       /invoices/{id}/layaway [get]
func (h *LayawayHandler) GetPlan(c *gin.Context) {
	invoiceID, ok := h.ParamID(c, "id")
	if !ok {
		return
	}
	plan, err := h.layawayService.GetPlanByInvoice(c.Request.Context(), invoiceID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, toPlanResponse(plan))
}

// SetInstallmentPaid godoc
// @ID           setInstallmentPaid
// @Summary      Mark an installment paid or unpaid
// @Description  Bookkeeping only. The invoice and the allocation ledger are not changed.
// @Tags         layaway
// @Param        id path int true "Installment ID"
// @Param        request body SetInstallmentPaidRequest true "Flag"
// @Success      200 {object} APIResponse[InstallmentResponse]
// @Failure      404 {object} ErrorResponse
// @Router       /layaway/installments/{id} [patch]
func (h *LayawayHandler) SetInstallmentPaid(c *gin.Context) {
	id, ok := h.ParamID(c, "id")
	if !ok {
		return
	}
	var req SetInstallmentPaidRequest
	if !h.BindJSON(c, &req) {
		return
	}
	inst, err := h.layawayService.SetInstallmentPaid(c.Request.Context(), id, *req.IsPaid)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, toInstallmentResponse(inst))
}

// CancelPlan godoc
// @ID           cancelLayawayPlan
// @Summary      Cancel a layaway plan
// @Tags         layaway
// @Param        id path int true "Plan ID"
// @Success      200 {object} APIResponse[PlanResponse]
// @Failure      404 {object} ErrorResponse
// @Router       /layaway/plans/{id}/cancel [post]
func (h *LayawayHandler) CancelPlan(c *gin.Context) {
	id, ok := h.ParamID(c, "id")
	if !ok {
		return
	}
	plan, err := h.layawayService.CancelPlan(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, toPlanResponse(plan))
}

// UpdateNotes godoc
// @ID           updateLayawayPlanNotes
// @Summary      Replace the notes of a layaway plan
// @Tags         layaway
// @Param        id path int true "Plan ID"
// @Param        request body UpdatePlanNotesRequest true "Notes"
// @Success      200 {object} APIResponse[PlanResponse]
// @Router       /layaway/plans/{id} [patch]
func (h *LayawayHandler) UpdateNotes(c *gin.Context) {
	id, ok := h.ParamID(c, "id")
	if !ok {
		return
	}
	var req UpdatePlanNotesRequest
	if !h.BindJSON(c, &req) {
		return
	}
	plan, err := h.layawayService.UpdateNotes(c.Request.Context(), id, req.Notes)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, toPlanResponse(plan))
}
