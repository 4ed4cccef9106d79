package handler

import (
	"context"

	"github.com/gin-gonic/gin"
	appreceivable "github.com/ledgerline/backend/internal/application/receivable"
	"github.com/ledgerline/backend/internal/domain/receivable"
	"github.com/ledgerline/backend/internal/domain/shared"
	"github.com/ledgerline/backend/internal/interfaces/http/dto"
	"github.com/shopspring/decimal"
)

// InvoiceHandler handles invoice-related API endpoints
type InvoiceHandler struct {
	BaseHandler
	invoiceService *appreceivable.InvoiceService
}

// NewInvoiceHandler creates a new InvoiceHandler
func NewInvoiceHandler(invoiceService *appreceivable.InvoiceService) *InvoiceHandler {
	return &InvoiceHandler{invoiceService: invoiceService}
}

// CreateInvoiceRequest represents a request to issue an invoice
// @Description Request body for creating an invoice. The number is assigned.
type CreateInvoiceRequest struct {
	CustomerID *int64          `json:"customer_id" binding:"omitempty,min=1" example:"3"`
	Subtotal   decimal.Decimal `json:"subtotal" binding:"decimal_gte0" swaggertype:"string" example:"100.00"`
	Tax        decimal.Decimal `json:"tax" binding:"decimal_gte0" swaggertype:"string" example:"8.00"`
	Discount   decimal.Decimal `json:"discount" binding:"decimal_gte0" swaggertype:"string" example:"0"`
	DueDate    string          `json:"due_date" binding:"required,datetime=2006-01-02" example:"2026-03-31"`
	IsLayaway  bool            `json:"is_layaway" example:"false"`
	Notes      string          `json:"notes" binding:"max=2000"`
}

// UpdateInvoiceRequest replaces the monetary terms of an invoice
// @Description Request body for updating invoice amounts
type UpdateInvoiceRequest struct {
	Subtotal decimal.Decimal `json:"subtotal" binding:"decimal_gte0" swaggertype:"string" example:"120.00"`
	Tax      decimal.Decimal `json:"tax" binding:"decimal_gte0" swaggertype:"string" example:"9.60"`
	Discount decimal.Decimal `json:"discount" binding:"decimal_gte0" swaggertype:"string" example:"0"`
	DueDate  string          `json:"due_date" binding:"required,datetime=2006-01-02" example:"2026-04-30"`
}

// ListInvoicesQuery filters the invoice listing
type ListInvoicesQuery struct {
	dto.ListRequest
	CustomerID *int64 `form:"customer_id" binding:"omitempty,min=1"`
	Status     string `form:"status" binding:"omitempty,oneof=pending partial overdue paid inactive"`
	OpenOnly   bool   `form:"open_only"`
}

// Create godoc
// @ID           createInvoice
// @Summary      Issue an invoice
// @Tags         invoices
// @Param        request body CreateInvoiceRequest true "Invoice"
// @Success      201 {object} APIResponse[InvoiceResponse]
// @Failure      400,404 {object} ErrorResponse
// @Router       /invoices [post]
func (h *InvoiceHandler) Create(c *gin.Context) {
	var req CreateInvoiceRequest
	if !h.BindJSON(c, &req) {
		return
	}
	due, err := ParseDate(req.DueDate)
	if err != nil {
		h.BadRequest(c, "Invalid due_date: expected YYYY-MM-DD")
		return
	}

	invoice, err := h.invoiceService.Create(c.Request.Context(), appreceivable.CreateInvoiceRequest{
		CustomerID: req.CustomerID,
		Subtotal:   req.Subtotal,
		Tax:        req.Tax,
		Discount:   req.Discount,
		DueDate:    due,
		IsLayaway:  req.IsLayaway,
		Notes:      req.Notes,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, toInvoiceResponse(invoice))
}

// GetByID godoc
// @ID           getInvoiceById
// @Summary      Get invoice by ID
// @Tags         invoices
// @Param        id path int true "Invoice ID"
// @Success      200 {object} APIResponse[InvoiceResponse]
// @Failure      404 {object} ErrorResponse
// @Router       /invoices/{id} [get]
func (h *InvoiceHandler) GetByID(c *gin.Context) {
	id, ok := h.ParamID(c, "id")
	if !ok {
		return
	}
	invoice, err := h.invoiceService.Get(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, toInvoiceResponse(invoice))
}

// List godoc
// @ID           listInvoices
// @Summary      List invoices
// @Tags         invoices
// @Param        customer_id query int false "Customer ID"
// @Param        status query string false "Status" Enums(pending, partial, overdue, paid, inactive)
// @Param        open_only query bool false "Only invoices that can still take credit"
// @Param        page query int false "Page" default(1)
// @Param        page_size query int false "Page size" default(20)
// @Success      200 {object} APIResponse[[]InvoiceResponse]
// @Router       /invoices [get]
func (h *InvoiceHandler) List(c *gin.Context) {
	var q ListInvoicesQuery
	if !h.BindQuery(c, &q) {
		return
	}
	filter := receivable.InvoiceFilter{
		Filter:     q.ListRequest.Filter(),
		CustomerID: q.CustomerID,
		OpenOnly:   q.OpenOnly,
	}
	if q.Status != "" {
		status := receivable.InvoiceStatus(q.Status)
		filter.Status = &status
	}

	page, err := h.invoiceService.List(c.Request.Context(), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	SuccessPage(c, shared.NewPaginated(toInvoiceResponses(page.Items), page.Total, page.Page, page.PageSize))
}

// UpdateAmounts godoc
// @ID           updateInvoiceAmounts
// @Summary      Replace subtotal, tax, discount and due date
// @Tags         invoices
// @Param        id path int true "Invoice ID"
// @Param        request body UpdateInvoiceRequest true "New terms"
// @Success      200 {object} APIResponse[InvoiceResponse]
// @Failure      400,404,409,422 {object} ErrorResponse
// @Router       /invoices/{id} [put]
func (h *InvoiceHandler) UpdateAmounts(c *gin.Context) {
	id, ok := h.ParamID(c, "id")
	if !ok {
		return
	}
	var req UpdateInvoiceRequest
	if !h.BindJSON(c, &req) {
		return
	}
	due, err := ParseDate(req.DueDate)
	if err != nil {
		h.BadRequest(c, "Invalid due_date: expected YYYY-MM-DD")
		return
	}

	invoice, err := h.invoiceService.UpdateAmounts(c.Request.Context(), id, appreceivable.UpdateInvoiceRequest{
		Subtotal: req.Subtotal,
		Tax:      req.Tax,
		Discount: req.Discount,
		DueDate:  due,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, toInvoiceResponse(invoice))
}

// Deactivate godoc
// @ID           deactivateInvoice
// @Summary      Void an invoice
// @Tags         invoices
// @Param        id path int true "Invoice ID"
// @Success      200 {object} APIResponse[InvoiceResponse]
// @Router       /invoices/{id}/deactivate [post]
func (h *InvoiceHandler) Deactivate(c *gin.Context) {
	h.toggle(c, h.invoiceService.Deactivate)
}

// Reactivate godoc
// @ID           reactivateInvoice
// @Summary      Restore a voided invoice
// @Tags         invoices
// @Param        id path int true "Invoice ID"
// @Success      200 {object} APIResponse[InvoiceResponse]
// @Router       /invoices/{id}/reactivate [post]
func (h *InvoiceHandler) Reactivate(c *gin.Context) {
	h.toggle(c, h.invoiceService.Reactivate)
}

func (h *InvoiceHandler) toggle(c *gin.Context, apply func(ctx context.Context, id int64) (*receivable.Invoice, error)) {
	id, ok := h.ParamID(c, "id")
	if !ok {
		return
	}
	invoice, err := apply(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, toInvoiceResponse(invoice))
}

// Delete godoc
// @ID           deleteInvoice
// @Summary      Delete an invoice with its allocations and layaway plan
// @Tags         invoices
// @Param        id path int true "Invoice ID"
// @Success      204
// @Failure      404 {object} ErrorResponse
// @Router       /invoices/{id} [delete]
func (h *InvoiceHandler) Delete(c *gin.Context) {
	id, ok := h.ParamID(c, "id")
	if !ok {
		return
	}
	if err := h.invoiceService.Delete(c.Request.Context(), id); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}
