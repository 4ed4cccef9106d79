package handler

import (
	"github.com/gin-gonic/gin"
	appreceivable "github.com/ledgerline/backend/internal/application/receivable"
	"github.com/ledgerline/backend/internal/domain/receivable"
	"github.com/ledgerline/backend/internal/domain/shared"
	"github.com/ledgerline/backend/internal/interfaces/http/dto"
	"github.com/shopspring/decimal"
)

// PaymentHandler handles payment-related API endpoints
type PaymentHandler struct {
	BaseHandler
	paymentService *appreceivable.PaymentService
}

// NewPaymentHandler creates a new PaymentHandler
func NewPaymentHandler(paymentService *appreceivable.PaymentService) *PaymentHandler {
	return &PaymentHandler{paymentService: paymentService}
}

// CreatePaymentRequest represents received money
// @Description Request body for recording a payment. invoice_id binds it directly to one invoice.
type CreatePaymentRequest struct {
	Amount      decimal.Decimal `json:"amount" binding:"decimal_gt0" swaggertype:"string" example:"150.00"`
	PaymentDate string          `json:"payment_date" binding:"required,datetime=2006-01-02" example:"2026-02-14"`
	Method      string          `json:"method" binding:"required,oneof=cash check bank_transfer card other" example:"bank_transfer"`
	Reference   string          `json:"reference" binding:"max=200" example:"WIRE-2231"`
	InvoiceID   *int64          `json:"invoice_id" binding:"omitempty,min=1"`
}

// Create godoc
// @ID           createPayment
// @Summary      Record a payment
// @Tags         payments
// @Param        request body CreatePaymentRequest true "Payment"
// @Success      201 {object} APIResponse[PaymentResponse]
// @Failure      400,404,409,422 {object} ErrorResponse
// @Router       /payments [post]
func (h *PaymentHandler) Create(c *gin.Context) {
	var req CreatePaymentRequest
	if !h.BindJSON(c, &req) {
		return
	}
	date, err := ParseDate(req.PaymentDate)
	if err != nil {
		h.BadRequest(c, "Invalid payment_date: expected YYYY-MM-DD")
		return
	}

	payment, err := h.paymentService.Create(c.Request.Context(), appreceivable.CreatePaymentRequest{
		Amount:      req.Amount,
		PaymentDate: date,
		Method:      receivable.PaymentMethod(req.Method),
		Reference:   req.Reference,
		InvoiceID:   req.InvoiceID,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, toPaymentResponse(payment))
}

// GetByID godoc
// @ID           getPaymentById
// @Summary      Get a payment with its binding and allocations
// @Tags         payments
// @Param        id path int true "Payment ID"
// @Success      200 {object} APIResponse[PaymentDetailResponse]
// @Failure      404 {object} ErrorResponse
// @Router       /payments/{id} [get]
func (h *PaymentHandler) GetByID(c *gin.Context) {
	id, ok := h.ParamID(c, "id")
	if !ok {
		return
	}
	detail, err := h.paymentService.Get(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, toPaymentDetailResponse(detail))
}

// ListUnmatched godoc
// @ID           listUnmatchedPayments
// @Summary      List payments that are not fully matched
// @Tags         payments
// @Param        page query int false "Page" default(1)
// @Param        page_size query int false "Page size" default(20)
// @Success      200 {object} APIResponse[[]PaymentResponse]
// @Router       /payments/unmatched [get]
func (h *PaymentHandler) ListUnmatched(c *gin.Context) {
	var q dto.ListRequest
	if !h.BindQuery(c, &q) {
		return
	}
	page, err := h.paymentService.ListUnmatched(c.Request.Context(), q.Filter())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	items := make([]PaymentResponse, len(page.Items))
	for i := range page.Items {
		items[i] = toPaymentResponse(&page.Items[i])
	}
	SuccessPage(c, shared.NewPaginated(items, page.Total, page.Page, page.PageSize))
}

// Delete godoc
// @ID           deletePayment
// @Summary      Delete a payment and recompute the invoices it credited
// @Tags         payments
// @Param        id path int true "Payment ID"
// @Success      204
// @Failure      404 {object} ErrorResponse
// @Router       /payments/{id} [delete]
func (h *PaymentHandler) Delete(c *gin.Context) {
	id, ok := h.ParamID(c, "id")
	if !ok {
		return
	}
	if err := h.paymentService.Delete(c.Request.Context(), id); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}
