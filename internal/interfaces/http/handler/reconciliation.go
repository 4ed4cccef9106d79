package handler

import (
	"strings"

	"github.com/gin-gonic/gin"
	appreceivable "github.com/ledgerline/backend/internal/application/receivable"
	"github.com/ledgerline/backend/internal/domain/receivable"
	"github.com/ledgerline/backend/internal/interfaces/http/middleware"
	"github.com/shopspring/decimal"
)

// ReconciliationHandler exposes the allocation ledger
type ReconciliationHandler struct {
	BaseHandler
	reconciliation *appreceivable.ReconciliationService
	suggestions    *appreceivable.SuggestionService
}

// NewReconciliationHandler creates a new ReconciliationHandler
func NewReconciliationHandler(reconciliation *appreceivable.ReconciliationService, suggestions *appreceivable.SuggestionService) *ReconciliationHandler {
	return &ReconciliationHandler{
		reconciliation: reconciliation,
		suggestions:    suggestions,
	}
}

// AllocateRequest credits part of a payment to an invoice
// @Description Request body for a single allocation
type AllocateRequest struct {
	InvoiceID int64           `json:"invoice_id" binding:"required,min=1" example:"42"`
	Amount    decimal.Decimal `json:"amount" binding:"decimal_gt0" swaggertype:"string" example:"25.00"`
}

// BatchAllocateRequest splits a payment over several invoices atomically
// @Description Request body for a batch allocation
type BatchAllocateRequest struct {
	Allocations []AllocateRequest `json:"allocations" binding:"required,min=1,max=100,dive"`
}

// RecomputeAllResponse reports a full recompute sweep
type RecomputeAllResponse struct {
	Recomputed int    `json:"recomputed"`
	Error      string `json:"error,omitempty"`
}

// Allocate godoc
// @ID           allocatePayment
// @Summary      Allocate part of a payment to an invoice
// @Tags         reconciliation
// @Param        id path int true "Payment ID"
// @Param        Idempotency-Key header string false "Client chosen request key"
// @Param        request body AllocateRequest true "Allocation"
// @Success      201 {object} APIResponse[AllocationResponse]
// @Failure      404,409,422 {object} ErrorResponse
// @Router       /payments/{id}/allocations [post]
func (h *ReconciliationHandler) Allocate(c *gin.Context) {
	paymentID, ok := h.ParamID(c, "id")
	if !ok {
		return
	}
	var req AllocateRequest
	if !h.BindJSON(c, &req) {
		return
	}
	key, ok := h.idempotencyKey(c)
	if !ok {
		return
	}

	alloc, err := h.reconciliation.Allocate(c.Request.Context(), appreceivable.AllocateRequest{
		PaymentID:      paymentID,
		InvoiceID:      req.InvoiceID,
		Amount:         req.Amount,
		IdempotencyKey: key,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, toAllocationResponse(alloc))
}

// AllocateBatch godoc
// @ID           allocatePaymentBatch
// @Summary      Allocate a payment across several invoices, all or nothing
// @Tags         reconciliation
// @Param        id path int true "Payment ID"
// @Param        request body BatchAllocateRequest true "Allocations"
// @Success      201 {object} APIResponse[[]AllocationResponse]
// @Failure      404,409,422 {object} ErrorResponse
// @Router       /payments/{id}/allocations/batch [post]
func (h *ReconciliationHandler) AllocateBatch(c *gin.Context) {
	paymentID, ok := h.ParamID(c, "id")
	if !ok {
		return
	}
	var req BatchAllocateRequest
	if !h.BindJSON(c, &req) {
		return
	}

	entries := make([]receivable.AllocationEntry, len(req.Allocations))
	for i, a := range req.Allocations {
		entries[i] = receivable.AllocationEntry{InvoiceID: a.InvoiceID, Amount: a.Amount}
	}
	created, err := h.reconciliation.AllocateBatch(c.Request.Context(), paymentID, entries)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	out := make([]AllocationResponse, len(created))
	for i, a := range created {
		out[i] = toAllocationResponse(a)
	}
	h.Created(c, out)
}

// RemoveAllocation godoc
// @ID           removeAllocation
// @Summary      Delete an allocation and recompute its invoice
// @Tags         reconciliation
// @Param        id path int true "Allocation ID"
// @Success      204
// @Failure      404 {object} ErrorResponse
// @Router       /allocations/{id} [delete]
func (h *ReconciliationHandler) RemoveAllocation(c *gin.Context) {
	id, ok := h.ParamID(c, "id")
	if !ok {
		return
	}
	if err := h.reconciliation.RemoveAllocation(c.Request.Context(), id); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}

// RecomputeInvoice godoc
// @ID           recomputeInvoice
// @Summary      Re-derive paid amount and status of an invoice from the ledger
// @Tags         reconciliation
// @Param        id path int true "Invoice ID"
// @Success      200 {object} APIResponse[appreceivable.RecomputeResult]
// @Router       /invoices/{id}/recompute [post]
func (h *ReconciliationHandler) RecomputeInvoice(c *gin.Context) {
	id, ok := h.ParamID(c, "id")
	if !ok {
		return
	}
	result, err := h.reconciliation.RecomputeInvoice(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}

// RecomputeAll godoc
// @ID           recomputeAllInvoices
// @Summary      Recompute every invoice, one transaction each
// @Tags         reconciliation
// @Success      200 {object} APIResponse[RecomputeAllResponse]
// @Router       /invoices/recompute [post]
func (h *ReconciliationHandler) RecomputeAll(c *gin.Context) {
	done, err := h.reconciliation.RecomputeAll(c.Request.Context())
	resp := RecomputeAllResponse{Recomputed: done}
	if err != nil {
		// partial sweeps still report progress
		resp.Error = err.Error()
	}
	h.Success(c, resp)
}

// SuggestMatches godoc
// @ID           suggestMatches
// @Summary      Rank open invoices as candidates for a payment
// @Tags         reconciliation
// @Param        id path int true "Payment ID"
// @Success      200 {object} APIResponse[[]receivable.MatchSuggestion]
// @Failure      404 {object} ErrorResponse
// @Router       /payments/{id}/suggestions [get]
func (h *ReconciliationHandler) SuggestMatches(c *gin.Context) {
	id, ok := h.ParamID(c, "id")
	if !ok {
		return
	}
	suggestions, err := h.suggestions.SuggestMatches(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	if suggestions == nil {
		suggestions = []receivable.MatchSuggestion{}
	}
	h.Success(c, suggestions)
}

func (h *ReconciliationHandler) idempotencyKey(c *gin.Context) (string, bool) {
	key := strings.TrimSpace(c.GetHeader(middleware.IdempotencyKeyHeader))
	if len(key) > middleware.MaxIdempotencyKeyLength {
		h.BadRequest(c, "Idempotency-Key must be at most 128 characters")
		return "", false
	}
	return key, true
}
