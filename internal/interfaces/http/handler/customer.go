package handler

import (
	"github.com/gin-gonic/gin"
	appreceivable "github.com/ledgerline/backend/internal/application/receivable"
	"github.com/ledgerline/backend/internal/domain/shared"
)

// CustomerHandler handles customer-related API endpoints
type CustomerHandler struct {
	BaseHandler
	customerService *appreceivable.CustomerService
}

// NewCustomerHandler creates a new CustomerHandler
func NewCustomerHandler(customerService *appreceivable.CustomerService) *CustomerHandler {
	return &CustomerHandler{customerService: customerService}
}

// CreateCustomerRequest represents a request to create a customer
// @Description Request body for creating a customer
type CreateCustomerRequest struct {
	Name    string `json:"name" binding:"required,min=1,max=200" example:"Acme Corp"`
	Email   string `json:"email" binding:"omitempty,email,max=200" example:"billing@acme.test"`
	Phone   string `json:"phone" binding:"max=50" example:"+1-555-0100"`
	Address string `json:"address" binding:"max=500"`
}

// ListCustomersQuery selects sort and paging of the customer listing
type ListCustomersQuery struct {
	Sort     string `form:"sort" binding:"omitempty,oneof=revenue name outstanding invoiceCount lastActivity"`
	Order    string `form:"order" binding:"omitempty,oneof=asc desc"`
	Page     int    `form:"page" binding:"omitempty,min=1"`
	PageSize int    `form:"page_size" binding:"omitempty,min=1,max=100"`
	TopN     int    `form:"top_n" binding:"omitempty,min=1,max=100"`
}

// Create godoc
// @ID           createCustomer
// @Summary      Create a customer
// @Tags         customers
// @Param        request body CreateCustomerRequest true "Customer"
// @Success      201 {object} APIResponse[CustomerResponse]
// @Failure      400 {object} ErrorResponse
// @Router       /customers [post]
func (h *CustomerHandler) Create(c *gin.Context) {
	var req CreateCustomerRequest
	if !h.BindJSON(c, &req) {
		return
	}
	customer, err := h.customerService.Create(c.Request.Context(), appreceivable.CreateCustomerRequest{
		Name:    req.Name,
		Email:   req.Email,
		Phone:   req.Phone,
		Address: req.Address,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, toCustomerResponse(customer))
}

// GetByID godoc
// @ID           getCustomerById
// @Summary      Get a customer with statistics over its invoices
// @Tags         customers
// @Param        id path int true "Customer ID"
// @Success      200 {object} APIResponse[CustomerSummaryResponse]
// @Failure      404 {object} ErrorResponse
// @Router       /customers/{id} [get]
func (h *CustomerHandler) GetByID(c *gin.Context) {
	id, ok := h.ParamID(c, "id")
	if !ok {
		return
	}
	summary, err := h.customerService.GetStats(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, toCustomerSummaryResponse(summary))
}

// List godoc
// @ID           listCustomers
// @Summary      List customers with statistics
// @Tags         customers
// @Param        sort query string false "Sort key" Enums(revenue, name, outstanding, invoiceCount, lastActivity)
// @Param        order query string false "Order" Enums(asc, desc)
// @Param        top_n query int false "Return only the first N customers"
// @Param        page query int false "Page" default(1)
// @Param        page_size query int false "Page size" default(20)
// @Success      200 {object} APIResponse[[]CustomerSummaryResponse]
// @Router       /customers [get]
func (h *CustomerHandler) List(c *gin.Context) {
	var q ListCustomersQuery
	if !h.BindQuery(c, &q) {
		return
	}
	page, err := h.customerService.List(c.Request.Context(), appreceivable.ListCustomersQuery{
		Sort:     q.Sort,
		Order:    q.Order,
		Page:     q.Page,
		PageSize: q.PageSize,
		TopN:     q.TopN,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	items := make([]CustomerSummaryResponse, len(page.Items))
	for i := range page.Items {
		items[i] = toCustomerSummaryResponse(&page.Items[i])
	}
	SuccessPage(c, shared.NewPaginated(items, page.Total, page.Page, page.PageSize))
}

// Delete godoc
// @ID           deleteCustomer
// @Summary      Delete a customer and detach its invoices
// @Tags         customers
// @Param        id path int true "Customer ID"
// @Success      204
// @Failure      404 {object} ErrorResponse
// @Router       /customers/{id} [delete]
func (h *CustomerHandler) Delete(c *gin.Context) {
	id, ok := h.ParamID(c, "id")
	if !ok {
		return
	}
	if err := h.customerService.Delete(c.Request.Context(), id); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}
