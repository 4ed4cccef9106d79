package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/ledgerline/backend/internal/interfaces/http/dto"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type allocationBody struct {
	InvoiceID int64           `json:"invoice_id" binding:"required,min=1"`
	Amount    decimal.Decimal `json:"amount" binding:"decimal_gt0"`
	Discount  decimal.Decimal `json:"discount" binding:"decimal_gte0"`
}

func bindRouter() *gin.Engine {
	SetupValidator()
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.POST("/test", func(c *gin.Context) {
		var req allocationBody
		if err := c.ShouldBindJSON(&req); err != nil {
			HandleValidationError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"amount": req.Amount.String()})
	})
	return router
}

func postJSON(router *gin.Engine, body string) (*httptest.ResponseRecorder, dto.Response) {
	req := httptest.NewRequest(http.MethodPost, "/test", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	var resp dto.Response
	_ = json.Unmarshal(w.Body.Bytes(), &resp)
	return w, resp
}

func TestSetupValidator(t *testing.T) {
	SetupValidator()
	SetupValidator() // idempotent

	v, ok := binding.Validator.Engine().(*validator.Validate)
	assert.True(t, ok)
	assert.NotNil(t, v)
}

func TestDecimalRules(t *testing.T) {
	router := bindRouter()

	tests := []struct {
		name   string
		body   string
		status int
		field  string
		tag    string
	}{
		{"string amount", `{"invoice_id": 1, "amount": "10.25"}`, http.StatusOK, "", ""},
		{"numeric amount", `{"invoice_id": 1, "amount": 10.25}`, http.StatusOK, "", ""},
		{"zero amount", `{"invoice_id": 1, "amount": "0"}`, http.StatusBadRequest, "amount", "decimal_gt0"},
		{"negative amount", `{"invoice_id": 1, "amount": "-5"}`, http.StatusBadRequest, "amount", "decimal_gt0"},
		{"missing amount", `{"invoice_id": 1}`, http.StatusBadRequest, "amount", "decimal_gt0"},
		{"negative discount", `{"invoice_id": 1, "amount": "5", "discount": "-1"}`, http.StatusBadRequest, "discount", "decimal_gte0"},
		{"missing invoice", `{"amount": "5"}`, http.StatusBadRequest, "invoice_id", "required"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, resp := postJSON(router, tt.body)

			assert.Equal(t, tt.status, w.Code)
			if tt.status == http.StatusOK {
				return
			}
			require.NotNil(t, resp.Error)
			assert.Equal(t, dto.ErrCodeValidation, resp.Error.Code)
			require.Len(t, resp.Error.Details, 1)
			assert.Equal(t, tt.field, resp.Error.Details[0].Field)
			assert.Equal(t, tt.tag, resp.Error.Details[0].Tag)
		})
	}
}

func TestFormatValidationErrors_MalformedJSON(t *testing.T) {
	router := bindRouter()

	w, resp := postJSON(router, `{"invoice_id": "one"`)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	require.NotNil(t, resp.Error)
	assert.Equal(t, dto.ErrCodeInvalidJSON, resp.Error.Code)
}

func TestHandleValidationError_CarriesRequestID(t *testing.T) {
	SetupValidator()
	router := gin.New()
	router.Use(RequestID())
	router.POST("/test", func(c *gin.Context) {
		var req allocationBody
		if err := c.ShouldBindJSON(&req); err != nil {
			HandleValidationError(c, err)
			return
		}
		c.Status(http.StatusOK)
	})

	w, resp := postJSON(router, `{"invoice_id": 1, "amount": "0"}`)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	require.NotNil(t, resp.Error)
	assert.Equal(t, w.Header().Get(RequestIDHeader), resp.Error.RequestID)
	assert.Equal(t, "Must be a decimal amount greater than zero", resp.Error.Details[0].Message)
}
