package dto

import (
	"encoding/json"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/ledgerline/backend/internal/domain/layaway"
	"github.com/ledgerline/backend/internal/domain/receivable"
	"github.com/ledgerline/backend/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Every code a ledger operation can return, with the API code and status
// a client sees for it.
var ledgerCodes = []struct {
	domain string
	api    string
	status int
}{
	{shared.CodeNotFound, ErrCodeNotFound, http.StatusNotFound},
	{shared.CodeInvalidInput, ErrCodeInvalidInput, http.StatusBadRequest},
	{shared.CodeConflict, ErrCodeConflict, http.StatusConflict},
	{shared.CodeConcurrencyConflict, ErrCodeConcurrencyConflict, http.StatusConflict},
	{shared.CodeDuplicateRequest, ErrCodeDuplicateRequest, http.StatusConflict},
	{receivable.CodeInvalidAmount, ErrCodeInvalidAmount, http.StatusBadRequest},
	{receivable.CodeOverAllocation, ErrCodeOverAllocation, http.StatusUnprocessableEntity},
	{receivable.CodeAlreadyDirectlyBound, ErrCodeAlreadyDirectlyBound, http.StatusConflict},
	{receivable.CodeInvalidInvoiceState, ErrCodeInvalidState, http.StatusConflict},
	{layaway.CodeNotLayaway, ErrCodeNotLayaway, http.StatusUnprocessableEntity},
}

func TestLedgerCodes(t *testing.T) {
	for _, tc := range ledgerCodes {
		t.Run(tc.domain, func(t *testing.T) {
			assert.Equal(t, tc.api, NormalizeErrorCode(tc.domain))
			assert.Equal(t, tc.api, NormalizeErrorCode(tc.api), "API codes pass through")
			assert.Equal(t, tc.status, GetHTTPStatus(tc.api))
			assert.True(t, strings.HasPrefix(tc.api, "ERR_"))
		})
	}
}

func TestGetHTTPStatus_Fallbacks(t *testing.T) {
	assert.Equal(t, http.StatusBadRequest, GetHTTPStatus(ErrCodeValidation))
	assert.Equal(t, http.StatusBadRequest, GetHTTPStatus(ErrCodeValidationRequired))
	assert.Equal(t, http.StatusBadRequest, GetHTTPStatus(ErrCodeBadRequest))
	assert.Equal(t, http.StatusInternalServerError, GetHTTPStatus(ErrCodeInternal))
	assert.Equal(t, http.StatusInternalServerError, GetHTTPStatus(ErrCodeUnknown))
	assert.Equal(t, http.StatusInternalServerError, GetHTTPStatus("SOMETHING_ELSE"))
	assert.Equal(t, "SOMETHING_ELSE", NormalizeErrorCode("SOMETHING_ELSE"))
}

func TestDomainCodesAreMapped(t *testing.T) {
	for domainCode, apiCode := range DomainErrorCodeMapping {
		_, ok := ErrorCodeHTTPStatus[apiCode]
		assert.True(t, ok, "%s maps to %s which has no HTTP status", domainCode, apiCode)
	}
}

func TestNewErrorResponse(t *testing.T) {
	before := time.Now()
	resp := NewErrorResponse(shared.CodeNotFound, "Invoice 9 not found")

	assert.False(t, resp.Success)
	assert.Nil(t, resp.Data)
	require.NotNil(t, resp.Error)
	assert.Equal(t, ErrCodeNotFound, resp.Error.Code)
	assert.Empty(t, resp.Error.RequestID)
	assert.False(t, resp.Error.Timestamp.Before(before))

	resp = NewErrorResponseWithRequestID(ErrCodeDuplicateRequest, "Already processed", "req-7")
	assert.Equal(t, "req-7", resp.Error.RequestID)
	assert.Equal(t, ErrCodeDuplicateRequest, resp.Error.Code)
}

func TestNewValidationErrorResponse(t *testing.T) {
	resp := NewValidationErrorResponse("Validation failed", "req-2", []ValidationDetail{
		{Field: "amount", Message: "must be greater than zero"},
		{Field: "invoice_id", Message: "is required"},
	})

	assert.Equal(t, ErrCodeValidation, resp.Error.Code)
	assert.Equal(t, "req-2", resp.Error.RequestID)
	require.Len(t, resp.Error.Details, 2)
	assert.Equal(t, "amount", resp.Error.Details[0].Field)
}

func TestNewDomainErrorResponse(t *testing.T) {
	err := shared.NewDomainError(receivable.CodeOverAllocation, "Requested 60.00 exceeds the payment 1 available balance of 50.00").
		WithDetail("side", "payment").
		WithDetail("available", "50.00")

	resp := NewDomainErrorResponse(err, "req-001")

	assert.Equal(t, ErrCodeOverAllocation, resp.Error.Code)
	assert.Equal(t, "req-001", resp.Error.RequestID)
	assert.Equal(t, "payment", resp.Error.Context["side"])
	assert.Equal(t, "50.00", resp.Error.Context["available"])

	raw, jerr := json.Marshal(resp)
	require.NoError(t, jerr)
	var decoded Response
	require.NoError(t, json.Unmarshal(raw, &decoded))
	assert.Equal(t, "50.00", decoded.Error.Context["available"])
	assert.Contains(t, string(raw), `"request_id":"req-001"`)
}

func TestNewSuccessResponse(t *testing.T) {
	resp := NewSuccessResponse(map[string]string{"status": "paid"})
	assert.True(t, resp.Success)
	assert.NotNil(t, resp.Data)
	assert.Nil(t, resp.Error)
	assert.Nil(t, resp.Meta)
}

func TestNewSuccessResponseWithMeta(t *testing.T) {
	tests := []struct {
		name      string
		total     int64
		pageSize  int
		wantPages int
		wantSize  int
	}{
		{"exact pages", 100, 10, 10, 10},
		{"partial last page", 101, 10, 11, 10},
		{"empty", 0, 10, 0, 10},
		{"single short page", 9, 10, 1, 10},
		{"zero size defaults", 100, 0, 5, 20},
		{"negative size defaults", 100, -1, 5, 20},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := NewSuccessResponseWithMeta(nil, tt.total, 1, tt.pageSize)
			require.NotNil(t, resp.Meta)
			assert.Equal(t, tt.total, resp.Meta.Total)
			assert.Equal(t, tt.wantPages, resp.Meta.TotalPages)
			assert.Equal(t, tt.wantSize, resp.Meta.PageSize)
		})
	}
}

func TestNewPaginatedResponse(t *testing.T) {
	resp := NewPaginatedResponse(shared.NewPaginated[int](nil, 0, 1, 20))

	assert.True(t, resp.Success)
	assert.Equal(t, []int{}, resp.Data)
	assert.Equal(t, 0, resp.Meta.TotalPages)
}

func TestListRequestFilter(t *testing.T) {
	f := ListRequest{PageSize: 500, OrderBy: "due_date", OrderDir: "asc"}.Filter()

	assert.Equal(t, 1, f.Page)
	assert.Equal(t, 100, f.PageSize)
	assert.Equal(t, "due_date", f.OrderBy)
}
