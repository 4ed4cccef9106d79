package handler

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	applayaway "github.com/ledgerline/backend/internal/application/layaway"
	appreceivable "github.com/ledgerline/backend/internal/application/receivable"
	"github.com/ledgerline/backend/internal/infrastructure/cache"
	"github.com/ledgerline/backend/internal/infrastructure/config"
	"github.com/ledgerline/backend/internal/infrastructure/persistence"
	"github.com/ledgerline/backend/internal/infrastructure/persistence/models"
	"github.com/ledgerline/backend/internal/interfaces/http/dto"
	"github.com/ledgerline/backend/internal/interfaces/http/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
)

var ledgerNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

// ledgerAPI mounts every ledger handler over an in-memory sqlite database
type ledgerAPI struct {
	t      *testing.T
	engine *gin.Engine
}

func newLedgerAPI(t *testing.T) *ledgerAPI {
	t.Helper()
	database, err := persistence.Open(sqlite.Open(":memory:"), &config.DatabaseConfig{MaxOpenConns: 1, MaxIdleConns: 1})
	require.NoError(t, err)
	require.NoError(t, database.DB.AutoMigrate(models.AllModels()...))
	t.Cleanup(func() { _ = database.Close() })

	keys := cache.NewInMemoryRequestKeyStore()
	t.Cleanup(func() { _ = keys.Close() })

	scope := persistence.NewGormTransactionScope(database.DB)
	opts := []appreceivable.Option{
		appreceivable.WithClock(func() time.Time { return ledgerNow }),
		appreceivable.WithRequestKeyStore(keys, time.Hour),
	}
	recon := NewReconciliationHandler(
		appreceivable.NewReconciliationService(scope, opts...),
		appreceivable.NewSuggestionService(scope, opts...),
	)
	invoices := NewInvoiceHandler(appreceivable.NewInvoiceService(scope, opts...))
	payments := NewPaymentHandler(appreceivable.NewPaymentService(scope, opts...))
	customers := NewCustomerHandler(appreceivable.NewCustomerService(scope, opts...))
	layawaySvc := applayaway.NewService(scope)
	layawaySvc.SetClock(func() time.Time { return ledgerNow })
	plans := NewLayawayHandler(layawaySvc)

	engine := gin.New()
	engine.Use(middleware.RequestID())
	api := engine.Group("/api/v1")
	api.POST("/invoices", invoices.Create)
	api.GET("/invoices", invoices.List)
	api.POST("/invoices/recompute", recon.RecomputeAll)
	api.GET("/invoices/:id", invoices.GetByID)
	api.PUT("/invoices/:id", invoices.UpdateAmounts)
	api.DELETE("/invoices/:id", invoices.Delete)
	api.POST("/invoices/:id/deactivate", invoices.Deactivate)
	api.POST("/invoices/:id/reactivate", invoices.Reactivate)
	api.POST("/invoices/:id/recompute", recon.RecomputeInvoice)
	api.POST("/invoices/:id/layaway", plans.CreatePlan)
	api.GET("/invoices/:id/layaway", plans.GetPlan)
	api.POST("/payments", payments.Create)
	api.GET("/payments/unmatched", payments.ListUnmatched)
	api.GET("/payments/:id", payments.GetByID)
	api.DELETE("/payments/:id", payments.Delete)
	api.POST("/payments/:id/allocations", recon.Allocate)
	api.POST("/payments/:id/allocations/batch", recon.AllocateBatch)
	api.GET("/payments/:id/suggestions", recon.SuggestMatches)
	api.DELETE("/allocations/:id", recon.RemoveAllocation)
	api.POST("/customers", customers.Create)
	api.GET("/customers", customers.List)
	api.GET("/customers/:id", customers.GetByID)
	api.DELETE("/customers/:id", customers.Delete)
	api.PATCH("/layaway/installments/:id", plans.SetInstallmentPaid)
	api.PATCH("/layaway/plans/:id", plans.UpdateNotes)
	api.POST("/layaway/plans/:id/cancel", plans.CancelPlan)

	return &ledgerAPI{t: t, engine: engine}
}

func (a *ledgerAPI) do(method, path, body string, headers ...string) (int, dto.Response) {
	a.t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	w := httptest.NewRecorder()
	a.engine.ServeHTTP(w, req)

	var resp dto.Response
	if w.Body.Len() > 0 {
		require.NoError(a.t, json.Unmarshal(w.Body.Bytes(), &resp), w.Body.String())
	}
	return w.Code, resp
}

// create posts body and returns the id of the created resource
func (a *ledgerAPI) create(path, body string) int64 {
	a.t.Helper()
	code, resp := a.do(http.MethodPost, path, body)
	require.Equal(a.t, http.StatusCreated, code, "%+v", resp.Error)
	return int64(data(resp)["id"].(float64))
}

func (a *ledgerAPI) invoice(subtotal, due string) int64 {
	return a.create("/api/v1/invoices", fmt.Sprintf(`{"subtotal":%q,"due_date":%q}`, subtotal, due))
}

func (a *ledgerAPI) payment(amount string) int64 {
	return a.create("/api/v1/payments", fmt.Sprintf(`{"amount":%q,"payment_date":"2026-02-20","method":"bank_transfer"}`, amount))
}

func (a *ledgerAPI) getInvoice(id int64) map[string]any {
	a.t.Helper()
	code, resp := a.do(http.MethodGet, fmt.Sprintf("/api/v1/invoices/%d", id), "")
	require.Equal(a.t, http.StatusOK, code)
	return data(resp)
}

func data(resp dto.Response) map[string]any {
	m, _ := resp.Data.(map[string]any)
	return m
}

func allocationBody(invoiceID int64, amount string) string {
	return fmt.Sprintf(`{"invoice_id":%d,"amount":%q}`, invoiceID, amount)
}

func TestLedgerAPI_AllocateUpdatesInvoice(t *testing.T) {
	api := newLedgerAPI(t)
	inv := api.invoice("100.00", "2026-03-31")
	pay := api.payment("150.00")

	code, resp := api.do(http.MethodPost, fmt.Sprintf("/api/v1/payments/%d/allocations", pay), allocationBody(inv, "60.00"))
	require.Equal(t, http.StatusCreated, code, "%+v", resp.Error)
	assert.Equal(t, "60", data(resp)["amount"])

	got := api.getInvoice(inv)
	assert.Equal(t, "60", got["paid_amount"])
	assert.Equal(t, "40", got["outstanding"])
	assert.Equal(t, "partial", got["status"])

	code, resp = api.do(http.MethodGet, fmt.Sprintf("/api/v1/payments/%d", pay), "")
	require.Equal(t, http.StatusOK, code)
	detail := data(resp)
	assert.Equal(t, "ledger_allocated", detail["binding"])
	assert.Equal(t, "90", detail["available"])
	assert.Len(t, detail["allocations"], 1)
}

func TestLedgerAPI_OverAllocationRejected(t *testing.T) {
	api := newLedgerAPI(t)
	inv := api.invoice("100.00", "2026-03-31")
	small := api.payment("30.00")
	big := api.payment("500.00")

	t.Run("payment side", func(t *testing.T) {
		code, resp := api.do(http.MethodPost, fmt.Sprintf("/api/v1/payments/%d/allocations", small), allocationBody(inv, "30.01"))
		assert.Equal(t, http.StatusUnprocessableEntity, code)
		assert.Equal(t, dto.ErrCodeOverAllocation, resp.Error.Code)
	})

	t.Run("invoice side", func(t *testing.T) {
		code, resp := api.do(http.MethodPost, fmt.Sprintf("/api/v1/payments/%d/allocations", big), allocationBody(inv, "100.01"))
		assert.Equal(t, http.StatusUnprocessableEntity, code)
		assert.Equal(t, dto.ErrCodeOverAllocation, resp.Error.Code)
	})

	assert.Equal(t, "pending", api.getInvoice(inv)["status"])
}

func TestLedgerAPI_AllocateValidation(t *testing.T) {
	api := newLedgerAPI(t)
	inv := api.invoice("100.00", "2026-03-31")
	pay := api.payment("50.00")
	path := fmt.Sprintf("/api/v1/payments/%d/allocations", pay)

	code, resp := api.do(http.MethodPost, path, allocationBody(inv, "-5"))
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, dto.ErrCodeValidation, resp.Error.Code)
	assert.Equal(t, "decimal_gt0", resp.Error.Details[0].Tag)

	code, _ = api.do(http.MethodPost, "/api/v1/payments/abc/allocations", allocationBody(inv, "5"))
	assert.Equal(t, http.StatusBadRequest, code)

	code, resp = api.do(http.MethodPost, path, allocationBody(inv, "5"),
		middleware.IdempotencyKeyHeader, strings.Repeat("k", middleware.MaxIdempotencyKeyLength+1))
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, dto.ErrCodeBadRequest, resp.Error.Code)

	code, resp = api.do(http.MethodPost, "/api/v1/payments/999/allocations", allocationBody(inv, "5"))
	assert.Equal(t, http.StatusNotFound, code)
	assert.Equal(t, dto.ErrCodeNotFound, resp.Error.Code)
}

func TestLedgerAPI_IdempotencyKey(t *testing.T) {
	api := newLedgerAPI(t)
	inv := api.invoice("100.00", "2026-03-31")
	pay := api.payment("100.00")
	path := fmt.Sprintf("/api/v1/payments/%d/allocations", pay)

	code, _ := api.do(http.MethodPost, path, allocationBody(inv, "10"), middleware.IdempotencyKeyHeader, "retry-1")
	require.Equal(t, http.StatusCreated, code)

	code, resp := api.do(http.MethodPost, path, allocationBody(inv, "10"), middleware.IdempotencyKeyHeader, "retry-1")
	assert.Equal(t, http.StatusConflict, code)
	assert.Equal(t, dto.ErrCodeDuplicateRequest, resp.Error.Code)
	assert.Equal(t, "10", api.getInvoice(inv)["paid_amount"])

	// a rejected attempt frees its key
	code, _ = api.do(http.MethodPost, path, allocationBody(inv, "1000"), middleware.IdempotencyKeyHeader, "retry-2")
	require.Equal(t, http.StatusUnprocessableEntity, code)
	code, _ = api.do(http.MethodPost, path, allocationBody(inv, "5"), middleware.IdempotencyKeyHeader, "retry-2")
	assert.Equal(t, http.StatusCreated, code)
}

func TestLedgerAPI_DirectlyBoundPayment(t *testing.T) {
	api := newLedgerAPI(t)
	inv := api.invoice("100.00", "2026-03-31")
	other := api.invoice("50.00", "2026-03-31")
	bound := api.create("/api/v1/payments",
		fmt.Sprintf(`{"amount":"100.00","payment_date":"2026-02-20","method":"cash","invoice_id":%d}`, inv))

	assert.Equal(t, "paid", api.getInvoice(inv)["status"])

	code, resp := api.do(http.MethodPost, fmt.Sprintf("/api/v1/payments/%d/allocations", bound), allocationBody(other, "10"))
	assert.Equal(t, http.StatusConflict, code)
	assert.Equal(t, dto.ErrCodeAlreadyDirectlyBound, resp.Error.Code)

	code, _ = api.do(http.MethodDelete, fmt.Sprintf("/api/v1/payments/%d", bound), "")
	require.Equal(t, http.StatusNoContent, code)
	assert.Equal(t, "pending", api.getInvoice(inv)["status"])
}

func TestLedgerAPI_BatchIsAtomic(t *testing.T) {
	api := newLedgerAPI(t)
	a := api.invoice("40.00", "2026-03-31")
	b := api.invoice("80.00", "2026-03-31")
	pay := api.payment("100.00")
	path := fmt.Sprintf("/api/v1/payments/%d/allocations/batch", pay)

	body := fmt.Sprintf(`{"allocations":[%s,%s]}`, allocationBody(a, "40"), allocationBody(b, "70"))
	code, resp := api.do(http.MethodPost, path, body)
	assert.Equal(t, http.StatusUnprocessableEntity, code)
	assert.Equal(t, dto.ErrCodeOverAllocation, resp.Error.Code)
	assert.Equal(t, "0", api.getInvoice(a)["paid_amount"])
	assert.Equal(t, "0", api.getInvoice(b)["paid_amount"])

	body = fmt.Sprintf(`{"allocations":[%s,%s]}`, allocationBody(a, "40"), allocationBody(b, "60"))
	code, resp = api.do(http.MethodPost, path, body)
	require.Equal(t, http.StatusCreated, code, "%+v", resp.Error)
	assert.Len(t, resp.Data, 2)
	assert.Equal(t, "paid", api.getInvoice(a)["status"])
	assert.Equal(t, "partial", api.getInvoice(b)["status"])

	code, _ = api.do(http.MethodPost, path, `{"allocations":[]}`)
	assert.Equal(t, http.StatusBadRequest, code)
}

func TestLedgerAPI_RemoveAllocationAndRecompute(t *testing.T) {
	api := newLedgerAPI(t)
	inv := api.invoice("100.00", "2026-02-15")
	pay := api.payment("100.00")

	code, resp := api.do(http.MethodPost, fmt.Sprintf("/api/v1/payments/%d/allocations", pay), allocationBody(inv, "25"))
	require.Equal(t, http.StatusCreated, code)
	allocID := int64(data(resp)["id"].(float64))

	code, _ = api.do(http.MethodDelete, fmt.Sprintf("/api/v1/allocations/%d", allocID), "")
	require.Equal(t, http.StatusNoContent, code)
	assert.Equal(t, "overdue", api.getInvoice(inv)["status"])

	code, resp = api.do(http.MethodPost, fmt.Sprintf("/api/v1/invoices/%d/recompute", inv), "")
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "overdue", data(resp)["status"])

	code, resp = api.do(http.MethodPost, "/api/v1/invoices/recompute", "")
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, float64(1), data(resp)["recomputed"])
	assert.Nil(t, data(resp)["error"])

	code, _ = api.do(http.MethodDelete, "/api/v1/allocations/999", "")
	assert.Equal(t, http.StatusNotFound, code)
}

func TestLedgerAPI_Suggestions(t *testing.T) {
	api := newLedgerAPI(t)
	exact := api.invoice("75.00", "2026-03-31")
	api.invoice("300.00", "2026-03-31")
	pay := api.payment("75.00")

	code, resp := api.do(http.MethodGet, fmt.Sprintf("/api/v1/payments/%d/suggestions", pay), "")
	require.Equal(t, http.StatusOK, code)
	list, ok := resp.Data.([]any)
	require.True(t, ok)
	require.NotEmpty(t, list)
	require.Len(t, list, 2)
	top := list[0].(map[string]any)
	assert.Equal(t, float64(exact), top["invoice"].(map[string]any)["id"])
	assert.Equal(t, float64(95), top["confidence"])
	assert.Equal(t, float64(70), list[1].(map[string]any)["confidence"])
}

func TestLedgerAPI_InvoiceLifecycle(t *testing.T) {
	api := newLedgerAPI(t)
	inv := api.invoice("100.00", "2026-03-31")
	pay := api.payment("100.00")
	_, _ = api.do(http.MethodPost, fmt.Sprintf("/api/v1/payments/%d/allocations", pay), allocationBody(inv, "60"))

	t.Run("amounts cannot drop below credit", func(t *testing.T) {
		code, resp := api.do(http.MethodPut, fmt.Sprintf("/api/v1/invoices/%d", inv), `{"subtotal":"50","due_date":"2026-03-31"}`)
		assert.Equal(t, http.StatusUnprocessableEntity, code)
		assert.Equal(t, dto.ErrCodeOverAllocation, resp.Error.Code)
	})

	t.Run("raising amounts re-derives status", func(t *testing.T) {
		code, resp := api.do(http.MethodPut, fmt.Sprintf("/api/v1/invoices/%d", inv), `{"subtotal":"120","tax":"10","due_date":"2026-04-30"}`)
		require.Equal(t, http.StatusOK, code, "%+v", resp.Error)
		assert.Equal(t, "130", data(resp)["amount"])
		assert.Equal(t, "partial", data(resp)["status"])
	})

	t.Run("deactivate and reactivate", func(t *testing.T) {
		code, resp := api.do(http.MethodPost, fmt.Sprintf("/api/v1/invoices/%d/deactivate", inv), "")
		require.Equal(t, http.StatusOK, code)
		assert.Equal(t, "inactive", data(resp)["status"])

		other := api.payment("5")
		code, resp = api.do(http.MethodPost, fmt.Sprintf("/api/v1/payments/%d/allocations", other), allocationBody(inv, "5"))
		assert.Equal(t, http.StatusConflict, code)
		assert.Equal(t, dto.ErrCodeInvalidState, resp.Error.Code)

		code, resp = api.do(http.MethodPost, fmt.Sprintf("/api/v1/invoices/%d/reactivate", inv), "")
		require.Equal(t, http.StatusOK, code)
		assert.Equal(t, "partial", data(resp)["status"])
	})

	t.Run("list filters", func(t *testing.T) {
		code, resp := api.do(http.MethodGet, "/api/v1/invoices?status=partial&page_size=5", "")
		require.Equal(t, http.StatusOK, code)
		assert.Len(t, resp.Data, 1)
		assert.Equal(t, int64(1), resp.Meta.Total)

		code, _ = api.do(http.MethodGet, "/api/v1/invoices?status=unknown", "")
		assert.Equal(t, http.StatusBadRequest, code)
	})

	t.Run("delete frees the payment", func(t *testing.T) {
		code, _ := api.do(http.MethodDelete, fmt.Sprintf("/api/v1/invoices/%d", inv), "")
		require.Equal(t, http.StatusNoContent, code)

		code, resp := api.do(http.MethodGet, fmt.Sprintf("/api/v1/payments/%d", pay), "")
		require.Equal(t, http.StatusOK, code)
		assert.Equal(t, "unbound", data(resp)["binding"])
		assert.Equal(t, "100", data(resp)["available"])
	})
}

func TestLedgerAPI_UnmatchedPayments(t *testing.T) {
	api := newLedgerAPI(t)
	inv := api.invoice("50.00", "2026-03-31")
	matched := api.payment("50.00")
	api.payment("20.00")
	_, _ = api.do(http.MethodPost, fmt.Sprintf("/api/v1/payments/%d/allocations", matched), allocationBody(inv, "50"))

	code, resp := api.do(http.MethodGet, "/api/v1/payments/unmatched", "")
	require.Equal(t, http.StatusOK, code)
	list := resp.Data.([]any)
	require.Len(t, list, 1)
	assert.Equal(t, "20", list[0].(map[string]any)["amount"])
}

func TestLedgerAPI_Customers(t *testing.T) {
	api := newLedgerAPI(t)
	acme := api.create("/api/v1/customers", `{"name":"Acme Corp","email":"billing@acme.test"}`)
	globex := api.create("/api/v1/customers", `{"name":"Globex"}`)
	api.create("/api/v1/invoices", fmt.Sprintf(`{"customer_id":%d,"subtotal":"500","due_date":"2026-03-31"}`, acme))
	api.create("/api/v1/invoices", fmt.Sprintf(`{"customer_id":%d,"subtotal":"20","due_date":"2026-03-31"}`, globex))

	code, resp := api.do(http.MethodGet, fmt.Sprintf("/api/v1/customers/%d", acme), "")
	require.Equal(t, http.StatusOK, code)
	stats := data(resp)["stats"].(map[string]any)
	assert.Equal(t, "500", stats["total_revenue"])
	assert.Equal(t, float64(1), stats["invoice_count"])

	code, resp = api.do(http.MethodGet, "/api/v1/customers?sort=revenue&top_n=1", "")
	require.Equal(t, http.StatusOK, code)
	list := resp.Data.([]any)
	require.Len(t, list, 1)
	assert.Equal(t, "Acme Corp", list[0].(map[string]any)["name"])

	code, _ = api.do(http.MethodGet, "/api/v1/customers?sort=bogus", "")
	assert.Equal(t, http.StatusBadRequest, code)

	code, _ = api.do(http.MethodPost, "/api/v1/customers", `{"name":"","email":"not-an-email"}`)
	assert.Equal(t, http.StatusBadRequest, code)

	code, _ = api.do(http.MethodDelete, fmt.Sprintf("/api/v1/customers/%d", globex), "")
	assert.Equal(t, http.StatusNoContent, code)
	code, _ = api.do(http.MethodGet, fmt.Sprintf("/api/v1/customers/%d", globex), "")
	assert.Equal(t, http.StatusNotFound, code)
}

func TestLedgerAPI_Layaway(t *testing.T) {
	api := newLedgerAPI(t)
	regular := api.invoice("90.00", "2026-06-30")
	layawayInv := api.create("/api/v1/invoices", `{"subtotal":"90.00","due_date":"2026-06-30","is_layaway":true}`)

	schedule := `{"months":3,"payment_frequency":"monthly","down_payment":"0","installments":[` +
		`{"due_date":"2026-04-01","amount":"30"},{"due_date":"2026-05-01","amount":"30"},{"due_date":"2026-06-01","amount":"30","label":"Final"}]}`

	code, resp := api.do(http.MethodPost, fmt.Sprintf("/api/v1/invoices/%d/layaway", regular), schedule)
	assert.Equal(t, http.StatusUnprocessableEntity, code)
	assert.Equal(t, dto.ErrCodeNotLayaway, resp.Error.Code)

	code, resp = api.do(http.MethodPost, fmt.Sprintf("/api/v1/invoices/%d/layaway", layawayInv), schedule)
	require.Equal(t, http.StatusCreated, code, "%+v", resp.Error)
	plan := data(resp)
	planID := int64(plan["id"].(float64))
	installments := plan["installments"].([]any)
	require.Len(t, installments, 3)
	first := installments[0].(map[string]any)
	assert.Equal(t, "Installment 1", first["label"])
	assert.Equal(t, "Final", installments[2].(map[string]any)["label"])

	code, resp = api.do(http.MethodPost, fmt.Sprintf("/api/v1/invoices/%d/layaway", layawayInv), schedule)
	assert.Equal(t, http.StatusConflict, code)
	assert.Equal(t, dto.ErrCodeConflict, resp.Error.Code)

	instID := int64(first["id"].(float64))
	code, resp = api.do(http.MethodPatch, fmt.Sprintf("/api/v1/layaway/installments/%d", instID), `{"is_paid":true}`)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, true, data(resp)["is_paid"])
	assert.Equal(t, "30", data(resp)["paid_amount"])

	// installment flags never move money
	assert.Equal(t, "0", api.getInvoice(layawayInv)["paid_amount"])

	code, _ = api.do(http.MethodPatch, fmt.Sprintf("/api/v1/layaway/installments/%d", instID), `{}`)
	assert.Equal(t, http.StatusBadRequest, code)

	code, resp = api.do(http.MethodPatch, fmt.Sprintf("/api/v1/layaway/plans/%d", planID), `{"notes":"pick up in June"}`)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "pick up in June", data(resp)["notes"])

	code, resp = api.do(http.MethodPost, fmt.Sprintf("/api/v1/layaway/plans/%d/cancel", planID), "")
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, true, data(resp)["is_cancelled"])

	code, resp = api.do(http.MethodGet, fmt.Sprintf("/api/v1/invoices/%d/layaway", layawayInv), "")
	require.Equal(t, http.StatusOK, code)
	progress := data(resp)["progress"].(map[string]any)
	assert.Equal(t, float64(1), progress["paid_count"])
	assert.Equal(t, float64(3), progress["total_count"])

	code, _ = api.do(http.MethodGet, fmt.Sprintf("/api/v1/invoices/%d/layaway", regular), "")
	assert.Equal(t, http.StatusNotFound, code)
}
