package router

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/ledgerline/backend/internal/infrastructure/logger"
	"github.com/ledgerline/backend/internal/interfaces/http/handler"
	"github.com/ledgerline/backend/internal/interfaces/http/middleware"
	"go.uber.org/zap"
)

// Handlers are the HTTP handlers mounted by NewEngine
type Handlers struct {
	Reconciliation *handler.ReconciliationHandler
	Invoice        *handler.InvoiceHandler
	Payment        *handler.PaymentHandler
	Customer       *handler.CustomerHandler
	Layaway        *handler.LayawayHandler
	System         *handler.SystemHandler
}

// EngineConfig selects the middleware stack
type EngineConfig struct {
	Logger    *zap.Logger
	Tracing   middleware.TracingConfig
	Metrics   middleware.HTTPMetricsConfig
	CORS      middleware.CORSConfig
	BodyLimit int64
	// WriteLimiter throttles ledger mutations per client. Nil disables it.
	WriteLimiter *middleware.RateLimiter
}

// NewEngine builds the gin engine with the ledger API mounted under /api/v1
// and /health at the root.
func NewEngine(h Handlers, cfg EngineConfig) *gin.Engine {
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}
	bodyLimit := cfg.BodyLimit
	if bodyLimit <= 0 {
		bodyLimit = middleware.DefaultBodyLimit
	}
	middleware.SetupValidator()

	engine := gin.New()
	engine.Use(middleware.RequestID())
	engine.Use(logger.GinMiddleware(log))
	engine.Use(logger.Recovery(log))
	engine.Use(middleware.TracingWithConfig(cfg.Tracing))
	engine.Use(middleware.TracingAttributeInjector())
	engine.Use(middleware.SpanErrorMarker())
	engine.Use(middleware.HTTPMetrics(cfg.Metrics))
	engine.Use(middleware.CORSWithConfig(cfg.CORS))
	engine.Use(middleware.Secure())
	engine.Use(middleware.BodyLimit(bodyLimit))

	engine.GET("/health", h.System.Health)

	var guard []gin.HandlerFunc
	if cfg.WriteLimiter != nil {
		guard = append(guard, middleware.RateLimit(cfg.WriteLimiter))
	}

	invoices := NewResource("invoices", "/invoices").Guard(guard...).
		POST("", h.Invoice.Create).
		GET("", h.Invoice.List).
		Mutate(http.MethodPost, "/recompute", h.Reconciliation.RecomputeAll).
		GET("/:id", h.Invoice.GetByID).
		PUT("/:id", h.Invoice.UpdateAmounts).
		DELETE("/:id", h.Invoice.Delete).
		POST("/:id/deactivate", h.Invoice.Deactivate).
		POST("/:id/reactivate", h.Invoice.Reactivate).
		Mutate(http.MethodPost, "/:id/recompute", h.Reconciliation.RecomputeInvoice).
		POST("/:id/layaway", h.Layaway.CreatePlan).
		GET("/:id/layaway", h.Layaway.GetPlan)

	payments := NewResource("payments", "/payments").Guard(guard...).
		POST("", h.Payment.Create).
		GET("/unmatched", h.Payment.ListUnmatched).
		GET("/:id", h.Payment.GetByID).
		DELETE("/:id", h.Payment.Delete).
		Mutate(http.MethodPost, "/:id/allocations", h.Reconciliation.Allocate).
		Mutate(http.MethodPost, "/:id/allocations/batch", h.Reconciliation.AllocateBatch).
		GET("/:id/suggestions", h.Reconciliation.SuggestMatches)

	allocations := NewResource("allocations", "/allocations").Guard(guard...).
		Mutate(http.MethodDelete, "/:id", h.Reconciliation.RemoveAllocation)

	customers := NewResource("customers", "/customers").
		POST("", h.Customer.Create).
		GET("", h.Customer.List).
		GET("/:id", h.Customer.GetByID).
		DELETE("/:id", h.Customer.Delete)

	layaway := NewResource("layaway", "/layaway")
	layaway.Child("installments", "/installments").
		PATCH("/:id", h.Layaway.SetInstallmentPaid)
	layaway.Child("plans", "/plans").
		PATCH("/:id", h.Layaway.UpdateNotes).
		POST("/:id/cancel", h.Layaway.CancelPlan)

	system := NewResource("system", "/system").
		GET("/info", h.System.GetSystemInfo).
		GET("/ping", h.System.Ping)

	if len(guard) > 0 {
		var guarded []string
		for _, res := range []*Resource{invoices, payments, allocations} {
			guarded = append(guarded, res.GuardedRoutes()...)
		}
		log.Debug("Ledger mutations throttled", zap.Strings("routes", guarded))
	}

	NewAPI(engine, "v1").
		Add(invoices, payments, allocations, customers, layaway, system).
		Mount()

	return engine
}
