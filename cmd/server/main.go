package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	applayaway "github.com/ledgerline/backend/internal/application/layaway"
	appreceivable "github.com/ledgerline/backend/internal/application/receivable"
	"github.com/ledgerline/backend/internal/infrastructure/cache"
	"github.com/ledgerline/backend/internal/infrastructure/config"
	"github.com/ledgerline/backend/internal/infrastructure/logger"
	"github.com/ledgerline/backend/internal/infrastructure/persistence"
	"github.com/ledgerline/backend/internal/infrastructure/telemetry"
	"github.com/ledgerline/backend/internal/interfaces/http/handler"
	"github.com/ledgerline/backend/internal/interfaces/http/middleware"
	"github.com/ledgerline/backend/internal/interfaces/http/router"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	log, err := logger.New(&logger.Config{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		Output:     cfg.Log.Output,
		TimeFormat: "2006-01-02T15:04:05.000Z07:00",
	})
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() {
		_ = logger.Sync(log)
	}()

	log.Info("Starting ledger service",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
	)

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	gormLog := logger.NewGormLogger(log, logger.MapGormLogLevel(cfg.Log.Level),
		logger.WithSlowThreshold(cfg.Telemetry.DBSlowQueryThresh))
	db, err := persistence.NewDatabase(&cfg.Database, persistence.WithGormLogger(gormLog))
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()
	log.Info("Database connected successfully")

	tracerProvider, err := telemetry.NewTracerProvider(ctx, telemetry.Config{
		Enabled:           cfg.Telemetry.Enabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		SamplingRatio:     cfg.Telemetry.SamplingRatio,
		ServiceName:       cfg.Telemetry.ServiceName,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize tracer provider", zap.Error(err))
	}

	logsProvider, err := telemetry.NewLoggerProvider(ctx, telemetry.LogsConfig{
		Enabled:           cfg.Telemetry.LogsEnabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		ServiceName:       cfg.Telemetry.ServiceName,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize logger provider", zap.Error(err))
	}
	if lvl, err := zapcore.ParseLevel(cfg.Log.Level); err == nil {
		log = logsProvider.Bridge(log, lvl)
	}

	dbTracing := telemetry.DefaultDBTracingConfig()
	dbTracing.Enabled = cfg.Telemetry.Enabled && cfg.Telemetry.DBTraceEnabled
	dbTracing.SlowQueryThresh = cfg.Telemetry.DBSlowQueryThresh
	dbTracing.DBName = cfg.Database.DBName
	if err := telemetry.RegisterDBTracing(db.DB, dbTracing, log); err != nil {
		log.Fatal("Failed to register database tracing", zap.Error(err))
	}

	meterProvider, err := telemetry.NewMeterProvider(ctx, telemetry.MetricsConfig{
		Enabled:           cfg.Telemetry.MetricsEnabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		ExportInterval:    cfg.Telemetry.MetricsInterval,
		ServiceName:       cfg.Telemetry.ServiceName,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize meter provider", zap.Error(err))
	}

	reconMetrics, err := telemetry.NewReconciliationMetrics(meterProvider.Meter("ledgerline/reconciliation"), log)
	if err != nil {
		log.Fatal("Failed to create reconciliation metrics", zap.Error(err))
	}

	keyStore, err := cache.NewRequestKeyStoreFactory(cfg.Redis,
		cache.WithLogger(log),
		cache.WithInMemoryFallback(!cfg.IsProduction()),
	).CreateStore()
	if err != nil {
		log.Fatal("Failed to create request key store", zap.Error(err))
	}
	defer func() {
		if err := keyStore.Close(); err != nil {
			log.Error("Error closing request key store", zap.Error(err))
		}
	}()

	scope := persistence.NewGormTransactionScope(db.DB)
	opts := []appreceivable.Option{
		appreceivable.WithRequestKeyStore(keyStore, cfg.Reconciliation.IdempotencyTTL),
		appreceivable.WithMetrics(reconMetrics),
		appreceivable.WithSuggestionLimit(cfg.Reconciliation.SuggestionLimit),
	}

	if meterProvider.IsEnabled() {
		reconMetrics.StartPeriodicCollection(ctx,
			appreceivable.NewReceivablesSnapshotter(scope, opts...), cfg.Telemetry.MetricsInterval)
		defer reconMetrics.Stop()
	}

	handlers := router.Handlers{
		Reconciliation: handler.NewReconciliationHandler(
			appreceivable.NewReconciliationService(scope, opts...),
			appreceivable.NewSuggestionService(scope, opts...),
		),
		Invoice:  handler.NewInvoiceHandler(appreceivable.NewInvoiceService(scope, opts...)),
		Payment:  handler.NewPaymentHandler(appreceivable.NewPaymentService(scope, opts...)),
		Customer: handler.NewCustomerHandler(appreceivable.NewCustomerService(scope, opts...)),
		Layaway:  handler.NewLayawayHandler(applayaway.NewService(scope)),
		System:   handler.NewSystemHandler(cfg.App.Name, db),
	}

	var writeLimiter *middleware.RateLimiter
	if cfg.HTTP.RateLimitEnabled {
		writeLimiter = middleware.NewRateLimiter(cfg.HTTP.RateLimitRequests, cfg.HTTP.RateLimitWindow)
		defer writeLimiter.Close()
		log.Info("Write throttle enabled",
			zap.Int("requests", cfg.HTTP.RateLimitRequests),
			zap.Duration("window", cfg.HTTP.RateLimitWindow),
		)
	}

	cors := middleware.DefaultCORSConfig()
	cors.AllowOrigins = cfg.HTTP.CORSAllowOrigins

	engine := router.NewEngine(handlers, router.EngineConfig{
		Logger: log,
		Tracing: middleware.TracingConfig{
			ServiceName: cfg.Telemetry.ServiceName,
			Enabled:     tracerProvider.IsEnabled(),
		},
		Metrics: middleware.HTTPMetricsConfig{
			MeterProvider: meterProvider,
			Enabled:       meterProvider.IsEnabled(),
		},
		CORS:         cors,
		BodyLimit:    cfg.HTTP.BodyLimit,
		WriteLimiter: writeLimiter,
	})

	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
	}
	if err := meterProvider.Shutdown(shutdownCtx); err != nil {
		log.Error("Error shutting down meter provider", zap.Error(err))
	}
	if err := tracerProvider.Shutdown(shutdownCtx); err != nil {
		log.Error("Error shutting down tracer provider", zap.Error(err))
	}
	if err := logsProvider.Shutdown(shutdownCtx); err != nil {
		log.Error("Error shutting down logger provider", zap.Error(err))
	}

	log.Info("Server exited gracefully")
}
