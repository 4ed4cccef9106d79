package telemetry

import (
	"context"
	"errors"
	"time"

	"github.com/uptrace/opentelemetry-go-extra/otelgorm"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// DBTracingConfig holds configuration for database tracing.
type DBTracingConfig struct {
	Enabled         bool
	LogFullSQL      bool // include bind variables in db.statement
	SlowQueryThresh time.Duration
	DBName          string
}

// DefaultDBTracingConfig returns tracing disabled with a 200ms slow threshold.
func DefaultDBTracingConfig() DBTracingConfig {
	return DBTracingConfig{
		SlowQueryThresh: 200 * time.Millisecond,
		DBName:          "ledgerline",
	}
}

type queryStartKey struct{}

// RegisterDBTracing installs the otelgorm plugin plus callbacks that tag
// slow statements and failures on the active span.
func RegisterDBTracing(db *gorm.DB, cfg DBTracingConfig, logger *zap.Logger) error {
	if logger == nil {
		logger = zap.NewNop()
	}
	if !cfg.Enabled {
		logger.Debug("Database tracing disabled")
		return nil
	}

	opts := []otelgorm.Option{otelgorm.WithDBName(cfg.DBName)}
	if !cfg.LogFullSQL {
		opts = append(opts, otelgorm.WithoutQueryVariables())
	}
	if err := db.Use(otelgorm.NewPlugin(opts...)); err != nil {
		return err
	}

	after := slowQueryCallback(cfg.SlowQueryThresh)
	cb := db.Callback()
	register := []struct {
		op     string
		before func(string) error
		after  func(string) error
	}{
		{"create",
			func(n string) error { return cb.Create().Before("gorm:create").Register(n, markQueryStart) },
			func(n string) error { return cb.Create().After("gorm:create").Register(n, after) }},
		{"query",
			func(n string) error { return cb.Query().Before("gorm:query").Register(n, markQueryStart) },
			func(n string) error { return cb.Query().After("gorm:query").Register(n, after) }},
		{"update",
			func(n string) error { return cb.Update().Before("gorm:update").Register(n, markQueryStart) },
			func(n string) error { return cb.Update().After("gorm:update").Register(n, after) }},
		{"delete",
			func(n string) error { return cb.Delete().Before("gorm:delete").Register(n, markQueryStart) },
			func(n string) error { return cb.Delete().After("gorm:delete").Register(n, after) }},
		{"row",
			func(n string) error { return cb.Row().Before("gorm:row").Register(n, markQueryStart) },
			func(n string) error { return cb.Row().After("gorm:row").Register(n, after) }},
		{"raw",
			func(n string) error { return cb.Raw().Before("gorm:raw").Register(n, markQueryStart) },
			func(n string) error { return cb.Raw().After("gorm:raw").Register(n, after) }},
	}
	for _, r := range register {
		if err := r.before("ledger_timing:before_" + r.op); err != nil {
			return err
		}
		if err := r.after("ledger_timing:after_" + r.op); err != nil {
			return err
		}
	}

	logger.Info("Database tracing enabled",
		zap.Bool("log_full_sql", cfg.LogFullSQL),
		zap.Duration("slow_query_threshold", cfg.SlowQueryThresh),
	)
	return nil
}

func markQueryStart(db *gorm.DB) {
	if db.Statement.Context != nil {
		db.Statement.Context = context.WithValue(db.Statement.Context, queryStartKey{}, time.Now())
	}
}

func slowQueryCallback(threshold time.Duration) func(*gorm.DB) {
	return func(db *gorm.DB) {
		ctx := db.Statement.Context
		if ctx == nil {
			return
		}
		span := trace.SpanFromContext(ctx)
		if !span.IsRecording() {
			return
		}

		span.SetAttributes(attribute.Int64("db.rows_affected", db.Statement.RowsAffected))
		if db.Statement.Table != "" {
			span.SetAttributes(attribute.String("db.sql.table", db.Statement.Table))
		}
		if db.Error != nil && !errors.Is(db.Error, gorm.ErrRecordNotFound) {
			span.SetStatus(codes.Error, db.Error.Error())
			span.RecordError(db.Error)
		}

		start, ok := ctx.Value(queryStartKey{}).(time.Time)
		if !ok {
			return
		}
		if elapsed := time.Since(start); elapsed > threshold {
			span.SetAttributes(
				attribute.Bool("db.slow_query", true),
				attribute.Int64("db.query_duration_ms", elapsed.Milliseconds()),
			)
			span.AddEvent("slow_query_warning", trace.WithAttributes(
				attribute.Int64("threshold_ms", threshold.Milliseconds()),
			))
		}
	}
}
