package logger

import (
	"context"

	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// contextKey keeps the package's context values apart from other packages'
type contextKey string

const (
	// loggerKey holds the request-scoped *zap.Logger
	loggerKey contextKey = "logger"
	// requestIDKey holds the X-Request-ID of the current request
	requestIDKey contextKey = "request_id"
)

// WithContext attaches log to ctx
func WithContext(ctx context.Context, log *zap.Logger) context.Context {
	return context.WithValue(ctx, loggerKey, log)
}

// FromContext returns the attached logger or a no-op logger
func FromContext(ctx context.Context) *zap.Logger {
	if log, ok := ctx.Value(loggerKey).(*zap.Logger); ok && log != nil {
		return log
	}
	// Background jobs and tests run without a request logger
	return zap.NewNop()
}

// WithRequestID stores the request ID and returns a context whose logger carries it
func WithRequestID(ctx context.Context, log *zap.Logger, requestID string) context.Context {
	ctx = context.WithValue(ctx, requestIDKey, requestID)
	return WithContext(ctx, log.With(zap.String("request_id", requestID)))
}

// GetRequestID returns the request ID stored in ctx, if any
func GetRequestID(ctx context.Context) string {
	if id, ok := ctx.Value(requestIDKey).(string); ok {
		return id
	}
	return ""
}

// ContextLogger logs through the context's logger and adds trace correlation.
//
// Usage: logger.L(ctx).Info("allocation created", zap.Int64("payment_id", id))
type ContextLogger struct {
	ctx context.Context
	log *zap.Logger
}

// L returns a ContextLogger for ctx
func L(ctx context.Context) *ContextLogger {
	return &ContextLogger{ctx: ctx, log: FromContext(ctx)}
}

// enriched adds trace_id and span_id when ctx carries a recording span.
// The request_id is already on the logger from WithRequestID.
func (cl *ContextLogger) enriched() *zap.Logger {
	spanCtx := trace.SpanFromContext(cl.ctx).SpanContext()
	if !spanCtx.IsValid() {
		// No span: tracing is disabled or the call runs outside a request
		return cl.log
	}
	return cl.log.With(
		zap.String("trace_id", spanCtx.TraceID().String()),
		zap.String("span_id", spanCtx.SpanID().String()),
	)
}

// With returns a child ContextLogger carrying fields
func (cl *ContextLogger) With(fields ...zap.Field) *ContextLogger {
	return &ContextLogger{ctx: cl.ctx, log: cl.log.With(fields...)}
}

// Debug, Info, Warn and Error log at their level with trace correlation.

func (cl *ContextLogger) Debug(msg string, fields ...zap.Field) { cl.enriched().Debug(msg, fields...) }
func (cl *ContextLogger) Info(msg string, fields ...zap.Field)  { cl.enriched().Info(msg, fields...) }
func (cl *ContextLogger) Warn(msg string, fields ...zap.Field)  { cl.enriched().Warn(msg, fields...) }
func (cl *ContextLogger) Error(msg string, fields ...zap.Field) { cl.enriched().Error(msg, fields...) }

// Zap returns the enriched *zap.Logger, for callers such as the gorm
// logger that take a plain zap logger
func (cl *ContextLogger) Zap() *zap.Logger {
	return cl.enriched()
}
