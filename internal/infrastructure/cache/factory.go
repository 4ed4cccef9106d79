package cache

import (
	"fmt"

	"github.com/ledgerline/backend/internal/domain/shared"
	"github.com/ledgerline/backend/internal/infrastructure/config"
	"go.uber.org/zap"
)

// RequestKeyStoreFactory creates request key stores based on configuration
type RequestKeyStoreFactory struct {
	redisConfig           config.RedisConfig
	logger                *zap.Logger
	allowInMemoryFallback bool
}

// RequestKeyStoreFactoryOption is a functional option for configuring the factory
type RequestKeyStoreFactoryOption func(*RequestKeyStoreFactory)

// WithLogger sets the logger for the factory
func WithLogger(logger *zap.Logger) RequestKeyStoreFactoryOption {
	return func(f *RequestKeyStoreFactory) {
		if logger != nil {
			f.logger = logger
		}
	}
}

// WithInMemoryFallback controls whether to fall back to the in-memory store
// when Redis is unavailable. Default is true.
func WithInMemoryFallback(allow bool) RequestKeyStoreFactoryOption {
	return func(f *RequestKeyStoreFactory) {
		f.allowInMemoryFallback = allow
	}
}

// NewRequestKeyStoreFactory creates a new factory
func NewRequestKeyStoreFactory(cfg config.RedisConfig, opts ...RequestKeyStoreFactoryOption) *RequestKeyStoreFactory {
	f := &RequestKeyStoreFactory{
		redisConfig:           cfg,
		logger:                zap.NewNop(),
		allowInMemoryFallback: true,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// CreateStore returns a Redis store when Redis is configured and reachable.
// Otherwise it falls back to an in-memory store if allowed. In-memory keys
// are not shared between instances.
func (f *RequestKeyStoreFactory) CreateStore() (shared.RequestKeyStore, error) {
	if !f.redisConfig.Enabled() {
		f.logger.Info("redis not configured, using in-memory request key store")
		return NewInMemoryRequestKeyStore(), nil
	}

	store, err := NewRedisRequestKeyStore(f.redisConfig)
	if err == nil {
		f.logger.Info("using Redis request key store", zap.String("addr", f.redisConfig.Addr()))
		return store, nil
	}

	if !f.allowInMemoryFallback {
		return nil, fmt.Errorf("redis required for request keys but unavailable: %w", err)
	}

	f.logger.Warn("Redis unavailable, falling back to in-memory request key store. "+
		"Idempotency keys will not be shared across instances.",
		zap.Error(err),
	)
	return NewInMemoryRequestKeyStore(), nil
}
