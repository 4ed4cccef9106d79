package receivable

import (
	"time"

	"github.com/ledgerline/backend/internal/domain/receivable"
	"github.com/ledgerline/backend/internal/domain/shared"
	"github.com/ledgerline/backend/internal/infrastructure/telemetry"
)

// DefaultIdempotencyTTL is how long an allocation request key is held
const DefaultIdempotencyTTL = 24 * time.Hour

type options struct {
	keys            shared.RequestKeyStore
	keyTTL          time.Duration
	metrics         *telemetry.ReconciliationMetrics
	now             func() time.Time
	suggestionLimit int
}

// Option configures the receivable services
type Option func(*options)

// WithRequestKeyStore enables idempotency keys on allocation requests
func WithRequestKeyStore(store shared.RequestKeyStore, ttl time.Duration) Option {
	return func(o *options) {
		o.keys = store
		if ttl > 0 {
			o.keyTTL = ttl
		}
	}
}

// WithMetrics records ledger operations on m
func WithMetrics(m *telemetry.ReconciliationMetrics) Option {
	return func(o *options) {
		o.metrics = m
	}
}

// WithClock overrides the time source used for status derivation
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		if now != nil {
			o.now = now
		}
	}
}

// WithSuggestionLimit lowers the number of match suggestions returned.
// Values above receivable.MaxSuggestions are ignored.
func WithSuggestionLimit(n int) Option {
	return func(o *options) {
		if n > 0 && n <= receivable.MaxSuggestions {
			o.suggestionLimit = n
		}
	}
}

func buildOptions(opts []Option) options {
	o := options{
		keyTTL:          DefaultIdempotencyTTL,
		now:             time.Now,
		suggestionLimit: receivable.MaxSuggestions,
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}
