package shared

import (
	"context"
	"time"
)

// RequestKeyStore remembers client supplied idempotency keys so a retried
// mutation is not applied twice.
type RequestKeyStore interface {
	// Reserve claims key for ttl. It returns false if the key is already held.
	Reserve(ctx context.Context, key string, ttl time.Duration) (bool, error)

	// Release drops a reservation so the request can be reissued after a failure
	Release(ctx context.Context, key string) error

	// IsReserved reports whether key is currently held
	IsReserved(ctx context.Context, key string) (bool, error)

	Close() error
}
