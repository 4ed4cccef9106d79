package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/ledgerline/backend/internal/domain/shared"
	"github.com/ledgerline/backend/internal/infrastructure/config"
	"github.com/redis/go-redis/v9"
)

// DefaultKeyPrefix namespaces request keys in a shared Redis
const DefaultKeyPrefix = "ledgerline:"

// RedisRequestKeyStore implements RequestKeyStore using Redis so every
// instance of the service sees the same reservations
type RedisRequestKeyStore struct {
	client    *redis.Client
	keyPrefix string
}

// NewRedisRequestKeyStore connects to Redis and verifies the connection
func NewRedisRequestKeyStore(cfg config.RedisConfig) (*RedisRequestKeyStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr(),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &RedisRequestKeyStore{
		client:    client,
		keyPrefix: DefaultKeyPrefix,
	}, nil
}

// NewRedisRequestKeyStoreWithClient creates a store with an existing Redis client
func NewRedisRequestKeyStoreWithClient(client *redis.Client, keyPrefix string) *RedisRequestKeyStore {
	if keyPrefix == "" {
		keyPrefix = DefaultKeyPrefix
	}
	return &RedisRequestKeyStore{
		client:    client,
		keyPrefix: keyPrefix,
	}
}

// Reserve claims key with SET NX and a TTL in one atomic command
func (s *RedisRequestKeyStore) Reserve(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	ok, err := s.client.SetNX(ctx, s.keyPrefix+key, "1", ttl).Result()
	if err != nil {
		return false, fmt.Errorf("failed to reserve request key: %w", err)
	}
	return ok, nil
}

// Release deletes the reservation
func (s *RedisRequestKeyStore) Release(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, s.keyPrefix+key).Err(); err != nil {
		return fmt.Errorf("failed to release request key: %w", err)
	}
	return nil
}

// IsReserved checks whether the key exists
func (s *RedisRequestKeyStore) IsReserved(ctx context.Context, key string) (bool, error) {
	n, err := s.client.Exists(ctx, s.keyPrefix+key).Result()
	if err != nil {
		return false, fmt.Errorf("failed to check request key: %w", err)
	}
	return n > 0, nil
}

// Close closes the Redis client
func (s *RedisRequestKeyStore) Close() error {
	return s.client.Close()
}

// Ensure RedisRequestKeyStore implements RequestKeyStore
var _ shared.RequestKeyStore = (*RedisRequestKeyStore)(nil)
