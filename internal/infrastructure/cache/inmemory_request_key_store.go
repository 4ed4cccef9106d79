package cache

import (
	"context"
	"sync"
	"time"

	"github.com/ledgerline/backend/internal/domain/shared"
)

// entry represents a reserved key with expiration
type entry struct {
	expiresAt time.Time
}

// InMemoryRequestKeyStore implements RequestKeyStore using an in-memory map.
// It is suitable for single-instance deployments and testing.
type InMemoryRequestKeyStore struct {
	mu        sync.RWMutex
	entries   map[string]entry
	interval  time.Duration
	stopChan  chan struct{}
	wg        sync.WaitGroup
	closeOnce sync.Once
}

// NewInMemoryRequestKeyStore creates a new in-memory store and starts a
// background goroutine that drops expired keys
func NewInMemoryRequestKeyStore() *InMemoryRequestKeyStore {
	return newInMemoryRequestKeyStore(5 * time.Minute)
}

func newInMemoryRequestKeyStore(interval time.Duration) *InMemoryRequestKeyStore {
	store := &InMemoryRequestKeyStore{
		entries:  make(map[string]entry),
		interval: interval,
		stopChan: make(chan struct{}),
	}

	store.wg.Add(1)
	go store.cleanupLoop()

	return store
}

// Reserve claims key for ttl. Returns false if the key is held and not expired.
func (s *InMemoryRequestKeyStore) Reserve(_ context.Context, key string, ttl time.Duration) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	if e, exists := s.entries[key]; exists && now.Before(e.expiresAt) {
		return false, nil
	}

	s.entries[key] = entry{expiresAt: now.Add(ttl)}
	return true, nil
}

// Release drops the reservation for key
func (s *InMemoryRequestKeyStore) Release(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, key)
	return nil
}

// IsReserved checks if key is currently held
func (s *InMemoryRequestKeyStore) IsReserved(_ context.Context, key string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, exists := s.entries[key]
	if !exists {
		return false, nil
	}
	return time.Now().Before(e.expiresAt), nil
}

// Close stops the cleanup goroutine. Safe to call multiple times.
func (s *InMemoryRequestKeyStore) Close() error {
	s.closeOnce.Do(func() {
		close(s.stopChan)
		s.wg.Wait()
	})
	return nil
}

func (s *InMemoryRequestKeyStore) cleanupLoop() {
	defer s.wg.Done()

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stopChan:
			return
		case <-ticker.C:
			s.cleanup()
		}
	}
}

// cleanup removes expired entries from the store
func (s *InMemoryRequestKeyStore) cleanup() {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	for key, e := range s.entries {
		if now.After(e.expiresAt) {
			delete(s.entries, key)
		}
	}
}

// Size returns the number of entries in the store (for testing/monitoring)
func (s *InMemoryRequestKeyStore) Size() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// Ensure InMemoryRequestKeyStore implements RequestKeyStore
var _ shared.RequestKeyStore = (*InMemoryRequestKeyStore)(nil)
