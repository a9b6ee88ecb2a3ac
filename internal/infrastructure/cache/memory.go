package cache

import (
	"context"
	"sync"
	"time"
)

// MemoryStore is a simple in-process claim store with expiration, used as the
// bot start guard when no Redis is configured
type MemoryStore struct {
	mu    sync.Mutex
	items map[string]time.Time

	stop     chan struct{}
	stopOnce sync.Once
}

// NewMemoryStore creates a new in-memory store
func NewMemoryStore() *MemoryStore {
	store := &MemoryStore{
		items: make(map[string]time.Time),
		stop:  make(chan struct{}),
	}

	// Start cleanup goroutine to remove expired items
	go store.cleanupExpired()

	return store
}

// Acquire claims key for ttl. It returns false when an unexpired claim exists.
func (ms *MemoryStore) Acquire(_ context.Context, key string, ttl time.Duration) (bool, error) {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	now := time.Now()
	if expireTime, exists := ms.items[key]; exists && now.Before(expireTime) {
		return false, nil
	}
	ms.items[key] = now.Add(ttl)
	return true, nil
}

// Release drops a claim
func (ms *MemoryStore) Release(_ context.Context, key string) error {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	delete(ms.items, key)
	return nil
}

// cleanupExpired periodically removes expired items
func (ms *MemoryStore) cleanupExpired() {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ms.stop:
			return
		case <-ticker.C:
			ms.removeExpired(time.Now())
		}
	}
}

func (ms *MemoryStore) removeExpired(now time.Time) {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	for key, expireTime := range ms.items {
		if now.After(expireTime) {
			delete(ms.items, key)
		}
	}
}

// Close stops the cleanup goroutine. It is safe to call more than once.
func (ms *MemoryStore) Close() error {
	ms.stopOnce.Do(func() { close(ms.stop) })
	return nil
}
