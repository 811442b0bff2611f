package lock

import (
	"context"
	"sync"
	"time"
)

// MemoryBackend is an in-process Backend for tests and single-node runs.
type MemoryBackend struct {
	mu    sync.Mutex
	held  map[string]time.Time
	clock func() time.Time
}

func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{held: make(map[string]time.Time), clock: time.Now}
}

func (b *MemoryBackend) SetNX(_ context.Context, key string, ttl time.Duration) (bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	now := b.clock()
	if expiry, ok := b.held[key]; ok && now.Before(expiry) {
		return false, nil
	}
	b.held[key] = now.Add(ttl)
	return true, nil
}

func (b *MemoryBackend) Del(_ context.Context, key string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.held, key)
	return nil
}
