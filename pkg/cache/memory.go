package cache

import (
	"context"
	"sync"
	"time"
)

// MemoryBackend keeps snapshot keys in process memory. TTLs are ignored;
// freshness is enforced by the Manager.
type MemoryBackend struct {
	mu     sync.RWMutex
	values map[string][]byte
}

// NewMemoryBackend creates an empty in-memory backend.
func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{values: make(map[string][]byte)}
}

// NewMemoryStore is a convenience for tests: a Manager over a fresh MemoryBackend.
func NewMemoryStore(cfg Config) (*Manager, *MemoryBackend) {
	backend := NewMemoryBackend()
	return NewManager(backend, cfg), backend
}

func (b *MemoryBackend) Name() string { return "memory" }

func (b *MemoryBackend) Get(_ context.Context, keys []string) (map[string][]byte, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	out := make(map[string][]byte, len(keys))
	for _, k := range keys {
		if v, ok := b.values[k]; ok {
			out[k] = append([]byte(nil), v...)
		}
	}
	return out, nil
}

func (b *MemoryBackend) Set(_ context.Context, values map[string][]byte, _ time.Duration) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	for k, v := range values {
		b.values[k] = append([]byte(nil), v...)
	}
	return nil
}

func (b *MemoryBackend) Delete(_ context.Context, keys []string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	for _, k := range keys {
		delete(b.values, k)
	}
	return nil
}

// Put overwrites a single raw key. Tests use it to plant corrupt snapshots.
func (b *MemoryBackend) Put(key string, value []byte) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.values[key] = value
}

// Len returns the number of stored keys.
func (b *MemoryBackend) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.values)
}
