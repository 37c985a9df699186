package testutil

import (
	"context"
	"encoding/json"
	"strings"
	"sync"
	"time"

	"lendflow/pkg/cache"
)

// MemoryCache is an in-process Cache used by tests in place of Redis.
// Expirations are ignored; tests control lifetimes through Delete.
type MemoryCache struct {
	mu      sync.RWMutex
	entries map[string][]byte
}

func NewMemoryCache() *MemoryCache {
	return &MemoryCache{entries: make(map[string][]byte)}
}

func (m *MemoryCache) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}

	m.mu.Lock()
	m.entries[key] = data
	m.mu.Unlock()
	return nil
}

func (m *MemoryCache) Get(ctx context.Context, key string, dest interface{}) error {
	m.mu.RLock()
	data, ok := m.entries[key]
	m.mu.RUnlock()

	if !ok {
		return cache.ErrCacheMiss
	}
	return json.Unmarshal(data, dest)
}

func (m *MemoryCache) Delete(ctx context.Context, key string) error {
	m.mu.Lock()
	delete(m.entries, key)
	m.mu.Unlock()
	return nil
}

func (m *MemoryCache) Exists(ctx context.Context, key string) (bool, error) {
	m.mu.RLock()
	_, ok := m.entries[key]
	m.mu.RUnlock()
	return ok, nil
}

func (m *MemoryCache) DeletePattern(ctx context.Context, pattern string) error {
	keys, err := m.GetKeys(ctx, pattern)
	if err != nil {
		return err
	}
	return m.DeleteMultiple(ctx, keys)
}

func (m *MemoryCache) GetKeys(ctx context.Context, pattern string) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	keys := make([]string, 0, len(m.entries))
	for key := range m.entries {
		if matchPattern(pattern, key) {
			keys = append(keys, key)
		}
	}
	return keys, nil
}

func (m *MemoryCache) DeleteMultiple(ctx context.Context, keys []string) error {
	m.mu.Lock()
	for _, key := range keys {
		delete(m.entries, key)
	}
	m.mu.Unlock()
	return nil
}

func (m *MemoryCache) InvalidatePrefix(ctx context.Context, prefix string) error {
	return m.DeletePattern(ctx, prefix+"*")
}

func (m *MemoryCache) Ping(ctx context.Context) error {
	return nil
}

// matchPattern covers the glob subset the cache layer actually uses:
// exact keys and trailing-star prefixes.
func matchPattern(pattern, key string) bool {
	if pattern == "*" {
		return true
	}
	if strings.HasSuffix(pattern, "*") {
		return strings.HasPrefix(key, strings.TrimSuffix(pattern, "*"))
	}
	return pattern == key
}
