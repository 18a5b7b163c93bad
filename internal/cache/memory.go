// Package cache provides an in-process classification cache with TTL expiry.
package cache

import (
	"context"
	"sync"
	"time"

	"github.com/ewilliams-labs/shelfsound/internal/core/domain"
	"github.com/ewilliams-labs/shelfsound/internal/core/ports"
)

type item struct {
	value     domain.Classification
	expiresAt time.Time
}

// Memory is a thread-safe map of classifications. Expired entries are removed
// lazily on read.
type Memory struct {
	mu    sync.RWMutex
	items map[string]item
	now   func() time.Time
}

var _ ports.ClassificationCache = (*Memory)(nil)

func NewMemory() *Memory {
	return &Memory{items: make(map[string]item), now: time.Now}
}

func (m *Memory) Get(_ context.Context, key string) (domain.Classification, bool, error) {
	m.mu.RLock()
	it, ok := m.items[key]
	m.mu.RUnlock()
	if !ok {
		return domain.Classification{}, false, nil
	}
	if !it.expiresAt.IsZero() && m.now().After(it.expiresAt) {
		m.mu.Lock()
		delete(m.items, key)
		m.mu.Unlock()
		return domain.Classification{}, false, nil
	}
	return it.value, true, nil
}

// Set stores c under key. A non-positive ttl never expires.
func (m *Memory) Set(_ context.Context, key string, c domain.Classification, ttl time.Duration) error {
	it := item{value: c}
	if ttl > 0 {
		it.expiresAt = m.now().Add(ttl)
	}
	m.mu.Lock()
	m.items[key] = it
	m.mu.Unlock()
	return nil
}

// Len returns the number of stored entries, expired ones included.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.items)
}
