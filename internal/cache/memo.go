package cache

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

type entry[V any] struct {
	val     V
	expires time.Time
}

// Memo caches the results of an expensive function by key for a fixed TTL.
// Entries expire by time only; errors are never cached. Concurrent calls for
// the same missing key share one computation.
type Memo[V any] struct {
	ttl   time.Duration
	now   func() time.Time
	mu    sync.Mutex
	items map[string]entry[V]
	group singleflight.Group
}

// New returns a memo whose entries live for ttl.
func New[V any](ttl time.Duration) *Memo[V] {
	return &Memo[V]{ttl: ttl, now: time.Now, items: map[string]entry[V]{}}
}

// Get returns the cached value for key or computes it with fn.
func (m *Memo[V]) Get(ctx context.Context, key string, fn func(context.Context) (V, error)) (V, error) {
	if v, ok := m.lookup(key); ok {
		return v, nil
	}
	res, err, _ := m.group.Do(key, func() (any, error) {
		if v, ok := m.lookup(key); ok {
			return v, nil
		}
		v, err := fn(ctx)
		if err != nil {
			return v, err
		}
		m.mu.Lock()
		m.items[key] = entry[V]{val: v, expires: m.now().Add(m.ttl)}
		m.mu.Unlock()
		return v, nil
	})
	if err != nil {
		var zero V
		return zero, err
	}
	return res.(V), nil
}

func (m *Memo[V]) lookup(key string) (V, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := m.now()
	for k, e := range m.items {
		if !now.Before(e.expires) {
			delete(m.items, k)
		}
	}
	e, ok := m.items[key]
	return e.val, ok
}

// Len reports the number of live entries.
func (m *Memo[V]) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.items)
}

// Purge drops every entry.
func (m *Memo[V]) Purge() {
	m.mu.Lock()
	m.items = map[string]entry[V]{}
	m.mu.Unlock()
}
