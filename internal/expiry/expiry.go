// Package expiry provides a small thread-safe map whose entries expire
// after a fixed TTL. It backs the stake-lock table, the turn-timeout
// counters and the turn-timer remaining cache, replacing the manual
// expiry sweeps those call sites used to carry individually.
package expiry

import (
	"sync"
	"time"
)

type entry[V any] struct {
	value   V
	expires time.Time
}

// Map is a TTL map. A zero TTL means entries never expire.
type Map[K comparable, V any] struct {
	mu      sync.Mutex
	ttl     time.Duration
	entries map[K]entry[V]
	now     func() time.Time
}

// New creates a Map whose entries live for ttl after each Set.
func New[K comparable, V any](ttl time.Duration) *Map[K, V] {
	return &Map[K, V]{
		ttl:     ttl,
		entries: make(map[K]entry[V]),
		now:     time.Now,
	}
}

// SetClock replaces the time source. Intended for tests.
func (m *Map[K, V]) SetClock(now func() time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.now = now
}

func (m *Map[K, V]) expiresAt() time.Time {
	if m.ttl <= 0 {
		return time.Time{}
	}
	return m.now().Add(m.ttl)
}

func (m *Map[K, V]) live(e entry[V]) bool {
	return e.expires.IsZero() || m.now().Before(e.expires)
}

// Set stores value under key, refreshing its TTL.
func (m *Map[K, V]) Set(key K, value V) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[key] = entry[V]{value: value, expires: m.expiresAt()}
}

// Get returns the live value for key. Expired entries are removed lazily.
func (m *Map[K, V]) Get(key K) (V, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.entries[key]
	if !ok {
		var zero V
		return zero, false
	}
	if !m.live(e) {
		delete(m.entries, key)
		var zero V
		return zero, false
	}
	return e.value, true
}

// Delete removes key if present.
func (m *Map[K, V]) Delete(key K) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.entries, key)
}

// Update runs fn with the current live value (if any) while holding the
// map lock, making check-then-act sequences on a single key atomic.
// If fn returns store=false the key is deleted; otherwise the returned
// value is stored with a refreshed TTL. The stored (or deleted) value
// is returned.
func (m *Map[K, V]) Update(key K, fn func(cur V, exists bool) (next V, store bool)) V {
	m.mu.Lock()
	defer m.mu.Unlock()

	var cur V
	exists := false
	if e, ok := m.entries[key]; ok {
		if m.live(e) {
			cur = e.value
			exists = true
		} else {
			delete(m.entries, key)
		}
	}

	next, store := fn(cur, exists)
	if store {
		m.entries[key] = entry[V]{value: next, expires: m.expiresAt()}
	} else {
		delete(m.entries, key)
	}
	return next
}

// Len reports the number of live entries.
func (m *Map[K, V]) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, e := range m.entries {
		if m.live(e) {
			n++
		}
	}
	return n
}

// Sweep removes all expired entries and returns how many were dropped.
func (m *Map[K, V]) Sweep() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	dropped := 0
	for k, e := range m.entries {
		if !m.live(e) {
			delete(m.entries, k)
			dropped++
		}
	}
	return dropped
}

// Range calls fn for every live entry. fn must not call back into the map.
func (m *Map[K, V]) Range(fn func(key K, value V) bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for k, e := range m.entries {
		if !m.live(e) {
			continue
		}
		if !fn(k, e.value) {
			return
		}
	}
}
