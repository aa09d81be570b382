// Package registry tracks objects by identity without keeping them alive.
//
// Keys are weak pointers: an entry never prevents its key from being
// garbage collected, and the entry is evicted once the key is gone. Two
// distinct objects with identical contents are always distinct keys.
//
// Values must not reference their key, directly or indirectly, or the key
// stays reachable through the map and is never collected.
package registry

import (
	"runtime"
	"sync"
	"weak"
)

type entry[V any] struct {
	value   V
	cleanup runtime.Cleanup
}

// Map associates values with object identities.
//
// Eviction runs on a runtime goroutine, so the map locks internally even
// though callers use it from a single goroutine.
type Map[K any, V any] struct {
	mu      sync.Mutex
	entries map[weak.Pointer[K]]entry[V]
}

// NewMap creates an empty Map.
func NewMap[K any, V any]() *Map[K, V] {
	return &Map[K, V]{entries: make(map[weak.Pointer[K]]entry[V])}
}

// Load returns the value stored for key.
func (m *Map[K, V]) Load(key *K) (V, bool) {
	var zero V
	if key == nil {
		return zero, false
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.entries[weak.Make(key)]
	if !ok {
		return zero, false
	}
	return e.value, true
}

// Store sets the value for key.
func (m *Map[K, V]) Store(key *K, value V) {
	if key == nil {
		return
	}
	wp := weak.Make(key)

	m.mu.Lock()
	defer m.mu.Unlock()
	if e, ok := m.entries[wp]; ok {
		e.value = value
		m.entries[wp] = e
		return
	}
	m.entries[wp] = entry[V]{
		value:   value,
		cleanup: runtime.AddCleanup(key, m.evict, wp),
	}
}

// Delete removes key.
func (m *Map[K, V]) Delete(key *K) {
	if key == nil {
		return
	}
	wp := weak.Make(key)

	m.mu.Lock()
	defer m.mu.Unlock()
	if e, ok := m.entries[wp]; ok {
		e.cleanup.Stop()
		delete(m.entries, wp)
	}
}

// Len returns the number of live entries.
func (m *Map[K, V]) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}

func (m *Map[K, V]) evict(wp weak.Pointer[K]) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.entries, wp)
}

// Set records membership by identity.
type Set[K any] struct {
	m *Map[K, struct{}]
}

// NewSet creates an empty Set.
func NewSet[K any]() *Set[K] {
	return &Set[K]{m: NewMap[K, struct{}]()}
}

// Has reports whether key was added and is still alive.
func (s *Set[K]) Has(key *K) bool {
	_, ok := s.m.Load(key)
	return ok
}

// Add inserts key. It reports false if key was already present.
func (s *Set[K]) Add(key *K) bool {
	if key == nil || s.Has(key) {
		return false
	}
	s.m.Store(key, struct{}{})
	return true
}

// Remove deletes key.
func (s *Set[K]) Remove(key *K) {
	s.m.Delete(key)
}

// Len returns the number of live members.
func (s *Set[K]) Len() int {
	return s.m.Len()
}
