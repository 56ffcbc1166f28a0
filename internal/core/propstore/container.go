package propstore

import (
	"fmt"
	"sync"
)

// TypedContainerMap is a polymorphic map keyed by compile-time type: it
// stores at most one container value per distinct reflect.Type key,
// and hands it back with its original static type restored. Because
// GetOrCreate, Get, and Insert are the only three ways to store or
// retrieve a container, and every call site derives its key from the same type
// parameter it type-asserts the result back to, the internal type
// assertion can never fail — the downcast is total by construction,
// not merely "checked and handled."
type TypedContainerMap struct {
	mu    sync.Mutex
	items map[any]any
}

// NewTypedContainerMap creates an empty container map.
func NewTypedContainerMap() *TypedContainerMap {
	return &TypedContainerMap{items: make(map[any]any)}
}

// GetOrCreate returns the container stored under key, creating it via
// factory on first use.
func GetOrCreate[C any](m *TypedContainerMap, key any, factory func() C) C {
	m.mu.Lock()
	defer m.mu.Unlock()
	if v, ok := m.items[key]; ok {
		return v.(C)
	}
	c := factory()
	m.items[key] = c
	return c
}

// Get returns the container stored under key, if any.
func Get[C any](m *TypedContainerMap, key any) (C, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.items[key]
	if !ok {
		var zero C
		return zero, false
	}
	return v.(C), true
}

// Insert stores c under key. Insert panics if key is already
// occupied — unlike GetOrCreate, Insert is for first-registration call
// sites that must not silently overwrite an existing container.
func Insert[C any](m *TypedContainerMap, key any, c C) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.items[key]; exists {
		panic(fmt.Sprintf("propstore: container already registered for key %v", key))
	}
	m.items[key] = c
}

// Has reports whether key has a container registered.
func (m *TypedContainerMap) Has(key any) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.items[key]
	return ok
}
