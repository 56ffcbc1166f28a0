// Package propstore implements a typed entity/property store and its
// query engine: a polymorphic per-type column store indexed by entity
// id, on-demand derived properties, lazily rebuilt secondary indexes,
// and a small query planner over both.
package propstore

// EntityID identifies a single entity within one EntityTable. It is
// opaque, monotonically assigned, and never reused for the lifetime of
// the table. Id 0 is reserved as an invalid sentinel — the first
// entity created by AddEntity is id 1 — matching the zero-value
// convention Go maps and slices already impose on any EntityID-keyed
// collection.
type EntityID uint64

// InvalidEntityID is never returned by AddEntity.
const InvalidEntityID EntityID = 0

// GlobalLookup is the optional, host-supplied source of global
// configuration values a derived property's compute function may
// depend on. It is the only external collaborator this package
// consumes besides the host's own typed container (see host.go);
// everything about how global configuration values are produced,
// stored, or invalidated is the host's concern, not this package's.
type GlobalLookup interface {
	// Get returns the current value registered under name, and
	// whether one is present.
	Get(name string) (any, bool)
}

// MapGlobalLookup is a trivial GlobalLookup backed by a plain map,
// convenient for tests and for hosts with no dynamic configuration
// source of their own.
type MapGlobalLookup map[string]any

// Get implements GlobalLookup.
func (m MapGlobalLookup) Get(name string) (any, bool) {
	v, ok := m[name]
	return v, ok
}
