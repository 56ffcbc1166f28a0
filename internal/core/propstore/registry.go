package propstore

import (
	"reflect"
	"sync"
)

// propertyInfo is the registry's metadata record for one property
// type, independent of its value type T (generics don't let us keep a
// single typed slice of heterogeneous Property[T] values, so the
// registry tracks properties by their erased reflect.Type key instead).
type propertyInfo struct {
	key      reflect.Type
	name     string
	required bool
	derived  bool

	// deps is the transitive closure of non-derived property keys this
	// property's value depends on. For a non-derived property, deps is
	// always empty. For a derived property, deps is the union of every
	// declared dependency's own deps (if that dependency is itself
	// derived) or the dependency itself (if non-derived).
	deps []reflect.Type

	// globalDeps names the global configuration values a derived
	// property's compute function consults.
	globalDeps []string
}

// registry owns every property's identity, its required/derived
// status, and the reverse-dependency map used to propagate
// invalidation from a non-derived property to every derived property
// that (transitively) reads it.
type registry struct {
	mu sync.Mutex

	infos map[reflect.Type]*propertyInfo
	order []reflect.Type

	// reverseDeps maps a non-derived property's key to every derived
	// property's key that transitively depends on it.
	reverseDeps map[reflect.Type][]reflect.Type
}

func newRegistry() *registry {
	return &registry{
		infos:       make(map[reflect.Type]*propertyInfo),
		reverseDeps: make(map[reflect.Type][]reflect.Type),
	}
}

// ensureNonDerived registers key as a non-derived property the first
// time it is seen (on first use, per the property lifecycle), and is a
// no-op on every subsequent call. It panics if key was already
// registered as derived.
func (r *registry) ensureNonDerived(key reflect.Type, name string, required bool) *propertyInfo {
	r.mu.Lock()
	defer r.mu.Unlock()
	if info, ok := r.infos[key]; ok {
		if info.derived {
			panicPropertyAlreadyRegistered(info.name)
		}
		return info
	}
	info := &propertyInfo{key: key, name: name, required: required}
	r.infos[key] = info
	r.order = append(r.order, key)
	return info
}

// registerDerived registers key as a derived property. It panics if
// key is already registered (derived properties must be registered
// exactly once, unlike non-derived properties' idempotent first-use
// registration), or if any declared dependency has not itself been
// registered yet.
func (r *registry) registerDerived(key reflect.Type, name string, declaredDeps []reflect.Type, globalDeps []string) *propertyInfo {
	r.mu.Lock()
	defer r.mu.Unlock()

	if existing, ok := r.infos[key]; ok {
		panicPropertyAlreadyRegistered(existing.name)
	}

	transitive := map[reflect.Type]struct{}{}
	for _, dep := range declaredDeps {
		if dep == nil {
			panicDependencyNotRegistered("<unregistered>", name)
		}
		depInfo, ok := r.infos[dep]
		if !ok {
			panicDependencyNotRegistered(dep.String(), name)
		}
		if depInfo.derived {
			for _, d := range depInfo.deps {
				transitive[d] = struct{}{}
			}
		} else {
			transitive[dep] = struct{}{}
		}
	}

	deps := make([]reflect.Type, 0, len(transitive))
	for d := range transitive {
		deps = append(deps, d)
	}

	info := &propertyInfo{
		key:        key,
		name:       name,
		derived:    true,
		deps:       deps,
		globalDeps: globalDeps,
	}
	r.infos[key] = info
	r.order = append(r.order, key)

	for _, d := range deps {
		r.reverseDeps[d] = append(r.reverseDeps[d], key)
	}

	return info
}

func (r *registry) info(key reflect.Type) (*propertyInfo, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	info, ok := r.infos[key]
	return info, ok
}

// requiredNonDerived returns the keys of every registered non-derived
// property whose required flag is set.
func (r *registry) requiredNonDerived() []reflect.Type {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []reflect.Type
	for _, key := range r.order {
		info := r.infos[key]
		if !info.derived && info.required {
			out = append(out, key)
		}
	}
	return out
}

// dependents returns every derived property key that transitively
// depends on key, directly or through another derived property.
func (r *registry) dependents(key reflect.Type) []reflect.Type {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]reflect.Type(nil), r.reverseDeps[key]...)
}
