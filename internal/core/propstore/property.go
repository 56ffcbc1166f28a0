package propstore

import "reflect"

// Property is a typed handle returned by registration. It carries no
// data of its own — GetProperty/SetProperty/IndexProperty take it (or
// its bare key) to locate the right column and index inside a table.
type Property[T any] struct {
	key  reflect.Type
	name string
}

// Key returns the property's erased type key.
func (p Property[T]) Key() reflect.Type { return p.key }

// Name returns the property's declared (or type-derived) name.
func (p Property[T]) Name() string { return p.name }

// PropertyRef is satisfied by any Property[T], letting heterogeneous
// properties be passed to Deps without naming every T involved.
type PropertyRef interface {
	Key() reflect.Type
	Name() string
}

func propertyKey[T any]() reflect.Type {
	return reflect.TypeOf((*T)(nil)).Elem()
}

// propertyOptions configures RegisterProperty.
type propertyOptions struct {
	name     string
	required bool
}

// PropertyOption configures a property at registration time.
type PropertyOption func(*propertyOptions)

// WithName overrides the property's default (reflect-derived) name.
func WithName(name string) PropertyOption {
	return func(o *propertyOptions) { o.name = name }
}

// Required marks a non-derived property as required: every call to
// AddEntity must supply it in the initialization list.
func Required() PropertyOption {
	return func(o *propertyOptions) { o.required = true }
}

// RegisterProperty registers T as a non-derived property on table,
// returning a handle to it. Registration is idempotent: calling it
// again for the same T (even with different options) returns the
// original registration untouched, matching the "registered on first
// use" property lifecycle — RegisterProperty is simply the explicit
// spelling of that first use.
func RegisterProperty[T any](table *EntityTable, opts ...PropertyOption) Property[T] {
	cfg := propertyOptions{}
	for _, opt := range opts {
		opt(&cfg)
	}
	key := propertyKey[T]()
	if cfg.name == "" {
		cfg.name = key.String()
	}
	info := table.registry.ensureNonDerived(key, cfg.name, cfg.required)
	registerReindexer[T](table)
	return Property[T]{key: key, name: info.name}
}

// Dependencies declares what a derived property's compute function
// reads: a list of other properties (derived or not) and a list of
// named global configuration values.
type Dependencies struct {
	Properties []PropertyRef
	Globals    []string
}

// Deps is a small convenience constructor for Dependencies.Properties.
func Deps(props ...PropertyRef) []PropertyRef {
	return props
}

// ComputeFunc computes a derived property's value for one entity.
// Returning false means the property is absent for that entity (its
// dependencies' lack of a value is the common cause, but it is the
// compute function's decision to make, not an automatic default).
type ComputeFunc[T any] func(ComputeContext) (T, bool)

// RegisterDerived registers T as a derived property on table. Every
// property named in deps.Properties must already be registered.
// RegisterDerived is not idempotent: registering the same T twice is a
// fatal error, since a derived property's compute function and
// dependency set are fixed at registration time and re-registering
// with a different compute function would silently change behavior
// for every caller already holding the first Property[T] handle.
func RegisterDerived[T any](table *EntityTable, name string, deps Dependencies, fn ComputeFunc[T]) Property[T] {
	key := propertyKey[T]()
	declared := make([]reflect.Type, len(deps.Properties))
	for i, p := range deps.Properties {
		declared[i] = p.Key()
	}
	info := table.registry.registerDerived(key, name, declared, deps.Globals)
	table.computeFuncs.set(key, func(ctx ComputeContext) (any, bool) {
		return fn(ctx)
	})
	registerReindexer[T](table)
	return Property[T]{key: key, name: info.name}
}

// ComputeContext is passed to a derived property's compute function.
// It exposes the entity being computed for, plus Dep/Global accessors
// so the closure can read whatever it declared as a dependency.
type ComputeContext struct {
	table  *EntityTable
	entity EntityID
}

// Entity returns the entity the compute function is being evaluated
// for.
func (c ComputeContext) Entity() EntityID { return c.entity }

// Dep reads another property's current value for the entity being
// computed, recursively computing it first if it is itself derived.
func Dep[T any](c ComputeContext, p Property[T]) (T, bool) {
	return GetProperty[T](c.table, c.entity)
}

// Global reads a named global configuration value via the table's
// GlobalLookup, asserting it to T. A missing GlobalLookup, a missing
// name, or a type mismatch all report absent rather than panicking —
// a compute function is expected to treat a missing global the same
// way it treats a missing dependency property.
func Global[T any](c ComputeContext, name string) (T, bool) {
	var zero T
	if c.table.globals == nil {
		return zero, false
	}
	raw, ok := c.table.globals.Get(name)
	if !ok {
		return zero, false
	}
	v, ok := raw.(T)
	if !ok {
		return zero, false
	}
	return v, true
}
