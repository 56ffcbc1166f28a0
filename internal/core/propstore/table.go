package propstore

import (
	"reflect"
	"sync"

	"agentsim/internal/core/propstore/propcol"
)

// computeFuncMap holds every derived property's type-erased compute
// closure, keyed by the property's type. It is kept separate from
// registry so registry stays free of any dependency on ComputeContext.
type computeFuncMap struct {
	mu    sync.Mutex
	items map[reflect.Type]func(ComputeContext) (any, bool)
}

func newComputeFuncMap() *computeFuncMap {
	return &computeFuncMap{items: make(map[reflect.Type]func(ComputeContext) (any, bool))}
}

func (m *computeFuncMap) set(key reflect.Type, fn func(ComputeContext) (any, bool)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.items[key] = fn
}

func (m *computeFuncMap) get(key reflect.Type) (func(ComputeContext) (any, bool), bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	fn, ok := m.items[key]
	return fn, ok
}

// reindexFuncMap holds a type-erased "recompute this property's index
// bucket for this entity" closure per registered property, so that
// notifyDependents can reindex a derived property by its reflect.Type
// key alone, without ever needing T at the call site.
type reindexFuncMap struct {
	mu    sync.Mutex
	items map[reflect.Type]func(*EntityTable, EntityID)
}

func newReindexFuncMap() *reindexFuncMap {
	return &reindexFuncMap{items: make(map[reflect.Type]func(*EntityTable, EntityID))}
}

func (m *reindexFuncMap) set(key reflect.Type, fn func(*EntityTable, EntityID)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.items[key] = fn
}

func (m *reindexFuncMap) get(key reflect.Type) (func(*EntityTable, EntityID), bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	fn, ok := m.items[key]
	return fn, ok
}

// EntityTable owns a set of entities and, for each registered
// property, a dense column of values and (optionally) a secondary
// index. It is the single owner of all of this state: callers
// coordinate access to it themselves via Lock/RLock, the same
// exclusive-vs-shared discipline the teacher's entity manager exposes
// directly on top of its own sync.RWMutex.
type EntityTable struct {
	mu sync.RWMutex

	entityCount EntityID

	stores       *TypedContainerMap
	indexes      *TypedContainerMap
	registry     *registry
	computeFuncs *computeFuncMap
	reindexers   *reindexFuncMap

	globals GlobalLookup
}

// NewEntityTable creates an empty table with no registered properties
// and no entities.
func NewEntityTable() *EntityTable {
	return &EntityTable{
		stores:       NewTypedContainerMap(),
		indexes:      NewTypedContainerMap(),
		registry:     newRegistry(),
		computeFuncs: newComputeFuncMap(),
		reindexers:   newReindexFuncMap(),
	}
}

// SetGlobalLookup installs the source a derived property's compute
// function can read named global configuration values from. It is the
// host's responsibility to call this before registering any derived
// property that declares global dependencies.
func (t *EntityTable) SetGlobalLookup(g GlobalLookup) {
	t.globals = g
}

// Lock acquires the table for exclusive access (entity creation,
// property mutation, index rebuild).
func (t *EntityTable) Lock() { t.mu.Lock() }

// Unlock releases an exclusive lock acquired via Lock.
func (t *EntityTable) Unlock() { t.mu.Unlock() }

// RLock acquires the table for shared, read-only access (queries).
func (t *EntityTable) RLock() { t.mu.RLock() }

// RUnlock releases a shared lock acquired via RLock.
func (t *EntityTable) RUnlock() { t.mu.RUnlock() }

// GetEntityCount returns the number of entities created so far.
func (t *EntityTable) GetEntityCount() int {
	return int(t.entityCount)
}

func columnFor[T any](t *EntityTable) *propcol.Column[T] {
	key := propertyKey[T]()
	return GetOrCreate[*propcol.Column[T]](t.stores, key, propcol.New[T])
}

func indexFor[T any](t *EntityTable) *Index[T] {
	key := propertyKey[T]()
	return GetOrCreate[*Index[T]](t.indexes, key, newIndex[T])
}

// AddEntity allocates a new entity, validates that every registered
// required non-derived property is present in init, applies every
// initializer, and advances the entity count. On failure no entity is
// allocated and InvalidEntityID is returned alongside the error.
func AddEntity(t *EntityTable, init ...InitValue) (EntityID, error) {
	supplied := make(map[reflect.Type]struct{}, len(init))
	for _, v := range init {
		supplied[v.key] = struct{}{}
	}

	for _, key := range t.registry.requiredNonDerived() {
		if _, ok := supplied[key]; !ok {
			info, _ := t.registry.info(key)
			return InvalidEntityID, MissingRequiredPropertyError(info.name)
		}
	}

	id := t.entityCount + 1
	for _, v := range init {
		v.apply(t, id)
	}
	t.entityCount = id
	return id, nil
}

// setRaw stores v directly in T's column for entity, bypassing the
// derived-property guard, then brings T's index and its derived
// dependents' indexes up to date. Its only caller is SetProperty
// (which every InitValue also goes through, see initlist.go), after
// that guard has run.
func setRaw[T any](t *EntityTable, entity EntityID, v T) {
	columnFor[T](t).Set(int(entity), v)
	invalidateIndex[T](t, entity, v)
	notifyDependents[T](t, entity)
}

// ensureRegisteredNonDerived registers T as a non-derived property the
// first time any of SetProperty, GetProperty, IndexProperty, or a
// query predicate touches it, matching the "registered on first use"
// property lifecycle. It panics if T was already registered derived.
func ensureRegisteredNonDerived[T any](t *EntityTable) reflect.Type {
	key := propertyKey[T]()
	if info, ok := t.registry.info(key); ok && info.derived {
		panicDerivedWriteRejected(info.name, InvalidEntityID)
	}
	t.registry.ensureNonDerived(key, key.String(), false)
	registerReindexer[T](t)
	return key
}

// SetProperty assigns v to a non-derived property for entity. It
// panics if T is registered as derived.
func SetProperty[T any](t *EntityTable, entity EntityID, v T) {
	key := propertyKey[T]()
	if info, ok := t.registry.info(key); ok && info.derived {
		panicDerivedWriteRejected(info.name, entity)
	}
	ensureRegisteredNonDerived[T](t)
	setRaw[T](t, entity, v)
}

// GetProperty reads T's value for entity. If T is registered as
// derived, the value is computed on demand from the entity's current
// dependency values; it is never cached in T's column.
func GetProperty[T any](t *EntityTable, entity EntityID) (T, bool) {
	key := propertyKey[T]()
	if info, ok := t.registry.info(key); ok && info.derived {
		fn, _ := t.computeFuncs.get(key)
		ctx := ComputeContext{table: t, entity: entity}
		raw, present := fn(ctx)
		if !present {
			var zero T
			return zero, false
		}
		return raw.(T), true
	}
	ensureRegisteredNonDerived[T](t)
	return columnFor[T](t).Get(int(entity))
}

// GetPropertyOrDefault reads T's value for entity, substituting def
// when absent.
func GetPropertyOrDefault[T any](t *EntityTable, entity EntityID, def T) T {
	v, ok := GetProperty[T](t, entity)
	if !ok {
		return def
	}
	return v
}

// IndexProperty enables a secondary index over T. It is idempotent:
// enabling an already-indexed property is a no-op. The index is not
// populated here — it is rebuilt lazily, the first time a query
// touches it, by the query engine's setup phase.
func IndexProperty[T any](t *EntityTable) {
	ensureRegisteredNonDerivedIfUnregistered[T](t)
	indexFor[T](t).Enable()
}

// ensureRegisteredNonDerivedIfUnregistered registers T as non-derived
// only if it has never been registered at all, leaving an existing
// derived registration untouched — unlike ensureRegisteredNonDerived,
// IndexProperty is a legal (and common) thing to call against a
// derived property.
func ensureRegisteredNonDerivedIfUnregistered[T any](t *EntityTable) {
	key := propertyKey[T]()
	if _, ok := t.registry.info(key); ok {
		return
	}
	ensureRegisteredNonDerived[T](t)
}

// invalidateIndex removes entity's stale bucket membership (if any)
// in T's own index and reinserts it under its new value, if that index
// has already observed this entity. A property not yet indexed, or an
// entity not yet covered by the index's watermark, needs no action —
// the next refresh will pick it up fresh.
func invalidateIndex[T any](t *EntityTable, entity EntityID, v T) {
	idx := indexFor[T](t)
	idx.reindexOne(entity, v)
}

// notifyDependents re-derives and reindexes every derived property
// that transitively depends on T, for entity, so that any index built
// over a derived property stays consistent with a mutation to one of
// its non-derived dependencies.
func notifyDependents[T any](t *EntityTable, entity EntityID) {
	key := propertyKey[T]()
	for _, depKey := range t.registry.dependents(key) {
		if fn, ok := t.reindexers.get(depKey); ok {
			fn(t, entity)
		}
	}
}

// registerReindexer installs T's "reindex this entity's bucket"
// closure, so that other properties' mutation paths can trigger T's
// index maintenance purely from its reflect.Type key. It is called from
// RegisterProperty, RegisterDerived, and ensureRegisteredNonDerived;
// each later call for the same T replaces the closure with an
// equivalent one. notifyDependents only ever
// looks this closure up for a derived property's key (reverseDeps only
// ever maps a dependency to a derived property that depends on it), so
// in practice it only runs for derived T — but the closure itself
// makes no such assumption and works the same for either kind.
func registerReindexer[T any](t *EntityTable) {
	key := propertyKey[T]()
	t.reindexers.set(key, func(t *EntityTable, entity EntityID) {
		idx := indexFor[T](t)
		if !idx.IsEnabled() {
			return
		}
		v, ok := GetProperty[T](t, entity)
		if !ok {
			idx.remove(entity)
			return
		}
		idx.reindexOne(entity, v)
	})
}
