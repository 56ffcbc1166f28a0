package propstore

import (
	"sync"

	"agentsim/internal/core/propstore/entityset"
	"agentsim/internal/core/propstore/indexkey"
)

// Index is a per-property secondary index: a map from a property
// value's content-addressed Key to the set of entities currently
// holding that value. An Index costs nothing until Enable is called,
// and is kept fresh lazily — refresh only scans entities created since
// the last refresh, tracked by maxIndexed — rather than eagerly on
// every AddEntity.
type Index[T any] struct {
	mu         sync.Mutex
	enabled    bool
	buckets    map[indexkey.Key]*entityset.Set
	maxIndexed EntityID
}

func newIndex[T any]() *Index[T] {
	return &Index[T]{}
}

// Enable turns the index on. Calling Enable on an already-enabled
// index is a no-op; it does not clear existing buckets.
func (idx *Index[T]) Enable() {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	if idx.enabled {
		return
	}
	idx.enabled = true
	idx.buckets = make(map[indexkey.Key]*entityset.Set)
}

// IsEnabled reports whether the index has been turned on.
func (idx *Index[T]) IsEnabled() bool {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	return idx.enabled
}

// refresh scans every entity in (maxIndexed, entityCount] — entity ids
// are 1-based, so maxIndexed itself names the last entity already
// indexed, not an exclusive bound — using get to read (and, for
// derived properties, compute) each one's current value, inserting it
// into the matching bucket, then advances maxIndexed to entityCount.
// It is a no-op if the index is disabled.
//
// A missing value for an entity at or below entityCount is treated as
// absence from the index rather than a fatal error: an entity can
// legitimately have no value for a property that was registered (and
// indexed) after that entity was created, or for an optional property
// it was simply never given. Required properties are enforced only at
// AddEntity time; neither refresh nor the per-entity reindex closure
// (see registerReindexer in table.go) raises an error for a missing
// value — the reindex closure drops the entity from its bucket.
func (idx *Index[T]) refresh(entityCount EntityID, get func(EntityID) (T, bool)) {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	if !idx.enabled {
		return
	}
	for id := idx.maxIndexed + 1; id <= entityCount; id++ {
		v, ok := get(id)
		if !ok {
			continue
		}
		idx.insertLocked(id, v)
	}
	idx.maxIndexed = entityCount
}

func (idx *Index[T]) insertLocked(entity EntityID, v T) {
	key := indexkey.Of(v)
	bucket, ok := idx.buckets[key]
	if !ok {
		bucket = entityset.New()
		idx.buckets[key] = bucket
	}
	bucket.Add(entityset.ID(entity))
}

// reindexOne moves entity (if it is already covered by the index's
// watermark) into the bucket matching v, removing it from any stale
// bucket first. An entity past the watermark needs no action: the
// next refresh will index it fresh. A disabled index also needs no
// action.
func (idx *Index[T]) reindexOne(entity EntityID, v T) {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	if !idx.enabled || entity > idx.maxIndexed {
		return
	}
	idx.removeLocked(entity)
	idx.insertLocked(entity, v)
}

// remove drops entity from whatever bucket currently holds it, without
// reinserting it anywhere. Used when a derived property's dependency
// changed such that the derived value is no longer present.
func (idx *Index[T]) remove(entity EntityID) {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	if !idx.enabled || entity > idx.maxIndexed {
		return
	}
	idx.removeLocked(entity)
}

// removeLocked drops entity from whatever bucket currently holds it,
// and deletes that bucket from the map entirely if doing so leaves it
// empty, so that a probe for a value no entity holds finds no bucket
// (the planner's empty-result short-circuit) and empty buckets do not
// accumulate in idx.buckets under repeated mutation.
func (idx *Index[T]) removeLocked(entity EntityID) {
	for key, bucket := range idx.buckets {
		if !bucket.Contains(entityset.ID(entity)) {
			continue
		}
		bucket.Remove(entityset.ID(entity))
		if bucket.IsEmpty() {
			delete(idx.buckets, key)
		}
		return
	}
}

// bucket returns the entity set for key and whether this property is
// indexed at all. A nil set with indexed=true means the property is
// indexed but no entity currently holds that value — distinct from
// indexed=false, which means the property has no index and the caller
// must fall back to a residual scan.
func (idx *Index[T]) bucket(key indexkey.Key) (set *entityset.Set, indexed bool) {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	if !idx.enabled {
		return nil, false
	}
	return idx.buckets[key], true
}
