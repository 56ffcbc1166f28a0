package propstore

import (
	"agentsim/internal/core/propstore/entityset"
	"agentsim/internal/core/propstore/indexkey"
)

// Predicate is a type-erased "property equals value" test, built by
// Pred. A Query is simply an ordered list of Predicates — the
// Go-idiomatic substitute for a fixed-arity tuple of typed predicates:
// rather than generating distinct query types for every arity, a
// Predicate captures its own type key, its probed IndexKey, a residual
// match closure, and the two index-specific operations the planner
// needs (refreshing that property's index, and fetching the bucket for
// the probed value), all behind one non-generic struct.
type Predicate struct {
	key          any
	refreshIndex func(*EntityTable)
	bucketFor    func(*EntityTable) (*entityset.Set, bool)
	match        func(*EntityTable, EntityID) bool
}

// Pred builds a predicate testing whether property p equals v.
func Pred[T comparable](p Property[T], v T) Predicate {
	probe := indexkey.Of(v)
	return Predicate{
		key: p.key,
		refreshIndex: func(t *EntityTable) {
			idx := indexFor[T](t)
			idx.refresh(t.entityCount, func(id EntityID) (T, bool) {
				return GetProperty[T](t, id)
			})
		},
		bucketFor: func(t *EntityTable) (*entityset.Set, bool) {
			idx := indexFor[T](t)
			return idx.bucket(probe)
		},
		match: func(t *EntityTable, id EntityID) bool {
			got, ok := GetProperty[T](t, id)
			return ok && got == v
		},
	}
}

type probedPredicate struct {
	pred    Predicate
	bucket  *entityset.Set
	indexed bool
}

func bucketSize(b *entityset.Set) int {
	if b == nil {
		return 0
	}
	return b.Size()
}

// plan runs the setup and plan/probe phases shared by every query
// operation: refresh every predicate's index, then probe each one for
// its bucket. It also implements the short-circuit that a predicate
// hitting an indexed-but-empty bucket makes the whole query empty,
// without needing to touch any other predicate or scan any entity.
func plan(t *EntityTable, preds []Predicate) (probes []probedPredicate, empty bool) {
	for _, p := range preds {
		p.refreshIndex(t)
	}
	probes = make([]probedPredicate, len(preds))
	for i, p := range preds {
		bucket, indexed := p.bucketFor(t)
		probes[i] = probedPredicate{pred: p, bucket: bucket, indexed: indexed}
		if indexed && bucket == nil {
			return probes, true
		}
	}
	return probes, false
}

func allEntities(t *EntityTable) []EntityID {
	out := make([]EntityID, 0, t.entityCount)
	for id := EntityID(1); id <= t.entityCount; id++ {
		out = append(out, id)
	}
	return out
}

// candidateSet picks the smallest indexed bucket among probes as the
// candidate set to scan, falling back to every entity in the table if
// no predicate is indexed. It returns the index of the chosen
// predicate within probes, or -1 if none was indexed.
func candidateSet(t *EntityTable, probes []probedPredicate) (candidates []EntityID, chosen int) {
	chosen = -1
	for i, p := range probes {
		if !p.indexed {
			continue
		}
		if chosen == -1 || bucketSize(p.bucket) < bucketSize(probes[chosen].bucket) {
			chosen = i
		}
	}
	if chosen == -1 {
		return allEntities(t), -1
	}
	raw := probes[chosen].bucket.ToSlice()
	candidates = make([]EntityID, len(raw))
	for i, id := range raw {
		candidates[i] = EntityID(id)
	}
	return candidates, chosen
}

func matchesRemaining(t *EntityTable, probes []probedPredicate, chosen int, id EntityID) bool {
	for i, p := range probes {
		if i == chosen {
			continue
		}
		if p.indexed {
			if !p.bucket.Contains(entityset.ID(id)) {
				return false
			}
			continue
		}
		if !p.pred.match(t, id) {
			return false
		}
	}
	return true
}

// QueryEntities returns every entity matching every predicate.
// preds with no elements returns every entity currently in the table.
func QueryEntities(t *EntityTable, preds ...Predicate) []EntityID {
	probes, empty := plan(t, preds)
	if empty {
		return nil
	}
	if len(probes) == 0 {
		return allEntities(t)
	}
	candidates, chosen := candidateSet(t, probes)
	var out []EntityID
	for _, id := range candidates {
		if matchesRemaining(t, probes, chosen, id) {
			out = append(out, id)
		}
	}
	return out
}

// QueryEntityCount returns the number of entities matching every
// predicate, without allocating the result slice QueryEntities would.
func QueryEntityCount(t *EntityTable, preds ...Predicate) int {
	probes, empty := plan(t, preds)
	if empty {
		return 0
	}
	if len(probes) == 0 {
		return int(t.entityCount)
	}
	candidates, chosen := candidateSet(t, probes)
	count := 0
	for _, id := range candidates {
		if matchesRemaining(t, probes, chosen, id) {
			count++
		}
	}
	return count
}

// MatchEntity reports whether a single entity satisfies every
// predicate, without running candidate selection over the whole
// table.
func MatchEntity(t *EntityTable, entity EntityID, preds ...Predicate) bool {
	for _, p := range preds {
		if !p.match(t, entity) {
			return false
		}
	}
	return true
}
