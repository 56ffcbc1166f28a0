package propstore

import "reflect"

// InitValue is one entry of an InitializationList: a property key plus
// a closure that applies its value to a freshly allocated entity.
// InitValue can only be constructed via Init, whose closure writes
// through SetProperty: an InitValue naming a derived property is
// rejected by SetProperty's derived-write guard (a panic) when
// AddEntity applies it.
type InitValue struct {
	key   reflect.Type
	apply func(*EntityTable, EntityID)
}

// Init builds the InitValue that assigns v to p for a newly created
// entity, for use with AddEntity.
func Init[T any](p Property[T], v T) InitValue {
	return InitValue{
		key: p.key,
		apply: func(t *EntityTable, entity EntityID) {
			SetProperty[T](t, entity, v)
		},
	}
}
