package propstore

import (
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
)

func Test_TypedContainerMap_GetOrCreateCreatesOnFirstUse(t *testing.T) {
	// Arrange
	m := NewTypedContainerMap()
	key := reflect.TypeOf(0)
	calls := 0

	// Act
	v := GetOrCreate[int](m, key, func() int { calls++; return 42 })
	v2 := GetOrCreate[int](m, key, func() int { calls++; return 99 })

	// Assert
	assert.Equal(t, 42, v)
	assert.Equal(t, 42, v2)
	assert.Equal(t, 1, calls)
}

func Test_TypedContainerMap_DistinctKeysGetDistinctContainers(t *testing.T) {
	// Arrange
	m := NewTypedContainerMap()
	intKey := reflect.TypeOf(0)
	strKey := reflect.TypeOf("")

	// Act
	a := GetOrCreate[int](m, intKey, func() int { return 1 })
	b := GetOrCreate[string](m, strKey, func() string { return "x" })

	// Assert
	assert.Equal(t, 1, a)
	assert.Equal(t, "x", b)
}

func Test_TypedContainerMap_GetReportsAbsence(t *testing.T) {
	// Arrange
	m := NewTypedContainerMap()

	// Act
	v, ok := Get[int](m, reflect.TypeOf(0))

	// Assert
	assert.False(t, ok)
	assert.Equal(t, 0, v)
}

func Test_TypedContainerMap_InsertPanicsOnDuplicateKey(t *testing.T) {
	// Arrange
	m := NewTypedContainerMap()
	key := reflect.TypeOf(0)
	Insert[int](m, key, 1)

	// Act / Assert
	assert.Panics(t, func() {
		Insert[int](m, key, 2)
	})
}

func Test_TypedContainerMap_HasReflectsInsertedKeys(t *testing.T) {
	// Arrange
	m := NewTypedContainerMap()
	key := reflect.TypeOf(0)

	// Act / Assert
	assert.False(t, m.Has(key))
	Insert[int](m, key, 1)
	assert.True(t, m.Has(key))
}
