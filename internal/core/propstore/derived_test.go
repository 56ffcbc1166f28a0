package propstore

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

type Score int
type Grade string
type Honors bool

func registerGradeChain(t *EntityTable) (Property[Score], Property[Grade], Property[Honors]) {
	score := RegisterProperty[Score](t, Required())
	grade := RegisterDerived[Grade](t, "grade", Dependencies{Properties: Deps(score)}, func(ctx ComputeContext) (Grade, bool) {
		s, ok := Dep(ctx, score)
		if !ok {
			return "", false
		}
		switch {
		case s >= 90:
			return "A", true
		case s >= 80:
			return "B", true
		default:
			return "C", true
		}
	})
	honors := RegisterDerived[Honors](t, "honors", Dependencies{Properties: Deps(grade)}, func(ctx ComputeContext) (Honors, bool) {
		g, ok := Dep(ctx, grade)
		return Honors(ok && g == "A"), true
	})
	return score, grade, honors
}

func Test_Derived_ComputesFromDependencyValue(t *testing.T) {
	// Arrange
	table := NewEntityTable()
	score, grade, _ := registerGradeChain(table)
	id, _ := AddEntity(table, Init(score, Score(95)))

	// Act
	g, ok := GetProperty[Grade](table, id)

	// Assert
	assert.True(t, ok)
	assert.Equal(t, Grade("A"), g)
}

func Test_Derived_TransitiveDependencyThroughAnotherDerivedProperty(t *testing.T) {
	// Arrange
	table := NewEntityTable()
	score, _, honors := registerGradeChain(table)
	id, _ := AddEntity(table, Init(score, Score(91)))

	// Act
	h, ok := GetProperty[Honors](table, id)

	// Assert
	assert.True(t, ok)
	assert.True(t, bool(h))
}

func Test_Derived_RecomputesAfterDependencyMutation(t *testing.T) {
	// Arrange
	table := NewEntityTable()
	score, grade, _ := registerGradeChain(table)
	id, _ := AddEntity(table, Init(score, Score(60)))
	first, _ := GetProperty[Grade](table, id)

	// Act
	SetProperty[Score](table, id, Score(95))
	second, _ := GetProperty[Grade](table, id)

	// Assert
	assert.Equal(t, Grade("C"), first)
	assert.Equal(t, Grade("A"), second)
}

func Test_Derived_IsNeverStoredInItsOwnColumn(t *testing.T) {
	// Arrange
	table := NewEntityTable()
	score, grade, _ := registerGradeChain(table)
	id, _ := AddEntity(table, Init(score, Score(95)))
	_, _ = GetProperty[Grade](table, id)

	// Act
	col := columnFor[Grade](table)

	// Assert: reading Grade never writes into its own column, since it
	// is always recomputed.
	assert.False(t, col.Has(int(id)))
}

func Test_Derived_RegisteringTwiceForSameTypePanics(t *testing.T) {
	// Arrange
	table := NewEntityTable()
	score := RegisterProperty[Score](table)
	compute := func(ctx ComputeContext) (Grade, bool) { return "", false }

	// Act
	RegisterDerived[Grade](table, "grade", Dependencies{Properties: Deps(score)}, compute)

	// Assert
	assert.Panics(t, func() {
		RegisterDerived[Grade](table, "grade-again", Dependencies{Properties: Deps(score)}, compute)
	})
}

func Test_Derived_UnregisteredDependencyPanics(t *testing.T) {
	// Arrange
	table := NewEntityTable()
	ghost := Property[Score]{}

	// Act / Assert
	assert.Panics(t, func() {
		RegisterDerived[Grade](table, "grade", Dependencies{Properties: Deps(ghost)}, func(ctx ComputeContext) (Grade, bool) {
			return "", false
		})
	})
}

func Test_Derived_GlobalDependencyReadsThroughLookup(t *testing.T) {
	// Arrange
	table := NewEntityTable()
	table.SetGlobalLookup(MapGlobalLookup{"pass_threshold": 50})
	score := RegisterProperty[Score](table)
	passed := RegisterDerived[bool](table, "passed", Dependencies{Properties: Deps(score), Globals: []string{"pass_threshold"}}, func(ctx ComputeContext) (bool, bool) {
		s, ok := Dep(ctx, score)
		if !ok {
			return false, false
		}
		threshold, ok := Global[int](ctx, "pass_threshold")
		if !ok {
			return false, false
		}
		return int(s) >= threshold, true
	})
	id, _ := AddEntity(table, Init(score, Score(55)))

	// Act
	got, ok := GetProperty[bool](table, id)

	// Assert
	assert.True(t, ok)
	assert.True(t, got)
	_ = passed
}
