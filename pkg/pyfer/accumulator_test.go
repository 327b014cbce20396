package pyfer

import (
	"testing"

	tassert "github.com/stretchr/testify/assert"
)

func TestAccumulatorGrowsMonotonically(t *testing.T) {
	ints, strs := testSets()
	acc := newAccumulator("x", NewScheduler(0))

	tassert.True(t, acc.AddTypes(nil, ints, true))
	tassert.False(t, acc.AddTypes(nil, ints, true), "re-adding a subset is not a change")
	tassert.True(t, acc.AddTypes(nil, strs, false))
	tassert.True(t, acc.Types().IsSuperset(ints))
	tassert.True(t, acc.Types().IsSuperset(strs))
}

func TestAccumulatorGrowthEnqueuesDependents(t *testing.T) {
	ints, _ := testSets()
	sched := NewScheduler(0)
	acc := newAccumulator("x", sched)
	dep := &FunctionUnit{}
	acc.AddDependency(dep)

	acc.AddTypes(nil, ints, true)
	tassert.Equal(t, 1, sched.Pending())

	// the writer itself is never re-enqueued by its own write
	sched2 := NewScheduler(0)
	acc2 := newAccumulator("y", sched2)
	writer := &FunctionUnit{}
	acc2.AddDependency(writer)
	acc2.AddTypes(writer, ints, true)
	tassert.Zero(t, sched2.Pending())
}

func TestMergedFamiliesSeeEachOthersWrites(t *testing.T) {
	ints, strs := testSets()
	sched := NewScheduler(0)
	a := newAccumulator("x", sched)
	b := newAccumulator("x", sched)

	a.AddTypes(nil, ints, true)
	a.merge(b)
	b.AddTypes(nil, strs, true)

	tassert.Equal(t, "int | str", a.Types().String())
	tassert.Equal(t, "int | str", b.Types().String())
}

func TestWriteProvenanceIsRecorded(t *testing.T) {
	tree := NewScopeTree(NewScheduler(0))
	sc := tree.NewScope(nil, ScopeModule)
	u := &FunctionUnit{}
	acc := sc.DeclareLocated("x", 7, u)

	tassert.Equal(t, 1, len(acc.Writes()))
	tassert.Equal(t, u, acc.Writes()[0].Unit)
	tassert.EqualValues(t, 7, acc.DefinitionPos())
}
