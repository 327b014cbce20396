package pyfer

import (
	"testing"

	tassert "github.com/stretchr/testify/assert"

	"pyfer/pkg/types"
)

func testSets() (types.Set, types.Set) {
	bs := types.NewBuiltins()
	return types.NewSet(bs.Int.Instance()), types.NewSet(bs.Str.Instance())
}

func TestScopeLookupClimbsParentChain(t *testing.T) {
	tree := NewScopeTree(NewScheduler(0))
	root := tree.NewScope(nil, ScopeModule)
	child := tree.NewScope(root, ScopeFunction)
	ints, _ := testSets()
	root.Declare("x").AddTypes(nil, ints, true)

	acc, ok := child.Lookup("x")
	tassert.True(t, ok)
	tassert.Equal(t, "int", acc.Types().String())

	_, ok = child.TryGet("x")
	tassert.False(t, ok, "TryGet must not climb the parent chain")
}

func TestLinkedScopesShareFamiliesBothWays(t *testing.T) {
	tree := NewScopeTree(NewScheduler(0))
	a := tree.NewScope(nil, ScopeFunction)
	b := tree.NewScope(nil, ScopeFunction)
	ints, strs := testSets()

	a.Declare("x").AddTypes(nil, ints, true)
	a.Link(b)

	acc, ok := b.TryGet("x")
	tassert.True(t, ok)
	tassert.Equal(t, "int", acc.Types().String())

	// a name declared after the link still joins the family
	b.Declare("x").AddTypes(nil, strs, true)
	got, _ := a.TryGet("x")
	tassert.Equal(t, "int | str", got.Types().String())
}

func TestTowardGlobalIsInnermostFirstAndRestartable(t *testing.T) {
	tree := NewScopeTree(NewScheduler(0))
	root := tree.NewScope(nil, ScopeModule)
	mid := tree.NewScope(root, ScopeClass)
	leaf := tree.NewScope(mid, ScopeFunction)

	for range 2 {
		var kinds []ScopeKind
		for sc := range leaf.TowardGlobal() {
			kinds = append(kinds, sc.Kind())
		}
		tassert.Equal(t, []ScopeKind{ScopeFunction, ScopeClass, ScopeModule}, kinds)
	}
}

func TestScopeNamesAreSorted(t *testing.T) {
	tree := NewScopeTree(NewScheduler(0))
	sc := tree.NewScope(nil, ScopeModule)
	sc.Declare("b")
	sc.Declare("a")
	sc.Declare("c")
	tassert.Equal(t, []string{"a", "b", "c"}, sc.Names())
}
