package types

import (
	"testing"

	tassert "github.com/stretchr/testify/assert"
)

func TestSetUnionIsDeduplicatedByKey(t *testing.T) {
	bs := NewBuiltins()
	a := NewSet(bs.Int.Instance(), bs.Str.Instance())
	b := NewSet(bs.Int.Instance(), bs.Bool.Instance())

	u := a.Union(b)
	tassert.Equal(t, 3, u.Len())
	tassert.True(t, u.Contains(bs.Int.Instance()))
	tassert.True(t, u.Contains(bs.Bool.Instance()))
}

func TestSetOperationsDoNotMutateReceiver(t *testing.T) {
	bs := NewBuiltins()
	a := NewSet(bs.Int.Instance())
	_ = a.Add(bs.Str.Instance())
	_ = a.Union(NewSet(bs.Bool.Instance()))
	tassert.Equal(t, 1, a.Len())
}

func TestZeroSetIsEmptyAndUsable(t *testing.T) {
	var s Set
	bs := NewBuiltins()
	tassert.True(t, s.IsEmpty())
	tassert.False(t, s.Contains(bs.Int.Instance()))
	tassert.Equal(t, "Unknown", s.String())
	tassert.Equal(t, 1, s.Add(bs.Int.Instance()).Len())
}

func TestSetStringIsDeterministic(t *testing.T) {
	bs := NewBuiltins()
	a := NewSet(bs.Str.Instance(), bs.Int.Instance(), bs.Float.Instance())
	tassert.Equal(t, "float | int | str", a.String())
}

func TestSupersetAndEquality(t *testing.T) {
	bs := NewBuiltins()
	a := NewSet(bs.Int.Instance(), bs.Str.Instance())
	b := NewSet(bs.Int.Instance())
	tassert.True(t, a.IsSuperset(b))
	tassert.False(t, b.IsSuperset(a))
	tassert.True(t, a.Equals(NewSet(bs.Str.Instance(), bs.Int.Instance())))
	tassert.False(t, a.Equals(b))
}

func TestClassInstanceIsCanonical(t *testing.T) {
	bs := NewBuiltins()
	tassert.Same(t, bs.Int.Instance(), bs.Int.Instance())
	tassert.Equal(t, "type[int]", bs.Int.String())
	tassert.Equal(t, "int", bs.Int.Instance().String())
}

func TestBuiltinsLookup(t *testing.T) {
	bs := NewBuiltins()
	tassert.Same(t, bs.Property, bs.Lookup("property"))
	tassert.Same(t, bs.GeneratorCls, bs.Lookup("Generator"))
	tassert.Nil(t, bs.Lookup("nope"))
	tassert.Equal(t, "NoneType", bs.None().String())
}
