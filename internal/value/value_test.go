package value

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompareTotalOrdering(t *testing.T) {
	vals := []Value{
		Null,
		Bool(false),
		Bool(true),
		Int(1),
		Double(2.5),
		String("a"),
		NewArray([]Value{Int(1)}),
		NewObject(NewEmptyObject()),
	}
	for i := 0; i < len(vals); i++ {
		for j := i + 1; j < len(vals); j++ {
			assert.Negative(t, Compare(vals[i], vals[j]), "expected %v < %v", vals[i], vals[j])
			assert.Positive(t, Compare(vals[j], vals[i]))
		}
	}
}

func TestEqualIgnoresKeyOrder(t *testing.T) {
	a := NewObject(NewEmptyObject().Set("a", Int(1)).Set("b", Int(2)))
	b := NewObject(NewEmptyObject().Set("b", Int(2)).Set("a", Int(1)))
	assert.True(t, Equal(a, b))
}

func TestObjectCopyOnWrite(t *testing.T) {
	base := NewEmptyObject().Set("x", Int(1))
	shared := NewObject(base).Retain()
	mutated := base.Unique().Set("x", Int(2))

	sharedObj, _ := shared.Object()
	v1, _ := sharedObj.Get("x")
	v2, _ := mutated.Get("x")
	i1, _ := v1.AsInt()
	i2, _ := v2.AsInt()
	assert.Equal(t, int64(1), i1)
	assert.Equal(t, int64(2), i2)
}

func TestPathGetSetDelRoundTrip(t *testing.T) {
	root := NewObject(NewEmptyObject())
	path := []PathKey{StrKey("a"), IntKey(0)}

	set, err := SetPath(root, path, String("hi"))
	require.NoError(t, err)

	got, err := GetPath(set, path)
	require.NoError(t, err)
	s, ok := got.AsString()
	require.True(t, ok)
	assert.Equal(t, "hi", s)

	deleted, err := DelPath(set, path)
	require.NoError(t, err)
	back, err := GetPath(deleted, path)
	require.NoError(t, err)
	assert.True(t, back.IsNull())
}

func TestAllPathsPreOrder(t *testing.T) {
	v := NewArray([]Value{Int(1), NewArray([]Value{Int(2)})})
	var seen [][]PathKey
	AllPaths(v, false, func(p []PathKey) bool {
		cp := append([]PathKey(nil), p...)
		seen = append(seen, cp)
		return true
	})
	assert.NotEmpty(t, seen)
}
