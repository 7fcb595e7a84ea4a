package eval

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/simdjq/simdjq/internal/ast"
	"github.com/simdjq/simdjq/internal/parser"
	"github.com/simdjq/simdjq/internal/value"
)

func runFilter(t *testing.T, filter, doc string) []value.Value {
	t.Helper()
	prog, err := ast.Parse(filter)
	require.NoError(t, err)

	buf := parser.PadBuffer([]byte(doc))
	tape, err := parser.Parse(buf, nil)
	require.NoError(t, err)
	in, err := value.DecodeDocument(tape)
	require.NoError(t, err)

	env := NewRootEnv(nil, nil, func() (value.Value, bool, error) { return value.Null, false, nil }, func() float64 { return 0 })

	var out []value.Value
	err = Eval(prog, in, env, func(v value.Value) error {
		out = append(out, v)
		return nil
	})
	require.NoError(t, err)
	return out
}

func runFilterErr(t *testing.T, filter, doc string) error {
	t.Helper()
	prog, err := ast.Parse(filter)
	require.NoError(t, err)

	buf := parser.PadBuffer([]byte(doc))
	tape, err := parser.Parse(buf, nil)
	require.NoError(t, err)
	in, err := value.DecodeDocument(tape)
	require.NoError(t, err)

	env := NewRootEnv(nil, nil, func() (value.Value, bool, error) { return value.Null, false, nil }, func() float64 { return 0 })
	return Eval(prog, in, env, func(value.Value) error { return nil })
}

func TestIdentity(t *testing.T) {
	out := runFilter(t, ".", `{"a":1}`)
	require.Len(t, out, 1)
	s, _ := out[0].Object()
	v, ok := s.Get("a")
	require.True(t, ok)
	i, _ := v.AsInt()
	assert.Equal(t, int64(1), i)
}

func TestFieldAndPipe(t *testing.T) {
	out := runFilter(t, ".a.b", `{"a":{"b":42}}`)
	require.Len(t, out, 1)
	i, _ := out[0].AsInt()
	assert.Equal(t, int64(42), i)
}

func TestOptionalFieldOnNonObject(t *testing.T) {
	out := runFilter(t, ".a?", `[1,2,3]`)
	assert.Empty(t, out)
}

func TestIterate(t *testing.T) {
	out := runFilter(t, ".[]", `[1,2,3]`)
	require.Len(t, out, 3)
	for idx, v := range out {
		i, _ := v.AsInt()
		assert.Equal(t, int64(idx+1), i)
	}
}

func TestArithmetic(t *testing.T) {
	out := runFilter(t, ".a + .b", `{"a":1,"b":2}`)
	require.Len(t, out, 1)
	i, _ := out[0].AsInt()
	assert.Equal(t, int64(3), i)
}

func TestComparison(t *testing.T) {
	out := runFilter(t, ".a > .b", `{"a":3,"b":1}`)
	require.Len(t, out, 1)
	assert.True(t, out[0].Truthy())
}

func TestReduce(t *testing.T) {
	out := runFilter(t, "reduce .[] as $x (0; . + $x)", `[1,2,3,4]`)
	require.Len(t, out, 1)
	i, _ := out[0].AsInt()
	assert.Equal(t, int64(10), i)
}

func TestForeach(t *testing.T) {
	out := runFilter(t, "[foreach .[] as $x (0; . + $x; .)]", `[1,2,3]`)
	require.Len(t, out, 1)
	arr, _ := out[0].Array()
	require.Equal(t, 3, arr.Len())
	last := arr.At(2)
	i, _ := last.AsInt()
	assert.Equal(t, int64(6), i)
}

func TestTryCatch(t *testing.T) {
	out := runFilter(t, `try error("boom") catch .`, `null`)
	require.Len(t, out, 1)
	s, ok := out[0].AsString()
	require.True(t, ok)
	assert.Equal(t, "boom", s)
}

func TestAlternative(t *testing.T) {
	out := runFilter(t, ".missing // \"fallback\"", `{}`)
	require.Len(t, out, 1)
	s, _ := out[0].AsString()
	assert.Equal(t, "fallback", s)
}

func TestIfThenElse(t *testing.T) {
	out := runFilter(t, `if . > 1 then "big" else "small" end`, `2`)
	require.Len(t, out, 1)
	s, _ := out[0].AsString()
	assert.Equal(t, "big", s)
}

func TestObjectConstruction(t *testing.T) {
	out := runFilter(t, `{a: .x, b: .y}`, `{"x":1,"y":2}`)
	require.Len(t, out, 1)
	o, _ := out[0].Object()
	a, _ := o.Get("a")
	b, _ := o.Get("b")
	ai, _ := a.AsInt()
	bi, _ := b.AsInt()
	assert.Equal(t, int64(1), ai)
	assert.Equal(t, int64(2), bi)
}

func TestArrayConstruction(t *testing.T) {
	out := runFilter(t, `[.[] | . * 2]`, `[1,2,3]`)
	require.Len(t, out, 1)
	arr, _ := out[0].Array()
	require.Equal(t, 3, arr.Len())
	v := arr.At(1)
	i, _ := v.AsInt()
	assert.Equal(t, int64(4), i)
}

func TestAssignOp(t *testing.T) {
	out := runFilter(t, `.a += 1`, `{"a":1}`)
	require.Len(t, out, 1)
	o, _ := out[0].Object()
	v, _ := o.Get("a")
	i, _ := v.AsInt()
	assert.Equal(t, int64(2), i)
}

func TestFuncDefAndCall(t *testing.T) {
	out := runFilter(t, `def double: . * 2; [1,2,3] | map(double)`, `null`)
	require.Len(t, out, 1)
	arr, _ := out[0].Array()
	v := arr.At(2)
	i, _ := v.AsInt()
	assert.Equal(t, int64(6), i)
}

func TestBuiltinLength(t *testing.T) {
	out := runFilter(t, "length", `[1,2,3,4]`)
	require.Len(t, out, 1)
	i, _ := out[0].AsInt()
	assert.Equal(t, int64(4), i)
}

func TestBuiltinSort(t *testing.T) {
	out := runFilter(t, "sort", `[3,1,2]`)
	require.Len(t, out, 1)
	arr, _ := out[0].Array()
	v0 := arr.At(0)
	i0, _ := v0.AsInt()
	assert.Equal(t, int64(1), i0)
}

func TestBuiltinGroupBy(t *testing.T) {
	out := runFilter(t, "group_by(.a) | length", `[{"a":1},{"a":2},{"a":1}]`)
	require.Len(t, out, 1)
	i, _ := out[0].AsInt()
	assert.Equal(t, int64(2), i)
}

func TestBuiltinSelect(t *testing.T) {
	out := runFilter(t, "[.[] | select(. > 2)]", `[1,2,3,4]`)
	require.Len(t, out, 1)
	arr, _ := out[0].Array()
	assert.Equal(t, 2, arr.Len())
}

func TestBuiltinRange(t *testing.T) {
	out := runFilter(t, "[range(3)]", `null`)
	require.Len(t, out, 1)
	arr, _ := out[0].Array()
	assert.Equal(t, 3, arr.Len())
}

func TestBuiltinSplitJoin(t *testing.T) {
	out := runFilter(t, `split(",") | join("-")`, `"a,b,c"`)
	require.Len(t, out, 1)
	s, _ := out[0].AsString()
	assert.Equal(t, "a-b-c", s)
}

func TestRegexTest(t *testing.T) {
	out := runFilter(t, `test("^a")`, `"abc"`)
	require.Len(t, out, 1)
	assert.True(t, out[0].Truthy())
}

func TestRegexCapture(t *testing.T) {
	out := runFilter(t, `capture("(?<x>[a-z]+)(?<y>[0-9]+)")`, `"ab12"`)
	require.Len(t, out, 1)
	o, _ := out[0].Object()
	x, _ := o.Get("x")
	y, _ := o.Get("y")
	xs, _ := x.AsString()
	ys, _ := y.AsString()
	assert.Equal(t, "ab", xs)
	assert.Equal(t, "12", ys)
}

func TestPathGetPath(t *testing.T) {
	out := runFilter(t, `getpath(["a","b"])`, `{"a":{"b":7}}`)
	require.Len(t, out, 1)
	i, _ := out[0].AsInt()
	assert.Equal(t, int64(7), i)
}

func TestErrorPropagation(t *testing.T) {
	err := runFilterErr(t, `error("nope")`, `null`)
	require.Error(t, err)
}

func TestPreludeWalk(t *testing.T) {
	out := runFilter(t, `walk(if type == "number" then . + 1 else . end)`, `[1,[2,3]]`)
	require.Len(t, out, 1)
	arr, _ := out[0].Array()
	v0 := arr.At(0)
	i0, _ := v0.AsInt()
	assert.Equal(t, int64(2), i0)
	inner := arr.At(1)
	innerArr, _ := inner.Array()
	iv := innerArr.At(0)
	ii, _ := iv.AsInt()
	assert.Equal(t, int64(3), ii)
}

func TestPreludeCombinations(t *testing.T) {
	out := runFilter(t, `[combinations] | length`, `[[1,2],[3,4]]`)
	require.Len(t, out, 1)
	i, _ := out[0].AsInt()
	assert.Equal(t, int64(4), i)
}
