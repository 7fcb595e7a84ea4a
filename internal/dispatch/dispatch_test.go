package dispatch

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/simdjq/simdjq/internal/ast"
	"github.com/simdjq/simdjq/internal/parser"
)

func mustParse(t *testing.T, src string) *ast.Node {
	t.Helper()
	n, err := ast.Parse(src)
	require.NoError(t, err)
	return n
}

func mustTape(t *testing.T, doc string) *parser.Tape {
	t.Helper()
	buf := parser.PadBuffer([]byte(doc))
	tape, err := parser.Parse(buf, nil)
	require.NoError(t, err)
	return tape
}

func runOn(t *testing.T, filter, doc string) (string, Tag, bool) {
	t.Helper()
	plan := Classify(mustParse(t, filter), Options{})
	it := mustTape(t, doc).Iter()
	it.Advance()
	out, handled, err := Run(plan, it, nil)
	require.NoError(t, err)
	return string(out), plan.Tag, handled
}

func TestIdentityCompact(t *testing.T) {
	out, tag, handled := runOn(t, ".", `{"a": 1,   "b":2}`)
	assert.Equal(t, IdentityCompact, tag)
	assert.True(t, handled)
	assert.Equal(t, `{"a":1,"b":2}`, out)
}

func TestFieldChain(t *testing.T) {
	out, tag, handled := runOn(t, ".a.b", `{"a":{"b":42}}`)
	assert.Equal(t, FieldChain, tag)
	assert.True(t, handled)
	assert.Equal(t, "42", out)
}

func TestFieldChainMissingIsNull(t *testing.T) {
	out, _, handled := runOn(t, ".a.b", `{"a":{}}`)
	assert.True(t, handled)
	assert.Equal(t, "null", out)
}

func TestFieldLength(t *testing.T) {
	out, tag, handled := runOn(t, ".items|length", `{"items":[1,2,3]}`)
	assert.Equal(t, FieldLength, tag)
	assert.True(t, handled)
	assert.Equal(t, "3", out)
}

func TestArrayMapField(t *testing.T) {
	out, tag, handled := runOn(t, "map(.name)", `[{"name":"a"},{"name":"b"}]`)
	assert.Equal(t, ArrayMapField, tag)
	assert.True(t, handled)
	assert.Equal(t, `["a","b"]`, out)
}

func TestArrayMapFieldsObj(t *testing.T) {
	out, tag, handled := runOn(t, "map({id, name})", `[{"id":1,"name":"a","x":9}]`)
	assert.Equal(t, ArrayMapFieldsObj, tag)
	assert.True(t, handled)
	assert.Equal(t, `[{"id":1,"name":"a"}]`, out)
}

func TestSelectEqExtract(t *testing.T) {
	out, tag, handled := runOn(t, `select(.kind == "dog") | .name`, `{"kind":"dog","name":"Rex"}`)
	assert.Equal(t, SelectEqExtract, tag)
	assert.True(t, handled)
	assert.Equal(t, `"Rex"`, out)
}

func TestSelectEqExtractSuppressed(t *testing.T) {
	out, _, handled := runOn(t, `select(.kind == "dog") | .name`, `{"kind":"cat","name":"Tom"}`)
	assert.True(t, handled)
	assert.Equal(t, "", out)
}

func TestGenericFallback(t *testing.T) {
	plan := Classify(mustParse(t, "reduce .[] as $x (0; . + $x)"), Options{})
	assert.Equal(t, Generic, plan.Tag)
}

func TestSortKeysDisablesDispatch(t *testing.T) {
	plan := Classify(mustParse(t, "."), Options{SortKeys: true})
	assert.Equal(t, Generic, plan.Tag)
}
