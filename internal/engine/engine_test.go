package engine

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/simdjq/simdjq/internal/eval"
	"github.com/simdjq/simdjq/internal/parser"
	"github.com/simdjq/simdjq/internal/value"
)

func run(t *testing.T, filter, doc string, opts Options) string {
	t.Helper()
	e, err := New(filter, opts)
	require.NoError(t, err)
	buf := parser.PadBuffer([]byte(doc))
	tape, err := parser.Parse(buf, nil)
	require.NoError(t, err)
	env := eval.NewRootEnv(nil, nil, func() (value.Value, bool, error) { return value.Null, false, nil }, func() float64 { return 0 })
	var out bytes.Buffer
	_, err = e.RunTape(&out, tape, env)
	require.NoError(t, err)
	return out.String()
}

func TestEngineIdentityDispatch(t *testing.T) {
	out := run(t, ".", `{"b":1,"a":2}`, Options{})
	assert.Equal(t, "{\"b\":1,\"a\":2}\n", out)
}

func TestEngineGenericReduce(t *testing.T) {
	out := run(t, "reduce .[] as $x (0; . + $x)", `[1,2,3]`, Options{})
	assert.Equal(t, "6\n", out)
}

func TestEngineRawOutput(t *testing.T) {
	out := run(t, ".name", `{"name":"hi"}`, Options{RawOutput: true})
	assert.Equal(t, "hi\n", out)
}

func TestEngineSortKeysForcesGeneric(t *testing.T) {
	out := run(t, ".", `{"b":1,"a":2}`, Options{SortKeys: true})
	assert.Equal(t, "{\"a\":2,\"b\":1}\n", out)
}
