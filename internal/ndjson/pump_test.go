package ndjson

import (
	"bytes"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/simdjq/simdjq/internal/engine"
	"github.com/simdjq/simdjq/internal/eval"
	"github.com/simdjq/simdjq/internal/value"
)

func newEnv() *eval.Env {
	return eval.NewRootEnv(nil, nil, func() (value.Value, bool, error) { return value.Null, false, nil }, func() float64 { return 0 })
}

func TestPumpOrdersOutputByLine(t *testing.T) {
	e, err := engine.New(".n", engine.Options{})
	require.NoError(t, err)

	var lines []string
	for i := 0; i < 500; i++ {
		lines = append(lines, fmt.Sprintf(`{"n":%d}`, i))
	}
	input := strings.Join(lines, "\n")

	var out bytes.Buffer
	result, err := Pump(strings.NewReader(input), &out, e, newEnv, Options{Concurrency: 4})
	require.NoError(t, err)
	assert.Equal(t, 500, result.LinesProcessed)
	assert.Equal(t, 500, result.ValuesProduced)

	var want strings.Builder
	for i := 0; i < 500; i++ {
		fmt.Fprintf(&want, "%d\n", i)
	}
	assert.Equal(t, want.String(), out.String())
}

func TestPumpIsolatesPerLineErrors(t *testing.T) {
	e, err := engine.New(".n", engine.Options{})
	require.NoError(t, err)

	input := `{"n":1}` + "\n" + `not json` + "\n" + `{"n":3}`
	var out bytes.Buffer
	result, err := Pump(strings.NewReader(input), &out, e, newEnv, Options{Concurrency: 1})
	require.NoError(t, err)
	assert.Equal(t, 1, result.LineErrors)
	assert.Equal(t, "1\n3\n", out.String())
}
