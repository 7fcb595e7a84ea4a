package cli

import (
	"bytes"
	"compress/gzip"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNamedArgsArgAndArgJSON(t *testing.T) {
	n := newNamedArgs()
	n.AddArg("name", "alice")
	require.NoError(t, n.AddArgJSON("count", "3"))

	require.Equal(t, []string{"name", "count"}, n.Order)

	nameV := n.Values["name"]
	s, ok := nameV.AsString()
	require.True(t, ok)
	assert.Equal(t, "alice", s)

	countV := n.Values["count"]
	i, ok := countV.AsInt()
	require.True(t, ok)
	assert.Equal(t, int64(3), i)
}

func TestNamedArgsToArgsObject(t *testing.T) {
	n := newNamedArgs()
	n.AddArg("x", "1")

	obj, err := n.ToArgsObject([]string{"a", "b"}, false)
	require.NoError(t, err)

	o, ok := obj.Object()
	require.True(t, ok)

	named, ok := o.Get("named")
	require.True(t, ok)
	namedObj, _ := named.Object()
	xv, ok := namedObj.Get("x")
	require.True(t, ok)
	xs, _ := xv.AsString()
	assert.Equal(t, "1", xs)

	positional, ok := o.Get("positional")
	require.True(t, ok)
	posArr, _ := positional.Array()
	require.Equal(t, 2, posArr.Len())
	p0, _ := posArr.At(0).AsString()
	assert.Equal(t, "a", p0)
}

func TestNamedArgsSlurpfile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "data.jsonl")
	require.NoError(t, os.WriteFile(path, []byte("1\n2\n3\n"), 0o644))

	n := newNamedArgs()
	require.NoError(t, n.AddSlurpfile("nums", path))

	v := n.Values["nums"]
	arr, ok := v.Array()
	require.True(t, ok)
	require.Equal(t, 3, arr.Len())
	i0, _ := arr.At(0).AsInt()
	assert.Equal(t, int64(1), i0)
}

func TestDecodeJSONScratchNested(t *testing.T) {
	v, err := decodeJSONScratch(`{"a":[1,2,{"b":true}]}`)
	require.NoError(t, err)

	o, ok := v.Object()
	require.True(t, ok)
	a, ok := o.Get("a")
	require.True(t, ok)
	arr, ok := a.Array()
	require.True(t, ok)
	require.Equal(t, 3, arr.Len())

	inner, ok := arr.At(2).Object()
	require.True(t, ok)
	b, ok := inner.Get("b")
	require.True(t, ok)
	assert.True(t, b.Truthy())
}

func TestExpandGlobsPassesThroughLiteral(t *testing.T) {
	out, err := expandGlobs([]string{"/no/such/literal/file.json"})
	require.NoError(t, err)
	assert.Equal(t, []string{"/no/such/literal/file.json"}, out)
}

func TestExpandGlobsMatchesPattern(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"a.json", "b.json"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("{}"), 0o644))
	}
	out, err := expandGlobs([]string{filepath.Join(dir, "*.json")})
	require.NoError(t, err)
	assert.Len(t, out, 2)
}

func TestOpenInputPlainFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "doc.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"ok":true}`), 0o644))

	rc, err := openInput(path)
	require.NoError(t, err)
	defer rc.Close()

	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, `{"ok":true}`, string(data))
}

func TestOpenInputGzip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "doc.json.gz")

	var buf bytes.Buffer
	gz := gzip.NewWriter(&buf)
	_, err := gz.Write([]byte(`{"ok":true}`))
	require.NoError(t, err)
	require.NoError(t, gz.Close())
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o644))

	rc, err := openInput(path)
	require.NoError(t, err)
	defer rc.Close()

	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, `{"ok":true}`, string(data))
}
