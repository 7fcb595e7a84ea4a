package parser

import "testing"

func TestParseIdentity(t *testing.T) {
	tape, err := Parse([]byte(`{"a":1,"b":[2,3]}`), nil)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	it := tape.Iter()
	it.Advance()
	out, err := it.MarshalJSONBuffer(nil)
	if err != nil {
		t.Fatalf("MarshalJSONBuffer: %v", err)
	}
	if string(out) != `{"a":1,"b":[2,3]}` {
		t.Fatalf("got %q", out)
	}
}

func TestMinify(t *testing.T) {
	out, err := Minify([]byte("  { \"a\" : 1,\n\"b\":  2 } \n"))
	if err != nil {
		t.Fatalf("Minify: %v", err)
	}
	if string(out) != `{"a":1,"b":2}` {
		t.Fatalf("got %q", out)
	}
}

func TestFieldLookup(t *testing.T) {
	tape, err := Parse([]byte(`{"user":{"name":"alice","age":30}}`), nil)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	it := tape.Iter()
	it.Advance()
	obj, err := it.Object(nil)
	if err != nil {
		t.Fatalf("Object: %v", err)
	}
	var el Element
	found := obj.FindKey("user", &el)
	if found == nil {
		t.Fatal("expected to find key \"user\"")
	}
	inner, err := found.Iter.Object(nil)
	if err != nil {
		t.Fatalf("Object: %v", err)
	}
	var nameEl Element
	if inner.FindKey("name", &nameEl) == nil {
		t.Fatal("expected to find key \"name\"")
	}
	name, err := nameEl.Iter.String()
	if err != nil {
		t.Fatalf("String: %v", err)
	}
	if name != "alice" {
		t.Fatalf("got %q", name)
	}
}

func TestFloatTextPreserved(t *testing.T) {
	tape, err := Parse([]byte(`1.100000000000000000001`), nil)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	it := tape.Iter()
	it.Advance()
	out, err := it.MarshalJSONBuffer(nil)
	if err != nil {
		t.Fatalf("MarshalJSONBuffer: %v", err)
	}
	if string(out) != "1.100000000000000000001" {
		t.Fatalf("expected source text to round-trip, got %q", out)
	}
}

func TestIterateMany(t *testing.T) {
	h := NewParser()
	var seen []string
	err := h.IterateMany([]byte("{\"v\":1}\n{\"v\":2}\n\n{\"v\":3}\n"), func(tape *Tape) error {
		it := tape.Iter()
		it.Advance()
		out, err := it.MarshalJSONBuffer(nil)
		if err != nil {
			return err
		}
		seen = append(seen, string(out))
		return nil
	})
	if err != nil {
		t.Fatalf("IterateMany: %v", err)
	}
	want := []string{`{"v":1}`, `{"v":2}`, `{"v":3}`}
	if len(seen) != len(want) {
		t.Fatalf("got %v, want %v", seen, want)
	}
	for i := range want {
		if seen[i] != want[i] {
			t.Fatalf("line %d: got %q want %q", i, seen[i], want[i])
		}
	}
}
