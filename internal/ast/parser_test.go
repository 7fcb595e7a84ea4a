package ast

import "testing"

func TestParseIdentity(t *testing.T) {
	n, err := Parse(".")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if n.Kind != KindIdentity {
		t.Fatalf("got %v", n.Kind)
	}
}

func TestParseFieldChain(t *testing.T) {
	n, err := Parse(".a.b.c")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if n.Kind != KindField || n.Str != "c" {
		t.Fatalf("got %+v", n)
	}
	if n.Left.Kind != KindField || n.Left.Str != "b" {
		t.Fatalf("got %+v", n.Left)
	}
}

func TestParsePipeAndComma(t *testing.T) {
	n, err := Parse(".a, .b | .c")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if n.Kind != KindPipe {
		t.Fatalf("got %v", n.Kind)
	}
	if n.Left.Kind != KindComma {
		t.Fatalf("got %v", n.Left.Kind)
	}
}

func TestParseObjectConstruction(t *testing.T) {
	n, err := Parse(`{a: .x, $y}`)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if n.Kind != KindObject || len(n.Entries) != 2 {
		t.Fatalf("got %+v", n)
	}
	if n.Entries[0].KeyName != "a" || n.Entries[0].Value.Kind != KindField {
		t.Fatalf("got %+v", n.Entries[0])
	}
	if n.Entries[1].KeyVar != "y" || n.Entries[1].Value != nil {
		t.Fatalf("got %+v", n.Entries[1])
	}
}

func TestParseIfReduceForeach(t *testing.T) {
	if _, err := Parse(`if . > 0 then "pos" elif . < 0 then "neg" else "zero" end`); err != nil {
		t.Fatalf("if: %v", err)
	}
	if _, err := Parse(`reduce .[] as $x (0; . + $x)`); err != nil {
		t.Fatalf("reduce: %v", err)
	}
	if _, err := Parse(`foreach .[] as $x (0; . + $x; .)`); err != nil {
		t.Fatalf("foreach: %v", err)
	}
}

func TestParseTryCatchAndOptional(t *testing.T) {
	if _, err := Parse(`try error("x") catch .`); err != nil {
		t.Fatalf("try/catch: %v", err)
	}
	n, err := Parse(`.a?`)
	if err != nil {
		t.Fatalf("optional: %v", err)
	}
	if n.Kind != KindTry || !n.Short {
		t.Fatalf("got %+v", n)
	}
}

func TestParseStringInterpolation(t *testing.T) {
	n, err := Parse(`"hello \(.name)!"`)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if n.Kind != KindString || len(n.Parts) != 3 {
		t.Fatalf("got %+v", n)
	}
	if n.Parts[1].Expr == nil || n.Parts[1].Expr.Kind != KindField {
		t.Fatalf("got %+v", n.Parts[1])
	}
}

func TestParseFuncDef(t *testing.T) {
	n, err := Parse(`def inc: . + 1; inc`)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if n.Kind != KindFuncDef || n.Str != "inc" || n.Rest.Kind != KindFuncCall {
		t.Fatalf("got %+v", n)
	}
}

func TestParseSliceAndIterate(t *testing.T) {
	n, err := Parse(`.[1:3]`)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if n.Kind != KindSlice || n.Lo == nil || n.Hi == nil {
		t.Fatalf("got %+v", n)
	}
	n2, err := Parse(`.[]`)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if n2.Kind != KindIterate {
		t.Fatalf("got %+v", n2)
	}
}
