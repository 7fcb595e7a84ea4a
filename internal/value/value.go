// Package value implements the runtime value domain described in the data
// model: null, bool, int64, float64 (with optional preserved source text),
// string, and reference-counted, copy-on-write array/object containers.
//
// Values are plain Go structs copied by assignment like any other Go value.
// What makes the containers "shared" is that Array/Object are held by
// pointer and carry their own refcount: copying a Value that points at one
// does not copy its backing slice, so two Values can point at the same
// Array until one of them needs to mutate it. Code that stores a Value
// somewhere it will be independently mutated later (variable bindings,
// object/array literal construction) must call Retain first; code that
// mutates a container reachable from a Value must go through
// Array.Unique/Object.Unique, which copies only if the refcount says the
// backing storage is shared.
package value

import (
	"fmt"
	"sort"
	"sync/atomic"
)

// Kind identifies a Value's variant.
type Kind uint8

const (
	KindNull Kind = iota
	KindBool
	KindInt
	KindDouble
	KindString
	KindArray
	KindObject
)

func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindBool:
		return "boolean"
	case KindInt, KindDouble:
		return "number"
	case KindString:
		return "string"
	case KindArray:
		return "array"
	case KindObject:
		return "object"
	}
	return "unknown"
}

// Value is a tagged union over the jq value domain. The zero Value is null.
type Value struct {
	kind Kind
	b    bool
	i    int64
	d    float64
	dsrc string // preserved source text for KindDouble, if any
	s    string
	arr  *Array
	obj  *Object
}

// Null is the null value.
var Null = Value{kind: KindNull}

func Bool(b bool) Value   { return Value{kind: KindBool, b: b} }
func Int(i int64) Value   { return Value{kind: KindInt, i: i} }
func Double(d float64) Value {
	return Value{kind: KindDouble, d: d}
}

// DoubleText builds a double value that remembers its original source text,
// so re-serializing it (or negating/abs/length-ing it) round-trips the
// source's digits even when they exceed float64 precision.
func DoubleText(d float64, src string) Value {
	return Value{kind: KindDouble, d: d, dsrc: src}
}

func String(s string) Value { return Value{kind: KindString, s: s} }

// NewArray builds a uniquely-owned array value from items. The slice is
// taken by reference; callers should not retain it.
func NewArray(items []Value) Value {
	return Value{kind: KindArray, arr: &Array{items: items, refs: 1}}
}

// NewObject builds a uniquely-owned object value from keys/items in
// insertion order. Duplicate keys are not deduplicated here; use
// Object.Set during construction to get last-write-wins semantics.
func NewObject(o *Object) Value {
	if o.refs == 0 {
		o.refs = 1
	}
	return Value{kind: KindObject, obj: o}
}

func (v Value) Kind() Kind { return v.kind }
func (v Value) IsNull() bool { return v.kind == KindNull }

// Truthy implements jq's truthiness: everything except null and false.
func (v Value) Truthy() bool {
	return !(v.kind == KindNull || (v.kind == KindBool && !v.b))
}

func (v Value) AsBool() bool { return v.b }

func (v Value) AsInt() (int64, bool) {
	switch v.kind {
	case KindInt:
		return v.i, true
	case KindDouble:
		return int64(v.d), true
	}
	return 0, false
}

// AsFloat returns the value as a float64, for both Int and Double kinds.
func (v Value) AsFloat() (float64, bool) {
	switch v.kind {
	case KindInt:
		return float64(v.i), true
	case KindDouble:
		return v.d, true
	}
	return 0, false
}

// SourceText returns the preserved literal text of a Double, if any.
func (v Value) SourceText() (string, bool) {
	if v.kind == KindDouble && v.dsrc != "" {
		return v.dsrc, true
	}
	return "", false
}

func (v Value) AsString() (string, bool) {
	if v.kind == KindString {
		return v.s, true
	}
	return "", false
}

func (v Value) Array() (*Array, bool) {
	if v.kind == KindArray {
		return v.arr, true
	}
	return nil, false
}

func (v Value) Object() (*Object, bool) {
	if v.kind == KindObject {
		return v.obj, true
	}
	return nil, false
}

// Retain must be called whenever a Value holding a shared container is
// stored somewhere that will be independently, later mutated: binding it
// to a variable, inserting it into another array/object being built, or
// returning it from `reduce`'s accumulator across iterations.
func (v Value) Retain() Value {
	switch v.kind {
	case KindArray:
		atomic.AddInt32(&v.arr.refs, 1)
	case KindObject:
		atomic.AddInt32(&v.obj.refs, 1)
	}
	return v
}

// Release drops a reference previously taken with Retain. Containers do
// not free eagerly (Go's GC reclaims them); Release exists so the refcount
// accurately reflects outstanding aliases for Unique's copy-on-write check.
func (v Value) Release() {
	switch v.kind {
	case KindArray:
		atomic.AddInt32(&v.arr.refs, -1)
	case KindObject:
		atomic.AddInt32(&v.obj.refs, -1)
	}
}

// Length implements jq's `length`: 0 for null, byte length for strings,
// element count for arrays/objects, absolute value for numbers.
func (v Value) Length() (Value, error) {
	switch v.kind {
	case KindNull:
		return Int(0), nil
	case KindBool:
		return Value{}, fmt.Errorf("boolean (%v) has no length", v.b)
	case KindInt:
		if v.i < 0 {
			return Int(-v.i), nil
		}
		return v, nil
	case KindDouble:
		if v.d < 0 {
			if txt, ok := v.SourceText(); ok && len(txt) > 0 && txt[0] == '-' {
				return DoubleText(-v.d, txt[1:]), nil
			}
			return Double(-v.d), nil
		}
		return v, nil
	case KindString:
		return Int(int64(len(v.s))), nil
	case KindArray:
		return Int(int64(len(v.arr.items))), nil
	case KindObject:
		return Int(int64(len(v.obj.keys))), nil
	}
	return Value{}, fmt.Errorf("unknown kind")
}

// TypeName implements jq's `type` builtin.
func (v Value) TypeName() string {
	switch v.kind {
	case KindNull:
		return "null"
	case KindBool:
		return "boolean"
	case KindInt, KindDouble:
		return "number"
	case KindString:
		return "string"
	case KindArray:
		return "array"
	case KindObject:
		return "object"
	}
	return "unknown"
}

// orderClass gives the cross-type total order from the data model:
// null < false < true < numbers < strings < arrays < objects.
func (v Value) orderClass() int {
	switch v.kind {
	case KindNull:
		return 0
	case KindBool:
		if !v.b {
			return 1
		}
		return 2
	case KindInt, KindDouble:
		return 3
	case KindString:
		return 4
	case KindArray:
		return 5
	case KindObject:
		return 6
	}
	return 7
}

// Compare implements the total order over the value domain used by `sort`,
// `<`/`<=`/`>`/`>=`, and `unique`. Returns <0, 0, >0.
func Compare(a, b Value) int {
	ca, cb := a.orderClass(), b.orderClass()
	if ca != cb {
		return ca - cb
	}
	switch a.kind {
	case KindNull:
		return 0
	case KindBool:
		return 0 // equal orderClass already means both true or both false
	case KindInt, KindDouble:
		fa, _ := a.AsFloat()
		fb, _ := b.AsFloat()
		switch {
		case fa < fb:
			return -1
		case fa > fb:
			return 1
		default:
			return 0
		}
	case KindString:
		switch {
		case a.s < b.s:
			return -1
		case a.s > b.s:
			return 1
		default:
			return 0
		}
	case KindArray:
		return compareArrays(a.arr.items, b.arr.items)
	case KindObject:
		return compareObjects(a.obj, b.obj)
	}
	return 0
}

func compareArrays(a, b []Value) int {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	for i := 0; i < n; i++ {
		if c := Compare(a[i], b[i]); c != 0 {
			return c
		}
	}
	return len(a) - len(b)
}

func compareObjects(a, b *Object) int {
	ak := append([]string(nil), a.keys...)
	bk := append([]string(nil), b.keys...)
	sort.Strings(ak)
	sort.Strings(bk)
	n := len(ak)
	if len(bk) < n {
		n = len(bk)
	}
	for i := 0; i < n; i++ {
		if ak[i] != bk[i] {
			if ak[i] < bk[i] {
				return -1
			}
			return 1
		}
	}
	if len(ak) != len(bk) {
		return len(ak) - len(bk)
	}
	for _, k := range ak {
		av, _ := a.Get(k)
		bv, _ := b.Get(k)
		if c := Compare(av, bv); c != 0 {
			return c
		}
	}
	return 0
}

// Equal reports whether a and b compare equal under Compare.
func Equal(a, b Value) bool { return Compare(a, b) == 0 }
