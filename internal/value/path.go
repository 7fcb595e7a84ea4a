package value

import "fmt"

// PathKey is one step of a path: either a string (object key) or an int
// (array index). Both Str and IsInt discriminate which.
type PathKey struct {
	Str   string
	Int   int
	IsInt bool
}

func StrKey(s string) PathKey { return PathKey{Str: s} }
func IntKey(i int) PathKey    { return PathKey{Int: i, IsInt: true} }

// GetPath implements `getpath(PATH)`: walks path through v, returning null
// (not an error) when a traversed object key or out-of-range index is
// simply absent, matching jq's lenient getpath semantics.
func GetPath(v Value, path []PathKey) (Value, error) {
	cur := v
	for _, k := range path {
		if cur.IsNull() {
			cur = Null
			continue
		}
		if k.IsInt {
			arr, ok := cur.Array()
			if !ok {
				return Value{}, fmt.Errorf("cannot index %s with number", cur.TypeName())
			}
			idx := k.Int
			if idx < 0 {
				idx += arr.Len()
			}
			if idx < 0 || idx >= arr.Len() {
				cur = Null
				continue
			}
			cur = arr.At(idx)
			continue
		}
		obj, ok := cur.Object()
		if !ok {
			return Value{}, fmt.Errorf("cannot index %s with %q", cur.TypeName(), k.Str)
		}
		val, ok := obj.Get(k.Str)
		if !ok {
			cur = Null
			continue
		}
		cur = val
	}
	return cur, nil
}

// SetPath implements `setpath(PATH; VALUE)`, creating intermediate objects
// and arrays as needed the way jq does for `.a.b = 1` on an empty input.
func SetPath(v Value, path []PathKey, newVal Value) (Value, error) {
	if len(path) == 0 {
		return newVal, nil
	}
	k := path[0]
	rest := path[1:]
	if k.IsInt {
		var arr *Array
		switch {
		case v.IsNull():
			arr = &Array{refs: 1}
		default:
			a, ok := v.Array()
			if !ok {
				return Value{}, fmt.Errorf("cannot index %s with number", v.TypeName())
			}
			arr = a.Unique()
		}
		idx := k.Int
		if idx < 0 {
			idx += arr.Len()
			if idx < 0 {
				return Value{}, fmt.Errorf("out of bounds negative array index")
			}
		}
		for arr.Len() <= idx {
			arr = arr.Append(Null)
		}
		child, err := SetPath(arr.At(idx), rest, newVal)
		if err != nil {
			return Value{}, err
		}
		arr = arr.Set(idx, child)
		return NewArray(arr.items), nil
	}
	var obj *Object
	switch {
	case v.IsNull():
		obj = NewEmptyObject()
	default:
		o, ok := v.Object()
		if !ok {
			return Value{}, fmt.Errorf("cannot index %s with %q", v.TypeName(), k.Str)
		}
		obj = o.Unique()
	}
	existing, _ := obj.Get(k.Str)
	child, err := SetPath(existing, rest, newVal)
	if err != nil {
		return Value{}, err
	}
	obj = obj.Set(k.Str, child)
	return NewObject(obj), nil
}

// DelPath implements one entry of `delpaths(PATHS)`: removes the value
// named by path, leaving siblings untouched. Deleting a path that does
// not exist is a no-op, matching jq.
func DelPath(v Value, path []PathKey) (Value, error) {
	if len(path) == 0 {
		return Null, nil
	}
	if v.IsNull() {
		return v, nil
	}
	k := path[0]
	if len(path) == 1 {
		if k.IsInt {
			arr, ok := v.Array()
			if !ok {
				return Value{}, fmt.Errorf("cannot delete element of %s", v.TypeName())
			}
			idx := k.Int
			if idx < 0 {
				idx += arr.Len()
			}
			if idx < 0 || idx >= arr.Len() {
				return v, nil
			}
			return NewArray(arr.Unique().Delete(idx).items), nil
		}
		obj, ok := v.Object()
		if !ok {
			return Value{}, fmt.Errorf("cannot delete field of %s", v.TypeName())
		}
		return NewObject(obj.Unique().Delete(k.Str)), nil
	}
	cur, err := GetPath(v, path[:1])
	if err != nil {
		return Value{}, err
	}
	if cur.IsNull() {
		return v, nil
	}
	updated, err := DelPath(cur, path[1:])
	if err != nil {
		return Value{}, err
	}
	return SetPath(v, path[:1], updated)
}

// AllPaths implements `paths`/`leaf_paths`: it calls emit once per path in
// the document, in depth-first pre-order; the empty root path is never
// emitted.
func AllPaths(v Value, leavesOnly bool, emit func([]PathKey) bool) {
	var walk func(cur Value, prefix []PathKey)
	walk = func(cur Value, prefix []PathKey) {
		isLeaf := cur.Kind() != KindArray && cur.Kind() != KindObject
		if len(prefix) > 0 && (!leavesOnly || isLeaf) {
			if !emit(prefix) {
				return
			}
		}
		switch cur.Kind() {
		case KindArray:
			arr, _ := cur.Array()
			for i := 0; i < arr.Len(); i++ {
				walk(arr.At(i), append(append([]PathKey(nil), prefix...), IntKey(i)))
			}
		case KindObject:
			obj, _ := cur.Object()
			for _, k := range obj.KeysUnsorted() {
				val, _ := obj.Get(k)
				walk(val, append(append([]PathKey(nil), prefix...), StrKey(k)))
			}
		}
	}
	walk(v, nil)
}
