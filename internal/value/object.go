package value

import "sort"

// Object is a shared, insertion-ordered string-keyed mapping. Duplicate
// keys collapse to the last write, matching the construction semantics
// `to_entries | from_entries` relies on round-tripping correctly.
type Object struct {
	keys  []string
	vals  []Value
	index map[string]int
	refs  int32
}

// NewEmptyObject returns a uniquely-owned, empty Object builder.
func NewEmptyObject() *Object {
	return &Object{index: make(map[string]int), refs: 1}
}

// Len returns the number of keys.
func (o *Object) Len() int { return len(o.keys) }

// Get returns the value for key and whether it was present.
func (o *Object) Get(key string) (Value, bool) {
	i, ok := o.index[key]
	if !ok {
		return Value{}, false
	}
	return o.vals[i], true
}

// KeysUnsorted returns keys in insertion order.
func (o *Object) KeysUnsorted() []string { return o.keys }

// Each calls fn for every key/value pair in insertion order.
func (o *Object) Each(fn func(key string, v Value) bool) {
	for i, k := range o.keys {
		if !fn(k, o.vals[i]) {
			return
		}
	}
}

// Unique returns an Object safe to mutate: itself if uniquely owned, or a
// fresh copy (refcount 1) if shared.
func (o *Object) Unique() *Object {
	if o.refs <= 1 {
		return o
	}
	keys := append([]string(nil), o.keys...)
	vals := append([]Value(nil), o.vals...)
	index := make(map[string]int, len(keys))
	for k, v := range o.index {
		index[k] = v
	}
	return &Object{keys: keys, vals: vals, index: index, refs: 1}
}

// Set returns an Object with key bound to v, preserving insertion order
// for existing keys and appending new ones, copying on write if shared.
func (o *Object) Set(key string, v Value) *Object {
	u := o.Unique()
	if i, ok := u.index[key]; ok {
		u.vals[i] = v
		return u
	}
	u.index[key] = len(u.keys)
	u.keys = append(u.keys, key)
	u.vals = append(u.vals, v)
	return u
}

// Delete returns an Object with key removed, if present.
func (o *Object) Delete(key string) *Object {
	i, ok := o.index[key]
	if !ok {
		return o
	}
	u := o.Unique()
	// Recompute index positions for keys after i.
	u.keys = append(u.keys[:i], u.keys[i+1:]...)
	u.vals = append(u.vals[:i], u.vals[i+1:]...)
	delete(u.index, key)
	for k, idx := range u.index {
		if idx > i {
			u.index[k] = idx - 1
		}
	}
	return u
}

// SortedKeys returns keys in lexicographic order, implementing `keys`.
func (o *Object) SortedKeys() []string {
	cp := append([]string(nil), o.keys...)
	sort.Strings(cp)
	return cp
}
