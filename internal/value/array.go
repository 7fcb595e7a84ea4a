package value

// Array is a shared, ordered sequence of values. Multiple Values may point
// at the same Array until one needs to mutate it (see Unique).
type Array struct {
	items []Value
	refs  int32
}

// Len returns the number of elements.
func (a *Array) Len() int { return len(a.items) }

// At returns the element at index i (no bounds check, caller must check).
func (a *Array) At(i int) Value { return a.items[i] }

// Items returns the backing slice. Callers must treat it as read-only;
// use Unique to get a mutable copy.
func (a *Array) Items() []Value { return a.items }

// Unique returns an Array safe to mutate in place: itself if uniquely
// owned, or a fresh copy (with its own refcount of 1) if shared.
func (a *Array) Unique() *Array {
	if a.refs <= 1 {
		return a
	}
	cp := make([]Value, len(a.items))
	copy(cp, a.items)
	return &Array{items: cp, refs: 1}
}

// Set returns an Array with items[i] = v, copying on write if shared.
func (a *Array) Set(i int, v Value) *Array {
	u := a.Unique()
	u.items[i] = v
	return u
}

// Append returns an Array with v appended, copying on write if shared.
func (a *Array) Append(v Value) *Array {
	u := a.Unique()
	u.items = append(u.items, v)
	return u
}

// Delete returns an Array with the element at index i removed.
func (a *Array) Delete(i int) *Array {
	u := a.Unique()
	u.items = append(u.items[:i], u.items[i+1:]...)
	return u
}

// Slice returns a new, uniquely-owned Array holding items[lo:hi], clamped
// to bounds, implementing jq's `.[lo:hi]` with out-of-range tolerance.
func (a *Array) Slice(lo, hi int) *Array {
	n := len(a.items)
	if lo < 0 {
		lo += n
	}
	if hi < 0 {
		hi += n
	}
	if lo < 0 {
		lo = 0
	}
	if hi > n {
		hi = n
	}
	if lo > n {
		lo = n
	}
	if hi < lo {
		hi = lo
	}
	cp := make([]Value, hi-lo)
	copy(cp, a.items[lo:hi])
	return &Array{items: cp, refs: 1}
}
