/*
 * MinIO Cloud Storage, (C) 2020 MinIO, Inc.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package parser

// Array is a read-only view of a JSON array's scope on the tape. It backs
// ArrayMapField/ArrayMapBuiltin dispatch and the flat-token evaluator's
// Iterate case.
type Array struct {
	tape Tape
	off  int
}

// Iter returns an Iter scoped to this array's elements.
func (a *Array) Iter() Iter {
	return Iter{tape: a.tape, off: a.off}
}

// FirstType returns the type of the first element, or TypeNone if empty.
func (a *Array) FirstType() Type {
	it := a.Iter()
	return it.PeekNext()
}

// Len counts the elements by walking the tape once. O(n) -- callers that
// only need to know "is this empty" should prefer FirstType.
func (a *Array) Len() int {
	n := 0
	it := a.Iter()
	for it.Advance() != TypeNone {
		n++
	}
	return n
}

// MarshalJSONBuffer appends the array's JSON serialization to dst.
func (a *Array) MarshalJSONBuffer(dst []byte) ([]byte, error) {
	dst = append(dst, '[')
	i := a.Iter()
	var elem Iter
	for {
		t, err := i.AdvanceIter(&elem)
		if err != nil {
			return nil, err
		}
		if t == TypeNone {
			break
		}
		dst, err = elem.MarshalJSONBuffer(dst)
		if err != nil {
			return nil, err
		}
		if i.PeekNextTag() == TagArrayEnd {
			break
		}
		dst = append(dst, ',')
	}
	dst = append(dst, ']')
	return dst, nil
}

// Interface decodes the array into a []interface{}.
func (a *Array) Interface() ([]interface{}, error) {
	lenEst := (len(a.tape.Tape) - a.off - 1) / 2
	if lenEst < 0 {
		lenEst = 0
	}
	dst := make([]interface{}, 0, lenEst)
	i := a.Iter()
	for i.Advance() != TypeNone {
		elem, err := i.Interface()
		if err != nil {
			return nil, err
		}
		dst = append(dst, elem)
	}
	return dst, nil
}

// ForEach calls fn once per element, in order, passing an Iter queued on
// that element. Stops early if fn returns false.
func (a *Array) ForEach(fn func(i *Iter) bool) {
	it := a.Iter()
	for it.Advance() != TypeNone {
		if !fn(&it) {
			return
		}
	}
}
