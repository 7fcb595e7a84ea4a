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

import "fmt"

// Object is a read-only view of a JSON object's scope on the tape.
type Object struct {
	tape Tape
	off  int
}

// Element is a single key of an object paired with an iterator queued on
// its value.
type Element struct {
	Name string
	Type Type
	Iter Iter
}

// Elements is a parsed snapshot of an object's key order plus an index for
// fast lookup. Index maps a key to the LAST occurrence seen during Parse,
// which matches the value model's last-write-wins duplicate key rule.
type Elements struct {
	Elements []Element
	Index    map[string]int
}

// NextElement advances to the next key/value pair. Returns TypeNone when
// the object is exhausted.
func (o *Object) NextElement(dstVal *Iter) (name string, t Type, err error) {
	tmp := o.tape.Iter()
	tmp.off = o.off
	typ := tmp.Advance()
	if typ == TypeNone {
		return "", TypeNone, nil
	}
	if typ != TypeString {
		return "", TypeNone, fmt.Errorf("expected key, got %v", typ)
	}
	name, err = tmp.String()
	if err != nil {
		return "", TypeNone, err
	}
	t, err = tmp.AdvanceIter(dstVal)
	if err != nil {
		return "", TypeNone, err
	}
	o.off = tmp.off + tmp.addNext
	return name, t, nil
}

// Map unmarshals the object into a map[string]interface{}.
func (o *Object) Map(dst map[string]interface{}) (map[string]interface{}, error) {
	if dst == nil {
		dst = make(map[string]interface{})
	}
	var tmp Iter
	for {
		name, t, err := o.NextElement(&tmp)
		if err != nil {
			return nil, err
		}
		if t == TypeNone {
			break
		}
		dst[name], err = tmp.Interface()
		if err != nil {
			return nil, fmt.Errorf("parsing element %q: %w", name, err)
		}
	}
	return dst, nil
}

// Parse returns all elements in insertion order plus a lookup index.
func (o *Object) Parse(dst *Elements) (*Elements, error) {
	if dst == nil {
		dst = &Elements{Elements: make([]Element, 0, 8), Index: make(map[string]int, 8)}
	} else {
		dst.Elements = dst.Elements[:0]
		for k := range dst.Index {
			delete(dst.Index, k)
		}
	}
	var tmp Iter
	for {
		name, t, err := o.NextElement(&tmp)
		if err != nil {
			return dst, err
		}
		if t == TypeNone {
			break
		}
		dst.Index[name] = len(dst.Elements)
		dst.Elements = append(dst.Elements, Element{Name: name, Type: t, Iter: tmp})
	}
	return dst, nil
}

// FindKey returns the single named element, or nil if not present. On
// duplicate keys the last occurrence wins, matching value-tree semantics.
func (o *Object) FindKey(key string, dst *Element) *Element {
	tmp := o.tape.Iter()
	tmp.off = o.off
	var found *Element
	for {
		typ := tmp.Advance()
		if typ != TypeString {
			break
		}
		name, err := tmp.String()
		if err != nil {
			break
		}
		var val Iter
		t, err := tmp.AdvanceIter(&val)
		if err != nil || t == TypeNone {
			break
		}
		if name == key {
			if dst == nil {
				dst = &Element{}
			}
			dst.Name = key
			dst.Type = t
			dst.Iter = val
			found = dst
		}
		tmp.off = val.off + val.addNext
	}
	return found
}

// ForEach calls fn once per key/value pair, in order. Stops early if fn
// returns false.
func (o *Object) ForEach(fn func(key string, i *Iter) bool) {
	var tmp Iter
	for {
		name, t, err := o.NextElement(&tmp)
		if err != nil || t == TypeNone {
			return
		}
		if !fn(name, &tmp) {
			return
		}
	}
}

// MarshalJSONBuffer appends the object's JSON serialization to dst.
func (o *Object) MarshalJSONBuffer(dst []byte) ([]byte, error) {
	dst = append(dst, '{')
	first := true
	var retErr error
	o.ForEach(func(key string, i *Iter) bool {
		if !first {
			dst = append(dst, ',')
		}
		first = false
		dst = append(dst, '"')
		dst = escapeBytes(dst, []byte(key))
		dst = append(dst, '"', ':')
		dst, retErr = i.MarshalJSONBuffer(dst)
		return retErr == nil
	})
	if retErr != nil {
		return nil, retErr
	}
	dst = append(dst, '}')
	return dst, nil
}
