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

import (
	"errors"
	"strconv"
)

// MarshalJSONBuffer appends the JSON serialization of the value currently
// queued on i to dst. This is the primitive behind `minify` (identity
// passthrough), field-chain extraction, and any raw-byte specialization
// that re-emits a subtree without building a value tree.
//
// Numbers that carry preserved source text (see Tape.FloatText) are
// re-emitted verbatim so round-tripping a document through the passthrough
// path never loses precision the source had.
func (i *Iter) MarshalJSONBuffer(dst []byte) ([]byte, error) {
	switch i.t {
	case TagString:
		sb, err := i.StringBytes()
		if err != nil {
			return nil, err
		}
		dst = append(dst, '"')
		dst = escapeBytes(dst, sb)
		dst = append(dst, '"')
		return dst, nil
	case TagInteger:
		v, err := i.Int()
		if err != nil {
			return nil, err
		}
		return strconv.AppendInt(dst, v, 10), nil
	case TagUint:
		v, err := i.Uint()
		if err != nil {
			return nil, err
		}
		return strconv.AppendUint(dst, v, 10), nil
	case TagFloat:
		if text, ok := i.FloatText(); ok {
			return append(dst, text...), nil
		}
		v, err := i.Float()
		if err != nil {
			return nil, err
		}
		return AppendFloat(dst, v)
	case TagNull:
		return append(dst, "null"...), nil
	case TagBoolTrue:
		return append(dst, "true"...), nil
	case TagBoolFalse:
		return append(dst, "false"...), nil
	case TagObjectStart:
		obj, err := i.Object(nil)
		if err != nil {
			return nil, err
		}
		return obj.MarshalJSONBuffer(dst)
	case TagArrayStart:
		arr, err := i.Array(nil)
		if err != nil {
			return nil, err
		}
		return arr.MarshalJSONBuffer(dst)
	case TagRoot:
		var sub Iter
		_, dstIter, err := i.Root(&sub)
		if err != nil {
			return nil, err
		}
		return dstIter.MarshalJSONBuffer(dst)
	default:
		return nil, errors.New("cannot marshal tag " + i.t.String())
	}
}

// Minify parses buf and re-emits its minified (no insignificant whitespace)
// bytes through the same Iter.MarshalJSONBuffer walk the IdentityCompact
// dispatch tag uses: no value tree is built, the tape is walked once and
// serialized directly.
func Minify(buf []byte) ([]byte, error) {
	t, err := Parse(buf, nil)
	if err != nil {
		return nil, err
	}
	it := t.Iter()
	it.Advance()
	return it.MarshalJSONBuffer(nil)
}
