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

// Package parser implements the flat-token-buffer JSON parser that feeds the
// engine's three evaluators. It replaces the tree-structured encoding/json
// decoder with a single length-prefixed tape produced in one pass, so the
// evaluators can navigate a document without allocating a node per value.
//
// The tape format and the Iter/Object/Array navigation API are carried over
// from the donor SIMD parser almost unchanged: tag bytes packed into the top
// byte of a uint64, payload in the low 56 bits, containers pointing past
// their own close tag. What changed is stage1/stage2 construction itself
// (scan.go), which is a portable scalar tokenizer rather than the hand
// written AVX2 kernels the donor used -- this package is the "black box
// parser" the engine depends on, not the SIMD acceleration layer.
package parser

import (
	"errors"
	"fmt"
	"math"
	"strconv"
)

const jsonValueMask = 0xffffffffffffff
const jsonTagMask = 0xff << 56
const stringBufBit = 0x80000000000000
const stringBufMask = 0x7fffffffffffff

const maxDepth = 256

// Tag indicates the data type of a tape entry.
type Tag uint8

const (
	TagString      = Tag('"')
	TagInteger     = Tag('l')
	TagUint        = Tag('u')
	TagFloat       = Tag('d')
	TagNull        = Tag('n')
	TagBoolTrue    = Tag('t')
	TagBoolFalse   = Tag('f')
	TagObjectStart = Tag('{')
	TagObjectEnd   = Tag('}')
	TagArrayStart  = Tag('[')
	TagArrayEnd    = Tag(']')
	TagRoot        = Tag('r')
	TagEnd         = Tag(0)
)

func (t Tag) String() string { return string([]byte{byte(t)}) }

// Type is a JSON value type, as returned by navigation calls.
type Type uint8

const (
	TypeNone Type = iota
	TypeNull
	TypeString
	TypeInt
	TypeUint
	TypeFloat
	TypeBool
	TypeObject
	TypeArray
	TypeRoot
)

func (t Type) String() string {
	switch t {
	case TypeNull:
		return "null"
	case TypeString:
		return "string"
	case TypeInt:
		return "int"
	case TypeUint:
		return "uint"
	case TypeFloat:
		return "float"
	case TypeBool:
		return "bool"
	case TypeObject:
		return "object"
	case TypeArray:
		return "array"
	case TypeRoot:
		return "root"
	}
	return "(no type)"
}

// TagToType converts a tag to type. Only basic types and container-start
// tags have a type; everything else maps to TypeNone.
var TagToType = [256]Type{
	TagString:      TypeString,
	TagInteger:     TypeInt,
	TagUint:        TypeUint,
	TagFloat:       TypeFloat,
	TagNull:        TypeNull,
	TagBoolTrue:    TypeBool,
	TagBoolFalse:   TypeBool,
	TagObjectStart: TypeObject,
	TagArrayStart:  TypeArray,
	TagRoot:        TypeRoot,
}

func (t Tag) Type() Type { return TagToType[t] }

// NumberFlags records how a numeric tape entry was produced.
type NumberFlags uint64

const (
	// FlagOverflowedInteger is set when a JSON integer literal overflowed
	// int64/uint64 range and was demoted to a float per the compatibility
	// mode described in the numeric overflow open question.
	FlagOverflowedInteger NumberFlags = 1 << iota
)

func (f NumberFlags) Contains(flag NumberFlags) bool { return f&flag == flag }

// Tape is the flat token buffer: a tagged tape plus the backing message and
// string-copy area it references. It is produced by one call to Parse and
// is owned by whoever called it until the next reuse.
type Tape struct {
	Message []byte
	Tape    []uint64
	Strings []byte

	// FloatText preserves the original source text of a number stored as
	// TagFloat (every float literal, and every integer literal too large for
	// int64/uint64), keyed by the tape index of its TagFloat entry. Only
	// populated when the parser was built WithNumberText (the default).
	FloatText map[int]string

	internal *internalTape
}

type internalTape struct {
	Tape
	containingScopeOffset [maxDepth]uint64
	copyStrings           bool
	preserveNumberText    bool
}

// Iter returns a new Iter positioned before the first element.
func (t *Tape) Iter() Iter {
	return Iter{tape: *t}
}

func (t *Tape) stringAt(offset, length uint64) (string, error) {
	b, err := t.stringByteAt(offset, length)
	return string(b), err
}

func (t *Tape) stringByteAt(offset, length uint64) ([]byte, error) {
	if offset&stringBufBit == 0 {
		if offset+length > uint64(len(t.Message)) {
			return nil, fmt.Errorf("string message offset (%v) outside valid area (%v)", offset+length, len(t.Message))
		}
		return t.Message[offset : offset+length], nil
	}
	offset = offset & stringBufMask
	if offset+length > uint64(len(t.Strings)) {
		return nil, fmt.Errorf("string buffer offset (%v) outside valid area (%v)", offset+length, len(t.Strings))
	}
	return t.Strings[offset : offset+length], nil
}

func (t *Tape) getCurrentLoc() uint64 { return uint64(len(t.Tape)) }

func (t *Tape) writeTape(val uint64, c byte) {
	t.Tape = append(t.Tape, val|(uint64(c)<<56))
}

func (t *Tape) writeTapeTagVal(tag Tag, val uint64) {
	t.Tape = append(t.Tape, uint64(tag)<<56, val)
}

func (t *Tape) writeTapeTagValFlags(tag Tag, val, flags uint64) {
	t.Tape = append(t.Tape, uint64(tag)<<56|flags, val)
}

func (t *Tape) writeInt64(v int64)   { t.writeTapeTagVal(TagInteger, uint64(v)) }
func (t *Tape) writeUint64(v uint64) { t.writeTapeTagVal(TagUint, v) }
func (t *Tape) writeDouble(d float64) {
	t.writeTapeTagVal(TagFloat, math.Float64bits(d))
}

func (t *Tape) annotatePreviousLoc(savedLoc uint64, val uint64) {
	t.Tape[savedLoc] |= val
}

// Reset clears the tape for reuse without releasing backing arrays.
func (t *Tape) Reset() {
	t.Tape = t.Tape[:0]
	t.Strings = t.Strings[:0]
	t.Message = t.Message[:0]
	for k := range t.FloatText {
		delete(t.FloatText, k)
	}
}

// Iter represents a cursor into a Tape. Copying an Iter yields an
// independent cursor over the same underlying tape.
type Iter struct {
	tape Tape

	off     int
	addNext int
	cur     uint64
	t       Tag
}

// Advance reads the type of the next element and queues the value at the
// same level (it does not descend into containers).
func (i *Iter) Advance() Type {
	i.off += i.addNext
	if i.off >= len(i.tape.Tape) {
		i.addNext = 0
		i.t = TagEnd
		return TypeNone
	}
	v := i.tape.Tape[i.off]
	i.cur = v & jsonValueMask
	i.t = Tag(v >> 56)
	i.off++
	i.calcNext(false)
	if i.addNext < 0 {
		i.moveToEnd()
		return TypeNone
	}
	return TagToType[i.t]
}

// AdvanceInto behaves like Advance but descends into arrays/objects/root.
func (i *Iter) AdvanceInto() Tag {
	i.off += i.addNext
	if i.off >= len(i.tape.Tape) {
		i.addNext = 0
		i.t = TagEnd
		return TagEnd
	}
	v := i.tape.Tape[i.off]
	i.cur = v & jsonValueMask
	i.t = Tag(v >> 56)
	i.off++
	i.calcNext(true)
	if i.addNext < 0 {
		i.moveToEnd()
		return TagEnd
	}
	return i.t
}

func (i *Iter) moveToEnd() {
	i.off = len(i.tape.Tape)
	i.addNext = 0
	i.t = TagEnd
}

func (i *Iter) calcNext(into bool) {
	i.addNext = 0
	switch i.t {
	case TagInteger, TagUint, TagFloat, TagString:
		i.addNext = 1
	case TagRoot, TagObjectStart, TagArrayStart:
		if !into {
			i.addNext = int(i.cur) - i.off
		}
	}
}

// Type returns the type queued by the previous Advance/AdvanceInto call.
func (i *Iter) Type() Type {
	if i.off+i.addNext > len(i.tape.Tape) {
		return TypeNone
	}
	return TagToType[i.t]
}

// PeekNext returns the type of the next value without consuming it.
func (i *Iter) PeekNext() Type {
	if i.off+i.addNext >= len(i.tape.Tape) {
		return TypeNone
	}
	return TagToType[Tag(i.tape.Tape[i.off+i.addNext]>>56)]
}

// PeekNextTag returns the tag of the next value without consuming it.
func (i *Iter) PeekNextTag() Tag {
	if i.off+i.addNext >= len(i.tape.Tape) {
		return TagEnd
	}
	return Tag(i.tape.Tape[i.off+i.addNext] >> 56)
}

// AdvanceIter advances and returns an iterator restricted to the advanced
// element's own scope. If dst == i, i is overwritten in place.
func (i *Iter) AdvanceIter(dst *Iter) (Type, error) {
	i.off += i.addNext
	if i.off == len(i.tape.Tape) {
		i.addNext = 0
		i.t = TagEnd
		return TypeNone, nil
	}
	if i.off > len(i.tape.Tape) {
		return TypeNone, errors.New("offset beyond tape")
	}
	v := i.tape.Tape[i.off]
	i.cur = v & jsonValueMask
	i.t = Tag(v >> 56)
	i.off++
	i.calcNext(false)
	if i.addNext < 0 {
		i.moveToEnd()
		return TypeNone, errors.New("element has negative offset")
	}
	iEnd := i.off + i.addNext
	typ := TagToType[i.t]
	if i != dst {
		*dst = *i
	}
	dst.calcNext(true)
	if dst.addNext < 0 {
		i.moveToEnd()
		return TypeNone, errors.New("element has negative offset")
	}
	if iEnd > len(dst.tape.Tape) {
		return TypeNone, errors.New("element extends beyond tape")
	}
	dst.tape.Tape = dst.tape.Tape[:iEnd]
	return typ, nil
}

// Float returns the float value of the queued element. Integers convert.
func (i *Iter) Float() (float64, error) {
	switch i.t {
	case TagFloat:
		return math.Float64frombits(i.tape.Tape[i.off]), nil
	case TagInteger:
		return float64(int64(i.tape.Tape[i.off])), nil
	case TagUint:
		return float64(i.tape.Tape[i.off]), nil
	default:
		return 0, fmt.Errorf("cannot convert %v to float", i.t)
	}
}

// FloatText returns the original source text of a float, when preserved.
func (i *Iter) FloatText() (string, bool) {
	if i.t != TagFloat || i.tape.FloatText == nil {
		return "", false
	}
	s, ok := i.tape.FloatText[i.off-1]
	return s, ok
}

// Int returns the integer value of the queued element.
func (i *Iter) Int() (int64, error) {
	switch i.t {
	case TagInteger:
		return int64(i.tape.Tape[i.off]), nil
	case TagUint:
		v := i.tape.Tape[i.off]
		if v > math.MaxInt64 {
			return 0, errors.New("unsigned value overflows int64")
		}
		return int64(v), nil
	case TagFloat:
		v := math.Float64frombits(i.tape.Tape[i.off])
		if v > math.MaxInt64 || v < math.MinInt64 {
			return 0, errors.New("float value out of int64 range")
		}
		return int64(v), nil
	default:
		return 0, fmt.Errorf("cannot convert %v to int", i.t)
	}
}

// String returns the queued string's value.
func (i *Iter) String() (string, error) {
	if i.t != TagString {
		return "", errors.New("value is not a string")
	}
	return i.tape.stringAt(i.cur, i.tape.Tape[i.off])
}

// StringBytes returns the queued string's raw bytes (no copy when possible).
func (i *Iter) StringBytes() ([]byte, error) {
	if i.t != TagString {
		return nil, errors.New("value is not a string")
	}
	return i.tape.stringByteAt(i.cur, i.tape.Tape[i.off])
}

// Bool returns the queued boolean value.
func (i *Iter) Bool() (bool, error) {
	switch i.t {
	case TagBoolTrue:
		return true, nil
	case TagBoolFalse:
		return false, nil
	}
	return false, fmt.Errorf("value is not bool, but %v", i.t)
}

// Tag returns the raw tag of the queued element.
func (i *Iter) Tag() Tag { return i.t }

// Object returns the queued element as an Object.
func (i *Iter) Object(dst *Object) (*Object, error) {
	if i.t != TagObjectStart {
		return nil, errors.New("next item is not an object")
	}
	end := i.cur
	if uint64(len(i.tape.Tape)) < end {
		return nil, errors.New("corrupt tape: object extends beyond tape")
	}
	if dst == nil {
		dst = &Object{}
	}
	dst.tape.Tape = i.tape.Tape[:end]
	dst.tape.Strings = i.tape.Strings
	dst.tape.Message = i.tape.Message
	dst.tape.FloatText = i.tape.FloatText
	dst.off = i.off
	return dst, nil
}

// Array returns the queued element as an Array.
func (i *Iter) Array(dst *Array) (*Array, error) {
	if i.t != TagArrayStart {
		return nil, errors.New("next item is not an array")
	}
	end := i.cur
	if uint64(len(i.tape.Tape)) < end {
		return nil, errors.New("corrupt tape: array extends beyond tape")
	}
	if dst == nil {
		dst = &Array{}
	}
	dst.tape.Tape = i.tape.Tape[:end]
	dst.tape.Strings = i.tape.Strings
	dst.tape.Message = i.tape.Message
	dst.tape.FloatText = i.tape.FloatText
	dst.off = i.off
	return dst, nil
}

// Root descends into a root element (used for NDJSON documents on a shared
// tape where each line is wrapped in its own root tag).
func (i *Iter) Root(dst *Iter) (Type, *Iter, error) {
	if i.t != TagRoot {
		return TypeNone, dst, errors.New("value is not root")
	}
	if i.cur > uint64(len(i.tape.Tape)) {
		return TypeNone, dst, errors.New("root element extends beyond tape")
	}
	if dst == nil {
		c := *i
		dst = &c
	} else {
		dst.cur = i.cur
		dst.off = i.off
		dst.t = i.t
		dst.tape.Strings = i.tape.Strings
		dst.tape.Message = i.tape.Message
		dst.tape.FloatText = i.tape.FloatText
	}
	dst.addNext = 0
	dst.tape.Tape = i.tape.Tape[:i.cur-1]
	return dst.AdvanceInto().Type(), dst, nil
}

// Interface decodes the queued element into a plain Go value:
// map[string]interface{}, []interface{}, string, int64, uint64, float64,
// bool or nil.
func (i *Iter) Interface() (interface{}, error) {
	switch i.t.Type() {
	case TypeUint:
		return i.Uint()
	case TypeInt:
		return i.Int()
	case TypeFloat:
		return i.Float()
	case TypeNull:
		return nil, nil
	case TypeBool:
		return i.t == TagBoolTrue, nil
	case TypeString:
		return i.String()
	case TypeArray:
		arr, err := i.Array(nil)
		if err != nil {
			return nil, err
		}
		return arr.Interface()
	case TypeObject:
		obj, err := i.Object(nil)
		if err != nil {
			return nil, err
		}
		return obj.Map(nil)
	default:
		return nil, fmt.Errorf("unsupported tag for Interface(): %v", i.t)
	}
}

// Uint returns the unsigned integer value of the queued element.
func (i *Iter) Uint() (uint64, error) {
	switch i.t {
	case TagUint:
		return i.tape.Tape[i.off], nil
	case TagInteger:
		v := int64(i.tape.Tape[i.off])
		if v < 0 {
			return 0, errors.New("integer value is negative, cannot convert to uint")
		}
		return uint64(v), nil
	case TagFloat:
		v := math.Float64frombits(i.tape.Tape[i.off])
		if v < 0 {
			return 0, errors.New("float value is negative, cannot convert to uint")
		}
		return uint64(v), nil
	default:
		return 0, fmt.Errorf("cannot convert %v to uint", i.t)
	}
}

// AppendFloat appends a float64 to dst using shortest-round-trip formatting,
// matching the reference implementation's ES6-style number printer.
func AppendFloat(dst []byte, f float64) ([]byte, error) {
	if math.IsInf(f, 0) || math.IsNaN(f) {
		return nil, errors.New("INF or NaN number found")
	}
	abs := math.Abs(f)
	format := byte('f')
	if abs != 0 && (abs < 1e-6 || abs >= 1e21) {
		format = 'e'
	}
	dst = strconv.AppendFloat(dst, f, format, -1, 64)
	if format == 'e' {
		n := len(dst)
		if n >= 4 && dst[n-4] == 'e' && dst[n-3] == '-' && dst[n-2] == '0' {
			dst[n-2] = dst[n-1]
			dst = dst[:n-1]
		}
	}
	return dst, nil
}

// escapeBytes escapes control characters and quotes for JSON string output.
func escapeBytes(dst, src []byte) []byte {
	for _, s := range src {
		switch s {
		case '\b':
			dst = append(dst, '\\', 'b')
		case '\f':
			dst = append(dst, '\\', 'f')
		case '\n':
			dst = append(dst, '\\', 'n')
		case '\r':
			dst = append(dst, '\\', 'r')
		case '"':
			dst = append(dst, '\\', '"')
		case '\t':
			dst = append(dst, '\\', 't')
		case '\\':
			dst = append(dst, '\\', '\\')
		default:
			if s <= 0x1f {
				dst = append(dst, '\\', 'u', '0', '0', hexDigit[s>>4], hexDigit[s&0xf])
			} else {
				dst = append(dst, s)
			}
		}
	}
	return dst
}

var hexDigit = [16]byte{'0', '1', '2', '3', '4', '5', '6', '7', '8', '9', 'a', 'b', 'c', 'd', 'e', 'f'}
