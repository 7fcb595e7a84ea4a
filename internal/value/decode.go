package value

import (
	"fmt"

	"github.com/simdjq/simdjq/internal/parser"
)

// Decode materializes the value queued on it into a Value tree. This is
// the boundary every fallback path crosses: the flat-token evaluator calls
// it only for the subset of an expression it cannot evaluate lazily, and
// the value-tree evaluator calls it once per input document.
func Decode(it *parser.Iter) (Value, error) {
	switch it.Tag() {
	case parser.TagNull:
		return Null, nil
	case parser.TagBoolTrue:
		return Bool(true), nil
	case parser.TagBoolFalse:
		return Bool(false), nil
	case parser.TagInteger:
		i, err := it.Int()
		if err != nil {
			return Value{}, err
		}
		return Int(i), nil
	case parser.TagUint:
		u, err := it.Uint()
		if err != nil {
			return Value{}, err
		}
		if u > 1<<63-1 {
			return Double(float64(u)), nil
		}
		return Int(int64(u)), nil
	case parser.TagFloat:
		f, err := it.Float()
		if err != nil {
			return Value{}, err
		}
		if text, ok := it.FloatText(); ok {
			return DoubleText(f, text), nil
		}
		return Double(f), nil
	case parser.TagString:
		s, err := it.String()
		if err != nil {
			return Value{}, err
		}
		return String(s), nil
	case parser.TagArrayStart:
		arr, err := it.Array(nil)
		if err != nil {
			return Value{}, err
		}
		items := make([]Value, 0, arr.Len())
		var decodeErr error
		arr.ForEach(func(elem *parser.Iter) bool {
			v, err := Decode(elem)
			if err != nil {
				decodeErr = err
				return false
			}
			items = append(items, v)
			return true
		})
		if decodeErr != nil {
			return Value{}, decodeErr
		}
		return NewArray(items), nil
	case parser.TagObjectStart:
		obj, err := it.Object(nil)
		if err != nil {
			return Value{}, err
		}
		dst := NewEmptyObject()
		var decodeErr error
		obj.ForEach(func(key string, elem *parser.Iter) bool {
			v, err := Decode(elem)
			if err != nil {
				decodeErr = err
				return false
			}
			dst = dst.Set(key, v)
			return true
		})
		if decodeErr != nil {
			return Value{}, decodeErr
		}
		return NewObject(dst), nil
	default:
		return Value{}, fmt.Errorf("cannot decode tag %v", it.Tag())
	}
}

// DecodeDocument decodes the root value of a freshly parsed tape.
func DecodeDocument(t *parser.Tape) (Value, error) {
	it := t.Iter()
	it.Advance()
	return Decode(&it)
}
