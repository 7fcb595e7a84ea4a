package eval

import (
	"fmt"
	"sort"
	"strings"

	"github.com/simdjq/simdjq/internal/parser"
	"github.com/simdjq/simdjq/internal/value"
)

func indexField(v value.Value, key string) (value.Value, error) {
	switch v.Kind() {
	case value.KindNull:
		return value.Null, nil
	case value.KindObject:
		obj, _ := v.Object()
		val, ok := obj.Get(key)
		if !ok {
			return value.Null, nil
		}
		return val, nil
	default:
		return value.Value{}, NewError("cannot index %s with %q", v.TypeName(), key)
	}
}

func indexValue(base, idx value.Value) (value.Value, error) {
	if idx.Kind() == value.KindString {
		key, _ := idx.AsString()
		return indexField(base, key)
	}
	if base.IsNull() {
		return value.Null, nil
	}
	switch base.Kind() {
	case value.KindArray:
		i, ok := idx.AsInt()
		if !ok {
			return value.Value{}, NewError("cannot index array with %s", idx.TypeName())
		}
		arr, _ := base.Array()
		if i < 0 {
			i += int64(arr.Len())
		}
		if i < 0 || i >= int64(arr.Len()) {
			return value.Null, nil
		}
		return arr.At(int(i)), nil
	case value.KindObject:
		if idx.Kind() == value.KindArray {
			return indexObjectBySelector(base, idx)
		}
		return value.Value{}, NewError("cannot index object with %s", idx.TypeName())
	default:
		return value.Value{}, NewError("cannot index %s with %s", base.TypeName(), idx.TypeName())
	}
}

// indexObjectBySelector implements `getpath`-style indexing of an object
// by an array key via `.[["a","b"]]`-less paths; jq only allows this for
// `has`/`in`, so this simply reports the type error getpath itself would.
func indexObjectBySelector(base, idx value.Value) (value.Value, error) {
	return value.Value{}, NewError("cannot index %s with %s", base.TypeName(), idx.TypeName())
}

func sliceValue(base, loV, hiV value.Value) (value.Value, error) {
	if base.IsNull() {
		return value.Null, nil
	}
	switch base.Kind() {
	case value.KindArray:
		arr, _ := base.Array()
		lo, hi := sliceBounds(loV, hiV, arr.Len())
		return value.NewArray(arr.Slice(lo, hi).Items()), nil
	case value.KindString:
		s, _ := base.AsString()
		runes := []rune(s)
		lo, hi := sliceBounds(loV, hiV, len(runes))
		return value.String(string(runes[lo:hi])), nil
	default:
		return value.Value{}, NewError("cannot slice %s", base.TypeName())
	}
}

func sliceBounds(loV, hiV value.Value, n int) (int, int) {
	lo, hi := 0, n
	if f, ok := loV.AsFloat(); ok {
		lo = clampIndex(int(f), n)
	}
	if f, ok := hiV.AsFloat(); ok {
		hi = clampIndex(int(f), n)
	}
	if hi < lo {
		hi = lo
	}
	return lo, hi
}

func clampIndex(i, n int) int {
	if i < 0 {
		i += n
	}
	if i < 0 {
		return 0
	}
	if i > n {
		return n
	}
	return i
}

func negate(v value.Value) (value.Value, error) {
	switch v.Kind() {
	case value.KindInt:
		i, _ := v.AsInt()
		return value.Int(-i), nil
	case value.KindDouble:
		f, _ := v.AsFloat()
		if txt, ok := v.SourceText(); ok {
			if txt[0] == '-' {
				return value.DoubleText(-f, txt[1:]), nil
			}
			return value.DoubleText(-f, "-"+txt), nil
		}
		return value.Double(-f), nil
	default:
		return value.Value{}, NewError("%s cannot be negated", v.TypeName())
	}
}

// ApplyBinOpExported exposes applyBinOp to other packages -- specifically
// the flat-token evaluator tier, which specializes binary operators between
// two already-navigated scalars without going through a full Eval call.
func ApplyBinOpExported(op string, l, r value.Value) (value.Value, error) {
	return applyBinOp(op, l, r)
}

func applyBinOp(op string, l, r value.Value) (value.Value, error) {
	switch op {
	case "==":
		return value.Bool(value.Equal(l, r)), nil
	case "!=":
		return value.Bool(!value.Equal(l, r)), nil
	case "<":
		return value.Bool(value.Compare(l, r) < 0), nil
	case "<=":
		return value.Bool(value.Compare(l, r) <= 0), nil
	case ">":
		return value.Bool(value.Compare(l, r) > 0), nil
	case ">=":
		return value.Bool(value.Compare(l, r) >= 0), nil
	case "+":
		return add(l, r)
	case "-":
		return sub(l, r)
	case "*":
		return mul(l, r)
	case "/":
		return div(l, r)
	case "%":
		return mod(l, r)
	}
	return value.Value{}, fmt.Errorf("unknown operator %q", op)
}

func add(l, r value.Value) (value.Value, error) {
	if l.IsNull() {
		return r, nil
	}
	if r.IsNull() {
		return l, nil
	}
	switch {
	case l.Kind() == value.KindInt && r.Kind() == value.KindInt:
		li, _ := l.AsInt()
		ri, _ := r.AsInt()
		return value.Int(li + ri), nil
	case isNumber(l) && isNumber(r):
		lf, _ := l.AsFloat()
		rf, _ := r.AsFloat()
		return value.Double(lf + rf), nil
	case l.Kind() == value.KindString && r.Kind() == value.KindString:
		ls, _ := l.AsString()
		rs, _ := r.AsString()
		return value.String(ls + rs), nil
	case l.Kind() == value.KindArray && r.Kind() == value.KindArray:
		la, _ := l.Array()
		ra, _ := r.Array()
		out := make([]value.Value, 0, la.Len()+ra.Len())
		out = append(out, la.Items()...)
		out = append(out, ra.Items()...)
		return value.NewArray(out), nil
	case l.Kind() == value.KindObject && r.Kind() == value.KindObject:
		lo, _ := l.Object()
		ro, _ := r.Object()
		merged := lo.Unique()
		ro.Each(func(k string, v value.Value) bool {
			merged = merged.Set(k, v)
			return true
		})
		return value.NewObject(merged), nil
	default:
		return value.Value{}, NewError("%s and %s cannot be added", l.TypeName(), r.TypeName())
	}
}

func sub(l, r value.Value) (value.Value, error) {
	switch {
	case isNumber(l) && isNumber(r):
		if l.Kind() == value.KindInt && r.Kind() == value.KindInt {
			li, _ := l.AsInt()
			ri, _ := r.AsInt()
			return value.Int(li - ri), nil
		}
		lf, _ := l.AsFloat()
		rf, _ := r.AsFloat()
		return value.Double(lf - rf), nil
	case l.Kind() == value.KindArray && r.Kind() == value.KindArray:
		la, _ := l.Array()
		ra, _ := r.Array()
		var out []value.Value
		for _, item := range la.Items() {
			found := false
			for _, rm := range ra.Items() {
				if value.Equal(item, rm) {
					found = true
					break
				}
			}
			if !found {
				out = append(out, item)
			}
		}
		return value.NewArray(out), nil
	default:
		return value.Value{}, NewError("%s and %s cannot be subtracted", l.TypeName(), r.TypeName())
	}
}

func mul(l, r value.Value) (value.Value, error) {
	switch {
	case isNumber(l) && isNumber(r):
		if l.Kind() == value.KindInt && r.Kind() == value.KindInt {
			li, _ := l.AsInt()
			ri, _ := r.AsInt()
			return value.Int(li * ri), nil
		}
		lf, _ := l.AsFloat()
		rf, _ := r.AsFloat()
		return value.Double(lf * rf), nil
	case l.Kind() == value.KindString && isNumber(r):
		return repeatString(l, r)
	case r.Kind() == value.KindString && isNumber(l):
		return repeatString(r, l)
	case l.Kind() == value.KindObject && r.Kind() == value.KindObject:
		return deepMergeObjects(l, r)
	default:
		return value.Value{}, NewError("%s and %s cannot be multiplied", l.TypeName(), r.TypeName())
	}
}

func repeatString(s, n value.Value) (value.Value, error) {
	str, _ := s.AsString()
	count, _ := n.AsFloat()
	if count <= 0 {
		return value.Null, nil
	}
	return value.String(strings.Repeat(str, int(count))), nil
}

func deepMergeObjects(l, r value.Value) (value.Value, error) {
	lo, _ := l.Object()
	ro, _ := r.Object()
	merged := lo.Unique()
	var mergeErr error
	ro.Each(func(k string, rv value.Value) bool {
		if lv, ok := merged.Get(k); ok && lv.Kind() == value.KindObject && rv.Kind() == value.KindObject {
			mv, err := deepMergeObjects(lv, rv)
			if err != nil {
				mergeErr = err
				return false
			}
			merged = merged.Set(k, mv)
			return true
		}
		merged = merged.Set(k, rv)
		return true
	})
	if mergeErr != nil {
		return value.Value{}, mergeErr
	}
	return value.NewObject(merged), nil
}

func div(l, r value.Value) (value.Value, error) {
	switch {
	case isNumber(l) && isNumber(r):
		rf, _ := r.AsFloat()
		if rf == 0 {
			return value.Value{}, NewError("%s and %s cannot be divided because the divisor is zero", l.TypeName(), r.TypeName())
		}
		lf, _ := l.AsFloat()
		return value.Double(lf / rf), nil
	case l.Kind() == value.KindString && r.Kind() == value.KindString:
		ls, _ := l.AsString()
		rs, _ := r.AsString()
		var out []value.Value
		if rs == "" {
			for _, ch := range strings.Split(ls, "") {
				out = append(out, value.String(ch))
			}
		} else {
			for _, part := range strings.Split(ls, rs) {
				out = append(out, value.String(part))
			}
		}
		return value.NewArray(out), nil
	default:
		return value.Value{}, NewError("%s and %s cannot be divided", l.TypeName(), r.TypeName())
	}
}

func mod(l, r value.Value) (value.Value, error) {
	if !isNumber(l) || !isNumber(r) {
		return value.Value{}, NewError("%s and %s cannot be divided", l.TypeName(), r.TypeName())
	}
	ri, _ := r.AsInt()
	if ri == 0 {
		return value.Value{}, NewError("%s and %s cannot be divided because the divisor is zero", l.TypeName(), r.TypeName())
	}
	li, _ := l.AsInt()
	m := li % absInt64(ri)
	return value.Int(m), nil
}

func absInt64(v int64) int64 {
	if v < 0 {
		return -v
	}
	return v
}

func isNumber(v value.Value) bool {
	return v.Kind() == value.KindInt || v.Kind() == value.KindDouble
}

// ToStringForInterpolation renders v as text the way `"\(E)"` does: strings
// pass through unchanged, everything else is JSON-encoded.
func ToStringForInterpolation(v value.Value) (string, error) {
	if v.Kind() == value.KindString {
		s, _ := v.AsString()
		return s, nil
	}
	return ToJSONText(v, false, false)
}

// ToJSONText renders v as compact JSON text or, when pretty is set, as JSON
// indented by two spaces per level; there is no tab or other indent width.
func ToJSONText(v value.Value, sortKeys bool, pretty bool) (string, error) {
	var sb strings.Builder
	if err := writeJSON(&sb, v, sortKeys, pretty, 0); err != nil {
		return "", err
	}
	return sb.String(), nil
}

func writeJSON(sb *strings.Builder, v value.Value, sortKeys, pretty bool, depth int) error {
	switch v.Kind() {
	case value.KindNull:
		sb.WriteString("null")
	case value.KindBool:
		if v.AsBool() {
			sb.WriteString("true")
		} else {
			sb.WriteString("false")
		}
	case value.KindInt:
		i, _ := v.AsInt()
		sb.WriteString(fmt.Sprintf("%d", i))
	case value.KindDouble:
		if txt, ok := v.SourceText(); ok {
			sb.WriteString(txt)
			return nil
		}
		f, _ := v.AsFloat()
		sb.WriteString(formatFloat(f))
	case value.KindString:
		s, _ := v.AsString()
		sb.WriteString(quoteJSON(s))
	case value.KindArray:
		arr, _ := v.Array()
		sb.WriteByte('[')
		for i := 0; i < arr.Len(); i++ {
			if i > 0 {
				sb.WriteByte(',')
			}
			writeIndent(sb, pretty, depth+1)
			if err := writeJSON(sb, arr.At(i), sortKeys, pretty, depth+1); err != nil {
				return err
			}
		}
		if arr.Len() > 0 {
			writeIndent(sb, pretty, depth)
		}
		sb.WriteByte(']')
	case value.KindObject:
		obj, _ := v.Object()
		keys := obj.KeysUnsorted()
		if sortKeys {
			keys = append([]string(nil), keys...)
			sort.Strings(keys)
		}
		sb.WriteByte('{')
		for i, k := range keys {
			if i > 0 {
				sb.WriteByte(',')
			}
			writeIndent(sb, pretty, depth+1)
			sb.WriteString(quoteJSON(k))
			sb.WriteByte(':')
			if pretty {
				sb.WriteByte(' ')
			}
			val, _ := obj.Get(k)
			if err := writeJSON(sb, val, sortKeys, pretty, depth+1); err != nil {
				return err
			}
		}
		if len(keys) > 0 {
			writeIndent(sb, pretty, depth)
		}
		sb.WriteByte('}')
	}
	return nil
}

func writeIndent(sb *strings.Builder, pretty bool, depth int) {
	if !pretty {
		return
	}
	sb.WriteByte('\n')
	for i := 0; i < depth; i++ {
		sb.WriteString("  ")
	}
}

func quoteJSON(s string) string {
	var sb strings.Builder
	sb.WriteByte('"')
	for _, r := range s {
		switch r {
		case '"':
			sb.WriteString(`\"`)
		case '\\':
			sb.WriteString(`\\`)
		case '\n':
			sb.WriteString(`\n`)
		case '\t':
			sb.WriteString(`\t`)
		case '\r':
			sb.WriteString(`\r`)
		default:
			if r < 0x20 {
				sb.WriteString(fmt.Sprintf(`\u%04x`, r))
			} else {
				sb.WriteRune(r)
			}
		}
	}
	sb.WriteByte('"')
	return sb.String()
}

func formatFloat(f float64) string {
	out, err := parser.AppendFloat(nil, f)
	if err != nil {
		return "null"
	}
	return string(out)
}
