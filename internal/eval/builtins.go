package eval

import (
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/simdjq/simdjq/internal/ast"
	"github.com/simdjq/simdjq/internal/value"
)

// evalFuncCall dispatches a `name(args...)` call: first against
// user/library `def`s visible in env, then against the builtin table. jq
// resolves user defs first so a filter can shadow a builtin.
func evalFuncCall(n *ast.Node, in value.Value, env *Env, emit Emit) error {
	if def, ok := env.lookupFunc(n.Str, len(n.Args)); ok {
		if err := env.root.enterCall(); err != nil {
			return err
		}
		defer env.root.exitCall()
		callEnv := def.closure
		for i, param := range def.params {
			if strings.HasPrefix(param, "$") {
				v, err := firstResult(n.Args[i], in, env)
				if err != nil {
					return err
				}
				callEnv = callEnv.withVar(param[1:], v)
			} else {
				callEnv = callEnv.withFunc(funcKey(param, 0), &funcDef{body: n.Args[i], closure: env})
			}
		}
		return Eval(def.body, in, callEnv, emit)
	}
	if fn, ok := builtins0[n.Str]; ok && len(n.Args) == 0 {
		return fn(in, env, emit)
	}
	if fn, ok := builtinsN[funcKey(n.Str, len(n.Args))]; ok {
		return fn(n.Args, in, env, emit)
	}
	return NewError("%s/%d is not defined", n.Str, len(n.Args))
}

type builtin0 func(in value.Value, env *Env, emit Emit) error
type builtinN func(args []*ast.Node, in value.Value, env *Env, emit Emit) error

var builtins0 map[string]builtin0
var builtinsN map[string]builtinN

func init() {
	builtins0 = map[string]builtin0{
		"empty":              func(value.Value, *Env, Emit) error { return nil },
		"error":              biErrorNoArg,
		"not":                biNot,
		"length":             biLength,
		"utf8bytelength":     biUTF8ByteLength,
		"type":               biType,
		"keys":               biKeys(true),
		"keys_unsorted":      biKeys(false),
		"values":             biValues,
		"add":                biAdd,
		"any":                biAnyAll(true),
		"all":                biAnyAll(false),
		"flatten":            biFlatten(math.MaxInt32),
		"min":                biMinMax(true),
		"max":                biMinMax(false),
		"unique":             biUnique,
		"reverse":            biReverse,
		"sort":               biSort,
		"to_entries":         biToEntries,
		"from_entries":       biFromEntries,
		"tostring":           biToString,
		"tonumber":           biToNumber,
		"ascii_downcase":     biASCIICase(false),
		"ascii_upcase":       biASCIICase(true),
		"explode":            biExplode,
		"implode":            biImplode,
		"floor":              biMathRound(math.Floor),
		"ceil":               biMathRound(math.Ceil),
		"round":              biMathRound(math.Round),
		"sqrt":               biMathUnary(math.Sqrt),
		"fabs":               biMathUnary(math.Abs),
		"exp":                biMathUnary(math.Exp),
		"log":                biMathUnary(math.Log),
		"log2":               biMathUnary(math.Log2),
		"log10":              biMathUnary(math.Log10),
		"pow10":              biMathUnary(func(f float64) float64 { return math.Pow(10, f) }),
		"paths":              biPaths(false),
		"leaf_paths":         biPaths(true),
		"input_line_number":  func(in value.Value, env *Env, emit Emit) error { return emit(value.Int(0)) },
		"now":                biNow,
		"env":                biEnv,
		"input":              biInput,
		"inputs":             biInputs,
		"recurse":            func(in value.Value, env *Env, emit Emit) error { return recurseAll(in, emit) },
		"infinite":           func(in value.Value, env *Env, emit Emit) error { return emit(value.Double(math.Inf(1))) },
		"nan":                func(in value.Value, env *Env, emit Emit) error { return emit(value.Double(math.NaN())) },
		"isinfinite":         biIsInfinite,
		"isnan":              biIsNaN,
		"isnormal":           biIsNormal,
		"__loc__": func(in value.Value, env *Env, emit Emit) error {
			o := value.NewEmptyObject()
			o = o.Set("file", value.String("<stdin>"))
			o = o.Set("line", value.Int(1))
			return emit(value.NewObject(o))
		},
		"debug": biDebugNoArg,
	}

	builtinsN = map[string]builtinN{
		funcKey("error", 1):        biError1,
		funcKey("select", 1):       biSelect,
		funcKey("map", 1):          biMap,
		funcKey("map_values", 1):   biMapValues,
		funcKey("has", 1):          biHas,
		funcKey("in", 1):           biIn,
		funcKey("contains", 1):     biContains,
		funcKey("inside", 1):       biInside,
		funcKey("any", 2):          biAnyAllBinder(true),
		funcKey("all", 2):          biAnyAllBinder(false),
		funcKey("range", 1):        biRange1,
		funcKey("range", 2):        biRange2,
		funcKey("range", 3):        biRange3,
		funcKey("flatten", 1):      biFlattenArg,
		funcKey("min_by", 1):       biMinMaxBy(true),
		funcKey("max_by", 1):       biMinMaxBy(false),
		funcKey("sort_by", 1):      biSortBy,
		funcKey("group_by", 1):     biGroupBy,
		funcKey("unique_by", 1):    biUniqueBy,
		funcKey("with_entries", 1): biWithEntries,
		funcKey("ltrimstr", 1):     biTrimStr(true),
		funcKey("rtrimstr", 1):     biTrimStr(false),
		funcKey("startswith", 1):   biStartsEndsWith(true),
		funcKey("endswith", 1):     biStartsEndsWith(false),
		funcKey("split", 1):        biSplit1,
		funcKey("split", 2):        biSplit2,
		funcKey("join", 1):         biJoin,
		funcKey("splits", 1):       biSplits1,
		funcKey("splits", 2):       biSplits2,
		funcKey("test", 1):         biRegexBool(1),
		funcKey("test", 2):         biRegexBool(2),
		funcKey("match", 1):        biRegexMatch(1),
		funcKey("match", 2):        biRegexMatch(2),
		funcKey("capture", 1):      biRegexCapture(1),
		funcKey("capture", 2):      biRegexCapture(2),
		funcKey("scan", 1):         biRegexScan(1),
		funcKey("scan", 2):         biRegexScan(2),
		funcKey("sub", 2):          biSubGsub(false, 2),
		funcKey("sub", 3):          biSubGsub(false, 3),
		funcKey("gsub", 2):         biSubGsub(true, 2),
		funcKey("gsub", 3):         biSubGsub(true, 3),
		funcKey("getpath", 1):      biGetPath,
		funcKey("setpath", 2):      biSetPath,
		funcKey("delpaths", 1):     biDelPaths,
		funcKey("del", 1):          biDel,
		funcKey("path", 1):         biPath,
		funcKey("limit", 2):        biLimit,
		funcKey("first", 1):        biFirstOf,
		funcKey("last", 1):         biLastOf,
		funcKey("until", 2):        biUntil,
		funcKey("while", 2):        biWhile,
		funcKey("repeat", 1):       biRepeat,
		funcKey("indices", 1):      biIndices,
		funcKey("index", 1):        biIndex,
		funcKey("rindex", 1):       biRindex,
		funcKey("ascii", 1):        biASCIIChar,
		funcKey("debug", 1):        biDebug1,
		funcKey("recurse", 1):      biRecurse1,
		funcKey("recurse", 2):      biRecurse2,
	}
}

// biRecurse1 implements `recurse(f)`: emit ., then recurse(f) on every
// output of f applied to ., stopping on f producing nothing or erroring.
func biRecurse1(args []*ast.Node, in value.Value, env *Env, emit Emit) error {
	if err := env.root.step(); err != nil {
		return err
	}
	if err := emit(in); err != nil {
		return err
	}
	return Eval(args[0], in, env, func(v value.Value) error {
		return biRecurse1(args, v, env, emit)
	})
}

// biRecurse2 implements `recurse(f; cond)`: like recurse(f) but only
// descends into outputs for which cond is true.
func biRecurse2(args []*ast.Node, in value.Value, env *Env, emit Emit) error {
	if err := env.root.step(); err != nil {
		return err
	}
	if err := emit(in); err != nil {
		return err
	}
	return Eval(args[0], in, env, func(v value.Value) error {
		keep := false
		if err := Eval(args[1], v, env, func(c value.Value) error {
			keep = c.Truthy()
			return stopIteration{}
		}); err != nil {
			if _, ok := err.(stopIteration); !ok {
				return err
			}
		}
		if !keep {
			return nil
		}
		return biRecurse2(args, v, env, emit)
	})
}

func biErrorNoArg(in value.Value, env *Env, emit Emit) error {
	if s, ok := in.AsString(); ok {
		return NewErrorValue(s, in)
	}
	txt, _ := ToJSONText(in, false, false)
	return NewErrorValue(txt+" (not a string)", in)
}

func biError1(args []*ast.Node, in value.Value, env *Env, emit Emit) error {
	return Eval(args[0], in, env, func(v value.Value) error {
		if s, ok := v.AsString(); ok {
			return NewErrorValue(s, v)
		}
		txt, _ := ToJSONText(v, false, false)
		return NewErrorValue(txt, v)
	})
}

func biNot(in value.Value, env *Env, emit Emit) error { return emit(value.Bool(!in.Truthy())) }

func biLength(in value.Value, env *Env, emit Emit) error {
	v, err := in.Length()
	if err != nil {
		return NewError("%v", err)
	}
	return emit(v)
}

func biUTF8ByteLength(in value.Value, env *Env, emit Emit) error {
	s, ok := in.AsString()
	if !ok {
		return NewError("%s has no utf8 byte length", in.TypeName())
	}
	return emit(value.Int(int64(len(s))))
}

func biType(in value.Value, env *Env, emit Emit) error { return emit(value.String(in.TypeName())) }

func biKeys(sorted bool) builtin0 {
	return func(in value.Value, env *Env, emit Emit) error {
		switch in.Kind() {
		case value.KindObject:
			obj, _ := in.Object()
			var keys []string
			if sorted {
				keys = obj.SortedKeys()
			} else {
				keys = obj.KeysUnsorted()
			}
			out := make([]value.Value, len(keys))
			for i, k := range keys {
				out[i] = value.String(k)
			}
			return emit(value.NewArray(out))
		case value.KindArray:
			arr, _ := in.Array()
			out := make([]value.Value, arr.Len())
			for i := range out {
				out[i] = value.Int(int64(i))
			}
			return emit(value.NewArray(out))
		default:
			return NewError("%s has no keys", in.TypeName())
		}
	}
}

func biValues(in value.Value, env *Env, emit Emit) error {
	return iterateAll(in, emit)
}

func biAdd(in value.Value, env *Env, emit Emit) error {
	acc := value.Null
	err := iterateAll(in, func(v value.Value) error {
		var e error
		acc, e = add(acc, v)
		return e
	})
	if err != nil {
		return err
	}
	return emit(acc)
}

func biAnyAll(isAny bool) builtin0 {
	return func(in value.Value, env *Env, emit Emit) error {
		result := !isAny
		err := iterateAll(in, func(v value.Value) error {
			if v.Truthy() == isAny {
				result = isAny
				return stopIteration{}
			}
			return nil
		})
		if err != nil {
			if _, ok := err.(stopIteration); !ok {
				return err
			}
		}
		return emit(value.Bool(result))
	}
}

func biAnyAllBinder(isAny bool) builtinN {
	return func(args []*ast.Node, in value.Value, env *Env, emit Emit) error {
		result := !isAny
		err := Eval(args[0], in, env, func(item value.Value) error {
			return Eval(args[1], item, env, func(c value.Value) error {
				if c.Truthy() == isAny {
					result = isAny
					return stopIteration{}
				}
				return nil
			})
		})
		if err != nil {
			if _, ok := err.(stopIteration); !ok {
				return err
			}
		}
		return emit(value.Bool(result))
	}
}

func biFlatten(depth int) builtin0 {
	return func(in value.Value, env *Env, emit Emit) error {
		arr, ok := in.Array()
		if !ok {
			return NewError("%s cannot be flattened, as it is not an array", in.TypeName())
		}
		var out []value.Value
		flattenInto(arr.Items(), depth, &out)
		return emit(value.NewArray(out))
	}
}

func biFlattenArg(args []*ast.Node, in value.Value, env *Env, emit Emit) error {
	arr, ok := in.Array()
	if !ok {
		return NewError("%s cannot be flattened, as it is not an array", in.TypeName())
	}
	return Eval(args[0], in, env, func(d value.Value) error {
		depth, _ := d.AsInt()
		var out []value.Value
		flattenInto(arr.Items(), int(depth), &out)
		return emit(value.NewArray(out))
	})
}

func flattenInto(items []value.Value, depth int, out *[]value.Value) {
	for _, item := range items {
		if arr, ok := item.Array(); ok && depth > 0 {
			flattenInto(arr.Items(), depth-1, out)
		} else {
			*out = append(*out, item)
		}
	}
}

func biMinMax(isMin bool) builtin0 {
	return func(in value.Value, env *Env, emit Emit) error {
		arr, ok := in.Array()
		if !ok {
			return NewError("%s cannot be min/max'd", in.TypeName())
		}
		if arr.Len() == 0 {
			return emit(value.Null)
		}
		best := arr.At(0)
		for i := 1; i < arr.Len(); i++ {
			c := value.Compare(arr.At(i), best)
			if (isMin && c < 0) || (!isMin && c >= 0) {
				best = arr.At(i)
			}
		}
		return emit(best)
	}
}

func biMinMaxBy(isMin bool) builtinN {
	return func(args []*ast.Node, in value.Value, env *Env, emit Emit) error {
		arr, ok := in.Array()
		if !ok {
			return NewError("%s cannot be min/max'd", in.TypeName())
		}
		if arr.Len() == 0 {
			return emit(value.Null)
		}
		keys := make([]value.Value, arr.Len())
		for i := 0; i < arr.Len(); i++ {
			k, err := firstResult(args[0], arr.At(i), env)
			if err != nil {
				return err
			}
			keys[i] = k
		}
		best := 0
		for i := 1; i < arr.Len(); i++ {
			c := value.Compare(keys[i], keys[best])
			if (isMin && c < 0) || (!isMin && c >= 0) {
				best = i
			}
		}
		return emit(arr.At(best))
	}
}

func biUnique(in value.Value, env *Env, emit Emit) error {
	arr, ok := in.Array()
	if !ok {
		return NewError("%s cannot be sorted, as it is not an array", in.TypeName())
	}
	items := append([]value.Value(nil), arr.Items()...)
	sort.SliceStable(items, func(i, j int) bool { return value.Compare(items[i], items[j]) < 0 })
	var out []value.Value
	for i, v := range items {
		if i == 0 || !value.Equal(v, items[i-1]) {
			out = append(out, v)
		}
	}
	return emit(value.NewArray(out))
}

func biUniqueBy(args []*ast.Node, in value.Value, env *Env, emit Emit) error {
	arr, ok := in.Array()
	if !ok {
		return NewError("%s cannot be sorted, as it is not an array", in.TypeName())
	}
	type kv struct {
		k value.Value
		v value.Value
	}
	pairs := make([]kv, arr.Len())
	for i := 0; i < arr.Len(); i++ {
		k, err := firstResult(args[0], arr.At(i), env)
		if err != nil {
			return err
		}
		pairs[i] = kv{k: k, v: arr.At(i)}
	}
	sort.SliceStable(pairs, func(i, j int) bool { return value.Compare(pairs[i].k, pairs[j].k) < 0 })
	var out []value.Value
	for i, p := range pairs {
		if i == 0 || !value.Equal(p.k, pairs[i-1].k) {
			out = append(out, p.v)
		}
	}
	return emit(value.NewArray(out))
}

func biReverse(in value.Value, env *Env, emit Emit) error {
	switch in.Kind() {
	case value.KindArray:
		arr, _ := in.Array()
		items := arr.Items()
		out := make([]value.Value, len(items))
		for i, v := range items {
			out[len(items)-1-i] = v
		}
		return emit(value.NewArray(out))
	case value.KindString:
		s, _ := in.AsString()
		r := []rune(s)
		for i, j := 0, len(r)-1; i < j; i, j = i+1, j-1 {
			r[i], r[j] = r[j], r[i]
		}
		return emit(value.String(string(r)))
	default:
		return NewError("cannot reverse %s", in.TypeName())
	}
}

func biSort(in value.Value, env *Env, emit Emit) error {
	arr, ok := in.Array()
	if !ok {
		return NewError("%s cannot be sorted, as it is not an array", in.TypeName())
	}
	items := append([]value.Value(nil), arr.Items()...)
	sort.SliceStable(items, func(i, j int) bool { return value.Compare(items[i], items[j]) < 0 })
	return emit(value.NewArray(items))
}

func biSortBy(args []*ast.Node, in value.Value, env *Env, emit Emit) error {
	arr, ok := in.Array()
	if !ok {
		return NewError("%s cannot be sorted, as it is not an array", in.TypeName())
	}
	type kv struct {
		k value.Value
		v value.Value
	}
	pairs := make([]kv, arr.Len())
	for i := 0; i < arr.Len(); i++ {
		k, err := firstResult(args[0], arr.At(i), env)
		if err != nil {
			return err
		}
		pairs[i] = kv{k: k, v: arr.At(i)}
	}
	sort.SliceStable(pairs, func(i, j int) bool { return value.Compare(pairs[i].k, pairs[j].k) < 0 })
	out := make([]value.Value, len(pairs))
	for i, p := range pairs {
		out[i] = p.v
	}
	return emit(value.NewArray(out))
}

func biGroupBy(args []*ast.Node, in value.Value, env *Env, emit Emit) error {
	arr, ok := in.Array()
	if !ok {
		return NewError("%s cannot be grouped, as it is not an array", in.TypeName())
	}
	type kv struct {
		k value.Value
		v value.Value
	}
	pairs := make([]kv, arr.Len())
	for i := 0; i < arr.Len(); i++ {
		k, err := firstResult(args[0], arr.At(i), env)
		if err != nil {
			return err
		}
		pairs[i] = kv{k: k, v: arr.At(i)}
	}
	sort.SliceStable(pairs, func(i, j int) bool { return value.Compare(pairs[i].k, pairs[j].k) < 0 })
	var groups []value.Value
	var cur []value.Value
	for i, p := range pairs {
		if i > 0 && !value.Equal(p.k, pairs[i-1].k) {
			groups = append(groups, value.NewArray(cur))
			cur = nil
		}
		cur = append(cur, p.v)
	}
	if cur != nil {
		groups = append(groups, value.NewArray(cur))
	}
	return emit(value.NewArray(groups))
}

func biToEntries(in value.Value, env *Env, emit Emit) error {
	obj, ok := in.Object()
	if !ok {
		return NewError("%s has no keys", in.TypeName())
	}
	var out []value.Value
	for _, k := range obj.KeysUnsorted() {
		v, _ := obj.Get(k)
		e := value.NewEmptyObject()
		e = e.Set("key", value.String(k))
		e = e.Set("value", v)
		out = append(out, value.NewObject(e))
	}
	return emit(value.NewArray(out))
}

func biFromEntries(in value.Value, env *Env, emit Emit) error {
	arr, ok := in.Array()
	if !ok {
		return NewError("%s cannot be turned into entries", in.TypeName())
	}
	obj := value.NewEmptyObject()
	for i := 0; i < arr.Len(); i++ {
		entry := arr.At(i)
		key, err := entryKey(entry)
		if err != nil {
			return err
		}
		val, err := entryValue(entry)
		if err != nil {
			return err
		}
		obj = obj.Set(key, val)
	}
	return emit(value.NewObject(obj))
}

func entryKey(entry value.Value) (string, error) {
	eo, ok := entry.Object()
	if !ok {
		return "", NewError("cannot use %s as an entry", entry.TypeName())
	}
	for _, name := range []string{"key", "k", "name", "Name", "K", "Key"} {
		if v, ok := eo.Get(name); ok {
			if s, ok := v.AsString(); ok {
				return s, nil
			}
			return ToJSONText(v, false, false)
		}
	}
	return "null", nil
}

func entryValue(entry value.Value) (value.Value, error) {
	eo, ok := entry.Object()
	if !ok {
		return value.Value{}, NewError("cannot use %s as an entry", entry.TypeName())
	}
	for _, name := range []string{"value", "v", "Value", "V"} {
		if v, ok := eo.Get(name); ok {
			return v, nil
		}
	}
	return value.Null, nil
}

func biWithEntries(args []*ast.Node, in value.Value, env *Env, emit Emit) error {
	var entries value.Value
	got := false
	if err := biToEntries(in, env, func(v value.Value) error { entries = v; got = true; return nil }); err != nil {
		return err
	}
	if !got {
		return nil
	}
	arr, _ := entries.Array()
	var mapped []value.Value
	for i := 0; i < arr.Len(); i++ {
		if err := Eval(args[0], arr.At(i), env, func(v value.Value) error {
			mapped = append(mapped, v.Retain())
			return nil
		}); err != nil {
			return err
		}
	}
	return biFromEntries(value.NewArray(mapped), env, emit)
}

func biToString(in value.Value, env *Env, emit Emit) error {
	s, err := ToStringForInterpolation(in)
	if err != nil {
		return err
	}
	return emit(value.String(s))
}

func biToNumber(in value.Value, env *Env, emit Emit) error {
	if isNumber(in) {
		return emit(in)
	}
	s, ok := in.AsString()
	if !ok {
		return NewError("cannot parse %s as number", in.TypeName())
	}
	if i, err := strconv.ParseInt(s, 10, 64); err == nil {
		return emit(value.Int(i))
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return NewError("%q is not a valid number", s)
	}
	return emit(value.Double(f))
}

func biASCIICase(upper bool) builtin0 {
	return func(in value.Value, env *Env, emit Emit) error {
		s, ok := in.AsString()
		if !ok {
			return NewError("%s is not a string", in.TypeName())
		}
		out := make([]byte, len(s))
		for i := 0; i < len(s); i++ {
			c := s[i]
			if upper && c >= 'a' && c <= 'z' {
				c -= 32
			} else if !upper && c >= 'A' && c <= 'Z' {
				c += 32
			}
			out[i] = c
		}
		return emit(value.String(string(out)))
	}
}

func biExplode(in value.Value, env *Env, emit Emit) error {
	s, ok := in.AsString()
	if !ok {
		return NewError("%s is not a string", in.TypeName())
	}
	var out []value.Value
	for _, r := range s {
		out = append(out, value.Int(int64(r)))
	}
	return emit(value.NewArray(out))
}

func biImplode(in value.Value, env *Env, emit Emit) error {
	arr, ok := in.Array()
	if !ok {
		return NewError("%s cannot be imploded", in.TypeName())
	}
	var sb strings.Builder
	for i := 0; i < arr.Len(); i++ {
		cp, ok := arr.At(i).AsInt()
		if !ok {
			return NewError("implode input must be an array of codepoints")
		}
		sb.WriteRune(rune(cp))
	}
	return emit(value.String(sb.String()))
}

func biMathRound(fn func(float64) float64) builtin0 {
	return func(in value.Value, env *Env, emit Emit) error {
		f, ok := in.AsFloat()
		if !ok {
			return NewError("%s is not a number", in.TypeName())
		}
		return emit(value.Double(fn(f)))
	}
}

func biMathUnary(fn func(float64) float64) builtin0 {
	return func(in value.Value, env *Env, emit Emit) error {
		f, ok := in.AsFloat()
		if !ok {
			return NewError("%s is not a number", in.TypeName())
		}
		return emit(value.Double(fn(f)))
	}
}

func biIsInfinite(in value.Value, env *Env, emit Emit) error {
	f, ok := in.AsFloat()
	return emit(value.Bool(ok && math.IsInf(f, 0)))
}
func biIsNaN(in value.Value, env *Env, emit Emit) error {
	f, ok := in.AsFloat()
	return emit(value.Bool(ok && math.IsNaN(f)))
}
func biIsNormal(in value.Value, env *Env, emit Emit) error {
	f, ok := in.AsFloat()
	return emit(value.Bool(ok && !math.IsNaN(f) && !math.IsInf(f, 0) && f != 0))
}

func biPaths(leavesOnly bool) builtin0 {
	return func(in value.Value, env *Env, emit Emit) error {
		var firstErr error
		value.AllPaths(in, leavesOnly, func(p []value.PathKey) bool {
			out := make([]value.Value, len(p))
			for i, k := range p {
				if k.IsInt {
					out[i] = value.Int(int64(k.Int))
				} else {
					out[i] = value.String(k.Str)
				}
			}
			if err := emit(value.NewArray(out)); err != nil {
				firstErr = err
				return false
			}
			return true
		})
		return firstErr
	}
}

func biNow(in value.Value, env *Env, emit Emit) error {
	if env.root.currentTime == nil {
		return emit(value.Double(0))
	}
	return emit(value.Double(env.root.currentTime()))
}

func biEnv(in value.Value, env *Env, emit Emit) error {
	obj := value.NewEmptyObject()
	for k, v := range env.root.envVars {
		obj = obj.Set(k, v)
	}
	return emit(value.NewObject(obj))
}

func biInput(in value.Value, env *Env, emit Emit) error {
	if env.root.nextInput == nil {
		return NewError("No more inputs")
	}
	v, ok, err := env.root.nextInput()
	if err != nil {
		return err
	}
	if !ok {
		return NewError("No more inputs")
	}
	return emit(v)
}

func biInputs(in value.Value, env *Env, emit Emit) error {
	if env.root.nextInput == nil {
		return nil
	}
	for {
		v, ok, err := env.root.nextInput()
		if err != nil {
			return err
		}
		if !ok {
			return nil
		}
		if err := emit(v); err != nil {
			return err
		}
	}
}

func biDebugNoArg(in value.Value, env *Env, emit Emit) error {
	return emit(in)
}

// biDebug1 implements `debug(msg)`: the message filter runs and its
// outputs are discarded (nothing is written to stderr), and the original
// input passes through unchanged.
func biDebug1(args []*ast.Node, in value.Value, env *Env, emit Emit) error {
	if err := Eval(args[0], in, env, func(value.Value) error { return nil }); err != nil {
		return err
	}
	return emit(in)
}

func biSelect(args []*ast.Node, in value.Value, env *Env, emit Emit) error {
	return Eval(args[0], in, env, func(c value.Value) error {
		if c.Truthy() {
			return emit(in)
		}
		return nil
	})
}

func biMap(args []*ast.Node, in value.Value, env *Env, emit Emit) error {
	var out []value.Value
	err := iterateAll(in, func(item value.Value) error {
		return Eval(args[0], item, env, func(v value.Value) error {
			out = append(out, v.Retain())
			return nil
		})
	})
	if err != nil {
		return err
	}
	return emit(value.NewArray(out))
}

func biMapValues(args []*ast.Node, in value.Value, env *Env, emit Emit) error {
	switch in.Kind() {
	case value.KindArray:
		arr, _ := in.Array()
		var out []value.Value
		for i := 0; i < arr.Len(); i++ {
			v, err := firstResultOrSkip(args[0], arr.At(i), env)
			if err != nil {
				return err
			}
			if v != nil {
				out = append(out, v.Retain())
			}
		}
		return emit(value.NewArray(out))
	case value.KindObject:
		obj, _ := in.Object()
		dst := value.NewEmptyObject()
		for _, k := range obj.KeysUnsorted() {
			cur, _ := obj.Get(k)
			v, err := firstResultOrSkip(args[0], cur, env)
			if err != nil {
				return err
			}
			if v != nil {
				dst = dst.Set(k, v.Retain())
			}
		}
		return emit(value.NewObject(dst))
	default:
		return NewError("cannot map_values over %s", in.TypeName())
	}
}

func firstResultOrSkip(n *ast.Node, in value.Value, env *Env) (*value.Value, error) {
	var out value.Value
	got := false
	err := Eval(n, in, env, func(v value.Value) error {
		if !got {
			out = v
			got = true
		}
		return stopIteration{}
	})
	if err != nil {
		if _, ok := err.(stopIteration); !ok {
			return nil, err
		}
	}
	if !got {
		return nil, nil
	}
	return &out, nil
}

func biHas(args []*ast.Node, in value.Value, env *Env, emit Emit) error {
	return Eval(args[0], in, env, func(k value.Value) error {
		switch in.Kind() {
		case value.KindObject:
			obj, _ := in.Object()
			key, _ := k.AsString()
			_, ok := obj.Get(key)
			return emit(value.Bool(ok))
		case value.KindArray:
			arr, _ := in.Array()
			idx, _ := k.AsInt()
			return emit(value.Bool(idx >= 0 && idx < int64(arr.Len())))
		default:
			return NewError("cannot check whether %s has a key", in.TypeName())
		}
	})
}

// biIn implements `in(xs)`: true if `.` is a valid key/index into xs,
// the mirror image of has(.) with the roles of input and argument swapped.
func biIn(args []*ast.Node, in value.Value, env *Env, emit Emit) error {
	return Eval(args[0], in, env, func(container value.Value) error {
		switch container.Kind() {
		case value.KindObject:
			obj, _ := container.Object()
			key, ok := in.AsString()
			if !ok {
				return NewError("cannot check whether object has a key of type %s", in.TypeName())
			}
			_, has := obj.Get(key)
			return emit(value.Bool(has))
		case value.KindArray:
			arr, _ := container.Array()
			idx, ok := in.AsInt()
			if !ok {
				return NewError("cannot check whether array has a key of type %s", in.TypeName())
			}
			return emit(value.Bool(idx >= 0 && idx < int64(arr.Len())))
		default:
			return NewError("cannot check whether %s has a key", container.TypeName())
		}
	})
}

func biContains(args []*ast.Node, in value.Value, env *Env, emit Emit) error {
	return Eval(args[0], in, env, func(b value.Value) error {
		ok, err := containsValue(in, b)
		if err != nil {
			return err
		}
		return emit(value.Bool(ok))
	})
}

func biInside(args []*ast.Node, in value.Value, env *Env, emit Emit) error {
	return Eval(args[0], in, env, func(container value.Value) error {
		ok, err := containsValue(container, in)
		if err != nil {
			return err
		}
		return emit(value.Bool(ok))
	})
}

func containsValue(a, b value.Value) (bool, error) {
	switch {
	case a.Kind() == value.KindString && b.Kind() == value.KindString:
		as, _ := a.AsString()
		bs, _ := b.AsString()
		return strings.Contains(as, bs), nil
	case a.Kind() == value.KindArray && b.Kind() == value.KindArray:
		aarr, _ := a.Array()
		barr, _ := b.Array()
		for i := 0; i < barr.Len(); i++ {
			found := false
			for j := 0; j < aarr.Len(); j++ {
				if ok, _ := containsValue(aarr.At(j), barr.At(i)); ok {
					found = true
					break
				}
			}
			if !found {
				return false, nil
			}
		}
		return true, nil
	case a.Kind() == value.KindObject && b.Kind() == value.KindObject:
		aobj, _ := a.Object()
		bobj, _ := b.Object()
		ok := true
		bobj.Each(func(k string, bv value.Value) bool {
			av, present := aobj.Get(k)
			if !present {
				ok = false
				return false
			}
			sub, err := containsValue(av, bv)
			if err != nil || !sub {
				ok = false
				return false
			}
			return true
		})
		return ok, nil
	default:
		return value.Equal(a, b), nil
	}
}

func biRange1(args []*ast.Node, in value.Value, env *Env, emit Emit) error {
	return Eval(args[0], in, env, func(hi value.Value) error {
		return rangeEmit(0, mustFloat(hi), 1, emit)
	})
}

func biRange2(args []*ast.Node, in value.Value, env *Env, emit Emit) error {
	return Eval(args[0], in, env, func(lo value.Value) error {
		return Eval(args[1], in, env, func(hi value.Value) error {
			return rangeEmit(mustFloat(lo), mustFloat(hi), 1, emit)
		})
	})
}

func biRange3(args []*ast.Node, in value.Value, env *Env, emit Emit) error {
	return Eval(args[0], in, env, func(lo value.Value) error {
		return Eval(args[1], in, env, func(hi value.Value) error {
			return Eval(args[2], in, env, func(step value.Value) error {
				return rangeEmit(mustFloat(lo), mustFloat(hi), mustFloat(step), emit)
			})
		})
	})
}

func mustFloat(v value.Value) float64 {
	f, _ := v.AsFloat()
	return f
}

func rangeEmit(lo, hi, step float64, emit Emit) error {
	if step == 0 {
		return nil
	}
	if step > 0 {
		for x := lo; x < hi; x += step {
			if err := emit(value.Double(x)); err != nil {
				return err
			}
		}
	} else {
		for x := lo; x > hi; x += step {
			if err := emit(value.Double(x)); err != nil {
				return err
			}
		}
	}
	return nil
}

func biTrimStr(left bool) builtinN {
	return func(args []*ast.Node, in value.Value, env *Env, emit Emit) error {
		return Eval(args[0], in, env, func(pfx value.Value) error {
			s, ok1 := in.AsString()
			p, ok2 := pfx.AsString()
			if !ok1 || !ok2 {
				return emit(in)
			}
			if left {
				return emit(value.String(strings.TrimPrefix(s, p)))
			}
			return emit(value.String(strings.TrimSuffix(s, p)))
		})
	}
}

func biStartsEndsWith(starts bool) builtinN {
	return func(args []*ast.Node, in value.Value, env *Env, emit Emit) error {
		return Eval(args[0], in, env, func(pfx value.Value) error {
			s, ok1 := in.AsString()
			p, ok2 := pfx.AsString()
			if !ok1 || !ok2 {
				return NewError("startswith()/endswith() requires string inputs")
			}
			if starts {
				return emit(value.Bool(strings.HasPrefix(s, p)))
			}
			return emit(value.Bool(strings.HasSuffix(s, p)))
		})
	}
}

func biSplit1(args []*ast.Node, in value.Value, env *Env, emit Emit) error {
	return Eval(args[0], in, env, func(sep value.Value) error {
		r, err := div(in, sep)
		if err != nil {
			return err
		}
		return emit(r)
	})
}

func biSplit2(args []*ast.Node, in value.Value, env *Env, emit Emit) error {
	return Eval(args[0], in, env, func(reV value.Value) error {
		return Eval(args[1], in, env, func(flagsV value.Value) error {
			return splitRegex(in, reV, flagsV, emit)
		})
	})
}

func splitRegex(in, reV, flagsV value.Value, emit Emit) error {
	s, ok := in.AsString()
	if !ok {
		return NewError("split input must be a string")
	}
	pattern, _ := reV.AsString()
	flags, _ := flagsV.AsString()
	re, err := compileRegex(pattern, flags)
	if err != nil {
		return err
	}
	matches, err := regexMatches(re, s, true)
	if err != nil {
		return err
	}
	var out []value.Value
	last := 0
	runes := []rune(s)
	for _, m := range matches {
		out = append(out, value.String(string(runes[last:m.offset])))
		last = m.offset + m.length
	}
	out = append(out, value.String(string(runes[last:])))
	return emit(value.NewArray(out))
}

func biJoin(args []*ast.Node, in value.Value, env *Env, emit Emit) error {
	arr, ok := in.Array()
	if !ok {
		return NewError("cannot join %s", in.TypeName())
	}
	return Eval(args[0], in, env, func(sepV value.Value) error {
		sep, _ := sepV.AsString()
		parts := make([]string, arr.Len())
		for i := 0; i < arr.Len(); i++ {
			item := arr.At(i)
			if item.IsNull() {
				parts[i] = ""
				continue
			}
			s, err := ToStringForInterpolation(item)
			if err != nil {
				return err
			}
			parts[i] = s
		}
		return emit(value.String(strings.Join(parts, sep)))
	})
}

func biSplits1(args []*ast.Node, in value.Value, env *Env, emit Emit) error {
	return Eval(args[0], in, env, func(reV value.Value) error {
		return splitsEmit(in, reV, value.String(""), emit)
	})
}

func biSplits2(args []*ast.Node, in value.Value, env *Env, emit Emit) error {
	return Eval(args[0], in, env, func(reV value.Value) error {
		return Eval(args[1], in, env, func(flagsV value.Value) error {
			return splitsEmit(in, reV, flagsV, emit)
		})
	})
}

func splitsEmit(in, reV, flagsV value.Value, emit Emit) error {
	var result value.Value
	got := false
	if err := splitRegex(in, reV, flagsV, func(v value.Value) error { result = v; got = true; return nil }); err != nil {
		return err
	}
	if !got {
		return nil
	}
	arr, _ := result.Array()
	for i := 0; i < arr.Len(); i++ {
		if err := emit(arr.At(i)); err != nil {
			return err
		}
	}
	return nil
}

func biRegexBool(arity int) builtinN {
	return func(args []*ast.Node, in value.Value, env *Env, emit Emit) error {
		return withRegexArgs(args, arity, in, env, func(pattern, flags string) error {
			re, err := compileRegex(pattern, flags)
			if err != nil {
				return err
			}
			s, _ := in.AsString()
			matches, err := regexMatches(re, s, false)
			if err != nil {
				return err
			}
			return emit(value.Bool(len(matches) > 0))
		})
	}
}

func biRegexMatch(arity int) builtinN {
	return func(args []*ast.Node, in value.Value, env *Env, emit Emit) error {
		return withRegexArgsFlagged(args, arity, in, env, func(pattern, flags string) error {
			re, err := compileRegex(pattern, flags)
			if err != nil {
				return err
			}
			s, _ := in.AsString()
			matches, err := regexMatches(re, s, strings.Contains(flags, "g"))
			if err != nil {
				return err
			}
			for _, m := range matches {
				if err := emit(matchToValue(m)); err != nil {
					return err
				}
			}
			return nil
		})
	}
}

func biRegexCapture(arity int) builtinN {
	return func(args []*ast.Node, in value.Value, env *Env, emit Emit) error {
		return withRegexArgsFlagged(args, arity, in, env, func(pattern, flags string) error {
			re, err := compileRegex(pattern, flags)
			if err != nil {
				return err
			}
			s, _ := in.AsString()
			matches, err := regexMatches(re, s, false)
			if err != nil {
				return err
			}
			if len(matches) == 0 {
				return nil
			}
			return emit(captureObject(matches[0]))
		})
	}
}

func biRegexScan(arity int) builtinN {
	return func(args []*ast.Node, in value.Value, env *Env, emit Emit) error {
		return withRegexArgs(args, arity, in, env, func(pattern, flags string) error {
			re, err := compileRegex(pattern, flags)
			if err != nil {
				return err
			}
			s, _ := in.AsString()
			matches, err := regexMatches(re, s, true)
			if err != nil {
				return err
			}
			for _, m := range matches {
				if len(m.caps) == 0 {
					if err := emit(value.String(m.text)); err != nil {
						return err
					}
					continue
				}
				out := make([]value.Value, len(m.caps))
				for i, c := range m.caps {
					if c.offset < 0 {
						out[i] = value.Null
					} else {
						out[i] = value.String(c.text)
					}
				}
				if err := emit(value.NewArray(out)); err != nil {
					return err
				}
			}
			return nil
		})
	}
}

func withRegexArgs(args []*ast.Node, arity int, in value.Value, env *Env, fn func(pattern, flags string) error) error {
	return Eval(args[0], in, env, func(reV value.Value) error {
		flags := ""
		if arity == 2 {
			return Eval(args[1], in, env, func(flagsV value.Value) error {
				f, _ := flagsV.AsString()
				pattern, fl, err := parseRegexArgs(reV, f)
				if err != nil {
					return err
				}
				return fn(pattern, fl)
			})
		}
		pattern, fl, err := parseRegexArgs(reV, flags)
		if err != nil {
			return err
		}
		return fn(pattern, fl)
	})
}

func withRegexArgsFlagged(args []*ast.Node, arity int, in value.Value, env *Env, fn func(pattern, flags string) error) error {
	return withRegexArgs(args, arity, in, env, fn)
}

func biSubGsub(global bool, arity int) builtinN {
	return func(args []*ast.Node, in value.Value, env *Env, emit Emit) error {
		s, ok := in.AsString()
		if !ok {
			return NewError("%s cannot be matched, as it is not a string", in.TypeName())
		}
		return Eval(args[0], in, env, func(reV value.Value) error {
			flags := ""
			handleWithFlags := func(fl string) error {
				pattern, fl2, err := parseRegexArgs(reV, fl)
				if err != nil {
					return err
				}
				re, err := compileRegex(pattern, fl2)
				if err != nil {
					return err
				}
				matches, err := regexMatches(re, s, global || strings.Contains(fl2, "g"))
				if err != nil {
					return err
				}
				return emitSubResult(s, matches, args[1], env, emit)
			}
			if arity == 3 {
				return Eval(args[2], in, env, func(flagsV value.Value) error {
					f, _ := flagsV.AsString()
					return handleWithFlags(f)
				})
			}
			return handleWithFlags(flags)
		})
	}
}

func emitSubResult(s string, matches []matchResult, replacement *ast.Node, env *Env, emit Emit) error {
	runes := []rune(s)
	var sb strings.Builder
	last := 0
	for _, m := range matches {
		sb.WriteString(string(runes[last:m.offset]))
		repl, err := firstResult(replacement, captureObject(m), env)
		if err != nil {
			return err
		}
		rs, _ := repl.AsString()
		sb.WriteString(rs)
		last = m.offset + m.length
	}
	sb.WriteString(string(runes[last:]))
	return emit(value.String(sb.String()))
}

func biGetPath(args []*ast.Node, in value.Value, env *Env, emit Emit) error {
	return Eval(args[0], in, env, func(pv value.Value) error {
		keys, err := toPathKeys(pv)
		if err != nil {
			return err
		}
		v, err := value.GetPath(in, keys)
		if err != nil {
			return NewError("%v", err)
		}
		return emit(v)
	})
}

func biSetPath(args []*ast.Node, in value.Value, env *Env, emit Emit) error {
	return Eval(args[0], in, env, func(pv value.Value) error {
		keys, err := toPathKeys(pv)
		if err != nil {
			return err
		}
		return Eval(args[1], in, env, func(newVal value.Value) error {
			v, err := value.SetPath(in, keys, newVal)
			if err != nil {
				return NewError("%v", err)
			}
			return emit(v)
		})
	})
}

func biDelPaths(args []*ast.Node, in value.Value, env *Env, emit Emit) error {
	return Eval(args[0], in, env, func(pv value.Value) error {
		arr, ok := pv.Array()
		if !ok {
			return NewError("Paths must be specified as an array")
		}
		paths := make([][]value.PathKey, arr.Len())
		for i := 0; i < arr.Len(); i++ {
			keys, err := toPathKeys(arr.At(i))
			if err != nil {
				return err
			}
			paths[i] = keys
		}
		sort.Slice(paths, func(i, j int) bool { return comparePathKeys(paths[i], paths[j]) > 0 })
		cur := in
		for _, p := range paths {
			v, err := value.DelPath(cur, p)
			if err != nil {
				return NewError("%v", err)
			}
			cur = v
		}
		return emit(cur)
	})
}

func comparePathKeys(a, b []value.PathKey) int {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	for i := 0; i < n; i++ {
		if a[i].IsInt && b[i].IsInt {
			if a[i].Int != b[i].Int {
				return a[i].Int - b[i].Int
			}
			continue
		}
		if a[i].Str != b[i].Str {
			if a[i].Str < b[i].Str {
				return -1
			}
			return 1
		}
	}
	return len(a) - len(b)
}

func biDel(args []*ast.Node, in value.Value, env *Env, emit Emit) error {
	var paths [][]value.PathKey
	err := EvalPath(args[0], in, in, nil, env, func(p []value.PathKey, _ value.Value) error {
		paths = append(paths, append([]value.PathKey(nil), p...))
		return nil
	})
	if err != nil {
		return err
	}
	sort.Slice(paths, func(i, j int) bool { return comparePathKeys(paths[i], paths[j]) > 0 })
	cur := in
	for _, p := range paths {
		v, err := value.DelPath(cur, p)
		if err != nil {
			return NewError("%v", err)
		}
		cur = v
	}
	return emit(cur)
}

func biPath(args []*ast.Node, in value.Value, env *Env, emit Emit) error {
	return EvalPath(args[0], in, in, nil, env, func(p []value.PathKey, _ value.Value) error {
		out := make([]value.Value, len(p))
		for i, k := range p {
			if k.IsInt {
				out[i] = value.Int(int64(k.Int))
			} else {
				out[i] = value.String(k.Str)
			}
		}
		return emit(value.NewArray(out))
	})
}

func toPathKeys(pv value.Value) ([]value.PathKey, error) {
	arr, ok := pv.Array()
	if !ok {
		return nil, NewError("Path must be specified as an array")
	}
	keys := make([]value.PathKey, arr.Len())
	for i := 0; i < arr.Len(); i++ {
		k, err := toPathKey(arr.At(i))
		if err != nil {
			return nil, err
		}
		keys[i] = k
	}
	return keys, nil
}

func biLimit(args []*ast.Node, in value.Value, env *Env, emit Emit) error {
	return Eval(args[0], in, env, func(nV value.Value) error {
		n, _ := nV.AsInt()
		if n <= 0 {
			return nil
		}
		count := int64(0)
		err := Eval(args[1], in, env, func(v value.Value) error {
			count++
			if err := emit(v); err != nil {
				return err
			}
			if count >= n {
				return stopIteration{}
			}
			return nil
		})
		if err != nil {
			if _, ok := err.(stopIteration); ok {
				return nil
			}
			return err
		}
		return nil
	})
}

func biFirstOf(args []*ast.Node, in value.Value, env *Env, emit Emit) error {
	v, err := firstResultOrSkip(args[0], in, env)
	if err != nil {
		return err
	}
	if v == nil {
		return NewError("empty stream passed to first")
	}
	return emit(*v)
}

func biLastOf(args []*ast.Node, in value.Value, env *Env, emit Emit) error {
	var last value.Value
	got := false
	if err := Eval(args[0], in, env, func(v value.Value) error {
		last = v
		got = true
		return nil
	}); err != nil {
		return err
	}
	if !got {
		return NewError("empty stream passed to last")
	}
	return emit(last)
}

func biUntil(args []*ast.Node, in value.Value, env *Env, emit Emit) error {
	cur := in
	for {
		if err := env.root.step(); err != nil {
			return err
		}
		var cond bool
		if err := Eval(args[0], cur, env, func(v value.Value) error { cond = v.Truthy(); return stopIteration{} }); err != nil {
			if _, ok := err.(stopIteration); !ok {
				return err
			}
		}
		if cond {
			return emit(cur)
		}
		next, err := firstResultOrSkip(args[1], cur, env)
		if err != nil {
			return err
		}
		if next == nil {
			return NewError("until: update produced no output")
		}
		cur = *next
	}
}

func biWhile(args []*ast.Node, in value.Value, env *Env, emit Emit) error {
	cur := in
	for {
		if err := env.root.step(); err != nil {
			return err
		}
		var cond bool
		if err := Eval(args[0], cur, env, func(v value.Value) error { cond = v.Truthy(); return stopIteration{} }); err != nil {
			if _, ok := err.(stopIteration); !ok {
				return err
			}
		}
		if !cond {
			return nil
		}
		if err := emit(cur); err != nil {
			return err
		}
		next, err := firstResultOrSkip(args[1], cur, env)
		if err != nil {
			return err
		}
		if next == nil {
			return nil
		}
		cur = *next
	}
}

func biRepeat(args []*ast.Node, in value.Value, env *Env, emit Emit) error {
	cur := in
	for {
		if err := env.root.step(); err != nil {
			return err
		}
		if err := emit(cur); err != nil {
			return err
		}
		next, err := firstResultOrSkip(args[0], cur, env)
		if err != nil {
			return err
		}
		if next == nil {
			return nil
		}
		cur = *next
	}
}

func biIndices(args []*ast.Node, in value.Value, env *Env, emit Emit) error {
	return Eval(args[0], in, env, func(needle value.Value) error {
		idxs, err := findIndices(in, needle)
		if err != nil {
			return err
		}
		return emit(idxs)
	})
}

func findIndices(hay, needle value.Value) (value.Value, error) {
	switch {
	case hay.Kind() == value.KindString && needle.Kind() == value.KindString:
		hs, _ := hay.AsString()
		ns, _ := needle.AsString()
		if ns == "" {
			return value.NewArray(nil), nil
		}
		var out []value.Value
		for i := 0; i+len(ns) <= len(hs); i++ {
			if hs[i:i+len(ns)] == ns {
				out = append(out, value.Int(int64(i)))
			}
		}
		return value.NewArray(out), nil
	case hay.Kind() == value.KindArray && needle.Kind() == value.KindArray:
		harr, _ := hay.Array()
		narr, _ := needle.Array()
		if narr.Len() == 0 {
			return value.NewArray(nil), nil
		}
		var out []value.Value
		for i := 0; i+narr.Len() <= harr.Len(); i++ {
			match := true
			for j := 0; j < narr.Len(); j++ {
				if !value.Equal(harr.At(i+j), narr.At(j)) {
					match = false
					break
				}
			}
			if match {
				out = append(out, value.Int(int64(i)))
			}
		}
		return value.NewArray(out), nil
	case hay.Kind() == value.KindArray:
		harr, _ := hay.Array()
		var out []value.Value
		for i := 0; i < harr.Len(); i++ {
			if value.Equal(harr.At(i), needle) {
				out = append(out, value.Int(int64(i)))
			}
		}
		return value.NewArray(out), nil
	default:
		return value.Null, nil
	}
}

func biIndex(args []*ast.Node, in value.Value, env *Env, emit Emit) error {
	return Eval(args[0], in, env, func(needle value.Value) error {
		idxs, err := findIndices(in, needle)
		if err != nil {
			return err
		}
		arr, _ := idxs.Array()
		if arr.Len() == 0 {
			return emit(value.Null)
		}
		return emit(arr.At(0))
	})
}

func biRindex(args []*ast.Node, in value.Value, env *Env, emit Emit) error {
	return Eval(args[0], in, env, func(needle value.Value) error {
		idxs, err := findIndices(in, needle)
		if err != nil {
			return err
		}
		arr, _ := idxs.Array()
		if arr.Len() == 0 {
			return emit(value.Null)
		}
		return emit(arr.At(arr.Len() - 1))
	})
}

func biASCIIChar(args []*ast.Node, in value.Value, env *Env, emit Emit) error {
	return Eval(args[0], in, env, func(v value.Value) error {
		i, ok := v.AsInt()
		if !ok {
			return NewError("ascii() requires a number")
		}
		return emit(value.String(string(rune(i))))
	})
}
