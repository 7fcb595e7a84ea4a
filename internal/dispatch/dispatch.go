// Package dispatch implements the passthrough dispatcher: a compile-time
// classifier that inspects a parsed filter and the active output options and
// picks the cheapest executor able to produce that filter's output, falling
// back to the generic value-tree evaluator for anything it does not
// recognize. Every specialization here writes bytes straight off the parser's
// flat token buffer; none of them materialize a value.Value tree.
package dispatch

import (
	"fmt"
	"strconv"

	"github.com/simdjq/simdjq/internal/ast"
	"github.com/simdjq/simdjq/internal/parser"
)

// Tag names one of the raw-byte specializations, or Generic when none apply.
type Tag int

const (
	Generic Tag = iota
	IdentityCompact
	FieldChain
	FieldLength
	FieldKeys
	FieldHas
	FieldType
	ArrayMapField
	ArrayMapFieldsObj
	ArrayMapBuiltin
	SelectEqExtract
)

// Options carries the subset of CLI/output configuration that can disable
// the dispatcher outright, per the "disabling conditions" the classifier
// must honor before ever picking a specialized tag.
type Options struct {
	SortKeys    bool
	RawOutput   bool
	ColorOutput bool
	AsciiOutput bool
	Slurp       bool
	RawInput    bool
}

func (o Options) disablesDispatch() bool {
	return o.SortKeys || o.ColorOutput || o.AsciiOutput || o.Slurp || o.RawInput
}

// Plan is the result of classifying one filter: the chosen tag plus whatever
// structural data that tag's executor needs (field names, the argument
// literal of a has(...)/select(...) comparison, the extraction plan for the
// value following a select(...)).
type Plan struct {
	Tag    Tag
	Fields []string // FieldChain, FieldLength, FieldKeys, FieldHas, FieldType, ArrayMapField

	MapFields []string // ArrayMapFieldsObj: object-shorthand keys, in order
	MapBody   *ast.Node // ArrayMapBuiltin: the per-element builtin call node

	SelectField string    // SelectEqExtract: field compared against SelectLit
	SelectOp    string    // "==", "!=", "<", "<=", ">", or ">="
	SelectLit   *ast.Node // literal compared against (KindString/KindNumber/KindBool/KindNull; ordering ops only ever see KindString/KindNumber)
	SelectRest  *Plan     // the extraction plan applied when the predicate matches
}

// Classify analyzes a parsed filter and the active output options and
// returns the dispatch plan the engine should run. Generic always means
// "there is no more specific but we are allowed to run Generic" or "the
// filter isn't eligible at all" -- both cases defer entirely to the
// value-tree evaluator, so callers don't need to distinguish them.
func Classify(n *ast.Node, opts Options) Plan {
	if opts.disablesDispatch() {
		return Plan{Tag: Generic}
	}
	if opts.RawOutput && isStringProducing(n) {
		return Plan{Tag: Generic}
	}
	return classify(n)
}

func classify(n *ast.Node) Plan {
	if n.Kind == ast.KindIdentity {
		return Plan{Tag: IdentityCompact}
	}

	if fields, ok := fieldChain(n); ok {
		return Plan{Tag: FieldChain, Fields: fields}
	}

	// Pipe(fieldChain, 0-arity builtin) -- length/keys/type of a field chain.
	if n.Kind == ast.KindPipe {
		if fields, ok := fieldChain(n.Left); ok {
			if n.Right.Kind == ast.KindFuncCall && len(n.Right.Args) == 0 {
				switch n.Right.Str {
				case "length":
					return Plan{Tag: FieldLength, Fields: fields}
				case "keys":
					return Plan{Tag: FieldKeys, Fields: fields}
				case "type":
					return Plan{Tag: FieldType, Fields: fields}
				}
			}
			if n.Right.Kind == ast.KindFuncCall && n.Right.Str == "has" && len(n.Right.Args) == 1 {
				return Plan{Tag: FieldHas, Fields: fields}
			}
		}
	}

	// map(.field)
	if n.Kind == ast.KindFuncCall && n.Str == "map" && len(n.Args) == 1 {
		arg := n.Args[0]
		if fields, ok := fieldChain(arg); ok && len(fields) == 1 {
			return Plan{Tag: ArrayMapField, Fields: fields}
		}
		if arg.Kind == ast.KindObject && allShorthand(arg.Entries) {
			names := make([]string, len(arg.Entries))
			for i, e := range arg.Entries {
				names[i] = e.KeyName
			}
			return Plan{Tag: ArrayMapFieldsObj, MapFields: names}
		}
		if arg.Kind == ast.KindFuncCall && len(arg.Args) == 0 {
			switch arg.Str {
			case "length", "keys", "type":
				return Plan{Tag: ArrayMapBuiltin, MapBody: arg}
			}
		}
		if arg.Kind == ast.KindFuncCall && arg.Str == "has" && len(arg.Args) == 1 {
			return Plan{Tag: ArrayMapBuiltin, MapBody: arg}
		}
	}

	// select(.f OP literal) | rest -- OP one of ==, !=, or (for number/string
	// literals only) the ordering operators <, <=, >, >=.
	if n.Kind == ast.KindPipe && n.Left.Kind == ast.KindFuncCall && n.Left.Str == "select" && len(n.Left.Args) == 1 {
		cond := n.Left.Args[0]
		if cond.Kind == ast.KindBinOp && isSelectOp(cond.Str) {
			fields, ok := fieldChain(cond.Left)
			lit := cond.Right
			op := cond.Str
			if !ok || !isLiteral(lit) {
				fields, ok = fieldChain(cond.Right)
				lit = cond.Left
				op = flipOp(cond.Str)
			}
			if ok && len(fields) == 1 && isLiteral(lit) && (isEqualityOp(op) || isOrderableLiteral(lit)) {
				rest := classify(n.Right)
				return Plan{
					Tag:         SelectEqExtract,
					SelectField: fields[0],
					SelectOp:    op,
					SelectLit:   lit,
					SelectRest:  &rest,
				}
			}
		}
	}

	return Plan{Tag: Generic}
}

// isSelectOp reports whether op is one of the comparison operators
// SelectEqExtract can classify: equality, or (restricted to number/string
// literals by the isOrderableLiteral check at the call site) ordering.
func isSelectOp(op string) bool {
	switch op {
	case "==", "!=", "<", "<=", ">", ">=":
		return true
	}
	return false
}

func isEqualityOp(op string) bool {
	return op == "==" || op == "!="
}

// flipOp returns the operator that preserves a comparison's meaning when its
// operands are swapped, e.g. `10 < .v` classifies the same as `.v > 10`.
func flipOp(op string) string {
	switch op {
	case "<":
		return ">"
	case "<=":
		return ">="
	case ">":
		return "<"
	case ">=":
		return "<="
	default:
		return op // == and != are symmetric
	}
}

// isOrderableLiteral restricts the ordering operators to the two literal
// kinds with an unambiguous, type-preserving order: numeric comparison and
// byte/string comparison. Ordering against a bool or null literal would need
// jq's full cross-type total order, which the dispatcher leaves to Generic.
func isOrderableLiteral(lit *ast.Node) bool {
	return lit.Kind == ast.KindString || lit.Kind == ast.KindNumber
}

func isLiteral(n *ast.Node) bool {
	switch n.Kind {
	case ast.KindString, ast.KindNumber, ast.KindBool, ast.KindNull:
		return true
	}
	return false
}

func allShorthand(entries []ast.ObjectEntry) bool {
	for _, e := range entries {
		if e.Value != nil || e.KeyName == "" || e.KeyVar != "" {
			return false
		}
	}
	return true
}

// fieldChain walks a left-nested chain of `.field` accesses rooted at
// identity (".a.b.c") and returns the field names root-first. Anything else
// (computed index, iteration, optional `?`) fails the match.
func fieldChain(n *ast.Node) ([]string, bool) {
	var rev []string
	cur := n
	for {
		switch cur.Kind {
		case ast.KindIdentity:
			for i, j := 0, len(rev)-1; i < j; i, j = i+1, j-1 {
				rev[i], rev[j] = rev[j], rev[i]
			}
			return rev, true
		case ast.KindField:
			rev = append(rev, cur.Str)
			cur = cur.Left
		default:
			return nil, false
		}
	}
}

// isStringProducing is a conservative check for whether the dispatcher's
// raw-byte output (always valid JSON text) would differ from what -r
// (unquoted string) output demands for this filter. Any filter not provably
// returning only non-strings is treated as string-producing, which is safe:
// worst case we fall back to Generic when we didn't have to.
func isStringProducing(n *ast.Node) bool {
	switch n.Kind {
	case ast.KindNumber, ast.KindBool, ast.KindNull:
		return false
	default:
		return true
	}
}

// navigateFieldChain follows fields through a parser.Iter positioned on the
// document root, returning ok=false (not an error) when a step lands on null
// or a key is missing, both of which jq treats as producing `null`. Any other
// non-object in the chain is an error, as in the generic evaluator.
func navigateFieldChain(it parser.Iter, fields []string) (parser.Iter, bool, error) {
	cur := it
	for _, f := range fields {
		if cur.Tag() == parser.TagNull {
			return parser.Iter{}, false, nil
		}
		if cur.Tag() != parser.TagObjectStart {
			return parser.Iter{}, false, fmt.Errorf("cannot index %s with %q", cur.Tag().Type(), f)
		}
		obj, err := cur.Object(nil)
		if err != nil {
			return parser.Iter{}, false, err
		}
		var elem parser.Element
		found := obj.FindKey(f, &elem)
		if found == nil {
			return parser.Iter{}, false, nil
		}
		cur = elem.Iter
	}
	return cur, true, nil
}

// Run executes plan against a document already queued on it, appending
// output bytes to dst. handled is false when the input's runtime shape makes
// this plan inapplicable (e.g. ArrayMapField over a non-array) -- the caller
// must then re-run the same document through the generic evaluator. Run
// never returns handled=true with the document misclassified: any ambiguity
// at runtime falls back rather than guess.
func Run(plan Plan, it parser.Iter, dst []byte) (out []byte, handled bool, err error) {
	switch plan.Tag {
	case IdentityCompact:
		out, err = it.MarshalJSONBuffer(dst)
		return out, err == nil, err

	case FieldChain:
		sub, ok, err := navigateFieldChain(it, plan.Fields)
		if err != nil {
			return dst, false, err
		}
		if !ok {
			return append(dst, "null"...), true, nil
		}
		out, err = sub.MarshalJSONBuffer(dst)
		return out, err == nil, err

	case FieldLength:
		return runFieldScalar(plan, it, dst, scalarLength)
	case FieldKeys:
		return runFieldScalar(plan, it, dst, scalarKeys)
	case FieldHas:
		return dst, false, nil // has() needs its argument value; left to Generic for now.
	case FieldType:
		return runFieldScalar(plan, it, dst, scalarType)

	case ArrayMapField:
		return runArrayMap(it, dst, func(elem parser.Iter, out []byte) ([]byte, bool, error) {
			sub, ok, err := navigateFieldChain(elem, plan.Fields)
			if err != nil {
				return out, false, err
			}
			if !ok {
				return append(out, "null"...), true, nil
			}
			return sub.MarshalJSONBuffer(out)
		})

	case ArrayMapFieldsObj:
		return runArrayMap(it, dst, func(elem parser.Iter, out []byte) ([]byte, bool, error) {
			if elem.Tag() != parser.TagObjectStart {
				return out, false, nil
			}
			obj, err := elem.Object(nil)
			if err != nil {
				return out, false, err
			}
			out = append(out, '{')
			for i, f := range plan.MapFields {
				if i > 0 {
					out = append(out, ',')
				}
				out = append(out, '"')
				out = append(out, f...)
				out = append(out, '"', ':')
				var e parser.Element
				if obj.FindKey(f, &e) == nil {
					out = append(out, "null"...)
					continue
				}
				out, err = e.Iter.MarshalJSONBuffer(out)
				if err != nil {
					return out, false, err
				}
			}
			out = append(out, '}')
			return out, true, nil
		})

	case ArrayMapBuiltin:
		return runArrayMap(it, dst, func(elem parser.Iter, out []byte) ([]byte, bool, error) {
			switch plan.MapBody.Str {
			case "length":
				return scalarLength(elem, out)
			case "keys", "keys_unsorted":
				return scalarKeys(elem, out)
			case "type":
				return scalarType(elem, out)
			default:
				return out, false, nil
			}
		})

	case SelectEqExtract:
		sub, ok, err := navigateFieldChain(it, []string{plan.SelectField})
		if err != nil {
			return dst, false, err
		}
		if !ok {
			return dst, false, nil
		}
		var matched, matchOk bool
		if isEqualityOp(plan.SelectOp) {
			matched, matchOk = compareLiteral(sub, plan.SelectLit)
			if matchOk && plan.SelectOp == "!=" {
				matched = !matched
			}
		} else {
			matched, matchOk = compareOrdered(sub, plan.SelectLit, plan.SelectOp)
		}
		if !matchOk {
			return dst, false, nil
		}
		if !matched {
			return dst, true, nil // select() suppressed this document -- no bytes, but handled
		}
		return Run(*plan.SelectRest, it, dst)
	}
	return dst, false, nil
}

func runFieldScalar(plan Plan, it parser.Iter, dst []byte, fn func(parser.Iter, []byte) ([]byte, bool, error)) ([]byte, bool, error) {
	sub, ok, err := navigateFieldChain(it, plan.Fields)
	if err != nil || !ok {
		return dst, false, err
	}
	return fn(sub, dst)
}

func runArrayMap(it parser.Iter, dst []byte, fn func(parser.Iter, []byte) ([]byte, bool, error)) ([]byte, bool, error) {
	if it.Tag() != parser.TagArrayStart {
		return dst, false, nil
	}
	arr, err := it.Array(nil)
	if err != nil {
		return dst, false, err
	}
	dst = append(dst, '[')
	first := true
	var retErr error
	handledAll := true
	arr.ForEach(func(elem *parser.Iter) bool {
		if !handledAll {
			return false
		}
		if !first {
			dst = append(dst, ',')
		}
		first = false
		var ok bool
		dst, ok, retErr = fn(*elem, dst)
		if retErr != nil || !ok {
			handledAll = false
			return false
		}
		return true
	})
	if retErr != nil {
		return dst, false, retErr
	}
	if !handledAll {
		return dst, false, nil
	}
	dst = append(dst, ']')
	return dst, true, nil
}

func scalarLength(it parser.Iter, dst []byte) ([]byte, bool, error) {
	switch it.Tag() {
	case parser.TagArrayStart:
		arr, err := it.Array(nil)
		if err != nil {
			return dst, false, err
		}
		return strconv.AppendInt(dst, int64(arr.Len()), 10), true, nil
	case parser.TagObjectStart:
		obj, err := it.Object(nil)
		if err != nil {
			return dst, false, err
		}
		n := 0
		obj.ForEach(func(string, *parser.Iter) bool { n++; return true })
		return strconv.AppendInt(dst, int64(n), 10), true, nil
	case parser.TagString:
		s, err := it.String()
		if err != nil {
			return dst, false, err
		}
		return strconv.AppendInt(dst, int64(len(s)), 10), true, nil
	case parser.TagNull:
		return append(dst, '0'), true, nil
	default:
		return dst, false, nil // numbers/bools need abs()/error semantics -- defer to Generic.
	}
}

func scalarKeys(it parser.Iter, dst []byte) ([]byte, bool, error) {
	if it.Tag() != parser.TagObjectStart {
		return dst, false, nil
	}
	obj, err := it.Object(nil)
	if err != nil {
		return dst, false, err
	}
	var keys []string
	obj.ForEach(func(k string, _ *parser.Iter) bool { keys = append(keys, k); return true })
	sortStrings(keys)
	dst = append(dst, '[')
	for i, k := range keys {
		if i > 0 {
			dst = append(dst, ',')
		}
		dst = append(dst, '"')
		dst = append(dst, k...)
		dst = append(dst, '"')
	}
	dst = append(dst, ']')
	return dst, true, nil
}

func scalarType(it parser.Iter, dst []byte) ([]byte, bool, error) {
	var name string
	switch it.Tag() {
	case parser.TagNull:
		name = "null"
	case parser.TagBoolTrue, parser.TagBoolFalse:
		name = "boolean"
	case parser.TagInteger, parser.TagUint, parser.TagFloat:
		name = "number"
	case parser.TagString:
		name = "string"
	case parser.TagArrayStart:
		name = "array"
	case parser.TagObjectStart:
		name = "object"
	default:
		return dst, false, nil
	}
	dst = append(dst, '"')
	dst = append(dst, name...)
	dst = append(dst, '"')
	return dst, true, nil
}

// compareLiteral compares the value queued on it against an AST literal
// node, for the narrow set of operators SelectEqExtract supports. ok is
// false when the comparison can't be resolved without building a value
// (e.g. mismatched types where jq's total order still has a defined
// answer) -- the caller then falls back to Generic rather than guess.
func compareLiteral(it parser.Iter, lit *ast.Node) (matched bool, ok bool) {
	switch lit.Kind {
	case ast.KindString:
		want, lok := stringLiteral(lit)
		if !lok {
			return false, false
		}
		if it.Tag() != parser.TagString {
			return false, true
		}
		s, err := it.String()
		if err != nil {
			return false, false
		}
		return s == want, true
	case ast.KindNumber:
		switch it.Tag() {
		case parser.TagInteger, parser.TagUint, parser.TagFloat:
			f, err := it.Float()
			if err != nil {
				return false, false
			}
			return f == lit.Num, true
		default:
			return false, true
		}
	case ast.KindBool:
		switch it.Tag() {
		case parser.TagBoolTrue:
			return lit.Bool, true
		case parser.TagBoolFalse:
			return !lit.Bool, true
		default:
			return false, true
		}
	case ast.KindNull:
		return it.Tag() == parser.TagNull, true
	}
	return false, false
}

// compareOrdered evaluates one of the ordering operators (<, <=, >, >=)
// against a value queued on it and a number or string literal -- numeric
// comparison by parsed float, string comparison by byte order, matching
// Go's native string less-than for valid UTF-8. ok is false whenever it
// isn't the same JSON type as lit, since ordering a number against a string
// (or either against bool/null) needs jq's full cross-type order, which this
// dispatcher leaves to Generic rather than guess.
func compareOrdered(it parser.Iter, lit *ast.Node, op string) (matched bool, ok bool) {
	switch lit.Kind {
	case ast.KindNumber:
		switch it.Tag() {
		case parser.TagInteger, parser.TagUint, parser.TagFloat:
			f, err := it.Float()
			if err != nil {
				return false, false
			}
			return compareFloats(f, lit.Num, op), true
		default:
			return false, false
		}
	case ast.KindString:
		want, lok := stringLiteral(lit)
		if !lok || it.Tag() != parser.TagString {
			return false, false
		}
		s, err := it.String()
		if err != nil {
			return false, false
		}
		return compareStrings(s, want, op), true
	}
	return false, false
}

// stringLiteral returns the text of a string literal with no interpolation,
// which the parser stores as a single literal part.
func stringLiteral(lit *ast.Node) (string, bool) {
	if len(lit.Parts) == 1 && lit.Parts[0].Expr == nil {
		return lit.Parts[0].Lit, true
	}
	return "", false
}

func compareFloats(a, b float64, op string) bool {
	switch op {
	case "<":
		return a < b
	case "<=":
		return a <= b
	case ">":
		return a > b
	case ">=":
		return a >= b
	}
	return false
}

func compareStrings(a, b string, op string) bool {
	switch op {
	case "<":
		return a < b
	case "<=":
		return a <= b
	case ">":
		return a > b
	case ">=":
		return a >= b
	}
	return false
}

func sortStrings(s []string) {
	for i := 1; i < len(s); i++ {
		for j := i; j > 0 && s[j-1] > s[j]; j-- {
			s[j-1], s[j] = s[j], s[j-1]
		}
	}
}
