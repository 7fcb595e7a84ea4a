// Package engine wires the three evaluator tiers described by the system
// design -- the passthrough dispatcher, the lazy flat-token evaluator, and
// the generic value-tree evaluator -- into one Run call per document, plus
// the glue the NDJSON pipeline needs to reuse that same tiering per line.
package engine

import (
	"github.com/simdjq/simdjq/internal/ast"
	"github.com/simdjq/simdjq/internal/eval"
	"github.com/simdjq/simdjq/internal/parser"
	"github.com/simdjq/simdjq/internal/value"
)

// flatEval is the second tier: a visitor over the AST that walks the flat
// token buffer directly for the subset of filters it recognizes, decoding a
// value.Value only at the point a construct it doesn't specialize is
// reached. Unlike the dispatcher, it never needs byte-identical output --
// it just needs to avoid building a value tree for the parts of the
// document the filter never looks at.
//
// handled reports whether flatEval fully produced n's output for this
// document; when false the caller must decode the document and hand it to
// eval.Eval instead. flatEval never partially emits before reporting
// handled=false for the SAME node -- it only falls back at points where
// nothing has been emitted yet, so re-running through the value-tree
// evaluator from scratch is always safe.
func flatEval(n *ast.Node, it parser.Iter, env *eval.Env, emit eval.Emit) (handled bool, err error) {
	switch n.Kind {
	case ast.KindIdentity:
		v, err := value.Decode(&it)
		if err != nil {
			return false, err
		}
		return true, emit(v)

	case ast.KindField:
		ok, sub, err := flatField(n, it)
		if err != nil || !ok {
			return false, err
		}
		v, err := value.Decode(&sub)
		if err != nil {
			return false, err
		}
		return true, emit(v)

	case ast.KindPipe:
		return flatPipe(n, it, env, emit)

	case ast.KindIterate:
		return flatIterate(n.Left, it, env, emit)

	case ast.KindBinOp:
		return flatBinOp(n, it, env, emit)

	default:
		return false, nil
	}
}

// flatField resolves a single `.field` step applied to the input itself (not
// a chain, and not a field of another expression) against the value queued
// on it. ok is false when n is not such a step, when the input isn't an
// object, or when the key is missing; the caller then falls back to the
// generic evaluator, which yields `null` for a missing key.
func flatField(n *ast.Node, it parser.Iter) (ok bool, sub parser.Iter, err error) {
	if n.Left != nil && n.Left.Kind != ast.KindIdentity {
		return false, parser.Iter{}, nil
	}
	if it.Tag() != parser.TagObjectStart {
		return false, parser.Iter{}, nil
	}
	obj, err := it.Object(nil)
	if err != nil {
		return false, parser.Iter{}, err
	}
	var elem parser.Element
	if obj.FindKey(n.Str, &elem) == nil {
		return false, parser.Iter{}, nil
	}
	return true, elem.Iter, nil
}

// flatPipe handles Left | Right by trying to resolve Left to a single
// navigated position in the buffer (identity or a field step) and then
// recursing flatEval on Right from there. Any Left shape that can produce
// more than one output, or that isn't itself flat-navigable, bails out.
func flatPipe(n *ast.Node, it parser.Iter, env *eval.Env, emit eval.Emit) (bool, error) {
	switch n.Left.Kind {
	case ast.KindIdentity:
		return flatEval(n.Right, it, env, emit)
	case ast.KindField:
		ok, sub, err := flatField(n.Left, it)
		if err != nil || !ok {
			return false, err
		}
		return flatEval(n.Right, sub, env, emit)
	default:
		return false, nil
	}
}

// flatIterate handles `EXPR[]` when EXPR navigates flatly (identity or a
// field step), decoding each element independently rather than the whole
// container up front -- the point of staying in this tier at all.
func flatIterate(n *ast.Node, it parser.Iter, env *eval.Env, emit eval.Emit) (bool, error) {
	var container parser.Iter
	switch n.Kind {
	case ast.KindIdentity:
		container = it
	case ast.KindField:
		ok, sub, err := flatField(n, it)
		if err != nil || !ok {
			return false, err
		}
		container = sub
	default:
		return false, nil
	}
	switch container.Tag() {
	case parser.TagArrayStart:
		arr, err := container.Array(nil)
		if err != nil {
			return false, err
		}
		var emitErr error
		arr.ForEach(func(elem *parser.Iter) bool {
			v, err := value.Decode(elem)
			if err != nil {
				emitErr = err
				return false
			}
			if emitErr = emit(v); emitErr != nil {
				return false
			}
			return true
		})
		return emitErr == nil, emitErr
	case parser.TagObjectStart:
		obj, err := container.Object(nil)
		if err != nil {
			return false, err
		}
		var emitErr error
		obj.ForEach(func(_ string, elem *parser.Iter) bool {
			v, err := value.Decode(elem)
			if err != nil {
				emitErr = err
				return false
			}
			if emitErr = emit(v); emitErr != nil {
				return false
			}
			return true
		})
		return emitErr == nil, emitErr
	default:
		return false, eval.NewError("cannot iterate over %s", container.Tag().Type())
	}
}

// flatBinOp specializes comparison and arithmetic between two flat-navigable
// scalar operands (identity, a single field step, or a literal), matching the design note that
// primitive comparisons are the one compound expression worth keeping in
// this tier since they're common in select(...) guards that the dispatcher
// itself couldn't fully classify (e.g. comparing two fields to each other).
func flatBinOp(n *ast.Node, it parser.Iter, env *eval.Env, emit eval.Emit) (bool, error) {
	lv, ok, err := flatScalar(n.Left, it)
	if err != nil || !ok {
		return false, err
	}
	rv, ok, err := flatScalar(n.Right, it)
	if err != nil || !ok {
		return false, err
	}
	result, err := eval.ApplyBinOpExported(n.Str, lv, rv)
	if err != nil {
		return false, err
	}
	return true, emit(result)
}

// flatScalar resolves EXPR to a decoded value.Value only when EXPR is
// flatly navigable (identity, a field step, or a literal); anything else
// returns ok=false so the caller defers to the generic evaluator.
func flatScalar(n *ast.Node, it parser.Iter) (value.Value, bool, error) {
	switch n.Kind {
	case ast.KindIdentity:
		v, err := value.Decode(&it)
		return v, err == nil, err
	case ast.KindField:
		ok, sub, err := flatField(n, it)
		if err != nil || !ok {
			return value.Value{}, false, err
		}
		v, err := value.Decode(&sub)
		return v, err == nil, err
	case ast.KindNumber:
		if n.NumText != "" {
			return value.DoubleText(n.Num, n.NumText), true, nil
		}
		return value.Double(n.Num), true, nil
	case ast.KindString:
		if len(n.Parts) == 1 && n.Parts[0].Expr == nil {
			return value.String(n.Parts[0].Lit), true, nil
		}
		return value.Value{}, false, nil
	case ast.KindBool:
		return value.Bool(n.Bool), true, nil
	case ast.KindNull:
		return value.Null, true, nil
	default:
		return value.Value{}, false, nil
	}
}
