package eval

import (
	"fmt"

	"github.com/simdjq/simdjq/internal/ast"
	"github.com/simdjq/simdjq/internal/value"
)

// Emit is called once per value a filter generates. Returning an error
// aborts the enclosing Eval call with that error.
type Emit func(value.Value) error

// Eval runs n against in, calling emit once per generated output, in
// order. It is a direct transliteration of the generator semantics: a
// filter is a function from one input to a stream of outputs, and `|`
// composes two such streams by re-running the right side once per output
// of the left.
func Eval(n *ast.Node, in value.Value, env *Env, emit Emit) error {
	switch n.Kind {
	case ast.KindIdentity:
		return emit(in)

	case ast.KindRecurseDefault:
		return recurseAll(in, emit)

	case ast.KindNull:
		return emit(value.Null)
	case ast.KindBool:
		return emit(value.Bool(n.Bool))
	case ast.KindNumber:
		if n.NumText != "" {
			return emit(value.DoubleText(n.Num, n.NumText))
		}
		return emit(value.Double(n.Num))

	case ast.KindString:
		return evalStringParts(n.Parts, in, env, emit)

	case ast.KindFormat:
		return evalFormat(n, in, env, emit)

	case ast.KindField:
		return Eval(n.Left, in, env, func(v value.Value) error {
			r, err := indexField(v, n.Str)
			if err != nil {
				return err
			}
			return emit(r)
		})

	case ast.KindIterate:
		return Eval(n.Left, in, env, func(v value.Value) error {
			return iterateAll(v, emit)
		})

	case ast.KindIndex:
		return Eval(n.Left, in, env, func(base value.Value) error {
			return Eval(n.Right, in, env, func(idx value.Value) error {
				r, err := indexValue(base, idx)
				if err != nil {
					return err
				}
				return emit(r)
			})
		})

	case ast.KindSlice:
		return Eval(n.Left, in, env, func(base value.Value) error {
			return evalSliceBounds(n, in, env, func(lo, hi value.Value) error {
				r, err := sliceValue(base, lo, hi)
				if err != nil {
					return err
				}
				return emit(r)
			})
		})

	case ast.KindPipe:
		return Eval(n.Left, in, env, func(v value.Value) error {
			return Eval(n.Right, v, env, emit)
		})

	case ast.KindComma:
		if err := Eval(n.Left, in, env, emit); err != nil {
			return err
		}
		return Eval(n.Right, in, env, emit)

	case ast.KindArray:
		var items []value.Value
		if n.Left != nil {
			if err := Eval(n.Left, in, env, func(v value.Value) error {
				items = append(items, v.Retain())
				return nil
			}); err != nil {
				return err
			}
		}
		return emit(value.NewArray(items))

	case ast.KindObject:
		return evalObjectConstruction(n, in, env, emit)

	case ast.KindNeg:
		return Eval(n.Left, in, env, func(v value.Value) error {
			r, err := negate(v)
			if err != nil {
				return err
			}
			return emit(r)
		})

	case ast.KindBinOp:
		return Eval(n.Left, in, env, func(l value.Value) error {
			return Eval(n.Right, in, env, func(r value.Value) error {
				res, err := applyBinOp(n.Str, l, r)
				if err != nil {
					return err
				}
				return emit(res)
			})
		})

	case ast.KindAnd:
		return Eval(n.Left, in, env, func(l value.Value) error {
			if !l.Truthy() {
				return emit(value.Bool(false))
			}
			return Eval(n.Right, in, env, func(r value.Value) error {
				return emit(value.Bool(r.Truthy()))
			})
		})

	case ast.KindOr:
		return Eval(n.Left, in, env, func(l value.Value) error {
			if l.Truthy() {
				return emit(value.Bool(true))
			}
			return Eval(n.Right, in, env, func(r value.Value) error {
				return emit(value.Bool(r.Truthy()))
			})
		})

	case ast.KindAlt:
		return evalAlt(n, in, env, emit)

	case ast.KindVar:
		v, ok := env.lookupVar(n.Str)
		if !ok {
			return NewError("$%s is not defined", n.Str)
		}
		return emit(v)

	case ast.KindFuncCall:
		return evalFuncCall(n, in, env, emit)

	case ast.KindIf:
		return evalIf(n, in, env, emit)

	case ast.KindTry:
		return evalTry(n, in, env, emit)

	case ast.KindReduce:
		return evalReduce(n, in, env, emit)

	case ast.KindForeach:
		return evalForeach(n, in, env, emit)

	case ast.KindBind:
		return evalBind(n, in, env, emit)

	case ast.KindFuncDef:
		def := &funcDef{params: n.Params, body: n.Def}
		inner := env.withFunc(funcKey(n.Str, len(n.Params)), def)
		def.closure = inner
		if n.Rest == nil {
			return emit(in)
		}
		return Eval(n.Rest, in, inner, emit)

	case ast.KindLabel:
		err := Eval(n.Left, in, env.withVar("*label*"+n.Str, value.Null), emit)
		if bs, ok := err.(*breakSignal); ok && bs.label == n.Str {
			return nil
		}
		return err

	case ast.KindBreak:
		if _, ok := env.lookupVar("*label*" + n.Str); !ok {
			return NewError("$*label*%s is not defined", n.Str)
		}
		return &breakSignal{label: n.Str}

	case ast.KindAssign, ast.KindUpdateOp:
		return evalAssignment(n, in, env, emit)

	default:
		return fmt.Errorf("unsupported AST node kind %v", n.Kind)
	}
}

func evalStringParts(parts []ast.StringPart, in value.Value, env *Env, emit Emit) error {
	return evalStringPartsFrom(parts, 0, "", in, env, emit)
}

func evalStringPartsFrom(parts []ast.StringPart, i int, acc string, in value.Value, env *Env, emit Emit) error {
	if i == len(parts) {
		return emit(value.String(acc))
	}
	part := parts[i]
	if part.Expr == nil {
		return evalStringPartsFrom(parts, i+1, acc+part.Lit, in, env, emit)
	}
	return Eval(part.Expr, in, env, func(v value.Value) error {
		s, err := ToStringForInterpolation(v)
		if err != nil {
			return err
		}
		return evalStringPartsFrom(parts, i+1, acc+s, in, env, emit)
	})
}

func evalSliceBounds(n *ast.Node, in value.Value, env *Env, cb func(lo, hi value.Value) error) error {
	loVals := []value.Value{value.Null}
	hiVals := []value.Value{value.Null}
	if n.Lo != nil {
		loVals = nil
		if err := Eval(n.Lo, in, env, func(v value.Value) error {
			loVals = append(loVals, v)
			return nil
		}); err != nil {
			return err
		}
	}
	if n.Hi != nil {
		hiVals = nil
		if err := Eval(n.Hi, in, env, func(v value.Value) error {
			hiVals = append(hiVals, v)
			return nil
		}); err != nil {
			return err
		}
	}
	for _, lo := range loVals {
		for _, hi := range hiVals {
			if err := cb(lo, hi); err != nil {
				return err
			}
		}
	}
	return nil
}

func evalAlt(n *ast.Node, in value.Value, env *Env, emit Emit) error {
	any := false
	err := Eval(n.Left, in, env, func(v value.Value) error {
		if v.Truthy() {
			any = true
			return emit(v)
		}
		return nil
	})
	if err != nil {
		if _, ok := err.(*breakSignal); ok {
			return err
		}
		err = nil
	}
	if any {
		return err
	}
	return Eval(n.Right, in, env, emit)
}

func evalIf(n *ast.Node, in value.Value, env *Env, emit Emit) error {
	return evalIfBranches(n.IfBranches, 0, n.Left, in, env, emit)
}

func evalIfBranches(branches []ast.IfBranch, i int, elseBody *Node, in value.Value, env *Env, emit Emit) error {
	if i == len(branches) {
		if elseBody == nil {
			return emit(in)
		}
		return Eval(elseBody, in, env, emit)
	}
	b := branches[i]
	return Eval(b.Cond, in, env, func(c value.Value) error {
		if c.Truthy() {
			return Eval(b.Body, in, env, emit)
		}
		return evalIfBranches(branches, i+1, elseBody, in, env, emit)
	})
}

// Node is an alias kept local to this file for evalIfBranches' signature
// readability; it is exactly ast.Node.
type Node = ast.Node

func evalTry(n *ast.Node, in value.Value, env *Env, emit Emit) error {
	err := Eval(n.Left, in, env, emit)
	if err == nil {
		return nil
	}
	if _, ok := err.(*breakSignal); ok {
		return err
	}
	if n.Right == nil {
		return nil
	}
	ee, ok := err.(*Error)
	var payload value.Value
	if ok && ee.Payload != nil {
		payload, _ = ee.Payload.(value.Value)
	} else {
		msg := err.Error()
		if ok {
			msg = ee.Message
		}
		payload = value.String(msg)
	}
	return Eval(n.Right, payload, env, emit)
}

func evalReduce(n *ast.Node, in value.Value, env *Env, emit Emit) error {
	acc := value.Null
	gotInit := false
	if err := Eval(n.Init, in, env, func(v value.Value) error {
		if !gotInit {
			acc = v.Retain()
			gotInit = true
		}
		return nil
	}); err != nil {
		return err
	}
	err := Eval(n.Source, in, env, func(item value.Value) error {
		benv, err := bindPattern(n.Pattern, item, env)
		if err != nil {
			return err
		}
		var next value.Value
		got := false
		if err := Eval(n.Update, acc, benv, func(v value.Value) error {
			next = v.Retain()
			got = true
			return nil
		}); err != nil {
			return err
		}
		acc.Release()
		if got {
			acc = next
		} else {
			acc = value.Null
		}
		return nil
	})
	if err != nil {
		return err
	}
	return emit(acc)
}

func evalForeach(n *ast.Node, in value.Value, env *Env, emit Emit) error {
	acc := value.Null
	gotInit := false
	if err := Eval(n.Init, in, env, func(v value.Value) error {
		if !gotInit {
			acc = v.Retain()
			gotInit = true
		}
		return nil
	}); err != nil {
		return err
	}
	return Eval(n.Source, in, env, func(item value.Value) error {
		benv, err := bindPattern(n.Pattern, item, env)
		if err != nil {
			return err
		}
		return Eval(n.Update, acc, benv, func(v value.Value) error {
			acc.Release()
			acc = v.Retain()
			if n.Extract != nil {
				return Eval(n.Extract, acc, benv, emit)
			}
			return emit(acc)
		})
	})
}

func evalBind(n *ast.Node, in value.Value, env *Env, emit Emit) error {
	return Eval(n.Left, in, env, func(v value.Value) error {
		benv, err := bindAlternatives(n.Patterns, v, env)
		if err != nil {
			return err
		}
		return Eval(n.Body, in, benv, emit)
	})
}

func bindAlternatives(patterns []*ast.Pattern, v value.Value, env *Env) (*Env, error) {
	var lastErr error
	for i, pat := range patterns {
		benv, err := bindPattern(pat, v, env)
		if err == nil {
			return benv, nil
		}
		lastErr = err
		if i == len(patterns)-1 {
			return nil, lastErr
		}
	}
	return nil, lastErr
}

func evalObjectConstruction(n *ast.Node, in value.Value, env *Env, emit Emit) error {
	return evalObjectEntries(n.Entries, 0, value.NewEmptyObject(), in, env, emit)
}

func evalObjectEntries(entries []ast.ObjectEntry, i int, acc *value.Object, in value.Value, env *Env, emit Emit) error {
	if i == len(entries) {
		return emit(value.NewObject(acc))
	}
	e := entries[i]
	emitKV := func(key string, val value.Value) error {
		next := acc.Unique().Set(key, val.Retain())
		return evalObjectEntries(entries, i+1, next, in, env, emit)
	}
	switch {
	case e.KeyVar != "":
		v, ok := env.lookupVar(e.KeyVar)
		if !ok {
			return NewError("$%s is not defined", e.KeyVar)
		}
		if e.Value == nil {
			return emitKV(e.KeyVar, v)
		}
		return Eval(e.Value, in, env, func(val value.Value) error {
			return emitKV(e.KeyVar, val)
		})
	case e.KeyExpr != nil:
		return Eval(e.KeyExpr, in, env, func(kv value.Value) error {
			key, ok := kv.AsString()
			if !ok {
				return NewError("object key must be a string, got %s", kv.TypeName())
			}
			if e.Value == nil {
				val, err := indexField(in, key)
				if err != nil {
					return err
				}
				return emitKV(key, val)
			}
			return Eval(e.Value, in, env, func(val value.Value) error {
				return emitKV(key, val)
			})
		})
	default:
		if e.Value == nil {
			val, err := indexField(in, e.KeyName)
			if err != nil {
				return err
			}
			return emitKV(e.KeyName, val)
		}
		return Eval(e.Value, in, env, func(val value.Value) error {
			return emitKV(e.KeyName, val)
		})
	}
}

func recurseAll(v value.Value, emit Emit) error {
	if err := emit(v); err != nil {
		return err
	}
	switch v.Kind() {
	case value.KindArray:
		arr, _ := v.Array()
		for i := 0; i < arr.Len(); i++ {
			if err := recurseAll(arr.At(i), emit); err != nil {
				return err
			}
		}
	case value.KindObject:
		obj, _ := v.Object()
		for _, k := range obj.KeysUnsorted() {
			val, _ := obj.Get(k)
			if err := recurseAll(val, emit); err != nil {
				return err
			}
		}
	}
	return nil
}

func iterateAll(v value.Value, emit Emit) error {
	switch v.Kind() {
	case value.KindArray:
		arr, _ := v.Array()
		for i := 0; i < arr.Len(); i++ {
			if err := emit(arr.At(i)); err != nil {
				return err
			}
		}
		return nil
	case value.KindObject:
		obj, _ := v.Object()
		for _, k := range obj.KeysUnsorted() {
			val, _ := obj.Get(k)
			if err := emit(val); err != nil {
				return err
			}
		}
		return nil
	default:
		return NewError("cannot iterate over %s", v.TypeName())
	}
}
