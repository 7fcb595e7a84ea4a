package eval

import (
	"github.com/simdjq/simdjq/internal/ast"
	"github.com/simdjq/simdjq/internal/value"
)

// EvalPath runs the path-producing subset of the filter language against
// root, calling emit once per path/value pair a path expression like
// `path(EXPR)` or an assignment's left-hand side would generate. Only the
// constructs that can appear in a path expression are accepted; anything
// else reports "Invalid path expression", matching jq's own restriction.
func EvalPath(n *ast.Node, root value.Value, cur value.Value, prefix []value.PathKey, env *Env, emit func(path []value.PathKey, v value.Value) error) error {
	switch n.Kind {
	case ast.KindIdentity:
		return emit(prefix, cur)

	case ast.KindRecurseDefault:
		return recursePaths(cur, prefix, emit)

	case ast.KindField:
		return EvalPath(n.Left, root, cur, prefix, env, func(p []value.PathKey, v value.Value) error {
			child, err := indexField(v, n.Str)
			if err != nil {
				return err
			}
			return emit(append(append([]value.PathKey(nil), p...), value.StrKey(n.Str)), child)
		})

	case ast.KindIterate:
		return EvalPath(n.Left, root, cur, prefix, env, func(p []value.PathKey, v value.Value) error {
			switch v.Kind() {
			case value.KindArray:
				arr, _ := v.Array()
				for i := 0; i < arr.Len(); i++ {
					if err := emit(append(append([]value.PathKey(nil), p...), value.IntKey(i)), arr.At(i)); err != nil {
						return err
					}
				}
				return nil
			case value.KindObject:
				obj, _ := v.Object()
				for _, k := range obj.KeysUnsorted() {
					val, _ := obj.Get(k)
					if err := emit(append(append([]value.PathKey(nil), p...), value.StrKey(k)), val); err != nil {
						return err
					}
				}
				return nil
			case value.KindNull:
				return nil
			default:
				return NewError("cannot iterate over %s", v.TypeName())
			}
		})

	case ast.KindIndex:
		return EvalPath(n.Left, root, cur, prefix, env, func(p []value.PathKey, v value.Value) error {
			return Eval(n.Right, root, env, func(idx value.Value) error {
				key, err := toPathKey(idx)
				if err != nil {
					return err
				}
				child, err := value.GetPath(v, []value.PathKey{key})
				if err != nil {
					return err
				}
				return emit(append(append([]value.PathKey(nil), p...), key), child)
			})
		})

	case ast.KindPipe:
		return EvalPath(n.Left, root, cur, prefix, env, func(p []value.PathKey, v value.Value) error {
			return EvalPath(n.Right, root, v, p, env, emit)
		})

	case ast.KindComma:
		if err := EvalPath(n.Left, root, cur, prefix, env, emit); err != nil {
			return err
		}
		return EvalPath(n.Right, root, cur, prefix, env, emit)

	case ast.KindTry:
		err := EvalPath(n.Left, root, cur, prefix, env, emit)
		if err != nil {
			if _, ok := err.(*breakSignal); ok {
				return err
			}
			return nil
		}
		return nil

	case ast.KindAlt:
		any := false
		err := EvalPath(n.Left, root, cur, prefix, env, func(p []value.PathKey, v value.Value) error {
			if v.Truthy() {
				any = true
				return emit(p, v)
			}
			return nil
		})
		if err != nil {
			return err
		}
		if any {
			return nil
		}
		return EvalPath(n.Right, root, cur, prefix, env, emit)

	case ast.KindIf:
		return evalIfPath(n, root, cur, prefix, env, emit)

	case ast.KindFuncCall:
		switch n.Str {
		case "empty":
			return nil
		case "select":
			if len(n.Args) != 1 {
				break
			}
			return Eval(n.Args[0], cur, env, func(c value.Value) error {
				if c.Truthy() {
					return emit(prefix, cur)
				}
				return nil
			})
		case "recurse":
			if len(n.Args) == 0 {
				return recursePaths(cur, prefix, emit)
			}
		case "first", "last":
			// not supported as a path-producing position; fall through to error
		}
	}
	return NewError("Invalid path expression near %v", n.Kind)
}

func evalIfPath(n *ast.Node, root, cur value.Value, prefix []value.PathKey, env *Env, emit func([]value.PathKey, value.Value) error) error {
	return evalIfPathBranches(n.IfBranches, 0, n.Left, root, cur, prefix, env, emit)
}

func evalIfPathBranches(branches []ast.IfBranch, i int, elseBody *ast.Node, root, cur value.Value, prefix []value.PathKey, env *Env, emit func([]value.PathKey, value.Value) error) error {
	if i == len(branches) {
		if elseBody == nil {
			return emit(prefix, cur)
		}
		return EvalPath(elseBody, root, cur, prefix, env, emit)
	}
	b := branches[i]
	return Eval(b.Cond, cur, env, func(c value.Value) error {
		if c.Truthy() {
			return EvalPath(b.Body, root, cur, prefix, env, emit)
		}
		return evalIfPathBranches(branches, i+1, elseBody, root, cur, prefix, env, emit)
	})
}

func recursePaths(v value.Value, prefix []value.PathKey, emit func([]value.PathKey, value.Value) error) error {
	if err := emit(prefix, v); err != nil {
		return err
	}
	switch v.Kind() {
	case value.KindArray:
		arr, _ := v.Array()
		for i := 0; i < arr.Len(); i++ {
			if err := recursePaths(arr.At(i), append(append([]value.PathKey(nil), prefix...), value.IntKey(i)), emit); err != nil {
				return err
			}
		}
	case value.KindObject:
		obj, _ := v.Object()
		for _, k := range obj.KeysUnsorted() {
			val, _ := obj.Get(k)
			if err := recursePaths(val, append(append([]value.PathKey(nil), prefix...), value.StrKey(k)), emit); err != nil {
				return err
			}
		}
	}
	return nil
}

func toPathKey(idx value.Value) (value.PathKey, error) {
	switch idx.Kind() {
	case value.KindString:
		s, _ := idx.AsString()
		return value.StrKey(s), nil
	case value.KindInt, value.KindDouble:
		i, _ := idx.AsInt()
		return value.IntKey(int(i)), nil
	default:
		return value.PathKey{}, NewError("cannot index with %s", idx.TypeName())
	}
}

// evalAssignment implements `=`, `|=`, and the arithmetic-update operators
// by evaluating the left-hand side as a path expression and rewriting the
// root value at each path it yields.
func evalAssignment(n *ast.Node, in value.Value, env *Env, emit Emit) error {
	if n.Kind == ast.KindAssign {
		return Eval(n.Right, in, env, func(newVal value.Value) error {
			cur := in
			err := EvalPath(n.Left, in, in, nil, env, func(p []value.PathKey, _ value.Value) error {
				updated, err := value.SetPath(cur, p, newVal)
				if err != nil {
					return err
				}
				cur = updated
				return nil
			})
			if err != nil {
				return err
			}
			return emit(cur)
		})
	}
	op := n.Str
	cur := in
	err := EvalPath(n.Left, in, in, nil, env, func(p []value.PathKey, old value.Value) error {
		if op == "//=" {
			if old.Truthy() {
				return nil
			}
		}
		var newVal value.Value
		var err error
		if op == "|=" || op == "//=" {
			newVal, err = firstResult(n.Right, old, env)
			if err != nil {
				return err
			}
		} else {
			// `a op= b` evaluates b against the original document (once per
			// path), then combines it with the value currently at the path -- matching
			// jq's own desugar of +=/-=/*=//=/%= rather than piping old
			// through b, which would make b see the wrong "." when old and
			// in are different types (e.g. `.a += .b` on {"a":1,"b":10}).
			rhs, rerr := firstResult(n.Right, in, env)
			if rerr != nil {
				return rerr
			}
			newVal, err = applyBinOp(op[:len(op)-1], old, rhs)
			if err != nil {
				return err
			}
		}
		updated, err := value.SetPath(cur, p, newVal)
		if err != nil {
			return err
		}
		cur = updated
		return nil
	})
	if err != nil {
		return err
	}
	return emit(cur)
}
