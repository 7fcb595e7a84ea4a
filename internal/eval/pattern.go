package eval

import (
	"github.com/simdjq/simdjq/internal/ast"
	"github.com/simdjq/simdjq/internal/value"
)

// bindPattern binds v against pat, returning a child Env with every
// variable pat names bound. Object/array patterns recurse, matching jq's
// destructuring `as [$a, {b: $c}]` forms; a leaf pattern whose key is
// absent from an object binds null rather than erroring.
func bindPattern(pat *ast.Pattern, v value.Value, env *Env) (*Env, error) {
	child := env.child()
	if err := bindPatternInto(pat, v, env, child); err != nil {
		return nil, err
	}
	return child, nil
}

func bindPatternInto(pat *ast.Pattern, v value.Value, evalEnv *Env, dst *Env) error {
	switch {
	case pat.Var != "":
		if dst.vars == nil {
			dst.vars = map[string]value.Value{}
		}
		dst.vars[pat.Var] = v.Retain()
		return nil
	case pat.Array != nil:
		for i, sub := range pat.Array {
			elem, err := value.GetPath(v, []value.PathKey{value.IntKey(i)})
			if err != nil {
				return err
			}
			if err := bindPatternInto(sub, elem, evalEnv, dst); err != nil {
				return err
			}
		}
		return nil
	default: // object pattern
		for _, entry := range pat.Object {
			key := entry.KeyName
			if entry.KeyVar != "" {
				key = entry.KeyVar
			}
			if entry.KeyExpr != nil {
				kv, err := firstResult(entry.KeyExpr, v, dst)
				if err != nil {
					return err
				}
				k, ok := kv.AsString()
				if !ok {
					return NewError("object pattern key must be a string")
				}
				key = k
			}
			elem, err := value.GetPath(v, []value.PathKey{value.StrKey(key)})
			if err != nil {
				return err
			}
			if err := bindPatternInto(entry.Value, elem, evalEnv, dst); err != nil {
				return err
			}
		}
		return nil
	}
}

func firstResult(n *ast.Node, in value.Value, env *Env) (value.Value, error) {
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
			return value.Value{}, err
		}
	}
	if !got {
		return value.Null, nil
	}
	return out, nil
}
