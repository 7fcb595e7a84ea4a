package eval

import "github.com/simdjq/simdjq/internal/ast"

// preludeSource holds standard-library functions expressible purely in
// terms of the builtins wired in builtins.go, the same split upstream jq
// draws between its C primitives and builtin.jq. Keeping these as jq source
// rather than Go code means the definitions read exactly like any other
// library filter a user might write.
const preludeSource = `
def walk(f):
  def w: if type == "object" then map_values(w) elif type == "array" then map(w) else . end | f;
  w;
def combinations:
  if length == 0 then [] else
    .[0][] as $x | [$x] + (.[1:] | combinations)
  end;
def combinations(n):
  . as $dot | [range(n) | $dot] | combinations;
def in_place(f): f;
.
`

// loadPrelude parses preludeSource once and registers every def it contains
// directly into root's function table, without evaluating the trailing
// identity. This mirrors how KindFuncDef nesting already works in Eval
// (§ast.KindFuncDef in interp.go) but skips the Eval call entirely since
// there is no input document yet at Env-construction time.
func loadPrelude(root *Env) (*Env, error) {
	prog, err := ast.Parse(preludeSource)
	if err != nil {
		return root, err
	}
	env := root
	for n := prog; n != nil && n.Kind == ast.KindFuncDef; n = n.Rest {
		def := &funcDef{params: n.Params, body: n.Def}
		env = env.withFunc(funcKey(n.Str, len(n.Params)), def)
		def.closure = env
	}
	return env, nil
}
