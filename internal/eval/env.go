package eval

import (
	"strconv"

	"github.com/simdjq/simdjq/internal/ast"
	"github.com/simdjq/simdjq/internal/value"
)

type funcDef struct {
	params  []string
	body    *ast.Node
	closure *Env
}

// Env is a lexical scope: variable bindings and function definitions,
// chained to a parent so inner `def`/`as` scopes shadow outer ones without
// copying the whole table.
type Env struct {
	parent *Env
	vars   map[string]value.Value
	funcs  map[string]*funcDef

	// Root points at the single Env shared by every frame of one Run call;
	// it carries shell environment, named arguments, and the nextInput
	// feed for `input`/`inputs`, none of which are ever shadowed.
	root *rootEnv
}

type rootEnv struct {
	namedArgs   map[string]value.Value
	envVars     map[string]value.Value
	nextInput   func() (value.Value, bool, error)
	currentTime func() float64

	callDepth  int
	iterations int
}

// maxCallDepth bounds nested user-defined function calls (most commonly
// recursive defs, e.g. `def f: f; f`): each call into a def checks and
// restores this counter around its body so a runaway recursion reports a
// Resource error instead of exhausting the Go stack.
const maxCallDepth = 1024

// maxIterations bounds the total number of steps taken across this run's
// repeat/while/until loops and recurse(f) calls, the constructs whose
// termination depends on a user filter rather than a finite value tree.
const maxIterations = 1_000_000

func (r *rootEnv) enterCall() error {
	r.callDepth++
	if r.callDepth > maxCallDepth {
		r.callDepth--
		return NewError("call depth exceeded (max %d)", maxCallDepth)
	}
	return nil
}

func (r *rootEnv) exitCall() { r.callDepth-- }

func (r *rootEnv) step() error {
	r.iterations++
	if r.iterations > maxIterations {
		return NewError("iteration limit exceeded (max %d)", maxIterations)
	}
	return nil
}

// NewRootEnv builds the outermost Env for one invocation of the filter,
// with the embedded standard-library prelude (walk, combinations, ...)
// already registered. A prelude parse failure would be a bug in this
// package, not something a caller can act on, so it panics rather than
// threading a second error return through every construction site.
func NewRootEnv(namedArgs map[string]value.Value, envVars map[string]value.Value, nextInput func() (value.Value, bool, error), currentTime func() float64) *Env {
	root := &Env{
		vars:  map[string]value.Value{},
		funcs: map[string]*funcDef{},
		root: &rootEnv{
			namedArgs:   namedArgs,
			envVars:     envVars,
			nextInput:   nextInput,
			currentTime: currentTime,
		},
	}
	env, err := loadPrelude(root)
	if err != nil {
		panic("eval: embedded prelude failed to parse: " + err.Error())
	}
	return env
}

func (e *Env) child() *Env {
	return &Env{parent: e, root: e.root}
}

func (e *Env) withVar(name string, v value.Value) *Env {
	c := e.child()
	c.vars = map[string]value.Value{name: v}
	return c
}

func (e *Env) lookupVar(name string) (value.Value, bool) {
	for env := e; env != nil; env = env.parent {
		if v, ok := env.vars[name]; ok {
			return v, true
		}
	}
	if v, ok := e.root.namedArgs[name]; ok {
		return v, true
	}
	if name == "ENV" {
		obj := value.NewEmptyObject()
		for k, v := range e.root.envVars {
			obj = obj.Set(k, v)
		}
		return value.NewObject(obj), true
	}
	return value.Value{}, false
}

func (e *Env) withFunc(name string, def *funcDef) *Env {
	c := e.child()
	c.funcs = map[string]*funcDef{name: def}
	return c
}

func funcKey(name string, arity int) string {
	return name + "/" + strconv.Itoa(arity)
}

func (e *Env) lookupFunc(name string, arity int) (*funcDef, bool) {
	key := funcKey(name, arity)
	for env := e; env != nil; env = env.parent {
		if d, ok := env.funcs[key]; ok {
			return d, true
		}
	}
	return nil, false
}
