package engine

import (
	"fmt"
	"io"
	"strings"

	"github.com/simdjq/simdjq/internal/ast"
	"github.com/simdjq/simdjq/internal/dispatch"
	"github.com/simdjq/simdjq/internal/eval"
	"github.com/simdjq/simdjq/internal/parser"
	"github.com/simdjq/simdjq/internal/value"
)

// Options is the subset of CLI configuration that changes how a compiled
// filter is executed and how its output is rendered; it has no knowledge of
// flag parsing or file handling, which live in internal/cli.
type Options struct {
	SortKeys    bool
	RawOutput   bool
	RawInput    bool
	JoinOutput  bool
	AsciiOutput bool
	ColorOutput bool
	Slurp       bool
	Tab         bool
	IndentWidth int // >0 selects pretty output (always two-space indented); 0 with Tab unset selects compact output
}

func (o Options) dispatchOptions() dispatch.Options {
	return dispatch.Options{
		SortKeys:    o.SortKeys,
		RawOutput:   o.RawOutput,
		ColorOutput: o.ColorOutput,
		AsciiOutput: o.AsciiOutput,
		Slurp:       o.Slurp,
		RawInput:    o.RawInput,
	}
}

func (o Options) pretty() bool { return o.Tab || o.IndentWidth > 0 }

// Engine is one compiled filter ready to run against any number of
// documents. Compiling the dispatch plan once per filter, rather than once
// per document, is what lets a correctly-classified dispatch tag amortize
// its cost across an entire NDJSON stream.
type Engine struct {
	prog *ast.Node
	opts Options
	plan dispatch.Plan
}

// New parses filterSrc and classifies it once.
func New(filterSrc string, opts Options) (*Engine, error) {
	prog, err := ast.Parse(filterSrc)
	if err != nil {
		return nil, &eval.Error{Code: eval.ExitCompileErr, Message: fmt.Sprintf("jq: error: %v", err)}
	}
	plan := dispatch.Classify(prog, opts.dispatchOptions())
	if opts.pretty() {
		// Every raw-byte specialization writes compact text.
		plan = dispatch.Plan{Tag: dispatch.Generic}
	}
	return &Engine{prog: prog, opts: opts, plan: plan}, nil
}

// RunTape evaluates the engine's filter against every top-level value on
// tape (there is exactly one for a single-document parse, and is called
// once per line by the NDJSON pipeline reusing the same Engine), writing
// formatted output to w. It reports how many values were produced, which
// the CLI layer needs for the -e exit status rule.
func (e *Engine) RunTape(w io.Writer, tape *parser.Tape, env *eval.Env) (produced int, err error) {
	it := tape.Iter()
	it.Advance()
	return e.RunValue(w, it, env)
}

// RunValue evaluates against a single already-advanced parser.Iter.
func (e *Engine) RunValue(w io.Writer, it parser.Iter, env *eval.Env) (produced int, err error) {
	if e.plan.Tag != dispatch.Generic {
		out, handled, err := dispatch.Run(e.plan, it, nil)
		if err != nil {
			return 0, err
		}
		if handled {
			if len(out) == 0 {
				return 0, nil // select(...) suppressed this document
			}
			if err := e.writeRaw(w, out); err != nil {
				return 0, err
			}
			return 1, nil
		}
		// Runtime shape didn't match the compiled plan (e.g. map() over a
		// non-array) -- fall through to the generic tiers for this one
		// document without changing the plan for the next one.
	}

	sink := func(v value.Value) error {
		produced++
		return e.writeValue(w, v)
	}

	if handled, err := flatEval(e.prog, it, env, sink); handled {
		return produced, err
	} else if err != nil {
		return produced, err
	}

	root, err := value.Decode(&it)
	if err != nil {
		return produced, &eval.Error{Code: eval.ExitInputParse, Message: err.Error()}
	}
	produced = 0
	err = eval.Eval(e.prog, root, env, sink)
	return produced, err
}

func (e *Engine) writeRaw(w io.Writer, out []byte) error {
	if e.opts.AsciiOutput {
		out = []byte(asciiEscape(string(out)))
	}
	if _, err := w.Write(out); err != nil {
		return err
	}
	return e.writeSep(w)
}

func (e *Engine) writeValue(w io.Writer, v value.Value) error {
	if e.opts.RawOutput {
		if s, ok := v.AsString(); ok {
			if _, err := io.WriteString(w, s); err != nil {
				return err
			}
			return e.writeSep(w)
		}
	}
	text, err := eval.ToJSONText(v, e.opts.SortKeys, e.opts.pretty())
	if err != nil {
		return err
	}
	if e.opts.AsciiOutput {
		text = asciiEscape(text)
	}
	if e.opts.ColorOutput {
		text = colorizeJSON(text)
	}
	if _, err := io.WriteString(w, text); err != nil {
		return err
	}
	return e.writeSep(w)
}

func (e *Engine) writeSep(w io.Writer) error {
	if e.opts.JoinOutput {
		return nil
	}
	_, err := io.WriteString(w, "\n")
	return err
}

// asciiEscape rewrites every non-ASCII rune in s as a \uXXXX escape. Every
// byte of JSON structural syntax (braces, colons, digits, true/false/null)
// is already ASCII, so this can run over the whole formatted text rather
// than needing to track string-literal boundaries itself.
func asciiEscape(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r < 0x80 {
			b.WriteRune(r)
			continue
		}
		if r > 0xffff {
			r -= 0x10000
			hi := 0xd800 + (r >> 10)
			lo := 0xdc00 + (r & 0x3ff)
			fmt.Fprintf(&b, "\\u%04x\\u%04x", hi, lo)
			continue
		}
		fmt.Fprintf(&b, "\\u%04x", r)
	}
	return b.String()
}
