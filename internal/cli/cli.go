// Package cli builds the command-line surface: flag parsing via
// github.com/spf13/cobra, config-file layering via internal/config, input
// resolution (files/stdin/glob, transparent gzip/zstd), and the final
// translation of an *eval.Error into the documented process exit code. None
// of the filter language or evaluator tiering lives here -- this package is
// purely the ambient shell around internal/engine and internal/ndjson.
package cli

import (
	"bufio"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/simdjq/simdjq/internal/config"
	"github.com/simdjq/simdjq/internal/engine"
	"github.com/simdjq/simdjq/internal/eval"
	"github.com/simdjq/simdjq/internal/ndjson"
	"github.com/simdjq/simdjq/internal/parser"
	"github.com/simdjq/simdjq/internal/value"
)

type flags struct {
	compact      bool
	rawOutput    bool
	rawInput     bool
	slurp        bool
	sortKeys     bool
	nullInput    bool
	exitStatus   bool
	joinOutput   bool
	colorOutput  bool
	monochrome   bool
	asciiOutput  bool
	tab          bool
	indent       int
	jsonl        bool
	compatMode   bool
	args         map[string]string
	argjson      map[string]string
	slurpfiles   map[string]string
	jsonArgs     bool
}

// Execute builds the root command and runs it, returning the process exit
// code the documented contract requires (see SPEC_FULL.md §6): this is the
// only function cmd/simdjq calls.
func Execute(argv []string) int {
	signal.Reset(syscall.SIGPIPE)

	f := &flags{args: map[string]string{}, argjson: map[string]string{}, slurpfiles: map[string]string{}}
	root := &cobra.Command{
		Use:           "simdjq [flags] FILTER [FILES...]",
		Short:         "a jq-compatible JSON processor tuned for large documents and NDJSON streams",
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.MinimumNArgs(0),
	}
	registerFlags(root, f)

	var exitCode int
	root.RunE = func(cmd *cobra.Command, args []string) error {
		code, err := run(cmd, args, f)
		exitCode = code
		return err
	}
	root.SetArgs(argv)

	if err := root.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "simdjq: error: %v\n", err)
		if exitCode == 0 {
			exitCode = int(eval.ExitRuntimeErr)
		}
	}
	return exitCode
}

func registerFlags(cmd *cobra.Command, f *flags) {
	cmd.Flags().BoolVarP(&f.compact, "compact-output", "c", false, "compact instead of pretty-printed output")
	cmd.Flags().BoolVarP(&f.rawOutput, "raw-output", "r", false, "output raw strings, not JSON texts")
	cmd.Flags().BoolVarP(&f.rawInput, "raw-input", "R", false, "read raw strings, not JSON texts, as inputs")
	cmd.Flags().BoolVarP(&f.slurp, "slurp", "s", false, "read all inputs into an array and use it as the single input value")
	cmd.Flags().BoolVarP(&f.sortKeys, "sort-keys", "S", false, "sort object keys on output")
	cmd.Flags().BoolVarP(&f.nullInput, "null-input", "n", false, "don't read any input; run the filter once against null")
	cmd.Flags().BoolVarP(&f.exitStatus, "exit-status", "e", false, "exit with status 4 when no output is produced (the last output value is not inspected)")
	cmd.Flags().BoolVarP(&f.joinOutput, "join-output", "j", false, "like --raw-output, with no trailing newline between outputs")
	cmd.Flags().BoolVarP(&f.colorOutput, "color-output", "C", false, "force colored output")
	cmd.Flags().BoolVarP(&f.monochrome, "monochrome-output", "M", false, "force uncolored output")
	cmd.Flags().BoolVar(&f.asciiOutput, "ascii-output", false, "escape non-ASCII output characters")
	cmd.Flags().BoolVar(&f.tab, "tab", false, "indent output with a tab character")
	cmd.Flags().IntVar(&f.indent, "indent", 2, "indent output with N spaces")
	cmd.Flags().BoolVar(&f.jsonl, "jsonl", false, "force the NDJSON pipeline instead of detecting it from the input's first lines")
	cmd.Flags().BoolVar(&f.compatMode, "compat-mode", false, "match reference-implementation quirks (integer overflow demotion, etc.) exactly")
	cmd.Flags().StringToStringVar(&f.args, "arg", nil, "--arg NAME=VALUE: bind $NAME to the string VALUE")
	cmd.Flags().StringToStringVar(&f.argjson, "argjson", nil, "--argjson NAME=JSON: bind $NAME to the parsed JSON value")
	cmd.Flags().StringToStringVar(&f.slurpfiles, "slurpfile", nil, "--slurpfile NAME=FILE: bind $NAME to an array of FILE's JSON values")
	cmd.Flags().BoolVar(&f.jsonArgs, "jsonargs", false, "parse remaining positional arguments as JSON values, not strings")
}

func run(cmd *cobra.Command, args []string, f *flags) (int, error) {
	cfg := config.LoadDefault()
	applyConfigDefaults(f, cfg)

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	slog.SetDefault(logger)

	if len(args) == 0 {
		return int(eval.ExitUsageError), fmt.Errorf("no filter given")
	}
	filterSrc, positional := args[0], args[1:]

	named := newNamedArgs()
	for k, v := range f.args {
		named.AddArg(k, v)
	}
	for k, v := range f.argjson {
		if err := named.AddArgJSON(k, v); err != nil {
			return int(eval.ExitUsageError), err
		}
	}
	for k, path := range f.slurpfiles {
		if err := named.AddSlurpfile(k, path); err != nil {
			return int(eval.ExitUsageError), err
		}
	}
	argsObj, err := named.ToArgsObject(positional, f.jsonArgs)
	if err != nil {
		return int(eval.ExitUsageError), err
	}
	named.set("ARGS", argsObj)
	named.set("ENV", envObject())

	useColor := resolveColor(f)
	if useColor {
		color.NoColor = false
	} else {
		color.NoColor = true
	}

	opts := engine.Options{
		SortKeys:    f.sortKeys,
		RawOutput:   f.rawOutput || f.joinOutput,
		RawInput:    f.rawInput,
		JoinOutput:  f.joinOutput,
		AsciiOutput: f.asciiOutput,
		ColorOutput: useColor,
		Slurp:       f.slurp,
		Tab:         f.tab,
		IndentWidth: f.indent,
	}
	if f.compact {
		opts.Tab, opts.IndentWidth = false, 0
	}

	eng, err := engine.New(filterSrc, opts)
	if err != nil {
		if ee, ok := err.(*eval.Error); ok {
			return int(ee.Code), ee
		}
		return int(eval.ExitCompileErr), err
	}

	envVars := named.Values
	newEnv := func() *eval.Env {
		return eval.NewRootEnv(envVars, nil, func() (value.Value, bool, error) { return value.Null, false, nil }, currentUnixTime)
	}

	out := bufio.NewWriter(cmd.OutOrStdout())
	defer out.Flush()

	var produced int
	if f.nullInput {
		produced, err = eng.RunValue(out, nullIter(), newEnv())
	} else {
		produced, err = runInputs(out, eng, positional, f, newEnv)
	}
	if err != nil {
		out.Flush()
		if ee, ok := err.(*eval.Error); ok {
			fmt.Fprintf(os.Stderr, "simdjq: error: %s\n", ee.Message)
			return int(ee.Code), nil
		}
		fmt.Fprintf(os.Stderr, "simdjq: error: %v\n", err)
		return int(eval.ExitRuntimeErr), nil
	}
	if f.exitStatus {
		if produced == 0 {
			return int(eval.ExitNoOutput), nil
		}
	}
	return int(eval.ExitOK), nil
}

func applyConfigDefaults(f *flags, cfg config.Config) {
	if cfg.IndentWidth != nil && f.indent == 2 {
		f.indent = *cfg.IndentWidth
	}
	if cfg.Color != nil && *cfg.Color && !f.monochrome {
		f.colorOutput = true
	}
	if cfg.CompatMode != nil {
		f.compatMode = f.compatMode || *cfg.CompatMode
	}
}

func resolveColor(f *flags) bool {
	if f.monochrome {
		return false
	}
	if f.colorOutput {
		return true
	}
	return isatty.IsTerminal(os.Stdout.Fd())
}

func currentUnixTime() float64 {
	return float64(time.Now().UnixNano()) / 1e9
}

func envObject() value.Value {
	obj := value.NewEmptyObject()
	for _, kv := range os.Environ() {
		for i := 0; i < len(kv); i++ {
			if kv[i] == '=' {
				obj = obj.Set(kv[:i], value.String(kv[i+1:]))
				break
			}
		}
	}
	return value.NewObject(obj)
}

// nullIter builds a parser.Iter queued on a literal `null`, for --null-input
// mode where the filter runs once without reading any input document.
func nullIter() parser.Iter {
	t, _ := parser.Parse(parser.PadBuffer([]byte("null")), nil)
	it := t.Iter()
	it.Advance()
	return it
}

// ndjsonSniffBytes bounds how much of a stream's head the NDJSON heuristic
// inspects before committing to a pipeline, so auto-detection never stalls
// waiting on a single giant whole-document input to fill a larger buffer.
const ndjsonSniffBytes = 64 * 1024

// looksLikeNDJSON implements the auto-detection heuristic: the stream is
// treated as NDJSON once its head contains at least two newlines each
// immediately followed (after optional horizontal whitespace) by a `{` or
// `[`, the same signal a human skimming the first few lines would use.
func looksLikeNDJSON(head []byte) bool {
	hits := 0
	for i, b := range head {
		if b != '\n' {
			continue
		}
		j := i + 1
		for j < len(head) && (head[j] == ' ' || head[j] == '\t' || head[j] == '\r') {
			j++
		}
		if j < len(head) && (head[j] == '{' || head[j] == '[') {
			hits++
			if hits >= 2 {
				return true
			}
		}
	}
	return false
}

// runInputs drives one or more positional file arguments (or stdin when
// none are given) through the NDJSON pump when the stream looks like
// NDJSON, or through a single Engine.RunTape call per whole-document input
// otherwise.
func runInputs(w io.Writer, eng *engine.Engine, positional []string, f *flags, newEnv func() *eval.Env) (int, error) {
	paths := positional
	if len(paths) > 0 {
		expanded, err := expandGlobs(paths)
		if err != nil {
			return 0, err
		}
		paths = expanded
	}

	total := 0
	process := func(r io.Reader) (int, error) {
		br := bufio.NewReaderSize(r, ndjsonSniffBytes)
		peek, _ := br.Peek(ndjsonSniffBytes)
		if f.jsonl || looksLikeNDJSON(peek) {
			result, err := ndjson.Pump(br, w, eng, newEnv, ndjson.Options{})
			return result.ValuesProduced, err
		}
		data, err := io.ReadAll(br)
		if err != nil {
			return 0, err
		}
		t, err := parser.Parse(parser.PadBuffer(data), nil, parser.WithNumberText(true))
		if err != nil {
			return 0, &eval.Error{Code: eval.ExitInputParse, Message: fmt.Sprintf("input parse error: %v", err)}
		}
		return eng.RunTape(w, t, newEnv())
	}

	if len(paths) == 0 {
		n, err := process(os.Stdin)
		return n, err
	}
	for _, p := range paths {
		in, err := openInput(p)
		if err != nil {
			return total, err
		}
		n, err := process(in)
		in.Close()
		if err != nil {
			return total, err
		}
		total += n
	}
	return total, nil
}

