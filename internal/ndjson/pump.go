// Package ndjson implements the parallel pipeline that feeds the tiered
// evaluator across an NDJSON stream: boundary discovery splits the input
// into chunks of whole lines, a worker pool runs the same Engine.RunValue
// tiering used for single documents across chunks concurrently, and the
// main goroutine reassembles output in source order.
package ndjson

import (
	"bytes"
	"fmt"
	"io"
	"log/slog"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/simdjq/simdjq/internal/eval"
	"github.com/simdjq/simdjq/internal/parser"
)

// line is a boundary-discovered (offset, length) borrow into the input
// window. Workers parse it in place; only a line ending within
// parser.PaddingBytes of the window's end is copied, by PadBuffer.
type line struct {
	start, end int // half-open byte range within the window, newline excluded
}

// chunkTargetBytes is the per-chunk grouping target boundary discovery aims
// for; grouping whole lines up to roughly this size keeps each worker's
// task large enough to amortize goroutine scheduling overhead without
// making any one straggler chunk dominate the wall-clock time.
const chunkTargetBytes = 1 << 20

// chunk is a contiguous run of lines dispatched to one worker.
type chunk struct {
	lines []line
}

// EnvFactory builds a fresh per-document Env sharing the same root
// bindings (named args, $ENV, `now`) -- called once per line rather than
// once per chunk, since variable bindings introduced inside one line's
// filter (`... as $x | ...`) must never leak into the next line.
type EnvFactory func() *eval.Env

// Runner is the subset of engine.Engine the pump needs: evaluate one
// already-parsed document and write its formatted output.
type Runner interface {
	RunValue(w io.Writer, it parser.Iter, env *eval.Env) (produced int, err error)
}

// Options configures the pump.
type Options struct {
	Concurrency int // 0 means runtime.GOMAXPROCS(0)
	Logger      *slog.Logger
}

// Result reports aggregate statistics the CLI layer needs for the -e exit
// status rule and for deciding the process's final exit code.
type Result struct {
	LinesProcessed int
	ValuesProduced int
	LineErrors     int
}

// Pump reads NDJSON from r, evaluates runner's filter against every line,
// and writes ordered output to w.
func Pump(r io.Reader, w io.Writer, runner Runner, envFactory EnvFactory, opts Options) (Result, error) {
	buf, err := io.ReadAll(r)
	if err != nil {
		return Result{}, err
	}
	return PumpBytes(buf, w, runner, envFactory, opts)
}

// PumpBytes runs the pump over an already-materialized input window. Split
// out from Pump so callers that already hold the whole input (e.g. an mmap
// of a seekable file) can skip the io.ReadAll copy.
func PumpBytes(buf []byte, w io.Writer, runner Runner, envFactory EnvFactory, opts Options) (Result, error) {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	concurrency := opts.Concurrency
	if concurrency <= 0 {
		concurrency = runtime.GOMAXPROCS(0)
	}

	lines := discoverBoundaries(buf)
	chunks := groupChunks(lines)

	outputs := make([][]byte, len(chunks))
	lineErrs := make([]int, len(chunks))
	valueCounts := make([]int, len(chunks))

	g := new(errgroup.Group)
	g.SetLimit(concurrency)

	for idx, c := range chunks {
		idx, c := idx, c
		g.Go(func() error {
			handle := parser.NewParser(parser.WithNumberText(true))
			var out bytes.Buffer
			for _, ln := range c.lines {
				raw := buf[ln.start:ln.end]
				if len(bytes.TrimSpace(raw)) == 0 {
					continue
				}
				padded := parser.PadBuffer(raw)
				tape, err := handle.Parse(padded)
				if err != nil {
					lineErrs[idx]++
					opts.Logger.Error("input parse error", "error", err)
					continue
				}
				env := envFactory()
				it := tape.Iter()
				it.Advance()
				n, err := runner.RunValue(&out, it, env)
				if err != nil {
					lineErrs[idx]++
					opts.Logger.Error("filter error", "error", err)
					continue
				}
				valueCounts[idx] += n
			}
			outputs[idx] = out.Bytes()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return Result{}, err
	}

	result := Result{}
	for i, c := range chunks {
		result.LinesProcessed += len(c.lines)
		result.LineErrors += lineErrs[i]
		result.ValuesProduced += valueCounts[i]
		if _, err := w.Write(outputs[i]); err != nil {
			return result, fmt.Errorf("writing output: %w", err)
		}
	}
	return result, nil
}

// discoverBoundaries scans buf for newline-delimited lines. It is a single
// linear byte scan -- the "fast byte scanner" the design calls for -- with
// no lookahead past each '\n'. A final unterminated tail is still counted
// as a line, matching real-world NDJSON files that omit the trailing
// newline.
func discoverBoundaries(buf []byte) []line {
	var lines []line
	start := 0
	for i, b := range buf {
		if b == '\n' {
			lines = append(lines, line{start: start, end: i})
			start = i + 1
		}
	}
	if start < len(buf) {
		lines = append(lines, line{start: start, end: len(buf)})
	}
	return lines
}

// groupChunks packs consecutive lines into chunks of roughly
// chunkTargetBytes each, preserving order -- chunk i always precedes chunk
// i+1 in the final output regardless of which worker finishes first.
func groupChunks(lines []line) []chunk {
	var chunks []chunk
	var cur chunk
	size := 0
	for _, ln := range lines {
		cur.lines = append(cur.lines, ln)
		size += ln.end - ln.start
		if size >= chunkTargetBytes {
			chunks = append(chunks, cur)
			cur = chunk{}
			size = 0
		}
	}
	if len(cur.lines) > 0 {
		chunks = append(chunks, cur)
	}
	return chunks
}
