// Package eval implements the value-tree evaluator: a generator-style,
// tree-walking interpreter over the filter AST. It is the correctness
// oracle the flat-token evaluator and the passthrough dispatcher fall back
// to whenever they hit a construct they don't specialize.
package eval

import "fmt"

// ExitCode mirrors the command's documented exit status, grounded on how
// the teacher's pipeline package attaches a status to an error rather than
// inferring one from its Go type at the last moment.
type ExitCode int

const (
	ExitOK          ExitCode = 0
	ExitFilterFalse ExitCode = 1 // every output was false/null and -e was given
	ExitUsageError  ExitCode = 2 // bad CLI invocation
	ExitCompileErr  ExitCode = 2 // filter failed to parse/compile
	ExitInputParse  ExitCode = 3 // an input document failed to parse
	ExitNoOutput    ExitCode = 4 // -e was given and the filter produced no output at all
	ExitRuntimeErr  ExitCode = 5 // filter raised an uncaught error during evaluation
)

// Error is the evaluator's error type: every runtime fault carries the exit
// code it should produce at the CLI boundary, and optionally the jq value
// passed to `error(...)` so `catch` can recover it structurally rather than
// just as text.
type Error struct {
	Code    ExitCode
	Message string
	Payload interface{} // the raw value.Value passed to error(V), if any
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// NewError builds a runtime error with the standard uncaught-error exit
// code.
func NewError(format string, args ...interface{}) *Error {
	return &Error{Code: ExitRuntimeErr, Message: fmt.Sprintf(format, args...)}
}

// NewErrorValue builds the error raised by the `error(V)` builtin, keeping
// V around so `catch`/`try ... catch` can inspect it rather than its
// stringified message alone.
func NewErrorValue(msg string, payload interface{}) *Error {
	return &Error{Code: ExitRuntimeErr, Message: msg, Payload: payload}
}

// breakSignal unwinds the stack up to the label() call that introduced
// name, implementing `label $out | ... break $out ...`. It is carried as a
// Go error so it composes with the same propagation path as real errors,
// but label() strips it back out before it can escape past its own scope.
type breakSignal struct{ label string }

func (b *breakSignal) Error() string { return fmt.Sprintf("break to unknown label $%s", b.label) }

// stopIteration lets an emit callback ask its producer to stop early
// (first(EXPR), limit(N; EXPR), label/break) without that being a user
// visible error.
type stopIteration struct{}

func (stopIteration) Error() string { return "stop iteration" }
