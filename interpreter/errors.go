package interpreter

import (
	"errors"
	"fmt"

	"github.com/rubiojr/lox/runtime"
	"modernc.org/token"
)

// ErrInternal marks a broken interpreter invariant, such as a resolved
// variable missing from its environment or a return escaping its function.
// These are defects in the interpreter, never errors in the user program.
var ErrInternal = errors.New("internal interpreter error")

// ErrOutput marks a failure writing program output. The program and the
// interpreter are fine; the host could not take the output.
var ErrOutput = errors.New("cannot write program output")

// RuntimeError is a failure raised while executing a program: a type
// mismatch, an undefined variable, an arity mismatch, calling a
// non-callable value, or division by zero.
type RuntimeError struct {
	Msg string
	Pos token.Position
}

func (e *RuntimeError) Error() string {
	return fmt.Sprintf("%s\n[line %d] in script", e.Msg, e.Pos.Line)
}

func runtimeErr(pos token.Position, format string, args ...any) error {
	return &RuntimeError{Msg: fmt.Sprintf(format, args...), Pos: pos}
}

func internalErr(err error) error {
	return fmt.Errorf("%w: %v", ErrInternal, err)
}

// returnSignal unwinds a function body to its call frame.
type returnSignal struct {
	value runtime.Value
}

func (r *returnSignal) Error() string { return "return outside of a function call" }
