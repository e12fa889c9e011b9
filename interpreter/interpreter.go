// Package interpreter runs Lox programs. It ties the pipeline together
// (scan, parse, resolve, evaluate) and exposes two entry points:
//
//   - Run executes one program in a fresh interpreter and discards its state.
//   - New returns a session whose globals and resolver state survive across
//     successive calls to (*Interpreter).Run, which is what a REPL needs.
//
// Static problems (lexical, syntax and resolution errors) are collected and
// returned together without running anything. Runtime errors stop the
// failing top-level statement; whether later statements still run is
// controlled by Options.ContinueOnError.
package interpreter

import (
	"errors"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/rubiojr/lox/ast"
	"github.com/rubiojr/lox/diag"
	"github.com/rubiojr/lox/natives"
	_ "github.com/rubiojr/lox/natives/core" // clock and friends are always defined
	"github.com/rubiojr/lox/parser"
	"github.com/rubiojr/lox/resolver"
	"github.com/rubiojr/lox/runtime"
)

// DefaultMaxCallDepth bounds nested calls before "Stack overflow." is
// raised.
const DefaultMaxCallDepth = 1024

// Options configures an interpreter.
type Options struct {
	// Stdout receives print output. Defaults to os.Stdout.
	Stdout io.Writer
	// Logger receives debug tracing. Defaults to a discarding logger.
	Logger *slog.Logger
	// ContinueOnError keeps executing later top-level statements after one
	// fails with a runtime error.
	ContinueOnError bool
	// MaxCallDepth limits call nesting; zero means DefaultMaxCallDepth.
	MaxCallDepth int
}

// Status classifies the result of a run.
type Status int

const (
	StatusOK Status = iota
	StatusStaticError
	StatusRuntimeError
	StatusInternalError
	StatusOutputError
)

func (s Status) String() string {
	switch s {
	case StatusOK:
		return "ok"
	case StatusStaticError:
		return "static error"
	case StatusRuntimeError:
		return "runtime error"
	case StatusInternalError:
		return "internal error"
	case StatusOutputError:
		return "output error"
	}
	return "unknown"
}

// Outcome is the result of one Run.
type Outcome struct {
	Status Status
	// Diagnostics holds every lexical, syntax or resolution error.
	Diagnostics diag.List
	// RuntimeErrors holds one entry per failed top-level statement. It has
	// at most one entry unless ContinueOnError is set.
	RuntimeErrors []*RuntimeError
	// Internal is set when an interpreter invariant broke.
	Internal error
	// WriteErr is set when print output could not be written. It wraps
	// ErrOutput.
	WriteErr error
	// Value is the value of the final statement when it is an expression
	// statement that completed normally.
	Value runtime.Value
}

// Err returns the outcome as an error, or nil on success.
func (o *Outcome) Err() error {
	switch o.Status {
	case StatusStaticError:
		return o.Diagnostics
	case StatusRuntimeError:
		return o.RuntimeErrors[0]
	case StatusInternalError:
		return o.Internal
	case StatusOutputError:
		return o.WriteErr
	}
	return nil
}

// Interpreter is an evaluation session. It is not safe for concurrent use.
type Interpreter struct {
	out      io.Writer
	log      *slog.Logger
	cont     bool
	maxDepth int
	depth    int

	globals  *runtime.Environment
	resolver *resolver.Resolver
	bindings resolver.Bindings
	last     runtime.Value
}

// New creates a session with every registered native function defined as
// a global.
func New(opts Options) *Interpreter {
	i := &Interpreter{
		out:      opts.Stdout,
		log:      opts.Logger,
		cont:     opts.ContinueOnError,
		maxDepth: opts.MaxCallDepth,
		globals:  runtime.NewEnvironment(nil),
		resolver: resolver.New(),
		bindings: make(resolver.Bindings),
	}
	if i.out == nil {
		i.out = os.Stdout
	}
	if i.log == nil {
		i.log = slog.New(slog.DiscardHandler)
	}
	if i.maxDepth <= 0 {
		i.maxDepth = DefaultMaxCallDepth
	}
	for _, fn := range natives.All() {
		i.globals.Define(fn.Name, fn)
	}
	return i
}

// Run executes src in a fresh interpreter. name labels positions in
// diagnostics.
func Run(name, src string, opts Options) *Outcome {
	return New(opts).Run(name, src)
}

// Run scans, parses, resolves and executes src in this session.
func (i *Interpreter) Run(name, src string) *Outcome {
	start := time.Now()
	prog, errs := parser.Parse(name, src)
	i.log.Debug("parsed", "file", name, "statements", len(prog.Statements),
		"errors", len(errs), "elapsed", time.Since(start))
	if len(errs) > 0 {
		return &Outcome{Status: StatusStaticError, Diagnostics: errs}
	}
	return i.RunProgram(prog)
}

// RunProgram resolves and executes an already parsed program.
func (i *Interpreter) RunProgram(prog *ast.Program) *Outcome {
	start := time.Now()
	bindings, errs := i.resolver.Resolve(prog)
	i.log.Debug("resolved", "file", prog.SourceFile, "locals", len(bindings),
		"errors", len(errs), "elapsed", time.Since(start))
	if len(errs) > 0 {
		return &Outcome{Status: StatusStaticError, Diagnostics: errs}
	}
	i.bindings.Merge(bindings)

	start = time.Now()
	out := i.execute(prog)
	i.log.Debug("executed", "file", prog.SourceFile, "status", out.Status,
		"elapsed", time.Since(start))
	return out
}

// Global returns the value bound to a global name.
func (i *Interpreter) Global(name string) (runtime.Value, bool) {
	v, err := i.globals.Get(name)
	return v, err == nil
}

// execute runs the top-level statements in order. A runtime error ends
// the current statement; the loop either stops or moves on depending on
// the ContinueOnError option.
func (i *Interpreter) execute(prog *ast.Program) *Outcome {
	out := &Outcome{Status: StatusOK}
	for n, stmt := range prog.Statements {
		i.last = nil
		i.depth = 0
		err := i.exec(stmt, i.globals)
		if err == nil {
			if _, ok := stmt.(*ast.ExprStmt); ok && n == len(prog.Statements)-1 {
				out.Value = i.last
			}
			continue
		}
		var rerr *RuntimeError
		if errors.As(err, &rerr) {
			i.log.Debug("runtime error", "line", rerr.Pos.Line, "msg", rerr.Msg)
			out.Status = StatusRuntimeError
			out.RuntimeErrors = append(out.RuntimeErrors, rerr)
			if i.cont {
				continue
			}
			return out
		}
		if errors.Is(err, ErrOutput) {
			i.log.Error("output error", "err", err)
			out.Status = StatusOutputError
			out.WriteErr = err
			return out
		}
		var ret *returnSignal
		if errors.As(err, &ret) {
			err = internalErr(ret)
		}
		if !errors.Is(err, ErrInternal) {
			err = internalErr(err)
		}
		i.log.Error("internal error", "err", err)
		out.Status = StatusInternalError
		out.Internal = err
		return out
	}
	return out
}
