package cmd

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/rubiojr/lox/interpreter"
	"github.com/rubiojr/lox/runtime"
	"golang.org/x/term"
)

// repl runs an interactive session. Every line is executed in the same
// interpreter, so declarations persist until the input ends.
func (a *app) repl(ctx context.Context) error {
	if f, ok := a.in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		return a.replTerminal(ctx, f)
	}
	return a.replLines(ctx, a.in, a.out, a.errw, "")
}

// replTerminal provides line editing and history through x/term.
func (a *app) replTerminal(ctx context.Context, f *os.File) error {
	fd := int(f.Fd())
	state, err := term.MakeRaw(fd)
	if err != nil {
		// Not a usable terminal after all; read plain lines.
		return a.replLines(ctx, f, a.out, a.errw, a.cfg.Prompt)
	}
	defer term.Restore(fd, state)

	t := term.NewTerminal(struct {
		io.Reader
		io.Writer
	}{f, a.out}, a.cfg.Prompt)
	fmt.Fprintf(t, "Lox %s. Ctrl-D to exit.\n", a.version)

	opts := a.opts
	opts.Stdout = t
	sess := interpreter.New(opts)
	for ctx.Err() == nil {
		line, err := t.ReadLine()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return err
		}
		a.evalLine(sess, line, t, t)
	}
	return nil
}

// replLines reads newline-separated input, for pipes and dumb terminals.
func (a *app) replLines(ctx context.Context, in io.Reader, out, errw io.Writer, prompt string) error {
	opts := a.opts
	opts.Stdout = out
	sess := interpreter.New(opts)

	sc := bufio.NewScanner(in)
	for ctx.Err() == nil {
		fmt.Fprint(out, prompt)
		if !sc.Scan() {
			break
		}
		a.evalLine(sess, sc.Text(), out, errw)
	}
	if err := sc.Err(); err != nil {
		return fmt.Errorf("reading input: %w", err)
	}
	return nil
}

// evalLine runs one line in sess. A bare expression may omit its trailing
// semicolon; the value of a final expression statement is echoed.
func (a *app) evalLine(sess *interpreter.Interpreter, line string, out, errw io.Writer) {
	src := strings.TrimSpace(line)
	if src == "" {
		return
	}
	if !strings.HasSuffix(src, ";") && !strings.HasSuffix(src, "}") {
		src += ";"
	}

	res := sess.Run("repl", src)
	switch res.Status {
	case interpreter.StatusOK:
		if res.Value != nil {
			fmt.Fprintln(out, runtime.Format(res.Value))
		}
	case interpreter.StatusStaticError:
		for _, d := range res.Diagnostics {
			fmt.Fprintln(errw, a.red(d.Error()))
		}
	case interpreter.StatusRuntimeError:
		for _, rerr := range res.RuntimeErrors {
			fmt.Fprintln(errw, a.red(rerr.Error()))
		}
	case interpreter.StatusInternalError, interpreter.StatusOutputError:
		fmt.Fprintln(errw, a.red(res.Err().Error()))
	}
}
