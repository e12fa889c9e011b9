package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"

	"github.com/rubiojr/lox/cmd/dev"
	"github.com/rubiojr/lox/config"
	"github.com/rubiojr/lox/diag"
	"github.com/rubiojr/lox/interpreter"
	"github.com/urfave/cli/v3"
	"golang.org/x/term"
)

// Exit codes, following sysexits.h.
const (
	exitOK      = 0
	exitFailure = 1
	exitUsage   = 64
	exitData    = 65
	exitSoft    = 70
	exitIO      = 74
)

// Execute runs the Lox CLI with the given version string and exits the
// process with its status.
func Execute(version string) {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	code := run(ctx, version, os.Args, os.Stdin, os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

// app carries the settings resolved once per invocation: config file,
// flags and environment, in that order of increasing precedence.
type app struct {
	version string
	in      io.Reader
	out     io.Writer
	errw    io.Writer

	cfg   *config.Config
	opts  interpreter.Options
	color bool
	log   *slog.Logger
}

func run(ctx context.Context, version string, args []string, in io.Reader, out, errw io.Writer) int {
	a := &app{version: version, in: in, out: out, errw: errw, cfg: config.Default()}
	err := a.command().Run(ctx, args)
	if err == nil {
		return exitOK
	}
	code := exitFailure
	var ec cli.ExitCoder
	if errors.As(err, &ec) {
		code = ec.ExitCode()
	}
	if msg := err.Error(); msg != "" {
		fmt.Fprintf(errw, "error: %s\n", msg)
	}
	return code
}

func (a *app) command() *cli.Command {
	return &cli.Command{
		Name:                   "lox",
		Usage:                  "A tree-walking interpreter for the Lox language",
		ArgsUsage:              "[script.lox]",
		Version:                a.version,
		UseShortOptionHandling: true,
		Reader:                 a.in,
		Writer:                 a.out,
		ErrWriter:              a.errw,
		// Errors are mapped to exit codes by run.
		ExitErrHandler: func(context.Context, *cli.Command, error) {},
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Usage:   "Path to the configuration file (default ./" + config.DefaultFile + ")",
				Sources: cli.EnvVars("LOX_CONFIG"),
			},
			&cli.BoolFlag{
				Name:    "continue-on-error",
				Usage:   "Keep running later top-level statements after a runtime error",
				Sources: cli.EnvVars("LOX_CONTINUE_ON_ERROR"),
			},
			&cli.IntFlag{
				Name:    "max-call-depth",
				Usage:   "Nested calls allowed before reporting a stack overflow",
				Sources: cli.EnvVars("LOX_MAX_CALL_DEPTH"),
			},
			&cli.BoolFlag{
				Name:    "debug",
				Usage:   "Log pipeline tracing to stderr",
				Sources: cli.EnvVars("LOX_DEBUG"),
			},
			&cli.BoolFlag{
				Name:    "no-color",
				Aliases: []string{"C"},
				Usage:   "Disable ANSI color output",
			},
		},
		Before: a.setup,
		// Allow `lox script.lox` as shorthand for `lox run script.lox`;
		// with no arguments start the REPL.
		Action: func(ctx context.Context, cmd *cli.Command) error {
			if cmd.NArg() > 1 {
				return cli.Exit("usage: lox [script.lox]", exitUsage)
			}
			if cmd.NArg() == 1 {
				return a.runFile(cmd.Args().First())
			}
			return a.repl(ctx)
		},
		Commands: []*cli.Command{
			{
				Name:      "run",
				Usage:     "Run a .lox script",
				ArgsUsage: "<file.lox>",
				Action: func(ctx context.Context, cmd *cli.Command) error {
					if cmd.NArg() != 1 {
						return cli.Exit("usage: lox run <file.lox>", exitUsage)
					}
					return a.runFile(cmd.Args().First())
				},
			},
			{
				Name:  "repl",
				Usage: "Start an interactive session",
				Action: func(ctx context.Context, cmd *cli.Command) error {
					return a.repl(ctx)
				},
			},
			{
				Name:      "tokens",
				Usage:     "Print the tokens of a .lox file",
				ArgsUsage: "<file.lox>",
				Action:    a.tokensAction,
			},
			{
				Name:      "ast",
				Usage:     "Print the parsed program",
				ArgsUsage: "<file.lox>",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "sexpr",
						Usage: "Print an s-expression dump instead of source",
					},
				},
				Action: a.astAction,
			},
			{
				Name:      "check",
				Usage:     "Report lexical, syntax and resolution errors without running",
				ArgsUsage: "<file.lox>...",
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:    "jobs",
						Aliases: []string{"j"},
						Usage:   "Files checked in parallel",
						Value:   1,
					},
				},
				Action: a.checkAction,
			},
			{
				Name:      "test",
				Usage:     "Run golden .lox scripts annotated with // expect comments",
				ArgsUsage: "[file.lox | directory]...",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "filter",
						Aliases: []string{"f"},
						Usage:   "Run only scripts whose path contains this substring",
					},
					&cli.IntFlag{
						Name:    "jobs",
						Aliases: []string{"j"},
						Usage:   "Scripts run in parallel",
						Value:   1,
					},
				},
				Action: a.testAction,
			},
			{
				Name:      "watch",
				Usage:     "Run a .lox script and run it again whenever it changes",
				ArgsUsage: "<file.lox>",
				Action:    a.watchAction,
			},
			dev.Command(),
		},
	}
}

// setup loads the configuration and merges it with the global flags.
func (a *app) setup(ctx context.Context, cmd *cli.Command) (context.Context, error) {
	cfg, err := config.Load(cmd.String("config"))
	if err != nil {
		return ctx, cli.Exit(err.Error(), exitUsage)
	}
	if err := cfg.CheckVersion(a.version); err != nil {
		return ctx, cli.Exit(err.Error(), exitUsage)
	}
	a.cfg = cfg

	a.log = slog.New(slog.DiscardHandler)
	if cmd.Bool("debug") {
		a.log = slog.New(slog.NewTextHandler(a.errw, &slog.HandlerOptions{Level: slog.LevelDebug}))
	}

	a.opts = interpreter.Options{
		Stdout:          a.out,
		Logger:          a.log,
		ContinueOnError: cfg.ContinueOnError || cmd.Bool("continue-on-error"),
		MaxCallDepth:    cfg.MaxCallDepth,
	}
	if cmd.IsSet("max-call-depth") {
		a.opts.MaxCallDepth = cmd.Int("max-call-depth")
	}

	a.color = a.colorEnabled(cmd.Bool("no-color"))
	a.log.Debug("configured", "config", cfg.Path, "continue_on_error", a.opts.ContinueOnError,
		"max_call_depth", a.opts.MaxCallDepth, "color", a.color)
	return ctx, nil
}

func (a *app) colorEnabled(noColor bool) bool {
	if noColor || os.Getenv("NO_COLOR") != "" {
		return false
	}
	switch a.cfg.Color {
	case config.ColorAlways:
		return true
	case config.ColorNever:
		return false
	}
	f, ok := a.errw.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

func (a *app) red(s string) string {
	if !a.color {
		return s
	}
	return "\033[31m" + s + "\033[0m"
}

// readSource reads a script, mapping failures to the I/O exit code.
func (a *app) readSource(path string) (string, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return "", cli.Exit(fmt.Sprintf("cannot read %s: %v", path, err), exitIO)
	}
	return string(src), nil
}

func (a *app) runFile(path string) error {
	src, err := a.readSource(path)
	if err != nil {
		return err
	}
	return a.report(interpreter.Run(path, src, a.opts))
}

// report prints the errors of an outcome and converts it to an exit code.
func (a *app) report(out *interpreter.Outcome) error {
	switch out.Status {
	case interpreter.StatusStaticError:
		a.printDiagnostics(out.Diagnostics)
		return cli.Exit("", exitData)
	case interpreter.StatusRuntimeError:
		for _, rerr := range out.RuntimeErrors {
			fmt.Fprintln(a.errw, a.red(rerr.Error()))
		}
		return cli.Exit("", exitSoft)
	case interpreter.StatusInternalError:
		return cli.Exit(out.Internal.Error(), exitSoft)
	case interpreter.StatusOutputError:
		return cli.Exit(out.WriteErr.Error(), exitIO)
	}
	return nil
}

func (a *app) printDiagnostics(l diag.List) {
	for _, d := range l {
		fmt.Fprintln(a.errw, a.red(d.Error()))
	}
}

func usageArg(cmd *cli.Command, usage string) (string, error) {
	if cmd.NArg() != 1 {
		return "", cli.Exit("usage: lox "+cmd.Name+" "+usage, exitUsage)
	}
	return strings.TrimSpace(cmd.Args().First()), nil
}
