package cmd

import (
	"context"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/rubiojr/lox/ast"
	"github.com/rubiojr/lox/diag"
	"github.com/rubiojr/lox/golden"
	"github.com/rubiojr/lox/parser"
	"github.com/rubiojr/lox/resolver"
	"github.com/rubiojr/lox/scanner"
	"github.com/urfave/cli/v3"
	"golang.org/x/sync/errgroup"
)

func (a *app) tokensAction(ctx context.Context, cmd *cli.Command) error {
	path, err := usageArg(cmd, "<file.lox>")
	if err != nil {
		return err
	}
	src, err := a.readSource(path)
	if err != nil {
		return err
	}
	toks, errs := scanner.ScanAll(path, src)
	for _, tok := range toks {
		if tok.Kind == scanner.Illegal {
			continue
		}
		fmt.Fprintf(a.out, "%4d %-13s %s\n", tok.Line(), tok.Kind, tok.Lexeme)
	}
	if len(errs) > 0 {
		a.printDiagnostics(errs)
		return cli.Exit("", exitData)
	}
	return nil
}

func (a *app) astAction(ctx context.Context, cmd *cli.Command) error {
	path, err := usageArg(cmd, "[--sexpr] <file.lox>")
	if err != nil {
		return err
	}
	src, err := a.readSource(path)
	if err != nil {
		return err
	}
	prog, errs := parser.Parse(path, src)
	if len(errs) > 0 {
		a.printDiagnostics(errs)
		return cli.Exit("", exitData)
	}
	if cmd.Bool("sexpr") {
		fmt.Fprint(a.out, ast.Dump(prog))
		return nil
	}
	fmt.Fprint(a.out, ast.Print(prog))
	return nil
}

// checkAction runs the static phases over every file, each independently.
func (a *app) checkAction(ctx context.Context, cmd *cli.Command) error {
	files := cmd.Args().Slice()
	if len(files) == 0 {
		return cli.Exit("usage: lox check <file.lox>...", exitUsage)
	}

	results := make([]diag.List, len(files))
	var ioErr error
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(cmd.Int("jobs"), 1))
	for n, path := range files {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			src, err := os.ReadFile(path)
			if err != nil {
				mu.Lock()
				ioErr = fmt.Errorf("cannot read %s: %w", path, err)
				mu.Unlock()
				return nil
			}
			prog, errs := parser.Parse(path, string(src))
			if len(errs) == 0 {
				_, errs = resolver.Resolve(prog)
			}
			results[n] = errs
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	failed := 0
	for n, errs := range results {
		if len(errs) == 0 {
			a.log.Debug("checked", "file", files[n])
			continue
		}
		failed++
		a.printDiagnostics(errs)
	}
	if ioErr != nil {
		return cli.Exit(ioErr.Error(), exitIO)
	}
	if failed > 0 {
		return cli.Exit("", exitData)
	}
	return nil
}

func (a *app) testAction(ctx context.Context, cmd *cli.Command) error {
	targets := cmd.Args().Slice()
	if len(targets) == 0 {
		targets = []string{"."}
	}
	files, err := golden.Collect(targets)
	if err != nil {
		return cli.Exit(err.Error(), exitIO)
	}
	if len(files) == 0 {
		return cli.Exit("no "+golden.Ext+" files found", exitUsage)
	}

	runner := &golden.Runner{
		Filter:       cmd.String("filter"),
		Jobs:         cmd.Int("jobs"),
		MaxCallDepth: a.opts.MaxCallDepth,
		Logger:       a.log,
	}
	results, err := runner.Run(ctx, files)
	if err != nil {
		return err
	}

	colorOK, colorFail, colorReset := "\033[32m", "\033[31m", "\033[0m"
	if !a.color {
		colorOK, colorFail, colorReset = "", "", ""
	}
	for _, res := range results {
		if res.Passed() {
			fmt.Fprintf(a.out, "%sPASS%s %s (%s)\n", colorOK, colorReset, res.File, res.Elapsed.Round(time.Microsecond))
			continue
		}
		fmt.Fprintf(a.out, "%sFAIL%s %s\n", colorFail, colorReset, res.File)
		for _, f := range res.Failures {
			fmt.Fprintf(a.out, "    %s\n", f)
		}
	}

	passed, failed := golden.Summary(results)
	if failed > 0 {
		fmt.Fprintf(a.errw, "\n%d files, %d passed, %s%d failed%s\n",
			len(results), passed, colorFail, failed, colorReset)
		return cli.Exit("", exitFailure)
	}
	fmt.Fprintf(a.errw, "\n%d files, %s%d passed%s, %d failed\n",
		len(results), colorOK, passed, colorReset, failed)
	return nil
}
