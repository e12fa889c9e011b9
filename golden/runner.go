package golden

import (
	"bytes"
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/rubiojr/lox/interpreter"
	"golang.org/x/sync/errgroup"
)

// Ext is the script extension Collect looks for.
const Ext = ".lox"

// Result is the verdict for one script.
type Result struct {
	File     string
	Failures []string
	Elapsed  time.Duration
}

// Passed reports whether the script met every expectation.
func (r *Result) Passed() bool { return len(r.Failures) == 0 }

// Runner executes golden scripts, each in its own interpreter.
type Runner struct {
	// Filter keeps only files whose path contains it.
	Filter string
	// Jobs bounds how many scripts run at once; values below 1 mean 1.
	Jobs int
	// MaxCallDepth is passed to every interpreter.
	MaxCallDepth int
	Logger       *slog.Logger
}

// Collect expands targets into a sorted list of script paths. Directories
// are walked recursively.
func Collect(targets []string) ([]string, error) {
	var files []string
	for _, target := range targets {
		info, err := os.Stat(target)
		if err != nil {
			return nil, fmt.Errorf("cannot access %s: %w", target, err)
		}
		if !info.IsDir() {
			files = append(files, target)
			continue
		}
		err = filepath.WalkDir(target, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if !d.IsDir() && strings.HasSuffix(path, Ext) {
				files = append(files, path)
			}
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("reading directory %s: %w", target, err)
		}
	}
	sort.Strings(files)
	return files, nil
}

// Run checks every file and returns results in the order of files. The
// error is non-nil only when the context is cancelled; script failures are
// reported through the results.
func (r *Runner) Run(ctx context.Context, files []string) ([]*Result, error) {
	var selected []string
	for _, f := range files {
		if r.Filter == "" || strings.Contains(f, r.Filter) {
			selected = append(selected, f)
		}
	}

	results := make([]*Result, len(selected))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(r.Jobs, 1))
	for n, file := range selected {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			results[n] = r.RunFile(file)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// RunFile checks a single script.
func (r *Runner) RunFile(path string) *Result {
	start := time.Now()
	res := &Result{File: path}
	src, err := os.ReadFile(path)
	if err != nil {
		res.Failures = append(res.Failures, err.Error())
		return res
	}
	res.Failures = r.Check(path, string(src))
	res.Elapsed = time.Since(start)
	if r.Logger != nil {
		r.Logger.Debug("golden", "file", path, "failures", len(res.Failures), "elapsed", res.Elapsed)
	}
	return res
}

// Check runs src and lists every way it diverged from its annotations.
func (r *Runner) Check(name, src string) []string {
	exp := ParseExpectations(src)
	var stdout bytes.Buffer
	out := interpreter.Run(name, src, interpreter.Options{
		Stdout:       &stdout,
		MaxCallDepth: r.MaxCallDepth,
		Logger:       r.Logger,
	})

	var failures []string
	failf := func(format string, args ...any) {
		failures = append(failures, fmt.Sprintf(format, args...))
	}

	got := splitLines(stdout.String())
	for n := 0; n < max(len(got), len(exp.Output)); n++ {
		switch {
		case n >= len(got):
			failf("missing output line %d: want %q", n+1, exp.Output[n])
		case n >= len(exp.Output):
			failf("unexpected output line %d: %q", n+1, got[n])
		case got[n] != exp.Output[n]:
			failf("output line %d: want %q, got %q", n+1, exp.Output[n], got[n])
		}
	}

	switch {
	case len(exp.StaticErrors) > 0:
		if out.Status != interpreter.StatusStaticError {
			failf("want static errors, run ended with %s", out.Status)
			break
		}
		want := make(map[StaticError]int)
		for _, e := range exp.StaticErrors {
			want[e]++
		}
		for d := range out.Diagnostics.All() {
			key := StaticError{Line: d.Pos.Line, Message: d.Message}
			if want[key] == 0 {
				failf("unexpected error: [line %d] %s", d.Pos.Line, d.Message)
				continue
			}
			want[key]--
		}
		for _, e := range exp.StaticErrors {
			if want[e] > 0 {
				failf("missing error: [line %d] %s", e.Line, e.Message)
				want[e]--
			}
		}
	case exp.RuntimeError != nil:
		if out.Status != interpreter.StatusRuntimeError {
			failf("want runtime error %q, run ended with %s", exp.RuntimeError.Message, out.Status)
			break
		}
		rerr := out.RuntimeErrors[0]
		if rerr.Msg != exp.RuntimeError.Message || rerr.Pos.Line != exp.RuntimeError.Line {
			failf("want runtime error %q at line %d, got %q at line %d",
				exp.RuntimeError.Message, exp.RuntimeError.Line, rerr.Msg, rerr.Pos.Line)
		}
	default:
		if err := out.Err(); err != nil {
			failf("unexpected %s: %v", out.Status, err)
		}
	}
	return failures
}

// Summary counts passing and failing results.
func Summary(results []*Result) (passed, failed int) {
	for _, r := range results {
		if r.Passed() {
			passed++
		} else {
			failed++
		}
	}
	return passed, failed
}

func splitLines(s string) []string {
	s = strings.TrimSuffix(s, "\n")
	if s == "" {
		return nil
	}
	return strings.Split(s, "\n")
}
