package cmd

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/urfave/cli/v3"
)

// settle coalesces the bursts of events editors produce for one save.
const settle = 100 * time.Millisecond

// fileWatcher turns fsnotify events for a single file into change
// notifications. The parent directory is watched so editors that save by
// renaming a temporary file are still seen.
type fileWatcher struct {
	w       *fsnotify.Watcher
	path    string
	changes chan struct{}
	errs    chan error
}

func newFileWatcher(path string) (*fileWatcher, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := w.Add(filepath.Dir(abs)); err != nil {
		w.Close()
		return nil, err
	}
	fw := &fileWatcher{w: w, path: abs, changes: make(chan struct{}, 1), errs: make(chan error, 1)}
	go fw.loop()
	return fw, nil
}

func (fw *fileWatcher) loop() {
	for {
		select {
		case ev, ok := <-fw.w.Events:
			if !ok {
				return
			}
			if filepath.Clean(ev.Name) != fw.path {
				continue
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			select {
			case fw.changes <- struct{}{}:
			default:
			}
		case err, ok := <-fw.w.Errors:
			if !ok {
				return
			}
			select {
			case fw.errs <- err:
			default:
			}
		}
	}
}

func (fw *fileWatcher) Close() error { return fw.w.Close() }

func (a *app) watchAction(ctx context.Context, cmd *cli.Command) error {
	path, err := usageArg(cmd, "<file.lox>")
	if err != nil {
		return err
	}
	fw, err := newFileWatcher(path)
	if err != nil {
		return cli.Exit(fmt.Sprintf("watch %s: %v", path, err), exitIO)
	}
	defer fw.Close()
	return a.watch(ctx, path, fw)
}

// watch runs path once and again after every change until ctx ends.
// Failures are printed and do not stop the loop.
func (a *app) watch(ctx context.Context, path string, fw *fileWatcher) error {
	rerun := func() {
		fmt.Fprintf(a.errw, "--- %s ---\n", path)
		if err := a.runFile(path); err != nil && err.Error() != "" {
			fmt.Fprintf(a.errw, "error: %v\n", err)
		}
	}
	rerun()

	timer := time.NewTimer(settle)
	timer.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-fw.changes:
			timer.Reset(settle)
		case <-timer.C:
			rerun()
		case err := <-fw.errs:
			a.log.Warn("watch error", "err", err)
		}
	}
}
