package generate

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/cmmoran/recordgen/pkg/parser"
)

// DebouncePeriod collapses bursts of file events into one run.
var DebouncePeriod = 300 * time.Millisecond

// RunFunc receives the outcome of every run triggered by Watch.
type RunFunc func(*Result, error)

// Watch runs Generate once, then again whenever a Go source or manifest
// changes, until ctx is done. Generated files and the lock never trigger a
// run.
func Watch(ctx context.Context, opts *parser.Options, version string, onRun RunFunc) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return errors.Wrap(err, "failed to create fsnotify watcher")
	}
	defer func() { _ = w.Close() }()

	if err := addWatches(w, opts); err != nil {
		return err
	}

	var (
		mu    sync.Mutex
		timer *time.Timer
		runs  = make(chan struct{}, 1)
	)
	schedule := func() {
		mu.Lock()
		defer mu.Unlock()
		if timer != nil {
			timer.Stop()
		}
		timer = time.AfterFunc(DebouncePeriod, func() {
			select {
			case runs <- struct{}{}:
			default:
			}
		})
	}
	defer func() {
		mu.Lock()
		if timer != nil {
			timer.Stop()
		}
		mu.Unlock()
	}()

	onRun(Generate(ctx, opts, version))

	for {
		select {
		case <-ctx.Done():
			return nil

		case <-runs:
			onRun(Generate(ctx, opts, version))

		case event, ok := <-w.Events:
			if !ok {
				return nil
			}
			if event.Has(fsnotify.Create) {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() && !skipDir(event.Name) {
					if err := w.Add(event.Name); err != nil {
						zap.L().Warn("watch directory", zap.String("dir", event.Name), zap.Error(err))
					}
				}
			}
			if !relevant(opts, event) {
				continue
			}
			zap.L().Debug("change detected", zap.String("file", event.Name), zap.String("op", event.Op.String()))
			schedule()

		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			zap.L().Warn("watcher error", zap.Error(err))
		}
	}
}

func addWatches(w *fsnotify.Watcher, opts *parser.Options) error {
	if opts.InDir != "" {
		err := filepath.WalkDir(opts.InDir, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if !d.IsDir() {
				return nil
			}
			if path != opts.InDir && skipDir(path) {
				return filepath.SkipDir
			}
			return w.Add(path)
		})
		if err != nil {
			return errors.Wrapf(err, "failed to watch %s", opts.InDir)
		}
	}
	for _, m := range opts.Manifests {
		if err := w.Add(filepath.Dir(m)); err != nil {
			return errors.Wrapf(err, "failed to watch manifest %s", m)
		}
	}
	return nil
}

func relevant(opts *parser.Options, event fsnotify.Event) bool {
	if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) &&
		!event.Has(fsnotify.Remove) && !event.Has(fsnotify.Rename) {
		return false
	}

	base := filepath.Base(event.Name)
	if base == opts.OutFile || base == filepath.Base(opts.LockFile) {
		return false
	}
	for _, m := range opts.Manifests {
		if event.Name == m {
			return true
		}
	}
	return opts.InDir != "" && strings.HasSuffix(base, ".go") && !strings.HasSuffix(base, "_test.go")
}

func skipDir(path string) bool {
	base := filepath.Base(path)
	return strings.HasPrefix(base, ".") || strings.HasPrefix(base, "_") ||
		base == "testdata" || base == "vendor"
}
