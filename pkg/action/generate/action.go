// Package generate runs extraction, expansion and rendering, writes the
// generated files and records them in the generation lock.
package generate

import (
	"context"
	"path/filepath"

	"github.com/cockroachdb/errors"
	"go.uber.org/zap"

	"github.com/cmmoran/recordgen/internal/generator"
	internal "github.com/cmmoran/recordgen/internal/parser"
	"github.com/cmmoran/recordgen/pkg/lock"
	"github.com/cmmoran/recordgen/pkg/parser"
)

// Result is the outcome of one run.
type Result struct {
	*generator.Result

	// Written lists the files whose content changed.
	Written []string
	// Lock is the lock as saved after the run.
	Lock     *lock.Lock
	LockPath string
}

// Render parses the configured inputs and renders the generated files
// without touching the filesystem.
func Render(ctx context.Context, opts *parser.Options) (*generator.Result, error) {
	p := internal.New(opts)
	if err := p.Parse(ctx); err != nil {
		return nil, errors.Wrap(err, "parse declarations")
	}

	res, err := generator.New(opts).Generate(ctx, p.Decls)
	if err != nil {
		return nil, err
	}
	res.Diagnostics.Merge(p.Diagnostics)
	return res, nil
}

// Generate renders every declaration, writes the files of successful
// expansions and updates the lock. Declarations that fail are reported in
// the result diagnostics and are left out of the rewritten files; a file is
// only rendered from the declarations that expanded. Lock entries are pruned
// only when no declaration failed.
func Generate(ctx context.Context, opts *parser.Options, version string) (*Result, error) {
	res, err := Render(ctx, opts)
	if err != nil {
		return nil, err
	}

	written, err := generator.WriteFiles(res.Files)
	if err != nil {
		return nil, err
	}

	lockPath := LockPath(opts)
	l, err := lock.Load(lockPath)
	if err != nil {
		return nil, err
	}
	l.SetVersion(version)

	keep := make([]string, 0, len(res.Files))
	for _, f := range res.Files {
		rel := RelPath(lockPath, f.Path)
		keep = append(keep, rel)
		l.AddEntry(lock.Entry{
			File:         rel,
			Package:      f.Package,
			Declarations: f.Decls,
			Digest:       lock.Digest(f.Content),
		})
	}
	if !res.Diagnostics.HasErrors() {
		for _, e := range l.Prune(keep) {
			zap.L().Info("dropped stale lock entry", zap.String("file", e.File))
		}
	}

	if err := l.Save(lockPath); err != nil {
		return nil, err
	}

	zap.L().Info("generated",
		zap.Int("files", len(res.Files)),
		zap.Int("written", len(written)),
		zap.String("lock", lockPath))

	return &Result{Result: res, Written: written, Lock: l, LockPath: lockPath}, nil
}

// LockPath returns where the lock of opts lives: inside InDir, or next to
// the first manifest when only manifests are configured.
func LockPath(opts *parser.Options) string {
	if filepath.IsAbs(opts.LockFile) {
		return opts.LockFile
	}
	dir := opts.InDir
	if dir == "" && len(opts.Manifests) > 0 {
		dir = filepath.Dir(opts.Manifests[0])
	}
	return filepath.Join(dir, opts.LockFile)
}

// RelPath returns file relative to the lock directory, slash separated.
func RelPath(lockPath, file string) string {
	rel, err := filepath.Rel(filepath.Dir(lockPath), file)
	if err != nil {
		return filepath.ToSlash(file)
	}
	return filepath.ToSlash(rel)
}
