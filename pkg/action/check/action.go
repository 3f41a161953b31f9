// Package check verifies that generated files and the generation lock match
// what the current declarations would produce.
package check

import (
	"context"
	"os"
	"slices"

	"github.com/cockroachdb/errors"
	"github.com/google/go-cmp/cmp"

	"github.com/cmmoran/recordgen/internal/diagnostic"
	"github.com/cmmoran/recordgen/pkg/action/generate"
	"github.com/cmmoran/recordgen/pkg/lock"
	"github.com/cmmoran/recordgen/pkg/parser"
)

// Reasons a file drifts.
const (
	ReasonMissing  = "missing"
	ReasonModified = "modified"
	ReasonLock     = "lock out of date"
	ReasonStale    = "stale lock entry"
)

// Drift is one difference between disk and a fresh generation.
type Drift struct {
	File   string
	Reason string
	Diff   string // -disk +generated, for modified files
}

// Report is the outcome of Check.
type Report struct {
	Drift       []Drift
	Diagnostics diagnostic.Diagnostics
	// Version is set when the lock was written by an incompatible generator.
	Version error
}

// Clean reports whether nothing drifted and no declaration failed.
func (r *Report) Clean() bool {
	return len(r.Drift) == 0 && r.Version == nil && !r.Diagnostics.HasErrors()
}

// Err summarizes an unclean report.
func (r *Report) Err() error {
	if r.Clean() {
		return nil
	}
	if r.Version != nil {
		return r.Version
	}
	if err := r.Diagnostics.Err(); err != nil {
		return err
	}
	return errors.Newf("%d generated file(s) out of date", len(r.Drift))
}

// Check regenerates in memory and compares the result with disk and with the
// lock at generate.LockPath(opts). Nothing is written.
func Check(ctx context.Context, opts *parser.Options, version string) (*Report, error) {
	res, err := generate.Render(ctx, opts)
	if err != nil {
		return nil, err
	}

	lockPath := generate.LockPath(opts)
	l, err := lock.Load(lockPath)
	if err != nil {
		return nil, err
	}

	report := &Report{Diagnostics: res.Diagnostics, Version: l.Compatible(version)}

	rendered := make([]string, 0, len(res.Files))
	for _, f := range res.Files {
		rel := generate.RelPath(lockPath, f.Path)
		rendered = append(rendered, rel)

		disk, err := os.ReadFile(f.Path)
		switch {
		case errors.Is(err, os.ErrNotExist):
			report.Drift = append(report.Drift, Drift{File: rel, Reason: ReasonMissing})
			continue
		case err != nil:
			return nil, errors.Wrapf(err, "read generated file %s", f.Path)
		}

		if diff := cmp.Diff(string(disk), string(f.Content)); diff != "" {
			report.Drift = append(report.Drift, Drift{File: rel, Reason: ReasonModified, Diff: diff})
			continue
		}

		entry, ok := l.Entry(rel)
		if !ok || entry.Digest != lock.Digest(f.Content) {
			report.Drift = append(report.Drift, Drift{File: rel, Reason: ReasonLock})
		}
	}

	if !res.Diagnostics.HasErrors() {
		for _, e := range l.Entries {
			if !slices.Contains(rendered, e.File) {
				report.Drift = append(report.Drift, Drift{File: e.File, Reason: ReasonStale})
			}
		}
	}

	return report, nil
}
