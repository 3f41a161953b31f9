// Package lock records what a generation run wrote, so later runs and CI can
// detect drift between declarations and the generated files on disk.
package lock

import (
	"crypto/sha256"
	"encoding/hex"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/Masterminds/semver/v3"
	"github.com/cockroachdb/errors"
	"gopkg.in/yaml.v3"
)

// Entry describes one generated file.
type Entry struct {
	File         string   `yaml:"file" json:"file"`
	Package      string   `yaml:"package" json:"package"`
	Declarations []string `yaml:"declarations" json:"declarations"`
	Digest       string   `yaml:"digest" json:"digest"`
}

// Lock tracks the files produced by the generator.
type Lock struct {
	GeneratorVersion string  `yaml:"generator_version" json:"generator_version"`
	PreviousVersion  string  `yaml:"previous_version,omitempty" json:"previous_version,omitempty"`
	Entries          []Entry `yaml:"entries" json:"entries"`
}

// Load reads a lock from the provided path. If the file does not exist,
// an empty lock is returned.
func Load(path string) (*Lock, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return &Lock{}, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "read lock")
	}

	var l Lock
	if err := yaml.Unmarshal(data, &l); err != nil {
		return nil, errors.Wrapf(err, "unmarshal lock %s", path)
	}

	return &l, nil
}

// Save writes the lock to the provided path, creating parent directories as needed.
func (l *Lock) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return errors.Wrap(err, "create lock directory")
	}

	data, err := yaml.Marshal(l)
	if err != nil {
		return errors.Wrap(err, "marshal lock")
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return errors.Wrap(err, "write lock")
	}

	return nil
}

// SetVersion records the generator version of the current run.
func (l *Lock) SetVersion(version string) {
	if l.GeneratorVersion != "" && l.GeneratorVersion != version {
		l.PreviousVersion = l.GeneratorVersion
	}
	l.GeneratorVersion = version
}

// AddEntry records a file, replacing an existing entry for the same path.
// Entries stay sorted by file.
func (l *Lock) AddEntry(e Entry) {
	e.Declarations = slices.Sorted(slices.Values(e.Declarations))
	i, found := slices.BinarySearchFunc(l.Entries, e.File, func(x Entry, file string) int {
		return strings.Compare(x.File, file)
	})
	if found {
		l.Entries[i] = e
		return
	}
	l.Entries = slices.Insert(l.Entries, i, e)
}

// Prune drops entries whose file is not in keep.
func (l *Lock) Prune(keep []string) []Entry {
	var dropped []Entry
	l.Entries = slices.DeleteFunc(l.Entries, func(e Entry) bool {
		if slices.Contains(keep, e.File) {
			return false
		}
		dropped = append(dropped, e)
		return true
	})
	return dropped
}

// Entry returns the entry recorded for file, if present.
func (l *Lock) Entry(file string) (Entry, bool) {
	for _, e := range l.Entries {
		if e.File == file {
			return e, true
		}
	}
	return Entry{}, false
}

// Compatible reports an error when the lock was written by a generator
// whose output the running version may not reproduce: a different major
// version, or a newer release. Development builds and empty locks always pass.
func (l *Lock) Compatible(version string) error {
	if l.GeneratorVersion == "" || version == "" || version == "dev" {
		return nil
	}

	current, err := semver.NewVersion(version)
	if err != nil {
		return errors.Wrapf(err, "invalid generator version %s", version)
	}
	locked, err := semver.NewVersion(l.GeneratorVersion)
	if err != nil {
		return errors.Wrapf(err, "invalid locked generator version %s", l.GeneratorVersion)
	}

	constraint, err := semver.NewConstraint("^" + locked.String())
	if err != nil {
		return errors.Wrapf(err, "invalid version constraint for %s", locked)
	}
	if !constraint.Check(current) {
		return errors.WithHintf(
			errors.Newf("lock was written by generator %s, running %s", locked, current),
			"regenerate with %s or install a %d.x release", current, locked.Major(),
		)
	}
	return nil
}

// Digest returns the hex sha256 of content.
func Digest(content []byte) string {
	sum := sha256.Sum256(content)
	return hex.EncodeToString(sum[:])
}
