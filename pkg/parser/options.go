package parser

import (
	"path/filepath"
	"runtime"
	"strings"

	"github.com/cockroachdb/errors"
)

// Key case strategies for externally visible keys.
const (
	KeyCaseName  = "name"  // property name verbatim
	KeyCaseSnake = "snake" // user_name
	KeyCaseCamel = "camel" // userName
	KeyCaseKebab = "kebab" // user-name
)

// Options control extraction, expansion and output.
//
// InDir             – Go module directory scanned for //derive: directives ("" disables).
// Manifests         – declaration manifests (yaml, yml, toml).
// OutFile           – generated file name per Go package.
// LockFile          – generation lock written next to InDir.
// Directive         – directive prefix, "derive" matches //derive:codable.
// TagKey            – struct tag key holding annotations, derive:"Tracked".
// StorageAnnotation – annotation injected by the wrap macro.
// KeyCase           – external key strategy: name, snake, camel, kebab.
// Strict            – generated decoders fail on malformed values.
// Concurrency       – parallel expansions, 0 means GOMAXPROCS.
// ExcludeTypes      – declaration names to skip (case‑insensitive).
type Options struct {
	InDir             string   `json:"in_dir,omitempty" yaml:"in_dir,omitempty" toml:"in_dir,omitempty" mapstructure:"in_dir,omitempty"`
	Manifests         []string `json:"manifests,omitempty" yaml:"manifests,omitempty" toml:"manifests,omitempty" mapstructure:"manifests,omitempty"`
	OutFile           string   `json:"out_file,omitempty" yaml:"out_file,omitempty" toml:"out_file,omitempty" mapstructure:"out_file,omitempty"`
	LockFile          string   `json:"lock_file,omitempty" yaml:"lock_file,omitempty" toml:"lock_file,omitempty" mapstructure:"lock_file,omitempty"`
	Directive         string   `json:"directive,omitempty" yaml:"directive,omitempty" toml:"directive,omitempty" mapstructure:"directive,omitempty"`
	TagKey            string   `json:"tag_key,omitempty" yaml:"tag_key,omitempty" toml:"tag_key,omitempty" mapstructure:"tag_key,omitempty"`
	StorageAnnotation string   `json:"storage_annotation,omitempty" yaml:"storage_annotation,omitempty" toml:"storage_annotation,omitempty" mapstructure:"storage_annotation,omitempty"`
	KeyCase           string   `json:"key_case,omitempty" yaml:"key_case,omitempty" toml:"key_case,omitempty" mapstructure:"key_case,omitempty"`
	Strict            bool     `json:"strict,omitempty" yaml:"strict,omitempty" toml:"strict,omitempty" mapstructure:"strict,omitempty"`
	Concurrency       int      `json:"concurrency,omitempty" yaml:"concurrency,omitempty" toml:"concurrency,omitempty" mapstructure:"concurrency,omitempty"`
	ExcludeTypes      []string `json:"exclude_types,omitempty" yaml:"exclude_types,omitempty" toml:"exclude_types,omitempty" mapstructure:"exclude_types,omitempty"`
}

func NewOptions() *Options {
	return &Options{
		InDir:             ".",
		OutFile:           "derive_gen.go",
		LockFile:          "recordgen.lock.yaml",
		Directive:         "derive",
		TagKey:            "derive",
		StorageAnnotation: "Tracked",
		KeyCase:           KeyCaseName,
	}
}

// Normalize fills defaults and validates the options.
func (o *Options) Normalize() error {
	if len(o.OutFile) == 0 {
		o.OutFile = "derive_gen.go"
	}
	if !strings.HasSuffix(o.OutFile, ".go") {
		return errors.Newf("out file %q must end in .go", o.OutFile)
	}
	if len(o.LockFile) == 0 {
		o.LockFile = "recordgen.lock.yaml"
	}
	if len(o.Directive) == 0 {
		o.Directive = "derive"
	}
	o.Directive = strings.TrimSuffix(strings.TrimPrefix(o.Directive, "//"), ":")
	if len(o.TagKey) == 0 {
		o.TagKey = "derive"
	}
	if len(o.StorageAnnotation) == 0 {
		o.StorageAnnotation = "Tracked"
	}

	switch o.KeyCase {
	case "":
		o.KeyCase = KeyCaseName
	case KeyCaseName, KeyCaseSnake, KeyCaseCamel, KeyCaseKebab:
	default:
		return errors.WithHintf(
			errors.Newf("unknown key case %q", o.KeyCase),
			"use one of %s, %s, %s, %s", KeyCaseName, KeyCaseSnake, KeyCaseCamel, KeyCaseKebab,
		)
	}

	if o.Concurrency <= 0 {
		o.Concurrency = runtime.GOMAXPROCS(0)
	}

	if o.InDir != "" {
		abs, err := filepath.Abs(o.InDir)
		if err != nil {
			return errors.Wrapf(err, "resolve input directory %q", o.InDir)
		}
		o.InDir = abs
	}
	for i, m := range o.Manifests {
		abs, err := filepath.Abs(m)
		if err != nil {
			return errors.Wrapf(err, "resolve manifest %q", m)
		}
		o.Manifests[i] = abs
	}
	if o.InDir == "" && len(o.Manifests) == 0 {
		return errors.WithHint(errors.New("nothing to generate"), "set an input directory or at least one manifest")
	}
	return nil
}

// Excluded reports whether the declaration name is listed in ExcludeTypes.
func (o *Options) Excluded(name string) bool {
	for _, ex := range o.ExcludeTypes {
		if strings.EqualFold(strings.TrimSpace(ex), name) {
			return true
		}
	}
	return false
}

// functional option pattern ---------------------------------------------------

type Option func(*Options)

func WithInDir(d string) Option               { return func(o *Options) { o.InDir = d } }
func WithManifests(m ...string) Option        { return func(o *Options) { o.Manifests = append(o.Manifests, m...) } }
func WithOutFile(f string) Option             { return func(o *Options) { o.OutFile = f } }
func WithLockFile(f string) Option            { return func(o *Options) { o.LockFile = f } }
func WithDirective(d string) Option           { return func(o *Options) { o.Directive = d } }
func WithTagKey(k string) Option              { return func(o *Options) { o.TagKey = k } }
func WithStorageAnnotation(a string) Option   { return func(o *Options) { o.StorageAnnotation = a } }
func WithKeyCase(c string) Option             { return func(o *Options) { o.KeyCase = c } }
func WithStrict() Option                      { return func(o *Options) { o.Strict = true } }
func WithConcurrency(n int) Option            { return func(o *Options) { o.Concurrency = n } }
func WithExcludeTypes(names ...string) Option {
	return func(o *Options) {
		for _, n := range names {
			o.ExcludeTypes = append(o.ExcludeTypes, strings.TrimSpace(n))
		}
	}
}

// Build applies opts over NewOptions and normalizes the result.
func Build(opts ...Option) (*Options, error) {
	o := NewOptions()
	for _, fn := range opts {
		fn(o)
	}
	if err := o.Normalize(); err != nil {
		return nil, err
	}
	return o, nil
}
