// Package macro expands the macros attached to a declaration into derived Go
// declarations: injected annotations, storage wrappers, codecs and key tables.
package macro

import (
	"fmt"

	"github.com/cmmoran/recordgen/internal/diagnostic"
	"github.com/cmmoran/recordgen/internal/model"
	"github.com/cmmoran/recordgen/pkg/parser"
)

// Macro names recognized in directives and manifests.
const (
	MacroWrap     = "wrap"     // fixed injection of the storage annotation
	MacroAnnotate = "annotate" // parameterized injection
	MacroCodable  = "codable"  // key enum, constructor, decoder, encoder
	MacroKeys     = "keys"     // key-mapping table
)

// Macros lists the recognized macro names.
var Macros = []string{MacroWrap, MacroAnnotate, MacroCodable, MacroKeys}

// Config holds the settings shared by every expansion.
type Config struct {
	StorageAnnotation string
	KeyCase           string
	Strict            bool
}

// ConfigFromOptions derives an expansion config from normalized options.
func ConfigFromOptions(o *parser.Options) Config {
	return Config{
		StorageAnnotation: o.StorageAnnotation,
		KeyCase:           o.KeyCase,
		Strict:            o.Strict,
	}
}

// Engine expands declarations. It holds no per-declaration state, so one
// Engine may expand many declarations concurrently.
type Engine struct {
	cfg Config
}

// New returns an Engine for cfg.
func New(cfg Config) *Engine {
	if cfg.StorageAnnotation == "" {
		cfg.StorageAnnotation = "Tracked"
	}
	if cfg.KeyCase == "" {
		cfg.KeyCase = parser.KeyCaseName
	}
	return &Engine{cfg: cfg}
}

// Expansion is the outcome of expanding one declaration.
type Expansion struct {
	// Decl is a copy of the input carrying the injected annotations.
	Decl *model.TypeDeclaration
	// Injected lists the annotations added per property, in emission order.
	Injected map[string][]string
	// Derived holds the generated declarations in emission order.
	Derived []model.Derived
	// Diagnostics of this declaration only.
	Diagnostics diagnostic.Diagnostics
}

// Failed reports whether the declaration was abandoned.
func (x *Expansion) Failed() bool {
	return x.Diagnostics.HasErrors()
}

// Expand runs every macro attached to src. Injection runs before synthesis so
// synthesized code sees the annotations it added. Any error abandons the
// declaration: nothing is injected or derived, and the error is reported as
// a diagnostic. src is never modified.
func (e *Engine) Expand(src *model.TypeDeclaration) *Expansion {
	x, want, ok := e.inject(src)
	if !ok {
		return x
	}
	d := x.Decl

	if d.EmitRecord {
		rec, err := e.synthesizeRecord(d)
		if err != nil {
			return x.fail(src, err)
		}
		x.Derived = append(x.Derived, rec)
	}

	storage, err := e.synthesizeStorage(d)
	if err != nil {
		return x.fail(src, err)
	}
	x.Derived = append(x.Derived, storage...)

	if want[MacroCodable] {
		codec, err := e.synthesizeCodec(d)
		if err != nil {
			return x.fail(src, err)
		}
		x.Derived = append(x.Derived, codec...)
	}

	if want[MacroKeys] {
		table, err := e.synthesizeTable(d)
		if err != nil {
			return x.fail(src, err)
		}
		x.Derived = append(x.Derived, table)
	}

	return x
}

// Inject runs only the injection macros of src: wrap and annotate. The
// synthesis macros are validated but emit nothing.
func (e *Engine) Inject(src *model.TypeDeclaration) *Expansion {
	x, _, _ := e.inject(src)
	return x
}

// inject validates the invocations of src and applies its injection macros to
// a copy. ok is false when there is nothing left to synthesize.
func (e *Engine) inject(src *model.TypeDeclaration) (x *Expansion, want map[string]bool, ok bool) {
	x = &Expansion{Decl: src.Clone(), Injected: map[string][]string{}}
	d := x.Decl

	if len(d.Invocations) == 0 && !d.EmitRecord {
		return x, nil, false
	}

	if !d.Kind.Record() {
		for _, inv := range d.Invocations {
			x.Diagnostics.Add(ToDiagnostic(newMisuseError(inv.Macro, d, inv.Pos), d))
		}
		return x, nil, false
	}

	want = map[string]bool{}
	var injectors []Injector
	for _, inv := range d.Invocations {
		switch inv.Macro {
		case MacroWrap:
			if len(inv.Args) > 0 {
				x.Diagnostics.AddWarning(diagnostic.CodeExtraArguments,
					fmt.Sprintf("%s takes no arguments, ignoring %q", inv.Macro, inv.Args), d.Name, "", inv.Pos)
			}
			injectors = append(injectors, FixedInjector(inv.Macro, e.cfg.StorageAnnotation))
		case MacroAnnotate:
			if len(inv.Args) == 0 {
				x.Diagnostics.AddError(diagnostic.CodeMissingArguments,
					fmt.Sprintf("%s needs at least one annotation name", inv.Macro), d.Name, "", inv.Pos)
				continue
			}
			injectors = append(injectors, ParameterizedInjector(inv.Macro, inv.Args))
		case MacroCodable, MacroKeys:
			if len(inv.Args) > 0 {
				x.Diagnostics.AddWarning(diagnostic.CodeExtraArguments,
					fmt.Sprintf("%s takes no arguments, ignoring %q", inv.Macro, inv.Args), d.Name, "", inv.Pos)
			}
			want[inv.Macro] = true
		default:
			x.Diagnostics.AddError(diagnostic.CodeUnknownMacro,
				fmt.Sprintf("unknown macro %q, expected one of %q", inv.Macro, Macros), d.Name, "", inv.Pos)
		}
	}
	if x.Failed() {
		return x, nil, false
	}

	for _, inj := range injectors {
		added, err := inj.InjectAll(d)
		if err != nil {
			return x.fail(src, err), nil, false
		}
		for name, names := range added {
			x.Injected[name] = append(x.Injected[name], names...)
		}
	}

	return x, want, true
}

// fail abandons the expansion, restoring the untouched declaration.
func (x *Expansion) fail(src *model.TypeDeclaration, err error) *Expansion {
	x.Decl = src.Clone()
	x.Injected = map[string][]string{}
	x.Derived = nil
	x.Diagnostics.Add(ToDiagnostic(err, src))
	return x
}
