// Package generator expands declarations and renders the derived code into
// one Go file per output location.
package generator

import (
	"bytes"
	"context"
	"path/filepath"
	"sort"
	"sync"

	"github.com/cockroachdb/errors"
	"github.com/dave/jennifer/jen"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/cmmoran/recordgen/internal/diagnostic"
	"github.com/cmmoran/recordgen/internal/macro"
	"github.com/cmmoran/recordgen/internal/model"
	"github.com/cmmoran/recordgen/internal/parser"
	options "github.com/cmmoran/recordgen/pkg/parser"
)

// Header is the first line of every generated file.
const Header = "Code generated by recordgen. DO NOT EDIT."

// RuntimeModule is the module generated codecs import.
const RuntimeModule = "github.com/cmmoran/recordgen"

// File is one rendered output file.
type File struct {
	Path    string
	Package string
	Decls   []string
	Content []byte
}

// Result is the outcome of one generation run.
type Result struct {
	Files       []File
	Expansions  []*macro.Expansion
	Diagnostics diagnostic.Diagnostics
}

type Generator struct {
	opts   *options.Options
	engine *macro.Engine

	mu      sync.Mutex
	modules map[string]*parser.ModuleInfo
}

func New(opts *options.Options) *Generator {
	return &Generator{
		opts:    opts,
		engine:  macro.New(macro.ConfigFromOptions(opts)),
		modules: make(map[string]*parser.ModuleInfo),
	}
}

// Expand runs the macros of every declaration concurrently. A failing
// declaration is reported in its expansion and never stops the others.
func (g *Generator) Expand(ctx context.Context, decls model.TypeDeclarations) ([]*macro.Expansion, error) {
	out := make([]*macro.Expansion, len(decls))

	eg, ctx := errgroup.WithContext(ctx)
	eg.SetLimit(max(g.opts.Concurrency, 1))
	for i, d := range decls {
		eg.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			out[i] = g.engine.Expand(d)
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, errors.Wrap(err, "expand declarations")
	}
	return out, nil
}

// Generate expands decls and renders the files holding their derived code.
func (g *Generator) Generate(ctx context.Context, decls model.TypeDeclarations) (*Result, error) {
	expansions, err := g.Expand(ctx, decls)
	if err != nil {
		return nil, err
	}

	res := &Result{Expansions: expansions}

	type group struct {
		pkg     string
		pkgPath string
		items   []*macro.Expansion
	}
	groups := map[string]*group{}
	for _, x := range expansions {
		res.Diagnostics.Merge(x.Diagnostics)
		if x.Failed() || len(x.Derived) == 0 {
			continue
		}
		d := x.Decl
		path := filepath.Join(d.Dir, d.OutFile)
		grp, ok := groups[path]
		if !ok {
			grp = &group{pkg: d.Package, pkgPath: d.PkgPath}
			groups[path] = grp
		}
		if grp.pkg != d.Package {
			res.Diagnostics.AddError(diagnostic.CodeInternal,
				"package "+d.Package+" does not match "+grp.pkg+" already targeting "+path,
				d.Name, "", d.Pos)
			continue
		}
		grp.items = append(grp.items, x)
		g.checkModule(d, x.Derived, &res.Diagnostics)
	}

	for path, grp := range groups {
		content, err := render(grp.pkg, grp.pkgPath, grp.items)
		if err != nil {
			return nil, errors.Wrapf(err, "render %s", path)
		}
		f := File{Path: path, Package: grp.pkg, Content: content}
		for _, x := range grp.items {
			f.Decls = append(f.Decls, x.Decl.Name)
		}
		res.Files = append(res.Files, f)
	}
	sort.Slice(res.Files, func(i, j int) bool { return res.Files[i].Path < res.Files[j].Path })

	zap.L().Debug("generation finished",
		zap.Int("declarations", len(decls)),
		zap.Int("files", len(res.Files)),
		zap.Int("errors", len(res.Diagnostics.Errors)))
	return res, nil
}

func render(pkg, pkgPath string, items []*macro.Expansion) ([]byte, error) {
	var f *jen.File
	if pkgPath != "" {
		f = jen.NewFilePathName(pkgPath, pkg)
	} else {
		f = jen.NewFile(pkg)
	}
	f.HeaderComment(Header)
	f.ImportName(macro.CodecPath, "codec")

	for _, x := range items {
		for _, d := range x.Derived {
			f.Add(d.Code)
			f.Line()
		}
	}

	var buf bytes.Buffer
	if err := f.Render(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// checkModule warns when Go source receiving codec code lives in a module
// that does not require the runtime.
func (g *Generator) checkModule(d *model.TypeDeclaration, derived []model.Derived, diags *diagnostic.Diagnostics) {
	if d.EmitRecord || !usesRuntime(derived) {
		return
	}

	g.mu.Lock()
	info, seen := g.modules[d.Dir]
	if !seen {
		var err error
		if info, err = parser.ReadModule(d.Dir); err != nil {
			zap.L().Debug("module lookup failed", zap.String("dir", d.Dir), zap.Error(err))
		}
		g.modules[d.Dir] = info
	}
	g.mu.Unlock()

	if info == nil || info.DependsOn(RuntimeModule) {
		return
	}
	if seen {
		return
	}
	diags.Add(diagnostic.Diagnostic{
		Severity: diagnostic.SeverityWarning,
		Code:     diagnostic.CodeModule,
		Message:  "module " + info.Path + " does not require " + RuntimeModule,
		Decl:     d.Name,
		Pos:      d.Pos,
		Hints:    []string{"run: go get " + RuntimeModule},
	})
}

func usesRuntime(derived []model.Derived) bool {
	for _, d := range derived {
		switch d.Kind {
		case model.DerivedDecoder, model.DerivedEncoder, model.DerivedConformance, model.DerivedKeyTable:
			return true
		}
	}
	return false
}
