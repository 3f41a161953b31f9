// Package parser extracts normalized declarations from Go packages and
// declaration manifests.
package parser

import (
	"context"
	"go/ast"
	"go/token"
	"path"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/cockroachdb/errors"
	"go.uber.org/zap"
	"golang.org/x/tools/go/packages"

	"github.com/cmmoran/recordgen/internal/diagnostic"
	"github.com/cmmoran/recordgen/internal/model"
	options "github.com/cmmoran/recordgen/pkg/parser"
)

// Parser holds state/results of a parse run.
type Parser struct {
	Opts *options.Options

	Decls       model.TypeDeclarations
	Diagnostics diagnostic.Diagnostics

	// Modules maps package directories to the module path that owns them.
	Modules map[string]string
}

// New returns a Parser for already normalized options.
func New(opts *options.Options) *Parser {
	return &Parser{
		Opts:    opts,
		Modules: make(map[string]string),
	}
}

// Parse extracts every declaration carrying a directive from InDir and every
// declaration of the configured manifests.
func (p *Parser) Parse(ctx context.Context) error {
	p.Decls = nil
	p.Diagnostics = diagnostic.Diagnostics{}

	if p.Opts.InDir != "" {
		if err := p.parseSource(ctx); err != nil {
			return err
		}
	}

	for _, m := range p.Opts.Manifests {
		manifest, err := LoadManifest(m)
		if err != nil {
			return err
		}
		decls, err := manifest.TypeDeclarations(p.Opts.Directive)
		if err != nil {
			return err
		}
		for _, d := range decls {
			if p.Opts.Excluded(d.Name) {
				continue
			}
			p.Decls = append(p.Decls, d)
		}
	}

	zap.L().Debug("declarations extracted",
		zap.Int("count", len(p.Decls)),
		zap.Int("diagnostics", p.Diagnostics.Len()))
	return nil
}

func (p *Parser) parseSource(ctx context.Context) error {
	fset := token.NewFileSet()
	pkgs, err := packages.Load(&packages.Config{
		Context: ctx,
		Mode: packages.NeedName | packages.NeedFiles | packages.NeedCompiledGoFiles |
			packages.NeedSyntax | packages.NeedModule,
		Dir:  p.Opts.InDir,
		Fset: fset,
	}, "./...")
	if err != nil {
		return errors.Wrapf(err, "load packages in %s", p.Opts.InDir)
	}

	sort.Slice(pkgs, func(i, j int) bool { return pkgs[i].PkgPath < pkgs[j].PkgPath })

	for _, pkg := range pkgs {
		for _, e := range pkg.Errors {
			p.Diagnostics.AddWarning(diagnostic.CodeInternal, e.Msg, "", "", model.Position{File: e.Pos})
		}
		if pkg.Module != nil && len(pkg.GoFiles) > 0 {
			p.Modules[filepath.Dir(pkg.GoFiles[0])] = pkg.Module.Path
		}

		files := make([]*ast.File, 0, len(pkg.Syntax))
		for _, file := range pkg.Syntax {
			name := fset.Position(file.Package).Filename
			if ast.IsGenerated(file) || filepath.Base(name) == p.Opts.OutFile {
				continue
			}
			files = append(files, file)
		}

		funcs := collectFuncs(files)
		for _, file := range files {
			if err := p.collectDecls(fset, pkg, file, funcs); err != nil {
				return err
			}
		}
	}
	return nil
}

// funcIndex records package level functions and methods by name.
type funcIndex struct {
	funcs   map[string]*ast.FuncDecl
	methods map[string][]*ast.FuncDecl // receiver type name → methods
}

func collectFuncs(files []*ast.File) funcIndex {
	idx := funcIndex{funcs: map[string]*ast.FuncDecl{}, methods: map[string][]*ast.FuncDecl{}}
	for _, file := range files {
		for _, decl := range file.Decls {
			fn, ok := decl.(*ast.FuncDecl)
			if !ok {
				continue
			}
			if fn.Recv == nil || len(fn.Recv.List) == 0 {
				idx.funcs[fn.Name.Name] = fn
				continue
			}
			recv := embeddedFieldName(fn.Recv.List[0].Type)
			idx.methods[recv] = append(idx.methods[recv], fn)
		}
	}
	return idx
}

func (p *Parser) collectDecls(fset *token.FileSet, pkg *packages.Package, file *ast.File, funcs funcIndex) error {
	imports := fileImports(file)
	filename := fset.Position(file.Package).Filename

	base := func(name string, kind model.DeclKind, pos token.Pos, invs []model.Invocation) *model.TypeDeclaration {
		return &model.TypeDeclaration{
			Name:        name,
			Kind:        kind,
			Invocations: invs,
			Package:     pkg.Name,
			PkgPath:     pkg.PkgPath,
			Dir:         filepath.Dir(filename),
			OutFile:     p.Opts.OutFile,
			Imports:     imports,
			Pos:         position(fset, pos),
		}
	}

	for _, decl := range file.Decls {
		switch gen := decl.(type) {
		case *ast.FuncDecl:
			invs, err := directives(fset, p.Opts.Directive, gen.Doc)
			if err != nil {
				return err
			}
			if len(invs) == 0 || p.Opts.Excluded(gen.Name.Name) {
				continue
			}
			p.Decls = append(p.Decls, base(gen.Name.Name, model.KindFunc, gen.Name.Pos(), invs))

		case *ast.GenDecl:
			var genDoc *ast.CommentGroup
			if !gen.Lparen.IsValid() {
				genDoc = gen.Doc
			}

			for _, spec := range gen.Specs {
				switch s := spec.(type) {
				case *ast.TypeSpec:
					invs, err := directives(fset, p.Opts.Directive, genDoc, s.Doc)
					if err != nil {
						return err
					}
					if len(invs) == 0 || p.Opts.Excluded(s.Name.Name) {
						continue
					}
					d := base(s.Name.Name, typeKind(s), s.Name.Pos(), invs)
					if st, ok := s.Type.(*ast.StructType); ok && !s.Assign.IsValid() {
						d.Members, d.Inheritance = structMembers(fset, st, p.Opts.TagKey, imports)
						if len(d.Inheritance) > 0 {
							d.Kind = model.KindClass
						}
						d.Members = append(d.Members, funcMembers(fset, d.Name, funcs)...)
					}
					p.Decls = append(p.Decls, d)

				case *ast.ValueSpec:
					invs, err := directives(fset, p.Opts.Directive, genDoc, s.Doc)
					if err != nil {
						return err
					}
					if len(invs) == 0 || len(s.Names) == 0 || p.Opts.Excluded(s.Names[0].Name) {
						continue
					}
					p.Decls = append(p.Decls, base(s.Names[0].Name, model.KindValue, s.Names[0].Pos(), invs))
				}
			}
		}
	}
	return nil
}

func typeKind(s *ast.TypeSpec) model.DeclKind {
	if s.Assign.IsValid() {
		return model.KindAlias
	}
	switch s.Type.(type) {
	case *ast.StructType:
		return model.KindStruct
	case *ast.InterfaceType:
		return model.KindInterface
	default:
		return model.KindNamed
	}
}

// funcMembers lists the methods of typeName and its constructors.
func funcMembers(fset *token.FileSet, typeName string, funcs funcIndex) []model.Member {
	var out []model.Member
	for _, fn := range funcs.methods[typeName] {
		out = append(out, model.Member{
			Kind:   model.MemberMethod,
			Name:   fn.Name.Name,
			Params: fn.Type.Params.NumFields(),
			Pos:    position(fset, fn.Name.Pos()),
		})
	}
	if fn, ok := funcs.funcs[model.ConstructorName(typeName)]; ok {
		out = append(out, model.Member{
			Kind:   model.MemberInitializer,
			Name:   fn.Name.Name,
			Params: fn.Type.Params.NumFields(),
			Pos:    position(fset, fn.Name.Pos()),
		})
	}
	return out
}

var majorVersion = regexp.MustCompile(`^v[0-9]+$`)

// importAlias guesses the package name of an import path.
func importAlias(importPath string) string {
	elem := path.Base(importPath)
	if majorVersion.MatchString(elem) {
		if dir := path.Dir(importPath); dir != "." {
			elem = path.Base(dir)
		}
	}
	if i := strings.Index(elem, ".v"); i > 0 && majorVersion.MatchString(elem[i+1:]) {
		elem = elem[:i]
	}
	elem = strings.TrimPrefix(elem, "go-")
	return strings.ReplaceAll(elem, "-", "")
}

// fileImports maps each import alias of file to its path.
func fileImports(file *ast.File) map[string]string {
	out := make(map[string]string, len(file.Imports))
	for _, imp := range file.Imports {
		importPath := strings.Trim(imp.Path.Value, `"`)
		alias := importAlias(importPath)
		if imp.Name != nil {
			if imp.Name.Name == "_" || imp.Name.Name == "." {
				continue
			}
			alias = imp.Name.Name
		}
		out[alias] = importPath
	}
	return out
}
