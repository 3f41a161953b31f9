// Package annotate runs the injection macros alone and optionally persists
// the injected annotations into the struct tags of Go source files.
package annotate

import (
	"bytes"
	"context"
	"go/ast"
	"go/format"
	"go/parser"
	"go/token"
	"os"
	"reflect"
	"slices"
	"strconv"
	"strings"

	"github.com/cockroachdb/errors"
	"go.uber.org/zap"

	"github.com/cmmoran/recordgen/internal/diagnostic"
	"github.com/cmmoran/recordgen/internal/macro"
	"github.com/cmmoran/recordgen/internal/model"
	internal "github.com/cmmoran/recordgen/internal/parser"
	options "github.com/cmmoran/recordgen/pkg/parser"
)

// Change is the set of annotations injected into one property.
type Change struct {
	File  string
	Decl  string
	Field string
	// Added lists the injected annotations in injection order.
	Added []string
	// Annotations is the full list after injection.
	Annotations []string
	Pos         model.Position
}

// Result is the outcome of Annotate.
type Result struct {
	Changes     []Change
	Written     []string
	Diagnostics diagnostic.Diagnostics
}

// Annotate computes the annotations wrap and annotate would inject. With
// write set, changes to Go source declarations are stored in their struct
// tags, so running it again reports nothing.
func Annotate(ctx context.Context, opts *options.Options, write bool) (*Result, error) {
	p := internal.New(opts)
	if err := p.Parse(ctx); err != nil {
		return nil, errors.Wrap(err, "parse declarations")
	}

	engine := macro.New(macro.ConfigFromOptions(opts))
	res := &Result{Diagnostics: p.Diagnostics}

	for _, d := range p.Decls {
		x := engine.Inject(d)
		res.Diagnostics.Merge(x.Diagnostics)
		for _, prop := range x.Decl.Properties() {
			added := x.Injected[prop.Name]
			if len(added) == 0 {
				continue
			}
			res.Changes = append(res.Changes, Change{
				File:        d.Pos.File,
				Decl:        d.Name,
				Field:       prop.Name,
				Added:       added,
				Annotations: prop.Annotations,
				Pos:         prop.Pos,
			})
		}
	}

	if !write {
		return res, nil
	}

	byFile := map[string][]Change{}
	var files []string
	for _, c := range res.Changes {
		if !strings.HasSuffix(c.File, ".go") {
			continue
		}
		if _, ok := byFile[c.File]; !ok {
			files = append(files, c.File)
		}
		byFile[c.File] = append(byFile[c.File], c)
	}

	for _, file := range files {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		if err := rewriteFile(file, opts.TagKey, byFile[file]); err != nil {
			return res, err
		}
		res.Written = append(res.Written, file)
		zap.L().Info("annotated", zap.String("file", file), zap.Int("fields", len(byFile[file])))
	}
	return res, nil
}

// rewriteFile adds the annotations of changes to the tagKey struct tags of
// file and formats the result.
func rewriteFile(file, tagKey string, changes []Change) error {
	fset := token.NewFileSet()
	f, err := parser.ParseFile(fset, file, nil, parser.ParseComments)
	if err != nil {
		return errors.Wrapf(err, "parse %s", file)
	}

	pending := map[string]map[string][]string{}
	for _, c := range changes {
		if pending[c.Decl] == nil {
			pending[c.Decl] = map[string][]string{}
		}
		pending[c.Decl][c.Field] = c.Added
	}

	ast.Inspect(f, func(n ast.Node) bool {
		ts, ok := n.(*ast.TypeSpec)
		if !ok {
			return true
		}
		fields, ok := pending[ts.Name.Name]
		st, isStruct := ts.Type.(*ast.StructType)
		if !ok || !isStruct || st.Fields == nil {
			return false
		}
		for _, fld := range st.Fields.List {
			for _, id := range fld.Names {
				if added, ok := fields[id.Name]; ok {
					setTag(fld, tagKey, added)
				}
			}
		}
		return false
	})

	var buf bytes.Buffer
	if err := format.Node(&buf, fset, f); err != nil {
		return errors.Wrapf(err, "format %s", file)
	}
	info, err := os.Stat(file)
	if err != nil {
		return errors.Wrapf(err, "stat %s", file)
	}
	if err := os.WriteFile(file, buf.Bytes(), info.Mode().Perm()); err != nil {
		return errors.Wrapf(err, "write %s", file)
	}
	return nil
}

func setTag(fld *ast.Field, key string, added []string) {
	var tag reflect.StructTag
	if fld.Tag != nil {
		if raw, err := strconv.Unquote(fld.Tag.Value); err == nil {
			tag = reflect.StructTag(raw)
		}
	}

	values := options.TagList(tag, key)
	for _, a := range added {
		if !slices.Contains(values, a) {
			values = append(values, a)
		}
	}
	tag = options.SetTagList(tag, key, values)

	lit := "`" + string(tag) + "`"
	if strings.Contains(string(tag), "`") {
		lit = strconv.Quote(string(tag))
	}
	if fld.Tag == nil {
		fld.Tag = &ast.BasicLit{Kind: token.STRING}
	}
	fld.Tag.Value = lit
}
