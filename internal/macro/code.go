package macro

import (
	"go/ast"
	goparser "go/parser"
	"go/types"
	"unicode"
	"unicode/utf8"

	"github.com/cockroachdb/errors"
	"github.com/dave/jennifer/jen"
	"github.com/iancoleman/strcase"
	"github.com/jinzhu/inflection"

	"github.com/cmmoran/recordgen/internal/model"
	"github.com/cmmoran/recordgen/pkg/parser"
)

// ErrInvalidExpression marks type or initializer text that is not valid Go.
var ErrInvalidExpression = errors.New("invalid expression")

// knownImports resolves package selectors that declarations did not import
// explicitly.
var knownImports = map[string]string{
	"time":  "time",
	"uuid":  "github.com/google/uuid",
	"json":  "encoding/json",
	"big":   "math/big",
	"url":   "net/url",
	"netip": "net/netip",
	"sql":   "database/sql",
}

// parseExpr parses src as a Go expression and renders it as jen code, with
// package selectors qualified through imports.
func parseExpr(src string, imports map[string]string) (*jen.Statement, error) {
	expr, err := goparser.ParseExpr(src)
	if err != nil {
		return nil, errors.Mark(errors.Wrapf(err, "parse %q", src), ErrInvalidExpression)
	}
	return exprCode(expr, imports), nil
}

// exprCode converts a type or value expression into jen code.
func exprCode(e ast.Expr, imports map[string]string) *jen.Statement {
	switch x := e.(type) {
	case *ast.Ident:
		return jen.Id(x.Name)

	case *ast.BasicLit:
		return jen.Id(x.Value)

	case *ast.SelectorExpr:
		if pkg, ok := x.X.(*ast.Ident); ok {
			if path := importPath(pkg.Name, imports); path != "" {
				return jen.Qual(path, x.Sel.Name)
			}
		}
		return exprCode(x.X, imports).Dot(x.Sel.Name)

	case *ast.StarExpr:
		return jen.Op("*").Add(exprCode(x.X, imports))

	case *ast.ArrayType:
		if x.Len == nil {
			return jen.Index().Add(exprCode(x.Elt, imports))
		}
		return jen.Index(exprCode(x.Len, imports)).Add(exprCode(x.Elt, imports))

	case *ast.MapType:
		return jen.Map(exprCode(x.Key, imports)).Add(exprCode(x.Value, imports))

	case *ast.ParenExpr:
		return jen.Parens(exprCode(x.X, imports))

	case *ast.UnaryExpr:
		return jen.Op(x.Op.String()).Add(exprCode(x.X, imports))

	case *ast.BinaryExpr:
		return exprCode(x.X, imports).Op(x.Op.String()).Add(exprCode(x.Y, imports))

	case *ast.CallExpr:
		args := make([]jen.Code, 0, len(x.Args))
		for _, a := range x.Args {
			args = append(args, exprCode(a, imports))
		}
		if x.Ellipsis.IsValid() && len(args) > 0 {
			args[len(args)-1] = jen.Add(args[len(args)-1]).Op("...")
		}
		return exprCode(x.Fun, imports).Call(args...)

	case *ast.CompositeLit:
		elts := make([]jen.Code, 0, len(x.Elts))
		for _, el := range x.Elts {
			if kv, ok := el.(*ast.KeyValueExpr); ok {
				elts = append(elts, exprCode(kv.Key, imports).Op(":").Add(exprCode(kv.Value, imports)))
				continue
			}
			elts = append(elts, exprCode(el, imports))
		}
		if x.Type == nil {
			return jen.Values(elts...)
		}
		return exprCode(x.Type, imports).Values(elts...)

	case *ast.IndexExpr:
		return exprCode(x.X, imports).Index(exprCode(x.Index, imports))

	case *ast.IndexListExpr:
		idx := make([]jen.Code, 0, len(x.Indices))
		for _, i := range x.Indices {
			idx = append(idx, exprCode(i, imports))
		}
		return exprCode(x.X, imports).Types(idx...)

	case *ast.InterfaceType:
		if x.Methods == nil || len(x.Methods.List) == 0 {
			return jen.Interface()
		}
	}

	return jen.Id(types.ExprString(e))
}

func importPath(alias string, imports map[string]string) string {
	if p, ok := imports[alias]; ok {
		return p
	}
	return knownImports[alias]
}

// qual references name in pkgPath, or a local identifier when pkgPath is "".
func qual(pkgPath, name string) *jen.Statement {
	if pkgPath == "" {
		return jen.Id(name)
	}
	return jen.Qual(pkgPath, name)
}

// naming ----------------------------------------------------------------------

func upperFirst(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToUpper(r)) + s[size:]
}

func keyTypeName(d *model.TypeDeclaration) string {
	return upperFirst(d.Name) + "CodingKey"
}

func keyConstName(d *model.TypeDeclaration, p *model.Property) string {
	return keyTypeName(d) + upperFirst(p.Name)
}

func keyListName(d *model.TypeDeclaration) string {
	return inflection.Plural(keyTypeName(d))
}

func keyTableName(d *model.TypeDeclaration) string {
	return upperFirst(d.Name) + inflection.Plural("KeyPath")
}

func storageTypeName(d *model.TypeDeclaration, p *model.Property) string {
	return upperFirst(d.Name) + upperFirst(p.Name) + "Storage"
}

// externalKey returns the serialized key of p under keyCase; an explicit key
// always wins.
func externalKey(p *model.Property, keyCase string) string {
	if p.Key != "" {
		return p.Key
	}
	switch keyCase {
	case parser.KeyCaseSnake:
		return strcase.ToSnake(p.Name)
	case parser.KeyCaseCamel:
		return strcase.ToLowerCamel(p.Name)
	case parser.KeyCaseKebab:
		return strcase.ToKebab(p.Name)
	default:
		return p.Name
	}
}
