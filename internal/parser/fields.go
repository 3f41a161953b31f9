package parser

import (
	"go/ast"
	"go/token"
	"go/types"
	"reflect"
	"slices"
	"strconv"

	"github.com/cmmoran/recordgen/internal/model"
	options "github.com/cmmoran/recordgen/pkg/parser"
)

// tagDefault holds the initializer expression of a field.
const tagDefault = "default"

// structMembers converts the fields of st into property members and the
// embedded fields into the inheritance list. Embedded fields tagged with
// <tagKey>:"-" and fields tagged json:"-" are skipped.
func structMembers(fset *token.FileSet, st *ast.StructType, tagKey string, imports map[string]string) ([]model.Member, []model.Parent) {
	var (
		members []model.Member
		parents []model.Parent
	)
	if st.Fields == nil {
		return nil, nil
	}

	for _, fld := range st.Fields.List {
		tag := fieldTag(fld)
		annotations := options.TagList(tag, tagKey)
		if slices.Contains(annotations, "-") {
			continue
		}

		if len(fld.Names) == 0 {
			if parent, ok := embeddedParent(fld.Type, imports); ok {
				parents = append(parents, parent)
			}
			continue
		}

		jsonName := options.TagName(tag, "json")
		if jsonName == "-" {
			continue
		}

		for _, id := range fld.Names {
			prop := &model.Property{
				Name:         id.Name,
				DeclaredType: types.ExprString(fld.Type),
				Annotations:  slices.Clone(annotations),
				Key:          jsonName,
				Pos:          position(fset, id.Pos()),
			}
			if def, ok := tag.Lookup(tagDefault); ok && def != "" {
				prop.Initializer = def
				prop.HasInitializer = true
				prop.Shape, prop.Constructor = ClassifyInitializer(def)
			}
			members = append(members, model.Member{
				Kind:     model.MemberProperty,
				Name:     id.Name,
				Property: prop,
				Pos:      prop.Pos,
			})
		}
	}

	return members, parents
}

func fieldTag(fld *ast.Field) reflect.StructTag {
	if fld.Tag == nil {
		return ""
	}
	raw, err := strconv.Unquote(fld.Tag.Value)
	if err != nil {
		return ""
	}
	return reflect.StructTag(raw)
}

// embeddedParent resolves an embedded field type into a Parent.
func embeddedParent(expr ast.Expr, imports map[string]string) (model.Parent, bool) {
	var parent model.Parent
	if star, ok := expr.(*ast.StarExpr); ok {
		parent.Pointer = true
		expr = star.X
	}

	switch t := expr.(type) {
	case *ast.Ident:
		parent.Name = t.Name
	case *ast.SelectorExpr:
		pkg, ok := t.X.(*ast.Ident)
		if !ok {
			return model.Parent{}, false
		}
		parent.Name = t.Sel.Name
		parent.PkgPath = imports[pkg.Name]
	default:
		return model.Parent{}, false
	}
	return parent, parent.Name != ""
}

// embeddedFieldName returns the field name an embedded type expression
// introduces.
func embeddedFieldName(expr ast.Expr) string {
	switch t := expr.(type) {
	case *ast.Ident:
		return t.Name
	case *ast.SelectorExpr:
		return t.Sel.Name
	case *ast.StarExpr:
		return embeddedFieldName(t.X)
	case *ast.IndexExpr:
		return embeddedFieldName(t.X)
	case *ast.IndexListExpr:
		return embeddedFieldName(t.X)
	}
	return ""
}
