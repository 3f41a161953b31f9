package parser

import (
	"go/ast"
	goparser "go/parser"
	"go/token"
	"go/types"

	"github.com/cmmoran/recordgen/internal/model"
)

// ClassifyInitializer reports the syntactic shape of an initializer
// expression and, for constructor calls, the callee as written.
func ClassifyInitializer(src string) (model.InitShape, string) {
	expr, err := goparser.ParseExpr(src)
	if err != nil {
		return model.ShapeUnknown, ""
	}
	return classify(expr)
}

func classify(expr ast.Expr) (model.InitShape, string) {
	switch x := expr.(type) {
	case *ast.ParenExpr:
		return classify(x.X)

	case *ast.UnaryExpr:
		if x.Op != token.SUB && x.Op != token.ADD {
			return model.ShapeUnknown, ""
		}
		if shape, _ := classify(x.X); shape == model.ShapeInteger || shape == model.ShapeFloat {
			return shape, ""
		}

	case *ast.BasicLit:
		switch x.Kind {
		case token.INT:
			return model.ShapeInteger, ""
		case token.FLOAT:
			return model.ShapeFloat, ""
		case token.STRING:
			return model.ShapeString, ""
		}

	case *ast.Ident:
		if x.Name == "true" || x.Name == "false" {
			return model.ShapeBool, ""
		}

	case *ast.CompositeLit:
		switch x.Type.(type) {
		case *ast.ArrayType:
			return model.ShapeArray, ""
		case *ast.MapType:
			return model.ShapeDictionary, ""
		}

	case *ast.CallExpr:
		callee := types.ExprString(x.Fun)
		if c, ok := model.Constructors[callee]; ok && len(x.Args) <= c.MaxArgs {
			return model.ShapeConstructor, callee
		}
	}

	return model.ShapeUnknown, ""
}
