package macro

import (
	"path/filepath"

	"github.com/dave/jennifer/jen"

	"github.com/cmmoran/recordgen/internal/model"
)

// synthesizeRecord declares the struct of a manifest declaration. Wrapped
// properties are typed as their storage wrapper.
func (e *Engine) synthesizeRecord(d *model.TypeDeclaration) (model.Derived, error) {
	var fields []jen.Code
	for _, p := range d.Inheritance {
		embed := qual(p.PkgPath, p.Name)
		if p.Pointer {
			embed = jen.Op("*").Add(embed)
		}
		fields = append(fields, embed)
	}

	for _, p := range d.Properties() {
		if !p.Stored() {
			continue
		}
		if e.wrapped(d, p) {
			fields = append(fields, jen.Id(p.Name).Id(storageTypeName(d, p)))
			continue
		}
		typ, err := Infer(p)
		if err != nil {
			return model.Derived{}, err
		}
		t, err := parseExpr(typ, d.Imports)
		if err != nil {
			return model.Derived{}, err
		}
		fields = append(fields, jen.Id(p.Name).Add(t))
	}

	code := jen.Commentf("%s is declared in %s.", d.Name, filepath.Base(d.Pos.File)).Line().
		Type().Id(d.Name).Struct(fields...)
	if d.Pos.File == "" {
		code = jen.Type().Id(d.Name).Struct(fields...)
	}

	return model.Derived{Kind: model.DerivedRecord, Name: d.Name, Code: code}, nil
}
