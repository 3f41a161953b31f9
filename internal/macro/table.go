package macro

import (
	"github.com/dave/jennifer/jen"

	"github.com/cmmoran/recordgen/internal/model"
)

// synthesizeTable emits the field to key mapping of d. Only eligible
// properties appear; wrapped ones serialize through their wrapper and are
// left out.
func (e *Engine) synthesizeTable(d *model.TypeDeclaration) (model.Derived, error) {
	all, err := e.codecFields(d)
	if err != nil {
		return model.Derived{}, err
	}
	fields := make([]field, 0, len(all))
	for _, f := range all {
		if !f.wrapped {
			fields = append(fields, f)
		}
	}

	name := keyTableName(d)
	code := jen.Commentf("%s maps each serialized field of %s to its key.", name, d.Name).Line().
		Var().Id(name).Op("=").Index().Qual(CodecPath, "KeyPath").ValuesFunc(func(g *jen.Group) {
		for _, f := range fields {
			g.Values(jen.Dict{
				jen.Id("Field"): jen.Lit(f.prop.Name),
				jen.Id("Key"):   jen.Lit(f.key),
			})
		}
	})

	return model.Derived{Kind: model.DerivedKeyTable, Name: name, Code: code}, nil
}
