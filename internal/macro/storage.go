package macro

import (
	"strings"

	"github.com/dave/jennifer/jen"

	"github.com/cmmoran/recordgen/internal/model"
)

// tracked reports whether p carries the storage annotation.
func (e *Engine) tracked(p *model.Property) bool {
	return Eligible(p, "") && p.HasAnnotation(e.cfg.StorageAnnotation)
}

// wrapped reports whether p is stored through its generated wrapper. Emitted
// records always store tracked members that way; Go source fields only when
// they are declared with the wrapper type.
func (e *Engine) wrapped(d *model.TypeDeclaration, p *model.Property) bool {
	if !e.tracked(p) {
		return false
	}
	return d.EmitRecord || declaresStorage(d, p)
}

func declaresStorage(d *model.TypeDeclaration, p *model.Property) bool {
	return strings.TrimSpace(p.DeclaredType) == storageTypeName(d, p)
}

// storedType returns the type of the value held for p. A field declared with
// its wrapper type takes the value type from its initializer.
func storedType(d *model.TypeDeclaration, p *model.Property) (string, error) {
	if declaresStorage(d, p) {
		p = p.Clone()
		p.DeclaredType = ""
	}
	return Infer(p)
}

// synthesizeStorage emits one storage wrapper per tracked property of d.
func (e *Engine) synthesizeStorage(d *model.TypeDeclaration) ([]model.Derived, error) {
	var out []model.Derived
	seen := map[string]string{}
	for _, p := range d.Properties() {
		if !e.tracked(p) {
			continue
		}
		if err := claim(seen, storageTypeName(d, p), p, CollisionIdentifier); err != nil {
			return nil, err
		}
		typ, err := storedType(d, p)
		if err != nil {
			return nil, err
		}
		valType, err := parseExpr(typ, d.Imports)
		if err != nil {
			return nil, err
		}
		out = append(out, storageWrapper(d, p, valType))
	}
	return out, nil
}

func storageWrapper(d *model.TypeDeclaration, p *model.Property, valType *jen.Statement) model.Derived {
	name := storageTypeName(d, p)
	recv := func() *jen.Statement { return jen.Id("s").Op("*").Id(name) }
	hook := func() *jen.Statement { return jen.Func().Params(jen.List(jen.Id("prev"), jen.Id("next")).Add(valType.Clone())) }

	code := jen.Commentf("%s stores %s.%s. Set runs the hooks registered with OnChange.", name, d.Name, p.Name).Line().
		Type().Id(name).Struct(
		jen.Id("value").Add(valType.Clone()),
		jen.Id("onChange").Index().Add(hook()),
	).Line().Line().
		Comment("Get returns the stored value.").Line().
		Func().Params(recv()).Id("Get").Params().Add(valType.Clone()).Block(
		jen.Return(jen.Id("s").Dot("value")),
	).Line().Line().
		Comment("Set stores v, then runs every OnChange hook.").Line().
		Func().Params(recv()).Id("Set").Params(jen.Id("v").Add(valType.Clone())).Block(
		jen.Id("prev").Op(":=").Id("s").Dot("value"),
		jen.Id("s").Dot("value").Op("=").Id("v"),
		jen.For(jen.List(jen.Id("_"), jen.Id("fn")).Op(":=").Range().Id("s").Dot("onChange")).Block(
			jen.Id("fn").Call(jen.Id("prev"), jen.Id("v")),
		),
	).Line().Line().
		Comment("OnChange registers fn to run after every Set.").Line().
		Func().Params(recv()).Id("OnChange").Params(jen.Id("fn").Add(hook())).Block(
		jen.Id("s").Dot("onChange").Op("=").Append(jen.Id("s").Dot("onChange"), jen.Id("fn")),
	).Line().Line().
		Comment("MarshalJSON encodes the stored value.").Line().
		Func().Params(jen.Id("s").Id(name)).Id("MarshalJSON").Params().Params(jen.Index().Byte(), jen.Error()).Block(
		jen.Return(jen.Qual("encoding/json", "Marshal").Call(jen.Id("s").Dot("value"))),
	).Line().Line().
		Comment("UnmarshalJSON replaces the stored value without running hooks.").Line().
		Func().Params(recv()).Id("UnmarshalJSON").Params(jen.Id("data").Index().Byte()).Error().Block(
		jen.Return(jen.Qual("encoding/json", "Unmarshal").Call(jen.Id("data"), jen.Op("&").Id("s").Dot("value"))),
	)

	return model.Derived{Kind: model.DerivedStorage, Name: name, Code: code}
}
