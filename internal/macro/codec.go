package macro

import (
	"fmt"

	"github.com/dave/jennifer/jen"

	"github.com/cmmoran/recordgen/internal/model"
)

// CodecPath is the import path of the runtime used by generated codecs.
const CodecPath = "github.com/cmmoran/recordgen/pkg/codec"

// field is a property that takes part in serialization.
type field struct {
	prop     *model.Property
	typ      string
	key      string
	optional bool
	wrapped  bool // value lives in the storage wrapper
}

// value returns the expression holding the serialized value of f in recv.
func (f field) value(recv string) *jen.Statement {
	v := jen.Id(recv).Dot(f.prop.Name)
	if f.wrapped {
		v = v.Dot("value")
	}
	return v
}

// codecFields infers the type of every serializable property of d. Wrapped
// properties serialize their stored value. The first failure aborts the set.
func (e *Engine) codecFields(d *model.TypeDeclaration) ([]field, error) {
	props := EligibleProperties(d, "")
	out := make([]field, 0, len(props))
	idents, keys := map[string]string{}, map[string]string{}
	for _, p := range props {
		f := field{
			prop:    p,
			key:     externalKey(p, e.cfg.KeyCase),
			wrapped: e.wrapped(d, p),
		}
		if err := claim(idents, keyConstName(d, p), p, CollisionIdentifier); err != nil {
			return nil, err
		}
		if err := claim(keys, f.key, p, CollisionKey); err != nil {
			return nil, err
		}

		typ, err := Infer(p)
		if f.wrapped {
			typ, err = storedType(d, p)
		}
		if err != nil {
			return nil, err
		}
		f.typ, f.optional = typ, IsOptional(typ)
		out = append(out, f)
	}
	return out, nil
}

// synthesizeCodec emits the key enumeration, the default constructor when
// missing, the decoder, the encoder and the codec conformance of d.
func (e *Engine) synthesizeCodec(d *model.TypeDeclaration) ([]model.Derived, error) {
	fields, err := e.codecFields(d)
	if err != nil {
		return nil, err
	}

	out := e.keyEnum(d, fields)

	if !d.HasExplicitNoArgInitializer() {
		ctor, err := e.constructor(d)
		if err != nil {
			return nil, err
		}
		out = append(out, ctor)
	}

	out = append(out, e.decoder(d, fields), e.encoder(d, fields))
	return append(out, e.conformance(d)...), nil
}

func (e *Engine) keyEnum(d *model.TypeDeclaration, fields []field) []model.Derived {
	typeName := keyTypeName(d)

	enum := jen.Commentf("%s enumerates the serialized keys of %s.", typeName, d.Name).Line().
		Type().Id(typeName).String()

	consts := jen.Const().DefsFunc(func(g *jen.Group) {
		for _, f := range fields {
			g.Id(keyConstName(d, f.prop)).Id(typeName).Op("=").Lit(f.key)
		}
	})

	list := jen.Commentf("%s lists every %s in declaration order.", keyListName(d), typeName).Line().
		Var().Id(keyListName(d)).Op("=").Index().Id(typeName).ValuesFunc(func(g *jen.Group) {
		for _, f := range fields {
			g.Id(keyConstName(d, f.prop))
		}
	})

	return []model.Derived{
		{Kind: model.DerivedKeyEnum, Name: typeName, Code: enum},
		{Kind: model.DerivedKeyEnum, Name: typeName + " constants", Code: consts},
		{Kind: model.DerivedKeyEnum, Name: keyListName(d), Code: list},
	}
}

// constructor emits a no-argument constructor applying every stored
// property's declared initializer.
func (e *Engine) constructor(d *model.TypeDeclaration) (model.Derived, error) {
	name := model.ConstructorName(d.Name)

	var fieldInit []jen.Code
	if p, ok := d.Parent(); ok {
		init := qual(p.PkgPath, model.ConstructorName(p.Name)).Call()
		if !p.Pointer {
			init = jen.Op("*").Add(init)
		}
		fieldInit = append(fieldInit, jen.Id(p.Name).Op(":").Add(init))
	}

	var body []jen.Code
	body = append(body, jen.Id("x").Op(":=").Op("&").Id(d.Name).Values(fieldInit...))
	for _, p := range d.Properties() {
		if !p.Stored() || !p.HasInitializer {
			continue
		}
		val, err := parseExpr(p.Initializer, d.Imports)
		if err != nil {
			return model.Derived{}, err
		}
		if e.wrapped(d, p) {
			body = append(body, jen.Id("x").Dot(p.Name).Dot("Set").Call(val))
			continue
		}
		body = append(body, jen.Id("x").Dot(p.Name).Op("=").Add(val))
	}
	body = append(body, jen.Return(jen.Id("x")))

	code := jen.Commentf("%s returns a new %s holding its declared defaults.", name, d.Name).Line().
		Func().Id(name).Params().Op("*").Id(d.Name).Block(body...)

	return model.Derived{Kind: model.DerivedConstructor, Name: name, Code: code}, nil
}

// parentCall emits the delegation of method to the parent of a class,
// creating a pointer parent first when create is set. Other embedded fields
// are left to their own serialization.
func parentCall(d *model.TypeDeclaration, method, arg string, create bool) []jen.Code {
	p, ok := d.Parent()
	if !ok {
		return nil
	}

	call := jen.If(
		jen.Err().Op(":=").Id("x").Dot(p.Name).Dot(method).Call(jen.Id(arg)),
		jen.Err().Op("!=").Nil(),
	).Block(jen.Return(jen.Err()))

	switch {
	case !p.Pointer:
		return []jen.Code{call}
	case create:
		return []jen.Code{
			jen.If(jen.Id("x").Dot(p.Name).Op("==").Nil()).Block(
				jen.Id("x").Dot(p.Name).Op("=").Add(qual(p.PkgPath, model.ConstructorName(p.Name)).Call()),
			),
			call,
		}
	default:
		return []jen.Code{jen.If(jen.Id("x").Dot(p.Name).Op("!=").Nil()).Block(call)}
	}
}

func (e *Engine) decoder(d *model.TypeDeclaration, fields []field) model.Derived {
	var body []jen.Code
	if len(fields) > 0 {
		body = append(body, jen.Id("def").Op(":=").Id(model.ConstructorName(d.Name)).Call())
	}
	body = append(body, parentCall(d, "DecodeFrom", "dec", true)...)

	if e.cfg.Strict && len(fields) > 0 {
		body = append(body, jen.Var().Err().Error())
	}
	for _, f := range fields {
		fn := "DecodeOr"
		if f.optional {
			fn = "DecodeOptional"
		}
		args := []jen.Code{jen.Id("dec"), jen.Id(keyConstName(d, f.prop)), f.value("def")}

		if !e.cfg.Strict {
			body = append(body, f.value("x").Op("=").Qual(CodecPath, fn).Call(args...))
			continue
		}
		body = append(body, jen.If(
			jen.List(f.value("x"), jen.Err()).Op("=").Qual(CodecPath, fn+"Strict").Call(args...),
			jen.Err().Op("!=").Nil(),
		).Block(jen.Return(jen.Err())))
	}
	body = append(body, jen.Return(jen.Nil()))

	doc := fmt.Sprintf("DecodeFrom reads %s from dec. Absent or malformed keys keep the defaults of %s.",
		d.Name, model.ConstructorName(d.Name))
	if e.cfg.Strict {
		doc = fmt.Sprintf("DecodeFrom reads %s from dec. Absent keys keep the defaults of %s; malformed values fail.",
			d.Name, model.ConstructorName(d.Name))
	}

	code := jen.Comment(doc).Line().
		Func().Params(jen.Id("x").Op("*").Id(d.Name)).Id("DecodeFrom").
		Params(jen.Id("dec").Qual(CodecPath, "Decoder")).Error().Block(body...)

	return model.Derived{Kind: model.DerivedDecoder, Name: d.Name + ".DecodeFrom", Code: code}
}

func (e *Engine) encoder(d *model.TypeDeclaration, fields []field) model.Derived {
	body := parentCall(d, "EncodeTo", "enc", false)
	for _, f := range fields {
		fn, v := "Encode", jen.Id("x").Dot(f.prop.Name)
		if f.optional {
			fn, v = "EncodeOptional", f.value("x")
		}
		body = append(body, jen.If(
			jen.Err().Op(":=").Qual(CodecPath, fn).Call(jen.Id("enc"), jen.Id(keyConstName(d, f.prop)), v),
			jen.Err().Op("!=").Nil(),
		).Block(jen.Return(jen.Err())))
	}
	body = append(body, jen.Return(jen.Nil()))

	code := jen.Commentf("EncodeTo writes the serialized fields of %s to enc.", d.Name).Line().
		Func().Params(jen.Id("x").Op("*").Id(d.Name)).Id("EncodeTo").
		Params(jen.Id("enc").Qual(CodecPath, "Encoder")).Error().Block(body...)

	return model.Derived{Kind: model.DerivedEncoder, Name: d.Name + ".EncodeTo", Code: code}
}

func (e *Engine) conformance(d *model.TypeDeclaration) []model.Derived {
	assert := jen.Var().Id("_").Qual(CodecPath, "Codable").Op("=").
		Parens(jen.Op("*").Id(d.Name)).Call(jen.Nil())

	marshal := jen.Commentf("MarshalJSON encodes %s under its coding keys.", d.Name).Line().
		Func().Params(jen.Id("x").Id(d.Name)).Id("MarshalJSON").Params().
		Params(jen.Index().Byte(), jen.Error()).Block(
		jen.Return(jen.Qual(CodecPath, "MarshalJSON").Call(jen.Op("&").Id("x"))),
	)

	unmarshal := jen.Commentf("UnmarshalJSON decodes %s, keeping defaults for absent keys.", d.Name).Line().
		Func().Params(jen.Id("x").Op("*").Id(d.Name)).Id("UnmarshalJSON").
		Params(jen.Id("data").Index().Byte()).Error().Block(
		jen.Return(jen.Qual(CodecPath, "UnmarshalJSON").Call(jen.Id("data"), jen.Id("x"))),
	)

	return []model.Derived{
		{Kind: model.DerivedConformance, Name: d.Name + " codable", Code: assert},
		{Kind: model.DerivedConformance, Name: d.Name + ".MarshalJSON", Code: marshal},
		{Kind: model.DerivedConformance, Name: d.Name + ".UnmarshalJSON", Code: unmarshal},
	}
}
