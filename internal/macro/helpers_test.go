package macro

import (
	"strings"
	"testing"

	"github.com/cmmoran/recordgen/internal/model"
)

type propOpt func(*model.Property)

func typed(t string) propOpt { return func(p *model.Property) { p.DeclaredType = t } }

func initial(expr string, shape model.InitShape) propOpt {
	return func(p *model.Property) {
		p.Initializer = expr
		p.HasInitializer = true
		p.Shape = shape
		if shape == model.ShapeConstructor {
			p.Constructor = expr[:strings.IndexByte(expr, '(')]
		}
	}
}

func static() propOpt { return func(p *model.Property) { p.IsStatic = true } }

func accessor(k model.AccessorKind) propOpt { return func(p *model.Property) { p.Accessor = k } }

func annotated(names ...string) propOpt {
	return func(p *model.Property) { p.Annotations = append(p.Annotations, names...) }
}

func key(k string) propOpt { return func(p *model.Property) { p.Key = k } }

func prop(name string, opts ...propOpt) model.Member {
	p := &model.Property{Name: name}
	for _, o := range opts {
		o(p)
	}
	return model.Member{Kind: model.MemberProperty, Name: name, Property: p}
}

func decl(name string, kind model.DeclKind, members []model.Member, macros ...string) *model.TypeDeclaration {
	d := &model.TypeDeclaration{
		Name:    name,
		Kind:    kind,
		Members: members,
		Package: "models",
		Pos:     model.Position{File: "models.go", Line: 3, Column: 1},
	}
	for _, m := range macros {
		fields := strings.Fields(m)
		d.Invocations = append(d.Invocations, model.Invocation{Macro: fields[0], Args: fields[1:], Pos: d.Pos})
	}
	return d
}

func render(t *testing.T, ds []model.Derived) string {
	t.Helper()
	parts := make([]string, 0, len(ds))
	for _, d := range ds {
		parts = append(parts, d.GoString())
	}
	return strings.Join(parts, "\n")
}

func derivedOf(ds []model.Derived, kind model.DerivedKind) []model.Derived {
	var out []model.Derived
	for _, d := range ds {
		if d.Kind == kind {
			out = append(out, d)
		}
	}
	return out
}
