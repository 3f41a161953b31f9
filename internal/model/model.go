package model

import (
	"fmt"
	"slices"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Position locates a declaration, member or directive in its source file.
type Position struct {
	File   string
	Line   int
	Column int
}

func (p Position) String() string {
	switch {
	case p.File == "":
		return ""
	case p.Line == 0:
		return p.File
	case p.Column == 0:
		return fmt.Sprintf("%s:%d", p.File, p.Line)
	default:
		return fmt.Sprintf("%s:%d:%d", p.File, p.Line, p.Column)
	}
}

// Property is the normalized view of one property member.
type Property struct {
	Name           string       // identifier
	DeclaredType   string       // Go type expression, "" when the source omits it
	Initializer    string       // initializer expression source
	HasInitializer bool         //
	Shape          InitShape    // shape of Initializer
	Constructor    string       // callee when Shape == ShapeConstructor
	IsStatic       bool         //
	Accessor       AccessorKind //
	Annotations    []string     // annotations already applied, in source order
	Key            string       // explicit external key, "" for the default
	Pos            Position
}

// ExcludedByNaming reports whether the name is reserved as backing storage.
func (p *Property) ExcludedByNaming() bool {
	return strings.HasPrefix(p.Name, "_") || strings.HasSuffix(p.Name, "_")
}

// HasAnnotation reports whether name was already applied to the property.
func (p *Property) HasAnnotation(name string) bool {
	return slices.Contains(p.Annotations, name)
}

// Stored reports whether the property owns per-instance storage.
func (p *Property) Stored() bool {
	return !p.IsStatic && p.Accessor != AccessorFull
}

// Clone returns a deep copy of p.
func (p *Property) Clone() *Property {
	if p == nil {
		return nil
	}
	c := *p
	c.Annotations = slices.Clone(p.Annotations)
	return &c
}

// Member is one entry of a declaration body.
type Member struct {
	Kind     MemberKind
	Name     string
	Params   int       // parameter count for methods and initializers
	Property *Property // set when Kind == MemberProperty
	Pos      Position
}

// Parent is one entry of a declaration's inheritance list.
type Parent struct {
	Name    string // type name
	PkgPath string // import path, "" for the declaring package
	Pointer bool   // embedded as *Name
}

// Invocation is a macro attached to a declaration.
type Invocation struct {
	Macro string
	Args  []string
	Pos   Position
}

// TypeDeclaration is the normalized view of one macro invocation site.
type TypeDeclaration struct {
	Name        string
	Kind        DeclKind
	Members     []Member
	Inheritance []Parent
	Invocations []Invocation

	// Output ---------------------------------------------------------------
	Package    string            // Go package name of the generated file
	PkgPath    string            // import path, may be empty for manifests
	Dir        string            // directory receiving the generated file
	OutFile    string            // generated file name inside Dir
	Imports    map[string]string // alias → import path used to render types
	EmitRecord bool              // the generator also declares the struct itself

	Pos Position
}

// Properties returns the property members in declaration order.
func (d *TypeDeclaration) Properties() []*Property {
	out := make([]*Property, 0, len(d.Members))
	for _, m := range d.Members {
		if m.Kind == MemberProperty && m.Property != nil {
			out = append(out, m.Property)
		}
	}
	return out
}

// Property returns the property called name, or nil.
func (d *TypeDeclaration) Property(name string) *Property {
	for _, p := range d.Properties() {
		if p.Name == name {
			return p
		}
	}
	return nil
}

// HasExplicitNoArgInitializer reports whether the declaration already has a
// zero-parameter initializer.
func (d *TypeDeclaration) HasExplicitNoArgInitializer() bool {
	for _, m := range d.Members {
		if m.Kind == MemberInitializer && m.Params == 0 {
			return true
		}
	}
	return false
}

// Parent returns the direct parent of a class declaration.
func (d *TypeDeclaration) Parent() (Parent, bool) {
	if d.Kind != KindClass || len(d.Inheritance) == 0 {
		return Parent{}, false
	}
	return d.Inheritance[0], true
}

// Clone returns a deep copy of d, so expansions can work on private state.
func (d *TypeDeclaration) Clone() *TypeDeclaration {
	if d == nil {
		return nil
	}
	c := *d
	c.Members = make([]Member, len(d.Members))
	for i, m := range d.Members {
		m.Property = m.Property.Clone()
		c.Members[i] = m
	}
	c.Inheritance = slices.Clone(d.Inheritance)
	c.Invocations = make([]Invocation, len(d.Invocations))
	for i, inv := range d.Invocations {
		inv.Args = slices.Clone(inv.Args)
		c.Invocations[i] = inv
	}
	if d.Imports != nil {
		c.Imports = make(map[string]string, len(d.Imports))
		for k, v := range d.Imports {
			c.Imports[k] = v
		}
	}
	return &c
}

// TypeDeclarations is an ordered set of declarations.
type TypeDeclarations []*TypeDeclaration

func (x TypeDeclarations) Find(name string) *TypeDeclaration {
	for _, d := range x {
		if d.Name == name {
			return d
		}
	}
	return nil
}

// ConstructorName returns the name of the no-argument constructor of the type
// called name: NewT for exported types, newT otherwise.
func ConstructorName(name string) string {
	if name == "" {
		return ""
	}
	r, size := utf8.DecodeRuneInString(name)
	if unicode.IsUpper(r) {
		return "New" + name
	}
	return "new" + string(unicode.ToUpper(r)) + name[size:]
}
