package parser

import (
	"bytes"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/pelletier/go-toml/v2"
	"golang.org/x/mod/module"
	"gopkg.in/yaml.v3"

	"github.com/cmmoran/recordgen/internal/model"
)

// Manifest declares records without Go source. The generator emits the
// record struct itself next to the derived members.
//
//	package: models
//	output: ./models
//	imports:
//	  uuid: github.com/google/uuid
//	declarations:
//	  - name: Account
//	    inherits: [Entity]
//	    derive: [wrap, codable]
//	    members:
//	      - {name: id, default: "0"}
//	      - {name: nick, type: "*string"}
type Manifest struct {
	Package      string            `yaml:"package" toml:"package"`
	Output       string            `yaml:"output,omitempty" toml:"output,omitempty"`
	Imports      map[string]string `yaml:"imports,omitempty" toml:"imports,omitempty"`
	Declarations []ManifestDecl    `yaml:"declarations" toml:"declarations"`

	path string
}

// ManifestDecl is one declaration of a manifest.
type ManifestDecl struct {
	Name     string           `yaml:"name" toml:"name"`
	Kind     string           `yaml:"kind,omitempty" toml:"kind,omitempty"`
	Inherits []string         `yaml:"inherits,omitempty" toml:"inherits,omitempty"`
	Derive   []string         `yaml:"derive,omitempty" toml:"derive,omitempty"`
	Members  []ManifestMember `yaml:"members,omitempty" toml:"members,omitempty"`

	Line   int `yaml:"-" toml:"-"`
	Column int `yaml:"-" toml:"-"`
}

// ManifestMember is one member of a manifest declaration. Kind is property
// (default), method, init or type.
type ManifestMember struct {
	Name        string   `yaml:"name" toml:"name"`
	Kind        string   `yaml:"kind,omitempty" toml:"kind,omitempty"`
	Type        string   `yaml:"type,omitempty" toml:"type,omitempty"`
	Default     string   `yaml:"default,omitempty" toml:"default,omitempty"`
	Static      bool     `yaml:"static,omitempty" toml:"static,omitempty"`
	Accessors   []string `yaml:"accessors,omitempty" toml:"accessors,omitempty"`
	Annotations []string `yaml:"annotations,omitempty" toml:"annotations,omitempty"`
	Key         string   `yaml:"key,omitempty" toml:"key,omitempty"`
	Params      int      `yaml:"params,omitempty" toml:"params,omitempty"`

	Line   int `yaml:"-" toml:"-"`
	Column int `yaml:"-" toml:"-"`
}

func (d *ManifestDecl) UnmarshalYAML(node *yaml.Node) error {
	type plain ManifestDecl
	if err := node.Decode((*plain)(d)); err != nil {
		return err
	}
	d.Line, d.Column = node.Line, node.Column
	return nil
}

func (m *ManifestMember) UnmarshalYAML(node *yaml.Node) error {
	type plain ManifestMember
	if err := node.Decode((*plain)(m)); err != nil {
		return err
	}
	m.Line, m.Column = node.Line, node.Column
	return nil
}

// LoadManifest reads a YAML (.yaml, .yml) or TOML (.toml) manifest.
func LoadManifest(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "read manifest %s", path)
	}

	m := &Manifest{path: path}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		err = dec.Decode(m)
	case ".toml":
		dec := toml.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		err = dec.Decode(m)
	default:
		return nil, errors.WithHint(
			errors.Newf("unsupported manifest %s", path),
			"use a .yaml, .yml or .toml file",
		)
	}
	if err != nil {
		return nil, errors.Wrapf(err, "decode manifest %s", path)
	}

	if err := m.validate(); err != nil {
		return nil, err
	}
	return m, nil
}

func (m *Manifest) validate() error {
	if m.Package == "" {
		return errors.WithHint(errors.Newf("manifest %s declares no package", m.path), "add package: <name>")
	}
	for alias, p := range m.Imports {
		if err := module.CheckImportPath(p); err != nil {
			return errors.Wrapf(err, "manifest %s: import %s", m.path, alias)
		}
	}
	seen := map[string]bool{}
	for _, d := range m.Declarations {
		if d.Name == "" {
			return errors.Newf("%s:%d: declaration without a name", m.path, d.Line)
		}
		if seen[d.Name] {
			return errors.Newf("%s:%d: %s declared twice", m.path, d.Line, d.Name)
		}
		seen[d.Name] = true
	}
	return nil
}

// Path returns the file the manifest was read from.
func (m *Manifest) Path() string { return m.path }

// OutDir returns the directory receiving the generated file.
func (m *Manifest) OutDir() string {
	dir := filepath.Dir(m.path)
	if m.Output == "" {
		return dir
	}
	if filepath.IsAbs(m.Output) {
		return m.Output
	}
	return filepath.Join(dir, m.Output)
}

// OutFile returns the generated file name, <manifest>_gen.go.
func (m *Manifest) OutFile() string {
	base := filepath.Base(m.path)
	return strings.TrimSuffix(base, filepath.Ext(base)) + "_gen.go"
}

// TypeDeclarations normalizes the manifest. Derive entries are parsed like
// directives without their //<prefix>: head.
func (m *Manifest) TypeDeclarations(prefix string) (model.TypeDeclarations, error) {
	out := make(model.TypeDeclarations, 0, len(m.Declarations))
	for _, md := range m.Declarations {
		d, err := m.declaration(md, prefix)
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, nil
}

func (m *Manifest) declaration(md ManifestDecl, prefix string) (*model.TypeDeclaration, error) {
	pos := model.Position{File: m.path, Line: md.Line, Column: md.Column}

	kind := model.ParseDeclKind(md.Kind)
	if kind == model.KindInvalid {
		return nil, errors.WithHint(
			errors.Newf("%s: %s has unknown kind %q", pos, md.Name, md.Kind),
			"use struct, class, interface, func, named, alias or value",
		)
	}
	if kind == model.KindStruct && len(md.Inherits) > 0 {
		kind = model.KindClass
	}

	d := &model.TypeDeclaration{
		Name:       md.Name,
		Kind:       kind,
		Package:    m.Package,
		Dir:        m.OutDir(),
		OutFile:    m.OutFile(),
		Imports:    m.Imports,
		EmitRecord: kind.Record(),
		Pos:        pos,
	}

	for _, parent := range md.Inherits {
		d.Inheritance = append(d.Inheritance, m.parent(parent))
	}

	for _, entry := range md.Derive {
		inv, _, err := parseInvocation(strings.TrimPrefix(entry, "//"+prefix+":"))
		if err != nil {
			return nil, errors.Wrapf(err, "%s: %s", pos, md.Name)
		}
		inv.Pos = pos
		d.Invocations = append(d.Invocations, inv)
	}

	for _, mm := range md.Members {
		member, err := m.member(mm)
		if err != nil {
			return nil, err
		}
		d.Members = append(d.Members, member)
	}
	return d, nil
}

// parent resolves "Name", "*Name" or "alias.Name" against the manifest imports.
func (m *Manifest) parent(s string) model.Parent {
	var p model.Parent
	s, p.Pointer = strings.CutPrefix(strings.TrimSpace(s), "*")
	if alias, name, ok := strings.Cut(s, "."); ok {
		p.PkgPath = m.Imports[alias]
		if p.PkgPath == "" {
			p.PkgPath = alias
		}
		s = name
	}
	p.Name = s
	return p
}

func (m *Manifest) member(mm ManifestMember) (model.Member, error) {
	pos := model.Position{File: m.path, Line: mm.Line, Column: mm.Column}
	member := model.Member{Name: mm.Name, Params: mm.Params, Pos: pos}

	switch mm.Kind {
	case "", "property", "var", "let":
	case "method", "func":
		member.Kind = model.MemberMethod
		return member, nil
	case "init", "initializer":
		member.Kind = model.MemberInitializer
		return member, nil
	case "type":
		member.Kind = model.MemberNestedType
		return member, nil
	default:
		return model.Member{}, errors.Newf("%s: member %s has unknown kind %q", pos, mm.Name, mm.Kind)
	}

	prop := &model.Property{
		Name:         mm.Name,
		DeclaredType: strings.TrimSpace(mm.Type),
		IsStatic:     mm.Static,
		Accessor:     ClassifyAccessors(mm.Accessors),
		Annotations:  slices.Clone(mm.Annotations),
		Key:          mm.Key,
		Pos:          pos,
	}
	if def := strings.TrimSpace(mm.Default); def != "" {
		prop.Initializer = def
		prop.HasInitializer = true
		prop.Shape, prop.Constructor = ClassifyInitializer(def)
	}
	member.Property = prop
	return member, nil
}

// ClassifyAccessors maps an accessor list onto an AccessorKind: no accessors
// is a plain stored property, willSet/didSet only is observed storage, and
// anything else (get, set, ...) is computed.
func ClassifyAccessors(accessors []string) model.AccessorKind {
	if len(accessors) == 0 {
		return model.AccessorNone
	}
	for _, a := range accessors {
		switch strings.TrimSpace(a) {
		case "willSet", "didSet":
		default:
			return model.AccessorFull
		}
	}
	return model.AccessorObservers
}
