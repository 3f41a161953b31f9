package generator

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cmmoran/recordgen/internal/diagnostic"
	"github.com/cmmoran/recordgen/internal/model"
	options "github.com/cmmoran/recordgen/pkg/parser"
)

func property(name, typ, init string, shape model.InitShape) model.Member {
	return model.Member{
		Kind: model.MemberProperty,
		Name: name,
		Property: &model.Property{
			Name:           name,
			DeclaredType:   typ,
			Initializer:    init,
			HasInitializer: init != "",
			Shape:          shape,
		},
	}
}

func declaration(dir, name string, kind model.DeclKind, macros ...string) *model.TypeDeclaration {
	d := &model.TypeDeclaration{
		Name: name,
		Kind: kind,
		Members: []model.Member{
			property("ID", "int", "", model.ShapeNone),
			property("Name", "", `"anon"`, model.ShapeString),
		},
		Package: "models",
		PkgPath: "example.com/app/models",
		Dir:     dir,
		OutFile: "derive_gen.go",
		Pos:     model.Position{File: filepath.Join(dir, "models.go"), Line: 4, Column: 6},
	}
	for _, m := range macros {
		d.Invocations = append(d.Invocations, model.Invocation{Macro: m, Pos: d.Pos})
	}
	return d
}

func newGenerator(t *testing.T) *Generator {
	t.Helper()
	opts, err := options.Build(options.WithConcurrency(2))
	require.NoError(t, err)
	return New(opts)
}

func writeGoMod(t *testing.T, dir, body string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "go.mod"), []byte(body), 0o644))
}

func TestGenerate_GroupsByOutputFile(t *testing.T) {
	dir := t.TempDir()
	writeGoMod(t, dir, "module example.com/app\n\ngo 1.24\n\nrequire github.com/cmmoran/recordgen v0.1.0\n")

	other := filepath.Join(dir, "other")
	decls := model.TypeDeclarations{
		declaration(dir, "Account", model.KindStruct, "codable"),
		declaration(dir, "Profile", model.KindStruct, "keys"),
		declaration(other, "Event", model.KindStruct, "codable"),
		declaration(dir, "Plain", model.KindStruct),
	}

	res, err := newGenerator(t).Generate(context.Background(), decls)
	require.NoError(t, err)
	assert.False(t, res.Diagnostics.HasErrors())
	assert.Empty(t, res.Diagnostics.Warnings)
	require.Len(t, res.Expansions, 4)

	require.Len(t, res.Files, 2)
	assert.Equal(t, filepath.Join(dir, "derive_gen.go"), res.Files[0].Path)
	assert.Equal(t, []string{"Account", "Profile"}, res.Files[0].Decls)
	assert.Equal(t, filepath.Join(other, "derive_gen.go"), res.Files[1].Path)
	assert.Equal(t, []string{"Event"}, res.Files[1].Decls)

	src := string(res.Files[0].Content)
	assert.Contains(t, src, "// "+Header)
	assert.Contains(t, src, "package models")
	assert.Contains(t, src, `"github.com/cmmoran/recordgen/pkg/codec"`)
	assert.Contains(t, src, "func NewAccount() *Account")
	assert.Contains(t, src, "func (x *Account) DecodeFrom(dec codec.Decoder) error")
	assert.Contains(t, src, "var ProfileKeyPaths = ")
	assert.NotContains(t, src, "Plain")
}

func TestGenerate_FailedDeclarationIsIsolated(t *testing.T) {
	dir := t.TempDir()
	bad := declaration(dir, "Broken", model.KindStruct, "codable")
	bad.Members = append(bad.Members, property("Tags", "", "[]", model.ShapeArray))

	res, err := newGenerator(t).Generate(context.Background(), model.TypeDeclarations{
		bad,
		declaration(dir, "Account", model.KindStruct, "codable"),
	})
	require.NoError(t, err)

	require.Len(t, res.Diagnostics.Errors, 1)
	assert.Equal(t, diagnostic.CodeAmbiguousType, res.Diagnostics.Errors[0].Code)
	assert.Equal(t, "Broken", res.Diagnostics.Errors[0].Decl)

	require.Len(t, res.Files, 1)
	assert.Equal(t, []string{"Account"}, res.Files[0].Decls)
	assert.NotContains(t, string(res.Files[0].Content), "Broken")
}

func TestGenerate_ModuleWarning(t *testing.T) {
	dir := t.TempDir()
	writeGoMod(t, dir, "module example.com/app\n\ngo 1.24\n")

	res, err := newGenerator(t).Generate(context.Background(), model.TypeDeclarations{
		declaration(dir, "Account", model.KindStruct, "codable"),
		declaration(dir, "Profile", model.KindStruct, "codable"),
	})
	require.NoError(t, err)

	require.Len(t, res.Diagnostics.Warnings, 1, "one warning per module directory")
	w := res.Diagnostics.Warnings[0]
	assert.Equal(t, diagnostic.CodeModule, w.Code)
	assert.Contains(t, w.Message, "example.com/app")
	assert.Equal(t, []string{"run: go get " + RuntimeModule}, w.Hints)
}

func TestGenerate_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := newGenerator(t).Generate(ctx, model.TypeDeclarations{
		declaration(t.TempDir(), "Account", model.KindStruct, "codable"),
	})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestWriteFiles(t *testing.T) {
	dir := t.TempDir()
	files := []File{
		{Path: filepath.Join(dir, "a", "derive_gen.go"), Content: []byte("package a\n")},
		{Path: filepath.Join(dir, "b", "derive_gen.go"), Content: []byte("package b\n")},
	}

	written, err := WriteFiles(files)
	require.NoError(t, err)
	assert.Equal(t, []string{files[0].Path, files[1].Path}, written)

	got, err := os.ReadFile(files[1].Path)
	require.NoError(t, err)
	assert.Equal(t, "package b\n", string(got))

	files[1].Content = []byte("package b\n\nvar X = 1\n")
	written, err = WriteFiles(files)
	require.NoError(t, err)
	assert.Equal(t, []string{files[1].Path}, written, "unchanged files are skipped")
}
