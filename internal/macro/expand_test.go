package macro

import (
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cmmoran/recordgen/internal/diagnostic"
	"github.com/cmmoran/recordgen/internal/model"
	"github.com/cmmoran/recordgen/pkg/parser"
)

func accountMembers() []model.Member {
	return []model.Member{
		prop("id", typed("int"), initial("0", model.ShapeInteger)),
		prop("name", typed("string"), initial(`""`, model.ShapeString)),
		prop("count", typed("int"), static()),
		prop("label", typed("string"), accessor(model.AccessorFull)),
		prop("_raw", typed("int"), initial("0", model.ShapeInteger)),
	}
}

func TestExpand_WrapInjectsStorageAnnotation(t *testing.T) {
	src := decl("Account", model.KindStruct, accountMembers(), MacroWrap)
	x := New(Config{}).Expand(src)

	require.False(t, x.Failed(), x.Diagnostics.Err())
	assert.Equal(t, map[string][]string{"id": {"Tracked"}, "name": {"Tracked"}}, x.Injected)
	assert.Equal(t, []string{"Tracked"}, x.Decl.Property("id").Annotations)
	assert.Empty(t, x.Decl.Property("count").Annotations)
	assert.Empty(t, x.Decl.Property("label").Annotations)
	assert.Empty(t, x.Decl.Property("_raw").Annotations)

	storage := derivedOf(x.Derived, model.DerivedStorage)
	require.Len(t, storage, 2)
	assert.Equal(t, "AccountIdStorage", storage[0].Name)
	assert.Equal(t, "AccountNameStorage", storage[1].Name)

	code := render(t, storage)
	assert.Contains(t, code, "func (s *AccountIdStorage) Get() int")
	assert.Contains(t, code, "func (s *AccountNameStorage) Set(v string)")
	assert.Contains(t, code, "func (s *AccountNameStorage) OnChange(fn func(prev, next string))")
	assert.Contains(t, code, "json.Marshal(s.value)")
}

func TestExpand_AnnotateKeepsArgumentOrder(t *testing.T) {
	members := []model.Member{
		prop("id", typed("int")),
		prop("name", typed("string"), annotated("Published")),
	}
	src := decl("Profile", model.KindStruct, members, "annotate Published Indexed")
	x := New(Config{}).Expand(src)

	require.False(t, x.Failed())
	assert.Equal(t, map[string][]string{
		"id":   {"Published", "Indexed"},
		"name": {"Indexed"},
	}, x.Injected)
	assert.Equal(t, []string{"Published", "Indexed"}, x.Decl.Property("name").Annotations)
	assert.Empty(t, x.Derived)
}

func TestExpand_DoesNotModifySource(t *testing.T) {
	src := decl("Account", model.KindStruct, accountMembers(), MacroWrap, MacroCodable)
	before := src.Clone()

	_ = New(Config{}).Expand(src)

	if diff := cmp.Diff(before, src); diff != "" {
		t.Fatalf("source modified (-before +after):\n%s", diff)
	}
}

func TestExpand_IsIdempotent(t *testing.T) {
	e := New(Config{})
	first := e.Expand(decl("Account", model.KindStruct, accountMembers(), MacroWrap))
	require.False(t, first.Failed())

	// expanding the result again adds nothing and derives the same code
	second := e.Expand(first.Decl)
	require.False(t, second.Failed())
	assert.Empty(t, second.Injected)
	assert.Equal(t, render(t, first.Derived), render(t, second.Derived))
}

func TestExpand_Codable(t *testing.T) {
	members := []model.Member{
		prop("id", typed("int"), initial("7", model.ShapeInteger)),
		prop("userName", typed("string"), initial(`"anon"`, model.ShapeString)),
		prop("nick", typed("*string")),
		prop("count", typed("int"), static()),
		prop("_raw", typed("int"), initial("1", model.ShapeInteger)),
	}
	x := New(Config{KeyCase: parser.KeyCaseSnake}).Expand(decl("Account", model.KindStruct, members, MacroCodable))
	require.False(t, x.Failed(), x.Diagnostics.Err())

	var kinds []model.DerivedKind
	for _, d := range x.Derived {
		kinds = append(kinds, d.Kind)
	}
	assert.Equal(t, []model.DerivedKind{
		model.DerivedKeyEnum, model.DerivedKeyEnum, model.DerivedKeyEnum,
		model.DerivedConstructor,
		model.DerivedDecoder,
		model.DerivedEncoder,
		model.DerivedConformance, model.DerivedConformance, model.DerivedConformance,
	}, kinds)

	code := render(t, x.Derived)
	assert.Contains(t, code, "type AccountCodingKey string")
	assert.Regexp(t, `AccountCodingKeyUserName\s+AccountCodingKey = "user_name"`, code)
	assert.NotContains(t, code, "AccountCodingKeyCount")
	assert.NotContains(t, code, "AccountCodingKey_raw")
	assert.Contains(t, code, "var AccountCodingKeys = []AccountCodingKey{AccountCodingKeyId, AccountCodingKeyUserName, AccountCodingKeyNick}")

	// the constructor applies every stored default, backing fields included
	assert.Contains(t, code, "func NewAccount() *Account")
	assert.Contains(t, code, "// NewAccount returns a new Account holding its declared defaults.")
	assert.Contains(t, code, "x.id = 7")
	assert.Contains(t, code, `x.userName = "anon"`)
	assert.Contains(t, code, "x._raw = 1")
	assert.NotContains(t, code, "x.count")

	assert.Contains(t, code, "def := NewAccount()")
	assert.Contains(t, code, "x.id = codec.DecodeOr(dec, AccountCodingKeyId, def.id)")
	assert.Contains(t, code, "x.nick = codec.DecodeOptional(dec, AccountCodingKeyNick, def.nick)")
	assert.Contains(t, code, "codec.Encode(enc, AccountCodingKeyUserName, x.userName)")
	assert.Contains(t, code, "codec.EncodeOptional(enc, AccountCodingKeyNick, x.nick)")
	assert.Contains(t, code, "var _ codec.Codable = (*Account)(nil)")
	assert.Contains(t, code, "func (x Account) MarshalJSON() ([]byte, error)")
	assert.Contains(t, code, "func (x *Account) UnmarshalJSON(data []byte) error")
}

func TestExpand_CodableStrict(t *testing.T) {
	members := []model.Member{prop("id", typed("int"), initial("0", model.ShapeInteger))}
	x := New(Config{Strict: true}).Expand(decl("Account", model.KindStruct, members, MacroCodable))
	require.False(t, x.Failed())

	code := render(t, derivedOf(x.Derived, model.DerivedDecoder))
	assert.Contains(t, code, "var err error")
	assert.Contains(t, code, "x.id, err = codec.DecodeOrStrict(dec, AccountCodingKeyId, def.id); err != nil")
}

func TestExpand_CodableClassDelegatesToParent(t *testing.T) {
	members := []model.Member{prop("Plan", typed("string"), initial(`"free"`, model.ShapeString))}

	t.Run("value parent", func(t *testing.T) {
		d := decl("Premium", model.KindClass, members, MacroCodable)
		d.Inheritance = []model.Parent{{Name: "Account"}}

		x := New(Config{}).Expand(d)
		require.False(t, x.Failed())
		code := render(t, x.Derived)

		assert.Contains(t, code, "x := &Premium{Account: *NewAccount()}")
		assert.Contains(t, code, "if err := x.Account.DecodeFrom(dec); err != nil")
		assert.Contains(t, code, "if err := x.Account.EncodeTo(enc); err != nil")
		assert.NotContains(t, code, "x.Account == nil")
	})

	t.Run("pointer parent in another package", func(t *testing.T) {
		d := decl("Premium", model.KindClass, members, MacroCodable)
		d.Inheritance = []model.Parent{{Name: "Account", PkgPath: "example.com/base", Pointer: true}}

		x := New(Config{}).Expand(d)
		require.False(t, x.Failed())
		code := render(t, x.Derived)

		assert.Contains(t, code, "x := &Premium{Account: base.NewAccount()}")
		assert.Contains(t, code, "if x.Account == nil {")
		assert.Contains(t, code, "x.Account = base.NewAccount()")
		assert.Contains(t, code, "if x.Account != nil {")
	})
}

func TestExpand_ExplicitInitializerSuppressesConstructor(t *testing.T) {
	members := []model.Member{
		prop("id", typed("int")),
		{Kind: model.MemberInitializer, Name: "NewAccount"},
	}
	x := New(Config{}).Expand(decl("Account", model.KindStruct, members, MacroCodable))
	require.False(t, x.Failed())
	assert.Empty(t, derivedOf(x.Derived, model.DerivedConstructor))
	assert.Contains(t, render(t, x.Derived), "def := NewAccount()")
}

func TestExpand_WrappedMembersSerializeThroughTheirWrapper(t *testing.T) {
	members := []model.Member{
		prop("id", typed("int")),
		prop("name", typed("string"), annotated("Tracked")),
		prop("ref", typed("AccountRefStorage"), initial(`"r"`, model.ShapeString), annotated("Tracked")),
	}
	x := New(Config{}).Expand(decl("Account", model.KindStruct, members, MacroCodable, MacroKeys))
	require.False(t, x.Failed(), x.Diagnostics.Err())

	code := render(t, x.Derived)
	// a tracked field keeping its own type serializes like any other field
	assert.Contains(t, code, "x.name = codec.DecodeOr(dec, AccountCodingKeyName, def.name)")
	assert.Regexp(t, `Field:\s+"name"`, code)

	// a field declared with its wrapper stores the value inside it
	assert.Contains(t, code, "x.ref.value = codec.DecodeOr(dec, AccountCodingKeyRef, def.ref.value)")
	assert.Contains(t, code, "codec.Encode(enc, AccountCodingKeyRef, x.ref)")
	assert.Contains(t, code, `x.ref.Set("r")`)
	assert.NotRegexp(t, `Field:\s+"ref"`, code)

	storage := derivedOf(x.Derived, model.DerivedStorage)
	require.Len(t, storage, 2)
	assert.Contains(t, render(t, storage), "func (s *AccountRefStorage) Get() string")
}

func TestExpand_OnlyTheFirstEmbeddedFieldIsTheParent(t *testing.T) {
	members := []model.Member{prop("Name", typed("string"))}
	d := decl("Guarded", model.KindClass, members, MacroCodable)
	d.Inheritance = []model.Parent{{Name: "Base"}, {Name: "Mutex", PkgPath: "sync"}}

	x := New(Config{}).Expand(d)
	require.False(t, x.Failed(), x.Diagnostics.Err())
	code := render(t, x.Derived)

	assert.Contains(t, code, "x := &Guarded{Base: *NewBase()}")
	assert.Contains(t, code, "x.Base.DecodeFrom(dec)")
	assert.Contains(t, code, "x.Base.EncodeTo(enc)")
	assert.NotContains(t, code, "NewMutex")
	assert.NotContains(t, code, "x.Mutex")
}

func TestExpand_NameCollision(t *testing.T) {
	tests := []struct {
		name    string
		members []model.Member
		member  string
		message string
	}{
		{
			name:    "key constant",
			members: []model.Member{prop("id", typed("int")), prop("Id", typed("int"), key("other"))},
			member:  "Id",
			message: `identifier "AccountCodingKeyId"`,
		},
		{
			name:    "serialized key",
			members: []model.Member{prop("id", typed("int")), prop("ref", typed("string"), key("id"))},
			member:  "ref",
			message: `key "id"`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			x := New(Config{}).Expand(decl("Account", model.KindStruct, tt.members, MacroCodable))

			require.True(t, x.Failed())
			require.Len(t, x.Diagnostics.Errors, 1)
			diag := x.Diagnostics.Errors[0]
			assert.Equal(t, diagnostic.CodeNameCollision, diag.Code)
			assert.Equal(t, tt.member, diag.Member)
			assert.Contains(t, diag.Message, tt.message)
			assert.Empty(t, x.Derived)
		})
	}

	t.Run("storage wrapper", func(t *testing.T) {
		members := []model.Member{prop("id", typed("int")), prop("Id", typed("int"))}
		x := New(Config{}).Expand(decl("Account", model.KindStruct, members, MacroWrap))
		require.True(t, x.Failed())
		assert.Equal(t, diagnostic.CodeNameCollision, x.Diagnostics.Errors[0].Code)
	})
}

func TestExpand_KeyTable(t *testing.T) {
	members := []model.Member{
		prop("createdAt", typed("time.Time")),
		prop("ref", typed("string"), key("reference")),
	}
	x := New(Config{KeyCase: parser.KeyCaseKebab}).Expand(decl("Event", model.KindStruct, members, MacroKeys))
	require.False(t, x.Failed())
	require.Len(t, x.Derived, 1)
	assert.Equal(t, "EventKeyPaths", x.Derived[0].Name)

	code := x.Derived[0].GoString()
	assert.Contains(t, code, "var EventKeyPaths = []codec.KeyPath{")
	assert.Regexp(t, `Key:\s+"created-at"`, code)
	assert.Regexp(t, `Key:\s+"reference"`, code)
}

func TestExpand_Misuse(t *testing.T) {
	src := decl("Shape", model.KindInterface, []model.Member{prop("id", typed("int"))}, MacroWrap, MacroCodable)
	x := New(Config{}).Expand(src)

	require.True(t, x.Failed())
	require.Len(t, x.Diagnostics.Errors, 2)
	for _, d := range x.Diagnostics.Errors {
		assert.Equal(t, diagnostic.CodeMisuse, d.Code)
		assert.Equal(t, "Shape", d.Decl)
		assert.Contains(t, d.Hints, "attach the macro to a struct type")
	}
	assert.Empty(t, x.Injected)
	assert.Empty(t, x.Derived)
	assert.Empty(t, x.Decl.Property("id").Annotations)
}

func TestExpand_AmbiguousTypeAbandonsDeclaration(t *testing.T) {
	members := []model.Member{
		prop("id", initial("0", model.ShapeInteger)),
		prop("tags", initial(`[]string{"a"}`, model.ShapeArray)),
	}
	x := New(Config{}).Expand(decl("Post", model.KindStruct, members, MacroWrap, MacroCodable))

	require.True(t, x.Failed())
	require.Len(t, x.Diagnostics.Errors, 1)
	diag := x.Diagnostics.Errors[0]
	assert.Equal(t, diagnostic.CodeAmbiguousType, diag.Code)
	assert.Equal(t, "tags", diag.Member)
	assert.Contains(t, diag.Message, "arrayLiteral")

	assert.Empty(t, x.Derived)
	assert.Empty(t, x.Injected)
	assert.Empty(t, x.Decl.Property("id").Annotations)
}

func TestExpand_InvocationErrors(t *testing.T) {
	members := []model.Member{prop("id", typed("int"))}

	x := New(Config{}).Expand(decl("Account", model.KindStruct, members, "frobnicate"))
	require.True(t, x.Failed())
	assert.Equal(t, diagnostic.CodeUnknownMacro, x.Diagnostics.Errors[0].Code)

	x = New(Config{}).Expand(decl("Account", model.KindStruct, members, MacroAnnotate, MacroWrap))
	require.True(t, x.Failed())
	assert.Equal(t, diagnostic.CodeMissingArguments, x.Diagnostics.Errors[0].Code)
	assert.Empty(t, x.Injected)

	x = New(Config{}).Expand(decl("Account", model.KindStruct, members, "codable extra"))
	require.False(t, x.Failed())
	require.Len(t, x.Diagnostics.Warnings, 1)
	assert.Equal(t, diagnostic.CodeExtraArguments, x.Diagnostics.Warnings[0].Code)
}

func TestExpand_InferredTypes(t *testing.T) {
	members := []model.Member{
		prop("count", initial("0", model.ShapeInteger)),
		prop("seen", initial("time.Now()", model.ShapeConstructor)),
	}
	d := decl("Visit", model.KindStruct, members, MacroWrap)
	x := New(Config{}).Expand(d)
	require.False(t, x.Failed(), x.Diagnostics.Err())

	code := render(t, x.Derived)
	assert.Contains(t, code, "func (s *VisitCountStorage) Get() int")
	assert.Contains(t, code, "func (s *VisitSeenStorage) Get() time.Time")
}

func TestExpand_Record(t *testing.T) {
	members := []model.Member{
		prop("ID", initial("0", model.ShapeInteger)),
		prop("Name", typed("string"), initial(`"anon"`, model.ShapeString), annotated("Tracked")),
		prop("Total", typed("int"), static()),
	}
	d := decl("Account", model.KindClass, members, MacroCodable)
	d.Inheritance = []model.Parent{{Name: "Entity"}}
	d.EmitRecord = true
	d.Pos.File = "/srv/app/models.yaml"

	x := New(Config{}).Expand(d)
	require.False(t, x.Failed(), x.Diagnostics.Err())
	require.Equal(t, model.DerivedRecord, x.Derived[0].Kind)

	code := render(t, x.Derived)
	assert.Contains(t, code, "// Account is declared in models.yaml.")
	assert.Regexp(t, `Name\s+AccountNameStorage`, code)
	assert.Regexp(t, `ID\s+int`, code)
	assert.NotRegexp(t, `Total\s+int`, code)
	assert.Contains(t, code, `x.Name.Set("anon")`)
	assert.Contains(t, code, "x.ID = 0")

	// wrapped record fields stay in the codec
	assert.Contains(t, code, "var AccountCodingKeys = []AccountCodingKey{AccountCodingKeyID, AccountCodingKeyName}")
	assert.Contains(t, code, "x.Name.value = codec.DecodeOr(dec, AccountCodingKeyName, def.Name.value)")
	assert.Contains(t, code, "codec.Encode(enc, AccountCodingKeyName, x.Name)")
}

func TestEngine_ConcurrentExpansions(t *testing.T) {
	e := New(Config{})
	src := decl("Account", model.KindStruct, accountMembers(), MacroWrap, MacroCodable, MacroKeys)
	want := render(t, e.Expand(src).Derived)

	var wg sync.WaitGroup
	results := make([]string, 16)
	for i := range results {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results[i] = render(t, e.Expand(src).Derived)
		}()
	}
	wg.Wait()

	for _, got := range results {
		assert.Equal(t, want, got)
	}
}

func TestInject_SkipsSynthesis(t *testing.T) {
	src := decl("Account", model.KindStruct, accountMembers(), MacroWrap, MacroCodable, MacroKeys)
	x := New(Config{StorageAnnotation: "Observed"}).Inject(src)

	require.False(t, x.Failed())
	assert.Equal(t, map[string][]string{"id": {"Observed"}, "name": {"Observed"}}, x.Injected)
	assert.Empty(t, x.Derived)

	bad := New(Config{}).Inject(decl("Account", model.KindStruct, accountMembers(), "annotate"))
	require.True(t, bad.Failed())
	assert.Equal(t, diagnostic.CodeMissingArguments, bad.Diagnostics.Errors[0].Code)
	assert.Empty(t, bad.Injected)
}
