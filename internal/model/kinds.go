package model

// DeclKind is the syntactic kind of a declaration a macro was attached to.
type DeclKind int

const (
	KindInvalid   DeclKind = iota
	KindStruct             // struct without a parent
	KindClass              // struct embedding a parent type
	KindInterface          // type X interface{...}
	KindFunc               // func X(...)
	KindNamed              // type X int, type X []T, ...
	KindAlias              // type X = Y
	KindValue              // var / const
)

func (k DeclKind) String() string {
	switch k {
	case KindStruct:
		return "struct"
	case KindClass:
		return "class"
	case KindInterface:
		return "interface"
	case KindFunc:
		return "func"
	case KindNamed:
		return "named type"
	case KindAlias:
		return "alias"
	case KindValue:
		return "value"
	default:
		return "invalid"
	}
}

// ParseDeclKind maps a manifest kind string onto a DeclKind.
func ParseDeclKind(s string) DeclKind {
	switch s {
	case "", "struct":
		return KindStruct
	case "class":
		return KindClass
	case "interface", "protocol":
		return KindInterface
	case "func", "function":
		return KindFunc
	case "enum", "named":
		return KindNamed
	case "alias":
		return KindAlias
	case "var", "const", "value":
		return KindValue
	default:
		return KindInvalid
	}
}

// Record reports whether the kind can host derived members.
func (k DeclKind) Record() bool {
	return k == KindStruct || k == KindClass
}

// AccessorKind classifies the accessor block of a property.
type AccessorKind int

const (
	AccessorNone      AccessorKind = iota // plain stored property
	AccessorObservers                     // willSet/didSet hooks only, still stored
	AccessorFull                          // custom get/set, computed
)

func (a AccessorKind) String() string {
	switch a {
	case AccessorObservers:
		return "observers"
	case AccessorFull:
		return "full"
	default:
		return "none"
	}
}

// InitShape is the syntactic shape of a property initializer.
type InitShape int

const (
	ShapeNone InitShape = iota
	ShapeInteger
	ShapeFloat
	ShapeBool
	ShapeString
	ShapeArray
	ShapeDictionary
	ShapeConstructor
	ShapeUnknown
)

func (s InitShape) String() string {
	switch s {
	case ShapeInteger:
		return "integerLiteral"
	case ShapeFloat:
		return "floatLiteral"
	case ShapeBool:
		return "boolLiteral"
	case ShapeString:
		return "stringLiteral"
	case ShapeArray:
		return "arrayLiteral"
	case ShapeDictionary:
		return "dictionaryLiteral"
	case ShapeConstructor:
		return "knownConstructorCall"
	case ShapeUnknown:
		return "unknown"
	default:
		return "none"
	}
}

// MemberKind distinguishes properties from the other members of a declaration.
type MemberKind int

const (
	MemberProperty MemberKind = iota
	MemberMethod
	MemberInitializer
	MemberNestedType
)

func (m MemberKind) String() string {
	switch m {
	case MemberMethod:
		return "method"
	case MemberInitializer:
		return "initializer"
	case MemberNestedType:
		return "type"
	default:
		return "property"
	}
}
