package macro

import (
	"strings"

	"github.com/cmmoran/recordgen/internal/model"
)

// Inferred types of literal and constructor initializers.
const (
	TypeInt     = "int"
	TypeFloat   = "float64"
	TypeBool    = "bool"
	TypeString  = "string"
	TypeTime    = model.TypeTime
	TypeUUID    = model.TypeUUID
	TypeByteBuf = model.TypeByteBuf
)

// Infer returns the type of p: its declared type when present, otherwise the
// type implied by its initializer. Failures are *AmbiguousTypeError.
func Infer(p *model.Property) (string, error) {
	if t := strings.TrimSpace(p.DeclaredType); t != "" {
		return t, nil
	}
	if !p.HasInitializer {
		return "", newAmbiguousTypeError(p, ReasonMissingInitializer)
	}

	switch p.Shape {
	case model.ShapeInteger:
		return TypeInt, nil
	case model.ShapeFloat:
		return TypeFloat, nil
	case model.ShapeBool:
		return TypeBool, nil
	case model.ShapeString:
		return TypeString, nil
	case model.ShapeArray:
		return "", newAmbiguousTypeError(p, ReasonArrayLiteral)
	case model.ShapeDictionary:
		return "", newAmbiguousTypeError(p, ReasonDictionaryLiteral)
	case model.ShapeConstructor:
		if c, ok := model.Constructors[p.Constructor]; ok {
			return c.Type, nil
		}
	}

	return "", newAmbiguousTypeError(p, ReasonUnrecognizedExpression)
}

// IsOptional reports whether values of typ may be absent (pointer types).
func IsOptional(typ string) bool {
	return strings.HasPrefix(strings.TrimSpace(typ), "*")
}
