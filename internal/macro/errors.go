package macro

import (
	"fmt"

	"github.com/cockroachdb/errors"

	"github.com/cmmoran/recordgen/internal/diagnostic"
	"github.com/cmmoran/recordgen/internal/model"
)

// Reason tags why a property type could not be inferred.
type Reason string

const (
	ReasonArrayLiteral           Reason = "arrayLiteral"
	ReasonDictionaryLiteral      Reason = "dictionaryLiteral"
	ReasonUnrecognizedExpression Reason = "unrecognizedExpression"
	ReasonMissingInitializer     Reason = "missingInitializer"
)

// MisuseError reports a macro attached to a declaration that is not a
// struct or class.
type MisuseError struct {
	Macro string
	Decl  string
	Kind  model.DeclKind
	Pos   model.Position
}

func (e *MisuseError) Error() string {
	return fmt.Sprintf("%s can only be attached to a struct or class, %s is a %s", e.Macro, e.Decl, e.Kind)
}

// AmbiguousTypeError reports a property whose type cannot be inferred.
type AmbiguousTypeError struct {
	Property string
	Reason   Reason
	Pos      model.Position
}

func (e *AmbiguousTypeError) Error() string {
	switch e.Reason {
	case ReasonMissingInitializer:
		return fmt.Sprintf("property %s has neither a type nor an initializer", e.Property)
	case ReasonArrayLiteral, ReasonDictionaryLiteral:
		return fmt.Sprintf("cannot infer the type of %s from a %s", e.Property, e.Reason)
	default:
		return fmt.Sprintf("cannot infer the type of %s from its initializer (%s)", e.Property, e.Reason)
	}
}

// Collision tells what two properties of a declaration would share.
type Collision string

const (
	CollisionIdentifier Collision = "identifier"
	CollisionKey        Collision = "key"
)

// NameCollisionError reports two properties that map onto the same generated
// identifier or serialized key.
type NameCollisionError struct {
	Kind     Collision
	Name     string
	Property string
	Other    string
	Pos      model.Position
}

func (e *NameCollisionError) Error() string {
	return fmt.Sprintf("properties %s and %s both produce %s %q", e.Other, e.Property, e.Kind, e.Name)
}

// claim records name for p, failing when another property already owns it.
func claim(seen map[string]string, name string, p *model.Property, kind Collision) error {
	if other, ok := seen[name]; ok && other != p.Name {
		return errors.WithHintf(
			&NameCollisionError{Kind: kind, Name: name, Property: p.Name, Other: other, Pos: p.Pos},
			"rename %s or give it an explicit key", p.Name,
		)
	}
	seen[name] = p.Name
	return nil
}

func newMisuseError(macro string, d *model.TypeDeclaration, pos model.Position) error {
	return errors.WithHint(
		&MisuseError{Macro: macro, Decl: d.Name, Kind: d.Kind, Pos: pos},
		"attach the macro to a struct type",
	)
}

func newAmbiguousTypeError(p *model.Property, reason Reason) error {
	return errors.WithHintf(
		&AmbiguousTypeError{Property: p.Name, Reason: reason, Pos: p.Pos},
		"add an explicit type to %s", p.Name,
	)
}

// IsMisuse reports whether err is or wraps a MisuseError.
func IsMisuse(err error) bool {
	var m *MisuseError
	return errors.As(err, &m)
}

// IsAmbiguousType reports whether err is or wraps an AmbiguousTypeError.
func IsAmbiguousType(err error) bool {
	var a *AmbiguousTypeError
	return errors.As(err, &a)
}

// ToDiagnostic converts an expansion error into a located diagnostic.
func ToDiagnostic(err error, d *model.TypeDeclaration) diagnostic.Diagnostic {
	diag := diagnostic.Diagnostic{
		Severity: diagnostic.SeverityError,
		Code:     diagnostic.CodeInternal,
		Message:  err.Error(),
		Decl:     d.Name,
		Pos:      d.Pos,
		Hints:    errors.GetAllHints(err),
	}

	var (
		misuse    *MisuseError
		ambiguous *AmbiguousTypeError
		collision *NameCollisionError
	)
	switch {
	case errors.As(err, &misuse):
		diag.Code = diagnostic.CodeMisuse
		diag.Message = misuse.Error()
		if misuse.Pos.File != "" {
			diag.Pos = misuse.Pos
		}
	case errors.As(err, &ambiguous):
		diag.Code = diagnostic.CodeAmbiguousType
		diag.Message = ambiguous.Error()
		diag.Member = ambiguous.Property
		if ambiguous.Pos.File != "" {
			diag.Pos = ambiguous.Pos
		}
	case errors.As(err, &collision):
		diag.Code = diagnostic.CodeNameCollision
		diag.Message = collision.Error()
		diag.Member = collision.Property
		if collision.Pos.File != "" {
			diag.Pos = collision.Pos
		}
	case errors.Is(err, ErrInvalidExpression):
		diag.Code = diagnostic.CodeInvalidExpr
	}

	return diag
}
