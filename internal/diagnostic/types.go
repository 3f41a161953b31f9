package diagnostic

import (
	"fmt"
	"strings"

	"github.com/cockroachdb/errors"

	"github.com/cmmoran/recordgen/internal/model"
)

// Diagnostic codes reported by the expansion engine.
const (
	CodeMisuse           = "misuse"
	CodeAmbiguousType    = "ambiguous-type"
	CodeUnknownMacro     = "unknown-macro"
	CodeMissingArguments = "missing-arguments"
	CodeExtraArguments   = "extra-arguments"
	CodeInvalidExpr      = "invalid-expression"
	CodeNameCollision    = "name-collision"
	CodeInternal         = "internal"
	CodeModule           = "module"
)

// Diagnostics holds all diagnostics of one or more expansions.
type Diagnostics struct {
	Errors   []Diagnostic
	Warnings []Diagnostic
	Infos    []Diagnostic
}

// Diagnostic is a single location-attached message.
type Diagnostic struct {
	// Severity of the diagnostic.
	Severity Severity
	// Code is a stable identifier for this kind of diagnostic.
	Code string
	// Message is the human-readable description.
	Message string
	// Decl is the declaration being expanded (if any).
	Decl string
	// Member is the member concerned (if any).
	Member string
	// Pos is the source location.
	Pos model.Position
	// Hints are actionable fixes.
	Hints []string
}

// Severity represents the severity level of a diagnostic.
type Severity int

const (
	SeverityInfo Severity = iota
	SeverityWarning
	SeverityError
)

func (s Severity) String() string {
	switch s {
	case SeverityInfo:
		return "info"
	case SeverityWarning:
		return "warning"
	case SeverityError:
		return "error"
	default:
		return "unknown"
	}
}

// Add appends d to the bucket of its severity.
func (d *Diagnostics) Add(diag Diagnostic) {
	switch diag.Severity {
	case SeverityError:
		d.Errors = append(d.Errors, diag)
	case SeverityWarning:
		d.Warnings = append(d.Warnings, diag)
	default:
		d.Infos = append(d.Infos, diag)
	}
}

// AddError adds an error diagnostic.
func (d *Diagnostics) AddError(code, message, decl, member string, pos model.Position) {
	d.Add(Diagnostic{Severity: SeverityError, Code: code, Message: message, Decl: decl, Member: member, Pos: pos})
}

// AddWarning adds a warning diagnostic.
func (d *Diagnostics) AddWarning(code, message, decl, member string, pos model.Position) {
	d.Add(Diagnostic{Severity: SeverityWarning, Code: code, Message: message, Decl: decl, Member: member, Pos: pos})
}

// AddInfo adds an info diagnostic.
func (d *Diagnostics) AddInfo(code, message, decl, member string, pos model.Position) {
	d.Add(Diagnostic{Severity: SeverityInfo, Code: code, Message: message, Decl: decl, Member: member, Pos: pos})
}

// HasErrors returns true if there are any error diagnostics.
func (d *Diagnostics) HasErrors() bool {
	return len(d.Errors) > 0
}

// Len returns the number of diagnostics of every severity.
func (d *Diagnostics) Len() int {
	return len(d.Errors) + len(d.Warnings) + len(d.Infos)
}

// Merge merges another Diagnostics instance into this one.
func (d *Diagnostics) Merge(other Diagnostics) {
	d.Errors = append(d.Errors, other.Errors...)
	d.Warnings = append(d.Warnings, other.Warnings...)
	d.Infos = append(d.Infos, other.Infos...)
}

// All returns every diagnostic, errors first.
func (d *Diagnostics) All() []Diagnostic {
	out := make([]Diagnostic, 0, d.Len())
	out = append(out, d.Errors...)
	out = append(out, d.Warnings...)
	return append(out, d.Infos...)
}

// Err returns a combined error from all error diagnostics, or nil.
func (d *Diagnostics) Err() error {
	if !d.HasErrors() {
		return nil
	}

	parts := make([]string, 0, len(d.Errors))
	for _, e := range d.Errors {
		parts = append(parts, e.String())
	}

	return errors.Newf("%d declaration error(s): %s", len(d.Errors), strings.Join(parts, "; "))
}

// String returns "pos: severity: [Decl.Member] [code] message".
func (d Diagnostic) String() string {
	var b strings.Builder
	if pos := d.Pos.String(); pos != "" {
		b.WriteString(pos)
		b.WriteString(": ")
	}
	b.WriteString(d.Severity.String())
	b.WriteString(": ")

	switch {
	case d.Decl != "" && d.Member != "":
		fmt.Fprintf(&b, "[%s.%s] ", d.Decl, d.Member)
	case d.Decl != "":
		fmt.Fprintf(&b, "[%s] ", d.Decl)
	}
	if d.Code != "" {
		fmt.Fprintf(&b, "[%s] ", d.Code)
	}
	b.WriteString(d.Message)
	return b.String()
}
