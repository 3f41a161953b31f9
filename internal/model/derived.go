package model

import (
	"github.com/dave/jennifer/jen"
)

// DerivedKind identifies what a derived declaration is for.
type DerivedKind int

const (
	DerivedRecord      DerivedKind = iota // the record struct (manifest declarations)
	DerivedStorage                        // storage wrapper of one decorated field
	DerivedKeyEnum                        // key enumeration
	DerivedConstructor                    // no-argument constructor
	DerivedDecoder                        // decode routine
	DerivedEncoder                        // encode routine
	DerivedConformance                    // interface assertions and adapters
	DerivedKeyTable                       // flat key-mapping table
)

func (k DerivedKind) String() string {
	switch k {
	case DerivedRecord:
		return "record"
	case DerivedStorage:
		return "storage"
	case DerivedKeyEnum:
		return "keys"
	case DerivedConstructor:
		return "constructor"
	case DerivedDecoder:
		return "decoder"
	case DerivedEncoder:
		return "encoder"
	case DerivedConformance:
		return "conformance"
	case DerivedKeyTable:
		return "key table"
	default:
		return "unknown"
	}
}

// Derived is one generated top-level declaration.
type Derived struct {
	Kind DerivedKind
	Name string // primary identifier declared
	Code *jen.Statement
}

// GoString renders the declaration, mostly for tests and debugging.
func (d Derived) GoString() string {
	if d.Code == nil {
		return ""
	}
	return d.Code.GoString()
}
