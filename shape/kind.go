package shape

import (
	"fmt"

	"github.com/signadot/objdiff/listdiff"
)

// Kind is the comparable structure of a type.
type Kind int

const (
	Scalar Kind = iota
	Record
	Reference
	Sequence
	Set
	Map
	Dynamic
)

func (k Kind) String() string {
	switch k {
	case Scalar:
		return "Scalar"
	case Record:
		return "Record"
	case Reference:
		return "Reference"
	case Sequence:
		return "Sequence"
	case Set:
		return "Set"
	case Map:
		return "Map"
	case Dynamic:
		return "Dynamic"
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// ScalarKind selects how two scalar values are compared.
type ScalarKind int

const (
	// BasicScalar values compare with ==.
	BasicScalar ScalarKind = iota
	// BytesScalar values are byte slices or arrays.
	BytesScalar
	// JSONScalar values are json.RawMessage and compare semantically.
	JSONScalar
	// EqualScalar values have an Equal(T) bool method.
	EqualScalar
	// TextScalar values implement encoding.TextMarshaler and compare by text.
	TextScalar
	// OpaqueScalar values were declared scalar by a manifest.
	OpaqueScalar
)

// Policy is the comparison policy of one field.
type Policy struct {
	Ignored bool
	// Algorithm only applies to Sequence fields, and to sequences nested
	// directly in their elements, as in [][]T. listdiff.Default defers to
	// the configured default.
	Algorithm listdiff.Algorithm
}
