package shape

import "reflect"

// Descriptor describes the comparable structure of one type. Descriptors
// are immutable once returned by a Resolver.
type Descriptor struct {
	Type   reflect.Type
	Kind   Kind
	Scalar ScalarKind

	// Fields lists struct fields in declaration order, ignored ones
	// included. Only set for Record and Reference.
	Fields []Field
	// Identity is the identity key field of a Reference.
	Identity *Field

	// Key is the key type of a Map or Set.
	Key reflect.Type
	// Elem is the element type of a Sequence or Map.
	Elem reflect.Type
}

// Field describes one struct field.
type Field struct {
	// Name is the path segment used for the field.
	Name   string
	GoName string
	Index  []int
	Type   reflect.Type
	// Kind is the kind of the field's declared type, with pointers
	// dereferenced.
	Kind   Kind
	Policy Policy
}

func (f *Field) Ignored() bool {
	return f.Policy.Ignored
}

// Field returns the field with the given path segment or Go name.
func (d *Descriptor) Field(name string) (*Field, bool) {
	for i := range d.Fields {
		f := &d.Fields[i]
		if f.Name == name || f.GoName == name {
			return f, true
		}
	}
	return nil, false
}

// Compared returns the fields which take part in comparison.
func (d *Descriptor) Compared() []Field {
	res := make([]Field, 0, len(d.Fields))
	for _, f := range d.Fields {
		if !f.Policy.Ignored {
			res = append(res, f)
		}
	}
	return res
}
