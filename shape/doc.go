// Package shape resolves Go types into comparison descriptors.
//
// A [Descriptor] tells the walker how to compare values of one type: its
// [Kind], and for structs the ordered list of comparable fields with their
// [Policy]. Descriptors are built once per reflect.Type and cached by a
// [Resolver], which is safe for concurrent use.
//
// # Field markers
//
// Struct fields are configured with the `diff` struct tag:
//
//	type Employee struct {
//	    ID     int      `diff:"id"`             // identity key
//	    Skills []string `diff:"algo=as-set"`    // list algorithm override
//	    Notes  string   `diff:"-"`              // never compared
//	    City   string   `diff:"name=city"`      // path segment override
//	}
//
// Without a name= option the path segment is the field's json name, or the
// Go field name when there is no json tag. Embedded structs are flattened,
// whether their type is exported or not, unless they are scalars.
//
// Types which cannot carry tags can be described explicitly with a
// [Manifest], either through [Resolver.Register] or by implementing [Shaper].
package shape
