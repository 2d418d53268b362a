package walk

import (
	"bytes"
	"encoding"
	"math"
	"math/cmplx"
	"reflect"

	jsonpatch "github.com/evanphx/json-patch"
	"github.com/signadot/objdiff/shape"
)

var textMarshalerType = reflect.TypeFor[encoding.TextMarshaler]()

// scalarEqual compares two present scalar values of the same type.
func scalarEqual(d *shape.Descriptor, o, n reflect.Value) bool {
	switch d.Scalar {
	case shape.BytesScalar:
		return bytes.Equal(bytesOf(o), bytesOf(n))
	case shape.JSONScalar:
		ob, nb := o.Bytes(), n.Bytes()
		if bytes.Equal(ob, nb) {
			return true
		}
		return jsonpatch.Equal(ob, nb)
	case shape.EqualScalar:
		return o.MethodByName("Equal").Call([]reflect.Value{n})[0].Bool()
	case shape.TextScalar:
		ot, oerr := o.Interface().(encoding.TextMarshaler).MarshalText()
		nt, nerr := n.Interface().(encoding.TextMarshaler).MarshalText()
		if oerr != nil || nerr != nil {
			return reflect.DeepEqual(o.Interface(), n.Interface())
		}
		return bytes.Equal(ot, nt)
	case shape.OpaqueScalar:
		return reflect.DeepEqual(o.Interface(), n.Interface())
	}
	return basicEqual(o, n)
}

// basicEqual is == on the kind of o, except that NaN equals NaN.
func basicEqual(o, n reflect.Value) bool {
	switch o.Kind() {
	case reflect.Bool:
		return o.Bool() == n.Bool()
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return o.Int() == n.Int()
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return o.Uint() == n.Uint()
	case reflect.Float32, reflect.Float64:
		a, b := o.Float(), n.Float()
		return a == b || (math.IsNaN(a) && math.IsNaN(b))
	case reflect.Complex64, reflect.Complex128:
		a, b := o.Complex(), n.Complex()
		return a == b || (cmplx.IsNaN(a) && cmplx.IsNaN(b))
	case reflect.String:
		return o.String() == n.String()
	}
	return reflect.DeepEqual(o.Interface(), n.Interface())
}

// bytesOf copies a byte slice or array.
func bytesOf(v reflect.Value) []byte {
	if v.Kind() == reflect.Slice && v.Type().Elem() == reflect.TypeFor[byte]() {
		return v.Bytes()
	}
	res := make([]byte, v.Len())
	for i := range res {
		res[i] = byte(v.Index(i).Uint())
	}
	return res
}
