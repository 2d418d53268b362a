package walk

import (
	"bytes"
	"encoding"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"reflect"
	"slices"
	"strconv"

	"github.com/signadot/objdiff/shape"
)

// snapshot converts v into a payload value built only of nil, bool, int64,
// uint64, float64, string, []any and map[string]any. Records become maps
// of their compared fields, sets become sorted lists, and pointer cycles
// become nil.
func (w *walker) snapshot(v reflect.Value) (any, error) {
	v, addr := indirect(v)
	if !v.IsValid() {
		return nil, nil
	}
	if addr != 0 {
		if w.snapping[addr] {
			return nil, nil
		}
		w.snapping[addr] = true
		defer delete(w.snapping, addr)
	}
	d, err := w.res.Resolve(v.Type())
	if err != nil {
		return nil, err
	}
	switch d.Kind {
	case shape.Scalar:
		return scalarSnapshot(d, v), nil
	case shape.Record, shape.Reference:
		res := make(map[string]any, len(d.Fields))
		for i := range d.Fields {
			f := &d.Fields[i]
			if f.Ignored() {
				continue
			}
			x, err := w.snapshot(v.FieldByIndex(f.Index))
			if err != nil {
				return nil, err
			}
			res[f.Name] = x
		}
		return res, nil
	case shape.Sequence:
		res := make([]any, v.Len())
		for i := range res {
			if res[i], err = w.snapshot(v.Index(i)); err != nil {
				return nil, err
			}
		}
		return res, nil
	case shape.Set:
		res := make([]any, 0, v.Len())
		iter := v.MapRange()
		for iter.Next() {
			x, err := w.snapshot(iter.Key())
			if err != nil {
				return nil, err
			}
			res = append(res, x)
		}
		slices.SortFunc(res, func(a, b any) int {
			ca, cb := canonical(a), canonical(b)
			switch {
			case ca < cb:
				return -1
			case ca > cb:
				return 1
			}
			return 0
		})
		return res, nil
	case shape.Map:
		es, err := w.entries(v, true)
		if err != nil {
			return nil, err
		}
		segs := segments(es)
		res := make(map[string]any, len(es))
		for id, e := range es {
			x, err := w.snapshot(e.val)
			if err != nil {
				return nil, err
			}
			res[segs[id]] = x
		}
		return res, nil
	}
	return nil, &shape.UnsupportedShapeError{Type: v.Type(), Reason: fmt.Sprintf("cannot snapshot %s values", d.Kind)}
}

func scalarSnapshot(d *shape.Descriptor, v reflect.Value) any {
	switch d.Scalar {
	case shape.BytesScalar:
		return base64.StdEncoding.EncodeToString(bytesOf(v))
	case shape.JSONScalar:
		return decodeJSON(v.Bytes())
	case shape.TextScalar:
		return text(v)
	case shape.EqualScalar, shape.OpaqueScalar:
		if x, ok := basicSnapshot(v); ok {
			return x
		}
		if v.Type().Implements(textMarshalerType) {
			return text(v)
		}
		if s, ok := v.Interface().(fmt.Stringer); ok {
			return s.String()
		}
		return fmt.Sprintf("%v", v.Interface())
	}
	x, _ := basicSnapshot(v)
	return x
}

func basicSnapshot(v reflect.Value) (any, bool) {
	switch v.Kind() {
	case reflect.Bool:
		return v.Bool(), true
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return v.Int(), true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return v.Uint(), true
	case reflect.Float32, reflect.Float64:
		return v.Float(), true
	case reflect.Complex64, reflect.Complex128:
		return fmt.Sprint(v.Complex()), true
	case reflect.String:
		return v.String(), true
	}
	return nil, false
}

func text(v reflect.Value) any {
	d, err := v.Interface().(encoding.TextMarshaler).MarshalText()
	if err != nil {
		return fmt.Sprintf("%v", v.Interface())
	}
	return string(d)
}

// decodeJSON decodes raw JSON into a payload value. Invalid JSON is kept
// as a string.
func decodeJSON(d []byte) any {
	dec := json.NewDecoder(bytes.NewReader(d))
	dec.UseNumber()
	var x any
	if err := dec.Decode(&x); err != nil {
		return string(d)
	}
	return normalizeNumbers(x)
}

func normalizeNumbers(x any) any {
	switch y := x.(type) {
	case json.Number:
		if i, err := strconv.ParseInt(string(y), 10, 64); err == nil {
			return i
		}
		if u, err := strconv.ParseUint(string(y), 10, 64); err == nil {
			return u
		}
		f, _ := y.Float64()
		return f
	case []any:
		for i := range y {
			y[i] = normalizeNumbers(y[i])
		}
	case map[string]any:
		for k := range y {
			y[k] = normalizeNumbers(y[k])
		}
	}
	return x
}

// keyString renders a map key as a path segment.
func keyString(k reflect.Value) string {
	k, _ = indirect(k)
	switch {
	case !k.IsValid():
		return "null"
	case k.Kind() == reflect.String:
		return k.String()
	case k.Type().Implements(textMarshalerType):
		if d, err := k.Interface().(encoding.TextMarshaler).MarshalText(); err == nil {
			return string(d)
		}
	}
	return fmt.Sprint(k.Interface())
}
