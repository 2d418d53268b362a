package walk

import (
	"bytes"
	"encoding"
	"encoding/json"
	"fmt"
	"maps"
	"math"
	"math/cmplx"
	"reflect"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/signadot/objdiff/shape"
)

// canonical renders a payload value deterministically. Numbers carry
// their kind so that int64(1) and float64(1) differ.
func canonical(v any) string {
	var b strings.Builder
	writeCanonical(&b, v)
	return b.String()
}

func writeCanonical(b *strings.Builder, v any) {
	switch x := v.(type) {
	case nil:
		b.WriteString("null")
	case bool:
		b.WriteString(strconv.FormatBool(x))
	case int64:
		b.WriteByte('i')
		b.WriteString(strconv.FormatInt(x, 10))
	case uint64:
		b.WriteByte('u')
		b.WriteString(strconv.FormatUint(x, 10))
	case float64:
		b.WriteByte('f')
		b.WriteString(strconv.FormatFloat(x, 'g', -1, 64))
	case json.Number:
		b.WriteByte('n')
		b.WriteString(string(x))
	case string:
		b.WriteString(strconv.Quote(x))
	case []any:
		b.WriteByte('[')
		for i, y := range x {
			if i > 0 {
				b.WriteByte(',')
			}
			writeCanonical(b, y)
		}
		b.WriteByte(']')
	case map[string]any:
		b.WriteByte('{')
		for i, k := range slices.Sorted(maps.Keys(x)) {
			if i > 0 {
				b.WriteByte(',')
			}
			b.WriteString(strconv.Quote(k))
			b.WriteByte(':')
			writeCanonical(b, x[k])
		}
		b.WriteByte('}')
	default:
		fmt.Fprintf(b, "%#v", x)
	}
}

// fingerprint writes to b a rendering of v which values comparing equal
// share. It reports whether equal renderings also imply equal values; they
// do not when v holds scalars compared by an Equal method, by JSON
// semantics or as opaque values, whose rendering only narrows the
// candidates.
func (w *walker) fingerprint(b *strings.Builder, v reflect.Value) (bool, error) {
	v, addr := indirect(v)
	if !v.IsValid() {
		b.WriteString("null")
		return true, nil
	}
	if addr != 0 {
		if w.snapping[addr] {
			b.WriteString("null")
			return true, nil
		}
		w.snapping[addr] = true
		defer delete(w.snapping, addr)
	}
	d, err := w.res.Resolve(v.Type())
	if err != nil {
		return false, err
	}
	b.WriteString(v.Type().String())
	switch d.Kind {
	case shape.Scalar:
		b.WriteByte(':')
		return scalarFingerprint(b, d, v), nil
	case shape.Record, shape.Reference:
		exact := true
		b.WriteByte('{')
		for i := range d.Fields {
			f := &d.Fields[i]
			if f.Ignored() {
				continue
			}
			b.WriteString(strconv.Quote(f.Name))
			b.WriteByte(':')
			ok, err := w.fingerprint(b, v.FieldByIndex(f.Index))
			if err != nil {
				return false, err
			}
			exact = exact && ok
			b.WriteByte(',')
		}
		b.WriteByte('}')
		return exact, nil
	case shape.Sequence:
		exact := true
		b.WriteByte('[')
		for i := 0; i < v.Len(); i++ {
			ok, err := w.fingerprint(b, v.Index(i))
			if err != nil {
				return false, err
			}
			exact = exact && ok
			b.WriteByte(',')
		}
		b.WriteByte(']')
		return exact, nil
	case shape.Set, shape.Map:
		// keys pair by their canonical snapshot, as in the walk
		exact := true
		parts := make([]string, 0, v.Len())
		iter := v.MapRange()
		for iter.Next() {
			ks, err := w.snapshot(iter.Key())
			if err != nil {
				return false, err
			}
			var pb strings.Builder
			writeCanonical(&pb, ks)
			if d.Kind == shape.Map {
				pb.WriteByte(':')
				ok, err := w.fingerprint(&pb, iter.Value())
				if err != nil {
					return false, err
				}
				exact = exact && ok
			}
			parts = append(parts, pb.String())
		}
		slices.Sort(parts)
		b.WriteByte('{')
		b.WriteString(strings.Join(parts, ","))
		b.WriteByte('}')
		return exact, nil
	}
	return false, &shape.UnsupportedShapeError{Type: v.Type(), Reason: fmt.Sprintf("cannot fingerprint %s values", d.Kind)}
}

func scalarFingerprint(b *strings.Builder, d *shape.Descriptor, v reflect.Value) bool {
	switch d.Scalar {
	case shape.BasicScalar:
		switch v.Kind() {
		case reflect.Float32, reflect.Float64:
			writeFloat(b, v.Float())
			return true
		case reflect.Complex64, reflect.Complex128:
			c := v.Complex()
			if cmplx.IsNaN(c) {
				b.WriteString("NaN")
				return true
			}
			writeFloat(b, real(c))
			b.WriteByte(',')
			writeFloat(b, imag(c))
			return true
		}
		x, _ := basicSnapshot(v)
		writeCanonical(b, x)
		return true
	case shape.BytesScalar:
		b.WriteString(strconv.Quote(string(bytesOf(v))))
		return true
	case shape.TextScalar:
		t, err := v.Interface().(encoding.TextMarshaler).MarshalText()
		if err != nil {
			return false
		}
		b.WriteString(strconv.Quote(string(t)))
		return true
	case shape.JSONScalar:
		dec := json.NewDecoder(bytes.NewReader(v.Bytes()))
		dec.UseNumber()
		var x any
		if err := dec.Decode(&x); err != nil {
			x = string(v.Bytes())
		}
		writeCanonical(b, x)
		return false
	case shape.EqualScalar:
		if t, ok := v.Interface().(time.Time); ok {
			b.WriteString(strconv.FormatInt(t.Unix(), 10))
			b.WriteByte('.')
			b.WriteString(strconv.Itoa(t.Nanosecond()))
		}
		return false
	}
	return false
}

// writeFloat renders f such that == decides equality, with NaN equal to
// itself.
func writeFloat(b *strings.Builder, f float64) {
	switch {
	case math.IsNaN(f):
		b.WriteString("NaN")
	case f == 0:
		b.WriteByte('0')
	default:
		b.WriteString(strconv.FormatFloat(f, 'g', -1, 64))
	}
}

// interner assigns small ids to fingerprints. Entries are bucketed by the
// xxhash of their fingerprint. An entry whose fingerprint does not decide
// equality keeps a representative value, and a value joins it only when
// it compares equal to that representative.
type interner struct {
	buckets map[uint64][]interned
	next    uint32
}

type interned struct {
	repr string
	rep  reflect.Value
	id   uint32
}

func newInterner() *interner {
	return &interner{buckets: map[uint64][]interned{}}
}

func (in *interner) intern(repr string) uint32 {
	h := xxhash.Sum64String(repr)
	for _, e := range in.buckets[h] {
		if !e.rep.IsValid() && e.repr == repr {
			return e.id
		}
	}
	return in.add(h, interned{repr: repr})
}

// internValue interns v, whose fingerprint repr does not decide equality.
// v gets the id of the first representative with the same fingerprint for
// which same holds, or a new id.
func (in *interner) internValue(repr string, v reflect.Value, same func(rep reflect.Value) (bool, error)) (uint32, error) {
	h := xxhash.Sum64String(repr)
	for _, e := range in.buckets[h] {
		if !e.rep.IsValid() || e.repr != repr {
			continue
		}
		ok, err := same(e.rep)
		if err != nil {
			return 0, err
		}
		if ok {
			return e.id, nil
		}
	}
	return in.add(h, interned{repr: repr, rep: v}), nil
}

func (in *interner) add(h uint64, e interned) uint32 {
	e.id = in.next
	in.next++
	in.buckets[h] = append(in.buckets[h], e)
	return e.id
}
