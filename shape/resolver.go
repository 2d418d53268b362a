package shape

import (
	"encoding"
	"encoding/json"
	"fmt"
	"log/slog"
	"reflect"
	"slices"
	"sync"

	"github.com/puzpuzpuz/xsync/v3"
	"github.com/signadot/objdiff/listdiff"
)

var (
	textMarshalerType = reflect.TypeFor[encoding.TextMarshaler]()
	rawMessageType    = reflect.TypeFor[json.RawMessage]()
	boolType          = reflect.TypeFor[bool]()
)

// Resolver builds and caches descriptors. Lookups of resolved types do not
// lock; building a descriptor for a type seen for the first time is
// serialized.
//
// Descriptors are built one level deep: the types of fields and elements
// are classified but resolved lazily, so recursive types resolve fine.
type Resolver struct {
	cache *xsync.MapOf[reflect.Type, *Descriptor]
	log   *slog.Logger

	mu        sync.Mutex // serializes builds and guards manifests
	manifests map[reflect.Type]Manifest
}

type ResolverOption func(*Resolver)

// WithLogger sets the logger used to report descriptor construction.
func WithLogger(l *slog.Logger) ResolverOption {
	return func(r *Resolver) {
		r.log = l
	}
}

func NewResolver(opts ...ResolverOption) *Resolver {
	r := &Resolver{
		cache:     xsync.NewMapOf[reflect.Type, *Descriptor](),
		manifests: map[reflect.Type]Manifest{},
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.log == nil {
		r.log = slog.Default()
	}
	return r
}

// Register declares the shape of t explicitly. It must be called before
// values of t, or of types containing t, are compared.
func (r *Resolver) Register(t reflect.Type, m Manifest) error {
	t = deref(t)
	r.mu.Lock()
	defer r.mu.Unlock()
	prev, had := r.manifests[t]
	r.manifests[t] = m
	if _, err := r.build(t); err != nil {
		if had {
			r.manifests[t] = prev
		} else {
			delete(r.manifests, t)
		}
		return err
	}
	r.cache.Delete(t)
	return nil
}

// ResolveValue resolves the dynamic type of v.
func (r *Resolver) ResolveValue(v any) (*Descriptor, error) {
	if v == nil {
		return nil, &UnsupportedShapeError{Reason: "nil has no type"}
	}
	return r.Resolve(reflect.TypeOf(v))
}

// Resolve returns the descriptor of t. Pointer types resolve to the
// descriptor of their element type.
func (r *Resolver) Resolve(t reflect.Type) (*Descriptor, error) {
	if t == nil {
		return nil, &UnsupportedShapeError{Reason: "nil has no type"}
	}
	t = deref(t)
	if d, ok := r.cache.Load(t); ok {
		resolutions.WithLabelValues("hit").Inc()
		return d, nil
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if d, ok := r.cache.Load(t); ok {
		resolutions.WithLabelValues("hit").Inc()
		return d, nil
	}
	d, err := r.build(t)
	if err != nil {
		resolutions.WithLabelValues("error").Inc()
		return nil, err
	}
	r.cache.Store(t, d)
	resolutions.WithLabelValues("miss").Inc()
	r.log.Debug("resolved shape", "type", t.String(), "kind", d.Kind.String(), "fields", len(d.Fields))
	return d, nil
}

func deref(t reflect.Type) reflect.Type {
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	return t
}

// build constructs the descriptor of the non pointer type t. The caller
// holds r.mu.
func (r *Resolver) build(t reflect.Type) (*Descriptor, error) {
	kind, sk, err := r.classify(t)
	if err != nil {
		return nil, err
	}
	d := &Descriptor{Type: t, Kind: kind, Scalar: sk}
	switch kind {
	case Record, Reference:
		if err := r.buildFields(d); err != nil {
			return nil, err
		}
	case Sequence:
		d.Elem = t.Elem()
	case Set:
		d.Key = t.Key()
	case Map:
		d.Key = t.Key()
		d.Elem = t.Elem()
	}
	return d, nil
}

// classify determines the kind of t without resolving its parts. The caller
// holds r.mu.
func (r *Resolver) classify(t reflect.Type) (Kind, ScalarKind, error) {
	t = deref(t)
	m, hasManifest := r.manifestFor(t)
	if hasManifest && m.Scalar {
		if hasEqual(t) {
			return Scalar, EqualScalar, nil
		}
		return Scalar, OpaqueScalar, nil
	}
	switch {
	case t == rawMessageType:
		return Scalar, JSONScalar, nil
	case t.Kind() != reflect.Interface && hasEqual(t):
		return Scalar, EqualScalar, nil
	case t.Kind() != reflect.Interface && t.Implements(textMarshalerType):
		return Scalar, TextScalar, nil
	}
	switch t.Kind() {
	case reflect.Bool, reflect.String,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr,
		reflect.Float32, reflect.Float64, reflect.Complex64, reflect.Complex128:
		return Scalar, BasicScalar, nil
	case reflect.Slice, reflect.Array:
		if t.Elem().Kind() == reflect.Uint8 {
			return Scalar, BytesScalar, nil
		}
		return Sequence, 0, nil
	case reflect.Map:
		if e := t.Elem(); e.Kind() == reflect.Struct && e.NumField() == 0 {
			return Set, 0, nil
		}
		return Map, 0, nil
	case reflect.Interface:
		return Dynamic, 0, nil
	case reflect.Struct:
		if !r.hasFields(t) {
			return 0, 0, &UnsupportedShapeError{Type: t, Reason: "struct has no exported fields and no known field layout"}
		}
		if hasManifest && m.Identity != "" {
			return Reference, 0, nil
		}
		if r.tagsIdentity(t) {
			return Reference, 0, nil
		}
		return Record, 0, nil
	}
	return 0, 0, &UnsupportedShapeError{Type: t, Reason: fmt.Sprintf("%s values cannot be compared", t.Kind())}
}

// hasEqual reports whether t has a method Equal(t) bool.
func hasEqual(t reflect.Type) bool {
	m, ok := t.MethodByName("Equal")
	if !ok {
		return false
	}
	mt := m.Type
	return mt.NumIn() == 2 && mt.In(1) == t && mt.NumOut() == 1 && mt.Out(0) == boolType
}

// flattened reports whether the fields of the embedded struct sf are
// promoted into the outer struct. As with encoding/json, embedded structs
// are flattened whether or not their type is exported; embedded scalars
// such as time.Time and tagged embeds are plain fields.
func (r *Resolver) flattened(sf reflect.StructField) bool {
	if !sf.Anonymous || sf.Type.Kind() != reflect.Struct || sf.Tag.Get(tagKey) != "" {
		return false
	}
	return !r.scalarStruct(sf.Type)
}

func (r *Resolver) scalarStruct(t reflect.Type) bool {
	if m, ok := r.manifestFor(t); ok && m.Scalar {
		return true
	}
	return hasEqual(t) || t.Implements(textMarshalerType)
}

// hasFields reports whether structFields finds at least one field in t.
func (r *Resolver) hasFields(t reflect.Type) bool {
	for i := 0; i < t.NumField(); i++ {
		sf := t.Field(i)
		if r.flattened(sf) {
			if r.hasFields(sf.Type) {
				return true
			}
			continue
		}
		if sf.IsExported() {
			return true
		}
	}
	return false
}

// tagsIdentity reports whether some field of t is tagged as identity key.
func (r *Resolver) tagsIdentity(t reflect.Type) bool {
	for i := 0; i < t.NumField(); i++ {
		sf := t.Field(i)
		if r.flattened(sf) {
			if r.tagsIdentity(sf.Type) {
				return true
			}
			continue
		}
		opts, err := parseTag(sf.Tag.Get(tagKey))
		if err != nil {
			continue
		}
		if _, ok := opts[optID]; ok {
			return true
		}
	}
	return false
}

func (r *Resolver) buildFields(d *Descriptor) error {
	t := d.Type
	fields, ids, err := r.structFields(t, t, nil)
	if err != nil {
		return err
	}
	m, hasManifest := r.manifestFor(t)
	if hasManifest {
		for _, name := range m.names() {
			if !slices.ContainsFunc(fields, func(f Field) bool { return f.Name == name || f.GoName == name }) {
				return &TagError{Type: t, Field: name, Err: fmt.Errorf("manifest names unknown field")}
			}
		}
		if m.Identity != "" {
			ids = ids[:0]
		}
		for i := range fields {
			f := &fields[i]
			if m.ignores(f) {
				f.Policy.Ignored = true
			}
			if a, ok := m.algorithm(f); ok {
				f.Policy.Algorithm = a
			}
			if m.Identity == f.Name || m.Identity == f.GoName {
				ids = append(ids, i)
			}
		}
	}

	seen := map[string]string{}
	for i := range fields {
		f := &fields[i]
		if other, dup := seen[f.Name]; dup {
			return &TagError{Type: t, Field: f.GoName, Err: fmt.Errorf("path segment %q already used by %s", f.Name, other)}
		}
		seen[f.Name] = f.GoName
		if f.Policy.Algorithm != listdiff.Default {
			if !f.Policy.Algorithm.Valid() {
				return &TagError{Type: t, Field: f.GoName, Err: fmt.Errorf("invalid list algorithm %s", f.Policy.Algorithm)}
			}
			if f.Kind != Sequence {
				return &TagError{Type: t, Field: f.GoName, Err: fmt.Errorf("list algorithm set on %s field", f.Kind)}
			}
		}
	}

	switch len(ids) {
	case 0:
	case 1:
		f := &fields[ids[0]]
		if f.Policy.Ignored {
			return &TagError{Type: t, Field: f.GoName, Err: fmt.Errorf("identity key cannot be ignored")}
		}
		if f.Kind != Scalar {
			return &TagError{Type: t, Field: f.GoName, Err: fmt.Errorf("identity key must be scalar, got %s", f.Kind)}
		}
		d.Identity = f
		d.Kind = Reference
	default:
		return &TagError{Type: t, Err: fmt.Errorf("%d identity key fields, at most one allowed", len(ids))}
	}
	d.Fields = fields
	if d.Kind == Reference && d.Identity == nil {
		d.Kind = Record
	}
	return nil
}

// structFields lists the exported fields of t, flattening embedded structs.
// ids holds the positions of fields tagged as identity key.
func (r *Resolver) structFields(owner, t reflect.Type, prefix []int) (fields []Field, ids []int, err error) {
	for i := 0; i < t.NumField(); i++ {
		sf := t.Field(i)
		index := append(slices.Clone(prefix), i)
		if r.flattened(sf) {
			sub, subIDs, err := r.structFields(owner, sf.Type, index)
			if err != nil {
				return nil, nil, err
			}
			for _, id := range subIDs {
				ids = append(ids, len(fields)+id)
			}
			fields = append(fields, sub...)
			continue
		}
		if !sf.IsExported() {
			continue
		}
		opts, err := parseTag(sf.Tag.Get(tagKey))
		if err != nil {
			return nil, nil, &TagError{Type: owner, Field: sf.Name, Err: err}
		}
		f := Field{
			Name:   fieldName(sf),
			GoName: sf.Name,
			Index:  index,
			Type:   sf.Type,
		}
		for k, v := range opts {
			switch k {
			case optIgnore, optSkip:
				f.Policy.Ignored = true
			case optID:
				ids = append(ids, len(fields))
			case optName:
				if v == "" {
					return nil, nil, &TagError{Type: owner, Field: sf.Name, Err: fmt.Errorf("empty name")}
				}
				f.Name = v
			case optAlgo:
				a, err := listdiff.ParseAlgorithm(v)
				if err != nil {
					return nil, nil, &TagError{Type: owner, Field: sf.Name, Err: err}
				}
				f.Policy.Algorithm = a
			default:
				return nil, nil, &TagError{Type: owner, Field: sf.Name, Err: fmt.Errorf("unknown option %q", k)}
			}
		}
		kind, _, err := r.classify(sf.Type)
		if err != nil {
			if !f.Policy.Ignored {
				if use, ok := err.(*UnsupportedShapeError); ok {
					use.Path = owner.String() + "." + sf.Name
				}
				return nil, nil, err
			}
			kind = Scalar
		}
		f.Kind = kind
		fields = append(fields, f)
	}
	return fields, ids, nil
}
