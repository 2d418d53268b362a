package shape

import (
	"maps"
	"reflect"
	"slices"

	"github.com/signadot/objdiff/listdiff"
)

// Manifest declares the comparable shape of a struct type explicitly.
// Names refer to path segments or Go field names. A manifest takes
// precedence over struct tags for the options it sets.
type Manifest struct {
	// Identity names the identity key field.
	Identity string
	// Ignore names fields which are never compared.
	Ignore []string
	// Algorithms overrides the list algorithm of sequence fields.
	Algorithms map[string]listdiff.Algorithm
	// Scalar declares the type opaque: values are compared as a whole.
	Scalar bool
}

// Shaper is implemented by types which supply their own manifest.
type Shaper interface {
	DiffShape() Manifest
}

var shaperType = reflect.TypeFor[Shaper]()

// manifestFor returns the manifest of t, registered ones first. The caller
// holds r.mu.
func (r *Resolver) manifestFor(t reflect.Type) (Manifest, bool) {
	if m, ok := r.manifests[t]; ok {
		return m, true
	}
	if t.Kind() == reflect.Interface {
		return Manifest{}, false
	}
	switch {
	case t.Implements(shaperType):
		return reflect.Zero(t).Interface().(Shaper).DiffShape(), true
	case reflect.PointerTo(t).Implements(shaperType):
		return reflect.New(t).Interface().(Shaper).DiffShape(), true
	}
	return Manifest{}, false
}

func (m *Manifest) ignores(f *Field) bool {
	for _, n := range m.Ignore {
		if n == f.Name || n == f.GoName {
			return true
		}
	}
	return false
}

func (m *Manifest) algorithm(f *Field) (listdiff.Algorithm, bool) {
	if a, ok := m.Algorithms[f.Name]; ok {
		return a, true
	}
	a, ok := m.Algorithms[f.GoName]
	return a, ok
}

// names lists every field name the manifest refers to.
func (m *Manifest) names() []string {
	var res []string
	if m.Identity != "" {
		res = append(res, m.Identity)
	}
	res = append(res, m.Ignore...)
	return append(res, slices.Sorted(maps.Keys(m.Algorithms))...)
}
