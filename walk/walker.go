package walk

import (
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"reflect"
	"slices"
	"strings"
	"sync"

	"github.com/signadot/objdiff/changeset"
	"github.com/signadot/objdiff/listdiff"
	"github.com/signadot/objdiff/shape"
)

// Config configures a comparison.
type Config struct {
	// Resolver resolves descriptors. A nil Resolver means a process wide
	// default.
	Resolver *shape.Resolver
	// DefaultAlgorithm applies to sequence fields without their own
	// algorithm. listdiff.Default means listdiff.Positional.
	DefaultAlgorithm listdiff.Algorithm
	// MaxEditDistanceLength bounds edit distance comparisons; zero or less
	// means listdiff.DefaultMaxEditDistanceLength.
	MaxEditDistanceLength int
	Log                   *slog.Logger
}

var defaultResolver = sync.OnceValue(func() *shape.Resolver {
	return shape.NewResolver()
})

func (c Config) normalize() (Config, error) {
	if c.Resolver == nil {
		c.Resolver = defaultResolver()
	}
	switch {
	case c.DefaultAlgorithm == listdiff.Default:
		c.DefaultAlgorithm = listdiff.Positional
	case !c.DefaultAlgorithm.Valid():
		return c, fmt.Errorf("invalid default list algorithm %s", c.DefaultAlgorithm)
	}
	if c.MaxEditDistanceLength <= 0 {
		c.MaxEditDistanceLength = listdiff.DefaultMaxEditDistanceLength
	}
	if c.Log == nil {
		c.Log = slog.Default()
	}
	return c, nil
}

// Compare compares old and new, either of which may be nil. On error no
// change set is returned.
func Compare(cfg Config, old, new any) (*changeset.ChangeSet, error) {
	cfg, err := cfg.normalize()
	if err != nil {
		return nil, err
	}
	w := &walker{
		cfg:      cfg,
		res:      cfg.Resolver,
		b:        changeset.NewBuilder(),
		ids:      newInterner(),
		active:   map[[2]uintptr]bool{},
		snapping: map[uintptr]bool{},
	}
	if err := w.value(nil, reflect.ValueOf(old), reflect.ValueOf(new), listdiff.Default); err != nil {
		return nil, err
	}
	return w.b.Build(), nil
}

type walker struct {
	cfg Config
	res *shape.Resolver
	b   *changeset.Builder
	ids *interner

	// active holds the (old, new) pointer pairs on the current walk path.
	active map[[2]uintptr]bool
	// snapping holds the pointers on the current snapshot path.
	snapping map[uintptr]bool
}

// indirect follows pointers and interfaces. It returns the invalid value
// for nil, and the address of the last pointer followed.
func indirect(v reflect.Value) (reflect.Value, uintptr) {
	var addr uintptr
	for v.IsValid() {
		switch v.Kind() {
		case reflect.Pointer:
			if v.IsNil() {
				return reflect.Value{}, 0
			}
			addr = v.Pointer()
			v = v.Elem()
		case reflect.Interface:
			if v.IsNil() {
				return reflect.Value{}, 0
			}
			v = v.Elem()
		default:
			return v, addr
		}
	}
	return v, addr
}

// value compares o and n at path p. alg is the algorithm of the field
// holding them, if any.
func (w *walker) value(p changeset.Path, o, n reflect.Value, alg listdiff.Algorithm) error {
	o, oa := indirect(o)
	n, na := indirect(n)
	if !o.IsValid() && !n.IsValid() {
		return nil
	}
	if oa != 0 && oa == na && o.Type() == n.Type() {
		return nil
	}
	if oa != 0 || na != 0 {
		key := [2]uintptr{oa, na}
		if w.active[key] {
			return nil
		}
		w.active[key] = true
		defer delete(w.active, key)
	}
	if o.IsValid() && n.IsValid() && o.Type() != n.Type() {
		return w.property(p, o, n)
	}
	var t reflect.Type
	if o.IsValid() {
		t = o.Type()
	} else {
		t = n.Type()
	}
	d, err := w.res.Resolve(t)
	if err != nil {
		return err
	}
	switch d.Kind {
	case shape.Scalar:
		if o.IsValid() && n.IsValid() && scalarEqual(d, o, n) {
			return nil
		}
		return w.property(p, o, n)
	case shape.Reference:
		if len(p) != 0 {
			return w.reference(p, d, o, n)
		}
		return w.record(p, d, o, n)
	case shape.Record:
		return w.record(p, d, o, n)
	case shape.Sequence:
		return w.sequence(p, d, o, n, alg)
	case shape.Set:
		return w.set(p, o, n)
	case shape.Map:
		return w.mapping(p, o, n)
	}
	return fmt.Errorf("%s: cannot compare %s values of type %s", displayPath(p), d.Kind, t)
}

func (w *walker) property(p changeset.Path, o, n reflect.Value) error {
	os, err := w.snapshot(o)
	if err != nil {
		return err
	}
	ns, err := w.snapshot(n)
	if err != nil {
		return err
	}
	w.b.Add(changeset.Property(p, os, ns))
	return nil
}

func field(v reflect.Value, f *shape.Field) reflect.Value {
	if !v.IsValid() {
		return v
	}
	return v.FieldByIndex(f.Index)
}

func (w *walker) record(p changeset.Path, d *shape.Descriptor, o, n reflect.Value) error {
	for i := range d.Fields {
		f := &d.Fields[i]
		if f.Ignored() {
			continue
		}
		if err := w.value(p.Field(f.Name), field(o, f), field(n, f), f.Policy.Algorithm); err != nil {
			return err
		}
	}
	return nil
}

// reference compares identity keyed records. Records with different keys
// are different entities: only the keys are reported.
func (w *walker) reference(p changeset.Path, d *shape.Descriptor, o, n reflect.Value) error {
	oldKey, err := w.key(d, o)
	if err != nil {
		return err
	}
	newKey, err := w.key(d, n)
	if err != nil {
		return err
	}
	if !o.IsValid() || !n.IsValid() {
		w.b.Add(changeset.Reference(p, oldKey, newKey))
		return nil
	}
	same, err := w.same(p, o.FieldByIndex(d.Identity.Index), n.FieldByIndex(d.Identity.Index), listdiff.Default)
	if err != nil {
		return err
	}
	if !same {
		w.b.Add(changeset.Reference(p, oldKey, newKey))
		return nil
	}
	return w.record(p, d, o, n)
}

// key returns the snapshot of the identity key of v, nil if v is absent.
func (w *walker) key(d *shape.Descriptor, v reflect.Value) (any, error) {
	if !v.IsValid() {
		return nil, nil
	}
	return w.snapshot(v.FieldByIndex(d.Identity.Index))
}

// same reports whether comparing o and n at p reports no change.
func (w *walker) same(p changeset.Path, o, n reflect.Value, alg listdiff.Algorithm) (bool, error) {
	sub := &walker{
		cfg:      w.cfg,
		res:      w.res,
		b:        changeset.NewBuilder(),
		ids:      w.ids,
		active:   map[[2]uintptr]bool{},
		snapping: map[uintptr]bool{},
	}
	if err := sub.value(p, o, n, alg); err != nil {
		return false, err
	}
	return sub.b.Len() == 0, nil
}

func length(v reflect.Value) int {
	if !v.IsValid() {
		return 0
	}
	return v.Len()
}

func (w *walker) sequence(p changeset.Path, d *shape.Descriptor, o, n reflect.Value, alg listdiff.Algorithm) error {
	if alg == listdiff.Default {
		alg = w.cfg.DefaultAlgorithm
	}
	ed, err := w.res.Resolve(d.Elem)
	if err != nil {
		return err
	}
	keyed := ed.Kind == shape.Reference
	a := make([]uint32, length(o))
	for i := range a {
		if a[i], err = w.elementID(p.Index(i), ed, o.Index(i), keyed, alg); err != nil {
			return err
		}
	}
	b := make([]uint32, length(n))
	for j := range b {
		if b[j], err = w.elementID(p.Index(j), ed, n.Index(j), keyed, alg); err != nil {
			return err
		}
	}
	ops, err := listdiff.Diff(alg, a, b, w.cfg.MaxEditDistanceLength)
	if err != nil {
		var tooLarge *listdiff.ComparisonTooLargeError
		if errors.As(err, &tooLarge) {
			tooLarge.Path = displayPath(p)
			w.cfg.Log.Warn("sequence too large for edit distance", "path", tooLarge.Path,
				"old", tooLarge.OldLen, "new", tooLarge.NewLen, "limit", tooLarge.Limit)
		}
		return err
	}
	position := func(i int) int {
		if alg == listdiff.AsSet {
			return changeset.NoPosition
		}
		return i
	}
	// matched elements are walked at their new index, or at their identity
	// key when positions do not apply.
	at := func(j int) changeset.Path {
		if alg == listdiff.AsSet && keyed {
			v, _ := indirect(n.Index(j))
			if v.IsValid() {
				return p.Key(keyString(v.FieldByIndex(ed.Identity.Index)))
			}
		}
		return p.Index(j)
	}
	for _, op := range ops {
		switch op.Kind {
		case listdiff.Match:
			if !keyed && a[op.Old] == b[op.New] {
				continue
			}
			err = w.value(at(op.New), o.Index(op.Old), n.Index(op.New), alg)
		case listdiff.Insert:
			err = w.element(p, changeset.ElementAdded, n.Index(op.New), position(op.New))
		case listdiff.Delete:
			err = w.element(p, changeset.ElementRemoved, o.Index(op.Old), position(op.Old))
		case listdiff.Move:
			var elem any
			if elem, err = w.snapshot(n.Index(op.New)); err != nil {
				return err
			}
			w.b.Add(changeset.Moved(p, elem, op.Old, op.New))
			if keyed {
				err = w.value(p.Index(op.New), o.Index(op.Old), n.Index(op.New), alg)
			}
		}
		if err != nil {
			return err
		}
	}
	return nil
}

func (w *walker) element(p changeset.Path, k changeset.Kind, v reflect.Value, pos int) error {
	elem, err := w.snapshot(v)
	if err != nil {
		return err
	}
	if k == changeset.ElementAdded {
		w.b.Add(changeset.Added(p, elem, pos))
	} else {
		w.b.Add(changeset.Removed(p, elem, pos))
	}
	return nil
}

// elementID interns a sequence element at p: by its identity key if keyed,
// by its content otherwise. Two elements share an id exactly when walking
// them (or their keys) reports no change.
func (w *walker) elementID(p changeset.Path, ed *shape.Descriptor, v reflect.Value, keyed bool, alg listdiff.Algorithm) (uint32, error) {
	prefix := ""
	if keyed {
		v, _ = indirect(v)
		if !v.IsValid() {
			return w.ids.intern("null"), nil
		}
		v = v.FieldByIndex(ed.Identity.Index)
		prefix = "#"
		alg = listdiff.Default
	}
	var b strings.Builder
	b.WriteString(prefix)
	exact, err := w.fingerprint(&b, v)
	if err != nil {
		return 0, err
	}
	if exact {
		return w.ids.intern(b.String()), nil
	}
	return w.ids.internValue(b.String(), v, func(rep reflect.Value) (bool, error) {
		return w.same(p, rep, v, alg)
	})
}

// entry is one key of a map. Its id is the canonical rendering of the
// key's snapshot; keys sharing a snapshot, such as distinct pointers to
// equal values, get an ordinal suffix, in the order of their values'
// renderings when byValue is set.
type entry struct {
	id       string
	key, val reflect.Value
}

func (w *walker) entries(v reflect.Value, byValue bool) (map[string]entry, error) {
	if !v.IsValid() {
		return nil, nil
	}
	groups := map[string][]entry{}
	iter := v.MapRange()
	for iter.Next() {
		ks, err := w.snapshot(iter.Key())
		if err != nil {
			return nil, err
		}
		id := canonical(ks)
		groups[id] = append(groups[id], entry{id: id, key: iter.Key(), val: iter.Value()})
	}
	res := make(map[string]entry, v.Len())
	for id, es := range groups {
		if len(es) > 1 && byValue {
			order := make([]string, len(es))
			for i, e := range es {
				vs, err := w.snapshot(e.val)
				if err != nil {
					return nil, err
				}
				order[i] = canonical(vs)
			}
			idx := make([]int, len(es))
			for i := range idx {
				idx[i] = i
			}
			slices.SortStableFunc(idx, func(i, j int) int {
				return strings.Compare(order[i], order[j])
			})
			sorted := make([]entry, len(es))
			for i, k := range idx {
				sorted[i] = es[k]
			}
			es = sorted
		}
		for i, e := range es {
			if i > 0 {
				e.id = fmt.Sprintf("%s#%d", id, i)
			}
			res[e.id] = e
		}
	}
	return res, nil
}

// segments assigns each entry of ms a path segment: its rendered key,
// qualified by the key's type, then by an ordinal, where distinct keys
// render alike.
func segments(ms ...map[string]entry) map[string]string {
	byKey := map[string][]entry{}
	seen := map[string]bool{}
	for _, m := range ms {
		for id, e := range m {
			if seen[id] {
				continue
			}
			seen[id] = true
			k := keyString(e.key)
			byKey[k] = append(byKey[k], e)
		}
	}
	res := make(map[string]string, len(seen))
	for k, es := range byKey {
		if len(es) == 1 {
			res[es[0].id] = k
			continue
		}
		slices.SortFunc(es, func(a, b entry) int { return strings.Compare(a.id, b.id) })
		perType := map[string]int{}
		for _, e := range es {
			seg := keyType(e.key) + "(" + k + ")"
			if i := perType[seg]; i > 0 {
				res[e.id] = fmt.Sprintf("%s#%d", seg, i)
			} else {
				res[e.id] = seg
			}
			perType[seg]++
		}
	}
	return res
}

func keyType(k reflect.Value) string {
	k, _ = indirect(k)
	if !k.IsValid() {
		return "nil"
	}
	return k.Type().String()
}

// sortedIDs returns the ids of segs ordered by segment, then id.
func sortedIDs(segs map[string]string) []string {
	ids := slices.Collect(maps.Keys(segs))
	slices.SortFunc(ids, func(a, b string) int {
		if c := strings.Compare(segs[a], segs[b]); c != 0 {
			return c
		}
		return strings.Compare(a, b)
	})
	return ids
}

// set compares the keys of two map[K]struct{} values.
func (w *walker) set(p changeset.Path, o, n reflect.Value) error {
	om, err := w.entries(o, false)
	if err != nil {
		return err
	}
	nm, err := w.entries(n, false)
	if err != nil {
		return err
	}
	on := slices.Sorted(maps.Keys(om))
	nn := slices.Sorted(maps.Keys(nm))
	a := make([]uint32, len(on))
	for i, id := range on {
		a[i] = w.ids.intern(id)
	}
	b := make([]uint32, len(nn))
	for j, id := range nn {
		b[j] = w.ids.intern(id)
	}
	for _, op := range listdiff.AsSetOps(a, b) {
		switch op.Kind {
		case listdiff.Insert:
			err = w.element(p, changeset.ElementAdded, nm[nn[op.New]].key, changeset.NoPosition)
		case listdiff.Delete:
			err = w.element(p, changeset.ElementRemoved, om[on[op.Old]].key, changeset.NoPosition)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

func (w *walker) mapping(p changeset.Path, o, n reflect.Value) error {
	om, err := w.entries(o, true)
	if err != nil {
		return err
	}
	nm, err := w.entries(n, true)
	if err != nil {
		return err
	}
	segs := segments(om, nm)
	for _, id := range sortedIDs(segs) {
		var ov, nv reflect.Value
		if e, has := om[id]; has {
			ov = e.val
		}
		if e, has := nm[id]; has {
			nv = e.val
		}
		if err := w.value(p.Key(segs[id]), ov, nv, listdiff.Default); err != nil {
			return err
		}
	}
	return nil
}

func displayPath(p changeset.Path) string {
	if len(p) == 0 {
		return "$"
	}
	return p.String()
}
