package shape

import (
	"encoding/json"
	"errors"
	"reflect"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/signadot/objdiff/listdiff"
)

type address struct {
	ID     int    `diff:"id"`
	City   string `json:"city"`
	Street string `json:"street,omitempty"`
}

type employee struct {
	Name         string
	Salary       int
	Age          int        `diff:"name=years"`
	Subordinates []employee `diff:"algo=levenshtein"`
	Address      *address
	Skills       map[string]struct{}
	SkillsIgnore map[string]struct{} `diff:"ignore"`
	Labels       map[string]string
	Any          any
	When         time.Time
	Raw          json.RawMessage
	Photo        []byte

	secret string
}

type fieldSummary struct {
	Name    string
	GoName  string
	Index   []int
	Kind    Kind
	Ignored bool
	Algo    listdiff.Algorithm
}

func summarize(d *Descriptor) []fieldSummary {
	res := make([]fieldSummary, len(d.Fields))
	for i, f := range d.Fields {
		res[i] = fieldSummary{
			Name:    f.Name,
			GoName:  f.GoName,
			Index:   f.Index,
			Kind:    f.Kind,
			Ignored: f.Policy.Ignored,
			Algo:    f.Policy.Algorithm,
		}
	}
	return res
}

func TestResolveRecord(t *testing.T) {
	r := NewResolver()
	d, err := r.Resolve(reflect.TypeFor[employee]())
	if err != nil {
		t.Fatal(err)
	}
	if d.Kind != Record {
		t.Errorf("expected Record, got %s", d.Kind)
	}
	if d.Identity != nil {
		t.Errorf("unexpected identity %s", d.Identity.Name)
	}
	want := []fieldSummary{
		{Name: "Name", GoName: "Name", Index: []int{0}, Kind: Scalar},
		{Name: "Salary", GoName: "Salary", Index: []int{1}, Kind: Scalar},
		{Name: "years", GoName: "Age", Index: []int{2}, Kind: Scalar},
		{Name: "Subordinates", GoName: "Subordinates", Index: []int{3}, Kind: Sequence, Algo: listdiff.EditDistance},
		{Name: "Address", GoName: "Address", Index: []int{4}, Kind: Reference},
		{Name: "Skills", GoName: "Skills", Index: []int{5}, Kind: Set},
		{Name: "SkillsIgnore", GoName: "SkillsIgnore", Index: []int{6}, Kind: Set, Ignored: true},
		{Name: "Labels", GoName: "Labels", Index: []int{7}, Kind: Map},
		{Name: "Any", GoName: "Any", Index: []int{8}, Kind: Dynamic},
		{Name: "When", GoName: "When", Index: []int{9}, Kind: Scalar},
		{Name: "Raw", GoName: "Raw", Index: []int{10}, Kind: Scalar},
		{Name: "Photo", GoName: "Photo", Index: []int{11}, Kind: Scalar},
	}
	if diff := cmp.Diff(want, summarize(d)); diff != "" {
		t.Errorf("fields mismatch (-want +got):\n%s", diff)
	}
	if n := len(d.Compared()); n != len(want)-1 {
		t.Errorf("expected %d compared fields, got %d", len(want)-1, n)
	}
	if f, ok := d.Field("years"); !ok || f.GoName != "Age" {
		t.Errorf("lookup by segment failed: %v %v", f, ok)
	}
	if f, ok := d.Field("Age"); !ok || f.Name != "years" {
		t.Errorf("lookup by Go name failed: %v %v", f, ok)
	}
}

func TestResolveScalarKinds(t *testing.T) {
	r := NewResolver()
	tests := []struct {
		v    any
		kind Kind
		sk   ScalarKind
	}{
		{1, Scalar, BasicScalar},
		{"s", Scalar, BasicScalar},
		{3.5, Scalar, BasicScalar},
		{[]byte("x"), Scalar, BytesScalar},
		{[4]byte{}, Scalar, BytesScalar},
		{json.RawMessage(`{}`), Scalar, JSONScalar},
		{time.Now(), Scalar, EqualScalar},
		{[]int{1}, Sequence, 0},
		{[2]string{}, Sequence, 0},
		{map[int]struct{}{}, Set, 0},
		{map[string]int{}, Map, 0},
		{&address{}, Reference, 0},
	}
	for _, tt := range tests {
		d, err := r.ResolveValue(tt.v)
		if err != nil {
			t.Errorf("%T: %v", tt.v, err)
			continue
		}
		if d.Kind != tt.kind {
			t.Errorf("%T: kind %s, want %s", tt.v, d.Kind, tt.kind)
		}
		if d.Kind == Scalar && d.Scalar != tt.sk {
			t.Errorf("%T: scalar kind %d, want %d", tt.v, d.Scalar, tt.sk)
		}
	}
}

type Base struct {
	ID      string `diff:"id"`
	Created int
}

type document struct {
	Base
	Title string
}

func TestResolveEmbedded(t *testing.T) {
	r := NewResolver()
	d, err := r.Resolve(reflect.TypeFor[document]())
	if err != nil {
		t.Fatal(err)
	}
	if d.Kind != Reference {
		t.Fatalf("expected Reference, got %s", d.Kind)
	}
	if d.Identity == nil || d.Identity.Name != "ID" {
		t.Fatalf("unexpected identity %+v", d.Identity)
	}
	want := []fieldSummary{
		{Name: "ID", GoName: "ID", Index: []int{0, 0}, Kind: Scalar},
		{Name: "Created", GoName: "Created", Index: []int{0, 1}, Kind: Scalar},
		{Name: "Title", GoName: "Title", Index: []int{1}, Kind: Scalar},
	}
	if diff := cmp.Diff(want, summarize(d)); diff != "" {
		t.Errorf("fields mismatch (-want +got):\n%s", diff)
	}
}

type location struct {
	City string
	zip  string
}

type office struct {
	location
	Name string
}

type hidden struct {
	n int
}

type onlyHidden struct {
	hidden
}

type Version struct {
	Major, Minor int
}

func (v Version) Equal(o Version) bool {
	return v.Major == o.Major
}

type release struct {
	Version
	Note string
}

func TestResolveUnexportedEmbedded(t *testing.T) {
	r := NewResolver()
	d, err := r.Resolve(reflect.TypeFor[office]())
	if err != nil {
		t.Fatal(err)
	}
	want := []fieldSummary{
		{Name: "City", GoName: "City", Index: []int{0, 0}, Kind: Scalar},
		{Name: "Name", GoName: "Name", Index: []int{1}, Kind: Scalar},
	}
	if diff := cmp.Diff(want, summarize(d)); diff != "" {
		t.Errorf("fields mismatch (-want +got):\n%s", diff)
	}

	_, err = r.Resolve(reflect.TypeFor[onlyHidden]())
	var use *UnsupportedShapeError
	if !errors.As(err, &use) {
		t.Errorf("expected UnsupportedShapeError for a struct with nothing to compare, got %v", err)
	}

	d, err = r.Resolve(reflect.TypeFor[release]())
	if err != nil {
		t.Fatal(err)
	}
	want = []fieldSummary{
		{Name: "Version", GoName: "Version", Index: []int{0}, Kind: Scalar},
		{Name: "Note", GoName: "Note", Index: []int{1}, Kind: Scalar},
	}
	if diff := cmp.Diff(want, summarize(d)); diff != "" {
		t.Errorf("embedded scalar fields mismatch (-want +got):\n%s", diff)
	}
}

type withChan struct {
	C chan int
}

type withIgnoredChan struct {
	C chan int `diff:"-"`
	N int
}

type opaque struct {
	n int
}

type badAlgo struct {
	N []int `diff:"algo=fuzzy"`
}

type algoOnScalar struct {
	N int `diff:"algo=as-set"`
}

type twoIDs struct {
	A int `diff:"id"`
	B int `diff:"id"`
}

type sliceID struct {
	A []int `diff:"id"`
}

type ignoredID struct {
	A int `diff:"id,ignore"`
}

type dupNames struct {
	A int `diff:"name=x"`
	B int `json:"x"`
}

type unknownOpt struct {
	A int `diff:"deep"`
}

func TestResolveErrors(t *testing.T) {
	r := NewResolver()
	unsupported := []any{withChan{}, opaque{}, func() {}, make(chan int)}
	for _, v := range unsupported {
		_, err := r.ResolveValue(v)
		var use *UnsupportedShapeError
		if !errors.As(err, &use) {
			t.Errorf("%T: expected UnsupportedShapeError, got %v", v, err)
		}
	}
	_, err := r.ResolveValue(withChan{})
	var use *UnsupportedShapeError
	if errors.As(err, &use) && use.Path != "shape.withChan.C" {
		t.Errorf("unexpected path %q", use.Path)
	}

	if _, err := r.ResolveValue(withIgnoredChan{}); err != nil {
		t.Errorf("ignored unsupported field should resolve: %v", err)
	}

	bad := []any{badAlgo{}, algoOnScalar{}, twoIDs{}, sliceID{}, ignoredID{}, dupNames{}, unknownOpt{}}
	for _, v := range bad {
		_, err := r.ResolveValue(v)
		var te *TagError
		if !errors.As(err, &te) {
			t.Errorf("%T: expected TagError, got %v", v, err)
		}
	}

	if _, err := r.ResolveValue(nil); err == nil {
		t.Error("expected error for nil")
	}
}

type external struct {
	Key   string
	Cache int
	Items []int
}

type sealed struct {
	v int
}

func TestRegister(t *testing.T) {
	r := NewResolver()
	err := r.Register(reflect.TypeFor[external](), Manifest{
		Identity:   "Key",
		Ignore:     []string{"Cache"},
		Algorithms: map[string]listdiff.Algorithm{"Items": listdiff.AsSet},
	})
	if err != nil {
		t.Fatal(err)
	}
	d, err := r.Resolve(reflect.TypeFor[*external]())
	if err != nil {
		t.Fatal(err)
	}
	if d.Kind != Reference || d.Identity == nil || d.Identity.GoName != "Key" {
		t.Errorf("unexpected descriptor kind %s identity %+v", d.Kind, d.Identity)
	}
	want := []fieldSummary{
		{Name: "Key", GoName: "Key", Index: []int{0}, Kind: Scalar},
		{Name: "Cache", GoName: "Cache", Index: []int{1}, Kind: Scalar, Ignored: true},
		{Name: "Items", GoName: "Items", Index: []int{2}, Kind: Sequence, Algo: listdiff.AsSet},
	}
	if diff := cmp.Diff(want, summarize(d)); diff != "" {
		t.Errorf("fields mismatch (-want +got):\n%s", diff)
	}

	err = r.Register(reflect.TypeFor[external](), Manifest{Ignore: []string{"Nope"}})
	var te *TagError
	if !errors.As(err, &te) {
		t.Errorf("expected TagError for unknown field, got %v", err)
	}
	// the failed registration leaves the previous manifest in place
	d, err = r.Resolve(reflect.TypeFor[external]())
	if err != nil || d.Kind != Reference {
		t.Errorf("previous manifest lost: %v %v", d, err)
	}

	if err := r.Register(reflect.TypeFor[sealed](), Manifest{Scalar: true}); err != nil {
		t.Fatal(err)
	}
	d, err = r.ResolveValue(sealed{})
	if err != nil {
		t.Fatal(err)
	}
	if d.Kind != Scalar || d.Scalar != OpaqueScalar {
		t.Errorf("expected opaque scalar, got %s/%d", d.Kind, d.Scalar)
	}
}

type shaped struct {
	Items []int
	Note  string
}

func (shaped) DiffShape() Manifest {
	return Manifest{
		Ignore:     []string{"Note"},
		Algorithms: map[string]listdiff.Algorithm{"Items": listdiff.AsSet},
	}
}

func TestShaper(t *testing.T) {
	d, err := NewResolver().ResolveValue(shaped{})
	if err != nil {
		t.Fatal(err)
	}
	want := []fieldSummary{
		{Name: "Items", GoName: "Items", Index: []int{0}, Kind: Sequence, Algo: listdiff.AsSet},
		{Name: "Note", GoName: "Note", Index: []int{1}, Kind: Scalar, Ignored: true},
	}
	if diff := cmp.Diff(want, summarize(d)); diff != "" {
		t.Errorf("fields mismatch (-want +got):\n%s", diff)
	}
}

type cachedOnce struct {
	A int
}

func TestResolveCache(t *testing.T) {
	r := NewResolver()
	misses := testutil.ToFloat64(resolutions.WithLabelValues("miss"))
	hits := testutil.ToFloat64(resolutions.WithLabelValues("hit"))

	d1, err := r.Resolve(reflect.TypeFor[cachedOnce]())
	if err != nil {
		t.Fatal(err)
	}
	d2, err := r.Resolve(reflect.TypeFor[*cachedOnce]())
	if err != nil {
		t.Fatal(err)
	}
	if d1 != d2 {
		t.Error("expected cached descriptor to be reused")
	}
	if got := testutil.ToFloat64(resolutions.WithLabelValues("miss")) - misses; got != 1 {
		t.Errorf("expected 1 miss, got %v", got)
	}
	if got := testutil.ToFloat64(resolutions.WithLabelValues("hit")) - hits; got < 1 {
		t.Errorf("expected at least 1 hit, got %v", got)
	}
}

func TestResolveConcurrent(t *testing.T) {
	r := NewResolver()
	types := []reflect.Type{
		reflect.TypeFor[employee](),
		reflect.TypeFor[address](),
		reflect.TypeFor[document](),
		reflect.TypeFor[[]employee](),
	}
	const workers = 16
	got := make([][]*Descriptor, workers)
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for _, typ := range types {
				d, err := r.Resolve(typ)
				if err != nil {
					t.Error(err)
					return
				}
				got[w] = append(got[w], d)
			}
		}(w)
	}
	wg.Wait()
	for w := 1; w < workers; w++ {
		for i := range types {
			if got[w][i] != got[0][i] {
				t.Errorf("worker %d saw a different descriptor for %v", w, types[i])
			}
		}
	}
}
