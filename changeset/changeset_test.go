package changeset

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func field(names ...string) Path {
	var p Path
	for _, n := range names {
		p = p.Field(n)
	}
	return p
}

func TestChangeString(t *testing.T) {
	tests := []struct {
		c    Change
		want string
	}{
		{Property(field("name"), "foo", "bar"), `~ name: "foo" -> "bar"`},
		{Property(field("age"), nil, int64(3)), `~ age: null -> 3`},
		{Property(nil, int64(1), "x"), `~ $: 1 -> "x"`},
		{Added(field("skills"), "3", 2), `+ skills[2]: "3"`},
		{Added(field("tags"), "a", NoPosition), `+ tags: "a"`},
		{Removed(field("skills"), "1", 0), `- skills[0]: "1"`},
		{Moved(field("items"), int64(2), 1, 0), `> items: 2 moved [1] -> [0]`},
		{Reference(field("primaryAddress"), int64(1), int64(2)), `@ primaryAddress: 1 -> 2`},
		{Reference(field("primaryAddress"), nil, int64(2)), `@ primaryAddress: null -> 2`},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			if got := tt.c.String(); got != tt.want {
				t.Errorf("got %q want %q", got, tt.want)
			}
		})
	}
}

func TestParseKind(t *testing.T) {
	for k := PropertyChange; k <= ReferenceChange; k++ {
		got, err := ParseKind(k.String())
		if err != nil {
			t.Fatal(err)
		}
		if got != k {
			t.Errorf("ParseKind(%q) = %v", k.String(), got)
		}
	}
	if _, err := ParseKind("Renamed"); err == nil {
		t.Error("expected error")
	}
}

func TestBuilderDedupe(t *testing.T) {
	b := NewBuilder()
	if !b.Add(Property(field("name"), "a", "b")) {
		t.Fatal("first add rejected")
	}
	if b.Add(Property(field("name"), "a", "b")) {
		t.Error("duplicate accepted")
	}
	if !b.Add(Property(field("name"), "a", "c")) {
		t.Error("distinct payload rejected")
	}
	if !b.Add(Added(field("name"), "a", 0)) {
		t.Error("distinct kind rejected")
	}
	if b.Len() != 3 {
		t.Errorf("len %d", b.Len())
	}
	cs := b.Build()
	b.Add(Removed(field("x"), 1, 0))
	if cs.Len() != 3 {
		t.Errorf("built set saw later addition: %d", cs.Len())
	}
}

func sample() *ChangeSet {
	return New(
		Property(field("name"), "Frank", "Frankie"),
		Property(field("primaryAddress", "city"), "Springfield", "Shelbyville"),
		Added(field("skills"), "go", 2),
		Property(field("secondaryAddress", "city"), nil, "Ogdenville"),
		Removed(field("skills"), "c", 0),
		Moved(field("items"), int64(7), 1, 0),
		Property(field("items").Index(0).Field("qty"), int64(1), int64(2)),
	)
}

func TestChangeSetQueries(t *testing.T) {
	cs := sample()
	if !cs.HasChanges() || cs.Len() != 7 {
		t.Fatalf("unexpected set %v", cs)
	}

	got := cs.ChangesByPath("skills")
	want := []Change{Added(field("skills"), "go", 2), Removed(field("skills"), "c", 0)}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("ChangesByPath mismatch (-want +got):\n%s", diff)
	}

	cities := cs.PropertyChanges("city")
	if len(cities) != 2 || cities[0].Path.String() != "primaryAddress.city" {
		t.Errorf("PropertyChanges(city) = %v", cities)
	}

	names := cs.ChangedPropertyNames()
	wantNames := []string{"name", "primaryAddress.city", "secondaryAddress.city", "items[0].qty"}
	if diff := cmp.Diff(wantNames, names); diff != "" {
		t.Errorf("ChangedPropertyNames mismatch (-want +got):\n%s", diff)
	}

	under, err := cs.Under("items")
	if err != nil {
		t.Fatal(err)
	}
	if under.Len() != 2 {
		t.Errorf("Under(items) = %v", under)
	}

	if n := len(cs.ByKind(ElementMoved)); n != 1 {
		t.Errorf("ByKind(ElementMoved) = %d", n)
	}
}

func TestChangesIsCopy(t *testing.T) {
	cs := sample()
	cc := cs.Changes()
	cc[0] = Property(field("zzz"), 0, 1)
	if cs.At(0).Path.String() != "name" {
		t.Error("Changes exposed internal storage")
	}
}

func TestEmptySet(t *testing.T) {
	cs := New()
	if cs.HasChanges() {
		t.Error("empty set has changes")
	}
	if cs.Summary() != "" {
		t.Errorf("summary %q", cs.Summary())
	}
	var nilSet *ChangeSet
	if nilSet.HasChanges() || nilSet.Len() != 0 || nilSet.Changes() != nil {
		t.Error("nil set misbehaves")
	}
}

func TestSummary(t *testing.T) {
	cs := New(
		Property(field("name"), "foo", "bar"),
		Removed(field("skills"), "1", 0),
	)
	want := "~ name: \"foo\" -> \"bar\"\n- skills[0]: \"1\""
	if got := cs.Summary(); got != want {
		t.Errorf("got %q want %q", got, want)
	}
}
