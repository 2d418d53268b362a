package changeset

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestPathString(t *testing.T) {
	tests := []struct {
		path Path
		want string
	}{
		{nil, ""},
		{Path{}.Field("name"), "name"},
		{Path{}.Field("primaryAddress").Field("city"), "primaryAddress.city"},
		{Path{}.Field("skills").Index(2), "skills[2]"},
		{Path{}.Field("items").Index(0).Field("sku"), "items[0].sku"},
		{Path{}.Field("labels").Key("env"), "labels[env]"},
		{Path{}.Field("labels").Key("a.b"), `labels["a.b"]`},
		{Path{}.Field("labels").Key("12"), `labels["12"]`},
		{Path{}.Field("labels").Key(""), `labels[""]`},
		{Path{}.Key("top"), "[top]"},
		{Path{}.Index(1).Index(0), "[1][0]"},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			if got := tt.path.String(); got != tt.want {
				t.Errorf("got %q want %q", got, tt.want)
			}
		})
	}
}

func TestParsePathRoundTrip(t *testing.T) {
	paths := []Path{
		nil,
		Path{}.Field("name"),
		Path{}.Field("primaryAddress").Field("city"),
		Path{}.Field("skills").Index(2),
		Path{}.Field("items").Index(10).Field("sku"),
		Path{}.Field("labels").Key("env"),
		Path{}.Field("labels").Key("a.b").Field("x"),
		Path{}.Field("labels").Key("12"),
		Path{}.Field("labels").Key(`say "hi"`),
		Path{}.Key("top").Index(3),
	}
	for _, p := range paths {
		s := p.String()
		got, err := ParsePath(s)
		if err != nil {
			t.Errorf("ParsePath(%q): %v", s, err)
			continue
		}
		if got.String() != s {
			t.Errorf("ParsePath(%q).String() = %q", s, got.String())
		}
		if diff := cmp.Diff(p, got, cmp.Comparer(func(a, b Path) bool { return a.String() == b.String() && len(a) == len(b) })); diff != "" {
			t.Errorf("ParsePath(%q) mismatch (-want +got):\n%s", s, diff)
		}
	}
}

func TestParsePathErrors(t *testing.T) {
	for _, s := range []string{".a", "a[", `a["x`, `a["x"`, "a..b", "a]b[0"} {
		if _, err := ParsePath(s); err == nil {
			t.Errorf("ParsePath(%q): expected error", s)
		}
	}
}

func TestPathImmutable(t *testing.T) {
	base := make(Path, 0, 8).Field("a")
	x := base.Field("x")
	y := base.Field("y")
	if x.String() != "a.x" || y.String() != "a.y" {
		t.Errorf("sibling paths share storage: %s %s", x, y)
	}
}

func TestPathHasPrefix(t *testing.T) {
	p := Path{}.Field("items").Index(2).Field("qty")
	if !p.HasPrefix(Path{}.Field("items")) {
		t.Error("items should prefix items[2].qty")
	}
	if !p.HasPrefix(nil) {
		t.Error("root prefixes everything")
	}
	if p.HasPrefix(Path{}.Field("items").Index(1)) {
		t.Error("items[1] does not prefix items[2].qty")
	}
}

func TestPathPointer(t *testing.T) {
	p := Path{}.Field("labels").Key("a/b~c").Field("list").Index(3)
	if got, want := p.Pointer(), "/labels/a~1b~0c/list/3"; got != want {
		t.Errorf("got %q want %q", got, want)
	}
	if got := Path(nil).Pointer(); got != "" {
		t.Errorf("root pointer %q", got)
	}
}
