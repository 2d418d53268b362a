package shape

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestParseTag(t *testing.T) {
	tests := []struct {
		tag  string
		want map[string]string
		err  bool
	}{
		{tag: "", want: map[string]string{}},
		{tag: "-", want: map[string]string{"-": ""}},
		{tag: "id", want: map[string]string{"id": ""}},
		{tag: "algo=levenshtein, name=addr", want: map[string]string{"algo": "levenshtein", "name": "addr"}},
		{tag: "name='home, sweet home'", want: map[string]string{"name": "home, sweet home"}},
		{tag: `name="x"`, want: map[string]string{"name": "x"}},
		{tag: "ignore,,", want: map[string]string{"ignore": ""}},
		{tag: "id,id", err: true},
		{tag: "=x", err: true},
		{tag: "name='open", err: true},
	}
	for _, tt := range tests {
		got, err := parseTag(tt.tag)
		if tt.err {
			if err == nil {
				t.Errorf("parseTag(%q): expected error, got %v", tt.tag, got)
			}
			continue
		}
		if err != nil {
			t.Errorf("parseTag(%q): %v", tt.tag, err)
			continue
		}
		if diff := cmp.Diff(tt.want, got); diff != "" {
			t.Errorf("parseTag(%q) mismatch (-want +got):\n%s", tt.tag, diff)
		}
	}
}
