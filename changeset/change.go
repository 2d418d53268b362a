package changeset

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Kind is the kind of a Change.
type Kind int

const (
	PropertyChange Kind = iota
	ElementAdded
	ElementRemoved
	ElementMoved
	ReferenceChange
)

var kindNames = [...]string{
	PropertyChange:  "PropertyChange",
	ElementAdded:    "ElementAdded",
	ElementRemoved:  "ElementRemoved",
	ElementMoved:    "ElementMoved",
	ReferenceChange: "ReferenceChange",
}

func (k Kind) String() string {
	if k >= 0 && int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// ParseKind is the inverse of Kind.String.
func ParseKind(s string) (Kind, error) {
	for k, n := range kindNames {
		if n == s {
			return Kind(k), nil
		}
	}
	return 0, fmt.Errorf("unknown change kind %q", s)
}

// NoPosition marks an element change without a position, as produced by
// set comparisons.
const NoPosition = -1

// Change is one detected difference.
type Change struct {
	Kind Kind
	Path Path

	Old, New any

	Element     any
	Position    int
	OldPosition int

	OldRef, NewRef any
}

func Property(p Path, old, new any) Change {
	return Change{Kind: PropertyChange, Path: p, Old: old, New: new, Position: NoPosition, OldPosition: NoPosition}
}

func Added(p Path, elem any, pos int) Change {
	return Change{Kind: ElementAdded, Path: p, Element: elem, Position: pos, OldPosition: NoPosition}
}

func Removed(p Path, elem any, pos int) Change {
	return Change{Kind: ElementRemoved, Path: p, Element: elem, Position: pos, OldPosition: NoPosition}
}

func Moved(p Path, elem any, from, to int) Change {
	return Change{Kind: ElementMoved, Path: p, Element: elem, Position: to, OldPosition: from}
}

func Reference(p Path, oldRef, newRef any) Change {
	return Change{Kind: ReferenceChange, Path: p, OldRef: oldRef, NewRef: newRef, Position: NoPosition, OldPosition: NoPosition}
}

// HasPosition reports whether an element change carries a position.
func (c Change) HasPosition() bool {
	return c.Position != NoPosition
}

// String renders c on one line:
//
//	~ name: "foo" -> "bar"
//	+ skills[2]: "3"
//	- skills: "1"
//	> items: 2 moved [1] -> [0]
//	@ primaryAddress: 1 -> 2
func (c Change) String() string {
	switch c.Kind {
	case PropertyChange:
		return fmt.Sprintf("~ %s: %s -> %s", displayPath(c.Path), FormatValue(c.Old), FormatValue(c.New))
	case ElementAdded:
		return fmt.Sprintf("+ %s: %s", c.elementPath(), FormatValue(c.Element))
	case ElementRemoved:
		return fmt.Sprintf("- %s: %s", c.elementPath(), FormatValue(c.Element))
	case ElementMoved:
		return fmt.Sprintf("> %s: %s moved [%d] -> [%d]", displayPath(c.Path), FormatValue(c.Element), c.OldPosition, c.Position)
	case ReferenceChange:
		return fmt.Sprintf("@ %s: %s -> %s", displayPath(c.Path), FormatValue(c.OldRef), FormatValue(c.NewRef))
	}
	return fmt.Sprintf("? %s", displayPath(c.Path))
}

func (c Change) elementPath() string {
	if c.HasPosition() {
		return displayPath(c.Path.Index(c.Position))
	}
	return displayPath(c.Path)
}

func displayPath(p Path) string {
	if len(p) == 0 {
		return "$"
	}
	return p.String()
}

// FormatValue renders a payload value as compact JSON, falling back to %v
// for values JSON cannot represent.
func FormatValue(v any) string {
	d, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprintf("%v", v)
	}
	return string(d)
}

// identity is the deduplication key of c.
func (c Change) identity() string {
	var b strings.Builder
	b.WriteString(c.Kind.String())
	b.WriteByte(0)
	b.WriteString(c.Path.String())
	for _, v := range []any{c.Old, c.New, c.Element, c.Position, c.OldPosition, c.OldRef, c.NewRef} {
		b.WriteByte(0)
		b.WriteString(FormatValue(v))
	}
	return b.String()
}
