package changeset

import (
	"slices"
	"strings"
)

// Builder accumulates changes in discovery order, dropping exact
// duplicates. A Builder is not safe for concurrent use.
type Builder struct {
	changes []Change
	seen    map[string]struct{}
}

func NewBuilder() *Builder {
	return &Builder{seen: map[string]struct{}{}}
}

// Add appends c unless an identical change was already added. It reports
// whether c was appended.
func (b *Builder) Add(c Change) bool {
	key := c.identity()
	if _, dup := b.seen[key]; dup {
		return false
	}
	b.seen[key] = struct{}{}
	b.changes = append(b.changes, c)
	return true
}

func (b *Builder) Len() int {
	return len(b.changes)
}

// Build returns a ChangeSet holding the changes added so far. The builder
// may continue to be used; the returned set does not see later additions.
func (b *Builder) Build() *ChangeSet {
	return newChangeSet(slices.Clone(b.changes))
}

// ChangeSet is an immutable, ordered list of changes.
type ChangeSet struct {
	changes []Change
	byPath  map[string][]int
}

// New builds a ChangeSet from changes, deduplicating them.
func New(changes ...Change) *ChangeSet {
	b := NewBuilder()
	for _, c := range changes {
		b.Add(c)
	}
	return b.Build()
}

func newChangeSet(changes []Change) *ChangeSet {
	cs := &ChangeSet{changes: changes, byPath: make(map[string][]int, len(changes))}
	for i, c := range changes {
		p := c.Path.String()
		cs.byPath[p] = append(cs.byPath[p], i)
	}
	return cs
}

func (cs *ChangeSet) HasChanges() bool {
	return cs != nil && len(cs.changes) != 0
}

func (cs *ChangeSet) Len() int {
	if cs == nil {
		return 0
	}
	return len(cs.changes)
}

// Changes returns the changes in discovery order.
func (cs *ChangeSet) Changes() []Change {
	if cs == nil {
		return nil
	}
	return slices.Clone(cs.changes)
}

// At returns the i'th change.
func (cs *ChangeSet) At(i int) Change {
	return cs.changes[i]
}

// ChangesByPath returns the changes whose path renders exactly as path.
func (cs *ChangeSet) ChangesByPath(path string) []Change {
	if cs == nil {
		return nil
	}
	idxs := cs.byPath[path]
	res := make([]Change, len(idxs))
	for i, j := range idxs {
		res[i] = cs.changes[j]
	}
	return res
}

// Under returns the changes at prefix or below it.
func (cs *ChangeSet) Under(prefix string) (*ChangeSet, error) {
	p, err := ParsePath(prefix)
	if err != nil {
		return nil, err
	}
	return cs.Filter(func(c Change) bool {
		return c.Path.HasPrefix(p)
	}), nil
}

// ByKind returns the changes of kind k.
func (cs *ChangeSet) ByKind(k Kind) []Change {
	return cs.Filter(func(c Change) bool { return c.Kind == k }).changes
}

// Filter returns the changes for which keep returns true, in order.
func (cs *ChangeSet) Filter(keep func(Change) bool) *ChangeSet {
	var res []Change
	for _, c := range cs.Changes() {
		if keep(c) {
			res = append(res, c)
		}
	}
	return newChangeSet(res)
}

// PropertyChanges returns the property changes of fields named name at any
// depth, e.g. "city" matches primaryAddress.city.
func (cs *ChangeSet) PropertyChanges(name string) []Change {
	return cs.Filter(func(c Change) bool {
		if c.Kind != PropertyChange {
			return false
		}
		s, ok := c.Path.Last()
		return ok && s.Kind == FieldStep && s.Name == name
	}).changes
}

// ChangedPropertyNames returns the distinct paths of property changes in
// order.
func (cs *ChangeSet) ChangedPropertyNames() []string {
	var res []string
	seen := map[string]bool{}
	for _, c := range cs.Changes() {
		if c.Kind != PropertyChange {
			continue
		}
		p := c.Path.String()
		if seen[p] {
			continue
		}
		seen[p] = true
		res = append(res, p)
	}
	return res
}

// Summary renders one line per change.
func (cs *ChangeSet) Summary() string {
	lines := make([]string, 0, cs.Len())
	for _, c := range cs.Changes() {
		lines = append(lines, c.String())
	}
	return strings.Join(lines, "\n")
}

func (cs *ChangeSet) String() string {
	return cs.Summary()
}
