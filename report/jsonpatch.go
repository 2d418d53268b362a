package report

import (
	"cmp"
	"encoding/json"
	"errors"
	"fmt"
	"slices"

	jsonpatch "github.com/evanphx/json-patch"
	"github.com/signadot/objdiff/changeset"
)

// ErrNotPatchable is returned for change sets holding changes which have
// no JSON patch equivalent: reference changes, unpositioned element changes
// and changes of the root value.
var ErrNotPatchable = errors.New("change cannot be expressed as a JSON patch")

// patchUnit is a group of patch operations applied together.
type patchUnit struct {
	depth int
	ops   []map[string]any
}

// JSONPatch renders cs as an RFC 6902 patch which transforms the JSON
// rendering of the old value into that of the new value.
//
// Element changes of one sequence are applied together: removals in
// descending old position, then additions in ascending new position, with
// moves split into a removal and an addition. Shallower changes are applied
// before deeper ones, so that changes inside elements address their new
// positions.
func JSONPatch(cs *changeset.ChangeSet) ([]byte, error) {
	var units []*patchUnit
	seqs := map[string]*seqGroup{}
	var seqOrder []string
	for _, c := range cs.Changes() {
		switch c.Kind {
		case changeset.PropertyChange:
			op, err := propertyOp(c)
			if err != nil {
				return nil, err
			}
			units = append(units, &patchUnit{depth: len(c.Path), ops: []map[string]any{op}})
		case changeset.ElementAdded, changeset.ElementRemoved, changeset.ElementMoved:
			if !c.HasPosition() {
				return nil, fmt.Errorf("%w: %s", ErrNotPatchable, c)
			}
			key := c.Path.Pointer()
			g := seqs[key]
			if g == nil {
				g = &seqGroup{path: c.Path}
				seqs[key] = g
				seqOrder = append(seqOrder, key)
				units = append(units, &patchUnit{depth: len(c.Path)})
				g.unit = units[len(units)-1]
			}
			g.add(c)
		default:
			return nil, fmt.Errorf("%w: %s", ErrNotPatchable, c)
		}
	}
	for _, key := range seqOrder {
		seqs[key].render()
	}
	slices.SortStableFunc(units, func(a, b *patchUnit) int {
		return cmp.Compare(a.depth, b.depth)
	})
	ops := []map[string]any{}
	for _, u := range units {
		ops = append(ops, u.ops...)
	}
	d, err := json.Marshal(ops)
	if err != nil {
		return nil, err
	}
	if _, err := jsonpatch.DecodePatch(d); err != nil {
		return nil, fmt.Errorf("invalid patch: %w", err)
	}
	return d, nil
}

func propertyOp(c changeset.Change) (map[string]any, error) {
	last, ok := c.Path.Last()
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotPatchable, c)
	}
	p := c.Path.Pointer()
	if last.Kind == changeset.KeyStep {
		switch {
		case c.Old == nil && c.New != nil:
			return map[string]any{"op": "add", "path": p, "value": c.New}, nil
		case c.New == nil:
			return map[string]any{"op": "remove", "path": p}, nil
		}
	}
	return map[string]any{"op": "replace", "path": p, "value": c.New}, nil
}

type seqElem struct {
	pos  int
	elem any
}

type seqGroup struct {
	path     changeset.Path
	unit     *patchUnit
	removals []int
	adds     []seqElem
}

func (g *seqGroup) add(c changeset.Change) {
	switch c.Kind {
	case changeset.ElementRemoved:
		g.removals = append(g.removals, c.Position)
	case changeset.ElementAdded:
		g.adds = append(g.adds, seqElem{pos: c.Position, elem: c.Element})
	case changeset.ElementMoved:
		g.removals = append(g.removals, c.OldPosition)
		g.adds = append(g.adds, seqElem{pos: c.Position, elem: c.Element})
	}
}

func (g *seqGroup) render() {
	slices.SortFunc(g.removals, func(a, b int) int { return cmp.Compare(b, a) })
	slices.SortStableFunc(g.adds, func(a, b seqElem) int { return cmp.Compare(a.pos, b.pos) })
	for _, i := range g.removals {
		g.unit.ops = append(g.unit.ops, map[string]any{"op": "remove", "path": g.path.Index(i).Pointer()})
	}
	for _, a := range g.adds {
		g.unit.ops = append(g.unit.ops, map[string]any{"op": "add", "path": g.path.Index(a.pos).Pointer(), "value": a.elem})
	}
}

// Apply applies the JSON patch rendering of cs to the JSON document old.
func Apply(cs *changeset.ChangeSet, old []byte) ([]byte, error) {
	d, err := JSONPatch(cs)
	if err != nil {
		return nil, err
	}
	patch, err := jsonpatch.DecodePatch(d)
	if err != nil {
		return nil, err
	}
	return patch.Apply(old)
}
