package report

import (
	"fmt"

	"github.com/expr-lang/expr"
	"github.com/signadot/objdiff/changeset"
)

// env is the environment of Where expressions.
type env struct {
	Kind        string `expr:"kind"`
	Path        string `expr:"path"`
	Old         any    `expr:"old"`
	New         any    `expr:"new"`
	Element     any    `expr:"element"`
	Position    int    `expr:"position"`
	OldPosition int    `expr:"oldPosition"`
	OldRef      any    `expr:"oldRef"`
	NewRef      any    `expr:"newRef"`
}

// Where returns the changes of cs for which the boolean expression holds,
// for example
//
//	kind == "PropertyChange" && path startsWith "primaryAddress"
//
// Positions are -1 for changes without one.
func Where(cs *changeset.ChangeSet, expression string) (*changeset.ChangeSet, error) {
	prg, err := expr.Compile(expression, expr.Env(env{}), expr.AsBool())
	if err != nil {
		return nil, fmt.Errorf("could not compile %q: %w", expression, err)
	}
	var kept []changeset.Change
	for _, c := range cs.Changes() {
		out, err := expr.Run(prg, env{
			Kind:        c.Kind.String(),
			Path:        c.Path.String(),
			Old:         c.Old,
			New:         c.New,
			Element:     c.Element,
			Position:    c.Position,
			OldPosition: c.OldPosition,
			OldRef:      c.OldRef,
			NewRef:      c.NewRef,
		})
		if err != nil {
			return nil, fmt.Errorf("could not evaluate %q on %s: %w", expression, c, err)
		}
		if out.(bool) {
			kept = append(kept, c)
		}
	}
	return changeset.New(kept...), nil
}
