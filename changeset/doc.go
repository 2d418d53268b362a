// Package changeset holds the result of a comparison.
//
// A [ChangeSet] is an ordered, deduplicated list of [Change] records in the
// order the walker discovered them: fields in declaration order, depth
// first. A ChangeSet is never modified once built and may be queried
// concurrently.
//
// A Change is a tagged variant: Kind selects which payload fields are
// meaningful.
//
//   - PropertyChange: Path, Old, New
//   - ElementAdded, ElementRemoved: Path, Element, Position
//   - ElementMoved: Path, Element, OldPosition, Position
//   - ReferenceChange: Path, OldRef, NewRef
//
// Payload values are plain snapshots (nil, bool, int64, uint64, float64,
// string, []any, map[string]any) which must not be modified.
package changeset
