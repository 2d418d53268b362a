// Package listdiff aligns two sequences of interned element ids.
//
// Elements are compared by id only: callers map each element to a uint32
// such that equal elements share an id (see the walk package). Three
// algorithms are provided:
//
//   - [Positional] pairs element i of the old sequence with element i of
//     the new one. Trailing elements are inserted or deleted. O(n).
//   - [EditDistance] computes a Levenshtein alignment and reports the
//     minimal set of inserts, deletes and moves. O(n·m) time and space on
//     the part of the sequences which differs, which degrades quickly beyond
//     a few hundred elements; a limit guards against pathological inputs.
//   - [AsSet] compares the distinct ids of both sequences. Order and
//     duplicate counts are invisible.
//
// # Related Packages
//
//   - github.com/signadot/objdiff/walk - turns element values into ids and
//     ops into change records
package listdiff
