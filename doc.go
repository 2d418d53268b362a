// Package objdiff compares two snapshots of a Go object graph and reports
// what changed as an ordered change set.
//
// The structure of compared types is derived by reflection and may be
// refined with struct tags:
//
//	type Employee struct {
//		Name           string              `json:"name"`
//		PrimaryAddress *Address            `json:"primaryAddress"`
//		Skills         []string            `json:"skills" diff:"algo=edit-distance"`
//		Notes          map[string]struct{} `diff:"ignore"`
//	}
//
//	type Address struct {
//		ID   int    `diff:"id"`
//		City string `json:"city"`
//	}
//
// A field tagged `diff:"id"` makes its struct identity keyed: when two
// such records have different keys they are reported as a single
// reference change instead of being compared field by field. Types may
// also declare their shape with a [shape.Manifest], either by registering
// it or by implementing [shape.Shaper].
//
// Sequences are compared positionally, by edit distance or as sets, per
// field or by default. Change sets can be rendered and queried with
// package report.
package objdiff
