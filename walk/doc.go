// Package walk compares two object graphs value by value.
//
// Values are decomposed with the descriptors of a [shape.Resolver].
// Records are compared field by field in declaration order, identity keyed
// records short circuit to a single reference change when their keys
// differ, sequences are aligned with [listdiff] and maps are walked key by
// key in sorted order. Every difference is recorded in a
// [changeset.Builder], so the resulting change set is in discovery order.
package walk
