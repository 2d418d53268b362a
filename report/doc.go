// Package report renders change sets.
//
// A change set can be rendered as a human readable summary, serialized to
// a stable JSON or YAML document and read back, rendered as an RFC 6902
// JSON patch, or filtered with an expression. Rendering never modifies the
// change set.
package report
