package listdiff

import (
	"fmt"
	"strings"
)

// Algorithm selects how sequences are compared.
type Algorithm int

const (
	// Default means the configured default algorithm applies.
	Default Algorithm = iota
	Positional
	EditDistance
	AsSet
)

// DefaultMaxEditDistanceLength is the default ceiling on the length of the
// differing part of a sequence compared with [EditDistance].
const DefaultMaxEditDistanceLength = 300

func (a Algorithm) String() string {
	switch a {
	case Default:
		return "default"
	case Positional:
		return "positional"
	case EditDistance:
		return "edit-distance"
	case AsSet:
		return "as-set"
	}
	return fmt.Sprintf("Algorithm(%d)", int(a))
}

// Valid reports whether a names a concrete algorithm.
func (a Algorithm) Valid() bool {
	switch a {
	case Positional, EditDistance, AsSet:
		return true
	}
	return false
}

// ParseAlgorithm parses an algorithm name. Matching is case insensitive and
// accepts the aliases "simple", "levenshtein" and "set".
func ParseAlgorithm(s string) (Algorithm, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "positional", "simple", "index":
		return Positional, nil
	case "edit-distance", "editdistance", "edit_distance", "levenshtein", "levenshtein-distance", "levenshtein_distance":
		return EditDistance, nil
	case "as-set", "asset", "as_set", "set":
		return AsSet, nil
	}
	return Default, fmt.Errorf("unknown list algorithm %q", s)
}

func (a Algorithm) MarshalText() ([]byte, error) {
	if !a.Valid() && a != Default {
		return nil, fmt.Errorf("invalid list algorithm %d", int(a))
	}
	return []byte(a.String()), nil
}

func (a *Algorithm) UnmarshalText(d []byte) error {
	if string(d) == "default" {
		*a = Default
		return nil
	}
	v, err := ParseAlgorithm(string(d))
	if err != nil {
		return err
	}
	*a = v
	return nil
}
