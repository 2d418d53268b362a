package listdiff

import "fmt"

// ComparisonTooLargeError is returned by [EditDistance] when the differing
// part of either sequence exceeds the configured limit. Callers may retry
// with [Positional] or [AsSet].
type ComparisonTooLargeError struct {
	Path   string // set by the caller which knows where the sequence lives
	OldLen int
	NewLen int
	Limit  int
}

func (e *ComparisonTooLargeError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("edit distance comparison too large at %s: %d x %d elements exceeds limit %d", e.Path, e.OldLen, e.NewLen, e.Limit)
	}
	return fmt.Sprintf("edit distance comparison too large: %d x %d elements exceeds limit %d", e.OldLen, e.NewLen, e.Limit)
}
