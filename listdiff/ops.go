package listdiff

import "fmt"

// OpKind is the kind of an alignment operation.
type OpKind int

const (
	// Match pairs an old element with a new one. The ids may differ under
	// Positional, and may be identity ids whose content differs, so callers
	// decide whether the pair needs a deeper comparison.
	Match OpKind = iota
	Insert
	Delete
	Move
)

func (k OpKind) String() string {
	switch k {
	case Match:
		return "match"
	case Insert:
		return "insert"
	case Delete:
		return "delete"
	case Move:
		return "move"
	}
	return fmt.Sprintf("OpKind(%d)", int(k))
}

// NoIndex marks an index which does not apply to an op.
const NoIndex = -1

// Op is one alignment step. Old indexes the old sequence, New the new one.
// Insert has Old == NoIndex and Delete has New == NoIndex.
type Op struct {
	Kind OpKind
	Old  int
	New  int
}

func (op Op) String() string {
	return fmt.Sprintf("%s(%d,%d)", op.Kind, op.Old, op.New)
}

// Diff dispatches to the algorithm alg. limit only applies to EditDistance.
func Diff(alg Algorithm, a, b []uint32, limit int) ([]Op, error) {
	switch alg {
	case Positional:
		return PositionalOps(a, b), nil
	case EditDistance:
		return EditDistanceOps(a, b, limit)
	case AsSet:
		return AsSetOps(a, b), nil
	}
	return nil, fmt.Errorf("cannot diff with list algorithm %s", alg)
}

// PositionalOps pairs a[i] with b[i] and reports trailing elements of the
// longer sequence as deleted or inserted.
func PositionalOps(a, b []uint32) []Op {
	n := max(len(a), len(b))
	res := make([]Op, 0, n)
	for i := 0; i < n; i++ {
		switch {
		case i < len(a) && i < len(b):
			res = append(res, Op{Kind: Match, Old: i, New: i})
		case i < len(a):
			res = append(res, Op{Kind: Delete, Old: i, New: NoIndex})
		default:
			res = append(res, Op{Kind: Insert, Old: NoIndex, New: i})
		}
	}
	return res
}

// AsSetOps compares the distinct ids of a and b. The first occurrence of an
// id present on both sides is reported as a Match, ids only in a as Delete
// (in order of a) followed by ids only in b as Insert (in order of b).
func AsSetOps(a, b []uint32) []Op {
	inB := make(map[uint32]int, len(b))
	for j, id := range b {
		if _, ok := inB[id]; !ok {
			inB[id] = j
		}
	}
	seen := make(map[uint32]bool, len(a))
	var res []Op
	for i, id := range a {
		if seen[id] {
			continue
		}
		seen[id] = true
		if j, ok := inB[id]; ok {
			res = append(res, Op{Kind: Match, Old: i, New: j})
			continue
		}
		res = append(res, Op{Kind: Delete, Old: i, New: NoIndex})
	}
	for j, id := range b {
		if seen[id] {
			continue
		}
		seen[id] = true
		res = append(res, Op{Kind: Insert, Old: NoIndex, New: j})
	}
	return res
}
