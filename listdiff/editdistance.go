package listdiff

// EditDistanceOps aligns a and b with a Levenshtein alignment.
//
// Common prefixes and suffixes are matched directly; the dynamic program
// only runs on the differing core, and limit (if positive) bounds the length
// of that core on either side. Substitutions are reported as a Delete
// followed by an Insert. Finally, a Delete and an Insert of the same id are
// combined into a Move: duplicates are interchangeable by value and are
// paired in order of appearance.
func EditDistanceOps(a, b []uint32, limit int) ([]Op, error) {
	pre := 0
	for pre < len(a) && pre < len(b) && a[pre] == b[pre] {
		pre++
	}
	suf := 0
	for suf < len(a)-pre && suf < len(b)-pre && a[len(a)-1-suf] == b[len(b)-1-suf] {
		suf++
	}
	ca, cb := a[pre:len(a)-suf], b[pre:len(b)-suf]
	if limit > 0 && len(ca) > 0 && len(cb) > 0 && (len(ca) > limit || len(cb) > limit) {
		return nil, &ComparisonTooLargeError{OldLen: len(a), NewLen: len(b), Limit: limit}
	}
	res := make([]Op, 0, max(len(a), len(b)))
	for i := 0; i < pre; i++ {
		res = append(res, Op{Kind: Match, Old: i, New: i})
	}
	for _, op := range align(ca, cb) {
		if op.Old != NoIndex {
			op.Old += pre
		}
		if op.New != NoIndex {
			op.New += pre
		}
		res = append(res, op)
	}
	for k := suf; k > 0; k-- {
		res = append(res, Op{Kind: Match, Old: len(a) - k, New: len(b) - k})
	}
	return pairMoves(res, a, b), nil
}

// align computes the Levenshtein table of a and b and traces back a
// minimal alignment, preferring match, then delete, then insert, then
// substitution.
func align(a, b []uint32) []Op {
	n, m := len(a), len(b)
	switch {
	case n == 0 && m == 0:
		return nil
	case n == 0:
		res := make([]Op, m)
		for j := range res {
			res[j] = Op{Kind: Insert, Old: NoIndex, New: j}
		}
		return res
	case m == 0:
		res := make([]Op, n)
		for i := range res {
			res[i] = Op{Kind: Delete, Old: i, New: NoIndex}
		}
		return res
	}
	w := m + 1
	d := make([]int, (n+1)*w)
	for j := 0; j <= m; j++ {
		d[j] = j
	}
	for i := 1; i <= n; i++ {
		d[i*w] = i
		for j := 1; j <= m; j++ {
			sub := d[(i-1)*w+j-1]
			if a[i-1] != b[j-1] {
				sub++
			}
			d[i*w+j] = min(d[(i-1)*w+j]+1, d[i*w+j-1]+1, sub)
		}
	}
	var rev []Op
	i, j := n, m
	for i > 0 || j > 0 {
		cur := d[i*w+j]
		switch {
		case i > 0 && j > 0 && a[i-1] == b[j-1] && cur == d[(i-1)*w+j-1]:
			rev = append(rev, Op{Kind: Match, Old: i - 1, New: j - 1})
			i--
			j--
		case i > 0 && cur == d[(i-1)*w+j]+1:
			rev = append(rev, Op{Kind: Delete, Old: i - 1, New: NoIndex})
			i--
		case j > 0 && cur == d[i*w+j-1]+1:
			rev = append(rev, Op{Kind: Insert, Old: NoIndex, New: j - 1})
			j--
		default:
			// substitution, reversed below into delete then insert
			rev = append(rev,
				Op{Kind: Insert, Old: NoIndex, New: j - 1},
				Op{Kind: Delete, Old: i - 1, New: NoIndex})
			i--
			j--
		}
	}
	res := make([]Op, len(rev))
	for k, op := range rev {
		res[len(rev)-1-k] = op
	}
	return res
}

// pairMoves replaces each Delete whose id is also inserted by a Move and
// drops the paired Insert.
func pairMoves(ops []Op, a, b []uint32) []Op {
	inserts := map[uint32][]int{}
	for k, op := range ops {
		if op.Kind == Insert {
			id := b[op.New]
			inserts[id] = append(inserts[id], k)
		}
	}
	if len(inserts) == 0 {
		return ops
	}
	drop := map[int]bool{}
	for k := range ops {
		op := &ops[k]
		if op.Kind != Delete {
			continue
		}
		id := a[op.Old]
		cands := inserts[id]
		if len(cands) == 0 {
			continue
		}
		ins := cands[0]
		inserts[id] = cands[1:]
		drop[ins] = true
		op.Kind = Move
		op.New = ops[ins].New
	}
	if len(drop) == 0 {
		return ops
	}
	res := ops[:0:0]
	for k, op := range ops {
		if !drop[k] {
			res = append(res, op)
		}
	}
	return res
}
