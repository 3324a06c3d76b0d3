package cstag

import (
	"fmt"
	"sort"
)

// Feature is the part of an alignment that covers a target interval.
type Feature struct {
	CS    Script // script for the aligned portion of the interval
	Clip5 int    // interval bases lying before the alignment
	Clip3 int    // interval bases lying after the alignment
}

// ExtractCS returns the script covering the target interval [start, end).
// ok is false when the interval does not overlap the alignment.
//
// An insertion lying exactly between two adjacent intervals belongs to the end
// of the first one: ops are located by their target end, so a zero-length op
// ending at start is never the first op of an interval.
func (a *Alignment) ExtractCS(start, end int) (Feature, bool, error) {
	if start < 0 {
		return Feature{}, false, fmt.Errorf("%w: start %d is negative", ErrInvalidInterval, start)
	}
	if end <= start {
		return Feature{}, false, fmt.Errorf("%w: end %d not > start %d", ErrInvalidInterval, end, start)
	}
	n := len(a.ops)
	if n == 0 || start >= a.ends[n-1] || end <= a.starts[0] {
		return Feature{}, false, nil
	}

	var clip5, clip3 int

	// First op ending after start. start < ends[n-1], so startIdx < n.
	startIdx := sort.Search(n, func(i int) bool { return a.ends[i] > start })
	if a.starts[startIdx] > start {
		if startIdx != 0 {
			internalError("5' clip at op %d of %s, not at alignment start", startIdx, a.QueryName)
		}
		clip5 = a.starts[0] - start
	}

	// Last op ending at or before end, moved onto the op containing end when
	// end falls strictly inside the next op.
	endIdx := sort.Search(n, func(i int) bool { return a.ends[i] > end }) - 1
	if endIdx < 0 {
		endIdx = 0
	}
	if a.ends[endIdx] < end && endIdx+1 < n {
		endIdx++
	}
	if end > a.ends[endIdx] {
		if endIdx != n-1 {
			internalError("3' clip at op %d of %s, not at alignment end", endIdx, a.QueryName)
		}
		clip3 = end - a.ends[endIdx]
	}
	if endIdx < startIdx || end < a.starts[endIdx] {
		internalError("interval [%d,%d) of %s located ops %d..%d", start, end, a.QueryName, startIdx, endIdx)
	}

	var cs Script
	if startIdx == endIdx {
		cs = Script{a.clipOp(startIdx, start, end)}
	} else {
		cs = make(Script, 0, endIdx-startIdx+1)
		cs = append(cs, a.clipOp(startIdx, start, end))
		cs = append(cs, a.ops[startIdx+1:endIdx]...)
		cs = append(cs, a.clipOp(endIdx, start, end))
	}

	if got := cs.TargetLen() + clip5 + clip3; got != end-start {
		internalError("interval [%d,%d) of %s: cs %s with clips %d,%d covers %d bases",
			start, end, a.QueryName, cs, clip5, clip3, got)
	}
	return Feature{CS: cs, Clip5: clip5, Clip3: clip3}, true, nil
}

// clipOp returns the part of op i lying inside the target interval [lo, hi).
// An op wholly inside the interval is returned unchanged.
func (a *Alignment) clipOp(i, lo, hi int) Op {
	op, s, e := a.ops[i], a.starts[i], a.ends[i]
	if lo <= s && hi >= e {
		return op
	}
	switch op.Kind() {
	case Identity:
		return NewIdentity(min(hi, e) - max(lo, s))
	case Deletion:
		return NewDeletion(op.Bases()[max(lo, s)-s : min(hi, e)-s])
	case Insertion:
		internalError("insertion %s at [%d,%d) is a boundary of interval [%d,%d)", op, s, e, lo, hi)
	case Substitution:
		internalError("substitution %s at [%d,%d) split by interval [%d,%d)", op, s, e, lo, hi)
	default:
		internalError("unrecognized operation kind %v", op.Kind())
	}
	return Op{}
}
