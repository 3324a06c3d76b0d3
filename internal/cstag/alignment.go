package cstag

import (
	"fmt"
)

// Record is the subset of an alignment record needed to build an Alignment.
// Offsets are 0-based; ends are exclusive.
type Record struct {
	QueryName   string
	TargetName  string
	QueryLength int
	QueryStart  int // first aligned query base
	QueryEnd    int
	TargetStart int // first aligned target base
	TargetEnd   int
	Reverse     bool
	Unmapped    bool
	CS          string // short form cs tag
}

// Alignment is an aligned read with its cs script indexed by target
// coordinate. It is immutable after construction and safe for concurrent use.
type Alignment struct {
	QueryName     string
	TargetName    string
	CS            string
	QueryClip5    int    // query bases before the alignment
	QueryClip3    int    // query bases after the alignment
	TargetClip5   int    // target offset of the alignment start
	TargetLastPos int    // target offset just past the alignment end
	Orientation   string // "+" or "-" when the query aligns to the reverse complement

	ops    Script
	starts []int // target start of each op
	ends   []int // target end of each op, exclusive
}

// NewAlignment builds an Alignment from r.
func NewAlignment(r Record) (*Alignment, error) {
	if r.Unmapped {
		return nil, fmt.Errorf("%w: %s", ErrUnmapped, r.QueryName)
	}
	if r.TargetStart < 0 {
		return nil, fmt.Errorf("%w: %s starts at negative target position %d",
			ErrInvalidRecord, r.QueryName, r.TargetStart)
	}
	ops, err := Parse(r.CS)
	if err != nil {
		return nil, fmt.Errorf("alignment %s: %w", r.QueryName, err)
	}

	a := &Alignment{
		QueryName:     r.QueryName,
		TargetName:    r.TargetName,
		CS:            r.CS,
		QueryClip5:    r.QueryStart,
		QueryClip3:    r.QueryLength - r.QueryEnd,
		TargetClip5:   r.TargetStart,
		TargetLastPos: r.TargetEnd,
		Orientation:   "+",
		ops:           ops,
	}
	if r.Reverse {
		a.Orientation = "-"
	}

	a.starts, a.ends = buildIndex(ops, r.TargetStart)
	if last := r.TargetStart + ops.TargetLen(); last != r.TargetEnd {
		return nil, fmt.Errorf("%w: %s spans [%d,%d), record ends at %d",
			ErrSpanMismatch, r.QueryName, r.TargetStart, last, r.TargetEnd)
	}
	return a, nil
}

// buildIndex returns the half-open target interval of each op, anchored at
// anchor. starts[i+1] == ends[i] for all adjacent ops.
func buildIndex(ops Script, anchor int) (starts, ends []int) {
	starts = make([]int, len(ops))
	ends = make([]int, len(ops))
	pos := anchor
	for i, op := range ops {
		starts[i] = pos
		pos += op.TargetLen()
		ends[i] = pos
	}
	return starts, ends
}

// Ops returns a copy of the alignment's operations.
func (a *Alignment) Ops() Script {
	return append(Script(nil), a.ops...)
}

// Starts returns a copy of the target start of each operation.
func (a *Alignment) Starts() []int {
	return append([]int(nil), a.starts...)
}

// Ends returns a copy of the exclusive target end of each operation.
func (a *Alignment) Ends() []int {
	return append([]int(nil), a.ends...)
}

// NumOps returns the number of operations in the alignment.
func (a *Alignment) NumOps() int {
	return len(a.ops)
}
