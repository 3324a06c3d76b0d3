package target

import "sort"

// IntervalTree provides O(log n + k) overlap queries using a sorted-slice approach.
// Features are loaded once and never modified after build.
type IntervalTree struct {
	intervals []interval
	maxEnd    []int // maxEnd[i] = max(end) for intervals[:i+1]
}

type interval struct {
	start, end int
	feature    *Feature
}

// BuildIntervalTree creates an interval tree from a slice of features.
func BuildIntervalTree(features []*Feature) *IntervalTree {
	if len(features) == 0 {
		return &IntervalTree{}
	}

	intervals := make([]interval, len(features))
	for i, f := range features {
		intervals[i] = interval{start: f.Start, end: f.End, feature: f}
	}

	sort.SliceStable(intervals, func(i, j int) bool {
		return intervals[i].start < intervals[j].start
	})

	// Prefix-max array: maxEnd[i] = max(end) for intervals[:i+1]
	maxEnd := make([]int, len(intervals))
	maxEnd[0] = intervals[0].end
	for i := 1; i < len(intervals); i++ {
		maxEnd[i] = max(maxEnd[i-1], intervals[i].end)
	}

	return &IntervalTree{intervals: intervals, maxEnd: maxEnd}
}

// FindOverlaps returns all features with Start < end and End > start,
// ordered by feature start. For start == end these are the features strictly
// containing the point between start-1 and start.
func (t *IntervalTree) FindOverlaps(start, end int) []*Feature {
	if len(t.intervals) == 0 {
		return nil
	}

	// Candidates all begin before end: [0, hi).
	hi := sort.Search(len(t.intervals), func(i int) bool {
		return t.intervals[i].start >= end
	})

	// Skip the prefix whose ends all lie at or before start.
	lo := sort.Search(hi, func(i int) bool {
		return t.maxEnd[i] > start
	})

	var result []*Feature
	for i := lo; i < hi; i++ {
		if t.intervals[i].end > start {
			result = append(result, t.intervals[i].feature)
		}
	}
	return result
}

// Len returns the number of intervals in the tree.
func (t *IntervalTree) Len() int {
	return len(t.intervals)
}
