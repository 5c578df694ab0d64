package model

import "fmt"

// Interval is a half-open range together with the gene ids that produced it.
type Interval struct {
	Start   int
	End     int
	GeneIDs []string
}

func (iv Interval) String() string {
	return fmt.Sprintf("%d-%d genes=%v", iv.Start, iv.End, iv.GeneIDs)
}

// bounds returns the interval as an ordered pair even if Start > End.
func (iv Interval) bounds() (int, int) {
	if iv.Start > iv.End {
		return iv.End, iv.Start
	}
	return iv.Start, iv.End
}

// Overlaps reports whether a and b share a point; touching ends count.
func Overlaps(a, b Interval) bool {
	as, ae := a.bounds()
	bs, be := b.bounds()
	return max(as, bs) <= min(ae, be)
}

// MergeIntervals merges consecutive overlapping or touching intervals.
// Input MUST be sorted by Start. A merged interval keeps the first start, the
// largest end seen so far and the concatenated gene ids.
func MergeIntervals(intervals []Interval) []Interval {
	if len(intervals) == 0 {
		return nil
	}

	merged := []Interval{copyInterval(intervals[0])}

	for _, next := range intervals[1:] {
		last := &merged[len(merged)-1]
		if Overlaps(*last, next) {
			last.End = max(last.End, next.End)
			last.GeneIDs = append(last.GeneIDs, next.GeneIDs...)
		} else {
			merged = append(merged, copyInterval(next))
		}
	}

	return merged
}

func copyInterval(iv Interval) Interval {
	iv.GeneIDs = append([]string(nil), iv.GeneIDs...)
	return iv
}
