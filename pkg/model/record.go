package model

import (
	"fmt"

	"github.com/dustin/go-humanize"
)

// Joiner separates the parts of derived record names.
const Joiner = "___"

// AssignGeneIDs tags every CDS with <record-name>/<ordinal>, the ordinal being
// the 1-based position of the feature in the record.
func (r *Record) AssignGeneIDs() {
	for i, f := range r.Features {
		if f.IsCDS() {
			f.Annotation.GeneID = fmt.Sprintf("%s/%d", r.Name, i+1)
		}
	}
}

// Crop returns a linear copy of r restricted to [start, end). Bounds are
// clamped to the sequence; features crossing a bound are truncated and marked
// partial, features outside the window are dropped.
func (r *Record) Crop(start, end int) *Record {
	start = max(0, min(start, r.Len()))
	end = max(start, min(end, r.Len()))

	out := &Record{
		Name:       r.Name,
		Definition: r.Definition,
		Sequence:   append([]byte(nil), r.Sequence[start:end]...),
	}

	for _, f := range r.Features {
		if f.End <= start || f.Start >= end {
			continue
		}
		c := f.Clone()
		if c.Start < start {
			c.Start = start
			c.PartialStart = true
		}
		if c.End > end {
			c.End = end
			c.PartialEnd = true
		}
		c.Start -= start
		c.End -= start
		out.Features = append(out.Features, c)
	}
	return out
}

// LocusName embeds the extracted coordinate range into a record name.
func LocusName(recordName string, start, end int) string {
	return fmt.Sprintf("%s%s%s-%s", recordName, Joiner,
		humanize.Comma(int64(start)), humanize.Comma(int64(end)))
}
