package genbank

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/yumyai/locushunter/pkg/model"
)

// span is a parsed location in 0-based half-open coordinates. Compound
// locations collapse to the outermost bounds of their parts.
type span struct {
	start, end   int
	strand       model.Strand
	partialStart bool
	partialEnd   bool
}

func parseLocation(loc string) (span, error) {
	loc = strings.Join(strings.Fields(loc), "")
	if loc == "" {
		return span{}, fmt.Errorf("empty location")
	}
	s, err := parseOperand(loc)
	if err != nil {
		return span{}, fmt.Errorf("location %q: %w", loc, err)
	}
	if s.strand == model.StrandUnknown {
		s.strand = model.StrandForward
	}
	return s, nil
}

func parseOperand(loc string) (span, error) {
	switch {
	case strings.HasPrefix(loc, "complement(") && strings.HasSuffix(loc, ")"):
		s, err := parseOperand(loc[len("complement(") : len(loc)-1])
		if err != nil {
			return span{}, err
		}
		s.strand = model.StrandReverse
		return s, nil
	case strings.HasPrefix(loc, "join(") && strings.HasSuffix(loc, ")"):
		return parseParts(loc[len("join(") : len(loc)-1])
	case strings.HasPrefix(loc, "order(") && strings.HasSuffix(loc, ")"):
		return parseParts(loc[len("order(") : len(loc)-1])
	case strings.Contains(loc, ":"):
		return span{}, fmt.Errorf("remote locations are not supported")
	}
	return parseRange(loc)
}

func parseParts(inner string) (span, error) {
	parts, err := splitTopLevel(inner)
	if err != nil {
		return span{}, err
	}
	var out span
	for i, part := range parts {
		s, err := parseOperand(part)
		if err != nil {
			return span{}, err
		}
		if i == 0 {
			out = s
			continue
		}
		if s.start < out.start {
			out.start, out.partialStart = s.start, s.partialStart
		}
		if s.end > out.end {
			out.end, out.partialEnd = s.end, s.partialEnd
		}
		if s.strand != out.strand {
			out.strand = model.StrandUnknown
		}
	}
	return out, nil
}

func splitTopLevel(inner string) ([]string, error) {
	var parts []string
	depth, last := 0, 0
	for i, c := range inner {
		switch c {
		case '(':
			depth++
		case ')':
			depth--
			if depth < 0 {
				return nil, fmt.Errorf("unbalanced parentheses")
			}
		case ',':
			if depth == 0 {
				parts = append(parts, inner[last:i])
				last = i + 1
			}
		}
	}
	if depth != 0 {
		return nil, fmt.Errorf("unbalanced parentheses")
	}
	return append(parts, inner[last:]), nil
}

// parseRange handles a..b, a and a^b with optional < and > markers.
func parseRange(loc string) (span, error) {
	var s span
	from, to, isRange := strings.Cut(loc, "..")
	if !isRange {
		from, to, _ = strings.Cut(loc, "^")
	}
	from = s.stripMarker(from)
	to = s.stripMarker(to)
	if to == "" {
		to = from
	}

	first, err := strconv.Atoi(from)
	if err != nil {
		return span{}, fmt.Errorf("bad position %q", from)
	}
	last, err := strconv.Atoi(to)
	if err != nil {
		return span{}, fmt.Errorf("bad position %q", to)
	}
	if first < 1 || last < first {
		return span{}, fmt.Errorf("bad range %d..%d", first, last)
	}
	s.start, s.end = first-1, last
	return s, nil
}

func (s *span) stripMarker(pos string) string {
	switch {
	case strings.HasPrefix(pos, "<"):
		s.partialStart = true
		return pos[1:]
	case strings.HasPrefix(pos, ">"):
		s.partialEnd = true
		return pos[1:]
	}
	return pos
}

func formatLocation(f *model.Feature) string {
	var b strings.Builder
	if f.PartialStart {
		b.WriteByte('<')
	}
	b.WriteString(strconv.Itoa(f.Start + 1))
	if f.End-f.Start > 1 || f.PartialStart || f.PartialEnd {
		b.WriteString("..")
		if f.PartialEnd {
			b.WriteByte('>')
		}
		b.WriteString(strconv.Itoa(f.End))
	}
	if f.Strand == model.StrandReverse {
		return "complement(" + b.String() + ")"
	}
	return b.String()
}
