// Package genbank reads and writes annotated genomes in GenBank flat-file format.
package genbank

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/yumyai/locushunter/pkg/model"
)

const (
	featureIndent   = 5
	qualifierIndent = 21
	maxLineSize     = 16 * 1024 * 1024
)

// ReadFile reads every entry of a GenBank file. Records are named
// <file basename>___<LOCUS name> and their CDS features get gene ids.
func ReadFile(file string) ([]*model.Record, error) {
	fh, err := os.Open(file)
	if err != nil {
		return nil, err
	}
	defer fh.Close()

	records, err := Read(fh, filepath.Base(file))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", file, err)
	}
	return records, nil
}

// Read parses GenBank entries from r. A non-empty prefix is joined to every
// LOCUS name.
func Read(r io.Reader, prefix string) ([]*model.Record, error) {
	p := &parser{prefix: prefix}
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), maxLineSize)
	for scanner.Scan() {
		p.lineNo++
		if err := p.line(strings.TrimRight(scanner.Text(), " \r")); err != nil {
			return nil, fmt.Errorf("line %d: %w", p.lineNo, err)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	if p.record != nil {
		return nil, fmt.Errorf("line %d: entry %q is missing its // terminator", p.lineNo, p.record.Name)
	}
	return p.records, nil
}

type section int

const (
	sectionNone section = iota
	sectionHeader
	sectionDefinition
	sectionFeatures
	sectionOrigin
)

type rawFeature struct {
	key        string
	location   string
	qualifiers []rawQualifier
}

type rawQualifier struct {
	key   string
	value string
	open  bool
}

// append adds a continuation line to the value.
func (q *rawQualifier) append(text string) {
	if q.key == "translation" {
		q.value += text
	} else {
		q.value += " " + text
	}
	q.open = quoteOpen(q.value)
}

// quoteOpen reports whether a quoted value still lacks its closing quote.
// Escaped quotes come in pairs, so an odd count means it is open.
func quoteOpen(value string) bool {
	return strings.HasPrefix(value, `"`) && strings.Count(value, `"`)%2 == 1
}

type parser struct {
	prefix  string
	lineNo  int
	section section

	record   *model.Record
	features []*rawFeature
	sequence strings.Builder
	records  []*model.Record
}

func (p *parser) line(line string) error {
	if p.record == nil {
		switch {
		case strings.TrimSpace(line) == "":
			return nil
		case strings.HasPrefix(line, "LOCUS"):
			return p.locus(line)
		}
		return fmt.Errorf("expected LOCUS, got %q", line)
	}

	if line == "//" {
		return p.finish()
	}

	// A keyword in column 0 opens a new section.
	if line != "" && line[0] != ' ' {
		keyword, rest, _ := strings.Cut(line, " ")
		switch keyword {
		case "LOCUS":
			return fmt.Errorf("entry %q is missing its // terminator", p.record.Name)
		case "DEFINITION":
			p.section = sectionDefinition
			p.record.Definition = strings.TrimSpace(rest)
		case "FEATURES":
			p.section = sectionFeatures
		case "ORIGIN":
			p.section = sectionOrigin
		default:
			p.section = sectionHeader
		}
		return nil
	}

	switch p.section {
	case sectionDefinition:
		p.record.Definition += " " + strings.TrimSpace(line)
	case sectionFeatures:
		return p.featureLine(line)
	case sectionOrigin:
		for _, c := range []byte(line) {
			if c >= 'A' && c <= 'Z' || c >= 'a' && c <= 'z' {
				p.sequence.WriteByte(c)
			}
		}
	}
	return nil
}

func (p *parser) locus(line string) error {
	fields := strings.Fields(line)
	if len(fields) < 2 {
		return fmt.Errorf("LOCUS line without a name")
	}
	name := fields[1]
	if p.prefix != "" {
		name = p.prefix + model.Joiner + name
	}
	p.record = &model.Record{Name: name}
	for _, f := range fields[2:] {
		if strings.EqualFold(f, "circular") {
			p.record.Circular = true
		}
	}
	p.section = sectionHeader
	p.features = nil
	p.sequence.Reset()
	return nil
}

func (p *parser) featureLine(line string) error {
	if len(line) > featureIndent && line[featureIndent] != ' ' && strings.TrimSpace(line[:featureIndent]) == "" {
		key, location, _ := strings.Cut(strings.TrimSpace(line), " ")
		p.features = append(p.features, &rawFeature{key: key, location: strings.TrimSpace(location)})
		return nil
	}
	if len(p.features) == 0 {
		return fmt.Errorf("qualifier outside of a feature: %q", line)
	}
	feature := p.features[len(p.features)-1]
	text := strings.TrimSpace(line)

	if n := len(feature.qualifiers); n > 0 && feature.qualifiers[n-1].open {
		feature.qualifiers[n-1].append(text)
		return nil
	}
	if strings.HasPrefix(text, "/") {
		key, value, _ := strings.Cut(text[1:], "=")
		feature.qualifiers = append(feature.qualifiers, rawQualifier{key: key, value: value, open: quoteOpen(value)})
		return nil
	}
	if len(feature.qualifiers) == 0 {
		feature.location += text
		return nil
	}
	feature.qualifiers[len(feature.qualifiers)-1].append(text)
	return nil
}

func (p *parser) finish() error {
	record := p.record
	record.Sequence = []byte(p.sequence.String())
	for _, raw := range p.features {
		loc, err := parseLocation(raw.location)
		if err != nil {
			return fmt.Errorf("%s feature in %s: %w", raw.key, record.Name, err)
		}
		if loc.end > record.Len() {
			return fmt.Errorf("%s feature in %s ends at %d past the sequence length %d",
				raw.key, record.Name, loc.end, record.Len())
		}
		f := &model.Feature{
			Type:         raw.key,
			Start:        loc.start,
			End:          loc.end,
			Strand:       loc.strand,
			PartialStart: loc.partialStart,
			PartialEnd:   loc.partialEnd,
		}
		for _, q := range raw.qualifiers {
			f.Qualifiers = append(f.Qualifiers, model.Qualifier{Key: q.key, Value: unquote(q.value)})
		}
		record.Features = append(record.Features, f)
	}
	record.AssignGeneIDs()

	p.records = append(p.records, record)
	p.record = nil
	p.features = nil
	p.section = sectionNone
	return nil
}

func unquote(v string) string {
	if len(v) >= 2 && strings.HasPrefix(v, `"`) && strings.HasSuffix(v, `"`) {
		v = v[1 : len(v)-1]
	}
	return strings.ReplaceAll(v, `""`, `"`)
}
