package model

import (
	"context"
	"fmt"
	"strings"
	"sync"
)

// newRecord builds a record of length n with one CDS per span. Every CDS gets
// a translation unless its span is marked untranslated with a negative length.
func newRecord(name string, n int, spans ...[2]int) *Record {
	r := &Record{Name: name, Sequence: []byte(strings.Repeat("A", n))}
	for i, s := range spans {
		f := &Feature{Type: "CDS", Start: s[0], End: s[1], Strand: StrandForward}
		f.Qualifiers = []Qualifier{
			{Key: "locus_tag", Value: fmt.Sprintf("TAG_%d", i+1)},
			{Key: "translation", Value: fmt.Sprintf("MKV%dL", i+1)},
		}
		r.Features = append(r.Features, f)
	}
	r.AssignGeneIDs()
	return r
}

// newLocus builds a locus whose CDS features carry the given families.
func newLocus(name string, families ...int) *Record {
	r := &Record{Name: name, Sequence: []byte(strings.Repeat("A", 100*len(families)+100))}
	for i, fam := range families {
		r.Features = append(r.Features, &Feature{
			Type:       "CDS",
			Start:      i * 100,
			End:        i*100 + 90,
			Annotation: Annotation{GeneID: fmt.Sprintf("%s/%d", name, i+1), Family: FamilyID(fam)},
		})
	}
	return r
}

type fakeSearch struct {
	mu      sync.Mutex
	calls   int
	hits    []HitRecord
	err     error
	library [][]Sequence
}

func (s *fakeSearch) Search(_ context.Context, _, library []Sequence, _ float64) ([]HitRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	s.library = append(s.library, library)
	return s.hits, s.err
}

// fakeCluster clusters sequences with identical residues together, numbering
// clusters in order of first appearance starting from offset+1.
type fakeCluster struct {
	offset int
	calls  int
	err    error
	drop   map[string]bool
	seen   []Sequence
}

func (c *fakeCluster) Cluster(_ context.Context, seqs []Sequence, _ float64) (ClusterAssignment, error) {
	c.calls++
	c.seen = seqs
	if c.err != nil {
		return nil, c.err
	}
	ids := make(map[string]int)
	out := make(ClusterAssignment)
	for _, s := range seqs {
		if c.drop[s.ID] {
			continue
		}
		if _, ok := ids[s.Residues]; !ok {
			ids[s.Residues] = c.offset + len(ids) + 1
		}
		out[s.ID] = ids[s.Residues]
	}
	return out, nil
}

func hit(subject string, evalue float64) HitRecord {
	return HitRecord{QueryID: "q1", SubjectID: subject, EValue: evalue, PercentIdentity: 90}
}
