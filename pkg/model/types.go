package model

import (
	"strconv"
	"strings"
)

// Strand of a feature relative to its record.
type Strand int8

const (
	StrandUnknown Strand = iota
	StrandForward
	StrandReverse
)

func (s Strand) String() string {
	switch s {
	case StrandForward:
		return "+"
	case StrandReverse:
		return "-"
	default:
		return "."
	}
}

// FamilyID identifies an ortholog family within one run. The zero value is
// the untagged sentinel.
type FamilyID int

const Untagged FamilyID = 0

func (f FamilyID) Tagged() bool {
	return f > 0
}

func (f FamilyID) String() string {
	if !f.Tagged() {
		return "-"
	}
	return strconv.Itoa(int(f))
}

// Qualifier is one /key=value pair as read from the genome file.
type Qualifier struct {
	Key   string
	Value string
}

// Annotation carries the values the pipeline derives for a feature. They are
// kept apart from the file qualifiers so they never leak into user-visible
// annotation, and an empty field means "not set".
type Annotation struct {
	GeneID string
	Family FamilyID
	Color  string
}

// Feature is a located annotation on a record. Coordinates are 0-based and
// half-open.
type Feature struct {
	Type         string
	Start        int
	End          int
	Strand       Strand
	PartialStart bool
	PartialEnd   bool
	Qualifiers   []Qualifier
	Annotation   Annotation
}

func (f *Feature) IsCDS() bool {
	return f.Type == "CDS"
}

// Qualifier returns the first value stored under key.
func (f *Feature) Qualifier(key string) (string, bool) {
	for _, q := range f.Qualifiers {
		if q.Key == key {
			return q.Value, true
		}
	}
	return "", false
}

// Translation returns the protein sequence of a CDS, if it has a usable one.
func (f *Feature) Translation() (string, bool) {
	v, ok := f.Qualifier("translation")
	if !ok {
		return "", false
	}
	v = strings.Join(strings.Fields(v), "")
	return v, v != ""
}

func (f *Feature) Clone() *Feature {
	c := *f
	c.Qualifiers = append([]Qualifier(nil), f.Qualifiers...)
	return &c
}

// Record is a named, possibly circular sequence with its features.
type Record struct {
	Name       string
	Definition string
	Circular   bool
	Sequence   []byte
	Features   []*Feature
}

func (r *Record) Len() int {
	return len(r.Sequence)
}

// Clone deep-copies the record so later stages can annotate it freely.
func (r *Record) Clone() *Record {
	c := *r
	c.Sequence = append([]byte(nil), r.Sequence...)
	c.Features = make([]*Feature, len(r.Features))
	for i, f := range r.Features {
		c.Features[i] = f.Clone()
	}
	return &c
}

// CDS returns the coding features in record order.
func (r *Record) CDS() []*Feature {
	var out []*Feature
	for _, f := range r.Features {
		if f.IsCDS() {
			out = append(out, f)
		}
	}
	return out
}

// Families is the ordered ortholog-family sequence across the CDS features.
// Untagged features stay in place as the Untagged sentinel.
func (r *Record) Families() []FamilyID {
	cds := r.CDS()
	out := make([]FamilyID, len(cds))
	for i, f := range cds {
		out[i] = f.Annotation.Family
	}
	return out
}

// Sequence is an (id, residues) pair handed to the external tools.
type Sequence struct {
	ID       string
	Residues string
}

// HitRecord is one row of alignment search output.
type HitRecord struct {
	QueryID         string
	SubjectID       string
	PercentIdentity float64
	AlignmentLength int
	Mismatches      int
	GapOpens        int
	QueryStart      int
	QueryEnd        int
	SubjectStart    int
	SubjectEnd      int
	EValue          float64
	BitScore        float64
}

// Passes reports whether the hit meets the e-value threshold.
func (h HitRecord) Passes(evalue float64) bool {
	return h.EValue <= evalue
}

// ClusterAssignment maps sequence ids to positive cluster ids.
type ClusterAssignment map[string]int
