package model

import (
	"context"
	"sort"

	"github.com/yumyai/locushunter/logger"
	"go.uber.org/zap"
)

// LocusExtractor turns homology hits on one record into cropped loci.
type LocusExtractor struct {
	search    SearchClient
	evalue    float64
	extension int
	minHits   int
}

func NewLocusExtractor(search SearchClient, evalue float64, extension, minHits int) (*LocusExtractor, error) {
	if search == nil {
		return nil, &ConfigError{Field: "search client", Reason: "must not be nil"}
	}
	if evalue <= 0 {
		return nil, &ConfigError{Field: "evalue", Reason: "must be positive"}
	}
	if extension < 0 {
		return nil, &ConfigError{Field: "extension", Reason: "must not be negative"}
	}
	if minHits < 1 {
		minHits = 1
	}
	return &LocusExtractor{
		search:    search,
		evalue:    evalue,
		extension: extension,
		minHits:   minHits,
	}, nil
}

// Extract searches queries against the CDS translations of record and returns
// one linear locus per merged hit interval. A record without CDS features or
// without hits yields no loci and no error.
func (x *LocusExtractor) Extract(ctx context.Context, queries []Sequence, record *Record) ([]*Record, error) {

	cds := record.CDS()
	if len(cds) == 0 {
		logger.Info("No CDS features", zap.String("record", record.Name))
		return nil, nil
	}

	library := libraryOf(cds)
	if len(library) == 0 {
		logger.Info("No translated CDS features", zap.String("record", record.Name))
		return nil, nil
	}

	hits, err := x.search.Search(ctx, queries, library, x.evalue)
	if err != nil {
		return nil, err
	}

	hitIDs := HitSubjects(hits, x.evalue)
	if len(hitIDs) == 0 {
		logger.Info("No hits", zap.String("record", record.Name))
		return nil, nil
	}

	hitSet := make(map[string]bool, len(hitIDs))
	for _, id := range hitIDs {
		hitSet[id] = true
	}

	var intervals []Interval
	for _, f := range cds {
		if !hitSet[f.Annotation.GeneID] {
			continue
		}
		intervals = append(intervals, Interval{
			Start:   f.Start - x.extension,
			End:     f.End + x.extension,
			GeneIDs: []string{f.Annotation.GeneID},
		})
	}
	sort.SliceStable(intervals, func(i, j int) bool {
		return intervals[i].Start < intervals[j].Start
	})

	var loci []*Record
	for _, iv := range MergeIntervals(intervals) {
		if len(iv.GeneIDs) < x.minHits {
			continue
		}
		locus := record.Crop(iv.Start, iv.End)
		locus.Name = LocusName(record.Name, iv.Start, iv.End)
		loci = append(loci, locus)
	}
	if len(loci) == 0 {
		logger.Info("No interval reached the minimum hit count",
			zap.String("record", record.Name), zap.Int("min_hits", x.minHits))
	}

	return loci, nil
}

// HitSubjects returns the sorted, de-duplicated subject ids of hits passing
// the threshold.
func HitSubjects(hits []HitRecord, evalue float64) []string {
	seen := make(map[string]bool)
	var ids []string
	for _, h := range hits {
		if !h.Passes(evalue) || seen[h.SubjectID] {
			continue
		}
		seen[h.SubjectID] = true
		ids = append(ids, h.SubjectID)
	}
	sort.Strings(ids)
	return ids
}

func libraryOf(cds []*Feature) []Sequence {
	var library []Sequence
	for _, f := range cds {
		if seq, ok := f.Translation(); ok && f.Annotation.GeneID != "" {
			library = append(library, Sequence{ID: f.Annotation.GeneID, Residues: seq})
		}
	}
	return library
}
