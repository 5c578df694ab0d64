package model

import (
	"context"
	"fmt"

	"github.com/yumyai/locushunter/logger"
	"go.uber.org/zap"
)

// OrthologAssigner tags CDS features with ortholog-family ids by clustering
// all translations of all loci in a single call.
type OrthologAssigner struct {
	cluster  ClusterClient
	identity float64
}

func NewOrthologAssigner(cluster ClusterClient, identity float64) (*OrthologAssigner, error) {
	if cluster == nil {
		return nil, &ConfigError{Field: "cluster client", Reason: "must not be nil"}
	}
	if identity <= 0 || identity > 1 {
		return nil, &ConfigError{Field: "ortholog identity", Reason: fmt.Sprintf("%g is outside (0, 1]", identity)}
	}
	return &OrthologAssigner{cluster: cluster, identity: identity}, nil
}

// Assign returns tagged copies of loci. Genes absent from the clustering
// result stay Untagged.
func (a *OrthologAssigner) Assign(ctx context.Context, loci []*Record) ([]*Record, error) {

	out := make([]*Record, len(loci))
	for i, locus := range loci {
		out[i] = locus.Clone()
	}

	corpus := corpusOf(out)
	if len(corpus) == 0 {
		logger.Info("No translated genes to cluster", zap.Int("loci", len(loci)))
		clearFamilies(out)
		return out, nil
	}

	assignment, err := a.cluster.Cluster(ctx, corpus, a.identity)
	if err != nil {
		return nil, err
	}
	for id, cid := range assignment {
		if cid <= 0 {
			return nil, &CollaboratorError{
				Tool: "clustering",
				Op:   "read assignment",
				Err:  fmt.Errorf("gene %q has non-positive cluster id %d", id, cid),
			}
		}
	}

	tagged := 0
	for _, locus := range out {
		for _, f := range locus.CDS() {
			cid, ok := assignment[f.Annotation.GeneID]
			if ok && f.Annotation.GeneID != "" {
				f.Annotation.Family = FamilyID(cid)
				tagged++
			} else {
				f.Annotation.Family = Untagged
			}
		}
	}

	logger.Info("Assigned ortholog families",
		zap.Int("genes", len(corpus)),
		zap.Int("tagged", tagged),
		zap.Float64("identity", a.identity))

	return out, nil
}

// corpusOf collects (gene id, translation) pairs across loci, first occurrence
// wins when a gene was cropped into more than one locus.
func corpusOf(loci []*Record) []Sequence {
	seen := make(map[string]bool)
	var corpus []Sequence
	for _, locus := range loci {
		for _, f := range locus.CDS() {
			id := f.Annotation.GeneID
			if id == "" || seen[id] {
				continue
			}
			if seq, ok := f.Translation(); ok {
				seen[id] = true
				corpus = append(corpus, Sequence{ID: id, Residues: seq})
			}
		}
	}
	return corpus
}

func clearFamilies(loci []*Record) {
	for _, locus := range loci {
		for _, f := range locus.Features {
			f.Annotation.Family = Untagged
		}
	}
}
