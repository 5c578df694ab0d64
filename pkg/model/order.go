package model

import (
	"context"
	"math"

	"github.com/yumyai/locushunter/logger"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// LocusOrderer arranges loci so that loci with similar gene content end up
// next to each other.
type LocusOrderer struct {
	workers int
}

func NewLocusOrderer(workers int) *LocusOrderer {
	if workers < 1 {
		workers = 1
	}
	return &LocusOrderer{workers: workers}
}

// Order returns a permutation of loci following the leaf order of an
// average-linkage tree over exp(-score) distances.
func (o *LocusOrderer) Order(ctx context.Context, loci []*Record) ([]*Record, error) {
	if len(loci) < 2 {
		logger.Info("Fewer than two loci, order unchanged", zap.Int("loci", len(loci)))
		return loci, nil
	}

	families := make([][]FamilyID, len(loci))
	for i, locus := range loci {
		families[i] = locus.Families()
	}

	condensed, err := o.Distances(ctx, families)
	if err != nil {
		return nil, err
	}

	merges, err := AverageLinkage(len(loci), condensed)
	if err != nil {
		return nil, err
	}

	out := make([]*Record, 0, len(loci))
	for _, i := range LeafOrder(len(loci), merges) {
		out = append(out, loci[i])
	}
	return out, nil
}

// Distances scores every unordered pair and stores exp(-score) at the pair's
// condensed index. Rows are scored concurrently.
func (o *LocusOrderer) Distances(ctx context.Context, families [][]FamilyID) ([]float64, error) {
	n := len(families)
	condensed := make([]float64, n*(n-1)/2)

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(o.workers)

	for i := 0; i < n-1; i++ {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			for j := i + 1; j < n; j++ {
				s := ScoreFamilies(families[i], families[j])
				condensed[CondensedIndex(n, i, j)] = math.Exp(-float64(s))
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return condensed, nil
}
