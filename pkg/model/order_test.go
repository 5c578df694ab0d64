package model

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCondensedIndexFollowsCombinationOrder(t *testing.T) {
	n := 5
	k := 0
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			assert.Equal(t, k, CondensedIndex(n, i, j))
			assert.Equal(t, k, CondensedIndex(n, j, i))
			k++
		}
	}
}

func TestAverageLinkage(t *testing.T) {
	// d(0,1)=1 d(0,2)=4 d(1,2)=2
	merges, err := AverageLinkage(3, []float64{1, 4, 2})
	require.NoError(t, err)

	assert.Equal(t, []Merge{
		{Left: 0, Right: 1, Distance: 1, Size: 2},
		{Left: 2, Right: 3, Distance: 3, Size: 3},
	}, merges)
	assert.Equal(t, []int{2, 0, 1}, LeafOrder(3, merges))
}

// scanLinkage rescans every surviving pair at each step.
func scanLinkage(n int, condensed []float64) []Merge {
	dist := make([][]float64, n)
	for i := range dist {
		dist[i] = make([]float64, n)
		for j := range dist[i] {
			if i != j {
				dist[i][j] = condensed[CondensedIndex(n, i, j)]
			}
		}
	}
	label := make([]int, n)
	size := make([]int, n)
	alive := make([]bool, n)
	for i := range label {
		label[i], size[i], alive[i] = i, 1, true
	}

	var merges []Merge
	for step := 0; step < n-1; step++ {
		a, b, best := -1, -1, math.Inf(1)
		for i := 0; i < n; i++ {
			for j := i + 1; j < n; j++ {
				if alive[i] && alive[j] && (a < 0 || dist[i][j] < best) {
					a, b, best = i, j, dist[i][j]
				}
			}
		}
		merged := size[a] + size[b]
		merges = append(merges, Merge{Left: min(label[a], label[b]), Right: max(label[a], label[b]), Distance: best, Size: merged})
		for k := 0; k < n; k++ {
			if alive[k] && k != a && k != b {
				d := (float64(size[a])*dist[a][k] + float64(size[b])*dist[b][k]) / float64(merged)
				dist[a][k], dist[k][a] = d, d
			}
		}
		label[a], size[a], alive[b] = n+step, merged, false
	}
	return merges
}

func TestAverageLinkageMatchesFullScan(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	for _, n := range []int{2, 3, 5, 8, 13, 30} {
		for _, levels := range []int{2, 4, 100} {
			t.Run(fmt.Sprintf("n=%d,levels=%d", n, levels), func(t *testing.T) {
				condensed := make([]float64, n*(n-1)/2)
				for i := range condensed {
					condensed[i] = float64(rng.Intn(levels)) / float64(levels)
				}

				merges, err := AverageLinkage(n, condensed)
				require.NoError(t, err)
				assert.Equal(t, scanLinkage(n, condensed), merges)
			})
		}
	}
}

func TestAverageLinkageTiesTakeFirstPair(t *testing.T) {
	merges, err := AverageLinkage(4, []float64{1, 1, 1, 1, 1, 1})
	require.NoError(t, err)

	assert.Equal(t, []Merge{
		{Left: 0, Right: 1, Distance: 1, Size: 2},
		{Left: 2, Right: 4, Distance: 1, Size: 3},
		{Left: 3, Right: 5, Distance: 1, Size: 4},
	}, merges)
}

func TestAverageLinkageRejectsWrongLength(t *testing.T) {
	_, err := AverageLinkage(3, []float64{1, 2})
	assert.Error(t, err)
}

func TestLeafOrderWithoutMerges(t *testing.T) {
	assert.Equal(t, []int{0}, LeafOrder(1, nil))
	assert.Nil(t, LeafOrder(0, nil))
}

func TestOrderGroupsSimilarLoci(t *testing.T) {
	loci := []*Record{
		newLocus("A", 1, 2, 3),
		newLocus("B", 4, 5, 6),
		newLocus("C", 1, 2, 3),
		newLocus("D", 4, 5, 6),
	}

	out, err := NewLocusOrderer(4).Order(context.Background(), loci)

	require.NoError(t, err)
	assert.Equal(t, []string{"A", "C", "B", "D"}, names(out))
}

func TestOrderIsPermutation(t *testing.T) {
	loci := []*Record{
		newLocus("a", 1, 2, 3, 4),
		newLocus("b", 9),
		newLocus("c", 2, 0, 4, 5),
		newLocus("d"),
		newLocus("e", 1, 2, 3),
		newLocus("f", 5, 9, 9, 1),
		newLocus("g", 0, 0),
	}

	out, err := NewLocusOrderer(3).Order(context.Background(), loci)
	require.NoError(t, err)
	assert.ElementsMatch(t, names(loci), names(out))

	again, err := NewLocusOrderer(1).Order(context.Background(), loci)
	require.NoError(t, err)
	assert.Equal(t, names(out), names(again), "deterministic across worker counts")
}

func TestOrderSmallInputsUnchanged(t *testing.T) {
	single := []*Record{newLocus("only", 1)}
	out, err := NewLocusOrderer(2).Order(context.Background(), single)
	require.NoError(t, err)
	assert.Equal(t, single, out)

	out, err = NewLocusOrderer(2).Order(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, out)
}

func TestDistances(t *testing.T) {
	families := [][]FamilyID{fam(1, 2), fam(1, 2), fam(3)}

	d, err := NewLocusOrderer(2).Distances(context.Background(), families)

	require.NoError(t, err)
	require.Len(t, d, 3)
	assert.InDelta(t, math.Exp(-200), d[0], 1e-300)
	assert.Equal(t, math.Exp(1), d[CondensedIndex(3, 0, 2)])
}

func TestDistancesHonorsCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewLocusOrderer(1).Distances(ctx, [][]FamilyID{fam(1), fam(2), fam(3)})
	assert.ErrorIs(t, err, context.Canceled)
}
