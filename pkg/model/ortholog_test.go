package model

import (
	"context"
	"errors"
	"sort"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func translatedLocus(name string, translations ...string) *Record {
	r := &Record{Name: name, Sequence: []byte(strings.Repeat("A", 100*len(translations)))}
	for i, tr := range translations {
		f := &Feature{Type: "CDS", Start: i * 100, End: i*100 + 90}
		if tr != "" {
			f.Qualifiers = []Qualifier{{Key: "translation", Value: tr}}
		}
		r.Features = append(r.Features, f)
	}
	r.AssignGeneIDs()
	return r
}

func partition(loci []*Record) [][]string {
	groups := make(map[FamilyID][]string)
	for _, locus := range loci {
		for _, f := range locus.CDS() {
			if f.Annotation.Family.Tagged() {
				groups[f.Annotation.Family] = append(groups[f.Annotation.Family], f.Annotation.GeneID)
			}
		}
	}
	var out [][]string
	for _, g := range groups {
		sort.Strings(g)
		out = append(out, g)
	}
	sort.Slice(out, func(i, j int) bool { return out[i][0] < out[j][0] })
	return out
}

func TestAssignTagsAcrossLoci(t *testing.T) {
	loci := []*Record{
		translatedLocus("A", "MKVL", "PPPP", ""),
		translatedLocus("B", "MKVL", "GGGG"),
	}
	cluster := &fakeCluster{}
	a, err := NewOrthologAssigner(cluster, 0.9)
	require.NoError(t, err)

	tagged, err := a.Assign(context.Background(), loci)
	require.NoError(t, err)

	assert.Equal(t, 1, cluster.calls, "clustering is global")
	assert.Len(t, cluster.seen, 4)

	fa, fb := tagged[0].Families(), tagged[1].Families()
	assert.Equal(t, fa[0], fb[0])
	assert.NotEqual(t, fa[1], fb[1])
	assert.Equal(t, Untagged, fa[2])

	// Inputs are not modified.
	assert.Equal(t, Untagged, loci[0].CDS()[0].Annotation.Family)
}

func TestAssignPartitionIsStable(t *testing.T) {
	loci := []*Record{
		translatedLocus("A", "MKVL", "PPPP", "WWW"),
		translatedLocus("B", "WWW", "MKVL", "GGGG"),
	}

	first, err := (&OrthologAssigner{cluster: &fakeCluster{}, identity: 0.9}).Assign(context.Background(), loci)
	require.NoError(t, err)
	second, err := (&OrthologAssigner{cluster: &fakeCluster{offset: 40}, identity: 0.9}).Assign(context.Background(), loci)
	require.NoError(t, err)

	assert.NotEqual(t, first[0].Families(), second[0].Families(), "raw ids differ")
	assert.Equal(t, partition(first), partition(second))
}

func TestAssignLeavesExcludedGenesUntagged(t *testing.T) {
	loci := []*Record{translatedLocus("A", "MKVL", "PPPP")}
	cluster := &fakeCluster{drop: map[string]bool{"A/2": true}}

	tagged, err := (&OrthologAssigner{cluster: cluster, identity: 0.9}).Assign(context.Background(), loci)

	require.NoError(t, err)
	assert.Equal(t, "1,-", Signature(tagged[0]))
}

func TestAssignWithoutTranslationsSkipsClustering(t *testing.T) {
	cluster := &fakeCluster{}
	tagged, err := (&OrthologAssigner{cluster: cluster, identity: 0.9}).Assign(context.Background(), []*Record{translatedLocus("A", "", "")})

	require.NoError(t, err)
	assert.Equal(t, 0, cluster.calls)
	assert.Equal(t, "-,-", Signature(tagged[0]))
}

func TestAssignPropagatesFailures(t *testing.T) {
	boom := &CollaboratorError{Tool: "cd-hit", Op: "run", Err: errors.New("killed")}
	_, err := (&OrthologAssigner{cluster: &fakeCluster{err: boom}, identity: 0.9}).Assign(context.Background(), []*Record{translatedLocus("A", "MKVL")})
	assert.ErrorIs(t, err, boom)
}

type badCluster struct{}

func (badCluster) Cluster(_ context.Context, seqs []Sequence, _ float64) (ClusterAssignment, error) {
	return ClusterAssignment{seqs[0].ID: 0}, nil
}

func TestAssignRejectsMalformedAssignment(t *testing.T) {
	_, err := (&OrthologAssigner{cluster: badCluster{}, identity: 0.9}).Assign(context.Background(), []*Record{translatedLocus("A", "MKVL")})

	var collab *CollaboratorError
	require.ErrorAs(t, err, &collab)
}

func TestNewOrthologAssignerValidatesIdentity(t *testing.T) {
	for _, identity := range []float64{0, -0.5, 1.01} {
		_, err := NewOrthologAssigner(&fakeCluster{}, identity)
		var cfg *ConfigError
		assert.ErrorAs(t, err, &cfg, "identity %g", identity)
	}
	_, err := NewOrthologAssigner(&fakeCluster{}, 1)
	assert.NoError(t, err)
}
