package model

import (
	"fmt"
	"math/rand"
	"sort"
)

// Palette colors the most abundant families; rarer ones get random light colors.
var Palette = []string{
	"#1F77B4",
	"#FF7F0E",
	"#2CA02C",
	"#D62728",
	"#9467BD",
	"#8C564B",
	"#E377C2",
	"#7F7F7F",
	"#BCBD22",
	"#17BECF",
}

const (
	randomColorMin = 128
	randomColorMax = 255
)

// AssignColors returns copies of loci with a display color on every tagged
// CDS. Families are ranked by abundance, ties by first appearance; seed makes
// the colors past the palette reproducible.
func AssignColors(loci []*Record, seed int64) []*Record {
	colors := FamilyColors(loci, seed)

	out := make([]*Record, len(loci))
	for i, locus := range loci {
		c := locus.Clone()
		for _, f := range c.CDS() {
			f.Annotation.Color = colors[f.Annotation.Family]
		}
		out[i] = c
	}
	return out
}

// FamilyColors maps every tagged family found in loci to a color.
func FamilyColors(loci []*Record, seed int64) map[FamilyID]string {
	var order []FamilyID
	count := make(map[FamilyID]int)
	for _, locus := range loci {
		for _, f := range locus.Families() {
			if !f.Tagged() {
				continue
			}
			if count[f] == 0 {
				order = append(order, f)
			}
			count[f]++
		}
	}

	sort.SliceStable(order, func(i, j int) bool {
		return count[order[i]] > count[order[j]]
	})

	rng := rand.New(rand.NewSource(seed))
	colors := make(map[FamilyID]string, len(order))
	for i, f := range order {
		if i < len(Palette) {
			colors[f] = Palette[i]
		} else {
			colors[f] = randomColor(rng)
		}
	}
	return colors
}

func randomColor(rng *rand.Rand) string {
	channel := func() int {
		return randomColorMin + rng.Intn(randomColorMax-randomColorMin+1)
	}
	return fmt.Sprintf("#%02X%02X%02X", channel(), channel(), channel())
}
