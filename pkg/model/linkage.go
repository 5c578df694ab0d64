package model

import (
	"fmt"
	"math"
)

// Merge is one agglomeration step. Leaves are numbered 0..n-1 and the cluster
// created by step k is numbered n+k. Left is always the smaller cluster number.
type Merge struct {
	Left     int
	Right    int
	Distance float64
	Size     int
}

// CondensedIndex is the position of pair (i, j), i < j, in a condensed
// distance vector over n items, following the order of all 2-combinations.
func CondensedIndex(n, i, j int) int {
	if i > j {
		i, j = j, i
	}
	return n*i - i*(i+1)/2 + (j - i - 1)
}

// AverageLinkage clusters n items from their condensed distances (UPGMA).
// Ties go to the first pair found scanning surviving clusters in slot order.
// Each slot caches its nearest later slot, so a step only rescans the rows
// the merge touched.
func AverageLinkage(n int, condensed []float64) ([]Merge, error) {
	if n < 2 {
		return nil, nil
	}
	if want := n * (n - 1) / 2; len(condensed) != want {
		return nil, fmt.Errorf("condensed distance vector has %d entries, want %d", len(condensed), want)
	}

	dist := make([][]float64, n)
	for i := range dist {
		dist[i] = make([]float64, n)
	}
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			d := condensed[CondensedIndex(n, i, j)]
			if math.IsNaN(d) {
				return nil, fmt.Errorf("distance between %d and %d is NaN", i, j)
			}
			dist[i][j], dist[j][i] = d, d
		}
	}

	// Slot s holds the surviving cluster label[s] of size[s].
	label := make([]int, n)
	size := make([]int, n)
	alive := make([]bool, n)
	for i := range label {
		label[i], size[i], alive[i] = i, 1, true
	}

	// nn[s] is the first slot after s at the smallest distance, -1 if none.
	nn := make([]int, n)
	nnDist := make([]float64, n)
	nearest := func(s int) {
		nn[s], nnDist[s] = -1, math.Inf(1)
		for j := s + 1; j < n; j++ {
			if alive[j] && (nn[s] < 0 || dist[s][j] < nnDist[s]) {
				nn[s], nnDist[s] = j, dist[s][j]
			}
		}
	}
	for s := range nn {
		nearest(s)
	}

	merges := make([]Merge, 0, n-1)
	for step := 0; step < n-1; step++ {
		a := -1
		for i := 0; i < n; i++ {
			if alive[i] && nn[i] >= 0 && (a < 0 || nnDist[i] < nnDist[a]) {
				a = i
			}
		}
		b, best := nn[a], nnDist[a]

		merged := size[a] + size[b]
		left, right := label[a], label[b]
		if left > right {
			left, right = right, left
		}
		merges = append(merges, Merge{Left: left, Right: right, Distance: best, Size: merged})

		// Slot a becomes the new cluster; slot b retires.
		for k := 0; k < n; k++ {
			if !alive[k] || k == a || k == b {
				continue
			}
			d := (float64(size[a])*dist[a][k] + float64(size[b])*dist[b][k]) / float64(merged)
			dist[a][k], dist[k][a] = d, d
		}
		label[a] = n + step
		size[a] = merged
		alive[b] = false

		nearest(a)
		for i := 0; i < b; i++ {
			if !alive[i] || i == a {
				continue
			}
			switch {
			case nn[i] == a || nn[i] == b:
				nearest(i)
			case i < a && (dist[i][a] < nnDist[i] || dist[i][a] == nnDist[i] && a < nn[i]):
				nn[i], nnDist[i] = a, dist[i][a]
			}
		}
	}

	return merges, nil
}

// LeafOrder walks the tree from the root, left child first, and returns the
// leaves as they would appear under a top-rooted dendrogram.
func LeafOrder(n int, merges []Merge) []int {
	if n == 0 {
		return nil
	}
	if len(merges) == 0 {
		order := make([]int, n)
		for i := range order {
			order[i] = i
		}
		return order
	}

	order := make([]int, 0, n)
	stack := []int{n + len(merges) - 1}
	for len(stack) > 0 {
		node := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if node < n {
			order = append(order, node)
			continue
		}
		m := merges[node-n]
		stack = append(stack, m.Right, m.Left)
	}
	return order
}
