package cluster

import "math"

// merge is one step of the agglomeration. a and b are cluster IDs: IDs
// below n are original points, n+k is the cluster created by step k.
type merge struct {
	a, b     int
	distance float64
	size     int
}

// pairwiseDistances returns the full squared Euclidean distance matrix.
func pairwiseDistances(vectors [][]float64) [][]float64 {
	n := len(vectors)
	dist := make([][]float64, n)
	for i := range dist {
		dist[i] = make([]float64, n)
	}
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			var d float64
			for k := range vectors[i] {
				diff := vectors[i][k] - vectors[j][k]
				d += diff * diff
			}
			dist[i][j] = d
			dist[j][i] = d
		}
	}
	return dist
}

// wardLinkage runs Ward's agglomerative clustering over a squared distance
// matrix using the Lance-Williams update and returns the n-1 merges in
// order. Merge distances are Euclidean, matching scipy's linkage output.
func wardLinkage(dist [][]float64) []merge {
	n := len(dist)
	if n < 2 {
		return nil
	}

	// slot i holds the current cluster at matrix row i; ids maps it to its
	// dendrogram ID.
	d := make([][]float64, n)
	for i := range dist {
		d[i] = append([]float64(nil), dist[i]...)
	}
	ids := make([]int, n)
	sizes := make([]int, n)
	alive := make([]bool, n)
	for i := range ids {
		ids[i] = i
		sizes[i] = 1
		alive[i] = true
	}

	merges := make([]merge, 0, n-1)
	for step := 0; step < n-1; step++ {
		best := math.MaxFloat64
		bi, bj := -1, -1
		for i := 0; i < n; i++ {
			if !alive[i] {
				continue
			}
			for j := i + 1; j < n; j++ {
				if alive[j] && d[i][j] < best {
					best, bi, bj = d[i][j], i, j
				}
			}
		}

		ni, nj := float64(sizes[bi]), float64(sizes[bj])
		for k := 0; k < n; k++ {
			if !alive[k] || k == bi || k == bj {
				continue
			}
			nk := float64(sizes[k])
			v := ((nk+ni)*d[bi][k] + (nk+nj)*d[bj][k] - nk*best) / (nk + ni + nj)
			d[bi][k] = v
			d[k][bi] = v
		}

		merges = append(merges, merge{
			a:        ids[bi],
			b:        ids[bj],
			distance: math.Sqrt(best),
			size:     sizes[bi] + sizes[bj],
		})

		// The merged cluster reuses slot bi.
		ids[bi] = n + step
		sizes[bi] += sizes[bj]
		alive[bj] = false
	}
	return merges
}

// cutDendrogram applies every merge at or below threshold and returns a
// sequential label per original point, numbered in order of first
// appearance.
func cutDendrogram(merges []merge, n int, threshold float64) []int {
	parent := make([]int, n+len(merges))
	for i := range parent {
		parent[i] = i
	}

	for step, m := range merges {
		if m.distance > threshold {
			continue
		}
		node := n + step
		parent[find(parent, m.a)] = node
		parent[find(parent, m.b)] = node
	}

	labels := make([]int, n)
	seen := make(map[int]int)
	for i := 0; i < n; i++ {
		root := find(parent, i)
		label, ok := seen[root]
		if !ok {
			label = len(seen)
			seen[root] = label
		}
		labels[i] = label
	}
	return labels
}

func find(parent []int, i int) int {
	for parent[i] != i {
		parent[i] = parent[parent[i]]
		i = parent[i]
	}
	return i
}
