package divik

import (
	"math"
	"math/rand"
)

// KMeans is one fitted candidate clustering: a label per row, one centroid
// per cluster, and the within-cluster sum of squared distances (inertia).
type KMeans struct {
	NClusters      int
	Labels         []int
	ClusterCenters [][]float64
	Inertia        float64
}

// fitKMeansRestarts fits k-means nRestarts times with derived seeds and
// returns the run with the lowest inertia.
func fitKMeansRestarts(data [][]float64, k, nRestarts, maxIter int, tol float64, seed int64, workers int) *KMeans {
	var best *KMeans
	for r := 0; r < nRestarts; r++ {
		rng := newRand(deriveSeed(seed, uint64(r)))
		km := fitKMeans(data, k, maxIter, tol, rng, workers)
		if best == nil || km.Inertia < best.Inertia {
			best = km
		}
	}
	return best
}

// fitKMeans runs Lloyd's algorithm with k-means++ initialization.
// Empty clusters are repaired by moving their centroid onto the point
// farthest from its assigned centroid, so every label in 0..k-1 is used.
func fitKMeans(data [][]float64, k, maxIter int, tol float64, rng *rand.Rand, workers int) *KMeans {
	n := len(data)
	dims := len(data[0])

	centers := kmeansPlusPlusInit(data, k, rng)
	labels := make([]int, n)
	dists := make([]float64, n)

	for iter := 0; iter < maxIter; iter++ {
		assignToCenters(data, centers, labels, dists, workers)
		repairEmptyClusters(data, centers, labels, dists, k)

		// Recompute centroids as cluster means.
		counts := make([]int, k)
		next := make([][]float64, k)
		for c := range next {
			next[c] = make([]float64, dims)
		}
		for i, row := range data {
			c := labels[i]
			counts[c]++
			for j, v := range row {
				next[c][j] += v
			}
		}
		shift := 0.0
		for c := 0; c < k; c++ {
			for j := 0; j < dims; j++ {
				next[c][j] /= float64(counts[c])
				d := next[c][j] - centers[c][j]
				shift += d * d
			}
		}
		centers = next
		if shift < tol*tol {
			break
		}
	}

	assignToCenters(data, centers, labels, dists, workers)
	repairEmptyClusters(data, centers, labels, dists, k)
	inertia := 0.0
	for _, d := range dists {
		inertia += d
	}

	return &KMeans{
		NClusters:      k,
		Labels:         labels,
		ClusterCenters: centers,
		Inertia:        inertia,
	}
}

// kmeansPlusPlusInit picks k initial centroids: the first uniformly, each
// subsequent one with probability proportional to its squared distance to
// the nearest centroid chosen so far.
func kmeansPlusPlusInit(data [][]float64, k int, rng *rand.Rand) [][]float64 {
	n := len(data)
	centers := make([][]float64, 0, k)
	centers = append(centers, cloneRow(data[rng.Intn(n)]))

	d2 := make([]float64, n)
	for i := range d2 {
		d2[i] = math.Inf(1)
	}

	for len(centers) < k {
		latest := centers[len(centers)-1]
		total := 0.0
		for i, row := range data {
			if d := squaredDistance(row, latest); d < d2[i] {
				d2[i] = d
			}
			total += d2[i]
		}

		var pick int
		if total <= 0 {
			// All remaining points coincide with a centroid.
			pick = rng.Intn(n)
		} else {
			target := rng.Float64() * total
			cum := 0.0
			pick = n - 1
			for i, d := range d2 {
				cum += d
				if cum >= target {
					pick = i
					break
				}
			}
		}
		centers = append(centers, cloneRow(data[pick]))
	}
	return centers
}

// assignToCenters labels every row with its nearest centroid and records the
// squared distance. Rows are independent, so the scan fans out over workers.
func assignToCenters(data [][]float64, centers [][]float64, labels []int, dists []float64, workers int) {
	forEachChunk(len(data), workers, func(start, end int) {
		for i := start; i < end; i++ {
			best, bestDist := 0, math.Inf(1)
			for c, center := range centers {
				if d := squaredDistance(data[i], center); d < bestDist {
					best, bestDist = c, d
				}
			}
			labels[i] = best
			dists[i] = bestDist
		}
	})
}

// repairEmptyClusters relocates the centroid of every empty cluster onto the
// currently worst-fit point, keeping the label set exactly {0..k-1}.
func repairEmptyClusters(data [][]float64, centers [][]float64, labels []int, dists []float64, k int) {
	counts := make([]int, k)
	for _, c := range labels {
		counts[c]++
	}
	for c := 0; c < k; c++ {
		if counts[c] > 0 {
			continue
		}
		farthest, farDist := -1, -1.0
		for i, d := range dists {
			if counts[labels[i]] > 1 && d > farDist {
				farthest, farDist = i, d
			}
		}
		if farthest < 0 {
			continue
		}
		counts[labels[farthest]]--
		labels[farthest] = c
		counts[c]++
		centers[c] = cloneRow(data[farthest])
		dists[farthest] = 0
	}
}

func squaredDistance(a, b []float64) float64 {
	var sum float64
	for i := range a {
		d := a[i] - b[i]
		sum += d * d
	}
	return sum
}

func cloneRow(row []float64) []float64 {
	out := make([]float64, len(row))
	copy(out, row)
	return out
}

// allLabelsUsed reports whether every label in 0..k-1 occurs at least once.
// A candidate violating this is invalid and excluded from scoring.
func allLabelsUsed(labels []int, k int) bool {
	seen := make([]bool, k)
	used := 0
	for _, c := range labels {
		if c < 0 || c >= k {
			return false
		}
		if !seen[c] {
			seen[c] = true
			used++
		}
	}
	return used == k
}

// withinDispersion is the within-cluster sum of squared distances of rows to
// their assigned centroid.
func withinDispersion(data [][]float64, labels []int, centers [][]float64) float64 {
	total := 0.0
	for i, row := range data {
		total += squaredDistance(row, centers[labels[i]])
	}
	return total
}

// singleClusterKMeans builds the trivial k=1 candidate: all rows in cluster
// zero, centroid at the column mean.
func singleClusterKMeans(data [][]float64) *KMeans {
	n := len(data)
	dims := len(data[0])
	center := make([]float64, dims)
	for _, row := range data {
		for j, v := range row {
			center[j] += v
		}
	}
	for j := range center {
		center[j] /= float64(n)
	}
	labels := make([]int, n)
	centers := [][]float64{center}
	return &KMeans{
		NClusters:      1,
		Labels:         labels,
		ClusterCenters: centers,
		Inertia:        withinDispersion(data, labels, centers),
	}
}
