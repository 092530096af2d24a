package divik

import (
	"math"
)

// DunnPicker scores candidates with a centroid-based Dunn index: the
// smallest distance between any two centroids divided by twice the largest
// cluster radius (distance of a member to its centroid). Larger is better.
// Single-cluster candidates have no between-cluster separation and score
// NaN, excluding them from selection.
type DunnPicker struct {
	// Workers controls the fan-out over candidates; <= 1 runs sequentially.
	Workers int
}

// Score returns the Dunn index per candidate.
func (p *DunnPicker) Score(data [][]float64, candidates []*KMeans) ([]float64, error) {
	scores := make([]float64, len(candidates))
	forEachIndex(len(candidates), p.Workers, func(i int) {
		scores[i] = dunnIndex(data, candidates[i])
	})
	return scores, nil
}

// Select picks the highest-scoring candidate; ties prefer the smaller
// cluster count (candidates are ordered by ascending count). ok is false
// when every candidate scored NaN.
func (p *DunnPicker) Select(scores []float64) (int, bool) {
	best := -1
	for i, s := range scores {
		if math.IsNaN(s) {
			continue
		}
		if best < 0 || s > scores[best] {
			best = i
		}
	}
	if best < 0 {
		return -1, false
	}
	return best, true
}

// Report lists cluster count, Dunn index and dispersion per candidate.
func (p *DunnPicker) Report(candidates []*KMeans, scores []float64) []PickerReportRow {
	return pickerReport(candidates, scores)
}

func dunnIndex(data [][]float64, cand *KMeans) float64 {
	k := cand.NClusters
	if k < 2 {
		return math.NaN()
	}

	minInter := math.Inf(1)
	for a := 0; a < k; a++ {
		for b := a + 1; b < k; b++ {
			d := math.Sqrt(squaredDistance(cand.ClusterCenters[a], cand.ClusterCenters[b]))
			if d < minInter {
				minInter = d
			}
		}
	}

	maxRadius := 0.0
	for i, row := range data {
		d := math.Sqrt(squaredDistance(row, cand.ClusterCenters[cand.Labels[i]]))
		if d > maxRadius {
			maxRadius = d
		}
	}
	if maxRadius == 0 {
		return math.NaN()
	}
	return minInter / (2 * maxRadius)
}
