package divik

import (
	"fmt"
	"math"
)

// AutoKMeans fits one k-means candidate per cluster count in
// [MinClusters, MaxClusters] (each the best of NRestarts random restarts by
// inertia) and lets the configured Picker choose among them. When the picker
// finds no candidate worth splitting into, the result degrades to a single
// cluster, which the divisive driver reads as "this node is a leaf".
//
// Configure the exported parameter fields, then call Fit; the result fields
// below them are populated by Fit.
type AutoKMeans struct {
	// MinClusters and MaxClusters bound the searched cluster counts.
	// Defaults: 1 and 10.
	MinClusters int
	MaxClusters int

	// NRestarts is how many seeded k-means restarts each candidate gets.
	// Default: 10.
	NRestarts int

	// MaxIter bounds the Lloyd iterations per restart. Default: 300.
	MaxIter int

	// Tol is the centroid-shift convergence threshold. Default: 1e-4.
	Tol float64

	// Picker is the scoring strategy. Default: GapPicker.
	Picker Picker

	// Workers controls parallel candidate scoring and the row-assignment
	// scans. 0 means 1 (sequential).
	Workers int

	// RandomSeed drives restart initialization and picker resampling.
	RandomSeed int64

	// Estimators holds one fitted candidate per attempted cluster count,
	// ordered by ascending count. When MinClusters > 1 a k=1 baseline is
	// prepended so the picker can prefer "no split".
	Estimators []*KMeans

	// Scores holds the picker's score per estimator, aligned with Estimators.
	Scores []float64

	// NClusters, Labels and ClusterCenters describe the winning candidate.
	NClusters      int
	Labels         []int
	ClusterCenters [][]float64
}

func (a *AutoKMeans) applyDefaults() {
	if a.MinClusters == 0 {
		a.MinClusters = 1
	}
	if a.MaxClusters == 0 {
		a.MaxClusters = 10
	}
	if a.NRestarts == 0 {
		a.NRestarts = 10
	}
	if a.MaxIter == 0 {
		a.MaxIter = 300
	}
	if a.Tol == 0 {
		a.Tol = 1e-4
	}
	if a.Picker == nil {
		a.Picker = &GapPicker{Workers: a.Workers, RandomSeed: deriveSeed(a.RandomSeed, 0)}
	}
}

func (a *AutoKMeans) validate() error {
	if a.MinClusters < 1 {
		return fmt.Errorf("divik: MinClusters must be >= 1, got %d", a.MinClusters)
	}
	if a.MaxClusters < a.MinClusters {
		return fmt.Errorf("divik: MaxClusters must be >= MinClusters, got %d < %d", a.MaxClusters, a.MinClusters)
	}
	if a.NRestarts < 1 {
		return fmt.Errorf("divik: NRestarts must be >= 1, got %d", a.NRestarts)
	}
	return nil
}

// Fit searches the cluster-count range and records the winning clustering.
// Degenerate inputs (fewer rows than MinClusters, or rows with zero
// variance) short-circuit to a single-cluster result without a search.
func (a *AutoKMeans) Fit(data [][]float64) error {
	a.applyDefaults()
	if err := a.validate(); err != nil {
		return err
	}
	n := len(data)
	if n == 0 {
		return fmt.Errorf("divik: cannot fit on zero rows")
	}
	if len(data[0]) == 0 {
		return fmt.Errorf("divik: cannot fit on zero columns")
	}

	if n < max(2, a.MinClusters) || !hasVariance(data) {
		a.adoptSingleCluster(data)
		return nil
	}

	kMax := min(a.MaxClusters, n)
	candidates := make([]*KMeans, 0, kMax-a.MinClusters+2)
	if a.MinClusters > 1 {
		candidates = append(candidates, singleClusterKMeans(data))
	}
	for k := a.MinClusters; k <= kMax; k++ {
		var cand *KMeans
		if k == 1 {
			cand = singleClusterKMeans(data)
		} else {
			cand = fitKMeansRestarts(data, k, a.NRestarts, a.MaxIter, a.Tol,
				deriveSeed(a.RandomSeed, uint64(k)), a.Workers)
		}
		if !allLabelsUsed(cand.Labels, cand.NClusters) {
			continue
		}
		candidates = append(candidates, cand)
	}
	a.Estimators = candidates

	scores, err := a.Picker.Score(data, candidates)
	if err != nil {
		// Scoring failed wholesale; fall back to the single-cluster result
		// instead of aborting the node.
		a.Scores = nanScores(len(candidates))
		a.adoptSingleCluster(data)
		return nil
	}
	a.Scores = scores

	winner, ok := a.Picker.Select(scores)
	if !ok {
		a.adoptSingleCluster(data)
		return nil
	}
	a.adopt(candidates[winner])
	return nil
}

func (a *AutoKMeans) adopt(km *KMeans) {
	a.NClusters = km.NClusters
	a.Labels = km.Labels
	a.ClusterCenters = km.ClusterCenters
}

func (a *AutoKMeans) adoptSingleCluster(data [][]float64) {
	a.adopt(singleClusterKMeans(data))
}

// SegmentationMatrix returns the label columns of all candidates side by
// side: one row per input row, one column per estimator, ordered as
// Estimators. Useful for exporting every attempted partition at once.
func (a *AutoKMeans) SegmentationMatrix() [][]int {
	if len(a.Estimators) == 0 {
		return nil
	}
	n := len(a.Estimators[0].Labels)
	out := make([][]int, n)
	for i := range out {
		row := make([]int, len(a.Estimators))
		for c, est := range a.Estimators {
			row[c] = est.Labels[i]
		}
		out[i] = row
	}
	return out
}

// Report returns the picker's diagnostic table for the fitted candidates.
func (a *AutoKMeans) Report() []PickerReportRow {
	return a.Picker.Report(a.Estimators, a.Scores)
}

func hasVariance(data [][]float64) bool {
	first := data[0]
	for _, row := range data[1:] {
		for j, v := range row {
			if v != first[j] {
				return true
			}
		}
	}
	return false
}

func nanScores(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = math.NaN()
	}
	return out
}
