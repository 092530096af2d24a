package divik

import (
	"fmt"
	"math"
	"math/rand"

	"gonum.org/v1/gonum/stat"
)

// GapPicker scores candidates with the gap statistic: the expected
// log-dispersion of reference data drawn uniformly from the bounding box of
// the input, minus the candidate's own log-dispersion. The returned score is
// the gap lowered by its bootstrap standard error, so comparing scores
// directly applies the usual one-standard-error rule.
//
// Reference clusterings for different candidates are independent, so scoring
// fans out over Workers goroutines. All resampling uses seeds derived from
// RandomSeed; scores are identical for any worker count.
type GapPicker struct {
	// NReferences is the number of bootstrap reference datasets per
	// candidate. Default: 10.
	NReferences int

	// MaxIter bounds the Lloyd iterations when clustering reference data.
	// Default: 100.
	MaxIter int

	// Workers controls the fan-out over candidates; <= 1 runs sequentially.
	Workers int

	// RandomSeed drives reference sampling and reference clustering.
	RandomSeed int64
}

// Score returns the standard-error-adjusted gap statistic per candidate.
// A candidate with zero or non-finite dispersion scores NaN.
func (p *GapPicker) Score(data [][]float64, candidates []*KMeans) ([]float64, error) {
	if len(candidates) == 0 {
		return nil, fmt.Errorf("divik: gap picker got no candidates")
	}
	nRefs := p.NReferences
	if nRefs <= 0 {
		nRefs = 10
	}
	maxIter := p.MaxIter
	if maxIter <= 0 {
		maxIter = 100
	}

	lo, hi := boundingBox(data)
	scores := make([]float64, len(candidates))

	forEachIndex(len(candidates), p.Workers, func(i int) {
		scores[i] = p.gapScore(data, candidates[i], lo, hi, nRefs, maxIter)
	})
	return scores, nil
}

func (p *GapPicker) gapScore(data [][]float64, cand *KMeans, lo, hi []float64, nRefs, maxIter int) float64 {
	w := withinDispersion(data, cand.Labels, cand.ClusterCenters)
	if !(w > 0) || math.IsInf(w, 1) {
		return math.NaN()
	}
	logW := math.Log(w)

	logRefs := make([]float64, nRefs)
	for b := 0; b < nRefs; b++ {
		seed := deriveSeed(p.RandomSeed, uint64(cand.NClusters)<<20|uint64(b))
		rng := newRand(seed)
		ref := uniformReference(len(data), lo, hi, rng)

		var refFit *KMeans
		if cand.NClusters == 1 {
			refFit = singleClusterKMeans(ref)
		} else {
			refFit = fitKMeans(ref, cand.NClusters, maxIter, 1e-4, rng, 1)
		}
		if !(refFit.Inertia > 0) {
			return math.NaN()
		}
		logRefs[b] = math.Log(refFit.Inertia)
	}

	mean := stat.Mean(logRefs, nil)
	sd := math.Sqrt(stat.MomentAbout(2, logRefs, mean, nil))
	s := sd * math.Sqrt(1+1/float64(nRefs))
	return mean - logW - s
}

// Select picks the smallest candidate whose score is at least the next valid
// candidate's score, i.e. the point where growing the cluster count stops
// paying beyond the noise margin. Candidates are assumed ordered by
// ascending cluster count. NaN candidates are skipped; with no valid
// candidate at all, ok is false.
func (p *GapPicker) Select(scores []float64) (int, bool) {
	last := -1
	for i, s := range scores {
		if math.IsNaN(s) {
			continue
		}
		if last >= 0 && scores[last] >= s {
			return last, true
		}
		last = i
	}
	if last < 0 {
		return -1, false
	}
	return last, true
}

// Report lists cluster count, adjusted gap score and dispersion per candidate.
func (p *GapPicker) Report(candidates []*KMeans, scores []float64) []PickerReportRow {
	return pickerReport(candidates, scores)
}

// boundingBox returns per-column minima and maxima of data.
func boundingBox(data [][]float64) (lo, hi []float64) {
	dims := len(data[0])
	lo = make([]float64, dims)
	hi = make([]float64, dims)
	copy(lo, data[0])
	copy(hi, data[0])
	for _, row := range data[1:] {
		for j, v := range row {
			if v < lo[j] {
				lo[j] = v
			}
			if v > hi[j] {
				hi[j] = v
			}
		}
	}
	return lo, hi
}

// uniformReference draws n rows uniformly from the box [lo, hi].
func uniformReference(n int, lo, hi []float64, rng *rand.Rand) [][]float64 {
	out := make([][]float64, n)
	for i := range out {
		row := make([]float64, len(lo))
		for j := range row {
			row[j] = lo[j] + rng.Float64()*(hi[j]-lo[j])
		}
		out[i] = row
	}
	return out
}
