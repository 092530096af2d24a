package divik

import (
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"
)

const (
	gmmMaxIter = 200
	gmmTol     = 1e-8
)

// mixture is a fitted 1-D Gaussian mixture with components sorted by mean
// ascending. It is the model behind GMMSelector's noise/signal split.
type mixture struct {
	weights       []float64
	means         []float64
	sigmas        []float64
	logLikelihood float64
}

func (m *mixture) components() int { return len(m.means) }

// logProbs fills dst with the per-component joint log density log(w_c) +
// log N(x; mu_c, sigma_c).
func (m *mixture) logProbs(x float64, dst []float64) {
	for c := range m.means {
		n := distuv.Normal{Mu: m.means[c], Sigma: m.sigmas[c]}
		dst[c] = math.Log(m.weights[c]) + n.LogProb(x)
	}
}

// assign returns the index of the maximum-posterior component for each value.
// Components are sorted by mean, so higher indices mean higher characteristic.
func (m *mixture) assign(values []float64) []int {
	k := m.components()
	buf := make([]float64, k)
	out := make([]int, len(values))
	for i, x := range values {
		m.logProbs(x, buf)
		best := 0
		for c := 1; c < k; c++ {
			if buf[c] > buf[best] {
				best = c
			}
		}
		out[i] = best
	}
	return out
}

func (m *mixture) sortByMean() {
	idx := make([]int, m.components())
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool { return m.means[idx[a]] < m.means[idx[b]] })
	w := make([]float64, len(idx))
	mu := make([]float64, len(idx))
	sg := make([]float64, len(idx))
	for i, j := range idx {
		w[i], mu[i], sg[i] = m.weights[j], m.means[j], m.sigmas[j]
	}
	m.weights, m.means, m.sigmas = w, mu, sg
}

// fitMixture runs EM for a k-component 1-D Gaussian mixture. Initialization
// is deterministic: means at evenly spaced quantiles of the sorted values,
// shared variance, uniform weights. Returns an error when a component
// collapses to zero responsibility mass.
func fitMixture(values []float64, k int) (*mixture, error) {
	n := len(values)
	if k < 1 {
		return nil, fmt.Errorf("divik: mixture needs k >= 1, got %d", k)
	}
	if n < k {
		return nil, fmt.Errorf("divik: mixture needs at least k=%d values, got %d", k, n)
	}

	lo := floats.Min(values)
	hi := floats.Max(values)
	// Collapsed components get their sigma floored so the density stays finite.
	sigmaFloor := 1e-9 + 1e-6*(hi-lo)

	mean := stat.Mean(values, nil)
	sigma := math.Sqrt(stat.MomentAbout(2, values, mean, nil))
	if sigma < sigmaFloor {
		sigma = sigmaFloor
	}

	if k == 1 {
		ll := 0.0
		n1 := distuv.Normal{Mu: mean, Sigma: sigma}
		for _, x := range values {
			ll += n1.LogProb(x)
		}
		return &mixture{
			weights:       []float64{1},
			means:         []float64{mean},
			sigmas:        []float64{sigma},
			logLikelihood: ll,
		}, nil
	}

	sorted := make([]float64, n)
	copy(sorted, values)
	sort.Float64s(sorted)

	m := &mixture{
		weights: make([]float64, k),
		means:   make([]float64, k),
		sigmas:  make([]float64, k),
	}
	for c := 0; c < k; c++ {
		m.weights[c] = 1.0 / float64(k)
		m.means[c] = sorted[(2*c+1)*n/(2*k)]
		m.sigmas[c] = sigma
	}

	resp := make([]float64, n*k)
	buf := make([]float64, k)
	prevLL := math.Inf(-1)
	for iter := 0; iter < gmmMaxIter; iter++ {
		// E-step.
		ll := 0.0
		for i, x := range values {
			m.logProbs(x, buf)
			total := floats.LogSumExp(buf)
			ll += total
			for c := 0; c < k; c++ {
				resp[i*k+c] = math.Exp(buf[c] - total)
			}
		}
		m.logLikelihood = ll

		// M-step.
		for c := 0; c < k; c++ {
			var mass, mu float64
			for i, x := range values {
				r := resp[i*k+c]
				mass += r
				mu += r * x
			}
			if mass < 1e-12 {
				return nil, fmt.Errorf("divik: mixture component %d of %d collapsed", c, k)
			}
			mu /= mass
			var v float64
			for i, x := range values {
				d := x - mu
				v += resp[i*k+c] * d * d
			}
			v /= mass
			m.weights[c] = mass / float64(n)
			m.means[c] = mu
			m.sigmas[c] = math.Sqrt(v)
			if m.sigmas[c] < sigmaFloor {
				m.sigmas[c] = sigmaFloor
			}
		}

		if math.Abs(ll-prevLL) < gmmTol*(1+math.Abs(ll)) {
			break
		}
		prevLL = ll
	}

	m.sortByMean()
	return m, nil
}

// bic is the Bayesian information criterion of a fitted mixture; lower is
// better. A k-component 1-D mixture has 3k-1 free parameters.
func (m *mixture) bic(n int) float64 {
	p := float64(3*m.components() - 1)
	return -2*m.logLikelihood + p*math.Log(float64(n))
}

// bestMixture searches component counts 1..maxComponents and keeps the fit
// with the lowest BIC. A larger count must strictly improve BIC to win, so
// ties prefer fewer components. Counts beyond the number of distinct values
// are not attempted.
func bestMixture(values []float64, maxComponents int) (*mixture, error) {
	if maxComponents < 1 {
		return nil, fmt.Errorf("divik: max components must be >= 1, got %d", maxComponents)
	}
	distinct := countDistinct(values)
	limit := min(maxComponents, distinct)
	if limit < 1 {
		limit = 1
	}

	var best *mixture
	bestBIC := math.Inf(1)
	for k := 1; k <= limit; k++ {
		m, err := fitMixture(values, k)
		if err != nil {
			// A collapsed fit only disqualifies this component count.
			continue
		}
		if b := m.bic(len(values)); b < bestBIC {
			best, bestBIC = m, b
		}
	}
	if best == nil {
		return nil, fmt.Errorf("divik: no mixture fit succeeded for %d values", len(values))
	}
	return best, nil
}

func countDistinct(values []float64) int {
	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)
	distinct := 0
	for i, v := range sorted {
		if i == 0 || v != sorted[i-1] {
			distinct++
		}
	}
	return distinct
}
