package divik

import (
	"fmt"
	"math"
)

// GMMSelector is a feature selector that fits a 1-D Gaussian mixture to a
// per-feature characteristic (mean or variance) and keeps the features that
// fall into the high-characteristic "signal" components. The lowest-mean
// components are treated as noise.
//
// Configure the exported fields, then call Fit. Zero values get defaults
// matching DefaultConfig (NCandidates 0 means "all components but the noise
// floor").
type GMMSelector struct {
	// Stat is the per-feature characteristic to threshold on. Default: mean.
	Stat Stat

	// UseLog thresholds on the logarithm of the characteristic instead of the
	// characteristic itself. All characteristic values must be positive.
	UseLog bool

	// PreserveHigh keeps the high-characteristic features. When false the
	// characteristic is negated and the low end is kept instead.
	// Note: the zero value selects the low end; set to true explicitly for
	// the usual "keep signal" behavior.
	PreserveHigh bool

	// NCandidates is how many of the highest-mean mixture components are
	// considered signal. 0 means all but the lowest-mean (noise floor)
	// component.
	NCandidates int

	// MinFeatures is the minimum number of features that must survive
	// selection. Default: 1.
	MinFeatures int

	// MinFeaturesRate is like MinFeatures but relative to the input feature
	// count; the larger of the two bounds applies.
	MinFeaturesRate float64

	// MaxComponents caps the mixture model-selection search. Default: 10.
	MaxComponents int

	// Selected is the fitted keep/drop mask, one entry per input column.
	Selected []bool

	mix       *mixture
	threshold float64
	fitted    bool
}

// Fit learns the feature mask from data. The mask length always equals the
// column count of data.
func (s *GMMSelector) Fit(data [][]float64) error {
	if s.MinFeatures == 0 {
		s.MinFeatures = 1
	}
	if s.MaxComponents == 0 {
		s.MaxComponents = 10
	}
	if s.MaxComponents < 1 {
		return fmt.Errorf("divik: MaxComponents must be >= 1, got %d", s.MaxComponents)
	}
	stat := s.Stat
	if stat == "" {
		stat = StatMean
	}

	vals, err := Characteristic(data, stat, s.UseLog, s.PreserveHigh)
	if err != nil {
		return err
	}
	nFeatures := len(vals)

	mix, err := bestMixture(vals, s.MaxComponents)
	if err != nil {
		return err
	}
	s.mix = mix

	k := mix.components()
	numSignal := s.NCandidates
	if numSignal <= 0 {
		numSignal = k - 1
	}
	numSignal = min(numSignal, k)

	minKeep := max(s.MinFeatures, int(math.Ceil(s.MinFeaturesRate*float64(nFeatures))))
	assignment := mix.assign(vals)

	// Grow the signal set downward (absorbing the next-highest noise
	// component) until enough features survive or everything is kept.
	for {
		s.threshold = signalThreshold(vals, assignment, k-numSignal)
		kept := 0
		for _, v := range vals {
			if v >= s.threshold {
				kept++
			}
		}
		if kept >= minKeep || numSignal >= k {
			break
		}
		numSignal++
	}

	s.Selected = make([]bool, nFeatures)
	for j, v := range vals {
		s.Selected[j] = v >= s.threshold
	}
	s.fitted = true
	return nil
}

// signalThreshold is the boundary between noise and signal components: the
// minimum characteristic value among features assigned to a component with
// index >= firstSignal. +Inf when the signal set is empty.
func signalThreshold(vals []float64, assignment []int, firstSignal int) float64 {
	threshold := math.Inf(1)
	for i, comp := range assignment {
		if comp >= firstSignal && vals[i] < threshold {
			threshold = vals[i]
		}
	}
	return threshold
}

// Transform returns data restricted to the selected columns.
func (s *GMMSelector) Transform(data [][]float64) ([][]float64, error) {
	return applyMask(data, s.Selected, s.fitted)
}

// RawThreshold reports the learned threshold in original characteristic
// units, undoing the sign flip and the log transform.
func (s *GMMSelector) RawThreshold() float64 {
	return characteristicToRaw(s.threshold, s.UseLog, s.PreserveHigh)
}

// HighAbundanceAndVarianceSelector removes low-mean and low-variance
// features by composing two GMMSelectors: the first drops low-abundance
// columns (only the single highest-mean component counts as definite
// signal), the second drops low-variance columns among the survivors (every
// component judged signal is kept). A column survives only if it passes both
// stages.
type HighAbundanceAndVarianceSelector struct {
	// UseLog applies log filtering in both stages; all means and variances
	// must then be positive.
	UseLog bool

	// MinFeatures is the minimum surviving feature count per stage.
	// Default: 1.
	MinFeatures int

	// MinFeaturesRate is like MinFeatures but relative to each stage's input
	// width.
	MinFeaturesRate float64

	// MaxComponents caps the GMM decomposition in both stages. Default: 10.
	MaxComponents int

	// AbundanceSelector and VarianceSelector are the fitted stages.
	AbundanceSelector *GMMSelector
	VarianceSelector  *GMMSelector

	// Selected is the combined keep/drop mask over the original columns.
	Selected []bool

	fitted bool
}

// Fit learns the combined mask from data.
func (s *HighAbundanceAndVarianceSelector) Fit(data [][]float64) error {
	s.AbundanceSelector = &GMMSelector{
		Stat:            StatMean,
		UseLog:          s.UseLog,
		PreserveHigh:    true,
		NCandidates:     1,
		MinFeatures:     s.MinFeatures,
		MinFeaturesRate: s.MinFeaturesRate,
		MaxComponents:   s.MaxComponents,
	}
	if err := s.AbundanceSelector.Fit(data); err != nil {
		return err
	}
	filtered, err := s.AbundanceSelector.Transform(data)
	if err != nil {
		return err
	}

	s.VarianceSelector = &GMMSelector{
		Stat:            StatVar,
		UseLog:          s.UseLog,
		PreserveHigh:    true,
		MinFeatures:     s.MinFeatures,
		MinFeaturesRate: s.MinFeaturesRate,
		MaxComponents:   s.MaxComponents,
	}
	if err := s.VarianceSelector.Fit(filtered); err != nil {
		return err
	}

	// Scatter the variance mask into the positions the abundance mask kept.
	s.Selected = make([]bool, len(s.AbundanceSelector.Selected))
	next := 0
	for j, kept := range s.AbundanceSelector.Selected {
		if kept {
			s.Selected[j] = s.VarianceSelector.Selected[next]
			next++
		}
	}
	s.fitted = true
	return nil
}

// Transform returns data restricted to the columns that survived both stages.
func (s *HighAbundanceAndVarianceSelector) Transform(data [][]float64) ([][]float64, error) {
	return applyMask(data, s.Selected, s.fitted)
}

// NSelected is the number of retained features.
func (s *HighAbundanceAndVarianceSelector) NSelected() int {
	count := 0
	for _, kept := range s.Selected {
		if kept {
			count++
		}
	}
	return count
}

func applyMask(data [][]float64, mask []bool, fitted bool) ([][]float64, error) {
	if !fitted {
		return nil, fmt.Errorf("divik: selector is not fitted")
	}
	width := 0
	for _, kept := range mask {
		if kept {
			width++
		}
	}
	out := make([][]float64, len(data))
	for i, row := range data {
		if len(row) != len(mask) {
			return nil, fmt.Errorf("divik: row %d has %d columns, mask expects %d", i, len(row), len(mask))
		}
		filtered := make([]float64, 0, width)
		for j, kept := range mask {
			if kept {
				filtered = append(filtered, row[j])
			}
		}
		out[i] = filtered
	}
	return out, nil
}
