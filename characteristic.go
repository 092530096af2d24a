package divik

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat"
)

// errNonPositiveLog marks a log-filtering request against a characteristic
// with non-positive values. At the recursion root this is a configuration
// problem; deeper nodes recover by becoming leaves.
var errNonPositiveLog = errors.New("divik: feature characteristic must be positive with log filtering")

// Stat selects the per-feature statistic used for thresholding.
type Stat string

const (
	StatMean Stat = "mean"
	StatVar  Stat = "var"
)

// Characteristic converts a feature matrix into one scalar per column: the
// column mean or (population) variance, optionally log-transformed, optionally
// sign-inverted.
//
// With useLog, every statistic value must be strictly positive; a
// non-positive value is an input-validity error, not something to clamp.
// With preserveHigh false the vector is negated so that "keep high values"
// downstream uniformly means "keep values preferred by this selector".
func Characteristic(data [][]float64, s Stat, useLog, preserveHigh bool) ([]float64, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("divik: characteristic requires at least one row")
	}
	dims := len(data[0])
	if dims == 0 {
		return nil, fmt.Errorf("divik: characteristic requires at least one column")
	}

	vals := make([]float64, dims)
	col := make([]float64, len(data))
	for j := 0; j < dims; j++ {
		for i, row := range data {
			col[i] = row[j]
		}
		mean := stat.Mean(col, nil)
		switch s {
		case StatMean:
			vals[j] = mean
		case StatVar:
			// Population variance, i.e. the second central moment.
			vals[j] = stat.MomentAbout(2, col, mean, nil)
		default:
			return nil, fmt.Errorf("divik: stat must be %q or %q, got %q", StatMean, StatVar, s)
		}
	}

	if useLog {
		for j, v := range vals {
			if v <= 0 {
				return nil, fmt.Errorf("%w: got %g at column %d", errNonPositiveLog, v, j)
			}
			vals[j] = math.Log(v)
		}
	}

	if !preserveHigh {
		for j := range vals {
			vals[j] = -vals[j]
		}
	}

	return vals, nil
}

// characteristicToRaw maps a threshold learned in characteristic space back
// to original units: undo the sign flip, then undo the log.
func characteristicToRaw(threshold float64, useLog, preserveHigh bool) float64 {
	if !preserveHigh {
		threshold = -threshold
	}
	if useLog {
		threshold = math.Exp(threshold)
	}
	return threshold
}

// rawToCharacteristic is the inverse of characteristicToRaw.
func rawToCharacteristic(raw float64, useLog, preserveHigh bool) float64 {
	if useLog {
		raw = math.Log(raw)
	}
	if !preserveHigh {
		raw = -raw
	}
	return raw
}
