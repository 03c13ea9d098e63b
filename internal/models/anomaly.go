package models

import (
	"errors"
	"math"

	"github.com/grd/stat"
)

// DistanceAnomalyScorer is an unsupervised scorer fitted on normal-only
// traffic. The raw score per row is the mean absolute z-distance from the
// fitted feature distribution; scores are min-max normalized within each
// scored batch so the ensemble receives values in [0,1], mirroring how
// autoencoder reconstruction errors are batch-normalized.
type DistanceAnomalyScorer struct {
	means  []float64
	stds   []float64
	fitted bool
}

func NewDistanceAnomalyScorer() *DistanceAnomalyScorer {
	return &DistanceAnomalyScorer{}
}

// Fit learns per-feature mean and standard deviation from X.
func (a *DistanceAnomalyScorer) Fit(X [][]float64) error {
	if len(X) == 0 {
		return errors.New("anomaly: no data to fit")
	}
	numFeatures := len(X[0])
	a.means = make([]float64, numFeatures)
	a.stds = make([]float64, numFeatures)

	column := make([]float64, len(X))
	for j := 0; j < numFeatures; j++ {
		for i, row := range X {
			column[i] = row[j]
		}
		values := stat.Float64Slice(column)
		mean := stat.Mean(values)
		a.means[j] = mean
		a.stds[j] = math.Sqrt(stat.VarianceWithFixedMean(values, mean))
	}
	a.fitted = true
	return nil
}

// ReconstructionError scores each row of X.
func (a *DistanceAnomalyScorer) ReconstructionError(X [][]float64) ([]float64, error) {
	if !a.fitted {
		return nil, errors.New("anomaly: scorer not fitted")
	}

	raw := make([]float64, len(X))
	for i, row := range X {
		var sum float64
		var counted int
		for j, v := range row {
			if j >= len(a.means) {
				break
			}
			if a.stds[j] > 1e-9 {
				sum += math.Abs((v - a.means[j]) / a.stds[j])
			} else {
				sum += math.Abs(v - a.means[j])
			}
			counted++
		}
		if counted > 0 {
			raw[i] = sum / float64(counted)
		}
	}

	if len(raw) == 0 {
		return raw, nil
	}

	values := stat.Float64Slice(raw)
	maxVal, _ := stat.Max(values)
	minVal, _ := stat.Min(values)
	spread := maxVal - minVal
	out := make([]float64, len(raw))
	if spread < 1e-12 {
		return out, nil
	}
	for i, v := range raw {
		out[i] = (v - minVal) / spread
	}
	return out, nil
}
