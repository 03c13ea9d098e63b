// Package ensemble combines three independently trained sub-models into a
// single weighted threat score for network-traffic rows.
package ensemble

import (
	"errors"
	"fmt"
	"sync"

	"smartguard/internal/models"
	"smartguard/pkg/types"
)

// Output holds per-sample predictions plus each sub-model's weighted
// contribution to the final score.
type Output struct {
	FinalPrediction     []int     `json:"final_prediction"`
	FinalScore          []float64 `json:"final_score"`
	RFContribution      []float64 `json:"rf_contribution"`
	PatternContribution []float64 `json:"pattern_contribution"`
	AnomalyContribution []float64 `json:"anomaly_contribution"`
	Confidence          []float64 `json:"confidence"`
}

// HybridThreatDetector votes across a probabilistic classifier (rf slot),
// a calibrated pattern scorer and an unsupervised anomaly scorer. Weights
// are swapped as a whole value under the mutex, so Predict always sees a
// consistent set.
type HybridThreatDetector struct {
	rf      models.ProbabilityEstimator
	pattern models.PatternScorer
	anomaly models.AnomalyScorer

	mu      sync.RWMutex
	weights types.EnsembleWeights
}

// DefaultWeights are the shipped voting weights.
func DefaultWeights() types.EnsembleWeights {
	return types.EnsembleWeights{RF: 0.4, Pattern: 0.4, Anomaly: 0.2}
}

func NewHybridThreatDetector(rf models.ProbabilityEstimator, pattern models.PatternScorer, anomaly models.AnomalyScorer, weights types.EnsembleWeights) (*HybridThreatDetector, error) {
	if rf == nil || pattern == nil || anomaly == nil {
		return nil, errors.New("ensemble: all three sub-models are required")
	}
	if weights.RF < 0 || weights.Pattern < 0 || weights.Anomaly < 0 {
		return nil, fmt.Errorf("ensemble: weights must be non-negative, got %+v", weights)
	}
	if weights.RF+weights.Pattern+weights.Anomaly == 0 {
		weights = DefaultWeights()
	}
	return &HybridThreatDetector{rf: rf, pattern: pattern, anomaly: anomaly, weights: weights}, nil
}

// Weights returns a snapshot of the current voting weights.
func (d *HybridThreatDetector) Weights() types.EnsembleWeights {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.weights
}

// Predict produces individual and ensemble predictions for each row of X.
// Confidence is the distance from the 0.5 decision boundary scaled to
// [0,1]: 0 exactly at the boundary, 1 at either extreme.
func (d *HybridThreatDetector) Predict(X [][]float64) (*Output, error) {
	if len(X) == 0 {
		return nil, errors.New("ensemble: empty feature matrix")
	}
	w := d.Weights()

	rfProba, err := d.rf.PredictProba(X)
	if err != nil {
		return nil, fmt.Errorf("rf model: %w", err)
	}
	patternScores, err := d.pattern.Score(X)
	if err != nil {
		return nil, fmt.Errorf("pattern model: %w", err)
	}
	anomalyScores, err := d.anomaly.ReconstructionError(X)
	if err != nil {
		return nil, fmt.Errorf("anomaly model: %w", err)
	}

	n := len(X)
	out := &Output{
		FinalPrediction:     make([]int, n),
		FinalScore:          make([]float64, n),
		RFContribution:      make([]float64, n),
		PatternContribution: make([]float64, n),
		AnomalyContribution: make([]float64, n),
		Confidence:          make([]float64, n),
	}

	for i := 0; i < n; i++ {
		// Column 1 of the probability matrix is the attack class.
		rfPart := w.RF * rfProba[i][1]
		patternPart := w.Pattern * patternScores[i]
		anomalyPart := w.Anomaly * anomalyScores[i]
		score := rfPart + patternPart + anomalyPart

		out.RFContribution[i] = rfPart
		out.PatternContribution[i] = patternPart
		out.AnomalyContribution[i] = anomalyPart
		out.FinalScore[i] = score
		if score > 0.5 {
			out.FinalPrediction[i] = 1
		}
		conf := (score - 0.5) * 2
		if conf < 0 {
			conf = -conf
		}
		if conf > 1 {
			conf = 1
		}
		out.Confidence[i] = conf
	}
	return out, nil
}

// TuneWeights re-normalizes voting weights proportionally to supplied
// per-model F1 metrics (keys "rf_f1", "pattern_f1", "anomaly_f1"). Models
// without a metric keep their current weight. Not invoked on the serving
// path.
func (d *HybridThreatDetector) TuneWeights(metrics map[string]float64) {
	var total float64
	for _, v := range metrics {
		total += v
	}
	if total <= 0 {
		return
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	next := d.weights
	if v, ok := metrics["rf_f1"]; ok {
		next.RF = v / total
	}
	if v, ok := metrics["pattern_f1"]; ok {
		next.Pattern = v / total
	}
	if v, ok := metrics["anomaly_f1"]; ok {
		next.Anomaly = v / total
	}
	d.weights = next
}
