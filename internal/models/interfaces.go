// Package models defines the capability interfaces the serving layers use
// to talk to trained classifiers, plus the concrete models shipped with
// the demo ensemble. Callers discover optional capabilities through type
// assertions instead of reflection.
package models

import "math"

// Classifier is the minimum contract every model satisfies.
type Classifier interface {
	// Predict returns one class label per input row.
	Predict(X [][]float64) ([]string, error)
	// Classes lists the label vocabulary in column order of PredictProba.
	Classes() []string
}

// ProbabilityEstimator is implemented by models that expose a full
// per-class probability matrix.
type ProbabilityEstimator interface {
	PredictProba(X [][]float64) ([][]float64, error)
}

// DecisionScorer is implemented by margin-based models. Scores are
// unbounded; positive means the attack class.
type DecisionScorer interface {
	DecisionFunction(X [][]float64) ([]float64, error)
}

// PatternScorer yields a calibrated attack probability in [0,1] per row.
type PatternScorer interface {
	Score(X [][]float64) ([]float64, error)
}

// AnomalyScorer yields a normalized reconstruction/anomaly score in [0,1]
// per row; higher means more anomalous.
type AnomalyScorer interface {
	ReconstructionError(X [][]float64) ([]float64, error)
}

func sigmoid(x float64) float64 {
	return 1.0 / (1.0 + math.Exp(-x))
}
