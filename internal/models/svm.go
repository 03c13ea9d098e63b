package models

import (
	"bytes"
	"errors"

	libSvm "github.com/CyrusF/libsvm-go"
)

// SigmoidParams calibrate raw SVM decision values into probabilities via
// 1/(1+exp(-a*(raw-b))). Produced alongside the model by the training job.
type SigmoidParams struct {
	A float64 `json:"a"`
	B float64 `json:"b"`
}

// SVMClassifier wraps a libsvm model with Platt-style calibration. It
// implements Classifier, ProbabilityEstimator, DecisionScorer and
// PatternScorer.
type SVMClassifier struct {
	model     *libSvm.Model
	sigmoid   SigmoidParams
	threshold float64
	classes   []string
}

// NewSVMClassifier loads a model in libsvm text format from raw bytes.
func NewSVMClassifier(modelData []byte, sigmoid SigmoidParams, threshold float64) (*SVMClassifier, error) {
	model := libSvm.NewModelFromFileStream(bytes.NewReader(modelData))
	if model == nil {
		return nil, errors.New("svm: model failed to load")
	}
	if sigmoid.A == 0 {
		sigmoid.A = 1.0
	}
	if threshold <= 0 || threshold >= 1 {
		threshold = 0.5
	}
	return &SVMClassifier{
		model:     model,
		sigmoid:   sigmoid,
		threshold: threshold,
		classes:   []string{"normal", "attack"},
	}, nil
}

// DecisionFunction returns the raw decision value per row. libsvm feature
// indices are 1-based.
func (s *SVMClassifier) DecisionFunction(X [][]float64) ([]float64, error) {
	if s.model == nil {
		return nil, errors.New("svm: model not loaded")
	}
	out := make([]float64, len(X))
	for i, row := range X {
		feats := make(map[int]float64, len(row))
		for j, v := range row {
			feats[j+1] = v
		}
		_, rawValues := s.model.PredictValues(feats)
		if len(rawValues) > 0 {
			out[i] = rawValues[0]
		}
	}
	return out, nil
}

// Score applies the calibrated sigmoid to the raw decision values.
func (s *SVMClassifier) Score(X [][]float64) ([]float64, error) {
	raw, err := s.DecisionFunction(X)
	if err != nil {
		return nil, err
	}
	out := make([]float64, len(raw))
	for i, r := range raw {
		out[i] = sigmoid(s.sigmoid.A * (r - s.sigmoid.B))
	}
	return out, nil
}

func (s *SVMClassifier) PredictProba(X [][]float64) ([][]float64, error) {
	scores, err := s.Score(X)
	if err != nil {
		return nil, err
	}
	out := make([][]float64, len(scores))
	for i, p := range scores {
		out[i] = []float64{1 - p, p}
	}
	return out, nil
}

func (s *SVMClassifier) Predict(X [][]float64) ([]string, error) {
	scores, err := s.Score(X)
	if err != nil {
		return nil, err
	}
	labels := make([]string, len(scores))
	for i, p := range scores {
		labels[i] = s.classes[0]
		if p >= s.threshold {
			labels[i] = s.classes[1]
		}
	}
	return labels, nil
}

func (s *SVMClassifier) Classes() []string {
	return s.classes
}
