// Package inference wraps a trained classifier with confidence scoring,
// per-class thresholding and temporal smoothing for serving.
package inference

import (
	"errors"
	"math"
	"strings"

	"github.com/grd/stat"

	"smartguard/internal/models"
	"smartguard/pkg/types"
)

// Result carries one prediction per scored row.
type Result struct {
	Labels        []string
	Confidence    []float64
	Severity      []types.Severity
	LowConfidence []bool
	// Proba is nil when the model does not expose probabilities.
	Proba [][]float64
}

// Config tunes the Predictor. Zero values select the defaults.
type Config struct {
	// ConfidenceThreshold marks predictions below it as low confidence.
	ConfidenceThreshold float64
	// NormalClassNames identify the non-attack class, case-insensitive.
	NormalClassNames []string
	// PerClassThresholds downgrade a predicted label to the normal class
	// when its class probability falls below the configured minimum.
	PerClassThresholds map[string]float64
	// SmoothingWindow averages confidence over the last N calls when > 1.
	SmoothingWindow int
}

// Predictor serves batch and streaming predictions. The only mutable state
// is the smoothing history, so each logical stream needs its own instance;
// a single Predictor is not safe for concurrent Predict calls.
type Predictor struct {
	model               models.Classifier
	confidenceThreshold float64
	normalClasses       map[string]bool
	perClassThresholds  map[string]float64
	smoothingWindow     int
	scoreHistory        []float64
}

func NewPredictor(model models.Classifier, cfg Config) (*Predictor, error) {
	if model == nil {
		return nil, errors.New("inference: model is required")
	}
	if cfg.ConfidenceThreshold == 0 {
		cfg.ConfidenceThreshold = 0.7
	}
	if len(cfg.NormalClassNames) == 0 {
		cfg.NormalClassNames = []string{"normal", "benign"}
	}
	normalClasses := make(map[string]bool, len(cfg.NormalClassNames))
	for _, name := range cfg.NormalClassNames {
		normalClasses[strings.ToLower(name)] = true
	}
	return &Predictor{
		model:               model,
		confidenceThreshold: cfg.ConfidenceThreshold,
		normalClasses:       normalClasses,
		perClassThresholds:  cfg.PerClassThresholds,
		smoothingWindow:     cfg.SmoothingWindow,
	}, nil
}

func (p *Predictor) isNormalLabel(label string) bool {
	return p.normalClasses[strings.ToLower(label)]
}

// Predict labels each row of X with confidence, severity and a
// low-confidence flag.
//
// Confidence source priority: max class probability when the model exposes
// probabilities; otherwise a logistic transform of the decision score;
// otherwise a constant 1.0 (degenerate but valid, kept for compatibility).
func (p *Predictor) Predict(X [][]float64) (*Result, error) {
	labels, err := p.model.Predict(X)
	if err != nil {
		return nil, err
	}

	var proba [][]float64
	if estimator, ok := p.model.(models.ProbabilityEstimator); ok {
		proba, err = estimator.PredictProba(X)
		if err != nil {
			return nil, err
		}
	}

	conf := make([]float64, len(labels))
	switch {
	case proba != nil:
		for i, row := range proba {
			best := 0.0
			for _, v := range row {
				if v > best {
					best = v
				}
			}
			conf[i] = best
		}
	default:
		if scorer, ok := p.model.(models.DecisionScorer); ok {
			scores, err := scorer.DecisionFunction(X)
			if err != nil {
				return nil, err
			}
			for i, s := range scores {
				conf[i] = 1.0 / (1.0 + math.Exp(-s))
			}
		} else {
			for i := range conf {
				conf[i] = 1.0
			}
		}
	}

	labels, conf = p.applyPerClassThresholds(labels, conf, proba)
	conf = p.applySmoothing(conf)

	result := &Result{
		Labels:        labels,
		Confidence:    conf,
		Severity:      make([]types.Severity, len(labels)),
		LowConfidence: make([]bool, len(labels)),
		Proba:         proba,
	}
	for i := range labels {
		result.LowConfidence[i] = conf[i] < p.confidenceThreshold
		result.Severity[i] = p.severity(labels[i], conf[i])
	}
	return result, nil
}

// applyPerClassThresholds downgrades under-threshold predictions to the
// normal class to reduce false positives. Silently skipped when there are
// no thresholds, no probabilities, or the normal class cannot be located.
func (p *Predictor) applyPerClassThresholds(labels []string, conf []float64, proba [][]float64) ([]string, []float64) {
	if len(p.perClassThresholds) == 0 || proba == nil {
		return labels, conf
	}

	classes := p.model.Classes()
	normalIdx := -1
	classIndex := make(map[string]int, len(classes))
	for i, c := range classes {
		classIndex[c] = i
		if normalIdx < 0 && p.isNormalLabel(c) {
			normalIdx = i
		}
	}
	if normalIdx < 0 {
		return labels, conf
	}

	for i, label := range labels {
		threshold, ok := p.perClassThresholds[label]
		if !ok {
			continue
		}
		predIdx, ok := classIndex[label]
		if !ok {
			continue
		}
		if proba[i][predIdx] < threshold {
			labels[i] = classes[normalIdx]
			conf[i] = proba[i][normalIdx]
		}
	}
	return labels, conf
}

// applySmoothing appends each confidence to the bounded history and
// replaces it with the history mean. A window of 1 or less disables it.
func (p *Predictor) applySmoothing(conf []float64) []float64 {
	if p.smoothingWindow <= 1 {
		return conf
	}

	smoothed := make([]float64, len(conf))
	for i, v := range conf {
		p.scoreHistory = append(p.scoreHistory, v)
		if len(p.scoreHistory) > p.smoothingWindow {
			p.scoreHistory = p.scoreHistory[len(p.scoreHistory)-p.smoothingWindow:]
		}
		smoothed[i] = stat.Mean(stat.Float64Slice(p.scoreHistory))
	}
	return smoothed
}

func (p *Predictor) severity(label string, confidence float64) types.Severity {
	if p.isNormalLabel(label) {
		return types.SeverityLow
	}
	switch {
	case confidence >= 0.9:
		return types.SeverityHigh
	case confidence >= 0.7:
		return types.SeverityMedium
	default:
		return types.SeverityLow
	}
}
