package models

import (
	"errors"
	"fmt"
	"math"

	"github.com/CyrusF/go-bayesian"
)

const defaultFeatureBins = 10

// BayesClassifier is a multinomial naive-Bayes model over discretized
// feature tokens. Each numeric feature value is binned and emitted as a
// "f<idx>_b<bin>" token, so the underlying text classifier can consume
// continuous network-flow features.
type BayesClassifier struct {
	classifier bayesian.Classifier
	classes    []string
	bins       int
	trained    bool
}

func NewBayesClassifier() *BayesClassifier {
	return &BayesClassifier{
		classes: []string{"normal", "attack"},
		bins:    defaultFeatureBins,
	}
}

// tokens discretizes one feature row. Values are expected roughly in
// [0,1]; out-of-range values clamp to the edge bins.
func (c *BayesClassifier) tokens(row []float64) []string {
	toks := make([]string, 0, len(row))
	for i, v := range row {
		bin := int(v * float64(c.bins))
		if bin < 0 {
			bin = 0
		}
		if bin >= c.bins {
			bin = c.bins - 1
		}
		toks = append(toks, fmt.Sprintf("f%d_b%d", i, bin))
	}
	return toks
}

// Train fills the bayesian.Classifier from token counts. The struct is
// populated field by field so a model exported as counts (for example from
// an offline training job) can be imported the same way.
func (c *BayesClassifier) Train(X [][]float64, y []int) error {
	if len(X) == 0 || len(X) != len(y) {
		return errors.New("bayes: training data empty or labels mismatched")
	}

	normalClass := bayesian.Class(c.classes[0])
	attackClass := bayesian.Class(c.classes[1])

	learningResults := make(map[string]map[bayesian.Class]int)
	nDocByClass := make(map[bayesian.Class]int)
	nFreqByClass := make(map[bayesian.Class]int)

	for i, row := range X {
		class := normalClass
		if y[i] == 1 {
			class = attackClass
		}
		nDocByClass[class]++
		for _, tok := range c.tokens(row) {
			if _, ok := learningResults[tok]; !ok {
				learningResults[tok] = make(map[bayesian.Class]int)
			}
			learningResults[tok][class]++
			nFreqByClass[class]++
		}
	}

	// Log priors, matching what Classify expects internally.
	totalDocs := float64(len(X))
	priorProbabilities := make(map[bayesian.Class]float64)
	for _, class := range []bayesian.Class{normalClass, attackClass} {
		docs := float64(nDocByClass[class])
		if docs == 0 {
			docs = 1e-9
		}
		priorProbabilities[class] = math.Log(docs / totalDocs)
	}

	c.classifier = bayesian.Classifier{
		Model:              bayesian.MultinomialTf,
		PriorProbabilities: priorProbabilities,
		LearningResults:    learningResults,
		NDocumentByClass:   nDocByClass,
		NFrequencyByClass:  nFreqByClass,
		NAllDocument:       len(X),
	}
	c.trained = true
	return nil
}

// PredictProba returns [P(normal), P(attack)] per row, normalizing the
// classifier's log scores with max-log subtraction for numeric stability.
func (c *BayesClassifier) PredictProba(X [][]float64) ([][]float64, error) {
	if !c.trained {
		return nil, errors.New("bayes: model not trained")
	}

	out := make([][]float64, len(X))
	for i, row := range X {
		allLogScores, _, _ := c.classifier.Classify(c.tokens(row)...)

		logNormal, okNormal := allLogScores[bayesian.Class(c.classes[0])]
		logAttack, okAttack := allLogScores[bayesian.Class(c.classes[1])]
		if !okNormal || !okAttack {
			out[i] = []float64{0.5, 0.5}
			continue
		}

		maxLog := math.Max(logNormal, logAttack)
		pNormal := math.Exp(logNormal - maxLog)
		pAttack := math.Exp(logAttack - maxLog)
		total := pNormal + pAttack
		if total < 1e-12 {
			out[i] = []float64{0.5, 0.5}
			continue
		}
		out[i] = []float64{pNormal / total, pAttack / total}
	}
	return out, nil
}

func (c *BayesClassifier) Predict(X [][]float64) ([]string, error) {
	proba, err := c.PredictProba(X)
	if err != nil {
		return nil, err
	}
	labels := make([]string, len(proba))
	for i, p := range proba {
		labels[i] = c.classes[0]
		if p[1] > p[0] {
			labels[i] = c.classes[1]
		}
	}
	return labels, nil
}

func (c *BayesClassifier) Classes() []string {
	return c.classes
}
