package models

import "errors"

// LogisticClassifier is a small logistic-regression model trained with
// plain SGD. It fills the ensemble's pattern slot in demo deployments
// where no externally trained model artifact is available, and doubles as
// a full-capability model (probabilities + decision scores) in tests.
type LogisticClassifier struct {
	weights []float64
	bias    float64
	classes []string
	lr      float64
	epochs  int
	trained bool
}

func NewLogisticClassifier(numFeatures int) *LogisticClassifier {
	return &LogisticClassifier{
		weights: make([]float64, numFeatures),
		classes: []string{"normal", "attack"},
		lr:      0.1,
		epochs:  200,
	}
}

// Train runs SGD over the full dataset for a fixed epoch count.
func (c *LogisticClassifier) Train(X [][]float64, y []int) error {
	if len(X) == 0 || len(X) != len(y) {
		return errors.New("logistic: training data empty or labels mismatched")
	}
	for epoch := 0; epoch < c.epochs; epoch++ {
		for i, row := range X {
			pred := sigmoid(c.decision(row))
			gradient := pred - float64(y[i])
			for j, v := range row {
				if j >= len(c.weights) {
					break
				}
				c.weights[j] -= c.lr * gradient * v
			}
			c.bias -= c.lr * gradient
		}
	}
	c.trained = true
	return nil
}

func (c *LogisticClassifier) decision(row []float64) float64 {
	z := c.bias
	for j, v := range row {
		if j >= len(c.weights) {
			break
		}
		z += c.weights[j] * v
	}
	return z
}

func (c *LogisticClassifier) DecisionFunction(X [][]float64) ([]float64, error) {
	if !c.trained {
		return nil, errors.New("logistic: model not trained")
	}
	out := make([]float64, len(X))
	for i, row := range X {
		out[i] = c.decision(row)
	}
	return out, nil
}

// Score returns the attack probability per row.
func (c *LogisticClassifier) Score(X [][]float64) ([]float64, error) {
	raw, err := c.DecisionFunction(X)
	if err != nil {
		return nil, err
	}
	out := make([]float64, len(raw))
	for i, z := range raw {
		out[i] = sigmoid(z)
	}
	return out, nil
}

func (c *LogisticClassifier) PredictProba(X [][]float64) ([][]float64, error) {
	scores, err := c.Score(X)
	if err != nil {
		return nil, err
	}
	out := make([][]float64, len(scores))
	for i, p := range scores {
		out[i] = []float64{1 - p, p}
	}
	return out, nil
}

func (c *LogisticClassifier) Predict(X [][]float64) ([]string, error) {
	scores, err := c.Score(X)
	if err != nil {
		return nil, err
	}
	labels := make([]string, len(scores))
	for i, p := range scores {
		labels[i] = c.classes[0]
		if p > 0.5 {
			labels[i] = c.classes[1]
		}
	}
	return labels, nil
}

func (c *LogisticClassifier) Classes() []string {
	return c.classes
}
