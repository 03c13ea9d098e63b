package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// separableDataset builds a trivially separable two-cluster dataset:
// normal rows near 0.2, attack rows near 0.8.
func separableDataset(featureCount int) (X [][]float64, y []int) {
	for i := 0; i < 40; i++ {
		low := make([]float64, featureCount)
		high := make([]float64, featureCount)
		for j := range low {
			low[j] = 0.15 + 0.01*float64(i%5)
			high[j] = 0.75 + 0.01*float64(i%5)
		}
		X = append(X, low, high)
		y = append(y, 0, 1)
	}
	return X, y
}

func TestBayesClassifierSeparatesClusters(t *testing.T) {
	X, y := separableDataset(4)
	c := NewBayesClassifier()
	require.NoError(t, c.Train(X, y))

	proba, err := c.PredictProba([][]float64{
		{0.17, 0.17, 0.17, 0.17},
		{0.78, 0.78, 0.78, 0.78},
	})
	require.NoError(t, err)
	assert.Greater(t, proba[0][0], proba[0][1], "low cluster should look normal")
	assert.Greater(t, proba[1][1], proba[1][0], "high cluster should look like an attack")

	labels, err := c.Predict([][]float64{{0.17, 0.17, 0.17, 0.17}, {0.78, 0.78, 0.78, 0.78}})
	require.NoError(t, err)
	assert.Equal(t, []string{"normal", "attack"}, labels)
	assert.Equal(t, []string{"normal", "attack"}, c.Classes())
}

func TestBayesClassifierRequiresTraining(t *testing.T) {
	c := NewBayesClassifier()
	_, err := c.PredictProba([][]float64{{0.5}})
	assert.Error(t, err)

	assert.Error(t, c.Train(nil, nil))
	assert.Error(t, c.Train([][]float64{{1}}, []int{0, 1}))
}

func TestLogisticClassifierSeparatesClusters(t *testing.T) {
	X, y := separableDataset(4)
	c := NewLogisticClassifier(4)
	require.NoError(t, c.Train(X, y))

	labels, err := c.Predict([][]float64{{0.17, 0.17, 0.17, 0.17}, {0.78, 0.78, 0.78, 0.78}})
	require.NoError(t, err)
	assert.Equal(t, []string{"normal", "attack"}, labels)

	scores, err := c.Score([][]float64{{0.17, 0.17, 0.17, 0.17}, {0.78, 0.78, 0.78, 0.78}})
	require.NoError(t, err)
	assert.Less(t, scores[0], 0.5)
	assert.Greater(t, scores[1], 0.5)

	proba, err := c.PredictProba([][]float64{{0.78, 0.78, 0.78, 0.78}})
	require.NoError(t, err)
	assert.InDelta(t, 1.0, proba[0][0]+proba[0][1], 1e-9)
}

func TestLogisticClassifierDecisionFunctionUntrained(t *testing.T) {
	c := NewLogisticClassifier(2)
	_, err := c.DecisionFunction([][]float64{{1, 2}})
	assert.Error(t, err)
}

func TestDistanceAnomalyScorer(t *testing.T) {
	var normal [][]float64
	for i := 0; i < 50; i++ {
		normal = append(normal, []float64{0.2 + 0.001*float64(i), 0.3 + 0.001*float64(i)})
	}

	a := NewDistanceAnomalyScorer()
	require.NoError(t, a.Fit(normal))

	scores, err := a.ReconstructionError([][]float64{
		{0.22, 0.32}, // inlier
		{5.0, -3.0},  // far outlier
	})
	require.NoError(t, err)
	require.Len(t, scores, 2)
	assert.Equal(t, 0.0, scores[0])
	assert.Equal(t, 1.0, scores[1])
}

func TestDistanceAnomalyScorerDegenerateBatch(t *testing.T) {
	a := NewDistanceAnomalyScorer()
	require.NoError(t, a.Fit([][]float64{{1, 1}, {1, 1}}))

	// Identical rows have zero spread; normalization yields all zeros.
	scores, err := a.ReconstructionError([][]float64{{2, 2}, {2, 2}})
	require.NoError(t, err)
	assert.Equal(t, []float64{0, 0}, scores)
}

func TestDistanceAnomalyScorerRequiresFit(t *testing.T) {
	a := NewDistanceAnomalyScorer()
	_, err := a.ReconstructionError([][]float64{{1}})
	assert.Error(t, err)
	assert.Error(t, a.Fit(nil))
}
