package inference

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"smartguard/pkg/types"
)

// labelOnlyModel exposes nothing beyond the base Classifier contract.
type labelOnlyModel struct {
	labels []string
}

func (m *labelOnlyModel) Predict(X [][]float64) ([]string, error) { return m.labels[:len(X)], nil }
func (m *labelOnlyModel) Classes() []string                       { return []string{"normal", "attack"} }

// probaModel adds class probabilities.
type probaModel struct {
	labelOnlyModel
	proba [][]float64
}

func (m *probaModel) PredictProba(X [][]float64) ([][]float64, error) { return m.proba[:len(X)], nil }

// decisionModel adds raw decision scores but no probabilities.
type decisionModel struct {
	labelOnlyModel
	scores []float64
}

func (m *decisionModel) DecisionFunction(X [][]float64) ([]float64, error) {
	return m.scores[:len(X)], nil
}

func TestPredictConfidenceFromProba(t *testing.T) {
	model := &probaModel{
		labelOnlyModel: labelOnlyModel{labels: []string{"attack", "normal"}},
		proba:          [][]float64{{0.05, 0.95}, {0.8, 0.2}},
	}
	p, err := NewPredictor(model, Config{})
	require.NoError(t, err)

	res, err := p.Predict([][]float64{{1}, {2}})
	require.NoError(t, err)
	assert.Equal(t, []string{"attack", "normal"}, res.Labels)
	assert.InDelta(t, 0.95, res.Confidence[0], 1e-9)
	assert.InDelta(t, 0.80, res.Confidence[1], 1e-9)
	assert.NotNil(t, res.Proba)
}

func TestPredictConfidenceFromDecisionScore(t *testing.T) {
	model := &decisionModel{
		labelOnlyModel: labelOnlyModel{labels: []string{"attack"}},
		scores:         []float64{0},
	}
	p, err := NewPredictor(model, Config{})
	require.NoError(t, err)

	res, err := p.Predict([][]float64{{1}})
	require.NoError(t, err)
	// Logistic transform of a zero decision score.
	assert.InDelta(t, 0.5, res.Confidence[0], 1e-9)
	assert.Nil(t, res.Proba)
}

func TestPredictConfidenceConstantFallback(t *testing.T) {
	model := &labelOnlyModel{labels: []string{"normal"}}
	p, err := NewPredictor(model, Config{})
	require.NoError(t, err)

	res, err := p.Predict([][]float64{{1}})
	require.NoError(t, err)
	assert.Equal(t, 1.0, res.Confidence[0])
	assert.False(t, res.LowConfidence[0])
}

func TestPredictNilModel(t *testing.T) {
	_, err := NewPredictor(nil, Config{})
	assert.Error(t, err)
}

func TestPerClassThresholdDowngrade(t *testing.T) {
	model := &probaModel{
		labelOnlyModel: labelOnlyModel{labels: []string{"attack"}},
		proba:          [][]float64{{0.7, 0.3}},
	}
	p, err := NewPredictor(model, Config{
		PerClassThresholds: map[string]float64{"attack": 0.5},
	})
	require.NoError(t, err)

	res, err := p.Predict([][]float64{{1}})
	require.NoError(t, err)
	assert.Equal(t, "normal", res.Labels[0])
	assert.InDelta(t, 0.7, res.Confidence[0], 1e-9)
	assert.Equal(t, types.SeverityLow, res.Severity[0])
}

func TestPerClassThresholdKeepsConfidentPrediction(t *testing.T) {
	model := &probaModel{
		labelOnlyModel: labelOnlyModel{labels: []string{"attack"}},
		proba:          [][]float64{{0.1, 0.9}},
	}
	p, err := NewPredictor(model, Config{
		PerClassThresholds: map[string]float64{"attack": 0.5},
	})
	require.NoError(t, err)

	res, err := p.Predict([][]float64{{1}})
	require.NoError(t, err)
	assert.Equal(t, "attack", res.Labels[0])
	assert.InDelta(t, 0.9, res.Confidence[0], 1e-9)
}

func TestSmoothingWindow(t *testing.T) {
	model := &probaModel{
		labelOnlyModel: labelOnlyModel{labels: []string{"attack"}},
		proba:          [][]float64{{0.0, 1.0}},
	}
	p, err := NewPredictor(model, Config{SmoothingWindow: 2})
	require.NoError(t, err)

	res, err := p.Predict([][]float64{{1}})
	require.NoError(t, err)
	assert.InDelta(t, 1.0, res.Confidence[0], 1e-9)

	// Second call with a weaker score averages with the first.
	model.proba = [][]float64{{0.5, 0.5}}
	res, err = p.Predict([][]float64{{1}})
	require.NoError(t, err)
	assert.InDelta(t, 0.75, res.Confidence[0], 1e-9)

	// Third call: the window drops the oldest value.
	model.proba = [][]float64{{0.5, 0.5}}
	res, err = p.Predict([][]float64{{1}})
	require.NoError(t, err)
	assert.InDelta(t, 0.5, res.Confidence[0], 1e-9)
}

func TestSmoothingDisabledForWindowOne(t *testing.T) {
	model := &probaModel{
		labelOnlyModel: labelOnlyModel{labels: []string{"attack"}},
		proba:          [][]float64{{0.0, 1.0}},
	}
	p, err := NewPredictor(model, Config{SmoothingWindow: 1})
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		res, err := p.Predict([][]float64{{1}})
		require.NoError(t, err)
		assert.Equal(t, 1.0, res.Confidence[0])
	}
}

func TestSeverityMapping(t *testing.T) {
	cases := []struct {
		label    string
		conf     float64
		expected types.Severity
	}{
		{"normal", 0.99, types.SeverityLow},
		{"attack", 0.95, types.SeverityHigh},
		{"attack", 0.75, types.SeverityMedium},
		{"attack", 0.40, types.SeverityLow},
	}
	for _, tc := range cases {
		model := &probaModel{
			labelOnlyModel: labelOnlyModel{labels: []string{tc.label}},
			proba:          [][]float64{{1 - tc.conf, tc.conf}},
		}
		if tc.label == "normal" {
			model.proba = [][]float64{{tc.conf, 1 - tc.conf}}
		}
		p, err := NewPredictor(model, Config{})
		require.NoError(t, err)

		res, err := p.Predict([][]float64{{1}})
		require.NoError(t, err)
		assert.Equal(t, tc.expected, res.Severity[0], "label %s conf %.2f", tc.label, tc.conf)
	}
}

func TestLowConfidenceFlag(t *testing.T) {
	model := &probaModel{
		labelOnlyModel: labelOnlyModel{labels: []string{"attack"}},
		proba:          [][]float64{{0.4, 0.6}},
	}
	p, err := NewPredictor(model, Config{ConfidenceThreshold: 0.7})
	require.NoError(t, err)

	res, err := p.Predict([][]float64{{1}})
	require.NoError(t, err)
	assert.True(t, res.LowConfidence[0])
}
