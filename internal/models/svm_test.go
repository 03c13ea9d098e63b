package models

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// linearTestModel is a handwritten two-vector linear SVM whose decision
// value is 0.6*(x1+x2) - 0.6: zero on the x1+x2=1 line.
const linearTestModel = `svm_type c_svc
kernel_type linear
nr_class 2
total_sv 2
rho 0.6
label 1 0
nr_sv 1 1
SV
1 1:0.8 2:0.8
-1 1:0.2 2:0.2
`

func newTestSVM(t *testing.T, sigmoid SigmoidParams) *SVMClassifier {
	t.Helper()
	c, err := NewSVMClassifier([]byte(linearTestModel), sigmoid, 0.5)
	require.NoError(t, err)
	return c
}

func TestSVMDecisionFunction(t *testing.T) {
	c := newTestSVM(t, SigmoidParams{})

	raw, err := c.DecisionFunction([][]float64{{0.9, 0.9}, {0.1, 0.1}})
	require.NoError(t, err)
	assert.InDelta(t, 0.48, raw[0], 1e-6)
	assert.InDelta(t, -0.48, raw[1], 1e-6)
}

func TestSVMScoreAppliesCalibration(t *testing.T) {
	c := newTestSVM(t, SigmoidParams{A: 2.0, B: 0.1})

	scores, err := c.Score([][]float64{{0.9, 0.9}})
	require.NoError(t, err)
	expected := 1.0 / (1.0 + math.Exp(-2.0*(0.48-0.1)))
	assert.InDelta(t, expected, scores[0], 1e-6)
}

func TestSVMPredict(t *testing.T) {
	c := newTestSVM(t, SigmoidParams{})

	labels, err := c.Predict([][]float64{{0.9, 0.9}, {0.1, 0.1}})
	require.NoError(t, err)
	assert.Equal(t, []string{"attack", "normal"}, labels)
	assert.Equal(t, []string{"normal", "attack"}, c.Classes())
}

func TestSVMPredictProbaSumsToOne(t *testing.T) {
	c := newTestSVM(t, SigmoidParams{})

	proba, err := c.PredictProba([][]float64{{0.9, 0.9}})
	require.NoError(t, err)
	assert.InDelta(t, 1.0, proba[0][0]+proba[0][1], 1e-9)
	assert.Greater(t, proba[0][1], proba[0][0])
}
