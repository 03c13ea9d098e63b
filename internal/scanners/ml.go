package scanners

import (
	"math"

	"smartguard/internal/ensemble"
	"smartguard/internal/features"
	"smartguard/pkg/logging"
	"smartguard/pkg/types"
)

// featureVectorSize is the reduced feature set used for real-time file
// scanning: entropy plus the first 19 byte frequencies.
const featureVectorSize = 20

// ThreatEnsemble is the contract the ML layer needs from the hybrid
// detector. Nil means no model is available and the layer falls back to
// entropy-band heuristics.
type ThreatEnsemble interface {
	Predict(X [][]float64) (*ensemble.Output, error)
}

// MLScanner is the second scanning layer: entropy features classified by
// the injected ensemble, or baseline entropy bands without one.
type MLScanner struct {
	ensemble ThreatEnsemble
}

func NewMLScanner(e ThreatEnsemble) *MLScanner {
	return &MLScanner{ensemble: e}
}

// Scan operates on raw bytes only; filename is not part of this layer.
func (s *MLScanner) Scan(data []byte) *types.LayerResult {
	entropy := features.ShannonEntropy(data)

	if s.ensemble == nil {
		return s.baselineScan(data, entropy)
	}

	dist := features.ByteDistribution(data)
	fv := make([]float64, featureVectorSize)
	fv[0] = entropy
	copy(fv[1:], dist[:featureVectorSize-1])

	out, err := s.ensemble.Predict([][]float64{fv})
	if err != nil || len(out.FinalScore) == 0 {
		logging.WarnLogger.Printf("Ensemble prediction failed, using baseline entropy bands: %v", err)
		return s.baselineScan(data, entropy)
	}

	return &types.LayerResult{
		Layer:      "Machine Learning (Hybrid Ensemble)",
		Entropy:    roundTo(entropy, 4),
		RiskScore:  out.FinalScore[0] * 100,
		Confidence: out.Confidence[0],
		Contributions: map[string]float64{
			"rf":      out.RFContribution[0],
			"pattern": out.PatternContribution[0],
			"anomaly": out.AnomalyContribution[0],
		},
	}
}

// baselineScan covers standalone operation: high entropy suggests packing
// or encryption, near-zero entropy on a non-trivial buffer suggests null
// padding or sled-style shellcode.
func (s *MLScanner) baselineScan(data []byte, entropy float64) *types.LayerResult {
	risk := 0.0
	if entropy > 7.9 {
		risk = 40
	}
	if entropy < 1.0 && len(data) > 100 {
		risk = 30
	}

	return &types.LayerResult{
		Layer:      "Machine Learning (Baseline)",
		Entropy:    roundTo(entropy, 4),
		RiskScore:  risk,
		Confidence: 0.5,
	}
}

func roundTo(v float64, digits int) float64 {
	m := math.Pow(10, float64(digits))
	return math.Round(v*m) / m
}
